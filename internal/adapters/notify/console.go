package notify

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/alejandrodnm/lolbot/internal/domain"
)

// Console implementa ports.Notifier.
type Console struct {
	out     io.Writer
	verbose bool
}

// NewConsole crea un notificador que escribe a stdout.
func NewConsole(verbose bool) *Console {
	return &Console{out: os.Stdout, verbose: verbose}
}

// NewConsoleWriter crea un notificador para tests.
func NewConsoleWriter(w io.Writer, verbose bool) *Console {
	return &Console{out: w, verbose: verbose}
}

// Notify imprime el resumen del tick. Los ticks sin actividad salen en
// una línea; los ticks con movimiento añaden una tabla por orden.
func (c *Console) Notify(_ context.Context, r domain.TickReport) error {
	c.printCompact(r)

	if r.HasActivity() && c.verbose {
		c.printTables(r)
	}

	for _, err := range r.Errors {
		fmt.Fprintf(c.out, "  !! %v\n", err)
	}
	return nil
}

// printCompact imprime lo esencial en una línea.
func (c *Console) printCompact(r domain.TickReport) {
	now := r.StartedAt.Format("15:04:05")

	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %d mkts | queue+%d | checked:%d", now,
		r.MarketsDiscovered, r.MarketsQueued, r.OrdersChecked)

	if r.EntriesPlaced > 0 {
		fmt.Fprintf(&sb, " | entries:%d", r.EntriesPlaced)
	}
	if r.OrdersDisappeared > 0 {
		fmt.Fprintf(&sb, " | gone:%d", r.OrdersDisappeared)
	}
	if r.OrdersFilled > 0 {
		fmt.Fprintf(&sb, " | filled:%d", r.OrdersFilled)
	}
	if len(r.OrdersRecreated) > 0 {
		fmt.Fprintf(&sb, " | recreated:%d", len(r.OrdersRecreated))
	}
	if len(r.SellsPlaced) > 0 {
		fmt.Fprintf(&sb, " | tp:%d", len(r.SellsPlaced))
	}
	if r.EndedRemoved > 0 {
		fmt.Fprintf(&sb, " | ended:%d", r.EndedRemoved)
	}
	if len(r.ManualSkips) > 0 {
		fmt.Fprintf(&sb, " | manual:%d", len(r.ManualSkips))
	}
	fmt.Fprintf(&sb, " (%s)", r.Duration.Round(time.Millisecond))

	fmt.Fprintln(c.out, sb.String())
}

// printTables imprime el detalle de recreaciones y ventas del tick.
func (c *Console) printTables(r domain.TickReport) {
	if len(r.OrdersRecreated) > 0 {
		fmt.Fprintln(c.out, "\n  Órdenes recreadas:")
		table := tablewriter.NewWriter(c.out)
		table.Header("Market", "Side", "Old ID", "New ID")
		for _, p := range r.OrdersRecreated {
			table.Append(
				domain.TruncateQuestion("", p.MarketSlug, 30),
				string(p.Side),
				shortID(p.OldOrderID),
				shortID(p.NewOrderID),
			)
		}
		table.Render()
	}

	if len(r.SellsPlaced) > 0 {
		fmt.Fprintln(c.out, "\n  Take-profit colocados:")
		table := tablewriter.NewWriter(c.out)
		table.Header("Market", "Shares", "Price", "Order ID")
		for _, s := range r.SellsPlaced {
			table.Append(
				domain.TruncateQuestion("", s.MarketSlug, 30),
				s.Shares,
				s.Price,
				shortID(s.OrderID),
			)
		}
		table.Render()
	}

	for _, slug := range r.ManualSkips {
		fmt.Fprintf(c.out, "  >> %s sin precio de referencia: gestión manual\n", slug)
	}
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:10] + ".."
	}
	return id
}
