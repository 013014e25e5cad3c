package notify_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/lolbot/internal/adapters/notify"
	"github.com/alejandrodnm/lolbot/internal/domain"
)

func TestNotify_QuietTickIsOneLine(t *testing.T) {
	var buf strings.Builder
	c := notify.NewConsoleWriter(&buf, true)

	report := domain.TickReport{
		StartedAt:         time.Date(2026, 3, 1, 15, 4, 5, 0, time.UTC),
		Duration:          420 * time.Millisecond,
		MarketsDiscovered: 3,
		OrdersChecked:     7,
	}
	require.NoError(t, c.Notify(context.Background(), report))

	out := buf.String()
	assert.Equal(t, 1, strings.Count(out, "\n"))
	assert.Contains(t, out, "[15:04:05]")
	assert.Contains(t, out, "3 mkts")
	assert.Contains(t, out, "checked:7")
}

func TestNotify_ActivityPrintsDetail(t *testing.T) {
	var buf strings.Builder
	c := notify.NewConsoleWriter(&buf, true)

	report := domain.TickReport{
		StartedAt: time.Now(),
		OrdersRecreated: []domain.RecreatedPair{
			{OldOrderID: "0xold1234567890", NewOrderID: "0xnew1234567890", MarketSlug: "lol-t1-geng", Side: domain.SideBuy},
		},
		SellsPlaced: []domain.SellPlaced{
			{OrderID: "0xsell", MarketSlug: "lol-t1-geng", Shares: "8.53", Price: "0.66"},
		},
		ManualSkips: []string{"lol-fnc-g2"},
	}
	require.NoError(t, c.Notify(context.Background(), report))

	out := buf.String()
	assert.Contains(t, out, "recreated:1")
	assert.Contains(t, out, "0xold12345..")
	assert.Contains(t, out, "0.66")
	assert.Contains(t, out, "lol-fnc-g2 sin precio de referencia")
}

func TestNotify_ErrorsAlwaysShown(t *testing.T) {
	var buf strings.Builder
	c := notify.NewConsoleWriter(&buf, false)

	report := domain.TickReport{
		StartedAt: time.Now(),
		Errors:    []error{errors.New("clob timeout")},
	}
	require.NoError(t, c.Notify(context.Background(), report))
	assert.Contains(t, buf.String(), "clob timeout")
}
