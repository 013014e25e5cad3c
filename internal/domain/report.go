package domain

import "time"

// RecreatedPair registra una recreación: la orden desaparecida y la
// que la reemplaza.
type RecreatedPair struct {
	OldOrderID string
	NewOrderID string
	MarketSlug string
	Side       Side
}

// SellPlaced registra una orden de take-profit colocada en el tick.
type SellPlaced struct {
	OrderID    string
	MarketSlug string
	TokenID    string
	Shares     string
	Price      string
}

// TickReport resume lo que hizo el bot en un tick del bucle de control.
// Lo consume el notificador de consola; el engine no imprime nada.
type TickReport struct {
	StartedAt time.Time
	Duration  time.Duration

	MarketsDiscovered int
	MarketsQueued     int
	EntriesPlaced     int
	EntryOrderIDs     []string

	OrdersChecked     int
	OrdersDisappeared int
	OrdersFilled      int
	OrdersRecreated   []RecreatedPair
	EndedRemoved      int

	SellsPlaced []SellPlaced
	ManualSkips []string // slugs sin precio de referencia, gestión manual

	Errors []error
}

// HasActivity devuelve true si el tick hizo algo digno de reportar.
func (r TickReport) HasActivity() bool {
	return r.EntriesPlaced > 0 || r.OrdersDisappeared > 0 || r.OrdersFilled > 0 ||
		len(r.OrdersRecreated) > 0 || len(r.SellsPlaced) > 0 ||
		r.EndedRemoved > 0 || len(r.Errors) > 0
}
