package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side es el lado de una orden en el CLOB.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// OrderStatus es el estado de ciclo de vida de una orden trackeada.
//
// Transiciones: active → disappeared → {filled | recreated},
// active → filled, disappeared → active (re-observada), cualquiera → cancelled.
// filled, recreated y cancelled son terminales: la reconciliación nunca
// saca una orden de ellos, solo el garbage collection las elimina.
type OrderStatus string

const (
	StatusActive      OrderStatus = "active"
	StatusDisappeared OrderStatus = "disappeared"
	StatusFilled      OrderStatus = "filled"
	StatusRecreated   OrderStatus = "recreated"
	StatusCancelled   OrderStatus = "cancelled"
)

// Terminal devuelve true si la reconciliación no debe tocar este estado.
func (s OrderStatus) Terminal() bool {
	return s == StatusFilled || s == StatusRecreated || s == StatusCancelled
}

// TrackedOrder es una orden que el bot cree haber colocado en el CLOB.
// El CLOB elimina órdenes en reposo silenciosamente, así que cada orden
// colocada se registra aquí y se contrasta contra el snapshot del venue
// en cada tick.
type TrackedOrder struct {
	OrderID    string // hash de la orden en el CLOB, clave única
	TokenID    string
	MarketSlug string
	Side       Side
	Price      decimal.Decimal
	Size       decimal.Decimal // en shares

	// EntryNumber es 1 o 2 para las compras de entrada por tramos, 0 para ventas.
	EntryNumber int
	// ReferenceCents es el precio del equipo fuerte (en centavos) fijado al
	// colocar la entrada. Las decisiones de salida lo recuperan de aquí
	// cuando la caché de precios no tiene entrada para el mercado.
	ReferenceCents float64
	// PlacementID agrupa las órdenes colocadas juntas en un mismo batch de entrada.
	PlacementID string

	CreatedAt        time.Time
	LastSeenAt       time.Time
	DisappearedCount int
	Status           OrderStatus
	RecreatedAs      string // ID de la orden nueva, solo si Status == recreated
}

// Open devuelve true mientras la orden participa en los checks de desaparición.
func (o TrackedOrder) Open() bool {
	return o.Status == StatusActive || o.Status == StatusDisappeared
}

// PlaceOrderRequest se envía al ejecutor de órdenes del CLOB.
// Size siempre va en shares; quien coloque un monto fijo en USDC
// divide por el precio antes.
type PlaceOrderRequest struct {
	TokenID string
	Side    Side
	Price   decimal.Decimal
	Size    decimal.Decimal
}

// PlacedOrder es la respuesta del CLOB tras colocar una orden.
type PlacedOrder struct {
	OrderID string
	Status  string
}

// OpenOrder es una entrada del snapshot de órdenes abiertas del venue.
type OpenOrder struct {
	OrderID string
	TokenID string
	Side    Side
	Price   decimal.Decimal
	Size    decimal.Decimal // tamaño original en shares
}

// Position es la vista del venue de una posición. Solo lectura: se
// consulta de la Data API, nunca se muta localmente.
type Position struct {
	TokenID    string
	Size       decimal.Decimal // shares
	MarketSlug string
	Outcome    string
	AvgPrice   decimal.Decimal
}
