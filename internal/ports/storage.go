package ports

import (
	"context"
	"time"

	"github.com/alejandrodnm/lolbot/internal/domain"
)

// OrderLedger persiste el estado local de cada orden colocada.
// Todas las mutaciones son idempotentes y respetan la monotonía de
// estados: una orden terminal nunca vuelve a un estado abierto.
type OrderLedger interface {
	// Track registra una orden recién colocada como active.
	Track(ctx context.Context, order domain.TrackedOrder) error

	// ObservePresent marca la orden como vista en el snapshot: resetea
	// el contador de desapariciones y, si estaba disappeared, la
	// devuelve a active. No toca estados terminales.
	ObservePresent(ctx context.Context, orderID string, seenAt time.Time) error

	// ObserveAbsent incrementa el contador de desapariciones y pasa la
	// orden a disappeared al alcanzar threshold. No toca estados terminales.
	ObserveAbsent(ctx context.Context, orderID string, threshold int) error

	// MarkFilled / MarkRecreated / MarkCancelled mueven la orden a su
	// estado terminal. MarkRecreated solo aplica desde disappeared.
	MarkFilled(ctx context.Context, orderID string) error
	MarkRecreated(ctx context.Context, orderID, newOrderID string) error
	MarkCancelled(ctx context.Context, orderID string) error

	// OpenOrders devuelve las órdenes en active o disappeared.
	OpenOrders(ctx context.Context) ([]domain.TrackedOrder, error)

	// DisappearedOrders devuelve las órdenes pendientes de reconciliar.
	DisappearedOrders(ctx context.Context) ([]domain.TrackedOrder, error)

	// OrdersByMarket devuelve todas las órdenes de un mercado, en
	// cualquier estado.
	OrdersByMarket(ctx context.Context, slug string) ([]domain.TrackedOrder, error)

	// SellSharesForToken devuelve la suma de tamaños de las órdenes
	// SELL abiertas (active o disappeared) de un token.
	SellSharesForToken(ctx context.Context, tokenID string) (float64, error)

	// DeleteByMarket elimina todas las órdenes de un mercado terminado.
	DeleteByMarket(ctx context.Context, slug string) (int, error)

	// Prune elimina órdenes terminales anteriores a cutoff.
	Prune(ctx context.Context, cutoff time.Time) (int, error)
}

// AdmissionQueue persiste los mercados descubiertos a la espera de su
// ventana de entrada.
type AdmissionQueue interface {
	// Enqueue añade un mercado pendiente. Re-encolar un slug existente
	// no lo modifica.
	Enqueue(ctx context.Context, opp domain.QueuedOpportunity) error

	// Due devuelve las oportunidades pending cuya ventana está abierta en now.
	Due(ctx context.Context, now time.Time, grace time.Duration) ([]domain.QueuedOpportunity, error)

	// MarkEntered marca la oportunidad como entrada.
	MarkEntered(ctx context.Context, slug string, at time.Time) error

	// ExpireStale elimina las oportunidades pasadas de match_start + horizon
	// y las filas con timestamps corruptos. Devuelve cuántas eliminó.
	ExpireStale(ctx context.Context, now time.Time, horizon time.Duration) (int, error)

	// Remove elimina el slug de la cola, en cualquier estado.
	Remove(ctx context.Context, slug string) error

	// Contains indica si el slug ya está en cola, en cualquier estado.
	Contains(ctx context.Context, slug string) (bool, error)
}

// PriceCache persiste snapshots de precio pre-partido de escritura única.
type PriceCache interface {
	// Put guarda el snapshot si no existe ya uno para (slug, token).
	// Escrituras posteriores se ignoran en silencio.
	Put(ctx context.Context, price domain.CachedPrice) error

	// Get devuelve el snapshot de un token y si existe.
	Get(ctx context.Context, slug, tokenID string) (domain.CachedPrice, bool, error)

	// ForMarket devuelve todos los snapshots de un mercado.
	ForMarket(ctx context.Context, slug string) ([]domain.CachedPrice, error)

	// HasMarket indica si el mercado tiene algún snapshot.
	HasMarket(ctx context.Context, slug string) (bool, error)

	// ClearMarket elimina los snapshots de un mercado terminado.
	ClearMarket(ctx context.Context, slug string) error
}
