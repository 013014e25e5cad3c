package ports

import (
	"context"

	"github.com/alejandrodnm/lolbot/internal/domain"
)

// Trader ejecuta operaciones autenticadas contra el CLOB y consulta
// el estado on-chain / Data API de la cuenta.
type Trader interface {
	// PlaceOrder firma y coloca una orden limit GTC.
	PlaceOrder(ctx context.Context, req domain.PlaceOrderRequest) (domain.PlacedOrder, error)

	// CancelOrder cancela una orden por su ID. Cancelar una orden ya
	// inexistente no es error.
	CancelOrder(ctx context.Context, orderID string) error

	// GetOpenOrders devuelve el snapshot completo de órdenes abiertas
	// de la cuenta en el CLOB.
	GetOpenOrders(ctx context.Context) ([]domain.OpenOrder, error)

	// GetPositions devuelve las posiciones de la cuenta según la Data API.
	GetPositions(ctx context.Context) ([]domain.Position, error)

	// TokenBalance devuelve el balance on-chain ERC-1155 del token de
	// resultado, en shares. Es la fuente de verdad para detectar fills.
	TokenBalance(ctx context.Context, tokenID string) (float64, error)

	// Balance devuelve el colateral USDC disponible.
	Balance(ctx context.Context) (float64, error)
}
