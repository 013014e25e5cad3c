package ports

import (
	"context"

	"github.com/alejandrodnm/lolbot/internal/domain"
)

// Notifier presenta el resultado de cada tick al usuario.
type Notifier interface {
	// Notify muestra el resumen del tick. En la implementación de
	// consola, imprime una tabla formateada.
	Notify(ctx context.Context, report domain.TickReport) error
}
