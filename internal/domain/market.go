package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Team es uno de los dos resultados de un mercado moneyline binario.
type Team struct {
	Name    string
	TokenID string
	Price   decimal.Decimal
}

// Market es un mercado moneyline binario de League of Legends de la
// Gamma API, reducido a los campos sobre los que opera el bot.
type Market struct {
	Slug       string
	Question   string
	EventTitle string
	StartTime  time.Time
	Volume     decimal.Decimal
	Active     bool
	Closed     bool
	Teams      [2]Team
}

// Strong devuelve el equipo con precio más alto, Weak el otro.
// Un empate resuelve al primer equipo, lo que solo importa en un
// libro exacto 50/50.
func (m Market) Strong() Team {
	if m.Teams[1].Price.GreaterThan(m.Teams[0].Price) {
		return m.Teams[1]
	}
	return m.Teams[0]
}

// Weak devuelve el equipo con precio más bajo.
func (m Market) Weak() Team {
	if m.Teams[1].Price.GreaterThan(m.Teams[0].Price) {
		return m.Teams[0]
	}
	return m.Teams[1]
}

// QueueStatus sigue a un mercado descubierto a través de la puerta de admisión.
type QueueStatus string

const (
	QueuePending QueueStatus = "pending"
	QueueEntered QueueStatus = "entered"
)

// QueuedOpportunity es un mercado esperando en la cola de admisión
// su ventana de entrada.
type QueuedOpportunity struct {
	Slug           string
	EntryTime      time.Time
	MatchStartTime time.Time
	DiscoveredAt   time.Time
	Status         QueueStatus
	EnteredAt      time.Time
}

// Ready indica si la oportunidad puede admitirse en now: dentro de la
// ventana de gracia tras su hora de entrada y estrictamente antes de
// que empiece el partido.
func (q QueuedOpportunity) Ready(now time.Time, grace time.Duration) bool {
	if now.Before(q.EntryTime) {
		return false
	}
	if now.After(q.EntryTime.Add(grace)) {
		return false
	}
	return now.Before(q.MatchStartTime)
}

// Expired indica si la oportunidad quedó fuera de recuperación y debe
// eliminarse de la cola.
func (q QueuedOpportunity) Expired(now time.Time, horizon time.Duration) bool {
	return now.After(q.MatchStartTime.Add(horizon))
}

// TruncateQuestion devuelve la pregunta del mercado truncada a maxLen
// caracteres, con el slug como fallback si está vacía.
func TruncateQuestion(question, slug string, maxLen int) string {
	q := question
	if q == "" {
		q = slug
	}
	if len(q) > maxLen {
		q = q[:maxLen-3] + "..."
	}
	return q
}
