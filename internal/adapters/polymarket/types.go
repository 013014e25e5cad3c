package polymarket

import "encoding/json"

// DTOs raw de las APIs de Polymarket. Solo se usan dentro de este paquete.
// La conversión a domain entities se hace en mapping.go.

// --- Gamma API ---

// gammaEvent es un evento de GET /events (agrupa los mercados de un partido).
type gammaEvent struct {
	ID      string        `json:"id"`
	Title   string        `json:"title"`
	Volume  json.Number   `json:"volume"`
	Markets []gammaMarket `json:"markets"`
}

// gammaMarket es un mercado dentro de un evento. Gamma serializa
// outcomes, outcomePrices y clobTokenIds como arrays JSON embebidos
// en strings; se decodifican en mapping.go.
type gammaMarket struct {
	Question      string      `json:"question"`
	Slug          string      `json:"slug"`
	Outcomes      string      `json:"outcomes"`
	OutcomePrices string      `json:"outcomePrices"`
	ClobTokenIDs  string      `json:"clobTokenIds"`
	GameStartTime string      `json:"gameStartTime"`
	EndDate       string      `json:"endDate"`
	Volume        json.Number `json:"volume"`
	Active        bool        `json:"active"`
	Closed        bool        `json:"closed"`
}

// gammaMarketsResponse es la respuesta de GET /markets?slug=.
type gammaMarketsResponse []gammaMarket

// --- Data API ---

// dataPosition es una posición de GET /positions. La Data API devuelve
// los numéricos como number o string según el campo, json.Number cubre ambos.
type dataPosition struct {
	Asset    string      `json:"asset"`
	Size     json.Number `json:"size"`
	Slug     string      `json:"slug"`
	Outcome  string      `json:"outcome"`
	AvgPrice json.Number `json:"avgPrice"`
}
