package strategy

import (
	"github.com/shopspring/decimal"

	"github.com/alejandrodnm/lolbot/internal/domain"
)

// tier define los precios límite de entrada según el precio del equipo
// fuerte en el momento de la admisión. Los rangos van en centavos y
// cubren [Lo, Hi] inclusive.
type tier struct {
	lo, hi   float64
	strong   int64 // precio límite para el equipo fuerte, en centavos
	weak     int64 // precio límite para el equipo débil, en centavos
	balanced bool  // true: una orden por equipo; false: dos sobre el fuerte
}

// La tabla castiga a los favoritos claros: cuanto más caro el fuerte,
// más abajo se colocan los límites respecto al precio actual.
var tiers = []tier{
	{0, 60, 25, 22, true},
	{61, 63.99, 41, 26, false},
	{64, 66.99, 43, 30, false},
	{67, 69.99, 44, 32, false},
	{70, 74.99, 51, 37, false},
	{75, 79.99, 57, 41, false},
	{80, 100, 67, 54, false},
}

// EntryPrices devuelve los precios límite por tramo para un precio del
// fuerte dado en centavos. Un precio en los huecos entre tramos o fuera
// de [0,100] devuelve ok=false: sin tramo no hay estrategia de entrada.
func EntryPrices(strongCents float64) (strong, weak decimal.Decimal, balanced, ok bool) {
	for _, t := range tiers {
		if strongCents >= t.lo && strongCents <= t.hi {
			return cents(t.strong), cents(t.weak), t.balanced, true
		}
	}
	return decimal.Decimal{}, decimal.Decimal{}, false, false
}

func cents(c int64) decimal.Decimal {
	return decimal.New(c, -2)
}

// EntryOrder es una orden de entrada calculada, todavía sin colocar.
type EntryOrder struct {
	Team        domain.Team
	Price       decimal.Decimal
	Shares      decimal.Decimal
	EntryNumber int
}

// CalculateOrders construye las dos órdenes de entrada de un mercado.
// En el tramo balanceado compra ambos equipos; en el resto coloca las
// dos sobre el fuerte a precios escalonados. Cada orden invierte
// entryUSD, y las shares salen de dividir por el precio límite.
// Devuelve nil si el precio del fuerte no cae en ningún tramo.
func CalculateOrders(m domain.Market, entryUSD decimal.Decimal) []EntryOrder {
	strong := m.Strong()
	weak := m.Weak()
	strongCents, _ := strong.Price.Mul(decimal.NewFromInt(100)).Float64()

	pStrong, pWeak, balanced, ok := EntryPrices(strongCents)
	if !ok {
		return nil
	}

	if balanced {
		return []EntryOrder{
			{Team: strong, Price: pStrong, Shares: shares(entryUSD, pStrong), EntryNumber: 1},
			{Team: weak, Price: pWeak, Shares: shares(entryUSD, pWeak), EntryNumber: 2},
		}
	}
	// no balanceado: dos entradas sobre el fuerte, la segunda más abajo
	return []EntryOrder{
		{Team: strong, Price: pStrong, Shares: shares(entryUSD, pStrong), EntryNumber: 1},
		{Team: strong, Price: pWeak, Shares: shares(entryUSD, pWeak), EntryNumber: 2},
	}
}

func shares(usd, price decimal.Decimal) decimal.Decimal {
	return usd.Div(price).Round(2)
}

// ExitPrice decide el precio de venta de una posición a partir de los
// precios de referencia pre-partido. Devuelve false cuando la posición
// debe conservarse.
//
// Reglas sobre el precio del fuerte en centavos:
//   - > 75: favorito claro, se deja correr (sin venta)
//   - ≤ 60: partido parejo; con entrada ≥ 24¢ vende a strong-2,
//     con entrada barata vende al complemento 102-strong
//   - 61..75: solo vende si llenaron los dos tramos, a strong-2
func ExitPrice(ref domain.ExitReference, tiersFilled int) (decimal.Decimal, bool) {
	sc := ref.StrongCents
	switch {
	case sc > 75:
		return decimal.Decimal{}, false
	case sc <= 60:
		if ref.EntryCents >= 24 {
			return centsF(sc - 2), true
		}
		return centsF(102 - sc), true
	default:
		if tiersFilled >= 2 {
			return centsF(sc - 2), true
		}
		return decimal.Decimal{}, false
	}
}

func centsF(c float64) decimal.Decimal {
	return decimal.NewFromFloat(c).Div(decimal.NewFromInt(100)).Round(2)
}
