package strategy

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/lolbot/internal/domain"
)

func TestEntryPrices_BalancedTier(t *testing.T) {
	strong, weak, balanced, ok := EntryPrices(55)
	require.True(t, ok)
	assert.True(t, balanced)
	assert.Equal(t, "0.25", strong.String())
	assert.Equal(t, "0.22", weak.String())
}

func TestEntryPrices_TierBoundaries(t *testing.T) {
	cases := []struct {
		cents        float64
		strong, weak string
		balanced     bool
	}{
		{60, "0.25", "0.22", true},
		{61, "0.41", "0.26", false},
		{63.99, "0.41", "0.26", false},
		{64, "0.43", "0.3", false},
		{67, "0.44", "0.32", false},
		{70, "0.51", "0.37", false},
		{75, "0.57", "0.41", false},
		{80, "0.67", "0.54", false},
		{100, "0.67", "0.54", false},
	}
	for _, c := range cases {
		strong, weak, balanced, ok := EntryPrices(c.cents)
		require.True(t, ok, "tramo en %.2f", c.cents)
		assert.Equal(t, c.strong, strong.String(), "strong en %.2f", c.cents)
		assert.Equal(t, c.weak, weak.String(), "weak en %.2f", c.cents)
		assert.Equal(t, c.balanced, balanced, "balanced en %.2f", c.cents)
	}
}

func TestEntryPrices_GapHasNoStrategy(t *testing.T) {
	// entre el final del tramo balanceado y el siguiente no hay tramo
	for _, cents := range []float64{60.5, 60.995, 74.995, 79.995, 101} {
		_, _, _, ok := EntryPrices(cents)
		assert.False(t, ok, "en %.3f no hay tramo", cents)
	}
}

func TestCalculateOrders_NoTierNoOrders(t *testing.T) {
	m := makeMarket(0.605, 0.395)
	assert.Nil(t, CalculateOrders(m, decimal.NewFromFloat(3.50)))
}

func makeMarket(strongPrice, weakPrice float64) domain.Market {
	return domain.Market{
		Slug: "lol-t1-geng",
		Teams: [2]domain.Team{
			{Name: "T1", TokenID: "tok-1", Price: decimal.NewFromFloat(strongPrice)},
			{Name: "GenG", TokenID: "tok-2", Price: decimal.NewFromFloat(weakPrice)},
		},
	}
}

func TestCalculateOrders_Balanced(t *testing.T) {
	m := makeMarket(0.55, 0.45)
	orders := CalculateOrders(m, decimal.NewFromFloat(3.50))
	require.Len(t, orders, 2)

	assert.Equal(t, "T1", orders[0].Team.Name)
	assert.Equal(t, "0.25", orders[0].Price.String())
	assert.Equal(t, 1, orders[0].EntryNumber)
	// 3.50 / 0.25 = 14 shares
	assert.Equal(t, "14", orders[0].Shares.String())

	assert.Equal(t, "GenG", orders[1].Team.Name)
	assert.Equal(t, "0.22", orders[1].Price.String())
	assert.Equal(t, 2, orders[1].EntryNumber)
}

func TestCalculateOrders_NonBalanced_BothOnStrong(t *testing.T) {
	m := makeMarket(0.72, 0.28)
	orders := CalculateOrders(m, decimal.NewFromFloat(3.50))
	require.Len(t, orders, 2)

	assert.Equal(t, "T1", orders[0].Team.Name)
	assert.Equal(t, "T1", orders[1].Team.Name)
	assert.Equal(t, "0.51", orders[0].Price.String())
	assert.Equal(t, "0.37", orders[1].Price.String())
	assert.True(t, orders[1].Price.LessThan(orders[0].Price))
}

func TestExitPrice_StrongFavoriteHolds(t *testing.T) {
	ref := domain.ExitReference{EntryCents: 51, StrongCents: 80}
	_, ok := ExitPrice(ref, 2)
	assert.False(t, ok)
}

func TestExitPrice_EvenMatch(t *testing.T) {
	// entrada cara: vende justo bajo el fuerte
	ref := domain.ExitReference{EntryCents: 25, StrongCents: 58}
	price, ok := ExitPrice(ref, 1)
	require.True(t, ok)
	assert.Equal(t, "0.56", price.String())

	// entrada barata: vende al complemento
	ref = domain.ExitReference{EntryCents: 22, StrongCents: 58}
	price, ok = ExitPrice(ref, 1)
	require.True(t, ok)
	assert.Equal(t, "0.44", price.String())
}

func TestExitPrice_MidRangeNeedsBothTiers(t *testing.T) {
	ref := domain.ExitReference{EntryCents: 41, StrongCents: 68}

	_, ok := ExitPrice(ref, 1)
	assert.False(t, ok)

	price, ok := ExitPrice(ref, 2)
	require.True(t, ok)
	assert.Equal(t, "0.66", price.String())
}
