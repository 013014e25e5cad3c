package storage_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/lolbot/internal/adapters/storage"
	"github.com/alejandrodnm/lolbot/internal/domain"
)

func openStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()
	db, err := storage.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func makeOrder(id string) domain.TrackedOrder {
	return domain.TrackedOrder{
		OrderID:        id,
		TokenID:        "tok-1",
		MarketSlug:     "lol-t1-geng",
		Side:           domain.SideBuy,
		Price:          decimal.RequireFromString("0.41"),
		Size:           decimal.RequireFromString("8.53"),
		EntryNumber:    1,
		ReferenceCents: 62,
		PlacementID:    "pl-1",
		CreatedAt:      time.Now().UTC().Truncate(time.Second),
	}
}

func TestLedger_TrackAndOpenOrders(t *testing.T) {
	db := openStore(t)
	ctx := context.Background()

	require.NoError(t, db.Track(ctx, makeOrder("0xabc")))
	// re-track no duplica ni resetea
	require.NoError(t, db.Track(ctx, makeOrder("0xabc")))

	open, err := db.OpenOrders(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "0xabc", open[0].OrderID)
	assert.Equal(t, domain.StatusActive, open[0].Status)
	assert.Equal(t, "0.41", open[0].Price.String())
	assert.Equal(t, 1, open[0].EntryNumber)
	assert.InDelta(t, 62.0, open[0].ReferenceCents, 0.001)
}

func TestLedger_ObserveAbsentThreshold(t *testing.T) {
	db := openStore(t)
	ctx := context.Background()
	require.NoError(t, db.Track(ctx, makeOrder("0xabc")))

	// threshold 2: la primera ausencia no basta
	require.NoError(t, db.ObserveAbsent(ctx, "0xabc", 2))
	open, _ := db.OpenOrders(ctx)
	assert.Equal(t, domain.StatusActive, open[0].Status)
	assert.Equal(t, 1, open[0].DisappearedCount)

	require.NoError(t, db.ObserveAbsent(ctx, "0xabc", 2))
	open, _ = db.OpenOrders(ctx)
	assert.Equal(t, domain.StatusDisappeared, open[0].Status)
	assert.Equal(t, 2, open[0].DisappearedCount)
}

func TestLedger_ObservePresentReactivates(t *testing.T) {
	db := openStore(t)
	ctx := context.Background()
	require.NoError(t, db.Track(ctx, makeOrder("0xabc")))
	require.NoError(t, db.ObserveAbsent(ctx, "0xabc", 1))

	disappeared, err := db.DisappearedOrders(ctx)
	require.NoError(t, err)
	require.Len(t, disappeared, 1)

	// reaparece en el snapshot: vuelve a active con contador a cero
	require.NoError(t, db.ObservePresent(ctx, "0xabc", time.Now().UTC()))
	open, _ := db.OpenOrders(ctx)
	assert.Equal(t, domain.StatusActive, open[0].Status)
	assert.Equal(t, 0, open[0].DisappearedCount)

	disappeared, _ = db.DisappearedOrders(ctx)
	assert.Empty(t, disappeared)
}

func TestLedger_TerminalStatesAreSticky(t *testing.T) {
	db := openStore(t)
	ctx := context.Background()
	require.NoError(t, db.Track(ctx, makeOrder("0xabc")))
	require.NoError(t, db.MarkFilled(ctx, "0xabc"))

	// ninguna observación posterior mueve una orden filled
	require.NoError(t, db.ObserveAbsent(ctx, "0xabc", 1))
	require.NoError(t, db.ObservePresent(ctx, "0xabc", time.Now().UTC()))
	require.NoError(t, db.MarkCancelled(ctx, "0xabc"))

	orders, err := db.OrdersByMarket(ctx, "lol-t1-geng")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, domain.StatusFilled, orders[0].Status)

	open, _ := db.OpenOrders(ctx)
	assert.Empty(t, open)
}

func TestLedger_MarkRecreatedOnlyFromDisappeared(t *testing.T) {
	db := openStore(t)
	ctx := context.Background()
	require.NoError(t, db.Track(ctx, makeOrder("0xabc")))

	// active: no aplica
	require.NoError(t, db.MarkRecreated(ctx, "0xabc", "0xnew"))
	orders, _ := db.OrdersByMarket(ctx, "lol-t1-geng")
	assert.Equal(t, domain.StatusActive, orders[0].Status)

	require.NoError(t, db.ObserveAbsent(ctx, "0xabc", 1))
	require.NoError(t, db.MarkRecreated(ctx, "0xabc", "0xnew"))
	orders, _ = db.OrdersByMarket(ctx, "lol-t1-geng")
	assert.Equal(t, domain.StatusRecreated, orders[0].Status)
	assert.Equal(t, "0xnew", orders[0].RecreatedAs)
}

func TestLedger_SellSharesForToken(t *testing.T) {
	db := openStore(t)
	ctx := context.Background()

	sell1 := makeOrder("0xs1")
	sell1.Side = domain.SideSell
	sell1.Size = decimal.RequireFromString("5.25")
	sell2 := makeOrder("0xs2")
	sell2.Side = domain.SideSell
	sell2.Size = decimal.RequireFromString("3")
	buy := makeOrder("0xb1")

	require.NoError(t, db.Track(ctx, sell1))
	require.NoError(t, db.Track(ctx, sell2))
	require.NoError(t, db.Track(ctx, buy))

	total, err := db.SellSharesForToken(ctx, "tok-1")
	require.NoError(t, err)
	assert.InDelta(t, 8.25, total, 0.001)

	// canceladas no cuentan
	require.NoError(t, db.MarkCancelled(ctx, "0xs2"))
	total, err = db.SellSharesForToken(ctx, "tok-1")
	require.NoError(t, err)
	assert.InDelta(t, 5.25, total, 0.001)

	// disappeared sigue abierta y cuenta
	require.NoError(t, db.ObserveAbsent(ctx, "0xs1", 1))
	total, err = db.SellSharesForToken(ctx, "tok-1")
	require.NoError(t, err)
	assert.InDelta(t, 5.25, total, 0.001)

	// recreated no cuenta: su reemplazo entra como active
	require.NoError(t, db.MarkRecreated(ctx, "0xs1", "0xs1b"))
	sell1b := makeOrder("0xs1b")
	sell1b.Side = domain.SideSell
	sell1b.Size = decimal.RequireFromString("5.25")
	require.NoError(t, db.Track(ctx, sell1b))
	total, err = db.SellSharesForToken(ctx, "tok-1")
	require.NoError(t, err)
	assert.InDelta(t, 5.25, total, 0.001)

	// filled no cuenta: la posición ya bajó en el venue
	require.NoError(t, db.MarkFilled(ctx, "0xs1b"))
	total, err = db.SellSharesForToken(ctx, "tok-1")
	require.NoError(t, err)
	assert.InDelta(t, 0, total, 0.001)
}

func TestLedger_DeleteByMarketAndPrune(t *testing.T) {
	db := openStore(t)
	ctx := context.Background()

	o1 := makeOrder("0x1")
	o2 := makeOrder("0x2")
	o2.MarketSlug = "lol-fnc-g2"
	require.NoError(t, db.Track(ctx, o1))
	require.NoError(t, db.Track(ctx, o2))

	n, err := db.DeleteByMarket(ctx, "lol-t1-geng")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// prune solo toca terminales
	require.NoError(t, db.MarkFilled(ctx, "0x2"))
	n, err = db.Prune(ctx, time.Now().UTC().Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	orders, _ := db.OrdersByMarket(ctx, "lol-fnc-g2")
	assert.Empty(t, orders)
}

// --- cola de admisión ---

func makeQueued(slug string, entry time.Time) domain.QueuedOpportunity {
	return domain.QueuedOpportunity{
		Slug:           slug,
		EntryTime:      entry,
		MatchStartTime: entry.Add(60 * time.Minute),
		DiscoveredAt:   entry.Add(-2 * time.Hour),
	}
}

func TestQueue_EnqueueAndDue(t *testing.T) {
	db := openStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	grace := 2 * time.Minute

	require.NoError(t, db.Enqueue(ctx, makeQueued("lol-a", now.Add(-time.Minute))))   // en ventana
	require.NoError(t, db.Enqueue(ctx, makeQueued("lol-b", now.Add(10*time.Minute)))) // futura
	require.NoError(t, db.Enqueue(ctx, makeQueued("lol-c", now.Add(-time.Hour))))     // gracia pasada

	due, err := db.Due(ctx, now, grace)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, "lol-a", due[0].Slug)

	ok, err := db.Contains(ctx, "lol-b")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, _ = db.Contains(ctx, "lol-z")
	assert.False(t, ok)
}

func TestQueue_MarkEnteredRemovesFromDue(t *testing.T) {
	db := openStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, db.Enqueue(ctx, makeQueued("lol-a", now)))
	require.NoError(t, db.MarkEntered(ctx, "lol-a", now))

	due, err := db.Due(ctx, now, 2*time.Minute)
	require.NoError(t, err)
	assert.Empty(t, due)

	// sigue en cola: no debe re-encolarse
	ok, _ := db.Contains(ctx, "lol-a")
	assert.True(t, ok)
}

func TestQueue_Remove(t *testing.T) {
	db := openStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, db.Enqueue(ctx, makeQueued("lol-a", now)))
	require.NoError(t, db.MarkEntered(ctx, "lol-a", now))

	require.NoError(t, db.Remove(ctx, "lol-a"))
	ok, _ := db.Contains(ctx, "lol-a")
	assert.False(t, ok)

	// eliminar un slug inexistente no es error
	require.NoError(t, db.Remove(ctx, "lol-z"))
}

func TestQueue_ExpireStale(t *testing.T) {
	db := openStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, db.Enqueue(ctx, makeQueued("lol-old", now.Add(-3*time.Hour))))
	require.NoError(t, db.Enqueue(ctx, makeQueued("lol-new", now)))

	n, err := db.ExpireStale(ctx, now, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	ok, _ := db.Contains(ctx, "lol-old")
	assert.False(t, ok)
	ok, _ = db.Contains(ctx, "lol-new")
	assert.True(t, ok)
}

// --- caché de precios ---

func TestPriceCache_WriteOnce(t *testing.T) {
	db := openStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	first := domain.CachedPrice{
		MarketSlug: "lol-t1-geng", TokenID: "tok-1",
		Price: decimal.RequireFromString("0.62"), Label: "T1", CachedAt: now,
	}
	require.NoError(t, db.Put(ctx, first))

	// el segundo write se ignora en silencio
	second := first
	second.Price = decimal.RequireFromString("0.99")
	require.NoError(t, db.Put(ctx, second))

	got, ok, err := db.Get(ctx, "lol-t1-geng", "tok-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "0.62", got.Price.String())
	assert.Equal(t, "T1", got.Label)
}

func TestPriceCache_GetMissing(t *testing.T) {
	db := openStore(t)
	_, ok, err := db.Get(context.Background(), "lol-x", "tok-x")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestPriceCache_ForMarketAndClear(t *testing.T) {
	db := openStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, db.Put(ctx, domain.CachedPrice{
		MarketSlug: "lol-t1-geng", TokenID: "tok-1",
		Price: decimal.RequireFromString("0.62"), CachedAt: now,
	}))
	require.NoError(t, db.Put(ctx, domain.CachedPrice{
		MarketSlug: "lol-t1-geng", TokenID: "tok-2",
		Price: decimal.RequireFromString("0.38"), CachedAt: now,
	}))

	ok, err := db.HasMarket(ctx, "lol-t1-geng")
	require.NoError(t, err)
	assert.True(t, ok)

	prices, err := db.ForMarket(ctx, "lol-t1-geng")
	require.NoError(t, err)
	assert.Len(t, prices, 2)

	require.NoError(t, db.ClearMarket(ctx, "lol-t1-geng"))
	ok, _ = db.HasMarket(ctx, "lol-t1-geng")
	assert.False(t, ok)
}
