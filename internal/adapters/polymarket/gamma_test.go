package polymarket_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/lolbot/internal/adapters/polymarket"
)

// eventsFixture construye la respuesta de /events con un partido que
// empieza en startTime.
func eventsFixture(startTime time.Time) string {
	start := startTime.UTC().Format("2006-01-02 15:04:05+00")
	return fmt.Sprintf(`[
	  {
	    "id": "ev1",
	    "title": "LCK: T1 vs GenG",
	    "volume": "54321",
	    "markets": [
	      {
	        "question": "LoL: T1 vs GenG (BO5)",
	        "slug": "lol-t1-geng",
	        "outcomes": "[\"T1\", \"GenG\"]",
	        "outcomePrices": "[\"0.68\", \"0.32\"]",
	        "clobTokenIds": "[\"111\", \"222\"]",
	        "gameStartTime": "%s",
	        "endDate": "2026-03-02T00:00:00Z",
	        "volume": "12000",
	        "active": true,
	        "closed": false
	      },
	      {
	        "question": "LoL: T1 vs GenG Game 1 (BO5)",
	        "slug": "lol-t1-geng-game-1",
	        "outcomes": "[\"T1\", \"GenG\"]",
	        "outcomePrices": "[\"0.70\", \"0.30\"]",
	        "clobTokenIds": "[\"333\", \"444\"]",
	        "gameStartTime": "%s",
	        "endDate": "2026-03-02T00:00:00Z",
	        "volume": "900",
	        "active": true,
	        "closed": false
	      }
	    ]
	  },
	  {
	    "id": "ev2",
	    "title": "LEC: FNC vs G2",
	    "volume": "500",
	    "markets": [
	      {
	        "question": "LoL: FNC vs G2 (BO3)",
	        "slug": "lol-fnc-g2",
	        "outcomes": "[\"FNC\", \"G2\"]",
	        "outcomePrices": "[\"0.65\", \"0.35\"]",
	        "clobTokenIds": "[\"555\", \"666\"]",
	        "gameStartTime": "%s",
	        "endDate": "2026-03-02T00:00:00Z",
	        "volume": "300",
	        "active": true,
	        "closed": false
	      }
	    ]
	  }
	]`, start, start, start)
}

func newGammaServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestScan_FiltersGameMarketsAndLowVolumeEvents(t *testing.T) {
	now := time.Now().UTC()
	srv := newGammaServer(t, eventsFixture(now.Add(2*time.Hour)))

	client := polymarket.NewClient("", srv.URL, "")
	markets, err := client.Scan(context.Background(), now)
	require.NoError(t, err)

	// ev2 cae por volumen; el mercado Game 1 cae por keyword
	require.Len(t, markets, 1)
	m := markets[0]
	assert.Equal(t, "lol-t1-geng", m.Slug)
	assert.Equal(t, "LCK: T1 vs GenG", m.EventTitle)
	assert.Equal(t, "T1", m.Strong().Name)
	assert.Equal(t, "111", m.Strong().TokenID)
	assert.Equal(t, "0.68", m.Strong().Price.String())
}

func TestScan_SkipsMatchesOutsideTimeWindow(t *testing.T) {
	now := time.Now().UTC()

	// empieza en 30 horas: fuera de la ventana
	srv := newGammaServer(t, eventsFixture(now.Add(30*time.Hour)))
	client := polymarket.NewClient("", srv.URL, "")
	markets, err := client.Scan(context.Background(), now)
	require.NoError(t, err)
	assert.Empty(t, markets)

	// empezó hace 2 horas: también fuera
	srv2 := newGammaServer(t, eventsFixture(now.Add(-2*time.Hour)))
	client2 := polymarket.NewClient("", srv2.URL, "")
	markets, err = client2.Scan(context.Background(), now)
	require.NoError(t, err)
	assert.Empty(t, markets)
}

func TestScan_SkipsEventWithDecidedGame2(t *testing.T) {
	now := time.Now().UTC()
	start := now.Add(-30 * time.Minute).Format("2006-01-02 15:04:05+00")
	body := fmt.Sprintf(`[
	  {
	    "id": "ev1",
	    "title": "LCK: T1 vs GenG",
	    "volume": "54321",
	    "markets": [
	      {
	        "question": "LoL: T1 vs GenG (BO5)",
	        "slug": "lol-t1-geng",
	        "outcomes": "[\"T1\", \"GenG\"]",
	        "outcomePrices": "[\"0.80\", \"0.20\"]",
	        "clobTokenIds": "[\"111\", \"222\"]",
	        "gameStartTime": "%s",
	        "endDate": "2026-03-02T00:00:00Z",
	        "volume": "12000",
	        "active": true,
	        "closed": false
	      },
	      {
	        "question": "LoL: T1 vs GenG Game 2 (BO5)",
	        "slug": "lol-t1-geng-game-2",
	        "outcomes": "[\"T1\", \"GenG\"]",
	        "outcomePrices": "[\"0.997\", \"0.003\"]",
	        "clobTokenIds": "[\"333\", \"444\"]",
	        "gameStartTime": "%s",
	        "endDate": "2026-03-02T00:00:00Z",
	        "volume": "900",
	        "active": true,
	        "closed": false
	      }
	    ]
	  }
	]`, start, start)

	srv := newGammaServer(t, body)
	client := polymarket.NewClient("", srv.URL, "")
	markets, err := client.Scan(context.Background(), now)
	require.NoError(t, err)
	assert.Empty(t, markets, "game 2 decidido: partido en juego 3 o terminado")
}

func TestMarketBySlug(t *testing.T) {
	body := `[{
	  "question": "LoL: T1 vs GenG (BO5)",
	  "slug": "lol-t1-geng",
	  "outcomes": "[\"T1\", \"GenG\"]",
	  "outcomePrices": "[\"0.68\", \"0.32\"]",
	  "clobTokenIds": "[\"111\", \"222\"]",
	  "gameStartTime": "2026-03-01 16:00:00+00",
	  "endDate": "2026-03-02T00:00:00Z",
	  "volume": "12000",
	  "active": true,
	  "closed": false
	}]`
	srv := newGammaServer(t, body)

	client := polymarket.NewClient("", srv.URL, "")
	m, err := client.MarketBySlug(context.Background(), "lol-t1-geng")
	require.NoError(t, err)
	assert.Equal(t, "lol-t1-geng", m.Slug)
	assert.Equal(t, time.Date(2026, 3, 1, 16, 0, 0, 0, time.UTC), m.StartTime)
}

func TestMarketBySlug_NotFound(t *testing.T) {
	srv := newGammaServer(t, `[]`)
	client := polymarket.NewClient("", srv.URL, "")
	_, err := client.MarketBySlug(context.Background(), "lol-missing")
	assert.Error(t, err)
}

func TestIsMarketActive(t *testing.T) {
	active := `[{
	  "question": "LoL: T1 vs GenG (BO5)",
	  "slug": "lol-t1-geng",
	  "outcomes": "[\"T1\", \"GenG\"]",
	  "outcomePrices": "[\"0.68\", \"0.32\"]",
	  "clobTokenIds": "[\"111\", \"222\"]",
	  "gameStartTime": "2026-03-01 16:00:00+00",
	  "active": true,
	  "closed": false
	}]`
	srv := newGammaServer(t, active)
	client := polymarket.NewClient("", srv.URL, "")

	ok, err := client.IsMarketActive(context.Background(), "lol-t1-geng")
	require.NoError(t, err)
	assert.True(t, ok)

	// mercado desaparecido de Gamma: inactivo sin error
	srv2 := newGammaServer(t, `[]`)
	client2 := polymarket.NewClient("", srv2.URL, "")
	ok, err = client2.IsMarketActive(context.Background(), "lol-gone")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIsMarketActive_NetworkErrorIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client := polymarket.NewClient("", srv.URL, "")
	_, err := client.IsMarketActive(context.Background(), "lol-t1-geng")
	assert.Error(t, err, "un fallo de red no debe leerse como mercado terminado")
}
