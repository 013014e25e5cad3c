package polymarket_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/lolbot/internal/adapters/polymarket"
	"github.com/alejandrodnm/lolbot/internal/domain"
)

func jsonDecode(r *http.Request, out any) error {
	return json.NewDecoder(r.Body).Decode(out)
}

func mustDecimal(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// clave de pruebas (cuenta 0 de hardhat, sin fondos reales)
const testPrivKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

// newCLOBServer monta un CLOB falso que deriva credenciales y sirve
// los handlers registrados por path.
func newCLOBServer(t *testing.T, handlers map[string]http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/derive-api-key", func(w http.ResponseWriter, r *http.Request) {
		secret := base64.URLEncoding.EncodeToString([]byte("test-secret"))
		fmt.Fprintf(w, `{"apiKey":"key-1","secret":"%s","passphrase":"pass-1"}`, secret)
	})
	for path, h := range handlers {
		mux.HandleFunc(path, h)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newTrader(t *testing.T, clobSrv *httptest.Server, dataURL string) *polymarket.TradingClient {
	t.Helper()
	auth, err := polymarket.NewAuthClient(clobSrv.URL, "", dataURL, testPrivKey)
	require.NoError(t, err)
	// el RPC no se toca en estos tests, basta con que el dial no falle
	tc, err := polymarket.NewTradingClient(auth, clobSrv.URL)
	require.NoError(t, err)
	return tc
}

func TestGetOpenOrders_MapsSnapshot(t *testing.T) {
	srv := newCLOBServer(t, map[string]http.HandlerFunc{
		"/orders": func(w http.ResponseWriter, r *http.Request) {
			// las cabeceras L2 deben ir en toda petición autenticada
			assert.NotEmpty(t, r.Header.Get("POLY_SIGNATURE"))
			assert.Equal(t, "key-1", r.Header.Get("POLY_API_KEY"))
			fmt.Fprint(w, `{"data":[
			  {"id":"0xaaa","asset_id":"111","market":"0xc1","side":"BUY","original_size":"8.53","size_matched":"0","price":"0.41","status":"LIVE","created_at":"1756200000"},
			  {"id":"0xbbb","asset_id":"222","market":"0xc1","side":"SELL","original_size":"5","size_matched":"1.2","price":"0.66","status":"LIVE","created_at":"1756200100"}
			],"next_cursor":"LTE="}`)
		},
	})

	tc := newTrader(t, srv, "")
	orders, err := tc.GetOpenOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 2)

	assert.Equal(t, "0xaaa", orders[0].OrderID)
	assert.Equal(t, domain.SideBuy, orders[0].Side)
	assert.Equal(t, "0.41", orders[0].Price.String())
	assert.Equal(t, "8.53", orders[0].Size.String())
	assert.Equal(t, domain.SideSell, orders[1].Side)
}

func TestCancelOrder_GoneOrderIsNotAnError(t *testing.T) {
	srv := newCLOBServer(t, map[string]http.HandlerFunc{
		"/order/": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodDelete, r.Method)
			http.Error(w, `{"error":"order not found"}`, http.StatusNotFound)
		},
	})

	tc := newTrader(t, srv, "")
	err := tc.CancelOrder(context.Background(), "0xgone")
	assert.NoError(t, err)
}

func TestPlaceOrder_SignsAndSubmits(t *testing.T) {
	var gotSide string
	srv := newCLOBServer(t, map[string]http.HandlerFunc{
		"/neg-risk": func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"neg_risk":false}`)
		},
		"/order": func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				Order struct {
					Side      string `json:"side"`
					Signature string `json:"signature"`
				} `json:"order"`
				Owner     string `json:"owner"`
				OrderType string `json:"orderType"`
			}
			require.NoError(t, jsonDecode(r, &body))
			gotSide = body.Order.Side
			assert.NotEmpty(t, body.Order.Signature)
			assert.Equal(t, "key-1", body.Owner)
			assert.Equal(t, "GTC", body.OrderType)
			fmt.Fprint(w, `{"success":true,"orderID":"0xnew","status":"live","errorMsg":""}`)
		},
	})

	tc := newTrader(t, srv, "")
	placed, err := tc.PlaceOrder(context.Background(), domain.PlaceOrderRequest{
		TokenID: "111",
		Side:    domain.SideSell,
		Price:   mustDecimal("0.66"),
		Size:    mustDecimal("8.53"),
	})
	require.NoError(t, err)
	assert.Equal(t, "0xnew", placed.OrderID)
	assert.Equal(t, "live", placed.Status)
	assert.Equal(t, "SELL", gotSide)
}

func TestPlaceOrder_CLOBErrorSurfaces(t *testing.T) {
	srv := newCLOBServer(t, map[string]http.HandlerFunc{
		"/neg-risk": func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"neg_risk":false}`)
		},
		"/order": func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"success":false,"errorMsg":"not enough balance"}`)
		},
	})

	tc := newTrader(t, srv, "")
	_, err := tc.PlaceOrder(context.Background(), domain.PlaceOrderRequest{
		TokenID: "111",
		Side:    domain.SideBuy,
		Price:   mustDecimal("0.41"),
		Size:    mustDecimal("8.53"),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not enough balance")
}

func TestGetPositions(t *testing.T) {
	dataSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/positions", r.URL.Path)
		assert.NotEmpty(t, r.URL.Query().Get("user"))
		fmt.Fprint(w, `[
		  {"asset":"111","size":8.53,"slug":"lol-t1-geng","outcome":"T1","avgPrice":0.41},
		  {"asset":"222","size":"3","slug":"lol-t1-geng","outcome":"GenG","avgPrice":"0.26"}
		]`)
	}))
	defer dataSrv.Close()

	clobSrv := newCLOBServer(t, nil)
	tc := newTrader(t, clobSrv, dataSrv.URL)

	positions, err := tc.GetPositions(context.Background())
	require.NoError(t, err)
	require.Len(t, positions, 2)
	assert.Equal(t, "111", positions[0].TokenID)
	assert.Equal(t, "8.53", positions[0].Size.String())
	assert.Equal(t, "lol-t1-geng", positions[0].MarketSlug)
	assert.Equal(t, "3", positions[1].Size.String())
}
