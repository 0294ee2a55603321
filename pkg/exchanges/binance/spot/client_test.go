package spot

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signal-core/internal/order"
	"signal-core/pkg/exchanges/common"
)

// The router submits live orders through this client.
var _ order.Broker = (*Client)(nil)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Config{
		APIKey:    "key",
		APISecret: "secret",
		BaseURL:   srv.URL,
		Logger:    zerolog.Nop(),
	})
}

func TestSubmitOrderSigned(t *testing.T) {
	var form url.Values
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v3/time":
			_, _ = io.WriteString(w, `{"serverTime":1700000000000}`)
		case "/api/v3/order":
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "key", r.Header.Get("X-MBX-APIKEY"))
			require.NoError(t, r.ParseForm())
			form = r.PostForm
			w.Header().Set("X-MBX-USED-WEIGHT-1M", "7")
			_, _ = io.WriteString(w, `{"symbol":"BTCUSDT","orderId":42,"clientOrderId":"c1","status":"FILLED","executedQty":"0.00123400"}`)
		default:
			http.NotFound(w, r)
		}
	})

	res, err := c.SubmitOrder(context.Background(), common.OrderRequest{
		Symbol:   "BTCUSDT",
		Side:     common.SideBuy,
		Type:     common.OrderTypeMarket,
		Qty:      0.0012345678,
		ClientID: "c1",
	})
	require.NoError(t, err)
	assert.Equal(t, "42", res.ExchangeOrderID)
	assert.Equal(t, common.StatusFilled, res.Status)
	assert.InDelta(t, 0.001234, res.ExecutedQty, 1e-12)

	assert.Equal(t, "0.001234", form.Get("quantity"))
	assert.Equal(t, "MARKET", form.Get("type"))
	assert.NotEmpty(t, form.Get("signature"))
	assert.NotEmpty(t, form.Get("timestamp"))

	used, limit := c.WeightUsage()
	assert.Equal(t, 7, used)
	assert.Equal(t, 1200, limit)
}

func TestSubmitOrderAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v3/time" {
			_, _ = io.WriteString(w, `{"serverTime":1700000000000}`)
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"code":-2010,"msg":"Account has insufficient balance"}`)
	})

	_, err := c.SubmitOrder(context.Background(), common.OrderRequest{Symbol: "BTCUSDT", Side: common.SideSell, Qty: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient balance")
}

func TestSubmitOrderRequiresCredentials(t *testing.T) {
	c := New(Config{Logger: zerolog.Nop()})
	_, err := c.SubmitOrder(context.Background(), common.OrderRequest{Symbol: "BTCUSDT", Qty: 1})
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestQuoteBalance(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v3/time":
			_, _ = io.WriteString(w, `{"serverTime":1700000000000}`)
		case "/api/v3/account":
			assert.Equal(t, http.MethodGet, r.Method)
			assert.NotEmpty(t, r.URL.Query().Get("signature"))
			_, _ = io.WriteString(w, `{"canTrade":true,"balances":[{"asset":"USDT","free":"100.5","locked":"20.25"},{"asset":"BTC","free":"1","locked":"0"}]}`)
		}
	})

	bal, err := c.QuoteBalance(context.Background(), "usdt")
	require.NoError(t, err)
	assert.InDelta(t, 120.75, bal, 1e-9)
}

func TestFormatQuantity(t *testing.T) {
	tests := []struct {
		q    float64
		prec int32
		want string
	}{
		{0.123456789, 6, "0.123456"},
		{1, 3, "1"},
		{0.0000001, 6, "0"},
		{-1, 6, "0"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatQuantity(tt.q, tt.prec))
	}
}

func TestMapStatus(t *testing.T) {
	assert.Equal(t, common.StatusPartial, mapStatus("PARTIALLY_FILLED"))
	assert.Equal(t, common.StatusExpired, mapStatus("expired"))
	assert.Equal(t, common.StatusUnknown, mapStatus("PENDING_NEW"))
}
