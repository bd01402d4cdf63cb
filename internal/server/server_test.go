package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betbot/gooption/internal/optionchain"
	"github.com/betbot/gooption/pkg/config"
	"github.com/betbot/gooption/pkg/sdk/api"
)

// fakeChains 固定快照的提供方
type fakeChains struct {
	snap *optionchain.ChainSnapshot
	err  error
}

func (f *fakeChains) Snapshot(_ context.Context, _ string) (*optionchain.ChainSnapshot, error) {
	return f.snap, f.err
}

func testSnapshot(t *testing.T) *optionchain.ChainSnapshot {
	t.Helper()
	d := func(s string) decimal.Decimal {
		v, err := decimal.NewFromString(s)
		require.NoError(t, err)
		return v
	}
	now := time.Now()
	expiry := now.Add(40 * time.Hour).Unix()
	book := &api.OrderBook{
		Records: []api.RawOrderRecord{
			{
				Ticker: "ETH-2FEB26-2600-C", IsCall: true,
				Expiry: expiry, Price: d("35000000"),
				MaxCollateralUsable: d("2000000000000000000"),
			},
			{
				Ticker: "ETH-2FEB26-2400-P", IsCall: false,
				Expiry: expiry, Price: d("30000000"),
				MaxCollateralUsable: d("4800000000"),
			},
		},
	}
	spec := config.AssetSpec{Symbol: "ETH", StrikeScale: 1e8, CollateralDecimals: 18}
	return optionchain.BuildSnapshot("ETH", book, 2500, spec, 6, now)
}

func get(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	h.ServeHTTP(w, req)

	var body map[string]any
	if len(w.Body.Bytes()) > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	}
	return w, body
}

func TestServer_Healthz(t *testing.T) {
	h := New(&fakeChains{}).Router()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestServer_Snapshot(t *testing.T) {
	h := New(&fakeChains{snap: testSnapshot(t)}).Router()
	w, body := get(t, h, "/api/chain/ETH")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ETH", body["symbol"])
	assert.Equal(t, 2500.0, body["currentPrice"])
	assert.Len(t, body["quotes"], 2)
}

func TestServer_SnapshotSourceDown(t *testing.T) {
	h := New(&fakeChains{err: api.ErrSourceUnavailable}).Router()
	w, _ := get(t, h, "/api/chain/ETH")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestServer_Ladder(t *testing.T) {
	h := New(&fakeChains{snap: testSnapshot(t)}).Router()
	w, body := get(t, h, "/api/chain/ETH/ladder?days=2&direction=up")

	require.Equal(t, http.StatusOK, w.Code)
	strikes, ok := body["strikes"].([]any)
	require.True(t, ok)
	assert.Equal(t, []any{2600.0}, strikes)

	// 非法方向
	w, _ = get(t, h, "/api/chain/ETH/ladder?days=2&direction=sideways")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_Match(t *testing.T) {
	h := New(&fakeChains{snap: testSnapshot(t)}).Router()

	w, body := get(t, h, "/api/chain/ETH/match?strike=2600&days=2&direction=up")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["fillable"])

	quote, ok := body["quote"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 2600.0, quote["strike"])
	assert.Equal(t, "call", quote["side"])

	// 不可成交：404 + fillable=false，而不是 5xx
	w, body = get(t, h, "/api/chain/ETH/match?strike=9999&days=2&direction=up")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, false, body["fillable"])
}

func TestServer_Payoff(t *testing.T) {
	h := New(&fakeChains{}).Router()
	w, body := get(t, h, "/api/payoff?strike=2500&direction=up&premium=35&contracts=0.5")

	require.Equal(t, http.StatusOK, w.Code)
	points, ok := body["points"].([]any)
	require.True(t, ok)
	assert.Len(t, points, 61)

	mid, ok := points[30].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 2500.0, mid["price"])
	assert.Equal(t, -35.0, mid["pnl"])

	w, _ = get(t, h, "/api/payoff?strike=-1&direction=up")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_Settle(t *testing.T) {
	h := New(&fakeChains{}).Router()
	path := fmt.Sprintf("/api/settle?strike=%v&side=call&premium=3&contracts=0.01&price=2500", 2000)
	w, body := get(t, h, path)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5.0, body["totalPayout"])
	assert.Equal(t, 2.0, body["netProfit"])
	assert.Equal(t, true, body["won"])

	w, _ = get(t, h, "/api/settle?strike=2000&side=straddle&price=2500")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
