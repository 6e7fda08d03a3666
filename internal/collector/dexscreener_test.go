package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoPairs = `{"pairs":[
 {"chainId":"solana","dexId":"raydium","pairAddress":"PAIR1",
  "baseToken":{"address":"TOKEN","name":"Pump","symbol":"PUMP"},
  "priceUsd":"0.005512","priceChange":{"h1":1.5,"h6":-3.2,"h24":12.4},
  "volume":{"h24":1234567.5},"liquidity":{"usd":50000},"fdv":5512000000,"marketCap":1950000000},
 {"chainId":"solana","dexId":"orca","pairAddress":"PAIR2",
  "baseToken":{"address":"TOKEN","name":"Pump","symbol":"PUMP"},"priceUsd":"0.0055"}
]}`

func TestDexScreenerFetcher_TokenEndpointFirstPairWins(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/latest/dex/tokens/TOKEN", r.URL.Path)
		_, _ = w.Write([]byte(twoPairs))
	}))
	defer srv.Close()

	f := NewDexScreenerFetcher(srv.URL, srv.Client(), nil)
	snap, err := f.FetchSnapshot(context.Background(), "solana", "TOKEN", false)
	require.NoError(t, err)
	assert.Equal(t, "PAIR1", snap.PairAddress)
	assert.Equal(t, "PUMP", snap.Symbol)
	assert.Equal(t, 0.005512, snap.PriceUSD)
	assert.Equal(t, 12.4, snap.PriceChange.H24)
	assert.Equal(t, -3.2, snap.PriceChange.H6)
	assert.Equal(t, 1234567.5, snap.Volume24h)
	assert.Equal(t, 5512000000.0, snap.FDV)
	assert.Equal(t, 50000.0, snap.LiquidityUSD)
}

func TestDexScreenerFetcher_PairEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/latest/dex/pairs/solana/PAIR1", r.URL.Path)
		_, _ = w.Write([]byte(`{"pair":{"chainId":"solana","pairAddress":"PAIR1","baseToken":{"symbol":"WIF"},"priceUsd":"2.5"}}`))
	}))
	defer srv.Close()

	f := NewDexScreenerFetcher(srv.URL, srv.Client(), nil)
	snap, err := f.FetchSnapshot(context.Background(), "solana", "PAIR1", true)
	require.NoError(t, err)
	assert.Equal(t, "WIF", snap.Symbol)
	assert.Equal(t, 2.5, snap.PriceUSD)
}

func TestDexScreenerFetcher_NoPairs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"schemaVersion":"1.0.0","pairs":null}`))
	}))
	defer srv.Close()

	f := NewDexScreenerFetcher(srv.URL, srv.Client(), nil)
	_, err := f.FetchSnapshot(context.Background(), "", "TOKEN", false)
	assert.ErrorIs(t, err, ErrNoData)
}

func TestDexScreenerFetcher_BadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	f := NewDexScreenerFetcher(srv.URL, srv.Client(), nil)
	_, err := f.FetchSnapshot(context.Background(), "", "TOKEN", false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
