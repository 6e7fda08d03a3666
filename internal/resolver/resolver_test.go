package resolver

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"Recharted/internal/collector"
	"Recharted/internal/interval"
	"Recharted/internal/model"
)

func newTestResolver(t *testing.T, bars, snaps *collector.MockFetcher) *Resolver {
	t.Helper()
	return New(bars, snaps, zaptest.NewLogger(t), Options{
		Now:  func() time.Time { return fixedNow },
		Rand: func() *rand.Rand { return rand.New(rand.NewSource(7)) },
	})
}

func pepeSnapshot() *model.PairSnapshot {
	return &model.PairSnapshot{
		ChainID:     "ethereum",
		Symbol:      "PEPE",
		PriceUSD:    0.000012,
		PriceChange: model.PriceChange{H1: 1, H6: -2, H24: 4},
		Volume24h:   2_000_000,
		FDV:         5_000_000_000,
	}
}

func assertWellFormed(t *testing.T, s *model.PriceSeries) {
	t.Helper()
	require.NotNil(t, s)
	require.Positive(t, s.Len())
	assert.Len(t, s.Volumes, s.Len())
	assert.Len(t, s.Timestamps, s.Len())
	assert.Contains(t, []model.Source{model.SourceCodex, model.SourceDexScreener, model.SourceSynthetic}, s.Source)
	times := s.Times()
	for i := 1; i < len(times); i++ {
		assert.False(t, times[i].Before(times[i-1]), "timestamps must be non-decreasing")
	}
}

func TestResolve_PrimarySuccess(t *testing.T) {
	bars := &collector.MockFetcher{Bars: collector.GenerateMockBars(1.0, 120, 5*time.Minute, fixedNow)}
	snaps := &collector.MockFetcher{Snapshot: pepeSnapshot()}
	r := newTestResolver(t, bars, snaps)

	res, err := r.ResolveDetailed(context.Background(), pumpAddress, model.Timeframe1h, time.Time{})
	require.NoError(t, err)
	assertWellFormed(t, res.Series)

	assert.Equal(t, StepPrimary, res.Step)
	assert.Equal(t, "mock", res.Provider)
	assert.Equal(t, model.SourceCodex, res.Series.Source)
	assert.False(t, res.Series.HistoricalDataUnavailable)
	assert.Equal(t, 120, res.Series.Len())
	assert.Equal(t, "PEPE", res.Series.Symbol)
	assert.Equal(t, 4.0, res.Series.PriceChange24hPct)
	require.NotNil(t, res.Series.MarketCap)
	assert.Equal(t, 5_000_000_000.0, *res.Series.MarketCap)
	assert.Equal(t, BranchFDV, res.MarketCapBranch)
	assert.NoError(t, res.PrimaryErr)

	require.Len(t, bars.BarsCalls, 1)
	first := bars.BarsCalls[0]
	assert.Equal(t, "5", first.Resolution)
	assert.Equal(t, fixedNow.Add(-7*24*time.Hour), first.From)
}

func TestResolve_RetriesOppositeKind(t *testing.T) {
	good := collector.GenerateMockBars(2.0, 50, 5*time.Minute, fixedNow)
	bars := &collector.MockFetcher{BarsFor: func(req collector.BarsRequest) ([]model.OHLCV, error) {
		if req.SymbolType == collector.SymbolPool {
			return good, nil
		}
		return nil, collector.ErrNoData
	}}
	r := newTestResolver(t, bars, &collector.MockFetcher{})

	s, err := r.Resolve(context.Background(), pumpAddress, model.Timeframe1h, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, model.SourceCodex, s.Source)
	require.Len(t, bars.BarsCalls, 2)
	assert.Equal(t, collector.SymbolToken, bars.BarsCalls[0].SymbolType)
	assert.Equal(t, collector.SymbolPool, bars.BarsCalls[1].SymbolType)

	// No snapshot: symbol falls back to the short address, cap to the assumed supply.
	assert.Equal(t, "pump…9Dfn", s.Symbol)
	require.NotNil(t, s.TokenSupply)
	assert.Equal(t, float64(AssumedSupply), *s.TokenSupply)
}

func TestResolve_SnapshotSynthesis(t *testing.T) {
	bars := &collector.MockFetcher{BarsErr: collector.ErrNoData}
	snaps := &collector.MockFetcher{Snapshot: pepeSnapshot()}
	r := newTestResolver(t, bars, snaps)

	res, err := r.ResolveDetailed(context.Background(), "https://dexscreener.com/ethereum/"+evmToken, model.Timeframe1h, time.Time{})
	require.NoError(t, err)
	assertWellFormed(t, res.Series)

	assert.Equal(t, StepSnapshot, res.Step)
	assert.Equal(t, model.SourceSynthetic, res.Series.Source)
	assert.True(t, res.Series.HistoricalDataUnavailable)
	assert.Equal(t, interval.For(model.Timeframe1h).Samples(), res.Series.Len())
	assert.Equal(t, 0.000012, res.Series.CurrentPrice)
	assert.ErrorIs(t, res.PrimaryErr, collector.ErrNoData)

	// Every distinct attempt was tried, alternates included.
	assert.Len(t, bars.BarsCalls, 6)
}

func TestResolve_LastResortExample(t *testing.T) {
	bars := &collector.MockFetcher{BarsErr: collector.ErrNoData}
	snaps := &collector.MockFetcher{SnapshotErr: errors.New("boom")}
	r := newTestResolver(t, bars, snaps)

	res, err := r.ResolveDetailed(context.Background(), pumpAddress, model.Timeframe15m, time.Time{})
	require.NoError(t, err)
	assertWellFormed(t, res.Series)

	assert.Equal(t, StepExample, res.Step)
	assert.Equal(t, ProviderExample, res.Provider)
	assert.Equal(t, "PEPE", res.Series.Symbol)
	assert.Equal(t, model.SourceSynthetic, res.Series.Source)
	assert.Equal(t, BranchPriceXSupply, res.MarketCapBranch)
}

func TestResolve_NeverFailsOnAnyInput(t *testing.T) {
	bars := &collector.MockFetcher{BarsErr: collector.ErrNoData}
	r := newTestResolver(t, bars, &collector.MockFetcher{})

	for _, input := range []string{"", "garbage string", "https://example.com/nothing", pumpAddress, "ethereum"} {
		for _, tf := range []model.Timeframe{"", "5m", "1w", "bogus"} {
			s, err := r.Resolve(context.Background(), input, tf, time.Time{})
			require.NoError(t, err, input)
			assertWellFormed(t, s)
		}
	}
}

func TestResolve_GarbageSkipsProviders(t *testing.T) {
	bars := &collector.MockFetcher{}
	snaps := &collector.MockFetcher{}
	r := newTestResolver(t, bars, snaps)

	res, err := r.ResolveDetailed(context.Background(), "not a chart", model.Timeframe1h, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, StepExample, res.Step)
	assert.Empty(t, bars.BarsCalls)
	assert.Zero(t, snaps.SnapshotCalls)
}

func TestResolve_UnauthorizedStopsAttempts(t *testing.T) {
	bars := &collector.MockFetcher{BarsErr: collector.ErrUnauthorized}
	snaps := &collector.MockFetcher{Snapshot: pepeSnapshot()}
	r := newTestResolver(t, bars, snaps)

	res, err := r.ResolveDetailed(context.Background(), pumpAddress, model.Timeframe1h, time.Time{})
	require.NoError(t, err)
	assert.Len(t, bars.BarsCalls, 1)
	assert.ErrorIs(t, res.PrimaryErr, collector.ErrUnauthorized)
	assert.Equal(t, StepSnapshot, res.Step)
}

func TestResolve_TweetPredatesHistory(t *testing.T) {
	// Data starts an hour ago; the tweet is three days old.
	bars := &collector.MockFetcher{Bars: collector.GenerateMockBars(1.0, 12, 5*time.Minute, fixedNow)}
	snaps := &collector.MockFetcher{Snapshot: pepeSnapshot()}
	r := newTestResolver(t, bars, snaps)
	tweet := fixedNow.Add(-72 * time.Hour)

	s, err := r.Resolve(context.Background(), "https://dexscreener.com/ethereum/"+evmToken, model.Timeframe1h, tweet)
	assert.Nil(t, s)
	var predates *PredatesHistoryError
	require.ErrorAs(t, err, &predates)
	assert.Equal(t, tweet, predates.TweetTime)
	assert.Equal(t, bars.Bars[0].Time, predates.EarliestData)
	require.NotNil(t, predates.Series)
	assert.Equal(t, model.SourceCodex, predates.Series.Source)
	assert.NotEmpty(t, predates.Warning())

	// The guard does not fall through to synthesis.
	assert.Equal(t, 1, snaps.SnapshotCalls)
}

func TestResolve_HistoryGuardExemption(t *testing.T) {
	bars := &collector.MockFetcher{Bars: collector.GenerateMockBars(1.0, 12, 5*time.Minute, fixedNow)}
	r := newTestResolver(t, bars, &collector.MockFetcher{})

	s, err := r.Resolve(context.Background(), pumpAddress, model.Timeframe1h, fixedNow.Add(-72*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, model.SourceCodex, s.Source)
}

func TestResolve_HistoryGuardSlack(t *testing.T) {
	bars := &collector.MockFetcher{Bars: collector.GenerateMockBars(1.0, 12, 5*time.Minute, fixedNow)}
	r := newTestResolver(t, bars, &collector.MockFetcher{})
	earliest := bars.Bars[0].Time

	_, err := r.Resolve(context.Background(), evmToken, model.Timeframe1h, earliest.Add(-4*time.Minute))
	assert.NoError(t, err)
}

func TestResolveBars(t *testing.T) {
	bars := &collector.MockFetcher{Bars: collector.GenerateMockBars(1.0, 30, 5*time.Minute, fixedNow)}
	r := newTestResolver(t, bars, nil)

	s, err := r.ResolveBars(context.Background(), pumpAddress+":1399811149", model.Timeframe1h, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 30, s.Len())
	assert.Equal(t, model.SourceCodex, s.Source)

	bars.Bars = nil
	_, err = r.ResolveBars(context.Background(), pumpAddress+":1399811149", model.Timeframe1h, time.Time{})
	assert.ErrorIs(t, err, collector.ErrNoData)

	_, err = r.ResolveBars(context.Background(), "nokey", model.Timeframe1h, time.Time{})
	assert.Error(t, err)
}

func TestChange24h(t *testing.T) {
	bars := []model.OHLCV{
		{Time: fixedNow.Add(-48 * time.Hour), Close: 1},
		{Time: fixedNow.Add(-24 * time.Hour), Close: 2},
		{Time: fixedNow.Add(-time.Hour), Close: 2.5},
		{Time: fixedNow, Close: 3},
	}
	assert.InDelta(t, 50.0, change24h(bars), 1e-9)
	assert.InDelta(t, 20.0, change24h(bars[2:]), 1e-9)
	assert.Zero(t, change24h(bars[:1]))
}
