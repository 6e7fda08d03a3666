package resolver

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"Recharted/internal/model"
)

func seriesOf(n int) *model.PriceSeries {
	s := &model.PriceSeries{Source: model.SourceSynthetic}
	for i := 0; i < n; i++ {
		s.Prices = append(s.Prices, 1)
		s.Volumes = append(s.Volumes, 1)
		s.Timestamps = append(s.Timestamps, model.FormatTimestamp(fixedNow.Add(time.Duration(i)*time.Minute)))
	}
	return s
}

func TestRunChain_StopsAtFirstSuccess(t *testing.T) {
	var calls []string
	mk := func(name string, res *Resolution, err error) step {
		return step{name: name, run: func(context.Context) (*Resolution, error) {
			calls = append(calls, name)
			return res, err
		}}
	}

	res, err := runChain(context.Background(), zap.NewNop(), []step{
		mk("a", nil, errors.New("down")),
		mk("b", &Resolution{Series: seriesOf(0)}, nil),
		mk("c", &Resolution{Series: seriesOf(3)}, nil),
		mk("d", &Resolution{Series: seriesOf(3)}, nil),
	})
	require.NoError(t, err)
	assert.Equal(t, "c", res.Step)
	assert.Equal(t, []string{"a", "b", "c"}, calls)
}

func TestRunChain_PredatesStops(t *testing.T) {
	called := false
	_, err := runChain(context.Background(), zap.NewNop(), []step{
		{name: "a", run: func(context.Context) (*Resolution, error) {
			return nil, &PredatesHistoryError{TweetTime: fixedNow, EarliestData: fixedNow.Add(time.Hour)}
		}},
		{name: "b", run: func(context.Context) (*Resolution, error) {
			called = true
			return &Resolution{Series: seriesOf(1)}, nil
		}},
	})
	var predates *PredatesHistoryError
	assert.ErrorAs(t, err, &predates)
	assert.False(t, called)
}

func TestRunChain_AllFail(t *testing.T) {
	last := errors.New("last")
	_, err := runChain(context.Background(), zap.NewNop(), []step{
		{name: "a", run: func(context.Context) (*Resolution, error) { return nil, errors.New("first") }},
		{name: "b", run: func(context.Context) (*Resolution, error) { return nil, last }},
	})
	assert.ErrorIs(t, err, last)
}

func TestGenerations(t *testing.T) {
	g := NewGenerations()

	first := g.Issue("client-a")
	second := g.Issue("client-a")
	other := g.Issue("client-b")

	assert.Greater(t, second, first)
	assert.False(t, g.Current("client-a", first))
	assert.True(t, g.Current("client-a", second))
	assert.True(t, g.Current("client-b", other))

	g.Done("client-a", first)
	assert.Equal(t, 2, g.Len())
	g.Done("client-a", second)
	assert.Equal(t, 1, g.Len())

	// A late completion of a forgotten request is never current.
	assert.False(t, g.Current("client-a", first))
	third := g.Issue("client-a")
	assert.NotEqual(t, first, third)
	assert.False(t, g.Current("client-a", first))
}

func TestGenerations_Concurrent(t *testing.T) {
	g := NewGenerations()
	var wg sync.WaitGroup
	seen := make(chan uint64, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seen <- g.Issue("c")
		}()
	}
	wg.Wait()
	close(seen)

	unique := map[uint64]bool{}
	var maxGen uint64
	for gen := range seen {
		unique[gen] = true
		maxGen = max(maxGen, gen)
	}
	assert.Len(t, unique, 100)
	assert.True(t, g.Current("c", maxGen))
}

func TestMarketCapBranches(t *testing.T) {
	tests := []struct {
		name   string
		price  float64
		snap   *model.PairSnapshot
		mc     float64
		supply float64
		branch MarketCapBranch
	}{
		{"fdv", 2, &model.PairSnapshot{FDV: 1000, MarketCap: 500}, 1000, 500, BranchFDV},
		{"price x supply", 2, &model.PairSnapshot{PriceUSD: 4, MarketCap: 400}, 200, 100, BranchPriceXSupply},
		{"assumed supply", 0.5, nil, 500_000_000, AssumedSupply, BranchAssumedSupply},
		{"empty snapshot", 0.5, &model.PairSnapshot{}, 500_000_000, AssumedSupply, BranchAssumedSupply},
		{"no price", 0, nil, 0, 0, BranchNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mc, supply, branch := marketCap(tt.price, tt.snap)
			assert.Equal(t, tt.branch, branch)
			assert.InDelta(t, tt.mc, mc, 1e-6)
			assert.InDelta(t, tt.supply, supply, 1e-6)
		})
	}
}

func TestHistoryGuard(t *testing.T) {
	g := NewHistoryGuard([]string{" PUMP ", "0xABC"})
	assert.True(t, g.Exempt("", "pump"))
	assert.True(t, g.Exempt("0xabc", ""))
	assert.False(t, g.Exempt("0xdef", "PEPE"))
	assert.False(t, g.Exempt("", ""))

	assert.False(t, Predates(time.Time{}, fixedNow, 0))
	assert.True(t, Predates(fixedNow, fixedNow.Add(6*time.Minute), 5*time.Minute))
	assert.False(t, Predates(fixedNow, fixedNow.Add(5*time.Minute), 5*time.Minute))
}
