// Package resolver turns a chart URL or address into a PriceSeries, falling
// back from real bars to a snapshot-driven synthetic history and finally to
// a fixed example so a chart can always be drawn.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"Recharted/internal/collector"
	"Recharted/internal/interval"
	"Recharted/internal/model"
	"Recharted/internal/synth"
)

const (
	StepPrimary  = "primary"
	StepSnapshot = "snapshot"
	StepExample  = "example"

	// ProviderExample names the built-in last-resort snapshot.
	ProviderExample = "example"

	minBars = 2
)

// exampleSnapshot is a PEPE-like meme token used when every provider fails.
var exampleSnapshot = model.PairSnapshot{
	ChainID:     ChainEthereum,
	Symbol:      "PEPE",
	Name:        "Pepe",
	PriceUSD:    0.00001,
	PriceChange: model.PriceChange{H1: 0.5, H6: -1.2, H24: 3.4},
	Volume24h:   500_000_000,
	MarketCap:   0.00001 * 420_690_000_000_000,
}

// Resolution is a resolved series plus how it was obtained.
type Resolution struct {
	Series          *model.PriceSeries
	Step            string
	Provider        string
	MarketCapBranch MarketCapBranch
	// PrimaryErr is the bars provider's last error, if it was tried and failed.
	PrimaryErr error
	ResolvedAt time.Time
}

// Options tunes a Resolver. Zero values select defaults.
type Options struct {
	PopularTokens   map[string]string
	GuardExemptions []string
	Now             func() time.Time
	// Rand returns a fresh source for one synthesis; it is called per request.
	Rand func() *rand.Rand
}

// Resolver runs the fallback chain. It is safe for concurrent use.
type Resolver struct {
	bars      collector.BarsFetcher
	snapshots collector.SnapshotFetcher
	guard     HistoryGuard
	popular   map[string]string
	now       func() time.Time
	rand      func() *rand.Rand
	log       *zap.Logger
}

// New creates a Resolver.
func New(bars collector.BarsFetcher, snapshots collector.SnapshotFetcher, log *zap.Logger, opts Options) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	if opts.PopularTokens == nil {
		opts.PopularTokens = DefaultPopularTokens
	}
	if opts.GuardExemptions == nil {
		opts.GuardExemptions = DefaultHistoryGuardExemptions
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Rand == nil {
		opts.Rand = func() *rand.Rand { return rand.New(rand.NewSource(time.Now().UnixNano())) }
	}
	return &Resolver{
		bars:      bars,
		snapshots: snapshots,
		guard:     NewHistoryGuard(opts.GuardExemptions),
		popular:   opts.PopularTokens,
		now:       opts.Now,
		rand:      opts.Rand,
		log:       log,
	}
}

// PopularTokens returns the alias table in use.
func (r *Resolver) PopularTokens() map[string]string { return r.popular }

// Resolve returns a usable series for input. The only error is
// *PredatesHistoryError, which carries the series that was found.
func (r *Resolver) Resolve(ctx context.Context, input string, tf model.Timeframe, tweetTime time.Time) (*model.PriceSeries, error) {
	res, err := r.ResolveDetailed(ctx, input, tf, tweetTime)
	if err != nil {
		return nil, err
	}
	return res.Series, nil
}

// ResolveDetailed is Resolve plus provenance.
func (r *Resolver) ResolveDetailed(ctx context.Context, input string, tf model.Timeframe, tweetTime time.Time) (*Resolution, error) {
	tf = interval.Normalize(tf)
	target := ParseTarget(input, r.popular)
	log := r.log.With(
		zap.String("input", input),
		zap.String("timeframe", string(tf)),
		zap.String("chain", target.Chain),
		zap.String("address", target.Address),
	)
	if !target.Valid() {
		log.Info("no address found in input")
	}

	var primaryErr error
	steps := []step{
		{name: StepPrimary, run: func(ctx context.Context) (*Resolution, error) {
			res, err := r.primary(ctx, log, target, tf, tweetTime)
			var predates *PredatesHistoryError
			if err != nil && !errors.As(err, &predates) {
				primaryErr = err
			}
			return res, err
		}},
		{name: StepSnapshot, run: func(ctx context.Context) (*Resolution, error) {
			return r.fromSnapshot(ctx, log, target, tf, tweetTime)
		}},
		{name: StepExample, run: func(context.Context) (*Resolution, error) {
			return r.fromExample(log, target, tf, tweetTime), nil
		}},
	}

	res, err := runChain(ctx, log, steps)
	if err != nil {
		var predates *PredatesHistoryError
		if errors.As(err, &predates) {
			return nil, err
		}
		log.Error("fallback chain exhausted", zap.Error(err))
		res = r.fromExample(log, target, tf, tweetTime)
		res.Step = StepExample
	}
	res.PrimaryErr = primaryErr
	res.ResolvedAt = r.now()
	return res, nil
}

// ResolveBars asks only the bars provider for symbolKey ("address:networkId").
// Provider errors are returned unchanged; the history guard still applies.
func (r *Resolver) ResolveBars(ctx context.Context, symbolKey string, tf model.Timeframe, tweetTime time.Time) (*model.PriceSeries, error) {
	address, networkID, err := ParseSymbolKey(symbolKey)
	if err != nil {
		return nil, err
	}
	tf = interval.Normalize(tf)
	target := Target{
		Input:     symbolKey,
		Chain:     ChainForNetwork(networkID),
		NetworkID: networkID,
		Address:   address,
		Kind:      collector.SymbolPool,
	}
	log := r.log.With(zap.String("symbol", symbolKey), zap.String("timeframe", string(tf)))

	bars, req, err := r.fetchBars(ctx, log, BarsAttempts(target, tf, tweetTime, r.now()))
	if err != nil {
		return nil, err
	}
	series, _ := r.seriesFromBars(log, target, bars, nil)
	if err := r.checkHistory(target, tf, req, bars, tweetTime, series); err != nil {
		return nil, err
	}
	return series, nil
}

func (r *Resolver) primary(ctx context.Context, log *zap.Logger, target Target, tf model.Timeframe, tweetTime time.Time) (*Resolution, error) {
	if !target.Valid() {
		return nil, fmt.Errorf("no address to query: %w", collector.ErrNoData)
	}
	if r.bars == nil {
		return nil, collector.ErrNotConfigured
	}
	bars, req, err := r.fetchBars(ctx, log, BarsAttempts(target, tf, tweetTime, r.now()))
	if err != nil {
		return nil, err
	}

	var snap *model.PairSnapshot
	if r.snapshots != nil {
		snap, err = r.snapshots.FetchSnapshot(ctx, target.Chain, target.Address, target.Kind == collector.SymbolPool)
		if err != nil {
			log.Debug("snapshot enrichment failed", zap.Error(err))
			snap = nil
		}
	}
	series, branch := r.seriesFromBars(log, target, bars, snap)
	if err := r.checkHistory(target, tf, req, bars, tweetTime, series); err != nil {
		return nil, err
	}
	return &Resolution{Series: series, Provider: r.bars.Name(), MarketCapBranch: branch}, nil
}

// fetchBars walks the attempt list and returns the first result with enough
// bars. A rejected or missing API key ends the walk early.
func (r *Resolver) fetchBars(ctx context.Context, log *zap.Logger, attempts []collector.BarsRequest) ([]model.OHLCV, collector.BarsRequest, error) {
	if r.bars == nil {
		return nil, collector.BarsRequest{}, collector.ErrNotConfigured
	}
	lastErr := collector.ErrNoData
	for i, req := range attempts {
		if err := ctx.Err(); err != nil {
			return nil, req, err
		}
		bars, err := r.bars.FetchBars(ctx, req)
		if err == nil && len(bars) >= minBars {
			log.Debug("bars attempt succeeded",
				zap.Int("attempt", i+1),
				zap.String("symbol", req.Symbol),
				zap.String("symbol_type", string(req.SymbolType)),
				zap.String("resolution", req.Resolution),
				zap.Int("bars", len(bars)),
			)
			return bars, req, nil
		}
		if err == nil {
			err = fmt.Errorf("%d bars: %w", len(bars), collector.ErrNoData)
		}
		log.Debug("bars attempt failed",
			zap.Int("attempt", i+1),
			zap.String("symbol", req.Symbol),
			zap.String("symbol_type", string(req.SymbolType)),
			zap.String("resolution", req.Resolution),
			zap.Error(err),
		)
		lastErr = err
		if errors.Is(err, collector.ErrUnauthorized) || errors.Is(err, collector.ErrNotConfigured) {
			break
		}
	}
	return nil, collector.BarsRequest{}, lastErr
}

func (r *Resolver) checkHistory(target Target, tf model.Timeframe, req collector.BarsRequest, bars []model.OHLCV, tweetTime time.Time, series *model.PriceSeries) error {
	slack := interval.For(tf).SampleInterval
	if d := interval.ResolutionDuration(req.Resolution); d > slack {
		slack = d
	}
	if !Predates(tweetTime, bars[0].Time, slack) {
		return nil
	}
	if r.guard.Exempt(target.Address, series.Symbol) {
		r.log.Info("history guard bypassed for exempt token",
			zap.String("address", target.Address),
			zap.String("symbol", series.Symbol),
		)
		return nil
	}
	return &PredatesHistoryError{TweetTime: tweetTime, EarliestData: bars[0].Time, Series: series}
}

func (r *Resolver) seriesFromBars(log *zap.Logger, target Target, bars []model.OHLCV, snap *model.PairSnapshot) (*model.PriceSeries, MarketCapBranch) {
	n := len(bars)
	series := &model.PriceSeries{
		Symbol:         shortAddress(target.Address),
		Prices:         make([]float64, n),
		Volumes:        make([]float64, n),
		Timestamps:     make([]string, n),
		CurrentPrice:   bars[n-1].Close,
		Source:         model.SourceCodex,
		IsPopularToken: target.Popular,
	}
	for i, b := range bars {
		series.Prices[i] = b.Close
		series.Volumes[i] = max(b.Volume, 0)
		series.Timestamps[i] = model.FormatTimestamp(b.Time)
	}
	series.PriceChange24hPct = change24h(bars)
	if snap != nil {
		if snap.Symbol != "" {
			series.Symbol = snap.Symbol
		}
		series.PriceChange24hPct = snap.PriceChange.H24
	}
	branch := r.applyMarketCap(log, series, snap)
	return series, branch
}

func (r *Resolver) fromSnapshot(ctx context.Context, log *zap.Logger, target Target, tf model.Timeframe, tweetTime time.Time) (*Resolution, error) {
	if !target.Valid() {
		return nil, fmt.Errorf("no address to query: %w", collector.ErrNoData)
	}
	if r.snapshots == nil {
		return nil, collector.ErrNotConfigured
	}
	snap, err := r.snapshots.FetchSnapshot(ctx, target.Chain, target.Address, target.Kind == collector.SymbolPool)
	if err != nil {
		return nil, err
	}
	series, branch := r.synthesize(log, snap, tf, tweetTime)
	series.IsPopularToken = target.Popular
	return &Resolution{Series: series, Provider: r.snapshots.Name(), MarketCapBranch: branch}, nil
}

func (r *Resolver) fromExample(log *zap.Logger, target Target, tf model.Timeframe, tweetTime time.Time) *Resolution {
	snap := exampleSnapshot
	series, branch := r.synthesize(log, &snap, tf, tweetTime)
	series.IsPopularToken = target.Popular
	return &Resolution{Series: series, Provider: ProviderExample, MarketCapBranch: branch}
}

func (r *Resolver) synthesize(log *zap.Logger, snap *model.PairSnapshot, tf model.Timeframe, tweetTime time.Time) (*model.PriceSeries, MarketCapBranch) {
	center := tweetTime
	if center.IsZero() {
		center = r.now()
	}
	gen := synth.Generate(synth.Snapshot{
		CurrentPrice:     snap.PriceUSD,
		CurrentVolume24h: snap.Volume24h,
		PriceChange:      snap.PriceChange,
	}, tf, center, r.rand())

	symbol := snap.Symbol
	if symbol == "" {
		symbol = shortAddress(snap.BaseAddress)
	}
	series := &model.PriceSeries{
		Symbol:                    symbol,
		Prices:                    gen.Prices,
		Volumes:                   gen.Volumes,
		Timestamps:                gen.FormattedTimestamps(),
		CurrentPrice:              snap.PriceUSD,
		PriceChange24hPct:         snap.PriceChange.H24,
		Source:                    model.SourceSynthetic,
		HistoricalDataUnavailable: true,
	}
	branch := r.applyMarketCap(log, series, snap)
	return series, branch
}

func (r *Resolver) applyMarketCap(log *zap.Logger, series *model.PriceSeries, snap *model.PairSnapshot) MarketCapBranch {
	mc, supply, branch := marketCap(series.CurrentPrice, snap)
	log.Info("market cap derived",
		zap.String("branch", string(branch)),
		zap.Float64("market_cap", mc),
		zap.Float64("token_supply", supply),
	)
	if branch != BranchNone {
		series.MarketCap = &mc
		series.TokenSupply = &supply
	}
	return branch
}

// change24h compares the last close to the last close at least 24h earlier,
// or to the first close when the bars cover less than a day.
func change24h(bars []model.OHLCV) float64 {
	if len(bars) < 2 {
		return 0
	}
	last := bars[len(bars)-1]
	cutoff := last.Time.Add(-24 * time.Hour)
	ref := bars[0]
	for _, b := range bars {
		if b.Time.After(cutoff) {
			break
		}
		ref = b
	}
	if ref.Close <= 0 {
		return 0
	}
	return (last.Close - ref.Close) / ref.Close * 100
}
