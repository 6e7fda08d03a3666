package resolver

import (
	"time"

	"Recharted/internal/collector"
	"Recharted/internal/interval"
	"Recharted/internal/model"
)

// AlternateEthereumNetworks are retried, in order, for addresses first
// tried on Ethereum mainnet.
var AlternateEthereumNetworks = []int{8453, 56, 42161}

// BarsAttempts lists the bars requests to try for target, in order. Each
// request is complete on its own; duplicates are dropped.
//
// With a tweet time the window is centered on it and clipped at now;
// otherwise the recent lookback for tf ending at now is used.
func BarsAttempts(target Target, tf model.Timeframe, tweetTime, now time.Time) []collector.BarsRequest {
	tf = interval.Normalize(tf)
	res := interval.BarResolution(tf)
	symbol := target.SymbolKey()

	recentFrom, recentTo := now.Add(-interval.RecentLookback(tf)), now
	from, to := recentFrom, recentTo
	if !tweetTime.IsZero() {
		from, to = centeredWindow(tf, tweetTime, now)
	}

	kind := target.Kind
	if kind == "" {
		kind = collector.SymbolToken
	}
	mk := func(symbol string, kind collector.SymbolType, res string, from, to time.Time) collector.BarsRequest {
		return collector.BarsRequest{
			Symbol:     symbol,
			SymbolType: kind,
			Resolution: res,
			From:       from,
			To:         to,
			Countback:  collector.MaxCountback,
		}
	}

	candidates := []collector.BarsRequest{
		mk(symbol, kind, res, from, to),
		mk(symbol, kind.Opposite(), res, from, to),
		mk(symbol, kind, res, recentFrom, recentTo),
		mk(symbol, kind, interval.CoarserResolution(res), from, to),
	}
	if target.NetworkID == Networks[ChainEthereum] {
		for _, id := range AlternateEthereumNetworks {
			candidates = append(candidates, mk(SymbolKey(target.Address, id), kind, res, from, to))
		}
	}

	seen := make(map[collector.BarsRequest]struct{}, len(candidates))
	out := candidates[:0]
	for _, c := range candidates {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

func centeredWindow(tf model.Timeframe, tweetTime, now time.Time) (from, to time.Time) {
	half := interval.For(tf).TotalWindow / 2
	from, to = tweetTime.Add(-half), tweetTime.Add(half)
	if to.After(now) {
		to = now
	}
	if !from.Before(to) {
		from = to.Add(-interval.For(tf).TotalWindow)
	}
	return from, to
}
