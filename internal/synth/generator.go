// Package synth manufactures plausible price history when no real history is
// available. The output only has to look like a meme-token chart; it makes no
// claim about real market behaviour.
package synth

import (
	"math"
	"math/rand"
	"time"

	"Recharted/internal/interval"
	"Recharted/internal/model"
)

const (
	// MinPrice keeps generated prices strictly positive.
	MinPrice = 1e-6

	subCentVolatility = 0.08
	defaultVolatility = 0.03
	maxWalk           = 0.5

	// maxTrendRate caps the rise the trend replays so the series starts
	// above zero even for gains beyond +100%.
	maxTrendRate = 0.9

	spikeProbability = 0.15
	maxSpike         = 1.2
	crashProbability = 0.15
	maxCrash         = 0.7

	volumeChurnBoost = 5.0
)

// Snapshot is the current market state the history is built around.
type Snapshot struct {
	CurrentPrice     float64
	CurrentVolume24h float64
	PriceChange      model.PriceChange
}

// Series holds parallel, chronologically ordered samples.
type Series struct {
	Prices     []float64
	Volumes    []float64
	Timestamps []time.Time
}

// Len returns the number of samples.
func (s Series) Len() int { return len(s.Prices) }

// FormattedTimestamps renders the timestamps for a PriceSeries.
func (s Series) FormattedTimestamps() []string {
	out := make([]string, len(s.Timestamps))
	for i, t := range s.Timestamps {
		out[i] = model.FormatTimestamp(t)
	}
	return out
}

// Generate produces a synthetic history for tf centered on center. A zero
// center means time.Now(). rnd must not be nil; pass a seeded source for
// reproducible output.
func Generate(snap Snapshot, tf model.Timeframe, center time.Time, rnd *rand.Rand) Series {
	if center.IsZero() {
		center = time.Now()
	}
	policy := interval.For(tf)
	windowStart := center.Add(-policy.TotalWindow / 2)
	n := policy.Samples()

	price := snap.CurrentPrice
	if price <= 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		price = MinPrice
	}
	rate := baseChangeRate(snap.PriceChange, tf)
	volatility := defaultVolatility
	if price < 0.01 {
		volatility = subCentVolatility
	}
	avgVolume := 0.0
	if snap.CurrentVolume24h > 0 {
		avgVolume = snap.CurrentVolume24h * float64(policy.SampleInterval) / float64(24*time.Hour)
	}

	out := Series{
		Prices:     make([]float64, n),
		Volumes:    make([]float64, n),
		Timestamps: make([]time.Time, n),
	}

	start := 1 - math.Min(rate, maxTrendRate)
	walk := 0.0
	for i := 0; i < n; i++ {
		progress := 1.0
		if n > 1 {
			progress = float64(i) / float64(n-1)
		}
		// start level at the first sample, 1.0 at the last.
		trend := start + (1-start)*progress

		walk += (rnd.Float64() - 0.5) * volatility
		walk = clamp(walk, -maxWalk, maxWalk)
		noise := 1 + walk

		if rnd.Float64() < spikeProbability {
			noise *= 1 + rnd.Float64()*maxSpike
		}
		if rnd.Float64() < crashProbability {
			noise *= 1 - rnd.Float64()*maxCrash
		}

		fi := float64(i)
		noise *= 1 + 0.05*math.Sin(fi*0.3)
		noise *= 1 + 0.03*math.Sin(fi*0.07+1.3)

		// Noise fades out so the last sample lands on the current price.
		multiplier := trend * (1 + (noise-1)*(1-progress))

		p := math.Max(MinPrice, price*multiplier)
		out.Prices[i] = p

		churn := 0.0
		if i > 0 && out.Prices[i-1] > 0 {
			churn = math.Abs(p-out.Prices[i-1]) / out.Prices[i-1]
		}
		v := avgVolume * (0.3 + rnd.Float64()*1.4) * (1 + churn*volumeChurnBoost)
		out.Volumes[i] = math.Max(0, v)

		out.Timestamps[i] = windowStart.Add(time.Duration(i) * policy.SampleInterval)
	}
	return out
}

func baseChangeRate(pc model.PriceChange, tf model.Timeframe) float64 {
	var pct float64
	switch interval.BaseChangeWindow(tf) {
	case interval.ChangeH24:
		pct = pc.H24
	case interval.ChangeH6:
		pct = pc.H6
	default:
		pct = pc.H1
	}
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		return 0
	}
	return pct / 100
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
