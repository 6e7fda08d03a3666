package interval

import (
	"time"

	"Recharted/internal/model"
)

// Policy describes how a timeframe is sampled.
type Policy struct {
	SampleInterval time.Duration
	TotalWindow    time.Duration
	MaxSamples     int
}

// Samples returns how many samples the window needs, capped at MaxSamples.
func (p Policy) Samples() int {
	n := int((p.TotalWindow + p.SampleInterval - 1) / p.SampleInterval)
	if n > p.MaxSamples {
		n = p.MaxSamples
	}
	if n < 1 {
		n = 1
	}
	return n
}

// ChangeWindow names which observed percentage change anchors a synthetic trend.
type ChangeWindow string

const (
	ChangeH1  ChangeWindow = "h1"
	ChangeH6  ChangeWindow = "h6"
	ChangeH24 ChangeWindow = "h24"
)

const day = 24 * time.Hour

// DefaultTimeframe is used for unknown tokens.
const DefaultTimeframe = model.Timeframe1h

var order = []model.Timeframe{
	model.Timeframe5m,
	model.Timeframe15m,
	model.Timeframe1h,
	model.Timeframe4h,
	model.Timeframe6h,
	model.Timeframe1d,
	model.Timeframe1w,
	model.Timeframe1mo,
}

var policies = map[model.Timeframe]Policy{
	model.Timeframe5m:  {SampleInterval: time.Minute, TotalWindow: 4 * time.Hour, MaxSamples: 300},
	model.Timeframe15m: {SampleInterval: 5 * time.Minute, TotalWindow: 12 * time.Hour, MaxSamples: 200},
	model.Timeframe1h:  {SampleInterval: 5 * time.Minute, TotalWindow: day, MaxSamples: 300},
	model.Timeframe4h:  {SampleInterval: 15 * time.Minute, TotalWindow: 3 * day, MaxSamples: 300},
	model.Timeframe6h:  {SampleInterval: 30 * time.Minute, TotalWindow: 5 * day, MaxSamples: 300},
	model.Timeframe1d:  {SampleInterval: time.Hour, TotalWindow: 14 * day, MaxSamples: 400},
	model.Timeframe1w:  {SampleInterval: 4 * time.Hour, TotalWindow: 60 * day, MaxSamples: 400},
	model.Timeframe1mo: {SampleInterval: day, TotalWindow: 365 * day, MaxSamples: 400},
}

// Codex bar resolutions, finest first.
var resolutions = []string{"1", "5", "15", "30", "60", "240", "720", "1D", "7D"}

var barResolution = map[model.Timeframe]string{
	model.Timeframe5m:  "1",
	model.Timeframe15m: "5",
	model.Timeframe1h:  "5",
	model.Timeframe4h:  "15",
	model.Timeframe6h:  "30",
	model.Timeframe1d:  "60",
	model.Timeframe1w:  "240",
	model.Timeframe1mo: "1D",
}

var recentLookback = map[model.Timeframe]time.Duration{
	model.Timeframe5m:  day,
	model.Timeframe15m: 3 * day,
	model.Timeframe1h:  7 * day,
	model.Timeframe4h:  14 * day,
	model.Timeframe6h:  30 * day,
	model.Timeframe1d:  90 * day,
	model.Timeframe1w:  365 * day,
	model.Timeframe1mo: 3 * 365 * day,
}

var anchorTolerance = map[model.Timeframe]time.Duration{
	model.Timeframe5m:  15 * time.Minute,
	model.Timeframe15m: 45 * time.Minute,
	model.Timeframe1h:  3 * time.Hour,
	model.Timeframe4h:  12 * time.Hour,
	model.Timeframe6h:  18 * time.Hour,
	model.Timeframe1d:  3 * day,
	model.Timeframe1w:  14 * day,
	model.Timeframe1mo: 30 * day,
}

// Valid reports whether tf is a known token.
func Valid(tf model.Timeframe) bool {
	_, ok := policies[tf]
	return ok
}

// Tokens lists the known timeframes from finest to coarsest.
func Tokens() []model.Timeframe {
	out := make([]model.Timeframe, len(order))
	copy(out, order)
	return out
}

// Normalize returns tf if known, DefaultTimeframe otherwise.
func Normalize(tf model.Timeframe) model.Timeframe {
	if Valid(tf) {
		return tf
	}
	return DefaultTimeframe
}

// For returns the sampling policy of tf. Unknown tokens get the 1h policy.
func For(tf model.Timeframe) Policy {
	return policies[Normalize(tf)]
}

// BarResolution returns the Codex bar resolution for tf.
func BarResolution(tf model.Timeframe) string {
	return barResolution[Normalize(tf)]
}

// ResolutionDuration converts a Codex resolution string to a duration.
func ResolutionDuration(res string) time.Duration {
	switch res {
	case "1":
		return time.Minute
	case "5":
		return 5 * time.Minute
	case "15":
		return 15 * time.Minute
	case "30":
		return 30 * time.Minute
	case "60":
		return time.Hour
	case "240":
		return 4 * time.Hour
	case "720":
		return 12 * time.Hour
	case "1D":
		return day
	case "7D":
		return 7 * day
	}
	return 5 * time.Minute
}

// CoarserResolution returns the next coarser Codex resolution, or res itself
// when it is already the coarsest.
func CoarserResolution(res string) string {
	for i, r := range resolutions {
		if r == res && i+1 < len(resolutions) {
			return resolutions[i+1]
		}
	}
	return res
}

// RecentLookback is the window requested when no tweet time is known.
func RecentLookback(tf model.Timeframe) time.Duration {
	return recentLookback[Normalize(tf)]
}

// AnchorTolerance is how far outside a series a target time may fall before
// the anchor snaps to the midpoint.
func AnchorTolerance(tf model.Timeframe) time.Duration {
	return anchorTolerance[Normalize(tf)]
}

// BaseChangeWindow picks the observed change that anchors a synthetic trend.
func BaseChangeWindow(tf model.Timeframe) ChangeWindow {
	switch Normalize(tf) {
	case model.Timeframe1d, model.Timeframe1w, model.Timeframe1mo:
		return ChangeH24
	case model.Timeframe4h, model.Timeframe6h:
		return ChangeH6
	default:
		return ChangeH1
	}
}
