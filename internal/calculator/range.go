package calculator

import (
	"errors"
	"math"
)

// ErrNoPrices is returned for an empty price slice.
var ErrNoPrices = errors.New("no prices provided")

// PriceRange returns the high and low of prices.
func PriceRange(prices []float64) (high, low float64, err error) {
	return TrailingRange(prices, len(prices))
}

// TrailingRange scans the most recent n prices and returns the high and low.
// n <= 0 or n > len(prices) scans everything.
func TrailingRange(prices []float64, n int) (high, low float64, err error) {
	if len(prices) == 0 {
		return 0, 0, ErrNoPrices
	}
	start := len(prices) - n
	if n <= 0 || start < 0 {
		start = 0
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, p := range prices[start:] {
		if p > high {
			high = p
		}
		if p < low {
			low = p
		}
	}
	return high, low, nil
}

// Position returns where current sits within [low, high] (0.0~1.0).
func Position(current, high, low float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, errors.New("high must be >= low")
	}
	pos := (current - low) / (high - low)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return pos, nil
}

// PaddedRange widens [low, high] by frac of its span on both sides, keeping
// low non-negative. A flat range is widened by frac of its value.
func PaddedRange(high, low, frac float64) (paddedHigh, paddedLow float64) {
	span := high - low
	if span <= 0 {
		span = math.Abs(high)
		if span == 0 {
			span = 1
		}
	}
	paddedHigh = high + span*frac
	paddedLow = math.Max(0, low-span*frac)
	return paddedHigh, paddedLow
}
