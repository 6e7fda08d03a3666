// Package anchor maps a timestamp to a pixel on a rendered price chart.
package anchor

import (
	"sort"
	"strings"
	"time"

	"Recharted/internal/interval"
	"Recharted/internal/model"
)

// Layout maps series positions to pixels.
type Layout interface {
	// X returns the x pixel of a (possibly fractional) sample index.
	X(index float64, count int) float64
	// Y returns the y pixel of a price.
	Y(price float64) float64
}

// LinearLayout is a rectangular plot area with linear axes. Y grows downward.
type LinearLayout struct {
	Left, Top, Width, Height float64
	MinPrice, MaxPrice       float64
}

// NewLinearLayout fits the price axis to prices.
func NewLinearLayout(left, top, width, height float64, prices []float64) LinearLayout {
	l := LinearLayout{Left: left, Top: top, Width: width, Height: height}
	for i, p := range prices {
		if i == 0 || p < l.MinPrice {
			l.MinPrice = p
		}
		if i == 0 || p > l.MaxPrice {
			l.MaxPrice = p
		}
	}
	return l
}

func (l LinearLayout) X(index float64, count int) float64 {
	if count <= 1 {
		return l.Left + l.Width/2
	}
	return l.Left + l.Width*index/float64(count-1)
}

func (l LinearLayout) Y(price float64) float64 {
	span := l.MaxPrice - l.MinPrice
	if span <= 0 {
		return l.Top + l.Height/2
	}
	return l.Top + l.Height*(1-(price-l.MinPrice)/span)
}

var localLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseTime accepts "HH:MM" (today in now's location), RFC 3339, or
// "2006-01-02 15:04[:05]" (in now's location).
func ParseTime(s string, now time.Time) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse("15:04", s); err == nil {
		return time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location()), true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Locate returns the pixel for target on a chart of series drawn with layout.
// Inside the series the position is interpolated between the bracketing
// samples. Just outside it, within the timeframe's tolerance, the nearest end
// sample is used; further out, or when target cannot be parsed, the midpoint.
func Locate(layout Layout, series *model.PriceSeries, target string, tf model.Timeframe, now time.Time) model.ChartAnchor {
	n := series.Len()
	if n == 0 {
		return model.ChartAnchor{}
	}
	at := func(i int) model.ChartAnchor {
		return model.ChartAnchor{PixelX: layout.X(float64(i), n), PixelY: layout.Y(series.Prices[i])}
	}
	mid := at(n / 2)

	ts, ok := ParseTime(target, now)
	if !ok {
		return mid
	}
	times := series.Times()
	first, last := times[0], times[n-1]
	tol := interval.AnchorTolerance(tf)

	switch {
	case ts.Before(first):
		if first.Sub(ts) <= tol {
			return at(0)
		}
		return mid
	case ts.After(last):
		if ts.Sub(last) <= tol {
			return at(n - 1)
		}
		return mid
	}

	i := sort.Search(n, func(i int) bool { return !times[i].Before(ts) })
	if times[i].Equal(ts) || i == 0 {
		return at(i)
	}
	lo, hi := times[i-1], times[i]
	frac := float64(ts.Sub(lo)) / float64(hi.Sub(lo))
	price := series.Prices[i-1] + frac*(series.Prices[i]-series.Prices[i-1])
	return model.ChartAnchor{
		PixelX: layout.X(float64(i-1)+frac, n),
		PixelY: layout.Y(price),
	}
}
