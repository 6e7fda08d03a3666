// Package preview renders a server-side PNG of a price series and locates the
// tweet anchor on it.
package preview

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vicanso/go-charts/v2"

	"Recharted/internal/anchor"
	"Recharted/internal/calculator"
	"Recharted/internal/model"
)

// ErrTooFewPoints is returned for series that cannot be drawn as a line.
var ErrTooFewPoints = errors.New("not enough data points")

const (
	DefaultWidth  = 800
	DefaultHeight = 450
)

// Approximate plot-area insets of a go-charts line chart with a title and
// both axes, in pixels.
const (
	padding      = 20
	titleHeight  = 35
	yLabelWidth  = 60
	xLabelHeight = 30
)

// Image is a rendered chart and the anchor of the tweet time on it.
type Image struct {
	PNG    []byte
	Anchor model.ChartAnchor
	Width  int
	Height int
}

// Renderer draws line charts.
type Renderer struct {
	Width  int
	Height int
	Now    func() time.Time
}

var defaultRenderer = Renderer{Width: DefaultWidth, Height: DefaultHeight, Now: time.Now}

// Render draws series with the default renderer.
func Render(series *model.PriceSeries, tf model.Timeframe, tweetTime string) (*Image, error) {
	return defaultRenderer.Render(series, tf, tweetTime)
}

// Render draws series and returns the PNG with the anchor of tweetTime.
func (r Renderer) Render(series *model.PriceSeries, tf model.Timeframe, tweetTime string) (*Image, error) {
	if series.Len() < 2 {
		return nil, ErrTooFewPoints
	}
	width, height := r.Width, r.Height
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	now := time.Now()
	if r.Now != nil {
		now = r.Now()
	}

	high, low, err := calculator.PriceRange(series.Prices)
	if err != nil {
		return nil, err
	}
	yMax, yMin := calculator.PaddedRange(high, low, 0.05)

	painter, err := charts.LineRender([][]float64{series.Prices},
		charts.TitleTextOptionFunc(title(series, tf)),
		charts.XAxisOptionFunc(charts.XAxisOption{Data: labels(series, tf), BoundaryGap: charts.FalseFlag(), SplitNumber: 6}),
		charts.YAxisOptionFunc(charts.YAxisOption{Min: &yMin, Max: &yMax, DivideCount: 5}),
		charts.WidthOptionFunc(width),
		charts.HeightOptionFunc(height),
		charts.PaddingOptionFunc(charts.Box{Top: padding, Left: padding, Right: padding, Bottom: padding}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	png, err := painter.Bytes()
	if err != nil {
		return nil, fmt.Errorf("encode chart: %w", err)
	}

	layout := plotLayout(width, height, yMin, yMax)
	return &Image{
		PNG:    png,
		Anchor: anchor.Locate(layout, series, tweetTime, tf, now),
		Width:  width,
		Height: height,
	}, nil
}

func plotLayout(width, height int, yMin, yMax float64) anchor.LinearLayout {
	left := float64(padding + yLabelWidth)
	top := float64(padding + titleHeight)
	w := float64(width) - left - padding
	h := float64(height) - top - padding - xLabelHeight
	return anchor.NewLinearLayout(left, top, w, h, []float64{yMin, yMax})
}

func title(series *model.PriceSeries, tf model.Timeframe) string {
	sym := strings.ToUpper(series.Symbol)
	if sym == "" {
		sym = "CHART"
	}
	t := sym + " • " + strings.ToUpper(string(tf))
	if series.Source == model.SourceSynthetic {
		t += " • simulated"
	}
	return t
}

func labels(series *model.PriceSeries, tf model.Timeframe) []string {
	layout := "Jan 02"
	switch tf {
	case model.Timeframe5m, model.Timeframe15m, model.Timeframe1h:
		layout = "15:04"
	case model.Timeframe4h, model.Timeframe6h:
		layout = "Jan 02 15:04"
	}
	times := series.Times()
	out := make([]string, len(times))
	for i, t := range times {
		if t.IsZero() {
			continue
		}
		out[i] = t.UTC().Format(layout)
	}
	return out
}
