package preview

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Recharted/internal/model"
)

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func hourlySeries(end time.Time, n int) *model.PriceSeries {
	s := &model.PriceSeries{Symbol: "wif", Source: model.SourceCodex}
	for i := 0; i < n; i++ {
		s.Prices = append(s.Prices, 1+float64(i%5)*0.1)
		s.Volumes = append(s.Volumes, 100)
		s.Timestamps = append(s.Timestamps, model.FormatTimestamp(end.Add(time.Duration(i-n+1)*time.Hour)))
	}
	return s
}

func TestRender(t *testing.T) {
	end := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := hourlySeries(end, 48)
	r := Renderer{Width: 640, Height: 360, Now: func() time.Time { return end }}

	img, err := r.Render(s, model.Timeframe1h, s.Timestamps[24])
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img.PNG, pngMagic))
	assert.Equal(t, 640, img.Width)
	assert.Equal(t, 360, img.Height)

	layout := plotLayout(640, 360, 0, 1)
	assert.Greater(t, img.Anchor.PixelX, layout.Left)
	assert.Less(t, img.Anchor.PixelX, layout.Left+layout.Width)
	assert.GreaterOrEqual(t, img.Anchor.PixelY, layout.Top)
	assert.LessOrEqual(t, img.Anchor.PixelY, layout.Top+layout.Height)
}

func TestRender_AnchorFollowsTime(t *testing.T) {
	end := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	s := hourlySeries(end, 48)
	r := Renderer{Now: func() time.Time { return end }}

	early, err := r.Render(s, model.Timeframe1h, s.Timestamps[5])
	require.NoError(t, err)
	late, err := r.Render(s, model.Timeframe1h, s.Timestamps[40])
	require.NoError(t, err)
	assert.Less(t, early.Anchor.PixelX, late.Anchor.PixelX)
	assert.Equal(t, DefaultWidth, early.Width)
}

func TestRender_TooFewPoints(t *testing.T) {
	_, err := Render(&model.PriceSeries{Prices: []float64{1}, Timestamps: []string{"x"}}, model.Timeframe1h, "")
	assert.ErrorIs(t, err, ErrTooFewPoints)
}

func TestTitleAndLabels(t *testing.T) {
	s := hourlySeries(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), 2)
	assert.Equal(t, "WIF • 1H", title(s, model.Timeframe1h))

	s.Source = model.SourceSynthetic
	assert.Equal(t, "WIF • 1D • simulated", title(s, model.Timeframe1d))
	assert.Equal(t, []string{"11:00", "12:00"}, labels(s, model.Timeframe1h))
	assert.Equal(t, []string{"Jun 01", "Jun 01"}, labels(s, model.Timeframe1w))
}
