package anchor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Recharted/internal/model"
)

var base = time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)

// dailySeries has n daily samples starting at base with prices 1..n.
func dailySeries(n int) *model.PriceSeries {
	s := &model.PriceSeries{}
	for i := 0; i < n; i++ {
		s.Prices = append(s.Prices, float64(i+1))
		s.Volumes = append(s.Volumes, 1)
		s.Timestamps = append(s.Timestamps, model.FormatTimestamp(base.Add(time.Duration(i)*24*time.Hour)))
	}
	return s
}

func layoutFor(s *model.PriceSeries) LinearLayout {
	// 10px per sample, price 1 at y=100 and price n at y=0.
	return NewLinearLayout(0, 0, float64(10*(s.Len()-1)), 100, s.Prices)
}

func TestLinearLayout(t *testing.T) {
	l := NewLinearLayout(10, 20, 100, 50, []float64{4, 2, 6})
	assert.Equal(t, 2.0, l.MinPrice)
	assert.Equal(t, 6.0, l.MaxPrice)
	assert.Equal(t, 10.0, l.X(0, 5))
	assert.Equal(t, 110.0, l.X(4, 5))
	assert.Equal(t, 60.0, l.X(0, 1))
	assert.Equal(t, 70.0, l.Y(2))
	assert.Equal(t, 20.0, l.Y(6))

	flat := NewLinearLayout(0, 0, 100, 50, []float64{3, 3})
	assert.Equal(t, 25.0, flat.Y(3))
}

func TestLocate_ExactSampleHit(t *testing.T) {
	s := dailySeries(11)
	l := layoutFor(s)

	for _, i := range []int{0, 3, 10} {
		target := s.Timestamps[i]
		got := Locate(l, s, target, model.Timeframe1d, base)
		assert.Equal(t, l.X(float64(i), s.Len()), got.PixelX, target)
		assert.Equal(t, l.Y(s.Prices[i]), got.PixelY, target)
	}
}

func TestLocate_Interpolates(t *testing.T) {
	s := dailySeries(11)
	l := layoutFor(s)

	got := Locate(l, s, base.Add(36*time.Hour).Format(time.RFC3339), model.Timeframe1d, base)
	assert.InDelta(t, 15.0, got.PixelX, 1e-9)
	assert.InDelta(t, l.Y(2.5), got.PixelY, 1e-9)
}

func TestLocate_ClampsWithinTolerance(t *testing.T) {
	s := dailySeries(11)
	l := layoutFor(s)
	last := base.Add(10 * 24 * time.Hour)

	before := Locate(l, s, base.Add(-48*time.Hour).Format(time.RFC3339), model.Timeframe1d, base)
	assert.Equal(t, model.ChartAnchor{PixelX: 0, PixelY: 100}, before)

	after := Locate(l, s, last.Add(72*time.Hour).Format(time.RFC3339), model.Timeframe1d, base)
	assert.Equal(t, model.ChartAnchor{PixelX: 100, PixelY: 0}, after)
}

func TestLocate_FarOutsideSnapsToMidpoint(t *testing.T) {
	s := dailySeries(11)
	l := layoutFor(s)
	mid := model.ChartAnchor{PixelX: l.X(5, 11), PixelY: l.Y(s.Prices[5])}

	// A monthly chart tolerates 30 days; 400 days is far outside.
	far := base.Add(-400 * 24 * time.Hour).Format(time.RFC3339)
	assert.Equal(t, mid, Locate(l, s, far, model.Timeframe1mo, base))

	// A daily chart tolerates 3 days.
	assert.Equal(t, mid, Locate(l, s, base.Add(-4*24*time.Hour).Format(time.RFC3339), model.Timeframe1d, base))

	assert.Equal(t, mid, Locate(l, s, "garbage", model.Timeframe1d, base))
}

func TestLocate_HourMinuteMeansToday(t *testing.T) {
	now := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)
	s := &model.PriceSeries{}
	for i := 0; i < 13; i++ {
		s.Prices = append(s.Prices, float64(i+1))
		s.Volumes = append(s.Volumes, 1)
		s.Timestamps = append(s.Timestamps, model.FormatTimestamp(now.Add(time.Duration(i-12)*time.Hour)))
	}
	l := layoutFor(s)

	got := Locate(l, s, "12:00", model.Timeframe1h, now)
	assert.Equal(t, l.X(6, 13), got.PixelX)
}

func TestLocate_EmptySeries(t *testing.T) {
	assert.Equal(t, model.ChartAnchor{}, Locate(LinearLayout{}, &model.PriceSeries{}, "12:00", model.Timeframe1h, base))
}

func TestParseTime(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*3600)
	now := time.Date(2025, 3, 10, 18, 0, 0, 0, loc)

	tests := []struct {
		in   string
		want time.Time
	}{
		{"09:15", time.Date(2025, 3, 10, 9, 15, 0, 0, loc)},
		{"2024-01-02T03:04:05Z", time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)},
		{"2024-01-02T03:04:05.123+01:00", time.Date(2024, 1, 2, 2, 4, 5, 123e6, time.UTC)},
		{"2024-01-02 03:04", time.Date(2024, 1, 2, 3, 4, 0, 0, loc)},
		{"2024-01-02 03:04:05", time.Date(2024, 1, 2, 3, 4, 5, 0, loc)},
	}
	for _, tt := range tests {
		got, ok := ParseTime(tt.in, now)
		require.True(t, ok, tt.in)
		assert.True(t, tt.want.Equal(got), "%s: got %s", tt.in, got)
	}

	for _, bad := range []string{"", "25:99", "yesterday"} {
		_, ok := ParseTime(bad, now)
		assert.False(t, ok, bad)
	}
}
