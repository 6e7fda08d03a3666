package interval

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"Recharted/internal/model"
)

func TestFor_AllTokensArePositiveAndConsistent(t *testing.T) {
	for _, tf := range Tokens() {
		t.Run(string(tf), func(t *testing.T) {
			p := For(tf)
			assert.Greater(t, p.SampleInterval, time.Duration(0))
			assert.Greater(t, p.TotalWindow, time.Duration(0))
			assert.GreaterOrEqual(t, p.MaxSamples, 1)

			needed := int((p.TotalWindow + p.SampleInterval - 1) / p.SampleInterval)
			assert.LessOrEqual(t, needed, p.MaxSamples, "window needs more samples than allowed")
			assert.Equal(t, needed, p.Samples())
		})
	}
}

func TestFor_UnknownFallsBackToHourly(t *testing.T) {
	for _, tf := range []model.Timeframe{"", "2h", "garbage", "1H"} {
		assert.Equal(t, For(model.Timeframe1h), For(tf), "token %q", tf)
		assert.Equal(t, BarResolution(model.Timeframe1h), BarResolution(tf))
		assert.Equal(t, AnchorTolerance(model.Timeframe1h), AnchorTolerance(tf))
	}
	assert.False(t, Valid("2h"))
	assert.Equal(t, model.Timeframe1h, Normalize("2h"))
}

func TestLookupTables_CoverEveryToken(t *testing.T) {
	for _, tf := range Tokens() {
		assert.NotEmpty(t, barResolution[tf], "bar resolution for %s", tf)
		assert.NotZero(t, recentLookback[tf], "recent lookback for %s", tf)
		assert.NotZero(t, anchorTolerance[tf], "anchor tolerance for %s", tf)
		assert.LessOrEqual(t, ResolutionDuration(BarResolution(tf)), For(tf).TotalWindow)
	}
}

func TestAnchorTolerance_Bounds(t *testing.T) {
	assert.Equal(t, 15*time.Minute, AnchorTolerance(model.Timeframe5m))
	assert.Equal(t, 30*24*time.Hour, AnchorTolerance(model.Timeframe1mo))
}

func TestBaseChangeWindow(t *testing.T) {
	cases := map[model.Timeframe]ChangeWindow{
		model.Timeframe5m:  ChangeH1,
		model.Timeframe15m: ChangeH1,
		model.Timeframe1h:  ChangeH1,
		model.Timeframe4h:  ChangeH6,
		model.Timeframe6h:  ChangeH6,
		model.Timeframe1d:  ChangeH24,
		model.Timeframe1w:  ChangeH24,
		model.Timeframe1mo: ChangeH24,
	}
	for tf, want := range cases {
		assert.Equal(t, want, BaseChangeWindow(tf), "timeframe %s", tf)
	}
}

func TestCoarserResolution(t *testing.T) {
	assert.Equal(t, "15", CoarserResolution("5"))
	assert.Equal(t, "1D", CoarserResolution("720"))
	assert.Equal(t, "7D", CoarserResolution("7D"))
	assert.Equal(t, "bogus", CoarserResolution("bogus"))
}

func TestHourlyUsesFiveMinuteBarsOverAWeek(t *testing.T) {
	assert.Equal(t, "5", BarResolution(model.Timeframe1h))
	assert.Equal(t, 7*24*time.Hour, RecentLookback(model.Timeframe1h))
}
