package notifier

import (
	"context"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"Recharted/internal/interval"
	"Recharted/internal/model"
	"Recharted/internal/recorder"
	"Recharted/internal/resolver"
)

// ChartResolver resolves chart input with provenance.
type ChartResolver interface {
	ResolveDetailed(ctx context.Context, input string, tf model.Timeframe, tweetTime time.Time) (*resolver.Resolution, error)
}

// PreviewRenderer renders a chart image for a series.
type PreviewRenderer func(series *model.PriceSeries, tf model.Timeframe) ([]byte, error)

var (
	resolveCmd = regexp.MustCompile(`^/resolve(?:@[\w_]+)?\s+(\S+)(?:\s+(\S+))?\s*$`)
	statsCmd   = regexp.MustCompile(`^/stats(?:@[\w_]+)?\s*$`)
)

const statsWindow = 24 * time.Hour

// Commands answers chat commands.
type Commands struct {
	Resolver         ChartResolver
	Recorder         recorder.Recorder
	Render           PreviewRenderer // optional
	DefaultTimeframe model.Timeframe
	RecentLimit      int
	Log              *zap.Logger
	Now              func() time.Time
}

// Handle is a CommandHandler.
func (c *Commands) Handle(ctx context.Context, text string) Reply {
	if m := resolveCmd.FindStringSubmatch(text); m != nil {
		return c.resolve(ctx, m[1], model.Timeframe(m[2]))
	}
	if statsCmd.MatchString(text) {
		return Reply{Text: c.stats()}
	}
	return Reply{Text: HelpText}
}

func (c *Commands) resolve(ctx context.Context, input string, tf model.Timeframe) Reply {
	if tf == "" {
		tf = c.DefaultTimeframe
	}
	if !interval.Valid(tf) {
		return Reply{Text: fmt.Sprintf("Unknown timeframe %q.\n\n%s", html.EscapeString(string(tf)), HelpText)}
	}
	res, err := c.Resolver.ResolveDetailed(ctx, input, tf, time.Time{})
	if err != nil {
		return Reply{Text: fmt.Sprintf("❌ %s", html.EscapeString(err.Error()))}
	}
	reply := Reply{Text: FormatResolution(input, tf, res)}
	if c.Render != nil {
		png, err := c.Render(res.Series, tf)
		if err != nil {
			c.logger().Warn("render preview", zap.Error(err))
			return reply
		}
		reply.Photo = png
		reply.PhotoName = strings.ToLower(res.Series.Symbol) + ".png"
	}
	return reply
}

func (c *Commands) stats() string {
	if c.Recorder == nil {
		return "Resolution recording is disabled."
	}
	limit := c.RecentLimit
	if limit <= 0 {
		limit = 10
	}
	events, err := c.Recorder.RecentResolutions(limit)
	if err != nil {
		c.logger().Error("recent resolutions", zap.Error(err))
		return "❌ could not read resolutions"
	}
	since := c.now().Add(-statsWindow)
	counts, err := c.Recorder.SourceCounts(since)
	if err != nil {
		c.logger().Error("source counts", zap.Error(err))
		return "❌ could not read resolutions"
	}
	return FormatStats(events, counts, since)
}

func (c *Commands) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Commands) logger() *zap.Logger {
	if c.Log != nil {
		return c.Log
	}
	return zap.NewNop()
}
