// Package cache keeps recently resolved series so repeated chart requests do
// not hit the upstream providers again.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"Recharted/internal/model"
)

// DefaultTTL is how long a resolved series stays fresh.
const DefaultTTL = 60 * time.Second

// Entry is one cached resolution.
type Entry struct {
	Series     *model.PriceSeries `json:"series"`
	Provider   string             `json:"provider"`
	Step       string             `json:"step"`
	ResolvedAt time.Time          `json:"resolvedAt"`
}

// Store is a TTL cache of resolutions.
type Store interface {
	Get(ctx context.Context, key string) (*Entry, bool)
	Set(ctx context.Context, key string, e *Entry) error
	// Prune drops expired entries and returns how many were removed.
	Prune(ctx context.Context) int
	Close() error
}

// Key identifies a resolution request. Tweet times are truncated to the minute.
func Key(input string, tf model.Timeframe, tweetTime time.Time) string {
	ts := "recent"
	if !tweetTime.IsZero() {
		ts = tweetTime.UTC().Truncate(time.Minute).Format("200601021504")
	}
	return fmt.Sprintf("%s|%s|%s", strings.ToLower(strings.TrimSpace(input)), tf, ts)
}
