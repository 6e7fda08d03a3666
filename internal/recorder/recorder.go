package recorder

import "time"

// ResolutionEvent describes one chart-data resolution.
type ResolutionEvent struct {
	Input           string
	Timeframe       string
	TweetTime       time.Time // zero when no tweet time was given
	Symbol          string
	Source          string // "codex", "dexscreener" or "synthetic"
	Provider        string
	Step            string // fallback step that produced the series
	DataPoints      int
	MarketCapBranch string
	PrimaryError    string
	PredatesHistory bool
	ResolvedAt      time.Time
}

// TweetLookupEvent describes one tweet lookup.
type TweetLookupEvent struct {
	Query       string
	Handle      string
	Timestamp   string
	Placeholder bool
	LookedUpAt  time.Time
}

// Recorder persists resolution provenance for later inspection.
type Recorder interface {
	RecordResolution(evt *ResolutionEvent) error
	RecordTweetLookup(evt *TweetLookupEvent) error
	// RecentResolutions returns up to limit events, newest first.
	RecentResolutions(limit int) ([]ResolutionEvent, error)
	// SourceCounts counts resolutions per source since the given time.
	SourceCounts(since time.Time) (map[string]int, error)
	Close() error
}
