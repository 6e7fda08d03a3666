package recorder

import "time"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordResolution(_ *ResolutionEvent) error   { return nil }
func (n *NoopRecorder) RecordTweetLookup(_ *TweetLookupEvent) error { return nil }
func (n *NoopRecorder) RecentResolutions(_ int) ([]ResolutionEvent, error) {
	return nil, nil
}
func (n *NoopRecorder) SourceCounts(_ time.Time) (map[string]int, error) {
	return map[string]int{}, nil
}
func (n *NoopRecorder) Close() error { return nil }
