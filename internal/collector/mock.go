package collector

import (
	"context"
	"sync"
	"time"

	"Recharted/internal/model"
)

// MockFetcher returns controllable fixed data for development and testing.
// It satisfies both BarsFetcher and SnapshotFetcher.
type MockFetcher struct {
	// BarsFor decides the answer per request; nil falls back to Bars/BarsErr.
	BarsFor     func(req BarsRequest) ([]model.OHLCV, error)
	Bars        []model.OHLCV
	BarsErr     error
	Snapshot    *model.PairSnapshot
	SnapshotErr error

	mu            sync.Mutex
	BarsCalls     []BarsRequest
	SnapshotCalls int
}

func (m *MockFetcher) Name() string { return "mock" }

func (m *MockFetcher) FetchBars(_ context.Context, req BarsRequest) ([]model.OHLCV, error) {
	m.mu.Lock()
	m.BarsCalls = append(m.BarsCalls, req)
	m.mu.Unlock()
	if m.BarsFor != nil {
		return m.BarsFor(req)
	}
	if m.BarsErr != nil {
		return nil, m.BarsErr
	}
	if m.Bars == nil {
		return nil, ErrNoData
	}
	return m.Bars, nil
}

func (m *MockFetcher) FetchSnapshot(_ context.Context, _, _ string, _ bool) (*model.PairSnapshot, error) {
	m.mu.Lock()
	m.SnapshotCalls++
	m.mu.Unlock()
	if m.SnapshotErr != nil {
		return nil, m.SnapshotErr
	}
	if m.Snapshot == nil {
		return nil, ErrNoData
	}
	s := *m.Snapshot
	return &s, nil
}

// GenerateMockBars builds count evenly spaced bars ending at end.
func GenerateMockBars(basePrice float64, count int, step time.Duration, end time.Time) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Time:   end.Add(-time.Duration(count-1-i) * step),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}
