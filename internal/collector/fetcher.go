package collector

import (
	"context"
	"errors"
	"time"

	"Recharted/internal/model"
)

var (
	// ErrNoData means the provider answered but had nothing for the request.
	ErrNoData = errors.New("no data")
	// ErrUnauthorized means the provider rejected the API key.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotConfigured means the provider cannot be called, e.g. no API key.
	ErrNotConfigured = errors.New("provider not configured")
)

// SymbolType tells the bars provider how to interpret an address.
type SymbolType string

const (
	SymbolPool  SymbolType = "POOL"
	SymbolToken SymbolType = "TOKEN"
)

// Opposite returns the other address kind.
func (t SymbolType) Opposite() SymbolType {
	if t == SymbolPool {
		return SymbolToken
	}
	return SymbolPool
}

// BarsRequest is one complete, independent request for historical bars.
type BarsRequest struct {
	Symbol     string // "address:networkId"
	SymbolType SymbolType
	Resolution string
	From       time.Time
	To         time.Time
	Countback  int
}

// BarsFetcher fetches historical OHLCV bars.
type BarsFetcher interface {
	FetchBars(ctx context.Context, req BarsRequest) ([]model.OHLCV, error)
	Name() string
}

// SnapshotFetcher fetches the current state of a pair. When pool is true the
// address is a pair address on chain, otherwise a token address.
type SnapshotFetcher interface {
	FetchSnapshot(ctx context.Context, chain, address string, pool bool) (*model.PairSnapshot, error)
	Name() string
}
