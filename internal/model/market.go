package model

import "time"

// Timeframe is a chart granularity token such as "5m", "1h" or "1d".
type Timeframe string

const (
	Timeframe5m  Timeframe = "5m"
	Timeframe15m Timeframe = "15m"
	Timeframe1h  Timeframe = "1h"
	Timeframe4h  Timeframe = "4h"
	Timeframe6h  Timeframe = "6h"
	Timeframe1d  Timeframe = "1d"
	Timeframe1w  Timeframe = "1w"
	Timeframe1mo Timeframe = "1m"
)

// Source tags where the numbers of a PriceSeries came from.
type Source string

const (
	SourceCodex       Source = "codex"
	SourceDexScreener Source = "dexscreener"
	SourceSynthetic   Source = "synthetic"
)

// IsReal reports whether the series history came from a market-data provider.
func (s Source) IsReal() bool {
	return s == SourceCodex || s == SourceDexScreener
}

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// PriceSeries is the normalized output of chart-data resolution.
// Prices, Volumes and Timestamps are parallel and chronologically ordered.
type PriceSeries struct {
	Symbol                    string    `json:"symbol"`
	Prices                    []float64 `json:"prices"`
	Volumes                   []float64 `json:"volumes"`
	Timestamps                []string  `json:"timestamps"`
	CurrentPrice              float64   `json:"currentPrice"`
	PriceChange24hPct         float64   `json:"priceChange24hPct"`
	MarketCap                 *float64  `json:"marketCap,omitempty"`
	TokenSupply               *float64  `json:"tokenSupply,omitempty"`
	Source                    Source    `json:"source"`
	IsPopularToken            bool      `json:"isPopularToken"`
	HistoricalDataUnavailable bool      `json:"historicalDataUnavailable"`
}

// Len returns the number of samples.
func (s *PriceSeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Prices)
}

// Times parses Timestamps. Unparseable entries become the zero time.
func (s *PriceSeries) Times() []time.Time {
	out := make([]time.Time, len(s.Timestamps))
	for i, ts := range s.Timestamps {
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err == nil {
			out[i] = t
		}
	}
	return out
}

// FormatTimestamp renders t the way PriceSeries timestamps are serialized.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// PriceChange holds percentage price changes over trailing windows.
type PriceChange struct {
	H1  float64 `json:"h1"`
	H6  float64 `json:"h6"`
	H24 float64 `json:"h24"`
}

// PairSnapshot is the current state of a liquidity pair.
type PairSnapshot struct {
	ChainID      string
	DexID        string
	PairAddress  string
	BaseAddress  string
	Symbol       string
	Name         string
	PriceUSD     float64
	PriceChange  PriceChange
	Volume24h    float64
	FDV          float64
	MarketCap    float64
	LiquidityUSD float64
}

// ChartAnchor is the pixel position of a timestamp on a rendered chart.
type ChartAnchor struct {
	PixelX float64 `json:"pixelX"`
	PixelY float64 `json:"pixelY"`
}
