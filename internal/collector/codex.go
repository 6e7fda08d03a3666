package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"Recharted/internal/model"
)

// DefaultCodexEndpoint is the public Codex GraphQL endpoint.
const DefaultCodexEndpoint = "https://graph.codex.io/graphql"

// MaxCountback caps how many bars a single request may return.
const MaxCountback = 1500

const getBarsQuery = `query GetBars($symbol: String!, $from: Int!, $to: Int!, $resolution: String!, $countback: Int, $symbolType: SymbolType, $removeEmptyBars: Boolean) {
  getBars(symbol: $symbol, from: $from, to: $to, resolution: $resolution, countback: $countback, symbolType: $symbolType, removeEmptyBars: $removeEmptyBars) {
    s
    t
    o
    h
    l
    c
    volume
  }
}`

// CodexFetcher implements BarsFetcher using the Codex GraphQL API.
type CodexFetcher struct {
	Endpoint string
	APIKey   string
	Client   *http.Client
	log      *zap.Logger
}

// NewCodexFetcher creates a Codex client. An empty apiKey yields a fetcher
// that always returns ErrNotConfigured.
func NewCodexFetcher(endpoint, apiKey string, client *http.Client, log *zap.Logger) *CodexFetcher {
	if endpoint == "" {
		endpoint = DefaultCodexEndpoint
	}
	if client == nil {
		client = NewHTTPClient(0, "")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &CodexFetcher{Endpoint: endpoint, APIKey: apiKey, Client: client, log: log}
}

func (f *CodexFetcher) Name() string { return "codex" }

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type codexBars struct {
	S      string     `json:"s"`
	T      []int64    `json:"t"`
	O      []*float64 `json:"o"`
	H      []*float64 `json:"h"`
	L      []*float64 `json:"l"`
	C      []*float64 `json:"c"`
	Volume []*string  `json:"volume"`
}

type codexResponse struct {
	Data struct {
		GetBars *codexBars `json:"getBars"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// FetchBars performs one getBars request.
func (f *CodexFetcher) FetchBars(ctx context.Context, req BarsRequest) ([]model.OHLCV, error) {
	if f.APIKey == "" {
		return nil, ErrNotConfigured
	}
	countback := req.Countback
	if countback <= 0 || countback > MaxCountback {
		countback = MaxCountback
	}
	vars := map[string]any{
		"symbol":          req.Symbol,
		"from":            req.From.Unix(),
		"to":              req.To.Unix(),
		"resolution":      req.Resolution,
		"countback":       countback,
		"removeEmptyBars": true,
	}
	if req.SymbolType != "" {
		vars["symbolType"] = string(req.SymbolType)
	}
	payload, err := json.Marshal(graphQLRequest{Query: getBarsQuery, Variables: vars})
	if err != nil {
		return nil, fmt.Errorf("marshal getBars: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, f.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", f.APIKey)

	resp, err := f.Client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("codex getBars: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("codex read body: %w", err)
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("codex: status %d: %w", resp.StatusCode, ErrUnauthorized)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("codex: status %d, body: %s", resp.StatusCode, preview(body))
	}

	var cr codexResponse
	if err := json.Unmarshal(body, &cr); err != nil {
		return nil, fmt.Errorf("codex decode: %w; body: %s", err, preview(body))
	}
	if len(cr.Errors) > 0 {
		msg := cr.Errors[0].Message
		if strings.Contains(strings.ToLower(msg), "unauthorized") {
			return nil, fmt.Errorf("codex: %s: %w", msg, ErrUnauthorized)
		}
		return nil, fmt.Errorf("codex graphql error: %s", msg)
	}
	bars := cr.Data.GetBars
	if bars == nil || bars.S == "no_data" || len(bars.T) == 0 {
		return nil, fmt.Errorf("codex %s %s: %w", req.Symbol, req.Resolution, ErrNoData)
	}

	out := make([]model.OHLCV, 0, len(bars.T))
	for i, ts := range bars.T {
		c := at(bars.C, i)
		if c <= 0 {
			continue // empty bar
		}
		o, h, l := at(bars.O, i), at(bars.H, i), at(bars.L, i)
		if o <= 0 {
			o = c
		}
		if h <= 0 {
			h = c
		}
		if l <= 0 {
			l = c
		}
		var vol float64
		if i < len(bars.Volume) && bars.Volume[i] != nil {
			vol, _ = strconv.ParseFloat(*bars.Volume[i], 64)
		}
		out = append(out, model.OHLCV{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: vol,
		})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("codex %s %s: %w", req.Symbol, req.Resolution, ErrNoData)
	}
	// Ensure chronological order
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	f.log.Debug("codex bars fetched",
		zap.String("symbol", req.Symbol),
		zap.String("resolution", req.Resolution),
		zap.String("symbol_type", string(req.SymbolType)),
		zap.Int("bars", len(out)),
	)
	return out, nil
}

func at(vals []*float64, i int) float64 {
	if i >= len(vals) || vals[i] == nil {
		return 0
	}
	return *vals[i]
}
