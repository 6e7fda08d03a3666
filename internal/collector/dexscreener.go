package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"Recharted/internal/model"
)

// DefaultDexScreenerURL is the public DexScreener API base.
const DefaultDexScreenerURL = "https://api.dexscreener.com"

// DexScreenerFetcher implements SnapshotFetcher using the DexScreener REST API.
type DexScreenerFetcher struct {
	BaseURL string
	Client  *http.Client
	log     *zap.Logger
}

// NewDexScreenerFetcher creates a DexScreener client.
func NewDexScreenerFetcher(baseURL string, client *http.Client, log *zap.Logger) *DexScreenerFetcher {
	if baseURL == "" {
		baseURL = DefaultDexScreenerURL
	}
	if client == nil {
		client = NewHTTPClient(0, "")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &DexScreenerFetcher{BaseURL: strings.TrimRight(baseURL, "/"), Client: client, log: log}
}

func (f *DexScreenerFetcher) Name() string { return "dexscreener" }

// dexPair is the subset of a DexScreener pair we use.
type dexPair struct {
	ChainID     string `json:"chainId"`
	DexID       string `json:"dexId"`
	PairAddress string `json:"pairAddress"`
	BaseToken   struct {
		Address string `json:"address"`
		Name    string `json:"name"`
		Symbol  string `json:"symbol"`
	} `json:"baseToken"`
	PriceUSD    string `json:"priceUsd"`
	PriceChange struct {
		H1  float64 `json:"h1"`
		H6  float64 `json:"h6"`
		H24 float64 `json:"h24"`
	} `json:"priceChange"`
	Volume struct {
		H24 float64 `json:"h24"`
	} `json:"volume"`
	Liquidity *struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`
	FDV       float64 `json:"fdv"`
	MarketCap float64 `json:"marketCap"`
}

type dexResponse struct {
	Pairs []dexPair `json:"pairs"`
	Pair  *dexPair  `json:"pair"`
}

// FetchSnapshot queries the pair endpoint for pools and the token endpoint
// otherwise. When several pairs match, the first one wins.
func (f *DexScreenerFetcher) FetchSnapshot(ctx context.Context, chain, address string, pool bool) (*model.PairSnapshot, error) {
	if address == "" {
		return nil, fmt.Errorf("dexscreener: empty address: %w", ErrNoData)
	}
	var endpoint string
	if pool && chain != "" {
		endpoint = fmt.Sprintf("%s/latest/dex/pairs/%s/%s", f.BaseURL, url.PathEscape(chain), url.PathEscape(address))
	} else {
		endpoint = fmt.Sprintf("%s/latest/dex/tokens/%s", f.BaseURL, url.PathEscape(address))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dexscreener fetch: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("dexscreener read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dexscreener: status %d, body: %s", resp.StatusCode, preview(body))
	}

	var dr dexResponse
	if err := json.Unmarshal(body, &dr); err != nil {
		return nil, fmt.Errorf("dexscreener decode: %w", err)
	}
	pairs := dr.Pairs
	if len(pairs) == 0 && dr.Pair != nil {
		pairs = []dexPair{*dr.Pair}
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("dexscreener %s: %w", address, ErrNoData)
	}
	if len(pairs) > 1 {
		f.log.Debug("dexscreener returned several pairs, using the first",
			zap.String("address", address),
			zap.Int("pairs", len(pairs)),
		)
	}

	p := pairs[0]
	price, err := strconv.ParseFloat(p.PriceUSD, 64)
	if err != nil || price <= 0 {
		return nil, fmt.Errorf("dexscreener %s: invalid price %q: %w", address, p.PriceUSD, ErrNoData)
	}
	snap := &model.PairSnapshot{
		ChainID:     p.ChainID,
		DexID:       p.DexID,
		PairAddress: p.PairAddress,
		BaseAddress: p.BaseToken.Address,
		Symbol:      p.BaseToken.Symbol,
		Name:        p.BaseToken.Name,
		PriceUSD:    price,
		PriceChange: model.PriceChange{
			H1:  p.PriceChange.H1,
			H6:  p.PriceChange.H6,
			H24: p.PriceChange.H24,
		},
		Volume24h: p.Volume.H24,
		FDV:       p.FDV,
		MarketCap: p.MarketCap,
	}
	if p.Liquidity != nil {
		snap.LiquidityUSD = p.Liquidity.USD
	}
	return snap, nil
}
