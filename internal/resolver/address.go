package resolver

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"Recharted/internal/collector"
)

// ErrInvalidSymbolKey is returned for symbol keys not shaped address:networkId.
var ErrInvalidSymbolKey = errors.New("invalid symbol key")

const (
	ChainSolana   = "solana"
	ChainEthereum = "ethereum"
)

// Networks maps DexScreener chain ids to Codex network ids.
var Networks = map[string]int{
	ChainSolana:   1399811149,
	ChainEthereum: 1,
	"bsc":         56,
	"base":        8453,
	"arbitrum":    42161,
	"polygon":     137,
	"avalanche":   43114,
	"optimism":    10,
}

var chainAliases = map[string]string{
	"sol":     ChainSolana,
	"eth":     ChainEthereum,
	"bnb":     "bsc",
	"arb":     "arbitrum",
	"matic":   "polygon",
	"avax":    "avalanche",
	"op":      "optimism",
	"mainnet": ChainEthereum,
}

// DefaultPopularTokens rewrites well-known names to canonical pair URLs.
var DefaultPopularTokens = map[string]string{
	"bitcoin":  "https://dexscreener.com/ethereum/0xcbcdf9626bc03e24f779434178a73a0b4bad62ed",
	"ethereum": "https://dexscreener.com/ethereum/0x88e6a0c2ddd26feeb64f039a2c41296fcb3f5640",
	"solana":   "https://dexscreener.com/solana/58oQChx4yWmvKdwLLZzBi4ChoCc2fqCUWBkwMihLYQo2",
}

var (
	evmAddress    = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	base58Address = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{32,44}$`)
)

// Hosts whose chart URLs carry a pair (pool) address.
var poolHosts = []string{"dexscreener.com", "geckoterminal.com", "dextools.io"}

// Target is a normalized chart input.
type Target struct {
	Input     string
	Chain     string
	NetworkID int
	Address   string
	Kind      collector.SymbolType
	Popular   bool
}

// Valid reports whether an address-shaped value was found.
func (t Target) Valid() bool { return t.Address != "" }

// SymbolKey is the Codex symbol for the target on its own network.
func (t Target) SymbolKey() string { return SymbolKey(t.Address, t.NetworkID) }

// SymbolKey builds a Codex "address:networkId" key.
func SymbolKey(address string, networkID int) string {
	return fmt.Sprintf("%s:%d", address, networkID)
}

// ParseSymbolKey splits a Codex "address:networkId" key.
func ParseSymbolKey(key string) (address string, networkID int, err error) {
	i := strings.LastIndex(key, ":")
	if i <= 0 || i == len(key)-1 {
		return "", 0, fmt.Errorf("%w %q: expected address:networkId", ErrInvalidSymbolKey, key)
	}
	networkID, err = strconv.Atoi(key[i+1:])
	if err != nil {
		return "", 0, fmt.Errorf("%w %q: bad network id", ErrInvalidSymbolKey, key)
	}
	return key[:i], networkID, nil
}

// ChainForNetwork returns the chain id for a Codex network id.
func ChainForNetwork(networkID int) string {
	for chain, id := range Networks {
		if id == networkID {
			return chain
		}
	}
	return ""
}

// ParseTarget normalizes a chart URL, raw address or popular alias.
// Inputs with no recognizable address yield a Target with an empty Address.
func ParseTarget(input string, aliases map[string]string) Target {
	raw := strings.TrimSpace(input)
	if aliases == nil {
		aliases = DefaultPopularTokens
	}
	if u, ok := aliases[strings.ToLower(raw)]; ok {
		t := parse(u)
		t.Input = raw
		t.Popular = true
		return t
	}
	t := parse(raw)
	t.Input = raw
	return t
}

func parse(raw string) Target {
	if raw == "" {
		return Target{}
	}
	if isAddress(raw) {
		chain := inferChain(raw)
		return Target{Chain: chain, NetworkID: Networks[chain], Address: raw, Kind: collector.SymbolToken}
	}
	if !looksLikeURL(raw) {
		return Target{}
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Target{}
	}

	var chain, address string
	for _, seg := range strings.Split(u.Path, "/") {
		if seg == "" {
			continue
		}
		if c := normalizeChain(seg); c != "" && chain == "" {
			chain = c
			continue
		}
		if isAddress(seg) {
			address = seg
		}
	}
	if c := normalizeChain(u.Query().Get("chain")); c != "" {
		chain = c
	}
	if address == "" {
		return Target{}
	}
	if chain == "" {
		chain = inferChain(address)
	}

	kind := collector.SymbolToken
	host := strings.ToLower(u.Hostname())
	for _, h := range poolHosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			kind = collector.SymbolPool
			break
		}
	}
	return Target{Chain: chain, NetworkID: Networks[chain], Address: address, Kind: kind}
}

func looksLikeURL(s string) bool {
	if strings.Contains(s, "://") {
		return true
	}
	host, _, _ := strings.Cut(s, "/")
	return strings.Contains(host, ".") && !strings.ContainsAny(host, " \t")
}

func normalizeChain(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	if _, ok := Networks[s]; ok {
		return s
	}
	return chainAliases[s]
}

func isAddress(s string) bool {
	return evmAddress.MatchString(s) || base58Address.MatchString(s)
}

func inferChain(address string) string {
	if evmAddress.MatchString(address) {
		return ChainEthereum
	}
	return ChainSolana
}

// shortAddress renders an address as "abcd…wxyz" for display.
func shortAddress(address string) string {
	if len(address) <= 10 {
		return address
	}
	return address[:4] + "…" + address[len(address)-4:]
}
