package resolver

import (
	"github.com/shopspring/decimal"

	"Recharted/internal/model"
)

// MarketCapBranch names how a market cap was derived, most reliable first.
type MarketCapBranch string

const (
	BranchFDV           MarketCapBranch = "fdv"
	BranchPriceXSupply  MarketCapBranch = "price-x-supply"
	BranchAssumedSupply MarketCapBranch = "assumed-supply"
	BranchNone          MarketCapBranch = "none"
)

// AssumedSupply is used when nothing better is known.
const AssumedSupply = 1_000_000_000

// marketCap derives market cap and token supply from price and an optional snapshot.
func marketCap(price float64, snap *model.PairSnapshot) (mc, supply float64, branch MarketCapBranch) {
	if price <= 0 {
		return 0, 0, BranchNone
	}
	p := decimal.NewFromFloat(price)
	if snap != nil && snap.FDV > 0 {
		fdv := decimal.NewFromFloat(snap.FDV)
		return snap.FDV, fdv.Div(p).InexactFloat64(), BranchFDV
	}
	if snap != nil && snap.MarketCap > 0 {
		ref := p
		if snap.PriceUSD > 0 {
			ref = decimal.NewFromFloat(snap.PriceUSD)
		}
		s := decimal.NewFromFloat(snap.MarketCap).Div(ref)
		return p.Mul(s).InexactFloat64(), s.InexactFloat64(), BranchPriceXSupply
	}
	s := decimal.NewFromInt(AssumedSupply)
	return p.Mul(s).InexactFloat64(), AssumedSupply, BranchAssumedSupply
}
