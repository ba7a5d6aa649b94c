package amm

import (
	"fmt"
	"math/big"

	"liquidityQuoter/internal/amount"
)

var (
	ratZero = new(big.Rat)
	ratOne  = big.NewRat(1, 1)
	ratBps  = big.NewRat(BpsDenominator, 1)
)

// EstimatePriceImpact quotes amountIn through p and returns the impact in bps:
//
//	marginal  = reserveOut / reserveIn
//	effective = amountOut / (amountIn * (10000 - fee) / 10000)
//	impact    = max(0, 1 - effective/marginal)
func EstimatePriceImpact(p Pool, assetIn Asset, amountIn amount.Amount) (uint32, error) {
	out, err := QuoteExactInput(p, assetIn, amountIn)
	if err != nil {
		return 0, err
	}
	impact, err := priceImpact(p, assetIn, amountIn, out)
	if err != nil {
		return 0, err
	}
	return ImpactBps(impact), nil
}

// priceImpact evaluates the impact of an already quoted trade exactly.
func priceImpact(p Pool, assetIn Asset, in, out amount.Amount) (*big.Rat, error) {
	assetOut, err := p.Other(assetIn)
	if err != nil {
		return nil, err
	}
	reserveIn, reserveOut, err := p.directed(assetIn, assetOut)
	if err != nil {
		return nil, err
	}
	if reserveIn.IsZero() || reserveOut.IsZero() {
		return nil, fmt.Errorf("%w: %s", ErrZeroReserves, p.Key())
	}
	if in.IsZero() {
		return nil, ErrZeroInput
	}

	// effective/marginal = out*10000*reserveIn / (in*(10000-fee)*reserveOut)
	num := new(big.Int).Mul(out.Big(), bigBps)
	num.Mul(num, reserveIn.Big())
	den := new(big.Int).Mul(in.Big(), feeMultiplier(p.FeeBps))
	den.Mul(den, reserveOut.Big())

	impact := new(big.Rat).Sub(ratOne, new(big.Rat).SetFrac(num, den))
	if impact.Sign() < 0 {
		return new(big.Rat), nil
	}
	return impact, nil
}

// ComposeImpact combines per-hop impacts as 1 - prod(1 - impact_i).
func ComposeImpact(impacts ...*big.Rat) *big.Rat {
	retained := new(big.Rat).Set(ratOne)
	for _, impact := range impacts {
		retained.Mul(retained, new(big.Rat).Sub(ratOne, impact))
	}
	composite := new(big.Rat).Sub(ratOne, retained)
	if composite.Cmp(ratZero) < 0 {
		return new(big.Rat)
	}
	return composite
}

// ImpactBps converts a fractional impact to whole basis points, flooring.
func ImpactBps(impact *big.Rat) uint32 {
	if impact == nil || impact.Sign() <= 0 {
		return 0
	}
	scaled := new(big.Rat).Mul(impact, ratBps)
	bps := new(big.Int).Quo(scaled.Num(), scaled.Denom())
	if bps.Cmp(big.NewInt(BpsDenominator)) > 0 {
		return BpsDenominator
	}
	return uint32(bps.Uint64())
}
