package amm

import (
	"fmt"
	"math/big"

	"liquidityQuoter/internal/amount"
)

// BpsDenominator is the basis point scale used for fees and tolerances.
const BpsDenominator = 10_000

// Pool is a snapshot of a two-asset constant-product pool. Asset0 is always
// the canonically smaller asset. Pool values are never mutated by this package.
type Pool struct {
	Address     string
	Asset0      Asset
	Asset1      Asset
	Reserve0    amount.Amount
	Reserve1    amount.Amount
	TotalShares amount.Amount
	FeeBps      uint32
}

// NewPool sorts the assets canonically and validates the snapshot.
func NewPool(a, b Asset, reserveA, reserveB, totalShares amount.Amount, feeBps uint32) (Pool, error) {
	if a.Equal(b) {
		return Pool{}, fmt.Errorf("%w: %s", ErrSameAsset, a.ID)
	}
	if reserveA.Decimals() != a.Decimals || reserveB.Decimals() != b.Decimals {
		return Pool{}, fmt.Errorf("%w: reserve scale does not match asset decimals", ErrScaleMismatch)
	}
	if feeBps >= BpsDenominator {
		return Pool{}, fmt.Errorf("%w: %d bps", ErrInvalidFee, feeBps)
	}

	emptyA, emptyB, emptyS := reserveA.IsZero(), reserveB.IsZero(), totalShares.IsZero()
	if emptyA != emptyB || emptyA != emptyS {
		return Pool{}, fmt.Errorf("%w: reserves %s/%s with %s shares", ErrInvalidPool,
			reserveA.RawString(), reserveB.RawString(), totalShares.RawString())
	}

	if b.Less(a) {
		a, b = b, a
		reserveA, reserveB = reserveB, reserveA
	}
	return Pool{
		Asset0:      a,
		Asset1:      b,
		Reserve0:    reserveA,
		Reserve1:    reserveB,
		TotalShares: totalShares,
		FeeBps:      feeBps,
	}, nil
}

// PairKey returns the canonical key for an unordered asset pair.
func PairKey(a, b Asset) string {
	if b.Less(a) {
		a, b = b, a
	}
	return a.ID + "/" + b.ID
}

func (p Pool) Key() string { return PairKey(p.Asset0, p.Asset1) }

func (p Pool) Contains(asset Asset) bool {
	return p.Asset0.Equal(asset) || p.Asset1.Equal(asset)
}

// Other returns the counterpart of asset.
func (p Pool) Other(asset Asset) (Asset, error) {
	switch {
	case p.Asset0.Equal(asset):
		return p.Asset1, nil
	case p.Asset1.Equal(asset):
		return p.Asset0, nil
	}
	return Asset{}, fmt.Errorf("%w: %s in %s", ErrUnknownAsset, asset.ID, p.Key())
}

// ReserveOf returns the reserve held for asset.
func (p Pool) ReserveOf(asset Asset) (amount.Amount, error) {
	switch {
	case p.Asset0.Equal(asset):
		return p.Reserve0, nil
	case p.Asset1.Equal(asset):
		return p.Reserve1, nil
	}
	return amount.Amount{}, fmt.Errorf("%w: %s in %s", ErrUnknownAsset, asset.ID, p.Key())
}

// IsEmpty reports whether the pool has never received liquidity.
func (p Pool) IsEmpty() bool { return p.TotalShares.IsZero() }

// Invariant returns reserve0*reserve1.
func (p Pool) Invariant() *big.Int {
	return new(big.Int).Mul(p.Reserve0.Big(), p.Reserve1.Big())
}

// PriceOf returns reserveOut/reserveIn in raw base units, without fee.
func (p Pool) PriceOf(assetIn, assetOut Asset) (*big.Rat, error) {
	reserveIn, reserveOut, err := p.directed(assetIn, assetOut)
	if err != nil {
		return nil, err
	}
	if reserveIn.IsZero() || reserveOut.IsZero() {
		return nil, fmt.Errorf("%w: %s", ErrZeroReserves, p.Key())
	}
	return new(big.Rat).SetFrac(reserveOut.Big(), reserveIn.Big()), nil
}

// WithReserves returns a copy of p with the given reserves in canonical order.
func (p Pool) WithReserves(reserve0, reserve1, totalShares amount.Amount) (Pool, error) {
	next, err := NewPool(p.Asset0, p.Asset1, reserve0, reserve1, totalShares, p.FeeBps)
	if err != nil {
		return Pool{}, err
	}
	next.Address = p.Address
	return next, nil
}

// directed returns (reserveIn, reserveOut) for a swap from assetIn to assetOut.
func (p Pool) directed(assetIn, assetOut Asset) (amount.Amount, amount.Amount, error) {
	if assetIn.Equal(assetOut) {
		return amount.Amount{}, amount.Amount{}, fmt.Errorf("%w: %s", ErrSameAsset, assetIn.ID)
	}
	reserveIn, err := p.ReserveOf(assetIn)
	if err != nil {
		return amount.Amount{}, amount.Amount{}, err
	}
	reserveOut, err := p.ReserveOf(assetOut)
	if err != nil {
		return amount.Amount{}, amount.Amount{}, err
	}
	return reserveIn, reserveOut, nil
}

func (p Pool) String() string {
	return fmt.Sprintf("%s/%s(%s:%s fee=%dbps)", p.Asset0.Label(), p.Asset1.Label(),
		p.Reserve0.RawString(), p.Reserve1.RawString(), p.FeeBps)
}
