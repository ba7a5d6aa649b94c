package amm

import (
	"fmt"
	"math/big"

	"liquidityQuoter/internal/amount"
)

// DefaultMinimumLiquidity is the share amount Uniswap V2 locks on the first mint.
const DefaultMinimumLiquidity = 1000

// InitialSharesPolicy decides how many shares the first deposit into an empty
// pool mints. Ledgers differ here, so it is injected rather than fixed.
type InitialSharesPolicy interface {
	InitialShares(amountA, amountB amount.Amount, shareDecimals uint8) (minted, locked amount.Amount, err error)
}

// GeometricMean mints floor(sqrt(amountA*amountB)) shares and locks
// MinimumLiquidity of them.
type GeometricMean struct {
	MinimumLiquidity uint64
}

func (g GeometricMean) InitialShares(amountA, amountB amount.Amount, shareDecimals uint8) (amount.Amount, amount.Amount, error) {
	root := new(big.Int).Mul(amountA.Big(), amountB.Big())
	root.Sqrt(root)

	locked := new(big.Int).SetUint64(g.MinimumLiquidity)
	if root.Cmp(locked) <= 0 {
		return amount.Amount{}, amount.Amount{}, fmt.Errorf("%w: sqrt(%s*%s) = %s does not exceed locked %d",
			ErrInsufficientAmount, amountA.RawString(), amountB.RawString(), root, g.MinimumLiquidity)
	}

	minted, err := amount.FromRaw(root.Sub(root, locked), shareDecimals)
	if err != nil {
		return amount.Amount{}, amount.Amount{}, err
	}
	return minted, amount.FromUint64(g.MinimumLiquidity, shareDecimals), nil
}

// DepositQuote is the preview of adding liquidity. AssetA is the asset whose
// amount was taken as given.
type DepositQuote struct {
	AssetA       Asset
	AssetB       Asset
	AmountA      amount.Amount
	AmountB      amount.Amount
	SharesMinted amount.Amount
	// LockedShares is non-zero only on an initial deposit.
	LockedShares amount.Amount
}

// WithdrawQuote is the preview of burning shares, in canonical asset order.
type WithdrawQuote struct {
	Asset0       Asset
	Asset1       Asset
	Amount0      amount.Amount
	Amount1      amount.Amount
	SharesBurned amount.Amount
}

// Liquidity computes deposit and withdrawal previews. It holds only the
// initial share policy and is safe for concurrent use.
type Liquidity struct {
	policy InitialSharesPolicy
}

// NewLiquidity returns a Liquidity using policy, or GeometricMean with the
// Uniswap V2 minimum when policy is nil.
func NewLiquidity(policy InitialSharesPolicy) *Liquidity {
	if policy == nil {
		policy = GeometricMean{MinimumLiquidity: DefaultMinimumLiquidity}
	}
	return &Liquidity{policy: policy}
}

// QuoteDeposit pairs amountIn of assetIn against a non-empty pool:
//
//	amountB = floor(amountA * reserveB / reserveA)
//	shares  = floor(amountA * totalShares / reserveA)
func (l *Liquidity) QuoteDeposit(p Pool, assetIn Asset, amountIn amount.Amount) (DepositQuote, error) {
	assetB, err := p.Other(assetIn)
	if err != nil {
		return DepositQuote{}, err
	}
	if amountIn.Decimals() != assetIn.Decimals {
		return DepositQuote{}, fmt.Errorf("%w: deposit has %d decimals, %s has %d",
			ErrScaleMismatch, amountIn.Decimals(), assetIn.Label(), assetIn.Decimals)
	}
	if amountIn.IsZero() {
		return DepositQuote{}, ErrZeroInput
	}
	if p.IsEmpty() {
		return DepositQuote{}, fmt.Errorf("%w: %s needs an initial deposit of both assets", ErrZeroReserves, p.Key())
	}
	reserveA, reserveB, err := p.directed(assetIn, assetB)
	if err != nil {
		return DepositQuote{}, err
	}

	amountB, err := reserveB.MulRatio(amountIn, reserveA, amount.Floor)
	if err != nil {
		return DepositQuote{}, err
	}
	shares, err := p.TotalShares.MulRatio(amountIn, reserveA, amount.Floor)
	if err != nil {
		return DepositQuote{}, err
	}
	if amountB.IsZero() || shares.IsZero() {
		return DepositQuote{}, fmt.Errorf("%w: %s %s is below the pool's resolution", ErrInsufficientAmount,
			amountIn.String(), assetIn.Label())
	}

	return DepositQuote{
		AssetA:       assetIn,
		AssetB:       assetB,
		AmountA:      amountIn,
		AmountB:      amountB,
		SharesMinted: shares,
		LockedShares: amount.Zero(p.TotalShares.Decimals()),
	}, nil
}

// QuoteInitialDeposit seeds an empty pool with both amounts as given.
func (l *Liquidity) QuoteInitialDeposit(p Pool, assetA Asset, amountA, amountB amount.Amount) (DepositQuote, error) {
	assetB, err := p.Other(assetA)
	if err != nil {
		return DepositQuote{}, err
	}
	if !p.IsEmpty() {
		return DepositQuote{}, fmt.Errorf("%w: %s already holds liquidity", ErrInvalidPool, p.Key())
	}
	if amountA.Decimals() != assetA.Decimals || amountB.Decimals() != assetB.Decimals {
		return DepositQuote{}, fmt.Errorf("%w: deposit scale does not match asset decimals", ErrScaleMismatch)
	}
	if amountA.IsZero() || amountB.IsZero() {
		return DepositQuote{}, ErrZeroInput
	}

	minted, locked, err := l.policy.InitialShares(amountA, amountB, p.TotalShares.Decimals())
	if err != nil {
		return DepositQuote{}, err
	}
	if minted.IsZero() {
		return DepositQuote{}, fmt.Errorf("%w: initial deposit mints no shares", ErrInsufficientAmount)
	}

	return DepositQuote{
		AssetA:       assetA,
		AssetB:       assetB,
		AmountA:      amountA,
		AmountB:      amountB,
		SharesMinted: minted,
		LockedShares: locked,
	}, nil
}

// QuoteOptimalDeposit mirrors a router's addLiquidity: it uses desiredA and
// its paired amount when that fits within desiredB, otherwise desiredB and its
// paired amount of assetA. On an empty pool both are taken as given.
func (l *Liquidity) QuoteOptimalDeposit(p Pool, assetA Asset, desiredA, desiredB amount.Amount) (DepositQuote, error) {
	if p.IsEmpty() {
		return l.QuoteInitialDeposit(p, assetA, desiredA, desiredB)
	}

	fromA, err := l.QuoteDeposit(p, assetA, desiredA)
	if err != nil {
		return DepositQuote{}, err
	}
	if fromA.AmountB.Cmp(desiredB) <= 0 {
		return fromA, nil
	}

	fromB, err := l.QuoteDeposit(p, fromA.AssetB, desiredB)
	if err != nil {
		return DepositQuote{}, err
	}
	if fromB.AmountB.Cmp(desiredA) > 0 {
		return DepositQuote{}, fmt.Errorf("%w: no pairing fits %s and %s", ErrInsufficientAmount,
			desiredA.String(), desiredB.String())
	}
	return DepositQuote{
		AssetA:       fromB.AssetB,
		AssetB:       fromB.AssetA,
		AmountA:      fromB.AmountB,
		AmountB:      fromB.AmountA,
		SharesMinted: fromB.SharesMinted,
		LockedShares: fromB.LockedShares,
	}, nil
}

// QuoteWithdraw returns the reserves released by burning shares:
//
//	amountX = floor(shares * reserveX / totalShares)
func (l *Liquidity) QuoteWithdraw(p Pool, shares amount.Amount) (WithdrawQuote, error) {
	if !shares.SameScale(p.TotalShares) {
		return WithdrawQuote{}, fmt.Errorf("%w: shares have %d decimals, pool uses %d",
			ErrScaleMismatch, shares.Decimals(), p.TotalShares.Decimals())
	}
	if shares.IsZero() || shares.Cmp(p.TotalShares) > 0 {
		return WithdrawQuote{}, fmt.Errorf("%w: burning %s of %s", ErrInsufficientShares,
			shares.RawString(), p.TotalShares.RawString())
	}

	amount0, err := p.Reserve0.MulRatio(shares, p.TotalShares, amount.Floor)
	if err != nil {
		return WithdrawQuote{}, err
	}
	amount1, err := p.Reserve1.MulRatio(shares, p.TotalShares, amount.Floor)
	if err != nil {
		return WithdrawQuote{}, err
	}
	if amount0.IsZero() || amount1.IsZero() {
		return WithdrawQuote{}, fmt.Errorf("%w: burning %s shares releases nothing", ErrInsufficientAmount,
			shares.RawString())
	}

	return WithdrawQuote{
		Asset0:       p.Asset0,
		Asset1:       p.Asset1,
		Amount0:      amount0,
		Amount1:      amount1,
		SharesBurned: shares,
	}, nil
}
