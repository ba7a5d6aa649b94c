package amm

import (
	"fmt"

	"liquidityQuoter/internal/amount"
)

const (
	suggestedToleranceBuffer = 30
	minSuggestedTolerance    = 50
	maxSuggestedTolerance    = 300
)

// MinimumOutput returns floor(amountOut * (10000 - t) / 10000).
func MinimumOutput(amountOut amount.Amount, toleranceBps uint32) (amount.Amount, error) {
	if err := checkTolerance(toleranceBps); err != nil {
		return amount.Amount{}, err
	}
	return amountOut.MulRatioUint64(uint64(BpsDenominator-toleranceBps), BpsDenominator, amount.Floor)
}

// MaximumInput returns ceil(amountIn * (10000 + t) / 10000).
func MaximumInput(amountIn amount.Amount, toleranceBps uint32) (amount.Amount, error) {
	if err := checkTolerance(toleranceBps); err != nil {
		return amount.Amount{}, err
	}
	return amountIn.MulRatioUint64(uint64(BpsDenominator+toleranceBps), BpsDenominator, amount.Ceil)
}

// SuggestTolerance returns clamp(impact + 30, 50, 300).
func SuggestTolerance(impactBps uint32) uint32 {
	if impactBps >= maxSuggestedTolerance-suggestedToleranceBuffer {
		return maxSuggestedTolerance
	}
	t := impactBps + suggestedToleranceBuffer
	if t < minSuggestedTolerance {
		return minSuggestedTolerance
	}
	return t
}

func checkTolerance(toleranceBps uint32) error {
	if toleranceBps >= BpsDenominator {
		return fmt.Errorf("%w: %d bps", ErrInvalidTolerance, toleranceBps)
	}
	return nil
}

// SwapBounds are the submission limits for a swap quote.
type SwapBounds struct {
	ToleranceBps  uint32
	MinimumOutput amount.Amount
	MaximumInput  amount.Amount
}

// DepositBounds bracket both legs of a deposit.
type DepositBounds struct {
	ToleranceBps uint32
	MinAmountA   amount.Amount
	MinAmountB   amount.Amount
	MaxAmountA   amount.Amount
	MaxAmountB   amount.Amount
}

// WithdrawBounds are the minimum reserves a withdrawal must release.
type WithdrawBounds struct {
	ToleranceBps uint32
	MinAmount0   amount.Amount
	MinAmount1   amount.Amount
}

// Guard derives slippage bounds from quotes under a fixed Config.
type Guard struct {
	cfg Config
}

func NewGuard(cfg Config) (*Guard, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Guard{cfg: cfg}, nil
}

// Tolerance picks explicit when set, else the impact-based suggestion when
// AutoTolerance is on, else the configured default.
func (g *Guard) Tolerance(impactBps uint32, explicit *uint32) uint32 {
	switch {
	case explicit != nil:
		return *explicit
	case g.cfg.AutoTolerance:
		return SuggestTolerance(impactBps)
	}
	return g.cfg.DefaultToleranceBps
}

func (g *Guard) SwapBounds(q Quote, explicit *uint32) (SwapBounds, error) {
	t := g.Tolerance(q.PriceImpactBps, explicit)
	minOut, err := MinimumOutput(q.AmountOut, t)
	if err != nil {
		return SwapBounds{}, err
	}
	maxIn, err := MaximumInput(q.AmountIn, t)
	if err != nil {
		return SwapBounds{}, err
	}
	return SwapBounds{ToleranceBps: t, MinimumOutput: minOut, MaximumInput: maxIn}, nil
}

func (g *Guard) DepositBounds(q DepositQuote, explicit *uint32) (DepositBounds, error) {
	t := g.resolveFlat(explicit)
	b := DepositBounds{ToleranceBps: t}
	var err error
	if b.MinAmountA, err = MinimumOutput(q.AmountA, t); err != nil {
		return DepositBounds{}, err
	}
	if b.MinAmountB, err = MinimumOutput(q.AmountB, t); err != nil {
		return DepositBounds{}, err
	}
	if b.MaxAmountA, err = MaximumInput(q.AmountA, t); err != nil {
		return DepositBounds{}, err
	}
	if b.MaxAmountB, err = MaximumInput(q.AmountB, t); err != nil {
		return DepositBounds{}, err
	}
	return b, nil
}

func (g *Guard) WithdrawBounds(q WithdrawQuote, explicit *uint32) (WithdrawBounds, error) {
	t := g.resolveFlat(explicit)
	min0, err := MinimumOutput(q.Amount0, t)
	if err != nil {
		return WithdrawBounds{}, err
	}
	min1, err := MinimumOutput(q.Amount1, t)
	if err != nil {
		return WithdrawBounds{}, err
	}
	return WithdrawBounds{ToleranceBps: t, MinAmount0: min0, MinAmount1: min1}, nil
}

// resolveFlat ignores AutoTolerance; liquidity operations carry no price impact.
func (g *Guard) resolveFlat(explicit *uint32) uint32 {
	if explicit != nil {
		return *explicit
	}
	return g.cfg.DefaultToleranceBps
}
