package amm

import (
	"errors"
	"testing"

	"liquidityQuoter/internal/amount"
)

var (
	tokenA = Asset{ID: "token-a", Decimals: 0, Symbol: "A"}
	tokenB = Asset{ID: "token-b", Decimals: 0, Symbol: "B"}
)

func depositPool(t *testing.T) Pool {
	t.Helper()
	p, err := NewPool(tokenA, tokenB, amount.FromUint64(100_000, 0), amount.FromUint64(50_000, 0), amount.FromUint64(70_710, 0), 30)
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	return p
}

func TestQuoteDeposit(t *testing.T) {
	l := NewLiquidity(nil)
	q, err := l.QuoteDeposit(depositPool(t), tokenA, amount.FromUint64(1_000, 0))
	if err != nil {
		t.Fatalf("quote deposit: %v", err)
	}
	if q.AmountB.RawString() != "500" {
		t.Fatalf("amountB = %s, want 500", q.AmountB.RawString())
	}
	if q.SharesMinted.RawString() != "707" {
		t.Fatalf("shares = %s, want 707", q.SharesMinted.RawString())
	}
	if !q.LockedShares.IsZero() {
		t.Fatalf("locked shares = %s", q.LockedShares.RawString())
	}

	// Depositing the other side pairs against reserveA.
	q, err = l.QuoteDeposit(depositPool(t), tokenB, amount.FromUint64(500, 0))
	if err != nil {
		t.Fatalf("quote deposit B: %v", err)
	}
	if !q.AssetA.Equal(tokenB) || q.AmountB.RawString() != "1000" || q.SharesMinted.RawString() != "707" {
		t.Fatalf("unexpected quote %+v", q)
	}
}

func TestQuoteDepositErrors(t *testing.T) {
	l := NewLiquidity(nil)
	p := depositPool(t)
	empty, _ := NewPool(tokenA, tokenB, amount.Zero(0), amount.Zero(0), amount.Zero(0), 30)

	if _, err := l.QuoteDeposit(p, tokenA, amount.Zero(0)); !errors.Is(err, ErrZeroInput) {
		t.Fatalf("expected ErrZeroInput, got %v", err)
	}
	// 1 A pairs with floor(0.5) = 0 B.
	if _, err := l.QuoteDeposit(p, tokenA, amount.FromUint64(1, 0)); !errors.Is(err, ErrInsufficientAmount) {
		t.Fatalf("expected ErrInsufficientAmount, got %v", err)
	}
	if _, err := l.QuoteDeposit(empty, tokenA, amount.FromUint64(1, 0)); !errors.Is(err, ErrZeroReserves) {
		t.Fatalf("expected ErrZeroReserves, got %v", err)
	}
	if _, err := l.QuoteDeposit(p, usdc, amount.FromUint64(1, 6)); !errors.Is(err, ErrUnknownAsset) {
		t.Fatalf("expected ErrUnknownAsset, got %v", err)
	}
}

func TestQuoteInitialDeposit(t *testing.T) {
	l := NewLiquidity(GeometricMean{MinimumLiquidity: DefaultMinimumLiquidity})
	empty := mustPool(t, weth, usdc, "0", "0", "0", 30)

	q, err := l.QuoteInitialDeposit(empty, usdc, raw(t, "2000000000000", 6), raw(t, "1000000000000000000000", 18))
	if err != nil {
		t.Fatalf("initial deposit: %v", err)
	}
	if q.SharesMinted.RawString() != "44721359549994793" {
		t.Fatalf("shares = %s", q.SharesMinted.RawString())
	}
	if q.LockedShares.RawString() != "1000" || q.SharesMinted.Decimals() != 18 {
		t.Fatalf("locked = %s (dec %d)", q.LockedShares.RawString(), q.SharesMinted.Decimals())
	}

	if _, err := l.QuoteInitialDeposit(empty, usdc, amount.FromUint64(1000, 6), amount.FromUint64(1000, 18)); !errors.Is(err, ErrInsufficientAmount) {
		t.Fatalf("expected ErrInsufficientAmount for sqrt == minimum, got %v", err)
	}
	if _, err := l.QuoteInitialDeposit(wethUSDC(t), usdc, amount.FromUint64(1, 6), amount.FromUint64(1, 18)); !errors.Is(err, ErrInvalidPool) {
		t.Fatalf("expected ErrInvalidPool on funded pool, got %v", err)
	}
}

type fixedShares uint64

func (f fixedShares) InitialShares(_, _ amount.Amount, decimals uint8) (amount.Amount, amount.Amount, error) {
	return amount.FromUint64(uint64(f), decimals), amount.Zero(decimals), nil
}

func TestInitialSharesPolicyIsInjected(t *testing.T) {
	l := NewLiquidity(fixedShares(42))
	empty, _ := NewPool(tokenA, tokenB, amount.Zero(0), amount.Zero(0), amount.Zero(0), 30)

	q, err := l.QuoteInitialDeposit(empty, tokenA, amount.FromUint64(10, 0), amount.FromUint64(10, 0))
	if err != nil {
		t.Fatalf("initial deposit: %v", err)
	}
	if q.SharesMinted.RawString() != "42" {
		t.Fatalf("shares = %s", q.SharesMinted.RawString())
	}
}

func TestQuoteOptimalDeposit(t *testing.T) {
	l := NewLiquidity(nil)
	p := depositPool(t)

	q, err := l.QuoteOptimalDeposit(p, tokenA, amount.FromUint64(1_000, 0), amount.FromUint64(600, 0))
	if err != nil {
		t.Fatalf("optimal deposit: %v", err)
	}
	if q.AmountA.RawString() != "1000" || q.AmountB.RawString() != "500" {
		t.Fatalf("first branch = %s/%s", q.AmountA.RawString(), q.AmountB.RawString())
	}

	q, err = l.QuoteOptimalDeposit(p, tokenA, amount.FromUint64(1_000, 0), amount.FromUint64(400, 0))
	if err != nil {
		t.Fatalf("optimal deposit: %v", err)
	}
	if !q.AssetA.Equal(tokenA) || q.AmountA.RawString() != "800" || q.AmountB.RawString() != "400" {
		t.Fatalf("second branch = %s %s/%s", q.AssetA.Symbol, q.AmountA.RawString(), q.AmountB.RawString())
	}
	if q.SharesMinted.RawString() != "565" {
		t.Fatalf("shares = %s", q.SharesMinted.RawString())
	}
}

func TestQuoteWithdraw(t *testing.T) {
	l := NewLiquidity(nil)
	p := wethUSDC(t)

	q, err := l.QuoteWithdraw(p, raw(t, "1000000000000000", 18))
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if q.Amount0.RawString() != "44721359549" || q.Amount1.RawString() != "22360679774997897428" {
		t.Fatalf("withdraw = %s/%s", q.Amount0.RawString(), q.Amount1.RawString())
	}

	all, err := l.QuoteWithdraw(p, p.TotalShares)
	if err != nil {
		t.Fatalf("withdraw all: %v", err)
	}
	if !all.Amount0.Equal(p.Reserve0) || !all.Amount1.Equal(p.Reserve1) {
		t.Fatalf("burning all shares should release all reserves")
	}

	tooMany, _ := p.TotalShares.Add(amount.FromUint64(1, 18))
	for _, shares := range []amount.Amount{amount.Zero(18), tooMany} {
		if _, err := l.QuoteWithdraw(p, shares); !errors.Is(err, ErrInsufficientShares) {
			t.Fatalf("shares %s: expected ErrInsufficientShares, got %v", shares.RawString(), err)
		}
	}
}
