package amm

import (
	"math/big"
	"testing"

	"liquidityQuoter/internal/amount"
)

var (
	usdc = Asset{ID: "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", Decimals: 6, Symbol: "USDC"}
	weth = Asset{ID: "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2", Decimals: 18, Symbol: "WETH"}
	dai  = Asset{ID: "0x6b175474e89094c44da98b954eedeac495271d0f", Decimals: 18, Symbol: "DAI"}
	wbtc = Asset{ID: "0x2260fac5e5542a773aa44fbcfedf7c193bc2c599", Decimals: 8, Symbol: "WBTC"}
	link = Asset{ID: "0x514910771af9ca656af840dff83e8264ecf986ca", Decimals: 18, Symbol: "LINK"}
)

func raw(t testing.TB, s string, decimals uint8) amount.Amount {
	t.Helper()
	a, err := amount.ParseRaw(s, decimals)
	if err != nil {
		t.Fatalf("parse raw %q: %v", s, err)
	}
	return a
}

func mustPool(t testing.TB, a, b Asset, reserveA, reserveB, shares string, feeBps uint32) Pool {
	t.Helper()
	p, err := NewPool(a, b, raw(t, reserveA, a.Decimals), raw(t, reserveB, b.Decimals), raw(t, shares, 18), feeBps)
	if err != nil {
		t.Fatalf("new pool %s/%s: %v", a.Symbol, b.Symbol, err)
	}
	return p
}

func mustPoolSet(t testing.TB, pools ...Pool) *PoolSet {
	t.Helper()
	set, err := NewPoolSet(pools...)
	if err != nil {
		t.Fatalf("new pool set: %v", err)
	}
	return set
}

// wethUSDC holds 1000 WETH against 2,000,000 USDC.
func wethUSDC(t testing.TB) Pool {
	return mustPool(t, weth, usdc, "1000000000000000000000", "2000000000000", "44721359549995793", 30)
}

func bigInt(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad int " + s)
	}
	return v
}
