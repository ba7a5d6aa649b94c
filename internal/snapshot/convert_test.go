package snapshot

import (
	"errors"
	"testing"

	"liquidityQuoter/internal/amm"
	"liquidityQuoter/internal/model"
)

func testSnapshot() model.Snapshot {
	fee := uint32(25)
	return model.Snapshot{
		ChainID: 1,
		Assets: []model.TokenMeta{
			{Address: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", Decimals: 6, Symbol: "USDC"},
			{Address: "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2", Decimals: 18, Symbol: "WETH"},
			{Address: "0x6b175474e89094c44da98b954eedeac495271d0f", Decimals: 18, Symbol: "DAI"},
		},
		Pools: []model.Pool{
			{
				Address:     "0xB4e16d0168e52d35CaCD2c6185b44281Ec28C9Dc",
				Token0:      "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48",
				Token1:      "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2",
				Reserve0:    "2000000000000",
				Reserve1:    "1000000000000000000000",
				TotalSupply: "44721359549995793",
			},
			{
				Address:     "0xa478c2975ab1ea89e8196811f51a7b7ade33eb11",
				Token0:      "0x6b175474e89094c44da98b954eedeac495271d0f",
				Token1:      "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2",
				Reserve0:    "2000000000000000000000000",
				Reserve1:    "1000000000000000000000",
				TotalSupply: "44721359549995793928",
				FeeBps:      &fee,
			},
		},
	}
}

func TestPoolSetConvertsSnapshot(t *testing.T) {
	pools, err := PoolSet(testSnapshot(), 30, 18)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if pools.Len() != 2 {
		t.Fatalf("pools = %d", pools.Len())
	}

	usdc, ok := pools.Asset("0xA0B86991C6218B36C1D19D4A2E9EB0CE3606EB48")
	if !ok || usdc.Decimals != 6 {
		t.Fatalf("usdc = %+v ok=%v", usdc, ok)
	}
	weth, _ := pools.Asset("WETH")
	dai, _ := pools.Asset("DAI")

	p, ok := pools.Lookup(usdc, weth)
	if !ok {
		t.Fatalf("usdc/weth missing")
	}
	if p.FeeBps != 30 {
		t.Fatalf("default fee = %d", p.FeeBps)
	}
	if p.Address != "0xb4e16d0168e52d35cacd2c6185b44281ec28c9dc" {
		t.Fatalf("address = %s", p.Address)
	}
	if p.TotalShares.Decimals() != 18 {
		t.Fatalf("share decimals = %d", p.TotalShares.Decimals())
	}

	p, _ = pools.Lookup(dai, weth)
	if p.FeeBps != 25 {
		t.Fatalf("recorded fee = %d", p.FeeBps)
	}
}

func TestPoolSetRejectsBadRecords(t *testing.T) {
	snap := testSnapshot()
	snap.Pools[0].Token1 = "0x0000000000000000000000000000000000000001"
	if _, err := PoolSet(snap, 30, 18); !errors.Is(err, amm.ErrUnknownAsset) {
		t.Fatalf("err = %v, want ErrUnknownAsset", err)
	}

	snap = testSnapshot()
	snap.Pools[0].Reserve0 = "12.5"
	if _, err := PoolSet(snap, 30, 18); err == nil {
		t.Fatalf("expected error for fractional reserve")
	}

	snap = testSnapshot()
	snap.Pools[0].Reserve0 = "0"
	if _, err := PoolSet(snap, 30, 18); !errors.Is(err, amm.ErrInvalidPool) {
		t.Fatalf("err = %v, want ErrInvalidPool", err)
	}

	snap = testSnapshot()
	snap.Pools = append(snap.Pools, snap.Pools[0])
	if _, err := PoolSet(snap, 30, 18); !errors.Is(err, amm.ErrDuplicatePool) {
		t.Fatalf("err = %v, want ErrDuplicatePool", err)
	}
}

func TestParseAddresses(t *testing.T) {
	got, err := ParseAddresses([]string{" 0xB4e16d0168e52d35CaCD2c6185b44281Ec28C9Dc", "", "0xb4e16d0168e52d35cacd2c6185b44281ec28c9dc"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("addresses = %v", got)
	}
	if _, err := ParseAddresses([]string{"0x123"}); err == nil {
		t.Fatalf("expected error for short address")
	}

	none, err := ParseAddress("  ")
	if err != nil || none != nil {
		t.Fatalf("blank address = %v, %v", none, err)
	}
}
