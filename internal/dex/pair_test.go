package dex

import (
	"context"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// fakeCaller answers eth_call by contract address and method selector.
type fakeCaller struct {
	responses map[string][]byte
	calls     int
}

func newFakeCaller() *fakeCaller {
	return &fakeCaller{responses: make(map[string][]byte)}
}

func (f *fakeCaller) set(t *testing.T, to common.Address, parsed abi.ABI, method string, outputs ...interface{}) {
	t.Helper()
	m, ok := parsed.Methods[method]
	if !ok {
		t.Fatalf("unknown method %s", method)
	}
	data, err := m.Outputs.Pack(outputs...)
	if err != nil {
		t.Fatalf("pack %s outputs: %v", method, err)
	}
	f.responses[key(to, m.ID)] = data
}

func (f *fakeCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.calls++
	resp, ok := f.responses[key(*msg.To, msg.Data[:4])]
	if !ok {
		return nil, fmt.Errorf("execution reverted")
	}
	return resp, nil
}

func key(to common.Address, selector []byte) string {
	return to.Hex() + common.Bytes2Hex(selector[:4])
}

var (
	pairAddr = common.HexToAddress("0xB4e16d0168e52d35CaCD2c6185b44281Ec28C9Dc")
	usdcAddr = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	wethAddr = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
)

func TestFetchPair(t *testing.T) {
	pairABI, err := V2PairABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	caller := newFakeCaller()
	reserve0, _ := new(big.Int).SetString("41523198106791", 10)
	reserve1, _ := new(big.Int).SetString("17060765295122793561540", 10)
	supply, _ := new(big.Int).SetString("585416748437862379", 10)
	caller.set(t, pairAddr, pairABI, "token0", usdcAddr)
	caller.set(t, pairAddr, pairABI, "token1", wethAddr)
	caller.set(t, pairAddr, pairABI, "getReserves", reserve0, reserve1, uint32(1700000000))
	caller.set(t, pairAddr, pairABI, "totalSupply", supply)

	state, err := FetchPair(context.Background(), caller, pairAddr, nil)
	if err != nil {
		t.Fatalf("fetch pair: %v", err)
	}

	record := state.Record()
	if record.Address != "0xb4e16d0168e52d35cacd2c6185b44281ec28c9dc" {
		t.Fatalf("address = %s", record.Address)
	}
	if record.Token0 != "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48" || record.Token1 != "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2" {
		t.Fatalf("tokens = %s/%s", record.Token0, record.Token1)
	}
	if record.Reserve0 != "41523198106791" || record.Reserve1 != "17060765295122793561540" {
		t.Fatalf("reserves = %s/%s", record.Reserve0, record.Reserve1)
	}
	if record.TotalSupply != "585416748437862379" || record.BlockTimestampLast != 1700000000 {
		t.Fatalf("supply = %s ts = %d", record.TotalSupply, record.BlockTimestampLast)
	}
	if record.FeeBps != nil {
		t.Fatalf("fee should be left to the consumer")
	}
}

func TestFetchPairMissingMethod(t *testing.T) {
	pairABI, err := V2PairABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	caller := newFakeCaller()
	caller.set(t, pairAddr, pairABI, "token0", usdcAddr)

	if _, err := FetchPair(context.Background(), caller, pairAddr, nil); err == nil {
		t.Fatalf("expected error when token1 reverts")
	}
}

func TestDiscoverPairs(t *testing.T) {
	factoryABI, err := V2FactoryABI()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	factory := common.HexToAddress("0x5C69bEe701ef814a2B6a3EDD4B1652CB9cc5aA6f")
	dai := common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")

	// Only usdc/weth has a pair; the other combinations return the zero address.
	caller := &selectiveFactory{pairs: map[[2]common.Address]common.Address{
		{usdcAddr, wethAddr}: pairAddr,
	}, abi: factoryABI}

	pairs, err := DiscoverPairs(context.Background(), caller, factory, []common.Address{usdcAddr, wethAddr, dai})
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(pairs) != 1 || pairs[0] != pairAddr {
		t.Fatalf("pairs = %v", pairs)
	}
	if caller.calls != 3 {
		t.Fatalf("calls = %d, want 3", caller.calls)
	}
}

// selectiveFactory decodes getPair arguments and answers from a map.
type selectiveFactory struct {
	pairs map[[2]common.Address]common.Address
	abi   abi.ABI
	calls int
}

func (s *selectiveFactory) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	s.calls++
	m := s.abi.Methods["getPair"]
	args, err := m.Inputs.Unpack(msg.Data[4:])
	if err != nil {
		return nil, err
	}
	a, b := args[0].(common.Address), args[1].(common.Address)
	pair := s.pairs[[2]common.Address{a, b}]
	return m.Outputs.Pack(pair)
}

func TestFetchTokenMetaFallsBackToBytes32(t *testing.T) {
	stringABI, err := erc20ABIString.get()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}
	bytes32ABI, err := erc20ABIBytes32.get()
	if err != nil {
		t.Fatalf("abi parse: %v", err)
	}

	mkr := common.HexToAddress("0x9f8F72aA9304c8B593d555F12eF6589cC3A579A2")
	var symbol [32]byte
	copy(symbol[:], "MKR")

	caller := newFakeCaller()
	caller.set(t, mkr, stringABI, "decimals", uint8(18))
	// symbol and name share selectors across both ABIs; the string decode of a
	// bytes32 payload fails, so the bytes32 ABI is tried next.
	caller.set(t, mkr, bytes32ABI, "symbol", symbol)
	caller.set(t, mkr, bytes32ABI, "name", [32]byte{})

	cache, err := NewTokenMetaCache(8)
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	meta, err := cache.TokenMeta(context.Background(), caller, mkr, zap.NewNop())
	if err != nil {
		t.Fatalf("token meta: %v", err)
	}
	if meta.Decimals != 18 || meta.Symbol != "MKR" || meta.Address != "0x9f8f72aa9304c8b593d555f12ef6589cc3a579a2" {
		t.Fatalf("meta = %+v", meta)
	}

	calls := caller.calls
	if _, err := cache.TokenMeta(context.Background(), caller, mkr, zap.NewNop()); err != nil {
		t.Fatalf("cached token meta: %v", err)
	}
	if caller.calls != calls {
		t.Fatalf("cache miss: %d calls after %d", caller.calls, calls)
	}
	if cache.Len() != 1 {
		t.Fatalf("cache len = %d", cache.Len())
	}
}
