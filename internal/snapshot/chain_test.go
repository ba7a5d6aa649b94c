package snapshot

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"liquidityQuoter/internal/dex"
	"liquidityQuoter/internal/model"
)

const erc20TestABI = `[
	{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"symbol","outputs":[{"name":"","type":"string"}],"type":"function"},
	{"constant":true,"inputs":[],"name":"name","outputs":[{"name":"","type":"string"}],"type":"function"}
]`

var (
	factoryAddr = common.HexToAddress("0x5C69bEe701ef814a2B6a3EDD4B1652CB9cc5aA6f")
	usdcWETH    = common.HexToAddress("0xB4e16d0168e52d35CaCD2c6185b44281Ec28C9Dc")
	daiWETH     = common.HexToAddress("0xA478c2975Ab1Ea89e8196811F51A7B7Ade33eB11")
	usdcAddr    = common.HexToAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48")
	wethAddr    = common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2")
	daiAddr     = common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F")
)

// fakeChain answers eth_call by contract address and full calldata.
type fakeChain struct {
	mu        sync.Mutex
	responses map[string][]byte
	calls     int

	chainID      int64
	block        uint64
	timestamp    uint64
	chainIDFails int
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		responses: make(map[string][]byte),
		chainID:   1,
		block:     19_000_000,
		timestamp: 1_700_000_000,
	}
}

func (f *fakeChain) set(t *testing.T, to common.Address, parsed abi.ABI, method string, args []interface{}, outputs ...interface{}) {
	t.Helper()
	input, err := parsed.Pack(method, args...)
	if err != nil {
		t.Fatalf("pack %s inputs: %v", method, err)
	}
	data, err := parsed.Methods[method].Outputs.Pack(outputs...)
	if err != nil {
		t.Fatalf("pack %s outputs: %v", method, err)
	}
	f.mu.Lock()
	f.responses[to.Hex()+common.Bytes2Hex(input)] = data
	f.mu.Unlock()
}

func (f *fakeChain) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	resp, ok := f.responses[msg.To.Hex()+common.Bytes2Hex(msg.Data)]
	if !ok {
		return nil, errors.New("execution reverted")
	}
	return resp, nil
}

func (f *fakeChain) GetChainID(context.Context) (*big.Int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.chainIDFails > 0 {
		f.chainIDFails--
		return nil, errors.New("connection reset")
	}
	return big.NewInt(f.chainID), nil
}

func (f *fakeChain) LatestBlockNumber(context.Context) (uint64, error) { return f.block, nil }

func (f *fakeChain) BlockTimestamp(context.Context, uint64) (uint64, error) { return f.timestamp, nil }

func (f *fakeChain) addToken(t *testing.T, token common.Address, decimals uint8, symbol string) {
	t.Helper()
	parsed, err := abi.JSON(strings.NewReader(erc20TestABI))
	if err != nil {
		t.Fatalf("erc20 abi: %v", err)
	}
	f.set(t, token, parsed, "decimals", nil, decimals)
	f.set(t, token, parsed, "symbol", nil, symbol)
	f.set(t, token, parsed, "name", nil, symbol+" token")
}

func (f *fakeChain) addPair(t *testing.T, pair, token0, token1 common.Address, reserve0, reserve1, supply string) {
	t.Helper()
	pairABI, err := dex.V2PairABI()
	if err != nil {
		t.Fatalf("pair abi: %v", err)
	}
	f.set(t, pair, pairABI, "token0", nil, token0)
	f.set(t, pair, pairABI, "token1", nil, token1)
	f.set(t, pair, pairABI, "getReserves", nil, bigInt(t, reserve0), bigInt(t, reserve1), uint32(f.timestamp))
	f.set(t, pair, pairABI, "totalSupply", nil, bigInt(t, supply))
}

// seedMainnet installs USDC/WETH and DAI/WETH pairs with their tokens.
func seedMainnet(t *testing.T) *fakeChain {
	t.Helper()
	f := newFakeChain()
	f.addToken(t, usdcAddr, 6, "USDC")
	f.addToken(t, wethAddr, 18, "WETH")
	f.addToken(t, daiAddr, 18, "DAI")
	f.addPair(t, usdcWETH, usdcAddr, wethAddr, "2000000000000", "1000000000000000000000", "44721359549995793")
	f.addPair(t, daiWETH, daiAddr, wethAddr, "2000000000000000000000000", "1000000000000000000000", "44721359549995793928")
	return f
}

func bigInt(t *testing.T, s string) *big.Int {
	t.Helper()
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		t.Fatalf("bad integer %q", s)
	}
	return v
}

// memorySink keeps saved snapshots and runs onSave after each one.
type memorySink struct {
	mu     sync.Mutex
	saved  []model.Snapshot
	onSave func(n int)
	err    error
}

func (m *memorySink) SaveSnapshot(_ context.Context, snap model.Snapshot) error {
	m.mu.Lock()
	if m.err != nil {
		m.mu.Unlock()
		return m.err
	}
	m.saved = append(m.saved, snap)
	n := len(m.saved)
	m.mu.Unlock()
	if m.onSave != nil {
		m.onSave(n)
	}
	return nil
}

func (m *memorySink) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saved)
}
