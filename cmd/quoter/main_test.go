package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"liquidityQuoter/internal/amm"
	"liquidityQuoter/internal/model"
	"liquidityQuoter/internal/storage"
)

const testSnapshotJSON = `{
	"chain_id": 1,
	"block_number": 19000000,
	"taken_at": "2024-01-01T00:00:00Z",
	"assets": [
		{"id": "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", "decimals": 6, "symbol": "USDC"},
		{"id": "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2", "decimals": 18, "symbol": "WETH"},
		{"id": "0x6b175474e89094c44da98b954eedeac495271d0f", "decimals": 18, "symbol": "DAI"}
	],
	"pools": [
		{
			"address": "0xb4e16d0168e52d35cacd2c6185b44281ec28c9dc",
			"token0": "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48",
			"token1": "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2",
			"reserve0": "2000000000000",
			"reserve1": "1000000000000000000000",
			"total_supply": "44721359549995793"
		},
		{
			"address": "0xa478c2975ab1ea89e8196811f51a7b7ade33eb11",
			"token0": "0x6b175474e89094c44da98b954eedeac495271d0f",
			"token1": "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2",
			"reserve0": "2000000000000000000000000",
			"reserve1": "1000000000000000000000",
			"total_supply": "44721359549995793928"
		}
	]
}`

func writeSnapshot(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "snapshot.json")
	if err := os.WriteFile(path, []byte(testSnapshotJSON), 0o644); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append(args, "--log-level", "error"))
	err := root.Execute()
	return out.String(), err
}

func decodeRecord(t *testing.T, out string) model.QuoteRecord {
	t.Helper()
	var record model.QuoteRecord
	if err := json.Unmarshal([]byte(out), &record); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	return record
}

func TestSwapExactInput(t *testing.T) {
	path := writeSnapshot(t)
	out, err := execute(t, "swap", "--snapshot", path, "--from", "WETH", "--to", "USDC", "--amount", "1")
	require.NoError(t, err)

	record := decodeRecord(t, out)
	require.Equal(t, model.QuoteKindExactIn, record.Kind)
	require.Equal(t, []string{"WETH", "USDC"}, record.Route)
	require.Equal(t, "1.000000000000000000", record.AmountIn)
	require.Equal(t, "1992.013962", record.AmountOut)
	require.Equal(t, uint32(50), record.ToleranceBps)
	require.Equal(t, "1982.053892", record.MinimumOutput)
	require.Equal(t, uint64(19000000), record.BlockNumber)
	require.NotNil(t, record.PriceImpactBps)
}

func TestSwapExactOutputRecordsQuote(t *testing.T) {
	path := writeSnapshot(t)
	logPath := filepath.Join(t.TempDir(), "quotes.jsonl")
	out, err := execute(t, "swap", "--snapshot", path, "--from", "WETH", "--to", "USDC",
		"--amount", "1000", "--exact-out", "--tolerance-bps", "100", "--record", logPath)
	require.NoError(t, err)

	record := decodeRecord(t, out)
	require.Equal(t, model.QuoteKindExactOut, record.Kind)
	require.Equal(t, "0.501755391236239986", record.AmountIn)
	require.Equal(t, uint32(100), record.ToleranceBps)

	logged, err := storage.ReadQuotes(logPath)
	require.NoError(t, err)
	require.Len(t, logged, 1)
	require.Equal(t, record.AmountIn, logged[0].AmountIn)
}

func TestSwapNeedsBridgeForTwoHops(t *testing.T) {
	path := writeSnapshot(t)
	_, err := execute(t, "swap", "--snapshot", path, "--from", "USDC", "--to", "DAI", "--amount", "100")
	require.True(t, errors.Is(err, amm.ErrNoRouteFound), "err = %v", err)

	out, err := execute(t, "swap", "--snapshot", path, "--from", "USDC", "--to", "DAI", "--amount", "100", "--bridge", "WETH")
	require.NoError(t, err)
	record := decodeRecord(t, out)
	require.Equal(t, []string{"USDC", "WETH", "DAI"}, record.Route)
	require.Len(t, record.HopAmounts, 3)
}

func TestRoute(t *testing.T) {
	path := writeSnapshot(t)
	out, err := execute(t, "route", "--snapshot", path, "--from", "USDC", "--to", "DAI", "--bridge", "WETH")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "USDC -> WETH -> DAI\n"), "out = %q", out)
}

func TestDeposit(t *testing.T) {
	path := writeSnapshot(t)
	out, err := execute(t, "deposit", "--snapshot", path, "--asset", "WETH", "--other", "USDC", "--amount", "1")
	require.NoError(t, err)

	record := decodeRecord(t, out)
	require.Equal(t, model.QuoteKindDeposit, record.Kind)
	require.Equal(t, []string{"1.000000000000000000", "2000.000000"}, record.HopAmounts)
	require.Equal(t, "0.000044721359549995", record.Shares)
	require.Len(t, record.MinimumAmounts, 2)
	require.Len(t, record.MaximumAmounts, 2)
}

func TestWithdrawEverything(t *testing.T) {
	path := writeSnapshot(t)
	out, err := execute(t, "withdraw", "--snapshot", path, "--asset", "USDC", "--other", "WETH",
		"--shares", "0.044721359549995793")
	require.NoError(t, err)

	record := decodeRecord(t, out)
	require.Equal(t, model.QuoteKindWithdraw, record.Kind)
	require.Equal(t, []string{"2000000.000000", "1000.000000000000000000"}, record.HopAmounts)
}

func TestUnknownAsset(t *testing.T) {
	path := writeSnapshot(t)
	_, err := execute(t, "swap", "--snapshot", path, "--from", "WBTC", "--to", "USDC", "--amount", "1")
	require.True(t, errors.Is(err, amm.ErrUnknownAsset), "err = %v", err)
}

func TestMissingSnapshot(t *testing.T) {
	_, err := execute(t, "route", "--snapshot", filepath.Join(t.TempDir(), "none.json"), "--from", "USDC", "--to", "WETH")
	require.True(t, errors.Is(err, storage.ErrNoSnapshot), "err = %v", err)
}
