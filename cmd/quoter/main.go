package main

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"liquidityQuoter/internal/config"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "quoter",
		Short:        "Constant-product AMM quoting engine",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-file", "", "also write logs to this file, rotated")

	swapCmd := &cobra.Command{
		Use:   "swap",
		Short: "Quote a swap with slippage bounds",
		RunE:  runSwap,
	}
	addQuoteFlags(swapCmd)
	swapCmd.Flags().String("from", "", "input asset (address or symbol)")
	swapCmd.Flags().String("to", "", "output asset (address or symbol)")
	swapCmd.Flags().String("amount", "", "input amount, or output amount with --exact-out")
	swapCmd.Flags().Bool("exact-out", false, "treat --amount as the desired output")
	root.AddCommand(swapCmd)

	routeCmd := &cobra.Command{
		Use:   "route",
		Short: "Resolve the route between two assets",
		RunE:  runRoute,
	}
	addQuoteFlags(routeCmd)
	routeCmd.Flags().String("from", "", "input asset (address or symbol)")
	routeCmd.Flags().String("to", "", "output asset (address or symbol)")
	root.AddCommand(routeCmd)

	depositCmd := &cobra.Command{
		Use:   "deposit",
		Short: "Quote a liquidity deposit",
		RunE:  runDeposit,
	}
	addQuoteFlags(depositCmd)
	depositCmd.Flags().String("asset", "", "asset whose amount is given")
	depositCmd.Flags().String("other", "", "the pool's other asset")
	depositCmd.Flags().String("amount", "", "amount of --asset")
	depositCmd.Flags().String("amount-other", "", "desired amount of --other; required for an empty pool")
	root.AddCommand(depositCmd)

	withdrawCmd := &cobra.Command{
		Use:   "withdraw",
		Short: "Quote burning liquidity shares",
		RunE:  runWithdraw,
	}
	addQuoteFlags(withdrawCmd)
	withdrawCmd.Flags().String("asset", "", "one asset of the pool")
	withdrawCmd.Flags().String("other", "", "the pool's other asset")
	withdrawCmd.Flags().String("shares", "", "shares to burn")
	root.AddCommand(withdrawCmd)

	snapshotCmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Fetch pool snapshots from chain",
	}

	fetchCmd := &cobra.Command{
		Use:   "fetch",
		Short: "Fetch one snapshot and save it",
		RunE:  runSnapshotFetch,
	}
	addSnapshotFlags(fetchCmd)
	snapshotCmd.AddCommand(fetchCmd)

	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Refresh the snapshot on an interval",
		RunE:  runSnapshotWatch,
	}
	addSnapshotFlags(watchCmd)
	watchCmd.Flags().Duration("interval", 15*time.Second, "refresh interval")
	watchCmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address (e.g. :9102)")
	snapshotCmd.AddCommand(watchCmd)

	root.AddCommand(snapshotCmd)
	return root
}

func addQuoteFlags(cmd *cobra.Command) {
	cmd.Flags().String("snapshot", "./data/snapshot.json", "snapshot JSON path")
	cmd.Flags().String("pg-dsn", "", "load the snapshot from Postgres instead")
	cmd.Flags().Uint64("chain-id", 0, "chain id of the Postgres snapshot")
	cmd.Flags().Uint32("fee-bps", 30, "fee for pools whose snapshot has none")
	cmd.Flags().StringSlice("bridge", nil, "bridge assets for two-hop routes, in preference order")
	cmd.Flags().Uint32("tolerance-bps", 0, "slippage tolerance; overrides auto and default")
	cmd.Flags().Uint32("default-tolerance-bps", 50, "tolerance when none is given")
	cmd.Flags().Bool("auto-tolerance", false, "derive swap tolerance from price impact")
	cmd.Flags().Uint64("minimum-liquidity", 1000, "shares locked on an initial deposit")
	cmd.Flags().Uint("share-decimals", 18, "LP share decimals")
	cmd.Flags().String("record", "", "append quotes to this JSONL file")
}

func addSnapshotFlags(cmd *cobra.Command) {
	cmd.Flags().String("rpc", "", "RPC URL")
	cmd.Flags().String("factory", "", "V2 factory address for pair discovery")
	cmd.Flags().StringSlice("pair", nil, "pair addresses (comma-separated)")
	cmd.Flags().StringSlice("token", nil, "tokens whose pairs are discovered via --factory")
	cmd.Flags().Uint64("max-pairs", 500, "factory pairs to enumerate when no tokens are given")
	cmd.Flags().String("out", "./data/snapshot.json", "snapshot JSON path")
	cmd.Flags().String("pg-dsn", "", "also upsert snapshots into Postgres")
	cmd.Flags().Uint32("fee-bps", 0, "fee to record on every pool")
	cmd.Flags().Int("max-retries", 5, "maximum retry attempts")
	cmd.Flags().Duration("retry-backoff", 500*time.Millisecond, "initial retry backoff")
	cmd.Flags().Float64("rpc-rps", 10, "RPC calls per second, 0 for unlimited")
	cmd.Flags().Int("concurrency", 4, "pairs fetched in parallel")
}

func newLogger(common config.Common) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(common.LogLevel)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if common.LogFile == "" {
		return cfg.Build()
	}

	rotator := &lumberjack.Logger{
		Filename:   common.LogFile,
		MaxSize:    50, // megabytes
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	}
	fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(cfg.EncoderConfig), zapcore.AddSync(rotator), cfg.Level)
	return cfg.Build(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, fileCore)
	}))
}
