package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"liquidityQuoter/internal/chain"
	"liquidityQuoter/internal/config"
	"liquidityQuoter/internal/snapshot"
	"liquidityQuoter/internal/storage"
	"liquidityQuoter/internal/storage/postgres"
)

func runSnapshotFetch(cmd *cobra.Command, _ []string) error {
	return withRefresher(cmd, false, func(ctx context.Context, r *snapshot.Refresher, _ config.SnapshotConfig, logger *zap.Logger) error {
		snap, err := r.Refresh(ctx)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "chain %d block %d: %d pools, %d assets\n",
			snap.ChainID, snap.BlockNumber, len(snap.Pools), len(snap.Assets))
		return err
	})
}

func runSnapshotWatch(cmd *cobra.Command, _ []string) error {
	return withRefresher(cmd, true, func(ctx context.Context, r *snapshot.Refresher, cfg config.SnapshotConfig, logger *zap.Logger) error {
		logger.Info("snapshot watch start", zap.Duration("interval", cfg.Interval))
		return r.Watch(ctx)
	})
}

type refresherFunc func(ctx context.Context, r *snapshot.Refresher, cfg config.SnapshotConfig, logger *zap.Logger) error

func withRefresher(cmd *cobra.Command, withMetrics bool, fn refresherFunc) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadSnapshot(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg.Common)
	if err != nil {
		return err
	}
	defer logger.Sync()

	pairs, err := snapshot.ParseAddresses(cfg.Pairs)
	if err != nil {
		return err
	}
	tokens, err := snapshot.ParseAddresses(cfg.Tokens)
	if err != nil {
		return err
	}
	factory, err := snapshot.ParseAddress(cfg.Factory)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	chainClient, err := chain.NewClient(ctx, cfg.RPCURL, chain.WithRateLimit(cfg.RPCRPS))
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	var sinks storage.MultiSink
	if cfg.Out != "" {
		sinks = append(sinks, storage.NewSnapshotFile(cfg.Out))
	}
	if cfg.PGDSN != "" {
		store, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer store.Close()
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		sinks = append(sinks, store)
	}

	var metrics *snapshot.Metrics
	if withMetrics && cfg.MetricsAddr != "" {
		metrics = snapshot.NewMetrics()
		server := snapshot.NewMetricsServer(cfg.MetricsAddr, metrics)
		go func() {
			if err := server.Start(); err != nil {
				logger.Error("metrics server failed", zap.Error(err))
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = server.Stop(shutdownCtx)
		}()
		logger.Info("metrics server listening", zap.String("addr", cfg.MetricsAddr))
	}

	refreshCfg := snapshot.Config{
		Pairs:        pairs,
		Factory:      factory,
		Tokens:       tokens,
		MaxPairs:     cfg.MaxPairs,
		Interval:     cfg.Interval,
		Concurrency:  cfg.Concurrency,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
	}
	if cfg.FeeSet {
		fee := cfg.FeeBps
		refreshCfg.FeeBps = &fee
	}

	refresher, err := snapshot.NewRefresher(refreshCfg, chainClient, sinks, metrics, logger)
	if err != nil {
		return err
	}

	logger.Info("snapshot refresher ready",
		zap.String("rpc", cfg.RPCURL),
		zap.Int("pairs", len(pairs)),
		zap.Int("tokens", len(tokens)),
		zap.String("out", cfg.Out),
		zap.Bool("postgres", cfg.PGDSN != ""),
		zap.Int("concurrency", cfg.Concurrency),
		zap.Float64("rpc_rps", cfg.RPCRPS),
	)

	return fn(ctx, refresher, cfg, logger)
}
