package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"liquidityQuoter/internal/amm"
	"liquidityQuoter/internal/amount"
	"liquidityQuoter/internal/config"
	"liquidityQuoter/internal/model"
	"liquidityQuoter/internal/snapshot"
	"liquidityQuoter/internal/storage"
	"liquidityQuoter/internal/storage/postgres"
)

// quoteEnv is everything a quoting command needs once config is loaded.
type quoteEnv struct {
	cfg       config.QuoteConfig
	logger    *zap.Logger
	snap      model.Snapshot
	pools     *amm.PoolSet
	router    *amm.Router
	guard     *amm.Guard
	liquidity *amm.Liquidity
}

func loadQuoteEnv(cmd *cobra.Command) (*quoteEnv, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadQuote(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.Common)
	if err != nil {
		return nil, err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	snap, err := loadSnapshot(ctx, cfg)
	if err != nil {
		return nil, err
	}
	pools, err := snapshot.PoolSet(snap, cfg.FeeBps, cfg.ShareDecimals)
	if err != nil {
		return nil, fmt.Errorf("build pools: %w", err)
	}

	bridges := make([]amm.Asset, 0, len(cfg.Bridges))
	for _, ref := range cfg.Bridges {
		asset, ok := pools.Asset(ref)
		if !ok {
			return nil, fmt.Errorf("bridge %s: %w", ref, amm.ErrUnknownAsset)
		}
		bridges = append(bridges, asset)
	}

	ammCfg := amm.Config{
		FeeBps:              cfg.FeeBps,
		BridgeCandidates:    bridges,
		DefaultToleranceBps: cfg.DefaultTolerance,
		AutoTolerance:       cfg.AutoTolerance,
	}
	router, err := amm.NewRouter(ammCfg)
	if err != nil {
		return nil, err
	}
	guard, err := amm.NewGuard(ammCfg)
	if err != nil {
		return nil, err
	}

	logger.Debug("snapshot loaded",
		zap.Uint64("chain_id", snap.ChainID),
		zap.Uint64("block", snap.BlockNumber),
		zap.Int("pools", pools.Len()),
	)

	return &quoteEnv{
		cfg:       cfg,
		logger:    logger,
		snap:      snap,
		pools:     pools,
		router:    router,
		guard:     guard,
		liquidity: amm.NewLiquidity(amm.GeometricMean{MinimumLiquidity: cfg.MinimumLiquidity}),
	}, nil
}

func loadSnapshot(ctx context.Context, cfg config.QuoteConfig) (model.Snapshot, error) {
	if cfg.PGDSN == "" {
		return storage.NewSnapshotFile(cfg.Snapshot).Load()
	}
	store, err := postgres.NewStore(ctx, cfg.PGDSN)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("connect postgres: %w", err)
	}
	defer store.Close()
	return store.LoadSnapshot(ctx, cfg.ChainID)
}

func (e *quoteEnv) explicitTolerance() *uint32 {
	if !e.cfg.ToleranceSet {
		return nil
	}
	tolerance := e.cfg.ToleranceBps
	return &tolerance
}

func (e *quoteEnv) asset(cmd *cobra.Command, flag string) (amm.Asset, error) {
	ref, _ := cmd.Flags().GetString(flag)
	if ref == "" {
		return amm.Asset{}, fmt.Errorf("--%s is required", flag)
	}
	asset, ok := e.pools.Asset(ref)
	if !ok {
		return amm.Asset{}, fmt.Errorf("%w: %s", amm.ErrUnknownAsset, ref)
	}
	return asset, nil
}

func (e *quoteEnv) pool(a, b amm.Asset) (amm.Pool, error) {
	p, ok := e.pools.Lookup(a, b)
	if !ok {
		return amm.Pool{}, fmt.Errorf("%w: no pool for %s/%s", amm.ErrNoRouteFound, a.Label(), b.Label())
	}
	return p, nil
}

func parseAmount(cmd *cobra.Command, flag string, decimals uint8) (amount.Amount, error) {
	raw, _ := cmd.Flags().GetString(flag)
	if raw == "" {
		return amount.Amount{}, fmt.Errorf("--%s is required", flag)
	}
	a, err := amount.Parse(raw, decimals)
	if err != nil {
		return amount.Amount{}, fmt.Errorf("parse --%s: %w", flag, err)
	}
	return a, nil
}

// finish records and prints a quote.
func (e *quoteEnv) finish(cmd *cobra.Command, record model.QuoteRecord) error {
	record.ChainID = e.snap.ChainID
	record.BlockNumber = e.snap.BlockNumber
	record.QuotedAt = time.Now().UTC()

	if e.cfg.Record != "" {
		if err := storage.NewJsonlStorage(e.cfg.Record).PutQuotes([]model.QuoteRecord{record}); err != nil {
			return fmt.Errorf("record quote: %w", err)
		}
	}

	e.logger.Info("quote",
		zap.String("kind", record.Kind),
		zap.Strings("route", record.Route),
		zap.String("amount_in", record.AmountIn),
		zap.String("amount_out", record.AmountOut),
		zap.Uint32("tolerance_bps", record.ToleranceBps),
	)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(record)
}

func runSwap(cmd *cobra.Command, _ []string) error {
	env, err := loadQuoteEnv(cmd)
	if err != nil {
		return err
	}
	defer env.logger.Sync()

	from, err := env.asset(cmd, "from")
	if err != nil {
		return err
	}
	to, err := env.asset(cmd, "to")
	if err != nil {
		return err
	}
	route, err := env.router.ResolvePath(env.pools, from, to)
	if err != nil {
		return err
	}

	exactOut, _ := cmd.Flags().GetBool("exact-out")
	var q amm.Quote
	if exactOut {
		out, err := parseAmount(cmd, "amount", to.Decimals)
		if err != nil {
			return err
		}
		if q, err = env.router.QuoteExactOutput(route, out); err != nil {
			return err
		}
	} else {
		in, err := parseAmount(cmd, "amount", from.Decimals)
		if err != nil {
			return err
		}
		if q, err = env.router.Quote(route, in); err != nil {
			return err
		}
	}

	bounds, err := env.guard.SwapBounds(q, env.explicitTolerance())
	if err != nil {
		return err
	}
	return env.finish(cmd, swapRecord(q, bounds))
}

func runRoute(cmd *cobra.Command, _ []string) error {
	env, err := loadQuoteEnv(cmd)
	if err != nil {
		return err
	}
	defer env.logger.Sync()

	from, err := env.asset(cmd, "from")
	if err != nil {
		return err
	}
	to, err := env.asset(cmd, "to")
	if err != nil {
		return err
	}
	route, err := env.router.ResolvePath(env.pools, from, to)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), route.String())
	for _, p := range route.Pools {
		if err != nil {
			break
		}
		_, err = fmt.Fprintf(cmd.OutOrStdout(), "  %s  %s\n", p.Address, p)
	}
	return err
}

func runDeposit(cmd *cobra.Command, _ []string) error {
	env, err := loadQuoteEnv(cmd)
	if err != nil {
		return err
	}
	defer env.logger.Sync()

	assetA, err := env.asset(cmd, "asset")
	if err != nil {
		return err
	}
	assetB, err := env.asset(cmd, "other")
	if err != nil {
		return err
	}
	p, err := env.pool(assetA, assetB)
	if err != nil {
		return err
	}
	amountA, err := parseAmount(cmd, "amount", assetA.Decimals)
	if err != nil {
		return err
	}

	var q amm.DepositQuote
	if other, _ := cmd.Flags().GetString("amount-other"); other != "" {
		amountB, err := parseAmount(cmd, "amount-other", assetB.Decimals)
		if err != nil {
			return err
		}
		q, err = env.liquidity.QuoteOptimalDeposit(p, assetA, amountA, amountB)
		if err != nil {
			return err
		}
	} else {
		if p.IsEmpty() {
			return fmt.Errorf("%w: pool %s is empty, --amount-other is required", amm.ErrZeroReserves, p.Key())
		}
		q, err = env.liquidity.QuoteDeposit(p, assetA, amountA)
		if err != nil {
			return err
		}
	}

	bounds, err := env.guard.DepositBounds(q, env.explicitTolerance())
	if err != nil {
		return err
	}
	return env.finish(cmd, model.QuoteRecord{
		Kind:           model.QuoteKindDeposit,
		Route:          []string{q.AssetA.Label(), q.AssetB.Label()},
		Pools:          []string{p.Address},
		HopAmounts:     []string{q.AmountA.String(), q.AmountB.String()},
		ToleranceBps:   bounds.ToleranceBps,
		MinimumAmounts: []string{bounds.MinAmountA.String(), bounds.MinAmountB.String()},
		MaximumAmounts: []string{bounds.MaxAmountA.String(), bounds.MaxAmountB.String()},
		Shares:         q.SharesMinted.String(),
	})
}

func runWithdraw(cmd *cobra.Command, _ []string) error {
	env, err := loadQuoteEnv(cmd)
	if err != nil {
		return err
	}
	defer env.logger.Sync()

	a, err := env.asset(cmd, "asset")
	if err != nil {
		return err
	}
	b, err := env.asset(cmd, "other")
	if err != nil {
		return err
	}
	p, err := env.pool(a, b)
	if err != nil {
		return err
	}
	shares, err := parseAmount(cmd, "shares", p.TotalShares.Decimals())
	if err != nil {
		return err
	}

	q, err := env.liquidity.QuoteWithdraw(p, shares)
	if err != nil {
		return err
	}
	bounds, err := env.guard.WithdrawBounds(q, env.explicitTolerance())
	if err != nil {
		return err
	}
	return env.finish(cmd, model.QuoteRecord{
		Kind:           model.QuoteKindWithdraw,
		Route:          []string{q.Asset0.Label(), q.Asset1.Label()},
		Pools:          []string{p.Address},
		HopAmounts:     []string{q.Amount0.String(), q.Amount1.String()},
		ToleranceBps:   bounds.ToleranceBps,
		MinimumAmounts: []string{bounds.MinAmount0.String(), bounds.MinAmount1.String()},
		Shares:         q.SharesBurned.String(),
	})
}

func swapRecord(q amm.Quote, bounds amm.SwapBounds) model.QuoteRecord {
	kind := model.QuoteKindExactIn
	if q.ExactOutput {
		kind = model.QuoteKindExactOut
	}
	route := make([]string, 0, len(q.Route.Assets))
	for _, asset := range q.Route.Assets {
		route = append(route, asset.Label())
	}
	pools := make([]string, 0, len(q.Route.Pools))
	for _, p := range q.Route.Pools {
		pools = append(pools, p.Address)
	}
	hops := make([]string, 0, len(q.HopAmounts))
	for _, a := range q.HopAmounts {
		hops = append(hops, a.String())
	}
	impact := q.PriceImpactBps
	return model.QuoteRecord{
		Kind:           kind,
		Route:          route,
		Pools:          pools,
		AmountIn:       q.AmountIn.String(),
		AmountOut:      q.AmountOut.String(),
		HopAmounts:     hops,
		PriceImpactBps: &impact,
		HopImpactBps:   q.HopImpactBps,
		ToleranceBps:   bounds.ToleranceBps,
		MinimumOutput:  bounds.MinimumOutput.String(),
		MaximumInput:   bounds.MaximumInput.String(),
	}
}
