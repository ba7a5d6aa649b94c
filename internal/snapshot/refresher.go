package snapshot

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"liquidityQuoter/internal/dex"
	"liquidityQuoter/internal/model"
	"liquidityQuoter/internal/storage"
)

// Chain is the RPC surface the refresher needs.
type Chain interface {
	dex.Caller
	GetChainID(ctx context.Context) (*big.Int, error)
	LatestBlockNumber(ctx context.Context) (uint64, error)
	BlockTimestamp(ctx context.Context, number uint64) (uint64, error)
}

// Config holds refresher settings.
type Config struct {
	// Pairs are always fetched. Factory adds pairs discovered among Tokens, or
	// the first MaxPairs factory pairs when Tokens is empty.
	Pairs    []common.Address
	Factory  *common.Address
	Tokens   []common.Address
	MaxPairs uint64

	// FeeBps is stamped on every pool when set.
	FeeBps *uint32

	Interval     time.Duration
	Concurrency  int
	MaxRetries   int
	RetryBackoff time.Duration
}

// Refresher builds pool snapshots from chain state and hands them to a sink.
type Refresher struct {
	cfg     Config
	chain   Chain
	sink    storage.SnapshotSink
	tokens  *dex.TokenMetaCache
	metrics *Metrics
	logger  *zap.Logger

	mu    sync.Mutex
	pairs []common.Address
}

// NewRefresher builds a Refresher. metrics may be nil.
func NewRefresher(cfg Config, chainClient Chain, sink storage.SnapshotSink, metrics *Metrics, logger *zap.Logger) (*Refresher, error) {
	if chainClient == nil {
		return nil, fmt.Errorf("chain client is nil")
	}
	if sink == nil {
		return nil, fmt.Errorf("snapshot sink is nil")
	}
	if len(cfg.Pairs) == 0 && cfg.Factory == nil {
		return nil, fmt.Errorf("pair list or factory is required")
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	tokens, err := dex.NewTokenMetaCache(dex.DefaultTokenCacheSize)
	if err != nil {
		return nil, err
	}
	return &Refresher{
		cfg:     cfg,
		chain:   chainClient,
		sink:    sink,
		tokens:  tokens,
		metrics: metrics,
		logger:  logger,
	}, nil
}

// Refresh fetches one snapshot and saves it.
func (r *Refresher) Refresh(ctx context.Context) (model.Snapshot, error) {
	started := time.Now()
	snap, err := r.Fetch(ctx)
	if err == nil {
		err = r.sink.SaveSnapshot(ctx, snap)
		if err != nil {
			err = fmt.Errorf("save snapshot: %w", err)
		}
	}
	r.metrics.observe(started, len(snap.Pools), snap.BlockNumber, err)
	if err != nil {
		return model.Snapshot{}, err
	}

	r.logger.Info("snapshot saved",
		zap.Uint64("chain_id", snap.ChainID),
		zap.Uint64("block", snap.BlockNumber),
		zap.Int("pools", len(snap.Pools)),
		zap.Int("assets", len(snap.Assets)),
		zap.Duration("took", time.Since(started)),
	)
	return snap, nil
}

// Watch refreshes immediately and then on every interval until ctx is done.
// Failed refreshes are logged and retried on the next tick.
func (r *Refresher) Watch(ctx context.Context) error {
	if r.cfg.Interval <= 0 {
		return fmt.Errorf("interval must be positive")
	}
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		if _, err := r.Refresh(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			r.logger.Warn("snapshot refresh failed", zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Fetch reads every configured pair at a single pinned block.
func (r *Refresher) Fetch(ctx context.Context) (model.Snapshot, error) {
	var chainID *big.Int
	if err := r.retry(ctx, func(ctx context.Context) error {
		var err error
		chainID, err = r.chain.GetChainID(ctx)
		return err
	}); err != nil {
		return model.Snapshot{}, fmt.Errorf("get chain id: %w", err)
	}
	if !chainID.IsUint64() {
		return model.Snapshot{}, fmt.Errorf("chain id does not fit in uint64: %s", chainID)
	}

	var block uint64
	if err := r.retry(ctx, func(ctx context.Context) error {
		var err error
		block, err = r.chain.LatestBlockNumber(ctx)
		return err
	}); err != nil {
		return model.Snapshot{}, fmt.Errorf("get latest block: %w", err)
	}

	var ts uint64
	if err := r.retry(ctx, func(ctx context.Context) error {
		var err error
		ts, err = r.chain.BlockTimestamp(ctx, block)
		return err
	}); err != nil {
		return model.Snapshot{}, fmt.Errorf("get block %d timestamp: %w", block, err)
	}

	pairs, err := r.resolvePairs(ctx)
	if err != nil {
		return model.Snapshot{}, err
	}

	states, err := r.fetchPairs(ctx, pairs, new(big.Int).SetUint64(block))
	if err != nil {
		return model.Snapshot{}, err
	}

	assets, err := r.fetchTokens(ctx, states)
	if err != nil {
		return model.Snapshot{}, err
	}

	snap := model.Snapshot{
		ChainID:     chainID.Uint64(),
		BlockNumber: block,
		TakenAt:     time.Unix(int64(ts), 0).UTC(),
		Assets:      assets,
		Pools:       make([]model.Pool, 0, len(states)),
	}
	for _, state := range states {
		record := state.Record()
		if r.cfg.FeeBps != nil {
			fee := *r.cfg.FeeBps
			record.FeeBps = &fee
		}
		snap.Pools = append(snap.Pools, record)
	}
	return snap, nil
}

// resolvePairs returns the configured pairs plus factory discoveries. The
// result is computed once; pair addresses do not change.
func (r *Refresher) resolvePairs(ctx context.Context) ([]common.Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pairs != nil {
		return r.pairs, nil
	}

	pairs := append([]common.Address(nil), r.cfg.Pairs...)
	if r.cfg.Factory != nil {
		var discovered []common.Address
		err := r.retry(ctx, func(ctx context.Context) error {
			var err error
			discovered, err = r.discover(ctx, *r.cfg.Factory)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("discover pairs: %w", err)
		}
		r.logger.Info("pairs discovered",
			zap.String("factory", r.cfg.Factory.Hex()),
			zap.Int("pairs", len(discovered)),
		)
		pairs = append(pairs, discovered...)
	}

	seen := make(map[common.Address]struct{}, len(pairs))
	unique := pairs[:0]
	for _, pair := range pairs {
		if _, ok := seen[pair]; ok {
			continue
		}
		seen[pair] = struct{}{}
		unique = append(unique, pair)
	}
	if len(unique) == 0 {
		return nil, fmt.Errorf("no pairs to fetch")
	}
	r.pairs = unique
	return unique, nil
}

func (r *Refresher) discover(ctx context.Context, factory common.Address) ([]common.Address, error) {
	if len(r.cfg.Tokens) > 0 {
		return dex.DiscoverPairs(ctx, r.chain, factory, r.cfg.Tokens)
	}

	total, err := dex.AllPairsLength(ctx, r.chain, factory)
	if err != nil {
		return nil, err
	}
	if r.cfg.MaxPairs > 0 && total > r.cfg.MaxPairs {
		r.logger.Warn("factory pair count exceeds max-pairs, truncating",
			zap.Uint64("total", total),
			zap.Uint64("max_pairs", r.cfg.MaxPairs),
		)
		total = r.cfg.MaxPairs
	}

	pairs := make([]common.Address, total)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)
	for i := uint64(0); i < total; i++ {
		g.Go(func() error {
			pair, err := dex.PairAt(gctx, r.chain, factory, i)
			if err != nil {
				return fmt.Errorf("pair %d: %w", i, err)
			}
			pairs[i] = pair
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pairs, nil
}

func (r *Refresher) fetchPairs(ctx context.Context, pairs []common.Address, block *big.Int) ([]dex.PairState, error) {
	states := make([]dex.PairState, len(pairs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)
	for i, pair := range pairs {
		g.Go(func() error {
			return r.retry(gctx, func(ctx context.Context) error {
				state, err := dex.FetchPair(ctx, r.chain, pair, block)
				if err != nil {
					return fmt.Errorf("fetch pair %s: %w", pair.Hex(), err)
				}
				states[i] = state
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return states, nil
}

func (r *Refresher) fetchTokens(ctx context.Context, states []dex.PairState) ([]model.TokenMeta, error) {
	var tokens []common.Address
	seen := make(map[common.Address]struct{})
	for _, state := range states {
		for _, token := range []common.Address{state.Token0, state.Token1} {
			if _, ok := seen[token]; ok {
				continue
			}
			seen[token] = struct{}{}
			tokens = append(tokens, token)
		}
	}

	metas := make([]model.TokenMeta, len(tokens))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Concurrency)
	for i, token := range tokens {
		g.Go(func() error {
			return r.retry(gctx, func(ctx context.Context) error {
				meta, err := r.tokens.TokenMeta(ctx, r.chain, token, r.logger)
				if err != nil {
					return fmt.Errorf("token %s: %w", token.Hex(), err)
				}
				metas[i] = meta
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(metas, func(i, j int) bool { return metas[i].Address < metas[j].Address })
	return metas, nil
}

func (r *Refresher) retry(ctx context.Context, fn func(context.Context) error) error {
	return withRetry(ctx, r.cfg.MaxRetries, r.cfg.RetryBackoff, fn)
}
