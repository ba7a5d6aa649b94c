package postgres

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"liquidityQuoter/internal/model"
	"liquidityQuoter/internal/storage"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	chain_id BIGINT PRIMARY KEY,
	block_number BIGINT NOT NULL,
	taken_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS assets (
	chain_id BIGINT NOT NULL,
	address TEXT NOT NULL,
	decimals SMALLINT NOT NULL,
	symbol TEXT NOT NULL DEFAULT '',
	name TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (chain_id, address)
);
CREATE TABLE IF NOT EXISTS pools (
	chain_id BIGINT NOT NULL,
	pool_address TEXT NOT NULL,
	token0 TEXT NOT NULL,
	token1 TEXT NOT NULL,
	reserve0 NUMERIC(78, 0) NOT NULL,
	reserve1 NUMERIC(78, 0) NOT NULL,
	total_supply NUMERIC(78, 0) NOT NULL,
	fee_bps INTEGER,
	block_number BIGINT NOT NULL,
	block_timestamp_last BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (chain_id, pool_address)
);
`

// Store provides Postgres persistence for pool snapshots.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("pg dsn is required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// EnsureSchema creates the snapshot tables when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// SaveSnapshot implements storage.SnapshotSink.
func (s *Store) SaveSnapshot(ctx context.Context, snap model.Snapshot) error {
	return s.UpsertSnapshot(ctx, snap)
}

// UpsertSnapshot writes assets, pools, and the snapshot header in one
// transaction. Pools not present in snap are left untouched.
func (s *Store) UpsertSnapshot(ctx context.Context, snap model.Snapshot) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, asset := range snap.Assets {
		batch.Queue(`
			INSERT INTO assets (chain_id, address, decimals, symbol, name, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, now(), now())
			ON CONFLICT (chain_id, address)
			DO UPDATE SET
				decimals = EXCLUDED.decimals,
				symbol = EXCLUDED.symbol,
				name = EXCLUDED.name,
				updated_at = now()
		`,
			int64(snap.ChainID),
			asset.Address,
			int16(asset.Decimals),
			asset.Symbol,
			asset.Name,
		)
	}
	for _, pool := range snap.Pools {
		reserve0, err := numeric(pool.Reserve0)
		if err != nil {
			return fmt.Errorf("pool %s reserve0: %w", pool.Address, err)
		}
		reserve1, err := numeric(pool.Reserve1)
		if err != nil {
			return fmt.Errorf("pool %s reserve1: %w", pool.Address, err)
		}
		supply, err := numeric(pool.TotalSupply)
		if err != nil {
			return fmt.Errorf("pool %s total supply: %w", pool.Address, err)
		}
		var fee *int32
		if pool.FeeBps != nil {
			v := int32(*pool.FeeBps)
			fee = &v
		}
		batch.Queue(`
			INSERT INTO pools (
				chain_id, pool_address, token0, token1, reserve0, reserve1, total_supply,
				fee_bps, block_number, block_timestamp_last, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())
			ON CONFLICT (chain_id, pool_address)
			DO UPDATE SET
				token0 = EXCLUDED.token0,
				token1 = EXCLUDED.token1,
				reserve0 = EXCLUDED.reserve0,
				reserve1 = EXCLUDED.reserve1,
				total_supply = EXCLUDED.total_supply,
				fee_bps = EXCLUDED.fee_bps,
				block_number = EXCLUDED.block_number,
				block_timestamp_last = EXCLUDED.block_timestamp_last,
				updated_at = now()
			WHERE pools.block_number <= EXCLUDED.block_number
		`,
			int64(snap.ChainID),
			pool.Address,
			pool.Token0,
			pool.Token1,
			reserve0,
			reserve1,
			supply,
			fee,
			int64(snap.BlockNumber),
			int64(pool.BlockTimestampLast),
		)
	}
	batch.Queue(`
		INSERT INTO snapshots (chain_id, block_number, taken_at, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (chain_id) DO UPDATE
		SET block_number = EXCLUDED.block_number, taken_at = EXCLUDED.taken_at, updated_at = now()
		WHERE snapshots.block_number <= EXCLUDED.block_number
	`, int64(snap.ChainID), int64(snap.BlockNumber), snap.TakenAt)

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return err
		}
	}
	if err := br.Close(); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// LoadSnapshot reads back the stored snapshot for chainID.
func (s *Store) LoadSnapshot(ctx context.Context, chainID uint64) (model.Snapshot, error) {
	snap := model.Snapshot{ChainID: chainID}

	var (
		block   int64
		takenAt time.Time
	)
	row := s.pool.QueryRow(ctx, `SELECT block_number, taken_at FROM snapshots WHERE chain_id=$1`, int64(chainID))
	if err := row.Scan(&block, &takenAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Snapshot{}, fmt.Errorf("%w: chain %d", storage.ErrNoSnapshot, chainID)
		}
		return model.Snapshot{}, err
	}
	snap.BlockNumber = uint64(block)
	snap.TakenAt = takenAt.UTC()

	rows, err := s.pool.Query(ctx, `
		SELECT address, decimals, symbol, name FROM assets WHERE chain_id=$1 ORDER BY address
	`, int64(chainID))
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("query assets: %w", err)
	}
	for rows.Next() {
		var (
			asset    model.TokenMeta
			decimals int16
		)
		if err := rows.Scan(&asset.Address, &decimals, &asset.Symbol, &asset.Name); err != nil {
			rows.Close()
			return model.Snapshot{}, fmt.Errorf("scan asset: %w", err)
		}
		asset.Decimals = uint8(decimals)
		snap.Assets = append(snap.Assets, asset)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return model.Snapshot{}, fmt.Errorf("read assets: %w", err)
	}

	rows, err = s.pool.Query(ctx, `
		SELECT pool_address, token0, token1, reserve0::text, reserve1::text, total_supply::text,
			fee_bps, block_timestamp_last
		FROM pools WHERE chain_id=$1 ORDER BY pool_address
	`, int64(chainID))
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("query pools: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			pool model.Pool
			fee  *int32
			ts   int64
		)
		if err := rows.Scan(&pool.Address, &pool.Token0, &pool.Token1, &pool.Reserve0, &pool.Reserve1,
			&pool.TotalSupply, &fee, &ts); err != nil {
			return model.Snapshot{}, fmt.Errorf("scan pool: %w", err)
		}
		if fee != nil {
			v := uint32(*fee)
			pool.FeeBps = &v
		}
		pool.BlockTimestampLast = uint32(ts)
		snap.Pools = append(snap.Pools, pool)
	}
	if err := rows.Err(); err != nil {
		return model.Snapshot{}, fmt.Errorf("read pools: %w", err)
	}

	return snap, nil
}

func numeric(raw string) (pgtype.Numeric, error) {
	v, ok := new(big.Int).SetString(raw, 10)
	if !ok || v.Sign() < 0 {
		return pgtype.Numeric{}, fmt.Errorf("invalid raw amount %q", raw)
	}
	return pgtype.Numeric{Int: v, Exp: 0, Valid: true}, nil
}
