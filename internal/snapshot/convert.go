package snapshot

import (
	"fmt"

	"liquidityQuoter/internal/amm"
	"liquidityQuoter/internal/amount"
	"liquidityQuoter/internal/model"
)

// PoolSet converts a snapshot into quoting pools. Pools without a recorded
// fee get defaultFeeBps; LP share amounts carry shareDecimals.
func PoolSet(snap model.Snapshot, defaultFeeBps uint32, shareDecimals uint8) (*amm.PoolSet, error) {
	assets := make(map[string]amm.Asset, len(snap.Assets))
	for _, meta := range snap.Assets {
		asset, err := amm.NewAsset(meta.Address, meta.Decimals, meta.Symbol)
		if err != nil {
			return nil, fmt.Errorf("asset %s: %w", meta.Address, err)
		}
		assets[asset.ID] = asset
	}

	pools := make([]amm.Pool, 0, len(snap.Pools))
	for _, record := range snap.Pools {
		pool, err := convertPool(record, assets, defaultFeeBps, shareDecimals)
		if err != nil {
			return nil, fmt.Errorf("pool %s: %w", record.Address, err)
		}
		pools = append(pools, pool)
	}
	return amm.NewPoolSet(pools...)
}

func convertPool(record model.Pool, assets map[string]amm.Asset, defaultFeeBps uint32, shareDecimals uint8) (amm.Pool, error) {
	asset0, ok := assets[amm.NormalizeID(record.Token0)]
	if !ok {
		return amm.Pool{}, fmt.Errorf("%w: %s", amm.ErrUnknownAsset, record.Token0)
	}
	asset1, ok := assets[amm.NormalizeID(record.Token1)]
	if !ok {
		return amm.Pool{}, fmt.Errorf("%w: %s", amm.ErrUnknownAsset, record.Token1)
	}

	reserve0, err := amount.ParseRaw(record.Reserve0, asset0.Decimals)
	if err != nil {
		return amm.Pool{}, fmt.Errorf("reserve0: %w", err)
	}
	reserve1, err := amount.ParseRaw(record.Reserve1, asset1.Decimals)
	if err != nil {
		return amm.Pool{}, fmt.Errorf("reserve1: %w", err)
	}
	shares, err := amount.ParseRaw(record.TotalSupply, shareDecimals)
	if err != nil {
		return amm.Pool{}, fmt.Errorf("total supply: %w", err)
	}

	fee := defaultFeeBps
	if record.FeeBps != nil {
		fee = *record.FeeBps
	}

	pool, err := amm.NewPool(asset0, asset1, reserve0, reserve1, shares, fee)
	if err != nil {
		return amm.Pool{}, err
	}
	pool.Address = amm.NormalizeID(record.Address)
	return pool, nil
}
