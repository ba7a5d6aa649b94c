package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"liquidityQuoter/internal/model"
)

// PairState is the raw on-chain state of a V2 pair.
type PairState struct {
	Address            common.Address
	Token0             common.Address
	Token1             common.Address
	Reserve0           *big.Int
	Reserve1           *big.Int
	TotalSupply        *big.Int
	BlockTimestampLast uint32
}

// Record converts the state to a snapshot pool record.
func (s PairState) Record() model.Pool {
	return model.Pool{
		Address:            AddressID(s.Address),
		Token0:             AddressID(s.Token0),
		Token1:             AddressID(s.Token1),
		Reserve0:           s.Reserve0.String(),
		Reserve1:           s.Reserve1.String(),
		TotalSupply:        s.TotalSupply.String(),
		BlockTimestampLast: s.BlockTimestampLast,
	}
}

// FetchPair reads token0, token1, getReserves and totalSupply at block.
// A nil block reads the latest state.
func FetchPair(ctx context.Context, caller Caller, pair common.Address, block *big.Int) (PairState, error) {
	if caller == nil {
		return PairState{}, fmt.Errorf("chain caller is nil")
	}
	pairABI, err := V2PairABI()
	if err != nil {
		return PairState{}, fmt.Errorf("parse pair abi: %w", err)
	}

	state := PairState{Address: pair}

	values, err := callMethod(ctx, caller, pair, pairABI, "token0", block)
	if err != nil {
		return PairState{}, err
	}
	if state.Token0, err = asAddress(values[0]); err != nil {
		return PairState{}, fmt.Errorf("token0: %w", err)
	}

	values, err = callMethod(ctx, caller, pair, pairABI, "token1", block)
	if err != nil {
		return PairState{}, err
	}
	if state.Token1, err = asAddress(values[0]); err != nil {
		return PairState{}, fmt.Errorf("token1: %w", err)
	}

	values, err = callMethod(ctx, caller, pair, pairABI, "getReserves", block)
	if err != nil {
		return PairState{}, err
	}
	if len(values) < 3 {
		return PairState{}, fmt.Errorf("getReserves: expected 3 values, got %d", len(values))
	}
	if state.Reserve0, err = asBigInt(values[0]); err != nil {
		return PairState{}, fmt.Errorf("reserve0: %w", err)
	}
	if state.Reserve1, err = asBigInt(values[1]); err != nil {
		return PairState{}, fmt.Errorf("reserve1: %w", err)
	}
	ts, err := asBigInt(values[2])
	if err != nil {
		return PairState{}, fmt.Errorf("block timestamp last: %w", err)
	}
	state.BlockTimestampLast = uint32(ts.Uint64())

	values, err = callMethod(ctx, caller, pair, pairABI, "totalSupply", block)
	if err != nil {
		return PairState{}, err
	}
	if state.TotalSupply, err = asBigInt(values[0]); err != nil {
		return PairState{}, fmt.Errorf("total supply: %w", err)
	}

	return state, nil
}
