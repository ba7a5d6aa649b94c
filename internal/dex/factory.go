package dex

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// GetPair asks the factory for the pair of (a, b). ok is false when none exists.
func GetPair(ctx context.Context, caller Caller, factory, a, b common.Address) (common.Address, bool, error) {
	factoryABI, err := V2FactoryABI()
	if err != nil {
		return common.Address{}, false, fmt.Errorf("parse factory abi: %w", err)
	}
	values, err := callMethod(ctx, caller, factory, factoryABI, "getPair", nil, a, b)
	if err != nil {
		return common.Address{}, false, err
	}
	pair, err := asAddress(values[0])
	if err != nil {
		return common.Address{}, false, fmt.Errorf("getPair: %w", err)
	}
	return pair, pair != (common.Address{}), nil
}

// DiscoverPairs returns the existing pairs among every combination of tokens,
// in combination order.
func DiscoverPairs(ctx context.Context, caller Caller, factory common.Address, tokens []common.Address) ([]common.Address, error) {
	var pairs []common.Address
	for i := 0; i < len(tokens); i++ {
		for j := i + 1; j < len(tokens); j++ {
			pair, ok, err := GetPair(ctx, caller, factory, tokens[i], tokens[j])
			if err != nil {
				return nil, fmt.Errorf("get pair %s/%s: %w", tokens[i].Hex(), tokens[j].Hex(), err)
			}
			if ok {
				pairs = append(pairs, pair)
			}
		}
	}
	return pairs, nil
}

// AllPairsLength returns the number of pairs the factory has created.
func AllPairsLength(ctx context.Context, caller Caller, factory common.Address) (uint64, error) {
	factoryABI, err := V2FactoryABI()
	if err != nil {
		return 0, fmt.Errorf("parse factory abi: %w", err)
	}
	values, err := callMethod(ctx, caller, factory, factoryABI, "allPairsLength", nil)
	if err != nil {
		return 0, err
	}
	n, err := asBigInt(values[0])
	if err != nil {
		return 0, fmt.Errorf("allPairsLength: %w", err)
	}
	if !n.IsUint64() {
		return 0, fmt.Errorf("allPairsLength overflows uint64: %s", n)
	}
	return n.Uint64(), nil
}

// PairAt returns the factory's pair at index.
func PairAt(ctx context.Context, caller Caller, factory common.Address, index uint64) (common.Address, error) {
	factoryABI, err := V2FactoryABI()
	if err != nil {
		return common.Address{}, fmt.Errorf("parse factory abi: %w", err)
	}
	values, err := callMethod(ctx, caller, factory, factoryABI, "allPairs", nil, new(big.Int).SetUint64(index))
	if err != nil {
		return common.Address{}, err
	}
	return asAddress(values[0])
}
