package amm

import (
	"fmt"
	"sort"
)

// PoolSet is an immutable index of pools keyed by canonical pair.
type PoolSet struct {
	pools  map[string]Pool
	assets map[string]Asset
	keys   []string
}

// NewPoolSet indexes pools. Two pools for the same pair, or one asset ID seen
// with two different scales, are rejected.
func NewPoolSet(pools ...Pool) (*PoolSet, error) {
	set := &PoolSet{
		pools:  make(map[string]Pool, len(pools)),
		assets: make(map[string]Asset, 2*len(pools)),
		keys:   make([]string, 0, len(pools)),
	}
	for _, p := range pools {
		key := p.Key()
		if _, ok := set.pools[key]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePool, key)
		}
		for _, asset := range []Asset{p.Asset0, p.Asset1} {
			if seen, ok := set.assets[asset.ID]; ok && seen.Decimals != asset.Decimals {
				return nil, fmt.Errorf("%w: %s has %d and %d decimals", ErrInvalidPool,
					asset.ID, seen.Decimals, asset.Decimals)
			}
			if seen, ok := set.assets[asset.ID]; ok && seen.Symbol != "" {
				continue
			}
			set.assets[asset.ID] = asset
		}
		set.pools[key] = p
		set.keys = append(set.keys, key)
	}
	sort.Strings(set.keys)
	return set, nil
}

// Lookup returns the pool for the unordered pair (a, b).
func (s *PoolSet) Lookup(a, b Asset) (Pool, bool) {
	if s == nil {
		return Pool{}, false
	}
	p, ok := s.pools[PairKey(a, b)]
	return p, ok
}

// Asset resolves an asset by ID or, failing that, by symbol. A symbol shared
// by several assets does not resolve.
func (s *PoolSet) Asset(ref string) (Asset, bool) {
	if s == nil {
		return Asset{}, false
	}
	if asset, ok := s.assets[NormalizeID(ref)]; ok {
		return asset, true
	}
	var (
		found Asset
		n     int
	)
	for _, asset := range s.assets {
		if asset.Symbol != "" && asset.Symbol == ref {
			found = asset
			n++
		}
	}
	return found, n == 1
}

// Pools returns the pools ordered by pair key.
func (s *PoolSet) Pools() []Pool {
	if s == nil {
		return nil
	}
	out := make([]Pool, 0, len(s.keys))
	for _, key := range s.keys {
		out = append(out, s.pools[key])
	}
	return out
}

func (s *PoolSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.keys)
}
