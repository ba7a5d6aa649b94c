package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Snapshot is a point-in-time view of a set of pools and their tokens.
type Snapshot struct {
	ChainID     uint64      `json:"chain_id"`
	BlockNumber uint64      `json:"block_number"`
	TakenAt     time.Time   `json:"taken_at"`
	Assets      []TokenMeta `json:"assets"`
	Pools       []Pool      `json:"pools"`
}

// UnmarshalJSON decodes a Snapshot and rejects pools that reference
// undeclared assets.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	type Alias Snapshot
	var a Alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	known := make(map[string]struct{}, len(a.Assets))
	for _, asset := range a.Assets {
		known[asset.Address] = struct{}{}
	}
	for _, pool := range a.Pools {
		for _, token := range []string{pool.Token0, pool.Token1} {
			if _, ok := known[token]; !ok {
				return fmt.Errorf("pool %s references unknown asset %s", pool.Address, token)
			}
		}
	}
	*s = Snapshot(a)
	return nil
}

// Token returns the asset record for address.
func (s Snapshot) Token(address string) (TokenMeta, bool) {
	for _, asset := range s.Assets {
		if asset.Address == address {
			return asset, true
		}
	}
	return TokenMeta{}, false
}
