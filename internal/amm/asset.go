package amm

import (
	"fmt"
	"strings"

	"liquidityQuoter/internal/amount"
)

// Asset identifies a token. Two assets are equal iff their IDs match.
type Asset struct {
	ID       string
	Decimals uint8
	Symbol   string
}

// NewAsset normalises id and validates decimals.
func NewAsset(id string, decimals uint8, symbol string) (Asset, error) {
	id = NormalizeID(id)
	if id == "" {
		return Asset{}, fmt.Errorf("asset id is required")
	}
	if decimals > amount.MaxDecimals {
		return Asset{}, fmt.Errorf("%w: asset %s has %d", amount.ErrInvalidDecimals, id, decimals)
	}
	return Asset{ID: id, Decimals: decimals, Symbol: symbol}, nil
}

// NormalizeID lowercases 0x-prefixed hex identifiers so lexicographic order
// matches numeric address order. Other identifiers are only trimmed.
func NormalizeID(id string) string {
	id = strings.TrimSpace(id)
	if len(id) > 2 && (id[:2] == "0x" || id[:2] == "0X") {
		return "0x" + strings.ToLower(id[2:])
	}
	return id
}

func (a Asset) Equal(b Asset) bool { return a.ID == b.ID }

// Less reports canonical order; the smaller asset is token0.
func (a Asset) Less(b Asset) bool { return a.ID < b.ID }

// Label returns the symbol when known, else the ID.
func (a Asset) Label() string {
	if a.Symbol != "" {
		return a.Symbol
	}
	return a.ID
}

// Zero returns a zero amount in the asset's scale.
func (a Asset) Zero() amount.Amount { return amount.Zero(a.Decimals) }

// Parse parses a human decimal string in the asset's scale.
func (a Asset) Parse(s string) (amount.Amount, error) {
	return amount.Parse(s, a.Decimals)
}

func (a Asset) String() string { return a.Label() }
