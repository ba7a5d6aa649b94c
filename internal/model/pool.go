package model

// Pool is a constant-product pair snapshot. Amounts are raw base-unit
// integers in base 10 so no precision is lost in JSON.
type Pool struct {
	Address     string `json:"address"`
	Token0      string `json:"token0"`
	Token1      string `json:"token1"`
	Reserve0    string `json:"reserve0"`
	Reserve1    string `json:"reserve1"`
	TotalSupply string `json:"total_supply"`

	// FeeBps is nil when the source does not expose a fee; consumers apply a default.
	FeeBps             *uint32 `json:"fee_bps,omitempty"`
	// BlockTimestampLast is the pair's getReserves timestamp.
	BlockTimestampLast uint32  `json:"block_timestamp_last,omitempty"`
}
