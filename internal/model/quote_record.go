package model

import "time"

// QuoteRecord is one line of the quote log.
type QuoteRecord struct {
	Kind           string    `json:"kind"`
	ChainID        uint64    `json:"chain_id,omitempty"`
	BlockNumber    uint64    `json:"block_number,omitempty"`
	Route          []string  `json:"route,omitempty"`
	Pools          []string  `json:"pools,omitempty"`
	AmountIn       string    `json:"amount_in,omitempty"`
	AmountOut      string    `json:"amount_out,omitempty"`
	HopAmounts     []string  `json:"hop_amounts,omitempty"`
	PriceImpactBps *uint32   `json:"price_impact_bps,omitempty"`
	HopImpactBps   []uint32  `json:"hop_impact_bps,omitempty"`
	ToleranceBps   uint32    `json:"tolerance_bps"`
	MinimumOutput  string    `json:"minimum_output,omitempty"`
	MaximumInput   string    `json:"maximum_input,omitempty"`
	// MinimumAmounts and MaximumAmounts bound each leg of a deposit or withdrawal.
	MinimumAmounts []string  `json:"minimum_amounts,omitempty"`
	MaximumAmounts []string  `json:"maximum_amounts,omitempty"`
	Shares         string    `json:"shares,omitempty"`
	QuotedAt       time.Time `json:"quoted_at"`
}

const (
	QuoteKindExactIn  = "exact_in"
	QuoteKindExactOut = "exact_out"
	QuoteKindDeposit  = "deposit"
	QuoteKindWithdraw = "withdraw"
)
