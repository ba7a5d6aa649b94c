package model

// TokenMeta captures ERC20 metadata.
type TokenMeta struct {
	Address  string `json:"id"`
	Decimals uint8  `json:"decimals"`
	Symbol   string `json:"symbol,omitempty"`
	Name     string `json:"name,omitempty"`
}
