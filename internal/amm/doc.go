// Package amm prices swaps and liquidity operations against constant-product
// pool snapshots, with rounding that matches a Uniswap V2 style ledger.
//
// Every function is a pure computation over its arguments. Pools are values
// supplied by the caller; nothing here performs I/O or keeps state.
package amm
