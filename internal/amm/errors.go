package amm

import (
	"errors"

	"liquidityQuoter/internal/amount"
)

var (
	ErrZeroReserves       = errors.New("pool has zero reserves")
	ErrZeroInput          = errors.New("input amount is zero")
	ErrInsufficientAmount = errors.New("insufficient amount")
	ErrInsufficientShares = errors.New("insufficient shares")
	ErrUnknownAsset       = errors.New("asset not in pool")
	ErrNoRouteFound       = errors.New("no route found")
	ErrInvalidTolerance   = errors.New("tolerance out of range")
	// ErrOverflow aliases the amount package sentinel so a single errors.Is covers both layers.
	ErrOverflow = amount.ErrOverflow

	ErrSameAsset     = errors.New("identical assets")
	ErrScaleMismatch = amount.ErrScaleMismatch
	ErrInvalidFee    = errors.New("fee out of range")
	ErrInvalidPool   = errors.New("invalid pool state")
	ErrInvalidRoute  = errors.New("invalid route")
	ErrDuplicatePool = errors.New("duplicate pool")
	// ErrInsufficientLiquidity is returned when an exact-output request drains the reserve.
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
)
