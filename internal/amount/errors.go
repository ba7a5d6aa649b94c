package amount

import "errors"

var (
	// ErrOverflow is returned when a raw value does not fit in 256 bits.
	ErrOverflow = errors.New("amount overflow")
	// ErrNegative is returned for negative inputs or a subtraction below zero.
	ErrNegative = errors.New("negative amount")
	// ErrScaleMismatch is returned when two amounts with different decimals are combined.
	ErrScaleMismatch = errors.New("decimals mismatch")
	// ErrPrecision is returned when a decimal string has more fractional digits than the scale allows.
	ErrPrecision = errors.New("too many fractional digits")
	ErrInvalidFormat   = errors.New("invalid amount format")
	ErrInvalidDecimals = errors.New("invalid decimals")
	ErrDivisionByZero  = errors.New("division by zero")
)
