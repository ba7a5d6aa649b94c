// Package amount implements exact, overflow-checked token quantities.
//
// An Amount is a raw base-unit count in [0, 2^256-1] paired with the decimal
// scale of its asset. Values are immutable; every operation returns a new Amount.
package amount

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// MaxDecimals bounds the scale accepted by constructors.
const MaxDecimals = 36

// Amount is a fixed-point token quantity.
type Amount struct {
	raw      uint256.Int
	decimals uint8
}

// Zero returns a zero amount with the given scale.
func Zero(decimals uint8) Amount {
	return Amount{decimals: decimals}
}

// FromUint64 builds an amount from a raw base-unit count.
func FromUint64(raw uint64, decimals uint8) Amount {
	a := Amount{decimals: decimals}
	a.raw.SetUint64(raw)
	return a
}

// FromRaw builds an amount from a raw base-unit count.
func FromRaw(raw *big.Int, decimals uint8) (Amount, error) {
	if err := checkDecimals(decimals); err != nil {
		return Amount{}, err
	}
	if raw == nil {
		return Zero(decimals), nil
	}
	if raw.Sign() < 0 {
		return Amount{}, fmt.Errorf("%w: %s", ErrNegative, raw)
	}
	v, overflow := uint256.FromBig(raw)
	if overflow {
		return Amount{}, fmt.Errorf("%w: %s", ErrOverflow, raw)
	}
	return Amount{raw: *v, decimals: decimals}, nil
}

// FromUint256 builds an amount from a 256-bit raw value.
func FromUint256(raw *uint256.Int, decimals uint8) (Amount, error) {
	if err := checkDecimals(decimals); err != nil {
		return Amount{}, err
	}
	a := Amount{decimals: decimals}
	if raw != nil {
		a.raw.Set(raw)
	}
	return a, nil
}

// ParseRaw parses a base-10 raw integer string such as "1500000".
func ParseRaw(s string, decimals uint8) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, fmt.Errorf("%w: empty", ErrInvalidFormat)
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	return FromRaw(v, decimals)
}

// Parse parses a human decimal string such as "1.5" into base units using the
// given scale. Digits beyond the scale are rejected, never truncated.
func Parse(s string, decimals uint8) (Amount, error) {
	if err := checkDecimals(decimals); err != nil {
		return Amount{}, err
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, fmt.Errorf("%w: empty", ErrInvalidFormat)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %q", ErrInvalidFormat, s)
	}
	if d.Sign() < 0 {
		return Amount{}, fmt.Errorf("%w: %s", ErrNegative, s)
	}
	scaled := d.Shift(int32(decimals))
	if !scaled.IsInteger() {
		return Amount{}, fmt.Errorf("%w: %s with %d decimals", ErrPrecision, s, decimals)
	}
	return FromRaw(scaled.BigInt(), decimals)
}

func checkDecimals(decimals uint8) error {
	if decimals > MaxDecimals {
		return fmt.Errorf("%w: %d > %d", ErrInvalidDecimals, decimals, MaxDecimals)
	}
	return nil
}

// Decimals returns the scale.
func (a Amount) Decimals() uint8 { return a.decimals }

// IsZero reports whether the raw value is zero.
func (a Amount) IsZero() bool { return a.raw.IsZero() }

// Big returns the raw value as a new big.Int.
func (a Amount) Big() *big.Int { return a.raw.ToBig() }

// Uint256 returns a copy of the raw value.
func (a Amount) Uint256() *uint256.Int { return a.raw.Clone() }

// Uint64 returns the raw value and whether it fits in a uint64.
func (a Amount) Uint64() (uint64, bool) {
	return a.raw.Uint64(), a.raw.IsUint64()
}

// SameScale reports whether a and b share decimals.
func (a Amount) SameScale(b Amount) bool { return a.decimals == b.decimals }

// Cmp compares raw values. Callers compare amounts of the same asset.
func (a Amount) Cmp(b Amount) int { return a.raw.Cmp(&b.raw) }

// Equal reports whether a and b have the same raw value and scale.
func (a Amount) Equal(b Amount) bool {
	return a.decimals == b.decimals && a.raw.Eq(&b.raw)
}

// Add returns a+b.
func (a Amount) Add(b Amount) (Amount, error) {
	if !a.SameScale(b) {
		return Amount{}, fmt.Errorf("%w: %d vs %d", ErrScaleMismatch, a.decimals, b.decimals)
	}
	out := Amount{decimals: a.decimals}
	if _, overflow := out.raw.AddOverflow(&a.raw, &b.raw); overflow {
		return Amount{}, fmt.Errorf("%w: %s + %s", ErrOverflow, a.RawString(), b.RawString())
	}
	return out, nil
}

// Sub returns a-b.
func (a Amount) Sub(b Amount) (Amount, error) {
	if !a.SameScale(b) {
		return Amount{}, fmt.Errorf("%w: %d vs %d", ErrScaleMismatch, a.decimals, b.decimals)
	}
	out := Amount{decimals: a.decimals}
	if _, underflow := out.raw.SubOverflow(&a.raw, &b.raw); underflow {
		return Amount{}, fmt.Errorf("%w: %s - %s", ErrNegative, a.RawString(), b.RawString())
	}
	return out, nil
}

// RawString returns the raw base-unit count in base 10.
func (a Amount) RawString() string { return a.raw.Dec() }

// String returns the human decimal form with exactly Decimals fractional digits.
func (a Amount) String() string {
	if a.decimals == 0 {
		return a.raw.Dec()
	}
	return decimal.NewFromBigInt(a.raw.ToBig(), -int32(a.decimals)).StringFixed(int32(a.decimals))
}
