package amount

import (
	"fmt"

	"github.com/holiman/uint256"
)

// Rounding selects the direction of an integer division.
type Rounding int

const (
	// Floor truncates towards zero. Pool-side results always floor.
	Floor Rounding = iota
	// Ceil rounds up. Used only for caller-side upper bounds.
	Ceil
)

func (r Rounding) String() string {
	if r == Ceil {
		return "ceil"
	}
	return "floor"
}

// MulDiv computes x*y/d with a 512-bit intermediate product.
func MulDiv(x, y, d *uint256.Int, rounding Rounding) (*uint256.Int, error) {
	if d.IsZero() {
		return nil, ErrDivisionByZero
	}
	z, overflow := new(uint256.Int).MulDivOverflow(x, y, d)
	if overflow {
		return nil, fmt.Errorf("%w: %s * %s / %s", ErrOverflow, x.Dec(), y.Dec(), d.Dec())
	}
	if rounding == Ceil && !new(uint256.Int).MulMod(x, y, d).IsZero() {
		if _, carry := z.AddOverflow(z, uint256.NewInt(1)); carry {
			return nil, fmt.Errorf("%w: ceil(%s * %s / %s)", ErrOverflow, x.Dec(), y.Dec(), d.Dec())
		}
	}
	return z, nil
}

// MulRatio returns a*num/den in the scale of a. num and den must share a
// scale so the ratio is dimensionless.
func (a Amount) MulRatio(num, den Amount, rounding Rounding) (Amount, error) {
	if !num.SameScale(den) {
		return Amount{}, fmt.Errorf("%w: ratio %d/%d", ErrScaleMismatch, num.decimals, den.decimals)
	}
	z, err := MulDiv(&a.raw, &num.raw, &den.raw, rounding)
	if err != nil {
		return Amount{}, err
	}
	return Amount{raw: *z, decimals: a.decimals}, nil
}

// MulRatioUint64 returns a*num/den in the scale of a.
func (a Amount) MulRatioUint64(num, den uint64, rounding Rounding) (Amount, error) {
	z, err := MulDiv(&a.raw, uint256.NewInt(num), uint256.NewInt(den), rounding)
	if err != nil {
		return Amount{}, err
	}
	return Amount{raw: *z, decimals: a.decimals}, nil
}
