package amount

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
)

// MaxDecimals keeps 10^decimals inside a 128-bit balance.
const MaxDecimals = 38

// Proportional returns floor(amount * numerator / denominator). The product is
// formed in 512 bits so no 128-bit operand combination can overflow before the
// division; only a quotient wider than MaxBits is rejected.
func Proportional(amount, numerator, denominator Balance) (Balance, error) {
	if denominator.IsZero() {
		return Balance{}, ErrDivisionByZero
	}
	z, overflow := new(uint256.Int).MulDivOverflow(&amount.v, &numerator.v, &denominator.v)
	if overflow {
		return Balance{}, ErrOverflow
	}
	return fromWord(z)
}

// OneUnit is 10^decimals base units.
func OneUnit(decimals uint8) Balance {
	if decimals > MaxDecimals {
		decimals = MaxDecimals
	}
	v := new(uint256.Int).Exp(uint256.NewInt(10), uint256.NewInt(uint64(decimals)))
	return Balance{v: *v}
}

// DustThreshold is one thousandth of a whole unit.
func DustThreshold(decimals uint8) Balance {
	if decimals < 3 {
		return Balance{}
	}
	return OneUnit(decimals - 3)
}

// FromDecimal scales a human decimal (e.g. an exchange rate "1.0731") into
// base units, truncating any digits beyond the asset precision.
func FromDecimal(d decimal.Decimal, decimals uint8) (Balance, error) {
	if d.IsNegative() {
		return Balance{}, fmt.Errorf("%w: negative %s", ErrInvalidAmount, d)
	}
	v, overflow := uint256.FromBig(d.Shift(int32(decimals)).BigInt())
	if overflow {
		return Balance{}, ErrOverflow
	}
	return fromWord(v)
}

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrNothingAvailable    = errors.New("nothing available to withdraw")
)

// InsufficientBalanceError reports the balance a request exceeded.
type InsufficientBalanceError struct {
	Requested Balance
	Available Balance
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: requested %s, available %s", e.Requested, e.Available)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// SweepDust resolves how much of available a withdrawal of requested moves.
// A request within threshold of the whole balance takes the whole balance so
// display rounding upstream never strands an unwithdrawable remainder.
func SweepDust(requested, available, threshold Balance) (Balance, error) {
	if requested.IsZero() {
		return Balance{}, fmt.Errorf("%w: zero", ErrInvalidAmount)
	}
	if available.IsZero() {
		return Balance{}, ErrNothingAvailable
	}
	var gap Balance
	if requested.Gt(available) {
		gap = requested.SaturatingSub(available)
	} else {
		gap = available.SaturatingSub(requested)
	}
	if gap.Cmp(threshold) <= 0 {
		return available, nil
	}
	if requested.Gt(available) {
		return Balance{}, &InsufficientBalanceError{Requested: requested, Available: available}
	}
	return requested, nil
}
