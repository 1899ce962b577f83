package amount

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

// MaxBits is the widest balance an asset ledger can hold.
const MaxBits = 128

var (
	ErrOverflow       = errors.New("balance overflow")
	ErrUnderflow      = errors.New("balance underflow")
	ErrDivisionByZero = errors.New("division by zero")
	ErrInvalidAmount  = errors.New("invalid amount")
)

// Balance is an unsigned asset amount in base units. It never exceeds
// MaxBits bits; the 256-bit word leaves room for intermediate products.
type Balance struct {
	v uint256.Int
}

func Zero() Balance { return Balance{} }

func New(x uint64) Balance {
	var b Balance
	b.v.SetUint64(x)
	return b
}

// Parse reads a base-10 integer string.
func Parse(s string) (Balance, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Balance{}, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	v, err := uint256.FromDecimal(s)
	if err != nil {
		return Balance{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	if v.BitLen() > MaxBits {
		return Balance{}, fmt.Errorf("%w: %s exceeds %d bits", ErrOverflow, s, MaxBits)
	}
	return Balance{v: *v}, nil
}

func MustParse(s string) Balance {
	b, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return b
}

func fromWord(v *uint256.Int) (Balance, error) {
	if v.BitLen() > MaxBits {
		return Balance{}, ErrOverflow
	}
	return Balance{v: *v}, nil
}

func (b Balance) String() string { return b.v.Dec() }

func (b Balance) IsZero() bool { return b.v.IsZero() }

func (b Balance) Cmp(o Balance) int { return b.v.Cmp(&o.v) }

func (b Balance) Lt(o Balance) bool { return b.v.Lt(&o.v) }

func (b Balance) Gt(o Balance) bool { return b.v.Gt(&o.v) }

func (b Balance) Add(o Balance) (Balance, error) {
	sum, overflow := new(uint256.Int).AddOverflow(&b.v, &o.v)
	if overflow {
		return Balance{}, ErrOverflow
	}
	return fromWord(sum)
}

func (b Balance) Sub(o Balance) (Balance, error) {
	if b.v.Lt(&o.v) {
		return Balance{}, fmt.Errorf("%w: %s - %s", ErrUnderflow, b, o)
	}
	return Balance{v: *new(uint256.Int).Sub(&b.v, &o.v)}, nil
}

// SaturatingSub returns b-o, or zero when o > b.
func (b Balance) SaturatingSub(o Balance) Balance {
	if b.v.Lt(&o.v) {
		return Balance{}
	}
	return Balance{v: *new(uint256.Int).Sub(&b.v, &o.v)}
}

func Min(a, b Balance) Balance {
	if a.Lt(b) {
		return a
	}
	return b
}

func (b Balance) MarshalJSON() ([]byte, error) {
	return []byte(`"` + b.String() + `"`), nil
}

func (b *Balance) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" {
		*b = Balance{}
		return nil
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// Value stores balances as NUMERIC text.
func (b Balance) Value() (driver.Value, error) {
	return b.String(), nil
}

func (b *Balance) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*b = Balance{}
		return nil
	case string:
		return b.scanString(v)
	case []byte:
		return b.scanString(string(v))
	case int64:
		if v < 0 {
			return fmt.Errorf("%w: negative %d", ErrInvalidAmount, v)
		}
		*b = New(uint64(v))
		return nil
	default:
		return fmt.Errorf("amount: cannot scan %T", src)
	}
}

func (b *Balance) scanString(s string) error {
	// NUMERIC columns may come back with a zero fraction.
	if i := strings.IndexByte(s, '.'); i >= 0 && strings.Trim(s[i+1:], "0") == "" {
		s = s[:i]
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}
