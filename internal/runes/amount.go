package runes

import (
	"encoding/json"
	"fmt"

	"github.com/holiman/uint256"
)

// Amount is a non-negative rune balance. The protocol specifies 128-bit
// amounts; we carry them in a 256-bit fixed-width integer (uint256.Int) to
// get overflow-checked arithmetic without math/big allocation churn, same
// as the teacher's use of holiman/uint256 for balance-like fields.
type Amount struct {
	v uint256.Int
}

// NewAmount builds an Amount from a uint64, the common case for mint terms
// and edict literals within a single transaction.
func NewAmount(n uint64) Amount {
	var a Amount
	a.v.SetUint64(n)
	return a
}

// MaxAmount is the largest representable rune amount (2^128 - 1), the
// protocol's u128 ceiling.
func MaxAmount() Amount {
	var a Amount
	a.v.SetAllOne()
	a.v.Rsh(&a.v, 128)
	return a
}

func (a Amount) IsZero() bool { return a.v.IsZero() }

// Add returns a+b and false if the result would exceed the u128 range.
func (a Amount) Add(b Amount) (Amount, bool) {
	var sum uint256.Int
	overflow := sum.AddOverflow(&a.v, &b.v)
	if overflow || sum.BitLen() > 128 {
		return Amount{}, false
	}
	return Amount{v: sum}, true
}

// Sub returns a-b and false if b > a.
func (a Amount) Sub(b Amount) (Amount, bool) {
	if a.v.Lt(&b.v) {
		return Amount{}, false
	}
	var diff uint256.Int
	diff.Sub(&a.v, &b.v)
	return Amount{v: diff}, true
}

func (a Amount) Cmp(b Amount) int { return a.v.Cmp(&b.v) }
func (a Amount) LessThan(b Amount) bool { return a.v.Lt(&b.v) }
func (a Amount) GreaterThan(b Amount) bool { return a.v.Gt(&b.v) }

// Mul returns a*b and false on overflow past the u128 range.
func (a Amount) Mul(b Amount) (Amount, bool) {
	var prod uint256.Int
	overflow := prod.MulOverflow(&a.v, &b.v)
	if overflow || prod.BitLen() > 128 {
		return Amount{}, false
	}
	return Amount{v: prod}, true
}

func (a Amount) String() string { return a.v.Dec() }

// div divides a by n, truncating. Used only for splitting an edict's pool
// amount evenly across multiple outputs; n == 0 returns a unchanged.
func (a Amount) div(n uint64) (Amount, bool) {
	if n == 0 {
		return a, false
	}
	var divisor, quotient uint256.Int
	divisor.SetUint64(n)
	quotient.Div(&a.v, &divisor)
	return Amount{v: quotient}, true
}

// AmountFromDecimal parses a base-10 string into an Amount.
func AmountFromDecimal(s string) (Amount, error) {
	v, overflow := uint256.FromDecimal(s)
	if overflow {
		return Amount{}, fmt.Errorf("amount %q overflows u128 range", s)
	}
	if v.BitLen() > 128 {
		return Amount{}, fmt.Errorf("amount %q exceeds u128 range", s)
	}
	return Amount{v: *v}, nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.v.Dec())
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := AmountFromDecimal(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Bytes16 renders the amount as a big-endian 16-byte array, the on-disk
// encoding used by the KV store for balance values.
func (a Amount) Bytes16() [16]byte {
	var out [16]byte
	b := a.v.Bytes32()
	copy(out[:], b[16:])
	return out
}

// AmountFromBytes16 is the inverse of Bytes16.
func AmountFromBytes16(b [16]byte) Amount {
	var full [32]byte
	copy(full[16:], b[:])
	var a Amount
	a.v.SetBytes32(full[:])
	return a
}

// RuneAmount pairs a rune identifier with a balance, the element type of
// outpoint balance lists and edict allocations (mirrors
// types-core/src/rune_amount.rs's RuneAmount).
type RuneAmount struct {
	RuneId Id     `json:"rune_id"`
	Amount Amount `json:"amount"`
}
