package ion

import (
	"fmt"
	"io"
	"math"
	"math/big"
	"strings"
)

// Decimal is an arbitrary-precision decimal: coefficient * 10^exponent.
// Precision is significant, so 1.0 (10d-1) and 1.00 (100d-2) are different
// values. Negative zero is representable.
//
// The zero Decimal is 0d0.
type Decimal struct {
	coef    *big.Int
	exp     int32
	negZero bool
}

var _ Codec = (*Decimal)(nil)

// NewDecimal returns coef * 10^exp. coef is copied.
func NewDecimal(coef *big.Int, exp int32) Decimal {
	d := Decimal{exp: exp}
	if coef != nil && coef.Sign() != 0 {
		d.coef = new(big.Int).Set(coef)
	}
	return d
}

// NewDecimalInt returns v as a decimal with exponent 0.
func NewDecimalInt(v int64) Decimal {
	return NewDecimal(big.NewInt(v), 0)
}

// ParseDecimal parses forms such as "12.50", "-0.0", "1.5d-3" and "7e2".
// The exponent marker may be d, D, e or E.
func ParseDecimal(s string) (Decimal, error) {
	orig := s
	var neg bool
	switch {
	case strings.HasPrefix(s, "-"):
		neg, s = true, s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}

	var exp int64
	if i := strings.IndexAny(s, "dDeE"); i >= 0 {
		var err error
		exp, err = parseExponent(s[i+1:])
		if err != nil {
			return Decimal{}, fmt.Errorf("ion: invalid decimal %q: %w", orig, err)
		}
		s = s[:i]
	}

	digits := s
	if i := strings.IndexByte(s, '.'); i >= 0 {
		digits = s[:i] + s[i+1:]
		exp -= int64(len(s) - i - 1)
	}
	if digits == "" || strings.Trim(digits, "0123456789") != "" {
		return Decimal{}, fmt.Errorf("ion: invalid decimal %q", orig)
	}
	if exp < math.MinInt32 || exp > math.MaxInt32 {
		return Decimal{}, fmt.Errorf("ion: decimal exponent out of range in %q", orig)
	}

	coef, ok := new(big.Int).SetString(digits, 10)
	if !ok {
		return Decimal{}, fmt.Errorf("ion: invalid decimal %q", orig)
	}
	if neg {
		coef.Neg(coef)
	}
	d := NewDecimal(coef, int32(exp))
	d.negZero = neg && coef.Sign() == 0
	return d, nil
}

func parseExponent(s string) (int64, error) {
	var v big.Int
	if _, ok := v.SetString(strings.TrimPrefix(s, "+"), 10); !ok || !v.IsInt64() {
		return 0, fmt.Errorf("bad exponent %q", s)
	}
	return v.Int64(), nil
}

// Coefficient returns a copy of the coefficient.
func (d Decimal) Coefficient() *big.Int {
	if d.coef == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(d.coef)
}

func (d Decimal) Exponent() int32 { return d.exp }

// IsNegativeZero reports whether d is a zero with its sign bit set.
func (d Decimal) IsNegativeZero() bool { return d.negZero }

// Sign returns -1, 0 or +1; negative zero reports 0.
func (d Decimal) Sign() int {
	if d.coef == nil {
		return 0
	}
	return d.coef.Sign()
}

// Equal reports whether d and o have the same coefficient, exponent and sign.
func (d Decimal) Equal(o Decimal) bool {
	return d.exp == o.exp && d.negZero == o.negZero && d.Coefficient().Cmp(o.Coefficient()) == 0
}

// Rat returns the exact numeric value of d.
func (d Decimal) Rat() *big.Rat {
	r := new(big.Rat).SetInt(d.Coefficient())
	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(abs32(d.exp))), nil)
	if d.exp >= 0 {
		return r.Mul(r, new(big.Rat).SetInt(scale))
	}
	return r.Quo(r, new(big.Rat).SetInt(scale))
}

func abs32(v int32) int64 {
	if v < 0 {
		return -int64(v)
	}
	return int64(v)
}

// String formats d as <coefficient>d<exponent>, e.g. 12345d-2.
func (d Decimal) String() string {
	coef := d.Coefficient().String()
	if d.negZero {
		coef = "-0"
	}
	return fmt.Sprintf("%sd%d", coef, d.exp)
}

// isZeroZero reports whether d is 0d0, which is encoded with an empty payload.
func (d Decimal) isZeroZero() bool {
	return d.exp == 0 && !d.negZero && d.Sign() == 0
}

// Size returns the payload size: VarInt exponent followed by Int coefficient.
func (d Decimal) Size() int {
	if d.isZeroZero() {
		return 0
	}
	n := VarIntLen(int64(d.exp))
	if d.negZero {
		return n + 1
	}
	return n + BigIntLen(d.coef)
}

func (d Decimal) appendPayload(b []byte) []byte {
	if d.isZeroZero() {
		return b
	}
	b = AppendVarInt(b, int64(d.exp))
	if d.negZero {
		return append(b, 0x80)
	}
	return AppendBigInt(b, d.coef)
}

func (d Decimal) MarshalBinary() ([]byte, error) { return marshalPayload(d) }
func (d Decimal) MarshalTo(p []byte) (int, error) { return marshalPayloadTo(d, p) }
func (d Decimal) WriteTo(w io.Writer) (int64, error) { return writePayloadTo(d, w) }
func (d *Decimal) ReadFrom(r io.Reader) (int64, error) { return readPayloadFrom(d, r) }

// UnmarshalBinary decodes a decimal payload occupying all of data.
func (d *Decimal) UnmarshalBinary(data []byte) error {
	if len(data) == 0 {
		*d = Decimal{}
		return nil
	}
	exp, n, err := ReadVarInt(data)
	if err != nil {
		return err
	}
	if exp < math.MinInt32 || exp > math.MaxInt32 {
		return fmt.Errorf("%w: decimal exponent %d out of range", ErrMalformedBinary, exp)
	}
	coef, neg := ReadBigInt(data[n:])
	*d = NewDecimal(coef, int32(exp))
	d.negZero = neg && coef.Sign() == 0
	return nil
}
