package ion

import (
	"fmt"
	"math"
	"math/big"
)

// Variable-length integers carry 7 data bits per byte, most significant
// group first. The last byte of a value has its high bit set.
const (
	varEndFlag  = 0x80
	varDataMask = 0x7F

	// The first byte of a VarInt spends one more bit on the sign.
	varIntSignFlag  = 0x40
	varIntFirstMask = 0x3F
)

// VarUintLen returns the encoded size of v as a VarUInt.
func VarUintLen(v uint64) int { return groups(v, 7) }

// VarIntLen returns the encoded size of v as a VarInt.
func VarIntLen(v int64) int { return varIntMagnitudeLen(magnitude(v)) }

func varIntMagnitudeLen(mag uint64) int {
	n := significantBits(mag)
	if n <= 6 {
		return 1
	}
	return 1 + ceilDiv(n-6, 7)
}

// AppendVarUint appends v encoded as a VarUInt to b.
func AppendVarUint(b []byte, v uint64) []byte {
	for i := VarUintLen(v) - 1; i >= 0; i-- {
		c := byte(v>>(7*uint(i))) & varDataMask
		if i == 0 {
			c |= varEndFlag
		}
		b = append(b, c)
	}
	return b
}

// AppendVarInt appends v encoded as a VarInt to b.
func AppendVarInt(b []byte, v int64) []byte {
	return appendVarIntMagnitude(b, magnitude(v), v < 0)
}

// appendVarIntMagnitude also encodes negative zero, which timestamps use
// for an unknown local offset.
func appendVarIntMagnitude(b []byte, mag uint64, neg bool) []byte {
	n := varIntMagnitudeLen(mag)
	first := byte(mag>>(7*uint(n-1))) & varIntFirstMask
	if neg {
		first |= varIntSignFlag
	}
	if n == 1 {
		return append(b, first|varEndFlag)
	}
	b = append(b, first)
	for i := n - 2; i >= 0; i-- {
		c := byte(mag>>(7*uint(i))) & varDataMask
		if i == 0 {
			c |= varEndFlag
		}
		b = append(b, c)
	}
	return b
}

// ReadVarUint decodes a VarUInt from the start of b, returning the value and
// the number of bytes consumed.
func ReadVarUint(b []byte) (uint64, int, error) {
	var v uint64
	for i, c := range b {
		if v > math.MaxUint64>>7 {
			return 0, i, fmt.Errorf("%w: VarUInt overflows 64 bits", ErrMalformedVarInt)
		}
		v = v<<7 | uint64(c&varDataMask)
		if c&varEndFlag != 0 {
			return v, i + 1, nil
		}
	}
	return 0, len(b), fmt.Errorf("%w: no end-of-value marker in %d bytes", ErrMalformedVarInt, len(b))
}

// ReadVarInt decodes a VarInt from the start of b, returning the value and
// the number of bytes consumed.
func ReadVarInt(b []byte) (int64, int, error) {
	mag, neg, n, err := readVarIntMagnitude(b)
	if err != nil {
		return 0, n, err
	}
	switch {
	case neg && mag == 1<<63:
		return math.MinInt64, n, nil
	case mag > math.MaxInt64:
		return 0, n, fmt.Errorf("%w: VarInt overflows 64 bits", ErrMalformedVarInt)
	case neg:
		return -int64(mag), n, nil
	}
	return int64(mag), n, nil
}

// readVarIntMagnitude reports the sign bit separately so that -0 survives.
func readVarIntMagnitude(b []byte) (mag uint64, neg bool, n int, err error) {
	if len(b) == 0 {
		return 0, false, 0, fmt.Errorf("%w: empty VarInt", ErrMalformedVarInt)
	}
	c := b[0]
	neg = c&varIntSignFlag != 0
	mag = uint64(c & varIntFirstMask)
	if c&varEndFlag != 0 {
		return mag, neg, 1, nil
	}
	for i := 1; i < len(b); i++ {
		if mag > math.MaxUint64>>7 {
			return 0, neg, i, fmt.Errorf("%w: VarInt overflows 64 bits", ErrMalformedVarInt)
		}
		c = b[i]
		mag = mag<<7 | uint64(c&varDataMask)
		if c&varEndFlag != 0 {
			return mag, neg, i + 1, nil
		}
	}
	return 0, neg, len(b), fmt.Errorf("%w: no end-of-value marker in %d bytes", ErrMalformedVarInt, len(b))
}

// readVarUintInt decodes a VarUInt that is about to be used as a length or
// index and therefore has to fit an int.
func readVarUintInt(b []byte) (int, int, error) {
	v, n, err := ReadVarUint(b)
	if err != nil {
		return 0, n, err
	}
	if v > math.MaxInt32 {
		return 0, n, fmt.Errorf("%w: length %d exceeds addressable range", ErrMalformedVarInt, v)
	}
	return int(v), n, nil
}

// UintLen returns the number of bytes AppendUint writes for v; zero needs none.
func UintLen(v uint64) int { return ceilDiv(significantBits(v), 8) }

// AppendUint appends v as a fixed-width big-endian unsigned integer using
// the minimal number of bytes.
func AppendUint(b []byte, v uint64) []byte {
	for i := UintLen(v) - 1; i >= 0; i-- {
		b = append(b, byte(v>>(8*uint(i))))
	}
	return b
}

// ReadUint decodes a fixed-width big-endian unsigned integer occupying all of b.
func ReadUint(b []byte) (uint64, error) {
	var v uint64
	for _, c := range b {
		if v > math.MaxUint64>>8 {
			return 0, fmt.Errorf("%w: UInt of %d bytes overflows 64 bits", ErrMalformedBinary, len(b))
		}
		v = v<<8 | uint64(c)
	}
	return v, nil
}

// BigIntLen returns the number of bytes AppendBigInt writes for v.
func BigIntLen(v *big.Int) int {
	if v == nil || v.Sign() == 0 {
		return 0
	}
	bitLen := v.BitLen()
	// One extra byte when the magnitude already uses the sign bit position.
	return bitLen/8 + 1
}

// AppendBigInt appends v as a sign-magnitude integer: big-endian magnitude
// with the sign in the top bit of the first byte. Zero is written as no bytes.
func AppendBigInt(b []byte, v *big.Int) []byte {
	if v == nil || v.Sign() == 0 {
		return b
	}
	return appendSignMagnitude(b, v.Bytes(), v.Sign() < 0)
}

func appendSignMagnitude(b, mag []byte, neg bool) []byte {
	if len(mag) == 0 {
		if neg {
			return append(b, 0x80)
		}
		return b
	}
	start := len(b)
	if mag[0]&0x80 != 0 {
		b = append(b, 0)
	}
	b = append(b, mag...)
	if neg {
		b[start] |= 0x80
	}
	return b
}

// ReadBigInt decodes a sign-magnitude integer occupying all of b. neg reports
// the sign bit so that negative zero can be told apart from zero.
func ReadBigInt(b []byte) (v *big.Int, neg bool) {
	v = new(big.Int)
	if len(b) == 0 {
		return v, false
	}
	neg = b[0]&0x80 != 0
	mag := make([]byte, len(b))
	copy(mag, b)
	mag[0] &= 0x7F
	v.SetBytes(mag)
	if neg {
		v.Neg(v)
	}
	return v, neg
}
