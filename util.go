package ion

import (
	"io"
	"math/bits"

	"golang.org/x/exp/constraints"
)

// ceilDiv divides n by d rounding up.
func ceilDiv[T constraints.Integer](n, d T) T { return (n + d - 1) / d }

// significantBits returns the number of bits needed to hold v; zero needs none.
func significantBits[T constraints.Unsigned](v T) int { return bits.Len64(uint64(v)) }

// groups returns how many width-bit groups are needed to hold v, never fewer than one.
func groups[T constraints.Unsigned](v T, width int) int {
	n := significantBits(v)
	if n == 0 {
		return 1
	}
	return ceilDiv(n, width)
}

// magnitude returns the absolute value of v as an unsigned integer.
// It is exact for math.MinInt64.
func magnitude[T constraints.Signed](v T) uint64 {
	if v < 0 {
		return uint64(-(int64(v) + 1)) + 1
	}
	return uint64(v)
}

// readAll drains r into a freshly allocated slice, going through a pooled
// buffer so that short-lived readers do not grow a new buffer each time.
func readAll(r io.Reader) ([]byte, error) {
	buf := getBuffer()
	defer putBuffer(buf)

	if _, err := buf.ReadFrom(r); err != nil {
		return nil, err
	}
	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return out, nil
}
