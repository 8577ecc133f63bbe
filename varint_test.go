package ion

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVarUintEncoding(t *testing.T) {
	cases := []struct {
		v    uint64
		want []byte
	}{
		{0, []byte{0x80}},
		{1, []byte{0x81}},
		{127, []byte{0xFF}},
		{128, []byte{0x01, 0x80}},
		{300, []byte{0x02, 0xAC}},
		{16383, []byte{0x7F, 0xFF}},
		{16384, []byte{0x01, 0x00, 0x80}},
	}
	for _, c := range cases {
		got := AppendVarUint(nil, c.v)
		assert.Equal(t, c.want, got, "AppendVarUint(%d)", c.v)
		assert.Equal(t, len(c.want), VarUintLen(c.v), "VarUintLen(%d)", c.v)

		v, n, err := ReadVarUint(c.want)
		require.NoError(t, err)
		assert.Equal(t, c.v, v)
		assert.Equal(t, len(c.want), n)
	}
}

func TestVarIntEncoding(t *testing.T) {
	cases := []struct {
		v    int64
		want []byte
	}{
		{0, []byte{0x80}},
		{1, []byte{0x81}},
		{-1, []byte{0xC1}},
		{63, []byte{0xBF}},
		{-63, []byte{0xFF}},
		{64, []byte{0x00, 0xC0}},
		{-64, []byte{0x40, 0xC0}},
		{8191, []byte{0x3F, 0xFF}},
		{8192, []byte{0x00, 0x40, 0x80}},
	}
	for _, c := range cases {
		got := AppendVarInt(nil, c.v)
		assert.Equal(t, c.want, got, "AppendVarInt(%d)", c.v)
		assert.Equal(t, len(c.want), VarIntLen(c.v), "VarIntLen(%d)", c.v)

		v, n, err := ReadVarInt(c.want)
		require.NoError(t, err)
		assert.Equal(t, c.v, v)
		assert.Equal(t, len(c.want), n)
	}
}

func TestVarIntRoundTrip(t *testing.T) {
	values := []int64{math.MinInt64, math.MinInt64 + 1, -1 << 40, -12345, -1, 0, 1, 12345, 1 << 40, math.MaxInt64}
	for _, v := range values {
		b := AppendVarInt(nil, v)
		got, n, err := ReadVarInt(b)
		require.NoError(t, err, "value %d", v)
		assert.Equal(t, v, got)
		assert.Equal(t, len(b), n)
	}

	unsigned := []uint64{0, 1, 127, 128, 1 << 32, math.MaxInt64, math.MaxUint64}
	for _, v := range unsigned {
		b := AppendVarUint(nil, v)
		got, n, err := ReadVarUint(b)
		require.NoError(t, err, "value %d", v)
		assert.Equal(t, v, got)
		assert.Equal(t, len(b), n)
	}
}

func TestVarIntNegativeZero(t *testing.T) {
	b := appendVarIntMagnitude(nil, 0, true)
	assert.Equal(t, []byte{0xC0}, b)

	mag, neg, n, err := readVarIntMagnitude(b)
	require.NoError(t, err)
	assert.Zero(t, mag)
	assert.True(t, neg)
	assert.Equal(t, 1, n)
}

func TestVarIntMalformed(t *testing.T) {
	t.Run("Truncated", func(t *testing.T) {
		_, _, err := ReadVarUint([]byte{0x01, 0x02})
		assert.ErrorIs(t, err, ErrMalformedVarInt)

		_, _, err = ReadVarInt([]byte{0x01})
		assert.ErrorIs(t, err, ErrMalformedVarInt)

		_, _, err = ReadVarInt(nil)
		assert.ErrorIs(t, err, ErrMalformedVarInt)
	})

	t.Run("Overflow", func(t *testing.T) {
		b := []byte{0x7F, 0x7F, 0x7F, 0x7F, 0x7F, 0x7F, 0x7F, 0x7F, 0x7F, 0x7F, 0xFF}
		_, _, err := ReadVarUint(b)
		assert.ErrorIs(t, err, ErrMalformedVarInt)
	})

	t.Run("LengthBeyondInt32", func(t *testing.T) {
		_, _, err := readVarUintInt(AppendVarUint(nil, math.MaxInt32+1))
		assert.ErrorIs(t, err, ErrMalformedVarInt)
	})
}

func TestUint(t *testing.T) {
	assert.Equal(t, 0, UintLen(0))
	assert.Empty(t, AppendUint(nil, 0))
	assert.Equal(t, []byte{0x01, 0x00}, AppendUint(nil, 256))
	assert.Equal(t, 8, UintLen(math.MaxUint64))

	v, err := ReadUint([]byte{0x12, 0x34})
	require.NoError(t, err)
	assert.Equal(t, uint64(0x1234), v)

	_, err = ReadUint(make([]byte, 9))
	assert.NoError(t, err, "leading zero bytes do not overflow")

	_, err = ReadUint([]byte{1, 0, 0, 0, 0, 0, 0, 0, 0})
	assert.ErrorIs(t, err, ErrMalformedBinary)
}

func TestBigIntSignMagnitude(t *testing.T) {
	cases := []struct {
		v    int64
		want []byte
	}{
		{0, nil},
		{1, []byte{0x01}},
		{-1, []byte{0x81}},
		{127, []byte{0x7F}},
		{128, []byte{0x00, 0x80}},
		{-128, []byte{0x80, 0x80}},
		{-300, []byte{0x81, 0x2C}},
	}
	for _, c := range cases {
		v := big.NewInt(c.v)
		got := AppendBigInt(nil, v)
		assert.Equal(t, c.want, got, "AppendBigInt(%d)", c.v)
		assert.Equal(t, len(c.want), BigIntLen(v), "BigIntLen(%d)", c.v)

		back, neg := ReadBigInt(got)
		assert.Equal(t, 0, back.Cmp(v), "ReadBigInt(% x) = %s", got, back)
		assert.Equal(t, c.v < 0, neg)
	}

	back, neg := ReadBigInt([]byte{0x80})
	assert.Zero(t, back.Sign())
	assert.True(t, neg, "0x80 is negative zero")
}
