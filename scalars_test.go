package ion

import (
	"bytes"
	"io"
	"math/big"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecimalPayload(t *testing.T) {
	cases := []struct {
		in   string
		want []byte
		str  string
	}{
		{"0", []byte{}, "0d0"},
		{"1.5", []byte{0xC1, 0x0F}, "15d-1"},
		{"-0.0", []byte{0xC1, 0x80}, "-0d-1"},
		{"123.45", []byte{0xC2, 0x30, 0x39}, "12345d-2"},
		{"-7e2", []byte{0x82, 0x87}, "-7d2"},
		{"0d5", []byte{0x85}, "0d5"},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			d, err := ParseDecimal(c.in)
			require.NoError(t, err)
			assert.Equal(t, c.str, d.String())
			assert.Equal(t, len(c.want), d.Size())

			got, err := d.MarshalBinary()
			require.NoError(t, err)
			assert.Equal(t, c.want, got)

			var back Decimal
			require.NoError(t, back.UnmarshalBinary(got))
			assert.True(t, d.Equal(back), "round trip of %s gave %s", d, back)
		})
	}
}

func TestDecimalValues(t *testing.T) {
	d, err := ParseDecimal("123.45")
	require.NoError(t, err)
	assert.Equal(t, 0, d.Rat().Cmp(big.NewRat(2469, 20)))
	assert.Equal(t, 1, d.Sign())
	assert.EqualValues(t, -2, d.Exponent())

	a, _ := ParseDecimal("1.0")
	b, _ := ParseDecimal("1.00")
	assert.False(t, a.Equal(b), "precision is significant")
	assert.Equal(t, 0, a.Rat().Cmp(b.Rat()))

	negZero, _ := ParseDecimal("-0")
	assert.True(t, negZero.IsNegativeZero())
	assert.Zero(t, negZero.Sign())
	assert.False(t, negZero.Equal(Decimal{}))

	for _, bad := range []string{"", "-", "1.2.3", "1x", "1d", "1e99999999999"} {
		_, err := ParseDecimal(bad)
		assert.Error(t, err, "ParseDecimal(%q)", bad)
	}
}

func TestDecimalCodecInterfaces(t *testing.T) {
	d := NewDecimal(big.NewInt(-300), -3)

	buf := make([]byte, d.Size())
	n, err := d.MarshalTo(buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xC3, 0x81, 0x2C}, buf[:n])

	_, err = d.MarshalTo(make([]byte, 1))
	assert.ErrorIs(t, err, io.ErrShortBuffer)

	var out bytes.Buffer
	written, err := d.WriteTo(&out)
	require.NoError(t, err)
	assert.EqualValues(t, 3, written)

	var back Decimal
	read, err := back.ReadFrom(&out)
	require.NoError(t, err)
	assert.EqualValues(t, 3, read)
	assert.True(t, d.Equal(back))

	assert.ErrorIs(t, back.UnmarshalBinary([]byte{0x01}), ErrMalformedVarInt)
}

func TestTimestampPayload(t *testing.T) {
	utc := time.Date(2024, time.March, 15, 10, 30, 0, 123456789, time.UTC)
	east := time.Date(2024, time.March, 15, 18, 30, 0, 0, time.FixedZone("", 8*3600))

	cases := []struct {
		name string
		ts   Timestamp
		want []byte
		str  string
	}{
		{"Year", NewTimestamp(utc, TimestampPrecisionYear, true),
			[]byte{0xC0, 0x0F, 0xE8}, "2024T"},
		{"Day", NewTimestamp(utc, TimestampPrecisionDay, false),
			[]byte{0xC0, 0x0F, 0xE8, 0x83, 0x8F}, "2024-03-15"},
		{"SecondUTC", NewTimestamp(utc, TimestampPrecisionSecond, true),
			[]byte{0x80, 0x0F, 0xE8, 0x83, 0x8F, 0x8A, 0x9E, 0x80}, "2024-03-15T10:30:00Z"},
		{"MinuteWithOffset", NewTimestamp(east, TimestampPrecisionMinute, true),
			[]byte{0x03, 0xE0, 0x0F, 0xE8, 0x83, 0x8F, 0x8A, 0x9E}, "2024-03-15T18:30+08:00"},
		{"MinuteUnknownOffset", NewTimestamp(utc, TimestampPrecisionMinute, false),
			[]byte{0xC0, 0x0F, 0xE8, 0x83, 0x8F, 0x8A, 0x9E}, "2024-03-15T10:30-00:00"},
		{"Millis", NewTimestampWithFraction(utc, 3, true),
			[]byte{0x80, 0x0F, 0xE8, 0x83, 0x8F, 0x8A, 0x9E, 0x80, 0xC3, 0x7B}, "2024-03-15T10:30:00.123Z"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.str, c.ts.String())
			assert.Equal(t, len(c.want), c.ts.Size())

			got, err := c.ts.MarshalBinary()
			require.NoError(t, err)
			assert.Equal(t, c.want, got)

			var back Timestamp
			require.NoError(t, back.UnmarshalBinary(got))
			assert.True(t, c.ts.Equal(back), "round trip of %s gave %s", c.ts, back)
			assert.Equal(t, c.ts.Precision(), back.Precision())
		})
	}
}

func TestTimestampMalformed(t *testing.T) {
	cases := map[string][]byte{
		"FourComponents":   {0x80, 0x0F, 0xE8, 0x83, 0x8F, 0x8A},
		"MonthThirteen":    {0xC0, 0x0F, 0xE8, 0x8D},
		"February30":       {0xC0, 0x0F, 0xE8, 0x82, 0x9E},
		"FractionOfOne":    {0x80, 0x0F, 0xE8, 0x83, 0x8F, 0x8A, 0x9E, 0x80, 0x80, 0x01},
		"NegativeFraction": {0x80, 0x0F, 0xE8, 0x83, 0x8F, 0x8A, 0x9E, 0x80, 0xC3, 0x81},
		"OffsetTooLarge":   {0x0F, 0xFF, 0x0F, 0xE8},
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			var ts Timestamp
			assert.ErrorIs(t, ts.UnmarshalBinary(payload), ErrMalformedBinary)
		})
	}

	var ts Timestamp
	assert.ErrorIs(t, ts.UnmarshalBinary([]byte{0x80, 0x0F}), ErrMalformedVarInt)
}

func TestTimestampFractionBeyondNanos(t *testing.T) {
	// .1234567891 has ten digits; the last one is dropped.
	payload := []byte{0x80, 0x0F, 0xE8, 0x83, 0x8F, 0x8A, 0x9E, 0x80, 0xCA}
	payload = AppendBigInt(payload, big.NewInt(1234567891))

	var ts Timestamp
	require.NoError(t, ts.UnmarshalBinary(payload))
	assert.Equal(t, TimestampPrecisionFraction, ts.Precision())
	assert.EqualValues(t, 9, ts.FractionDigits())
	assert.Equal(t, 123456789, ts.Time().Nanosecond())
}

func TestTimestampHugeFractionExponent(t *testing.T) {
	// 2000-01-01T00:00:00Z followed by a fraction exponent and coefficient 1.
	base := []byte{0x80, 0x0F, 0xD0, 0x81, 0x81, 0x80, 0x80, 0x80}
	cases := map[string][]byte{
		"ExponentOf4Bytes": {0x7F, 0x7F, 0x7F, 0xFF, 0x01},
		"ExponentOf5Bytes": {0x7F, 0x7F, 0x7F, 0x7F, 0xFF, 0x01},
		"ZeroCoefficient":  {0x7F, 0x7F, 0x7F, 0xFF},
	}
	for name, fraction := range cases {
		t.Run(name, func(t *testing.T) {
			var ts Timestamp
			require.NoError(t, ts.UnmarshalBinary(append(append([]byte{}, base...), fraction...)))
			assert.Equal(t, TimestampPrecisionFraction, ts.Precision())
			assert.EqualValues(t, 9, ts.FractionDigits())
			assert.Zero(t, ts.Time().Nanosecond())
		})
	}

	// Just past the coefficient's digits the power of ten is still computed.
	payload := append(append([]byte{}, base...), 0xCB)
	payload = AppendBigInt(payload, big.NewInt(12))
	var ts Timestamp
	require.NoError(t, ts.UnmarshalBinary(payload))
	assert.Zero(t, ts.Time().Nanosecond())
}

func TestTimestampYearOutOfRange(t *testing.T) {
	for _, year := range []int{0, 10000} {
		ts := NewTimestamp(time.Date(year, time.June, 1, 0, 0, 0, 0, time.UTC), TimestampPrecisionDay, false)
		_, err := ts.MarshalBinary()
		assert.ErrorIs(t, err, ErrOverflow, "year %d", year)
		_, err = ts.MarshalTo(make([]byte, 16))
		assert.ErrorIs(t, err, ErrOverflow, "year %d", year)
	}

	// Year 1 at +01:00 is year 0 in UTC, which is what gets encoded.
	east := time.Date(1, time.January, 1, 0, 30, 0, 0, time.FixedZone("", 3600))
	_, err := NewTimestamp(east, TimestampPrecisionMinute, true).MarshalBinary()
	assert.ErrorIs(t, err, ErrOverflow)

	var out bytes.Buffer
	_, err = NewTimestamp(time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC), TimestampPrecisionDay, false).WriteTo(&out)
	assert.NoError(t, err)
}
