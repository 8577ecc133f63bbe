package ion

import (
	"fmt"
	"io"
	"math/big"
	"time"
)

// TimestampPrecision is the most specific component a timestamp carries.
type TimestampPrecision uint8

const (
	TimestampPrecisionYear TimestampPrecision = iota + 1
	TimestampPrecisionMonth
	TimestampPrecisionDay
	TimestampPrecisionMinute
	TimestampPrecisionSecond
	TimestampPrecisionFraction
)

func (p TimestampPrecision) String() string {
	switch p {
	case TimestampPrecisionYear:
		return "year"
	case TimestampPrecisionMonth:
		return "month"
	case TimestampPrecisionDay:
		return "day"
	case TimestampPrecisionMinute:
		return "minute"
	case TimestampPrecisionSecond:
		return "second"
	case TimestampPrecisionFraction:
		return "fraction"
	}
	return "unknown"
}

const maxFractionDigits = 9

// Timestamp is a point in time with an explicit precision and an optional
// local offset. Timestamps coarser than minute precision never carry an offset.
type Timestamp struct {
	t              time.Time
	precision      TimestampPrecision
	offsetKnown    bool
	fractionDigits uint8
}

var _ Codec = (*Timestamp)(nil)

// NewTimestamp returns a timestamp of t truncated to precision. When
// offsetKnown is false the offset is recorded as unknown (-00:00) and t is
// interpreted as UTC. For TimestampPrecisionFraction use NewTimestampWithFraction.
func NewTimestamp(t time.Time, precision TimestampPrecision, offsetKnown bool) Timestamp {
	if precision == TimestampPrecisionFraction {
		return NewTimestampWithFraction(t, maxFractionDigits, offsetKnown)
	}
	return newTimestamp(t, precision, offsetKnown, 0)
}

// NewTimestampWithFraction returns a timestamp with digits (1-9) of fractional seconds.
func NewTimestampWithFraction(t time.Time, digits uint8, offsetKnown bool) Timestamp {
	if digits == 0 {
		return newTimestamp(t, TimestampPrecisionSecond, offsetKnown, 0)
	}
	if digits > maxFractionDigits {
		digits = maxFractionDigits
	}
	return newTimestamp(t, TimestampPrecisionFraction, offsetKnown, digits)
}

func newTimestamp(t time.Time, precision TimestampPrecision, offsetKnown bool, digits uint8) Timestamp {
	if precision < TimestampPrecisionMinute {
		offsetKnown = false
	}
	if !offsetKnown {
		t = time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	}
	y, mo, d := t.Date()
	switch precision {
	case TimestampPrecisionYear:
		t = time.Date(y, time.January, 1, 0, 0, 0, 0, t.Location())
	case TimestampPrecisionMonth:
		t = time.Date(y, mo, 1, 0, 0, 0, 0, t.Location())
	case TimestampPrecisionDay:
		t = time.Date(y, mo, d, 0, 0, 0, 0, t.Location())
	case TimestampPrecisionMinute:
		t = t.Truncate(time.Minute)
	case TimestampPrecisionSecond:
		t = t.Truncate(time.Second)
	case TimestampPrecisionFraction:
		t = t.Truncate(time.Duration(pow10(maxFractionDigits - int(digits))))
	}
	return Timestamp{t: t, precision: precision, offsetKnown: offsetKnown, fractionDigits: digits}
}

func pow10(n int) int64 {
	v := int64(1)
	for ; n > 0; n-- {
		v *= 10
	}
	return v
}

// Time returns the timestamp as a time.Time in its local offset (UTC when unknown).
func (ts Timestamp) Time() time.Time { return ts.t }

func (ts Timestamp) Precision() TimestampPrecision { return ts.precision }

// OffsetKnown reports whether the local offset is known.
func (ts Timestamp) OffsetKnown() bool { return ts.offsetKnown }

func (ts Timestamp) FractionDigits() uint8 { return ts.fractionDigits }

// Equal reports whether ts and o denote the same instant with the same
// precision and offset.
func (ts Timestamp) Equal(o Timestamp) bool {
	if ts.precision != o.precision || ts.offsetKnown != o.offsetKnown || ts.fractionDigits != o.fractionDigits {
		return false
	}
	_, a := ts.t.Zone()
	_, b := o.t.Zone()
	return ts.t.Equal(o.t) && a == b
}

func (ts Timestamp) String() string {
	switch ts.precision {
	case TimestampPrecisionYear:
		return ts.t.Format("2006T")
	case TimestampPrecisionMonth:
		return ts.t.Format("2006-01T")
	case TimestampPrecisionDay:
		return ts.t.Format("2006-01-02")
	}
	layout := "2006-01-02T15:04"
	switch ts.precision {
	case TimestampPrecisionSecond:
		layout += ":05"
	case TimestampPrecisionFraction:
		layout += ":05." + "000000000"[:ts.fractionDigits]
	}
	if !ts.offsetKnown {
		return ts.t.Format(layout) + "-00:00"
	}
	return ts.t.Format(layout + "Z07:00")
}

func (ts Timestamp) Size() int {
	var scratch [32]byte
	return len(ts.appendPayload(scratch[:0]))
}

// appendPayload writes the offset in minutes followed by UTC components down
// to the timestamp's precision.
func (ts Timestamp) appendPayload(b []byte) []byte {
	t := ts.t
	if ts.offsetKnown {
		_, off := t.Zone()
		b = AppendVarInt(b, int64(off/60))
		t = t.UTC()
	} else {
		b = appendVarIntMagnitude(b, 0, true)
	}

	b = AppendVarUint(b, uint64(t.Year()))
	if ts.precision >= TimestampPrecisionMonth {
		b = AppendVarUint(b, uint64(t.Month()))
	}
	if ts.precision >= TimestampPrecisionDay {
		b = AppendVarUint(b, uint64(t.Day()))
	}
	if ts.precision >= TimestampPrecisionMinute {
		b = AppendVarUint(b, uint64(t.Hour()))
		b = AppendVarUint(b, uint64(t.Minute()))
	}
	if ts.precision >= TimestampPrecisionSecond {
		b = AppendVarUint(b, uint64(t.Second()))
	}
	if ts.precision == TimestampPrecisionFraction {
		digits := int(ts.fractionDigits)
		b = AppendVarInt(b, int64(-digits))
		coef := int64(t.Nanosecond()) / pow10(maxFractionDigits-digits)
		b = AppendBigInt(b, big.NewInt(coef))
	}
	return b
}

// validate rejects timestamps the binary form cannot carry: the year of the
// encoded UTC components must be 1 through 9999.
func (ts Timestamp) validate() error {
	t := ts.t
	if ts.offsetKnown {
		t = t.UTC()
	}
	if y := t.Year(); y < 1 || y > 9999 {
		return fmt.Errorf("%w: timestamp year %d outside 1-9999", ErrOverflow, y)
	}
	return nil
}

func (ts Timestamp) MarshalBinary() ([]byte, error) {
	if err := ts.validate(); err != nil {
		return nil, err
	}
	return marshalPayload(ts)
}

func (ts Timestamp) MarshalTo(p []byte) (int, error) {
	if err := ts.validate(); err != nil {
		return 0, err
	}
	return marshalPayloadTo(ts, p)
}

func (ts Timestamp) WriteTo(w io.Writer) (int64, error) {
	if err := ts.validate(); err != nil {
		return 0, err
	}
	return writePayloadTo(ts, w)
}

func (ts *Timestamp) ReadFrom(r io.Reader) (int64, error) { return readPayloadFrom(ts, r) }

// UnmarshalBinary decodes a timestamp payload occupying all of data.
func (ts *Timestamp) UnmarshalBinary(data []byte) error {
	offMag, offNeg, pos, err := readVarIntMagnitude(data)
	if err != nil {
		return err
	}
	offsetKnown := !(offNeg && offMag == 0)
	offset := int64(offMag)
	if offNeg {
		offset = -offset
	}
	if offset < -24*60 || offset > 24*60 {
		return fmt.Errorf("%w: timestamp offset %d minutes out of range", ErrMalformedBinary, offset)
	}

	var fields [6]uint64 // year, month, day, hour, minute, second
	count := 0
	for count < len(fields) && pos < len(data) {
		v, n, err := ReadVarUint(data[pos:])
		if err != nil {
			return err
		}
		fields[count] = v
		count++
		pos += n
	}

	var precision TimestampPrecision
	switch count {
	case 1:
		precision = TimestampPrecisionYear
	case 2:
		precision = TimestampPrecisionMonth
	case 3:
		precision = TimestampPrecisionDay
	case 5:
		precision = TimestampPrecisionMinute
	case 6:
		precision = TimestampPrecisionSecond
	default:
		return fmt.Errorf("%w: timestamp with %d components", ErrMalformedBinary, count)
	}
	if count == 1 {
		fields[1], fields[2] = 1, 1
	} else if count == 2 {
		fields[2] = 1
	}
	if fields[0] < 1 || fields[0] > 9999 || fields[1] < 1 || fields[1] > 12 || fields[2] < 1 || fields[2] > 31 ||
		fields[3] > 23 || fields[4] > 59 || fields[5] > 59 {
		return fmt.Errorf("%w: timestamp component out of range", ErrMalformedBinary)
	}

	var nanos int64
	var digits uint8
	if pos < len(data) {
		fexp, n, err := ReadVarInt(data[pos:])
		if err != nil {
			return err
		}
		coef, _ := ReadBigInt(data[pos+n:])
		nanos, digits, err = fractionNanos(coef, fexp)
		if err != nil {
			return err
		}
		if digits > 0 {
			precision = TimestampPrecisionFraction
		}
	}

	t := time.Date(int(fields[0]), time.Month(fields[1]), int(fields[2]),
		int(fields[3]), int(fields[4]), int(fields[5]), int(nanos), time.UTC)
	if t.Day() != int(fields[2]) {
		return fmt.Errorf("%w: invalid day %d for %d-%02d", ErrMalformedBinary, fields[2], fields[0], fields[1])
	}
	if precision < TimestampPrecisionMinute {
		offsetKnown = false
	}
	if offsetKnown {
		t = t.In(time.FixedZone("", int(offset)*60))
	}
	*ts = Timestamp{t: t, precision: precision, offsetKnown: offsetKnown, fractionDigits: digits}
	return nil
}

// fractionNanos converts a fraction coef*10^exp in [0, 1) to nanoseconds.
// Digits beyond nanosecond precision are truncated.
func fractionNanos(coef *big.Int, exp int64) (int64, uint8, error) {
	if coef.Sign() < 0 {
		return 0, 0, fmt.Errorf("%w: negative timestamp fraction", ErrMalformedBinary)
	}
	if exp >= 0 {
		if coef.Sign() != 0 {
			return 0, 0, fmt.Errorf("%w: timestamp fraction not below one second", ErrMalformedBinary)
		}
		return 0, 0, nil
	}
	// Beyond nanoseconds plus the coefficient's own digits the fraction
	// truncates to zero; the exponent may be arbitrarily large.
	if exp < -int64(maxFractionDigits+len(coef.Text(10))) {
		return 0, maxFractionDigits, nil
	}
	digits := -exp
	c := new(big.Int).Set(coef)
	if digits > maxFractionDigits {
		c.Quo(c, new(big.Int).Exp(big.NewInt(10), big.NewInt(digits-maxFractionDigits), nil))
		digits = maxFractionDigits
	} else {
		c.Mul(c, big.NewInt(pow10(maxFractionDigits-int(digits))))
	}
	if !c.IsInt64() || c.Int64() >= int64(time.Second) {
		return 0, 0, fmt.Errorf("%w: timestamp fraction not below one second", ErrMalformedBinary)
	}
	return c.Int64(), uint8(digits), nil
}
