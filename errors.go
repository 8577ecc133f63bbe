package ion

import (
	"errors"
	"fmt"
)

var (
	// ErrNilIO indicates that NewReader/NewWriter was called with a nil io.Reader/io.Writer.
	ErrNilIO = errors.New("ion: NewReader/NewWriter called with a nil io.Reader/io.Writer")

	// ErrMalformedVarInt indicates a VarUInt or VarInt that ran out of input before its
	// end-of-value marker, or whose magnitude does not fit the destination integer.
	ErrMalformedVarInt = errors.New("ion: malformed variable-length integer")

	// ErrSymbolIDOutOfRange indicates a symbol ID above a table's max ID (or the reserved ID 0).
	ErrSymbolIDOutOfRange = errors.New("ion: symbol ID out of range")

	// ErrAmbiguousImport indicates import declarations whose symbol ID ranges cannot be
	// attributed unambiguously.
	ErrAmbiguousImport = errors.New("ion: ambiguous import")

	// ErrMalformedBinary indicates an invalid type descriptor, length or container layout.
	ErrMalformedBinary = errors.New("ion: malformed binary")

	// ErrUnexpectedEOF indicates that a value's declared extent runs past the end of the input.
	ErrUnexpectedEOF = errors.New("ion: unexpected end of input")

	// ErrInvalidState indicates an API call that is not valid in the current reader or writer state.
	ErrInvalidState = errors.New("ion: invalid state")

	// ErrTypeMismatch indicates a typed accessor called on a value of a different type.
	ErrTypeMismatch = errors.New("ion: type mismatch")

	// ErrOverflow indicates a value that does not fit the requested Go type
	// or the encoded field that has to carry it.
	ErrOverflow = errors.New("ion: value overflows destination type")

	// ErrInputTooLarge indicates an input stream longer than the reader's limit.
	ErrInputTooLarge = errors.New("ion: input exceeds size limit")

	// ErrInvalidCatalog indicates a catalog document that cannot be loaded.
	ErrInvalidCatalog = errors.New("ion: invalid catalog document")

	// ErrInvalidSeek indicates a seek to a position outside the buffer or with an unknown whence.
	ErrInvalidSeek = errors.New("ion: seek to an invalid position")

	// ErrTrailingData is returned by UnmarshalBinary when bytes remain after a payload.
	ErrTrailingData = errors.New("ion: trailing data found after decoding")

	// ErrTruncatedData indicates a payload that ended before all expected bytes were read.
	ErrTruncatedData = errors.New("ion: truncated data")
)

// OffsetError reports a structural decode failure together with the absolute
// byte offset at which it was detected.
type OffsetError struct {
	Err    error // ErrMalformedBinary, ErrUnexpectedEOF or ErrMalformedVarInt
	Offset int64
	Detail string
}

func (e *OffsetError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%v at offset %d", e.Err, e.Offset)
	}
	return fmt.Sprintf("%v at offset %d: %s", e.Err, e.Offset, e.Detail)
}

func (e *OffsetError) Unwrap() error { return e.Err }

func malformedAt(offset int, format string, args ...any) error {
	return &OffsetError{Err: ErrMalformedBinary, Offset: int64(offset), Detail: fmt.Sprintf(format, args...)}
}

func eofAt(offset int, format string, args ...any) error {
	return &OffsetError{Err: ErrUnexpectedEOF, Offset: int64(offset), Detail: fmt.Sprintf(format, args...)}
}

// atOffset attaches an offset to a codec error that was produced without one.
func atOffset(err error, offset int) error {
	var oe *OffsetError
	if err == nil || errors.As(err, &oe) {
		return err
	}
	return &OffsetError{Err: err, Offset: int64(offset)}
}
