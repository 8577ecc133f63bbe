package ion

import (
	"encoding"
	"io"
)

// Sizer is an interface for values that can report the size of their binary
// payload, that is the bytes following the type descriptor and length.
type Sizer interface {
	// Size returns the payload size in bytes.
	Size() int
}

// Marshaler encodes a value's payload.
type Marshaler interface {
	// encoding.BinaryMarshaler allocates and returns the payload.
	encoding.BinaryMarshaler
	// io.WriterTo streams the payload.
	io.WriterTo

	// MarshalTo encodes the payload into a pre-allocated buffer, returning
	// io.ErrShortBuffer if the buffer is too small.
	MarshalTo(buf []byte) (int, error)
}

// Unmarshaler decodes a value's payload.
type Unmarshaler interface {
	// encoding.BinaryUnmarshaler decodes a payload that occupies all of data.
	encoding.BinaryUnmarshaler
	// io.ReaderFrom decodes a payload that occupies the rest of the stream.
	io.ReaderFrom
}

// Codec aggregates payload encoding and decoding. Decimal and Timestamp
// implement it so they can be embedded in other binary formats without a
// surrounding type descriptor.
type Codec interface {
	Sizer
	Marshaler
	Unmarshaler
}
