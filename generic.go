package ion

import (
	"encoding"
	"fmt"
	"io"
)

// payload is implemented by scalar values whose binary form is produced by
// appending to a byte slice.
type payload interface {
	Size() int
	appendPayload(b []byte) []byte
}

// marshalPayload provides encoding.BinaryMarshaler for a payload.
func marshalPayload[T payload](v T) ([]byte, error) {
	size := v.Size()
	out := v.appendPayload(make([]byte, 0, size))
	if len(out) != size {
		return nil, fmt.Errorf("%w: expected %d bytes, but wrote %d", ErrTruncatedData, size, len(out))
	}
	return out, nil
}

// marshalPayloadTo provides MarshalTo for a payload without allocating.
func marshalPayloadTo[T payload](v T, p []byte) (int, error) {
	size := v.Size()
	if len(p) < size {
		return 0, io.ErrShortBuffer
	}
	return len(v.appendPayload(p[:0])), nil
}

// writePayloadTo provides io.WriterTo for a payload.
func writePayloadTo[T payload](v T, w io.Writer) (int64, error) {
	buf, err := marshalPayload(v)
	if err != nil {
		return 0, err
	}
	n, err := w.Write(buf)
	if err != nil {
		return int64(n), err
	}
	if n < len(buf) {
		return int64(n), io.ErrShortWrite
	}
	return int64(n), nil
}

// readPayloadFrom provides io.ReaderFrom for a payload that runs to the end
// of r. It is not streaming: the rest of r is buffered before decoding.
func readPayloadFrom[T encoding.BinaryUnmarshaler](v T, r io.Reader) (int64, error) {
	buf := getBuffer()
	defer putBuffer(buf)

	n, err := buf.ReadFrom(r)
	if err != nil {
		return n, err
	}
	return n, v.UnmarshalBinary(buf.Bytes())
}
