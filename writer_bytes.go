package ion

import (
	"fmt"
	"io"
)

// BytesWriter is a growable write span. Unlike a plain append buffer it
// supports index-based backpatching: a placeholder can be reserved, filled
// in later with Patch, and trimmed with Shift once its final size is known.
type BytesWriter struct {
	B []byte // written bytes; len(B) is the next write offset
}

// NewBytesWriter creates a new BytesWriter that appends to p[:0].
func NewBytesWriter(p []byte) *BytesWriter {
	return &BytesWriter{B: p[:0]}
}

// Write implements the io.Writer interface. It never fails.
func (w *BytesWriter) Write(p []byte) (int, error) {
	w.B = append(w.B, p...)
	return len(p), nil
}

// WriteByte implements the io.ByteWriter interface. It never fails.
func (w *BytesWriter) WriteByte(c byte) error {
	w.B = append(w.B, c)
	return nil
}

// Reserve appends n zero bytes and returns the offset of the first one.
func (w *BytesWriter) Reserve(n int) int {
	at := len(w.B)
	w.B = append(w.B, make([]byte, n)...)
	return at
}

// Patch overwrites previously written bytes starting at offset at.
func (w *BytesWriter) Patch(at int, p []byte) error {
	if at < 0 || at+len(p) > len(w.B) {
		return fmt.Errorf("%w: patch of %d bytes at %d outside %d written", ErrInvalidState, len(p), at, len(w.B))
	}
	copy(w.B[at:], p)
	return nil
}

// Shift removes the n bytes immediately before offset from, moving
// everything from offset from onwards down by n.
func (w *BytesWriter) Shift(from, n int) error {
	if n < 0 || from-n < 0 || from > len(w.B) {
		return fmt.Errorf("%w: shift of %d bytes at %d outside %d written", ErrInvalidState, n, from, len(w.B))
	}
	if n == 0 {
		return nil
	}
	copy(w.B[from-n:], w.B[from:])
	w.B = w.B[:len(w.B)-n]
	return nil
}

// WriteTo implements io.WriterTo, copying the written bytes to dst.
func (w *BytesWriter) WriteTo(dst io.Writer) (int64, error) {
	n, err := dst.Write(w.B)
	if err == nil && n < len(w.B) {
		err = io.ErrShortWrite
	}
	return int64(n), err
}

// Reset allows the underlying byte slice to be reused.
func (w *BytesWriter) Reset() { w.B = w.B[:0] }

// Len returns the number of bytes written.
func (w *BytesWriter) Len() int { return len(w.B) }

// Bytes returns a slice view of the written data.
func (w *BytesWriter) Bytes() []byte { return w.B }
