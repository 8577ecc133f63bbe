package ion

import (
	"fmt"
	"io"
)

// NewReaderLimit reads r into memory like NewReader but fails with
// ErrInputTooLarge, without buffering further, once more than max bytes
// have been read.
func NewReaderLimit(r io.Reader, max int64) (*Reader, error) {
	if r == nil {
		return nil, ErrNilIO
	}
	lr := &io.LimitedReader{R: r, N: max + 1}
	data, err := readAll(lr)
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > max {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrInputTooLarge, max)
	}
	return NewReaderBytes(data), nil
}
