package ion

import "io"

// BytesReader is a bounds-checked read cursor over a fixed byte slice. The
// parser reads through it; N never exceeds len(B).
type BytesReader struct {
	B []byte // source slice
	N int    // current read position
}

// NewBytesReader creates a new BytesReader.
func NewBytesReader(b []byte) *BytesReader {
	return &BytesReader{B: b}
}

// ReadByte implements the [io.ByteReader] interface.
func (r *BytesReader) ReadByte() (byte, error) {
	if r.N >= len(r.B) {
		return 0, io.EOF
	}
	b := r.B[r.N]
	r.N++
	return b, nil
}

// Next returns a view of the next n bytes and advances past them. It fails
// with ErrUnexpectedEOF, carrying the current offset, when fewer remain.
func (r *BytesReader) Next(n int) ([]byte, error) {
	if n < 0 || n > r.Available() {
		return nil, eofAt(r.N, "need %d bytes, %d available", n, r.Available())
	}
	b := r.B[r.N : r.N+n]
	r.N += n
	return b, nil
}

// window returns the unread bytes before offset end.
func (r *BytesReader) window(end int) []byte {
	end = min(end, len(r.B))
	if end < r.N {
		return nil
	}
	return r.B[r.N:end]
}

// ReadVarUint decodes a VarUInt that has to end before offset end. Errors
// carry the offset the VarUInt starts at.
func (r *BytesReader) ReadVarUint(end int) (uint64, error) {
	v, n, err := ReadVarUint(r.window(end))
	if err != nil {
		return 0, atOffset(err, r.N)
	}
	r.N += n
	return v, nil
}

// ReadLength is ReadVarUint for lengths, which must fit an int.
func (r *BytesReader) ReadLength(end int) (int, error) {
	v, n, err := readVarUintInt(r.window(end))
	if err != nil {
		return 0, atOffset(err, r.N)
	}
	r.N += n
	return v, nil
}

// Seek implements the [io.Seeker] interface. Positions past the end are
// rejected so that N stays within the buffer.
func (r *BytesReader) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = int64(r.N) + offset
	case io.SeekEnd:
		abs = int64(len(r.B)) + offset
	default:
		return 0, ErrInvalidSeek
	}

	if abs < 0 || abs > int64(len(r.B)) {
		return 0, ErrInvalidSeek
	}

	r.N = int(abs)
	return abs, nil
}

// Len returns the number of bytes read so far, i.e. the current offset.
func (r *BytesReader) Len() int {
	return r.N
}

// Size returns the size of the underlying byte slice.
func (r *BytesReader) Size() int {
	return len(r.B)
}

// Available returns the number of bytes available for reading.
func (r *BytesReader) Available() int {
	length := len(r.B) - r.N
	if length <= 0 {
		return 0
	}
	return length
}
