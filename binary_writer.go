package ion

import (
	"fmt"
	"math"
	"math/big"
)

// headerReserve is the placeholder reserved for a container's type
// descriptor and length before its size is known: one descriptor byte and
// a five byte VarUInt, enough for any length below 2^35.
const (
	headerReserve   = 1 + 5
	maxContainerLen = 1<<35 - 1
)

// openContainer marks a container whose header is still a placeholder.
type openContainer struct {
	code    byte // codeList, codeSexp, codeStruct or codeAnnotation
	start   int  // offset of the placeholder
	wrapped bool // an annotation wrapper was opened right before it
}

// binaryWriter emits type descriptors, lengths and payloads onto a
// BytesWriter. Containers are written with a worst-case placeholder header
// that is patched, and trimmed, when the container is closed. Only bytes of
// still-open containers are ever moved.
type binaryWriter struct {
	out   *BytesWriter
	stack []openContainer

	fieldID     uint64
	hasField    bool
	annotations []uint64
}

func newBinaryWriter(out *BytesWriter) *binaryWriter {
	return &binaryWriter{out: out}
}

// depth counts open containers, not annotation wrappers.
func (w *binaryWriter) depth() int {
	d := 0
	for _, c := range w.stack {
		if c.code != codeAnnotation {
			d++
		}
	}
	return d
}

func (w *binaryWriter) inStruct() bool {
	for i := len(w.stack) - 1; i >= 0; i-- {
		if w.stack[i].code != codeAnnotation {
			return w.stack[i].code == codeStruct
		}
	}
	return false
}

// setFieldID sets the field name slot of the next value.
func (w *binaryWriter) setFieldID(sid uint64) {
	w.fieldID, w.hasField = sid, true
}

// setAnnotations sets the annotations of the next value.
func (w *binaryWriter) setAnnotations(sids ...uint64) {
	w.annotations = append(w.annotations[:0], sids...)
}

func (w *binaryWriter) clearPending() {
	w.hasField = false
	w.annotations = w.annotations[:0]
}

// beginValue writes the field name slot and opens the annotation wrapper,
// if any, that precede a value.
func (w *binaryWriter) beginValue() (wrapped bool, err error) {
	inStruct := w.inStruct()
	switch {
	case inStruct && !w.hasField:
		w.clearPending()
		return false, fmt.Errorf("%w: value inside a struct needs a field name", ErrInvalidState)
	case !inStruct && w.hasField:
		w.clearPending()
		return false, fmt.Errorf("%w: field name outside a struct", ErrInvalidState)
	case inStruct:
		w.out.B = AppendVarUint(w.out.B, w.fieldID)
	}
	w.hasField = false

	if len(w.annotations) == 0 {
		return false, nil
	}
	w.push(codeAnnotation, false)
	annotLen := 0
	for _, sid := range w.annotations {
		annotLen += VarUintLen(sid)
	}
	w.out.B = AppendVarUint(w.out.B, uint64(annotLen))
	for _, sid := range w.annotations {
		w.out.B = AppendVarUint(w.out.B, sid)
	}
	w.annotations = w.annotations[:0]
	return true, nil
}

func (w *binaryWriter) endValue(wrapped bool) error {
	if !wrapped {
		return nil
	}
	return w.closeTop()
}

func (w *binaryWriter) push(code byte, wrapped bool) {
	w.stack = append(w.stack, openContainer{code: code, start: w.out.Reserve(headerReserve), wrapped: wrapped})
}

// closeTop replaces the top placeholder with the real header and moves the
// payload down over the unused part of the placeholder.
func (w *binaryWriter) closeTop() error {
	top := w.stack[len(w.stack)-1]
	w.stack = w.stack[:len(w.stack)-1]

	payloadStart := top.start + headerReserve
	length := w.out.Len() - payloadStart
	if length > maxContainerLen {
		return fmt.Errorf("%w: container of %d bytes exceeds %d", ErrInvalidState, length, maxContainerLen)
	}
	var scratch [headerReserve]byte
	header := appendHeader(scratch[:0], top.code, length)
	if err := w.out.Patch(top.start, header); err != nil {
		return err
	}
	return w.out.Shift(payloadStart, headerReserve-len(header))
}

// appendHeader appends a type descriptor for a value of the given length,
// followed by a VarUInt length when it does not fit the low nibble.
func appendHeader(b []byte, code byte, length int) []byte {
	// A struct with L=1 means "sorted, VarUInt length follows".
	if length <= maxInline && !(code == codeStruct && length == int(lenSorted)) {
		return append(b, code<<4|byte(length))
	}
	b = append(b, code<<4|lenVarUint)
	return AppendVarUint(b, uint64(length))
}

func (w *binaryWriter) beginContainer(code byte) error {
	wrapped, err := w.beginValue()
	if err != nil {
		return err
	}
	w.push(code, wrapped)
	return nil
}

func (w *binaryWriter) endContainer(code byte) error {
	if len(w.stack) == 0 || w.stack[len(w.stack)-1].code != code {
		return fmt.Errorf("%w: no open %s to end", ErrInvalidState, codeTypes[code])
	}
	if w.hasField || len(w.annotations) > 0 {
		w.clearPending()
		return fmt.Errorf("%w: field name or annotations with no value", ErrInvalidState)
	}
	wrapped := w.stack[len(w.stack)-1].wrapped
	if err := w.closeTop(); err != nil {
		return err
	}
	return w.endValue(wrapped)
}

// scalar writes one complete scalar: slot, wrapper, header and payload.
func (w *binaryWriter) scalar(code byte, length int, appendPayload func([]byte) []byte) error {
	wrapped, err := w.beginValue()
	if err != nil {
		return err
	}
	w.out.B = appendHeader(w.out.B, code, length)
	if appendPayload != nil {
		w.out.B = appendPayload(w.out.B)
	}
	return w.endValue(wrapped)
}

// descriptor writes a value whose descriptor byte is the whole encoding.
func (w *binaryWriter) descriptor(td byte) error {
	wrapped, err := w.beginValue()
	if err != nil {
		return err
	}
	if err := w.out.WriteByte(td); err != nil {
		return err
	}
	return w.endValue(wrapped)
}

func (w *binaryWriter) writeVersionMarker() error {
	if len(w.stack) > 0 {
		return fmt.Errorf("%w: version marker inside a container", ErrInvalidState)
	}
	_, err := w.out.Write(versionMarker[:])
	return err
}

func (w *binaryWriter) writeNull(code byte) error {
	return w.descriptor(code<<4 | lenNull)
}

func (w *binaryWriter) writeBool(v bool) error {
	if v {
		return w.descriptor(codeBool<<4 | 1)
	}
	return w.descriptor(codeBool << 4)
}

func (w *binaryWriter) writeInt(v int64) error {
	code := codePosInt
	if v < 0 {
		code = codeNegInt
	}
	mag := magnitude(v)
	return w.scalar(code, UintLen(mag), func(b []byte) []byte { return AppendUint(b, mag) })
}

// writeBigInt writes v as a type-coded sign with a big-endian magnitude
// whose length is carried by the descriptor.
func (w *binaryWriter) writeBigInt(v *big.Int) error {
	if v.IsInt64() {
		return w.writeInt(v.Int64())
	}
	code := codePosInt
	if v.Sign() < 0 {
		code = codeNegInt
	}
	mag := v.Bytes()
	return w.scalar(code, len(mag), func(b []byte) []byte { return append(b, mag...) })
}

// writeFloat writes positive zero as an empty float and everything else as
// eight bytes.
func (w *binaryWriter) writeFloat(v float64) error {
	if v == 0 && !math.Signbit(v) {
		return w.descriptor(codeFloat << 4)
	}
	bits := math.Float64bits(v)
	return w.scalar(codeFloat, 8, func(b []byte) []byte {
		return append(b, byte(bits>>56), byte(bits>>48), byte(bits>>40), byte(bits>>32),
			byte(bits>>24), byte(bits>>16), byte(bits>>8), byte(bits))
	})
}

func (w *binaryWriter) writeDecimal(d Decimal) error {
	return w.scalar(codeDecimal, d.Size(), d.appendPayload)
}

func (w *binaryWriter) writeTimestamp(ts Timestamp) error {
	if err := ts.validate(); err != nil {
		w.clearPending()
		return err
	}
	return w.scalar(codeTimestamp, ts.Size(), ts.appendPayload)
}

func (w *binaryWriter) writeSymbolID(sid uint64) error {
	return w.scalar(codeSymbol, UintLen(sid), func(b []byte) []byte { return AppendUint(b, sid) })
}

func (w *binaryWriter) writeString(s string) error {
	return w.scalar(codeString, len(s), func(b []byte) []byte { return append(b, s...) })
}

func (w *binaryWriter) writeLob(code byte, v []byte) error {
	return w.scalar(code, len(v), func(b []byte) []byte { return append(b, v...) })
}
