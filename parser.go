package ion

import (
	"fmt"
	"io"
	"math"
	"math/big"
	"unicode/utf8"
)

type parserState uint8

const (
	stateBeforeValue    parserState = iota // between values at the current depth
	stateOnValue                           // positioned on the value returned by Next
	stateEndOfContainer                    // Next reached the end of the current container
	stateExhausted                         // Next reached the end of the input at depth 0
)

type parserFrame struct {
	typ Type
	end int // absolute offset one past the container's last byte
}

// Parser is a forward-only, pull-based cursor over binary values. It never
// materializes containers: Next moves over whole values at the current
// depth, StepIn and StepOut move between depths, and scalar accessors decode
// the current value's payload only when called.
//
// Parser reports symbols as IDs. Use Reader to resolve them to text.
//
// A decode error is fatal: it is returned by the call that detected it and
// by every later call to Next.
type Parser struct {
	in    *BytesReader
	stack []parserFrame
	state parserState
	err   error

	typ         Type
	code        byte
	nibble      byte
	null        bool
	ivm         bool
	fieldID     uint64
	hasField    bool
	annotations []uint64
	valueStart  int
	valueEnd    int
}

// NewParser returns a parser reading values from in's current position.
func NewParser(in *BytesReader) *Parser {
	return &Parser{in: in}
}

// NewParserBytes returns a parser over b.
func NewParserBytes(b []byte) *Parser {
	return NewParser(NewBytesReader(b))
}

func (p *Parser) fail(err error) error {
	if p.err == nil {
		p.err = err
	}
	return p.err
}

// Err returns the decode error that stopped the parser, if any.
func (p *Parser) Err() error { return p.err }

// Depth returns the number of containers the parser is inside.
func (p *Parser) Depth() int { return len(p.stack) }

func (p *Parser) containerEnd() int {
	if len(p.stack) == 0 {
		return p.in.Size()
	}
	return p.stack[len(p.stack)-1].end
}

func (p *Parser) inStruct() bool {
	return len(p.stack) > 0 && p.stack[len(p.stack)-1].typ == StructType
}

func (p *Parser) clearValue() {
	p.typ = NoType
	p.code, p.nibble = 0, 0
	p.null, p.ivm, p.hasField = false, false, false
	p.fieldID = 0
	p.annotations = p.annotations[:0]
	p.valueStart, p.valueEnd = p.in.Len(), p.in.Len()
}

// seek moves the read position to the absolute offset pos.
func (p *Parser) seek(pos int) error {
	_, err := p.in.Seek(int64(pos), io.SeekStart)
	return err
}

// Next moves to the next value at the current depth and returns its type.
// It returns NoType at the end of the current container or of the input.
// A version marker at depth 0 is reported as the symbol $ion_1_0 with
// IsVersionMarker set.
func (p *Parser) Next() (Type, error) {
	if p.err != nil {
		return NoType, p.err
	}
	switch p.state {
	case stateOnValue:
		if err := p.seek(p.valueEnd); err != nil {
			return NoType, p.fail(err)
		}
	case stateEndOfContainer, stateExhausted:
		return NoType, nil
	}
	p.clearValue()

	end := p.containerEnd()
	for {
		if p.in.Len() >= end {
			if len(p.stack) == 0 {
				p.state = stateExhausted
			} else {
				p.state = stateEndOfContainer
			}
			return NoType, nil
		}
		typ, err := p.readValue(end)
		if err != nil {
			p.clearValue()
			return NoType, p.fail(err)
		}
		if typ != NoType {
			p.typ = typ
			p.state = stateOnValue
			return typ, nil
		}
		// NOP padding; keep going.
		p.hasField = false
	}
}

// readValue reads an optional field name slot and a value header. It
// returns NoType after skipping padding.
func (p *Parser) readValue(end int) (Type, error) {
	if p.inStruct() {
		sid, err := p.in.ReadVarUint(end)
		if err != nil {
			return NoType, err
		}
		p.fieldID, p.hasField = sid, true
		if p.in.Len() >= end {
			return NoType, malformedAt(p.in.Len(), "field name with no value")
		}
	}
	return p.readTypeDescriptor(end, false)
}

func (p *Parser) readTypeDescriptor(end int, annotated bool) (Type, error) {
	tdPos := p.in.Len()
	if tdPos >= end {
		return NoType, malformedAt(tdPos, "annotation wrapper with no value")
	}
	td, err := p.in.ReadByte()
	if err != nil {
		return NoType, eofAt(tdPos, "missing type descriptor")
	}
	code, nibble := td>>4, td&0x0F

	switch code {
	case codeAnnotation:
		if nibble == 0 {
			return p.readVersionMarker(tdPos, annotated)
		}
		if annotated {
			return NoType, malformedAt(tdPos, "nested annotation wrapper")
		}
		return p.readAnnotated(tdPos, nibble, end)
	case codeReserved:
		return NoType, malformedAt(tdPos, "reserved type code 0xF")
	}

	length, err := p.readLength(tdPos, code, nibble, end)
	if err != nil {
		return NoType, err
	}
	if length > p.in.Available() {
		return NoType, eofAt(tdPos, "value of %d bytes, %d available", length, p.in.Available())
	}
	valueEnd := p.in.Len() + length
	if valueEnd > end {
		return NoType, malformedAt(tdPos, "value of %d bytes overruns its container", length)
	}

	if code == codeNull && nibble != lenNull {
		if annotated {
			return NoType, malformedAt(tdPos, "annotation wrapper around padding")
		}
		return NoType, p.seek(valueEnd)
	}

	p.code, p.nibble = code, nibble
	p.null = nibble == lenNull
	p.valueStart, p.valueEnd = p.in.Len(), valueEnd
	return codeTypes[code], nil
}

// readLength decodes the length implied by a descriptor's low nibble.
func (p *Parser) readLength(tdPos int, code, nibble byte, end int) (int, error) {
	switch {
	case nibble == lenNull:
		return 0, nil
	case code == codeBool:
		if nibble > 1 {
			return 0, malformedAt(tdPos, "bool with length nibble %d", nibble)
		}
		return 0, nil
	case code == codeNegInt && nibble == 0:
		return 0, malformedAt(tdPos, "negative int zero")
	case code == codeStruct && nibble == lenSorted:
		n, err := p.readVarLength(end)
		if err != nil {
			return 0, err
		}
		if n == 0 {
			return 0, malformedAt(tdPos, "empty sorted struct")
		}
		return n, nil
	case nibble == lenVarUint:
		n, err := p.readVarLength(end)
		if err != nil {
			return 0, err
		}
		if code == codeFloat && n != 0 && n != 4 && n != 8 {
			return 0, malformedAt(tdPos, "float of %d bytes", n)
		}
		return n, nil
	case code == codeFloat && nibble != 0 && nibble != 4 && nibble != 8:
		return 0, malformedAt(tdPos, "float of %d bytes", nibble)
	}
	return int(nibble), nil
}

func (p *Parser) readVarLength(end int) (int, error) {
	return p.in.ReadLength(end)
}

func (p *Parser) readVersionMarker(tdPos int, annotated bool) (Type, error) {
	if annotated || len(p.stack) > 0 || p.hasField {
		return NoType, malformedAt(tdPos, "annotation wrapper of length 0")
	}
	if err := p.seek(tdPos); err != nil {
		return NoType, err
	}
	marker, err := p.in.Next(len(versionMarker))
	if err != nil {
		return NoType, err
	}
	if [4]byte(marker) != versionMarker {
		return NoType, malformedAt(tdPos, "unsupported version marker % x", marker)
	}
	p.ivm = true
	p.code = codeSymbol
	p.valueStart, p.valueEnd = p.in.Len(), p.in.Len()
	return SymbolType, nil
}

// readAnnotated reads an annotation wrapper: its length, the annotation
// symbol IDs and the header of the wrapped value, which has to end exactly
// where the wrapper does.
func (p *Parser) readAnnotated(tdPos int, nibble byte, end int) (Type, error) {
	length := int(nibble)
	if nibble == lenVarUint {
		n, err := p.readVarLength(end)
		if err != nil {
			return NoType, err
		}
		length = n
	}
	if length < 3 {
		return NoType, malformedAt(tdPos, "annotation wrapper of length %d", length)
	}
	if length > p.in.Available() {
		return NoType, eofAt(tdPos, "annotation wrapper of %d bytes, %d available", length, p.in.Available())
	}
	wrapperEnd := p.in.Len() + length
	if wrapperEnd > end {
		return NoType, malformedAt(tdPos, "annotation wrapper overruns its container")
	}

	annotLen, err := p.in.ReadLength(wrapperEnd)
	if err != nil {
		return NoType, err
	}
	annotEnd := p.in.Len() + annotLen
	if annotLen == 0 || annotEnd >= wrapperEnd {
		return NoType, malformedAt(tdPos, "annotation list of %d bytes in a wrapper of %d", annotLen, length)
	}
	for p.in.Len() < annotEnd {
		sid, err := p.in.ReadVarUint(annotEnd)
		if err != nil {
			return NoType, err
		}
		p.annotations = append(p.annotations, sid)
	}

	typ, err := p.readTypeDescriptor(wrapperEnd, true)
	if err != nil {
		return NoType, err
	}
	if p.valueEnd != wrapperEnd {
		return NoType, malformedAt(tdPos, "wrapped value ends at %d, wrapper at %d", p.valueEnd, wrapperEnd)
	}
	return typ, nil
}

// StepIn moves into the current list, sexp or struct.
func (p *Parser) StepIn() error {
	if p.err != nil {
		return p.err
	}
	if p.state != stateOnValue || !p.typ.IsContainer() || p.null {
		return fmt.Errorf("%w: StepIn on %s", ErrInvalidState, p.describe())
	}
	if err := p.seek(p.valueStart); err != nil {
		return p.fail(err)
	}
	p.stack = append(p.stack, parserFrame{typ: p.typ, end: p.valueEnd})
	p.clearValue()
	p.state = stateBeforeValue
	return nil
}

// StepOut moves past the end of the current container, skipping whatever
// has not been read.
func (p *Parser) StepOut() error {
	if p.err != nil {
		return p.err
	}
	if len(p.stack) == 0 {
		return fmt.Errorf("%w: StepOut at depth 0", ErrInvalidState)
	}
	top := p.stack[len(p.stack)-1]
	if err := p.seek(top.end); err != nil {
		return p.fail(err)
	}
	p.stack = p.stack[:len(p.stack)-1]
	p.clearValue()
	p.state = stateBeforeValue
	return nil
}

func (p *Parser) describe() string {
	switch {
	case p.state != stateOnValue:
		return "no current value"
	case p.null:
		return "null." + p.typ.String()
	}
	return p.typ.String()
}

// Type returns the type of the current value, or NoType.
func (p *Parser) Type() Type { return p.typ }

// IsNull reports whether the current value is a typed or untyped null.
func (p *Parser) IsNull() bool { return p.null }

// IsVersionMarker reports whether the current value is a version marker.
func (p *Parser) IsVersionMarker() bool { return p.ivm }

// Offset returns the absolute offset of the current value's payload.
func (p *Parser) Offset() int { return p.valueStart }

// FieldID returns the field name symbol ID of the current struct field.
func (p *Parser) FieldID() (uint64, error) {
	if p.state != stateOnValue || !p.inStruct() {
		return 0, fmt.Errorf("%w: field name requested outside a struct field", ErrInvalidState)
	}
	return p.fieldID, nil
}

// AnnotationIDs returns the annotation symbol IDs of the current value.
func (p *Parser) AnnotationIDs() []uint64 {
	if len(p.annotations) == 0 {
		return nil
	}
	out := make([]uint64, len(p.annotations))
	copy(out, p.annotations)
	return out
}

// payload returns the current value's payload if it is a non-null want.
func (p *Parser) payload(want Type) ([]byte, error) {
	if p.err != nil {
		return nil, p.err
	}
	if p.state != stateOnValue || p.typ != want || p.null {
		return nil, fmt.Errorf("%w: %s requested on %s", ErrTypeMismatch, want, p.describe())
	}
	return p.in.B[p.valueStart:p.valueEnd], nil
}

func (p *Parser) BoolValue() (bool, error) {
	if _, err := p.payload(BoolType); err != nil {
		return false, err
	}
	return p.nibble == 1, nil
}

// IntValue returns the current int; it fails with ErrOverflow when the
// value needs more than 64 bits.
func (p *Parser) IntValue() (int64, error) {
	b, err := p.payload(IntType)
	if err != nil {
		return 0, err
	}
	mag, err := ReadUint(b)
	if err != nil {
		return 0, fmt.Errorf("%w: int magnitude of %d bytes", ErrOverflow, len(b))
	}
	switch {
	case p.code == codeNegInt && mag == 1<<63:
		return math.MinInt64, nil
	case mag > math.MaxInt64:
		return 0, fmt.Errorf("%w: int magnitude %d", ErrOverflow, mag)
	case p.code == codeNegInt:
		return -int64(mag), nil
	}
	return int64(mag), nil
}

func (p *Parser) BigIntValue() (*big.Int, error) {
	b, err := p.payload(IntType)
	if err != nil {
		return nil, err
	}
	v := new(big.Int).SetBytes(b)
	if p.code == codeNegInt {
		v.Neg(v)
	}
	return v, nil
}

func (p *Parser) FloatValue() (float64, error) {
	b, err := p.payload(FloatType)
	if err != nil {
		return 0, err
	}
	switch len(b) {
	case 4:
		bits, _ := ReadUint(b)
		return float64(math.Float32frombits(uint32(bits))), nil
	case 8:
		bits, _ := ReadUint(b)
		return math.Float64frombits(bits), nil
	}
	return 0, nil
}

func (p *Parser) DecimalValue() (Decimal, error) {
	b, err := p.payload(DecimalType)
	if err != nil {
		return Decimal{}, err
	}
	var d Decimal
	if err := d.UnmarshalBinary(b); err != nil {
		return Decimal{}, atOffset(err, p.valueStart)
	}
	return d, nil
}

func (p *Parser) TimestampValue() (Timestamp, error) {
	b, err := p.payload(TimestampType)
	if err != nil {
		return Timestamp{}, err
	}
	var ts Timestamp
	if err := ts.UnmarshalBinary(b); err != nil {
		return Timestamp{}, atOffset(err, p.valueStart)
	}
	return ts, nil
}

func (p *Parser) StringValue() (string, error) {
	b, err := p.payload(StringType)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", malformedAt(p.valueStart, "string is not valid UTF-8")
	}
	return string(b), nil
}

// SymbolValue returns the symbol ID of the current symbol value.
func (p *Parser) SymbolValue() (uint64, error) {
	b, err := p.payload(SymbolType)
	if err != nil {
		return 0, err
	}
	if p.ivm {
		return sidIon10, nil
	}
	sid, err := ReadUint(b)
	if err != nil {
		return 0, atOffset(err, p.valueStart)
	}
	return sid, nil
}

// ByteValue returns a copy of the current blob or clob.
func (p *Parser) ByteValue() ([]byte, error) {
	want := BlobType
	if p.typ == ClobType {
		want = ClobType
	}
	b, err := p.payload(want)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}
