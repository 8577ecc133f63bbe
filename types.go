package ion

import "strconv"

// Type is the data-model type of a value.
type Type uint8

const (
	// NoType is returned by Next at the end of a container or of the input.
	NoType Type = iota
	NullType
	BoolType
	IntType
	FloatType
	DecimalType
	TimestampType
	SymbolType
	StringType
	ClobType
	BlobType
	ListType
	SexpType
	StructType
)

var typeNames = [...]string{
	NoType:        "<no type>",
	NullType:      "null",
	BoolType:      "bool",
	IntType:       "int",
	FloatType:     "float",
	DecimalType:   "decimal",
	TimestampType: "timestamp",
	SymbolType:    "symbol",
	StringType:    "string",
	ClobType:      "clob",
	BlobType:      "blob",
	ListType:      "list",
	SexpType:      "sexp",
	StructType:    "struct",
}

func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "<invalid type>"
}

// IsContainer reports whether values of t can be stepped into.
func (t Type) IsContainer() bool {
	return t == ListType || t == SexpType || t == StructType
}

// Type codes occupy the high nibble of a type descriptor byte.
const (
	codeNull       byte = 0x0
	codeBool       byte = 0x1
	codePosInt     byte = 0x2
	codeNegInt     byte = 0x3
	codeFloat      byte = 0x4
	codeDecimal    byte = 0x5
	codeTimestamp  byte = 0x6
	codeSymbol     byte = 0x7
	codeString     byte = 0x8
	codeClob       byte = 0x9
	codeBlob       byte = 0xA
	codeList       byte = 0xB
	codeSexp       byte = 0xC
	codeStruct     byte = 0xD
	codeAnnotation byte = 0xE
	codeReserved   byte = 0xF
)

// Length nibble values with special meaning.
const (
	lenVarUint byte = 0xE // a VarUInt length follows the descriptor
	lenNull    byte = 0xF // typed null
	lenSorted  byte = 0x1 // struct only: sorted fields, VarUInt length follows
	maxInline       = 13
)

var codeTypes = [16]Type{
	codeNull:      NullType,
	codeBool:      BoolType,
	codePosInt:    IntType,
	codeNegInt:    IntType,
	codeFloat:     FloatType,
	codeDecimal:   DecimalType,
	codeTimestamp: TimestampType,
	codeSymbol:    SymbolType,
	codeString:    StringType,
	codeClob:      ClobType,
	codeBlob:      BlobType,
	codeList:      ListType,
	codeSexp:      SexpType,
	codeStruct:    StructType,
}

var typeCodes = map[Type]byte{
	NullType:      codeNull,
	BoolType:      codeBool,
	IntType:       codePosInt,
	FloatType:     codeFloat,
	DecimalType:   codeDecimal,
	TimestampType: codeTimestamp,
	SymbolType:    codeSymbol,
	StringType:    codeString,
	ClobType:      codeClob,
	BlobType:      codeBlob,
	ListType:      codeList,
	SexpType:      codeSexp,
	StructType:    codeStruct,
}

// versionMarker opens every binary stream and resets the symbol table context.
var versionMarker = [4]byte{0xE0, 0x01, 0x00, 0xEA}

// SymbolToken is a symbol as it appears in a stream: the local symbol ID and,
// when the current symbol table can resolve it, its text.
type SymbolToken struct {
	Text    string
	HasText bool
	SID     uint64
}

// String returns the text, or the $<sid> form when the text is unknown.
func (t SymbolToken) String() string {
	if t.HasText {
		return t.Text
	}
	return "$" + strconv.FormatUint(t.SID, 10)
}
