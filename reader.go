package ion

import (
	"fmt"
	"io"
	"math/big"

	"github.com/rs/zerolog"
)

// Reader reads a binary stream value by value, resolving symbol IDs through
// the symbol table context the stream establishes. Version markers and
// local symbol tables at depth 0 are consumed by Next and never returned.
//
// A Reader is not safe for concurrent use.
type Reader struct {
	p       *Parser
	catalog *Catalog
	system  *SharedSymbolTable
	table   *LocalSymbolTable
	log     zerolog.Logger
}

// NewReaderBytes returns a reader over b.
func NewReaderBytes(b []byte) *Reader {
	system := V1SystemSymbolTable()
	return &Reader{
		p:      NewParserBytes(b),
		system: system,
		table:  NewDefaultLocalSymbolTable(system),
		log:    zerolog.Nop(),
	}
}

// NewReader reads all of r and returns a reader over it.
func NewReader(r io.Reader) (*Reader, error) {
	if r == nil {
		return nil, ErrNilIO
	}
	data, err := readAll(r)
	if err != nil {
		return nil, err
	}
	return NewReaderBytes(data), nil
}

// WithCatalog sets the catalog used to resolve imports and returns the
// reader for chaining. Without one every import becomes a placeholder.
func (r *Reader) WithCatalog(c *Catalog) *Reader {
	r.catalog = c
	return r
}

// WithLogger sets the logger for symbol table events and returns the
// reader for chaining.
func (r *Reader) WithLogger(log zerolog.Logger) *Reader {
	r.log = log
	return r
}

// Next moves to the next user value at the current depth. It returns
// NoType at the end of the current container or of the stream.
func (r *Reader) Next() (Type, error) {
	for {
		t, err := r.p.Next()
		if err != nil || t == NoType {
			return t, err
		}
		if r.p.Depth() != 0 {
			return t, nil
		}
		switch {
		case r.p.IsVersionMarker():
			r.table = NewDefaultLocalSymbolTable(r.system)
			r.log.Debug().Int("offset", r.p.Offset()).Msg("reader: version marker, symbol table reset")
		case isSymbolTableStruct(r.p):
			if err := r.readSymbolTable(); err != nil {
				return NoType, r.p.fail(err)
			}
		default:
			return t, nil
		}
	}
}

func (r *Reader) readSymbolTable() error {
	offset := r.p.Offset()
	decl, err := readSymbolTableDecl(r.p)
	if err != nil {
		return err
	}
	table, err := buildSymbolTable(decl, r.table, r.system, r.catalog)
	if err != nil {
		return atOffset(err, offset)
	}
	r.table = table
	r.log.Debug().
		Int("offset", offset).
		Bool("append", decl.appendMode).
		Int("imports", len(decl.imports)).
		Uint64("max_id", table.MaxID()).
		Msg("reader: symbol table installed")
	return nil
}

func (r *Reader) StepIn() error { return r.p.StepIn() }
func (r *Reader) StepOut() error { return r.p.StepOut() }
func (r *Reader) Depth() int { return r.p.Depth() }
func (r *Reader) Type() Type { return r.p.Type() }
func (r *Reader) IsNull() bool { return r.p.IsNull() }
func (r *Reader) Err() error { return r.p.Err() }

// SymbolTable returns the symbol table context of the current position.
func (r *Reader) SymbolTable() *LocalSymbolTable { return r.table }

// token resolves sid in the current context. ID 0 is the symbol with no
// text; IDs above the table's max ID are an error.
func (r *Reader) token(sid uint64) (SymbolToken, error) {
	if sid == 0 {
		return SymbolToken{}, nil
	}
	text, ok, err := r.table.SymbolText(sid)
	if err != nil {
		return SymbolToken{}, atOffset(err, r.p.Offset())
	}
	return SymbolToken{Text: text, HasText: ok, SID: sid}, nil
}

// FieldName returns the field name of the current struct field.
func (r *Reader) FieldName() (SymbolToken, error) {
	sid, err := r.p.FieldID()
	if err != nil {
		return SymbolToken{}, err
	}
	return r.token(sid)
}

// Annotations returns the annotations of the current value.
func (r *Reader) Annotations() ([]SymbolToken, error) {
	if len(r.p.annotations) == 0 {
		return nil, nil
	}
	out := make([]SymbolToken, len(r.p.annotations))
	for i, sid := range r.p.annotations {
		tok, err := r.token(sid)
		if err != nil {
			return nil, err
		}
		out[i] = tok
	}
	return out, nil
}

// SymbolValue returns the current symbol value.
func (r *Reader) SymbolValue() (SymbolToken, error) {
	sid, err := r.p.SymbolValue()
	if err != nil {
		return SymbolToken{}, err
	}
	return r.token(sid)
}

func (r *Reader) BoolValue() (bool, error) { return r.p.BoolValue() }
func (r *Reader) IntValue() (int64, error) { return r.p.IntValue() }
func (r *Reader) BigIntValue() (*big.Int, error) { return r.p.BigIntValue() }
func (r *Reader) FloatValue() (float64, error) { return r.p.FloatValue() }
func (r *Reader) DecimalValue() (Decimal, error) { return r.p.DecimalValue() }
func (r *Reader) TimestampValue() (Timestamp, error) { return r.p.TimestampValue() }
func (r *Reader) StringValue() (string, error) { return r.p.StringValue() }
func (r *Reader) ByteValue() ([]byte, error) { return r.p.ByteValue() }

func (r *Reader) String() string {
	return fmt.Sprintf("ion.Reader{depth: %d, type: %s, max_id: %d}", r.p.Depth(), r.p.Type(), r.table.MaxID())
}
