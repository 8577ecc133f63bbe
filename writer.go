package ion

import (
	"fmt"
	"io"
	"math/big"

	"github.com/rs/zerolog"
)

type flusher interface {
	Flush() error
}

// Writer encodes values into a binary stream. Symbols are interned into a
// local symbol table as they are written; values are buffered until Flush,
// which emits the table followed by the values that use it.
//
// Writer tracks the first error that occurs. After an error every method
// is a no-op that returns it.
//
// A Writer is not safe for concurrent use.
type Writer struct {
	dst     io.Writer
	system  *SharedSymbolTable
	imports []*SharedSymbolTable
	imp     *Import
	table   *LocalSymbolTable

	values *BytesWriter // encoded values of the current segment
	header *BytesWriter // version marker and symbol table of the current segment
	bw     *binaryWriter

	wroteIVM bool
	started  bool // a symbol or value has been written
	finished bool
	segments int
	count    int64 // total bytes written to dst
	err      error // first error encountered
	log      zerolog.Logger
}

// NewWriter returns a writer that emits to w.
func NewWriter(w io.Writer) *Writer {
	system := V1SystemSymbolTable()
	imp := NewSystemImport(system)
	values := NewBytesWriter(nil)
	wr := &Writer{
		dst:    w,
		system: system,
		imp:    imp,
		table:  NewLocalSymbolTable(imp),
		values: values,
		header: NewBytesWriter(nil),
		bw:     newBinaryWriter(values),
		log:    zerolog.Nop(),
	}
	if w == nil {
		wr.err = ErrNilIO
	}
	return wr
}

// WithImports sets the shared tables imported by every symbol table the
// writer emits and returns the writer for chaining. It fails with
// ErrInvalidState once a symbol or value has been written, since the
// local symbols would have to be renumbered, and with ErrAmbiguousImport
// when two tables share a name but differ in version or size.
func (w *Writer) WithImports(tables ...*SharedSymbolTable) *Writer {
	if w.err != nil {
		return w
	}
	if w.started {
		w.setError(fmt.Errorf("%w: imports set after values were written", ErrInvalidState))
		return w
	}
	imp := NewSystemImport(w.system)
	seen := make(importSet, len(tables))
	for _, t := range tables {
		// Readers skip these names, which would shift every later ID.
		if t.Name() == "" || t.Name() == systemTableName {
			w.setError(fmt.Errorf("%w: cannot import table named %q", ErrInvalidState, t.Name()))
			return w
		}
		decl := ImportDecl{Name: t.Name(), Version: t.Version(), MaxID: t.MaxID(), HasMaxID: true}
		if err := seen.add(decl); err != nil {
			w.setError(err)
			return w
		}
		imp = NewImport(imp, t)
	}
	w.imports = append(w.imports[:0], tables...)
	w.imp = imp
	w.table = NewLocalSymbolTable(imp)
	return w
}

// WithLogger sets the logger for segment events and returns the writer for
// chaining.
func (w *Writer) WithLogger(log zerolog.Logger) *Writer {
	w.log = log
	return w
}

func (w *Writer) Count() int64 { return w.count }
func (w *Writer) Err() error { return w.err }

// SymbolTable returns the symbol table of the segment being written.
func (w *Writer) SymbolTable() *LocalSymbolTable { return w.table }

// Depth returns the number of open containers.
func (w *Writer) Depth() int { return w.bw.depth() }

// setError records the first non-nil error.
func (w *Writer) setError(err error) error {
	if w.err == nil && err != nil {
		w.err = err
	}
	return w.err
}

func (w *Writer) ready() error {
	if w.err != nil {
		return w.err
	}
	if w.finished {
		return fmt.Errorf("%w: writer is finished", ErrInvalidState)
	}
	w.started = true
	return nil
}

// FieldName sets the field name of the next value, which must be written
// inside a struct.
func (w *Writer) FieldName(name string) error {
	if err := w.ready(); err != nil {
		return err
	}
	w.bw.setFieldID(w.table.AddSymbol(name))
	return nil
}

// FieldNameID sets the field name of the next value by symbol ID.
func (w *Writer) FieldNameID(sid uint64) error {
	if err := w.ready(); err != nil {
		return err
	}
	if err := w.checkSymbolID(sid); err != nil {
		return w.setError(err)
	}
	w.bw.setFieldID(sid)
	return nil
}

// Annotations sets the annotations of the next value.
func (w *Writer) Annotations(names ...string) error {
	if err := w.ready(); err != nil {
		return err
	}
	sids := make([]uint64, len(names))
	for i, name := range names {
		sids[i] = w.table.AddSymbol(name)
	}
	w.bw.setAnnotations(sids...)
	return nil
}

func (w *Writer) checkSymbolID(sid uint64) error {
	if sid > w.table.MaxID() {
		return fmt.Errorf("%w: %d above max ID %d", ErrSymbolIDOutOfRange, sid, w.table.MaxID())
	}
	return nil
}

func (w *Writer) BeginStruct() error {
	if err := w.ready(); err != nil {
		return err
	}
	if w.bw.depth() == 0 && len(w.bw.annotations) > 0 && w.bw.annotations[0] == sidSymbolTable {
		w.bw.clearPending()
		return w.setError(fmt.Errorf("%w: symbol tables are managed by the writer", ErrInvalidState))
	}
	return w.setError(w.bw.beginContainer(codeStruct))
}

func (w *Writer) EndStruct() error { return w.end(codeStruct) }

func (w *Writer) BeginList() error { return w.begin(codeList) }
func (w *Writer) EndList() error { return w.end(codeList) }

func (w *Writer) BeginSexp() error { return w.begin(codeSexp) }
func (w *Writer) EndSexp() error { return w.end(codeSexp) }

func (w *Writer) begin(code byte) error {
	if err := w.ready(); err != nil {
		return err
	}
	return w.setError(w.bw.beginContainer(code))
}

func (w *Writer) end(code byte) error {
	if err := w.ready(); err != nil {
		return err
	}
	return w.setError(w.bw.endContainer(code))
}

// WriteNull writes an untyped null.
func (w *Writer) WriteNull() error { return w.WriteNullType(NullType) }

// WriteNullType writes a null of type t.
func (w *Writer) WriteNullType(t Type) error {
	if err := w.ready(); err != nil {
		return err
	}
	code, ok := typeCodes[t]
	if !ok {
		return w.setError(fmt.Errorf("%w: no null of %s", ErrInvalidState, t))
	}
	return w.setError(w.bw.writeNull(code))
}

func (w *Writer) WriteBool(v bool) error {
	if err := w.ready(); err != nil {
		return err
	}
	return w.setError(w.bw.writeBool(v))
}

func (w *Writer) WriteInt(v int64) error {
	if err := w.ready(); err != nil {
		return err
	}
	return w.setError(w.bw.writeInt(v))
}

// WriteBigInt writes v; a nil v is written as null.int.
func (w *Writer) WriteBigInt(v *big.Int) error {
	if v == nil {
		return w.WriteNullType(IntType)
	}
	if err := w.ready(); err != nil {
		return err
	}
	return w.setError(w.bw.writeBigInt(v))
}

func (w *Writer) WriteFloat(v float64) error {
	if err := w.ready(); err != nil {
		return err
	}
	return w.setError(w.bw.writeFloat(v))
}

func (w *Writer) WriteDecimal(d Decimal) error {
	if err := w.ready(); err != nil {
		return err
	}
	return w.setError(w.bw.writeDecimal(d))
}

func (w *Writer) WriteTimestamp(ts Timestamp) error {
	if err := w.ready(); err != nil {
		return err
	}
	return w.setError(w.bw.writeTimestamp(ts))
}

func (w *Writer) WriteString(s string) error {
	if err := w.ready(); err != nil {
		return err
	}
	return w.setError(w.bw.writeString(s))
}

// WriteSymbol interns s and writes it as a symbol value.
func (w *Writer) WriteSymbol(s string) error {
	if err := w.ready(); err != nil {
		return err
	}
	return w.setError(w.bw.writeSymbolID(w.table.AddSymbol(s)))
}

// WriteSymbolID writes a symbol value by ID. The ID must be defined by the
// writer's current symbol table.
func (w *Writer) WriteSymbolID(sid uint64) error {
	if err := w.ready(); err != nil {
		return err
	}
	if err := w.checkSymbolID(sid); err != nil {
		return w.setError(err)
	}
	return w.setError(w.bw.writeSymbolID(sid))
}

// WriteBlob writes v; a nil v is written as null.blob.
func (w *Writer) WriteBlob(v []byte) error {
	if v == nil {
		return w.WriteNullType(BlobType)
	}
	if err := w.ready(); err != nil {
		return err
	}
	return w.setError(w.bw.writeLob(codeBlob, v))
}

// WriteClob writes v; a nil v is written as null.clob.
func (w *Writer) WriteClob(v []byte) error {
	if v == nil {
		return w.WriteNullType(ClobType)
	}
	if err := w.ready(); err != nil {
		return err
	}
	return w.setError(w.bw.writeLob(codeClob, v))
}

// Flush writes the current segment: the version marker if it has not been
// written yet, the segment's symbol table and its values. The next segment
// starts with a fresh symbol table over the same imports.
func (w *Writer) Flush() error {
	if w.err != nil {
		return w.err
	}
	if w.finished {
		return nil
	}
	if len(w.bw.stack) > 0 || w.bw.hasField || len(w.bw.annotations) > 0 {
		return w.setError(fmt.Errorf("%w: flush with %d open containers or a pending field name or annotation",
			ErrInvalidState, w.bw.depth()))
	}
	if w.wroteIVM && w.values.Len() == 0 {
		return nil
	}

	hw := newBinaryWriter(w.header)
	if !w.wroteIVM {
		if err := hw.writeVersionMarker(); err != nil {
			return w.setError(err)
		}
	}
	if err := writeSymbolTable(hw, w.table); err != nil {
		return w.setError(err)
	}
	headerLen, valuesLen := w.header.Len(), w.values.Len()
	for _, seg := range []*BytesWriter{w.header, w.values} {
		n, err := seg.WriteTo(w.dst)
		w.count += n
		if err != nil {
			return w.setError(err)
		}
	}
	if f, ok := w.dst.(flusher); ok {
		if err := f.Flush(); err != nil {
			return w.setError(err)
		}
	}

	w.wroteIVM = true
	w.segments++
	w.log.Debug().
		Int("segment", w.segments).
		Int("header_bytes", headerLen).
		Int("value_bytes", valuesLen).
		Int("symbols", w.table.NumberOfSymbols()).
		Msg("writer: segment flushed")

	w.header.Reset()
	w.values.Reset()
	w.table = NewLocalSymbolTable(w.imp)
	return nil
}

// Finish flushes the last segment and closes the destination if it is an
// io.Closer. Later writes fail with ErrInvalidState.
func (w *Writer) Finish() error {
	if err := w.Flush(); err != nil {
		return err
	}
	if w.finished {
		return nil
	}
	w.finished = true
	if c, ok := w.dst.(io.Closer); ok {
		return w.setError(c.Close())
	}
	return nil
}

// Result finishes the writer and returns the total byte count and the
// final error state.
func (w *Writer) Result() (int64, error) {
	err := w.Finish()
	return w.count, err
}
