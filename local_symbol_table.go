package ion

import "fmt"

// LocalSymbolTable defines the symbols of one encoding context that are not
// provided by its imports. Its own symbols start right after the import
// chain and only ever grow.
//
// The offset is fixed when the table is built. Changing the import chain
// afterwards requires building a new table.
type LocalSymbolTable struct {
	imp     *Import
	offset  uint64
	symbols symbolList
}

var _ SymbolTable = (*LocalSymbolTable)(nil)

// NewLocalSymbolTable returns a table chained after imp holding symbols.
// Symbols already defined by imp, or repeated, are not added twice.
func NewLocalSymbolTable(imp *Import, symbols ...string) *LocalSymbolTable {
	t := &LocalSymbolTable{
		imp:     imp,
		offset:  imp.End(),
		symbols: newSymbolList(len(symbols)),
	}
	for _, s := range symbols {
		t.AddSymbol(s)
	}
	return t
}

// NewDefaultLocalSymbolTable returns an empty table that imports only the
// given system table.
func NewDefaultLocalSymbolTable(system *SharedSymbolTable) *LocalSymbolTable {
	return NewLocalSymbolTable(NewSystemImport(system))
}

// SymbolID returns the ID of text. The import chain is searched first, so
// an imported symbol resolves to its lower, imported ID.
func (t *LocalSymbolTable) SymbolID(text string) (uint64, bool) {
	if id, ok := t.imp.SymbolID(text); ok {
		return id, true
	}
	pos, ok := t.symbols.find(text)
	if !ok {
		return 0, false
	}
	return t.offset + uint64(pos), true
}

// AddSymbol returns the ID of text, appending it to the table if neither
// the import chain nor the table defines it yet.
func (t *LocalSymbolTable) AddSymbol(text string) uint64 {
	if id, ok := t.SymbolID(text); ok {
		return id
	}
	return t.offset + uint64(t.symbols.add(text))
}

// appendSymbol assigns the next ID to text even when text is already known.
// Symbol lists read from a stream define one ID per entry.
func (t *LocalSymbolTable) appendSymbol(text string) uint64 {
	return t.offset + uint64(t.symbols.add(text))
}

// appendGap assigns the next ID to a symbol with unknown text.
func (t *LocalSymbolTable) appendGap() uint64 {
	return t.offset + uint64(t.symbols.addGap())
}

// SymbolText returns the text of id. IDs below the table's offset are
// resolved through the import chain.
func (t *LocalSymbolTable) SymbolText(id uint64) (string, bool, error) {
	if id == 0 || id > t.MaxID() {
		return "", false, fmt.Errorf("%w: %d not in [1, %d]", ErrSymbolIDOutOfRange, id, t.MaxID())
	}
	if id < t.offset {
		text, ok := t.imp.SymbolText(id)
		return text, ok, nil
	}
	text, ok := t.symbols.text(int(id - t.offset))
	return text, ok, nil
}

// MaxID returns the highest ID defined by the imports and the table.
func (t *LocalSymbolTable) MaxID() uint64 { return t.offset + uint64(t.symbols.len()) - 1 }

// Offset returns the ID of the table's first own symbol.
func (t *LocalSymbolTable) Offset() uint64 { return t.offset }

// NumberOfSymbols returns the number of symbols the table itself defines.
func (t *LocalSymbolTable) NumberOfSymbols() int { return t.symbols.len() }

// Symbols returns a copy of the table's own symbols in ID order.
func (t *LocalSymbolTable) Symbols() []string { return t.symbols.snapshot() }

func (t *LocalSymbolTable) Import() *Import { return t.imp }
