package ion

import "fmt"

// SymbolTable maps between symbol IDs and symbol text.
type SymbolTable interface {
	// MaxID returns the highest symbol ID the table defines.
	MaxID() uint64
	// SymbolID returns the lowest ID whose text is text.
	SymbolID(text string) (uint64, bool)
	// SymbolText returns the text of id. err wraps ErrSymbolIDOutOfRange when
	// id is 0 or above MaxID; ok is false when the ID is defined but its text
	// is unknown.
	SymbolText(id uint64) (text string, ok bool, err error)
}

// Symbols of the version 1 system symbol table.
const (
	systemTableName = "$ion"

	symbolTextIon         = "$ion"
	symbolTextIon10       = "$ion_1_0"
	symbolTextTable       = "$ion_symbol_table"
	symbolTextName        = "name"
	symbolTextVersion     = "version"
	symbolTextImports     = "imports"
	symbolTextSymbols     = "symbols"
	symbolTextMaxID       = "max_id"
	symbolTextSharedTable = "$ion_shared_symbol_table"
)

const (
	sidIon uint64 = iota + 1
	sidIon10
	sidSymbolTable
	sidName
	sidVersion
	sidImports
	sidSymbols
	sidMaxID
	sidSharedSymbolTable
)

// V1SystemSymbolTable returns a new copy of the version 1 system symbol
// table, whose symbols occupy IDs 1 through 9 in every local symbol table.
func V1SystemSymbolTable() *SharedSymbolTable {
	return NewSharedSymbolTable(systemTableName, 1, []string{
		symbolTextIon,
		symbolTextIon10,
		symbolTextTable,
		symbolTextName,
		symbolTextVersion,
		symbolTextImports,
		symbolTextSymbols,
		symbolTextMaxID,
		symbolTextSharedTable,
	})
}

// SharedSymbolTable is a named, versioned, immutable list of symbols that
// local symbol tables import. Standalone, its symbols are numbered from 1.
// It is safe for concurrent use.
type SharedSymbolTable struct {
	name    string
	version int
	symbols symbolList
}

var _ SymbolTable = (*SharedSymbolTable)(nil)

// NewSharedSymbolTable returns a table holding a copy of symbols. Versions
// below 1 are treated as 1.
func NewSharedSymbolTable(name string, version int, symbols []string) *SharedSymbolTable {
	if version < 1 {
		version = 1
	}
	t := &SharedSymbolTable{name: name, version: version, symbols: newSymbolList(len(symbols))}
	for _, s := range symbols {
		t.symbols.add(s)
	}
	return t
}

func (t *SharedSymbolTable) Name() string { return t.name }
func (t *SharedSymbolTable) Version() int { return t.version }

func (t *SharedSymbolTable) NumberOfSymbols() int { return t.symbols.len() }

// Symbols returns a copy of the table's symbols in ID order.
func (t *SharedSymbolTable) Symbols() []string { return t.symbols.snapshot() }

func (t *SharedSymbolTable) MaxID() uint64 { return uint64(t.symbols.len()) }

func (t *SharedSymbolTable) SymbolID(text string) (uint64, bool) {
	pos, ok := t.symbols.find(text)
	if !ok {
		return 0, false
	}
	return uint64(pos) + 1, true
}

func (t *SharedSymbolTable) SymbolText(id uint64) (string, bool, error) {
	if id == 0 || id > t.MaxID() {
		return "", false, fmt.Errorf("%w: %d not in [1, %d] of %s v%d", ErrSymbolIDOutOfRange, id, t.MaxID(), t.name, t.version)
	}
	text, ok := t.symbols.text(int(id - 1))
	return text, ok, nil
}

func (t *SharedSymbolTable) String() string {
	return fmt.Sprintf("%s v%d (%d symbols)", t.name, t.version, t.symbols.len())
}
