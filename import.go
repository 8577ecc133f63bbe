package ion

import "fmt"

// Import is one slice of a symbol table's import chain: a shared table, the
// number of its symbols that are imported, and the ID at which they start.
// The first import of every chain is the system table at offset 1; each
// later import starts where its parent ends.
//
// An import whose shared table could not be found is a placeholder: it still
// spans its declared length, but its IDs have no text.
type Import struct {
	parent  *Import
	table   *SharedSymbolTable
	name    string
	version int
	offset  uint64
	length  uint64
}

// NewSystemImport returns the root of an import chain.
func NewSystemImport(system *SharedSymbolTable) *Import {
	return &Import{
		table:   system,
		name:    system.Name(),
		version: system.Version(),
		offset:  1,
		length:  uint64(system.NumberOfSymbols()),
	}
}

// NewImport chains all symbols of table after parent.
func NewImport(parent *Import, table *SharedSymbolTable) *Import {
	return NewImportWithLength(parent, table, uint64(table.NumberOfSymbols()))
}

// NewImportWithLength chains the first length symbols of table after
// parent. length may exceed the table's size; the extra IDs have no text.
func NewImportWithLength(parent *Import, table *SharedSymbolTable, length uint64) *Import {
	imp := newChainedImport(parent, table.Name(), table.Version(), length)
	imp.table = table
	return imp
}

// NewPlaceholderImport chains length IDs with unknown text after parent,
// standing in for a shared table that is not available.
func NewPlaceholderImport(parent *Import, name string, version int, length uint64) *Import {
	return newChainedImport(parent, name, version, length)
}

func newChainedImport(parent *Import, name string, version int, length uint64) *Import {
	offset := uint64(1)
	if parent != nil {
		offset = parent.End()
	}
	if version < 1 {
		version = 1
	}
	return &Import{parent: parent, name: name, version: version, offset: offset, length: length}
}

func (i *Import) Name() string { return i.name }
func (i *Import) Version() int { return i.version }
func (i *Import) Offset() uint64 { return i.offset }
func (i *Import) Length() uint64 { return i.length }
func (i *Import) Parent() *Import { return i.parent }

// Table returns the resolved shared table, or nil for a placeholder.
func (i *Import) Table() *SharedSymbolTable { return i.table }

// IsPlaceholder reports whether the import's shared table was unavailable.
func (i *Import) IsPlaceholder() bool { return i.table == nil }

// End returns the first ID after this import, which is where the next
// import (or the local symbols) begin.
func (i *Import) End() uint64 { return i.offset + i.length }

// MaxID returns the highest ID defined by the chain ending at i.
func (i *Import) MaxID() uint64 { return i.End() - 1 }

// SymbolID resolves text against the chain, ancestors first, so that the
// lowest ID wins.
func (i *Import) SymbolID(text string) (uint64, bool) {
	if i.parent != nil {
		if id, ok := i.parent.SymbolID(text); ok {
			return id, true
		}
	}
	if i.table == nil {
		return 0, false
	}
	pos, ok := i.table.symbols.find(text)
	if !ok || uint64(pos) >= i.length {
		return 0, false
	}
	return i.offset + uint64(pos), true
}

// SymbolText resolves id against the chain. Unknown or out-of-chain IDs
// report false.
func (i *Import) SymbolText(id uint64) (string, bool) {
	if id < i.offset {
		if i.parent == nil {
			return "", false
		}
		return i.parent.SymbolText(id)
	}
	if id >= i.End() || i.table == nil {
		return "", false
	}
	return i.table.symbols.text(int(id - i.offset))
}

// Chain returns the imports from the root to i, in ID order.
func (i *Import) Chain() []*Import {
	var chain []*Import
	for cur := i; cur != nil; cur = cur.parent {
		chain = append(chain, cur)
	}
	for l, r := 0, len(chain)-1; l < r; l, r = l+1, r-1 {
		chain[l], chain[r] = chain[r], chain[l]
	}
	return chain
}

func (i *Import) String() string {
	return fmt.Sprintf("%s v%d [%d, %d]", i.name, i.version, i.offset, i.MaxID())
}

// ImportDecl is an import as declared in a stream or by a writer: the table
// to import and, optionally, how many of its symbols.
type ImportDecl struct {
	Name     string
	Version  int
	MaxID    uint64
	HasMaxID bool
}

// importSet tracks the declarations of one import list by name.
type importSet map[string]ImportDecl

// add records d. It fails with ErrAmbiguousImport when d's name was
// declared before with a different version or max_id, since both cannot
// hold the same IDs.
func (s importSet) add(d ImportDecl) error {
	if prev, ok := s[d.Name]; ok && prev != d {
		return fmt.Errorf("%w: %q declared as v%d and v%d with different lengths",
			ErrAmbiguousImport, d.Name, prev.Version, d.Version)
	}
	s[d.Name] = d
	return nil
}
