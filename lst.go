package ion

import (
	"fmt"
	"math"
)

// isSymbolTableStruct reports whether the parser is on a top-level struct
// annotated $ion_symbol_table.
func isSymbolTableStruct(p *Parser) bool {
	if p.Depth() != 0 || p.Type() != StructType || p.IsNull() {
		return false
	}
	return len(p.annotations) > 0 && p.annotations[0] == sidSymbolTable
}

// symbolTableDecl is the content of a local symbol table struct.
type symbolTableDecl struct {
	appendMode bool
	imports    []ImportDecl
	symbols    []*string // nil entries are gaps
}

// readSymbolTableDecl reads the local symbol table struct the parser is on
// and leaves the parser after it.
func readSymbolTableDecl(p *Parser) (symbolTableDecl, error) {
	var decl symbolTableDecl
	start := p.Offset()
	if err := p.StepIn(); err != nil {
		return decl, err
	}
	var seenImports, seenSymbols bool
	for {
		t, err := p.Next()
		if err != nil {
			return decl, err
		}
		if t == NoType {
			break
		}
		switch p.fieldID {
		case sidImports:
			if seenImports {
				return decl, malformedAt(start, "symbol table with repeated imports field")
			}
			seenImports = true
			switch {
			case p.IsNull():
			case t == SymbolType:
				sid, err := p.SymbolValue()
				if err != nil {
					return decl, err
				}
				decl.appendMode = sid == sidSymbolTable
			case t == ListType:
				if decl.imports, err = readImportDecls(p); err != nil {
					return decl, err
				}
			}
		case sidSymbols:
			if seenSymbols {
				return decl, malformedAt(start, "symbol table with repeated symbols field")
			}
			seenSymbols = true
			if t == ListType && !p.IsNull() {
				if decl.symbols, err = readSymbolList(p); err != nil {
					return decl, err
				}
			}
		}
	}
	return decl, p.StepOut()
}

func readSymbolList(p *Parser) ([]*string, error) {
	if err := p.StepIn(); err != nil {
		return nil, err
	}
	var symbols []*string
	for {
		t, err := p.Next()
		if err != nil {
			return nil, err
		}
		if t == NoType {
			break
		}
		if t != StringType || p.IsNull() {
			symbols = append(symbols, nil)
			continue
		}
		s, err := p.StringValue()
		if err != nil {
			return nil, err
		}
		symbols = append(symbols, &s)
	}
	return symbols, p.StepOut()
}

// readImportDecls reads a list of import structs. Entries that are not
// structs or have no string name are ignored; a missing or invalid version
// is 1 and a missing or invalid max_id is undeclared.
func readImportDecls(p *Parser) ([]ImportDecl, error) {
	if err := p.StepIn(); err != nil {
		return nil, err
	}
	var decls []ImportDecl
	for {
		t, err := p.Next()
		if err != nil {
			return nil, err
		}
		if t == NoType {
			break
		}
		if t != StructType || p.IsNull() {
			continue
		}
		d, err := readImportDecl(p)
		if err != nil {
			return nil, err
		}
		if d.Name != "" {
			decls = append(decls, d)
		}
	}
	return decls, p.StepOut()
}

func readImportDecl(p *Parser) (ImportDecl, error) {
	d := ImportDecl{Version: 1}
	if err := p.StepIn(); err != nil {
		return d, err
	}
	for {
		t, err := p.Next()
		if err != nil {
			return d, err
		}
		if t == NoType {
			break
		}
		if p.IsNull() {
			continue
		}
		switch {
		case p.fieldID == sidName && t == StringType:
			if d.Name, err = p.StringValue(); err != nil {
				return d, err
			}
		case p.fieldID == sidVersion && t == IntType:
			if v, err := p.IntValue(); err == nil && v >= 1 && v <= math.MaxInt32 {
				d.Version = int(v)
			}
		case p.fieldID == sidMaxID && t == IntType:
			if v, err := p.IntValue(); err == nil && v >= 0 {
				d.MaxID, d.HasMaxID = uint64(v), true
			}
		}
	}
	return d, p.StepOut()
}

// buildSymbolTable applies decl. In append mode the symbols extend current;
// otherwise a new table is built over the resolved imports.
func buildSymbolTable(decl symbolTableDecl, current *LocalSymbolTable, system *SharedSymbolTable, catalog *Catalog) (*LocalSymbolTable, error) {
	table := current
	if !decl.appendMode || current == nil {
		imp, err := catalog.ResolveImports(system, decl.imports)
		if err != nil {
			return nil, err
		}
		table = NewLocalSymbolTable(imp)
	}
	for _, s := range decl.symbols {
		if s == nil {
			table.appendGap()
		} else {
			table.appendSymbol(*s)
		}
	}
	return table, nil
}

// importDecls returns the declarations that reproduce the chain ending at
// imp, without the system table.
func importDecls(imp *Import) []ImportDecl {
	var decls []ImportDecl
	for _, i := range imp.Chain() {
		if i.Parent() == nil {
			continue
		}
		decls = append(decls, ImportDecl{Name: i.Name(), Version: i.Version(), MaxID: i.Length(), HasMaxID: true})
	}
	return decls
}

// writeSymbolTable writes the local symbol table struct for table: its
// imports (beyond the system table) and its own symbols. Nothing is written
// for a table that adds nothing to the system table.
func writeSymbolTable(w *binaryWriter, table *LocalSymbolTable) error {
	decls := importDecls(table.Import())
	symbols := table.Symbols()
	if len(decls) == 0 && len(symbols) == 0 {
		return nil
	}

	w.setAnnotations(sidSymbolTable)
	if err := w.beginContainer(codeStruct); err != nil {
		return err
	}
	if len(decls) > 0 {
		w.setFieldID(sidImports)
		if err := w.beginContainer(codeList); err != nil {
			return err
		}
		for _, d := range decls {
			if err := writeImportDecl(w, d); err != nil {
				return err
			}
		}
		if err := w.endContainer(codeList); err != nil {
			return err
		}
	}
	if len(symbols) > 0 {
		w.setFieldID(sidSymbols)
		if err := w.beginContainer(codeList); err != nil {
			return err
		}
		for _, s := range symbols {
			if err := w.writeString(s); err != nil {
				return err
			}
		}
		if err := w.endContainer(codeList); err != nil {
			return err
		}
	}
	return w.endContainer(codeStruct)
}

func writeImportDecl(w *binaryWriter, d ImportDecl) error {
	if d.MaxID > math.MaxInt64 {
		return fmt.Errorf("%w: import %q max_id %d", ErrOverflow, d.Name, d.MaxID)
	}
	if err := w.beginContainer(codeStruct); err != nil {
		return err
	}
	w.setFieldID(sidName)
	if err := w.writeString(d.Name); err != nil {
		return err
	}
	w.setFieldID(sidVersion)
	if err := w.writeInt(int64(d.Version)); err != nil {
		return err
	}
	w.setFieldID(sidMaxID)
	if err := w.writeInt(int64(d.MaxID)); err != nil {
		return err
	}
	return w.endContainer(codeStruct)
}
