package ion

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/puzpuzpuz/xsync/v4"
	"github.com/rs/zerolog"
)

type catalogKey struct {
	name    string
	version int
}

// Catalog is a registry of shared symbol tables keyed by name and version.
// Lookups are safe for concurrent use by any number of readers and writers.
// Registration is last-write-wins; callers that register tables while
// lookups are running get no ordering guarantee beyond that.
type Catalog struct {
	tables *xsync.Map[catalogKey, *SharedSymbolTable]
	log    zerolog.Logger
}

// NewCatalog returns a catalog holding tables.
func NewCatalog(tables ...*SharedSymbolTable) *Catalog {
	c := &Catalog{
		tables: xsync.NewMap[catalogKey, *SharedSymbolTable](),
		log:    zerolog.Nop(),
	}
	for _, t := range tables {
		c.Add(t)
	}
	return c
}

// WithLogger sets the logger for registration and resolution events and
// returns the catalog for chaining.
func (c *Catalog) WithLogger(log zerolog.Logger) *Catalog {
	c.log = log
	return c
}

// Add registers table under its name and version, replacing any table
// already registered under the same key. A table may be added to any
// number of catalogs.
func (c *Catalog) Add(table *SharedSymbolTable) {
	key := catalogKey{table.Name(), table.Version()}
	if prev, loaded := c.tables.LoadAndStore(key, table); loaded && prev != table {
		c.log.Debug().
			Str("name", key.name).
			Int("version", key.version).
			Msg("catalog: replaced shared symbol table")
	}
}

// Resolve returns the table registered under exactly name and version.
func (c *Catalog) Resolve(name string, version int) (*SharedSymbolTable, bool) {
	if version < 1 {
		version = 1
	}
	return c.tables.Load(catalogKey{name, version})
}

// Latest returns the highest registered version of name.
func (c *Catalog) Latest(name string) (*SharedSymbolTable, bool) {
	var best *SharedSymbolTable
	c.tables.Range(func(key catalogKey, table *SharedSymbolTable) bool {
		if key.name == name && (best == nil || key.version > best.Version()) {
			best = table
		}
		return true
	})
	return best, best != nil
}

// ResolveBest returns the exact match for name and version if there is one,
// and otherwise the highest registered version of name. exact reports which
// case applied.
func (c *Catalog) ResolveBest(name string, version int) (table *SharedSymbolTable, exact bool, ok bool) {
	if t, found := c.Resolve(name, version); found {
		return t, true, true
	}
	t, found := c.Latest(name)
	return t, false, found
}

// Len returns the number of registered tables.
func (c *Catalog) Len() int { return c.tables.Size() }

// Tables returns the registered tables ordered by name, then version.
func (c *Catalog) Tables() []*SharedSymbolTable {
	var out []*SharedSymbolTable
	c.tables.Range(func(_ catalogKey, table *SharedSymbolTable) bool {
		out = append(out, table)
		return true
	})
	slices.SortFunc(out, func(a, b *SharedSymbolTable) int {
		return cmp.Or(cmp.Compare(a.Name(), b.Name()), cmp.Compare(a.Version(), b.Version()))
	})
	return out
}

// ResolveImports builds the import chain declared by decls on top of the
// system table.
//
// Declarations named $ion or with no name are skipped. A declaration whose
// table is missing from the catalog becomes a placeholder spanning its
// declared max_id. It fails with ErrAmbiguousImport when one name is
// declared twice with a different version or max_id, or when a declaration
// has no max_id and the catalog has no exact match to take the length from.
func (c *Catalog) ResolveImports(system *SharedSymbolTable, decls []ImportDecl) (*Import, error) {
	imp := NewSystemImport(system)
	seen := make(importSet, len(decls))

	for _, d := range decls {
		if d.Name == "" || d.Name == systemTableName {
			continue
		}
		if d.Version < 1 {
			d.Version = 1
		}
		if err := seen.add(d); err != nil {
			return nil, err
		}

		var table *SharedSymbolTable
		exact := false
		if c != nil {
			table, exact, _ = c.ResolveBest(d.Name, d.Version)
		}
		if !d.HasMaxID && !exact {
			return nil, fmt.Errorf("%w: %q v%d has no max_id and no exact match in the catalog",
				ErrAmbiguousImport, d.Name, d.Version)
		}

		length := d.MaxID
		if !d.HasMaxID {
			length = uint64(table.NumberOfSymbols())
		}

		if table == nil {
			if c != nil {
				c.log.Debug().
					Str("name", d.Name).
					Int("version", d.Version).
					Uint64("max_id", length).
					Msg("catalog: shared symbol table not found, using placeholder")
			}
			imp = NewPlaceholderImport(imp, d.Name, d.Version, length)
			continue
		}
		imp = NewImportWithLength(imp, table, length)
		imp.name, imp.version = d.Name, d.Version
	}
	return imp, nil
}
