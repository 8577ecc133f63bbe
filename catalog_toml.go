package ion

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"
)

// catalogDocument is the TOML form of a set of shared symbol tables:
//
//	[[table]]
//	name = "com.example.fields"
//	version = 2
//	symbols = ["id", "created_at", "owner"]
type catalogDocument struct {
	Tables []tableDocument `toml:"table"`
}

type tableDocument struct {
	Name    string   `toml:"name"`
	Version int      `toml:"version"`
	Symbols []string `toml:"symbols"`
}

// LoadCatalogTOML returns a new catalog holding the tables described by data.
func LoadCatalogTOML(data []byte) (*Catalog, error) {
	c := NewCatalog()
	if err := c.LoadTOML(data); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadTOML adds the tables described by data to c. Nothing is added when
// the document is invalid.
func (c *Catalog) LoadTOML(data []byte) error {
	var doc catalogDocument
	if err := toml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%w: catalog parse failed: %w", ErrInvalidCatalog, err)
	}
	tables := make([]*SharedSymbolTable, 0, len(doc.Tables))
	for i, td := range doc.Tables {
		if td.Name == "" {
			return fmt.Errorf("%w: table %d has no name", ErrInvalidCatalog, i)
		}
		if td.Name == systemTableName {
			return fmt.Errorf("%w: table %d redefines the system table", ErrInvalidCatalog, i)
		}
		if td.Version < 0 {
			return fmt.Errorf("%w: table %q has negative version %d", ErrInvalidCatalog, td.Name, td.Version)
		}
		tables = append(tables, NewSharedSymbolTable(td.Name, td.Version, td.Symbols))
	}
	for _, t := range tables {
		c.Add(t)
	}
	return nil
}
