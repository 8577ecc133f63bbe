// Package ion implements the binary encoding core of the Ion data format:
// variable-length integer codecs, shared and local symbol tables with
// chained imports, a catalog of shared tables, a backpatching binary
// writer and a non-recursive binary parser.
//
// A stream starts with the version marker E0 01 00 EA. Field names,
// annotations and symbol values are written as symbol IDs resolved through
// the local symbol table in effect, which the stream itself declares:
//
//	var buf bytes.Buffer
//	w := ion.NewWriter(&buf)
//	w.BeginStruct()
//	w.FieldName("key")
//	w.WriteString("value")
//	w.EndStruct()
//	if err := w.Finish(); err != nil {
//		// ...
//	}
//
//	r := ion.NewReaderBytes(buf.Bytes())
//	for {
//		t, err := r.Next()
//		if err != nil || t == ion.NoType {
//			break
//		}
//		// ...
//	}
//
// Shared tables imported by a stream are looked up in a Catalog, which can
// be filled programmatically or from a TOML document with LoadCatalogTOML.
// Imports the catalog cannot provide become placeholders whose symbols have
// IDs but no text.
package ion
