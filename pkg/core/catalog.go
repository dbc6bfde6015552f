package core

import (
	"slices"
	"strings"
)

// Column describes one column of a catalog table.
type Column struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type,omitempty" yaml:"type,omitempty"`
}

// Catalog is the read-only table lookup consulted by validation and
// optimization. Implementations must be safe for concurrent reads.
type Catalog interface {
	// Lookup returns the columns of table, or false if the table is unknown.
	Lookup(table string) ([]Column, bool)
}

// MapCatalog is an in-memory Catalog keyed by table name.
// Lookups are case-insensitive.
type MapCatalog map[string][]Column

// Lookup implements Catalog.
func (m MapCatalog) Lookup(table string) ([]Column, bool) {
	if cols, ok := m[table]; ok {
		return cols, true
	}
	folded := FoldIdent(table)
	for name, cols := range m {
		if FoldIdent(name) == folded {
			return cols, true
		}
	}
	return nil, false
}

// Tables returns the table names in sorted order.
func (m MapCatalog) Tables() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int {
		return strings.Compare(FoldIdent(a), FoldIdent(b))
	})
	return names
}

// HasColumn reports whether table has a column named column.
func HasColumn(c Catalog, table, column string) bool {
	cols, ok := c.Lookup(table)
	if !ok {
		return false
	}
	for _, col := range cols {
		if EqualIdent(col.Name, column) {
			return true
		}
	}
	return false
}
