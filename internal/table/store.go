package table

import (
	"github.com/arkilian/sheetblob/pkg/types"
)

// Store holds every decoded table of one blob. It is never modified after
// Build returns and is safe for concurrent readers.
type Store struct {
	version string
	catalog *types.Catalog
	sheets  map[string]*SheetTables
	order   []*SheetTables
}

// SheetTables groups the tables of one sheet, one per sub-sheet in catalog
// order.
type SheetTables struct {
	sheet  *types.Sheet
	tables []*Table
}

// Sheet returns the sheet definition.
func (s *SheetTables) Sheet() *types.Sheet {
	return s.sheet
}

// Tables returns one table per sub-sheet, in the sheet's sub-sheet order.
func (s *SheetTables) Tables() []*Table {
	return s.tables
}

// Table returns the table of the i-th sub-sheet.
func (s *SheetTables) Table(i int) *Table {
	return s.tables[i]
}

// Version returns the version string read from the blob header.
func (s *Store) Version() string {
	return s.version
}

// Catalog returns the catalog the store was decoded with.
func (s *Store) Catalog() *types.Catalog {
	return s.catalog
}

// Sheet returns the tables of the named sheet.
func (s *Store) Sheet(name string) (*SheetTables, bool) {
	st, ok := s.sheets[name]
	return st, ok
}

// Sheets returns every sheet in catalog order.
func (s *Store) Sheets() []*SheetTables {
	return s.order
}

// RecordCount returns the number of records kept across every table.
func (s *Store) RecordCount() int {
	total := 0
	for _, st := range s.order {
		for _, t := range st.tables {
			total += t.Len()
		}
	}
	return total
}
