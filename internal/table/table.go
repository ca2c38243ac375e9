// Package table builds the immutable in-memory store of decoded sheets.
package table

import (
	"fmt"
	"sort"

	apperrors "github.com/arkilian/sheetblob/internal/errors"
	"github.com/arkilian/sheetblob/pkg/types"
)

// Table is the decoded form of one sub-sheet: a single optional record for
// single sheets, or an ordered list plus key index for list sheets.
type Table struct {
	sheet  *types.Sheet
	sub    *types.SubSheet
	single *types.Record
	list   []*types.Record
	index  Index
}

func newListTable(sheet *types.Sheet, sub *types.SubSheet, capacity int) *Table {
	return &Table{
		sheet: sheet,
		sub:   sub,
		list:  make([]*types.Record, 0, capacity),
		index: Index{byKey: make(map[any]*types.Record, capacity)},
	}
}

// Sheet returns the sheet definition.
func (t *Table) Sheet() *types.Sheet {
	return t.sheet
}

// SubSheet returns the physical copy this table was decoded from.
func (t *Table) SubSheet() *types.SubSheet {
	return t.sub
}

// Single returns the record of a single sheet, or nil when the blob held none.
func (t *Table) Single() *types.Record {
	return t.single
}

// List returns the records of a list sheet in blob order. The slice is shared
// and must not be modified.
func (t *Table) List() []*types.Record {
	return t.list
}

// Index returns the key index of a list sheet.
func (t *Table) Index() Index {
	return t.index
}

// Len returns the number of decoded records.
func (t *Table) Len() int {
	if t.sheet.Single {
		if t.single != nil {
			return 1
		}
		return 0
	}
	return len(t.list)
}

// insert appends rec and indexes it, failing when its key is already taken.
func (t *Table) insert(rec *types.Record) error {
	key := rec.Key()
	if prev, ok := t.index.byKey[key]; ok {
		return apperrors.NewIndexError(apperrors.CodeDuplicateKey,
			fmt.Sprintf("sheet %s sub-sheet %s: duplicate key %v", t.sheet.Name, t.sub.Name, key)).
			WithDetails(map[string]interface{}{
				"sheet":       t.sheet.Name,
				"sub_sheet":   t.sub.Name,
				"key":         key,
				"first_index": indexOf(t.list, prev),
				"dup_index":   len(t.list),
			})
	}
	t.index.byKey[key] = rec
	t.list = append(t.list, rec)
	return nil
}

func indexOf(list []*types.Record, rec *types.Record) int {
	for i, r := range list {
		if r == rec {
			return i
		}
	}
	return -1
}

// Index is a read-only view of a list table's key map.
type Index struct {
	byKey map[any]*types.Record
}

// Get returns the record stored under key. Keys are normalized with
// types.FieldType.NormalizeKey by callers; Get itself matches exactly.
func (ix Index) Get(key any) (*types.Record, bool) {
	rec, ok := ix.byKey[key]
	return rec, ok
}

// Len returns the number of keys.
func (ix Index) Len() int {
	return len(ix.byKey)
}

// Range calls fn for every entry in unspecified order until fn returns false.
func (ix Index) Range(fn func(key any, rec *types.Record) bool) {
	for k, v := range ix.byKey {
		if !fn(k, v) {
			return
		}
	}
}

// Keys returns every key, sorted for stable output.
func (ix Index) Keys() []any {
	keys := make([]any, 0, len(ix.byKey))
	for k := range ix.byKey {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return lessKey(keys[i], keys[j]) })
	return keys
}

func lessKey(a, b any) bool {
	switch x := a.(type) {
	case int32:
		return x < b.(int32)
	case int64:
		return x < b.(int64)
	case string:
		return x < b.(string)
	case bool:
		return !x && b.(bool)
	default:
		return fmt.Sprint(a) < fmt.Sprint(b)
	}
}
