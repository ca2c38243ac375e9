// Package tables is the read-only accessor API over a decoded store.
//
// Variant sheets are resolved against the current mode on every call. Lookup
// problems never return errors: they degrade to an absent result and, where
// noted, one diagnostic sent to the configured Reporter.
package tables

import (
	"fmt"

	apperrors "github.com/arkilian/sheetblob/internal/errors"
	"github.com/arkilian/sheetblob/internal/observability"
	"github.com/arkilian/sheetblob/internal/table"
	"github.com/arkilian/sheetblob/internal/variant"
	"github.com/arkilian/sheetblob/pkg/types"
)

// Options configures an accessor.
type Options struct {
	// Selector maps host modes to sub-sheets (default: mode used as config_type)
	Selector *variant.Selector

	// Reporter receives lookup diagnostics (default: discard)
	Reporter Reporter

	// Stats counts ByKey hits and misses per sheet (optional)
	Stats *observability.LookupStats
}

// Tables reads records from an immutable store. It is safe for concurrent use.
type Tables struct {
	store *table.Store
	mode  variant.ModeSource
	opts  Options
}

// New returns an accessor over store. mode is queried on every access to a
// variant sheet; a nil mode always selects the default sub-sheet.
func New(store *table.Store, mode variant.ModeSource, opts Options) *Tables {
	if mode == nil {
		mode = variant.Fixed(0)
	}
	if opts.Reporter == nil {
		opts.Reporter = discardReporter{}
	}
	return &Tables{store: store, mode: mode, opts: opts}
}

// Store returns the underlying store.
func (t *Tables) Store() *table.Store {
	return t.store
}

// Selector returns the selector used for variant sheets.
func (t *Tables) Selector() *variant.Selector {
	return t.opts.Selector
}

// WithMode returns an accessor over the same store pinned to mode m. Use it
// when several reads must observe one mode.
func (t *Tables) WithMode(m variant.Mode) *Tables {
	return &Tables{store: t.store, mode: variant.Fixed(m), opts: t.opts}
}

// Active returns the table of the sub-sheet currently selected for sheet.
func (t *Tables) Active(sheet string) (*table.Table, bool) {
	st, ok := t.store.Sheet(sheet)
	if !ok {
		return nil, false
	}
	return t.resolve(st), true
}

// Single returns the record of a single-valued sheet. A nil result with no
// diagnostic means the blob held no record for the active sub-sheet.
func (t *Tables) Single(sheet string) *types.Record {
	tbl := t.lookup(sheet, true)
	if tbl == nil {
		return nil
	}
	return tbl.Single()
}

// ByKey returns the record stored under key in a list-valued sheet. Integer
// keys of any Go width are accepted. A miss reports exactly one diagnostic
// and returns nil.
func (t *Tables) ByKey(sheet string, key any) *types.Record {
	tbl := t.lookup(sheet, false)
	if tbl == nil {
		return nil
	}

	field := tbl.Sheet().KeyField()
	norm, ok := field.Type.NormalizeKey(key)
	if !ok {
		if t.opts.Stats != nil {
			t.opts.Stats.RecordInvalid(sheet)
		}
		t.report(apperrors.CodeInvalidKey,
			fmt.Sprintf("invalid key %v (%T) for sheet %s key field %s of type %s", key, key, sheet, field.Name, field.Type),
			map[string]interface{}{"sheet": sheet, "key": key})
		return nil
	}

	rec, ok := tbl.Index().Get(norm)
	if !ok {
		t.miss(sheet)
		t.report(apperrors.CodeRecordNotFound,
			fmt.Sprintf("record not found for key %v in sheet %s", key, sheet),
			map[string]interface{}{"sheet": sheet, "key": key, "sub_sheet": tbl.SubSheet().Name})
		return nil
	}
	if t.opts.Stats != nil {
		t.opts.Stats.RecordHit(sheet)
	}
	return rec
}

// Map returns the key index of the active sub-sheet. An unknown or
// single-valued sheet yields an empty index.
func (t *Tables) Map(sheet string) table.Index {
	tbl := t.lookup(sheet, false)
	if tbl == nil {
		return table.Index{}
	}
	return tbl.Index()
}

// List returns the records of the active sub-sheet in blob order. The slice
// is shared and must not be modified.
func (t *Tables) List(sheet string) []*types.Record {
	tbl := t.lookup(sheet, false)
	if tbl == nil {
		return nil
	}
	return tbl.List()
}

// lookup resolves sheet and checks its cardinality, reporting problems.
func (t *Tables) lookup(sheet string, single bool) *table.Table {
	st, ok := t.store.Sheet(sheet)
	if !ok {
		t.report(apperrors.CodeUnknownSheet, fmt.Sprintf("unknown sheet %s", sheet),
			map[string]interface{}{"sheet": sheet})
		return nil
	}
	if st.Sheet().Single != single {
		want, have := "list-valued", "single-valued"
		if single {
			want, have = have, want
		}
		t.report(apperrors.CodeWrongCardinality,
			fmt.Sprintf("sheet %s is %s, not %s", sheet, have, want),
			map[string]interface{}{"sheet": sheet})
		return nil
	}
	return t.resolve(st)
}

// resolve picks the active table, reading the mode once and only for
// variant sheets.
func (t *Tables) resolve(st *table.SheetTables) *table.Table {
	if !st.Sheet().IsVariant() {
		return st.Table(0)
	}
	return st.Table(t.opts.Selector.Select(st.Sheet(), t.mode.CurrentMode()))
}

func (t *Tables) miss(sheet string) {
	if t.opts.Stats != nil {
		t.opts.Stats.RecordMiss(sheet)
	}
}

func (t *Tables) report(code, msg string, details map[string]interface{}) {
	if er, ok := t.opts.Reporter.(ErrorReporter); ok {
		er.ReportError(apperrors.NewLookupError(code, msg).WithDetails(details))
		return
	}
	t.opts.Reporter.Report(msg)
}
