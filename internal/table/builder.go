package table

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/arkilian/sheetblob/internal/codec"
	apperrors "github.com/arkilian/sheetblob/internal/errors"
	"github.com/arkilian/sheetblob/internal/schema"
	"github.com/arkilian/sheetblob/pkg/types"
)

// OverflowPolicy controls single sheets whose blob count is greater than one.
type OverflowPolicy string

const (
	// OverflowConsume decodes and discards the extra records so the cursor
	// stays aligned for the following sheets.
	OverflowConsume OverflowPolicy = "consume"

	// OverflowLegacy reads only the first record and leaves the rest in the
	// buffer, matching older loaders. Every later read is then misaligned and
	// the build normally fails with a decode error further on.
	OverflowLegacy OverflowPolicy = "legacy"
)

// LoadHook is called for every record kept in a table, in blob order. A
// non-nil error aborts the build.
type LoadHook func(sheet *types.Sheet, sub *types.SubSheet, rec *types.Record) error

// BuildOptions configures Build.
type BuildOptions struct {
	// SingleOverflow selects the handling of single sheets with count > 1 (default: consume)
	SingleOverflow OverflowPolicy

	// Hook is an optional per-record callback
	Hook LoadHook

	// Logger receives construction diagnostics (default: discard)
	Logger *slog.Logger
}

// DefaultBuildOptions returns the default build options.
func DefaultBuildOptions() BuildOptions {
	return BuildOptions{SingleOverflow: OverflowConsume}
}

// Build decodes buf against catalog in one pass. It either returns a complete
// store or an error; a partially built store is never returned. The catalog
// must already be normalized and is validated before any byte is read.
func Build(buf []byte, catalog *types.Catalog, opts BuildOptions) (*Store, error) {
	if err := schema.Validate(catalog); err != nil {
		return nil, err
	}
	if opts.SingleOverflow == "" {
		opts.SingleOverflow = OverflowConsume
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	d := codec.NewDecoder(buf)
	version, err := d.ReadString()
	if err != nil {
		return nil, fmt.Errorf("version: %w", err)
	}
	opts.Logger.Debug("Decoding sheet blob", "version", version, "bytes", len(buf), "sheets", len(catalog.Sheets))

	store := &Store{
		version: version,
		catalog: catalog,
		sheets:  make(map[string]*SheetTables, len(catalog.Sheets)),
		order:   make([]*SheetTables, 0, len(catalog.Sheets)),
	}

	for _, sheet := range catalog.Sheets {
		st := &SheetTables{sheet: sheet, tables: make([]*Table, len(sheet.SubSheets))}
		for i := range sheet.SubSheets {
			sub := &sheet.SubSheets[i]
			tbl, err := buildTable(d, sheet, sub, opts)
			if err != nil {
				return nil, fmt.Errorf("sheet %s sub-sheet %s: %w", sheet.Name, sub.Name, err)
			}
			st.tables[i] = tbl
		}
		store.sheets[sheet.Name] = st
		store.order = append(store.order, st)
	}

	if !d.AtEnd() {
		return nil, apperrors.NewDecodeError(apperrors.CodeTrailingBytes,
			fmt.Sprintf("%d unread bytes after the last sub-sheet", d.Remaining())).
			WithDetails(map[string]interface{}{"offset": d.Offset(), "remaining": d.Remaining()})
	}

	return store, nil
}

func buildTable(d *codec.Decoder, sheet *types.Sheet, sub *types.SubSheet, opts BuildOptions) (*Table, error) {
	n, err := d.ReadCount("record count")
	if err != nil {
		return nil, err
	}

	if sheet.Single {
		return buildSingle(d, sheet, sub, n, opts)
	}

	// A record may encode to zero bytes, so the count is only trusted as far
	// as the remaining buffer for preallocation.
	tbl := newListTable(sheet, sub, min(n, d.Remaining()))
	for i := 0; i < n; i++ {
		rec, err := d.ReadRecord(sheet)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if err := tbl.insert(rec); err != nil {
			return nil, err
		}
		if err := runHook(opts.Hook, sheet, sub, rec, i); err != nil {
			return nil, err
		}
	}
	return tbl, nil
}

func buildSingle(d *codec.Decoder, sheet *types.Sheet, sub *types.SubSheet, n int, opts BuildOptions) (*Table, error) {
	tbl := &Table{sheet: sheet, sub: sub}
	if n == 0 {
		return tbl, nil
	}

	rec, err := d.ReadRecord(sheet)
	if err != nil {
		return nil, fmt.Errorf("record 0: %w", err)
	}
	tbl.single = rec
	if err := runHook(opts.Hook, sheet, sub, rec, 0); err != nil {
		return nil, err
	}

	if n == 1 {
		return tbl, nil
	}
	switch opts.SingleOverflow {
	case OverflowLegacy:
		opts.Logger.Warn("Single sheet declares extra records; leaving them unread",
			"sheet", sheet.Name, "sub_sheet", sub.Name, "count", n, "offset", d.Offset())
	default:
		// Records of a sheet without fields are empty; there is nothing to skip.
		for i := 1; i < n && len(sheet.Fields) > 0; i++ {
			if _, err := d.ReadRecord(sheet); err != nil {
				return nil, fmt.Errorf("discarded record %d: %w", i, err)
			}
		}
		opts.Logger.Warn("Single sheet declares extra records; discarded",
			"sheet", sheet.Name, "sub_sheet", sub.Name, "count", n)
	}
	return tbl, nil
}

func runHook(hook LoadHook, sheet *types.Sheet, sub *types.SubSheet, rec *types.Record, i int) error {
	if hook == nil {
		return nil
	}
	if err := hook(sheet, sub, rec); err != nil {
		return apperrors.Wrap(apperrors.ErrCategoryValidation, apperrors.CodeHookRejected,
			fmt.Sprintf("record %d rejected by load hook", i), err).
			WithDetails(map[string]interface{}{"sheet": sheet.Name, "sub_sheet": sub.Name, "record": i})
	}
	return nil
}
