// Package export writes a decoded store into SQLite so it can be queried with
// ordinary SQL tooling.
package export

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"runtime"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/sync/errgroup"

	"github.com/arkilian/sheetblob/internal/table"
	"github.com/arkilian/sheetblob/pkg/types"
)

// MetaTable and IndexTable are written next to the sub-sheet tables.
const (
	MetaTable  = "_sheetblob_meta"
	IndexTable = "_sheetblob_tables"
)

// Summary describes a finished export.
type Summary struct {
	Tables  int
	Records int
}

// tableRows is one sub-sheet ready to insert.
type tableRows struct {
	sheet *types.Sheet
	sub   *types.SubSheet
	tbl   *table.Table
	rows  [][]any
}

// Open opens (creating if needed) the SQLite database at path for export.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("export: failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1) // Single writer
	return db, nil
}

// SQLite writes every sub-sheet of store to db in one transaction. Each
// sub-sheet becomes a table named after it; existing tables of the same name
// are replaced. List fields are stored as JSON text.
func SQLite(ctx context.Context, db *sql.DB, store *table.Store, meta map[string]string) (Summary, error) {
	var all []*tableRows
	for _, st := range store.Sheets() {
		for _, tbl := range st.Tables() {
			all = append(all, &tableRows{sheet: st.Sheet(), sub: tbl.SubSheet(), tbl: tbl})
		}
	}

	// Row conversion is independent per table; only the write is serialized.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, tr := range all {
		tr := tr
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rows, err := convertTable(tr.tbl)
			if err != nil {
				return fmt.Errorf("export: sub-sheet %s: %w", tr.sub.Name, err)
			}
			tr.rows = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Summary{}, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return Summary{}, fmt.Errorf("export: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := writeMeta(ctx, tx, store, meta); err != nil {
		return Summary{}, err
	}

	var sum Summary
	for _, tr := range all {
		tr := tr
		if err := writeTable(ctx, tx, tr); err != nil {
			return Summary{}, fmt.Errorf("export: sub-sheet %s: %w", tr.sub.Name, err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO "+quoteIdent(IndexTable)+" (sub_sheet, sheet, config_type, single, records) VALUES (?, ?, ?, ?, ?)",
			tr.sub.Name, tr.sheet.Name, tr.sub.ConfigType, tr.sheet.Single, len(tr.rows)); err != nil {
			return Summary{}, fmt.Errorf("export: failed to index %s: %w", tr.sub.Name, err)
		}
		sum.Tables++
		sum.Records += len(tr.rows)
	}

	if err := tx.Commit(); err != nil {
		return Summary{}, fmt.Errorf("export: failed to commit: %w", err)
	}
	return sum, nil
}

func writeMeta(ctx context.Context, tx *sql.Tx, store *table.Store, meta map[string]string) error {
	stmts := []string{
		"DROP TABLE IF EXISTS " + quoteIdent(MetaTable),
		"CREATE TABLE " + quoteIdent(MetaTable) + " (key TEXT PRIMARY KEY, value TEXT NOT NULL)",
		"DROP TABLE IF EXISTS " + quoteIdent(IndexTable),
		"CREATE TABLE " + quoteIdent(IndexTable) + ` (
			sub_sheet TEXT PRIMARY KEY,
			sheet TEXT NOT NULL,
			config_type INTEGER NOT NULL,
			single INTEGER NOT NULL,
			records INTEGER NOT NULL
		)`,
	}
	for _, s := range stmts {
		if _, err := tx.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("export: failed to initialize schema: %w", err)
		}
	}

	values := map[string]string{
		"version":     store.Version(),
		"exported_at": time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range meta {
		values[k] = v
	}
	for k, v := range values {
		if _, err := tx.ExecContext(ctx, "INSERT INTO "+quoteIdent(MetaTable)+" (key, value) VALUES (?, ?)", k, v); err != nil {
			return fmt.Errorf("export: failed to write metadata: %w", err)
		}
	}
	return nil
}

func writeTable(ctx context.Context, tx *sql.Tx, tr *tableRows) error {
	name := quoteIdent(tr.sub.Name)
	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+name); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, createTableSQL(tr.sheet, tr.sub)); err != nil {
		return err
	}
	if len(tr.sheet.Fields) == 0 || len(tr.rows) == 0 {
		return nil
	}

	cols := make([]string, len(tr.sheet.Fields))
	marks := make([]string, len(tr.sheet.Fields))
	for i, f := range tr.sheet.Fields {
		cols[i] = quoteIdent(f.Name)
		marks[i] = "?"
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		name, strings.Join(cols, ", "), strings.Join(marks, ", ")))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, row := range tr.rows {
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return err
		}
	}
	return nil
}

func createTableSQL(sheet *types.Sheet, sub *types.SubSheet) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(quoteIdent(sub.Name))
	b.WriteString(" (")
	if len(sheet.Fields) == 0 {
		// SQLite requires at least one column.
		b.WriteString("_row INTEGER")
	}
	for i, f := range sheet.Fields {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quoteIdent(f.Name))
		b.WriteString(" ")
		b.WriteString(columnType(f.Type))
		if !sheet.Single && f.Name == sheet.Key {
			b.WriteString(" PRIMARY KEY")
		}
	}
	b.WriteString(")")
	return b.String()
}

// columnType maps a field type to a SQLite column affinity.
func columnType(ft types.FieldType) string {
	if ft.List {
		return "TEXT"
	}
	switch ft.Kind {
	case types.KindInt32, types.KindInt64, types.KindBool:
		return "INTEGER"
	case types.KindFloat32:
		return "REAL"
	default:
		return "TEXT"
	}
}

func convertTable(tbl *table.Table) ([][]any, error) {
	var recs []*types.Record
	if tbl.Sheet().Single {
		if rec := tbl.Single(); rec != nil {
			recs = []*types.Record{rec}
		}
	} else {
		recs = tbl.List()
	}

	rows := make([][]any, len(recs))
	for i, rec := range recs {
		row := make([]any, rec.Len())
		for j := 0; j < rec.Len(); j++ {
			v, err := columnValue(tbl.Sheet().Fields[j].Type, rec.Value(j))
			if err != nil {
				return nil, fmt.Errorf("record %d field %s: %w", i, tbl.Sheet().Fields[j].Name, err)
			}
			row[j] = v
		}
		rows[i] = row
	}
	return rows, nil
}

func columnValue(ft types.FieldType, v any) (any, error) {
	if ft.List {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		return string(b), nil
	}
	if f, ok := v.(float32); ok {
		return float64(f), nil
	}
	return v, nil
}

// quoteIdent quotes a SQLite identifier.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
