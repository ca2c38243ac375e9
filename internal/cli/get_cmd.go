package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	apperrors "github.com/arkilian/sheetblob/internal/errors"
	"github.com/arkilian/sheetblob/internal/observability"
	"github.com/arkilian/sheetblob/internal/tables"
	"github.com/arkilian/sheetblob/internal/variant"
	"github.com/arkilian/sheetblob/pkg/types"
)

// collectingReporter logs every diagnostic and keeps the first one so the
// command can fail with it.
type collectingReporter struct {
	*tables.SlogReporter
	first *apperrors.SheetError
}

func (r *collectingReporter) ReportError(err *apperrors.SheetError) {
	r.SlogReporter.ReportError(err)
	if r.first == nil {
		r.first = err
	}
}

func newGetCmd(e *env) *cobra.Command {
	var (
		mode      int32
		showStats bool
	)

	cmd := &cobra.Command{
		Use:   "get <sheet> [key...]",
		Short: "Print records of a sheet",
		Long: `Print records of a sheet for a host mode.

With no key, a single-valued sheet prints its record and a list-valued sheet
prints every record. With keys, each is looked up by the sheet's key field.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("mode") {
				mode = e.cfg.Variant.DefaultMode
			}

			snap, err := e.load(cmd.Context())
			if err != nil {
				return err
			}

			rep := &collectingReporter{SlogReporter: tables.NewSlogReporter(e.logger)}
			stats := observability.NewLookupStats(0)
			t := tables.New(snap.Store, variant.Fixed(variant.Mode(mode)), tables.Options{
				Selector: e.cfg.Selector(),
				Reporter: rep,
				Stats:    stats,
			})

			sheetName, keys := args[0], args[1:]
			var recs []*types.Record
			switch {
			case len(keys) > 0:
				sheet := snap.Store.Catalog().Sheet(sheetName)
				for _, k := range keys {
					if rec := t.ByKey(sheetName, parseKey(sheet, k)); rec != nil {
						recs = append(recs, rec)
					}
				}
			default:
				sheet := snap.Store.Catalog().Sheet(sheetName)
				if sheet != nil && sheet.Single {
					if rec := t.Single(sheetName); rec != nil {
						recs = append(recs, rec)
					}
				} else {
					recs = t.List(sheetName)
				}
			}

			out := cmd.OutOrStdout()
			if err := printRecords(cmd, out, t, sheetName, recs); err != nil {
				return err
			}
			if showStats {
				if err := printStats(cmd, e.stderr, stats); err != nil {
					return err
				}
			}
			if rep.first != nil {
				return rep.first
			}
			return nil
		},
	}

	cmd.Flags().Int32VarP(&mode, "mode", "m", 0, "Host mode used to pick variant sub-sheets (default: variant.default_mode)")
	cmd.Flags().BoolVar(&showStats, "stats", false, "Print lookup hit/miss counters to stderr")

	return cmd
}

// parseKey converts a command-line key to the Go type of the sheet's key
// field. Unparseable input is passed through as a string so the lookup
// reports it as an invalid key.
func parseKey(sheet *types.Sheet, raw string) any {
	if sheet == nil || sheet.KeyField() == nil {
		return raw
	}
	switch sheet.KeyField().Type.Kind {
	case types.KindInt32, types.KindInt64:
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return n
		}
	case types.KindBool:
		if b, err := strconv.ParseBool(raw); err == nil {
			return b
		}
	}
	return raw
}

func printRecords(cmd *cobra.Command, out io.Writer, t *tables.Tables, sheetName string, recs []*types.Record) error {
	active, _ := t.Active(sheetName)

	if getOutputFormat(cmd) == "json" {
		res := map[string]interface{}{
			"sheet":   sheetName,
			"records": recordMaps(recs),
		}
		if active != nil {
			res["sub_sheet"] = active.SubSheet().Name
		}
		return printJSON(out, res)
	}

	if active == nil {
		return nil
	}
	fields := active.Sheet().Fields
	header := make([]string, len(fields))
	for i, f := range fields {
		header[i] = f.Name
	}
	rows := make([][]string, len(recs))
	for i, rec := range recs {
		row := make([]string, rec.Len())
		for j := range row {
			row[j] = formatValue(rec.Value(j))
		}
		rows[i] = row
	}
	_, _ = fmt.Fprintf(out, "# %s\n", active.SubSheet().Name)
	return printTable(out, header, rows)
}

func recordMaps(recs []*types.Record) []map[string]any {
	out := make([]map[string]any, len(recs))
	for i, rec := range recs {
		out[i] = rec.Map()
	}
	return out
}

func printStats(cmd *cobra.Command, w io.Writer, stats *observability.LookupStats) error {
	snap := stats.Snapshot()
	if getOutputFormat(cmd) == "json" {
		return printJSON(w, snap)
	}
	rows := make([][]string, len(snap))
	for i, s := range snap {
		rows[i] = []string{s.Sheet, strconv.FormatInt(s.Hits, 10), strconv.FormatInt(s.Misses, 10), strconv.FormatInt(s.Invalid, 10)}
	}
	return printTable(w, []string{"sheet", "hits", "misses", "invalid"}, rows)
}
