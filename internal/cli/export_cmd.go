package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arkilian/sheetblob/internal/export"
)

func newExportCmd(e *env) *cobra.Command {
	var sqlitePath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the decoded blob to a SQLite database",
		Long:  "Loads the blob and writes one SQLite table per sub-sheet, replacing tables of the same name.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			snap, err := e.load(ctx)
			if err != nil {
				return err
			}

			db, err := export.Open(sqlitePath)
			if err != nil {
				return err
			}
			defer db.Close()

			sum, err := export.SQLite(ctx, db, snap.Store, map[string]string{
				"snapshot_id": snap.ID.String(),
				"fingerprint": snap.Fingerprint,
				"source":      snap.Source,
			})
			if err != nil {
				return fmt.Errorf("export: %w", err)
			}
			e.logger.Info("Exported sheet blob", "path", sqlitePath, "tables", sum.Tables, "records", sum.Records)

			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]interface{}{
					"status":  "ok",
					"path":    sqlitePath,
					"tables":  sum.Tables,
					"records": sum.Records,
				})
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Exported %d records in %d tables to %s\n", sum.Records, sum.Tables, sqlitePath)
			return nil
		},
	}

	cmd.Flags().StringVar(&sqlitePath, "sqlite", "sheets.db", "Path to the output SQLite database")

	return cmd
}
