package cli

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/arkilian/sheetblob/internal/loader"
)

type subSheetSummary struct {
	Sheet      string `json:"sheet"`
	SubSheet   string `json:"sub_sheet"`
	ConfigType int32  `json:"config_type"`
	Single     bool   `json:"single"`
	Records    int    `json:"records"`
}

type inspectResult struct {
	ID          string            `json:"id"`
	Version     string            `json:"version"`
	Fingerprint string            `json:"fingerprint"`
	Source      string            `json:"source"`
	ETag        string            `json:"etag,omitempty"`
	Bytes       int               `json:"bytes"`
	Records     int               `json:"records"`
	LoadedAt    time.Time         `json:"loaded_at"`
	SubSheets   []subSheetSummary `json:"sub_sheets"`
}

func summarize(snap *loader.Snapshot) inspectResult {
	res := inspectResult{
		ID:          snap.ID.String(),
		Version:     snap.Version,
		Fingerprint: snap.Fingerprint,
		Source:      snap.Source,
		ETag:        snap.ETag,
		Bytes:       snap.Size,
		Records:     snap.Store.RecordCount(),
		LoadedAt:    snap.LoadedAt,
	}
	for _, st := range snap.Store.Sheets() {
		for _, tbl := range st.Tables() {
			res.SubSheets = append(res.SubSheets, subSheetSummary{
				Sheet:      st.Sheet().Name,
				SubSheet:   tbl.SubSheet().Name,
				ConfigType: tbl.SubSheet().ConfigType,
				Single:     st.Sheet().Single,
				Records:    tbl.Len(),
			})
		}
	}
	return res
}

func newInspectCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Load the blob and summarize its sheets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			snap, err := e.load(cmd.Context())
			if err != nil {
				return err
			}
			res := summarize(snap)
			out := cmd.OutOrStdout()
			if getOutputFormat(cmd) == "json" {
				return printJSON(out, res)
			}

			if err := printFields(out, [][2]string{
				{"Version", res.Version},
				{"ID", res.ID},
				{"Fingerprint", res.Fingerprint},
				{"Source", res.Source},
				{"ETag", res.ETag},
				{"Bytes", strconv.Itoa(res.Bytes)},
				{"Records", strconv.Itoa(res.Records)},
			}); err != nil {
				return err
			}
			_, _ = out.Write([]byte("\n"))

			rows := make([][]string, len(res.SubSheets))
			for i, s := range res.SubSheets {
				rows[i] = []string{
					s.Sheet,
					s.SubSheet,
					strconv.FormatInt(int64(s.ConfigType), 10),
					strconv.FormatBool(s.Single),
					strconv.Itoa(s.Records),
				}
			}
			return printTable(out, []string{"sheet", "sub_sheet", "config_type", "single", "records"}, rows)
		},
	}
}
