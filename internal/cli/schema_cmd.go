package cli

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arkilian/sheetblob/internal/schema"
)

type sheetSummary struct {
	Name      string   `json:"name"`
	Single    bool     `json:"single"`
	Key       string   `json:"key,omitempty"`
	Fields    int      `json:"fields"`
	SubSheets []string `json:"sub_sheets"`
}

func newSchemaCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Validate the catalog and print its fingerprint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cat, err := e.loadCatalog()
			if err != nil {
				return err
			}

			sheets := make([]sheetSummary, len(cat.Sheets))
			for i, s := range cat.Sheets {
				subs := make([]string, len(s.SubSheets))
				for j, sub := range s.SubSheets {
					subs[j] = sub.Name + "=" + strconv.FormatInt(int64(sub.ConfigType), 10)
				}
				sheets[i] = sheetSummary{Name: s.Name, Single: s.Single, Fields: len(s.Fields), SubSheets: subs}
				if !s.Single {
					sheets[i].Key = s.Key
				}
			}

			out := cmd.OutOrStdout()
			fp := schema.Fingerprint(cat)
			if getOutputFormat(cmd) == "json" {
				return printJSON(out, map[string]interface{}{
					"path":        e.cfg.Schema.Path,
					"fingerprint": fp,
					"sheets":      sheets,
				})
			}

			if err := printFields(out, [][2]string{
				{"Catalog", e.cfg.Schema.Path},
				{"Fingerprint", fp},
			}); err != nil {
				return err
			}
			_, _ = out.Write([]byte("\n"))
			rows := make([][]string, len(sheets))
			for i, s := range sheets {
				rows[i] = []string{s.Name, strconv.FormatBool(s.Single), s.Key, strconv.Itoa(s.Fields), strings.Join(s.SubSheets, ",")}
			}
			return printTable(out, []string{"sheet", "single", "key", "fields", "sub_sheets"}, rows)
		},
	}
}
