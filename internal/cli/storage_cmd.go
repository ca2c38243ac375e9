package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newPushCmd(e *env) *cobra.Command {
	var skipCheck bool

	cmd := &cobra.Command{
		Use:   "push <file>",
		Short: "Publish a generated blob to storage",
		Long:  "Decodes the local file against the catalog and, when it is valid, uploads it as the configured blob object.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			l, err := e.newLoader(ctx)
			if err != nil {
				return err
			}

			if !skipCheck {
				data, err := os.ReadFile(args[0])
				if err != nil {
					return fmt.Errorf("read %s: %w", args[0], err)
				}
				if _, err := l.Decode(data, args[0]); err != nil {
					return fmt.Errorf("refusing to publish invalid blob: %w", err)
				}
			}

			if err := l.Storage().Upload(ctx, args[0], l.Object()); err != nil {
				return err
			}
			dest := l.Storage().Describe() + "/" + l.Object()
			e.logger.Info("Published sheet blob", "file", args[0], "object", dest)

			if getOutputFormat(cmd) == "json" {
				return printJSON(cmd.OutOrStdout(), map[string]string{"status": "ok", "object": dest})
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Published %s to %s\n", args[0], dest)
			return nil
		},
	}

	cmd.Flags().BoolVar(&skipCheck, "skip-check", false, "Upload without decoding the file first")

	return cmd
}

func newLsCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "ls [prefix]",
		Short: "List blob objects in storage",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := e.openStorage(ctx)
			if err != nil {
				return err
			}
			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}
			paths, err := store.ListObjects(ctx, prefix)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if getOutputFormat(cmd) == "json" {
				if paths == nil {
					paths = []string{}
				}
				return printJSON(out, map[string]interface{}{"location": store.Describe(), "objects": paths})
			}
			rows := make([][]string, 0, len(paths))
			for _, p := range paths {
				size := ""
				if info, err := store.Stat(ctx, p); err == nil {
					size = fmt.Sprint(info.Size)
				}
				rows = append(rows, []string{p, size})
			}
			return printTable(out, []string{"object", "bytes"}, rows)
		},
	}
}
