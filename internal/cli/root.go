// Package cli implements the sheetblob command-line tool.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/arkilian/sheetblob/internal/config"
	apperrors "github.com/arkilian/sheetblob/internal/errors"
	"github.com/arkilian/sheetblob/internal/loader"
	"github.com/arkilian/sheetblob/internal/logging"
	"github.com/arkilian/sheetblob/internal/schema"
	"github.com/arkilian/sheetblob/internal/storage"
	"github.com/arkilian/sheetblob/pkg/types"
)

var (
	version = "dev"
	commit  = "none"
)

// Execute runs the CLI.
func Execute() int {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		output, _ := rootCmd.PersistentFlags().GetString("output")
		if output == "json" {
			errObj := map[string]interface{}{
				"error": err.Error(),
			}
			var sheetErr *apperrors.SheetError
			if errors.As(err, &sheetErr) {
				errObj["category"] = sheetErr.Category
				errObj["code"] = sheetErr.Code
				if len(sheetErr.Details) > 0 {
					errObj["details"] = sheetErr.Details
				}
			}
			_ = printJSON(os.Stdout, errObj)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	schemaPath string
	object     string
	storageDir string
	output     string
	logLevel   string
	noColor    bool
}

// env is resolved once per command invocation in PersistentPreRunE.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
	stderr io.Writer
}

func newRootCmd() *cobra.Command {
	var (
		flags globalFlags
		e     env
	)

	rootCmd := &cobra.Command{
		Use:           "sheetblob",
		Short:         "Sheet blob loader",
		Long:          "Decode, inspect, query and export binary sheet configuration blobs.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateOutputFormat(flags.output); err != nil {
				return err
			}
			cfg, err := resolveConfig(cmd, &flags)
			if err != nil {
				return err
			}
			level, err := config.ParseLevel(cfg.Log.Level)
			if err != nil {
				return err
			}
			e.cfg = cfg
			e.stderr = cmd.ErrOrStderr()
			if e.stderr == os.Stderr {
				e.logger = logging.New(logging.Options{Level: level, NoColor: cfg.Log.NoColor})
			} else {
				e.logger = logging.NewWithWriter(e.stderr, level, true)
			}
			slog.SetDefault(e.logger)
			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "Path to a YAML or JSON config file")
	pf.StringVar(&flags.schemaPath, "schema", "", "Catalog file (overrides schema.path)")
	pf.StringVar(&flags.object, "object", "", "Blob object path (overrides blob.object)")
	pf.StringVar(&flags.storageDir, "storage-path", "", "Local storage directory (overrides storage.path)")
	pf.StringVarP(&flags.output, "output", "o", "table", "Output format (table, json)")
	pf.StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	pf.BoolVar(&flags.noColor, "no-color", false, "Disable colored log output")

	rootCmd.AddCommand(
		newInspectCmd(&e),
		newGetCmd(&e),
		newExportCmd(&e),
		newWatchCmd(&e),
		newSchemaCmd(&e),
		newPushCmd(&e),
		newLsCmd(&e),
		newVersionCmd(),
	)

	return rootCmd
}

// resolveConfig applies precedence: flag > env > file > default.
func resolveConfig(cmd *cobra.Command, flags *globalFlags) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if flags.configPath != "" {
		loaded, err := config.LoadFromFile(flags.configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	config.LoadFromEnv(cfg)

	changed := cmd.Flags().Changed
	if changed("schema") {
		cfg.Schema.Path = flags.schemaPath
	}
	if changed("object") {
		cfg.Blob.Object = flags.object
	}
	if changed("storage-path") {
		cfg.Storage.Type = "local"
		cfg.Storage.Path = flags.storageDir
	}
	if changed("log-level") {
		cfg.Log.Level = flags.logLevel
	}
	if changed("no-color") {
		cfg.Log.NoColor = flags.noColor
	}

	cfg.Resolve()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// openStorage builds the configured blob backend.
func (e *env) openStorage(ctx context.Context) (storage.BlobStore, error) {
	switch e.cfg.Storage.Type {
	case "s3":
		s3cfg := storage.DefaultS3Config()
		if e.cfg.Storage.S3.Region != "" {
			s3cfg.Region = e.cfg.Storage.S3.Region
		}
		s3cfg.Endpoint = e.cfg.Storage.S3.Endpoint
		s3cfg.UsePathStyle = e.cfg.Storage.S3.UsePathStyle
		return storage.NewS3Storage(ctx, e.cfg.Storage.S3.Bucket, s3cfg)
	default:
		return storage.NewLocalStorage(e.cfg.Storage.Path)
	}
}

// loadCatalog reads and validates the configured catalog.
func (e *env) loadCatalog() (*types.Catalog, error) {
	return schema.LoadFile(e.cfg.Schema.Path)
}

// newLoader wires storage, catalog and decode options into a loader.
func (e *env) newLoader(ctx context.Context) (*loader.Loader, error) {
	cat, err := e.loadCatalog()
	if err != nil {
		return nil, err
	}
	store, err := e.openStorage(ctx)
	if err != nil {
		return nil, err
	}
	return loader.New(store, cat, loader.Options{
		Object:      e.cfg.Blob.Object,
		Compression: loader.Compression(e.cfg.Blob.Compression),
		Build:       e.cfg.BuildOptions(e.logger),
		Logger:      e.logger,
	}), nil
}

// load performs a single blob load.
func (e *env) load(ctx context.Context) (*loader.Snapshot, error) {
	l, err := e.newLoader(ctx)
	if err != nil {
		return nil, err
	}
	return l.Load(ctx)
}
