// Package config provides configuration for the sheetblob loader and CLI.
package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	apperrors "github.com/arkilian/sheetblob/internal/errors"
	"github.com/arkilian/sheetblob/internal/table"
	"github.com/arkilian/sheetblob/internal/variant"
)

// Config holds the loader configuration.
type Config struct {
	// Schema catalog location
	Schema SchemaConfig `json:"schema" yaml:"schema"`

	// Blob object and envelope
	Blob BlobConfig `json:"blob" yaml:"blob"`

	// Storage configuration
	Storage StorageConfig `json:"storage" yaml:"storage"`

	// Decode tunes table construction
	Decode DecodeConfig `json:"decode" yaml:"decode"`

	// Variant configures mode resolution
	Variant VariantConfig `json:"variant" yaml:"variant"`

	// Log configuration
	Log LogConfig `json:"log" yaml:"log"`

	// Watch configures hot reload
	Watch WatchConfig `json:"watch" yaml:"watch"`
}

// SchemaConfig locates the schema catalog.
type SchemaConfig struct {
	// Path is the catalog file (.yaml, .yml or .json)
	Path string `json:"path" yaml:"path"`
}

// BlobConfig names the blob object.
type BlobConfig struct {
	// Object is the blob path inside the storage backend
	Object string `json:"object" yaml:"object"`

	// Compression is the stored envelope: none, snappy
	Compression string `json:"compression" yaml:"compression"`
}

// StorageConfig holds storage configuration.
type StorageConfig struct {
	// Type is the storage type: local, s3
	Type string `json:"type" yaml:"type"`

	// Path is the local storage path (for local type)
	Path string `json:"path" yaml:"path"`

	// S3 configuration (for s3 type)
	S3 S3Config `json:"s3" yaml:"s3"`
}

// S3Config holds S3 storage configuration.
type S3Config struct {
	// Bucket is the S3 bucket name
	Bucket string `json:"bucket" yaml:"bucket"`

	// Region is the AWS region
	Region string `json:"region" yaml:"region"`

	// Endpoint is the S3 endpoint (for S3-compatible storage)
	Endpoint string `json:"endpoint" yaml:"endpoint"`

	// UsePathStyle enables path-style addressing (MinIO)
	UsePathStyle bool `json:"use_path_style" yaml:"use_path_style"`
}

// DecodeConfig tunes table construction.
type DecodeConfig struct {
	// SingleOverflow handles single sheets with more than one record: consume, legacy
	SingleOverflow string `json:"single_overflow" yaml:"single_overflow"`
}

// VariantConfig configures mode resolution.
type VariantConfig struct {
	// ModeMap translates host modes to config_type tags; unmapped modes are used as-is
	ModeMap map[int32]int32 `json:"mode_map" yaml:"mode_map"`

	// DefaultMode is the mode used by the CLI when none is given
	DefaultMode int32 `json:"default_mode" yaml:"default_mode"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	// Level is debug, info, warn or error
	Level string `json:"level" yaml:"level"`

	// NoColor disables colored output
	NoColor bool `json:"no_color" yaml:"no_color"`
}

// WatchConfig configures hot reload.
type WatchConfig struct {
	// Debounce coalesces bursts of file events
	Debounce time.Duration `json:"debounce" yaml:"debounce"`
}

// DefaultConfig returns the default configuration for local development.
func DefaultConfig() *Config {
	return &Config{
		Schema: SchemaConfig{Path: "catalog.yaml"},
		Blob: BlobConfig{
			Object:      "config.bin",
			Compression: "none",
		},
		Storage: StorageConfig{
			Type: "local",
			Path: "",
		},
		Decode: DecodeConfig{SingleOverflow: string(table.OverflowConsume)},
		Log:    LogConfig{Level: "info"},
		Watch:  WatchConfig{Debounce: 200 * time.Millisecond},
	}
}

// Resolve fills defaults left empty by a config file.
func (c *Config) Resolve() {
	if c.Storage.Type == "" {
		c.Storage.Type = "local"
	}
	if c.Storage.Type == "local" && c.Storage.Path == "" {
		c.Storage.Path = "."
	}
	if c.Blob.Compression == "" {
		c.Blob.Compression = "none"
	}
	if c.Decode.SingleOverflow == "" {
		c.Decode.SingleOverflow = string(table.OverflowConsume)
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Watch.Debounce <= 0 {
		c.Watch.Debounce = 200 * time.Millisecond
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Schema.Path == "" {
		return apperrors.NewConfigError("schema.path is required")
	}

	if c.Blob.Object == "" {
		return apperrors.NewConfigError("blob.object is required")
	}

	switch c.Blob.Compression {
	case "none", "snappy":
	default:
		return apperrors.NewConfigError(fmt.Sprintf("invalid blob.compression: %s (must be none or snappy)", c.Blob.Compression))
	}

	if c.Storage.Type != "local" && c.Storage.Type != "s3" {
		return apperrors.NewConfigError(fmt.Sprintf("invalid storage type: %s (must be local or s3)", c.Storage.Type))
	}

	if c.Storage.Type == "s3" && c.Storage.S3.Bucket == "" {
		return apperrors.NewConfigError("s3.bucket is required when storage type is s3")
	}

	switch table.OverflowPolicy(c.Decode.SingleOverflow) {
	case table.OverflowConsume, table.OverflowLegacy:
	default:
		return apperrors.NewConfigError(fmt.Sprintf("invalid decode.single_overflow: %s (must be consume or legacy)", c.Decode.SingleOverflow))
	}

	for m, ct := range c.Variant.ModeMap {
		if ct < 0 {
			return apperrors.NewConfigError(fmt.Sprintf("variant.mode_map[%d] maps to negative config_type %d", m, ct))
		}
	}

	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}

	return nil
}

// BuildOptions returns the table build options selected by the config.
func (c *Config) BuildOptions(logger *slog.Logger) table.BuildOptions {
	return table.BuildOptions{
		SingleOverflow: table.OverflowPolicy(c.Decode.SingleOverflow),
		Logger:         logger,
	}
}

// Selector returns the variant selector for the configured mode map.
func (c *Config) Selector() *variant.Selector {
	m := make(map[variant.Mode]int32, len(c.Variant.ModeMap))
	for mode, ct := range c.Variant.ModeMap {
		m[variant.Mode(mode)] = ct
	}
	return variant.NewSelector(m)
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, apperrors.NewConfigError(fmt.Sprintf("invalid log.level: %s (must be debug, info, warn or error)", s))
	}
	return l, nil
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, apperrors.NewConfigError(fmt.Sprintf("unsupported config file format: %s", ext))
	}

	// Relative paths in a config file are relative to the file.
	base := filepath.Dir(path)
	if cfg.Schema.Path != "" && !filepath.IsAbs(cfg.Schema.Path) {
		cfg.Schema.Path = filepath.Join(base, cfg.Schema.Path)
	}
	if cfg.Storage.Path != "" && !filepath.IsAbs(cfg.Storage.Path) {
		cfg.Storage.Path = filepath.Join(base, cfg.Storage.Path)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the SHEETBLOB_ prefix.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("SHEETBLOB_SCHEMA_PATH"); v != "" {
		cfg.Schema.Path = v
	}

	// Blob configuration
	if v := os.Getenv("SHEETBLOB_BLOB_OBJECT"); v != "" {
		cfg.Blob.Object = v
	}
	if v := os.Getenv("SHEETBLOB_BLOB_COMPRESSION"); v != "" {
		cfg.Blob.Compression = v
	}

	// Storage configuration
	if v := os.Getenv("SHEETBLOB_STORAGE_TYPE"); v != "" {
		cfg.Storage.Type = v
	}
	if v := os.Getenv("SHEETBLOB_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("SHEETBLOB_S3_BUCKET"); v != "" {
		cfg.Storage.S3.Bucket = v
	}
	if v := os.Getenv("SHEETBLOB_S3_REGION"); v != "" {
		cfg.Storage.S3.Region = v
	}
	if v := os.Getenv("SHEETBLOB_S3_ENDPOINT"); v != "" {
		cfg.Storage.S3.Endpoint = v
	}
	if v := os.Getenv("SHEETBLOB_S3_USE_PATH_STYLE"); v != "" {
		cfg.Storage.S3.UsePathStyle = v == "true" || v == "1"
	}

	// Decode configuration
	if v := os.Getenv("SHEETBLOB_DECODE_SINGLE_OVERFLOW"); v != "" {
		cfg.Decode.SingleOverflow = v
	}

	// Variant configuration
	if v := os.Getenv("SHEETBLOB_VARIANT_MODE_MAP"); v != "" {
		if m, err := ParseModeMap(v); err == nil {
			cfg.Variant.ModeMap = m
		}
	}
	if v := os.Getenv("SHEETBLOB_VARIANT_DEFAULT_MODE"); v != "" {
		fmt.Sscanf(v, "%d", &cfg.Variant.DefaultMode)
	}

	// Log configuration
	if v := os.Getenv("SHEETBLOB_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("SHEETBLOB_LOG_NO_COLOR"); v != "" {
		cfg.Log.NoColor = v == "true" || v == "1"
	}

	// Watch configuration
	if v := os.Getenv("SHEETBLOB_WATCH_DEBOUNCE"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Watch.Debounce = d
		}
	}
}

// ParseModeMap parses "mode=config_type" pairs separated by commas, for
// example "10=1,11=1,20=2".
func ParseModeMap(s string) (map[int32]int32, error) {
	m := make(map[int32]int32)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, apperrors.NewConfigError(fmt.Sprintf("invalid mode map entry %q (want mode=config_type)", pair))
		}
		mode, err := strconv.ParseInt(strings.TrimSpace(k), 10, 32)
		if err != nil {
			return nil, apperrors.NewConfigError(fmt.Sprintf("invalid mode %q", k))
		}
		ct, err := strconv.ParseInt(strings.TrimSpace(v), 10, 32)
		if err != nil {
			return nil, apperrors.NewConfigError(fmt.Sprintf("invalid config_type %q", v))
		}
		m[int32(mode)] = int32(ct)
	}
	return m, nil
}

// FormatModeMap renders m in the form accepted by ParseModeMap, sorted by mode.
func FormatModeMap(m map[int32]int32) string {
	modes := make([]int32, 0, len(m))
	for k := range m {
		modes = append(modes, k)
	}
	sort.Slice(modes, func(i, j int) bool { return modes[i] < modes[j] })

	parts := make([]string, len(modes))
	for i, k := range modes {
		parts[i] = fmt.Sprintf("%d=%d", k, m[k])
	}
	return strings.Join(parts, ",")
}
