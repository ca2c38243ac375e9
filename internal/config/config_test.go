package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/arkilian/sheetblob/internal/errors"
	"github.com/arkilian/sheetblob/internal/table"
	"github.com/arkilian/sheetblob/internal/variant"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Resolve()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, ".", cfg.Storage.Path)
	assert.Equal(t, "consume", cfg.Decode.SingleOverflow)
	assert.Equal(t, 200*time.Millisecond, cfg.Watch.Debounce)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"schema path", func(c *Config) { c.Schema.Path = "" }, "schema.path"},
		{"blob object", func(c *Config) { c.Blob.Object = "" }, "blob.object"},
		{"compression", func(c *Config) { c.Blob.Compression = "gzip" }, "blob.compression"},
		{"storage type", func(c *Config) { c.Storage.Type = "gcs" }, "storage type"},
		{"s3 bucket", func(c *Config) { c.Storage.Type = "s3" }, "s3.bucket"},
		{"overflow", func(c *Config) { c.Decode.SingleOverflow = "skip" }, "single_overflow"},
		{"mode map", func(c *Config) { c.Variant.ModeMap = map[int32]int32{5: -1} }, "negative config_type"},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Resolve()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperrors.ErrInvalidConfig))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFromFile_YAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sheetblob.yaml")
	content := `
schema:
  path: schema/catalog.yaml
blob:
  object: prod/config.bin.sz
  compression: snappy
storage:
  type: local
  path: blobs
decode:
  single_overflow: legacy
variant:
  mode_map:
    10: 1
    20: 2
  default_mode: 10
log:
  level: debug
watch:
  debounce: 1s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	cfg.Resolve()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, filepath.Join(dir, "schema", "catalog.yaml"), cfg.Schema.Path)
	assert.Equal(t, filepath.Join(dir, "blobs"), cfg.Storage.Path)
	assert.Equal(t, "snappy", cfg.Blob.Compression)
	assert.Equal(t, map[int32]int32{10: 1, 20: 2}, cfg.Variant.ModeMap)
	assert.Equal(t, int32(10), cfg.Variant.DefaultMode)
	assert.Equal(t, time.Second, cfg.Watch.Debounce)

	opts := cfg.BuildOptions(nil)
	assert.Equal(t, table.OverflowLegacy, opts.SingleOverflow)

	sel := cfg.Selector()
	assert.Equal(t, int32(2), sel.ConfigType(variant.Mode(20)))
	assert.Equal(t, int32(7), sel.ConfigType(variant.Mode(7)))
}

func TestLoadFromFile_JSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sheetblob.json")
	content := `{"storage": {"type": "s3", "s3": {"bucket": "cfg", "use_path_style": true}}, "variant": {"mode_map": {"3": 1}}}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	cfg.Resolve()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "cfg", cfg.Storage.S3.Bucket)
	assert.True(t, cfg.Storage.S3.UsePathStyle)
	assert.Equal(t, "", cfg.Storage.Path, "s3 storage has no local path")
	assert.Equal(t, map[int32]int32{3: 1}, cfg.Variant.ModeMap)
}

func TestLoadFromFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFromFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("x = 1"), 0644))
	_, err = LoadFromFile(path)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidConfig))

	path = filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("schema: [unclosed"), 0644))
	_, err = LoadFromFile(path)
	assert.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SHEETBLOB_SCHEMA_PATH", "/etc/sheets/catalog.yaml")
	t.Setenv("SHEETBLOB_BLOB_OBJECT", "live.bin")
	t.Setenv("SHEETBLOB_STORAGE_TYPE", "s3")
	t.Setenv("SHEETBLOB_S3_BUCKET", "bucket")
	t.Setenv("SHEETBLOB_S3_USE_PATH_STYLE", "1")
	t.Setenv("SHEETBLOB_DECODE_SINGLE_OVERFLOW", "legacy")
	t.Setenv("SHEETBLOB_VARIANT_MODE_MAP", "10=1, 11=1")
	t.Setenv("SHEETBLOB_VARIANT_DEFAULT_MODE", "11")
	t.Setenv("SHEETBLOB_LOG_NO_COLOR", "true")
	t.Setenv("SHEETBLOB_WATCH_DEBOUNCE", "50ms")

	cfg := DefaultConfig()
	LoadFromEnv(cfg)

	assert.Equal(t, "/etc/sheets/catalog.yaml", cfg.Schema.Path)
	assert.Equal(t, "live.bin", cfg.Blob.Object)
	assert.Equal(t, "s3", cfg.Storage.Type)
	assert.Equal(t, "bucket", cfg.Storage.S3.Bucket)
	assert.True(t, cfg.Storage.S3.UsePathStyle)
	assert.Equal(t, "legacy", cfg.Decode.SingleOverflow)
	assert.Equal(t, map[int32]int32{10: 1, 11: 1}, cfg.Variant.ModeMap)
	assert.Equal(t, int32(11), cfg.Variant.DefaultMode)
	assert.True(t, cfg.Log.NoColor)
	assert.Equal(t, 50*time.Millisecond, cfg.Watch.Debounce)
}

func TestParseModeMap(t *testing.T) {
	m, err := ParseModeMap("1=0, 2=3,,")
	require.NoError(t, err)
	assert.Equal(t, map[int32]int32{1: 0, 2: 3}, m)
	assert.Equal(t, "1=0,2=3", FormatModeMap(m))

	for _, bad := range []string{"1", "x=1", "1=y", "99999999999=1"} {
		_, err := ParseModeMap(bad)
		assert.True(t, errors.Is(err, apperrors.ErrInvalidConfig), bad)
	}
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel("warn")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, l)

	_, err = ParseLevel("nope")
	assert.Error(t, err)
}
