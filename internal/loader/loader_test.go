package loader

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang/snappy"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arkilian/sheetblob/internal/codec/codectest"
	apperrors "github.com/arkilian/sheetblob/internal/errors"
	"github.com/arkilian/sheetblob/internal/schema"
	"github.com/arkilian/sheetblob/internal/storage"
	"github.com/arkilian/sheetblob/pkg/types"
)

func testCatalog() *types.Catalog {
	return &types.Catalog{Sheets: []*types.Sheet{{
		Name: "ItemConfig",
		Key:  "id",
		Fields: []types.Field{
			{Name: "id", Type: types.Int32},
			{Name: "name", Type: types.String},
		},
		SubSheets: []types.SubSheet{{Name: "ItemConfig"}},
	}}}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeBlob(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0644))
}

func itemBlob(version string, names ...string) []byte {
	rows := make([][]any, len(names))
	for i, n := range names {
		rows[i] = []any{int32(i + 1), n}
	}
	return codectest.MustBlob(version, testCatalog(), map[string][][]any{"ItemConfig": rows})
}

func newLocal(t *testing.T) (*storage.LocalStorage, string) {
	t.Helper()
	dir := t.TempDir()
	ls, err := storage.NewLocalStorage(dir)
	require.NoError(t, err)
	return ls, dir
}

func TestLoad(t *testing.T) {
	ls, dir := newLocal(t)
	blob := itemBlob("v1", "potion", "sword")
	writeBlob(t, dir, "config.bin", blob)

	cat := testCatalog()
	l := New(ls, cat, Options{Object: "config.bin", Logger: quietLogger()})
	snap, err := l.Load(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, snap.ID)
	assert.Equal(t, "v1", snap.Version)
	assert.Equal(t, schema.Fingerprint(cat), snap.Fingerprint)
	assert.Equal(t, len(blob), snap.Size)
	assert.Equal(t, dir+"/config.bin", snap.Source)
	assert.Len(t, snap.ETag, 32)
	assert.WithinDuration(t, time.Now(), snap.LoadedAt, time.Minute)
	assert.Equal(t, 2, snap.Store.RecordCount())

	again, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, snap.ID, again.ID, "every load gets its own ID")
	assert.Equal(t, snap.ETag, again.ETag)
}

func TestLoad_Snappy(t *testing.T) {
	ls, dir := newLocal(t)
	writeBlob(t, dir, "config.bin.sz", snappy.Encode(nil, itemBlob("v2", "a")))

	l := New(ls, testCatalog(), Options{Object: "config.bin.sz", Compression: CompressionSnappy, Logger: quietLogger()})
	snap, err := l.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "v2", snap.Version)

	writeBlob(t, dir, "broken.sz", []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0x01})
	l = New(ls, testCatalog(), Options{Object: "broken.sz", Compression: CompressionSnappy, Logger: quietLogger()})
	_, err = l.Load(context.Background())
	assert.True(t, errors.Is(err, apperrors.ErrDecompress), "got %v", err)
}

func TestLoad_Errors(t *testing.T) {
	ls, dir := newLocal(t)

	l := New(ls, testCatalog(), Options{Object: "missing.bin", Logger: quietLogger()})
	_, err := l.Load(context.Background())
	assert.True(t, errors.Is(err, apperrors.ErrObjectMissing))

	blob := itemBlob("v1", "potion")
	writeBlob(t, dir, "short.bin", blob[:len(blob)-1])
	l = New(ls, testCatalog(), Options{Object: "short.bin", Logger: quietLogger()})
	snap, err := l.Load(context.Background())
	assert.Nil(t, snap)
	assert.True(t, errors.Is(err, apperrors.ErrTruncated))
	assert.Contains(t, err.Error(), "short.bin")
}

func TestDecompress(t *testing.T) {
	data := []byte("payload")
	out, err := Decompress(data, CompressionNone)
	require.NoError(t, err)
	assert.Equal(t, data, out)

	out, err = Decompress(snappy.Encode(nil, data), CompressionSnappy)
	require.NoError(t, err)
	assert.Equal(t, data, out)

	_, err = Decompress(data, "zstd")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidConfig))

	assert.True(t, CompressionSnappy.Valid())
	assert.True(t, Compression("").Valid())
	assert.False(t, Compression("gzip").Valid())
}

func TestReloader_Reload(t *testing.T) {
	ls, dir := newLocal(t)
	writeBlob(t, dir, "config.bin", itemBlob("v1", "a"))

	l := New(ls, testCatalog(), Options{Object: "config.bin", Logger: quietLogger()})
	initial, err := l.Load(context.Background())
	require.NoError(t, err)

	var swaps [][2]string
	r := NewReloader(l, ls.FullPath("config.bin"), initial, ReloaderOptions{
		Logger: quietLogger(),
		OnSwap: func(old, cur *Snapshot) { swaps = append(swaps, [2]string{old.Version, cur.Version}) },
	})
	assert.Same(t, initial, r.Current())

	writeBlob(t, dir, "config.bin", itemBlob("v2", "a", "b"))
	require.NoError(t, r.Reload(context.Background()))
	assert.Equal(t, "v2", r.Current().Version)
	assert.Equal(t, [][2]string{{"v1", "v2"}}, swaps)

	// A duplicate key fails the rebuild; the previous snapshot stays current.
	dup := codectest.MustBlob("v3", testCatalog(), map[string][][]any{
		"ItemConfig": {{int32(1), "a"}, {int32(1), "b"}},
	})
	writeBlob(t, dir, "config.bin", dup)
	err = r.Reload(context.Background())
	assert.True(t, errors.Is(err, apperrors.ErrDuplicateKey))
	assert.Equal(t, "v2", r.Current().Version)
	assert.Equal(t, int64(1), r.Failures())
	assert.Len(t, swaps, 1)
}

func TestReloader_Run(t *testing.T) {
	ls, dir := newLocal(t)
	writeBlob(t, dir, "config.bin", itemBlob("v1", "a"))

	l := New(ls, testCatalog(), Options{Object: "config.bin", Logger: quietLogger()})
	initial, err := l.Load(context.Background())
	require.NoError(t, err)

	swapped := make(chan *Snapshot, 4)
	r := NewReloader(l, ls.FullPath("config.bin"), initial, ReloaderOptions{
		Debounce: 20 * time.Millisecond,
		Logger:   quietLogger(),
		OnSwap:   func(_, cur *Snapshot) { swapped <- cur },
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	// Publish by rename, the way storage.LocalStorage.Upload does.
	src := filepath.Join(t.TempDir(), "next.bin")
	require.NoError(t, os.WriteFile(src, itemBlob("v2", "a", "b", "c"), 0644))

	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	var got *Snapshot
	for got == nil {
		select {
		case got = <-swapped:
		case <-tick.C:
			// Re-publish until the watcher is registered and sees an event.
			require.NoError(t, ls.Upload(context.Background(), src, "config.bin"))
		case <-deadline:
			t.Fatal("timed out waiting for reload")
		}
	}
	assert.Equal(t, "v2", got.Version)
	assert.Equal(t, 3, r.Current().Store.RecordCount())

	cancel()
	assert.NoError(t, <-done)
}
