package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloaderOptions configures a Reloader.
type ReloaderOptions struct {
	// Debounce coalesces bursts of file events (default: 200ms)
	Debounce time.Duration

	// OnSwap is called after a new snapshot becomes current
	OnSwap func(old, cur *Snapshot)

	// Notifier receives a swap or failure event for every reload (optional)
	Notifier *Notifier

	// Logger for reload events (default: slog.Default)
	Logger *slog.Logger
}

// Reloader keeps the latest good snapshot of a blob and rebuilds it when the
// file on disk changes. A failed rebuild leaves the current snapshot in place.
type Reloader struct {
	loader  *Loader
	path    string
	opts    ReloaderOptions
	current atomic.Pointer[Snapshot]

	mu       sync.Mutex // serializes reloads
	failures atomic.Int64
}

// NewReloader returns a reloader serving initial and watching path, the
// filesystem location of the loader's object.
func NewReloader(l *Loader, path string, initial *Snapshot, opts ReloaderOptions) *Reloader {
	if opts.Debounce <= 0 {
		opts.Debounce = 200 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	r := &Reloader{loader: l, path: filepath.Clean(path), opts: opts}
	r.current.Store(initial)
	return r
}

// Current returns the snapshot in use. It never returns a partially built
// snapshot.
func (r *Reloader) Current() *Snapshot {
	return r.current.Load()
}

// Failures returns the number of reloads that failed.
func (r *Reloader) Failures() int64 {
	return r.failures.Load()
}

// Reload loads the blob again and swaps it in on success.
func (r *Reloader) Reload(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap, err := r.loader.Load(ctx)
	if err != nil {
		r.failures.Add(1)
		old := r.current.Load()
		attrs := []any{"err", err}
		if old != nil {
			attrs = append(attrs, "kept_id", old.ID, "kept_version", old.Version)
		}
		r.opts.Logger.WarnContext(ctx, "Reload failed; keeping current snapshot", attrs...)
		r.publish(Event{Type: ReloadFailed, Current: old, Err: err})
		return err
	}

	old := r.current.Swap(snap)
	if old != nil {
		r.opts.Logger.InfoContext(ctx, "Swapped sheet snapshot",
			"old_id", old.ID, "old_version", old.Version, "id", snap.ID, "version", snap.Version)
	}
	if r.opts.OnSwap != nil {
		r.opts.OnSwap(old, snap)
	}
	r.publish(Event{Type: SnapshotSwapped, Current: snap, Previous: old})
	return nil
}

func (r *Reloader) publish(ev Event) {
	if r.opts.Notifier == nil {
		return
	}
	ev.Source = r.loader.Storage().Describe() + "/" + r.loader.Object()
	ev.Timestamp = time.Now()
	r.opts.Notifier.Publish(ev)
}

// Run watches the blob's directory until ctx is done, reloading after each
// burst of changes to the blob file. Watching the directory catches editors
// and publishers that replace the file by rename.
func (r *Reloader) Run(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	if err := w.Add(filepath.Dir(r.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(r.path), err)
	}
	r.opts.Logger.InfoContext(ctx, "Watching sheet blob", "path", r.path, "debounce", r.opts.Debounce)

	timer := time.NewTimer(r.opts.Debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return errors.New("watcher closed")
			}
			if filepath.Clean(event.Name) != r.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				timer.Reset(r.opts.Debounce)
			}
		case <-timer.C:
			// Errors are logged by Reload and the old snapshot stays current.
			_ = r.Reload(ctx)
		case err, ok := <-w.Errors:
			if !ok {
				return errors.New("watcher closed")
			}
			r.opts.Logger.WarnContext(ctx, "Error watching sheet blob", "err", err)
		}
	}
}
