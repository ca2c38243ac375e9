package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/arkilian/sheetblob/internal/loader"
	"github.com/arkilian/sheetblob/internal/storage"
)

func newWatchCmd(e *env) *cobra.Command {
	var pollInterval time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Reload the blob whenever it changes",
		Long: `Load the blob, then keep reloading it when the object changes.

Local storage is watched with filesystem notifications; S3 is polled by ETag.
A blob that fails to decode is logged and the previous snapshot stays current.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			l, err := e.newLoader(ctx)
			if err != nil {
				return err
			}
			initial, err := l.Load(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			asJSON := getOutputFormat(cmd) == "json"
			printSnapshotEvent(out, asJSON, "loaded", initial)

			path := l.Object()
			if ls, ok := l.Storage().(*storage.LocalStorage); ok {
				path = ls.FullPath(l.Object())
			}
			notifier := loader.NewNotifier(16)
			sub := notifier.Subscribe()
			defer notifier.Unsubscribe(sub.ID)

			r := loader.NewReloader(l, path, initial, loader.ReloaderOptions{
				Debounce: e.cfg.Watch.Debounce,
				Logger:   e.logger,
				Notifier: notifier,
			})

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				for {
					select {
					case <-gctx.Done():
						return nil
					case ev := <-sub.Ch:
						printSnapshotEvent(out, asJSON, ev.Type.String(), ev.Current)
					}
				}
			})
			if _, ok := l.Storage().(*storage.LocalStorage); ok {
				g.Go(func() error { return r.Run(gctx) })
			} else {
				g.Go(func() error { return pollETag(gctx, r, l, pollInterval) })
			}
			if err := g.Wait(); err != nil {
				return err
			}

			e.logger.Info("Stopped watching", "current", r.Current().Version, "failures", r.Failures())
			return nil
		},
	}

	cmd.Flags().DurationVar(&pollInterval, "poll-interval", 30*time.Second, "ETag poll interval for remote storage")

	return cmd
}

// pollETag reloads whenever the object's ETag differs from the current
// snapshot's.
func pollETag(ctx context.Context, r *loader.Reloader, l *loader.Loader, every time.Duration) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			info, err := l.Storage().Stat(ctx, l.Object())
			if err != nil {
				continue
			}
			if info.ETag == r.Current().ETag {
				continue
			}
			_ = r.Reload(ctx)
		}
	}
}

func printSnapshotEvent(w io.Writer, asJSON bool, event string, snap *loader.Snapshot) {
	if asJSON {
		_ = printJSON(w, map[string]interface{}{
			"event":       event,
			"id":          snap.ID.String(),
			"version":     snap.Version,
			"fingerprint": snap.Fingerprint,
			"records":     snap.Store.RecordCount(),
			"loaded_at":   snap.LoadedAt,
		})
		return
	}
	_, _ = fmt.Fprintf(w, "%s %s version=%s records=%d id=%s\n",
		snap.LoadedAt.Format(time.TimeOnly), event, snap.Version, snap.Store.RecordCount(), snap.ID)
}
