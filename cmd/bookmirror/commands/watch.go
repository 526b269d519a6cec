package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"bookmirror/internal/components/chrono"
	"bookmirror/internal/extract"
	"bookmirror/internal/mirrors"
	"bookmirror/internal/race"
	"bookmirror/internal/store"
	"bookmirror/lib/serviceutil"
	"bookmirror/lib/telemetry"

	"github.com/spf13/cobra"
)

var (
	watchCron *string
	watchDb   *string
)

func init() {
	watchCron = watchCmd.Flags().String("cron", "@every 15m", "The schedule to poll the feed on.")
	watchDb = watchCmd.Flags().String("db", "", "A sqlite database to remember announced books in across runs.")
	rootCmd.AddCommand(watchCmd)
}

// feedWatcher prints feed records it has not printed before.
type feedWatcher struct {
	coordinator *race.Coordinator
	mirror      mirrors.Descriptor
	store       *store.Store

	mutex sync.Mutex
	seen  map[string]struct{}
}

func (w *feedWatcher) fresh(ctx context.Context, rec extract.FeedRecord) bool {
	if _, ok := w.seen[rec.Link]; ok {
		return false
	}
	w.seen[rec.Link] = struct{}{}
	if w.store == nil {
		return true
	}
	fresh, err := w.store.MarkSeen(ctx, rec)
	if err != nil {
		// the in-process set still applies
		return true
	}
	return fresh
}

// close releases the database, if the watcher has one. It is safe to call twice.
func (w *feedWatcher) close() {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	if w.store == nil {
		return
	}
	err := w.store.Close()
	if err != nil {
		slog.Warn("failed to close db", "err", err)
	}
	w.store = nil
}

func (w *feedWatcher) poll(ctx context.Context) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	records, err := w.coordinator.Feed(ctx, w.mirror)
	if err != nil {
		slog.Warn("failed to poll feed", "mirror", w.mirror.Name(), "err", err)
		return
	}

	var fresh []extract.FeedRecord
	for _, rec := range records {
		if rec.Link == "" || !w.fresh(ctx, rec) {
			continue
		}
		fresh = append(fresh, rec)
	}
	slog.Debug("polled feed", "mirror", w.mirror.Name(), "records", len(records), "new", len(fresh))
	if len(fresh) > 0 {
		renderFeed(fresh)
	}
}

var watchCmd = &cobra.Command{
	Use:   "watch [--cron <spec>]",
	Short: "Polls the feed of the first mirror and prints books as they are added.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := loadConfig()
		reg := resolveRegistry(cfg)

		first, ok := reg.First()
		if !ok {
			fmt.Fprintln(os.Stderr, "there are no mirrors to watch")
			os.Exit(1)
		}

		watcher := &feedWatcher{
			coordinator: newCoordinator(cfg, ""),
			mirror:      first,
			seen:        map[string]struct{}{},
		}
		if *watchDb != "" {
			st, err := store.Open(*watchDb, chrono.NewStandardImpl(), newTelemetryAPI())
			if err != nil {
				serviceutil.Fatal("failed to open db", err)
			}
			watcher.store = st
		}
		defer watcher.close()

		telemetry.InstrumentPerfStats(ctx, time.Minute)

		watcher.poll(ctx)

		cron := chrono.NewStandardCron(newTelemetryAPI())
		err := cron.Cron(*watchCron, func() {
			watcher.poll(ctx)
		})
		if err != nil {
			cron.Stop()
			watcher.close()
			serviceutil.Fatal("invalid cron spec", err)
		}

		slog.Info("watching feed", "mirror", first.Name(), "schedule", *watchCron)
		<-ctx.Done()
		cron.Stop()
	},
}
