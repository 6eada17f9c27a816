package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mholden/feedpulse"
	"github.com/mholden/feedpulse/config"
	"github.com/mholden/feedpulse/internal/server"
	"github.com/mholden/feedpulse/internal/store"
	"github.com/mholden/feedpulse/platform"
)

// newLogger creates a JSON logger for CLI use.
func newLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// watchCmd runs the feed watcher.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the configured feeds",
	Long: `Connect to the configured feed streams and monitor their health.

The watcher will:
  - Open one SSE connection per configured feed
  - Parse, deduplicate, and track incoming events
  - Flag stalls and classify per-feed health
  - Reconnect automatically on errors and network recovery
  - Optionally serve snapshots on /api/status and /api/sse

The watcher runs until interrupted (Ctrl+C) or receives SIGTERM.

Example:
  feedpulse watch -c config.yaml
  feedpulse watch --config /etc/feedpulse/config.yaml`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = watchCmd.MarkFlagRequired("config")
}

func runWatch(cmd *cobra.Command, args []string) error {
	logger := newLogger()

	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger.Info("config loaded",
		"feeds", cfg.Feeds(),
		"stall_threshold", cfg.StallThreshold.Duration().String(),
		"reconnect_delay", cfg.ReconnectDelay.Duration().String(),
	)

	opts := config.BuildOptions(cfg)
	opts = append(opts, feedpulse.WithLogger(logger))

	// network-loss detection via TCP probe, when configured
	if cfg.Probe.Address != "" {
		probe := platform.NewProbeMonitor(cfg.Probe.Address, cfg.Probe.Interval.Duration())
		defer probe.Close()
		opts = append(opts, feedpulse.WithMonitor(probe))
	}

	// optional HTTP observer: snapshots pushed into the store on every
	// status transition and published event
	var st *store.MemoryStore
	var w *feedpulse.Watcher
	if cfg.Server.Port != 0 {
		st = store.NewMemoryStore()
		publish := func(feed feedpulse.FeedType) {
			if w == nil {
				return
			}
			st.Update(toStoreSnapshot(w.Snapshot(feed)))
		}
		opts = append(opts,
			feedpulse.WithStatusCallback(func(feed feedpulse.FeedType, _ feedpulse.ConnectionStatus) {
				publish(feed)
			}),
			feedpulse.WithEventCallback(func(feed feedpulse.FeedType, _ feedpulse.Event) {
				publish(feed)
			}),
		)
	}

	w, err = feedpulse.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if st != nil {
		srv := server.NewServer(st, cfg.Server.Port, logger)
		if err := srv.Start(ctx); err != nil {
			return fmt.Errorf("failed to start status server: %w", err)
		}
		logger.Info("status server available",
			"url", fmt.Sprintf("http://localhost:%d/api/status", cfg.Server.Port))
	}

	for _, feed := range config.BuildFeeds(cfg) {
		if err := w.Start(feed); err != nil {
			w.Shutdown()
			return fmt.Errorf("failed to start %s feed: %w", feed, err)
		}
	}

	<-ctx.Done()
	w.Shutdown()
	logger.Info("shutdown complete")
	return nil
}

// toStoreSnapshot converts a watcher snapshot to the storage representation.
func toStoreSnapshot(s feedpulse.Snapshot) store.FeedSnapshot {
	var errStr *string
	if s.Error != "" {
		e := s.Error
		errStr = &e
	}

	return store.FeedSnapshot{
		Feed:               s.Feed.String(),
		Status:             s.Status.String(),
		Health:             s.Health.String(),
		Error:              errStr,
		Paused:             s.Paused,
		Stalled:            s.Diagnostics.Stalled,
		ConsecutiveErrors:  s.Diagnostics.ConsecutiveErrors,
		Received:           s.Metrics.Received,
		Dropped:            s.Metrics.Dropped,
		SkippedWhilePaused: s.Metrics.SkippedWhilePaused,
		Buffered:           s.Metrics.Buffered,
		EventsPerMinute:    s.Metrics.EventsPerMinute,
		AverageIntervalMs:  s.Metrics.AverageIntervalMs,
		LastEventAt:        s.Diagnostics.LastEventAt,
		LastErrorAt:        s.Diagnostics.LastErrorAt,
		UpdatedAt:          time.Now(),
	}
}
