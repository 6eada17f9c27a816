package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mholden/feedpulse"
)

func main() {
	// start mock feed server (see mock_server.go)
	go StartMockFeedServer(":9999", 2*time.Second)
	time.Sleep(100 * time.Millisecond)

	w, err := feedpulse.New(
		feedpulse.WithFeedURL(feedpulse.FeedImage, "http://localhost:9999/streams/image"),
		feedpulse.WithFeedURL(feedpulse.FeedText, "http://localhost:9999/streams/text"),
		feedpulse.WithStallThreshold(10*time.Second),
		feedpulse.WithCheckInterval(2*time.Second),
		feedpulse.WithEventCallback(func(feed feedpulse.FeedType, ev feedpulse.Event) {
			fmt.Printf("  [%s] %s\n", feed, ev)
		}),
	)
	if err != nil {
		slog.Error("failed to create watcher", "error", err)
		os.Exit(1)
	}

	for _, feed := range []feedpulse.FeedType{feedpulse.FeedImage, feedpulse.FeedText} {
		if err := w.Start(feed); err != nil {
			slog.Error("failed to start feed", "feed", feed, "error", err)
			os.Exit(1)
		}
	}
	defer w.Shutdown()

	fmt.Println("FeedPulse demo: watching two mock feeds, Ctrl+C to stop")

	// print a health summary every few seconds
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, feed := range []feedpulse.FeedType{feedpulse.FeedImage, feedpulse.FeedText} {
				m := w.Metrics(feed)
				fmt.Printf("%s: status=%s health=%s received=%d dropped=%d epm=%.0f\n",
					feed, w.Status(feed), w.Health(feed), m.Received, m.Dropped, m.EventsPerMinute)
			}
		}
	}
}
