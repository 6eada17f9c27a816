// Package feedpulse multiplexes live server-push (SSE) event feeds and
// exposes their health as observable state.
//
// FeedPulse manages two independent streams, a generated-wallpaper image
// feed and a generated-text feed, through a single [Watcher]. Incoming
// messages are parsed, deduplicated against the most recently accepted
// event, and published to a bounded most-recent-first display list. A feed
// can be paused, in which case events accumulate in a bounded buffer and are
// flushed in order on resume. A periodic check flags feeds that have gone
// silent while connected and visible, and a derived good/degraded/critical
// health classification combines stall and error signals.
//
// # Quick Start
//
//	w, err := feedpulse.New(
//	    feedpulse.WithFeedURL(feedpulse.FeedImage, "https://example.com/streams/image"),
//	)
//	if err != nil {
//	    slog.Error("failed to create watcher", "error", err)
//	    os.Exit(1)
//	}
//	if err := w.Start(feedpulse.FeedImage); err != nil {
//	    slog.Error("failed to start feed", "error", err)
//	    os.Exit(1)
//	}
//	defer w.Shutdown()
//
//	for _, ev := range w.Events(feedpulse.FeedImage) {
//	    fmt.Println(ev)
//	}
//
// # Failure Model
//
// Nothing escapes the watcher as an exception. Transport errors become the
// error status plus a scheduled reconnect; malformed payloads are counted as
// dropped and logged; host network loss becomes the distinct offline status
// with automatic recovery when the network returns. Consumers render
// status, health, and error fields directly and never need to handle a
// failure path of their own.
//
// # Testing Seams
//
// The connection factory ([WithDialer]) and the host signal source
// ([WithMonitor]) are both injectable, so the entire lifecycle (connects,
// errors, reconnects, network loss, visibility changes) can be driven
// deterministically without a network.
package feedpulse
