package feedpulse

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/mholden/feedpulse/platform"
)

const (
	defaultStallThreshold = 15 * time.Second
	defaultCheckInterval  = 5 * time.Second
	defaultReconnectDelay = 4 * time.Second
	defaultBufferCapacity = 100
	defaultDisplayLimit   = 50
)

// watcherConfig holds mutable state during Watcher construction.
type watcherConfig struct {
	urls            map[FeedType]string
	stallThreshold  time.Duration
	checkInterval   time.Duration
	reconnectDelay  time.Duration
	bufferCapacity  int
	displayLimit    int
	logger          *slog.Logger
	dialer          Dialer
	monitor         platform.Monitor
	eventCallbacks  []func(FeedType, Event)
	statusCallbacks []func(FeedType, ConnectionStatus)
}

// Option is a function that configures a [Watcher] during construction.
//
// Option implements the functional options pattern; each option validates
// its input and returns an error so that [New] fails fast on bad
// configuration.
type Option func(*watcherConfig) error

// WithFeedURL sets the stream URL for one feed type.
//
// At least one feed URL must be configured for [New] to succeed, and a feed
// can only be started once its URL is set.
//
// Returns an error if the feed type is unknown or the URL has no http(s)
// scheme.
func WithFeedURL(feed FeedType, rawURL string) Option {
	return func(cfg *watcherConfig) error {
		if !feed.valid() {
			return fmt.Errorf("unknown feed type %q", feed)
		}
		parsed, err := url.Parse(rawURL)
		if err != nil {
			return fmt.Errorf("invalid %s feed url: %w", feed, err)
		}
		if parsed.Scheme != "http" && parsed.Scheme != "https" {
			return fmt.Errorf("%s feed url must have an http or https scheme", feed)
		}
		cfg.urls[feed] = rawURL
		return nil
	}
}

// WithStallThreshold sets how long a connected, visible feed may go without
// an accepted event before it is flagged as stalled. Defaults to 15 seconds.
func WithStallThreshold(d time.Duration) Option {
	return func(cfg *watcherConfig) error {
		if d <= 0 {
			return errors.New("stall threshold must be positive")
		}
		cfg.stallThreshold = d
		return nil
	}
}

// WithCheckInterval sets the granularity of the periodic stall check.
// Defaults to 5 seconds.
func WithCheckInterval(d time.Duration) Option {
	return func(cfg *watcherConfig) error {
		if d <= 0 {
			return errors.New("check interval must be positive")
		}
		cfg.checkInterval = d
		return nil
	}
}

// WithReconnectDelay sets how long the watcher waits after a transport error
// before re-dialing the feed. Defaults to 4 seconds.
func WithReconnectDelay(d time.Duration) Option {
	return func(cfg *watcherConfig) error {
		if d <= 0 {
			return errors.New("reconnect delay must be positive")
		}
		cfg.reconnectDelay = d
		return nil
	}
}

// WithBufferCapacity bounds the number of events held for a paused feed.
// When the buffer is full the oldest buffered event is evicted and counted
// as dropped. Defaults to 100.
func WithBufferCapacity(n int) Option {
	return func(cfg *watcherConfig) error {
		if n < 1 {
			return errors.New("buffer capacity must be at least 1")
		}
		cfg.bufferCapacity = n
		return nil
	}
}

// WithDisplayLimit bounds the most-recent-first display list per feed.
// Older entries are evicted first. Defaults to 50.
func WithDisplayLimit(n int) Option {
	return func(cfg *watcherConfig) error {
		if n < 1 {
			return errors.New("display limit must be at least 1")
		}
		cfg.displayLimit = n
		return nil
	}
}

// WithLogger sets the logger for watcher events.
// Defaults to slog.Default() if not provided.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *watcherConfig) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		cfg.logger = logger
		return nil
	}
}

// WithDialer replaces the connection factory used for every connect and
// reconnect. Defaults to the built-in SSE client. The main use is supplying
// a deterministic fake in tests.
func WithDialer(d Dialer) Option {
	return func(cfg *watcherConfig) error {
		if d == nil {
			return errors.New("dialer cannot be nil")
		}
		cfg.dialer = d
		return nil
	}
}

// WithMonitor sets the source of host online/offline and visibility signals.
//
// Defaults to a static monitor that always reports online and visible. Use
// [platform.NewProbeMonitor] for real network-loss detection, or a
// [platform.ManualMonitor] driven by the embedding application.
func WithMonitor(m platform.Monitor) Option {
	return func(cfg *watcherConfig) error {
		if m == nil {
			return errors.New("monitor cannot be nil")
		}
		cfg.monitor = m
		return nil
	}
}

// WithEventCallback registers a callback invoked for every event published
// to the display list (buffered events fire when a resume flushes them).
//
// Callbacks fire after the watcher's own state is updated, outside its lock,
// and are panic-safe: a panicking callback is logged with a correlation ID
// and does not disturb ingestion.
func WithEventCallback(cb func(feed FeedType, ev Event)) Option {
	return func(cfg *watcherConfig) error {
		if cb == nil {
			return errors.New("event callback cannot be nil")
		}
		cfg.eventCallbacks = append(cfg.eventCallbacks, cb)
		return nil
	}
}

// WithStatusCallback registers a callback invoked on every connection status
// transition. The same panic-safety rules as [WithEventCallback] apply.
func WithStatusCallback(cb func(feed FeedType, status ConnectionStatus)) Option {
	return func(cfg *watcherConfig) error {
		if cb == nil {
			return errors.New("status callback cannot be nil")
		}
		cfg.statusCallbacks = append(cfg.statusCallbacks, cb)
		return nil
	}
}

// startOptions holds per-Start behaviour flags.
type startOptions struct {
	reset bool
}

// StartOption configures a single [Watcher.Start] call.
type StartOption func(*startOptions)

// WithReset zeroes the feed's metrics and diagnostics before connecting.
// Without it, counters and diagnostics persist across reconnects within a
// session.
func WithReset() StartOption {
	return func(so *startOptions) {
		so.reset = true
	}
}
