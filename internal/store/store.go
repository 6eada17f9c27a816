package store

import "time"

// FeedSnapshot is the storage representation of one feed's observable
// state, optimized for JSON serialization (used by the REST API and SSE
// re-broadcast). It is decoupled from the watcher's public types so the two
// can evolve independently.
type FeedSnapshot struct {
	// Feed is the feed type ("image" or "text").
	Feed string `json:"feed"`

	// Status is the connection status (idle, connecting, connected,
	// offline, error).
	Status string `json:"status"`

	// Health is the derived classification (good, degraded, critical).
	Health string `json:"health"`

	// Error is the user-facing error message, nil when there is none.
	Error *string `json:"error"`

	// Paused reports whether the feed is paused.
	Paused bool `json:"paused"`

	// Stalled reports whether the stall detector has flagged the feed.
	Stalled bool `json:"stalled"`

	// ConsecutiveErrors counts transport errors since the last recovery.
	ConsecutiveErrors int `json:"consecutive_errors"`

	// Received, Dropped, SkippedWhilePaused, and Buffered mirror the
	// watcher's ingestion counters.
	Received           uint64 `json:"received"`
	Dropped            uint64 `json:"dropped"`
	SkippedWhilePaused uint64 `json:"skipped_while_paused"`
	Buffered           int    `json:"buffered"`

	// EventsPerMinute and AverageIntervalMs are the derived rate figures;
	// AverageIntervalMs is nil when fewer than two recent events exist.
	EventsPerMinute   float64  `json:"events_per_minute"`
	AverageIntervalMs *float64 `json:"average_interval_ms"`

	// LastEventAt and LastErrorAt are nil until the respective event has
	// happened this session.
	LastEventAt *time.Time `json:"last_event_at"`
	LastErrorAt *time.Time `json:"last_error_at"`

	// UpdatedAt is when this snapshot was taken.
	UpdatedAt time.Time `json:"updated_at"`
}

// Store defines the interface for storing and subscribing to feed snapshots.
//
// Store implementations must be safe for concurrent access. The pub/sub
// mechanism lets snapshot updates be pushed to connected observers (e.g.,
// via Server-Sent Events).
type Store interface {
	// Update stores a snapshot and notifies all subscribers. Snapshots are
	// keyed by Feed, so subsequent updates replace previous values.
	Update(snap FeedSnapshot)

	// GetAll returns all currently stored snapshots.
	// The returned slice is a copy; modifications do not affect the store.
	GetAll() []FeedSnapshot

	// Subscribe returns a channel that receives snapshot updates.
	// The channel is buffered; slow consumers may miss updates.
	// Caller must call Unsubscribe when done to prevent resource leaks.
	Subscribe() <-chan FeedSnapshot

	// Unsubscribe removes a subscription and closes the channel.
	// Safe to call with a channel that was already unsubscribed.
	Unsubscribe(ch <-chan FeedSnapshot)
}
