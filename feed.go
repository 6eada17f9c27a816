package feedpulse

import (
	"fmt"
	"time"
)

// FeedType identifies one of the two independently managed push streams.
//
// The image feed carries generated wallpaper events; the text feed carries
// generated prompt/text events. The two feeds share no mutable state and can
// be started, paused, and torn down independently.
type FeedType string

const (
	// FeedImage is the generated-wallpaper event stream.
	FeedImage FeedType = "image"

	// FeedText is the generated-text event stream.
	FeedText FeedType = "text"
)

// String returns the string representation of the feed type.
// This implements the fmt.Stringer interface.
func (f FeedType) String() string {
	return string(f)
}

// valid reports whether f is one of the known feed types.
func (f FeedType) valid() bool {
	return f == FeedImage || f == FeedText
}

// ConnectionStatus represents the transport state of a single feed.
//
// Exactly one status exists per feed at any time. Transitions are driven
// only by connection lifecycle events (open, error, explicit stop) and by
// host network signals (offline/online).
type ConnectionStatus string

const (
	// StatusIdle means the feed has never been started, or has been shut down.
	StatusIdle ConnectionStatus = "idle"

	// StatusConnecting means a connection attempt is in flight.
	StatusConnecting ConnectionStatus = "connecting"

	// StatusConnected means the stream is open and delivering events.
	StatusConnected ConnectionStatus = "connected"

	// StatusOffline means the host reported network loss. The feed recovers
	// automatically when the network returns; no manual restart is needed.
	StatusOffline ConnectionStatus = "offline"

	// StatusError means the transport reported a failure. A reconnection
	// attempt is scheduled automatically.
	StatusError ConnectionStatus = "error"
)

// String returns the string representation of the status.
func (s ConnectionStatus) String() string {
	return string(s)
}

// Health is the derived good/degraded/critical classification of a feed.
//
// Health is never stored; it is computed from [Diagnostics] each time it is
// read, so it is always consistent with the latest stall and error state.
type Health string

const (
	// HealthGood means the feed is flowing with no outstanding errors.
	HealthGood Health = "good"

	// HealthDegraded means the feed is connected but stalled: no event has
	// arrived within the stall threshold while the host was visible.
	HealthDegraded Health = "degraded"

	// HealthCritical means the most recent transport activity was an error
	// and neither an event nor a successful open has occurred since.
	HealthCritical Health = "critical"
)

// String returns the string representation of the health state.
func (h Health) String() string {
	return string(h)
}

// Event is the decoded payload of a single push message.
//
// Event is immutable once constructed and is never mutated after acceptance.
// All fields are comparable, so structural equality is plain ==, which is
// exactly what the compare-to-last deduplication relies on.
type Event struct {
	// Prompt is the generation prompt that produced this event.
	Prompt string

	// ImageURL is the location of the generated wallpaper (image feed only).
	ImageURL string

	// Model is the name of the generating model.
	Model string

	// Width is the image width in pixels (image feed only).
	Width int

	// Height is the image height in pixels (image feed only).
	Height int

	// Seed is the generation seed. Only meaningful when HasSeed is true;
	// the wire field is optional.
	Seed int64

	// HasSeed reports whether a seed was present in the payload.
	HasSeed bool

	// Text is the generated text body (text feed only).
	Text string
}

// String returns a short human-readable description of the event.
func (e Event) String() string {
	if e.ImageURL != "" {
		return fmt.Sprintf("image %dx%d %q (%s)", e.Width, e.Height, e.Prompt, e.Model)
	}
	return fmt.Sprintf("text %q", e.Prompt)
}

// Metrics holds per-feed ingestion counters and derived rate figures.
//
// Received, Dropped, and SkippedWhilePaused accumulate monotonically within
// a session (they survive reconnects and are zeroed only by a reset start).
// Buffered is a gauge that returns to 0 when a paused feed is resumed.
type Metrics struct {
	// Received counts every raw message delivered by the transport,
	// before parsing and deduplication.
	Received uint64

	// Dropped counts malformed payloads, back-to-back duplicates, and
	// events evicted from a full pause buffer. The invariant
	// received = dropped + accepted holds, where accepted events are those
	// that reached either the pause buffer or the display list.
	Dropped uint64

	// SkippedWhilePaused counts events diverted to the pause buffer
	// instead of the display list.
	SkippedWhilePaused uint64

	// Buffered is the number of events currently held in the pause buffer.
	Buffered int

	// EventsPerMinute is the number of accepted events in the last minute,
	// derived from a bounded window of recent accepted-event timestamps.
	EventsPerMinute float64

	// AverageIntervalMs is the mean gap between consecutive accepted
	// events in the window. nil when fewer than two events exist, since
	// an interval requires two points.
	AverageIntervalMs *float64
}

// Diagnostics holds per-feed liveness bookkeeping used by stall detection
// and health classification.
type Diagnostics struct {
	// LastEventAt is the arrival time of the most recent accepted event.
	// nil if no event has been accepted since the session (or reset) began.
	LastEventAt *time.Time

	// LastErrorAt is the time of the most recent transport error.
	// nil if no error has occurred.
	LastErrorAt *time.Time

	// ConsecutiveErrors counts transport errors since the last successful
	// open or accepted event.
	ConsecutiveErrors int

	// Stalled is true when a connected feed has produced no accepted event
	// within the stall threshold while the host was visible.
	Stalled bool
}

// Snapshot is a point-in-time copy of everything observable about one feed.
//
// Snapshot is a plain value: the Events slice is a copy and may be retained
// freely by the caller.
type Snapshot struct {
	Feed        FeedType
	Status      ConnectionStatus
	Error       string
	Health      Health
	Paused      bool
	Metrics     Metrics
	Diagnostics Diagnostics
	Events      []Event
}
