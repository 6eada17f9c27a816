package feedpulse

// Conn is a live push connection to a feed stream.
//
// The watcher owns at most one Conn per feed and interacts with it only
// through Close; all inbound traffic arrives via the [Callbacks] supplied
// when the connection was dialed.
type Conn interface {
	// Close tears the connection down. Close must be safe to call from any
	// goroutine, including from within one of the connection's own
	// callbacks, and must be idempotent.
	Close()
}

// Callbacks receives transport events for a single connection.
//
// A Dialer must invoke at most one callback at a time per connection, in
// delivery order: OnOpen once when the stream is established, OnMessage for
// each data frame, and OnError when the connection fails or ends. After
// Close, pending callbacks may still be in flight; the watcher discards
// stale deliveries itself.
type Callbacks struct {
	OnOpen    func()
	OnMessage func(data []byte)
	OnError   func(err error)
}

// Dialer opens a push connection to the given stream URL.
//
// Dialer is the connection factory the watcher uses for every connect and
// reconnect. It must not block: the connection attempt happens in the
// background and its outcome is reported through the callbacks. Substituting
// a Dialer is the intended seam for tests and alternate transports; the
// default is the SSE client in internal/sse.
type Dialer func(url string, cb Callbacks) Conn
