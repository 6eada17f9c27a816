package feedpulse

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mholden/feedpulse/internal/sse"
	"github.com/mholden/feedpulse/platform"
)

// offlineMessage is the user-facing error set on feeds while the host
// network is down.
const offlineMessage = "waiting for network connection"

// Watcher multiplexes the image and text push streams and exposes their
// observable state.
//
// Watcher owns the full per-feed pipeline: connections are opened through
// the configured [Dialer], raw messages are parsed and deduplicated, flow
// control buffers events while a feed is paused, and a periodic check flags
// silent stalls. Everything a consumer can observe (status, error, metrics,
// diagnostics, health, paused flag, and the display list) is read through
// accessor methods; mutation happens only through [Watcher.Start],
// [Watcher.TogglePause], and [Watcher.Shutdown].
//
// All state is serialized behind a single mutex, so every accessor is
// consistent with the latest transport callback the moment that callback
// returns. No failure escapes as an error or panic from the transport side;
// drops, stalls, and connection errors all become observable state.
//
// The typical lifecycle is:
//
//	w, err := feedpulse.New(
//	    feedpulse.WithFeedURL(feedpulse.FeedImage, imageURL),
//	    feedpulse.WithFeedURL(feedpulse.FeedText, textURL),
//	)
//	if err != nil {
//	    slog.Error("failed to create watcher", "error", err)
//	    os.Exit(1)
//	}
//	if err := w.Start(feedpulse.FeedImage); err != nil { ... }
//	defer w.Shutdown()
type Watcher struct {
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

	mu          sync.Mutex
	feeds       map[FeedType]*feedState
	running     bool
	online      bool
	visible     bool
	gen         uint64
	unsubscribe func()
	stallStop   chan struct{}
	stallDone   chan struct{}
}

// feedState is everything the watcher tracks for one feed. Fields are only
// touched while holding the watcher mutex.
type feedState struct {
	feed   FeedType
	status ConnectionStatus
	errMsg string
	paused bool

	// gen ties transport callbacks to the connection attempt that
	// registered them; callbacks from a superseded connection are ignored.
	gen       uint64
	conn      Conn
	reconnect *time.Timer

	lastAccepted Event
	hasLast      bool

	buffer  pauseBuffer
	display displayList

	received           uint64
	dropped            uint64
	skippedWhilePaused uint64
	window             rateWindow

	lastEventAt       time.Time
	lastErrorAt       time.Time
	consecutiveErrors int
	stalled           bool
}

// dialRequest carries the parameters of a pending connection attempt out of
// the locked section; the actual dial happens without the lock held so a
// dialer that fires callbacks synchronously cannot deadlock.
type dialRequest struct {
	feed FeedType
	gen  uint64
	url  string
}

// New creates a [Watcher] with the given options.
//
// At least one feed URL must be configured via [WithFeedURL]. Other options
// have defaults matching the tuning the stall and reconnect behaviour was
// validated against: 15s stall threshold, 5s check interval, 4s reconnect
// delay, 100-event pause buffer, 50-event display list.
func New(opts ...Option) (*Watcher, error) {
	cfg := &watcherConfig{
		urls:           make(map[FeedType]string),
		stallThreshold: defaultStallThreshold,
		checkInterval:  defaultCheckInterval,
		reconnectDelay: defaultReconnectDelay,
		bufferCapacity: defaultBufferCapacity,
		displayLimit:   defaultDisplayLimit,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if len(cfg.urls) == 0 {
		return nil, errors.New("at least one feed url is required")
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	dialer := cfg.dialer
	if dialer == nil {
		dialer = sseDialer(logger)
	}

	monitor := cfg.monitor
	if monitor == nil {
		monitor = platform.NewManualMonitor()
	}

	return &Watcher{
		urls:            cfg.urls,
		stallThreshold:  cfg.stallThreshold,
		checkInterval:   cfg.checkInterval,
		reconnectDelay:  cfg.reconnectDelay,
		bufferCapacity:  cfg.bufferCapacity,
		displayLimit:    cfg.displayLimit,
		logger:          logger,
		dialer:          dialer,
		monitor:         monitor,
		eventCallbacks:  cfg.eventCallbacks,
		statusCallbacks: cfg.statusCallbacks,
		feeds:           make(map[FeedType]*feedState),
	}, nil
}

// sseDialer adapts the internal SSE client to the [Dialer] contract.
func sseDialer(logger *slog.Logger) Dialer {
	return func(url string, cb Callbacks) Conn {
		return sse.Dial(url, sse.Callbacks{
			OnOpen:    cb.OnOpen,
			OnMessage: cb.OnMessage,
			OnError:   cb.OnError,
		}, sse.WithLogger(logger))
	}
}

// Start connects the given feed.
//
// If the feed already has a live connection it is closed first; exactly one
// connection exists per feed at any time. A Start call for a feed that is
// still connecting is a no-op beyond the [WithReset] behaviour. The first
// Start of a cycle attaches the watcher to its platform monitor and starts
// the stall-check timer; both are released again by [Watcher.Shutdown].
//
// Start never blocks on the network: the connection outcome arrives through
// transport callbacks and is observed via the accessors. If the monitor
// currently reports the network as down, Start parks the feed offline
// instead of dialing; the online signal reconnects it.
func (w *Watcher) Start(feed FeedType, opts ...StartOption) error {
	if !feed.valid() {
		return fmt.Errorf("unknown feed type %q", feed)
	}
	var so startOptions
	for _, opt := range opts {
		opt(&so)
	}

	w.mu.Lock()
	url, ok := w.urls[feed]
	if !ok {
		w.mu.Unlock()
		return fmt.Errorf("no stream url configured for feed %q", feed)
	}

	if !w.running {
		w.running = true
		w.attachLocked()
	}

	fs := w.feeds[feed]
	if fs == nil {
		fs = w.newFeedStateLocked(feed)
		w.feeds[feed] = fs
	}
	if so.reset {
		w.resetFeedLocked(fs)
	}

	if fs.status == StatusConnecting {
		w.mu.Unlock()
		return nil
	}

	// with the network down, dialing is pointless; park the feed offline and
	// let the online signal run the connect sequence
	if !w.online {
		old := fs.conn
		fs.conn = nil
		if fs.reconnect != nil {
			fs.reconnect.Stop()
			fs.reconnect = nil
		}
		fs.status = StatusOffline
		fs.errMsg = offlineMessage
		fs.gen = w.nextGenLocked()
		w.mu.Unlock()

		if old != nil {
			old.Close()
		}
		w.logger.Info("network down, feed parked offline", "feed", feed)
		w.notifyStatus(feed, StatusOffline)
		return nil
	}

	req, old := w.prepareConnectLocked(fs, url)
	w.mu.Unlock()

	if old != nil {
		old.Close()
	}
	w.logger.Info("starting feed", "feed", feed, "url", url, "reset", so.reset)
	w.notifyStatus(feed, StatusConnecting)
	w.dial(req)
	return nil
}

// TogglePause flips the paused flag for the given feed and returns the
// number of events flushed to the display list.
//
// While paused, accepted events accumulate in the bounded pause buffer
// instead of the display list. Resuming drains the buffer into the display
// list in original arrival order and resets the buffered gauge to 0; the
// return value is the flush count (always 0 when the call pauses the feed).
func (w *Watcher) TogglePause(feed FeedType) int {
	w.mu.Lock()
	fs := w.feeds[feed]
	if fs == nil {
		w.mu.Unlock()
		return 0
	}
	fs.paused = !fs.paused
	if fs.paused {
		w.mu.Unlock()
		w.logger.Info("feed paused", "feed", feed)
		return 0
	}

	flushed := fs.buffer.drain()
	for _, ev := range flushed {
		fs.display.push(ev)
	}
	w.mu.Unlock()

	w.logger.Info("feed resumed", "feed", feed, "flushed", len(flushed))
	for _, ev := range flushed {
		w.notifyEvent(feed, ev)
	}
	return len(flushed)
}

// Shutdown stops everything the watcher started.
//
// It closes every live connection, cancels pending reconnect attempts,
// synchronously stops the stall-check timer, detaches the platform-monitor
// subscription registered by the first Start of this cycle, and sets every
// feed's status to idle. No transport callback observed after Shutdown
// returns can change watcher state. Shutdown is idempotent; a later Start
// begins a fresh cycle with a fresh monitor subscription.
func (w *Watcher) Shutdown() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false

	unsubscribe := w.unsubscribe
	w.unsubscribe = nil
	stop, done := w.stallStop, w.stallDone
	w.stallStop, w.stallDone = nil, nil

	var closers []Conn
	var idled []FeedType
	for _, fs := range w.feeds {
		fs.gen = w.nextGenLocked()
		if fs.reconnect != nil {
			fs.reconnect.Stop()
			fs.reconnect = nil
		}
		if fs.conn != nil {
			closers = append(closers, fs.conn)
			fs.conn = nil
		}
		if fs.status != StatusIdle {
			fs.status = StatusIdle
			fs.errMsg = ""
			idled = append(idled, fs.feed)
		}
	}
	w.mu.Unlock()

	close(stop)
	<-done
	if unsubscribe != nil {
		unsubscribe()
	}
	for _, c := range closers {
		c.Close()
	}

	w.logger.Info("watcher shut down")
	for _, feed := range idled {
		w.notifyStatus(feed, StatusIdle)
	}
}

// Status returns the feed's current connection status (idle if the feed was
// never started).
func (w *Watcher) Status(feed FeedType) ConnectionStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	if fs := w.feeds[feed]; fs != nil {
		return fs.status
	}
	return StatusIdle
}

// Err returns the feed's current user-facing error message, or the empty
// string when there is none.
func (w *Watcher) Err(feed FeedType) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if fs := w.feeds[feed]; fs != nil {
		return fs.errMsg
	}
	return ""
}

// Paused reports whether the feed is currently paused.
func (w *Watcher) Paused(feed FeedType) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if fs := w.feeds[feed]; fs != nil {
		return fs.paused
	}
	return false
}

// Metrics returns the feed's counters and rate figures. The rate figures
// are derived from the recent-event window at read time.
func (w *Watcher) Metrics(feed FeedType) Metrics {
	w.mu.Lock()
	defer w.mu.Unlock()
	if fs := w.feeds[feed]; fs != nil {
		return w.metricsLocked(fs)
	}
	return Metrics{}
}

// Diagnostics returns the feed's liveness bookkeeping.
func (w *Watcher) Diagnostics(feed FeedType) Diagnostics {
	w.mu.Lock()
	defer w.mu.Unlock()
	if fs := w.feeds[feed]; fs != nil {
		return diagnosticsOf(fs)
	}
	return Diagnostics{}
}

// Health returns the feed's derived health classification.
func (w *Watcher) Health(feed FeedType) Health {
	w.mu.Lock()
	defer w.mu.Unlock()
	if fs := w.feeds[feed]; fs != nil {
		return HealthFor(diagnosticsOf(fs))
	}
	return HealthGood
}

// Events returns a copy of the feed's display list, newest first.
func (w *Watcher) Events(feed FeedType) []Event {
	w.mu.Lock()
	defer w.mu.Unlock()
	if fs := w.feeds[feed]; fs != nil {
		return fs.display.snapshot()
	}
	return nil
}

// Snapshot returns a point-in-time copy of everything observable about the
// feed.
func (w *Watcher) Snapshot(feed FeedType) Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	fs := w.feeds[feed]
	if fs == nil {
		return Snapshot{Feed: feed, Status: StatusIdle, Health: HealthGood}
	}
	d := diagnosticsOf(fs)
	return Snapshot{
		Feed:        feed,
		Status:      fs.status,
		Error:       fs.errMsg,
		Health:      HealthFor(d),
		Paused:      fs.paused,
		Metrics:     w.metricsLocked(fs),
		Diagnostics: d,
		Events:      fs.display.snapshot(),
	}
}

// newFeedStateLocked builds the initial state for a feed.
func (w *Watcher) newFeedStateLocked(feed FeedType) *feedState {
	return &feedState{
		feed:    feed,
		status:  StatusIdle,
		buffer:  pauseBuffer{cap: w.bufferCapacity},
		display: displayList{limit: w.displayLimit},
	}
}

// resetFeedLocked zeroes a feed's metrics and diagnostics, the behaviour of
// the [WithReset] start option. The display list, pause buffer, and paused
// flag are left alone; reset is about counters, not content.
func (w *Watcher) resetFeedLocked(fs *feedState) {
	fs.received = 0
	fs.dropped = 0
	fs.skippedWhilePaused = 0
	fs.window.reset()
	fs.lastEventAt = time.Time{}
	fs.lastErrorAt = time.Time{}
	fs.consecutiveErrors = 0
	fs.stalled = false
	fs.hasLast = false
	fs.lastAccepted = Event{}
}

// prepareConnectLocked moves a feed into the connecting state and hands back
// the dial parameters plus any superseded connection for the caller to close
// outside the lock.
func (w *Watcher) prepareConnectLocked(fs *feedState, url string) (dialRequest, Conn) {
	old := fs.conn
	fs.conn = nil
	if fs.reconnect != nil {
		fs.reconnect.Stop()
		fs.reconnect = nil
	}
	fs.status = StatusConnecting
	fs.errMsg = ""
	fs.gen = w.nextGenLocked()
	return dialRequest{feed: fs.feed, gen: fs.gen, url: url}, old
}

// dial invokes the connection factory and installs the resulting connection,
// unless the attempt was superseded while the factory ran.
func (w *Watcher) dial(req dialRequest) {
	conn := w.dialer(req.url, Callbacks{
		OnOpen:    func() { w.handleOpen(req.feed, req.gen) },
		OnMessage: func(data []byte) { w.handleMessage(req.feed, req.gen, data) },
		OnError:   func(err error) { w.handleError(req.feed, req.gen, err) },
	})

	w.mu.Lock()
	fs := w.feeds[req.feed]
	if fs == nil || fs.gen != req.gen {
		w.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
		return
	}
	fs.conn = conn
	w.mu.Unlock()
}

// nextGenLocked issues a fresh connection generation.
func (w *Watcher) nextGenLocked() uint64 {
	w.gen++
	return w.gen
}

// handleOpen is the transport open callback.
func (w *Watcher) handleOpen(feed FeedType, gen uint64) {
	w.mu.Lock()
	fs := w.feeds[feed]
	if fs == nil || fs.gen != gen {
		w.mu.Unlock()
		return
	}
	fs.status = StatusConnected
	fs.errMsg = ""
	fs.consecutiveErrors = 0
	w.mu.Unlock()

	w.logger.Info("feed connected", "feed", feed)
	w.notifyStatus(feed, StatusConnected)
}

// handleMessage is the transport message callback: parse, dedup, then either
// buffer (paused) or publish to the display list.
func (w *Watcher) handleMessage(feed FeedType, gen uint64, data []byte) {
	w.mu.Lock()
	fs := w.feeds[feed]
	if fs == nil || fs.gen != gen {
		w.mu.Unlock()
		return
	}

	fs.received++

	ev, err := parseEvent(feed, data)
	if err != nil {
		fs.dropped++
		w.mu.Unlock()
		w.logger.Warn("dropping malformed event", "feed", feed, "error", err)
		return
	}

	// compare-to-last dedup: a bounded-cost guard against duplicate
	// re-delivery, deliberately not a history set
	if fs.hasLast && ev == fs.lastAccepted {
		fs.dropped++
		w.mu.Unlock()
		w.logger.Debug("dropping duplicate event", "feed", feed)
		return
	}
	fs.lastAccepted = ev
	fs.hasLast = true

	now := time.Now()
	fs.lastEventAt = now
	fs.stalled = false
	fs.window.record(now)

	if fs.paused {
		if fs.buffer.push(ev) {
			fs.dropped++
		}
		fs.skippedWhilePaused++
		w.mu.Unlock()
		return
	}

	fs.display.push(ev)
	w.mu.Unlock()

	w.notifyEvent(feed, ev)
}

// handleError is the transport error callback. The failed connection is
// discarded and a reconnection attempt is scheduled after the configured
// delay; the error itself never propagates beyond observable state.
func (w *Watcher) handleError(feed FeedType, gen uint64, err error) {
	w.mu.Lock()
	fs := w.feeds[feed]
	if fs == nil || fs.gen != gen {
		w.mu.Unlock()
		return
	}

	fs.status = StatusError
	fs.errMsg = err.Error()
	fs.lastErrorAt = time.Now()
	fs.consecutiveErrors++

	dead := fs.conn
	fs.conn = nil
	fs.gen = w.nextGenLocked() // the failed transport is no longer authoritative
	retryGen := fs.gen

	if fs.reconnect != nil {
		fs.reconnect.Stop()
	}
	fs.reconnect = time.AfterFunc(w.reconnectDelay, func() {
		w.reconnectFeed(feed, retryGen)
	})
	w.mu.Unlock()

	if dead != nil {
		dead.Close()
	}
	w.logger.Warn("feed connection error", "feed", feed, "error", err,
		"retry_in", w.reconnectDelay.String())
	w.notifyStatus(feed, StatusError)
}

// reconnectFeed re-dials a feed after the reconnect delay, unless the feed
// moved on (shutdown, explicit restart, offline) in the meantime.
func (w *Watcher) reconnectFeed(feed FeedType, gen uint64) {
	w.mu.Lock()
	fs := w.feeds[feed]
	if !w.running || fs == nil || fs.gen != gen || fs.status != StatusError {
		w.mu.Unlock()
		return
	}
	url := w.urls[feed]
	req, old := w.prepareConnectLocked(fs, url)
	w.mu.Unlock()

	if old != nil {
		old.Close()
	}
	w.logger.Info("reconnecting feed", "feed", feed, "url", url)
	w.notifyStatus(feed, StatusConnecting)
	w.dial(req)
}

// attachLocked registers the platform-monitor subscription and starts the
// stall-check timer for a new start cycle. Exactly one subscription exists
// per cycle; Shutdown removes it again.
func (w *Watcher) attachLocked() {
	state := w.monitor.State()
	w.online = state.Online
	w.visible = state.Visible

	w.unsubscribe = w.monitor.Subscribe(platform.Listener{
		OnlineChanged:     w.handleOnline,
		VisibilityChanged: w.handleVisibility,
	})

	w.stallStop = make(chan struct{})
	w.stallDone = make(chan struct{})
	go w.runStallChecks(w.stallStop, w.stallDone)
}

// runStallChecks drives the periodic stall detector until stop is closed.
func (w *Watcher) runStallChecks(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(w.checkInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			w.checkStalls(time.Now())
		}
	}
}

// checkStalls is one tick of the stall detector. The whole tick is skipped
// while the host is hidden: a stall is never raised in the background and a
// flag already raised stays frozen until visibility returns, when the check
// re-evaluates against the current elapsed time.
func (w *Watcher) checkStalls(now time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.visible {
		return
	}
	for _, fs := range w.feeds {
		if fs.status != StatusConnected || fs.lastEventAt.IsZero() {
			continue
		}
		if now.Sub(fs.lastEventAt) > w.stallThreshold && !fs.stalled {
			fs.stalled = true
			w.logger.Warn("feed stalled", "feed", fs.feed,
				"since_last_event", now.Sub(fs.lastEventAt).String())
		}
	}
}

// handleOnline reacts to host network transitions. Loss forces every active
// feed to offline with a waiting-for-network message; recovery re-runs the
// connect sequence for exactly the feeds that were parked offline.
func (w *Watcher) handleOnline(online bool) {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.online = online

	if !online {
		var closers []Conn
		var parked []FeedType
		for _, fs := range w.feeds {
			switch fs.status {
			case StatusConnecting, StatusConnected, StatusError:
				fs.status = StatusOffline
				fs.errMsg = offlineMessage
				fs.gen = w.nextGenLocked()
				if fs.reconnect != nil {
					fs.reconnect.Stop()
					fs.reconnect = nil
				}
				if fs.conn != nil {
					closers = append(closers, fs.conn)
					fs.conn = nil
				}
				parked = append(parked, fs.feed)
			}
		}
		w.mu.Unlock()

		for _, c := range closers {
			c.Close()
		}
		if len(parked) > 0 {
			w.logger.Warn("network lost, feeds parked offline", "feeds", len(parked))
		}
		for _, feed := range parked {
			w.notifyStatus(feed, StatusOffline)
		}
		return
	}

	var reqs []dialRequest
	var closers []Conn
	for _, fs := range w.feeds {
		if fs.status != StatusOffline {
			continue
		}
		req, old := w.prepareConnectLocked(fs, w.urls[fs.feed])
		reqs = append(reqs, req)
		if old != nil {
			closers = append(closers, old)
		}
	}
	w.mu.Unlock()

	for _, c := range closers {
		c.Close()
	}
	if len(reqs) > 0 {
		w.logger.Info("network restored, reconnecting feeds", "feeds", len(reqs))
	}
	for _, req := range reqs {
		w.notifyStatus(req.feed, StatusConnecting)
		w.dial(req)
	}
}

// handleVisibility records host visibility; it gates the stall check but
// never alters connection status.
func (w *Watcher) handleVisibility(visible bool) {
	w.mu.Lock()
	w.visible = visible
	w.mu.Unlock()
	w.logger.Debug("visibility changed", "visible", visible)
}

// metricsLocked assembles the Metrics value for a feed.
func (w *Watcher) metricsLocked(fs *feedState) Metrics {
	return Metrics{
		Received:           fs.received,
		Dropped:            fs.dropped,
		SkippedWhilePaused: fs.skippedWhilePaused,
		Buffered:           fs.buffer.len(),
		EventsPerMinute:    fs.window.eventsPerMinute(time.Now()),
		AverageIntervalMs:  fs.window.averageIntervalMs(),
	}
}

// diagnosticsOf converts a feed's internal bookkeeping to the public type.
func diagnosticsOf(fs *feedState) Diagnostics {
	d := Diagnostics{
		ConsecutiveErrors: fs.consecutiveErrors,
		Stalled:           fs.stalled,
	}
	if !fs.lastEventAt.IsZero() {
		t := fs.lastEventAt
		d.LastEventAt = &t
	}
	if !fs.lastErrorAt.IsZero() {
		t := fs.lastErrorAt
		d.LastErrorAt = &t
	}
	return d
}

// notifyEvent invokes the registered event callbacks with panic recovery.
func (w *Watcher) notifyEvent(feed FeedType, ev Event) {
	for _, cb := range w.eventCallbacks {
		w.invokeSafe(feed, func() { cb(feed, ev) })
	}
}

// notifyStatus invokes the registered status callbacks with panic recovery.
func (w *Watcher) notifyStatus(feed FeedType, status ConnectionStatus) {
	for _, cb := range w.statusCallbacks {
		w.invokeSafe(feed, func() { cb(feed, status) })
	}
}

// invokeSafe calls a callback with panic recovery. Panics are logged with a
// correlation ID but do not propagate into the ingestion path.
func (w *Watcher) invokeSafe(feed FeedType, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("callback panicked",
				"correlation_id", uuid.NewString(),
				"panic", fmt.Sprintf("%v", r),
				"feed", feed,
			)
		}
	}()
	fn()
}
