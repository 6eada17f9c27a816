package platform

import (
	"net"
	"sync"
	"time"
)

// State is a point-in-time view of the host signals.
type State struct {
	// Online reports whether the host believes it has network connectivity.
	Online bool

	// Visible reports whether the host surface is in the foreground.
	Visible bool
}

// Listener receives signal transitions. Either callback may be nil.
type Listener struct {
	OnlineChanged     func(online bool)
	VisibilityChanged func(visible bool)
}

// Monitor is a source of host online/offline and visibility signals.
//
// Implementations must be safe for concurrent use. Subscribe returns a
// cancel function that removes exactly the subscription it created; calling
// it more than once is safe.
type Monitor interface {
	// State returns the current signal values.
	State() State

	// Subscribe registers a listener for future transitions.
	Subscribe(l Listener) (cancel func())
}

// ManualMonitor is a Monitor whose signals are set by the embedder.
//
// A fresh ManualMonitor reports online and visible, which also makes it the
// neutral default for environments with no signal source at all.
type ManualMonitor struct {
	mu        sync.Mutex
	state     State
	nextID    int
	listeners map[int]Listener
}

// NewManualMonitor creates a ManualMonitor reporting online and visible.
func NewManualMonitor() *ManualMonitor {
	return &ManualMonitor{
		state:     State{Online: true, Visible: true},
		listeners: make(map[int]Listener),
	}
}

// State returns the current signal values.
func (m *ManualMonitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe registers a listener and returns its cancel function.
func (m *ManualMonitor) Subscribe(l Listener) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = l
	m.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			m.mu.Lock()
			delete(m.listeners, id)
			m.mu.Unlock()
		})
	}
}

// SetOnline updates the online signal and notifies listeners on change.
func (m *ManualMonitor) SetOnline(online bool) {
	m.mu.Lock()
	if m.state.Online == online {
		m.mu.Unlock()
		return
	}
	m.state.Online = online
	listeners := m.snapshotLocked()
	m.mu.Unlock()

	for _, l := range listeners {
		if l.OnlineChanged != nil {
			l.OnlineChanged(online)
		}
	}
}

// SetVisible updates the visibility signal and notifies listeners on change.
func (m *ManualMonitor) SetVisible(visible bool) {
	m.mu.Lock()
	if m.state.Visible == visible {
		m.mu.Unlock()
		return
	}
	m.state.Visible = visible
	listeners := m.snapshotLocked()
	m.mu.Unlock()

	for _, l := range listeners {
		if l.VisibilityChanged != nil {
			l.VisibilityChanged(visible)
		}
	}
}

// snapshotLocked copies the listener set so notification happens without the
// lock held; a listener may re-enter the monitor.
func (m *ManualMonitor) snapshotLocked() []Listener {
	out := make([]Listener, 0, len(m.listeners))
	for _, l := range m.listeners {
		out = append(out, l)
	}
	return out
}

const (
	defaultProbeInterval = 10 * time.Second
	probeTimeout         = 3 * time.Second
)

// ProbeMonitor derives the online signal by periodically dialing a TCP
// address. Visibility is always true; headless hosts have no background tab.
type ProbeMonitor struct {
	manual   *ManualMonitor
	addr     string
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewProbeMonitor starts a monitor probing addr (host:port) at the given
// interval. A non-positive interval falls back to 10 seconds. Call
// [ProbeMonitor.Close] to stop the probe goroutine.
func NewProbeMonitor(addr string, interval time.Duration) *ProbeMonitor {
	if interval <= 0 {
		interval = defaultProbeInterval
	}
	p := &ProbeMonitor{
		manual:   NewManualMonitor(),
		addr:     addr,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go p.run()
	return p
}

// State returns the current signal values.
func (p *ProbeMonitor) State() State {
	return p.manual.State()
}

// Subscribe registers a listener for future transitions.
func (p *ProbeMonitor) Subscribe(l Listener) func() {
	return p.manual.Subscribe(l)
}

// Close stops the probe goroutine. Idempotent.
func (p *ProbeMonitor) Close() {
	p.stopOnce.Do(func() { close(p.stop) })
	<-p.done
}

func (p *ProbeMonitor) run() {
	defer close(p.done)
	p.probe()
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			p.probe()
		}
	}
}

func (p *ProbeMonitor) probe() {
	conn, err := net.DialTimeout("tcp", p.addr, probeTimeout)
	if err == nil {
		conn.Close()
	}
	p.manual.SetOnline(err == nil)
}
