package store

import (
	"sort"
	"sync"
)

// subscriberBuffer is the per-subscriber channel depth. Updates to a full
// subscriber are dropped rather than blocking the watcher's callback path.
const subscriberBuffer = 100

// MemoryStore is an in-memory implementation of [Store].
//
// MemoryStore provides thread-safe storage with a publish-subscribe
// mechanism for real-time updates. Snapshots are keyed by feed type, with
// new snapshots replacing previous values.
type MemoryStore struct {
	mu          sync.RWMutex
	snapshots   map[string]FeedSnapshot
	subMu       sync.RWMutex
	subscribers map[chan FeedSnapshot]struct{}
}

// NewMemoryStore creates a new in-memory [Store] implementation.
//
// The store is immediately ready for use. No cleanup is required when done.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		snapshots:   make(map[string]FeedSnapshot),
		subscribers: make(map[chan FeedSnapshot]struct{}),
	}
}

// Update stores a [FeedSnapshot] and notifies all subscribers.
func (m *MemoryStore) Update(snap FeedSnapshot) {
	m.mu.Lock()
	m.snapshots[snap.Feed] = snap
	m.mu.Unlock()

	m.notifySubscribers(snap)
}

// GetAll returns a copy of all stored snapshots, ordered by feed name for
// stable API output.
func (m *MemoryStore) GetAll() []FeedSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]FeedSnapshot, 0, len(m.snapshots))
	for _, snap := range m.snapshots {
		out = append(out, snap)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Feed < out[j].Feed })
	return out
}

// Subscribe creates a new subscription and returns a channel for receiving
// updates. Caller must call [MemoryStore.Unsubscribe] when done.
func (m *MemoryStore) Subscribe() <-chan FeedSnapshot {
	ch := make(chan FeedSnapshot, subscriberBuffer)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
// Safe to call multiple times or with an unknown channel.
func (m *MemoryStore) Unsubscribe(ch <-chan FeedSnapshot) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// notifySubscribers sends the snapshot to all active subscribers without
// blocking: a full subscriber buffer means the update is dropped for that
// subscriber.
func (m *MemoryStore) notifySubscribers(snap FeedSnapshot) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		select {
		case ch <- snap:
		default:
			// subscriber is slow, drop the message
		}
	}
}
