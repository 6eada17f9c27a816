package feedpulse

// displayList is the bounded, most-recent-first list of accepted events
// exposed to consumers. Eviction is FIFO: when the list is full the oldest
// entry (the tail) is removed first.
type displayList struct {
	events []Event
	limit  int
}

// push inserts ev at the front, evicting the oldest entry if the list is at
// capacity. Display eviction is ordinary aging, not a drop, and is not
// reflected in any counter.
func (d *displayList) push(ev Event) {
	d.events = append([]Event{ev}, d.events...)
	if len(d.events) > d.limit {
		d.events = d.events[:d.limit]
	}
}

// snapshot returns a copy of the list, newest first.
func (d *displayList) snapshot() []Event {
	cp := make([]Event, len(d.events))
	copy(cp, d.events)
	return cp
}

// pauseBuffer holds events accepted while a feed is paused, in arrival
// order, up to a fixed capacity.
type pauseBuffer struct {
	events []Event
	cap    int
}

// push appends ev to the buffer. If the buffer is at capacity the oldest
// buffered event is evicted to make room; evicted reports whether that
// happened so the caller can attribute the loss to the dropped counter
// rather than losing it silently.
func (b *pauseBuffer) push(ev Event) (evicted bool) {
	if len(b.events) >= b.cap {
		b.events = b.events[1:]
		evicted = true
	}
	b.events = append(b.events, ev)
	return evicted
}

// drain empties the buffer and returns its contents in original arrival
// order. The events are moved, not copied: after drain the buffer is empty
// and no event exists in two places at once.
func (b *pauseBuffer) drain() []Event {
	out := b.events
	b.events = nil
	return out
}

// len returns the number of buffered events.
func (b *pauseBuffer) len() int {
	return len(b.events)
}
