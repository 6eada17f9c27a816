package feedpulse

import "time"

// rateWindowSize bounds the number of accepted-event timestamps retained
// for rate derivation. Rates reflect recent behaviour, not the full session.
const rateWindowSize = 32

// rateWindow keeps the timestamps of recently accepted events and derives
// the rate metrics from them on demand.
type rateWindow struct {
	stamps []time.Time
}

// record appends an accepted-event timestamp, evicting the oldest once the
// window is full.
func (w *rateWindow) record(t time.Time) {
	w.stamps = append(w.stamps, t)
	if len(w.stamps) > rateWindowSize {
		w.stamps = w.stamps[1:]
	}
}

// reset discards all recorded timestamps.
func (w *rateWindow) reset() {
	w.stamps = nil
}

// eventsPerMinute counts the windowed events that arrived within the minute
// preceding now.
func (w *rateWindow) eventsPerMinute(now time.Time) float64 {
	cutoff := now.Add(-time.Minute)
	var n int
	for _, t := range w.stamps {
		if t.After(cutoff) {
			n++
		}
	}
	return float64(n)
}

// averageIntervalMs returns the mean gap in milliseconds between consecutive
// windowed events, or nil when fewer than two events exist; an interval
// requires two points.
func (w *rateWindow) averageIntervalMs() *float64 {
	if len(w.stamps) < 2 {
		return nil
	}
	span := w.stamps[len(w.stamps)-1].Sub(w.stamps[0])
	avg := float64(span.Milliseconds()) / float64(len(w.stamps)-1)
	return &avg
}
