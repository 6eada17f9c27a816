package feedpulse

// HealthFor derives the health classification for a feed from its
// diagnostics.
//
// HealthFor is a pure function with no stored state: critical when the most
// recent transport activity was an error (ConsecutiveErrors > 0), degraded
// when the feed is stalled but not critical, good otherwise. Because a
// successful open resets ConsecutiveErrors, a reconnect moves health from
// critical straight back to good without requiring a new data event;
// reaching connected is itself evidence of recovery.
func HealthFor(d Diagnostics) Health {
	switch {
	case d.ConsecutiveErrors > 0:
		return HealthCritical
	case d.Stalled:
		return HealthDegraded
	default:
		return HealthGood
	}
}
