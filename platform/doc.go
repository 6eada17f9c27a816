// Package platform models the host environment's network and visibility
// signals as a subscribable monitor.
//
// The watcher treats these signals as read-only inputs: it never synthesizes
// them itself, it subscribes exactly once per start cycle, and it cancels
// that subscription on shutdown. [ManualMonitor] is driven by the embedding
// application (or a test); [ProbeMonitor] derives online/offline from a
// periodic TCP reachability probe.
package platform
