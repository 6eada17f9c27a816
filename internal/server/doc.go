// Package server implements the optional HTTP observer surface.
//
// It exposes the watcher's per-feed snapshots as a JSON status endpoint and
// as a Server-Sent Events re-broadcast, for external dashboards or probes.
package server
