// Package store provides thread-safe storage and pub/sub distribution of
// feed snapshots.
//
// The primary implementation is [MemoryStore], which keeps the latest
// snapshot per feed and notifies subscribers of updates. It feeds the
// HTTP observer's Server-Sent Events endpoint.
package store
