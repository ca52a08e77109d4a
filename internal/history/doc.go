// Package history holds the per-owner play history log.
//
// The store is memory-resident for the lifetime of the process: there is no
// persistence requirement, a restart starts with an empty history. Records
// are immutable once appended, and each owner's sequence is fully independent
// of every other owner's.
package history
