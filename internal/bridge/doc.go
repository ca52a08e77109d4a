// Package bridge owns the subscription to the game's status feed and wires
// the event pipeline: feed message → classification → catalog resolution →
// history append.
//
// The controller is a small state machine (disconnected → connecting →
// subscribed) that retries indefinitely with truncated exponential backoff
// (1s→60s, ±25% jitter) when the feed drops. Resolution failures degrade to
// the catalog's not-found sentinel and never stop the machine.
//
// Ordering note: records land in the history store in the order their
// catalog resolutions complete, which can differ from the order the song
// starts were emitted when lookup latencies vary.
package bridge
