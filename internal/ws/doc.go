// Package ws pushes live history updates to overlay clients over WebSocket,
// sparing the display surface its polling interval when something actually
// changed. Each client subscribes to one owner; the hub re-sends that owner's
// full history on every append or clear.
package ws
