// Package api serves the history endpoints consumed by the overlay's display
// surface and by manual test-injection tooling.
//
//	GET  /api/history/{owner}/list   public; JSON array, most-recent-first
//	POST /api/history/push           gated; append one record
//	POST /api/history/clearAll       gated; wipe an owner's history
//	GET  /api/health                 public; bridge state + record count
//
// The auth gate is the sole security boundary: any query parameters the
// display surface carries gate UI affordances only.
package api
