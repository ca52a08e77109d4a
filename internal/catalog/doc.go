// Package catalog resolves content hashes to public beatmap metadata
// (share code and cover image URL) via the remote catalog's HTTP API.
//
// Resolve never returns an error. Lookups are best-effort with a bounded
// timeout; anything short of a well-formed match degrades to the sentinel
// {BSRCode: "none", CoverURL: ""} so the event pipeline keeps moving while
// the catalog is slow, down, or simply unaware of the map.
package catalog
