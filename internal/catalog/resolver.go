package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultLookupTimeout = 5 * time.Second

// Entry is the public metadata resolved for one content hash.
// Lifetime is one resolution call — it is copied into the history record.
type Entry struct {
	// BSRCode is the catalog's public share code, "none" when unresolved.
	BSRCode string

	// CoverURL is the first available cover image URL, possibly empty.
	CoverURL string
}

// notFound is the sentinel returned for any lookup that does not produce
// usable metadata: catalog miss, network failure, timeout, bad response.
var notFound = Entry{BSRCode: "none", CoverURL: ""}

// mapResponse mirrors the subset of the catalog's map document we consume.
type mapResponse struct {
	ID       string `json:"id"`
	Versions []struct {
		CoverURL string `json:"coverURL"`
	} `json:"versions"`
}

// Resolver looks up beatmap metadata from the remote catalog service.
type Resolver struct {
	base   string
	client *http.Client
}

// New creates a Resolver against the catalog at base. A non-positive timeout
// falls back to the 5s default.
func New(base string, timeout time.Duration) *Resolver {
	if timeout <= 0 {
		timeout = defaultLookupTimeout
	}
	return &Resolver{
		base:   strings.TrimRight(base, "/"),
		client: &http.Client{Timeout: timeout},
	}
}

// Resolve performs one catalog lookup for hash. It never fails: any error —
// not-found, connectivity, timeout, malformed body — degrades to the
// not-found sentinel, because a song-start event is worth recording even
// without public metadata.
func (r *Resolver) Resolve(ctx context.Context, hash string) Entry {
	lookupURL := fmt.Sprintf("%s/maps/hash/%s", r.base, url.PathEscape(hash))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
	if err != nil {
		slog.Warn("catalog: build request failed", "hash", hash, "err", err)
		return notFound
	}

	resp, err := r.client.Do(req)
	if err != nil {
		slog.Warn("catalog: lookup failed", "hash", hash, "err", err)
		return notFound
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		slog.Debug("catalog: no match", "hash", hash)
		return notFound
	}
	if resp.StatusCode != http.StatusOK {
		slog.Warn("catalog: unexpected status", "hash", hash, "status", resp.StatusCode)
		return notFound
	}

	var doc mapResponse
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		slog.Warn("catalog: decode response failed", "hash", hash, "err", err)
		return notFound
	}
	if doc.ID == "" {
		return notFound
	}

	cover := ""
	if len(doc.Versions) > 0 {
		cover = doc.Versions[0].CoverURL
	}
	return Entry{BSRCode: doc.ID, CoverURL: cover}
}
