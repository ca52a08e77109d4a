package history

import "sync"

// Record is one normalized, immutable entry describing a single played item.
// Field names on the wire match what the overlay's display surface expects.
type Record struct {
	// MapName is the human-readable composed title (title + author + mapper).
	MapName string `json:"mapName"`

	// MapHash is the content hash of the played item. It identifies the item
	// uniquely but is not enforced as a key — repeated plays append repeated
	// records.
	MapHash string `json:"mapHash"`

	// BSRCode is the catalog's public share code, "none" when the catalog
	// had no match for the hash.
	BSRCode string `json:"bsrCode"`

	// CoverURL is the cover image URL, possibly empty.
	CoverURL string `json:"coverUrl"`

	// Timestamp is the record creation time in milliseconds since epoch.
	Timestamp int64 `json:"timestamp"`
}

// Store is a thread-safe in-memory history log, keyed by owner. Each owner's
// records form an independent append-only sequence; records are never edited
// in place and only leave the store through ClearAll.
type Store struct {
	mu sync.RWMutex

	// data holds each owner's records oldest-first so Append stays O(1)
	// amortized. List reverses into most-recent-first order on read.
	data map[string][]Record

	onChange func(owner string) // optional, see SetOnChange
}

// New creates an empty Store.
func New() *Store {
	return &Store{data: make(map[string][]Record)}
}

// SetOnChange registers a hook invoked (outside the store lock) after every
// Append and ClearAll, with the affected owner. Used by the websocket hub to
// push live updates. Must be called before the store is shared.
func (s *Store) SetOnChange(fn func(owner string)) {
	s.onChange = fn
}

// Append adds rec to owner's sequence. The insert is all-or-nothing:
// readers never observe a partially written record.
func (s *Store) Append(owner string, rec Record) {
	s.mu.Lock()
	s.data[owner] = append(s.data[owner], rec)
	s.mu.Unlock()

	if s.onChange != nil {
		s.onChange(owner)
	}
}

// List returns a copy of owner's records, most-recent-first. Unknown owners
// yield an empty (non-nil) slice. The result is stable across repeated calls
// with no intervening Append.
func (s *Store) List(owner string) []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seq := s.data[owner]
	out := make([]Record, len(seq))
	for i, rec := range seq {
		out[len(seq)-1-i] = rec
	}
	return out
}

// ClearAll removes every record for owner. Clearing an unknown or
// already-empty owner is a silent no-op.
func (s *Store) ClearAll(owner string) {
	s.mu.Lock()
	delete(s.data, owner)
	s.mu.Unlock()

	if s.onChange != nil {
		s.onChange(owner)
	}
}

// Len returns the number of records held for owner.
func (s *Store) Len(owner string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data[owner])
}

// Count returns the total number of records across all owners.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, seq := range s.data {
		total += len(seq)
	}
	return total
}
