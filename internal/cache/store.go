package cache

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Entry is the cached form of one response. Body holds the raw JSON
// response, the {"error":{"message":...}} object recorded for a failure,
// or null when a successful response could not be decoded.
type Entry struct {
	StatusCode int             `json:"status_code"`
	Bytes      int             `json:"bytes"`
	Body       json.RawMessage `json:"body"`
}

// HasBody reports whether the entry carries a JSON document.
func (e Entry) HasBody() bool {
	trimmed := bytes.TrimSpace(e.Body)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// FetchFunc performs the uncached request. Transport and decode failures
// belong in the returned Entry and are cached like successes; a non-nil
// error aborts the lookup and nothing is stored.
type FetchFunc func() (Entry, error)

// Store is a read-through cache of response entries keyed by request
// fingerprint. A nil backend disables caching.
type Store struct {
	backend Cache
}

// NewStore wraps backend. Pass nil to disable caching.
func NewStore(backend Cache) *Store {
	return &Store{backend: backend}
}

// Enabled reports whether a backend is configured.
func (s *Store) Enabled() bool {
	return s != nil && s.backend != nil
}

// GetOrFetch returns the cached entry for key, or calls fetch and stores
// its result before returning it. Error entries are cached like any other
// and are returned on every later lookup. A returned error either comes
// from fetch, in which case the entry is empty, or reports a failed cache
// write, in which case the entry is still valid.
func (s *Store) GetOrFetch(key string, fetch FetchFunc) (Entry, bool, error) {
	if !s.Enabled() {
		entry, err := fetch()
		return entry, false, err
	}

	if data, found := s.backend.Get(key); found {
		var entry Entry
		if err := json.Unmarshal(data, &entry); err == nil {
			return entry, true, nil
		}
		// An unreadable entry can never be replaced, so serve it as an
		// undecodable response rather than refetching forever.
		return Entry{StatusCode: 0, Bytes: len(data)}, true, nil
	}

	entry, err := fetch()
	if err != nil {
		return Entry{}, false, err
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return entry, false, fmt.Errorf("marshal entry: %w", err)
	}
	if err := s.backend.Set(key, data); err != nil {
		return entry, false, fmt.Errorf("store entry: %w", err)
	}
	return entry, false, nil
}
