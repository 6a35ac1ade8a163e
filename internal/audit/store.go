// Package audit records one-time outbound messages so redirects and
// follow-ups are sent at most once per subject.
package audit

import (
	"context"
	"sync"
	"time"
)

// Message kinds tracked by the audit log.
const (
	KindRedirect = "redirect"
	KindFollowup = "followup"
)

// Store is the idempotency ledger for one-time sends. Entries are created
// once and never mutated; readers only check existence.
type Store interface {
	// AlreadySent reports whether an entry exists for (subject, kind).
	AlreadySent(ctx context.Context, subject, kind string) (bool, error)

	// MarkSent inserts the entry, returning false if it already existed.
	MarkSent(ctx context.Context, subject, kind string) (bool, error)
}

// InMemoryStore keeps audit entries in a map. Used in tests.
type InMemoryStore struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

// NewInMemoryStore creates an empty in-memory audit store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[string]time.Time)}
}

// AlreadySent checks for an existing entry.
func (s *InMemoryStore) AlreadySent(ctx context.Context, subject, kind string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[subject+"|"+kind]
	return ok, nil
}

// MarkSent inserts the entry if absent.
func (s *InMemoryStore) MarkSent(ctx context.Context, subject, kind string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := subject + "|" + kind
	if _, ok := s.entries[key]; ok {
		return false, nil
	}
	s.entries[key] = time.Now().UTC()
	return true, nil
}
