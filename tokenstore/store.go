// Package tokenstore caches MediaWiki action tokens by kind. A store holds at
// most one value per kind; a missing entry means the token must be fetched
// before use. Stores are owned by a single client instance and are never
// shared process-wide.
package tokenstore

import (
	"context"
	"errors"
	"sync"
)

// ErrStoreUnavailable is returned when a backing store cannot be reached.
// The in-memory store never returns it.
var ErrStoreUnavailable = errors.New("token store unavailable")

// Kind names a category of anti-CSRF action token issued by the API.
type Kind string

const (
	// KindCSRF authorizes most state-changing actions (edit, move, delete).
	KindCSRF Kind = "csrf"
	// KindLogin authorizes action=login.
	KindLogin Kind = "login"
	// KindPatrol authorizes patrolling recent changes.
	KindPatrol Kind = "patrol"
	// KindRollback authorizes rollback of consecutive edits.
	KindRollback Kind = "rollback"
	// KindWatch authorizes watchlist changes.
	KindWatch Kind = "watch"
	// KindCreateAccount authorizes account creation.
	KindCreateAccount Kind = "createaccount"
	// KindUserRights authorizes user group changes.
	KindUserRights Kind = "userrights"
)

// Valid reports whether k is one of the known token kinds. Unknown kinds are
// still storable; this only backs input validation at the API surface.
func (k Kind) Valid() bool {
	switch k {
	case KindCSRF, KindLogin, KindPatrol, KindRollback, KindWatch,
		KindCreateAccount, KindUserRights:
		return true
	}
	return false
}

// Store is the token cache consulted before every token-gated request.
//
// Get returns the cached value and whether one exists. Set overwrites any
// previous value for the kind. Invalidate removes the entry and is
// idempotent. Clear drops every entry (used on logout).
type Store interface {
	Get(ctx context.Context, kind Kind) (string, bool, error)
	Set(ctx context.Context, kind Kind, value string) error
	Invalidate(ctx context.Context, kind Kind) error
	Clear(ctx context.Context) error
}

// MemoryStore is the default Store: a mutex-guarded in-process map. The zero
// value is not usable; construct with NewMemoryStore.
type MemoryStore struct {
	mu     sync.RWMutex
	tokens map[Kind]string
}

// NewMemoryStore returns an empty in-memory token store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tokens: make(map[Kind]string)}
}

// Get returns the cached token for kind, if any.
func (s *MemoryStore) Get(_ context.Context, kind Kind) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.tokens[kind]
	return value, ok, nil
}

// Set caches value for kind, replacing any previous entry.
func (s *MemoryStore) Set(_ context.Context, kind Kind, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[kind] = value
	return nil
}

// Invalidate removes the entry for kind. Removing an absent entry is a no-op.
func (s *MemoryStore) Invalidate(_ context.Context, kind Kind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, kind)
	return nil
}

// Clear drops every cached token.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = make(map[Kind]string)
	return nil
}

var _ Store = (*MemoryStore)(nil)
