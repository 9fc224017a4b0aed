package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// SessionStore holds the viewer session between page loads (persistent) or
// for a single tab. The dashboard reads it and clears it on logout; writing a
// fresh session is the login flow's job.
type SessionStore interface {
	Load(ctx context.Context) (Session, bool, error)
	Save(ctx context.Context, session Session) error
	Clear(ctx context.Context) error
}

// InMemorySessionStore is a concurrency-safe store, used per tab and in tests.
type InMemorySessionStore struct {
	mu      sync.RWMutex
	session *Session
}

// NewInMemorySessionStore creates a store, optionally seeded with a session.
func NewInMemorySessionStore(seed ...Session) *InMemorySessionStore {
	store := &InMemorySessionStore{}
	if len(seed) > 0 {
		s := seed[0]
		store.session = &s
	}
	return store
}

// Load returns the stored session if one exists.
func (s *InMemorySessionStore) Load(_ context.Context) (Session, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil {
		return Session{}, false, nil
	}
	return *s.session, true, nil
}

// Save replaces the stored session.
func (s *InMemorySessionStore) Save(_ context.Context, session Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = &session
	return nil
}

// Clear drops the stored session.
func (s *InMemorySessionStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = nil
	return nil
}

const sessionFileMode = 0o600

// FileSessionStore persists the session as JSON on disk.
type FileSessionStore struct {
	path string
	mu   sync.RWMutex
}

// NewFileSessionStore builds a store rooted at path.
func NewFileSessionStore(path string) *FileSessionStore {
	return &FileSessionStore{path: filepath.Clean(path)}
}

// Load reads the session file. A missing file is not an error.
func (s *FileSessionStore) Load(ctx context.Context) (Session, bool, error) {
	if err := ctx.Err(); err != nil {
		return Session{}, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Session{}, false, nil
		}
		return Session{}, false, fmt.Errorf("dashboard: read session %s: %w", s.path, err)
	}
	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return Session{}, false, fmt.Errorf("dashboard: decode session %s: %w", s.path, err)
	}
	return session, true, nil
}

// Save writes the session file with owner-only permissions.
func (s *FileSessionStore) Save(ctx context.Context, session Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("dashboard: encode session: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("dashboard: create session dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, sessionFileMode); err != nil {
		return fmt.Errorf("dashboard: write session %s: %w", s.path, err)
	}
	return nil
}

// Clear removes the session file.
func (s *FileSessionStore) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("dashboard: remove session %s: %w", s.path, err)
	}
	return nil
}

// LayeredSessionStore reads the per-tab store first and falls back to the
// persistent one. Clear wipes both so logout never leaves a credential behind.
type LayeredSessionStore struct {
	tab        SessionStore
	persistent SessionStore
}

// NewLayeredSessionStore combines a per-tab and a persistent store.
func NewLayeredSessionStore(tab, persistent SessionStore) *LayeredSessionStore {
	return &LayeredSessionStore{tab: tab, persistent: persistent}
}

// Load returns the first session found.
func (s *LayeredSessionStore) Load(ctx context.Context) (Session, bool, error) {
	for _, store := range s.stores() {
		session, ok, err := store.Load(ctx)
		if err != nil {
			return Session{}, false, err
		}
		if ok {
			return session, true, nil
		}
	}
	return Session{}, false, nil
}

// Save writes to the persistent store when present, else the tab store.
func (s *LayeredSessionStore) Save(ctx context.Context, session Session) error {
	if s.persistent != nil {
		return s.persistent.Save(ctx, session)
	}
	if s.tab != nil {
		return s.tab.Save(ctx, session)
	}
	return errMissingStore
}

// Clear wipes every layer and joins their failures.
func (s *LayeredSessionStore) Clear(ctx context.Context) error {
	var clearErr error
	for _, store := range s.stores() {
		if err := store.Clear(ctx); err != nil {
			clearErr = errors.Join(clearErr, err)
		}
	}
	return clearErr
}

func (s *LayeredSessionStore) stores() []SessionStore {
	out := make([]SessionStore, 0, 2)
	if s.tab != nil {
		out = append(out, s.tab)
	}
	if s.persistent != nil {
		out = append(out, s.persistent)
	}
	return out
}
