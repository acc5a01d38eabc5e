package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Keys under which session state is persisted
const (
	TokenKey    = "directus_token"
	UserDataKey = "user_data"
)

// Backend persists session state across process restarts
type Backend interface {
	Load(ctx context.Context, key string) (string, bool, error)
	Save(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Store holds the current authentication token. It satisfies
// directus.TokenSource and is passed explicitly to every client.
type Store struct {
	// writeMu orders persist-and-assign so memory and backend agree
	writeMu   sync.Mutex
	mu        sync.RWMutex
	token     string
	backend   Backend
	observers []observer
	nextID    int
	logger    zerolog.Logger
}

type observer struct {
	id int
	fn func(token string)
}

// Open creates a store and restores any token persisted in backend
func Open(ctx context.Context, backend Backend, logger zerolog.Logger) (*Store, error) {
	if backend == nil {
		return nil, ErrNoBackend
	}

	s := &Store{
		backend: backend,
		logger:  logger,
	}

	token, ok, err := backend.Load(ctx, TokenKey)
	if err != nil {
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}
	if ok {
		s.token = token
		logger.Debug().Msg("Restored session token")
	}

	return s, nil
}

// Token returns the current token, or "" when unauthenticated
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Authenticated reports whether a token is held
func (s *Store) Authenticated() bool {
	return s.Token() != ""
}

// Set persists token and makes it current
func (s *Store) Set(ctx context.Context, token string) error {
	if token == "" {
		return ErrEmptyToken
	}

	s.writeMu.Lock()
	if err := s.backend.Save(ctx, TokenKey, token); err != nil {
		s.writeMu.Unlock()
		return fmt.Errorf("failed to persist session token: %w", err)
	}
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()
	s.writeMu.Unlock()

	s.notify(token)
	return nil
}

// Clear drops the token and any user_data key left in the backend. The
// in-memory token is cleared even when the backend fails.
func (s *Store) Clear(ctx context.Context) error {
	s.writeMu.Lock()
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()

	var errs []error
	for _, key := range []string{TokenKey, UserDataKey} {
		if err := s.backend.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("failed to delete %s: %w", key, err))
		}
	}
	s.writeMu.Unlock()

	s.notify("")
	if len(errs) > 0 {
		return fmt.Errorf("failed to clear session: %w", errors.Join(errs...))
	}
	return nil
}

// Reload re-reads the token from the backend and notifies observers if it changed
func (s *Store) Reload(ctx context.Context) error {
	s.writeMu.Lock()
	token, _, err := s.backend.Load(ctx, TokenKey)
	if err != nil {
		s.writeMu.Unlock()
		return fmt.Errorf("failed to reload session: %w", err)
	}

	s.mu.Lock()
	changed := token != s.token
	s.token = token
	s.mu.Unlock()
	s.writeMu.Unlock()

	if changed {
		s.logger.Debug().Bool("authenticated", token != "").Msg("Session changed outside this process")
		s.notify(token)
	}
	return nil
}

// Subscribe calls fn with the current token immediately and again after
// every change. Callbacks run on the goroutine that changed the token.
func (s *Store) Subscribe(fn func(token string)) (cancel func()) {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.observers = append(s.observers, observer{id: id, fn: fn})
	current := s.token
	s.mu.Unlock()

	fn(current)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, o := range s.observers {
			if o.id == id {
				s.observers = append(s.observers[:i], s.observers[i+1:]...)
				return
			}
		}
	}
}

// notify dispatches token to a snapshot of observers outside the lock
func (s *Store) notify(token string) {
	s.mu.RLock()
	snapshot := make([]observer, len(s.observers))
	copy(snapshot, s.observers)
	s.mu.RUnlock()

	for _, o := range snapshot {
		o.fn(token)
	}
}
