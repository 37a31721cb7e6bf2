// Package session holds the credentials and the session token of a client.
//
// A Session starts unauthenticated and becomes authenticated once a token is
// set. The token is the only state that changes while requests are in
// flight; it is guarded by a RWMutex so any number of requests can read it
// while a login or logout replaces it. Clients that share a *Session share
// one login.
package session

import (
	"context"
	"sync"
	"time"
)

// Credentials identify an account. Either both fields are set or neither.
type Credentials struct {
	Identifier string
	Secret     string
}

// Complete reports whether both fields are set
func (c Credentials) Complete() bool {
	return c.Identifier != "" && c.Secret != ""
}

// Empty reports whether neither field is set
func (c Credentials) Empty() bool {
	return c.Identifier == "" && c.Secret == ""
}

// Session is the credentials and token cell of a client
type Session struct {
	mu    sync.RWMutex
	creds Credentials
	token string

	store Store
	ttl   time.Duration
}

// Option configures a Session
type Option func(*Session)

// WithStore persists tokens in store
func WithStore(store Store) Option {
	return func(s *Session) {
		s.store = store
	}
}

// WithTokenTTL sets the TTL of persisted tokens
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Session) {
		s.ttl = ttl
	}
}

// New creates an unauthenticated session
func New(creds Credentials, opts ...Option) *Session {
	s := &Session{creds: creds}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Credentials returns the stored credentials
func (s *Session) Credentials() Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds
}

// Token returns the current token, "" when unauthenticated
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Authenticated reports whether a token is held
func (s *Session) Authenticated() bool {
	return s.Token() != ""
}

// Authenticate stores creds and token together and saves the token to the
// store, if any
func (s *Session) Authenticate(ctx context.Context, creds Credentials, token string) error {
	s.mu.Lock()
	s.creds = creds
	s.token = token
	store, ttl := s.store, s.ttl
	s.mu.Unlock()

	if store == nil || creds.Identifier == "" {
		return nil
	}
	return store.Set(ctx, creds.Identifier, token, ttl)
}

// SetCredentials replaces the credentials and drops the token
func (s *Session) SetCredentials(creds Credentials) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = creds
	s.token = ""
}

// Clear drops the token and removes it from the store
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	identifier := s.creds.Identifier
	s.token = ""
	store := s.store
	s.mu.Unlock()

	if store == nil || identifier == "" {
		return nil
	}
	return store.Delete(ctx, identifier)
}

// Restore loads a previously saved token for the stored identifier. It
// reports false when there is no store or nothing was saved.
func (s *Session) Restore(ctx context.Context) (bool, error) {
	s.mu.RLock()
	identifier := s.creds.Identifier
	store := s.store
	s.mu.RUnlock()

	if store == nil || identifier == "" {
		return false, nil
	}
	token, err := store.Get(ctx, identifier)
	if err != nil {
		if IsTokenMiss(err) {
			return false, nil
		}
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.creds.Identifier != identifier {
		return false, nil
	}
	s.token = token
	return true, nil
}
