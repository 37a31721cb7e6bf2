package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps tokens in process memory. Expired entries are dropped
// when they are next read.
type MemoryStore struct {
	mu     sync.Mutex
	items  map[string]storedToken
	config StoreConfig
	now    func() time.Time
}

type storedToken struct {
	token      string
	expiration time.Time
}

// NewMemoryStore creates an in-memory store with the default configuration
func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithConfig(DefaultStoreConfig())
}

// NewMemoryStoreWithConfig creates an in-memory store
func NewMemoryStoreWithConfig(config StoreConfig) *MemoryStore {
	return &MemoryStore{
		items:  make(map[string]storedToken),
		config: config,
		now:    time.Now,
	}
}

// Get returns the saved token for identifier
func (m *MemoryStore) Get(ctx context.Context, identifier string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	key := m.config.Prefix + identifier

	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[key]
	if !ok {
		return "", ErrTokenMiss{Identifier: identifier}
	}
	if !item.expiration.IsZero() && m.now().After(item.expiration) {
		delete(m.items, key)
		return "", ErrTokenMiss{Identifier: identifier}
	}
	return item.token, nil
}

// Set saves token for identifier
func (m *MemoryStore) Set(ctx context.Context, identifier, token string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if ttl == 0 {
		ttl = m.config.DefaultTTL
	}
	item := storedToken{token: token}
	if ttl > 0 {
		item.expiration = m.now().Add(ttl)
	}

	m.mu.Lock()
	m.items[m.config.Prefix+identifier] = item
	m.mu.Unlock()
	return nil
}

// Delete forgets the token for identifier
func (m *MemoryStore) Delete(ctx context.Context, identifier string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	delete(m.items, m.config.Prefix+identifier)
	m.mu.Unlock()
	return nil
}

// Len returns the number of entries, expired ones included
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}
