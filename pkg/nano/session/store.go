package session

import (
	"context"
	"errors"
	"time"
)

// Store persists session tokens between client instances, keyed by the
// account identifier
type Store interface {
	// Get returns the token saved for identifier
	Get(ctx context.Context, identifier string) (string, error)

	// Set saves a token with a TTL; zero selects the store default
	Set(ctx context.Context, identifier, token string, ttl time.Duration) error

	// Delete forgets the token for identifier
	Delete(ctx context.Context, identifier string) error
}

// StoreConfig holds common configuration for token stores
type StoreConfig struct {
	// DefaultTTL is how long a saved token is kept
	DefaultTTL time.Duration
	// Prefix is prepended to every key
	Prefix string
}

// DefaultStoreConfig returns the default token store configuration
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		DefaultTTL: 24 * time.Hour,
		Prefix:     "nanowrimo:session:",
	}
}

// ErrTokenMiss is returned when no token is saved for an identifier
type ErrTokenMiss struct {
	Identifier string
}

func (e ErrTokenMiss) Error() string {
	return "no saved token for " + e.Identifier
}

// IsTokenMiss checks if an error is a token miss
func IsTokenMiss(err error) bool {
	var miss ErrTokenMiss
	return errors.As(err, &miss)
}
