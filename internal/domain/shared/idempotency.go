package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers client-supplied idempotency keys together with
// the identifier of the resource the first request produced.
type IdempotencyStore interface {
	// Reserve stores value under key if the key is unused.
	// It returns reserved=true when this call won the key; otherwise it returns
	// the value stored by the earlier request.
	Reserve(ctx context.Context, key, value string, ttl time.Duration) (stored string, reserved bool, err error)

	// Release forgets a key, used when the guarded operation failed
	Release(ctx context.Context, key string) error

	// Close closes the store and releases resources
	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL is how long a key is remembered
	TTL time.Duration

	// Enabled determines whether idempotency checking is enabled
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
