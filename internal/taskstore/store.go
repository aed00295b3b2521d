// Package taskstore keeps analysis results for a bounded time so they can be
// downloaded later.
package taskstore

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned for keys that were never stored, were deleted or have expired.
	ErrNotFound = errors.New("task not found")
	// ErrUnavailable wraps failures to reach the backing store.
	ErrUnavailable = errors.New("task store unavailable")
)

// Store is a key-value store with per-entry expiry. Each operation is atomic
// for a single key; there are no cross-key guarantees.
type Store interface {
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
}
