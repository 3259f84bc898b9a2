// Package cache provides TTL-based snapshot stores keyed by request fingerprints.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTTL is returned by Put when ttl is not positive
var ErrInvalidTTL = errors.New("cache ttl must be positive")

// Store memoizes computed snapshots with an expiry.
//
// A lookup at or after an entry's expiry is a miss, and the stale entry is
// removed on that lookup. Sweep evicts expired entries in bulk but is never
// required for correctness.
type Store interface {
	// Get returns the stored value and true on a hit. A miss is not an error.
	Get(ctx context.Context, key string) (any, bool, error)
	// Put inserts or overwrites key, expiring after ttl.
	Put(ctx context.Context, key string, value any, ttl time.Duration) error
	// Delete removes key if present.
	Delete(ctx context.Context, key string) error
	// Sweep removes every entry that expired before now and returns how many were removed.
	Sweep(ctx context.Context, now time.Time) (int, error)
	// Size returns the number of stored entries, expired ones included until evicted.
	Size(ctx context.Context) (int64, error)
	// Close releases resources held by the store.
	Close() error
}

// Lookup fetches key and returns it as T.
//
// In-process stores hand back the stored value itself. Stores that go
// through a wire format return json.RawMessage, which is decoded into T.
func Lookup[T any](ctx context.Context, s Store, key string) (T, bool, error) {
	var zero T
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return zero, false, err
	}

	switch v := raw.(type) {
	case T:
		return v, true, nil
	case json.RawMessage:
		var out T
		if err := json.Unmarshal(v, &out); err != nil {
			return zero, false, fmt.Errorf("failed to decode cached value for %s: %w", key, err)
		}
		return out, true, nil
	default:
		return zero, false, fmt.Errorf("cached value for %s has unexpected type %T", key, raw)
	}
}
