// Package kvstore abstracts the shared mutable state behind the rate
// limiter, response cache, and usage tracker. Production can run on the
// in-process memory store or on Redis; tests use the memory store.
package kvstore

import (
	"context"
	"time"
)

// Store is a small get/set/compare-and-swap key-value store. Values
// are opaque bytes; callers JSON-encode their own records. A ttl of
// zero means no expiry.
type Store interface {
	// Get returns the value and whether the key exists (expired keys
	// do not exist).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores the value unconditionally.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// CompareAndSwap stores value only when the current value equals
	// old. A nil old means "only when the key is absent". Returns
	// whether the swap happened.
	CompareAndSwap(ctx context.Context, key string, old, value []byte, ttl time.Duration) (bool, error)
}
