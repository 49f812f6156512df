// Package ratelimit enforces per-provider, per-minute call budgets
// with a fixed window. Bursts at window boundaries are an accepted
// property of the fixed window, not something to smooth over.
package ratelimit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/BuzzScud/ALGO3D-sub004/internal/kvstore"
)

// counter is the stored per-provider record. Count belongs to Window;
// a stale Window means the counter reads as zero.
type counter struct {
	Window int64 `json:"window"`
	Count  int   `json:"count"`
}

// counterTTL keeps dead windows from accumulating in the store.
const counterTTL = 2 * time.Minute

// Limiter tracks fixed one-minute windows per provider id.
type Limiter struct {
	store kvstore.Store

	// now is swappable for window tests.
	now func() time.Time
}

// New returns a limiter over the given store.
func New(store kvstore.Store) *Limiter {
	return &Limiter{store: store, now: time.Now}
}

func key(provider string) string { return "ratelimit:" + provider }

func (l *Limiter) window() int64 { return l.now().Unix() / 60 }

// Allow reports whether the provider is under its per-minute limit in
// the current window. It does not consume budget; RecordCall does.
func (l *Limiter) Allow(ctx context.Context, provider string, limit int) (bool, error) {
	if limit <= 0 {
		return true, nil
	}
	raw, ok, err := l.store.Get(ctx, key(provider))
	if err != nil {
		return false, fmt.Errorf("ratelimit read %s: %w", provider, err)
	}
	if !ok {
		return true, nil
	}
	var c counter
	if err := json.Unmarshal(raw, &c); err != nil {
		// Corrupt counter reads as a fresh window.
		return true, nil
	}
	if c.Window != l.window() {
		return true, nil
	}
	return c.Count < limit, nil
}

// RecordCall counts one attempted upstream call against the current
// window, creating or resetting the counter as needed. Cache hits must
// not be recorded. The CAS loop makes concurrent increments lose no
// updates.
func (l *Limiter) RecordCall(ctx context.Context, provider string) error {
	k := key(provider)
	window := l.window()
	for {
		raw, ok, err := l.store.Get(ctx, k)
		if err != nil {
			return fmt.Errorf("ratelimit read %s: %w", provider, err)
		}

		next := counter{Window: window, Count: 1}
		var old []byte
		if ok {
			old = raw
			var c counter
			if err := json.Unmarshal(raw, &c); err == nil && c.Window == window {
				next.Count = c.Count + 1
			}
		}

		buf, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("ratelimit encode %s: %w", provider, err)
		}
		swapped, err := l.store.CompareAndSwap(ctx, k, old, buf, counterTTL)
		if err != nil {
			return fmt.Errorf("ratelimit swap %s: %w", provider, err)
		}
		if swapped {
			return nil
		}
	}
}
