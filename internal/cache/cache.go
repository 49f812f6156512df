// Package cache keeps the last successful provider payload per
// (symbol, timeframe) key with a short TTL, so dashboard polling does
// not burn upstream rate budget.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/BuzzScud/ALGO3D-sub004/internal/kvstore"
	"github.com/BuzzScud/ALGO3D-sub004/internal/model"
)

const (
	// DefaultChartTTL covers all chart timeframes (15MIN through 1D).
	DefaultChartTTL = 30 * time.Second
	// DefaultQuoteTTL covers latest-quote payloads.
	DefaultQuoteTTL = 60 * time.Second
)

// entry wraps a cached payload with its storage time.
type entry struct {
	Payload  json.RawMessage `json:"payload"`
	StoredAt int64           `json:"storedAt"` // epoch ms
}

// successProbe reads just the success flag out of a stored payload.
type successProbe struct {
	Success bool `json:"success"`
}

// Cache is a TTL-keyed payload store. Only success=true payloads are
// ever written, so a valid read is always a previously good response.
type Cache struct {
	store    kvstore.Store
	chartTTL time.Duration
	quoteTTL time.Duration

	// now is swappable for TTL tests.
	now func() time.Time
}

// New builds a cache over the store, applying default TTLs for
// non-positive values.
func New(store kvstore.Store, chartTTL, quoteTTL time.Duration) *Cache {
	if chartTTL <= 0 {
		chartTTL = DefaultChartTTL
	}
	if quoteTTL <= 0 {
		quoteTTL = DefaultQuoteTTL
	}
	return &Cache{store: store, chartTTL: chartTTL, quoteTTL: quoteTTL, now: time.Now}
}

func chartKey(symbol string, tf model.Timeframe) string {
	return fmt.Sprintf("cache:chart:%s:%s", symbol, tf)
}

func quoteKey(symbol string) string {
	return "cache:quote:" + symbol
}

// GetChart returns a still-fresh chart payload, if any.
func (c *Cache) GetChart(ctx context.Context, symbol string, tf model.Timeframe) (json.RawMessage, bool) {
	return c.get(ctx, chartKey(symbol, tf), c.chartTTL)
}

// SetChart stores a chart payload. Non-success payloads are dropped.
func (c *Cache) SetChart(ctx context.Context, symbol string, tf model.Timeframe, payload json.RawMessage) error {
	return c.set(ctx, chartKey(symbol, tf), payload, c.chartTTL)
}

// GetQuote returns a still-fresh quote payload, if any.
func (c *Cache) GetQuote(ctx context.Context, symbol string) (json.RawMessage, bool) {
	return c.get(ctx, quoteKey(symbol), c.quoteTTL)
}

// SetQuote stores a quote payload. Non-success payloads are dropped.
func (c *Cache) SetQuote(ctx context.Context, symbol string, payload json.RawMessage) error {
	return c.set(ctx, quoteKey(symbol), payload, c.quoteTTL)
}

// get treats every failure mode (store error, corrupt entry, stale
// entry, non-success payload) as a plain miss.
func (c *Cache) get(ctx context.Context, key string, ttl time.Duration) (json.RawMessage, bool) {
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil || !ok {
		return nil, false
	}
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, false
	}
	if c.now().UnixMilli()-e.StoredAt >= ttl.Milliseconds() {
		return nil, false
	}
	var probe successProbe
	if err := json.Unmarshal(e.Payload, &probe); err != nil || !probe.Success {
		return nil, false
	}
	return e.Payload, true
}

func (c *Cache) set(ctx context.Context, key string, payload json.RawMessage, ttl time.Duration) error {
	var probe successProbe
	if err := json.Unmarshal(payload, &probe); err != nil {
		return fmt.Errorf("cache encode probe: %w", err)
	}
	if !probe.Success {
		// Failed responses are never cached.
		return nil
	}
	buf, err := json.Marshal(entry{Payload: payload, StoredAt: c.now().UnixMilli()})
	if err != nil {
		return fmt.Errorf("cache encode entry: %w", err)
	}
	return c.store.Set(ctx, key, buf, ttl)
}
