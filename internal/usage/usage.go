// Package usage tracks per-provider call outcomes and response times
// for the dashboard's observability panel, and periodically snapshots
// them to the database.
package usage

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/BuzzScud/ALGO3D-sub004/internal/kvstore"
)

const (
	maxRecentResponseTimes = 100
	maxRecentErrors        = 10
)

// Record is the stored per-provider state. Derived figures (success
// rate, average response time) are computed on read, never stored.
type Record struct {
	TotalCalls          int64    `json:"totalCalls"`
	SuccessCalls        int64    `json:"successCalls"`
	ErrorCalls          int64    `json:"errorCalls"`
	TotalResponseTimeMs int64    `json:"totalResponseTimeMs"`
	RecentResponseTimes []int64  `json:"recentResponseTimes"`
	RecentErrors        []string `json:"recentErrors"`
	LastUsed            int64    `json:"lastUsed"` // epoch ms
}

// Stats is the read model exposed on /api/usage.
type Stats struct {
	Provider          string   `json:"provider"`
	TotalCalls        int64    `json:"totalCalls"`
	SuccessCalls      int64    `json:"successCalls"`
	ErrorCalls        int64    `json:"errorCalls"`
	SuccessRate       float64  `json:"successRate"`
	AvgResponseTimeMs float64  `json:"avgResponseTimeMs"`
	RecentErrors      []string `json:"recentErrors"`
	LastUsed          int64    `json:"lastUsed"`
}

// Tracker records call outcomes in the shared store, one update per
// attempted upstream call. The provider-name set lives in memory; the
// counters live in the kv store so replicas share them.
type Tracker struct {
	store kvstore.Store
	log   *logrus.Logger

	mu        sync.Mutex
	providers map[string]struct{}

	now func() time.Time
}

// NewTracker builds a tracker over the store.
func NewTracker(store kvstore.Store, log *logrus.Logger) *Tracker {
	return &Tracker{
		store:     store,
		log:       log,
		providers: make(map[string]struct{}),
		now:       time.Now,
	}
}

func key(provider string) string { return "usage:" + provider }

// Record registers one attempted call, success or failure. Tracking is
// best-effort: a store failure is logged, never surfaced to the fetch
// path.
func (t *Tracker) Record(ctx context.Context, provider string, success bool, elapsed time.Duration, errText string) {
	t.mu.Lock()
	t.providers[provider] = struct{}{}
	t.mu.Unlock()

	elapsedMs := elapsed.Milliseconds()
	nowMs := t.now().UnixMilli()
	k := key(provider)

	for attempt := 0; attempt < 5; attempt++ {
		raw, ok, err := t.store.Get(ctx, k)
		if err != nil {
			t.log.WithField("provider", provider).Warnf("usage read failed: %v", err)
			return
		}

		var rec Record
		var old []byte
		if ok {
			old = raw
			if err := json.Unmarshal(raw, &rec); err != nil {
				// Corrupt record: start over rather than fail the call path.
				rec = Record{}
			}
		}

		rec.TotalCalls++
		if success {
			rec.SuccessCalls++
		} else {
			rec.ErrorCalls++
			if errText != "" {
				rec.RecentErrors = append(rec.RecentErrors, errText)
				if n := len(rec.RecentErrors); n > maxRecentErrors {
					rec.RecentErrors = rec.RecentErrors[n-maxRecentErrors:]
				}
			}
		}
		rec.TotalResponseTimeMs += elapsedMs
		rec.RecentResponseTimes = append(rec.RecentResponseTimes, elapsedMs)
		if n := len(rec.RecentResponseTimes); n > maxRecentResponseTimes {
			rec.RecentResponseTimes = rec.RecentResponseTimes[n-maxRecentResponseTimes:]
		}
		rec.LastUsed = nowMs

		buf, err := json.Marshal(rec)
		if err != nil {
			t.log.WithField("provider", provider).Warnf("usage encode failed: %v", err)
			return
		}
		swapped, err := t.store.CompareAndSwap(ctx, k, old, buf, 0)
		if err != nil {
			t.log.WithField("provider", provider).Warnf("usage swap failed: %v", err)
			return
		}
		if swapped {
			return
		}
	}
	t.log.WithField("provider", provider).Warn("usage update dropped after contention retries")
}

// Stats derives the read model for every provider seen so far, sorted
// by provider name.
func (t *Tracker) Stats(ctx context.Context) []Stats {
	t.mu.Lock()
	names := make([]string, 0, len(t.providers))
	for name := range t.providers {
		names = append(names, name)
	}
	t.mu.Unlock()
	sort.Strings(names)

	out := make([]Stats, 0, len(names))
	for _, name := range names {
		rec, ok := t.load(ctx, name)
		if !ok {
			continue
		}
		out = append(out, derive(name, rec))
	}
	return out
}

func (t *Tracker) load(ctx context.Context, provider string) (Record, bool) {
	raw, ok, err := t.store.Get(ctx, key(provider))
	if err != nil || !ok {
		return Record{}, false
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record{}, false
	}
	return rec, true
}

func derive(provider string, rec Record) Stats {
	s := Stats{
		Provider:     provider,
		TotalCalls:   rec.TotalCalls,
		SuccessCalls: rec.SuccessCalls,
		ErrorCalls:   rec.ErrorCalls,
		RecentErrors: rec.RecentErrors,
		LastUsed:     rec.LastUsed,
	}
	if rec.TotalCalls > 0 {
		s.SuccessRate = float64(rec.SuccessCalls) / float64(rec.TotalCalls) * 100
	}
	if len(rec.RecentResponseTimes) > 0 {
		var sum int64
		for _, v := range rec.RecentResponseTimes {
			sum += v
		}
		s.AvgResponseTimeMs = float64(sum) / float64(len(rec.RecentResponseTimes))
	}
	return s
}

// Snapshots converts the current stats into persistence rows for the
// given minute bucket.
func (t *Tracker) Snapshots(ctx context.Context, minute time.Time) []Snapshot {
	stats := t.Stats(ctx)
	bucket := minute.Unix() / 60 * 60
	rows := make([]Snapshot, 0, len(stats))
	for _, s := range stats {
		rows = append(rows, Snapshot{
			Provider:          s.Provider,
			MinuteBucket:      bucket,
			TotalCalls:        s.TotalCalls,
			SuccessCalls:      s.SuccessCalls,
			ErrorCalls:        s.ErrorCalls,
			SuccessRate:       s.SuccessRate,
			AvgResponseTimeMs: s.AvgResponseTimeMs,
			LastUsed:          s.LastUsed,
		})
	}
	return rows
}
