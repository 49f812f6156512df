package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/BuzzScud/ALGO3D-sub004/internal/kvstore"
)

func newTestLimiter(t *testing.T) (*Limiter, *time.Time) {
	t.Helper()
	now := time.Date(2025, 3, 10, 12, 0, 5, 0, time.UTC)
	l := New(kvstore.NewMemory())
	l.now = func() time.Time { return now }
	return l, &now
}

func TestLimiter_SixtyAllowedSixtyFirstDenied(t *testing.T) {
	t.Parallel()

	l, _ := newTestLimiter(t)
	ctx := t.Context()

	for i := 0; i < 60; i++ {
		ok, err := l.Allow(ctx, "finnhub", 60)
		require.NoError(t, err)
		require.Truef(t, ok, "call %d should be allowed", i+1)
		require.NoError(t, l.RecordCall(ctx, "finnhub"))
	}

	ok, err := l.Allow(ctx, "finnhub", 60)
	require.NoError(t, err)
	require.False(t, ok, "call 61 in the same window must be denied")
}

func TestLimiter_WindowRollover(t *testing.T) {
	t.Parallel()

	l, now := newTestLimiter(t)
	ctx := t.Context()

	for i := 0; i < 5; i++ {
		require.NoError(t, l.RecordCall(ctx, "yahoo"))
	}
	ok, err := l.Allow(ctx, "yahoo", 5)
	require.NoError(t, err)
	require.False(t, ok)

	// Next minute: the stored counter is stale and reads as zero.
	*now = now.Add(time.Minute)
	ok, err = l.Allow(ctx, "yahoo", 5)
	require.NoError(t, err)
	require.True(t, ok)

	// The first record in the new window resets, not increments.
	require.NoError(t, l.RecordCall(ctx, "yahoo"))
	for i := 0; i < 4; i++ {
		ok, err = l.Allow(ctx, "yahoo", 5)
		require.NoError(t, err)
		require.True(t, ok)
		require.NoError(t, l.RecordCall(ctx, "yahoo"))
	}
	ok, err = l.Allow(ctx, "yahoo", 5)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestLimiter_ProvidersAreIndependent(t *testing.T) {
	t.Parallel()

	l, _ := newTestLimiter(t)
	ctx := t.Context()

	require.NoError(t, l.RecordCall(ctx, "finnhub"))
	require.NoError(t, l.RecordCall(ctx, "finnhub"))

	ok, err := l.Allow(ctx, "finnhub", 2)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = l.Allow(ctx, "yahoo", 2)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestLimiter_ZeroLimitMeansUnlimited(t *testing.T) {
	t.Parallel()

	l, _ := newTestLimiter(t)
	ctx := t.Context()

	for i := 0; i < 100; i++ {
		require.NoError(t, l.RecordCall(ctx, "custom"))
	}
	ok, err := l.Allow(ctx, "custom", 0)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestLimiter_CorruptCounterReadsAsFresh(t *testing.T) {
	t.Parallel()

	store := kvstore.NewMemory()
	l := New(store)
	ctx := t.Context()

	require.NoError(t, store.Set(ctx, "ratelimit:finnhub", []byte("{not json"), 0))
	ok, err := l.Allow(ctx, "finnhub", 1)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, l.RecordCall(ctx, "finnhub"))
	ok, err = l.Allow(ctx, "finnhub", 1)
	require.NoError(t, err)
	require.False(t, ok)
}
