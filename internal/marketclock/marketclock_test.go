package marketclock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/BuzzScud/ALGO3D-sub004/internal/model"
)

func TestNormalize_WinterOffset(t *testing.T) {
	t.Parallel()

	c, err := New("America/New_York")
	require.NoError(t, err)

	// 2025-01-15 17:00 UTC: New York is on EST, UTC-5.
	ts := time.Date(2025, 1, 15, 17, 0, 0, 0, time.UTC).UnixMilli()
	got := c.Normalize(ts)
	require.Equal(t, ts-5*3600*1000, got)
}

func TestNormalize_SummerOffset(t *testing.T) {
	t.Parallel()

	c, err := New("America/New_York")
	require.NoError(t, err)

	// 2025-07-15 17:00 UTC: New York is on EDT, UTC-4.
	ts := time.Date(2025, 7, 15, 17, 0, 0, 0, time.UTC).UnixMilli()
	got := c.Normalize(ts)
	require.Equal(t, ts-4*3600*1000, got)
}

func TestNormalize_BakedTimeRendersMarketLocal(t *testing.T) {
	t.Parallel()

	c, err := New("America/New_York")
	require.NoError(t, err)

	// 14:30 UTC on a winter day is 09:30 in New York; the baked value
	// read back as UTC must show 09:30.
	ts := time.Date(2025, 2, 3, 14, 30, 0, 0, time.UTC).UnixMilli()
	baked := time.UnixMilli(c.Normalize(ts)).UTC()
	require.Equal(t, 9, baked.Hour())
	require.Equal(t, 30, baked.Minute())
}

func TestNew_DefaultAndInvalid(t *testing.T) {
	t.Parallel()

	c, err := New("")
	require.NoError(t, err)
	require.NotNil(t, c)

	_, err = New("Not/AZone")
	require.Error(t, err)
}

func TestNormalizeCandles(t *testing.T) {
	t.Parallel()

	c, err := New("America/New_York")
	require.NoError(t, err)

	ts := time.Date(2025, 7, 15, 17, 0, 0, 0, time.UTC).UnixMilli()
	candles := []model.Candle{{Time: ts, Close: 1}, {Time: ts + 60_000, Close: 2}}
	c.NormalizeCandles(candles)
	require.Equal(t, ts-4*3600*1000, candles[0].Time)
	require.Equal(t, ts-4*3600*1000+60_000, candles[1].Time)
}
