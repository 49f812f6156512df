package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BuzzScud/ALGO3D-sub004/internal/model"
)

func TestParseTimeframe(t *testing.T) {
	cases := []struct {
		in   string
		want model.Timeframe
	}{
		{"15MIN", model.Timeframe15Min},
		{"1H", model.Timeframe1H},
		{"4H", model.Timeframe4H},
		{"1D", model.Timeframe1D},
		{"1d", model.Timeframe1D},
		{" 4h ", model.Timeframe4H},
		{"", model.Timeframe1D},
		{"junk", model.Timeframe1D},
		{"5MIN", model.Timeframe1D},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, model.ParseTimeframe(tc.in), "input %q", tc.in)
	}
}

func TestNormalizeSymbol(t *testing.T) {
	assert.Equal(t, "AAPL", model.NormalizeSymbol(" aapl "))
	assert.Equal(t, "", model.NormalizeSymbol("   "))
}

func TestComputeStatistics(t *testing.T) {
	candles := []model.Candle{
		{Open: 10, High: 12, Low: 9, Close: 11, Volume: 100},
		{Open: 11, High: 15, Low: 10, Close: 14, Volume: 300},
		{Open: 14, High: 14.5, Low: 8, Close: 13, Volume: 200},
	}

	st := model.ComputeStatistics(candles)

	require.NotNil(t, st)
	assert.Equal(t, 14.0, st.Open, "last candle supplies open")
	assert.Equal(t, 13.0, st.Close)
	assert.Equal(t, 14.5, st.High)
	assert.Equal(t, 8.0, st.Low)
	assert.Equal(t, int64(200), st.Volume)
	assert.Equal(t, int64(200), st.AvgVolume)
	assert.Equal(t, 15.0, st.RangeHigh, "range spans the whole series")
	assert.Equal(t, 8.0, st.RangeLow)
}

func TestComputeStatistics_Empty(t *testing.T) {
	assert.Nil(t, model.ComputeStatistics(nil))
}
