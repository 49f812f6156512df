package model

import "strings"

// Timeframe selects the candle resolution for chart requests.
type Timeframe string

const (
	Timeframe15Min Timeframe = "15MIN"
	Timeframe1H    Timeframe = "1H"
	Timeframe4H    Timeframe = "4H"
	Timeframe1D    Timeframe = "1D"
)

// ParseTimeframe normalizes a raw timeframe string. Unknown values
// fall back to 1D rather than failing the request.
func ParseTimeframe(s string) Timeframe {
	switch Timeframe(strings.ToUpper(strings.TrimSpace(s))) {
	case Timeframe15Min:
		return Timeframe15Min
	case Timeframe1H:
		return Timeframe1H
	case Timeframe4H:
		return Timeframe4H
	case Timeframe1D:
		return Timeframe1D
	default:
		return Timeframe1D
	}
}

// NormalizeSymbol uppercases and trims an externally supplied symbol.
// An empty result means the input was invalid.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// Candle is one OHLCV bucket. Time is epoch milliseconds, already
// shifted into the market timezone by marketclock.Normalize so clients
// rendering it as UTC display local market time.
type Candle struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume int64   `json:"volume"`
}

// Statistics summarizes a candle series for the dashboard header.
type Statistics struct {
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    int64   `json:"volume"`
	AvgVolume int64   `json:"avgVolume"`
	RangeHigh float64 `json:"rangeHigh"`
	RangeLow  float64 `json:"rangeLow"`
}

// ComputeStatistics derives series statistics. The series must be
// time-ascending; the last candle supplies open/close/volume.
func ComputeStatistics(candles []Candle) *Statistics {
	if len(candles) == 0 {
		return nil
	}
	last := candles[len(candles)-1]
	st := &Statistics{
		Open:      last.Open,
		High:      last.High,
		Low:       last.Low,
		Close:     last.Close,
		Volume:    last.Volume,
		RangeHigh: candles[0].High,
		RangeLow:  candles[0].Low,
	}
	var totalVol int64
	for _, c := range candles {
		if c.High > st.RangeHigh {
			st.RangeHigh = c.High
		}
		if c.Low < st.RangeLow {
			st.RangeLow = c.Low
		}
		totalVol += c.Volume
	}
	st.AvgVolume = totalVol / int64(len(candles))
	return st
}

// Quote is the normalized latest-price shape returned by all providers.
type Quote struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	Change        float64 `json:"change"`
	PercentChange float64 `json:"percentChange"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Open          float64 `json:"open"`
	PreviousClose float64 `json:"previousClose"`
	Volume        int64   `json:"volume"`
	Timestamp     int64   `json:"timestamp"`
}
