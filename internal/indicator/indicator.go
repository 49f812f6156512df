// Package indicator computes technical indicators over candle data.
// All functions are pure and safe for concurrent use: they only read
// their input slices and never retain them.
package indicator

import (
	"math"

	"github.com/guregu/null/v6"

	"github.com/BuzzScud/ALGO3D-sub004/internal/model"
)

const (
	rsiOverbought = 70.0
	rsiOversold   = 30.0
)

// SMA returns the simple moving average series over the given period.
// ok is false when fewer than period closes are available.
func SMA(closes []float64, period int) (values []float64, ok bool) {
	if period <= 0 || len(closes) < period {
		return nil, false
	}
	values = make([]float64, 0, len(closes)-period+1)
	for i := period - 1; i < len(closes); i++ {
		sum := 0.0
		for j := i - period + 1; j <= i; j++ {
			sum += closes[j]
		}
		values = append(values, sum/float64(period))
	}
	return values, true
}

// SMACurrent returns the latest SMA value for the period.
func SMACurrent(closes []float64, period int) null.Float {
	values, ok := SMA(closes, period)
	if !ok {
		return null.Float{}
	}
	return null.FloatFrom(values[len(values)-1])
}

// EMA returns the exponential moving average series. The first value is
// seeded with the SMA of the first period closes, then each subsequent
// close is blended with multiplier 2/(period+1).
func EMA(closes []float64, period int) (values []float64, ok bool) {
	if period <= 0 || len(closes) < period {
		return nil, false
	}
	seed := 0.0
	for _, c := range closes[:period] {
		seed += c
	}
	seed /= float64(period)

	multiplier := 2.0 / (float64(period) + 1.0)
	values = make([]float64, 0, len(closes)-period+1)
	values = append(values, seed)
	prev := seed
	for i := period; i < len(closes); i++ {
		prev = (closes[i]-prev)*multiplier + prev
		values = append(values, prev)
	}
	return values, true
}

// EMACurrent returns the latest EMA value for the period.
func EMACurrent(closes []float64, period int) null.Float {
	values, ok := EMA(closes, period)
	if !ok {
		return null.Float{}
	}
	return null.FloatFrom(values[len(values)-1])
}

// RSI computes the relative strength index over the last period price
// changes. With fewer than period+1 closes it reports the neutral
// default {50, Neutral} rather than an error or null.
func RSI(closes []float64, period int) model.RSI {
	if period <= 0 || len(closes) < period+1 {
		return model.RSI{Value: 50, Signal: "Neutral"}
	}

	var avgGain, avgLoss float64
	for i := len(closes) - period; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			avgGain += delta
		} else {
			avgLoss -= delta
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	value := 100.0
	if avgLoss != 0 {
		rs := avgGain / avgLoss
		value = 100.0 - 100.0/(1.0+rs)
	}

	signal := "Neutral"
	switch {
	case value > rsiOverbought:
		signal = "Overbought"
	case value < rsiOversold:
		signal = "Oversold"
	}
	return model.RSI{Value: value, Signal: signal}
}

// MACDLine returns the instantaneous MACD line, EMA12 - EMA26. There is
// no 9-period signal line or histogram. Nil when either EMA is
// undefined.
func MACDLine(closes []float64) *model.MACD {
	ema12 := EMACurrent(closes, 12)
	ema26 := EMACurrent(closes, 26)
	if !ema12.Valid || !ema26.Valid {
		return nil
	}
	value := ema12.Float64 - ema26.Float64
	signal := "Neutral"
	switch {
	case value > 0:
		signal = "Bullish"
	case value < 0:
		signal = "Bearish"
	}
	return &model.MACD{Value: value, Signal: signal}
}

// BollingerBands computes the 20-period band: middle is the SMA of the
// last period closes, upper/lower are two population standard
// deviations away. Nil when fewer than period closes are available.
func BollingerBands(closes []float64, period int) *model.Bollinger {
	if period <= 0 || len(closes) < period {
		return nil
	}
	window := closes[len(closes)-period:]
	sma := 0.0
	for _, c := range window {
		sma += c
	}
	sma /= float64(period)

	// Population variance: divide by period, not period-1.
	variance := 0.0
	for _, c := range window {
		d := c - sma
		variance += d * d
	}
	variance /= float64(period)
	stdDev := math.Sqrt(variance)

	return &model.Bollinger{
		Upper:  sma + 2*stdDev,
		Middle: sma,
		Lower:  sma - 2*stdDev,
	}
}

// Compute derives the full indicator set for a candle series. Fields
// whose minimum period exceeds the series length come back null.
func Compute(candles []model.Candle) *model.IndicatorSet {
	if len(candles) == 0 {
		return nil
	}
	closes := make([]float64, len(candles))
	highs := make([]float64, len(candles))
	lows := make([]float64, len(candles))
	for i, c := range candles {
		closes[i] = c.Close
		highs[i] = c.High
		lows[i] = c.Low
	}
	return &model.IndicatorSet{
		SMA20:       SMACurrent(closes, 20),
		SMA50:       SMACurrent(closes, 50),
		EMA12:       EMACurrent(closes, 12),
		EMA26:       EMACurrent(closes, 26),
		RSI14:       RSI(closes, 14),
		MACD:        MACDLine(closes),
		Bollinger20: BollingerBands(closes, 20),
		Fibonacci:   FibonacciLevels(highs, lows, closes[len(closes)-1]),
	}
}
