package model

import "github.com/guregu/null/v6"

// RSI carries the oscillator value plus its classification band.
// Unlike the other indicators it is never null: with fewer than
// period+1 closes it reports the {50, Neutral} default.
type RSI struct {
	Value  float64 `json:"value"`
	Signal string  `json:"signal"`
}

// MACD is the instantaneous MACD line (EMA12 - EMA26). No 9-period
// signal line or histogram is computed.
type MACD struct {
	Value  float64 `json:"value"`
	Signal string  `json:"signal"`
}

// Bollinger is a 20-period band using population standard deviation.
type Bollinger struct {
	Upper  float64 `json:"upper"`
	Middle float64 `json:"middle"`
	Lower  float64 `json:"lower"`
}

// FibonacciLevel is one retracement or extension price level.
type FibonacciLevel struct {
	Ratio float64 `json:"ratio"`
	Price float64 `json:"price"`
}

// Fibonacci holds retracement/extension levels plus spiral targets
// derived from the series high/low range and the latest close.
type Fibonacci struct {
	High          float64          `json:"high"`
	Low           float64          `json:"low"`
	CurrentPrice  float64          `json:"currentPrice"`
	Retracements  []FibonacciLevel `json:"retracements"`
	Extensions    []FibonacciLevel `json:"extensions"`
	SpiralTargets []float64        `json:"spiralTargets"`
	Position      string           `json:"position"`
}

// IndicatorSet is the full derived-indicator payload for one series.
// Each nullable field is null when the series is shorter than the
// indicator's minimum period; callers must treat null as a normal
// "insufficient data" outcome, not an error.
type IndicatorSet struct {
	SMA20       null.Float `json:"sma20"`       // needs n >= 20
	SMA50       null.Float `json:"sma50"`       // needs n >= 50
	EMA12       null.Float `json:"ema12"`       // needs n >= 12
	EMA26       null.Float `json:"ema26"`       // needs n >= 26
	RSI14       RSI        `json:"rsi14"`       // defaults to {50, Neutral}
	MACD        *MACD      `json:"macd"`        // needs n >= 26
	Bollinger20 *Bollinger `json:"bollinger20"` // needs n >= 20
	Fibonacci   *Fibonacci `json:"fibonacci"`   // needs n >= 1
}
