package model

// ChartResponse is the chart endpoint envelope. On failure only
// Success and Message are populated; candles and indicators are never
// fabricated.
type ChartResponse struct {
	Success    bool          `json:"success"`
	Symbol     string        `json:"symbol,omitempty"`
	Timeframe  Timeframe     `json:"timeframe,omitempty"`
	Candles    []Candle      `json:"candles,omitempty"`
	Statistics *Statistics   `json:"statistics,omitempty"`
	Indicators *IndicatorSet `json:"indicators,omitempty"`
	Source     string        `json:"source,omitempty"`
	Message    string        `json:"message,omitempty"`
}

// QuoteResponse is the quote endpoint envelope.
type QuoteResponse struct {
	Success bool   `json:"success"`
	Symbol  string `json:"symbol,omitempty"`
	Quote   *Quote `json:"quote,omitempty"`
	Source  string `json:"source,omitempty"`
	Message string `json:"message,omitempty"`
}

// FibonacciResponse is the standalone fibonacci endpoint envelope.
type FibonacciResponse struct {
	Success   bool       `json:"success"`
	Symbol    string     `json:"symbol,omitempty"`
	Timeframe Timeframe  `json:"timeframe,omitempty"`
	Mode      string     `json:"mode,omitempty"`
	Levels    *Fibonacci `json:"levels,omitempty"`
	Source    string     `json:"source,omitempty"`
	Message   string     `json:"message,omitempty"`
}
