// Package provider defines the uniform upstream adapter contract. The
// orchestrator is provider-agnostic: it walks an ordered adapter list
// and treats every failure kind the same way for fallback purposes.
package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/BuzzScud/ALGO3D-sub004/internal/model"
)

// Fixed per-call timeouts, applied by callers via context deadlines.
const (
	QuoteTimeout  = 10 * time.Second
	CandleTimeout = 15 * time.Second
)

// Adapter fetches raw market data from one upstream provider and
// normalizes it. Implementations return a *Error for every failure.
type Adapter interface {
	Name() string
	FetchQuote(ctx context.Context, symbol string) (*model.Quote, error)
	FetchCandles(ctx context.Context, symbol string, tf model.Timeframe, from, to time.Time) ([]model.Candle, error)
}

// ErrorKind classifies provider failures.
type ErrorKind string

const (
	KindStatus  ErrorKind = "status"  // non-2xx response
	KindNetwork ErrorKind = "network" // transport failure or timeout
	KindDecode  ErrorKind = "decode"  // unparsable payload
	KindNoData  ErrorKind = "no_data" // provider's explicit empty sentinel
)

// Error is the uniform provider failure type.
type Error struct {
	Provider string
	Kind     ErrorKind
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError wraps err with provider attribution.
func NewError(provider string, kind ErrorKind, err error) *Error {
	return &Error{Provider: provider, Kind: kind, Err: err}
}

// Errorf is NewError with formatting.
func Errorf(provider string, kind ErrorKind, format string, args ...any) *Error {
	return &Error{Provider: provider, Kind: kind, Err: fmt.Errorf(format, args...)}
}
