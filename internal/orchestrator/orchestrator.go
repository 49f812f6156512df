// Package orchestrator composes providers, limiter, cache, usage
// tracking, and the indicator engine into the fetch pipeline:
// cache -> primary -> backup -> (custom...) -> exhausted.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/BuzzScud/ALGO3D-sub004/internal/cache"
	"github.com/BuzzScud/ALGO3D-sub004/internal/indicator"
	"github.com/BuzzScud/ALGO3D-sub004/internal/marketclock"
	"github.com/BuzzScud/ALGO3D-sub004/internal/model"
	"github.com/BuzzScud/ALGO3D-sub004/internal/provider"
	"github.com/BuzzScud/ALGO3D-sub004/internal/ratelimit"
	"github.com/BuzzScud/ALGO3D-sub004/internal/usage"
)

// Validation errors, reported before any upstream call is attempted.
var (
	ErrEmptySymbol = errors.New("symbol is required")
	ErrUnknownMode = errors.New("unknown fibonacci mode")
)

// SourceCache marks responses served from the response cache.
const SourceCache = "cache"

// Config wires an Orchestrator.
type Config struct {
	// Adapters in fallback order: primary first.
	Adapters []provider.Adapter
	// Limits maps adapter name to calls per minute; 0 means unlimited.
	Limits  map[string]int
	Cache   *cache.Cache
	Limiter *ratelimit.Limiter
	Usage   *usage.Tracker
	Clock   *marketclock.Clock
	Log     *logrus.Logger
}

// Orchestrator executes the fallback chain for chart and quote
// requests. Safe for concurrent use; all mutable state lives in the
// injected shared stores.
type Orchestrator struct {
	cfg Config
	now func() time.Time
}

// New builds an orchestrator.
func New(cfg Config) *Orchestrator {
	return &Orchestrator{cfg: cfg, now: time.Now}
}

// lookback is how far back each timeframe's chart request reaches.
func lookback(tf model.Timeframe) time.Duration {
	switch tf {
	case model.Timeframe15Min:
		return 7 * 24 * time.Hour
	case model.Timeframe1H:
		return 30 * 24 * time.Hour
	case model.Timeframe4H:
		return 60 * 24 * time.Hour
	default:
		return 365 * 24 * time.Hour
	}
}

// Chart serves a candle series with statistics and indicators. A
// failure response never carries candles or indicators, and no
// synthetic data is ever fabricated.
func (o *Orchestrator) Chart(ctx context.Context, symbol, timeframe string, forceRefresh bool) (*model.ChartResponse, error) {
	sym := model.NormalizeSymbol(symbol)
	if sym == "" {
		return nil, ErrEmptySymbol
	}
	tf := model.ParseTimeframe(timeframe)

	if !forceRefresh {
		if payload, ok := o.cfg.Cache.GetChart(ctx, sym, tf); ok {
			var resp model.ChartResponse
			if err := json.Unmarshal(payload, &resp); err == nil {
				resp.Source = SourceCache
				return &resp, nil
			}
			// Corrupt cache entry: fall through to a live fetch.
		}
	}

	to := o.now()
	from := to.Add(-lookback(tf))
	var reasons []string

	for _, adapter := range o.cfg.Adapters {
		name := adapter.Name()
		log := o.cfg.Log.WithFields(logrus.Fields{
			"provider":  name,
			"symbol":    sym,
			"timeframe": tf,
		})

		if !o.allow(ctx, name) {
			log.Warn("rate limit reached, falling back")
			reasons = append(reasons, name+": rate limited")
			continue
		}
		if err := o.cfg.Limiter.RecordCall(ctx, name); err != nil {
			log.Warnf("rate limit record failed: %v", err)
		}

		callCtx, cancel := context.WithTimeout(ctx, provider.CandleTimeout)
		start := o.now()
		candles, err := adapter.FetchCandles(callCtx, sym, tf, from, to)
		elapsed := o.now().Sub(start)
		cancel()

		if err != nil {
			o.cfg.Usage.Record(ctx, name, false, elapsed, err.Error())
			log.Warnf("candle fetch failed: %v", err)
			reasons = append(reasons, err.Error())
			continue
		}
		o.cfg.Usage.Record(ctx, name, true, elapsed, "")

		o.cfg.Clock.NormalizeCandles(candles)
		resp := &model.ChartResponse{
			Success:    true,
			Symbol:     sym,
			Timeframe:  tf,
			Candles:    candles,
			Statistics: model.ComputeStatistics(candles),
			Indicators: indicator.Compute(candles),
			Source:     name,
		}
		o.store(ctx, resp, func(payload json.RawMessage) error {
			return o.cfg.Cache.SetChart(ctx, sym, tf, payload)
		})
		log.WithField("candles", len(candles)).Info("chart served")
		return resp, nil
	}

	return &model.ChartResponse{
		Success: false,
		Message: exhaustedMessage(sym, reasons),
	}, nil
}

// Quote serves the latest quote through the same fallback chain.
func (o *Orchestrator) Quote(ctx context.Context, symbol string, forceRefresh bool) (*model.QuoteResponse, error) {
	sym := model.NormalizeSymbol(symbol)
	if sym == "" {
		return nil, ErrEmptySymbol
	}

	if !forceRefresh {
		if payload, ok := o.cfg.Cache.GetQuote(ctx, sym); ok {
			var resp model.QuoteResponse
			if err := json.Unmarshal(payload, &resp); err == nil {
				resp.Source = SourceCache
				return &resp, nil
			}
		}
	}

	var reasons []string
	for _, adapter := range o.cfg.Adapters {
		name := adapter.Name()
		log := o.cfg.Log.WithFields(logrus.Fields{"provider": name, "symbol": sym})

		if !o.allow(ctx, name) {
			log.Warn("rate limit reached, falling back")
			reasons = append(reasons, name+": rate limited")
			continue
		}
		if err := o.cfg.Limiter.RecordCall(ctx, name); err != nil {
			log.Warnf("rate limit record failed: %v", err)
		}

		callCtx, cancel := context.WithTimeout(ctx, provider.QuoteTimeout)
		start := o.now()
		quote, err := adapter.FetchQuote(callCtx, sym)
		elapsed := o.now().Sub(start)
		cancel()

		if err != nil {
			o.cfg.Usage.Record(ctx, name, false, elapsed, err.Error())
			log.Warnf("quote fetch failed: %v", err)
			reasons = append(reasons, err.Error())
			continue
		}
		o.cfg.Usage.Record(ctx, name, true, elapsed, "")

		quote.Timestamp = o.cfg.Clock.Normalize(quote.Timestamp)
		resp := &model.QuoteResponse{
			Success: true,
			Symbol:  sym,
			Quote:   quote,
			Source:  name,
		}
		o.store(ctx, resp, func(payload json.RawMessage) error {
			return o.cfg.Cache.SetQuote(ctx, sym, payload)
		})
		log.Info("quote served")
		return resp, nil
	}

	return &model.QuoteResponse{
		Success: false,
		Message: exhaustedMessage(sym, reasons),
	}, nil
}

// Fibonacci serves standalone Fibonacci levels. Mode "window" (the
// default) uses the full-range levels from the chart pipeline; mode
// "anchor" measures from the latest year's first candle instead.
func (o *Orchestrator) Fibonacci(ctx context.Context, symbol, timeframe, mode string, forceRefresh bool) (*model.FibonacciResponse, error) {
	if mode == "" {
		mode = "window"
	}
	if mode != "window" && mode != "anchor" {
		return nil, fmt.Errorf("%w %q", ErrUnknownMode, mode)
	}

	chart, err := o.Chart(ctx, symbol, timeframe, forceRefresh)
	if err != nil {
		return nil, err
	}
	if !chart.Success {
		return &model.FibonacciResponse{Success: false, Message: chart.Message}, nil
	}

	levels := chart.Indicators.Fibonacci
	if mode == "anchor" {
		levels = indicator.AnchoredFibonacci(chart.Candles)
	}
	return &model.FibonacciResponse{
		Success:   true,
		Symbol:    chart.Symbol,
		Timeframe: chart.Timeframe,
		Mode:      mode,
		Levels:    levels,
		Source:    chart.Source,
	}, nil
}

// allow treats limiter errors as a denial so a broken shared store
// degrades into fallback, not unmetered upstream calls.
func (o *Orchestrator) allow(ctx context.Context, name string) bool {
	limit := o.cfg.Limits[name]
	ok, err := o.cfg.Limiter.Allow(ctx, name, limit)
	if err != nil {
		o.cfg.Log.WithField("provider", name).Warnf("rate limit check failed: %v", err)
		return false
	}
	return ok
}

// store caches a successful response; cache problems are logged and
// never fail the request.
func (o *Orchestrator) store(ctx context.Context, resp any, set func(json.RawMessage) error) {
	payload, err := json.Marshal(resp)
	if err != nil {
		o.cfg.Log.Warnf("cache encode failed: %v", err)
		return
	}
	if err := set(payload); err != nil {
		o.cfg.Log.Warnf("cache write failed: %v", err)
	}
}

func exhaustedMessage(symbol string, reasons []string) string {
	if len(reasons) == 0 {
		return fmt.Sprintf("no providers configured for %s", symbol)
	}
	return fmt.Sprintf("all providers failed for %s: %s", symbol, strings.Join(reasons, "; "))
}
