// Package yahoo is the backup provider adapter, backed by the public
// Yahoo Finance chart API.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/BuzzScud/ALGO3D-sub004/internal/httpx"
	"github.com/BuzzScud/ALGO3D-sub004/internal/model"
	"github.com/BuzzScud/ALGO3D-sub004/internal/provider"
)

// Config drives the adapter.
type Config struct {
	Name    string
	BaseURL string
	// SymbolMap maps dashboard symbols to Yahoo tickers (e.g. SPX -> ^GSPC).
	SymbolMap map[string]string
}

// Adapter talks to the Yahoo chart endpoint.
type Adapter struct {
	cfg    Config
	client *httpx.Client
}

// New creates a Yahoo adapter with config defaults applied.
func New(cfg Config, hc *httpx.Client) *Adapter {
	if cfg.Name == "" {
		cfg.Name = "yahoo"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"
	}
	return &Adapter{cfg: cfg, client: hc}
}

func (a *Adapter) Name() string { return a.cfg.Name }

func (a *Adapter) ticker(symbol string) string {
	if mapped, ok := a.cfg.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// chartResponse is the Yahoo chart API shape. OHLC arrays use
// interface{} because Yahoo emits JSON nulls for holiday bars.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				RegularMarketPrice  float64 `json:"regularMarketPrice"`
				ChartPreviousClose  float64 `json:"chartPreviousClose"`
				RegularMarketVolume int64   `json:"regularMarketVolume"`
				RegularMarketTime   int64   `json:"regularMarketTime"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []interface{} `json:"open"`
					High   []interface{} `json:"high"`
					Low    []interface{} `json:"low"`
					Close  []interface{} `json:"close"`
					Volume []interface{} `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

// interval maps timeframes to Yahoo intervals. Yahoo has no native 4h
// interval, so 4H fetches hourly bars and aggregates them locally.
func interval(tf model.Timeframe) string {
	switch tf {
	case model.Timeframe15Min:
		return "15m"
	case model.Timeframe1H, model.Timeframe4H:
		return "1h"
	default:
		return "1d"
	}
}

func (a *Adapter) FetchCandles(ctx context.Context, symbol string, tf model.Timeframe, from, to time.Time) ([]model.Candle, error) {
	chart, err := a.fetchChart(ctx, symbol, interval(tf), from, to)
	if err != nil {
		return nil, err
	}
	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, provider.Errorf(a.cfg.Name, provider.KindNoData, "no quote block for %s", symbol)
	}
	quote := result.Indicators.Quote[0]

	candles := make([]model.Candle, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(quote.Close) {
			break
		}
		o := toFloat(index(quote.Open, i))
		h := toFloat(index(quote.High, i))
		l := toFloat(index(quote.Low, i))
		c := toFloat(index(quote.Close, i))
		if o == 0 && h == 0 && l == 0 && c == 0 {
			continue // null bar (holiday, halted session)
		}
		candles = append(candles, model.Candle{
			Time:   ts * 1000,
			Open:   o,
			High:   h,
			Low:    l,
			Close:  c,
			Volume: int64(toFloat(index(quote.Volume, i))),
		})
	}
	if len(candles) == 0 {
		return nil, provider.Errorf(a.cfg.Name, provider.KindNoData, "no usable bars for %s", symbol)
	}
	sort.Slice(candles, func(i, j int) bool { return candles[i].Time < candles[j].Time })

	if tf == model.Timeframe4H {
		candles = aggregate(candles, 4*time.Hour)
	}
	return candles, nil
}

func index(arr []interface{}, i int) interface{} {
	if i < len(arr) {
		return arr[i]
	}
	return nil
}

// aggregate buckets ascending candles into fixed windows, merging
// OHLCV the usual way (first open, max high, min low, last close,
// summed volume).
func aggregate(candles []model.Candle, window time.Duration) []model.Candle {
	windowMs := window.Milliseconds()
	var out []model.Candle
	for _, c := range candles {
		bucket := c.Time / windowMs * windowMs
		if len(out) > 0 && out[len(out)-1].Time == bucket {
			last := &out[len(out)-1]
			if c.High > last.High {
				last.High = c.High
			}
			if c.Low < last.Low {
				last.Low = c.Low
			}
			last.Close = c.Close
			last.Volume += c.Volume
			continue
		}
		merged := c
		merged.Time = bucket
		out = append(out, merged)
	}
	return out
}

func (a *Adapter) FetchQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	now := time.Now()
	chart, err := a.fetchChart(ctx, symbol, "1d", now.AddDate(0, 0, -5), now)
	if err != nil {
		return nil, err
	}
	meta := chart.Chart.Result[0].Meta
	if meta.RegularMarketPrice == 0 {
		return nil, provider.Errorf(a.cfg.Name, provider.KindNoData, "no market price for %s", symbol)
	}
	change := meta.RegularMarketPrice - meta.ChartPreviousClose
	percent := 0.0
	if meta.ChartPreviousClose != 0 {
		percent = change / meta.ChartPreviousClose * 100
	}
	q := &model.Quote{
		Symbol:        symbol,
		Price:         meta.RegularMarketPrice,
		Change:        change,
		PercentChange: percent,
		PreviousClose: meta.ChartPreviousClose,
		Volume:        meta.RegularMarketVolume,
		Timestamp:     meta.RegularMarketTime * 1000,
	}

	// Fill day high/low/open from the last bar when present.
	result := chart.Chart.Result[0]
	if len(result.Timestamp) > 0 && len(result.Indicators.Quote) > 0 {
		quote := result.Indicators.Quote[0]
		i := len(result.Timestamp) - 1
		q.Open = toFloat(index(quote.Open, i))
		q.High = toFloat(index(quote.High, i))
		q.Low = toFloat(index(quote.Low, i))
	}
	return q, nil
}

func (a *Adapter) fetchChart(ctx context.Context, symbol, interval string, from, to time.Time) (*chartResponse, error) {
	u := fmt.Sprintf("%s/%s?interval=%s&period1=%d&period2=%d",
		a.cfg.BaseURL, url.PathEscape(a.ticker(symbol)), interval, from.Unix(), to.Unix())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, provider.NewError(a.cfg.Name, provider.KindNetwork, err)
	}
	resp, err := a.client.Do(ctx, req)
	if err != nil {
		return nil, provider.NewError(a.cfg.Name, provider.KindNetwork, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<10))
		return nil, provider.Errorf(a.cfg.Name, provider.KindStatus, "GET chart -> %d: %s", resp.StatusCode, string(b))
	}

	var chart chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		return nil, provider.Errorf(a.cfg.Name, provider.KindDecode, "decode chart: %w", err)
	}
	if chart.Chart.Error != nil {
		return nil, provider.Errorf(a.cfg.Name, provider.KindNoData, "api error: %s", chart.Chart.Error.Description)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, provider.Errorf(a.cfg.Name, provider.KindNoData, "empty result for %s", symbol)
	}
	return &chart, nil
}
