// Package finnhub is the primary provider adapter, backed by the
// Finnhub REST API.
package finnhub

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/BuzzScud/ALGO3D-sub004/internal/model"
	"github.com/BuzzScud/ALGO3D-sub004/internal/provider"
)

const defaultBaseURL = "https://finnhub.io/api/v1"

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=finnhub_test -destination=mock_http_client_test.go -source=finnhub.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Adapter talks to Finnhub. Construct with New.
type Adapter struct {
	name       string
	baseURL    string
	token      string
	httpClient HTTPClient
}

// Option configures the adapter.
type Option func(*Adapter)

// WithBaseURL overrides the API base URL (tests, proxies).
func WithBaseURL(baseURL string) Option {
	return func(a *Adapter) { a.baseURL = baseURL }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(httpClient HTTPClient) Option {
	return func(a *Adapter) { a.httpClient = httpClient }
}

// New creates a Finnhub adapter authenticated with the given token.
func New(token string, options ...Option) *Adapter {
	a := &Adapter{
		name:       "finnhub",
		baseURL:    defaultBaseURL,
		token:      token,
		httpClient: http.DefaultClient,
	}
	for _, option := range options {
		option(a)
	}
	return a
}

func (a *Adapter) Name() string { return a.name }

// quoteResponse is Finnhub's /quote shape.
type quoteResponse struct {
	Current       float64 `json:"c"`
	Change        float64 `json:"d"`
	PercentChange float64 `json:"dp"`
	High          float64 `json:"h"`
	Low           float64 `json:"l"`
	Open          float64 `json:"o"`
	PreviousClose float64 `json:"pc"`
	Timestamp     int64   `json:"t"`
}

func (a *Adapter) FetchQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	var qr quoteResponse
	params := url.Values{"symbol": {symbol}}
	if err := a.getJSON(ctx, "/quote", params, &qr); err != nil {
		return nil, err
	}
	// Finnhub reports unknown symbols as an all-zero quote.
	if qr.Current == 0 && qr.Timestamp == 0 {
		return nil, provider.Errorf(a.name, provider.KindNoData, "no quote data for %s", symbol)
	}
	return &model.Quote{
		Symbol:        symbol,
		Price:         qr.Current,
		Change:        qr.Change,
		PercentChange: qr.PercentChange,
		High:          qr.High,
		Low:           qr.Low,
		Open:          qr.Open,
		PreviousClose: qr.PreviousClose,
		Timestamp:     qr.Timestamp * 1000,
	}, nil
}

// candleResponse is Finnhub's /stock/candle shape. Status "no_data" is
// the provider's empty sentinel.
type candleResponse struct {
	Status  string    `json:"s"`
	Times   []int64   `json:"t"`
	Opens   []float64 `json:"o"`
	Highs   []float64 `json:"h"`
	Lows    []float64 `json:"l"`
	Closes  []float64 `json:"c"`
	Volumes []float64 `json:"v"`
}

func resolution(tf model.Timeframe) string {
	switch tf {
	case model.Timeframe15Min:
		return "15"
	case model.Timeframe1H:
		return "60"
	case model.Timeframe4H:
		return "240"
	default:
		return "D"
	}
}

func (a *Adapter) FetchCandles(ctx context.Context, symbol string, tf model.Timeframe, from, to time.Time) ([]model.Candle, error) {
	params := url.Values{
		"symbol":     {symbol},
		"resolution": {resolution(tf)},
		"from":       {fmt.Sprintf("%d", from.Unix())},
		"to":         {fmt.Sprintf("%d", to.Unix())},
	}
	var cr candleResponse
	if err := a.getJSON(ctx, "/stock/candle", params, &cr); err != nil {
		return nil, err
	}
	if cr.Status == "no_data" || len(cr.Times) == 0 {
		return nil, provider.Errorf(a.name, provider.KindNoData, "no candle data for %s %s", symbol, tf)
	}
	if cr.Status != "ok" {
		return nil, provider.Errorf(a.name, provider.KindDecode, "unexpected candle status %q", cr.Status)
	}
	n := len(cr.Times)
	if len(cr.Opens) != n || len(cr.Highs) != n || len(cr.Lows) != n || len(cr.Closes) != n || len(cr.Volumes) != n {
		return nil, provider.Errorf(a.name, provider.KindDecode, "ragged candle arrays for %s", symbol)
	}

	candles := make([]model.Candle, 0, n)
	for i := 0; i < n; i++ {
		candles = append(candles, model.Candle{
			Time:   cr.Times[i] * 1000,
			Open:   cr.Opens[i],
			High:   cr.Highs[i],
			Low:    cr.Lows[i],
			Close:  cr.Closes[i],
			Volume: int64(cr.Volumes[i]),
		})
	}
	sort.Slice(candles, func(i, j int) bool { return candles[i].Time < candles[j].Time })
	return dedupe(candles), nil
}

// dedupe drops duplicate-timestamp candles, keeping the first. The
// series contract is strictly ascending time.
func dedupe(candles []model.Candle) []model.Candle {
	out := candles[:0]
	var lastTime int64 = -1
	for _, c := range candles {
		if c.Time == lastTime {
			continue
		}
		out = append(out, c)
		lastTime = c.Time
	}
	return out
}

func (a *Adapter) getJSON(ctx context.Context, path string, params url.Values, dst any) error {
	params.Set("token", a.token)
	u := a.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return provider.NewError(a.name, provider.KindNetwork, err)
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return provider.NewError(a.name, provider.KindNetwork, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<10))
		return provider.Errorf(a.name, provider.KindStatus, "GET %s -> %d: %s", path, resp.StatusCode, string(b))
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return provider.Errorf(a.name, provider.KindDecode, "decode %s: %w", path, err)
	}
	return nil
}
