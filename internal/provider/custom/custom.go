// Package custom adapts a user-configured quote endpoint into the
// provider contract. The settings collaborator supplies the base URL,
// the payload field names, and the auth scheme; the orchestrator
// treats the result like any other adapter in the fallback chain.
package custom

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/BuzzScud/ALGO3D-sub004/internal/httpx"
	"github.com/BuzzScud/ALGO3D-sub004/internal/model"
	"github.com/BuzzScud/ALGO3D-sub004/internal/provider"
)

// FieldMap names the payload fields carrying each quote figure.
// Dotted paths ("data.lastPrice") descend into nested objects. Only
// Price is required.
type FieldMap struct {
	Price         string `yaml:"price"`
	Change        string `yaml:"change"`
	PercentChange string `yaml:"percentChange"`
	Volume        string `yaml:"volume"`
	High          string `yaml:"high"`
	Low           string `yaml:"low"`
	Open          string `yaml:"open"`
	PreviousClose string `yaml:"previousClose"`
}

// Config drives the adapter. BaseURL may contain a {symbol}
// placeholder; without one the symbol is sent as a ?symbol= query
// parameter.
type Config struct {
	Name      string   `yaml:"name"`
	BaseURL   string   `yaml:"base_url"`
	Fields    FieldMap `yaml:"fields"`
	AuthType  string   `yaml:"auth_type"` // none | header | query
	AuthKey   string   `yaml:"auth_key"`
	AuthValue string   `yaml:"auth_value"`
}

// Adapter is a quotes-only provider; candle requests report the
// no-data error kind so the fallback chain simply moves on.
type Adapter struct {
	cfg    Config
	client *httpx.Client
}

// New creates a custom adapter with config defaults applied.
func New(cfg Config, hc *httpx.Client) *Adapter {
	if cfg.Name == "" {
		cfg.Name = "custom"
	}
	if cfg.Fields.Price == "" {
		cfg.Fields.Price = "price"
	}
	return &Adapter{cfg: cfg, client: hc}
}

func (a *Adapter) Name() string { return a.cfg.Name }

func (a *Adapter) FetchQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	u, err := a.buildURL(symbol)
	if err != nil {
		return nil, provider.NewError(a.cfg.Name, provider.KindNetwork, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, provider.NewError(a.cfg.Name, provider.KindNetwork, err)
	}
	if a.cfg.AuthType == "header" && a.cfg.AuthKey != "" {
		req.Header.Set(a.cfg.AuthKey, a.cfg.AuthValue)
	}

	resp, err := a.client.Do(ctx, req)
	if err != nil {
		return nil, provider.NewError(a.cfg.Name, provider.KindNetwork, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<10))
		return nil, provider.Errorf(a.cfg.Name, provider.KindStatus, "GET %s -> %d: %s", a.cfg.BaseURL, resp.StatusCode, string(b))
	}

	var payload map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, provider.Errorf(a.cfg.Name, provider.KindDecode, "decode payload: %w", err)
	}

	price, ok := lookupNumber(payload, a.cfg.Fields.Price)
	if !ok {
		return nil, provider.Errorf(a.cfg.Name, provider.KindDecode, "field %q missing or not numeric", a.cfg.Fields.Price)
	}

	q := &model.Quote{
		Symbol:    symbol,
		Price:     price,
		Timestamp: time.Now().UnixMilli(),
	}
	if v, ok := lookupNumber(payload, a.cfg.Fields.Change); ok {
		q.Change = v
	}
	if v, ok := lookupNumber(payload, a.cfg.Fields.PercentChange); ok {
		q.PercentChange = v
	}
	if v, ok := lookupNumber(payload, a.cfg.Fields.Volume); ok {
		q.Volume = int64(v)
	}
	if v, ok := lookupNumber(payload, a.cfg.Fields.High); ok {
		q.High = v
	}
	if v, ok := lookupNumber(payload, a.cfg.Fields.Low); ok {
		q.Low = v
	}
	if v, ok := lookupNumber(payload, a.cfg.Fields.Open); ok {
		q.Open = v
	}
	if v, ok := lookupNumber(payload, a.cfg.Fields.PreviousClose); ok {
		q.PreviousClose = v
	}
	return q, nil
}

func (a *Adapter) FetchCandles(ctx context.Context, symbol string, tf model.Timeframe, from, to time.Time) ([]model.Candle, error) {
	return nil, provider.Errorf(a.cfg.Name, provider.KindNoData, "custom provider %s serves quotes only", a.cfg.Name)
}

func (a *Adapter) buildURL(symbol string) (string, error) {
	raw := a.cfg.BaseURL
	if strings.Contains(raw, "{symbol}") {
		raw = strings.ReplaceAll(raw, "{symbol}", url.QueryEscape(symbol))
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	query := u.Query()
	if !strings.Contains(a.cfg.BaseURL, "{symbol}") {
		query.Set("symbol", symbol)
	}
	if a.cfg.AuthType == "query" && a.cfg.AuthKey != "" {
		query.Set(a.cfg.AuthKey, a.cfg.AuthValue)
	}
	u.RawQuery = query.Encode()
	return u.String(), nil
}

// lookupNumber resolves a dotted path to a numeric value. String
// numbers are accepted because loosely typed quote APIs are common.
func lookupNumber(payload map[string]any, path string) (float64, bool) {
	if path == "" {
		return 0, false
	}
	parts := strings.Split(path, ".")
	var cur any = payload
	for _, p := range parts {
		obj, ok := cur.(map[string]any)
		if !ok {
			return 0, false
		}
		cur, ok = obj[p]
		if !ok {
			return 0, false
		}
	}
	switch v := cur.(type) {
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
