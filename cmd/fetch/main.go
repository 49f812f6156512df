// Command fetch runs one chart or quote request through the full
// fallback chain and prints the JSON envelope, for smoke-testing a
// config without starting the server.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/BuzzScud/ALGO3D-sub004/internal/cache"
	"github.com/BuzzScud/ALGO3D-sub004/internal/config"
	"github.com/BuzzScud/ALGO3D-sub004/internal/httpx"
	"github.com/BuzzScud/ALGO3D-sub004/internal/kvstore"
	"github.com/BuzzScud/ALGO3D-sub004/internal/marketclock"
	"github.com/BuzzScud/ALGO3D-sub004/internal/orchestrator"
	"github.com/BuzzScud/ALGO3D-sub004/internal/provider"
	"github.com/BuzzScud/ALGO3D-sub004/internal/provider/custom"
	"github.com/BuzzScud/ALGO3D-sub004/internal/provider/finnhub"
	"github.com/BuzzScud/ALGO3D-sub004/internal/provider/yahoo"
	"github.com/BuzzScud/ALGO3D-sub004/internal/ratelimit"
	"github.com/BuzzScud/ALGO3D-sub004/internal/usage"
)

func main() {
	var symbol string
	var timeframe string
	var quoteOnly bool
	var configPath string

	flag.StringVar(&symbol, "symbol", "AAPL", "ticker symbol")
	flag.StringVar(&timeframe, "timeframe", "1D", "15MIN, 1H, 4H or 1D")
	flag.BoolVar(&quoteOnly, "quote", false, "fetch a quote instead of a chart")
	flag.StringVar(&configPath, "config", "", "path to config.yaml (optional)")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log.SetOutput(os.Stderr)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	clock, err := marketclock.New(cfg.Market.Timezone)
	if err != nil {
		log.Fatalf("market timezone: %v", err)
	}

	httpClient := httpx.New(time.Duration(cfg.Server.RequestTimeoutSec) * time.Second)

	var adapters []provider.Adapter
	limits := make(map[string]int)
	if cfg.Finnhub.Enabled && cfg.Finnhub.Token != "" {
		opts := []finnhub.Option{finnhub.WithHTTPClient(httpClient.HTTP)}
		if cfg.Finnhub.BaseURL != "" {
			opts = append(opts, finnhub.WithBaseURL(cfg.Finnhub.BaseURL))
		}
		fh := finnhub.New(cfg.Finnhub.Token, opts...)
		adapters = append(adapters, fh)
		limits[fh.Name()] = cfg.Finnhub.RateLimitPerMinute
	}
	if cfg.Yahoo.Enabled {
		yh := yahoo.New(yahoo.Config{BaseURL: cfg.Yahoo.BaseURL, SymbolMap: cfg.Yahoo.SymbolMap}, httpClient)
		adapters = append(adapters, yh)
		limits[yh.Name()] = cfg.Yahoo.RateLimitPerMinute
	}
	if cfg.Custom.Enabled && cfg.Custom.BaseURL != "" {
		cu := custom.New(custom.Config{
			Name:      cfg.Custom.Name,
			BaseURL:   cfg.Custom.BaseURL,
			Fields:    cfg.Custom.Fields,
			AuthType:  cfg.Custom.AuthType,
			AuthKey:   cfg.Custom.AuthKey,
			AuthValue: cfg.Custom.AuthValue,
		}, httpClient)
		adapters = append(adapters, cu)
		limits[cu.Name()] = cfg.Custom.RateLimitPerMinute
	}
	if len(adapters) == 0 {
		log.Fatal("no providers enabled; set FINNHUB_TOKEN or enable yahoo")
	}

	// One-shot run: memory store, nothing shared or persisted.
	store := kvstore.NewMemory()
	orch := orchestrator.New(orchestrator.Config{
		Adapters: adapters,
		Limits:   limits,
		Cache:    cache.New(store, cache.DefaultChartTTL, cache.DefaultQuoteTTL),
		Limiter:  ratelimit.New(store),
		Usage:    usage.NewTracker(store, log),
		Clock:    clock,
		Log:      log,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var payload any
	var success bool
	if quoteOnly {
		resp, err := orch.Quote(ctx, symbol, true)
		if err != nil {
			log.Fatalf("quote: %v", err)
		}
		payload, success = resp, resp.Success
	} else {
		resp, err := orch.Chart(ctx, symbol, timeframe, true)
		if err != nil {
			log.Fatalf("chart: %v", err)
		}
		payload, success = resp, resp.Success
	}

	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		log.Fatalf("encode: %v", err)
	}
	fmt.Println(string(b))
	if !success {
		os.Exit(1)
	}
}
