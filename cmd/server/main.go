// Command server exposes the market data aggregation API: chart and
// quote fetching with provider fallback, technical indicators, and
// per-provider usage statistics.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
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
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	log.SetOutput(os.Stdout)

	cfg, err := config.Load("")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.Finnhub.Enabled && cfg.Finnhub.Token == "" {
		log.Warn("finnhub.enabled=true but FINNHUB_TOKEN not set")
	}

	clock, err := marketclock.New(cfg.Market.Timezone)
	if err != nil {
		log.Fatalf("market timezone: %v", err)
	}

	httpClient := httpx.New(time.Duration(cfg.Server.RequestTimeoutSec) * time.Second)

	store, err := openStore(cfg.Cache)
	if err != nil {
		log.Fatalf("kv store: %v", err)
	}

	adapters, limits := buildAdapters(cfg, httpClient, log)
	if len(adapters) == 0 {
		log.Fatal("no providers enabled")
	}

	tracker := usage.NewTracker(store, log)
	orch := orchestrator.New(orchestrator.Config{
		Adapters: adapters,
		Limits:   limits,
		Cache: cache.New(store,
			time.Duration(cfg.Cache.ChartTTLSec)*time.Second,
			time.Duration(cfg.Cache.QuoteTTLSec)*time.Second),
		Limiter: ratelimit.New(store),
		Usage:   tracker,
		Clock:   clock,
		Log:     log,
	})

	scheduler := startSnapshotFlush(cfg.Database, tracker, log)
	if scheduler != nil {
		defer scheduler.Stop()
	}

	a := &api{orch: orch, usage: tracker, log: log}
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           withJSONHeaders(withGzip(recoverPanic(a.routes()))),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Infof("server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

// buildAdapters assembles the fallback chain in priority order:
// finnhub, then yahoo, then the optional custom feed.
func buildAdapters(cfg config.Config, hc *httpx.Client, log *logrus.Logger) ([]provider.Adapter, map[string]int) {
	var adapters []provider.Adapter
	limits := make(map[string]int)

	if cfg.Finnhub.Enabled && cfg.Finnhub.Token != "" {
		var opts []finnhub.Option
		if cfg.Finnhub.BaseURL != "" {
			opts = append(opts, finnhub.WithBaseURL(cfg.Finnhub.BaseURL))
		}
		opts = append(opts, finnhub.WithHTTPClient(hc.HTTP))
		fh := finnhub.New(cfg.Finnhub.Token, opts...)
		adapters = append(adapters, fh)
		limits[fh.Name()] = cfg.Finnhub.RateLimitPerMinute
	}
	if cfg.Yahoo.Enabled {
		yh := yahoo.New(yahoo.Config{
			BaseURL:   cfg.Yahoo.BaseURL,
			SymbolMap: cfg.Yahoo.SymbolMap,
		}, hc)
		adapters = append(adapters, yh)
		limits[yh.Name()] = cfg.Yahoo.RateLimitPerMinute
	}
	if cfg.Custom.Enabled {
		if cfg.Custom.BaseURL == "" {
			log.Warn("custom.enabled=true but base_url not set; skipping")
		} else {
			cu := custom.New(custom.Config{
				Name:      cfg.Custom.Name,
				BaseURL:   cfg.Custom.BaseURL,
				Fields:    cfg.Custom.Fields,
				AuthType:  cfg.Custom.AuthType,
				AuthKey:   cfg.Custom.AuthKey,
				AuthValue: cfg.Custom.AuthValue,
			}, hc)
			adapters = append(adapters, cu)
			limits[cu.Name()] = cfg.Custom.RateLimitPerMinute
		}
	}
	return adapters, limits
}

func openStore(cfg config.Cache) (kvstore.Store, error) {
	if cfg.Backend == "redis" {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return kvstore.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPrefix)
	}
	return kvstore.NewMemory(), nil
}

// startSnapshotFlush persists usage stats to sqlite on the configured
// cron schedule. Returns nil when persistence is disabled.
func startSnapshotFlush(cfg config.Database, tracker *usage.Tracker, log *logrus.Logger) *cron.Cron {
	if !cfg.Enabled {
		return nil
	}
	store, err := usage.OpenSQLite(cfg.Path)
	if err != nil {
		log.Warnf("usage persistence disabled: %v", err)
		return nil
	}
	c := cron.New()
	_, err = c.AddFunc(cfg.FlushSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		rows := tracker.Snapshots(ctx, time.Now())
		if err := store.Save(ctx, rows); err != nil {
			log.Warnf("usage snapshot flush failed: %v", err)
		}
	})
	if err != nil {
		log.Warnf("usage flush schedule %q invalid: %v", cfg.FlushSchedule, err)
		return nil
	}
	c.Start()
	return c
}
