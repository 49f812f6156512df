package main

import (
	"compress/gzip"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/BuzzScud/ALGO3D-sub004/internal/model"
	"github.com/BuzzScud/ALGO3D-sub004/internal/orchestrator"
	"github.com/BuzzScud/ALGO3D-sub004/internal/usage"
)

type api struct {
	orch  *orchestrator.Orchestrator
	usage *usage.Tracker
	log   *logrus.Logger
}

type usageResponse struct {
	Success   bool          `json:"success"`
	Providers []usage.Stats `json:"providers"`
}

func (a *api) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	mux.HandleFunc("/api/chart", a.handleChart)
	mux.HandleFunc("/api/quote", a.handleQuote)
	mux.HandleFunc("/api/fibonacci", a.handleFibonacci)
	mux.HandleFunc("/api/usage", a.handleUsage)
	return mux
}

func (a *api) handleChart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	q := r.URL.Query()
	resp, err := a.orch.Chart(r.Context(), q.Get("symbol"), q.Get("timeframe"), refresh(q.Get("refresh")))
	if err != nil {
		if errors.Is(err, orchestrator.ErrEmptySymbol) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		a.log.Errorf("chart request failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, statusFor(resp.Success), resp)
}

func (a *api) handleQuote(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	q := r.URL.Query()
	resp, err := a.orch.Quote(r.Context(), q.Get("symbol"), refresh(q.Get("refresh")))
	if err != nil {
		if errors.Is(err, orchestrator.ErrEmptySymbol) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		a.log.Errorf("quote request failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, statusFor(resp.Success), resp)
}

func (a *api) handleFibonacci(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	q := r.URL.Query()
	resp, err := a.orch.Fibonacci(r.Context(), q.Get("symbol"), q.Get("timeframe"), q.Get("mode"), refresh(q.Get("refresh")))
	if err != nil {
		if errors.Is(err, orchestrator.ErrEmptySymbol) || errors.Is(err, orchestrator.ErrUnknownMode) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		a.log.Errorf("fibonacci request failed: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	writeJSON(w, statusFor(resp.Success), resp)
}

func (a *api) handleUsage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, usageResponse{
		Success:   true,
		Providers: a.usage.Stats(r.Context()),
	})
}

// statusFor maps a failed fetch envelope to 502: the upstream chain is
// exhausted, the request itself was fine.
func statusFor(success bool) int {
	if success {
		return http.StatusOK
	}
	return http.StatusBadGateway
}

func refresh(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes":
		return true
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, model.ChartResponse{Success: false, Message: message})
}

func withJSONHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withGzip compresses responses when the client supports gzip.
func withGzip(next http.Handler) http.Handler {
	var gzPool = sync.Pool{New: func() any {
		w, _ := gzip.NewWriterLevel(io.Discard, gzip.BestSpeed)
		return w
	}}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}
		gz := gzPool.Get().(*gzip.Writer)
		gz.Reset(w)
		defer func() {
			_ = gz.Close()
			gz.Reset(io.Discard)
			gzPool.Put(gz)
		}()
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Add("Vary", "Accept-Encoding")
		gw := gzipResponseWriter{ResponseWriter: w, Writer: gz}
		next.ServeHTTP(gw, r)
	})
}

type gzipResponseWriter struct {
	http.ResponseWriter
	Writer io.Writer
}

func (g gzipResponseWriter) Write(b []byte) (int, error) {
	return g.Writer.Write(b)
}

// recoverPanic protects handlers from panics.
func recoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				http.Error(w, "internal server error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
