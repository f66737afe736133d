// Package server assembles the HTTP surface: the WebSocket upgrade endpoint,
// liveness, and metrics.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// NewHandler builds the route mux. The ws handler is any http.Handler so the
// transport stays swappable in tests.
func NewHandler(wsHandler http.Handler, metrics *Metrics, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", wsHandler)
	mux.Handle("/metrics", metrics)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})
	return logRequests(mux, logger)
}

// logRequests is a minimal access-log middleware.
func logRequests(next http.Handler, logger *slog.Logger) http.Handler {
	if logger == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		logger.Debug("http request", "method", r.Method, "path", r.URL.Path, "remote", r.RemoteAddr)
	})
}
