// Package httphandler serves the operational HTTP endpoints of rftp.
package httphandler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/telebroad/rftp/metrics"
)

// StatusFunc reports the number of active control connections.
type StatusFunc func() int

// Handler serves /metrics and /healthz.
type Handler struct {
	router chi.Router
	logger *slog.Logger
}

// NewHandler returns a handler exposing the collectors gathered by g. active
// may be nil, in which case /healthz omits the connection count.
func NewHandler(g prometheus.Gatherer, active StatusFunc) *Handler {
	h := &Handler{router: chi.NewRouter()}
	h.router.Use(middleware.Recoverer)
	h.router.Use(middleware.GetHead)

	h.router.Method(http.MethodGet, "/metrics", metrics.Handler(g))
	h.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		body := map[string]any{"status": "ok"}
		if active != nil {
			body["active_connections"] = active()
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(body); err != nil {
			h.Logger().Error("Unable to write health response", "error", err)
		}
	})
	return h
}

func (h *Handler) SetLogger(l *slog.Logger) {
	h.logger = l
}

func (h *Handler) Logger() *slog.Logger {
	if h.logger == nil {
		h.logger = slog.Default()
	}
	return h.logger.With("module", "http-server-handler")
}

// ServeHTTP serves the request implementing the http.Handler interface
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.Logger().Debug("ServeHTTP", "method", r.Method, "url", r.URL.String(), "remote", r.RemoteAddr, "user-agent", r.UserAgent())

	switch r.Method {
	case http.MethodGet, http.MethodHead:
		h.router.ServeHTTP(w, r)
	case http.MethodOptions:
		w.Header().Set("Allow", "GET, HEAD")
		w.WriteHeader(http.StatusOK)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
