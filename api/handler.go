// Package api exposes the inbound HTTP surface for a dispatch Engine:
// webhook delivery routes and a health probe.
package api

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/kiket-dev/dispatch"
)

// MaxBodyBytes bounds inbound webhook bodies.
const MaxBodyBytes = 1 << 20 // 1 MiB

// Handler is the inbound HTTP handler for webhook deliveries.
type Handler struct {
	engine *dispatch.Engine
	logger *slog.Logger
	mux    *http.ServeMux
}

// NewHandler creates the inbound webhook handler for an engine.
func NewHandler(engine *dispatch.Engine, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	h := &Handler{
		engine: engine,
		logger: logger,
		mux:    http.NewServeMux(),
	}

	h.registerRoutes()
	return h
}

func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("POST /v/{version}/webhooks/{event}", h.dispatchVersioned)
	h.mux.HandleFunc("POST /webhooks/{event}", h.dispatch)
	h.mux.HandleFunc("GET /health", h.health)
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.withMiddleware(h.mux).ServeHTTP(w, r)
}

func (h *Handler) withMiddleware(next http.Handler) http.Handler {
	return h.panicRecovery(h.logging(next))
}

func (h *Handler) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		h.logger.Info("webhook request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (h *Handler) panicRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				h.logger.Error("panic recovered",
					"error", rec,
					"stack", string(debug.Stack()),
				)
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) dispatchVersioned(w http.ResponseWriter, r *http.Request) {
	h.serveDispatch(w, r, r.PathValue("version"))
}

func (h *Handler) dispatch(w http.ResponseWriter, r *http.Request) {
	h.serveDispatch(w, r, "")
}

func (h *Handler) serveDispatch(w http.ResponseWriter, r *http.Request, version string) {
	body, err := io.ReadAll(io.LimitReader(r.Body, MaxBodyBytes+1))
	r.Body.Close() //nolint:errcheck // read side
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read request body")
		return
	}
	if len(body) > MaxBodyBytes {
		writeError(w, http.StatusInternalServerError, "request body too large")
		return
	}

	resp := h.engine.Dispatch(r.Context(), dispatch.Request{
		Event:      r.PathValue("event"),
		Version:    version,
		Headers:    r.Header,
		Query:      r.URL.Query(),
		Body:       body,
		ReceivedAt: time.Now().UTC(),
	})
	writeJSON(w, resp.StatusCode, resp.Body)
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status": "ok",
		"events": h.engine.Registry().Keys(),
	}
	if s := h.engine.Store(); s != nil {
		if err := s.Ping(r.Context()); err != nil {
			status["status"] = "degraded"
			status["store"] = err.Error()
			writeJSON(w, http.StatusOK, status)
			return
		}
		status["store"] = "ok"
	}
	writeJSON(w, http.StatusOK, status)
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// JSON helpers.

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best effort
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
