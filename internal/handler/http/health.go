// Package http provides HTTP handlers and middleware for the search service (C4).
package http

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"newsfeed/internal/repository"
)

// HealthResponse is the body of GET /health: one key per dependency probed,
// value is that dependency's own health string.
type HealthResponse struct {
	Typesense string `json:"typesense"`
}

// HealthHandler probes the search engine and reports its status. §6 specifies
// the response mirrors the engine's own health string verbatim; a probe
// failure degrades the whole response to 503.
type HealthHandler struct {
	Engine repository.SearchEngine
}

// ServeHTTP returns 200 with the engine's health string on success, or 503
// with status "unavailable" if the probe fails or times out.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, err := h.Engine.Health(ctx)
	statusCode := http.StatusOK
	if err != nil {
		status = "unavailable"
		statusCode = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(HealthResponse{Typesense: status}); err != nil {
		log.Printf("health: failed to encode response: %v", err)
	}
}

// ReadyHandler handles readiness probe requests: ready once the search
// engine responds to a health check at all, regardless of its own status.
type ReadyHandler struct {
	Engine repository.SearchEngine
}

// ServeHTTP returns 200 OK if the search engine is reachable, or 503 if not.
func (h *ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if _, err := h.Engine.Health(ctx); err != nil {
		http.Error(w, "search engine not ready: "+err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ready")); err != nil {
		log.Printf("ready: failed to write response: %v", err)
	}
}

// LiveHandler handles liveness probe requests: a lightweight check that the
// process is running and able to respond at all.
type LiveHandler struct{}

// ServeHTTP always returns 200 OK if the application is running.
func (h *LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("alive")); err != nil {
		log.Printf("alive: failed to write response: %v", err)
	}
}
