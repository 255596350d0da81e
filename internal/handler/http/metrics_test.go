package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestMetricsMiddleware_PathNormalization tests that the metrics middleware
// normalizes paths without panicking or altering the wrapped handler's response.
func TestMetricsMiddleware_PathNormalization(t *testing.T) {
	handler := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}))

	tests := []struct {
		name string
		path string
	}{
		{name: "search endpoint", path: "/search"},
		{name: "click endpoint with ids", path: "/click/user-123/doc-456"},
		{name: "health endpoint", path: "/health"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Errorf("expected status 200, got %d", w.Code)
			}
			if w.Body.String() != "OK" {
				t.Errorf("expected body OK, got %q", w.Body.String())
			}
		})
	}
}

// TestMetricsMiddleware_PropagatesStatusCode verifies non-200 responses pass
// through the wrapping responseWriter unchanged.
func TestMetricsMiddleware_PropagatesStatusCode(t *testing.T) {
	handler := MetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	req := httptest.NewRequest(http.MethodGet, "/search", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
}

func TestMetricsHandler_ServesPrometheusFormat(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	w := httptest.NewRecorder()

	MetricsHandler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", w.Code)
	}
	contentType := w.Header().Get("Content-Type")
	if contentType == "" {
		t.Error("expected a Content-Type header to be set")
	}
}
