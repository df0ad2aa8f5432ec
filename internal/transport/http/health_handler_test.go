package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vcfo/internal/config"
	apierrors "vcfo/internal/errors"
	"vcfo/internal/services"
	"vcfo/internal/shared/testutil"
	"vcfo/internal/store"
	ws "vcfo/internal/websocket"
	"vcfo/pkg/contracts"
)

func healthRouter(t *testing.T, recordStore store.RecordStore) chi.Router {
	logger, _ := testutil.NewTestLogger(t)
	handler := NewHealthHandler(services.NewHealthService(recordStore, config.StoreBackendMemory, nil, logger), logger)

	r := chi.NewRouter()
	r.Mount("/api/health", handler.Routes())
	r.Get("/api/version", handler.Version)
	return r
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name           string
		store          store.RecordStore
		path           string
		expectedStatus int
		expectedField  string
		expectedValue  interface{}
	}{
		{"health", store.NewMemoryStore(), "/api/health", http.StatusOK, "status", services.StatusOK},
		{"liveness", store.NewMemoryStore(), "/api/health/live", http.StatusOK, "status", services.StatusAlive},
		{"ready", store.NewMemoryStore(), "/api/health/ready", http.StatusOK, "status", services.StatusReady},
		{"not ready", nil, "/api/health/ready", http.StatusServiceUnavailable, "status", services.StatusNotReady},
		{"version", nil, "/api/version", http.StatusOK, "version", contracts.Version},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			healthRouter(t, tt.store).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Equal(t, tt.expectedValue, decodeBody(t, rec)[tt.expectedField])
		})
	}
}

func TestHealthHandler_Head(t *testing.T) {
	tests := []struct {
		name           string
		store          store.RecordStore
		path           string
		expectedStatus int
	}{
		{"live", nil, "/api/health/live", http.StatusOK},
		{"ready", store.NewMemoryStore(), "/api/health/ready", http.StatusOK},
		{"not ready", nil, "/api/health/ready", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			healthRouter(t, tt.store).ServeHTTP(rec, httptest.NewRequest(http.MethodHead, tt.path, nil))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Zero(t, rec.Body.Len())
			assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
		})
	}
}

func TestMetricsHandler(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	errorHandler := apierrors.NewErrorHandler(logger, false)

	t.Run("scrape delegates to exporter", func(t *testing.T) {
		exporter := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("# HELP ingest_uploads_total\n"))
		})
		r := chi.NewRouter()
		r.Mount("/metrics", NewMetricsHandler(exporter, nil, errorHandler).Routes())

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "ingest_uploads_total")
	})

	t.Run("exporter disabled", func(t *testing.T) {
		r := chi.NewRouter()
		r.Mount("/metrics", NewMetricsHandler(nil, nil, errorHandler).Routes())

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "SERVICE_UNAVAILABLE", decodeBody(t, rec)["error_code"])
	})

	t.Run("realtime stats", func(t *testing.T) {
		hub := ws.NewHub(logger, nil)
		hub.Start()
		defer hub.Stop()

		r := chi.NewRouter()
		r.Mount("/metrics", NewMetricsHandler(nil, hub, errorHandler).Routes())

		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics/realtime", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		data := decodeBody(t, rec)["data"].(map[string]interface{})
		assert.Equal(t, float64(0), data["active_clients"])
	})
}
