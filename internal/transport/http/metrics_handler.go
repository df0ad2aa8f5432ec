package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "vcfo/internal/errors"
	ws "vcfo/internal/websocket"
)

// MetricsHandler exposes the Prometheus scrape endpoint and the realtime
// connection counters
type MetricsHandler struct {
	prometheus   http.Handler
	hub          *ws.Hub
	errorHandler *apierrors.ErrorHandler
}

// NewMetricsHandler creates a new metrics handler. prometheus is nil when
// the Prometheus exporter is disabled.
func NewMetricsHandler(prometheus http.Handler, hub *ws.Hub, errorHandler *apierrors.ErrorHandler) *MetricsHandler {
	return &MetricsHandler{
		prometheus:   prometheus,
		hub:          hub,
		errorHandler: errorHandler,
	}
}

// Routes sets up the metrics routes
func (h *MetricsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Scrape)
	r.Get("/realtime", h.Realtime)
	return r
}

// Scrape handles GET /metrics
func (h *MetricsHandler) Scrape(w http.ResponseWriter, r *http.Request) {
	if h.prometheus == nil {
		h.errorHandler.HandleError(w, r, apierrors.NewWithDetails(
			http.StatusServiceUnavailable,
			"SERVICE_UNAVAILABLE",
			"Prometheus exporter is disabled",
			map[string]interface{}{"setting": "METRIC_EXPORTER"},
		))
		return
	}
	h.prometheus.ServeHTTP(w, r)
}

// Realtime handles GET /metrics/realtime
func (h *MetricsHandler) Realtime(w http.ResponseWriter, r *http.Request) {
	var stats ws.HubStats
	if h.hub != nil {
		stats = h.hub.Stats()
	}
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   stats,
	})
}
