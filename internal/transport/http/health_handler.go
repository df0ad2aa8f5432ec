package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"vcfo/internal/services"
)

// HealthHandler serves the probe endpoints under /api/health
type HealthHandler struct {
	checker HealthChecker
	logger  *slog.Logger
}

func NewHealthHandler(checker HealthChecker, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		checker: checker,
		logger:  logger.With(slog.String("handler", "health")),
	}
}

// Routes mounts at /api/health. Probes answer HEAD as well as GET.
func (h *HealthHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(noStore)

	r.Get("/", h.HealthCheck)
	r.Get("/live", h.LivenessCheck)
	r.Head("/live", h.LivenessCheck)
	r.Get("/ready", h.ReadinessCheck)
	r.Head("/ready", h.ReadinessCheck)
	return r
}

func (h *HealthHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.checker.HealthCheck(r.Context()))
}

// ReadinessCheck answers 503 while a dependency is down so load balancers
// take the instance out of rotation
func (h *HealthHandler) ReadinessCheck(w http.ResponseWriter, r *http.Request) {
	status := h.checker.ReadinessCheck(r.Context())
	code := http.StatusOK
	if status.Status != services.StatusReady {
		code = http.StatusServiceUnavailable
	}
	if r.Method == http.MethodHead {
		w.WriteHeader(code)
		return
	}
	render.Status(r, code)
	render.JSON(w, r, status)
}

func (h *HealthHandler) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}
	render.JSON(w, r, h.checker.LivenessCheck(r.Context()))
}

// Version handles GET /api/version
func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.checker.Version())
}

func noStore(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
