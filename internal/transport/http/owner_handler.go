package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apierrors "vcfo/internal/errors"
	"vcfo/internal/infrastructure"
	customMiddleware "vcfo/internal/middleware"
	"vcfo/pkg/contracts/domain"
)

// OwnerHandler serves the owner scoped record, dashboard and export
// endpoints under /api/owners/{ownerID}
type OwnerHandler struct {
	ingest       IngestService
	dashboard    DashboardService
	export       ExportService
	validator    *customMiddleware.RequestValidator
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewOwnerHandler creates a new owner handler
func NewOwnerHandler(
	ingest IngestService,
	dashboard DashboardService,
	export ExportService,
	validator *customMiddleware.RequestValidator,
	errorHandler *apierrors.ErrorHandler,
	logger *slog.Logger,
) *OwnerHandler {
	return &OwnerHandler{
		ingest:       ingest,
		dashboard:    dashboard,
		export:       export,
		validator:    validator,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("component", "owner_handler")),
	}
}

// Routes returns the owner routes. The router must be mounted on a
// pattern carrying the {ownerID} parameter.
func (h *OwnerHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.validator.RequireOwner)

	// Records
	r.With(customMiddleware.ContentTypeValidator(h.errorHandler, UploadContentTypes...)).
		Post("/records", h.UploadRecords)
	r.Get("/records", h.GetRecords)
	r.Delete("/records", h.DeleteRecords)

	// Derived views
	r.Get("/dashboard", h.GetDashboard)
	r.Get("/trend", h.GetTrend)
	r.Get("/insights", h.GetInsights)

	// Downloads
	r.Get("/export.csv", h.ExportCSV)
	r.Get("/export.xlsx", h.ExportWorkbook)
	r.Get("/report.html", h.ReportHTML)
	r.Get("/report.pdf", h.ReportPDF)

	return r
}

func ownerID(r *http.Request) string {
	if id := infrastructure.GetOwnerID(r.Context()); id != "" {
		return id
	}
	return chi.URLParam(r, customMiddleware.OwnerIDParam)
}

// UploadRecords handles POST /api/owners/{ownerID}/records
func (h *OwnerHandler) UploadRecords(w http.ResponseWriter, r *http.Request) {
	owner := ownerID(r)

	upload, cleanup, err := readUpload(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	defer cleanup()

	h.logger.InfoContext(r.Context(), "receiving upload",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("owner_id", owner),
		slog.String("format", string(upload.Format)),
		slog.String("filename", upload.Filename),
	)

	result, err := h.ingest.Ingest(r.Context(), owner, upload)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   result,
	})
}

// GetRecords handles GET /api/owners/{ownerID}/records
func (h *OwnerHandler) GetRecords(w http.ResponseWriter, r *http.Request) {
	records, err := h.dashboard.Records(r.Context(), ownerID(r))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   records,
		"count":  len(records),
	})
}

// DeleteRecords handles DELETE /api/owners/{ownerID}/records
func (h *OwnerHandler) DeleteRecords(w http.ResponseWriter, r *http.Request) {
	if err := h.ingest.Delete(r.Context(), ownerID(r)); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetDashboard handles GET /api/owners/{ownerID}/dashboard
func (h *OwnerHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	view, err := h.dashboard.Dashboard(r.Context(), ownerID(r))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   view,
	})
}

// GetTrend handles GET /api/owners/{ownerID}/trend?period=daily|weekly|monthly
func (h *OwnerHandler) GetTrend(w http.ResponseWriter, r *http.Request) {
	query := customMiddleware.TrendQuery{Period: r.URL.Query().Get("period")}
	if err := h.validator.ValidateStruct(query); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	granularity := domain.Granularity(query.Period)
	if granularity == "" {
		granularity = domain.GranularityDaily
	}

	points, err := h.dashboard.Trend(r.Context(), ownerID(r), granularity)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"period": granularity,
		"data":   points,
	})
}

// GetInsights handles GET /api/owners/{ownerID}/insights
func (h *OwnerHandler) GetInsights(w http.ResponseWriter, r *http.Request) {
	insights, err := h.dashboard.Insights(r.Context(), ownerID(r))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   insights,
	})
}

// ListOwners handles GET /api/owners
func (h *OwnerHandler) ListOwners(w http.ResponseWriter, r *http.Request) {
	owners, err := h.dashboard.Owners(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   owners,
		"count":  len(owners),
	})
}

// Preview handles POST /api/preview. The upload is parsed and aggregated
// but nothing is stored.
func (h *OwnerHandler) Preview(w http.ResponseWriter, r *http.Request) {
	upload, cleanup, err := readUpload(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	defer cleanup()

	result, err := h.ingest.Preview(r.Context(), upload)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   result,
	})
}
