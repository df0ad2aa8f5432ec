package http

import (
	"context"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"strconv"
)

// Download media types
const (
	ContentTypeCSVDownload = "text/csv; charset=utf-8"
	ContentTypeHTML        = "text/html; charset=utf-8"
	ContentTypePDF         = "application/pdf"
)

type exportFunc func(ctx context.Context, ownerID string) ([]byte, error)

// download runs produce and writes its output as an attachment named
// <owner>-<suffix>. inline serves the document for display instead.
func (h *OwnerHandler) download(w http.ResponseWriter, r *http.Request, produce exportFunc, contentType, suffix string, inline bool) {
	owner := ownerID(r)

	body, err := produce(r.Context(), owner)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	disposition := "attachment"
	if inline {
		disposition = "inline"
	}
	filename := fmt.Sprintf("%s-%s", owner, suffix)

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write(body); err != nil {
		h.logger.WarnContext(r.Context(), "failed to write download",
			slog.String("owner_id", owner),
			slog.String("filename", filename),
			slog.String("error", err.Error()))
	}
}

// ExportCSV handles GET /api/owners/{ownerID}/export.csv
func (h *OwnerHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	h.download(w, r, h.export.CSV, ContentTypeCSVDownload, "financial-records.csv", false)
}

// ExportWorkbook handles GET /api/owners/{ownerID}/export.xlsx
func (h *OwnerHandler) ExportWorkbook(w http.ResponseWriter, r *http.Request) {
	h.download(w, r, h.export.Workbook, ContentTypeXLSX, "financial-records.xlsx", false)
}

// ReportHTML handles GET /api/owners/{ownerID}/report.html
func (h *OwnerHandler) ReportHTML(w http.ResponseWriter, r *http.Request) {
	h.download(w, r, h.export.HTML, ContentTypeHTML, "report.html", true)
}

// ReportPDF handles GET /api/owners/{ownerID}/report.pdf
func (h *OwnerHandler) ReportPDF(w http.ResponseWriter, r *http.Request) {
	h.download(w, r, h.export.PDF, ContentTypePDF, "report.pdf", false)
}
