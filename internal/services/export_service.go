package services

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"vcfo/internal/config"
	"vcfo/internal/dataprocessing"
	apperrors "vcfo/internal/errors"
	"vcfo/internal/exporter"
	"vcfo/internal/infrastructure"
	"vcfo/internal/report"
	"vcfo/internal/store"
	"vcfo/pkg/contracts/domain"
)

// Export formats
const (
	ExportCSV  = "csv"
	ExportXLSX = "xlsx"
	ExportHTML = "html"
	ExportPDF  = "pdf"
)

// ErrReportUnavailable is returned for PDF exports when no renderer is
// configured
var ErrReportUnavailable = apperrors.ErrServiceUnavailable.WithMessage("PDF rendering is not available")

// ExportService produces downloadable exports of an owner's records
type ExportService struct {
	store      store.RecordStore
	aggregator *dataprocessing.Aggregator
	renderer   report.PDFRenderer
	metrics    *infrastructure.BusinessMetrics
	logger     *slog.Logger
}

// NewExportService creates the export service. renderer may be nil, in
// which case PDF exports fail with ErrReportUnavailable.
func NewExportService(recordStore store.RecordStore, renderer report.PDFRenderer, metrics *infrastructure.BusinessMetrics, cfg config.IngestConfig, logger *slog.Logger) *ExportService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportService{
		store:      recordStore,
		aggregator: dataprocessing.NewAggregator(logger, dataprocessing.AggregatorConfig{TopDays: cfg.TopDaysLimit}),
		renderer:   renderer,
		metrics:    metrics,
		logger:     logger.With(slog.String("service", "export")),
	}
}

func (s *ExportService) records(ctx context.Context, ownerID string) ([]domain.FinancialRecord, error) {
	records, err := s.store.List(ctx, ownerID)
	if err != nil {
		return nil, storeError(err, "load")
	}
	return records, nil
}

func (s *ExportService) done(ctx context.Context, ownerID, format string, size int, start time.Time) {
	infrastructure.RecordExport(ctx, s.metrics, format)
	s.logger.InfoContext(ctx, "export produced",
		slog.String("owner_id", ownerID),
		slog.String("format", format),
		slog.Int("bytes", size),
		slog.Duration("duration", time.Since(start)))
}

// CSV serializes the owner's records in the export column layout. The
// output starts with a UTF-8 BOM so spreadsheet tools detect the encoding.
func (s *ExportService) CSV(ctx context.Context, ownerID string) ([]byte, error) {
	start := time.Now()
	records, err := s.records(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := exporter.WriteRecords(&buf, records, exporter.WriteOptions{BOMPrefix: true}); err != nil {
		return nil, apperrors.NewExportError("failed to write CSV export", err)
	}
	s.done(ctx, ownerID, ExportCSV, buf.Len(), start)
	return buf.Bytes(), nil
}

// Workbook builds the XLSX export with a records and a summary sheet
func (s *ExportService) Workbook(ctx context.Context, ownerID string) ([]byte, error) {
	start := time.Now()
	records, err := s.records(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := exporter.WriteWorkbook(&buf, s.aggregator.Aggregate(ctx, records)); err != nil {
		return nil, apperrors.NewExportError("failed to write workbook export", err)
	}
	s.done(ctx, ownerID, ExportXLSX, buf.Len(), start)
	return buf.Bytes(), nil
}

// reportData computes the dashboard view and the insight series side by
// side from one snapshot of the owner's records.
func (s *ExportService) reportData(ctx context.Context, ownerID string) (report.Data, error) {
	records, err := s.records(ctx, ownerID)
	if err != nil {
		return report.Data{}, err
	}

	data := report.Data{OwnerID: ownerID, GeneratedAt: time.Now().UTC()}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		data.View = s.aggregator.Aggregate(gctx, records)
		return nil
	})
	g.Go(func() error {
		data.Insights = dataprocessing.BuildInsights(records)
		return nil
	})
	if err := g.Wait(); err != nil {
		return report.Data{}, err
	}
	return data, nil
}

// HTML renders the printable report
func (s *ExportService) HTML(ctx context.Context, ownerID string) ([]byte, error) {
	start := time.Now()
	data, err := s.reportData(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	html, err := report.HTML(data)
	if err != nil {
		return nil, apperrors.NewExportError("failed to render report", err)
	}
	s.done(ctx, ownerID, ExportHTML, len(html), start)
	return html, nil
}

// PDF renders the report and prints it through the configured renderer
func (s *ExportService) PDF(ctx context.Context, ownerID string) ([]byte, error) {
	if s.renderer == nil {
		return nil, ErrReportUnavailable
	}

	start := time.Now()
	data, err := s.reportData(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	html, err := report.HTML(data)
	if err != nil {
		return nil, apperrors.NewExportError("failed to render report", err)
	}

	pdf, err := s.renderer.RenderPDF(ctx, html)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, err
		}
		if errors.Is(err, report.ErrRendererUnavailable) {
			return nil, ErrReportUnavailable
		}
		return nil, apperrors.NewExportError("failed to render PDF", err)
	}
	s.done(ctx, ownerID, ExportPDF, len(pdf), start)
	return pdf, nil
}
