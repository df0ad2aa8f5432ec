package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"vcfo/internal/config"
	"vcfo/internal/dataprocessing"
	"vcfo/internal/infrastructure"
	"vcfo/internal/store"
	"vcfo/pkg/contracts/domain"
	"vcfo/pkg/contracts/events"
)

// UploadFormat identifies how an upload body is encoded
type UploadFormat string

const (
	FormatCSV  UploadFormat = "csv"
	FormatXLSX UploadFormat = "xlsx"
)

// FormatForFilename picks the upload format from a file name. Anything
// that is not an .xlsx workbook is treated as CSV text.
func FormatForFilename(name string) UploadFormat {
	if strings.EqualFold(filepath.Ext(strings.TrimSpace(name)), ".xlsx") {
		return FormatXLSX
	}
	return FormatCSV
}

// Upload is one uploaded export
type Upload struct {
	Format   UploadFormat
	Filename string
	Body     io.Reader
}

// IngestResult reports the outcome of a stored upload
type IngestResult struct {
	OwnerID  string `json:"owner_id"`
	Rows     int    `json:"rows"`
	Accepted int    `json:"accepted"`
	Dropped  int    `json:"dropped"`
}

// PreviewResult is an upload parsed and aggregated without being stored
type PreviewResult struct {
	Rows      int                      `json:"rows"`
	Accepted  int                      `json:"accepted"`
	Dropped   int                      `json:"dropped"`
	Preview   []domain.FinancialRecord `json:"preview"`
	Dashboard domain.DashboardView     `json:"dashboard"`
}

// IngestService validates uploads, replaces an owner's records and
// notifies the owner's websocket clients.
type IngestService struct {
	store       store.RecordStore
	parser      *dataprocessing.Parser
	aggregator  *dataprocessing.Aggregator
	publisher   EventPublisher
	metrics     *infrastructure.BusinessMetrics
	previewRows int
	logger      *slog.Logger
}

// NewIngestService creates the ingest service. publisher and metrics may
// be nil.
func NewIngestService(recordStore store.RecordStore, publisher EventPublisher, metrics *infrastructure.BusinessMetrics, cfg config.IngestConfig, logger *slog.Logger) *IngestService {
	if logger == nil {
		logger = slog.Default()
	}
	if publisher == nil {
		publisher = noopPublisher{}
	}
	previewRows := cfg.PreviewRows
	if previewRows <= 0 {
		previewRows = config.DefaultPreviewRows
	}

	return &IngestService{
		store:       recordStore,
		parser:      dataprocessing.NewParser(logger),
		aggregator:  dataprocessing.NewAggregator(logger, dataprocessing.AggregatorConfig{TopDays: cfg.TopDaysLimit}),
		publisher:   publisher,
		metrics:     metrics,
		previewRows: previewRows,
		logger:      logger.With(slog.String("service", "ingest")),
	}
}

// parse reads and validates an upload. The header is checked before any
// row is converted.
func (s *IngestService) parse(ctx context.Context, upload Upload) ([]domain.FinancialRecord, dataprocessing.ParseStats, int64, error) {
	body, err := io.ReadAll(upload.Body)
	if err != nil {
		return nil, dataprocessing.ParseStats{}, 0, err
	}
	size := int64(len(body))
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, dataprocessing.ParseStats{}, size, ErrEmptyUpload
	}

	switch upload.Format {
	case FormatXLSX:
		records, stats, err := s.parser.ParseWorkbook(ctx, bytes.NewReader(body))
		return records, stats, size, err
	case FormatCSV, "":
		raw := string(body)
		if err := dataprocessing.CheckHeaders(raw); err != nil {
			return nil, dataprocessing.ParseStats{}, size, err
		}
		records, stats, err := s.parser.Parse(ctx, raw)
		return records, stats, size, err
	default:
		return nil, dataprocessing.ParseStats{}, size, fmt.Errorf("%w: %s", ErrUnsupportedFormat, upload.Format)
	}
}

// outcomeOf classifies a parse error for metrics
func outcomeOf(err error) infrastructure.UploadOutcome {
	var formatErr *dataprocessing.FormatError
	var parseErr *dataprocessing.ParseError
	switch {
	case err == nil:
		return infrastructure.UploadAccepted
	case errors.As(err, &formatErr):
		return infrastructure.UploadMissingColumns
	case errors.As(err, &parseErr):
		return infrastructure.UploadMalformed
	default:
		return infrastructure.UploadFailed
	}
}

// Ingest replaces the owner's records with the parsed upload. Nothing is
// stored when validation or parsing fails.
func (s *IngestService) Ingest(ctx context.Context, ownerID string, upload Upload) (*IngestResult, error) {
	start := time.Now()
	records, stats, size, err := s.parse(ctx, upload)
	infrastructure.RecordUpload(ctx, s.metrics, outcomeOf(err), stats.Accepted, stats.Dropped, size, time.Since(start))
	if err != nil {
		s.logger.WarnContext(ctx, "upload rejected",
			slog.String("owner_id", ownerID),
			slog.String("format", string(upload.Format)),
			slog.String("filename", upload.Filename),
			slog.String("error", err.Error()))
		return nil, err
	}

	if err := s.store.Replace(ctx, ownerID, records); err != nil {
		s.logger.ErrorContext(ctx, "failed to store records",
			slog.String("owner_id", ownerID),
			slog.String("error", err.Error()))
		return nil, storeError(err, "store")
	}

	s.logger.InfoContext(ctx, "records replaced",
		slog.String("owner_id", ownerID),
		slog.String("format", string(upload.Format)),
		slog.Int("rows", stats.Rows),
		slog.Int("accepted", stats.Accepted),
		slog.Int("dropped", stats.Dropped),
		slog.Int64("bytes", size))

	s.publish(ctx, ownerID, events.MessageTypeRecordsReplaced, events.RecordsReplaced{
		Source:   string(upload.Format),
		Rows:     stats.Rows,
		Accepted: stats.Accepted,
		Dropped:  stats.Dropped,
	})

	return &IngestResult{
		OwnerID:  ownerID,
		Rows:     stats.Rows,
		Accepted: stats.Accepted,
		Dropped:  stats.Dropped,
	}, nil
}

// Preview parses and aggregates an upload without storing it
func (s *IngestService) Preview(ctx context.Context, upload Upload) (*PreviewResult, error) {
	records, stats, _, err := s.parse(ctx, upload)
	if err != nil {
		return nil, err
	}

	preview := records
	if len(preview) > s.previewRows {
		preview = preview[:s.previewRows]
	}

	infrastructure.RecordDashboardBuild(ctx, s.metrics, "preview")
	return &PreviewResult{
		Rows:      stats.Rows,
		Accepted:  stats.Accepted,
		Dropped:   stats.Dropped,
		Preview:   append([]domain.FinancialRecord(nil), preview...),
		Dashboard: s.aggregator.Aggregate(ctx, records),
	}, nil
}

// Delete removes every record of the owner
func (s *IngestService) Delete(ctx context.Context, ownerID string) error {
	existing, err := s.store.List(ctx, ownerID)
	if err != nil {
		return storeError(err, "load")
	}
	if err := s.store.Delete(ctx, ownerID); err != nil {
		return storeError(err, "delete")
	}

	s.logger.InfoContext(ctx, "records deleted",
		slog.String("owner_id", ownerID),
		slog.Int("removed", len(existing)))

	s.publish(ctx, ownerID, events.MessageTypeRecordsDeleted, events.RecordsDeleted{Removed: len(existing)})
	return nil
}

// publish notifies clients. A failed notification never fails the
// mutation that caused it.
func (s *IngestService) publish(ctx context.Context, ownerID string, msgType events.MessageType, data interface{}) {
	if err := s.publisher.Publish(ctx, ownerID, msgType, data); err != nil {
		s.logger.WarnContext(ctx, "failed to publish record event",
			slog.String("owner_id", ownerID),
			slog.String("type", string(msgType)),
			slog.String("error", err.Error()))
	}
}
