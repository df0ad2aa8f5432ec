package http

import (
	"context"

	"vcfo/internal/services"
	"vcfo/pkg/contracts"
	"vcfo/pkg/contracts/domain"
)

// IngestService defines the upload operations used by the handlers
type IngestService interface {
	Ingest(ctx context.Context, ownerID string, upload services.Upload) (*services.IngestResult, error)
	Preview(ctx context.Context, upload services.Upload) (*services.PreviewResult, error)
	Delete(ctx context.Context, ownerID string) error
}

// DashboardService defines the read operations used by the handlers
type DashboardService interface {
	Records(ctx context.Context, ownerID string) ([]domain.FinancialRecord, error)
	Owners(ctx context.Context) ([]string, error)
	Dashboard(ctx context.Context, ownerID string) (domain.DashboardView, error)
	Trend(ctx context.Context, ownerID string, granularity domain.Granularity) ([]domain.TrendPoint, error)
	Insights(ctx context.Context, ownerID string) (domain.Insights, error)
}

// ExportService defines the download operations used by the handlers
type ExportService interface {
	CSV(ctx context.Context, ownerID string) ([]byte, error)
	Workbook(ctx context.Context, ownerID string) ([]byte, error)
	HTML(ctx context.Context, ownerID string) ([]byte, error)
	PDF(ctx context.Context, ownerID string) ([]byte, error)
}

// HealthChecker reports process and dependency health
type HealthChecker interface {
	HealthCheck(ctx context.Context) services.HealthStatus
	ReadinessCheck(ctx context.Context) services.HealthStatus
	LivenessCheck(ctx context.Context) services.HealthStatus
	Version() contracts.VersionInfo
}
