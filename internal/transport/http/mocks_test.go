package http

import (
	"context"
	"log/slog"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/mock"

	apierrors "vcfo/internal/errors"
	customMiddleware "vcfo/internal/middleware"
	"vcfo/internal/services"
	"vcfo/internal/shared/testutil"
	"vcfo/pkg/contracts/domain"
)

// MockIngestService is a mock implementation of IngestService
type MockIngestService struct {
	mock.Mock
}

func (m *MockIngestService) Ingest(ctx context.Context, ownerID string, upload services.Upload) (*services.IngestResult, error) {
	args := m.Called(ctx, ownerID, upload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.IngestResult), args.Error(1)
}

func (m *MockIngestService) Preview(ctx context.Context, upload services.Upload) (*services.PreviewResult, error) {
	args := m.Called(ctx, upload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.PreviewResult), args.Error(1)
}

func (m *MockIngestService) Delete(ctx context.Context, ownerID string) error {
	args := m.Called(ctx, ownerID)
	return args.Error(0)
}

// MockDashboardService is a mock implementation of DashboardService
type MockDashboardService struct {
	mock.Mock
}

func (m *MockDashboardService) Records(ctx context.Context, ownerID string) ([]domain.FinancialRecord, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.FinancialRecord), args.Error(1)
}

func (m *MockDashboardService) Owners(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockDashboardService) Dashboard(ctx context.Context, ownerID string) (domain.DashboardView, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(domain.DashboardView), args.Error(1)
}

func (m *MockDashboardService) Trend(ctx context.Context, ownerID string, granularity domain.Granularity) ([]domain.TrendPoint, error) {
	args := m.Called(ctx, ownerID, granularity)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TrendPoint), args.Error(1)
}

func (m *MockDashboardService) Insights(ctx context.Context, ownerID string) (domain.Insights, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).(domain.Insights), args.Error(1)
}

// MockExportService is a mock implementation of ExportService
type MockExportService struct {
	mock.Mock
}

func (m *MockExportService) CSV(ctx context.Context, ownerID string) ([]byte, error) {
	args := m.Called(ctx, ownerID)
	return bytesOrNil(args)
}

func (m *MockExportService) Workbook(ctx context.Context, ownerID string) ([]byte, error) {
	args := m.Called(ctx, ownerID)
	return bytesOrNil(args)
}

func (m *MockExportService) HTML(ctx context.Context, ownerID string) ([]byte, error) {
	args := m.Called(ctx, ownerID)
	return bytesOrNil(args)
}

func (m *MockExportService) PDF(ctx context.Context, ownerID string) ([]byte, error) {
	args := m.Called(ctx, ownerID)
	return bytesOrNil(args)
}

func bytesOrNil(args mock.Arguments) ([]byte, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type testServices struct {
	ingest    *MockIngestService
	dashboard *MockDashboardService
	export    *MockExportService
	logs      *testutil.BufferedSlogHandler
	logger    *slog.Logger
}

// setupRouter mounts the owner handler the way the application does
func setupRouter(t *testing.T) (chi.Router, *testServices) {
	logger, logs := testutil.NewTestLogger(t)
	svc := &testServices{
		ingest:    new(MockIngestService),
		dashboard: new(MockDashboardService),
		export:    new(MockExportService),
		logs:      logs,
		logger:    logger,
	}

	errorHandler := apierrors.NewErrorHandler(logger, false)
	validator := customMiddleware.NewRequestValidator(logger, errorHandler)
	handler := NewOwnerHandler(svc.ingest, svc.dashboard, svc.export, validator, errorHandler, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Route("/api", func(r chi.Router) {
		r.Get("/owners", handler.ListOwners)
		r.With(customMiddleware.ContentTypeValidator(errorHandler, UploadContentTypes...)).
			Post("/preview", handler.Preview)
		r.Mount("/owners/{ownerID}", handler.Routes())
	})
	return r, svc
}
