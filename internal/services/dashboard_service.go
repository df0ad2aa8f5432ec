package services

import (
	"context"
	"log/slog"

	"vcfo/internal/config"
	"vcfo/internal/dataprocessing"
	"vcfo/internal/infrastructure"
	"vcfo/internal/store"
	"vcfo/pkg/contracts/domain"
)

// DashboardService derives dashboard views from stored records. Views are
// recomputed on every call and never cached.
type DashboardService struct {
	store      store.RecordStore
	aggregator *dataprocessing.Aggregator
	metrics    *infrastructure.BusinessMetrics
	logger     *slog.Logger
}

// NewDashboardService creates the dashboard service
func NewDashboardService(recordStore store.RecordStore, metrics *infrastructure.BusinessMetrics, cfg config.IngestConfig, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	return &DashboardService{
		store:      recordStore,
		aggregator: dataprocessing.NewAggregator(logger, dataprocessing.AggregatorConfig{TopDays: cfg.TopDaysLimit}),
		metrics:    metrics,
		logger:     logger.With(slog.String("service", "dashboard")),
	}
}

// Records returns the owner's stored records ascending by date
func (s *DashboardService) Records(ctx context.Context, ownerID string) ([]domain.FinancialRecord, error) {
	records, err := s.store.List(ctx, ownerID)
	if err != nil {
		return nil, storeError(err, "load")
	}
	return records, nil
}

// Owners lists the owners that have records
func (s *DashboardService) Owners(ctx context.Context) ([]string, error) {
	owners, err := s.store.Owners(ctx)
	if err != nil {
		return nil, storeError(err, "list")
	}
	return owners, nil
}

// Dashboard aggregates the owner's records into a DashboardView
func (s *DashboardService) Dashboard(ctx context.Context, ownerID string) (domain.DashboardView, error) {
	records, err := s.Records(ctx, ownerID)
	if err != nil {
		return domain.DashboardView{}, err
	}

	view := s.aggregator.Aggregate(ctx, records)
	infrastructure.RecordDashboardBuild(ctx, s.metrics, "dashboard")
	return view, nil
}

// Trend buckets the owner's sales and profit. An empty granularity means
// daily.
func (s *DashboardService) Trend(ctx context.Context, ownerID string, granularity domain.Granularity) ([]domain.TrendPoint, error) {
	if granularity == "" {
		granularity = domain.GranularityDaily
	}
	if !granularity.Valid() {
		return nil, ErrInvalidGranularity
	}

	records, err := s.Records(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	points, err := dataprocessing.TrendSeries(records, granularity)
	if err != nil {
		return nil, ErrInvalidGranularity
	}
	infrastructure.RecordDashboardBuild(ctx, s.metrics, "trend_"+string(granularity))
	return points, nil
}

// Insights computes the profit margin, returns, marketing ROI, anomaly and
// rate-of-change series
func (s *DashboardService) Insights(ctx context.Context, ownerID string) (domain.Insights, error) {
	records, err := s.Records(ctx, ownerID)
	if err != nil {
		return domain.Insights{}, err
	}

	insights := dataprocessing.BuildInsights(records)
	infrastructure.RecordDashboardBuild(ctx, s.metrics, "insights")
	return insights, nil
}
