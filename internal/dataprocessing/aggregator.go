package dataprocessing

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"vcfo/pkg/contracts/domain"
)

// Label layouts used by the dashboard series
const (
	DayLabelLayout   = "Jan 02"
	MonthLabelLayout = "Jan 2006"
	ExportDateLayout = "02-01-2006"
)

// DefaultTopDays is the length of the top-days ranking
const DefaultTopDays = 10

// NoTopCategory is reported when no channel has positive sales
const NoTopCategory = "N/A"

// AggregatorConfig holds configuration options for the Aggregator
type AggregatorConfig struct {
	TopDays int
}

// Aggregator builds dashboard views from record sets
type Aggregator struct {
	logger  *slog.Logger
	topDays int
}

// NewAggregator creates an aggregator with the given configuration
func NewAggregator(logger *slog.Logger, config AggregatorConfig) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	if config.TopDays <= 0 {
		config.TopDays = DefaultTopDays
	}
	return &Aggregator{
		logger:  logger.With(slog.String("component", "aggregator")),
		topDays: config.TopDays,
	}
}

// Aggregate computes the dashboard view with the default configuration
func Aggregate(records []domain.FinancialRecord) domain.DashboardView {
	return buildView(records, DefaultTopDays)
}

// Aggregate computes the dashboard view for records
func (a *Aggregator) Aggregate(ctx context.Context, records []domain.FinancialRecord) domain.DashboardView {
	view := buildView(records, a.topDays)
	a.logger.DebugContext(ctx, "aggregated dashboard view",
		slog.Int("record_count", len(records)),
		slog.Int("channel_count", len(view.ChannelBreakdown)),
		slog.Int("month_count", len(view.MonthlyComparison)))
	return view
}

func buildView(records []domain.FinancialRecord, topDays int) domain.DashboardView {
	owned := make([]domain.FinancialRecord, len(records))
	copy(owned, records)

	breakdown := ChannelBreakdown(owned)
	summary := summarize(owned, breakdown)

	return domain.DashboardView{
		Records:           owned,
		Summary:           summary,
		Metrics:           computeMetrics(owned, summary),
		ChannelBreakdown:  breakdown,
		TopDays:           TopDays(owned, topDays),
		MonthlyComparison: MonthlyComparison(owned),
		CumulativeData:    CumulativeSeries(owned),
	}
}

func summarize(records []domain.FinancialRecord, breakdown []domain.ChannelTotal) domain.Summary {
	var s domain.Summary
	for _, r := range records {
		s.TotalSales += r.GrossSales
		s.TotalExpense += r.TotalExpense()
		s.TotalTransactions += r.TotalOrders
	}
	s.AvgTransaction = safeDiv(s.TotalSales, s.TotalTransactions)

	s.TopCategory = NoTopCategory
	if len(breakdown) > 0 {
		s.TopCategory = breakdown[0].Name
	}
	return s
}

func computeMetrics(records []domain.FinancialRecord, summary domain.Summary) domain.Metrics {
	var m domain.Metrics
	for _, r := range records {
		m.TotalReturns += r.Returns
		m.TotalMarketingSpend += r.TotalMarketingSpend
		m.TotalGrossProfit += r.GrossProfit
		m.NetProfit += r.NetProfitLoss
	}

	m.ProfitMargin = safeDiv(m.TotalGrossProfit, summary.TotalSales) * 100
	m.ReturnRate = safeDiv(m.TotalReturns, summary.TotalSales) * 100
	m.AvgDailySales = safeDiv(summary.TotalSales, float64(len(records)))
	m.MarketingROI = safeDiv(summary.TotalSales, m.TotalMarketingSpend)
	m.Profitable = m.NetProfit >= 0
	return m
}

// ChannelBreakdown sums sales per channel, omits channels without positive
// totals and orders the rest by total descending. Ties keep the canonical
// channel order.
func ChannelBreakdown(records []domain.FinancialRecord) []domain.ChannelTotal {
	totals := make([]domain.ChannelTotal, 0, len(domain.Channels))
	for _, ch := range domain.Channels {
		var sum float64
		for _, r := range records {
			sum += r.Sales(ch)
		}
		if sum > 0 {
			totals = append(totals, domain.ChannelTotal{Name: string(ch), Value: sum})
		}
	}

	sort.SliceStable(totals, func(i, j int) bool {
		return totals[i].Value > totals[j].Value
	})
	return totals
}

// TopDays ranks records by gross sales and returns the first limit entries.
// Equal sales keep their input order.
func TopDays(records []domain.FinancialRecord, limit int) []domain.DaySales {
	sorted := make([]domain.FinancialRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].GrossSales > sorted[j].GrossSales
	})

	if limit < 0 {
		limit = 0
	}
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}

	days := make([]domain.DaySales, 0, len(sorted))
	for _, r := range sorted {
		days = append(days, domain.DaySales{
			Date:  r.Date.Format(DayLabelLayout),
			Sales: r.GrossSales,
		})
	}
	return days
}

// monthStart truncates t to the first day of its month
func monthStart(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, time.UTC)
}

// MonthlyComparison groups records by calendar month and sums income and
// expense, ordered by month start.
func MonthlyComparison(records []domain.FinancialRecord) []domain.MonthlyComparison {
	months := monthlyTotals(records)
	out := make([]domain.MonthlyComparison, 0, len(months))
	for _, m := range months {
		out = append(out, domain.MonthlyComparison{
			Month:   m.start.Format(MonthLabelLayout),
			Income:  m.sales,
			Expense: m.expense,
		})
	}
	return out
}

// sortedByDate returns a copy of records in ascending date order. Records
// sharing a date keep their input order.
func sortedByDate(records []domain.FinancialRecord) []domain.FinancialRecord {
	sorted := make([]domain.FinancialRecord, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})
	return sorted
}

// CumulativeSeries emits the running net-sales total in date order,
// inclusive of each record.
func CumulativeSeries(records []domain.FinancialRecord) []domain.CumulativePoint {
	sorted := sortedByDate(records)

	points := make([]domain.CumulativePoint, 0, len(sorted))
	var running float64
	for _, r := range sorted {
		running += r.NetSales
		points = append(points, domain.CumulativePoint{
			Date:       r.Date.Format(DayLabelLayout),
			Cumulative: running,
		})
	}
	return points
}
