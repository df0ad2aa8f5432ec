package dataprocessing

import (
	"sort"
	"time"

	"vcfo/pkg/contracts/domain"
)

// ProfitMarginSeries returns the gross margin of each record in date order.
// Records without gross sales report a 0% margin.
func ProfitMarginSeries(records []domain.FinancialRecord) []domain.MarginPoint {
	sorted := sortedByDate(records)
	points := make([]domain.MarginPoint, 0, len(sorted))
	for _, r := range sorted {
		points = append(points, domain.MarginPoint{
			Date:         r.Date.Format(DayLabelLayout),
			ProfitMargin: safeDiv(r.GrossProfit, r.GrossSales) * 100,
			GrossProfit:  r.GrossProfit,
		})
	}
	return points
}

type monthTotals struct {
	start     time.Time
	returns   float64
	marketing float64
	sales     float64
	expense   float64
}

// monthlyTotals groups the monthly sums used by the dashboard and insight
// series, in chronological order.
func monthlyTotals(records []domain.FinancialRecord) []*monthTotals {
	index := make(map[time.Time]*monthTotals)
	var months []*monthTotals
	for _, r := range records {
		key := monthStart(r.Date)
		m, ok := index[key]
		if !ok {
			m = &monthTotals{start: key}
			index[key] = m
			months = append(months, m)
		}
		m.returns += r.Returns
		m.marketing += r.TotalMarketingSpend
		m.sales += r.GrossSales
		m.expense += r.TotalExpense()
	}
	sort.SliceStable(months, func(i, j int) bool {
		return months[i].start.Before(months[j].start)
	})
	return months
}

// ReturnsAnalysis reports monthly returns and the return rate against
// gross sales.
func ReturnsAnalysis(records []domain.FinancialRecord) []domain.ReturnsPoint {
	months := monthlyTotals(records)
	out := make([]domain.ReturnsPoint, 0, len(months))
	for _, m := range months {
		out = append(out, domain.ReturnsPoint{
			Month:      m.start.Format(MonthLabelLayout),
			Returns:    m.returns,
			Sales:      m.sales,
			ReturnRate: safeDiv(m.returns, m.sales) * 100,
		})
	}
	return out
}

// MarketingROI relates monthly marketing spend to gross sales. Months
// without marketing spend report an ROI of 0.
func MarketingROI(records []domain.FinancialRecord) []domain.MarketingROIPoint {
	months := monthlyTotals(records)
	out := make([]domain.MarketingROIPoint, 0, len(months))
	for _, m := range months {
		out = append(out, domain.MarketingROIPoint{
			Month:     m.start.Format(MonthLabelLayout),
			Marketing: m.marketing,
			Sales:     m.sales,
			ROI:       safeDiv(m.sales, m.marketing) * 100,
		})
	}
	return out
}

// anomalyFence is the IQR multiplier for the outlier fences
const anomalyFence = 1.5

// Anomalies flags records whose gross sales lie below Q1 - 1.5*IQR or above
// Q3 + 1.5*IQR. Quartiles interpolate linearly between the two nearest
// ranks.
func Anomalies(records []domain.FinancialRecord) domain.AnomalyReport {
	report := domain.AnomalyReport{Points: []domain.AnomalyPoint{}}
	if len(records) == 0 {
		return report
	}

	values := make([]float64, len(records))
	for i, r := range records {
		values[i] = r.GrossSales
	}
	sort.Float64s(values)

	report.Q1 = quantile(values, 0.25)
	report.Q3 = quantile(values, 0.75)
	iqr := report.Q3 - report.Q1
	report.LowerBound = report.Q1 - anomalyFence*iqr
	report.UpperBound = report.Q3 + anomalyFence*iqr

	for _, r := range sortedByDate(records) {
		if r.GrossSales < report.LowerBound || r.GrossSales > report.UpperBound {
			report.Points = append(report.Points, domain.AnomalyPoint{
				Date:       r.Date.Format(DayLabelLayout),
				GrossSales: r.GrossSales,
				High:       r.GrossSales > report.UpperBound,
			})
		}
	}
	return report
}

// quantile reads q from sorted values, interpolating between ranks
func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(pos)
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + (sorted[lo+1]-sorted[lo])*frac
}

// RateOfChange reports, in date order, each record's percentage change in
// gross sales from the record before it. The first record has no
// predecessor and is skipped; a zero predecessor reports 0.
func RateOfChange(records []domain.FinancialRecord) []domain.ChangePoint {
	sorted := sortedByDate(records)
	points := make([]domain.ChangePoint, 0, len(sorted))
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1].GrossSales, sorted[i].GrossSales
		points = append(points, domain.ChangePoint{
			Date:       sorted[i].Date.Format(DayLabelLayout),
			GrossSales: cur,
			ChangePct:  safeDiv(cur-prev, prev) * 100,
		})
	}
	return points
}

// BuildInsights computes every secondary analysis series
func BuildInsights(records []domain.FinancialRecord) domain.Insights {
	return domain.Insights{
		ProfitMargins: ProfitMarginSeries(records),
		Returns:       ReturnsAnalysis(records),
		MarketingROI:  MarketingROI(records),
		Anomalies:     Anomalies(records),
		RateOfChange:  RateOfChange(records),
	}
}
