package dataprocessing

import (
	"fmt"
	"sort"
	"time"

	"vcfo/pkg/contracts/domain"
)

// weekStart returns the Sunday that opens t's week
func weekStart(t time.Time) time.Time {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// TrendSeries buckets gross sales and net profit/loss for the trend chart.
//
// Daily emits one point per record in input order. Weekly (weeks start on
// Sunday) and monthly group records by bucket start and emit buckets in
// chronological order regardless of input order.
func TrendSeries(records []domain.FinancialRecord, granularity domain.Granularity) ([]domain.TrendPoint, error) {
	switch granularity {
	case domain.GranularityDaily:
		points := make([]domain.TrendPoint, 0, len(records))
		for _, r := range records {
			points = append(points, domain.TrendPoint{
				Label:  r.Date.Format(DayLabelLayout),
				Start:  r.Date,
				Sales:  r.GrossSales,
				Profit: r.NetProfitLoss,
			})
		}
		return points, nil
	case domain.GranularityWeekly:
		return bucketTrend(records, weekStart, DayLabelLayout), nil
	case domain.GranularityMonthly:
		return bucketTrend(records, monthStart, MonthLabelLayout), nil
	default:
		return nil, fmt.Errorf("unsupported granularity %q", granularity)
	}
}

func bucketTrend(records []domain.FinancialRecord, startOf func(time.Time) time.Time, layout string) []domain.TrendPoint {
	index := make(map[time.Time]int)
	points := make([]domain.TrendPoint, 0)

	for _, r := range records {
		key := startOf(r.Date)
		i, ok := index[key]
		if !ok {
			i = len(points)
			index[key] = i
			points = append(points, domain.TrendPoint{Label: key.Format(layout), Start: key})
		}
		points[i].Sales += r.GrossSales
		points[i].Profit += r.NetProfitLoss
	}

	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Start.Before(points[j].Start)
	})
	return points
}
