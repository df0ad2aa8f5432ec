package dataprocessing

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"vcfo/internal/shared/testutil"
	"vcfo/pkg/contracts/domain"
)

func insightFixture() []domain.FinancialRecord {
	return []domain.FinancialRecord{
		testutil.NewRecord(testutil.Day(2024, time.March, 2), 400,
			testutil.WithProfit(100, 0), testutil.WithReturns(40), testutil.WithCosts(0, 100, 0)),
		testutil.NewRecord(testutil.Day(2024, time.January, 15), 0,
			testutil.WithProfit(-20, 0), testutil.WithReturns(10)),
		testutil.NewRecord(testutil.Day(2024, time.March, 9), 600,
			testutil.WithProfit(300, 0), testutil.WithReturns(60), testutil.WithCosts(0, 150, 0)),
	}
}

func TestProfitMarginSeries(t *testing.T) {
	points := ProfitMarginSeries(insightFixture())

	assert.Equal(t, []domain.MarginPoint{
		{Date: "Jan 15", ProfitMargin: 0, GrossProfit: -20},
		{Date: "Mar 02", ProfitMargin: 25, GrossProfit: 100},
		{Date: "Mar 09", ProfitMargin: 50, GrossProfit: 300},
	}, points)
}

func TestReturnsAnalysis(t *testing.T) {
	points := ReturnsAnalysis(insightFixture())

	assert.Equal(t, []domain.ReturnsPoint{
		{Month: "Jan 2024", Returns: 10, Sales: 0, ReturnRate: 0},
		{Month: "Mar 2024", Returns: 100, Sales: 1000, ReturnRate: 10},
	}, points)
}

func TestMarketingROI(t *testing.T) {
	points := MarketingROI(insightFixture())

	assert.Equal(t, []domain.MarketingROIPoint{
		{Month: "Jan 2024", Marketing: 0, Sales: 0, ROI: 0},
		{Month: "Mar 2024", Marketing: 250, Sales: 1000, ROI: 400},
	}, points)
}

func TestBuildInsights_FiniteRatios(t *testing.T) {
	insights := BuildInsights(insightFixture())

	for _, p := range insights.ProfitMargins {
		assert.False(t, math.IsNaN(p.ProfitMargin) || math.IsInf(p.ProfitMargin, 0))
	}
	for _, p := range insights.Returns {
		assert.False(t, math.IsNaN(p.ReturnRate) || math.IsInf(p.ReturnRate, 0))
	}
	for _, p := range insights.MarketingROI {
		assert.False(t, math.IsNaN(p.ROI) || math.IsInf(p.ROI, 0))
	}
	for _, p := range insights.RateOfChange {
		assert.False(t, math.IsNaN(p.ChangePct) || math.IsInf(p.ChangePct, 0))
	}

	empty := BuildInsights(nil)
	assert.NotNil(t, empty.ProfitMargins)
	assert.Empty(t, empty.Returns)
}

func TestAnomalies(t *testing.T) {
	sales := []float64{100, 110, 105, 95, 1000, 100}
	records := make([]domain.FinancialRecord, len(sales))
	for i, s := range sales {
		records[i] = testutil.NewRecord(testutil.Day(2024, time.April, 6-i), s)
	}

	report := Anomalies(records)

	assert.Equal(t, 100.0, report.Q1)
	assert.Equal(t, 108.75, report.Q3)
	assert.Equal(t, 86.875, report.LowerBound)
	assert.Equal(t, 121.875, report.UpperBound)
	assert.Equal(t, []domain.AnomalyPoint{
		{Date: "Apr 02", GrossSales: 1000, High: true},
	}, report.Points)

	t.Run("low outlier", func(t *testing.T) {
		records[4].GrossSales = 1
		report := Anomalies(records)
		assert.Equal(t, []domain.AnomalyPoint{
			{Date: "Apr 02", GrossSales: 1, High: false},
		}, report.Points)
	})

	t.Run("flat series", func(t *testing.T) {
		flat := insightFixture()
		for i := range flat {
			flat[i].GrossSales = 50
		}
		assert.Empty(t, Anomalies(flat).Points)
	})

	t.Run("empty", func(t *testing.T) {
		report := Anomalies(nil)
		assert.NotNil(t, report.Points)
		assert.Empty(t, report.Points)
		assert.Zero(t, report.UpperBound)
	})
}

func TestQuantile(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		q      float64
		want   float64
	}{
		{"single", []float64{7}, 0.25, 7},
		{"exact rank", []float64{1, 2, 3, 4, 5}, 0.25, 2},
		{"interpolated", []float64{1, 2, 3, 4}, 0.75, 3.25},
		{"max", []float64{1, 2, 3, 4}, 1, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, quantile(tt.values, tt.q))
		})
	}
}

func TestRateOfChange(t *testing.T) {
	points := RateOfChange(insightFixture())

	assert.Equal(t, []domain.ChangePoint{
		{Date: "Mar 02", GrossSales: 400, ChangePct: 0},
		{Date: "Mar 09", GrossSales: 600, ChangePct: 50},
	}, points)

	assert.Empty(t, RateOfChange(insightFixture()[:1]))
	assert.NotNil(t, RateOfChange(nil))
}
