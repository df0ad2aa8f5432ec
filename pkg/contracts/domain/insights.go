package domain

import "time"

// Granularity selects the bucket size of a trend series
type Granularity string

const (
	GranularityDaily   Granularity = "daily"
	GranularityWeekly  Granularity = "weekly"
	GranularityMonthly Granularity = "monthly"
)

// Valid reports whether g is a supported granularity
func (g Granularity) Valid() bool {
	switch g {
	case GranularityDaily, GranularityWeekly, GranularityMonthly:
		return true
	}
	return false
}

// TrendPoint is one bucket of a sales/profit trend series
type TrendPoint struct {
	Label  string    `json:"label"`
	Start  time.Time `json:"start"`
	Sales  float64   `json:"sales"`
	Profit float64   `json:"profit"`
}

// MarginPoint is the gross margin of a single record
type MarginPoint struct {
	Date         string  `json:"date"`
	ProfitMargin float64 `json:"profit_margin"`
	GrossProfit  float64 `json:"gross_profit"`
}

// ReturnsPoint summarizes returns for a calendar month
type ReturnsPoint struct {
	Month      string  `json:"month"`
	Returns    float64 `json:"returns"`
	Sales      float64 `json:"sales"`
	ReturnRate float64 `json:"return_rate"`
}

// MarketingROIPoint relates marketing spend to sales for a calendar month
type MarketingROIPoint struct {
	Month     string  `json:"month"`
	Marketing float64 `json:"marketing"`
	Sales     float64 `json:"sales"`
	ROI       float64 `json:"roi"`
}

// AnomalyPoint is a record whose gross sales fall outside the IQR bounds
type AnomalyPoint struct {
	Date       string  `json:"date"`
	GrossSales float64 `json:"gross_sales"`
	High       bool    `json:"high"`
}

// AnomalyReport holds the quartiles, the 1.5 x IQR fences and the records
// outside them
type AnomalyReport struct {
	Q1         float64        `json:"q1"`
	Q3         float64        `json:"q3"`
	LowerBound float64        `json:"lower_bound"`
	UpperBound float64        `json:"upper_bound"`
	Points     []AnomalyPoint `json:"points"`
}

// ChangePoint is the percentage change in gross sales from the previous
// record
type ChangePoint struct {
	Date       string  `json:"date"`
	GrossSales float64 `json:"gross_sales"`
	ChangePct  float64 `json:"change_pct"`
}

// Insights bundles the secondary analysis series
type Insights struct {
	ProfitMargins []MarginPoint       `json:"profit_margins"`
	Returns       []ReturnsPoint      `json:"returns"`
	MarketingROI  []MarketingROIPoint `json:"marketing_roi"`
	Anomalies     AnomalyReport       `json:"anomalies"`
	RateOfChange  []ChangePoint       `json:"rate_of_change"`
}
