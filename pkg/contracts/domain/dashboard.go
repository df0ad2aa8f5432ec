package domain

// DashboardView is the derived, presentation-ready summary of a record set.
// It is recomputed on every aggregation and never persisted.
type DashboardView struct {
	Records           []FinancialRecord   `json:"records"`
	Summary           Summary             `json:"summary"`
	Metrics           Metrics             `json:"metrics"`
	ChannelBreakdown  []ChannelTotal      `json:"channel_breakdown"`
	TopDays           []DaySales          `json:"top_days"`
	MonthlyComparison []MonthlyComparison `json:"monthly_comparison"`
	CumulativeData    []CumulativePoint   `json:"cumulative_data"`
}

// Summary holds the headline totals
type Summary struct {
	TotalTransactions float64 `json:"total_transactions"`
	TotalSales        float64 `json:"total_sales"`
	TotalExpense      float64 `json:"total_expense"`
	AvgTransaction    float64 `json:"avg_transaction"`
	TopCategory       string  `json:"top_category"`
}

// Metrics holds the derived KPI ratios shown next to the summary.
// Percentages are expressed on a 0-100 scale.
type Metrics struct {
	TotalReturns        float64 `json:"total_returns"`
	TotalMarketingSpend float64 `json:"total_marketing_spend"`
	TotalGrossProfit    float64 `json:"total_gross_profit"`
	NetProfit           float64 `json:"net_profit"`
	ProfitMargin        float64 `json:"profit_margin"`
	ReturnRate          float64 `json:"return_rate"`
	AvgDailySales       float64 `json:"avg_daily_sales"`
	MarketingROI        float64 `json:"marketing_roi"`
	Profitable          bool    `json:"profitable"`
}

// ChannelTotal is the summed sales of one channel
type ChannelTotal struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// DaySales is one entry of the top-days ranking
type DaySales struct {
	Date  string  `json:"date"`
	Sales float64 `json:"sales"`
}

// MonthlyComparison compares income and expense for a calendar month
type MonthlyComparison struct {
	Month   string  `json:"month"`
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
}

// CumulativePoint is the running net-sales total at a record
type CumulativePoint struct {
	Date       string  `json:"date"`
	Cumulative float64 `json:"cumulative"`
}
