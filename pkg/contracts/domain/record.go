package domain

import (
	"time"
)

// FinancialRecord is one parsed row of a daily financial export.
//
// Numeric fields are always finite; absent or unparseable cells become 0.
// Optional fields stay nil unless the source supplied a non-empty value; nil
// fields serialize as null so every record has the same keys.
type FinancialRecord struct {
	Date    time.Time `json:"date"`
	DateStr string    `json:"date_str"`

	AmazonSales   float64 `json:"amazon_sales"`
	FlipkartSales float64 `json:"flipkart_sales"`
	WebsiteSales  float64 `json:"website_sales"`
	OfflineSales  float64 `json:"offline_sales"`
	MyntraSales   float64 `json:"myntra_sales"`
	MeeshoSales   float64 `json:"meesho_sales"`

	GrossSales        float64 `json:"gross_sales"`
	TotalOrders       float64 `json:"total_orders"`
	AverageOrderValue float64 `json:"average_order_value"`
	Returns           float64 `json:"returns"`
	NetSales          float64 `json:"net_sales"`

	COGS                  float64 `json:"cogs"`
	GrossProfit           float64 `json:"gross_profit"`
	PlatformFees          float64 `json:"platform_fees"`
	MarketingSpendDigital float64 `json:"marketing_spend_digital"`
	MarketingSpendOffline float64 `json:"marketing_spend_offline"`
	TotalMarketingSpend   float64 `json:"total_marketing_spend"`
	ContributionMargin    float64 `json:"contribution_margin"`
	FixedCostAllocation   float64 `json:"fixed_cost_allocation"`

	NetProfitLoss        float64 `json:"net_profit_loss"`
	DebtRepaymentCashOut float64 `json:"debt_repayment_cash_out"`
	NetCashFlow          float64 `json:"net_cash_flow"`

	MyntraProfit             *float64 `json:"myntra_profit"`
	MeeshoProfit             *float64 `json:"meesho_profit"`
	FlipkartProfit           *float64 `json:"flipkart_profit"`
	MarketingEfficiencyRatio *float64 `json:"marketing_efficiency_ratio"`
	ProfitabilityLabel       *string  `json:"profitability_label"`
	PerformanceCategory      *string  `json:"performance_category"`
	MarketingEfficiencyLabel *string  `json:"marketing_efficiency_label"`
	DominantSalesChannel     *string  `json:"dominant_sales_channel"`
}

// TotalExpense is the per-record cost used by the dashboard summary and
// the monthly comparison.
func (r FinancialRecord) TotalExpense() float64 {
	return r.COGS + r.TotalMarketingSpend + r.FixedCostAllocation
}

// Channel identifies a sales channel column
type Channel string

const (
	ChannelAmazon   Channel = "Amazon"
	ChannelFlipkart Channel = "Flipkart"
	ChannelWebsite  Channel = "Website"
	ChannelOffline  Channel = "Offline"
	ChannelMyntra   Channel = "Myntra"
	ChannelMeesho   Channel = "Meesho"
)

// Channels lists the sales channels in their canonical order
var Channels = []Channel{
	ChannelAmazon,
	ChannelFlipkart,
	ChannelWebsite,
	ChannelOffline,
	ChannelMyntra,
	ChannelMeesho,
}

// Sales returns the record's sales for a channel
func (r FinancialRecord) Sales(c Channel) float64 {
	switch c {
	case ChannelAmazon:
		return r.AmazonSales
	case ChannelFlipkart:
		return r.FlipkartSales
	case ChannelWebsite:
		return r.WebsiteSales
	case ChannelOffline:
		return r.OfflineSales
	case ChannelMyntra:
		return r.MyntraSales
	case ChannelMeesho:
		return r.MeeshoSales
	default:
		return 0
	}
}
