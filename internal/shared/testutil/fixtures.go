package testutil

import (
	"time"

	"vcfo/pkg/contracts/domain"
)

// SampleCSV is a small three-day export covering every channel column
const SampleCSV = `Date,Amazon_Sales,Flipkart_Sales,Website_Sales,Offline_Sales,myntra_sales,meesho_sales,Gross_Sales,Total_Orders,Average_Order_Value,Returns,Net_Sales,COGS,Gross_Profit,Platform_Fees,Marketing_Spend_Digital,Marketing_Spend_Offline,Total_Marketing_Spend,Contribution_Margin,Fixed_Cost_Allocation,Net_Profit_Loss,Debt_Repayment_Cash_Out,Net_Cash_Flow
01-01-2024,"1,000",500,250,250,0,0,"2,000",40,50,100,"1,900",800,1200,60,150,50,200,940,300,440,100,340
02-01-2024,300,700,0,0,0,0,1000,20,50,0,1000,400,600,30,100,0,100,470,300,70,0,70
01-02-2024,200,0,100,0,150,50,500,10,50,25,475,250,250,20,40,10,50,180,300,-120,0,-120
`

// Day returns midnight UTC of the given date
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// RecordOption customizes a fixture record
type RecordOption func(*domain.FinancialRecord)

// NewRecord builds a record dated at t with gross and net sales set to
// sales, then applies opts.
func NewRecord(t time.Time, sales float64, opts ...RecordOption) domain.FinancialRecord {
	r := domain.FinancialRecord{
		Date:       t,
		DateStr:    t.Format("02-01-2006"),
		GrossSales: sales,
		NetSales:   sales,
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// WithChannel sets one channel's sales
func WithChannel(c domain.Channel, sales float64) RecordOption {
	return func(r *domain.FinancialRecord) {
		switch c {
		case domain.ChannelAmazon:
			r.AmazonSales = sales
		case domain.ChannelFlipkart:
			r.FlipkartSales = sales
		case domain.ChannelWebsite:
			r.WebsiteSales = sales
		case domain.ChannelOffline:
			r.OfflineSales = sales
		case domain.ChannelMyntra:
			r.MyntraSales = sales
		case domain.ChannelMeesho:
			r.MeeshoSales = sales
		}
	}
}

// WithNetSales overrides net sales
func WithNetSales(v float64) RecordOption {
	return func(r *domain.FinancialRecord) { r.NetSales = v }
}

// WithOrders sets total orders
func WithOrders(v float64) RecordOption {
	return func(r *domain.FinancialRecord) { r.TotalOrders = v }
}

// WithCosts sets COGS, total marketing spend and fixed cost allocation
func WithCosts(cogs, marketing, fixed float64) RecordOption {
	return func(r *domain.FinancialRecord) {
		r.COGS = cogs
		r.TotalMarketingSpend = marketing
		r.FixedCostAllocation = fixed
	}
}

// WithProfit sets gross profit and net profit/loss
func WithProfit(gross, net float64) RecordOption {
	return func(r *domain.FinancialRecord) {
		r.GrossProfit = gross
		r.NetProfitLoss = net
	}
}

// WithReturns sets returns
func WithReturns(v float64) RecordOption {
	return func(r *domain.FinancialRecord) { r.Returns = v }
}
