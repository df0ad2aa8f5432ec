package dataprocessing

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	apperrors "vcfo/internal/errors"
	"vcfo/pkg/contracts/domain"
)

// ParseError reports a CSV stream the reader could not tokenize.
// No partial result accompanies it.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("Error parsing CSV file: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseStats describes one parse run
type ParseStats struct {
	Rows     int `json:"rows"`
	Accepted int `json:"accepted"`
	Dropped  int `json:"dropped"`
}

// fieldMapping binds header aliases to a record field. The first alias
// present in the header wins.
type fieldMapping struct {
	aliases []string
	assign  func(r *domain.FinancialRecord, cell string)
}

func number(target func(r *domain.FinancialRecord) *float64) func(*domain.FinancialRecord, string) {
	return func(r *domain.FinancialRecord, cell string) {
		*target(r) = ParseNumber(cell)
	}
}

func optionalNumber(target func(r *domain.FinancialRecord) **float64) func(*domain.FinancialRecord, string) {
	return func(r *domain.FinancialRecord, cell string) {
		if strings.TrimSpace(cell) == "" {
			return
		}
		v := ParseNumber(cell)
		*target(r) = &v
	}
}

func optionalText(target func(r *domain.FinancialRecord) **string) func(*domain.FinancialRecord, string) {
	return func(r *domain.FinancialRecord, cell string) {
		s := strings.TrimSpace(cell)
		if s == "" {
			return
		}
		*target(r) = &s
	}
}

var recordFields = []fieldMapping{
	{[]string{"Amazon_Sales", "amazon_sales"}, number(func(r *domain.FinancialRecord) *float64 { return &r.AmazonSales })},
	{[]string{"Flipkart_Sales", "flipkart_sales"}, number(func(r *domain.FinancialRecord) *float64 { return &r.FlipkartSales })},
	{[]string{"Website_Sales", "website_sales"}, number(func(r *domain.FinancialRecord) *float64 { return &r.WebsiteSales })},
	{[]string{"Offline_Sales", "offline_sales"}, number(func(r *domain.FinancialRecord) *float64 { return &r.OfflineSales })},
	{[]string{"myntra_sales", "Myntra_Sales"}, number(func(r *domain.FinancialRecord) *float64 { return &r.MyntraSales })},
	{[]string{"meesho_sales", "Meesho_Sales"}, number(func(r *domain.FinancialRecord) *float64 { return &r.MeeshoSales })},
	{[]string{"Gross_Sales"}, number(func(r *domain.FinancialRecord) *float64 { return &r.GrossSales })},
	{[]string{"Total_Orders"}, number(func(r *domain.FinancialRecord) *float64 { return &r.TotalOrders })},
	{[]string{"Average_Order_Value"}, number(func(r *domain.FinancialRecord) *float64 { return &r.AverageOrderValue })},
	{[]string{"Returns"}, number(func(r *domain.FinancialRecord) *float64 { return &r.Returns })},
	{[]string{"Net_Sales"}, number(func(r *domain.FinancialRecord) *float64 { return &r.NetSales })},
	{[]string{"COGS"}, number(func(r *domain.FinancialRecord) *float64 { return &r.COGS })},
	{[]string{"Gross_Profit"}, number(func(r *domain.FinancialRecord) *float64 { return &r.GrossProfit })},
	{[]string{"Platform_Fees"}, number(func(r *domain.FinancialRecord) *float64 { return &r.PlatformFees })},
	{[]string{"Marketing_Spend_Digital"}, number(func(r *domain.FinancialRecord) *float64 { return &r.MarketingSpendDigital })},
	{[]string{"Marketing_Spend_Offline"}, number(func(r *domain.FinancialRecord) *float64 { return &r.MarketingSpendOffline })},
	{[]string{"Total_Marketing_Spend"}, number(func(r *domain.FinancialRecord) *float64 { return &r.TotalMarketingSpend })},
	{[]string{"Contribution_Margin"}, number(func(r *domain.FinancialRecord) *float64 { return &r.ContributionMargin })},
	{[]string{"Fixed_Cost_Allocation"}, number(func(r *domain.FinancialRecord) *float64 { return &r.FixedCostAllocation })},
	{[]string{"Net_Profit_Loss"}, number(func(r *domain.FinancialRecord) *float64 { return &r.NetProfitLoss })},
	{[]string{"Debt_Repayment_Cash_Out"}, number(func(r *domain.FinancialRecord) *float64 { return &r.DebtRepaymentCashOut })},
	{[]string{"Net_Cash_Flow"}, number(func(r *domain.FinancialRecord) *float64 { return &r.NetCashFlow })},

	{[]string{"myntra_profit", "Myntra_Profit"}, optionalNumber(func(r *domain.FinancialRecord) **float64 { return &r.MyntraProfit })},
	{[]string{"meesho_profit", "Meesho_Profit"}, optionalNumber(func(r *domain.FinancialRecord) **float64 { return &r.MeeshoProfit })},
	{[]string{"flipkart_profit", "Flipkart_Profit"}, optionalNumber(func(r *domain.FinancialRecord) **float64 { return &r.FlipkartProfit })},
	{[]string{"Marketing_Efficiency_Ratio"}, optionalNumber(func(r *domain.FinancialRecord) **float64 { return &r.MarketingEfficiencyRatio })},
	{[]string{"Profitability_Label", "profitability_label"}, optionalText(func(r *domain.FinancialRecord) **string { return &r.ProfitabilityLabel })},
	{[]string{"performance_category", "Performance_Category"}, optionalText(func(r *domain.FinancialRecord) **string { return &r.PerformanceCategory })},
	{[]string{"Marketing_Efficiency_Label"}, optionalText(func(r *domain.FinancialRecord) **string { return &r.MarketingEfficiencyLabel })},
	{[]string{"Dominant_Sales_Channel"}, optionalText(func(r *domain.FinancialRecord) **string { return &r.DominantSalesChannel })},
}

var dateAliases = []string{ColumnDate, "date"}

// boundField is a fieldMapping resolved against a concrete header row
type boundField struct {
	index  int
	assign func(r *domain.FinancialRecord, cell string)
}

// rowMapper converts data rows for one header layout
type rowMapper struct {
	dateIndex int
	fields    []boundField
}

func newRowMapper(headers []string) *rowMapper {
	positions := make(map[string]int, len(headers))
	for i, h := range headers {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		if _, seen := positions[h]; !seen {
			positions[h] = i
		}
	}

	lookup := func(aliases []string) int {
		for _, alias := range aliases {
			if idx, ok := positions[alias]; ok {
				return idx
			}
		}
		return -1
	}

	m := &rowMapper{dateIndex: lookup(dateAliases)}
	for _, f := range recordFields {
		if idx := lookup(f.aliases); idx >= 0 {
			m.fields = append(m.fields, boundField{index: idx, assign: f.assign})
		}
	}
	return m
}

// toRecord maps one row. ok is false when the row's date is invalid.
func (m *rowMapper) toRecord(row []string) (domain.FinancialRecord, bool) {
	var rec domain.FinancialRecord

	dateText := cell(row, m.dateIndex)
	rec.DateStr = dateText
	rec.Date = ParseDate(dateText)
	if !IsValidDate(rec.Date) {
		return domain.FinancialRecord{}, false
	}

	for _, f := range m.fields {
		f.assign(&rec, cell(row, f.index))
	}
	return rec, true
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// Parser maps CSV exports to financial records and logs each run
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a parser. A nil logger falls back to slog.Default.
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger.With(slog.String("component", "csv_parser"))}
}

// Parse reads raw CSV text whose first row is the header. Rows with an
// invalid date are omitted. A tokenizer failure aborts the whole parse with
// a *ParseError.
func (p *Parser) Parse(ctx context.Context, raw string) ([]domain.FinancialRecord, ParseStats, error) {
	reader := newCSVReader(strings.NewReader(raw))

	headers, err := reader.Read()
	if err == io.EOF {
		return []domain.FinancialRecord{}, ParseStats{}, nil
	}
	if err != nil {
		return nil, ParseStats{}, p.fail(ctx, err)
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, ParseStats{}, p.fail(ctx, err)
		}
		rows = append(rows, row)
	}

	records, stats := p.ParseRows(ctx, headers, rows)
	return records, stats, nil
}

// ParseRows maps already tokenized rows using the given header row
func (p *Parser) ParseRows(ctx context.Context, headers []string, rows [][]string) ([]domain.FinancialRecord, ParseStats) {
	mapper := newRowMapper(headers)
	records := make([]domain.FinancialRecord, 0, len(rows))
	var stats ParseStats

	for _, row := range rows {
		if isBlankRow(row) {
			continue
		}
		stats.Rows++
		rec, ok := mapper.toRecord(row)
		if !ok {
			stats.Dropped++
			continue
		}
		records = append(records, rec)
	}
	stats.Accepted = len(records)

	p.logger.DebugContext(ctx, "parsed financial records",
		slog.Int("rows", stats.Rows),
		slog.Int("accepted", stats.Accepted),
		slog.Int("dropped", stats.Dropped))

	return records, stats
}

func (p *Parser) fail(ctx context.Context, err error) error {
	p.logger.WarnContext(ctx, "CSV tokenizer failed", slog.String("error", err.Error()))
	return &ParseError{Err: apperrors.NewParsingError("malformed CSV", err)}
}

// Parse reads raw CSV text into financial records, logging through
// whichever slog default is installed at call time
func Parse(raw string) ([]domain.FinancialRecord, error) {
	records, _, err := NewParser(nil).Parse(context.Background(), raw)
	return records, err
}

// ValidateAndParse is the upload gate: the header is checked first and the
// full parse only runs when every required column is present.
func ValidateAndParse(raw string) ([]domain.FinancialRecord, error) {
	if err := CheckHeaders(raw); err != nil {
		return nil, err
	}
	return Parse(raw)
}
