package exporter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"vcfo/internal/dataprocessing"
	"vcfo/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// column maps one exported header to a record field
type column struct {
	name  string
	value func(r domain.FinancialRecord) float64
}

var numericColumns = []column{
	{"Amazon_Sales", func(r domain.FinancialRecord) float64 { return r.AmazonSales }},
	{"Flipkart_Sales", func(r domain.FinancialRecord) float64 { return r.FlipkartSales }},
	{"Website_Sales", func(r domain.FinancialRecord) float64 { return r.WebsiteSales }},
	{"Offline_Sales", func(r domain.FinancialRecord) float64 { return r.OfflineSales }},
	{"myntra_sales", func(r domain.FinancialRecord) float64 { return r.MyntraSales }},
	{"meesho_sales", func(r domain.FinancialRecord) float64 { return r.MeeshoSales }},
	{"Gross_Sales", func(r domain.FinancialRecord) float64 { return r.GrossSales }},
	{"Total_Orders", func(r domain.FinancialRecord) float64 { return r.TotalOrders }},
	{"Average_Order_Value", func(r domain.FinancialRecord) float64 { return r.AverageOrderValue }},
	{"Returns", func(r domain.FinancialRecord) float64 { return r.Returns }},
	{"Net_Sales", func(r domain.FinancialRecord) float64 { return r.NetSales }},
	{"COGS", func(r domain.FinancialRecord) float64 { return r.COGS }},
	{"Gross_Profit", func(r domain.FinancialRecord) float64 { return r.GrossProfit }},
	{"Platform_Fees", func(r domain.FinancialRecord) float64 { return r.PlatformFees }},
	{"Marketing_Spend_Digital", func(r domain.FinancialRecord) float64 { return r.MarketingSpendDigital }},
	{"Marketing_Spend_Offline", func(r domain.FinancialRecord) float64 { return r.MarketingSpendOffline }},
	{"Total_Marketing_Spend", func(r domain.FinancialRecord) float64 { return r.TotalMarketingSpend }},
	{"Contribution_Margin", func(r domain.FinancialRecord) float64 { return r.ContributionMargin }},
	{"Fixed_Cost_Allocation", func(r domain.FinancialRecord) float64 { return r.FixedCostAllocation }},
	{"Net_Profit_Loss", func(r domain.FinancialRecord) float64 { return r.NetProfitLoss }},
	{"Debt_Repayment_Cash_Out", func(r domain.FinancialRecord) float64 { return r.DebtRepaymentCashOut }},
	{"Net_Cash_Flow", func(r domain.FinancialRecord) float64 { return r.NetCashFlow }},
}

// Headers returns the exported header row
func Headers() []string {
	headers := make([]string, 0, len(numericColumns)+1)
	headers = append(headers, dataprocessing.ColumnDate)
	for _, c := range numericColumns {
		headers = append(headers, c.name)
	}
	return headers
}

// Row formats one record in header order
func Row(r domain.FinancialRecord) []string {
	row := make([]string, 0, len(numericColumns)+1)
	row = append(row, r.Date.Format(dataprocessing.ExportDateLayout))
	for _, c := range numericColumns {
		row = append(row, formatFloat(c.value(r)))
	}
	return row
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteRecords writes the header and one row per record to w
func WriteRecords(w io.Writer, records []domain.FinancialRecord, options WriteOptions) error {
	if options.BOMPrefix {
		if _, err := w.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(Headers()); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}
	for i, r := range records {
		if err := writer.Write(Row(r)); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// Serialize renders records as CSV text without a BOM
func Serialize(records []domain.FinancialRecord) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteRecords(&buf, records, WriteOptions{}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Writer persists exports under a base directory
type Writer struct {
	dir    string
	logger *slog.Logger
}

// NewWriter creates a writer rooted at dir
func NewWriter(logger *slog.Logger, dir string) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Writer{dir: dir, logger: logger.With(slog.String("component", "exporter"))}
}

// WriteCSVFile writes records to name and returns the full path
func (w *Writer) WriteCSVFile(name string, records []domain.FinancialRecord, options WriteOptions) (string, error) {
	return w.writeFile(name, len(records), func(out io.Writer) error {
		return WriteRecords(out, records, options)
	})
}

// WriteWorkbookFile writes the view as an XLSX workbook to name
func (w *Writer) WriteWorkbookFile(name string, view domain.DashboardView) (string, error) {
	return w.writeFile(name, len(view.Records), func(out io.Writer) error {
		return WriteWorkbook(out, view)
	})
}

// writeFile writes into a temp file next to the target and renames it
// into place so readers never see a partial export.
func (w *Writer) writeFile(name string, count int, write func(io.Writer) error) (string, error) {
	fullPath := w.resolvePath(name)

	w.logger.Info("Writing export file",
		slog.String("file_path", name),
		slog.String("full_path", fullPath),
		slog.Int("record_count", count))

	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".export-*")
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to set file mode: %w", err)
	}

	if err := write(tmp); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		return "", fmt.Errorf("failed to move export into place: %w", err)
	}
	return fullPath, nil
}

func (w *Writer) resolvePath(name string) string {
	if filepath.IsAbs(name) || w.dir == "" {
		return name
	}
	return filepath.Join(w.dir, name)
}
