package exporter

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"vcfo/internal/dataprocessing"
	"vcfo/pkg/contracts/domain"
)

// Sheet names of the exported workbook
const (
	RecordsSheet = "Records"
	SummarySheet = "Summary"
)

// NewWorkbook builds a workbook for the view. The caller must close it.
func NewWorkbook(view domain.DashboardView) (*excelize.File, error) {
	f := excelize.NewFile()

	// NewFile starts with Sheet1
	if err := f.SetSheetName("Sheet1", RecordsSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	if err := writeRecordsSheet(f, view.Records); err != nil {
		f.Close()
		return nil, err
	}

	if _, err := f.NewSheet(SummarySheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create summary sheet: %w", err)
	}
	if err := writeSummarySheet(f, view); err != nil {
		f.Close()
		return nil, err
	}

	return f, nil
}

// WriteWorkbook writes the view as XLSX to w
func WriteWorkbook(w io.Writer, view domain.DashboardView) error {
	f, err := NewWorkbook(view)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeRecordsSheet(f *excelize.File, records []domain.FinancialRecord) error {
	headers := Headers()
	header := make([]interface{}, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := setRow(f, RecordsSheet, 1, header); err != nil {
		return err
	}

	for i, r := range records {
		row := make([]interface{}, 0, len(numericColumns)+1)
		// dates stay text so the sheet re-imports with the CSV date rules
		row = append(row, r.Date.Format(dataprocessing.ExportDateLayout))
		for _, c := range numericColumns {
			row = append(row, c.value(r))
		}
		if err := setRow(f, RecordsSheet, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeSummarySheet(f *excelize.File, view domain.DashboardView) error {
	s := view.Summary
	m := view.Metrics

	rows := [][]interface{}{
		{"Metric", "Value"},
		{"Total Sales", s.TotalSales},
		{"Total Expense", s.TotalExpense},
		{"Total Transactions", s.TotalTransactions},
		{"Average Transaction", s.AvgTransaction},
		{"Top Category", s.TopCategory},
		{"Net Profit", m.NetProfit},
		{"Profit Margin %", m.ProfitMargin},
		{"Return Rate %", m.ReturnRate},
		{"Marketing ROI (x)", m.MarketingROI},
		{},
		{"Channel", "Sales"},
	}
	for _, c := range view.ChannelBreakdown {
		rows = append(rows, []interface{}{c.Name, c.Value})
	}
	rows = append(rows, []interface{}{}, []interface{}{"Month", "Income", "Expense"})
	for _, mc := range view.MonthlyComparison {
		rows = append(rows, []interface{}{mc.Month, mc.Income, mc.Expense})
	}

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		if err := setRow(f, SummarySheet, i+1, row); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("invalid row %d: %w", row, err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}
