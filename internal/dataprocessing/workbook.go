package dataprocessing

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "vcfo/internal/errors"
	"vcfo/pkg/contracts/domain"
)

// ReadWorkbookRows returns the rows of the first sheet that carries a
// Date header, falling back to the first sheet of the workbook.
func ReadWorkbookRows(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &ParseError{Err: apperrors.NewParsingError("failed to open workbook", err)}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &ParseError{Err: apperrors.NewParsingError("workbook has no sheets", nil)}
	}

	var fallback [][]string
	for i, name := range sheets {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, &ParseError{Err: apperrors.NewParsingError(fmt.Sprintf("failed to read sheet %q", name), err)}
		}
		if i == 0 {
			fallback = rows
		}
		if len(rows) > 0 && hasDateHeader(rows[0]) {
			return rows, nil
		}
	}
	return fallback, nil
}

func hasDateHeader(headers []string) bool {
	for _, h := range headers {
		h = strings.TrimSpace(h)
		for _, alias := range dateAliases {
			if h == alias {
				return true
			}
		}
	}
	return false
}

// ParseWorkbook validates and parses an XLSX export laid out like the CSV
// format: header in the first row, one record per following row.
func (p *Parser) ParseWorkbook(ctx context.Context, r io.Reader) ([]domain.FinancialRecord, ParseStats, error) {
	rows, err := ReadWorkbookRows(r)
	if err != nil {
		return nil, ParseStats{}, err
	}
	if len(rows) == 0 {
		return nil, ParseStats{}, &FormatError{Missing: append([]string(nil), RequiredColumns...)}
	}

	if result := ValidateColumns(rows[0]); !result.Valid {
		return nil, ParseStats{}, &FormatError{Missing: result.Missing}
	}

	records, stats := p.ParseRows(ctx, rows[0], rows[1:])
	return records, stats, nil
}
