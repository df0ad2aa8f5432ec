package dataprocessing

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	apperrors "vcfo/internal/errors"
)

// Required header names. Matching is exact and case-sensitive.
const (
	ColumnDate       = "Date"
	ColumnGrossSales = "Gross_Sales"
	ColumnNetSales   = "Net_Sales"
)

// RequiredColumns is the minimal header set an upload must carry
var RequiredColumns = []string{ColumnDate, ColumnGrossSales, ColumnNetSales}

const utf8BOM = "\ufeff"

// ColumnValidation is the outcome of a header check
type ColumnValidation struct {
	Valid   bool     `json:"valid"`
	Missing []string `json:"missing"`
}

// FormatError reports an upload whose header lacks required columns
type FormatError struct {
	Missing []string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("Invalid CSV format. Missing required columns: %s", strings.Join(e.Missing, ", "))
}

// MissingColumns exposes the absent headers to the HTTP error mapper
func (e *FormatError) MissingColumns() []string {
	return e.Missing
}

// ValidateColumns checks that every required column appears in headers.
// Missing names are reported in RequiredColumns order.
func ValidateColumns(headers []string) ColumnValidation {
	present := make(map[string]struct{}, len(headers))
	for i, h := range headers {
		if i == 0 {
			h = strings.TrimPrefix(h, utf8BOM)
		}
		present[h] = struct{}{}
	}

	missing := make([]string, 0)
	for _, col := range RequiredColumns {
		if _, ok := present[col]; !ok {
			missing = append(missing, col)
		}
	}

	return ColumnValidation{
		Valid:   len(missing) == 0,
		Missing: missing,
	}
}

// ReadHeaders returns the first non-blank row of raw CSV text without
// parsing the rest of the file.
func ReadHeaders(raw string) ([]string, error) {
	reader := newCSVReader(strings.NewReader(raw))
	headers, err := reader.Read()
	if err == io.EOF {
		return []string{}, nil
	}
	if err != nil {
		return nil, &ParseError{Err: apperrors.NewParsingError("failed to read CSV header", err)}
	}
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], utf8BOM)
	}
	return headers, nil
}

// CheckHeaders runs ReadHeaders and ValidateColumns, returning a
// *FormatError when required columns are absent.
func CheckHeaders(raw string) error {
	headers, err := ReadHeaders(raw)
	if err != nil {
		return err
	}
	if result := ValidateColumns(headers); !result.Valid {
		return &FormatError{Missing: result.Missing}
	}
	return nil
}

func newCSVReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	// Header names match exactly, so leading spaces are kept. Cell values
	// are trimmed during coercion.
	reader.FieldsPerRecord = -1
	return reader
}
