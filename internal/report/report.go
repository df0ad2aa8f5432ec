// Package report renders a dashboard view as a printable HTML document and
// converts it to PDF with headless Chrome.
package report

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"vcfo/pkg/contracts/domain"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var reportTemplate = template.Must(
	template.New("report.html.tmpl").
		Funcs(template.FuncMap{
			"money":    formatMoney,
			"number":   formatNumber,
			"percent":  formatPercent,
			"multiple": formatMultiple,
		}).
		ParseFS(templateFS, "templates/report.html.tmpl"),
)

// Data is everything the report template needs
type Data struct {
	OwnerID     string
	GeneratedAt time.Time
	View        domain.DashboardView
	Insights    domain.Insights
}

// RenderHTML writes the report for data to w
func RenderHTML(w io.Writer, data Data) error {
	if data.GeneratedAt.IsZero() {
		data.GeneratedAt = time.Now().UTC()
	}
	if err := reportTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

// HTML renders the report into memory
func HTML(data Data) ([]byte, error) {
	var buf bytes.Buffer
	if err := RenderHTML(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// groupThousands inserts commas into the integer part of a formatted
// number.
func groupThousands(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}

	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return sign + b.String() + frac
}

func formatMoney(f float64) string {
	return groupThousands(strconv.FormatFloat(finite(f), 'f', 2, 64))
}

func formatNumber(f float64) string {
	return groupThousands(strconv.FormatFloat(finite(f), 'f', 0, 64))
}

func formatPercent(f float64) string {
	return strconv.FormatFloat(finite(f), 'f', 1, 64) + "%"
}

func formatMultiple(f float64) string {
	return strconv.FormatFloat(finite(f), 'f', 2, 64) + "x"
}
