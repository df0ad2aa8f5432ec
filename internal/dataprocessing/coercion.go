package dataprocessing

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// fallbackDateLayouts are tried, in order, when a date is not dash-delimited
// day-month-year text.
var fallbackDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006/01/02",
	"01/02/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"Mon Jan 2 2006",
}

// ParseNumber converts a raw cell value to a float64.
//
// Text has its thousands separators (",") removed before parsing. Anything
// that does not yield a finite number, including nil, becomes 0.
func ParseNumber(value any) float64 {
	var f float64
	switch v := value.(type) {
	case nil:
		return 0
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case int32:
		f = float64(v)
	case uint:
		f = float64(v)
	case uint64:
		f = float64(v)
	case string:
		f = parseNumberText(v)
	case *string:
		if v == nil {
			return 0
		}
		f = parseNumberText(*v)
	default:
		return 0
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func parseNumberText(s string) float64 {
	cleaned := strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if cleaned == "" {
		return 0
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return f
}

// ParseDate converts DD-MM-YYYY text to a calendar date at midnight UTC.
//
// A three-part text whose first part has four digits is read as YYYY-MM-DD.
// Anything else, including dashed text whose parts are not plain integers
// such as an ISO timestamp, goes through the fallback layouts. A timestamp
// keeps the calendar day written in it, whatever its offset. The zero time
// is returned for anything that does not name a real calendar day; callers
// check it with IsValidDate.
func ParseDate(text string) time.Time {
	s := strings.TrimSpace(text)
	if s == "" {
		return time.Time{}
	}

	parts := strings.Split(s, "-")
	if len(parts) == 3 {
		first, second, third := parts[0], parts[1], parts[2]
		var t time.Time
		if len(strings.TrimSpace(first)) == 4 {
			// ISO order
			t = calendarDate(third, second, first)
		} else {
			t = calendarDate(first, second, third)
		}
		if IsValidDate(t) {
			return t
		}
	}

	for _, layout := range fallbackDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		}
	}
	return time.Time{}
}

// calendarDate builds a date from its textual components, rejecting values
// that time.Date would otherwise normalize (month 13, day 32, Feb 30).
func calendarDate(dayText, monthText, yearText string) time.Time {
	day, err := strconv.Atoi(strings.TrimSpace(dayText))
	if err != nil {
		return time.Time{}
	}
	month, err := strconv.Atoi(strings.TrimSpace(monthText))
	if err != nil {
		return time.Time{}
	}
	year, err := strconv.Atoi(strings.TrimSpace(yearText))
	if err != nil || year <= 0 {
		return time.Time{}
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month || t.Year() != year {
		return time.Time{}
	}
	return t
}

// IsValidDate reports whether t was produced from a real calendar date
func IsValidDate(t time.Time) bool {
	return !t.IsZero()
}

// safeDiv divides and returns 0 for zero denominators or non-finite results
func safeDiv(numerator, denominator float64) float64 {
	if denominator == 0 {
		return 0
	}
	q := numerator / denominator
	if math.IsNaN(q) || math.IsInf(q, 0) {
		return 0
	}
	return q
}
