package exporter

import (
	"math"
	"strconv"
)

// formatFloat renders the shortest plain decimal that parses back to f.
// No exponent and no thousands separators.
func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "0"
	}
	if f == 0 {
		// avoid "-0"
		return "0"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
