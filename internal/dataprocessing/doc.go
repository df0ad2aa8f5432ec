// Package dataprocessing turns raw financial CSV exports into canonical
// records and derives the dashboard views built from them.
//
// # Pipeline
//
// An upload flows through four stages:
//
//  1. ValidateColumns checks the header row for Date, Gross_Sales and Net_Sales.
//  2. Parse maps every data row to a domain.FinancialRecord, coercing numbers
//     with ParseNumber and dates with ParseDate. Rows whose date is invalid
//     are dropped silently.
//  3. Aggregate computes the domain.DashboardView: summary totals, channel
//     breakdown, top days, monthly comparison and the cumulative series.
//  4. TrendSeries and BuildInsights derive the secondary chart series.
//
// # Usage
//
//	records, err := dataprocessing.ValidateAndParse(csvText)
//	if err != nil {
//	    var fe *dataprocessing.FormatError
//	    if errors.As(err, &fe) {
//	        fmt.Println("missing:", fe.Missing)
//	    }
//	    return err
//	}
//	view := dataprocessing.Aggregate(records)
//
// Every function in this package is pure. Aggregation never mutates its input
// and is safe to run concurrently over different record sets.
package dataprocessing
