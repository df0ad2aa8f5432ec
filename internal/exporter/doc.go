// Package exporter writes financial records back out in the flat column
// layout accepted by the upload parser.
//
// Serialize and WriteRecords produce CSV. WriteWorkbook produces an XLSX
// workbook with a Records sheet (same columns as the CSV) and a Summary
// sheet built from the dashboard view. Writer persists either format under
// a directory for the command line tools.
//
// Example usage:
//
//	data, err := exporter.Serialize(records)
//
//	w := exporter.NewWriter(logger, "data/exports")
//	path, err := w.WriteCSVFile("acme.csv", records, exporter.WriteOptions{BOMPrefix: true})
package exporter
