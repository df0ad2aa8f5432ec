// Package services holds the business logic between the HTTP handlers and
// the record store.
//
// IngestService accepts CSV or XLSX uploads, validates and parses them, and
// replaces the owner's stored records in one step. DashboardService
// recomputes dashboard views, trend series and insights from the stored
// records on every call. ExportService produces CSV, XLSX, HTML and PDF
// downloads. HealthService reports liveness and readiness.
//
// Services return errors from the errors package so handlers can map them
// to RFC 7807 problem responses without inspecting messages. Mutations are
// announced to websocket subscribers through an EventPublisher; a failed
// announcement is logged and never fails the mutation.
package services
