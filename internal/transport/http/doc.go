// Package http implements the HTTP handlers of the vcfo service.
//
// Handlers stay thin: they read the request, call a service and render
// the result. Successful JSON responses use the envelope
//
//	{"status": "success", "data": ...}
//
// and every failure is passed to errors.ErrorHandler, which answers with
// an RFC 7807 problem document. Downloads are written as attachments with
// a Content-Disposition filename derived from the owner.
//
// Owner scoped endpoints are served by OwnerHandler.Routes and must be
// mounted on a pattern carrying {ownerID}:
//
//	r.Mount("/api/owners/{ownerID}", owners.Routes())
package http
