package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5/middleware"

	"vcfo/internal/infrastructure"
)

// Problem type URIs
const (
	TypeValidation      = "/errors/validation"
	TypeNotFound        = "/errors/not-found"
	TypeMethod          = "/errors/method-not-allowed"
	TypeRateLimit       = "/errors/rate-limit"
	TypeInternal        = "/errors/internal"
	TypeServiceDown     = "/errors/service-unavailable"
	TypeTimeout         = "/errors/timeout"
	TypePayloadTooLarge = "/errors/payload-too-large"
	TypeUnsupported     = "/errors/unsupported-media-type"

	TypeMissingColumns  = "/errors/upload/missing-columns"
	TypeMalformedCSV    = "/errors/upload/malformed-csv"
	TypeRecordsNotFound = "/errors/records/not-found"
	TypeStorageFailure  = "/errors/records/storage"
	TypeExportFailure   = "/errors/export/failed"
)

// MissingColumnsError is implemented by errors that report absent CSV headers
type MissingColumnsError interface {
	error
	MissingColumns() []string
}

type problemSpec struct {
	status int
	typ    string
	title  string
}

var appErrorProblems = map[ErrorType]problemSpec{
	ErrTypeFormat:     {http.StatusUnprocessableEntity, TypeMissingColumns, "Invalid CSV Format"},
	ErrTypeParsing:    {http.StatusBadRequest, TypeMalformedCSV, "Malformed CSV"},
	ErrTypeValidation: {http.StatusBadRequest, TypeValidation, "Validation Failed"},
	ErrTypeNotFound:   {http.StatusNotFound, TypeRecordsNotFound, "Resource Not Found"},
	ErrTypeStorage:    {http.StatusInternalServerError, TypeStorageFailure, "Storage Failure"},
	ErrTypeExport:     {http.StatusInternalServerError, TypeExportFailure, "Export Failed"},
}

var apiErrorTypes = map[string]string{
	"VALIDATION_FAILED":      TypeValidation,
	"INVALID_REQUEST":        TypeValidation,
	"EMPTY_UPLOAD":           TypeValidation,
	"PAYLOAD_TOO_LARGE":      TypePayloadTooLarge,
	"UNSUPPORTED_MEDIA_TYPE": TypeUnsupported,
	"RATE_LIMIT_EXCEEDED":    TypeRateLimit,
	"SERVICE_UNAVAILABLE":    TypeServiceDown,
}

const internalDetail = "An unexpected error occurred while processing your request"

// ErrorHandler turns errors into RFC 7807 responses and logs them.
// Client errors log at WARN, server errors at ERROR.
type ErrorHandler struct {
	logger       *slog.Logger
	includeStack bool
}

// NewErrorHandler creates an error handler. includeStack adds stack traces
// to 5xx responses and is meant for development only.
func NewErrorHandler(logger *slog.Logger, includeStack bool) *ErrorHandler {
	return &ErrorHandler{
		logger:       logger.With(slog.String("component", "error_handler")),
		includeStack: includeStack,
	}
}

func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	reqID := middleware.GetReqID(r.Context())
	problem := h.ErrorToProblem(err, r).WithExtension("trace_id", reqID)

	level := slog.LevelWarn
	if problem.Status >= http.StatusInternalServerError {
		level = slog.LevelError
		infrastructure.RecordError(r.Context(), err)
		if h.includeStack {
			problem.WithExtension("stack", string(debug.Stack()))
		}
	}
	h.logger.LogAttrs(r.Context(), level, "request failed",
		slog.String("error", err.Error()),
		slog.Int("status", problem.Status),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	h.write(w, r, problem)
}

// ErrorToProblem maps err onto a problem. The checks run from the most
// specific to the most general, so a wrapped deadline wins over the
// AppError that wraps it.
func (h *ErrorHandler) ErrorToProblem(err error, r *http.Request) *ProblemDetails {
	path := r.URL.Path

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewProblemDetails(http.StatusGatewayTimeout, TypeTimeout, "Request Timeout",
			"The request took too long to process and was cancelled", path)
	}

	var colErr MissingColumnsError
	if errors.As(err, &colErr) {
		return NewProblemDetails(http.StatusUnprocessableEntity, TypeMissingColumns, "Invalid CSV Format",
			colErr.Error(), path).
			WithExtension("missing_columns", colErr.MissingColumns())
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		typ, ok := apiErrorTypes[apiErr.ErrorCode]
		if !ok {
			typ = TypeInternal
		}
		problem := NewProblemDetails(apiErr.StatusCode, typ, http.StatusText(apiErr.StatusCode), apiErr.Message, path).
			WithExtension("error_code", apiErr.ErrorCode)
		if apiErr.Details != nil {
			problem.WithExtension("details", apiErr.Details)
		}
		return problem
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return NewProblemDetails(http.StatusRequestEntityTooLarge, TypePayloadTooLarge, "Payload Too Large",
			fmt.Sprintf("The upload exceeds the limit of %d bytes", tooLarge.Limit), path)
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		ps, ok := appErrorProblems[appErr.Type]
		if !ok {
			return NewProblemDetails(http.StatusInternalServerError, TypeInternal, "Internal Server Error", internalDetail, path)
		}
		detail := appErr.Message
		if appErr.Type == ErrTypeParsing {
			// the tokenizer error carries the line and column
			detail = appErr.Error()
		}
		problem := NewProblemDetails(ps.status, ps.typ, ps.title, detail, path).
			WithExtension("error_type", string(appErr.Type))
		for k, v := range appErr.Context {
			problem.WithExtension(k, v)
		}
		return problem
	}

	return NewProblemDetails(http.StatusInternalServerError, TypeInternal, "Internal Server Error", internalDetail, path)
}

// HandlePanic answers 500 for a recovered panic
func (h *ErrorHandler) HandlePanic(w http.ResponseWriter, r *http.Request, recovered interface{}) {
	reqID := middleware.GetReqID(r.Context())
	stack := string(debug.Stack())

	h.logger.ErrorContext(r.Context(), "panic recovered",
		slog.Any("panic", recovered),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("stack", stack),
	)

	problem := NewProblemDetails(http.StatusInternalServerError, TypeInternal, "Internal Server Error",
		"An unexpected error occurred", r.URL.Path).
		WithExtension("trace_id", reqID)
	if h.includeStack {
		problem.WithExtension("panic", fmt.Sprint(recovered))
		problem.WithExtension("stack", stack)
	}
	h.write(w, r, problem)
}

// NotFound is the router's 404 handler
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, NewProblemDetails(http.StatusNotFound, TypeNotFound, "Not Found",
		"The requested resource was not found", r.URL.Path).
		WithExtension("trace_id", middleware.GetReqID(r.Context())))
}

// MethodNotAllowed is the router's 405 handler
func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, NewProblemDetails(http.StatusMethodNotAllowed, TypeMethod, "Method Not Allowed",
		fmt.Sprintf("Method %s is not allowed for this endpoint", r.Method), r.URL.Path).
		WithExtension("trace_id", middleware.GetReqID(r.Context())))
}

func (h *ErrorHandler) write(w http.ResponseWriter, r *http.Request, problem *ProblemDetails) {
	if err := problem.Write(w); err != nil {
		h.logger.DebugContext(r.Context(), "failed to write problem response",
			slog.String("error", err.Error()))
	}
}
