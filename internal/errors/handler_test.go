package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vcfo/internal/shared/testutil"
)

type missingColumnsErr struct {
	missing []string
}

func (e *missingColumnsErr) Error() string {
	return "Invalid CSV format. Missing required columns: " + strings.Join(e.missing, ", ")
}

func (e *missingColumnsErr) MissingColumns() []string { return e.missing }

func TestErrorHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantLevel  string
		check      func(t *testing.T, body map[string]interface{})
	}{
		{
			name:       "missing columns",
			err:        fmt.Errorf("upload: %w", &missingColumnsErr{missing: []string{"Net_Sales"}}),
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   TypeMissingColumns,
			wantLevel:  "WARN",
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, []interface{}{"Net_Sales"}, body["missing_columns"])
				assert.Contains(t, body["detail"], "Missing required columns: Net_Sales")
			},
		},
		{
			name:       "malformed csv",
			err:        NewParsingError("malformed CSV", fmt.Errorf("bare quote")),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeMalformedCSV,
			wantLevel:  "WARN",
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "PARSING", body["error_type"])
			},
		},
		{
			name:       "records not found",
			err:        NewAppError(ErrTypeNotFound, "no records for owner", nil).WithContext("action", "load"),
			wantStatus: http.StatusNotFound,
			wantType:   TypeRecordsNotFound,
			wantLevel:  "WARN",
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "load", body["action"])
			},
		},
		{
			name:       "storage failure",
			err:        NewStorageError("write failed", fmt.Errorf("disk full")).WithContext("owner_id", "acme"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeStorageFailure,
			wantLevel:  "ERROR",
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "acme", body["owner_id"])
			},
		},
		{
			name:       "api error with details",
			err:        ErrValidation("period", "must be daily, weekly or monthly"),
			wantStatus: http.StatusBadRequest,
			wantType:   TypeValidation,
			wantLevel:  "WARN",
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "VALIDATION_FAILED", body["error_code"])
				details := body["details"].(map[string]interface{})
				assert.Len(t, details["errors"], 1)
			},
		},
		{
			name:       "service unavailable copy",
			err:        ErrServiceUnavailable.WithMessage("PDF rendering is not available"),
			wantStatus: http.StatusServiceUnavailable,
			wantType:   TypeServiceDown,
			wantLevel:  "ERROR",
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "PDF rendering is not available", body["detail"])
			},
		},
		{
			name:       "payload too large",
			err:        &http.MaxBytesError{Limit: 1024},
			wantStatus: http.StatusRequestEntityTooLarge,
			wantType:   TypePayloadTooLarge,
			wantLevel:  "WARN",
		},
		{
			name:       "deadline exceeded",
			err:        context.DeadlineExceeded,
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
			wantLevel:  "WARN",
		},
		{
			name:       "unknown error",
			err:        fmt.Errorf("boom"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
			wantLevel:  "ERROR",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			handler := NewErrorHandler(logger, false)

			req := httptest.NewRequest(http.MethodPost, "/api/owners/acme/records", nil)
			rec := httptest.NewRecorder()
			handler.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, float64(tt.wantStatus), body["status"])
			assert.Equal(t, "/api/owners/acme/records", body["instance"])
			assert.Contains(t, body, "trace_id")
			assert.NotContains(t, body, "stack")
			if tt.check != nil {
				tt.check(t, body)
			}

			require.Equal(t, 1, logs.Count())
			assert.Equal(t, tt.wantLevel, logs.GetRecords()[0].Level.String())
			testutil.AssertLogAttr(t, logs, "status", int64(tt.wantStatus))
		})
	}
}

func TestErrorHandler_NilError(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, false)

	rec := httptest.NewRecorder()
	handler.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	assert.Equal(t, 0, rec.Body.Len())
	assert.Equal(t, 0, logs.Count())
}

func TestErrorHandler_IncludeStack(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, true)

	rec := httptest.NewRecorder()
	handler.HandleError(rec, httptest.NewRequest(http.MethodGet, "/api/version", nil), fmt.Errorf("boom"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["stack"])
}

func TestRecoveryMiddleware(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, false)

	panicky := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("aggregation exploded")
	})

	rec := httptest.NewRecorder()
	RecoveryMiddleware(handler)(panicky).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/owners/acme/dashboard", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.True(t, logs.ContainsMessage("panic recovered"))
}

func TestRecoveryMiddleware_AbortHandler(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, false)

	aborting := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic(http.ErrAbortHandler)
	})

	assert.PanicsWithValue(t, http.ErrAbortHandler, func() {
		RecoveryMiddleware(handler)(aborting).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestErrorHandler_NotFoundAndMethodNotAllowed(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, false)

	rec := httptest.NewRecorder()
	handler.NotFound(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	handler.MethodNotAllowed(rec, httptest.NewRequest(http.MethodPatch, "/api/version", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, rec.Body.String(), "PATCH")
}

func TestAppError_Error(t *testing.T) {
	err := NewStorageError("failed to store records", fmt.Errorf("disk full")).
		WithContext("owner_id", "acme").
		WithContext("action", "store")

	assert.Equal(t, "[STORAGE] failed to store records action=store owner_id=acme: disk full", err.Error())
	assert.EqualError(t, err.Unwrap(), "disk full")
}

func TestAPIError_Is(t *testing.T) {
	unavailable := ErrServiceUnavailable.WithMessage("renderer offline")

	assert.ErrorIs(t, fmt.Errorf("export: %w", unavailable), ErrServiceUnavailable)
	assert.NotErrorIs(t, unavailable, ErrEmptyUpload)
	assert.Equal(t, "Service temporarily unavailable", ErrServiceUnavailable.Message)
}

func TestRecoveryMiddleware_AfterWrite(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	handler := NewErrorHandler(logger, false)

	partial := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
		panic("late failure")
	})

	rec := httptest.NewRecorder()
	RecoveryMiddleware(handler)(partial).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/owners/acme/export.csv", nil))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.True(t, logs.ContainsMessage("panic after response started"))
	assert.False(t, logs.ContainsMessage("panic recovered"))
}

func TestProblemDetails_Write(t *testing.T) {
	rec := httptest.NewRecorder()
	problem := NewProblemDetails(http.StatusConflict, "/errors/test", "Conflict", "", "/x").
		WithExtension("status", "shadowed").
		WithExtension("owner_id", "acme")
	require.NoError(t, problem.Write(rec))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, ProblemContentType, rec.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(http.StatusConflict), body["status"])
	assert.Equal(t, "acme", body["owner_id"])
	assert.NotContains(t, body, "detail")
}
