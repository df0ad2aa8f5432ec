package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"net/http"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	apierrors "vcfo/internal/errors"
	"vcfo/internal/infrastructure"
	"vcfo/pkg/contracts/domain"
)

// OwnerIDParam is the chi URL parameter holding the owner
const OwnerIDParam = "ownerID"

var ownerIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]{0,63}$`)

// OwnerParams identifies the owner a request operates on
type OwnerParams struct {
	OwnerID string `json:"owner_id" validate:"required,owner_id"`
}

// TrendQuery holds the query parameters of the trend endpoint
type TrendQuery struct {
	Period string `json:"period" validate:"omitempty,granularity"`
}

// RequestValidator validates request parameters using struct tags
type RequestValidator struct {
	validator    *validator.Validate
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewRequestValidator creates a new request validator
func NewRequestValidator(logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *RequestValidator {
	v := validator.New()

	v.RegisterValidation("owner_id", isValidOwnerID)
	v.RegisterValidation("granularity", isValidGranularity)

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &RequestValidator{
		validator:    v,
		logger:       logger.With(slog.String("component", "request_validator")),
		errorHandler: errorHandler,
	}
}

// ValidateStruct validates a struct and returns an API validation error
// listing every failed field.
func (m *RequestValidator) ValidateStruct(v interface{}) error {
	err := m.validator.Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	validationErrors := make([]apierrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		validationErrors = append(validationErrors, apierrors.ValidationError{
			Field:   fe.Field(),
			Message: formatValidationError(fe),
		})
	}
	return apierrors.NewValidationErrors(validationErrors)
}

// RequireOwner validates the owner URL parameter and stores it in the
// request context.
func (m *RequestValidator) RequireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		params := OwnerParams{OwnerID: chi.URLParam(r, OwnerIDParam)}
		if err := m.ValidateStruct(params); err != nil {
			m.logger.DebugContext(r.Context(), "rejected owner id",
				slog.String("owner_id", params.OwnerID))
			m.errorHandler.HandleError(w, r, err)
			return
		}

		reportOwner(r.Context(), params.OwnerID)
		ctx := infrastructure.WithOwnerID(r.Context(), params.OwnerID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ContentTypeValidator rejects mutating requests whose media type is not
// one of contentTypes.
func ContentTypeValidator(errorHandler *apierrors.ErrorHandler, contentTypes ...string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost && r.Method != http.MethodPut {
				next.ServeHTTP(w, r)
				return
			}

			contentType := r.Header.Get("Content-Type")
			mediaType, _, err := mime.ParseMediaType(contentType)
			if err == nil {
				for _, allowed := range contentTypes {
					if strings.EqualFold(mediaType, allowed) {
						next.ServeHTTP(w, r)
						return
					}
				}
			}

			errorHandler.HandleError(w, r, apierrors.NewWithDetails(
				http.StatusUnsupportedMediaType,
				"UNSUPPORTED_MEDIA_TYPE",
				"Unsupported content type",
				map[string]interface{}{
					"content_type": contentType,
					"allowed":      contentTypes,
				},
			))
		})
	}
}

// BodyLimit caps request bodies at maxBytes. Declared lengths over the
// limit are rejected up front; chunked bodies fail with
// *http.MaxBytesError when read.
func BodyLimit(maxBytes int64, errorHandler *apierrors.ErrorHandler) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				errorHandler.HandleError(w, r, apierrors.NewWithDetails(
					http.StatusRequestEntityTooLarge,
					"PAYLOAD_TOO_LARGE",
					"Upload exceeds the maximum allowed size",
					map[string]interface{}{
						"max_size": maxBytes,
						"size":     r.ContentLength,
					},
				))
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// formatValidationError formats validation error messages
func formatValidationError(err validator.FieldError) string {
	field := err.Field()
	param := err.Param()

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "owner_id":
		return fmt.Sprintf("%s must be 1-64 letters, digits, '.', '_' or '-' and start with a letter or digit", field)
	case "granularity":
		return fmt.Sprintf("%s must be one of: daily, weekly, monthly", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(param, " ", ", "))
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, param)
	default:
		return fmt.Sprintf("%s failed %s validation", field, err.Tag())
	}
}

func isValidOwnerID(fl validator.FieldLevel) bool {
	return ownerIDPattern.MatchString(fl.Field().String())
}

func isValidGranularity(fl validator.FieldLevel) bool {
	return domain.Granularity(fl.Field().String()).Valid()
}
