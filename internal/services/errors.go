package services

import (
	"errors"

	apperrors "vcfo/internal/errors"
	"vcfo/internal/store"
)

// Service errors
var (
	ErrEmptyUpload        = apperrors.ErrEmptyUpload
	ErrUnsupportedFormat  = apperrors.ErrUnsupportedMedia
	ErrInvalidGranularity = apperrors.ErrValidation("period", "period must be one of: daily, weekly, monthly")
)

// storeError maps store failures onto typed application errors so the
// HTTP layer can pick the status.
func storeError(err error, action string) error {
	if errors.Is(err, store.ErrNotFound) {
		return apperrors.NewAppError(apperrors.ErrTypeNotFound, "no financial records stored for owner", err).
			WithContext("action", action)
	}
	return apperrors.NewStorageError("failed to "+action+" records", err).WithContext("action", action)
}
