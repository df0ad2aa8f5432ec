package http

import (
	"errors"
	"mime"
	"net/http"
	"strings"

	apierrors "vcfo/internal/errors"
	"vcfo/internal/services"
)

// Upload media types
const (
	ContentTypeCSV       = "text/csv"
	ContentTypeXLSX      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeMultipart = "multipart/form-data"
)

// UploadContentTypes lists the media types accepted by upload endpoints
var UploadContentTypes = []string{ContentTypeCSV, ContentTypeMultipart, ContentTypeXLSX}

const (
	uploadField     = "file"
	multipartMemory = 8 << 20
)

// readUpload extracts the export from a raw CSV or XLSX body or from the
// "file" field of a multipart form. The returned cleanup must be called
// once the upload has been consumed.
func readUpload(r *http.Request) (services.Upload, func(), error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch strings.ToLower(mediaType) {
	case ContentTypeMultipart:
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			var maxBytesErr *http.MaxBytesError
			if errors.As(err, &maxBytesErr) {
				return services.Upload{}, nil, err
			}
			return services.Upload{}, nil, apierrors.InvalidRequestWithError(err)
		}

		file, header, err := r.FormFile(uploadField)
		if err != nil {
			r.MultipartForm.RemoveAll()
			return services.Upload{}, nil, apierrors.ErrValidation(uploadField, `multipart field "file" is required`)
		}

		cleanup := func() {
			file.Close()
			r.MultipartForm.RemoveAll()
		}
		return services.Upload{
			Format:   services.FormatForFilename(header.Filename),
			Filename: header.Filename,
			Body:     file,
		}, cleanup, nil

	case ContentTypeXLSX:
		return services.Upload{Format: services.FormatXLSX, Body: r.Body}, func() {}, nil

	default:
		return services.Upload{Format: services.FormatCSV, Body: r.Body}, func() {}, nil
	}
}
