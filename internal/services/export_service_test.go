package services

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"vcfo/internal/config"
	apperrors "vcfo/internal/errors"
	"vcfo/internal/exporter"
	"vcfo/internal/report"
	"vcfo/internal/shared/testutil"
	"vcfo/internal/store"
)

func newExportService(t *testing.T, recordStore store.RecordStore, renderer report.PDFRenderer) *ExportService {
	logger, _ := testutil.NewTestLogger(t)
	return NewExportService(recordStore, renderer, nil, config.IngestConfig{TopDaysLimit: config.DefaultTopDaysLimit}, logger)
}

func listing() *MockRecordStore {
	recordStore := new(MockRecordStore)
	recordStore.On("List", mock.Anything, "acme").Return(sampleRecords(), nil)
	return recordStore
}

func TestExportService_CSV(t *testing.T) {
	out, err := newExportService(t, listing(), nil).CSV(context.Background(), "acme")
	require.NoError(t, err)

	require.True(t, bytes.HasPrefix(out, []byte{0xEF, 0xBB, 0xBF}))
	lines := strings.Split(strings.TrimSpace(string(out[3:])), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, strings.Join(exporter.Headers(), ","), strings.TrimSpace(lines[0]))
	assert.True(t, strings.HasPrefix(lines[1], "01-01-2024,"))
}

func TestExportService_Workbook(t *testing.T) {
	out, err := newExportService(t, listing(), nil).Workbook(context.Background(), "acme")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exporter.RecordsSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}

func TestExportService_HTML(t *testing.T) {
	out, err := newExportService(t, listing(), nil).HTML(context.Background(), "acme")
	require.NoError(t, err)

	html := string(out)
	assert.Contains(t, html, "Owner acme")
	assert.Contains(t, html, `id="total-sales">1,800.00<`)
	assert.Contains(t, html, "3 records")
}

func TestExportService_PDF(t *testing.T) {
	t.Run("renders the report", func(t *testing.T) {
		renderer := &fakeRenderer{pdf: []byte("%PDF-1.4 fake")}

		out, err := newExportService(t, listing(), renderer).PDF(context.Background(), "acme")
		require.NoError(t, err)
		assert.Equal(t, []byte("%PDF-1.4 fake"), out)
		assert.Contains(t, string(renderer.html), "Owner acme")
	})

	t.Run("no renderer", func(t *testing.T) {
		recordStore := new(MockRecordStore)

		_, err := newExportService(t, recordStore, nil).PDF(context.Background(), "acme")
		var apiErr *apperrors.APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
		recordStore.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
	})

	t.Run("renderer failure", func(t *testing.T) {
		renderer := &fakeRenderer{err: errors.New("chrome crashed")}

		_, err := newExportService(t, listing(), renderer).PDF(context.Background(), "acme")
		var appErr *apperrors.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, apperrors.ErrTypeExport, appErr.Type)
	})

	t.Run("renderer timeout", func(t *testing.T) {
		renderer := &fakeRenderer{err: context.DeadlineExceeded}

		_, err := newExportService(t, listing(), renderer).PDF(context.Background(), "acme")
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("renderer unavailable", func(t *testing.T) {
		renderer := &fakeRenderer{err: report.ErrRendererUnavailable}

		_, err := newExportService(t, listing(), renderer).PDF(context.Background(), "acme")
		assert.Equal(t, ErrReportUnavailable, err)
	})
}

func TestExportService_UnknownOwner(t *testing.T) {
	recordStore := new(MockRecordStore)
	recordStore.On("List", mock.Anything, "ghost").Return(nil, store.ErrNotFound)
	svc := newExportService(t, recordStore, &fakeRenderer{})

	exports := map[string]func(context.Context, string) ([]byte, error){
		ExportCSV:  svc.CSV,
		ExportXLSX: svc.Workbook,
		ExportHTML: svc.HTML,
		ExportPDF:  svc.PDF,
	}
	for format, export := range exports {
		t.Run(format, func(t *testing.T) {
			_, err := export(context.Background(), "ghost")
			var appErr *apperrors.AppError
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, apperrors.ErrTypeNotFound, appErr.Type)
		})
	}
}
