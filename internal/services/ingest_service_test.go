package services

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"vcfo/internal/config"
	"vcfo/internal/dataprocessing"
	apperrors "vcfo/internal/errors"
	"vcfo/internal/exporter"
	"vcfo/internal/shared/testutil"
	"vcfo/internal/store"
	"vcfo/pkg/contracts/domain"
	"vcfo/pkg/contracts/events"
)

func newIngestService(t *testing.T, recordStore store.RecordStore, publisher EventPublisher) (*IngestService, *testutil.BufferedSlogHandler) {
	logger, handler := testutil.NewTestLogger(t)
	cfg := config.IngestConfig{TopDaysLimit: config.DefaultTopDaysLimit, PreviewRows: 2}
	return NewIngestService(recordStore, publisher, nil, cfg, logger), handler
}

func csvUpload(body string) Upload {
	return Upload{Format: FormatCSV, Filename: "export.csv", Body: strings.NewReader(body)}
}

func hasRecords(n int) interface{} {
	return mock.MatchedBy(func(records []domain.FinancialRecord) bool {
		return len(records) == n
	})
}

func TestFormatForFilename(t *testing.T) {
	tests := []struct {
		name string
		want UploadFormat
	}{
		{"export.csv", FormatCSV},
		{"EXPORT.XLSX", FormatXLSX},
		{" sales.xlsx ", FormatXLSX},
		{"sales.xls", FormatCSV},
		{"", FormatCSV},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatForFilename(tt.name))
		})
	}
}

func TestIngestService_IngestCSV(t *testing.T) {
	recordStore := new(MockRecordStore)
	publisher := new(MockPublisher)
	recordStore.On("Replace", mock.Anything, "acme", hasRecords(3)).Return(nil)
	publisher.On("Publish", mock.Anything, "acme", events.MessageTypeRecordsReplaced, events.RecordsReplaced{
		Source: "csv", Rows: 3, Accepted: 3, Dropped: 0,
	}).Return(nil)

	svc, logs := newIngestService(t, recordStore, publisher)
	result, err := svc.Ingest(context.Background(), "acme", csvUpload(testutil.SampleCSV))
	require.NoError(t, err)

	assert.Equal(t, &IngestResult{OwnerID: "acme", Rows: 3, Accepted: 3, Dropped: 0}, result)
	recordStore.AssertExpectations(t)
	publisher.AssertExpectations(t)
	testutil.AssertLogContains(t, logs, slog.LevelInfo, "records replaced")
	testutil.AssertLogAttr(t, logs, "owner_id", "acme")
}

func TestIngestService_IngestCountsDroppedRows(t *testing.T) {
	raw := "Date,Gross_Sales,Net_Sales\n01-01-2024,100,90\nnot a date,50,40\n03-01-2024,10,9\n"

	recordStore := new(MockRecordStore)
	publisher := new(MockPublisher)
	recordStore.On("Replace", mock.Anything, "acme", hasRecords(2)).Return(nil)
	publisher.On("Publish", mock.Anything, "acme", events.MessageTypeRecordsReplaced, mock.Anything).Return(nil)

	svc, _ := newIngestService(t, recordStore, publisher)
	result, err := svc.Ingest(context.Background(), "acme", csvUpload(raw))
	require.NoError(t, err)

	assert.Equal(t, 3, result.Rows)
	assert.Equal(t, 2, result.Accepted)
	assert.Equal(t, 1, result.Dropped)
}

func TestIngestService_IngestWorkbook(t *testing.T) {
	records, err := dataprocessing.Parse(testutil.SampleCSV)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, exporter.WriteWorkbook(&buf, dataprocessing.Aggregate(records)))

	recordStore := new(MockRecordStore)
	publisher := new(MockPublisher)
	recordStore.On("Replace", mock.Anything, "acme", mock.MatchedBy(func(got []domain.FinancialRecord) bool {
		return len(got) == 3 && got[0].GrossSales == 2000 && got[2].NetProfitLoss == -120
	})).Return(nil)
	publisher.On("Publish", mock.Anything, "acme", events.MessageTypeRecordsReplaced, events.RecordsReplaced{
		Source: "xlsx", Rows: 3, Accepted: 3, Dropped: 0,
	}).Return(nil)

	svc, _ := newIngestService(t, recordStore, publisher)
	result, err := svc.Ingest(context.Background(), "acme", Upload{Format: FormatXLSX, Filename: "export.xlsx", Body: &buf})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Accepted)
	recordStore.AssertExpectations(t)
}

func TestIngestService_IngestRejected(t *testing.T) {
	tests := []struct {
		name   string
		upload Upload
		check  func(t *testing.T, err error)
	}{
		{
			name:   "missing columns",
			upload: csvUpload("Date,Amazon_Sales\n01-01-2024,5\n"),
			check: func(t *testing.T, err error) {
				var formatErr *dataprocessing.FormatError
				require.True(t, errors.As(err, &formatErr))
				assert.Equal(t, []string{"Gross_Sales", "Net_Sales"}, formatErr.MissingColumns())
			},
		},
		{
			name:   "malformed quoting",
			upload: csvUpload("Date,Gross_Sales,Net_Sales\n01-01-2024,10\"0,90\n"),
			check: func(t *testing.T, err error) {
				var parseErr *dataprocessing.ParseError
				assert.True(t, errors.As(err, &parseErr))
			},
		},
		{
			name:   "empty body",
			upload: csvUpload(" \n\n"),
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrEmptyUpload)
			},
		},
		{
			name:   "broken workbook",
			upload: Upload{Format: FormatXLSX, Body: strings.NewReader("not a zip archive")},
			check: func(t *testing.T, err error) {
				var parseErr *dataprocessing.ParseError
				assert.True(t, errors.As(err, &parseErr))
			},
		},
		{
			name:   "unsupported format",
			upload: Upload{Format: "ods", Body: strings.NewReader("x")},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recordStore := new(MockRecordStore)
			publisher := new(MockPublisher)

			svc, logs := newIngestService(t, recordStore, publisher)
			result, err := svc.Ingest(context.Background(), "acme", tt.upload)

			require.Error(t, err)
			assert.Nil(t, result)
			tt.check(t, err)
			recordStore.AssertNotCalled(t, "Replace", mock.Anything, mock.Anything, mock.Anything)
			publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			testutil.AssertLogContains(t, logs, slog.LevelWarn, "upload rejected")
		})
	}
}

func TestIngestService_IngestStoreFailure(t *testing.T) {
	recordStore := new(MockRecordStore)
	publisher := new(MockPublisher)
	recordStore.On("Replace", mock.Anything, "acme", mock.Anything).Return(errors.New("disk full"))

	svc, logs := newIngestService(t, recordStore, publisher)
	_, err := svc.Ingest(context.Background(), "acme", csvUpload(testutil.SampleCSV))

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, apperrors.ErrTypeStorage, appErr.Type)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	testutil.AssertLogContains(t, logs, slog.LevelError, "failed to store records")
}

func TestIngestService_PublishFailureDoesNotFailIngest(t *testing.T) {
	recordStore := new(MockRecordStore)
	publisher := new(MockPublisher)
	recordStore.On("Replace", mock.Anything, "acme", mock.Anything).Return(nil)
	publisher.On("Publish", mock.Anything, "acme", mock.Anything, mock.Anything).Return(errors.New("hub stopped"))

	svc, logs := newIngestService(t, recordStore, publisher)
	result, err := svc.Ingest(context.Background(), "acme", csvUpload(testutil.SampleCSV))
	require.NoError(t, err)
	assert.Equal(t, 3, result.Accepted)
	testutil.AssertLogContains(t, logs, slog.LevelWarn, "failed to publish record event")
}

func TestIngestService_NilPublisher(t *testing.T) {
	svc, _ := newIngestService(t, store.NewMemoryStore(), nil)
	_, err := svc.Ingest(context.Background(), "acme", csvUpload(testutil.SampleCSV))
	assert.NoError(t, err)
}

func TestIngestService_Preview(t *testing.T) {
	recordStore := new(MockRecordStore)
	svc, _ := newIngestService(t, recordStore, nil)

	result, err := svc.Preview(context.Background(), csvUpload(testutil.SampleCSV))
	require.NoError(t, err)

	assert.Equal(t, 3, result.Rows)
	assert.Equal(t, 3, result.Accepted)
	require.Len(t, result.Preview, 2)
	assert.Equal(t, "01-01-2024", result.Preview[0].DateStr)
	assert.Len(t, result.Dashboard.Records, 3)
	assert.InDelta(t, 3500, result.Dashboard.Summary.TotalSales, 0.001)
	recordStore.AssertNotCalled(t, "Replace", mock.Anything, mock.Anything, mock.Anything)
}

func TestIngestService_PreviewMissingColumns(t *testing.T) {
	svc, _ := newIngestService(t, new(MockRecordStore), nil)

	_, err := svc.Preview(context.Background(), csvUpload("Date,Net_Sales\n01-01-2024,5\n"))
	var formatErr *dataprocessing.FormatError
	require.True(t, errors.As(err, &formatErr))
	assert.Equal(t, []string{"Gross_Sales"}, formatErr.Missing)
}

func TestIngestService_Delete(t *testing.T) {
	t.Run("removes and announces", func(t *testing.T) {
		recordStore := new(MockRecordStore)
		publisher := new(MockPublisher)
		recordStore.On("List", mock.Anything, "acme").Return([]domain.FinancialRecord{
			testutil.NewRecord(testutil.Day(2024, 1, 1), 100),
			testutil.NewRecord(testutil.Day(2024, 1, 2), 200),
		}, nil)
		recordStore.On("Delete", mock.Anything, "acme").Return(nil)
		publisher.On("Publish", mock.Anything, "acme", events.MessageTypeRecordsDeleted, events.RecordsDeleted{Removed: 2}).Return(nil)

		svc, _ := newIngestService(t, recordStore, publisher)
		require.NoError(t, svc.Delete(context.Background(), "acme"))
		recordStore.AssertExpectations(t)
		publisher.AssertExpectations(t)
	})

	t.Run("unknown owner", func(t *testing.T) {
		recordStore := new(MockRecordStore)
		recordStore.On("List", mock.Anything, "ghost").Return(nil, store.ErrNotFound)

		svc, _ := newIngestService(t, recordStore, nil)
		err := svc.Delete(context.Background(), "ghost")

		var appErr *apperrors.AppError
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, apperrors.ErrTypeNotFound, appErr.Type)
		assert.ErrorIs(t, err, store.ErrNotFound)
		recordStore.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}
