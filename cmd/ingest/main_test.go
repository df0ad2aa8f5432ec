package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"vcfo/internal/dataprocessing"
	"vcfo/internal/exporter"
	"vcfo/internal/files"
	"vcfo/internal/shared/testutil"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestParseFlags(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"single file", []string{"a.csv"}, ""},
		{"all flags", []string{"-export-dir", "out", "-top-days", "3", "-trend", "weekly", "a.csv", "b.xlsx"}, ""},
		{"no files", []string{}, "at least one input file"},
		{"version needs no files", []string{"-version"}, ""},
		{"latest with dir", []string{"-dir", "exports", "-latest"}, ""},
		{"latest without dir", []string{"-latest", "a.csv"}, "-latest requires -dir"},
		{"bad top days", []string{"-top-days", "0", "a.csv"}, "-top-days must be positive"},
		{"bad trend", []string{"-trend", "yearly", "a.csv"}, "-trend must be daily, weekly or monthly"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseFlags(tt.args, io.Discard)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("help", func(t *testing.T) {
		_, err := parseFlags([]string{"-h"}, io.Discard)
		assert.True(t, errors.Is(err, flag.ErrHelp))
	})
}

func TestRun_MergesFiles(t *testing.T) {
	dir := t.TempDir()
	first := writeFile(t, dir, "jan.csv", testutil.SampleCSV)

	records, err := dataprocessing.Parse(testutil.SampleCSV)
	require.NoError(t, err)
	var wb bytes.Buffer
	require.NoError(t, exporter.WriteWorkbook(&wb, dataprocessing.Aggregate(records)))
	second := writeFile(t, dir, "copy.xlsx", wb.String())

	logger, _ := testutil.NewTestLogger(t)
	var stdout bytes.Buffer
	opts := options{files: []string{first, second}, topDays: 2, period: "monthly"}
	require.NoError(t, run(context.Background(), opts, &stdout, logger))

	var out Output
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &out))

	require.Len(t, out.Files, 2)
	assert.Equal(t, first, out.Files[0].File)
	assert.Equal(t, 3, out.Files[0].Accepted)
	assert.Equal(t, 3, out.Files[1].Accepted)
	assert.Len(t, out.Dashboard.Records, 6)
	assert.InDelta(t, 7000, out.Dashboard.Summary.TotalSales, 0.001)
	assert.Len(t, out.Dashboard.TopDays, 2)
	assert.Len(t, out.Trend, 2)
	assert.Empty(t, out.Exports)

	for i := 1; i < len(out.Dashboard.Records); i++ {
		assert.False(t, out.Dashboard.Records[i].Date.Before(out.Dashboard.Records[i-1].Date))
	}
}

func TestRun_Exports(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "export.csv", testutil.SampleCSV)
	exportDir := filepath.Join(dir, "out")

	logger, _ := testutil.NewTestLogger(t)
	var stdout bytes.Buffer
	opts := options{files: []string{input}, topDays: 10, exportDir: exportDir}
	require.NoError(t, run(context.Background(), opts, &stdout, logger))

	var out Output
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &out))
	require.Len(t, out.Exports, 2)

	csvBody, err := os.ReadFile(filepath.Join(exportDir, CSVExportName))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(csvBody, []byte("\xEF\xBB\xBF")))

	f, err := excelize.OpenFile(filepath.Join(exportDir, WorkbookExportName))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(exporter.RecordsSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 4)
}

func TestRun_Directory(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.csv", testutil.SampleCSV)
	writeFile(t, dir, "a.csv", testutil.SampleCSV)
	writeFile(t, dir, "notes.txt", "ignored")

	logger, _ := testutil.NewTestLogger(t)
	var stdout bytes.Buffer
	require.NoError(t, run(context.Background(), options{dir: dir, topDays: 10}, &stdout, logger))

	var out Output
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &out))
	require.Len(t, out.Files, 2)
	assert.Equal(t, filepath.Join(dir, "a.csv"), out.Files[0].File)
	assert.Equal(t, filepath.Join(dir, "b.csv"), out.Files[1].File)

	t.Run("latest only", func(t *testing.T) {
		old := time.Now().Add(-time.Hour)
		require.NoError(t, os.Chtimes(filepath.Join(dir, "b.csv"), old, old))

		var stdout bytes.Buffer
		require.NoError(t, run(context.Background(), options{dir: dir, latest: true, topDays: 10}, &stdout, logger))

		var out Output
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &out))
		require.Len(t, out.Files, 1)
		assert.Equal(t, filepath.Join(dir, "a.csv"), out.Files[0].File)
	})

	t.Run("empty directory", func(t *testing.T) {
		err := run(context.Background(), options{dir: t.TempDir(), topDays: 10}, io.Discard, logger)
		assert.EqualError(t, err, "no input files to ingest")
	})
}

func TestRun_Failures(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.csv", testutil.SampleCSV)

	tests := []struct {
		name  string
		file  string
		check func(t *testing.T, err error)
	}{
		{
			name: "missing columns",
			file: writeFile(t, dir, "partial.csv", "Date,Amazon_Sales\n01-01-2024,5\n"),
			check: func(t *testing.T, err error) {
				var formatErr *dataprocessing.FormatError
				require.ErrorAs(t, err, &formatErr)
				assert.Equal(t, []string{"Gross_Sales", "Net_Sales"}, formatErr.MissingColumns())
			},
		},
		{
			name: "malformed quoting",
			file: writeFile(t, dir, "broken.csv", "Date,Gross_Sales,Net_Sales\n01-01-2024,10\"0,90\n"),
			check: func(t *testing.T, err error) {
				var parseErr *dataprocessing.ParseError
				assert.ErrorAs(t, err, &parseErr)
			},
		},
		{
			name: "too large",
			file: writeFile(t, dir, "huge.csv", testutil.SampleCSV+strings.Repeat("\n", 4096)),
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, files.ErrTooLarge)
			},
		},
		{
			name: "missing file",
			file: filepath.Join(dir, "absent.csv"),
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, os.ErrNotExist)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			var stdout bytes.Buffer
			err := run(context.Background(), options{files: []string{good, tt.file}, topDays: 10, maxBytes: 4096}, &stdout, logger)

			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.file)
			assert.Zero(t, stdout.Len())
			tt.check(t, err)
		})
	}
}

func TestRun_Cancelled(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "export.csv", testutil.SampleCSV)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	logger, _ := testutil.NewTestLogger(t)
	err := run(ctx, options{files: []string{input}, topDays: 10}, io.Discard, logger)
	assert.ErrorIs(t, err, context.Canceled)
}
