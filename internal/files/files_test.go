package files

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vcfo/internal/shared/testutil"
)

func createFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestIsExport(t *testing.T) {
	tests := []struct {
		name     string
		expected bool
	}{
		{"sales.csv", true},
		{"SALES.CSV", true},
		{"q1.xlsx", true},
		{"legacy.xls", false},
		{"notes.txt", false},
		{"csv", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsExport(tt.name))
		})
	}
}

func TestDiscovery_FindExports(t *testing.T) {
	base := t.TempDir()
	dir := filepath.Join(base, "exports")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested.csv"), 0755))

	createFile(t, dir, "b.xlsx", "x")
	createFile(t, dir, "a.csv", "x")
	createFile(t, dir, "readme.md", "x")
	createFile(t, dir, ".hidden.csv", "x")

	t.Run("relative to base", func(t *testing.T) {
		found, err := NewDiscovery(base).FindExports("exports")
		require.NoError(t, err)

		require.Len(t, found, 2)
		assert.Equal(t, "a.csv", found[0].Name)
		assert.Equal(t, "b.xlsx", found[1].Name)
		assert.Equal(t, []string{filepath.Join(dir, "a.csv"), filepath.Join(dir, "b.xlsx")}, Paths(found))
	})

	t.Run("absolute", func(t *testing.T) {
		found, err := NewDiscovery("/does/not/matter").FindExports(dir)
		require.NoError(t, err)
		assert.Len(t, found, 2)
	})

	t.Run("missing directory", func(t *testing.T) {
		_, err := NewDiscovery(base).FindExports("absent")
		require.Error(t, err)
		assert.ErrorIs(t, err, os.ErrNotExist)
	})
}

func TestGetLatestFile(t *testing.T) {
	now := time.Now()
	files := []FileInfo{
		{Name: "old.csv", ModTime: now.Add(-time.Hour)},
		{Name: "new.csv", ModTime: now},
		{Name: "mid.csv", ModTime: now.Add(-time.Minute)},
	}

	latest, ok := GetLatestFile(files)
	require.True(t, ok)
	assert.Equal(t, "new.csv", latest.Name)

	_, ok = GetLatestFile(nil)
	assert.False(t, ok)
}

func TestValidator_ValidateInput(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "folder.csv"), 0755))

	tests := []struct {
		name    string
		path    string
		wantErr error
		wantMsg string
	}{
		{"valid csv", createFile(t, dir, "ok.csv", "Date,Gross_Sales,Net_Sales\n"), nil, ""},
		{"wrong extension", createFile(t, dir, "notes.txt", "x"), ErrNotExport, ""},
		{"empty", createFile(t, dir, "empty.csv", ""), ErrEmptyFile, ""},
		{"too large", createFile(t, dir, "big.csv", strings.Repeat("x", 65)), ErrTooLarge, ""},
		{"missing", filepath.Join(dir, "absent.csv"), os.ErrNotExist, ""},
		{"directory", filepath.Join(dir, "folder.csv"), nil, "is a directory"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			err := NewValidator(64, logger).ValidateInput(tt.path)

			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantMsg != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantMsg)
			default:
				assert.NoError(t, err)
			}
		})
	}

	t.Run("no size limit", func(t *testing.T) {
		path := createFile(t, dir, "huge.csv", strings.Repeat("x", 1024))
		assert.NoError(t, NewValidator(0, nil).ValidateInput(path))
	})
}

func TestValidator_ValidateOutputDirectory(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	v := NewValidator(0, logger)

	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, v.ValidateOutputDirectory(dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	file := createFile(t, t.TempDir(), "plain", "x")
	assert.Error(t, v.ValidateOutputDirectory(filepath.Join(file, "sub")))
}
