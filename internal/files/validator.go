package files

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

var (
	// ErrNotExport is returned for files that are neither CSV nor XLSX
	ErrNotExport = errors.New("not a CSV or XLSX export")
	// ErrTooLarge is returned for files over the configured size limit
	ErrTooLarge = errors.New("file exceeds the maximum size")
	// ErrEmptyFile is returned for zero length files
	ErrEmptyFile = errors.New("file is empty")
)

// Validator checks command line inputs and outputs before any parsing
type Validator struct {
	maxBytes int64
	logger   *slog.Logger
}

// NewValidator creates a validator. maxBytes <= 0 disables the size check.
func NewValidator(maxBytes int64, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{
		maxBytes: maxBytes,
		logger:   logger.With(slog.String("component", "file_validator")),
	}
}

// ValidateInput checks that path is a readable, non-empty export within
// the size limit
func (v *Validator) ValidateInput(path string) error {
	if !IsExport(path) {
		v.logger.Error("Unsupported input file", slog.String("file", path))
		return fmt.Errorf("%s: %w", path, ErrNotExport)
	}

	info, err := os.Stat(path)
	if err != nil {
		v.logger.Error("Failed to stat file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file", slog.String("path", path))
		return fmt.Errorf("%s is a directory, not a file", path)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%s: %w", path, ErrEmptyFile)
	}
	if v.maxBytes > 0 && info.Size() > v.maxBytes {
		v.logger.Error("Input file too large",
			slog.String("file", path),
			slog.Int64("size", info.Size()),
			slog.Int64("max_size", v.maxBytes))
		return fmt.Errorf("%s (%d bytes): %w", path, info.Size(), ErrTooLarge)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateOutputDirectory ensures dir exists or can be created and is
// writable
func (v *Validator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	probe, err := os.CreateTemp(dir, ".write_test-*")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	probe.Close()
	os.Remove(probe.Name())

	v.logger.Debug("Output directory validated", slog.String("directory", filepath.Clean(dir)))
	return nil
}
