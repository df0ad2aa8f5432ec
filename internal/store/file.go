package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"vcfo/pkg/contracts/domain"
)

const recordFileExt = ".json"

// ownerFile is the on-disk document for one owner
type ownerFile struct {
	OwnerID   string                   `json:"owner_id"`
	UpdatedAt time.Time                `json:"updated_at"`
	Records   []domain.FinancialRecord `json:"records"`
}

// FileStore keeps one JSON document per owner under a directory.
// Writes go through a temp file and rename so a crash never leaves a
// half-written record set behind.
type FileStore struct {
	mu     sync.RWMutex
	dir    string
	logger *slog.Logger
}

// NewFileStore creates a file store rooted at dir, creating it if needed
func NewFileStore(dir string, logger *slog.Logger) (*FileStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &FileStore{
		dir:    dir,
		logger: logger.With(slog.String("component", "file_store")),
	}, nil
}

func (s *FileStore) path(ownerID string) string {
	return filepath.Join(s.dir, url.PathEscape(ownerID)+recordFileExt)
}

// Replace writes records as the owner's document
func (s *FileStore) Replace(ctx context.Context, ownerID string, records []domain.FinancialRecord) error {
	if err := checkOwner(ownerID); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	doc := ownerFile{
		OwnerID:   ownerID,
		UpdatedAt: time.Now().UTC(),
		Records:   canonical(records),
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tmp, err := os.CreateTemp(s.dir, ".records-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write records: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync records: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(ownerID)); err != nil {
		return fmt.Errorf("failed to replace records: %w", err)
	}

	s.logger.DebugContext(ctx, "records replaced",
		slog.String("owner_id", ownerID),
		slog.Int("record_count", len(doc.Records)),
		slog.Int("bytes", len(data)))
	return nil
}

// List reads the owner's document
func (s *FileStore) List(ctx context.Context, ownerID string) ([]domain.FinancialRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	data, err := os.ReadFile(s.path(ownerID))
	s.mu.RUnlock()

	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}

	var doc ownerFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode records for %s: %w", ownerID, err)
	}
	if doc.Records == nil {
		doc.Records = []domain.FinancialRecord{}
	}
	return doc.Records, nil
}

// Delete removes the owner's document
func (s *FileStore) Delete(ctx context.Context, ownerID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(ownerID))
	if errors.Is(err, os.ErrNotExist) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete records: %w", err)
	}
	return nil
}

// Owners lists the owners with a document in the directory
func (s *FileStore) Owners(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	entries, err := os.ReadDir(s.dir)
	s.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("failed to list data directory: %w", err)
	}

	owners := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, recordFileExt) {
			continue
		}
		id, err := url.PathUnescape(strings.TrimSuffix(name, recordFileExt))
		if err != nil {
			s.logger.WarnContext(ctx, "skipping unrecognized record file", slog.String("file", name))
			continue
		}
		owners = append(owners, id)
	}
	sort.Strings(owners)
	return owners, nil
}

// Ping checks that the data directory is still accessible
func (s *FileStore) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	info, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("data directory unavailable: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data path %s is not a directory", s.dir)
	}
	return nil
}
