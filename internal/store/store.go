package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"vcfo/internal/config"
	"vcfo/pkg/contracts/domain"
)

// ErrNotFound is returned when an owner has no stored records
var ErrNotFound = errors.New("no records stored for owner")

// RecordStore persists financial records per owner
type RecordStore interface {
	// Replace stores records as the owner's complete record set
	Replace(ctx context.Context, ownerID string, records []domain.FinancialRecord) error
	// List returns the owner's records ascending by date
	List(ctx context.Context, ownerID string) ([]domain.FinancialRecord, error)
	// Delete removes every record of the owner
	Delete(ctx context.Context, ownerID string) error
	// Owners returns the owners that currently have records, sorted
	Owners(ctx context.Context) ([]string, error)
	// Ping reports whether the backend can serve requests
	Ping(ctx context.Context) error
}

// New creates the backend selected by the ingest configuration
func New(cfg *config.Config, logger *slog.Logger) (RecordStore, error) {
	switch cfg.Ingest.StoreBackend {
	case config.StoreBackendMemory:
		return NewMemoryStore(), nil
	case config.StoreBackendFile:
		return NewFileStore(cfg.GetDataDir(), logger)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Ingest.StoreBackend)
	}
}

// canonical returns a copy of records sorted ascending by date. Records
// sharing a date keep their upload order.
func canonical(records []domain.FinancialRecord) []domain.FinancialRecord {
	out := make([]domain.FinancialRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

func checkOwner(ownerID string) error {
	if ownerID == "" {
		return errors.New("owner id is required")
	}
	return nil
}
