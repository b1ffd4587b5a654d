// Package storage provides the persistence layer for the analysis pipeline.
//
// Two backends implement the same Store interface: SQLite (the default,
// using WAL journal mode and a single-writer model) and MongoDB (the
// document store the hosted deployment uses). The pipeline and the dashboard
// API depend only on the interface.
package storage

import (
	"context"
	"fmt"
	"time"

	"newsadvisor/internal/config"
	"newsadvisor/internal/models"
)

// Store is the persistence interface the pipeline depends on. Timestamps on
// persisted records are store-assigned at write time.
type Store interface {
	// ExistingHashes returns the subset of the given content hashes that are
	// already persisted, as a membership set.
	ExistingHashes(ctx context.Context, hashes []string) (map[string]bool, error)

	// SaveFeedItems batch-inserts feed items. Items are persisted exactly as
	// given, with created_at/updated_at assigned by the store.
	SaveFeedItems(ctx context.Context, items []models.FeedItem) error

	// MarkFeedsProcessed flips processed to true for every feed item whose
	// content hash is in the given set.
	MarkFeedsProcessed(ctx context.Context, hashes []string) error

	// SaveRequestResponse appends one prompt/response exchange record.
	SaveRequestResponse(ctx context.Context, rec *models.RequestResponseRecord) error

	// ResponsesForDay returns all exchange records created within the UTC
	// calendar day containing the given instant, newest first.
	ResponsesForDay(ctx context.Context, day time.Time) ([]models.RequestResponseRecord, error)

	// Close releases the underlying connection.
	Close() error
}

// Open creates the store selected by the configuration.
func Open(ctx context.Context, cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case "sqlite":
		return OpenSQLite(cfg.Path)
	case "mongo":
		return OpenMongo(ctx, cfg.URI, cfg.Database)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}

// dayBoundsUTC returns the inclusive start and exclusive end of the UTC
// calendar day containing t.
func dayBoundsUTC(t time.Time) (start, end time.Time) {
	t = t.UTC()
	start = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return start, start.Add(24 * time.Hour)
}
