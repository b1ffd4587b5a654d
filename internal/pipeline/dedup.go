package pipeline

import (
	"context"
	"crypto/sha256"
	"fmt"

	"newsadvisor/internal/models"
	"newsadvisor/internal/storage"
)

// hashTitle returns the SHA-256 hex digest of the title. The digest is the
// feed item's stable identity across passes and process restarts.
func hashTitle(title string) string {
	h := sha256.Sum256([]byte(title))
	return fmt.Sprintf("%x", h)
}

// dedup determines which of the candidate feed items are new relative to
// persisted history, persists the new ones with processed=false, and returns
// them with their content hashes filled in. Items whose hash is already
// persisted are dropped. An empty candidate list is a no-op: no store calls
// are made.
//
// The scheduler guarantees passes never overlap, so there is no race between
// the membership read and the batch insert.
func dedup(ctx context.Context, store storage.Store, candidates []models.FeedItem) ([]models.FeedItem, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	hashes := make([]string, len(candidates))
	for i, item := range candidates {
		hashes[i] = hashTitle(item.Title)
	}

	existing, err := store.ExistingHashes(ctx, hashes)
	if err != nil {
		return nil, fmt.Errorf("checking feed history: %w", err)
	}

	var fresh []models.FeedItem
	seen := make(map[string]bool, len(candidates))
	for i, item := range candidates {
		hash := hashes[i]
		if existing[hash] || seen[hash] {
			continue
		}
		seen[hash] = true

		item.ContentHash = hash
		item.Processed = false
		fresh = append(fresh, item)
	}

	if len(fresh) == 0 {
		return nil, nil
	}

	if err := store.SaveFeedItems(ctx, fresh); err != nil {
		return nil, fmt.Errorf("persisting new feed items: %w", err)
	}

	return fresh, nil
}
