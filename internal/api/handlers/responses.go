package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"newsadvisor/internal/models"
	"newsadvisor/internal/storage"
)

// TodayResponses handles GET /api/llm-responses/today. It returns every
// prompt/response exchange recorded during the current UTC day, newest first.
func TodayResponses(store storage.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		records, err := store.ResponsesForDay(ctx, time.Now())
		if err != nil {
			slog.Error("failed to load today's responses", "error", err)
			writeError(w, http.StatusInternalServerError, "Failed to load responses")
			return
		}

		// An empty day serializes as [] rather than null.
		if records == nil {
			records = []models.RequestResponseRecord{}
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"count":   len(records),
			"data":    records,
		})
	}
}
