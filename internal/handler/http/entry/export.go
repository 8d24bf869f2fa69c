package entry

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"entryhub/internal/handler/http/respond"
	"entryhub/internal/repository"
	"entryhub/internal/usecase/export"
)

// Export handles GET /entries/export, streaming all entries joined with
// their feeds as a CSV attachment.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	rows, err := h.entryRepo.ListWithFeed(r.Context(), repository.OrderPublishedDesc)
	if err != nil {
		h.logger.Error("failed to load entries for export", slog.Any("error", err))
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}

	filename := fmt.Sprintf("entries_%s.csv", time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	if err := export.CSV(w, rows); err != nil {
		// Headers are out; log and abandon the response.
		h.logger.Error("failed to write CSV export", slog.Any("error", err))
	}
}
