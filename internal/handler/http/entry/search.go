package entry

import (
	"log/slog"
	"net/http"

	"entryhub/internal/handler/http/respond"
)

// Search handles GET /entries/search. A blank query returns an empty result
// set rather than an error.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	results, err := h.searcher.Search(r.Context(), query)
	if err != nil {
		h.logger.Error("search failed",
			slog.String("query", query),
			slog.Any("error", err))
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"query":   query,
		"results": toSearchResponses(results),
		"count":   len(results),
	})
}
