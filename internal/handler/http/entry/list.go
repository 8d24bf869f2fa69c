// Package entry serves the entry read API: listing, search, and CSV export.
package entry

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"entryhub/internal/handler/http/respond"
	"entryhub/internal/repository"
	"entryhub/internal/usecase/search"
)

// Searcher runs a ranked full-text query.
type Searcher interface {
	Search(ctx context.Context, query string) ([]search.Result, error)
}

// Handler serves entry read endpoints.
type Handler struct {
	entryRepo repository.EntryRepository
	searcher  Searcher
	logger    *slog.Logger
}

func NewHandler(entryRepo repository.EntryRepository, searcher Searcher, logger *slog.Logger) *Handler {
	return &Handler{
		entryRepo: entryRepo,
		searcher:  searcher,
		logger:    logger,
	}
}

// List handles GET /entries. The order parameter accepts desc (default),
// asc, and random.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	order, err := parseOrder(r.URL.Query().Get("order"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, err)
		return
	}

	entries, err := h.entryRepo.List(r.Context(), order)
	if err != nil {
		h.logger.Error("failed to list entries", slog.Any("error", err))
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{
		"entries": toEntryResponses(entries),
		"count":   len(entries),
	})
}

func parseOrder(param string) (repository.ListOrder, error) {
	switch param {
	case "", "desc":
		return repository.OrderPublishedDesc, nil
	case "asc":
		return repository.OrderPublishedAsc, nil
	case "random":
		return repository.OrderRandom, nil
	default:
		return 0, errors.New("order must be one of desc, asc, random")
	}
}
