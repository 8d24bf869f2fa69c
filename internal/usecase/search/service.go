// Package search answers free-text queries over the entry corpus by joining
// index hits back to their stored entries.
package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"entryhub/internal/domain/entity"
	"entryhub/internal/repository"
)

// Result is one ranked search hit hydrated with its stored entry.
// Highlighted maps matched fields ("title", "body", "url") to marked-up
// fragments; unmatched fields are absent.
type Result struct {
	Entry       *entity.Entry     `json:"entry"`
	Rank        float64           `json:"rank"`
	Highlighted map[string]string `json:"highlighted,omitempty"`
}

// Service provides the search use case.
type Service struct {
	EntryRepo   repository.EntryRepository
	SearchIndex repository.SearchIndex
}

func NewService(entryRepo repository.EntryRepository, searchIndex repository.SearchIndex) *Service {
	return &Service{EntryRepo: entryRepo, SearchIndex: searchIndex}
}

// Search returns entries matching the query, highest rank first. A blank
// query returns no results. Hits whose entry has been deleted since indexing
// are dropped rather than surfaced as errors.
func (s *Service) Search(ctx context.Context, query string) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return []Result{}, nil
	}

	hits, err := s.SearchIndex.Search(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}

	results := make([]Result, 0, len(hits))
	for _, hit := range hits {
		entry, err := s.EntryRepo.Get(ctx, hit.ID)
		if err != nil {
			if errors.Is(err, entity.ErrNotFound) {
				// Index lag after a delete; the next Remove pass catches up.
				slog.DebugContext(ctx, "search hit references missing entry",
					slog.Int64("entry_id", hit.ID))
				continue
			}
			return nil, fmt.Errorf("load entry %d: %w", hit.ID, err)
		}
		results = append(results, Result{
			Entry:       entry,
			Rank:        hit.Rank,
			Highlighted: hit.Highlighted,
		})
	}
	return results, nil
}
