// Package memory implements an in-process search index with field-weighted
// ranking, prefix matching, and fragment highlighting. Writes are applied
// synchronously under a single RWMutex, so a search issued after Index
// returns always sees the new document.
package memory

import (
	"context"
	"sort"
	"sync"

	"entryhub/internal/observability/metrics"
	"entryhub/internal/repository"
)

// Field weights. Title outranks body outranks URL; an equal-strength match
// always scores at least as high in a heavier field.
const (
	weightTitle = 1.0
	weightBody  = 0.4
	weightURL   = 0.2
)

// Match strengths. An exact token match counts above a bare prefix match.
const (
	strengthExact  = 1.0
	strengthPrefix = 0.6
)

type fieldTokens struct {
	title []string
	body  []string
	url   []string
}

type Index struct {
	mu        sync.RWMutex
	docs      map[int64]repository.Document
	tokens    map[int64]fieldTokens
	highlight HighlightOptions
}

func NewIndex(opts HighlightOptions) *Index {
	return &Index{
		docs:      make(map[int64]repository.Document),
		tokens:    make(map[int64]fieldTokens),
		highlight: opts,
	}
}

// Index adds or replaces a document. Only title, body, and url participate;
// the Document projection carries nothing else by construction.
func (idx *Index) Index(ctx context.Context, doc repository.Document) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.docs[doc.ID] = doc
	idx.tokens[doc.ID] = fieldTokens{
		title: Tokenize(doc.Title),
		body:  Tokenize(doc.Body),
		url:   Tokenize(doc.URL),
	}
	metrics.UpdateSearchIndexSize(len(idx.docs))
	return nil
}

func (idx *Index) Remove(ctx context.Context, id int64) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	delete(idx.docs, id)
	delete(idx.tokens, id)
	metrics.UpdateSearchIndexSize(len(idx.docs))
	return nil
}

// Search ranks documents against the query and returns hits ordered by rank,
// descending. Documents with no matching token are excluded. Ties break on
// document ID so results are deterministic.
func (idx *Index) Search(ctx context.Context, query string) ([]repository.Hit, error) {
	queryTokens := Tokenize(query)
	if len(queryTokens) == 0 {
		return []repository.Hit{}, nil
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	hits := make([]repository.Hit, 0, 16)
	for id, tokens := range idx.tokens {
		rank := scoreField(tokens.title, queryTokens)*weightTitle +
			scoreField(tokens.body, queryTokens)*weightBody +
			scoreField(tokens.url, queryTokens)*weightURL
		if rank == 0 {
			continue
		}

		doc := idx.docs[id]
		highlighted := make(map[string]string, 3)
		if fragment := Highlight(doc.Title, queryTokens, idx.highlight); fragment != "" {
			highlighted["title"] = fragment
		}
		if fragment := Highlight(doc.Body, queryTokens, idx.highlight); fragment != "" {
			highlighted["body"] = fragment
		}
		if fragment := Highlight(doc.URL, queryTokens, idx.highlight); fragment != "" {
			highlighted["url"] = fragment
		}

		hits = append(hits, repository.Hit{ID: id, Rank: rank, Highlighted: highlighted})
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Rank != hits[j].Rank {
			return hits[i].Rank > hits[j].Rank
		}
		return hits[i].ID < hits[j].ID
	})
	return hits, nil
}

// Size reports the number of indexed documents.
func (idx *Index) Size() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.docs)
}

// scoreField sums match strength over query tokens against one field's
// tokens. Each query token contributes its best match in the field, so a
// repeated word does not inflate the rank.
func scoreField(fieldTokens, queryTokens []string) float64 {
	var score float64
	for _, q := range queryTokens {
		best := 0.0
		for _, tok := range fieldTokens {
			switch {
			case tok == q:
				best = strengthExact
			case best < strengthPrefix && len(q) < len(tok) && tok[:len(q)] == q:
				best = strengthPrefix
			}
			if best == strengthExact {
				break
			}
		}
		score += best
	}
	return score
}
