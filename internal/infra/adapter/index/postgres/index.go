// Package postgres implements the search index on top of a weighted
// tsvector column maintained by the database. The `searchable` column is a
// generated column (setweight A/B/C over title/body/url), so Index and
// Remove have nothing to write; Search is the only round trip.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"entryhub/internal/infra/adapter/index/memory"
	"entryhub/internal/observability/metrics"
	"entryhub/internal/repository"
)

type Index struct {
	db        *sql.DB
	headline  string
	highlight memory.HighlightOptions
}

func NewIndex(db *sql.DB, opts memory.HighlightOptions) *Index {
	return &Index{
		db:        db,
		headline:  headlineOptions(opts),
		highlight: opts,
	}
}

// Index is a no-op: the generated searchable column tracks the row.
func (idx *Index) Index(ctx context.Context, doc repository.Document) error { return nil }

// Remove is a no-op: the row deletion removes the tsvector with it.
func (idx *Index) Remove(ctx context.Context, id int64) error { return nil }

func (idx *Index) Search(ctx context.Context, query string) ([]repository.Hit, error) {
	started := time.Now()
	defer func() { metrics.RecordSearchQuery(time.Since(started)) }()

	tsquery := buildTsquery(query)
	if tsquery == "" {
		return []repository.Hit{}, nil
	}

	sqlQuery := fmt.Sprintf(`
SELECT e.id,
       ts_rank(e.searchable, q) AS rank,
       ts_headline('simple', e.title, q, '%[1]s') AS title_hl,
       ts_headline('simple', e.body,  q, '%[1]s') AS body_hl,
       ts_headline('simple', e.url,   q, '%[1]s') AS url_hl
FROM entries e, to_tsquery('simple', $1) q
WHERE e.searchable @@ q
ORDER BY rank DESC, e.id ASC
LIMIT %d`, idx.headline, repository.MaxRowsLimit)

	rows, err := idx.db.QueryContext(ctx, sqlQuery, tsquery)
	if err != nil {
		return nil, fmt.Errorf("Search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	hits := make([]repository.Hit, 0, 16)
	for rows.Next() {
		var hit repository.Hit
		var titleHL, bodyHL, urlHL string
		if err := rows.Scan(&hit.ID, &hit.Rank, &titleHL, &bodyHL, &urlHL); err != nil {
			return nil, fmt.Errorf("Search: Scan: %w", err)
		}
		hit.Highlighted = make(map[string]string, 3)
		if strings.Contains(titleHL, idx.highlight.StartSel) {
			hit.Highlighted["title"] = titleHL
		}
		if strings.Contains(bodyHL, idx.highlight.StartSel) {
			hit.Highlighted["body"] = bodyHL
		}
		if strings.Contains(urlHL, idx.highlight.StartSel) {
			hit.Highlighted["url"] = urlHL
		}
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

// buildTsquery turns free text into an AND of prefix terms. Tokens are
// produced by the same tokenizer as the memory index so the two backends
// agree on what a word is.
func buildTsquery(query string) string {
	tokens := memory.Tokenize(query)
	if len(tokens) == 0 {
		return ""
	}
	terms := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		terms = append(terms, tok+":*")
	}
	return strings.Join(terms, " & ")
}

func headlineOptions(opts memory.HighlightOptions) string {
	highlightAll := "FALSE"
	if opts.HighlightAll {
		highlightAll = "TRUE"
	}
	return fmt.Sprintf(
		"StartSel=%s, StopSel=%s, MinWords=%d, MaxWords=%d, ShortWord=%d, MaxFragments=%d, FragmentDelimiter=%s, HighlightAll=%s",
		opts.StartSel, opts.StopSel, opts.MinWords, opts.MaxWords,
		opts.ShortWord, opts.MaxFragments, strings.TrimSpace(opts.FragmentDelimiter), highlightAll,
	)
}
