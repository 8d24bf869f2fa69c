package repository

import "context"

// Document is the reduced projection of an entry handed to the search index.
// Only title, body, and url participate in indexing; annotations and
// sentiment are structurally excluded from the indexed document.
type Document struct {
	ID     int64
	FeedID int64
	Title  string
	Body   string
	URL    string
}

// Hit is a single ranked search result. Highlighted holds the marked-up
// fragments per matched field ("title", "body", "url"); fields without a
// match are absent from the map.
type Hit struct {
	ID          int64
	Rank        float64
	Highlighted map[string]string
}

// SearchIndex maintains a weighted full-text index over entry documents and
// answers ranked, prefix-matching, highlighted queries.
//
// Field weights are title (A) highest, body (B) medium, url (C) lowest; a
// match in a higher-weighted field must rank at least as high as an
// equal-strength match confined to a lower-weighted one.
type SearchIndex interface {
	// Index adds or replaces the document for an entry. Implementations must
	// make the document visible to subsequent searches within a bounded
	// propagation window.
	Index(ctx context.Context, doc Document) error

	// Remove drops an entry's document from the index. Removing an unknown ID
	// is not an error.
	Remove(ctx context.Context, id int64) error

	// Search returns hits for the free-text query ordered by rank, highest
	// first. Entries with no matching token are excluded. Query tokens match
	// indexed tokens by prefix, case-insensitively.
	Search(ctx context.Context, query string) ([]Hit, error)
}
