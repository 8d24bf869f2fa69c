package repository

import (
	"context"
	"time"

	"entryhub/internal/domain/entity"
)

// MaxRowsLimit caps the number of rows any listing operation returns.
const MaxRowsLimit = 1000

// ListOrder selects the ordering of a listing operation. Ordering is always an
// explicit parameter; "most recent first" is the default value, not ambient
// behavior.
type ListOrder int

const (
	// OrderPublishedDesc orders entries by published_at, newest first.
	OrderPublishedDesc ListOrder = iota
	// OrderPublishedAsc orders entries by published_at, oldest first.
	OrderPublishedAsc
	// OrderRandom returns entries in arbitrary random order, for sampling.
	OrderRandom
)

// EntryWithFeed pairs an entry with its owning feed for joined reads.
type EntryWithFeed struct {
	Entry *entity.Entry
	Feed  *entity.Feed
}

// EntryRepository is the durable store of entries. It enforces the
// URL-uniqueness invariant and keeps the owning feed's entry counter
// consistent with creation and deletion.
type EntryRepository interface {
	// Create persists a new entry and increments the owning feed's entry
	// counter in the same transaction. The entry's ID and CreatedAt are set on
	// success. A URL collision, whether detected before or during the insert,
	// is returned as entity.ErrDuplicateURL.
	Create(ctx context.Context, entry *entity.Entry) error

	// Get retrieves an entry by ID. Returns entity.ErrNotFound when absent.
	Get(ctx context.Context, id int64) (*entity.Entry, error)

	// GetByURL retrieves an entry by its canonical URL.
	// Returns (nil, nil) when no entry has that URL.
	GetByURL(ctx context.Context, url string) (*entity.Entry, error)

	// List retrieves entries in the requested order, capped at MaxRowsLimit.
	List(ctx context.Context, order ListOrder) ([]*entity.Entry, error)

	// ListWithFeed retrieves entries joined with their owning feeds in the
	// requested order, capped at MaxRowsLimit.
	ListWithFeed(ctx context.Context, order ListOrder) ([]EntryWithFeed, error)

	// ListEnriched retrieves only entries whose enrichment has completed
	// (enriched_at is non-null), newest first.
	ListEnriched(ctx context.Context) ([]*entity.Entry, error)

	// ListUnenriched retrieves entries still awaiting enrichment, oldest
	// published first so the backlog drains in order.
	ListUnenriched(ctx context.Context, limit int) ([]*entity.Entry, error)

	// ListLatest retrieves entries published within the last 24 hours,
	// newest first.
	ListLatest(ctx context.Context) ([]*entity.Entry, error)

	// UpdateEnrichment atomically sets annotations, sentiment, and enriched_at
	// on an entry. The three fields are written in a single statement so a
	// partial enrichment can never be observed.
	UpdateEnrichment(ctx context.Context, id int64, annotations []entity.Annotation, sentiment *entity.Sentiment, enrichedAt time.Time) error

	// Delete removes an entry and decrements the owning feed's entry counter
	// in the same transaction.
	Delete(ctx context.Context, id int64) error
}
