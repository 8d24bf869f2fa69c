package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"entryhub/internal/domain/entity"
	"entryhub/internal/repository"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const uniqueViolationCode = "23505"

const entryColumns = `id, feed_id, title, body, url, external_id, categories, published_at, annotations, sentiment, enriched_at, created_at`

type EntryRepo struct{ db *sql.DB }

func NewEntryRepo(db *sql.DB) repository.EntryRepository {
	return &EntryRepo{db: db}
}

// scanEntry scans one entry row including the JSONB enrichment columns.
func scanEntry(scanner interface{ Scan(...any) error }) (*entity.Entry, error) {
	var entry entity.Entry
	var annotationsJSON, sentimentJSON []byte
	if err := scanner.Scan(
		&entry.ID, &entry.FeedID, &entry.Title, &entry.Body, &entry.URL,
		&entry.ExternalID, pq.Array(&entry.Categories), &entry.PublishedAt,
		&annotationsJSON, &sentimentJSON, &entry.EnrichedAt, &entry.CreatedAt,
	); err != nil {
		return nil, err
	}

	if len(annotationsJSON) > 0 {
		if err := json.Unmarshal(annotationsJSON, &entry.Annotations); err != nil {
			return nil, fmt.Errorf("unmarshal annotations: %w", err)
		}
	}
	if len(sentimentJSON) > 0 {
		var sentiment entity.Sentiment
		if err := json.Unmarshal(sentimentJSON, &sentiment); err != nil {
			return nil, fmt.Errorf("unmarshal sentiment: %w", err)
		}
		entry.Sentiment = &sentiment
	}

	return &entry, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == uniqueViolationCode
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == uniqueViolationCode
	}
	return false
}

func orderClause(order repository.ListOrder) string {
	switch order {
	case repository.OrderPublishedAsc:
		return "published_at ASC"
	case repository.OrderRandom:
		return "RANDOM()"
	default:
		return "published_at DESC"
	}
}

// Create inserts the entry and bumps the owning feed's counter in one
// transaction. A URL collision surfaces as entity.ErrDuplicateURL so callers
// can treat the race and the pre-check miss identically.
func (repo *EntryRepo) Create(ctx context.Context, entry *entity.Entry) error {
	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("Create: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const query = `
INSERT INTO entries
       (feed_id, title, body, url, external_id, categories, published_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, created_at`
	err = tx.QueryRowContext(ctx, query,
		entry.FeedID, entry.Title, entry.Body, entry.URL,
		entry.ExternalID, pq.Array(entry.Categories), entry.PublishedAt,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return entity.ErrDuplicateURL
		}
		return fmt.Errorf("Create: insert: %w", err)
	}

	const counterQuery = `UPDATE feeds SET entries_count = entries_count + 1 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, counterQuery, entry.FeedID); err != nil {
		return fmt.Errorf("Create: counter: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("Create: commit: %w", err)
	}
	return nil
}

func (repo *EntryRepo) Get(ctx context.Context, id int64) (*entity.Entry, error) {
	query := fmt.Sprintf(`
SELECT %s
FROM entries
WHERE id = $1
LIMIT 1`, entryColumns)
	entry, err := scanEntry(repo.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return entry, nil
}

func (repo *EntryRepo) GetByURL(ctx context.Context, url string) (*entity.Entry, error) {
	query := fmt.Sprintf(`
SELECT %s
FROM entries
WHERE url = $1
LIMIT 1`, entryColumns)
	entry, err := scanEntry(repo.db.QueryRowContext(ctx, query, url))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetByURL: %w", err)
	}
	return entry, nil
}

func (repo *EntryRepo) List(ctx context.Context, order repository.ListOrder) ([]*entity.Entry, error) {
	query := fmt.Sprintf(`
SELECT %s
FROM entries
ORDER BY %s
LIMIT %d`, entryColumns, orderClause(order), repository.MaxRowsLimit)
	return repo.queryEntries(ctx, "List", query)
}

func (repo *EntryRepo) ListWithFeed(ctx context.Context, order repository.ListOrder) ([]repository.EntryWithFeed, error) {
	query := fmt.Sprintf(`
SELECT %s, f.id, f.title, f.url, f.feed_url, f.webhook_url, f.entries_count, f.active, f.last_crawled_at
FROM entries e
INNER JOIN feeds f ON e.feed_id = f.id
ORDER BY e.%s
LIMIT %d`, joinColumns("e"), orderClause(order), repository.MaxRowsLimit)

	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ListWithFeed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	result := make([]repository.EntryWithFeed, 0, 100)
	for rows.Next() {
		var entry entity.Entry
		var feed entity.Feed
		var annotationsJSON, sentimentJSON []byte
		if err := rows.Scan(
			&entry.ID, &entry.FeedID, &entry.Title, &entry.Body, &entry.URL,
			&entry.ExternalID, pq.Array(&entry.Categories), &entry.PublishedAt,
			&annotationsJSON, &sentimentJSON, &entry.EnrichedAt, &entry.CreatedAt,
			&feed.ID, &feed.Title, &feed.URL, &feed.FeedURL, &feed.WebhookURL,
			&feed.EntriesCount, &feed.Active, &feed.LastCrawledAt,
		); err != nil {
			return nil, fmt.Errorf("ListWithFeed: Scan: %w", err)
		}
		if len(annotationsJSON) > 0 {
			if err := json.Unmarshal(annotationsJSON, &entry.Annotations); err != nil {
				return nil, fmt.Errorf("ListWithFeed: unmarshal annotations: %w", err)
			}
		}
		if len(sentimentJSON) > 0 {
			var sentiment entity.Sentiment
			if err := json.Unmarshal(sentimentJSON, &sentiment); err != nil {
				return nil, fmt.Errorf("ListWithFeed: unmarshal sentiment: %w", err)
			}
			entry.Sentiment = &sentiment
		}
		result = append(result, repository.EntryWithFeed{Entry: &entry, Feed: &feed})
	}
	return result, rows.Err()
}

func (repo *EntryRepo) ListEnriched(ctx context.Context) ([]*entity.Entry, error) {
	query := fmt.Sprintf(`
SELECT %s
FROM entries
WHERE enriched_at IS NOT NULL
ORDER BY published_at DESC
LIMIT %d`, entryColumns, repository.MaxRowsLimit)
	return repo.queryEntries(ctx, "ListEnriched", query)
}

// ListUnenriched drains oldest first so the enrichment backlog is processed
// in publication order.
func (repo *EntryRepo) ListUnenriched(ctx context.Context, limit int) ([]*entity.Entry, error) {
	if limit <= 0 || limit > repository.MaxRowsLimit {
		limit = repository.MaxRowsLimit
	}
	query := fmt.Sprintf(`
SELECT %s
FROM entries
WHERE enriched_at IS NULL
ORDER BY published_at ASC
LIMIT $1`, entryColumns)
	return repo.queryEntries(ctx, "ListUnenriched", query, limit)
}

func (repo *EntryRepo) ListLatest(ctx context.Context) ([]*entity.Entry, error) {
	query := fmt.Sprintf(`
SELECT %s
FROM entries
WHERE published_at >= NOW() - INTERVAL '24 hours'
ORDER BY published_at DESC
LIMIT %d`, entryColumns, repository.MaxRowsLimit)
	return repo.queryEntries(ctx, "ListLatest", query)
}

// UpdateEnrichment writes annotations, sentiment, and the completion
// timestamp in a single statement so readers never observe a half-enriched
// entry.
func (repo *EntryRepo) UpdateEnrichment(ctx context.Context, id int64, annotations []entity.Annotation, sentiment *entity.Sentiment, enrichedAt time.Time) error {
	annotationsJSON, err := json.Marshal(annotations)
	if err != nil {
		return fmt.Errorf("UpdateEnrichment: marshal annotations: %w", err)
	}
	sentimentJSON, err := json.Marshal(sentiment)
	if err != nil {
		return fmt.Errorf("UpdateEnrichment: marshal sentiment: %w", err)
	}

	const query = `
UPDATE entries SET
       annotations = $1,
       sentiment   = $2,
       enriched_at = $3
WHERE id = $4`
	res, err := repo.db.ExecContext(ctx, query, annotationsJSON, sentimentJSON, enrichedAt, id)
	if err != nil {
		return fmt.Errorf("UpdateEnrichment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrNotFound
	}
	return nil
}

func (repo *EntryRepo) Delete(ctx context.Context, id int64) error {
	tx, err := repo.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("Delete: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const query = `DELETE FROM entries WHERE id = $1 RETURNING feed_id`
	var feedID int64
	err = tx.QueryRowContext(ctx, query, id).Scan(&feedID)
	if errors.Is(err, sql.ErrNoRows) {
		return entity.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}

	const counterQuery = `UPDATE feeds SET entries_count = entries_count - 1 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, counterQuery, feedID); err != nil {
		return fmt.Errorf("Delete: counter: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("Delete: commit: %w", err)
	}
	return nil
}

func (repo *EntryRepo) queryEntries(ctx context.Context, op, query string, args ...any) ([]*entity.Entry, error) {
	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	entries := make([]*entity.Entry, 0, 100)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: Scan: %w", op, err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// joinColumns qualifies entryColumns with a table alias for joined queries.
func joinColumns(alias string) string {
	return fmt.Sprintf(
		"%[1]s.id, %[1]s.feed_id, %[1]s.title, %[1]s.body, %[1]s.url, %[1]s.external_id, %[1]s.categories, %[1]s.published_at, %[1]s.annotations, %[1]s.sentiment, %[1]s.enriched_at, %[1]s.created_at",
		alias,
	)
}
