package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"entryhub/internal/domain/entity"
	"entryhub/internal/repository"
)

const feedColumns = `id, title, url, feed_url, webhook_url, entries_count, active, last_crawled_at`

type FeedRepo struct{ db *sql.DB }

func NewFeedRepo(db *sql.DB) repository.FeedRepository {
	return &FeedRepo{db: db}
}

func scanFeed(scanner interface{ Scan(...any) error }) (*entity.Feed, error) {
	var feed entity.Feed
	if err := scanner.Scan(
		&feed.ID, &feed.Title, &feed.URL, &feed.FeedURL, &feed.WebhookURL,
		&feed.EntriesCount, &feed.Active, &feed.LastCrawledAt,
	); err != nil {
		return nil, err
	}
	return &feed, nil
}

func (repo *FeedRepo) Get(ctx context.Context, id int64) (*entity.Feed, error) {
	query := fmt.Sprintf(`
SELECT %s
FROM feeds
WHERE id = $1
LIMIT 1`, feedColumns)
	feed, err := scanFeed(repo.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return feed, nil
}

func (repo *FeedRepo) GetByFeedURL(ctx context.Context, feedURL string) (*entity.Feed, error) {
	query := fmt.Sprintf(`
SELECT %s
FROM feeds
WHERE feed_url = $1
LIMIT 1`, feedColumns)
	feed, err := scanFeed(repo.db.QueryRowContext(ctx, query, feedURL))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("GetByFeedURL: %w", err)
	}
	return feed, nil
}

func (repo *FeedRepo) List(ctx context.Context) ([]*entity.Feed, error) {
	query := fmt.Sprintf(`
SELECT %s
FROM feeds
ORDER BY id ASC`, feedColumns)
	return repo.queryFeeds(ctx, "List", query)
}

func (repo *FeedRepo) ListActive(ctx context.Context) ([]*entity.Feed, error) {
	query := fmt.Sprintf(`
SELECT %s
FROM feeds
WHERE active = TRUE
ORDER BY id ASC`, feedColumns)
	return repo.queryFeeds(ctx, "ListActive", query)
}

func (repo *FeedRepo) Create(ctx context.Context, feed *entity.Feed) error {
	const query = `
INSERT INTO feeds (title, url, feed_url, webhook_url, active, last_crawled_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`
	err := repo.db.QueryRowContext(ctx, query,
		feed.Title, feed.URL, feed.FeedURL, feed.WebhookURL,
		feed.Active, feed.LastCrawledAt,
	).Scan(&feed.ID)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (repo *FeedRepo) Update(ctx context.Context, feed *entity.Feed) error {
	const query = `
UPDATE feeds SET
       title           = $1,
       url             = $2,
       feed_url        = $3,
       webhook_url     = $4,
       active          = $5,
       last_crawled_at = $6
WHERE id = $7`
	res, err := repo.db.ExecContext(ctx, query,
		feed.Title, feed.URL, feed.FeedURL, feed.WebhookURL,
		feed.Active, feed.LastCrawledAt, feed.ID,
	)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrNotFound
	}
	return nil
}

func (repo *FeedRepo) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM feeds WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return entity.ErrNotFound
	}
	return nil
}

func (repo *FeedRepo) TouchCrawledAt(ctx context.Context, id int64, t time.Time) error {
	const query = `UPDATE feeds SET last_crawled_at = $1 WHERE id = $2`
	_, err := repo.db.ExecContext(ctx, query, t, id)
	return err
}

func (repo *FeedRepo) queryFeeds(ctx context.Context, op, query string) ([]*entity.Feed, error) {
	rows, err := repo.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	feeds := make([]*entity.Feed, 0, 50)
	for rows.Next() {
		feed, err := scanFeed(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: Scan: %w", op, err)
		}
		feeds = append(feeds, feed)
	}
	return feeds, rows.Err()
}
