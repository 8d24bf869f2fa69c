package repository

import (
	"context"
	"time"

	"entryhub/internal/domain/entity"
)

// FeedRepository manages feed records and their crawl bookkeeping.
type FeedRepository interface {
	Get(ctx context.Context, id int64) (*entity.Feed, error)
	GetByFeedURL(ctx context.Context, feedURL string) (*entity.Feed, error)
	List(ctx context.Context) ([]*entity.Feed, error)
	ListActive(ctx context.Context) ([]*entity.Feed, error)
	Create(ctx context.Context, feed *entity.Feed) error
	Update(ctx context.Context, feed *entity.Feed) error
	Delete(ctx context.Context, id int64) error
	TouchCrawledAt(ctx context.Context, id int64, t time.Time) error
}
