// Package ingest owns entry creation: normalization, dedup by canonical URL,
// index maintenance, and the created/deleted lifecycle events. Entries enter
// the system only through Add so the dedup contract cannot be bypassed.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"entryhub/internal/domain/entity"
	"entryhub/internal/observability/metrics"
	"entryhub/internal/repository"
	"entryhub/internal/usecase/notify"
	"entryhub/internal/utils/text"
)

// SourceItem is one raw item produced by a feed fetcher, before
// normalization.
type SourceItem struct {
	Title       string
	URL         string
	Body        string
	ExternalID  string
	Categories  []string
	PublishedAt *time.Time
}

// FeedFetcher retrieves and parses a syndication feed.
type FeedFetcher interface {
	Fetch(ctx context.Context, feedURL string) ([]SourceItem, error)
}

// ContentFetcher retrieves the full article content for items whose feed
// body is too thin to be useful.
type ContentFetcher interface {
	FetchContent(ctx context.Context, url string) (string, error)
}

// ContentFetchConfig controls body enhancement during crawling.
type ContentFetchConfig struct {
	// Parallelism bounds concurrent content fetches per crawl.
	Parallelism int
	// Threshold is the minimum feed body length before a full fetch is
	// attempted.
	Threshold int
}

// Service provides entry ingestion use cases.
type Service struct {
	FeedRepo       repository.FeedRepository
	EntryRepo      repository.EntryRepository
	SearchIndex    repository.SearchIndex
	NotifyService  notify.Service
	FeedFetcher    FeedFetcher
	ContentFetcher ContentFetcher
	contentConfig  ContentFetchConfig
}

func NewService(
	feedRepo repository.FeedRepository,
	entryRepo repository.EntryRepository,
	searchIndex repository.SearchIndex,
	notifyService notify.Service,
	feedFetcher FeedFetcher,
	contentFetcher ContentFetcher,
	contentConfig ContentFetchConfig,
) *Service {
	if contentConfig.Parallelism <= 0 {
		contentConfig.Parallelism = 10
	}
	return &Service{
		FeedRepo:       feedRepo,
		EntryRepo:      entryRepo,
		SearchIndex:    searchIndex,
		NotifyService:  notifyService,
		FeedFetcher:    feedFetcher,
		ContentFetcher: contentFetcher,
		contentConfig:  contentConfig,
	}
}

// Add normalizes and persists one item for the given feed.
//
// The boolean result is the caller-facing success signal: (true, entry) on
// creation, (false, nil) for both duplicates and validation failures. The
// storage layer's unique constraint is the dedup authority; the GetByURL
// pre-check only short-circuits the common case. Only unexpected storage
// errors are returned as errors.
func (s *Service) Add(ctx context.Context, feed *entity.Feed, item SourceItem) (bool, *entity.Entry, error) {
	entry := normalize(feed.ID, item)

	if err := entry.Validate(); err != nil {
		metrics.RecordEntryIngested("invalid")
		slog.WarnContext(ctx, "entry failed validation, skipping",
			slog.Int64("feed_id", feed.ID),
			slog.String("url", item.URL),
			slog.Any("error", err))
		return false, nil, nil
	}

	// Fast path: known URL, skip the insert attempt.
	existing, err := s.EntryRepo.GetByURL(ctx, entry.URL)
	if err != nil {
		return false, nil, fmt.Errorf("check url: %w", err)
	}
	if existing != nil {
		metrics.RecordEntryIngested("duplicate")
		return false, nil, nil
	}

	if err := s.EntryRepo.Create(ctx, entry); err != nil {
		// Lost the race: another ingestion inserted the same URL first.
		if errors.Is(err, entity.ErrDuplicateURL) {
			metrics.RecordEntryIngested("duplicate")
			return false, nil, nil
		}
		return false, nil, fmt.Errorf("create entry: %w", err)
	}
	metrics.RecordEntryIngested("created")

	if err := s.SearchIndex.Index(ctx, IndexDocument(entry)); err != nil {
		// The entry is durable; a failed index write is logged so the next
		// reindex pass can repair it.
		slog.ErrorContext(ctx, "index write failed",
			slog.Int64("entry_id", entry.ID),
			slog.Any("error", err))
	}

	if err := s.NotifyService.Dispatch(ctx, notify.Event{
		Type:  notify.EntryCreated,
		Entry: entry,
		Feed:  feed,
	}); err != nil {
		slog.WarnContext(ctx, "failed to dispatch created event",
			slog.Int64("entry_id", entry.ID),
			slog.Any("error", err))
	}

	return true, entry, nil
}

// Delete removes an entry, keeps the feed counter and the index consistent,
// and emits one deleted event.
func (s *Service) Delete(ctx context.Context, id int64) error {
	entry, err := s.EntryRepo.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get entry: %w", err)
	}
	feed, err := s.FeedRepo.Get(ctx, entry.FeedID)
	if err != nil {
		return fmt.Errorf("get owning feed: %w", err)
	}

	if err := s.EntryRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if err := s.SearchIndex.Remove(ctx, id); err != nil {
		slog.ErrorContext(ctx, "index remove failed",
			slog.Int64("entry_id", id),
			slog.Any("error", err))
	}

	if err := s.NotifyService.Dispatch(ctx, notify.Event{
		Type:  notify.EntryDeleted,
		Entry: entry,
		Feed:  feed,
	}); err != nil {
		slog.WarnContext(ctx, "failed to dispatch deleted event",
			slog.Int64("entry_id", id),
			slog.Any("error", err))
	}
	return nil
}

// normalize applies the ingestion defaults: sentinel title, lower-cased
// compacted categories, and ingestion-time publishedAt when the source
// omits one.
func normalize(feedID int64, item SourceItem) *entity.Entry {
	title := strings.TrimSpace(item.Title)
	if title == "" {
		title = entity.UntitledPlaceholder
	}

	categories := make([]string, 0, len(item.Categories))
	for _, c := range item.Categories {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		categories = append(categories, strings.ToLower(c))
	}

	publishedAt := time.Now().UTC()
	if item.PublishedAt != nil && !item.PublishedAt.IsZero() {
		publishedAt = *item.PublishedAt
	}

	return &entity.Entry{
		FeedID:      feedID,
		Title:       title,
		Body:        item.Body,
		URL:         strings.TrimSpace(item.URL),
		ExternalID:  item.ExternalID,
		Categories:  categories,
		PublishedAt: publishedAt,
	}
}

// IndexDocument builds the reduced projection sent to the search index:
// title, plain-text body, and url. Annotations and sentiment are excluded by
// construction.
func IndexDocument(entry *entity.Entry) repository.Document {
	return repository.Document{
		ID:     entry.ID,
		FeedID: entry.FeedID,
		Title:  entry.Title,
		Body:   text.Squish(text.StripTags(entry.Body)),
		URL:    entry.URL,
	}
}

// ReindexAll rebuilds a search index from storage, feeding every entry
// through the same reduced projection used at ingestion time. Used at
// startup when the index lives in process memory.
func ReindexAll(ctx context.Context, entryRepo repository.EntryRepository, index repository.SearchIndex) (int, error) {
	entries, err := entryRepo.List(ctx, repository.OrderPublishedDesc)
	if err != nil {
		return 0, fmt.Errorf("list entries: %w", err)
	}

	for _, entry := range entries {
		if err := index.Index(ctx, IndexDocument(entry)); err != nil {
			return 0, fmt.Errorf("index entry %d: %w", entry.ID, err)
		}
	}
	metrics.UpdateSearchIndexSize(len(entries))
	return len(entries), nil
}

// CrawlStats summarizes one crawl run.
type CrawlStats struct {
	Feeds      int
	FeedItems  int64
	Inserted   int64
	Skipped    int64 // duplicates and invalid items
	FetchError int64
	Duration   time.Duration
}

// CrawlAllFeeds fetches every active feed and ingests its items. A fetch
// failure on one feed is counted and logged, not fatal to the run.
func (s *Service) CrawlAllFeeds(ctx context.Context) (*CrawlStats, error) {
	start := time.Now()
	stats := &CrawlStats{}

	feeds, err := s.FeedRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active feeds: %w", err)
	}
	stats.Feeds = len(feeds)

	for _, feed := range feeds {
		if err := s.crawlFeed(ctx, feed, stats); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return stats, err
			}
			atomic.AddInt64(&stats.FetchError, 1)
			metrics.RecordFeedCrawlError(feed.ID, "fetch")
			slog.WarnContext(ctx, "feed crawl failed, continuing",
				slog.Int64("feed_id", feed.ID),
				slog.String("feed_url", feed.FeedURL),
				slog.Any("error", err))
		}
	}

	stats.Duration = time.Since(start)
	slog.InfoContext(ctx, "crawl completed",
		slog.Int("feeds", stats.Feeds),
		slog.Int64("feed_items", stats.FeedItems),
		slog.Int64("inserted", stats.Inserted),
		slog.Int64("skipped", stats.Skipped),
		slog.Int64("fetch_errors", stats.FetchError),
		slog.Duration("duration", stats.Duration))
	return stats, nil
}

func (s *Service) crawlFeed(ctx context.Context, feed *entity.Feed, stats *CrawlStats) error {
	crawlStart := time.Now()

	items, err := s.FeedFetcher.Fetch(ctx, feed.FeedURL)
	if err != nil {
		return fmt.Errorf("fetch feed: %w", err)
	}

	sem := make(chan struct{}, s.contentConfig.Parallelism)
	eg, egCtx := errgroup.WithContext(ctx)

	for _, sourceItem := range items {
		item := sourceItem
		atomic.AddInt64(&stats.FeedItems, 1)

		eg.Go(func() error {
			sem <- struct{}{}
			defer func() { <-sem }()

			item.Body = s.enhanceContent(egCtx, item)

			created, _, err := s.Add(egCtx, feed, item)
			if err != nil {
				return fmt.Errorf("add item %s: %w", item.URL, err)
			}
			if created {
				atomic.AddInt64(&stats.Inserted, 1)
			} else {
				atomic.AddInt64(&stats.Skipped, 1)
			}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return err
	}

	if err := s.FeedRepo.TouchCrawledAt(ctx, feed.ID, time.Now().UTC()); err != nil {
		slog.WarnContext(ctx, "failed to touch last_crawled_at",
			slog.Int64("feed_id", feed.ID),
			slog.Any("error", err))
	}
	metrics.RecordFeedCrawl(feed.ID, time.Since(crawlStart))
	return nil
}

// enhanceContent fetches the full article body when the feed item's body is
// below the configured threshold. It never fails: any fetch problem falls
// back to the feed body.
func (s *Service) enhanceContent(ctx context.Context, item SourceItem) string {
	if s.ContentFetcher == nil {
		return item.Body
	}
	if len(item.Body) >= s.contentConfig.Threshold {
		return item.Body
	}

	full, err := s.ContentFetcher.FetchContent(ctx, item.URL)
	if err != nil {
		slog.DebugContext(ctx, "content fetch failed, using feed body",
			slog.String("url", item.URL),
			slog.Any("error", err))
		return item.Body
	}
	if len(full) <= len(item.Body) {
		return item.Body
	}
	return full
}
