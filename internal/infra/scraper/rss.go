// Package scraper fetches and parses RSS/Atom feeds into source items.
// It uses the gofeed library with retry and circuit breaker protection.
package scraper

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/mmcdole/gofeed"
	"github.com/sony/gobreaker"

	"entryhub/internal/resilience/circuitbreaker"
	"entryhub/internal/resilience/retry"
	"entryhub/internal/usecase/ingest"
)

// RSSFetcher implements ingest.FeedFetcher using the gofeed library.
type RSSFetcher struct {
	client         *http.Client
	circuitBreaker *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

func NewRSSFetcher(client *http.Client) *RSSFetcher {
	return &RSSFetcher{
		client:         client,
		circuitBreaker: circuitbreaker.New(circuitbreaker.FeedFetchConfig()),
		retryConfig:    retry.FeedFetchConfig(),
	}
}

// Fetch retrieves and parses a feed from the given URL, with retry and
// circuit breaker protection around the network call.
func (f *RSSFetcher) Fetch(ctx context.Context, feedURL string) ([]ingest.SourceItem, error) {
	var items []ingest.SourceItem

	retryErr := retry.WithBackoff(ctx, f.retryConfig, func() error {
		cbResult, err := f.circuitBreaker.Execute(func() (interface{}, error) {
			return f.doFetch(ctx, feedURL)
		})

		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) {
				slog.Warn("feed fetch circuit breaker open, request rejected",
					slog.String("service", "feed-fetch"),
					slog.String("url", feedURL),
					slog.String("state", f.circuitBreaker.State().String()))
			}
			return err
		}

		items = cbResult.([]ingest.SourceItem)
		return nil
	})

	if retryErr != nil {
		return nil, retryErr
	}

	return items, nil
}

// doFetch performs the actual feed fetch without retry or circuit breaker.
func (f *RSSFetcher) doFetch(ctx context.Context, feedURL string) ([]ingest.SourceItem, error) {
	fp := gofeed.NewParser()
	fp.UserAgent = "EntryHubBot"
	fp.Client = f.client

	feed, err := fp.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, err
	}

	items := make([]ingest.SourceItem, 0, len(feed.Items))
	for _, it := range feed.Items {
		// Content is the full body when the feed carries one; Description is
		// usually a summary.
		body := it.Content
		if body == "" {
			body = it.Description
		}

		items = append(items, ingest.SourceItem{
			Title:       it.Title,
			URL:         it.Link,
			Body:        body,
			ExternalID:  it.GUID,
			Categories:  it.Categories,
			PublishedAt: it.PublishedParsed,
		})
	}

	return items, nil
}
