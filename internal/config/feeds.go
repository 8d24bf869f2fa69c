// Package config loads the application-level YAML configuration, currently
// the feed catalog seeded into storage at startup.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"entryhub/internal/domain/entity"
	"entryhub/internal/repository"
)

// FeedsConfig is the feed catalog loaded from feeds.yml.
type FeedsConfig struct {
	Feeds []FeedEntry `yaml:"feeds"`
}

// FeedEntry describes one feed to be seeded.
type FeedEntry struct {
	Title      string `yaml:"title"`
	URL        string `yaml:"url"`
	FeedURL    string `yaml:"feed_url"`
	WebhookURL string `yaml:"webhook_url"`
	Active     *bool  `yaml:"active"`
}

// LoadFeedsConfig loads the feed catalog from a YAML file. The path comes
// from a CLI flag or the FEEDS_FILE env var, not user input.
func LoadFeedsConfig(path string) (*FeedsConfig, error) {
	// #nosec G304 -- path is provided by trusted source (CLI arg or env), not user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read feeds config: %w", err)
	}

	var config FeedsConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse feeds config: %w", err)
	}

	if err := validateFeedsConfig(&config); err != nil {
		return nil, fmt.Errorf("feeds config validation failed: %w", err)
	}
	return &config, nil
}

func validateFeedsConfig(config *FeedsConfig) error {
	seen := make(map[string]struct{}, len(config.Feeds))
	for i, f := range config.Feeds {
		if f.FeedURL == "" {
			return fmt.Errorf("feed %d: feed_url is required", i)
		}
		if _, dup := seen[f.FeedURL]; dup {
			return fmt.Errorf("feed %d: duplicate feed_url %q", i, f.FeedURL)
		}
		seen[f.FeedURL] = struct{}{}
	}
	return nil
}

// SeedFeeds upserts the configured feeds into storage. Existing feeds are
// matched by feed_url; their title, site URL, webhook and active flag are
// refreshed while crawl bookkeeping is left untouched.
func SeedFeeds(ctx context.Context, repo repository.FeedRepository, config *FeedsConfig, logger *slog.Logger) error {
	var created, updated int

	for _, fc := range config.Feeds {
		active := true
		if fc.Active != nil {
			active = *fc.Active
		}

		existing, err := repo.GetByFeedURL(ctx, fc.FeedURL)
		if err != nil && !errors.Is(err, entity.ErrNotFound) {
			return fmt.Errorf("failed to look up feed %q: %w", fc.FeedURL, err)
		}

		if existing == nil {
			feed := &entity.Feed{
				Title:      fc.Title,
				URL:        fc.URL,
				FeedURL:    fc.FeedURL,
				WebhookURL: fc.WebhookURL,
				Active:     active,
			}
			if err := feed.Validate(); err != nil {
				return fmt.Errorf("invalid feed %q: %w", fc.FeedURL, err)
			}
			if err := repo.Create(ctx, feed); err != nil {
				return fmt.Errorf("failed to create feed %q: %w", fc.FeedURL, err)
			}
			created++
			continue
		}

		existing.Title = fc.Title
		existing.URL = fc.URL
		existing.WebhookURL = fc.WebhookURL
		existing.Active = active
		if err := repo.Update(ctx, existing); err != nil {
			return fmt.Errorf("failed to update feed %q: %w", fc.FeedURL, err)
		}
		updated++
	}

	logger.Info("feed catalog seeded",
		slog.Int("created", created),
		slog.Int("updated", updated),
	)
	return nil
}
