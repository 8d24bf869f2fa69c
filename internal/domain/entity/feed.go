package entity

import "time"

// Feed represents a syndication source whose items are ingested as entries.
// EntriesCount is a denormalized counter kept consistent by the entry
// repository: it is incremented on entry creation and decremented on deletion
// inside the same transaction.
type Feed struct {
	ID            int64      `json:"id"`
	Title         string     `json:"title"`
	URL           string     `json:"url"`
	FeedURL       string     `json:"feed_url"`
	WebhookURL    string     `json:"webhook_url,omitempty"`
	EntriesCount  int64      `json:"entries_count"`
	Active        bool       `json:"active"`
	LastCrawledAt *time.Time `json:"last_crawled_at,omitempty"`
}

// Validate checks the invariants a feed must satisfy before persistence.
func (f *Feed) Validate() error {
	if f.FeedURL == "" {
		return &ValidationError{Field: "feed_url", Message: "feed URL is required"}
	}
	return ValidateURL(f.FeedURL)
}
