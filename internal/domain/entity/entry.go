// Package entity defines the core domain entities and validation logic for the
// application. It contains the fundamental business objects such as Entry and
// Feed, along with their validation rules and domain-specific errors.
package entity

import "time"

// NoContentPlaceholder is rendered in place of a blank entry body so that
// downstream consumers never see an empty string.
const NoContentPlaceholder = "no content"

// UntitledPlaceholder is assigned at ingestion time when a source item carries
// no title.
const UntitledPlaceholder = "untitled"

// Entry represents a single ingested content item belonging to a feed.
// It contains the item's metadata, its raw body, and the enrichment fields
// populated asynchronously by the enrichment pipeline.
type Entry struct {
	ID          int64        `json:"id"`
	FeedID      int64        `json:"feed_id"`
	Title       string       `json:"title"`
	Body        string       `json:"body"`
	URL         string       `json:"url"`
	ExternalID  string       `json:"external_id"`
	Categories  []string     `json:"categories"`
	PublishedAt time.Time    `json:"published_at"`
	Annotations []Annotation `json:"annotations,omitempty"`
	Sentiment   *Sentiment   `json:"sentiment,omitempty"`
	EnrichedAt  *time.Time   `json:"enriched_at,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// Annotation is a structured semantic tag (entity/topic) extracted from an
// entry's text by the external enrichment service.
// ID is the de-duplication key when an entry is re-enriched.
type Annotation struct {
	ID         int64    `json:"id"`
	URI        string   `json:"uri"`
	Spot       string   `json:"spot"`
	Label      string   `json:"label"`
	Confidence float64  `json:"confidence"`
	Categories []string `json:"categories"`
}

// Sentiment is the sentiment score computed by the enrichment service.
// Score ranges from -1 (negative) to 1 (positive).
type Sentiment struct {
	Score float64 `json:"score"`
	Type  string  `json:"type"`
}

// Tag is the simplified annotation view surfaced to API consumers.
type Tag struct {
	URI        string   `json:"uri"`
	Spot       string   `json:"spot"`
	Label      string   `json:"label"`
	Confidence float64  `json:"confidence"`
	Categories []string `json:"categories"`
}

// RenderedBody returns the entry body for downstream consumers.
// A blank body surfaces as the "no content" placeholder, never as an empty
// string.
func (e *Entry) RenderedBody() string {
	if e.Body == "" {
		return NoContentPlaceholder
	}
	return e.Body
}

// Enriched reports whether the enrichment pipeline has completed for this
// entry. EnrichedAt is the sole completion marker: it is set together with
// annotations and sentiment in a single write.
func (e *Entry) Enriched() bool {
	return e.EnrichedAt != nil
}

// Tags returns the entry's annotations projected to the simplified view.
// Annotations sharing an ID collapse to the first occurrence, so a response
// batch with repeated IDs never surfaces duplicates. Returns an empty slice
// when the entry has not been enriched.
func (e *Entry) Tags() []Tag {
	if len(e.Annotations) == 0 {
		return []Tag{}
	}

	seen := make(map[int64]struct{}, len(e.Annotations))
	tags := make([]Tag, 0, len(e.Annotations))
	for _, a := range e.Annotations {
		if _, dup := seen[a.ID]; dup {
			continue
		}
		seen[a.ID] = struct{}{}
		tags = append(tags, Tag{
			URI:        a.URI,
			Spot:       a.Spot,
			Label:      a.Label,
			Confidence: a.Confidence,
			Categories: a.Categories,
		})
	}
	return tags
}

// Validate checks the invariants an entry must satisfy before persistence.
func (e *Entry) Validate() error {
	if e.URL == "" {
		return &ValidationError{Field: "url", Message: "URL is required"}
	}
	if e.Title == "" {
		return &ValidationError{Field: "title", Message: "title is required"}
	}
	if e.FeedID == 0 {
		return &ValidationError{Field: "feed_id", Message: "owning feed is required"}
	}
	return nil
}
