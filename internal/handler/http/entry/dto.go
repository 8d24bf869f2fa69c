package entry

import (
	"time"

	"entryhub/internal/domain/entity"
	"entryhub/internal/usecase/search"
)

// entryResponse is the API projection of an entry. The body is rendered
// through the sentinel and annotations collapse to deduplicated tags.
type entryResponse struct {
	ID          int64             `json:"id"`
	FeedID      int64             `json:"feed_id"`
	Title       string            `json:"title"`
	Body        string            `json:"body"`
	URL         string            `json:"url"`
	Categories  []string          `json:"categories"`
	PublishedAt time.Time         `json:"published_at"`
	Tags        []entity.Tag      `json:"tags"`
	Sentiment   *entity.Sentiment `json:"sentiment,omitempty"`
	EnrichedAt  *time.Time        `json:"enriched_at,omitempty"`
}

func toEntryResponse(e *entity.Entry) entryResponse {
	categories := e.Categories
	if categories == nil {
		categories = []string{}
	}
	return entryResponse{
		ID:          e.ID,
		FeedID:      e.FeedID,
		Title:       e.Title,
		Body:        e.RenderedBody(),
		URL:         e.URL,
		Categories:  categories,
		PublishedAt: e.PublishedAt,
		Tags:        e.Tags(),
		Sentiment:   e.Sentiment,
		EnrichedAt:  e.EnrichedAt,
	}
}

func toEntryResponses(entries []*entity.Entry) []entryResponse {
	out := make([]entryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, toEntryResponse(e))
	}
	return out
}

// searchResultResponse pairs a ranked hit with its highlighted fragments.
type searchResultResponse struct {
	entryResponse
	Rank        float64           `json:"rank"`
	Highlighted map[string]string `json:"highlighted,omitempty"`
}

func toSearchResponses(results []search.Result) []searchResultResponse {
	out := make([]searchResultResponse, 0, len(results))
	for _, r := range results {
		out = append(out, searchResultResponse{
			entryResponse: toEntryResponse(r.Entry),
			Rank:          r.Rank,
			Highlighted:   r.Highlighted,
		})
	}
	return out
}
