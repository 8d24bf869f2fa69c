package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFeed_Validate(t *testing.T) {
	tests := []struct {
		name    string
		feed    Feed
		wantErr bool
	}{
		{
			name: "valid feed",
			feed: Feed{Title: "Example", URL: "https://example.com", FeedURL: "https://example.com/rss"},
		},
		{
			name:    "missing feed url",
			feed:    Feed{Title: "Example"},
			wantErr: true,
		},
		{
			name:    "non-http scheme",
			feed:    Feed{FeedURL: "ftp://example.com/rss"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.feed.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFeed_ZeroValue(t *testing.T) {
	var feed Feed

	assert.Equal(t, int64(0), feed.ID)
	assert.Equal(t, int64(0), feed.EntriesCount)
	assert.False(t, feed.Active)
	assert.Nil(t, feed.LastCrawledAt)
}
