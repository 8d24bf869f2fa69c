package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"entryhub/internal/repository"
)

func newTestIndex() *Index {
	return NewIndex(DefaultHighlightOptions())
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"simple", "Category news", []string{"category", "news"}},
		{"url", "https://example.com/go-1.25", []string{"https", "example", "com", "go", "1", "25"}},
		{"punctuation", "Hello, world!", []string{"hello", "world"}},
		{"empty", "  \n ", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.in))
		})
	}
}

func TestIndex_PrefixMatch(t *testing.T) {
	idx := newTestIndex()
	ctx := context.Background()

	require.NoError(t, idx.Index(ctx, repository.Document{
		ID: 1, FeedID: 10, Title: "Category news", Body: "daily roundup", URL: "https://example.com/cat",
	}))

	hits, err := idx.Search(ctx, "cat")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, int64(1), hits[0].ID)

	hits, err = idx.Search(ctx, "zebra")
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndex_TitleOutranksURL(t *testing.T) {
	idx := newTestIndex()
	ctx := context.Background()

	require.NoError(t, idx.Index(ctx, repository.Document{
		ID: 1, Title: "beta release", Body: "nothing here", URL: "https://example.com/alpha",
	}))
	require.NoError(t, idx.Index(ctx, repository.Document{
		ID: 2, Title: "alpha release", Body: "nothing here", URL: "https://example.com/beta",
	}))

	hits, err := idx.Search(ctx, "alpha")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, int64(2), hits[0].ID, "title match must rank above url match")
	assert.Greater(t, hits[0].Rank, hits[1].Rank)
}

func TestIndex_ExactOutranksPrefix(t *testing.T) {
	idx := newTestIndex()
	ctx := context.Background()

	require.NoError(t, idx.Index(ctx, repository.Document{ID: 1, Title: "categories galore"}))
	require.NoError(t, idx.Index(ctx, repository.Document{ID: 2, Title: "category listing"}))

	hits, err := idx.Search(ctx, "category")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, int64(2), hits[0].ID)
}

func TestIndex_RemoveExcludesDocument(t *testing.T) {
	idx := newTestIndex()
	ctx := context.Background()

	require.NoError(t, idx.Index(ctx, repository.Document{ID: 1, Title: "golang weekly"}))
	require.NoError(t, idx.Remove(ctx, 1))

	hits, err := idx.Search(ctx, "golang")
	require.NoError(t, err)
	assert.Empty(t, hits)
	assert.Zero(t, idx.Size())
}

func TestIndex_ReindexReplacesContent(t *testing.T) {
	idx := newTestIndex()
	ctx := context.Background()

	require.NoError(t, idx.Index(ctx, repository.Document{ID: 1, Title: "old title"}))
	require.NoError(t, idx.Index(ctx, repository.Document{ID: 1, Title: "new title"}))

	hits, err := idx.Search(ctx, "old")
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = idx.Search(ctx, "new")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, 1, idx.Size())
}

func TestIndex_EmptyQuery(t *testing.T) {
	idx := newTestIndex()
	ctx := context.Background()

	require.NoError(t, idx.Index(ctx, repository.Document{ID: 1, Title: "anything"}))

	hits, err := idx.Search(ctx, "  ")
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestIndex_HighlightsMatchedFields(t *testing.T) {
	idx := newTestIndex()
	ctx := context.Background()

	require.NoError(t, idx.Index(ctx, repository.Document{
		ID: 1, Title: "Category news", Body: "no match here", URL: "https://example.com/other",
	}))

	hits, err := idx.Search(ctx, "category")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "<b>Category</b> news", hits[0].Highlighted["title"])
	assert.NotContains(t, hits[0].Highlighted, "body")
	assert.NotContains(t, hits[0].Highlighted, "url")
}
