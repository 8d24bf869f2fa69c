package ingest

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"entryhub/internal/domain/entity"
	"entryhub/internal/repository"
	"entryhub/internal/usecase/notify"
)

/* ─────────────────────────── mocks ─────────────────────────── */

type mockEntryRepo struct {
	repository.EntryRepository

	mu      sync.Mutex
	byURL   map[string]*entity.Entry
	created []*entity.Entry

	createErr error
	getURLErr error
	deleted   []int64
	getEntry  *entity.Entry
	entries   []*entity.Entry
	listErr   error

	createDelay    time.Duration
	createInFlight int32
	createPeak     int32
}

func newMockEntryRepo() *mockEntryRepo {
	return &mockEntryRepo{byURL: map[string]*entity.Entry{}}
}

func (m *mockEntryRepo) GetByURL(_ context.Context, url string) (*entity.Entry, error) {
	if m.getURLErr != nil {
		return nil, m.getURLErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byURL[url], nil
}

func (m *mockEntryRepo) Create(_ context.Context, entry *entity.Entry) error {
	cur := atomic.AddInt32(&m.createInFlight, 1)
	defer atomic.AddInt32(&m.createInFlight, -1)
	for {
		peak := atomic.LoadInt32(&m.createPeak)
		if cur <= peak || atomic.CompareAndSwapInt32(&m.createPeak, peak, cur) {
			break
		}
	}
	if m.createDelay > 0 {
		time.Sleep(m.createDelay)
	}

	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byURL[entry.URL]; ok {
		return entity.ErrDuplicateURL
	}
	entry.ID = int64(len(m.created) + 1)
	entry.CreatedAt = time.Now()
	m.byURL[entry.URL] = entry
	m.created = append(m.created, entry)
	return nil
}

func (m *mockEntryRepo) Get(_ context.Context, id int64) (*entity.Entry, error) {
	if m.getEntry != nil {
		return m.getEntry, nil
	}
	return nil, entity.ErrNotFound
}

func (m *mockEntryRepo) Delete(_ context.Context, id int64) error {
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockEntryRepo) List(_ context.Context, _ repository.ListOrder) ([]*entity.Entry, error) {
	return m.entries, m.listErr
}

type mockFeedRepo struct {
	repository.FeedRepository

	active  []*entity.Feed
	feed    *entity.Feed
	touched []int64
}

func (m *mockFeedRepo) ListActive(_ context.Context) ([]*entity.Feed, error) {
	return m.active, nil
}

func (m *mockFeedRepo) Get(_ context.Context, id int64) (*entity.Feed, error) {
	if m.feed != nil {
		return m.feed, nil
	}
	return nil, entity.ErrNotFound
}

func (m *mockFeedRepo) TouchCrawledAt(_ context.Context, id int64, _ time.Time) error {
	m.touched = append(m.touched, id)
	return nil
}

type mockIndex struct {
	mu      sync.Mutex
	indexed []repository.Document
	removed []int64
}

func (m *mockIndex) Index(_ context.Context, doc repository.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.indexed = append(m.indexed, doc)
	return nil
}

func (m *mockIndex) Remove(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removed = append(m.removed, id)
	return nil
}

func (m *mockIndex) Search(_ context.Context, _ string) ([]repository.Hit, error) {
	return nil, nil
}

type mockNotify struct {
	mu     sync.Mutex
	events []notify.Event
	err    error
}

func (m *mockNotify) Dispatch(_ context.Context, event notify.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return m.err
}

func (m *mockNotify) GetChannelHealth() []notify.ChannelHealthStatus { return nil }
func (m *mockNotify) Shutdown(_ context.Context) error              { return nil }

type mockFetcher struct {
	items []SourceItem
	err   error
}

func (m *mockFetcher) Fetch(_ context.Context, _ string) ([]SourceItem, error) {
	return m.items, m.err
}

type mockContentFetcher struct {
	content string
	err     error
	calls   int
}

func (m *mockContentFetcher) FetchContent(_ context.Context, _ string) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.content, nil
}

type fixture struct {
	entryRepo *mockEntryRepo
	feedRepo  *mockFeedRepo
	index     *mockIndex
	notify    *mockNotify
	service   *Service
}

func newFixture() *fixture {
	f := &fixture{
		entryRepo: newMockEntryRepo(),
		feedRepo:  &mockFeedRepo{},
		index:     &mockIndex{},
		notify:    &mockNotify{},
	}
	f.service = NewService(f.feedRepo, f.entryRepo, f.index, f.notify, nil, nil, ContentFetchConfig{})
	return f
}

func testFeed() *entity.Feed {
	return &entity.Feed{ID: 7, FeedURL: "https://example.com/feed", WebhookURL: "https://hooks.example.com", Active: true}
}

/* ─────────────────────────── Add ─────────────────────────── */

func TestAdd_CreatesEntryAndDispatchesOneEvent(t *testing.T) {
	f := newFixture()

	created, entry, err := f.service.Add(context.Background(), testFeed(), SourceItem{
		Title: "Go 1.25", URL: "https://example.com/go", Body: "<p>release notes</p>",
	})
	require.NoError(t, err)
	assert.True(t, created)
	require.NotNil(t, entry)
	assert.NotZero(t, entry.ID)

	require.Len(t, f.notify.events, 1)
	assert.Equal(t, notify.EntryCreated, f.notify.events[0].Type)
	assert.Equal(t, int64(7), f.notify.events[0].Feed.ID)
	assert.Same(t, entry, f.notify.events[0].Entry)
}

func TestAdd_DuplicateURLReturnsFalseNil(t *testing.T) {
	f := newFixture()
	feed := testFeed()
	item := SourceItem{Title: "first", URL: "https://example.com/dup"}

	created, _, err := f.service.Add(context.Background(), feed, item)
	require.NoError(t, err)
	require.True(t, created)

	created, entry, err := f.service.Add(context.Background(), feed, SourceItem{
		Title: "second", URL: "https://example.com/dup",
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Nil(t, entry)

	// Only the first creation produced an event.
	assert.Len(t, f.notify.events, 1)
	assert.Len(t, f.entryRepo.created, 1)
}

func TestAdd_ConstraintRaceMapsToSameResult(t *testing.T) {
	f := newFixture()
	// Pre-check misses but the insert hits the unique constraint.
	f.entryRepo.createErr = entity.ErrDuplicateURL

	created, entry, err := f.service.Add(context.Background(), testFeed(), SourceItem{
		Title: "raced", URL: "https://example.com/race",
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Nil(t, entry)
	assert.Empty(t, f.notify.events)
}

func TestAdd_ValidationFailureReturnsFalseNil(t *testing.T) {
	f := newFixture()

	created, entry, err := f.service.Add(context.Background(), testFeed(), SourceItem{
		Title: "no url",
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Nil(t, entry)
	assert.Empty(t, f.entryRepo.created)
	assert.Empty(t, f.notify.events)
}

func TestAdd_StorageErrorPropagates(t *testing.T) {
	f := newFixture()
	f.entryRepo.createErr = errors.New("connection refused")

	created, _, err := f.service.Add(context.Background(), testFeed(), SourceItem{
		Title: "t", URL: "https://example.com/x",
	})
	assert.Error(t, err)
	assert.False(t, created)
}

func TestAdd_AppliesIngestionDefaults(t *testing.T) {
	f := newFixture()
	before := time.Now().Add(-time.Second)

	created, entry, err := f.service.Add(context.Background(), testFeed(), SourceItem{
		Title:      "",
		URL:        "http://x.example.com/e1",
		Body:       "body",
		ExternalID: "e1",
		Categories: []string{" Tech ", "GO", ""},
	})
	require.NoError(t, err)
	require.True(t, created)

	assert.Equal(t, "untitled", entry.Title)
	assert.Equal(t, []string{"tech", "go"}, entry.Categories)
	assert.WithinRange(t, entry.PublishedAt, before, time.Now().Add(time.Second))
}

func TestAdd_NotifyFailureDoesNotAffectCreation(t *testing.T) {
	f := newFixture()
	f.notify.err = errors.New("transport down")

	created, entry, err := f.service.Add(context.Background(), testFeed(), SourceItem{
		Title: "t", URL: "https://example.com/n",
	})
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotNil(t, entry)
	assert.Len(t, f.entryRepo.created, 1)
}

func TestAdd_IndexesReducedDocument(t *testing.T) {
	f := newFixture()

	_, entry, err := f.service.Add(context.Background(), testFeed(), SourceItem{
		Title: "Go release", URL: "https://example.com/go", Body: "<p>Hello   world</p>\n\n",
	})
	require.NoError(t, err)

	require.Len(t, f.index.indexed, 1)
	doc := f.index.indexed[0]
	assert.Equal(t, entry.ID, doc.ID)
	assert.Equal(t, "Go release", doc.Title)
	assert.Equal(t, "Hello world", doc.Body)
	assert.Equal(t, "https://example.com/go", doc.URL)
}

/* ─────────────────────────── ReindexAll ─────────────────────────── */

func TestReindexAll_UsesPlainTextProjection(t *testing.T) {
	f := newFixture()
	f.entryRepo.entries = []*entity.Entry{
		{ID: 1, FeedID: 7, Title: "Go release", URL: "https://example.com/go", Body: "<p>Hello   world</p>\n\n"},
		{ID: 2, FeedID: 7, Title: "second", URL: "https://example.com/b", Body: "plain"},
	}

	count, err := ReindexAll(context.Background(), f.entryRepo, f.index)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	// Rebuilt documents must carry the same stripped body as ingest-time
	// indexing, never the stored markup.
	require.Len(t, f.index.indexed, 2)
	assert.Equal(t, "Hello world", f.index.indexed[0].Body)
	assert.Equal(t, "Go release", f.index.indexed[0].Title)
	assert.Equal(t, "https://example.com/go", f.index.indexed[0].URL)
	assert.Equal(t, "plain", f.index.indexed[1].Body)
}

func TestReindexAll_ListErrorPropagates(t *testing.T) {
	f := newFixture()
	f.entryRepo.listErr = errors.New("connection refused")

	count, err := ReindexAll(context.Background(), f.entryRepo, f.index)
	assert.Error(t, err)
	assert.Zero(t, count)
	assert.Empty(t, f.index.indexed)
}

/* ─────────────────────────── Delete ─────────────────────────── */

func TestDelete_RemovesAndDispatchesDeletedEvent(t *testing.T) {
	f := newFixture()
	f.entryRepo.getEntry = &entity.Entry{ID: 3, FeedID: 7, Title: "t", URL: "https://example.com/d"}
	f.feedRepo.feed = testFeed()

	require.NoError(t, f.service.Delete(context.Background(), 3))

	assert.Equal(t, []int64{3}, f.entryRepo.deleted)
	assert.Equal(t, []int64{3}, f.index.removed)
	require.Len(t, f.notify.events, 1)
	assert.Equal(t, notify.EntryDeleted, f.notify.events[0].Type)
}

/* ─────────────────────────── CrawlAllFeeds ─────────────────────────── */

func TestCrawlAllFeeds(t *testing.T) {
	f := newFixture()
	feed := testFeed()
	f.feedRepo.active = []*entity.Feed{feed}
	f.service.FeedFetcher = &mockFetcher{items: []SourceItem{
		{Title: "a", URL: "https://example.com/a", Body: "body a"},
		{Title: "b", URL: "https://example.com/b", Body: "body b"},
	}}

	// Pre-seed one URL to force a duplicate.
	_, _, err := f.service.Add(context.Background(), feed, SourceItem{Title: "a", URL: "https://example.com/a"})
	require.NoError(t, err)

	stats, err := f.service.CrawlAllFeeds(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, stats.Feeds)
	assert.Equal(t, int64(2), stats.FeedItems)
	assert.Equal(t, int64(1), stats.Inserted)
	assert.Equal(t, int64(1), stats.Skipped)
	assert.Equal(t, []int64{7}, f.feedRepo.touched)
}

func TestCrawlAllFeeds_ParallelismBoundsWholeItemPipeline(t *testing.T) {
	f := newFixture()
	f.feedRepo.active = []*entity.Feed{testFeed()}
	f.entryRepo.createDelay = 5 * time.Millisecond
	f.service.contentConfig.Parallelism = 1
	f.service.FeedFetcher = &mockFetcher{items: []SourceItem{
		{Title: "a", URL: "https://example.com/a", Body: "body a"},
		{Title: "b", URL: "https://example.com/b", Body: "body b"},
		{Title: "c", URL: "https://example.com/c", Body: "body c"},
		{Title: "d", URL: "https://example.com/d", Body: "body d"},
	}}

	stats, err := f.service.CrawlAllFeeds(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), stats.Inserted)

	// The semaphore is held across persistence, so with one slot the
	// inserts can never overlap.
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.entryRepo.createPeak))
}

func TestCrawlAllFeeds_FetchErrorIsCountedNotFatal(t *testing.T) {
	f := newFixture()
	f.feedRepo.active = []*entity.Feed{testFeed()}
	f.service.FeedFetcher = &mockFetcher{err: errors.New("dns failure")}

	stats, err := f.service.CrawlAllFeeds(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.FetchError)
	assert.Empty(t, f.feedRepo.touched)
}

/* ─────────────────────────── enhanceContent ─────────────────────────── */

func TestEnhanceContent(t *testing.T) {
	longBody := make([]byte, 2000)
	for i := range longBody {
		longBody[i] = 'x'
	}

	tests := []struct {
		name    string
		fetcher *mockContentFetcher
		body    string
		want    string
		fetched bool
	}{
		{"disabled", nil, "thin", "thin", false},
		{"thin body fetched", &mockContentFetcher{content: string(longBody)}, "thin", string(longBody), true},
		{"fetch failure falls back", &mockContentFetcher{err: errors.New("timeout")}, "thin", "thin", true},
		{"fetched shorter than feed body", &mockContentFetcher{content: "x"}, "thin", "thin", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.service.contentConfig.Threshold = 1500
			if tt.fetcher != nil {
				f.service.ContentFetcher = tt.fetcher
			}

			got := f.service.enhanceContent(context.Background(), SourceItem{
				URL: "https://example.com/full", Body: tt.body,
			})
			assert.Equal(t, tt.want, got)
			if tt.fetcher != nil {
				assert.Equal(t, tt.fetched, tt.fetcher.calls == 1)
			}
		})
	}
}
