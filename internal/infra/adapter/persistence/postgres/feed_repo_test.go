package postgres_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"

	"entryhub/internal/domain/entity"
	pg "entryhub/internal/infra/adapter/persistence/postgres"
)

var feedCols = []string{
	"id", "title", "url", "feed_url", "webhook_url",
	"entries_count", "active", "last_crawled_at",
}

func feedRow(f *entity.Feed) *sqlmock.Rows {
	return sqlmock.NewRows(feedCols).AddRow(
		f.ID, f.Title, f.URL, f.FeedURL, f.WebhookURL,
		f.EntriesCount, f.Active, f.LastCrawledAt,
	)
}

func TestFeedRepo_Get(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	want := &entity.Feed{
		ID: 1, Title: "Go Blog", URL: "https://go.dev/blog",
		FeedURL: "https://go.dev/blog/feed.atom",
		WebhookURL: "https://hooks.example.com/go",
		EntriesCount: 3, Active: true,
	}

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id")).
		WithArgs(int64(1)).
		WillReturnRows(feedRow(want))

	repo := pg.NewFeedRepo(db)
	got, err := repo.Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("Get err=%v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestFeedRepo_GetByFeedURL_NotFound(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("FROM feeds").
		WithArgs("https://nope.example.com/feed").
		WillReturnRows(sqlmock.NewRows(feedCols))

	repo := pg.NewFeedRepo(db)
	_, err := repo.GetByFeedURL(context.Background(), "https://nope.example.com/feed")
	if !errors.Is(err, entity.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestFeedRepo_ListActive(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("WHERE active = TRUE").
		WillReturnRows(feedRow(&entity.Feed{
			ID: 1, Title: "x", FeedURL: "https://f", Active: true,
		}))

	repo := pg.NewFeedRepo(db)
	got, err := repo.ListActive(context.Background())
	if err != nil || len(got) != 1 {
		t.Fatalf("ListActive err=%v len=%d", err, len(got))
	}
}

func TestFeedRepo_Create(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO feeds")).
		WithArgs("Go Blog", "https://go.dev/blog", "https://go.dev/blog/feed.atom",
			"", true, nil).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)))

	repo := pg.NewFeedRepo(db)
	feed := &entity.Feed{
		Title: "Go Blog", URL: "https://go.dev/blog",
		FeedURL: "https://go.dev/blog/feed.atom", Active: true,
	}
	if err := repo.Create(context.Background(), feed); err != nil {
		t.Fatalf("Create err=%v", err)
	}
	if feed.ID != 5 {
		t.Fatalf("want ID=5 after create, got %d", feed.ID)
	}
}

func TestFeedRepo_TouchCrawledAt(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	now := time.Now()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE feeds SET last_crawled_at")).
		WithArgs(now, int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := pg.NewFeedRepo(db)
	if err := repo.TouchCrawledAt(context.Background(), 1, now); err != nil {
		t.Fatalf("TouchCrawledAt err=%v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
