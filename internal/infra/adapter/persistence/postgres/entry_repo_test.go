package postgres_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5/pgconn"

	"entryhub/internal/domain/entity"
	pg "entryhub/internal/infra/adapter/persistence/postgres"
	"entryhub/internal/repository"
)

/* ─────────────────────────── helpers ─────────────────────────── */

var entryCols = []string{
	"id", "feed_id", "title", "body", "url", "external_id",
	"categories", "published_at", "annotations", "sentiment",
	"enriched_at", "created_at",
}

func entryRow(e *entity.Entry) *sqlmock.Rows {
	return sqlmock.NewRows(entryCols).AddRow(
		e.ID, e.FeedID, e.Title, e.Body, e.URL, e.ExternalID,
		"{go,tech}", e.PublishedAt, []byte(nil), []byte(nil),
		e.EnrichedAt, e.CreatedAt,
	)
}

/* ─────────────────────────── 1. Get ─────────────────────────── */

func TestEntryRepo_Get(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	now := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	want := &entity.Entry{
		ID: 1, FeedID: 2, Title: "Go 1.25 released",
		Body: "body", URL: "https://example.com/go", ExternalID: "ext-1",
		Categories: []string{"go", "tech"}, PublishedAt: now, CreatedAt: now,
	}

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id")).
		WithArgs(int64(1)).
		WillReturnRows(entryRow(want))

	repo := pg.NewEntryRepo(db)
	got, err := repo.Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("Get err=%v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestEntryRepo_Get_NotFound(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id")).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows(entryCols))

	repo := pg.NewEntryRepo(db)
	_, err := repo.Get(context.Background(), 99)
	if !errors.Is(err, entity.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

/* ─────────────────────────── 2. GetByURL ─────────────────────────── */

func TestEntryRepo_GetByURL_Absent(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("FROM entries").
		WithArgs("https://example.com/missing").
		WillReturnRows(sqlmock.NewRows(entryCols))

	repo := pg.NewEntryRepo(db)
	got, err := repo.GetByURL(context.Background(), "https://example.com/missing")
	if err != nil {
		t.Fatalf("GetByURL err=%v", err)
	}
	if got != nil {
		t.Fatalf("want nil entry for absent URL, got %+v", got)
	}
}

/* ─────────────────────────── 3. Create ─────────────────────────── */

func TestEntryRepo_Create(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO entries")).
		WithArgs(int64(2), "title", "body", "https://u", "ext-1",
			sqlmock.AnyArg(), now).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), now))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE feeds SET entries_count = entries_count + 1")).
		WithArgs(int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := pg.NewEntryRepo(db)
	entry := &entity.Entry{
		FeedID: 2, Title: "title", Body: "body", URL: "https://u",
		ExternalID: "ext-1", Categories: []string{"go"}, PublishedAt: now,
	}
	if err := repo.Create(context.Background(), entry); err != nil {
		t.Fatalf("Create err=%v", err)
	}
	if entry.ID != 7 {
		t.Fatalf("want ID=7 after create, got %d", entry.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestEntryRepo_Create_DuplicateURL(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO entries")).
		WithArgs(int64(2), "title", "body", "https://u", "",
			sqlmock.AnyArg(), now).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	repo := pg.NewEntryRepo(db)
	err := repo.Create(context.Background(), &entity.Entry{
		FeedID: 2, Title: "title", Body: "body", URL: "https://u",
		PublishedAt: now,
	})
	if !errors.Is(err, entity.ErrDuplicateURL) {
		t.Fatalf("want ErrDuplicateURL, got %v", err)
	}
}

/* ─────────────────────────── 4. List ─────────────────────────── */

func TestEntryRepo_List_Order(t *testing.T) {
	tests := []struct {
		name  string
		order repository.ListOrder
		want  string
	}{
		{"desc", repository.OrderPublishedDesc, "ORDER BY published_at DESC"},
		{"asc", repository.OrderPublishedAsc, "ORDER BY published_at ASC"},
		{"random", repository.OrderRandom, `ORDER BY RANDOM\(\)`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, _ := sqlmock.New()
			defer func() { _ = db.Close() }()

			now := time.Now()
			mock.ExpectQuery(tt.want).
				WillReturnRows(entryRow(&entity.Entry{
					ID: 1, FeedID: 2, Title: "x", Body: "b", URL: "y",
					PublishedAt: now, CreatedAt: now,
				}))

			repo := pg.NewEntryRepo(db)
			got, err := repo.List(context.Background(), tt.order)
			if err != nil || len(got) != 1 {
				t.Fatalf("List err=%v len=%d", err, len(got))
			}
		})
	}
}

/* ─────────────────────────── 5. ListUnenriched ─────────────────────────── */

func TestEntryRepo_ListUnenriched(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("WHERE enriched_at IS NULL").
		WithArgs(10).
		WillReturnRows(sqlmock.NewRows(entryCols))

	repo := pg.NewEntryRepo(db)
	if _, err := repo.ListUnenriched(context.Background(), 10); err != nil {
		t.Fatalf("ListUnenriched err=%v", err)
	}
}

/* ─────────────────────────── 6. UpdateEnrichment ─────────────────────────── */

func TestEntryRepo_UpdateEnrichment(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	enrichedAt := time.Now()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE entries SET")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), enrichedAt, int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := pg.NewEntryRepo(db)
	err := repo.UpdateEnrichment(context.Background(), 1,
		[]entity.Annotation{{ID: 42, Spot: "Go", Label: "Go", Confidence: 0.9}},
		&entity.Sentiment{Score: 0.4, Type: "positive"},
		enrichedAt,
	)
	if err != nil {
		t.Fatalf("UpdateEnrichment err=%v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}

func TestEntryRepo_UpdateEnrichment_NotFound(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE entries SET")).
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), int64(99)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := pg.NewEntryRepo(db)
	err := repo.UpdateEnrichment(context.Background(), 99, nil, nil, time.Now())
	if !errors.Is(err, entity.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

/* ─────────────────────────── 7. Delete ─────────────────────────── */

func TestEntryRepo_Delete(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("DELETE FROM entries")).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"feed_id"}).AddRow(int64(2)))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE feeds SET entries_count = entries_count - 1")).
		WithArgs(int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := pg.NewEntryRepo(db)
	if err := repo.Delete(context.Background(), 1); err != nil {
		t.Fatalf("Delete err=%v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
