package db

import "database/sql"

// MigrateUp creates the schema. The entries.url UNIQUE constraint is the
// dedup authority; the generated searchable column carries the weighted
// full-text index (title A, body B, url C) used by the Postgres search
// backend.
func MigrateUp(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS feeds (
    id              BIGSERIAL PRIMARY KEY,
    title           TEXT NOT NULL DEFAULT '',
    url             TEXT NOT NULL DEFAULT '',
    feed_url        TEXT NOT NULL UNIQUE,
    webhook_url     TEXT NOT NULL DEFAULT '',
    entries_count   BIGINT NOT NULL DEFAULT 0,
    active          BOOLEAN NOT NULL DEFAULT TRUE,
    last_crawled_at TIMESTAMPTZ
)`); err != nil {
		return err
	}

	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS entries (
    id           BIGSERIAL PRIMARY KEY,
    feed_id      BIGINT NOT NULL REFERENCES feeds(id),
    title        TEXT NOT NULL,
    body         TEXT NOT NULL DEFAULT '',
    url          TEXT NOT NULL UNIQUE,
    external_id  TEXT NOT NULL DEFAULT '',
    categories   TEXT[] NOT NULL DEFAULT '{}',
    published_at TIMESTAMPTZ NOT NULL,
    annotations  JSONB,
    sentiment    JSONB,
    enriched_at  TIMESTAMPTZ,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
    searchable   tsvector GENERATED ALWAYS AS (
        setweight(to_tsvector('simple', coalesce(title, '')), 'A') ||
        setweight(to_tsvector('simple', coalesce(body, '')),  'B') ||
        setweight(to_tsvector('simple', coalesce(url, '')),   'C')
    ) STORED
)`); err != nil {
		return err
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_entries_published_at ON entries(published_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_entries_feed_id ON entries(feed_id)`,
		// Backlog scan for the enrichment worker.
		`CREATE INDEX IF NOT EXISTS idx_entries_unenriched ON entries(published_at ASC) WHERE enriched_at IS NULL`,
		`CREATE INDEX IF NOT EXISTS idx_entries_searchable ON entries USING gin(searchable)`,
		`CREATE INDEX IF NOT EXISTS idx_feeds_active ON feeds(active) WHERE active = TRUE`,
	}
	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return err
		}
	}

	return nil
}

// MigrateDown drops the schema in reverse dependency order. Destroys all
// data.
func MigrateDown(db *sql.DB) error {
	drops := []string{
		`DROP TABLE IF EXISTS entries CASCADE`,
		`DROP TABLE IF EXISTS feeds CASCADE`,
	}
	for _, stmt := range drops {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
