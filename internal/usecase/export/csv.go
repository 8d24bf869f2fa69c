// Package export renders entry datasets for offline consumption.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"entryhub/internal/repository"
	"entryhub/internal/utils/text"
)

var csvHeader = []string{"feed_url", "url", "title", "text", "categories", "published_at"}

// CSV writes the entries as a CSV dataset. The text column is the plain-text
// rendering of the body, so downstream NLP tooling gets markup-free input.
func CSV(w io.Writer, rows []repository.EntryWithFeed) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	for _, row := range rows {
		entry := row.Entry
		record := []string{
			row.Feed.FeedURL,
			entry.URL,
			entry.Title,
			text.PlainText(entry.Title, entry.Body),
			strings.Join(entry.Categories, ","),
			entry.PublishedAt.UTC().Format("2006-01-02 15:04:05"),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row for entry %d: %w", entry.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}
