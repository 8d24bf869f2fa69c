// Package text provides utilities for turning raw entry fields into canonical
// plain text. The same normalization is used to build search index documents
// and the input sent to the enrichment service, so annotation spots returned
// by the service remain valid spans of the text callers see.
package text

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PlainText produces the canonical plain-text rendering of an entry.
// A blank body falls back to the title. Otherwise all markup is stripped from
// the body and runs of whitespace (including newlines) collapse into single
// spaces, trimmed at both ends.
//
// The function is pure and idempotent: applying it to its own output returns
// the same string.
func PlainText(title, body string) string {
	if strings.TrimSpace(body) == "" {
		return title
	}
	return Squish(StripTags(body))
}

// StripTags removes HTML markup from s, returning the concatenated text
// content. Input that is not HTML passes through unchanged apart from entity
// decoding. A parse failure falls back to the raw input so callers always get
// text.
func StripTags(s string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return s
	}
	return doc.Text()
}

// Squish collapses every run of whitespace in s into a single space and trims
// leading and trailing whitespace.
func Squish(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// CountRunes counts the number of Unicode characters (runes) in the given
// text. It handles multi-byte characters correctly by counting runes instead
// of bytes; used for log and metric lengths.
func CountRunes(text string) int {
	return len([]rune(text))
}
