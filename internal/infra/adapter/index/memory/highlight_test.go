package memory

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHighlight_WrapsEveryOccurrence(t *testing.T) {
	opts := DefaultHighlightOptions()

	got := Highlight("go tools make go programs go fast", []string{"go"}, opts)

	assert.Equal(t, 3, strings.Count(got, "<b>go</b>"))
}

func TestHighlight_FirstMatchOnlyWhenHighlightAllDisabled(t *testing.T) {
	opts := DefaultHighlightOptions()
	opts.HighlightAll = false

	got := Highlight("go tools make go programs", []string{"go"}, opts)

	assert.Equal(t, 1, strings.Count(got, "<b>go</b>"))
}

func TestHighlight_NoMatchReturnsEmpty(t *testing.T) {
	opts := DefaultHighlightOptions()

	assert.Empty(t, Highlight("nothing relevant here", []string{"zebra"}, opts))
	assert.Empty(t, Highlight("", []string{"zebra"}, opts))
}

func TestHighlight_ShortQueryRequiresExactWord(t *testing.T) {
	opts := DefaultHighlightOptions()

	// "cat" is below ShortWord, so it must not prefix-match "category".
	assert.Empty(t, Highlight("category news", []string{"cat"}, opts))
	assert.Equal(t, "the <b>cat</b> sat", Highlight("the cat sat", []string{"cat"}, opts))
}

func TestHighlight_FragmentsBoundedAndJoined(t *testing.T) {
	opts := DefaultHighlightOptions()
	opts.MinWords = 2
	opts.MaxWords = 4
	opts.MaxFragments = 2

	// Two clusters of matches far apart force two fragments.
	var words []string
	words = append(words, "alpha", "beta")
	for i := 0; i < 20; i++ {
		words = append(words, "filler")
	}
	words = append(words, "alpha", "gamma")
	text := strings.Join(words, " ")

	got := Highlight(text, []string{"alpha"}, opts)

	parts := strings.Split(got, opts.FragmentDelimiter)
	assert.Len(t, parts, 2)
	for _, part := range parts {
		assert.Contains(t, part, "<b>alpha</b>")
		assert.LessOrEqual(t, len(strings.Fields(part)), opts.MaxWords)
	}
}

func TestHighlight_MaxFragmentsCap(t *testing.T) {
	opts := DefaultHighlightOptions()
	opts.MinWords = 1
	opts.MaxWords = 2
	opts.MaxFragments = 3

	var words []string
	for i := 0; i < 5; i++ {
		words = append(words, "match", "pad", "pad", "pad")
	}
	text := strings.Join(words, " ")

	got := Highlight(text, []string{"match"}, opts)

	assert.Len(t, strings.Split(got, opts.FragmentDelimiter), 3)
}

func TestHighlight_PrefixMatchWrapsFullWord(t *testing.T) {
	opts := DefaultHighlightOptions()

	got := Highlight("concurrency patterns in practice", []string{"concur"}, opts)

	assert.Equal(t, "<b>concurrency</b> patterns in practice", got)
}
