package memory

import "strings"

// HighlightOptions controls fragment selection and match markup. The zero
// value is not usable; start from DefaultHighlightOptions.
type HighlightOptions struct {
	StartSel          string
	StopSel           string
	MinWords          int
	MaxWords          int
	ShortWord         int
	MaxFragments      int
	FragmentDelimiter string
	HighlightAll      bool
}

func DefaultHighlightOptions() HighlightOptions {
	return HighlightOptions{
		StartSel:          "<b>",
		StopSel:           "</b>",
		MinWords:          15,
		MaxWords:          35,
		ShortWord:         4,
		MaxFragments:      3,
		FragmentDelimiter: " &hellip; ",
		HighlightAll:      true,
	}
}

// Highlight selects up to MaxFragments windows of text densest in query
// terms, wraps each matching word with StartSel/StopSel, and joins the
// fragments with the delimiter. Returns "" when no query token matches.
func Highlight(text string, queryTokens []string, opts HighlightOptions) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	matched := make([]bool, len(words))
	anyMatch := false
	for i, word := range words {
		if wordMatches(word, queryTokens, opts.ShortWord) {
			matched[i] = true
			anyMatch = true
		}
	}
	if !anyMatch {
		return ""
	}

	windows := selectWindows(matched, opts)

	fragments := make([]string, 0, len(windows))
	for _, w := range windows {
		fragments = append(fragments, renderFragment(words[w.start:w.end], matched[w.start:w.end], opts))
	}
	return strings.Join(fragments, opts.FragmentDelimiter)
}

// wordMatches reports whether a display word matches any query token. Query
// tokens shorter than shortWord must match exactly; longer tokens also match
// by prefix.
func wordMatches(word string, queryTokens []string, shortWord int) bool {
	wordToks := Tokenize(word)
	for _, q := range queryTokens {
		for _, tok := range wordToks {
			if tok == q {
				return true
			}
			if len(q) >= shortWord && len(q) < len(tok) && tok[:len(q)] == q {
				return true
			}
		}
	}
	return false
}

type window struct{ start, end int }

// selectWindows greedily picks the non-overlapping fixed-width windows with
// the most matches, then orders them by position. Window width is MaxWords
// capped by the text length, never below MinWords unless the text itself is
// shorter.
func selectWindows(matched []bool, opts HighlightOptions) []window {
	n := len(matched)
	width := opts.MaxWords
	if width > n {
		width = n
	}
	if width < opts.MinWords && n >= opts.MinWords {
		width = opts.MinWords
	}

	type candidate struct {
		window
		density int
	}
	candidates := make([]candidate, 0, n-width+1)
	density := 0
	for i := 0; i < width; i++ {
		if matched[i] {
			density++
		}
	}
	candidates = append(candidates, candidate{window{0, width}, density})
	for start := 1; start+width <= n; start++ {
		if matched[start-1] {
			density--
		}
		if matched[start+width-1] {
			density++
		}
		candidates = append(candidates, candidate{window{start, start + width}, density})
	}

	// Stable order: densest first, earliest first among equals.
	for i := 1; i < len(candidates); i++ {
		for j := i; j > 0 && candidates[j].density > candidates[j-1].density; j-- {
			candidates[j], candidates[j-1] = candidates[j-1], candidates[j]
		}
	}

	picked := make([]window, 0, opts.MaxFragments)
	for _, c := range candidates {
		if c.density == 0 || len(picked) == opts.MaxFragments {
			break
		}
		overlaps := false
		for _, p := range picked {
			if c.start < p.end && p.start < c.end {
				overlaps = true
				break
			}
		}
		if !overlaps {
			picked = append(picked, c.window)
		}
	}

	// Restore document order for rendering.
	for i := 1; i < len(picked); i++ {
		for j := i; j > 0 && picked[j].start < picked[j-1].start; j-- {
			picked[j], picked[j-1] = picked[j-1], picked[j]
		}
	}
	return picked
}

func renderFragment(words []string, matched []bool, opts HighlightOptions) string {
	var b strings.Builder
	wrapped := false
	for i, word := range words {
		if i > 0 {
			b.WriteByte(' ')
		}
		if matched[i] && (opts.HighlightAll || !wrapped) {
			b.WriteString(opts.StartSel)
			b.WriteString(word)
			b.WriteString(opts.StopSel)
			wrapped = true
			continue
		}
		b.WriteString(word)
	}
	return b.String()
}
