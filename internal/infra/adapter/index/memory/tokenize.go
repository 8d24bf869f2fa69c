package memory

import (
	"strings"
	"unicode"
)

// Tokenize splits text into lower-cased word tokens. Anything that is not a
// letter or digit is a separator, so URLs break into their path segments and
// punctuation never reaches the index.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
