package textutil

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// CollapseWhitespace trims the string and replaces every run of whitespace with a single space.
func CollapseWhitespace(s string) string {
	return whitespaceRegex.ReplaceAllString(strings.TrimSpace(s), " ")
}

// NormalizeName lowercases and trims a name and collapses its inner whitespace.
func NormalizeName(name string) string {
	return CollapseWhitespace(strings.ToLower(name))
}

// MatchName reports whether the normalized name contains any of the matchers.
func MatchName(name string, matchers []string) bool {
	name = NormalizeName(name)
	for _, m := range matchers {
		if strings.Contains(name, m) {
			return true
		}
	}
	return false
}

// MatchWord reports whether the normalized name is `word` or starts with `word`
// followed by something that is not a letter, so "author(s)" matches "author" but
// "identifier" does not match "id".
func MatchWord(name, word string) bool {
	name = NormalizeName(name)
	if !strings.HasPrefix(name, word) {
		return false
	}
	rest := name[len(word):]
	if rest == "" {
		return true
	}
	next, _ := utf8.DecodeRuneInString(rest)
	return !unicode.IsLetter(next)
}
