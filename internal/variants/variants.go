// Package variants rewrites a search query into alternate phrasings, catalogs are
// inconsistent about spelling small numbers out.
package variants

import (
	"regexp"
	"slices"
	"sort"
	"strconv"
	"strings"

	"bookmirror/lib/textutil"
)

var numberNames = []string{
	"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine", "ten",
	"eleven", "twelve", "thirteen", "fourteen", "fifteen", "sixteen", "seventeen",
	"eighteen", "nineteen", "twenty",
}

var numberValues = func() map[string]int {
	values := make(map[string]int, len(numberNames))
	for i, name := range numberNames {
		values[name] = i
	}
	return values
}()

var numberNameRegex = func() *regexp.Regexp {
	// longest first so "seventeen" is never cut short by "seven"
	names := make([]string, len(numberNames))
	copy(names, numberNames)
	sort.SliceStable(names, func(i, j int) bool {
		return len(names[i]) > len(names[j])
	})
	return regexp.MustCompile(`(?i)\b(` + strings.Join(names, "|") + `)\b`)
}()

var digitsRegex = regexp.MustCompile(`\b\d+\b`)

// NamesToDigits replaces every whole-word number name from zero to twenty with its digits.
func NamesToDigits(query string) string {
	return numberNameRegex.ReplaceAllStringFunc(query, func(match string) string {
		return strconv.Itoa(numberValues[strings.ToLower(match)])
	})
}

// DigitsToNames replaces every whole-word number from 0 to 20 with its name.
func DigitsToNames(query string) string {
	return digitsRegex.ReplaceAllStringFunc(query, func(match string) string {
		n, err := strconv.Atoi(match)
		if err != nil || n < 0 || n >= len(numberNames) || strconv.Itoa(n) != match {
			return match
		}
		return numberNames[n]
	})
}

// Expand returns the cleaned query followed by its number rewrites, without duplicates.
// A blank query gives no variants.
func Expand(raw string) []string {
	original := textutil.CollapseWhitespace(raw)
	if original == "" {
		return nil
	}

	out := []string{original}
	for _, variant := range []string{NamesToDigits(original), DigitsToNames(original)} {
		if !slices.Contains(out, variant) {
			out = append(out, variant)
		}
	}
	return out
}
