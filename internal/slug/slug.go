// Package slug derives the URL-safe identifiers used in deal, store and
// category paths.
package slug

import (
	"regexp"
	"strings"
)

// MaxLength is the longest slug ever produced.
const MaxLength = 80

var (
	currencyRegex   = regexp.MustCompile(`\p{Sc}`)
	disallowedRegex = regexp.MustCompile(`[^a-z0-9\s-]`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
	hyphenRunRegex  = regexp.MustCompile(`-+`)
)

// Slugify lower-cases s, drops currency symbols and punctuation, joins words
// with single hyphens and truncates to MaxLength.
func Slugify(s string) string {
	s = strings.ToLower(s)
	s = currencyRegex.ReplaceAllString(s, "")
	s = disallowedRegex.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	s = whitespaceRegex.ReplaceAllString(s, "-")
	s = hyphenRunRegex.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	return truncate(s, MaxLength)
}

// ForDeal builds a deal slug from its title and the slug of its store. The
// title part is shortened so the store suffix always survives.
func ForDeal(title, storeSlug string) string {
	store := Slugify(storeSlug)
	if store == "" {
		return Slugify(title)
	}
	budget := MaxLength - len(store) - 1
	if budget <= 0 {
		return store
	}
	t := truncate(Slugify(title), budget)
	if t == "" {
		return store
	}
	return t + "-" + store
}

// Only ASCII survives Slugify, so byte length is rune length here.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return strings.TrimRight(s[:n], "-")
}
