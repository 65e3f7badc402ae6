// Package strutil provides the small string transformations shared by the
// label builder, context assembler, and summary generator.
package strutil

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Truncate shortens s to at most max code points, replacing the tail with an
// ellipsis when truncation occurs. For max < 3 the result is the ellipsis
// itself cut down to max.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max < 3 {
		return "..."[:max]
	}
	return string(runes[:max-3]) + "..."
}

// CapitalizeFirst uppercases the first code point of s only.
func CapitalizeFirst(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

// HumanizeSnake converts a snake_case identifier to a lowercase phrase,
// e.g. "plan_upgrade_started" becomes "plan upgrade started".
func HumanizeSnake(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, "_", " "))
}

// HyphensToSnake rewrites hyphenated attribute names to snake_case keys,
// preserving case, e.g. "product-id" becomes "product_id".
func HyphensToSnake(s string) string {
	return strings.ReplaceAll(s, "-", "_")
}
