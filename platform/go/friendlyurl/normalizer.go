// Package friendlyurl maps free text onto the character set allowed in a
// friendly URL path segment.
package friendlyurl

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lowercases the input, folds accented letters to ASCII and replaces
// every character outside [a-z0-9-] with a single hyphen.
func Normalize(input string) string {
	return normalize(input, false)
}

// NormalizeWithPeriodsAndSlashes behaves like Normalize but keeps '.' and '/'
// as literal separators.
func NormalizeWithPeriodsAndSlashes(input string) string {
	return normalize(input, true)
}

func normalize(input string, keepSeparators bool) string {
	if input == "" {
		return ""
	}

	folded := strings.ToLower(toASCII(input))

	var b strings.Builder
	b.Grow(len(folded))

	lastDash := true // suppresses a leading hyphen
	for _, r := range folded {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastDash = false
		case keepSeparators && (r == '.' || r == '/'):
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}

	return strings.TrimRight(b.String(), "-")
}

// toASCII decomposes the input and drops combining marks so "é" becomes "e".
// Characters without an ASCII base letter are left for the caller to replace.
func toASCII(input string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, input)
	if err != nil {
		return input
	}
	return out
}
