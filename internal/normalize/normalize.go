// Package normalize provides text normalization for matching user input
// against stored catalog data.
package normalize

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// folder is stateless and safe for concurrent use.
var folder = cases.Fold()

// Fold returns the comparison form of s: null bytes dropped, NFKC composed,
// Unicode case folded and surrounding whitespace trimmed.
// "  Ｄｕｎｅ " -> "dune".
func Fold(s string) string {
	s = sanitizeString(s)
	s = norm.NFKC.String(s)
	s = folder.String(s)
	return strings.TrimSpace(s)
}

// Text trims s and removes null bytes, keeping its case.
func Text(s string) string {
	return strings.TrimSpace(sanitizeString(s))
}

func sanitizeString(s string) string {
	return strings.Map(func(r rune) rune {
		if r == 0 {
			return -1
		}
		return r
	}, s)
}
