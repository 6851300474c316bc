// Package builtin contains the built-in ingestion stages: coercion,
// categorical normalization, semantic validation and null pruning.
package builtin

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// NormalizeCategory trims surrounding whitespace, composes accents (NFC) and
// lower-cases s, so "  Loja Física" and a decomposed "loja física"
// compare equal to "loja física".
func NormalizeCategory(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	// A Caser is stateful and must not be shared between goroutines.
	return cases.Lower(language.BrazilianPortuguese).String(norm.NFC.String(s))
}

// categorySet builds a lookup set of normalized values.
func categorySet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[NormalizeCategory(v)] = struct{}{}
	}
	return set
}
