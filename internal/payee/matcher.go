// Package payee maintains a local mirror of the budget's payee directory
// and resolves extracted merchant names against it.
package payee

import (
	"sort"
	"strings"

	"github.com/agext/levenshtein"
)

// SimilarityThreshold is the minimum normalized Levenshtein similarity for
// a fuzzy match. Below this, the raw merchant name is used as-is.
const SimilarityThreshold = 0.80

// Matcher resolves a merchant name to a known payee name.
type Matcher interface {
	// Match returns the matched payee name and true, or "" and false when
	// nothing in the directory is close enough.
	Match(merchant string, payees []string) (string, bool)
}

// LevenshteinMatcher matches case-insensitively, preferring exact matches
// and falling back to normalized edit-distance similarity. Ties on
// similarity break by lexical order so repeated runs always resolve the
// same way.
type LevenshteinMatcher struct {
	params *levenshtein.Params
}

// NewLevenshteinMatcher creates a matcher with default distance costs.
func NewLevenshteinMatcher() *LevenshteinMatcher {
	return &LevenshteinMatcher{params: levenshtein.NewParams()}
}

// Match implements Matcher.
func (m *LevenshteinMatcher) Match(merchant string, payees []string) (string, bool) {
	needle := strings.ToLower(strings.TrimSpace(merchant))
	if needle == "" || len(payees) == 0 {
		return "", false
	}

	sorted := make([]string, len(payees))
	copy(sorted, payees)
	sort.Strings(sorted)

	for _, candidate := range sorted {
		if strings.ToLower(strings.TrimSpace(candidate)) == needle {
			return candidate, true
		}
	}

	bestScore := 0.0
	bestName := ""
	for _, candidate := range sorted {
		score := levenshtein.Similarity(needle, strings.ToLower(strings.TrimSpace(candidate)), m.params)
		if score > bestScore {
			bestScore = score
			bestName = candidate
		}
	}
	if bestScore >= SimilarityThreshold {
		return bestName, true
	}
	return "", false
}
