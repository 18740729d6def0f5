package encsearch

import (
	"sort"
	"strings"
)

// DefaultMinKeywordLength is the shortest term kept by the extractor.
const DefaultMinKeywordLength = 3

// KeywordExtractor normalizes free text into a set of searchable terms.
type KeywordExtractor struct {
	// MinLength discards shorter terms. Zero means DefaultMinKeywordLength.
	MinLength int
}

// Extract lowercases text, splits it on every character that is not an ASCII
// letter, digit, or apostrophe, and returns the distinct terms of at least
// MinLength characters, sorted.
func (e KeywordExtractor) Extract(text string) []string {
	minLen := e.MinLength
	if minLen <= 0 {
		minLen = DefaultMinKeywordLength
	}
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !isKeywordRune(r)
	})
	seen := make(map[string]struct{}, len(words))
	terms := make([]string, 0, len(words))
	for _, w := range words {
		if len(w) < minLen {
			continue
		}
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		terms = append(terms, w)
	}
	sort.Strings(terms)
	return terms
}

// ExtractRecord extracts keywords from the searchable fields of r
// (name, description, category) joined with spaces.
func (e KeywordExtractor) ExtractRecord(r Record) []string {
	return e.Extract(searchableText(r))
}

// ExtractKeywords is KeywordExtractor{}.Extract.
func ExtractKeywords(text string) []string {
	return KeywordExtractor{}.Extract(text)
}

func searchableText(r Record) string {
	return r.Name + " " + r.Description + " " + r.Category
}

func isKeywordRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '\''
}
