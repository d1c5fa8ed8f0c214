// Package keywords extracts search terms from task text. The same extractor
// feeds both context assembly (grep-matching documentation sections) and
// relevance-scored compaction (scoring log entries against the active task).
package keywords

import (
	"sort"
	"strings"
	"unicode"
)

// stopWords are common English tokens that carry no search value.
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "that": true,
	"this": true, "from": true, "are": true, "was": true, "were": true,
	"have": true, "has": true, "had": true, "not": true, "but": true,
	"all": true, "can": true, "will": true, "should": true, "must": true,
	"when": true, "then": true, "than": true, "into": true, "out": true,
	"use": true, "used": true, "using": true, "each": true, "also": true,
	"its": true, "his": true, "her": true, "their": true, "our": true,
	"you": true, "your": true, "any": true, "some": true, "such": true,
	"only": true, "other": true, "new": true, "more": true, "most": true,
	"via": true, "per": true, "add": true, "get": true, "set": true,
	"does": true, "been": true, "being": true, "after": true, "before": true,
	"which": true, "where": true, "while": true, "would": true, "could": true,
}

// Extract lowercases title+description, tokenizes on non-alphanumeric
// boundaries, drops stop words and tokens shorter than 3 characters,
// de-duplicates and returns the result lexically sorted.
func Extract(title, description string) []string {
	text := strings.ToLower(title + " " + description)

	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	seen := make(map[string]bool)
	var out []string
	for _, tok := range tokens {
		if len(tok) < 3 || stopWords[tok] || seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}
	sort.Strings(out)
	return out
}

// MatchCount counts how many keywords appear (case-insensitive substring)
// in text, capped at cap. Shared by compaction scoring and section matching.
func MatchCount(text string, kws []string, cap int) int {
	lower := strings.ToLower(text)
	n := 0
	for _, kw := range kws {
		if strings.Contains(lower, kw) {
			n++
			if n >= cap {
				break
			}
		}
	}
	return n
}
