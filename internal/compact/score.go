package compact

import (
	"regexp"

	"ralph/internal/keywords"
	"ralph/internal/model"
)

// Marker categories, in descending weight order. Each category counts once
// per entry regardless of how many lines match.
var (
	patternRe     = regexp.MustCompile(`(?i)\b(pattern|convention)s?\b`)
	gotchaRe      = regexp.MustCompile(`(?i)\b(gotcha|bug|fix|fixed|avoid|warning|workaround)s?\b`)
	integrationRe = regexp.MustCompile(`(?i)\b(integration|integrate[sd]?|dependency|dependencies|depends)\b`)
	schemaRe      = regexp.MustCompile(`(?i)\b(api|schema|migration|database|endpoint)s?\b`)
	configRe      = regexp.MustCompile(`(?i)\b(config|configuration|environment|env)\b`)
)

const keywordMatchCap = 3

// scoreEntry computes marker score plus keyword score for one entry's text.
// The recency bonus is positional and added by the caller.
func scoreEntry(text string, kws []string, w model.ScoreWeights) int {
	score := 0
	if patternRe.MatchString(text) {
		score += w.Pattern
	}
	if gotchaRe.MatchString(text) {
		score += w.Gotcha
	}
	if integrationRe.MatchString(text) {
		score += w.Integration
	}
	if schemaRe.MatchString(text) {
		score += w.Schema
	}
	if configRe.MatchString(text) {
		score += w.Config
	}
	score += keywords.MatchCount(text, kws, keywordMatchCap) * w.Keyword
	return score
}

// storyIDRe pulls ticket-style identifiers (US-042, PROJ-17) out of entry
// text for the compacted-summary references.
var storyIDRe = regexp.MustCompile(`\b[A-Z]{2,6}-\d+\b`)

var dateRe = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

// entryReference derives the one-line identifier preserved for a dropped
// entry: a story id when present, otherwise the entry's date.
func entryReference(e entryView) string {
	if id := storyIDRe.FindString(e.text); id != "" {
		return id
	}
	if date := dateRe.FindString(e.heading); date != "" {
		return date
	}
	return "untitled entry"
}

type entryView struct {
	heading string
	text    string
}
