package evaluator

import (
	"encoding/json"
	"sort"
	"strings"
)

// DefaultMaxSuggestions bounds the ranked suggestion list.
const DefaultMaxSuggestions = 10

// Suggestion is a proposed completion with an exact text-replacement
// contract: applying InsertText over [ReplaceStart, ReplaceEnd) of the
// full query yields a syntactically continuable query.
type Suggestion struct {
	Text         string
	DisplayText  string
	Type         string
	Description  string
	SampleValue  string
	InsertText   string
	ReplaceStart int
	ReplaceEnd   int
}

// Process runs the shared ranking pipeline: filter by case-insensitive
// containment of partialInput (no-op when empty), stable sort by
// relevance (exact match, then prefix match, then ascending text length),
// and truncation to maxCount (DefaultMaxSuggestions when <= 0).
func Process(suggestions []Suggestion, partialInput string, maxCount int) []Suggestion {
	if maxCount <= 0 {
		maxCount = DefaultMaxSuggestions
	}

	input := strings.ToLower(strings.TrimSpace(partialInput))

	filtered := suggestions
	if input != "" {
		filtered = make([]Suggestion, 0, len(suggestions))
		for _, s := range suggestions {
			if strings.Contains(strings.ToLower(s.Text), input) ||
				strings.Contains(strings.ToLower(s.DisplayText), input) {
				filtered = append(filtered, s)
			}
		}
	}

	ranked := make([]Suggestion, len(filtered))
	copy(ranked, filtered)
	sort.SliceStable(ranked, func(i, j int) bool {
		ri, rj := relevance(ranked[i].Text, input), relevance(ranked[j].Text, input)
		if ri != rj {
			return ri < rj
		}
		return len(ranked[i].Text) < len(ranked[j].Text)
	})

	if len(ranked) > maxCount {
		ranked = ranked[:maxCount]
	}
	return ranked
}

// relevance buckets are a stable ordering, not a numeric score:
// 0 exact match, 1 prefix match, 2 everything else.
func relevance(text, input string) int {
	if input == "" {
		return 2
	}
	lower := strings.ToLower(text)
	switch {
	case lower == input:
		return 0
	case strings.HasPrefix(lower, input):
		return 1
	default:
		return 2
	}
}

// canonicalJSON serializes a container deterministically; encoding/json
// emits map keys in sorted order.
func canonicalJSON(value any) string {
	data, err := json.Marshal(value)
	if err != nil {
		return ""
	}
	return string(data)
}
