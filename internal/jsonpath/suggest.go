package jsonpath

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jacoelho/pathq/internal/evaluator"
	"github.com/jacoelho/pathq/internal/logger"
	"github.com/jacoelho/pathq/internal/parser"
)

// HistorySource supplies suggestions from an external data-history
// lookup, keyed by tool name. Implementations may perform network I/O.
type HistorySource interface {
	Suggest(ctx context.Context, tool, partial string) ([]evaluator.Suggestion, error)
}

// pipeCatalog is the declarative table of pipe-function suggestions.
// Adding a function means adding a row, not touching control flow.
var pipeCatalog = []struct {
	name        string
	description string
}{
	{"list", "Collect results into a list"},
	{"filter", "Keep results matching an expression"},
	{"compare", "Compare results against recorded data"},
	{"select", "Select results by property"},
	{"uniq", "Remove duplicate results"},
	{"count", "Count results"},
	{"flatten", "Flatten nested arrays"},
	{"keys", "Object keys"},
	{"values", "Object values"},
	{"sort", "Sort results"},
	{"reverse", "Reverse result order"},
	{"first", "First result"},
	{"last", "Last result"},
	{"limit", "Limit result count"},
}

// filterCatalog is the declarative table of generic filter templates.
var filterCatalog = []struct {
	template    string
	description string
}{
	{"?(@.property)", "Existence filter"},
	{"?(@.length > 0)", "Length filter"},
	{"?(@.property == 'value')", "String equality filter"},
}

// Suggest classifies the partial query and produces completions for it.
// Classification is priority-ordered; every branch is fail-soft: errors
// are logged and yield an empty list, never a crash.
func (e *Evaluator) Suggest(ctx context.Context, document any, partial string, qctx evaluator.Context, paths []parser.PathDescriptor) ([]evaluator.Suggestion, error) {
	trimmed := strings.TrimSpace(partial)

	switch {
	case trimmed == "" || trimmed == "$":
		return e.rootSuggestions(document), nil
	case strings.Contains(trimmed, "compare("):
		return e.historySuggestions(ctx, trimmed, qctx), nil
	case strings.Contains(trimmed, "select("):
		return e.selectKeySuggestions(document, trimmed), nil
	case e.pipesEnabled && strings.Contains(trimmed, "|"):
		return e.pipeSuggestions(trimmed), nil
	case strings.HasSuffix(trimmed, "."):
		return e.memberSuggestions(document, trimmed), nil
	case strings.HasSuffix(trimmed, "["):
		return e.bracketSuggestions(document, trimmed), nil
	case isPartialProperty(trimmed):
		return e.fuzzySuggestions(document, trimmed), nil
	case e.filtersEnabled && strings.Contains(trimmed, "?"):
		return e.filterSuggestions(trimmed), nil
	default:
		return nil, nil
	}
}

// rootSuggestions proposes entry points into the document.
func (e *Evaluator) rootSuggestions(document any) []evaluator.Suggestion {
	switch v := document.(type) {
	case map[string]any:
		keys := sortedKeys(v)
		suggestions := make([]evaluator.Suggestion, 0, len(keys)+1)
		for _, key := range keys {
			text := "$." + key
			suggestions = append(suggestions, evaluator.Suggestion{
				Text:        text,
				DisplayText: text,
				Type:        string(parser.ClassifyValue(v[key])),
				Description: "Top-level property",
				SampleValue: parser.SampleValue(v[key]),
				InsertText:  text,
			})
		}
		// Keep the recursive-descent suggestion trailing.
		if len(suggestions) >= e.maxSuggestions {
			suggestions = suggestions[:e.maxSuggestions-1]
		}
		suggestions = append(suggestions, evaluator.Suggestion{
			Text:        "$..*",
			DisplayText: "$..*",
			Type:        "wildcard",
			Description: "All values, recursively",
			InsertText:  "$..*",
		})
		return suggestions
	case []any:
		suggestions := []evaluator.Suggestion{
			{Text: "$[0]", DisplayText: "$[0]", Type: "index", Description: "First element", InsertText: "$[0]"},
			{Text: "$[*]", DisplayText: "$[*]", Type: "wildcard", Description: "All elements", InsertText: "$[*]"},
			{Text: "$[(@.length-1)]", DisplayText: "$[(@.length-1)]", Type: "index", Description: "Last element", InsertText: "$[(@.length-1)]"},
		}
		if len(v) > 1 {
			suggestions = append(suggestions, evaluator.Suggestion{
				Text: "$[1]", DisplayText: "$[1]", Type: "index", Description: "Second element", InsertText: "$[1]",
			})
		}
		return suggestions
	default:
		return nil
	}
}

// historySuggestions defers to the injected data-history source.
func (e *Evaluator) historySuggestions(ctx context.Context, partial string, qctx evaluator.Context) []evaluator.Suggestion {
	if e.history == nil {
		return nil
	}

	typed := partial[strings.LastIndex(partial, "compare(")+len("compare("):]
	typed = strings.Trim(typed, " '\")")

	suggestions, err := e.history.Suggest(ctx, qctx.Tool, typed)
	if err != nil {
		logger.Logger.Debugw("data-history lookup failed", "tool", qctx.Tool, "error", err)
		return nil
	}
	return evaluator.Process(suggestions, typed, e.maxSuggestions)
}

// selectKeySuggestions derives candidate keys from the data reachable by
// the sub-path preceding select(.
func (e *Evaluator) selectKeySuggestions(document any, partial string) []evaluator.Suggestion {
	idx := strings.Index(partial, "select(")

	prefix := strings.TrimSpace(partial[:idx])
	prefix = strings.TrimSpace(strings.TrimSuffix(prefix, "|"))
	if prefix == "" {
		prefix = "$"
	}

	typed := strings.TrimLeft(partial[idx+len("select("):], "@. '\"")

	keys := e.objectKeysAt(document, prefix)
	suggestions := make([]evaluator.Suggestion, 0, len(keys))
	for _, key := range keys {
		suggestions = append(suggestions, evaluator.Suggestion{
			Text:        key,
			DisplayText: key,
			Type:        "select-key",
			Description: "Select by property",
			InsertText:  key,
		})
	}
	return evaluator.Process(suggestions, typed, e.maxSuggestions)
}

// pipeSuggestions enumerates the pipe-function catalog, filtered by the
// text typed after the last pipe.
func (e *Evaluator) pipeSuggestions(partial string) []evaluator.Suggestion {
	typed := strings.TrimSpace(partial[strings.LastIndex(partial, "|")+1:])

	suggestions := make([]evaluator.Suggestion, 0, len(pipeCatalog))
	for _, entry := range pipeCatalog {
		suggestions = append(suggestions, evaluator.Suggestion{
			Text:        entry.name,
			DisplayText: entry.name,
			Type:        "pipe-function",
			Description: entry.description,
			InsertText:  entry.name,
		})
	}
	return evaluator.Process(suggestions, typed, e.maxSuggestions)
}

// memberSuggestions completes after a trailing dot.
func (e *Evaluator) memberSuggestions(document any, partial string) []evaluator.Suggestion {
	base := strings.TrimSuffix(partial, ".")
	if base == "" {
		return nil
	}

	results := e.selectQuiet(document, base)
	if len(results) == 0 {
		return nil
	}

	switch v := results[0].(type) {
	case map[string]any:
		keys := sortedKeys(v)
		suggestions := make([]evaluator.Suggestion, 0, len(keys))
		for _, key := range keys {
			suggestions = append(suggestions, evaluator.Suggestion{
				Text:        key,
				DisplayText: key,
				Type:        string(parser.ClassifyValue(v[key])),
				Description: "Property",
				SampleValue: parser.SampleValue(v[key]),
				InsertText:  partial + key,
			})
		}
		return evaluator.Process(suggestions, "", e.maxSuggestions)
	case []any:
		return e.arrayIndexSuggestions(base, len(v))
	default:
		return nil
	}
}

// bracketSuggestions completes after a trailing open bracket: indexes,
// slices when the array is long enough, and filters sampled from the
// first element.
func (e *Evaluator) bracketSuggestions(document any, partial string) []evaluator.Suggestion {
	base := strings.TrimSuffix(partial, "[")
	if base == "" {
		return nil
	}

	results := e.selectQuiet(document, base)
	if len(results) == 0 {
		return nil
	}
	arr, ok := results[0].([]any)
	if !ok {
		return nil
	}

	suggestions := e.arrayIndexSuggestions(base, len(arr))

	if len(arr) > 2 {
		for _, slice := range []string{"0:2", "1:", ":3"} {
			expr := base + "[" + slice + "]"
			suggestions = append(suggestions, evaluator.Suggestion{
				Text:        "[" + slice + "]",
				DisplayText: "[" + slice + "]",
				Type:        "slice",
				Description: "Array slice",
				InsertText:  expr,
			})
		}
	}

	if e.filtersEnabled && len(arr) > 0 {
		suggestions = append(suggestions, e.sampledFilterSuggestions(base, arr)...)
	}

	return evaluator.Process(suggestions, "", e.maxSuggestions)
}

// sampledFilterSuggestions seeds filter expressions from the keys and
// values of the first array element.
func (e *Evaluator) sampledFilterSuggestions(base string, arr []any) []evaluator.Suggestion {
	first, ok := arr[0].(map[string]any)
	if !ok {
		return nil
	}

	var suggestions []evaluator.Suggestion
	for _, key := range sortedKeys(first) {
		existence := "?(@." + key + ")"
		suggestions = append(suggestions, evaluator.Suggestion{
			Text:        existence,
			DisplayText: "[" + existence + "]",
			Type:        "filter",
			Description: "Elements having " + key,
			InsertText:  base + "[" + existence + "]",
		})

		var comparison string
		switch sample := first[key].(type) {
		case string:
			comparison = "?(@." + key + " == '" + sample + "')"
		case float64, int, int64, uint64:
			comparison = fmt.Sprintf("?(@.%s > %v)", key, sample)
		default:
			continue
		}
		suggestions = append(suggestions, evaluator.Suggestion{
			Text:        comparison,
			DisplayText: "[" + comparison + "]",
			Type:        "filter",
			Description: "Filter by " + key,
			InsertText:  base + "[" + comparison + "]",
		})
	}
	return suggestions
}

// fuzzySuggestions ranks sibling keys of the parent path against the
// partially typed property name. Ordering here is by descending fuzzy
// score, the one exception to the shared relevance pipeline.
func (e *Evaluator) fuzzySuggestions(document any, partial string) []evaluator.Suggestion {
	lastDot := strings.LastIndex(partial, ".")
	parent := partial[:lastDot]
	typed := partial[lastDot+1:]
	if parent == "" {
		return nil
	}

	results := e.selectQuiet(document, parent)
	if len(results) == 0 {
		return nil
	}
	obj, ok := results[0].(map[string]any)
	if !ok {
		return nil
	}

	type scoredKey struct {
		key   string
		score int
	}
	var candidates []scoredKey
	for _, key := range sortedKeys(obj) {
		if score := Score(typed, key); score > fuzzyThreshold {
			candidates = append(candidates, scoredKey{key: key, score: score})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	if len(candidates) > e.maxSuggestions {
		candidates = candidates[:e.maxSuggestions]
	}

	suggestions := make([]evaluator.Suggestion, 0, len(candidates))
	for _, c := range candidates {
		suggestions = append(suggestions, evaluator.Suggestion{
			Text:        c.key,
			DisplayText: c.key,
			Type:        string(parser.ClassifyValue(obj[c.key])),
			Description: "Property",
			SampleValue: parser.SampleValue(obj[c.key]),
			InsertText:  parent + "." + c.key,
		})
	}
	return suggestions
}

// filterSuggestions proposes the generic filter templates.
func (e *Evaluator) filterSuggestions(partial string) []evaluator.Suggestion {
	idx := strings.Index(partial, "?")
	base := partial[:idx]

	suggestions := make([]evaluator.Suggestion, 0, len(filterCatalog))
	for _, entry := range filterCatalog {
		insert := partial
		if strings.HasSuffix(base, "[") {
			insert = base + entry.template + "]"
		}
		suggestions = append(suggestions, evaluator.Suggestion{
			Text:        entry.template,
			DisplayText: entry.template,
			Type:        "filter",
			Description: entry.description,
			InsertText:  insert,
		})
	}
	return evaluator.Process(suggestions, "", e.maxSuggestions)
}

func (e *Evaluator) arrayIndexSuggestions(base string, length int) []evaluator.Suggestion {
	suggestions := []evaluator.Suggestion{
		{Text: "[0]", DisplayText: "[0]", Type: "index", Description: "First element", InsertText: base + "[0]"},
		{Text: "[*]", DisplayText: "[*]", Type: "wildcard", Description: "All elements", InsertText: base + "[*]"},
		{Text: "[(@.length-1)]", DisplayText: "[(@.length-1)]", Type: "index", Description: "Last element", InsertText: base + "[(@.length-1)]"},
	}
	if length > 1 {
		suggestions = append(suggestions, evaluator.Suggestion{
			Text: "[1]", DisplayText: "[1]", Type: "index", Description: "Second element", InsertText: base + "[1]",
		})
	}
	return suggestions
}

// objectKeysAt returns the member keys of the object reachable at path.
// Array results are represented by their first element.
func (e *Evaluator) objectKeysAt(document any, path string) []string {
	results := e.selectQuiet(document, path)
	if len(results) == 0 {
		return nil
	}
	switch v := results[0].(type) {
	case map[string]any:
		return sortedKeys(v)
	case []any:
		if len(v) > 0 {
			if m, ok := v[0].(map[string]any); ok {
				return sortedKeys(m)
			}
		}
	}
	return nil
}

// selectQuiet evaluates a sub-path for suggestion purposes. Failures are
// logged and yield no results: suggestions must never crash an input
// field.
func (e *Evaluator) selectQuiet(document any, expr string) []any {
	results, err := e.sel.Select(document, expr)
	if err != nil {
		logger.Logger.Debugw("suggestion sub-path evaluation failed", "expr", expr, "error", err)
		return nil
	}
	return results
}

// isPartialProperty reports whether the text after the last dot is a
// partially typed property name.
func isPartialProperty(partial string) bool {
	i := strings.LastIndex(partial, ".")
	if i < 0 || i == len(partial)-1 {
		return false
	}
	for _, r := range partial[i+1:] {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return false
		}
	}
	return true
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
