// Package yq implements the yq-style dotted/piped query evaluator.
//
// Stages are separated by "|"; each stage is either a navigation segment
// (.key, [n] with negative-index wrap-around, [a:b] slices, [] iterating
// all elements) or a function call (keys, values, length). Evaluation is
// left-to-right accumulation: each stage maps the current result set to
// a new result set.
package yq

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jacoelho/pathq/internal/evaluator"
	"github.com/jacoelho/pathq/internal/logger"
	"github.com/jacoelho/pathq/internal/parser"
)

// ErrSyntax is the sentinel error for yq expression failures.
var ErrSyntax = errors.New("invalid yq expression")

// Language is the registry key for this evaluator.
const Language = "yq"

// Evaluator evaluates dotted/piped path expressions.
type Evaluator struct {
	maxSuggestions int
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithMaxSuggestions bounds suggestion lists.
func WithMaxSuggestions(n int) Option {
	return func(e *Evaluator) {
		if n > 0 {
			e.maxSuggestions = n
		}
	}
}

// New creates a yq evaluator.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{maxSuggestions: evaluator.DefaultMaxSuggestions}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Evaluator) Language() string { return Language }

func (e *Evaluator) SupportsUnion() bool { return true }

func (e *Evaluator) Features() []string {
	return []string{"union", "pipes", "slices", "negative-index", "iterate"}
}

// Evaluate runs a finished query. Comma-separated union queries are
// split, evaluated independently and combined; the first failing
// sub-expression short-circuits the union.
func (e *Evaluator) Evaluate(document any, query string) ([]any, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, evaluator.WrapError(Language, fmt.Errorf("%w: empty query", ErrSyntax))
	}

	expressions := evaluator.SplitUnion(query)
	if len(expressions) > 1 {
		sets := make([][]any, 0, len(expressions))
		for _, expr := range expressions {
			results, err := e.evaluateSingle(document, expr)
			if err != nil {
				return nil, err
			}
			sets = append(sets, results)
		}
		return evaluator.CombineUnionResults(sets), nil
	}

	return e.evaluateSingle(document, query)
}

func (e *Evaluator) evaluateSingle(document any, expr string) ([]any, error) {
	stages, err := parseExpression(expr)
	if err != nil {
		return nil, evaluator.WrapError(Language, err)
	}

	results := []any{document}
	for _, stage := range stages {
		results, err = applyStage(results, stage)
		if err != nil {
			return nil, evaluator.WrapError(Language, err)
		}
	}
	return results, nil
}

// ValidateQuery reports query validity without returning an error.
func (e *Evaluator) ValidateQuery(query string) evaluator.ValidationResult {
	expressions := evaluator.SplitUnion(query)
	if len(expressions) == 0 {
		return evaluator.ValidationResult{Valid: false, Error: "empty query"}
	}
	for _, expr := range expressions {
		if _, err := parseExpression(expr); err != nil {
			return evaluator.ValidationResult{Valid: false, Error: err.Error()}
		}
	}
	return evaluator.ValidationResult{Valid: true}
}

// stageFunctions is the declarative table of stage-function suggestions.
var stageFunctions = []struct {
	name        string
	description string
}{
	{"keys", "Mapping keys as an array"},
	{"keys[]", "Mapping keys, iterated"},
	{"values", "Mapping values as an array"},
	{"values[]", "Mapping values, iterated"},
	{"length", "Element count or string length"},
}

// Suggest produces completions for a partial yq expression: root keys,
// member keys after a trailing dot, and stage-function names after a
// pipe. Failures are swallowed; suggestions never crash an input field.
func (e *Evaluator) Suggest(_ context.Context, document any, partial string, _ evaluator.Context, _ []parser.PathDescriptor) ([]evaluator.Suggestion, error) {
	trimmed := strings.TrimSpace(partial)

	switch {
	case trimmed == "" || trimmed == ".":
		return e.rootSuggestions(document), nil
	case strings.Contains(trimmed, "|"):
		typed := strings.TrimSpace(trimmed[strings.LastIndex(trimmed, "|")+1:])
		return e.functionSuggestions(typed), nil
	case strings.HasSuffix(trimmed, "."):
		return e.memberSuggestions(document, trimmed), nil
	default:
		return e.partialKeySuggestions(document, trimmed), nil
	}
}

func (e *Evaluator) rootSuggestions(document any) []evaluator.Suggestion {
	switch v := document.(type) {
	case map[string]any:
		keys := sortedKeys(v)
		suggestions := make([]evaluator.Suggestion, 0, len(keys))
		for _, key := range keys {
			text := "." + key
			suggestions = append(suggestions, evaluator.Suggestion{
				Text:        text,
				DisplayText: text,
				Type:        string(parser.ClassifyValue(v[key])),
				Description: "Top-level key",
				SampleValue: parser.SampleValue(v[key]),
				InsertText:  text,
			})
		}
		return evaluator.Process(suggestions, "", e.maxSuggestions)
	case []any:
		return []evaluator.Suggestion{
			{Text: ".[0]", DisplayText: ".[0]", Type: "index", Description: "First element", InsertText: ".[0]"},
			{Text: ".[]", DisplayText: ".[]", Type: "iterate", Description: "All elements", InsertText: ".[]"},
			{Text: "length", DisplayText: "length", Type: "function", Description: "Element count", InsertText: "length"},
		}
	default:
		return nil
	}
}

func (e *Evaluator) functionSuggestions(typed string) []evaluator.Suggestion {
	suggestions := make([]evaluator.Suggestion, 0, len(stageFunctions))
	for _, fn := range stageFunctions {
		suggestions = append(suggestions, evaluator.Suggestion{
			Text:        fn.name,
			DisplayText: fn.name,
			Type:        "function",
			Description: fn.description,
			InsertText:  fn.name,
		})
	}
	return evaluator.Process(suggestions, typed, e.maxSuggestions)
}

func (e *Evaluator) memberSuggestions(document any, partial string) []evaluator.Suggestion {
	base := strings.TrimSuffix(partial, ".")
	if base == "" {
		base = "."
	}

	obj, ok := e.objectAt(document, base)
	if !ok {
		return nil
	}

	keys := sortedKeys(obj)
	suggestions := make([]evaluator.Suggestion, 0, len(keys))
	for _, key := range keys {
		suggestions = append(suggestions, evaluator.Suggestion{
			Text:        key,
			DisplayText: key,
			Type:        string(parser.ClassifyValue(obj[key])),
			Description: "Key",
			SampleValue: parser.SampleValue(obj[key]),
			InsertText:  partial + key,
		})
	}
	return evaluator.Process(suggestions, "", e.maxSuggestions)
}

func (e *Evaluator) partialKeySuggestions(document any, partial string) []evaluator.Suggestion {
	lastDot := strings.LastIndex(partial, ".")
	if lastDot < 0 {
		return nil
	}

	parent := partial[:lastDot]
	if parent == "" {
		parent = "."
	}
	typed := partial[lastDot+1:]

	obj, ok := e.objectAt(document, parent)
	if !ok {
		return nil
	}

	keys := sortedKeys(obj)
	suggestions := make([]evaluator.Suggestion, 0, len(keys))
	for _, key := range keys {
		suggestions = append(suggestions, evaluator.Suggestion{
			Text:        key,
			DisplayText: key,
			Type:        string(parser.ClassifyValue(obj[key])),
			Description: "Key",
			SampleValue: parser.SampleValue(obj[key]),
			InsertText:  parent + "." + key,
		})
	}
	return evaluator.Process(suggestions, typed, e.maxSuggestions)
}

func (e *Evaluator) objectAt(document any, expr string) (map[string]any, bool) {
	results, err := e.evaluateSingle(document, expr)
	if err != nil {
		logger.Logger.Debugw("suggestion sub-path evaluation failed", "expr", expr, "error", err)
		return nil, false
	}
	if len(results) == 0 {
		return nil, false
	}
	obj, ok := results[0].(map[string]any)
	return obj, ok
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
