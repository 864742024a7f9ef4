// Package jsonpath implements the JSONPath query evaluator with a
// context-classifying suggestion state machine and fuzzy name matching.
package jsonpath

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jacoelho/pathq/internal/evaluator"
)

// ErrSyntax is the sentinel error for JSONPath syntax failures.
var ErrSyntax = errors.New("invalid jsonpath")

// Language is the registry key for this evaluator.
const Language = "jsonpath"

// Evaluator evaluates JSONPath queries and produces contextual
// suggestions. The selection engine is chosen at construction time:
// the external engine by default, the in-house fallback walker on
// request.
type Evaluator struct {
	sel            selector
	history        HistorySource
	maxSuggestions int
	pipesEnabled   bool
	filtersEnabled bool
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithFallbackEngine selects the in-house walker instead of the external
// JSONPath engine. The walker supports only literal keys, [n] and [*].
func WithFallbackEngine() Option {
	return func(e *Evaluator) { e.sel = fallbackSelector{} }
}

// WithHistorySource wires the external data-history suggestion source
// consulted by compare() expressions.
func WithHistorySource(h HistorySource) Option {
	return func(e *Evaluator) { e.history = h }
}

// WithMaxSuggestions bounds suggestion lists.
func WithMaxSuggestions(n int) Option {
	return func(e *Evaluator) {
		if n > 0 {
			e.maxSuggestions = n
		}
	}
}

// WithoutPipeFunctions disables pipe-function name suggestions.
func WithoutPipeFunctions() Option {
	return func(e *Evaluator) { e.pipesEnabled = false }
}

// WithoutFilters disables filter template suggestions.
func WithoutFilters() Option {
	return func(e *Evaluator) { e.filtersEnabled = false }
}

// New creates a JSONPath evaluator backed by the external engine unless
// configured otherwise.
func New(opts ...Option) *Evaluator {
	e := &Evaluator{
		sel:            externalSelector{},
		maxSuggestions: evaluator.DefaultMaxSuggestions,
		pipesEnabled:   true,
		filtersEnabled: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Evaluator) Language() string { return Language }

func (e *Evaluator) SupportsUnion() bool { return true }

func (e *Evaluator) Features() []string {
	features := []string{"union", "fuzzy-matching"}
	if _, ok := e.sel.(externalSelector); ok {
		features = append(features, "filters", "slices", "recursive-descent")
	}
	if e.pipesEnabled {
		features = append(features, "pipe-functions")
	}
	if e.filtersEnabled {
		features = append(features, "filter-suggestions")
	}
	return features
}

// Evaluate runs a finished query against the document. Comma-separated
// union queries are split, evaluated independently and combined; the
// first failing sub-expression short-circuits the union.
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
	results, err := e.sel.Select(document, expr)
	if err != nil {
		return nil, evaluator.WrapError(Language, err)
	}
	return results, nil
}

// parseQuery is the custom validating parser. It deliberately rejects
// recursive descent, which only the external engine can evaluate.
func (e *Evaluator) parseQuery(query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return fmt.Errorf("%w: empty query", ErrSyntax)
	}
	if !strings.HasPrefix(query, "$") {
		return fmt.Errorf("%w: query must start with $", ErrSyntax)
	}
	if strings.Contains(query, "..") {
		return fmt.Errorf("%w: recursive descent (..) is not supported", ErrSyntax)
	}
	return nil
}

// ValidateQuery reports query validity without returning an error. Union
// queries are valid when every sub-expression is.
func (e *Evaluator) ValidateQuery(query string) evaluator.ValidationResult {
	expressions := evaluator.SplitUnion(query)
	if len(expressions) == 0 {
		return evaluator.ValidationResult{Valid: false, Error: "empty query"}
	}
	for _, expr := range expressions {
		if err := e.parseQuery(expr); err != nil {
			return evaluator.ValidationResult{Valid: false, Error: err.Error()}
		}
	}
	return evaluator.ValidationResult{Valid: true}
}
