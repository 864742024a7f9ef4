// Package evaluator defines the query-evaluator contract shared by all
// query languages, together with the union-query helpers and the
// suggestion ranking pipeline.
package evaluator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jacoelho/pathq/internal/parser"
)

// ErrEvaluate is the sentinel error for query evaluation failures.
var ErrEvaluate = errors.New("evaluation error")

// ErrUnsupportedLanguage indicates an unknown query language at
// construction time.
var ErrUnsupportedLanguage = errors.New("unsupported query language")

// Context describes which comma-delimited sub-expression the cursor
// currently occupies inside a union query.
type Context struct {
	FullQuery         string
	CurrentExpression string
	CursorPosition    int
	ExpressionStart   int
	ExpressionEnd     int
	BeforeExpression  string
	AfterExpression   string

	// Tool routes the external data-history suggestion source.
	Tool string
}

// ValidationResult reports a non-throwing query syntax check.
type ValidationResult struct {
	Valid bool
	Error string
}

// Evaluator evaluates query strings against a parsed document and
// produces contextual suggestions. Implementations must not mutate the
// document.
type Evaluator interface {
	Language() string

	// Evaluate runs a finished query and returns its result set.
	// Implementations reporting SupportsUnion() accept comma-separated
	// union queries.
	Evaluate(document any, query string) ([]any, error)

	// Suggest produces completions for a partial query. The context is
	// threaded to suggestion sources that may perform I/O.
	Suggest(ctx context.Context, document any, partial string, qctx Context, paths []parser.PathDescriptor) ([]Suggestion, error)

	// ValidateQuery never returns an error; failures are reported
	// structurally.
	ValidateQuery(query string) ValidationResult

	SupportsUnion() bool
	Features() []string
}

// WrapError decorates an evaluation failure with the language name.
func WrapError(language string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrEvaluate, language, err)
}

// SplitUnion splits a union query on every top-level comma, trimming
// whitespace and dropping empty expressions.
//
// The split does not track bracket or quote nesting, so a comma inside a
// filter or function argument is mis-split. This behavior is kept for
// compatibility with existing queries.
func SplitUnion(query string) []string {
	parts := strings.Split(query, ",")
	expressions := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			expressions = append(expressions, trimmed)
		}
	}
	return expressions
}

// CombineUnionResults flattens result sets and deduplicates by structural
// identity, preserving first-seen order. Containers compare by canonical
// serialization, scalars by value.
func CombineUnionResults(resultSets [][]any) []any {
	var combined []any
	seen := make(map[string]struct{})

	for _, set := range resultSets {
		for _, result := range set {
			key := identityKey(result)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			combined = append(combined, result)
		}
	}

	return combined
}

func identityKey(value any) string {
	switch value.(type) {
	case map[string]any, []any:
		return "c:" + canonicalJSON(value)
	default:
		return fmt.Sprintf("s:%T:%v", value, value)
	}
}
