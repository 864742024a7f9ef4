// Package engine orchestrates document parsing, caching and query
// suggestion: it resolves a parser/evaluator pair, owns the bounded
// document cache and splits union-query cursor context before
// delegating to the evaluator.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/jacoelho/pathq/internal/evaluator"
	"github.com/jacoelho/pathq/internal/jsonpath"
	"github.com/jacoelho/pathq/internal/logger"
	"github.com/jacoelho/pathq/internal/parser"
	"github.com/jacoelho/pathq/internal/ratelimit"
	"github.com/jacoelho/pathq/internal/yq"
)

// ErrNotInitialized indicates a query operation before a successful
// Initialize.
var ErrNotInitialized = errors.New("engine not initialized")

// Default option values.
const (
	DefaultMaxCacheSize = 10
	DefaultDebounce     = time.Second
)

// Options tunes engine behavior. Zero values select the defaults.
type Options struct {
	MaxCacheSize   int
	MaxDepth       int
	Debounce       time.Duration
	MaxSuggestions int

	// History is the external data-history suggestion source consulted
	// by jsonpath compare() expressions.
	History jsonpath.HistorySource

	// Tool tags suggestion contexts for the history source.
	Tool string

	// Fallback selects the in-house jsonpath walker over the external
	// engine.
	Fallback bool
}

func (o *Options) withDefaults() {
	if o.MaxCacheSize <= 0 {
		o.MaxCacheSize = DefaultMaxCacheSize
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = parser.DefaultMaxDepth
	}
	if o.Debounce <= 0 {
		o.Debounce = DefaultDebounce
	}
	if o.MaxSuggestions <= 0 {
		o.MaxSuggestions = evaluator.DefaultMaxSuggestions
	}
}

// Info describes the engine state for consumers.
type Info struct {
	EngineID            string
	DocumentType        string
	QueryLanguage       string
	IsInitialized       bool
	CacheSize           int
	AvailablePathsCount int
	SupportedFeatures   []string
}

// Engine is the suggestion engine for one (documentType, queryLanguage)
// pair. It is not safe for concurrent use; the cache and current
// document are mutated only by the calling goroutine.
type Engine struct {
	id            string
	documentType  string
	queryLanguage string
	opts          Options

	parser   parser.Parser
	eval     evaluator.Evaluator
	cache    *lru.Cache[int32, any]
	throttle *ratelimit.Limiter

	document    any
	paths       []parser.PathDescriptor
	initialized bool
}

// New resolves the parser and evaluator for the given kinds. Unknown
// kinds are a caller configuration error and fail immediately.
func New(documentType, queryLanguage string, opts Options) (*Engine, error) {
	opts.withDefaults()

	p, err := parser.New(documentType)
	if err != nil {
		return nil, err
	}

	eval, err := newEvaluator(queryLanguage, opts)
	if err != nil {
		return nil, err
	}

	cache, err := lru.New[int32, any](opts.MaxCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create document cache: %w", err)
	}

	return &Engine{
		id:            uuid.New().String(),
		documentType:  strings.ToLower(documentType),
		queryLanguage: strings.ToLower(queryLanguage),
		opts:          opts,
		parser:        p,
		eval:          eval,
		cache:         cache,
		throttle:      ratelimit.New(opts.Debounce),
	}, nil
}

// newEvaluator is the closed registry of query languages.
func newEvaluator(queryLanguage string, opts Options) (evaluator.Evaluator, error) {
	switch strings.ToLower(queryLanguage) {
	case jsonpath.Language:
		jpOpts := []jsonpath.Option{jsonpath.WithMaxSuggestions(opts.MaxSuggestions)}
		if opts.History != nil {
			jpOpts = append(jpOpts, jsonpath.WithHistorySource(opts.History))
		}
		if opts.Fallback {
			jpOpts = append(jpOpts, jsonpath.WithFallbackEngine())
		}
		return jsonpath.New(jpOpts...), nil
	case yq.Language:
		return yq.New(yq.WithMaxSuggestions(opts.MaxSuggestions)), nil
	default:
		return nil, fmt.Errorf("%w: %q", evaluator.ErrUnsupportedLanguage, queryLanguage)
	}
}

// Initialize parses content into the current document, reusing the
// cache when the same content was seen before, and recomputes the path
// catalog. Failures are logged and reported as a false return, never
// an error.
func (e *Engine) Initialize(content string) bool {
	key := cacheKey(e.documentType, e.queryLanguage, content)

	document, ok := e.cache.Get(key)
	if !ok {
		parsed, err := e.parser.Parse(content)
		if err != nil {
			logger.Logger.Errorw("document parse failed",
				"engine", e.id,
				"documentType", e.documentType,
				"error", err,
			)
			e.initialized = false
			return false
		}
		e.cache.Add(key, parsed)
		document = parsed
	}

	e.document = document
	e.paths = parser.ExtractPaths(e.parser, document, e.opts.MaxDepth)
	e.initialized = true

	logger.Logger.Debugw("document initialized",
		"engine", e.id,
		"documentType", e.documentType,
		"cacheHit", ok,
		"paths", len(e.paths),
	)
	return true
}

// GetSuggestions produces completions for the comma-delimited
// sub-expression under the cursor. A negative cursor means end of
// input. All failures yield an empty list; suggestions never crash an
// input field.
func (e *Engine) GetSuggestions(ctx context.Context, queryInput string, cursor int) []evaluator.Suggestion {
	if !e.initialized {
		return nil
	}

	qctx := parseQueryContext(queryInput, cursor)
	qctx.Tool = e.opts.Tool

	var (
		suggestions []evaluator.Suggestion
		err         error
	)
	if qctx.CurrentExpression == "" {
		suggestions = e.rootSuggestions(ctx)
	} else {
		suggestions, err = e.eval.Suggest(ctx, e.document, qctx.CurrentExpression, qctx, e.paths)
		if err != nil {
			logger.Logger.Warnw("suggestion generation failed",
				"engine", e.id,
				"expression", qctx.CurrentExpression,
				"error", err,
			)
			return nil
		}
	}

	// Stamp the replacement range so a caller can replace only the
	// active sub-expression.
	for i := range suggestions {
		suggestions[i].ReplaceStart = qctx.ExpressionStart
		suggestions[i].ReplaceEnd = qctx.ExpressionEnd
	}
	return suggestions
}

// GetRootSuggestions proposes entry points into the current document.
func (e *Engine) GetRootSuggestions(ctx context.Context) []evaluator.Suggestion {
	if !e.initialized {
		return nil
	}
	return e.rootSuggestions(ctx)
}

func (e *Engine) rootSuggestions(ctx context.Context) []evaluator.Suggestion {
	suggestions, err := e.eval.Suggest(ctx, e.document, "", evaluator.Context{Tool: e.opts.Tool}, e.paths)
	if err != nil {
		logger.Logger.Warnw("root suggestion generation failed", "engine", e.id, "error", err)
		return nil
	}
	return suggestions
}

// ExecuteQuery evaluates a finished query against the current document.
func (e *Engine) ExecuteQuery(query string) ([]any, error) {
	if !e.initialized {
		return nil, ErrNotInitialized
	}
	return e.eval.Evaluate(e.document, query)
}

// ValidateQuery reports query validity for the configured language.
func (e *Engine) ValidateQuery(query string) (evaluator.ValidationResult, error) {
	if !e.initialized {
		return evaluator.ValidationResult{}, ErrNotInitialized
	}
	return e.eval.ValidateQuery(query), nil
}

// Reset clears the cache and drops the current document.
func (e *Engine) Reset() {
	e.cache.Purge()
	e.document = nil
	e.paths = nil
	e.initialized = false
}

// Throttle is the caller-side invocation-rate hint configured from the
// debounce option. The engine itself never blocks on it.
func (e *Engine) Throttle() *ratelimit.Limiter {
	return e.throttle
}

// Info describes the engine for consumers.
func (e *Engine) Info() Info {
	return Info{
		EngineID:            e.id,
		DocumentType:        e.documentType,
		QueryLanguage:       e.queryLanguage,
		IsInitialized:       e.initialized,
		CacheSize:           e.cache.Len(),
		AvailablePathsCount: len(e.paths),
		SupportedFeatures:   e.eval.Features(),
	}
}

// Paths exposes the current path catalog.
func (e *Engine) Paths() []parser.PathDescriptor {
	return e.paths
}
