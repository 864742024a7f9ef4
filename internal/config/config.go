// Package config parses command-line arguments for the pathq tool.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/jacoelho/pathq/internal/exit"
)

// Defaults for tunable flags.
const (
	DefaultDocumentType  = "json"
	DefaultQueryLanguage = "jsonpath"
	DefaultCacheSize     = 10
	DefaultMaxDepth      = 5
	DefaultLimit         = 10
	DefaultDebounce      = time.Second
)

var (
	ErrNoArguments  = errors.New("no arguments provided")
	ErrNoDocument   = errors.New("no document file specified")
	ErrManyModes    = errors.New("at most one of -suggest, -validate may be set")
	ErrQueryMissing = errors.New("-validate requires -query")
)

// Config is the complete configuration for the pathq tool.
type Config struct {
	// Document and query language selection
	DocumentFile  string // "-" reads standard input
	DocumentType  string
	QueryLanguage string

	// Operation
	Query    string
	Cursor   int // negative means end of input
	Suggest  bool
	Validate bool

	// Engine tuning
	MaxDepth  int
	CacheSize int
	Limit     int
	Debounce  time.Duration
	Fallback  bool

	// Output
	Debug      bool
	JSONOutput bool
}

// validate checks the configuration for inconsistencies.
func (c *Config) validate() error {
	if c.Suggest && c.Validate {
		return ErrManyModes
	}
	if c.Validate && strings.TrimSpace(c.Query) == "" {
		return ErrQueryMissing
	}
	if c.DocumentFile != "-" {
		if _, err := os.Stat(c.DocumentFile); err != nil {
			return fmt.Errorf("document file %s not found: %w", c.DocumentFile, err)
		}
	}
	return nil
}

// Parse parses command-line arguments and returns a validated Config.
// If parsing fails or help is requested, returns nil config and an exit
// result.
func Parse(args []string) (*Config, *exit.Result) {
	if len(args) == 0 {
		return nil, exit.Errorf("Error: %v\n\n%s", ErrNoArguments, Usage())
	}

	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)

	// Suppress the default usage and error output since we handle both
	// ourselves.
	fs.Usage = func() {}
	fs.SetOutput(io.Discard)

	var (
		documentType  = fs.String("type", DefaultDocumentType, "Document type: json, yaml or xml")
		queryLanguage = fs.String("lang", DefaultQueryLanguage, "Query language: jsonpath or yq")
		query         = fs.String("query", "", "Query to execute, validate or complete")
		cursor        = fs.Int("cursor", -1, "Cursor position inside the query (negative for end of input)")
		suggest       = fs.Bool("suggest", false, "Produce suggestions for the query instead of executing it")
		validate      = fs.Bool("validate", false, "Check query syntax instead of executing it")
		maxDepth      = fs.Int("max-depth", DefaultMaxDepth, "Maximum path extraction depth")
		cacheSize     = fs.Int("cache-size", DefaultCacheSize, "Parsed document cache capacity")
		limit         = fs.Int("limit", DefaultLimit, "Maximum number of suggestions")
		debounce      = fs.Duration("debounce", DefaultDebounce, "Minimum interval between interactive suggestion rounds")
		fallback      = fs.Bool("fallback-engine", false, "Use the built-in JSONPath walker instead of the external engine")
		debug         = fs.Bool("debug", false, "Enable debug logging")
		jsonOutput    = fs.Bool("json", false, "Emit results as JSON")
	)

	if err := fs.Parse(args[1:]); err != nil {
		if err == flag.ErrHelp {
			return nil, exit.Success(Usage())
		}
		return nil, exit.Usage(fmt.Sprintf("Error: failed to parse arguments: %v\n\n%s", err, Usage()))
	}

	files := fs.Args()
	if len(files) == 0 {
		return nil, exit.Errorf("Error: %v\n\n%s", ErrNoDocument, Usage())
	}
	if len(files) > 1 {
		return nil, exit.Errorf("Error: expected a single document file, got %d\n\n%s", len(files), Usage())
	}

	config := &Config{
		DocumentFile:  files[0],
		DocumentType:  strings.ToLower(*documentType),
		QueryLanguage: strings.ToLower(*queryLanguage),
		Query:         *query,
		Cursor:        *cursor,
		Suggest:       *suggest,
		Validate:      *validate,
		MaxDepth:      *maxDepth,
		CacheSize:     *cacheSize,
		Limit:         *limit,
		Debounce:      *debounce,
		Fallback:      *fallback,
		Debug:         *debug,
		JSONOutput:    *jsonOutput,
	}

	if err := config.validate(); err != nil {
		return nil, exit.Errorf("Error: %v\n\n%s", err, Usage())
	}

	return config, nil
}

// Usage returns a usage string for the CLI tool.
func Usage() string {
	return `pathq - path query execution and suggestion tool

Usage: pathq [options] <document>

The document argument is a file path, or "-" to read standard input.
Without -suggest or -validate the query is executed against the
document. An empty -query with -suggest enters an interactive loop
reading partial queries from standard input.

Options:
  --type TYPE           Document type: json, yaml or xml (default: json)
  --lang LANG           Query language: jsonpath or yq (default: jsonpath)
  --query QUERY         Query to execute, validate or complete
  --cursor N            Cursor position inside the query (negative for end of input)
  --suggest             Produce suggestions instead of executing
  --validate            Check query syntax instead of executing
  --max-depth N         Maximum path extraction depth (default: 5)
  --cache-size N        Parsed document cache capacity (default: 10)
  --limit N             Maximum number of suggestions (default: 10)
  --debounce DURATION   Minimum interval between interactive rounds (default: 1s)
  --fallback-engine     Use the built-in JSONPath walker
  --debug               Enable debug logging
  --json                Emit results as JSON
  -h, --help            Show this help message

Examples:
  pathq --query '$.store.book[0].title' data.json
  pathq --lang yq --query '.store.book[-1].title' data.yaml --type yaml
  pathq --suggest --query '$.store.b' data.json
  pathq --validate --query '$.a, $.b' data.json
  cat data.json | pathq --suggest -`
}
