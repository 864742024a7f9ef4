// Package parser provides document parsing into the generic tree model and
// extraction of the queryable path catalog.
package parser

import (
	"errors"
	"fmt"
	"strings"
)

// ErrParser is the sentinel error for all parser-related failures.
// It allows error wrapping and consistent error checks using errors.Is().
var ErrParser = errors.New("parser error")

// ErrUnsupportedType indicates an unknown document type at construction time.
var ErrUnsupportedType = errors.New("unsupported document type")

// Kind identifies a supported document format.
type Kind string

const (
	KindJSON Kind = "json"
	KindYAML Kind = "yaml"
	KindXML  Kind = "xml"
)

// PathType classifies the value a path points at.
type PathType string

const (
	PathNull    PathType = "null"
	PathObject  PathType = "object"
	PathArray   PathType = "array"
	PathString  PathType = "string"
	PathNumber  PathType = "number"
	PathBoolean PathType = "boolean"
)

// PathDescriptor describes one queryable location in a parsed document.
type PathDescriptor struct {
	Path        string
	Type        PathType
	Depth       int
	HasChildren bool
	SampleValue string
}

// ValidationResult reports the outcome of a non-throwing parse check.
type ValidationResult struct {
	Valid  bool
	Errors []string
}

// Parser parses raw document text into the generic tree model
// (nested map[string]any, []any and scalars) and renders the
// format-specific path syntax used by the shared traversal.
type Parser interface {
	Kind() Kind

	// Parse decodes content. Failures wrap ErrParser.
	Parse(content string) (any, error)

	// RootSelector is the path string addressing the whole document.
	RootSelector() string

	// PropertyPath renders the path to a mapping member.
	PropertyPath(base, key string) string

	// ArrayPath renders the path to a sequence element; indexExpr is a
	// literal index or a wildcard marker such as "*".
	ArrayPath(base, indexExpr string) string
}

// New resolves a parser for the given document type.
// The type string is matched case-insensitively; unknown types fail
// with ErrUnsupportedType.
func New(documentType string) (Parser, error) {
	switch Kind(strings.ToLower(documentType)) {
	case KindJSON:
		return &JSONParser{}, nil
	case KindYAML:
		return &YAMLParser{}, nil
	case KindXML:
		return &XMLParser{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, documentType)
	}
}

// Validate attempts a parse and reports the outcome without returning an error.
func Validate(p Parser, content string) ValidationResult {
	if _, err := p.Parse(content); err != nil {
		return ValidationResult{Valid: false, Errors: []string{err.Error()}}
	}
	return ValidationResult{Valid: true}
}
