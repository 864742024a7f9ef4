package jsonpath

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/theory/jsonpath"
)

// selector is the strategy interface for JSONPath selection.
type selector interface {
	Select(document any, expr string) ([]any, error)
}

// externalSelector defers to the external JSONPath engine, which covers
// the full grammar (filters, slices, recursive descent).
type externalSelector struct{}

func (externalSelector) Select(document any, expr string) ([]any, error) {
	path, err := jsonpath.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSyntax, err)
	}

	nodes := path.Select(document)
	results := make([]any, 0, len(nodes))
	for _, node := range nodes {
		results = append(results, node)
	}
	return results, nil
}

// fallbackSelector is the minimal in-house walker: literal keys, [n] and
// [*] only. No filters, slices or recursive descent - an explicit
// capability gap, not a bug.
type fallbackSelector struct{}

type segmentKind int

const (
	segmentKey segmentKind = iota
	segmentIndex
	segmentWildcard
)

type segment struct {
	kind  segmentKind
	key   string
	index int
}

func (fallbackSelector) Select(document any, expr string) ([]any, error) {
	segments, err := parseFallback(expr)
	if err != nil {
		return nil, err
	}

	current := []any{document}
	for _, seg := range segments {
		var next []any
		for _, value := range current {
			next = append(next, seg.apply(value)...)
		}
		current = next
	}
	return current, nil
}

func (s segment) apply(value any) []any {
	switch s.kind {
	case segmentKey:
		if m, ok := value.(map[string]any); ok {
			if child, exists := m[s.key]; exists {
				return []any{child}
			}
		}
	case segmentIndex:
		if arr, ok := value.([]any); ok && s.index >= 0 && s.index < len(arr) {
			return []any{arr[s.index]}
		}
	case segmentWildcard:
		switch v := value.(type) {
		case []any:
			return v
		case map[string]any:
			keys := make([]string, 0, len(v))
			for k := range v {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			values := make([]any, 0, len(v))
			for _, k := range keys {
				values = append(values, v[k])
			}
			return values
		}
	}
	return nil
}

func parseFallback(expr string) ([]segment, error) {
	if !strings.HasPrefix(expr, "$") {
		return nil, fmt.Errorf("%w: query must start with $", ErrSyntax)
	}

	var segments []segment
	i := 1
	for i < len(expr) {
		switch expr[i] {
		case '.':
			if i+1 < len(expr) && expr[i+1] == '.' {
				return nil, fmt.Errorf("%w: recursive descent (..) is not supported", ErrSyntax)
			}
			start := i + 1
			end := start
			for end < len(expr) && expr[end] != '.' && expr[end] != '[' {
				end++
			}
			if end == start {
				return nil, fmt.Errorf("%w: empty property name at position %d", ErrSyntax, i)
			}
			if expr[start:end] == "*" {
				segments = append(segments, segment{kind: segmentWildcard})
			} else {
				segments = append(segments, segment{kind: segmentKey, key: expr[start:end]})
			}
			i = end
		case '[':
			close := strings.IndexByte(expr[i:], ']')
			if close < 0 {
				return nil, fmt.Errorf("%w: unterminated bracket at position %d", ErrSyntax, i)
			}
			inner := strings.TrimSpace(expr[i+1 : i+close])
			seg, err := parseBracket(inner)
			if err != nil {
				return nil, err
			}
			segments = append(segments, seg)
			i += close + 1
		default:
			return nil, fmt.Errorf("%w: unexpected character %q at position %d", ErrSyntax, expr[i], i)
		}
	}
	return segments, nil
}

func parseBracket(inner string) (segment, error) {
	switch {
	case inner == "*":
		return segment{kind: segmentWildcard}, nil
	case len(inner) >= 2 && (inner[0] == '\'' || inner[0] == '"') && inner[len(inner)-1] == inner[0]:
		return segment{kind: segmentKey, key: inner[1 : len(inner)-1]}, nil
	default:
		n, err := strconv.Atoi(inner)
		if err != nil || n < 0 {
			return segment{}, fmt.Errorf("%w: unsupported bracket expression [%s]", ErrSyntax, inner)
		}
		return segment{kind: segmentIndex, index: n}, nil
	}
}
