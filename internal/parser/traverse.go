package parser

import (
	"fmt"
	"sort"
)

// DefaultMaxDepth bounds path extraction when the caller passes no limit.
const DefaultMaxDepth = 5

const sampleStringLimit = 50

// ExtractPaths walks the document depth-first and returns the catalog of
// queryable paths, deduplicated by path string.
//
// Sequences are sampled, not enumerated: an index-0 path is emitted, a
// wildcard path when the sequence has more than one element, and recursion
// continues into element 0 only. Mappings recurse into every key. Traversal
// stops at nil values and at maxDepth.
func ExtractPaths(p Parser, document any, maxDepth int) []PathDescriptor {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	w := &pathWalker{
		parser:   p,
		maxDepth: maxDepth,
		seen:     make(map[string]struct{}),
	}
	w.walk(document, p.RootSelector(), 0)

	return w.paths
}

type pathWalker struct {
	parser   Parser
	maxDepth int
	seen     map[string]struct{}
	paths    []PathDescriptor
}

func (w *pathWalker) walk(value any, base string, depth int) {
	if value == nil || depth >= w.maxDepth {
		return
	}

	switch v := value.(type) {
	case map[string]any:
		for _, key := range sortedKeys(v) {
			childPath := w.parser.PropertyPath(base, key)
			w.emit(childPath, v[key], depth+1)
			w.walk(v[key], childPath, depth+1)
		}
	case []any:
		if len(v) == 0 {
			return
		}
		firstPath := w.parser.ArrayPath(base, "0")
		w.emit(firstPath, v[0], depth+1)
		if len(v) > 1 {
			w.emit(w.parser.ArrayPath(base, "*"), v[0], depth+1)
		}
		// Representative-element sampling: element 0 stands in for all.
		w.walk(v[0], firstPath, depth+1)
	}
}

func (w *pathWalker) emit(path string, value any, depth int) {
	if _, ok := w.seen[path]; ok {
		return
	}
	w.seen[path] = struct{}{}

	w.paths = append(w.paths, PathDescriptor{
		Path:        path,
		Type:        ClassifyValue(value),
		Depth:       depth,
		HasChildren: hasChildren(value),
		SampleValue: SampleValue(value),
	})
}

// ClassifyValue maps a decoded value to its path type.
func ClassifyValue(value any) PathType {
	switch value.(type) {
	case nil:
		return PathNull
	case map[string]any:
		return PathObject
	case []any:
		return PathArray
	case string:
		return PathString
	case bool:
		return PathBoolean
	case int, int64, uint64, float64:
		return PathNumber
	default:
		return PathString
	}
}

// SampleValue renders a short human-readable preview of a value.
// It is used purely for suggestion descriptions, never for evaluation.
func SampleValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		if len(v) > sampleStringLimit {
			return v[:sampleStringLimit] + "..."
		}
		return v
	case []any:
		return fmt.Sprintf("Array(%d)", len(v))
	case map[string]any:
		return fmt.Sprintf("Object(%d keys)", len(v))
	default:
		return fmt.Sprintf("%v", v)
	}
}

func hasChildren(value any) bool {
	switch v := value.(type) {
	case map[string]any:
		return len(v) > 0
	case []any:
		return len(v) > 0
	default:
		return false
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
