// Package pipefn is the pipe-function registry: pure post-processing
// transforms applied to a query's result set via "| name(...)" syntax.
// The query evaluators only propose these names; execution is the
// consuming tool's job.
package pipefn

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/jacoelho/pathq/internal/evaluator"
)

// ErrPipeline is the sentinel error for pipeline application failures.
var ErrPipeline = errors.New("pipeline error")

// Func is a pure transform over a result set.
type Func func(data []any, params ...string) ([]any, error)

var registry = map[string]Func{
	"list":    list,
	"uniq":    uniq,
	"count":   count,
	"flatten": flatten,
	"keys":    keys,
	"values":  values,
	"sort":    sortResults,
	"reverse": reverse,
	"first":   first,
	"last":    last,
	"limit":   limit,
	"select":  selectByKey,
}

// Lookup resolves a transform by lower-cased name.
func Lookup(name string) (Func, bool) {
	fn, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	return fn, ok
}

// Names returns the registered function names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyPipeline runs result data through a sequence of "name" or
// "name(arg, ...)" stages.
func ApplyPipeline(data []any, stages []string) ([]any, error) {
	for _, stage := range stages {
		name, params, err := parseStage(stage)
		if err != nil {
			return nil, err
		}
		fn, ok := Lookup(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown function %q", ErrPipeline, name)
		}
		data, err = fn(data, params...)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrPipeline, name, err)
		}
	}
	return data, nil
}

func parseStage(stage string) (string, []string, error) {
	stage = strings.TrimSpace(stage)
	if stage == "" {
		return "", nil, fmt.Errorf("%w: empty stage", ErrPipeline)
	}

	open := strings.IndexByte(stage, '(')
	if open < 0 {
		return stage, nil, nil
	}
	if !strings.HasSuffix(stage, ")") {
		return "", nil, fmt.Errorf("%w: unterminated arguments in %q", ErrPipeline, stage)
	}

	name := strings.TrimSpace(stage[:open])
	inner := strings.TrimSpace(stage[open+1 : len(stage)-1])
	if inner == "" {
		return name, nil, nil
	}

	parts := strings.Split(inner, ",")
	params := make([]string, 0, len(parts))
	for _, part := range parts {
		params = append(params, strings.Trim(strings.TrimSpace(part), "'\""))
	}
	return name, params, nil
}

func list(data []any, _ ...string) ([]any, error) {
	return data, nil
}

func uniq(data []any, _ ...string) ([]any, error) {
	return evaluator.CombineUnionResults([][]any{data}), nil
}

func count(data []any, _ ...string) ([]any, error) {
	return []any{len(data)}, nil
}

// flatten splices one level of nested arrays.
func flatten(data []any, _ ...string) ([]any, error) {
	var out []any
	for _, item := range data {
		if arr, ok := item.([]any); ok {
			out = append(out, arr...)
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func keys(data []any, _ ...string) ([]any, error) {
	var out []any
	for _, item := range data {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		names := make([]string, 0, len(m))
		for name := range m {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			out = append(out, name)
		}
	}
	return out, nil
}

func values(data []any, _ ...string) ([]any, error) {
	var out []any
	for _, item := range data {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		names := make([]string, 0, len(m))
		for name := range m {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			out = append(out, m[name])
		}
	}
	return out, nil
}

// sortResults orders scalars; containers keep their relative order at
// the end.
func sortResults(data []any, _ ...string) ([]any, error) {
	out := append([]any(nil), data...)
	sort.SliceStable(out, func(i, j int) bool {
		return sortKey(out[i]) < sortKey(out[j])
	})
	return out, nil
}

func sortKey(value any) string {
	switch v := value.(type) {
	case string:
		return "0" + v
	case float64:
		return fmt.Sprintf("1%020.6f", v)
	case int:
		return fmt.Sprintf("1%020.6f", float64(v))
	case int64:
		return fmt.Sprintf("1%020.6f", float64(v))
	case uint64:
		return fmt.Sprintf("1%020.6f", float64(v))
	case bool:
		return fmt.Sprintf("2%v", v)
	default:
		return fmt.Sprintf("3%v", v)
	}
}

func reverse(data []any, _ ...string) ([]any, error) {
	out := make([]any, len(data))
	for i, item := range data {
		out[len(data)-1-i] = item
	}
	return out, nil
}

func first(data []any, _ ...string) ([]any, error) {
	if len(data) == 0 {
		return nil, nil
	}
	return data[:1], nil
}

func last(data []any, _ ...string) ([]any, error) {
	if len(data) == 0 {
		return nil, nil
	}
	return data[len(data)-1:], nil
}

func limit(data []any, params ...string) ([]any, error) {
	if len(params) == 0 {
		return nil, errors.New("limit requires a count")
	}
	n, err := strconv.Atoi(params[0])
	if err != nil || n < 0 {
		return nil, fmt.Errorf("invalid count %q", params[0])
	}
	if n > len(data) {
		n = len(data)
	}
	return data[:n], nil
}

// selectByKey keeps mappings that carry a non-nil value for the key.
func selectByKey(data []any, params ...string) ([]any, error) {
	if len(params) == 0 {
		return nil, errors.New("select requires a key")
	}
	key := params[0]

	var out []any
	for _, item := range data {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if v, exists := m[key]; exists && v != nil {
			out = append(out, item)
		}
	}
	return out, nil
}
