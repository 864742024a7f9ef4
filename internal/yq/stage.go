package yq

import (
	"fmt"
	"strconv"
	"strings"
)

type opKind int

const (
	opIdentity opKind = iota
	opKey
	opIndex
	opSlice
	opIterate
	opKeys
	opValues
	opLength
)

type op struct {
	kind     opKind
	key      string
	index    int
	start    int
	end      int
	hasStart bool
	hasEnd   bool
	iterate  bool // keys[] / values[] variants
}

// parseExpression splits an expression into pipe-separated stages and
// parses each stage into its operation sequence.
func parseExpression(expr string) ([][]op, error) {
	if strings.Contains(expr, "..") {
		return nil, fmt.Errorf("%w: recursive descent (..) is not supported", ErrSyntax)
	}

	parts := strings.Split(expr, "|")
	stages := make([][]op, 0, len(parts))
	for _, part := range parts {
		stage := strings.TrimSpace(part)
		if stage == "" {
			return nil, fmt.Errorf("%w: empty stage", ErrSyntax)
		}
		ops, err := parseStage(stage)
		if err != nil {
			return nil, err
		}
		stages = append(stages, ops)
	}
	return stages, nil
}

func parseStage(stage string) ([]op, error) {
	switch stage {
	case ".":
		return []op{{kind: opIdentity}}, nil
	case "keys":
		return []op{{kind: opKeys}}, nil
	case "keys[]":
		return []op{{kind: opKeys, iterate: true}}, nil
	case "values":
		return []op{{kind: opValues}}, nil
	case "values[]":
		return []op{{kind: opValues, iterate: true}}, nil
	case "length":
		return []op{{kind: opLength}}, nil
	}

	var ops []op
	pos := 0
	for pos < len(stage) {
		switch stage[pos] {
		case '.':
			pos++
			start := pos
			for pos < len(stage) && isKeyChar(stage[pos]) {
				pos++
			}
			if pos == start {
				// A bare dot before a bracket selects the current
				// value; anything else is malformed.
				if pos < len(stage) && stage[pos] == '[' {
					continue
				}
				return nil, fmt.Errorf("%w: expected key name at position %d", ErrSyntax, pos)
			}
			ops = append(ops, op{kind: opKey, key: stage[start:pos]})
		case '[':
			close := strings.IndexByte(stage[pos:], ']')
			if close < 0 {
				return nil, fmt.Errorf("%w: unterminated bracket at position %d", ErrSyntax, pos)
			}
			bracketOp, err := parseBracket(strings.TrimSpace(stage[pos+1 : pos+close]))
			if err != nil {
				return nil, err
			}
			ops = append(ops, bracketOp)
			pos += close + 1
		default:
			return nil, fmt.Errorf("%w: unexpected character %q at position %d", ErrSyntax, stage[pos], pos)
		}
	}

	if len(ops) == 0 {
		return nil, fmt.Errorf("%w: empty stage", ErrSyntax)
	}
	return ops, nil
}

func parseBracket(inner string) (op, error) {
	if inner == "" {
		return op{kind: opIterate}, nil
	}

	if strings.Contains(inner, ":") {
		parts := strings.SplitN(inner, ":", 2)
		sliceOp := op{kind: opSlice}
		if s := strings.TrimSpace(parts[0]); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil {
				return op{}, fmt.Errorf("%w: invalid slice bound %q", ErrSyntax, s)
			}
			sliceOp.start = n
			sliceOp.hasStart = true
		}
		if s := strings.TrimSpace(parts[1]); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil {
				return op{}, fmt.Errorf("%w: invalid slice bound %q", ErrSyntax, s)
			}
			sliceOp.end = n
			sliceOp.hasEnd = true
		}
		return sliceOp, nil
	}

	n, err := strconv.Atoi(inner)
	if err != nil {
		return op{}, fmt.Errorf("%w: invalid index %q", ErrSyntax, inner)
	}
	return op{kind: opIndex, index: n}, nil
}

func isKeyChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' ||
		c >= '0' && c <= '9' || c == '_' || c == '-'
}

// applyStage maps the current result set through a stage's operations.
// Iteration ([], keys[], values[]) widens the set; navigation after an
// iterate op therefore broadcasts over the produced elements.
func applyStage(results []any, ops []op) ([]any, error) {
	current := results
	for _, o := range ops {
		var next []any
		for _, value := range current {
			produced, err := o.apply(value)
			if err != nil {
				return nil, err
			}
			next = append(next, produced...)
		}
		current = next
	}
	return current, nil
}

func (o op) apply(value any) ([]any, error) {
	switch o.kind {
	case opIdentity:
		return []any{value}, nil

	case opKey:
		if value == nil {
			return []any{nil}, nil
		}
		m, ok := value.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: cannot index %T with key %q", ErrSyntax, value, o.key)
		}
		return []any{m[o.key]}, nil

	case opIndex:
		arr, ok := value.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: cannot index %T with number", ErrSyntax, value)
		}
		idx := o.index
		if idx < 0 {
			idx += len(arr)
		}
		if idx < 0 || idx >= len(arr) {
			return []any{nil}, nil
		}
		return []any{arr[idx]}, nil

	case opSlice:
		arr, ok := value.([]any)
		if !ok {
			return nil, fmt.Errorf("%w: cannot slice %T", ErrSyntax, value)
		}
		start, end := 0, len(arr)
		if o.hasStart {
			start = wrapIndex(o.start, len(arr))
		}
		if o.hasEnd {
			end = wrapIndex(o.end, len(arr))
		}
		if start > end {
			start = end
		}
		return []any{append([]any(nil), arr[start:end]...)}, nil

	case opIterate:
		switch v := value.(type) {
		case []any:
			return v, nil
		case map[string]any:
			values := make([]any, 0, len(v))
			for _, key := range sortedKeys(v) {
				values = append(values, v[key])
			}
			return values, nil
		default:
			return nil, fmt.Errorf("%w: cannot iterate over %T", ErrSyntax, value)
		}

	case opKeys:
		keys, err := keysOf(value)
		if err != nil {
			return nil, err
		}
		if o.iterate {
			return keys, nil
		}
		return []any{keys}, nil

	case opValues:
		values, err := valuesOf(value)
		if err != nil {
			return nil, err
		}
		if o.iterate {
			return values, nil
		}
		return []any{values}, nil

	case opLength:
		switch v := value.(type) {
		case nil:
			return []any{0}, nil
		case string:
			return []any{len(v)}, nil
		case []any:
			return []any{len(v)}, nil
		case map[string]any:
			return []any{len(v)}, nil
		default:
			return nil, fmt.Errorf("%w: cannot take length of %T", ErrSyntax, value)
		}
	}

	return nil, fmt.Errorf("%w: unknown operation", ErrSyntax)
}

func keysOf(value any) ([]any, error) {
	switch v := value.(type) {
	case map[string]any:
		keys := make([]any, 0, len(v))
		for _, key := range sortedKeys(v) {
			keys = append(keys, key)
		}
		return keys, nil
	case []any:
		keys := make([]any, 0, len(v))
		for i := range v {
			keys = append(keys, i)
		}
		return keys, nil
	default:
		return nil, fmt.Errorf("%w: %T has no keys", ErrSyntax, value)
	}
}

func valuesOf(value any) ([]any, error) {
	switch v := value.(type) {
	case map[string]any:
		values := make([]any, 0, len(v))
		for _, key := range sortedKeys(v) {
			values = append(values, v[key])
		}
		return values, nil
	case []any:
		return v, nil
	default:
		return nil, fmt.Errorf("%w: %T has no values", ErrSyntax, value)
	}
}

// wrapIndex clamps a possibly negative slice bound into [0, length].
func wrapIndex(i, length int) int {
	if i < 0 {
		i += length
	}
	if i < 0 {
		return 0
	}
	if i > length {
		return length
	}
	return i
}
