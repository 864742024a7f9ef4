package parser

import (
	"fmt"

	yaml "github.com/goccy/go-yaml"
)

// YAMLParser decodes YAML documents and renders yq-style dotted paths.
type YAMLParser struct{}

func (p *YAMLParser) Kind() Kind { return KindYAML }

func (p *YAMLParser) Parse(content string) (any, error) {
	var document any
	if err := yaml.Unmarshal([]byte(content), &document); err != nil {
		return nil, fmt.Errorf("%w: invalid YAML: %v", ErrParser, err)
	}
	return normalizeYAML(document), nil
}

func (p *YAMLParser) RootSelector() string { return "." }

func (p *YAMLParser) PropertyPath(base, key string) string {
	if base == p.RootSelector() {
		return "." + key
	}
	return base + "." + key
}

func (p *YAMLParser) ArrayPath(base, indexExpr string) string {
	if base == p.RootSelector() {
		return ".[" + indexExpr + "]"
	}
	return base + "[" + indexExpr + "]"
}

// normalizeYAML coerces decoded YAML containers into the generic tree
// model shared with the other parsers. goccy/go-yaml already decodes
// mappings as map[string]any; non-string keys are stringified.
func normalizeYAML(value any) any {
	switch v := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[key] = normalizeYAML(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(v))
		for key, item := range v {
			out[fmt.Sprintf("%v", key)] = normalizeYAML(item)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = normalizeYAML(item)
		}
		return out
	default:
		return value
	}
}
