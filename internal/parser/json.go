package parser

import (
	"encoding/json"
	"fmt"
)

// JSONParser decodes JSON documents and renders JSONPath-style paths.
type JSONParser struct{}

func (p *JSONParser) Kind() Kind { return KindJSON }

func (p *JSONParser) Parse(content string) (any, error) {
	var document any
	if err := json.Unmarshal([]byte(content), &document); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", ErrParser, err)
	}
	return document, nil
}

func (p *JSONParser) RootSelector() string { return "$" }

func (p *JSONParser) PropertyPath(base, key string) string {
	if isIdentifier(key) {
		return base + "." + key
	}
	return base + "['" + key + "']"
}

func (p *JSONParser) ArrayPath(base, indexExpr string) string {
	return base + "[" + indexExpr + "]"
}

// isIdentifier reports whether key can appear after a dot without bracket
// quoting.
func isIdentifier(key string) bool {
	if key == "" {
		return false
	}
	for i, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
