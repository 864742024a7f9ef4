package parser

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// XMLParser decodes XML documents into the generic tree model and renders
// slash-separated paths.
//
// Decoding rules: an element becomes a mapping of child-element name to
// value, repeated sibling elements collapse into a sequence, attributes
// become "@name" members, and character data becomes either the element's
// scalar value (leaf elements) or a "#text" member (mixed content).
type XMLParser struct{}

func (p *XMLParser) Kind() Kind { return KindXML }

func (p *XMLParser) Parse(content string) (any, error) {
	dec := xml.NewDecoder(strings.NewReader(content))

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, fmt.Errorf("%w: invalid XML: no root element", ErrParser)
		}
		if err != nil {
			return nil, fmt.Errorf("%w: invalid XML: %v", ErrParser, err)
		}

		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		value, err := decodeElement(dec, start)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid XML: %v", ErrParser, err)
		}

		// Ensure no second root element follows.
		if err := expectEOF(dec); err != nil {
			return nil, fmt.Errorf("%w: invalid XML: %v", ErrParser, err)
		}

		return map[string]any{start.Name.Local: value}, nil
	}
}

func (p *XMLParser) RootSelector() string { return "/" }

func (p *XMLParser) PropertyPath(base, key string) string {
	if base == p.RootSelector() {
		return "/" + key
	}
	return base + "/" + key
}

func (p *XMLParser) ArrayPath(base, indexExpr string) string {
	return base + "[" + indexExpr + "]"
}

// decodeElement consumes tokens until start's matching end element.
func decodeElement(dec *xml.Decoder, start xml.StartElement) (any, error) {
	children := make(map[string]any)
	var text strings.Builder

	for _, attr := range start.Attr {
		children["@"+attr.Name.Local] = attr.Value
	}

	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			child, err := decodeElement(dec, t)
			if err != nil {
				return nil, err
			}
			appendChild(children, t.Name.Local, child)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			content := strings.TrimSpace(text.String())
			if len(children) == 0 {
				if content == "" {
					return nil, nil
				}
				return content, nil
			}
			if content != "" {
				children["#text"] = content
			}
			return children, nil
		}
	}
}

// appendChild stores a child element, collapsing repeated siblings into a
// sequence.
func appendChild(children map[string]any, name string, value any) {
	existing, ok := children[name]
	if !ok {
		children[name] = value
		return
	}
	if seq, ok := existing.([]any); ok {
		children[name] = append(seq, value)
		return
	}
	children[name] = []any{existing, value}
}

func expectEOF(dec *xml.Decoder) error {
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if _, ok := tok.(xml.StartElement); ok {
			return fmt.Errorf("multiple root elements")
		}
	}
}
