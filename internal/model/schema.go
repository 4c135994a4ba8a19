package model

import (
	"bytes"
	"encoding/json"
)

// SchemaType is the top-level schema.org vocabulary type of a generated
// markup document.
type SchemaType string

const (
	SchemaArticle SchemaType = "Article"
	SchemaFAQPage SchemaType = "FAQPage"
	SchemaHowTo   SchemaType = "HowTo"
)

// SchemaDocument is a structured markup object graph. Properties keep
// insertion order so that serialization is byte-identical across runs.
// A property value may be a string, a list, or a nested *SchemaDocument.
type SchemaDocument struct {
	Type  SchemaType
	props []schemaProp
}

type schemaProp struct {
	key   string
	value any
}

// NewSchemaDocument creates an empty document of the given type.
func NewSchemaDocument(t SchemaType) *SchemaDocument {
	return &SchemaDocument{Type: t}
}

// Set appends a property, replacing an earlier value under the same key
// without disturbing its position.
func (d *SchemaDocument) Set(key string, value any) {
	for i := range d.props {
		if d.props[i].key == key {
			d.props[i].value = value
			return
		}
	}
	d.props = append(d.props, schemaProp{key: key, value: value})
}

// Get returns the value for key, or nil when absent.
func (d *SchemaDocument) Get(key string) any {
	for _, p := range d.props {
		if p.key == key {
			return p.value
		}
	}
	return nil
}

// Has reports whether key is present with a non-empty value.
func (d *SchemaDocument) Has(key string) bool {
	v := d.Get(key)
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case []*SchemaDocument:
		return len(t) > 0
	default:
		return true
	}
}

// Keys returns property keys in insertion order.
func (d *SchemaDocument) Keys() []string {
	keys := make([]string, len(d.props))
	for i, p := range d.props {
		keys[i] = p.key
	}
	return keys
}

// MarshalJSON emits JSON-LD with @context and @type first and the remaining
// properties in insertion order.
func (d *SchemaDocument) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	buf.WriteString(`"@context":"https://schema.org","@type":`)
	if err := writeJSON(&buf, string(d.Type)); err != nil {
		return nil, err
	}
	for _, p := range d.props {
		buf.WriteByte(',')
		if err := writeJSON(&buf, p.key); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := writeJSON(&buf, p.value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v any) error {
	// Nested documents must render without the repeated @context.
	if nested, ok := v.(*SchemaDocument); ok {
		return writeNested(buf, nested)
	}
	if list, ok := v.([]*SchemaDocument); ok {
		buf.WriteByte('[')
		for i, item := range list {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeNested(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(b)
	return nil
}

func writeNested(buf *bytes.Buffer, d *SchemaDocument) error {
	buf.WriteString(`{"@type":`)
	if err := writeJSON(buf, string(d.Type)); err != nil {
		return err
	}
	for _, p := range d.props {
		buf.WriteByte(',')
		if err := writeJSON(buf, p.key); err != nil {
			return err
		}
		buf.WriteByte(':')
		if err := writeJSON(buf, p.value); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}
