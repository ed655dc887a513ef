package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Document is the raw site document as decoded from JSON. It is the unit
// that is loaded, edited, cloned and saved.
type Document = map[string]any

// Clone returns a structural copy of doc. Nested maps and slices are never
// shared with the original.
func Clone(doc Document) Document {
	if doc == nil {
		return nil
	}
	cloned, _ := CloneValue(doc).(map[string]any)
	return cloned
}

// CloneValue deep copies JSON-generic values. Scalars are returned as-is.
func CloneValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		if typed == nil {
			return map[string]any(nil)
		}
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			out[key] = CloneValue(item)
		}
		return out
	case []any:
		if typed == nil {
			return []any(nil)
		}
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = CloneValue(item)
		}
		return out
	case []string:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = item
		}
		return out
	case map[string]string:
		out := make(map[string]any, len(typed))
		for key, item := range typed {
			out[key] = item
		}
		return out
	default:
		return value
	}
}

// Parse decodes a JSON document. Numbers are kept as json.Number so a
// load/save cycle does not alter them.
func Parse(data []byte) (Document, error) {
	return Decode(bytes.NewReader(data))
}

// Decode reads a JSON document from r.
func Decode(r io.Reader) (Document, error) {
	decoder := json.NewDecoder(r)
	decoder.UseNumber()
	var doc Document
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: document must be a JSON object", ErrInvalidDocument)
	}
	return doc, nil
}

// Marshal encodes doc with two space indentation and without HTML escaping.
func Marshal(doc Document) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Normalize round-trips value through JSON so typed structs become the
// generic form used in documents.
func Normalize(value any) (any, error) {
	switch value.(type) {
	case nil, string, bool, float64, json.Number, map[string]any, []any:
		return value, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	var out any
	if err := decoder.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}
