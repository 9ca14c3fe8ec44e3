package render

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/nao1215/axtree/internal/model"
)

// JSONWriter outputs trees as JSON records, compact by default.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed output.
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string.
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with two-space indentation.
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{baseWriter: newBaseWriter(output)}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the tree in JSON form followed by a newline.
func (w *JSONWriter) Write(tree *model.Node) (int, error) {
	data, err := w.encode(ToValue(tree))
	if err != nil {
		return 0, err
	}
	return w.output.Write(data)
}

// EncodeJSON serializes an arbitrary Value in compact form.
func EncodeJSON(v model.Value) ([]byte, error) {
	return NewJSONWriter(nil).encode(v)
}

func (w *JSONWriter) encode(v model.Value) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if w.indent {
		enc.SetIndent(w.indentPrefix, w.indentString)
	}
	if err := enc.Encode(plain(v)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// plain converts a Value to maps, slices and strings. encoding/json writes
// map keys in sorted order.
func plain(v model.Value) any {
	switch v.Kind() {
	case model.KindObject:
		m := make(map[string]any, v.Len())
		for _, k := range v.Keys() {
			member, _ := v.Member(k)
			m[k] = plain(member)
		}
		return m
	case model.KindArray:
		items := make([]any, v.Len())
		for i, item := range v.Items() {
			items[i] = plain(item)
		}
		return items
	default:
		return v.Text()
	}
}
