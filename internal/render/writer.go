package render

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/axtree/internal/model"
)

// Writer writes a normalized tree to its configured destination.
type Writer interface {
	// Write outputs the tree and returns the number of bytes written.
	Write(tree *model.Node) (int, error)
}

// Format names an output encoding.
type Format string

const (
	// FormatYAML is the indented structured-text encoding.
	FormatYAML Format = "yaml"
	// FormatXML is the markup encoding.
	FormatXML Format = "xml"
	// FormatJSON is the compact record encoding.
	FormatJSON Format = "json"
	// FormatJSONPretty is the indented record encoding.
	FormatJSONPretty Format = "json-pretty"
	// FormatMarkdown is the human-readable digest.
	FormatMarkdown Format = "markdown"
)

// Formats lists every supported format.
func Formats() []Format {
	return []Format{FormatYAML, FormatXML, FormatJSON, FormatJSONPretty, FormatMarkdown}
}

// ParseFormat resolves a format name, ignoring case. "yml" and "md" are
// accepted as aliases.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatYAML, "yml":
		return FormatYAML, nil
	case FormatXML, FormatJSON, FormatJSONPretty, FormatMarkdown:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// Extension returns the conventional file extension, including the dot.
func (f Format) Extension() string {
	switch f {
	case FormatYAML:
		return ".yaml"
	case FormatXML:
		return ".xml"
	case FormatJSON, FormatJSONPretty:
		return ".json"
	case FormatMarkdown:
		return ".md"
	default:
		return ""
	}
}

// NewWriter returns the Writer for format that outputs to output.
func NewWriter(format Format, output io.Writer) (Writer, error) {
	switch format {
	case FormatYAML:
		return NewYAMLWriter(output), nil
	case FormatXML:
		return NewXMLWriter(output), nil
	case FormatJSON:
		return NewJSONWriter(output), nil
	case FormatJSONPretty:
		return NewJSONWriter(output, WithPrettyPrint()), nil
	case FormatMarkdown:
		return NewMarkdownWriter(output), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// Render encodes tree in format and returns the bytes.
func Render(tree *model.Node, format Format) ([]byte, error) {
	var buf bytes.Buffer
	w, err := NewWriter(format, &buf)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write(tree); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// MultiWriter writes the same tree to several Writers, for example a file
// and the snapshot store.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the tree to every Writer and returns the total bytes written.
// It stops on the first error.
func (m *MultiWriter) Write(tree *model.Node) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(tree)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for writers.
type baseWriter struct {
	output io.Writer
}

func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}
