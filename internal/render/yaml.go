package render

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/nao1215/axtree/internal/model"
)

// YAMLWriter outputs trees as indented structured text.
//
// Nesting is two spaces per level. Scalars and keys are written plain when
// they only contain [A-Za-z0-9._-], single-quoted otherwise (embedded quotes
// doubled), and double-quoted with escapes when they contain line breaks or
// control characters. Empty containers are written inline as {} and [].
type YAMLWriter struct {
	baseWriter
}

// NewYAMLWriter creates a YAMLWriter that outputs to the given writer.
func NewYAMLWriter(output io.Writer) *YAMLWriter {
	return &YAMLWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs the tree in YAML form.
func (w *YAMLWriter) Write(tree *model.Node) (int, error) {
	data, err := EncodeYAML(ToValue(tree))
	if err != nil {
		return 0, err
	}
	return w.output.Write(data)
}

// EncodeYAML serializes an arbitrary Value.
func EncodeYAML(v model.Value) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(yamlNode(v)); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode yaml: %w", err)
	}
	return buf.Bytes(), nil
}

// yamlNode builds the untagged node tree of v, with the scalar style of every
// key and value fixed by yamlStyle.
func yamlNode(v model.Value) *yaml.Node {
	switch v.Kind() {
	case model.KindObject:
		n := &yaml.Node{Kind: yaml.MappingNode}
		if v.Len() == 0 {
			n.Style = yaml.FlowStyle
		}
		for _, k := range v.Keys() {
			m, _ := v.Member(k)
			n.Content = append(n.Content, yamlScalar(k), yamlNode(m))
		}
		return n
	case model.KindArray:
		n := &yaml.Node{Kind: yaml.SequenceNode}
		if v.Len() == 0 {
			n.Style = yaml.FlowStyle
		}
		for _, item := range v.Items() {
			n.Content = append(n.Content, yamlNode(item))
		}
		return n
	default:
		return yamlScalar(v.Text())
	}
}

func yamlScalar(s string) *yaml.Node {
	s = strings.ToValidUTF8(s, "�")
	return &yaml.Node{Kind: yaml.ScalarNode, Value: s, Style: yamlStyle(s)}
}

// yamlStyle picks plain style for [A-Za-z0-9._-] text, double quotes for text
// with line breaks or control characters and single quotes for the rest.
func yamlStyle(s string) yaml.Style {
	switch {
	case s != "" && s != "-" && isPlainYAML(s):
		return 0
	case strings.IndexFunc(s, isYAMLControl) >= 0:
		return yaml.DoubleQuotedStyle
	default:
		return yaml.SingleQuotedStyle
	}
}

func isPlainYAML(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '.', c == '_', c == '-':
		default:
			return false
		}
	}
	return true
}

func isYAMLControl(r rune) bool {
	return unicode.IsControl(r) || r == ' ' || r == ' '
}
