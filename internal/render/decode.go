package render

import (
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/nao1215/axtree/internal/model"
)

// Decode parses a document written in format back into a Value.
func Decode(format Format, r io.Reader) (model.Value, error) {
	switch format {
	case FormatYAML:
		return DecodeYAML(r)
	case FormatXML:
		return DecodeXML(r)
	case FormatJSON, FormatJSONPretty:
		return DecodeJSON(r)
	case FormatMarkdown:
		return model.Value{}, fmt.Errorf("%w: %s", ErrUndecodable, format)
	default:
		return model.Value{}, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// DecodeTree parses a document written in format back into a tree.
func DecodeTree(format Format, r io.Reader) (*model.Node, error) {
	v, err := Decode(format, r)
	if err != nil {
		return nil, err
	}
	return NodeFromValue(v)
}

// DecodeJSON parses JSON of objects, arrays and strings into a Value.
// Numbers, booleans and null are rejected.
func DecodeJSON(r io.Reader) (model.Value, error) {
	var raw any
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return model.Value{}, fmt.Errorf("decode json: %w", err)
	}
	return fromJSON(raw)
}

func fromJSON(raw any) (model.Value, error) {
	switch x := raw.(type) {
	case string:
		return model.Scalar(x), nil
	case map[string]any:
		members := make(map[string]model.Value, len(x))
		for k, item := range x {
			v, err := fromJSON(item)
			if err != nil {
				return model.Value{}, err
			}
			members[k] = v
		}
		return model.Object(members), nil
	case []any:
		items := make([]model.Value, len(x))
		for i, item := range x {
			v, err := fromJSON(item)
			if err != nil {
				return model.Value{}, err
			}
			items[i] = v
		}
		return model.Array(items...), nil
	default:
		return model.Value{}, fmt.Errorf("%w: unexpected JSON value %v", ErrMalformedValue, raw)
	}
}

// DecodeYAML parses YAML into a Value. Scalars keep their literal text
// regardless of the tag YAML would resolve, so "true" and "1" stay strings.
func DecodeYAML(r io.Reader) (model.Value, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return model.Value{}, fmt.Errorf("%w: empty yaml document", ErrMalformedValue)
		}
		return model.Value{}, fmt.Errorf("decode yaml: %w", err)
	}
	return fromYAML(&doc)
}

func fromYAML(n *yaml.Node) (model.Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) != 1 {
			return model.Value{}, fmt.Errorf("%w: yaml document without content", ErrMalformedValue)
		}
		return fromYAML(n.Content[0])
	case yaml.ScalarNode:
		return model.Scalar(n.Value), nil
	case yaml.MappingNode:
		members := make(map[string]model.Value, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i]
			if key.Kind != yaml.ScalarNode {
				return model.Value{}, fmt.Errorf("%w: non-scalar key at line %d", ErrMalformedValue, key.Line)
			}
			v, err := fromYAML(n.Content[i+1])
			if err != nil {
				return model.Value{}, err
			}
			members[key.Value] = v
		}
		return model.Object(members), nil
	case yaml.SequenceNode:
		items := make([]model.Value, len(n.Content))
		for i, c := range n.Content {
			v, err := fromYAML(c)
			if err != nil {
				return model.Value{}, err
			}
			items[i] = v
		}
		return model.Array(items...), nil
	case yaml.AliasNode:
		return fromYAML(n.Alias)
	default:
		return model.Value{}, fmt.Errorf("%w: unsupported yaml node at line %d", ErrMalformedValue, n.Line)
	}
}

type xmlTree struct {
	XMLName xml.Name `xml:"accessibilityTree"`
	xmlNode
}

type xmlNode struct {
	Attributes *xmlAttributes `xml:"attributes"`
	Children   *xmlChildren   `xml:"children"`
}

type xmlAttributes struct {
	Items []xmlAttribute `xml:"attribute"`
}

type xmlAttribute struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

type xmlChildren struct {
	Nodes []xmlNode `xml:"node"`
}

// DecodeXML parses the XML encoding into a Value.
func DecodeXML(r io.Reader) (model.Value, error) {
	var tree xmlTree
	if err := xml.NewDecoder(r).Decode(&tree); err != nil {
		return model.Value{}, fmt.Errorf("decode xml: %w", err)
	}
	return model.Object(map[string]model.Value{RootKey: tree.value()}), nil
}

func (n xmlNode) value() model.Value {
	members := make(map[string]model.Value, 2)
	if n.Attributes != nil {
		attrs := make(map[string]model.Value, len(n.Attributes.Items))
		for _, a := range n.Attributes.Items {
			attrs[a.Name] = model.Scalar(a.Value)
		}
		members[AttributesKey] = model.Object(attrs)
	}
	if n.Children != nil {
		items := make([]model.Value, len(n.Children.Nodes))
		for i, c := range n.Children.Nodes {
			items[i] = c.value()
		}
		members[ChildrenKey] = model.Array(items...)
	}
	return model.Object(members)
}
