package render

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/nao1215/axtree/internal/model"
)

// Keys of the intermediate tree shape.
const (
	// RootKey wraps the root node.
	RootKey = "accessibilityTree"
	// AttributesKey holds a node's attribute object.
	AttributesKey = "attributes"
	// ChildrenKey holds a node's child array.
	ChildrenKey = "children"
)

// ToValue converts a tree to the intermediate Value shared by all writers:
// {"accessibilityTree": node}, where each node is an object with an
// "attributes" object of scalars and a "children" array, either omitted when
// empty. Invalid UTF-8 in keys or values is replaced with U+FFFD.
func ToValue(tree *model.Node) model.Value {
	if tree == nil {
		tree = model.Empty()
	}
	return model.Object(map[string]model.Value{RootKey: nodeValue(tree)})
}

func nodeValue(n *model.Node) model.Value {
	members := make(map[string]model.Value, 2)

	if n.Len() > 0 {
		attrs := make(map[string]model.Value, n.Len())
		for k, v := range n.Attributes() {
			attrs[validUTF8(k)] = model.Scalar(validUTF8(v))
		}
		members[AttributesKey] = model.Object(attrs)
	}

	if kids := n.Children(); len(kids) > 0 {
		items := make([]model.Value, len(kids))
		for i, c := range kids {
			items[i] = nodeValue(c)
		}
		members[ChildrenKey] = model.Array(items...)
	}
	return model.Object(members)
}

func validUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "�")
}

// NodeFromValue converts a Value produced by ToValue, or decoded from a
// writer's output, back into a tree.
func NodeFromValue(v model.Value) (*model.Node, error) {
	if v.Kind() != model.KindObject || v.Len() != 1 {
		return nil, fmt.Errorf("%w: expected a single %q member", ErrMalformedValue, RootKey)
	}
	root, ok := v.Member(RootKey)
	if !ok {
		return nil, fmt.Errorf("%w: missing %q", ErrMalformedValue, RootKey)
	}
	return nodeFromValue(root, RootKey)
}

func nodeFromValue(v model.Value, path string) (*model.Node, error) {
	if v.Kind() != model.KindObject {
		return nil, fmt.Errorf("%w: %s is a %s, not an object", ErrMalformedValue, path, v.Kind())
	}

	var attrs map[string]string
	var children []*model.Node
	for _, key := range v.Keys() {
		member, _ := v.Member(key)
		switch key {
		case AttributesKey:
			if member.Kind() != model.KindObject {
				return nil, fmt.Errorf("%w: %s.%s is not an object", ErrMalformedValue, path, key)
			}
			attrs = make(map[string]string, member.Len())
			for _, name := range member.Keys() {
				s, _ := member.Member(name)
				if s.Kind() != model.KindScalar {
					return nil, fmt.Errorf("%w: attribute %q under %s is not a scalar", ErrMalformedValue, name, path)
				}
				attrs[name] = s.Text()
			}
		case ChildrenKey:
			if member.Kind() != model.KindArray {
				return nil, fmt.Errorf("%w: %s.%s is not an array", ErrMalformedValue, path, key)
			}
			for i, item := range member.Items() {
				child, err := nodeFromValue(item, fmt.Sprintf("%s.%s[%d]", path, key, i))
				if err != nil {
					return nil, err
				}
				children = append(children, child)
			}
		default:
			return nil, fmt.Errorf("%w: unexpected key %q under %s", ErrMalformedValue, key, path)
		}
	}
	return model.NewNode(attrs, children), nil
}
