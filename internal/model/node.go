package model

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// Diagnostic attribute keys. These are injected into the tree by the collector
// instead of being raised as errors, so a capture always completes and remains
// inspectable under partial boundary failure.
const (
	// AttrCycle marks a leaf that stands in for an already-visited element.
	AttrCycle = "cycle"

	// AttrErrorAttributeNames records a failure to enumerate attribute names.
	AttrErrorAttributeNames = "error.attributeNames"

	// AttrErrorAttributePrefix prefixes a per-attribute fetch failure
	// (the attribute name follows the prefix).
	AttrErrorAttributePrefix = "error.attribute."

	// AttrErrorChildren records a failure to enumerate children.
	AttrErrorChildren = "error.children"

	// errorPrefix is shared by all error.* diagnostics.
	errorPrefix = "error."
)

// Node is one UI element in an immutable, parent-less tree.
//
// Attribute keys are unique and keep their case on storage, while lookups
// through Attribute are case-insensitive. Filtering never mutates a Node;
// it builds new ones.
type Node struct {
	attributes map[string]string
	// folded maps the case-folded key to the stored key.
	folded   map[string]string
	children []*Node
}

// NewNode builds a Node from the given attributes and children.
// Both arguments are copied; nil children are skipped. When two keys fold to the
// same value, the lexicographically smaller stored key wins so construction is
// deterministic regardless of map iteration order.
func NewNode(attributes map[string]string, children []*Node) *Node {
	n := &Node{
		attributes: make(map[string]string, len(attributes)),
		folded:     make(map[string]string, len(attributes)),
	}

	keys := make([]string, 0, len(attributes))
	for k := range attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	caser := cases.Fold()
	for _, k := range keys {
		f := caser.String(k)
		if _, dup := n.folded[f]; dup {
			continue
		}
		n.folded[f] = k
		n.attributes[k] = attributes[k]
	}

	if len(children) > 0 {
		n.children = make([]*Node, 0, len(children))
		for _, c := range children {
			if c != nil {
				n.children = append(n.children, c)
			}
		}
	}
	return n
}

// Empty returns a node with no attributes and no children.
func Empty() *Node {
	return NewNode(nil, nil)
}

// CycleLeaf returns the sentinel leaf emitted for an already-visited element.
func CycleLeaf() *Node {
	return NewNode(map[string]string{AttrCycle: "true"}, nil)
}

// Attribute looks up an attribute by key, ignoring case.
func (n *Node) Attribute(key string) (string, bool) {
	if n == nil {
		return "", false
	}
	if v, ok := n.attributes[key]; ok {
		return v, true
	}
	stored, ok := n.folded[cases.Fold().String(key)]
	if !ok {
		return "", false
	}
	return n.attributes[stored], true
}

// FirstAttribute returns the first non-empty (after trimming) value among the
// candidate keys, in candidate order.
func (n *Node) FirstAttribute(candidates []string) (string, bool) {
	for _, key := range candidates {
		if v, ok := n.Attribute(key); ok {
			if t := strings.TrimSpace(v); t != "" {
				return t, true
			}
		}
	}
	return "", false
}

// AllAttributes returns every non-empty (after trimming) value among the
// candidate keys, in candidate order. A stored key matched by two candidates
// is returned once.
func (n *Node) AllAttributes(candidates []string) []string {
	seen := make(map[string]bool, len(candidates))
	var values []string
	for _, key := range candidates {
		stored, ok := n.storedKey(key)
		if !ok || seen[stored] {
			continue
		}
		seen[stored] = true
		if t := strings.TrimSpace(n.attributes[stored]); t != "" {
			values = append(values, t)
		}
	}
	return values
}

func (n *Node) storedKey(key string) (string, bool) {
	if _, ok := n.attributes[key]; ok {
		return key, true
	}
	stored, ok := n.folded[cases.Fold().String(key)]
	return stored, ok
}

// Attributes returns a copy of the attribute map.
func (n *Node) Attributes() map[string]string {
	out := make(map[string]string, len(n.attributes))
	for k, v := range n.attributes {
		out[k] = v
	}
	return out
}

// Keys returns the attribute keys sorted ascending.
func (n *Node) Keys() []string {
	keys := make([]string, 0, len(n.attributes))
	for k := range n.attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Children returns a copy of the child list.
func (n *Node) Children() []*Node {
	if len(n.children) == 0 {
		return nil
	}
	out := make([]*Node, len(n.children))
	copy(out, n.children)
	return out
}

// Len returns the number of attributes.
func (n *Node) Len() int { return len(n.attributes) }

// ChildCount returns the number of children.
func (n *Node) ChildCount() int { return len(n.children) }

// IsEmpty reports whether the node has neither attributes nor children.
func (n *Node) IsEmpty() bool {
	return len(n.attributes) == 0 && len(n.children) == 0
}

// IsDiagnosticKey reports whether key is a reserved sentinel key.
func IsDiagnosticKey(key string) bool {
	return key == AttrCycle || strings.HasPrefix(key, errorPrefix)
}

// HasDiagnostics reports whether the node carries any sentinel attribute.
func (n *Node) HasDiagnostics() bool {
	for k := range n.attributes {
		if IsDiagnosticKey(k) {
			return true
		}
	}
	return false
}

// Diagnostics returns only the sentinel attributes of the node.
func (n *Node) Diagnostics() map[string]string {
	out := make(map[string]string)
	for k, v := range n.attributes {
		if IsDiagnosticKey(k) {
			out[k] = v
		}
	}
	return out
}

// WithAttributes returns a new node with the given attributes and the same children.
func (n *Node) WithAttributes(attributes map[string]string) *Node {
	return NewNode(attributes, n.children)
}

// Equal reports whether two trees have identical attributes and children.
func (n *Node) Equal(o *Node) bool {
	if n == nil || o == nil {
		return n == o
	}
	if len(n.attributes) != len(o.attributes) || len(n.children) != len(o.children) {
		return false
	}
	for k, v := range n.attributes {
		if ov, ok := o.attributes[k]; !ok || ov != v {
			return false
		}
	}
	for i := range n.children {
		if !n.children[i].Equal(o.children[i]) {
			return false
		}
	}
	return true
}

// Walk visits the tree depth-first in pre-order. Depth starts at 0 for n.
func (n *Node) Walk(fn func(depth int, node *Node)) {
	n.walk(0, fn)
}

func (n *Node) walk(depth int, fn func(int, *Node)) {
	if n == nil {
		return
	}
	fn(depth, n)
	for _, c := range n.children {
		c.walk(depth+1, fn)
	}
}

// Count returns the number of nodes in the tree rooted at n.
func (n *Node) Count() int {
	total := 0
	n.Walk(func(int, *Node) { total++ })
	return total
}

// Depth returns the number of levels in the tree rooted at n (1 for a leaf).
func (n *Node) Depth() int {
	if n == nil {
		return 0
	}
	deepest := 0
	for _, c := range n.children {
		if d := c.Depth(); d > deepest {
			deepest = d
		}
	}
	return deepest + 1
}
