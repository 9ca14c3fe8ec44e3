package memtree

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync/atomic"

	"gopkg.in/yaml.v3"

	"github.com/nao1215/axtree/internal/inspect"
)

// ErrUnknownElement is returned when a fixture references an undeclared element.
var ErrUnknownElement = errors.New("unknown element")

// Spec is the fixture document describing an element graph.
// Children may point anywhere in the graph, including back at an ancestor,
// so cyclic shapes are expressible.
type Spec struct {
	// Authorized defaults to true when omitted.
	Authorized *bool `yaml:"authorized,omitempty"`

	// Bulk enables the BulkFetcher capability.
	Bulk bool `yaml:"bulk,omitempty"`

	// Processes maps a PID to the id of its application element.
	Processes map[int]string `yaml:"processes"`

	// Elements maps element ids to their description.
	Elements map[string]ElementSpec `yaml:"elements"`
}

// ElementSpec describes one element.
type ElementSpec struct {
	// Attributes holds attribute values. YAML scalars, lists and maps all work;
	// a null value means "supported but currently without a value".
	Attributes map[string]any `yaml:"attributes,omitempty"`

	// Refs holds attributes whose value is another element.
	Refs map[string]string `yaml:"refs,omitempty"`

	// Children lists child element ids in order.
	Children []string `yaml:"children,omitempty"`

	// VisibleChildren lists visible child ids. When nil the visible-children
	// relation is unsupported for this element.
	VisibleChildren []string `yaml:"visibleChildren,omitempty"`

	// Errors injects boundary failures.
	Errors ErrorSpec `yaml:"errors,omitempty"`
}

// ErrorSpec injects failures into an element. Empty strings mean no failure.
type ErrorSpec struct {
	AttributeNames string            `yaml:"attributeNames,omitempty"`
	Children       string            `yaml:"children,omitempty"`
	Bulk           string            `yaml:"bulk,omitempty"`
	Attributes     map[string]string `yaml:"attributes,omitempty"`
}

// Handle is the element handle issued by a Tree.
type Handle struct {
	ID string
}

// ElementRef marks Handle as an element handle for the stringifier.
func (Handle) ElementRef() {}

// Stats counts boundary round-trips served by a Tree.
type Stats struct {
	AttributeNameCalls  int64
	AttributeValueCalls int64
	BulkCalls           int64
	ChildrenCalls       int64
}

// Tree is an in-memory boundary. It is read-only after construction and safe
// for concurrent captures.
type Tree struct {
	spec       Spec
	authorized bool

	attributeNameCalls  atomic.Int64
	attributeValueCalls atomic.Int64
	bulkCalls           atomic.Int64
	childrenCalls       atomic.Int64
}

// New validates a Spec and returns a Tree serving it.
func New(spec Spec) (*Tree, error) {
	if spec.Elements == nil {
		spec.Elements = map[string]ElementSpec{}
	}
	for pid, root := range spec.Processes {
		if _, ok := spec.Elements[root]; !ok {
			return nil, fmt.Errorf("process %d root %q: %w", pid, root, ErrUnknownElement)
		}
	}
	for id, el := range spec.Elements {
		for _, ref := range concat(el.Children, el.VisibleChildren) {
			if _, ok := spec.Elements[ref]; !ok {
				return nil, fmt.Errorf("element %q child %q: %w", id, ref, ErrUnknownElement)
			}
		}
		for name, ref := range el.Refs {
			if _, ok := spec.Elements[ref]; !ok {
				return nil, fmt.Errorf("element %q attribute %s -> %q: %w", id, name, ref, ErrUnknownElement)
			}
		}
	}

	authorized := true
	if spec.Authorized != nil {
		authorized = *spec.Authorized
	}
	return &Tree{spec: spec, authorized: authorized}, nil
}

// Load decodes a YAML fixture.
func Load(r io.Reader) (*Tree, error) {
	var spec Spec
	if err := yaml.NewDecoder(r).Decode(&spec); err != nil {
		return nil, fmt.Errorf("failed to decode fixture: %w", err)
	}
	return New(spec)
}

// LoadFile decodes a YAML fixture from a file.
func LoadFile(path string) (*Tree, error) {
	f, err := os.Open(path) //nolint:gosec // fixture path is chosen by the user
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// PIDs returns the fixture's process ids in ascending order.
func (t *Tree) PIDs() []int {
	pids := make([]int, 0, len(t.spec.Processes))
	for pid := range t.spec.Processes {
		pids = append(pids, pid)
	}
	sort.Ints(pids)
	return pids
}

// Stats returns the round-trip counters.
func (t *Tree) Stats() Stats {
	return Stats{
		AttributeNameCalls:  t.attributeNameCalls.Load(),
		AttributeValueCalls: t.attributeValueCalls.Load(),
		BulkCalls:           t.bulkCalls.Load(),
		ChildrenCalls:       t.childrenCalls.Load(),
	}
}

// IsAuthorized implements inspect.Inspector.
func (t *Tree) IsAuthorized(context.Context) bool {
	return t.authorized
}

// RootElement implements inspect.Inspector.
func (t *Tree) RootElement(_ context.Context, pid int) (inspect.Element, error) {
	id, ok := t.spec.Processes[pid]
	if !ok {
		return nil, fmt.Errorf("pid %d: %w", pid, inspect.ErrNoSuchProcess)
	}
	return Handle{ID: id}, nil
}

// AttributeNames implements inspect.Inspector.
func (t *Tree) AttributeNames(_ context.Context, el inspect.Element) ([]string, error) {
	t.attributeNameCalls.Add(1)
	spec, err := t.lookup(el)
	if err != nil {
		return nil, err
	}
	if spec.Errors.AttributeNames != "" {
		return nil, errors.New(spec.Errors.AttributeNames)
	}

	seen := make(map[string]bool)
	for name := range spec.Attributes {
		seen[name] = true
	}
	for name := range spec.Refs {
		seen[name] = true
	}
	for name := range spec.Errors.Attributes {
		seen[name] = true
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// AttributeValue implements inspect.Inspector.
func (t *Tree) AttributeValue(_ context.Context, el inspect.Element, name string) (any, error) {
	t.attributeValueCalls.Add(1)
	spec, err := t.lookup(el)
	if err != nil {
		return nil, err
	}
	return value(spec, name)
}

// AttributeValues implements inspect.BulkFetcher.
func (t *Tree) AttributeValues(_ context.Context, el inspect.Element, names []string) (map[string]inspect.AttributeResult, error) {
	t.bulkCalls.Add(1)
	if !t.spec.Bulk {
		return nil, inspect.ErrUnsupported
	}
	spec, err := t.lookup(el)
	if err != nil {
		return nil, err
	}
	if spec.Errors.Bulk != "" {
		return nil, errors.New(spec.Errors.Bulk)
	}

	out := make(map[string]inspect.AttributeResult, len(names))
	for _, name := range names {
		v, err := value(spec, name)
		out[name] = inspect.AttributeResult{Value: v, Err: err}
	}
	return out, nil
}

// Children implements inspect.Inspector.
func (t *Tree) Children(_ context.Context, el inspect.Element, visibleOnly bool) ([]inspect.Element, error) {
	t.childrenCalls.Add(1)
	spec, err := t.lookup(el)
	if err != nil {
		return nil, err
	}
	if spec.Errors.Children != "" {
		return nil, errors.New(spec.Errors.Children)
	}

	ids := spec.Children
	if visibleOnly {
		if spec.VisibleChildren == nil {
			return nil, inspect.ErrUnsupported
		}
		ids = spec.VisibleChildren
	}
	out := make([]inspect.Element, len(ids))
	for i, id := range ids {
		out[i] = Handle{ID: id}
	}
	return out, nil
}

// Identity implements inspect.Inspector.
func (t *Tree) Identity(el inspect.Element) inspect.Identity {
	if h, ok := el.(Handle); ok {
		return inspect.Identity(h.ID)
	}
	return ""
}

func (t *Tree) lookup(el inspect.Element) (ElementSpec, error) {
	h, ok := el.(Handle)
	if !ok {
		return ElementSpec{}, inspect.ErrInvalidElement
	}
	spec, ok := t.spec.Elements[h.ID]
	if !ok {
		return ElementSpec{}, fmt.Errorf("%q: %w", h.ID, inspect.ErrInvalidElement)
	}
	return spec, nil
}

func value(spec ElementSpec, name string) (any, error) {
	if msg, ok := spec.Errors.Attributes[name]; ok {
		return nil, errors.New(msg)
	}
	if ref, ok := spec.Refs[name]; ok {
		return Handle{ID: ref}, nil
	}
	v, ok := spec.Attributes[name]
	if !ok {
		return nil, inspect.ErrAttributeUnsupported
	}
	if v == nil {
		return nil, inspect.ErrNoValue
	}
	return v, nil
}

func concat(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	out = append(out, a...)
	return append(out, b...)
}
