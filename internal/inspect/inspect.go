package inspect

import (
	"context"
	"strings"

	"github.com/nao1215/axtree/internal/stringify"
)

// Element is an opaque handle to one UI element as seen through a boundary.
// Only the boundary that produced a handle can interpret it.
type Element any

// Identity is a comparable token naming an element. Two handles refer to the
// same element iff the boundary reports the same Identity for both.
type Identity string

// Inspector is the introspection capability the collector is driven by.
//
// Implementations report "attribute not present" with ErrNoValue,
// unsupported attributes with ErrAttributeUnsupported and unsupported optional
// relations with ErrUnsupported. Any other error is a hard per-call failure.
type Inspector interface {
	// IsAuthorized reports whether the process may inspect other applications.
	IsAuthorized(ctx context.Context) bool

	// RootElement returns the application element of a process.
	RootElement(ctx context.Context, pid int) (Element, error)

	// AttributeNames lists the attributes available on an element.
	AttributeNames(ctx context.Context, el Element) ([]string, error)

	// AttributeValue returns a single attribute value.
	AttributeValue(ctx context.Context, el Element, name string) (any, error)

	// Children returns the child elements. With visibleOnly set, the boundary
	// should use its visible-children relation and may return ErrUnsupported.
	Children(ctx context.Context, el Element, visibleOnly bool) ([]Element, error)

	// Identity returns the identity token of an element.
	Identity(el Element) Identity
}

// AttributeResult is one entry of a bulk attribute fetch.
type AttributeResult struct {
	Value any
	Err   error
}

// BulkFetcher is an optional capability for fetching several attributes of
// one element in a single round-trip. A call-level ErrUnsupported (or any
// call-level error) makes the collector fall back to per-attribute calls.
type BulkFetcher interface {
	AttributeValues(ctx context.Context, el Element, names []string) (map[string]AttributeResult, error)
}

// Point is a screen position as delivered by a boundary.
// Its String form is the boxed-value notation the frame parser understands.
type Point struct {
	X, Y float64
}

// String formats the point as "{value = x:1 y:2 type = point}".
func (p Point) String() string {
	return "{value = x:" + stringify.FormatNumber(p.X) + " y:" + stringify.FormatNumber(p.Y) + " type = point}"
}

// Size is an element extent as delivered by a boundary.
type Size struct {
	Width, Height float64
}

// String formats the size as "{value = w:1 h:2 type = size}".
func (s Size) String() string {
	return "{value = w:" + stringify.FormatNumber(s.Width) + " h:" + stringify.FormatNumber(s.Height) + " type = size}"
}

// IsTruthy reports whether an attribute string represents boolean true.
func IsTruthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// IsFalsy reports whether an attribute string represents boolean false.
func IsFalsy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0", "false", "no", "off":
		return true
	}
	return false
}
