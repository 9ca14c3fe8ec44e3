package inspect

import "errors"

// Boundary errors.
// Only ErrNotAuthorized is fatal for a capture; the others degrade to
// fallbacks or diagnostic attributes inside the collected tree.
var (
	// ErrNotAuthorized is returned when the process lacks permission to
	// inspect other applications.
	ErrNotAuthorized = errors.New("accessibility access is not authorized")

	// ErrNoSuchProcess is returned when no application element exists for a PID.
	ErrNoSuchProcess = errors.New("no such process")

	// ErrUnsupported is returned when an optional relation or capability
	// (visible children, bulk fetch) is not available on an element.
	ErrUnsupported = errors.New("operation not supported")

	// ErrAttributeUnsupported is returned when an element does not support
	// the requested attribute.
	ErrAttributeUnsupported = errors.New("attribute not supported")

	// ErrNoValue is returned when a supported attribute currently has no value.
	ErrNoValue = errors.New("attribute has no value")

	// ErrInvalidElement is returned when a handle does not belong to the boundary.
	ErrInvalidElement = errors.New("invalid element handle")
)

// IsAbsent reports whether err means "no value to record" rather than a failure.
func IsAbsent(err error) bool {
	return errors.Is(err, ErrNoValue) || errors.Is(err, ErrAttributeUnsupported)
}
