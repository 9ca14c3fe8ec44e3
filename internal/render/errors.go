package render

import "errors"

var (
	// ErrUnknownFormat is returned for an unsupported output format name.
	ErrUnknownFormat = errors.New("unknown output format")

	// ErrUndecodable is returned when a format has no decoder.
	ErrUndecodable = errors.New("format cannot be decoded")

	// ErrMalformedValue is returned when a Value or a decoded document does
	// not have the accessibility tree shape.
	ErrMalformedValue = errors.New("malformed tree value")
)
