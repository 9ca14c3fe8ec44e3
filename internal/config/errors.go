package config

import "errors"

// Configuration errors.
// Validate and the file loader return these so callers can use errors.Is.
var (
	// ErrUnknownMode is returned for a mode that is neither all nor summarized.
	ErrUnknownMode = errors.New("unknown mode: must be all or summarized")

	// ErrInvalidTextBudget is returned when the summarized text budget is not positive.
	ErrInvalidTextBudget = errors.New("invalid text budget: must be positive")

	// ErrInvalidMaxDepth is returned when the depth limit is negative.
	// Use 0 for no limit.
	ErrInvalidMaxDepth = errors.New("invalid max depth: must be non-negative")

	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")
)
