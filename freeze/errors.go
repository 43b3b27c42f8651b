package freeze

import "errors"

var (
	// ErrNoGSUB is returned when the input font has no GSUB table.
	ErrNoGSUB = errors.New("freeze: font has no GSUB table")
	// ErrNoCmap is returned when the input font has no cmap table.
	ErrNoCmap = errors.New("freeze: font has no cmap table")
	// ErrNoMatchingFeatures is returned when the requested feature tags,
	// intersected with any script/lang filter, select nothing.
	ErrNoMatchingFeatures = errors.New("freeze: no feature matches the requested filter")
	// ErrNoSubstitutions is returned when the matched features exist but
	// their lookups produce no single/alternate-substitution mapping.
	ErrNoSubstitutions = errors.New("freeze: matched features produced no substitutions")
)
