package domain

import "errors"

// Error taxonomy. Provider and geometry failures degrade to partial results;
// only invalid input is a hard rejection.
var (
	// ErrInvalidInput marks malformed coordinates, an empty or oversized
	// hours list, or invalid ignition geometry. Rejected before any
	// computation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrOutsideBounds marks a query location outside the supported
	// contiguous-US bounding box.
	ErrOutsideBounds = errors.New("location outside supported bounds")

	// ErrProviderUnavailable marks a network, timeout, or non-success
	// response from an external collaborator. Treated as missing data for
	// that source, not a fatal aggregation error.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrNoObservations is returned when every candidate station was tried
	// and none yielded weather or fuel data.
	ErrNoObservations = errors.New("no stations with data")

	// ErrPlumeSuppressed is returned by Cone when a fire is too small and
	// uncertain to model. The caller drops the frame silently.
	ErrPlumeSuppressed = errors.New("plume suppressed: fire too small or uncertain")

	// ErrGeometry marks a degenerate or self-intersecting plume polygon.
	// The offending frame is dropped; other frames proceed.
	ErrGeometry = errors.New("invalid plume geometry")
)
