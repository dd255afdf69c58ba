package surface

import (
	"errors"
	"fmt"
)

// Domain errors for grid construction.
var (
	// ErrInvalidDimensions indicates a segment count below the supported minimum.
	ErrInvalidDimensions = errors.New("surface: invalid grid dimensions")

	// ErrInvalidTrack indicates a non-positive track length or width.
	ErrInvalidTrack = errors.New("surface: track length and width must be positive")
)

// DimensionError wraps a construction error with the offending value.
type DimensionError struct {
	Field   string
	Value   float64
	Wrapped error
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("%v (%s=%g)", e.Wrapped, e.Field, e.Value)
}

func (e *DimensionError) Unwrap() error {
	return e.Wrapped
}
