package pace

import (
	"errors"
	"fmt"
)

// ErrEmptyTrack is returned when there is no point to anchor the timestamps on.
var ErrEmptyTrack = errors.New("track has no points")

// MissingElevationError reports the first point without an elevation.
type MissingElevationError struct {
	Index int
}

func (e *MissingElevationError) Error() string {
	return fmt.Sprintf("point %d has no elevation", e.Index)
}

// InvalidTimestampError reports an anchor timestamp that cannot be parsed.
type InvalidTimestampError struct {
	Value string
	Err   error
}

func (e *InvalidTimestampError) Error() string {
	return fmt.Sprintf("invalid anchor timestamp %q: %v", e.Value, e.Err)
}

func (e *InvalidTimestampError) Unwrap() error {
	return e.Err
}

// InvalidPaceError reports a PaceModel that cannot be applied.
type InvalidPaceError struct {
	Reason string
}

func (e *InvalidPaceError) Error() string {
	return "invalid pace: " + e.Reason
}
