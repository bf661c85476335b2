package weather

import "errors"

var (
	// ErrEmptyQuery is returned for a blank place name. No request is made.
	ErrEmptyQuery = errors.New("empty location query")

	// ErrInvalidCoordinates is returned for coordinates outside the valid range.
	ErrInvalidCoordinates = errors.New("invalid coordinates")

	// ErrLocationNotFound means the provider reported the place does not resolve.
	ErrLocationNotFound = errors.New("location not found")

	// ErrServiceUnavailable covers every other upstream failure.
	ErrServiceUnavailable = errors.New("weather service unavailable")
)
