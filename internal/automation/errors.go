package automation

import "errors"

// Domain errors for the automation package.
var (
	// ErrTickNotFound is returned when a tick ID does not exist in history.
	ErrTickNotFound = errors.New("tick: not found")

	// ErrTickExists is returned when recording a tick whose ID is already stored.
	ErrTickExists = errors.New("tick: already exists")

	// ErrInvalidTimeOfDay is returned when hour, minute or second is out of range.
	ErrInvalidTimeOfDay = errors.New("tick: invalid time of day")
)
