package schedule

import "errors"

// Domain errors for the schedule package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, schedule.ErrInvalidTimeRange) {
//	    // reject the request without touching the device
//	}
var (
	// ErrInvalidTimeRange is returned when an interval bound cannot be
	// parsed as a same-day "HH:MM" wall-clock time.
	ErrInvalidTimeRange = errors.New("schedule: invalid time range")

	// ErrInvalidPreset is returned when a preset label is neither
	// "day" nor "night".
	ErrInvalidPreset = errors.New("schedule: invalid preset")
)
