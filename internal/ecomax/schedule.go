package ecomax

import "context"

// SlotsPerDay is the number of half-hour slots in one schedule day.
// The wire protocol represents a day's program as exactly 48 flags.
const SlotsPerDay = 48

// SlotMinutes is the width of one schedule slot.
const SlotMinutes = 30

// ScheduleDay is one weekday's day/night program. Slot i covers the
// half hour starting i*30 minutes past midnight; true selects the
// "day" preset, false "night".
//
// Edits made through the codec stay pending on the day object until
// the owning Schedule is committed.
type ScheduleDay struct {
	Slots [SlotsPerDay]bool
}

// Schedule is one weekly program (heating or water heater): seven
// named day objects plus a commit that flushes pending edits to the
// controller.
type Schedule interface {
	// Day returns the program for the named weekday. Returns
	// ErrDayNotFound for anything outside the seven weekday names.
	Day(weekday string) (*ScheduleDay, error)

	// Commit writes all pending per-day edits to the device. Calling
	// it with no pending edits is a no-op.
	Commit(ctx context.Context) error
}
