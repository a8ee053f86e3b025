// Package schedule converts between the controller's 48-slot half-hour
// day program and the human-editable time-of-day representation used by
// the service surface.
//
// The wire protocol stores one weekday as exactly 48 boolean flags
// (ecomax.ScheduleDay). This package isolates that bit layout from
// HH:MM semantics: Decode renders a day as a timestamp→preset map, and
// ApplyInterval marks a wall-clock range with a preset. Neither touches
// the device; committing pending edits is the owning schedule's job.
package schedule
