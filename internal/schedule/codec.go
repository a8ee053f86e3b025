package schedule

import (
	"fmt"
	"strconv"

	"github.com/emberlink/ecomax-bridge/internal/ecomax"
)

// Preset labels for schedule slots.
const (
	PresetDay   = "day"
	PresetNight = "night"
)

// minutesPerDay is the wall-clock span of one schedule day.
const minutesPerDay = 24 * 60

// Decode renders a day program as a map from slot start time
// ("HH:MM:SS", starting at "00:00:00", stepping 30 minutes) to the
// preset label active in that slot. Pure and total: every 48-slot day
// produces exactly 48 entries.
func Decode(day *ecomax.ScheduleDay) map[string]string {
	out := make(map[string]string, ecomax.SlotsPerDay)
	for i, active := range day.Slots {
		minutes := i * ecomax.SlotMinutes
		key := fmt.Sprintf("%02d:%02d:00", minutes/60, minutes%60)
		if active {
			out[key] = PresetDay
		} else {
			out[key] = PresetNight
		}
	}
	return out
}

// ApplyInterval marks every slot whose start time falls within
// [start, end) with the given preset. Times are same-day wall clock in
// "HH:MM" form; an end of "00:00" (or "24:00") means end of day.
//
// Unparsable times return ErrInvalidTimeRange and an unknown preset
// returns ErrInvalidPreset; the day is left unchanged in both cases.
// Edits are pending only; nothing is written to the device here.
func ApplyInterval(day *ecomax.ScheduleDay, preset, start, end string) error {
	var active bool
	switch preset {
	case PresetDay:
		active = true
	case PresetNight:
		active = false
	default:
		return fmt.Errorf("%w: %q", ErrInvalidPreset, preset)
	}

	startMin, err := parseClock(start)
	if err != nil {
		return fmt.Errorf("%w: start %q", ErrInvalidTimeRange, start)
	}

	endMin, err := parseClock(end)
	if err != nil {
		return fmt.Errorf("%w: end %q", ErrInvalidTimeRange, end)
	}

	// Midnight as an end bound means the end of the day, matching the
	// whole-day default interval of the service schema.
	if endMin == 0 {
		endMin = minutesPerDay
	}

	for i := range day.Slots {
		slotStart := i * ecomax.SlotMinutes
		if slotStart >= startMin && slotStart < endMin {
			day.Slots[i] = active
		}
	}

	return nil
}

// parseClock parses strict "HH:MM" wall-clock time into minutes past
// midnight. "24:00" is accepted as the end-of-day bound.
func parseClock(s string) (int, error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, fmt.Errorf("malformed time %q", s)
	}

	hh, err := strconv.Atoi(s[:2])
	if err != nil {
		return 0, fmt.Errorf("malformed time %q: %w", s, err)
	}

	mm, err := strconv.Atoi(s[3:])
	if err != nil {
		return 0, fmt.Errorf("malformed time %q: %w", s, err)
	}

	if hh == 24 && mm == 0 {
		return minutesPerDay, nil
	}
	if hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return 0, fmt.Errorf("time %q out of range", s)
	}

	return hh*60 + mm, nil
}
