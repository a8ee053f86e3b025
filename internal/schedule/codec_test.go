package schedule

import (
	"errors"
	"testing"

	"github.com/emberlink/ecomax-bridge/internal/ecomax"
)

func TestDecodeProducesAllSlots(t *testing.T) {
	var day ecomax.ScheduleDay
	day.Slots[0] = true
	day.Slots[47] = true

	got := Decode(&day)

	if len(got) != ecomax.SlotsPerDay {
		t.Fatalf("expected %d entries, got %d", ecomax.SlotsPerDay, len(got))
	}
	if got["00:00:00"] != PresetDay {
		t.Errorf("slot 00:00:00 = %q, want %q", got["00:00:00"], PresetDay)
	}
	if got["00:30:00"] != PresetNight {
		t.Errorf("slot 00:30:00 = %q, want %q", got["00:30:00"], PresetNight)
	}
	if got["23:30:00"] != PresetDay {
		t.Errorf("slot 23:30:00 = %q, want %q", got["23:30:00"], PresetDay)
	}
}

func TestApplyIntervalMarksSlots(t *testing.T) {
	tests := []struct {
		name   string
		start  string
		end    string
		active []int
	}{
		{"one hour", "08:00", "09:00", []int{16, 17}},
		{"two hours end exclusive", "08:00", "10:00", []int{16, 17, 18, 19}},
		{"single slot", "00:00", "00:30", []int{0}},
		{"mid slot start excluded", "08:15", "09:00", []int{17}},
		{"end of day", "23:00", "00:00", []int{46, 47}},
		{"explicit end of day", "23:30", "24:00", []int{47}},
		{"empty interval", "10:00", "10:00", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var day ecomax.ScheduleDay
			if err := ApplyInterval(&day, PresetDay, tt.start, tt.end); err != nil {
				t.Fatalf("ApplyInterval: %v", err)
			}

			want := make(map[int]bool, len(tt.active))
			for _, i := range tt.active {
				want[i] = true
			}
			for i, active := range day.Slots {
				if active != want[i] {
					t.Errorf("slot %d = %v, want %v", i, active, want[i])
				}
			}
		})
	}
}

func TestApplyIntervalWholeDayRoundTrip(t *testing.T) {
	var day ecomax.ScheduleDay
	if err := ApplyInterval(&day, PresetDay, "00:00", "00:00"); err != nil {
		t.Fatalf("ApplyInterval: %v", err)
	}

	for key, preset := range Decode(&day) {
		if preset != PresetDay {
			t.Errorf("slot %s = %q, want %q", key, preset, PresetDay)
		}
	}
}

func TestApplyIntervalNightClearsSlots(t *testing.T) {
	var day ecomax.ScheduleDay
	for i := range day.Slots {
		day.Slots[i] = true
	}

	if err := ApplyInterval(&day, PresetNight, "12:00", "13:00"); err != nil {
		t.Fatalf("ApplyInterval: %v", err)
	}

	if day.Slots[24] || day.Slots[25] {
		t.Error("expected slots 24 and 25 cleared")
	}
	if !day.Slots[23] || !day.Slots[26] {
		t.Error("expected surrounding slots untouched")
	}
}

func TestApplyIntervalRejectsBadInput(t *testing.T) {
	tests := []struct {
		name    string
		preset  string
		start   string
		end     string
		wantErr error
	}{
		{"unknown preset", "auto", "08:00", "09:00", ErrInvalidPreset},
		{"malformed start", PresetDay, "8am", "09:00", ErrInvalidTimeRange},
		{"malformed end", PresetDay, "08:00", "9", ErrInvalidTimeRange},
		{"hour out of range", PresetDay, "25:00", "26:00", ErrInvalidTimeRange},
		{"minute out of range", PresetDay, "08:61", "09:00", ErrInvalidTimeRange},
		{"seconds not accepted", PresetDay, "08:00:00", "09:00", ErrInvalidTimeRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var day ecomax.ScheduleDay
			err := ApplyInterval(&day, tt.preset, tt.start, tt.end)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ApplyInterval error = %v, want %v", err, tt.wantErr)
			}
			for i, active := range day.Slots {
				if active {
					t.Fatalf("slot %d modified despite error", i)
				}
			}
		})
	}
}
