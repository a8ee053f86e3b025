package bridge

import (
	"context"
	"errors"
	"testing"

	"github.com/emberlink/ecomax-bridge/internal/ecomax"
	"github.com/emberlink/ecomax-bridge/internal/schedule"
)

func serviceFixture(t *testing.T) (*Services, *fakeDevice) {
	t.Helper()

	dev := testDevice()
	dev.params = map[string]ecomax.Parameter{
		"heating_target_temp": {Name: "heating_target_temp", Value: 65, Min: 40, Max: 85},
	}
	mixer0 := dev.mixers[0].(*fakeMixer)
	mixer0.params = map[string]ecomax.Parameter{
		"mixer_target_temp": {Name: "mixer_target_temp", Value: 40, Min: 30, Max: 60},
	}
	mixer1 := dev.mixers[1].(*fakeMixer)
	mixer1.params = map[string]ecomax.Parameter{
		"mixer_target_temp": {Name: "mixer_target_temp", Value: 35, Min: 30, Max: 60},
	}

	c, _ := setupCoordinator(t, dev)
	return NewServices(c, nil), dev
}

func TestGetParameterMainDevice(t *testing.T) {
	svc, _ := serviceFixture(t)

	results, err := svc.GetParameter(context.Background(), "heating_target_temp", nil)
	if err != nil {
		t.Fatalf("GetParameter: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}

	got := results[0]
	if got.Value != 65 || got.MinValue != 40 || got.MaxValue != 85 {
		t.Errorf("parameter values = %+v", got)
	}
	if got.DeviceType != "ecomax" || got.DeviceIndex != 0 {
		t.Errorf("device fields = %+v", got)
	}
	if got.DeviceUID != "UID123" {
		t.Errorf("device uid = %q", got.DeviceUID)
	}
}

func TestGetParameterFanOut(t *testing.T) {
	svc, _ := serviceFixture(t)

	selectors := []string{"UID123-mixer-0", "UID123-mixer-1"}
	results, err := svc.GetParameter(context.Background(), "mixer_target_temp", selectors)
	if err != nil {
		t.Fatalf("GetParameter: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}

	// Sorted by device index, mixers are one-based.
	if results[0].DeviceIndex != 1 || results[1].DeviceIndex != 2 {
		t.Errorf("indices = %d, %d", results[0].DeviceIndex, results[1].DeviceIndex)
	}
	for _, r := range results {
		if r.DeviceType != "mixer" {
			t.Errorf("device type = %q", r.DeviceType)
		}
	}
}

func TestGetParameterPartialFailure(t *testing.T) {
	svc, _ := serviceFixture(t)

	// Mixer 1 knows the parameter; the main device does not. The
	// aggregate succeeds with the one usable result.
	selectors := []string{"UID123", "UID123-mixer-1"}
	results, err := svc.GetParameter(context.Background(), "mixer_target_temp", selectors)
	if err != nil {
		t.Fatalf("GetParameter: %v", err)
	}
	if len(results) != 1 || results[0].DeviceIndex != 2 {
		t.Fatalf("results = %+v", results)
	}
}

func TestGetParameterAllFailed(t *testing.T) {
	svc, _ := serviceFixture(t)

	_, err := svc.GetParameter(context.Background(), "no_such_parameter", nil)
	if !errors.Is(err, ErrAllDevicesFailed) {
		t.Fatalf("error = %v, want ErrAllDevicesFailed", err)
	}
}

func TestGetParameterDuplicateSelectorsCollapse(t *testing.T) {
	svc, _ := serviceFixture(t)

	// Unknown mixer indices fall back to the main device; all four
	// selectors resolve there and produce a single result.
	selectors := []string{"UID123", "UID123-mixer-7", "UID123-mixer-8", "UID123"}
	results, err := svc.GetParameter(context.Background(), "heating_target_temp", selectors)
	if err != nil {
		t.Fatalf("GetParameter: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("results = %d, want 1 (deduplicated)", len(results))
	}
}

func TestSetParameter(t *testing.T) {
	svc, dev := serviceFixture(t)

	err := svc.SetParameter(context.Background(), "heating_target_temp", 70, nil)
	if err != nil {
		t.Fatalf("SetParameter: %v", err)
	}
	if got := dev.setCalls["heating_target_temp"]; got != 70 {
		t.Errorf("written value = %v, want 70", got)
	}
}

func TestSetParameterAllFailed(t *testing.T) {
	svc, dev := serviceFixture(t)
	dev.setRefused = true

	err := svc.SetParameter(context.Background(), "heating_target_temp", 70, nil)
	if !errors.Is(err, ErrAllDevicesFailed) {
		t.Fatalf("error = %v, want ErrAllDevicesFailed", err)
	}
}

func scheduleFixture(t *testing.T) (*Services, *fakeSchedule) {
	t.Helper()

	dev := testDevice()
	heating := &fakeSchedule{days: map[string]*ecomax.ScheduleDay{}}
	for _, weekday := range ecomax.Weekdays {
		heating.days[weekday] = &ecomax.ScheduleDay{}
	}
	dev.schedules = map[string]ecomax.Schedule{ScheduleHeating: heating}

	c, _ := setupCoordinator(t, dev)
	return NewServices(c, nil), heating
}

func TestGetSchedule(t *testing.T) {
	svc, heating := scheduleFixture(t)
	heating.days["monday"].Slots[16] = true

	got, err := svc.GetSchedule(context.Background(), ScheduleHeating, []string{"monday", "tuesday"})
	if err != nil {
		t.Fatalf("GetSchedule: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("weekdays = %d, want 2", len(got))
	}
	if got["monday"]["08:00:00"] != schedule.PresetDay {
		t.Errorf("monday 08:00:00 = %q", got["monday"]["08:00:00"])
	}
	if got["monday"]["08:30:00"] != schedule.PresetNight {
		t.Errorf("monday 08:30:00 = %q", got["monday"]["08:30:00"])
	}
	if len(got["tuesday"]) != ecomax.SlotsPerDay {
		t.Errorf("tuesday entries = %d", len(got["tuesday"]))
	}
}

func TestGetScheduleUnsupportedType(t *testing.T) {
	svc, _ := scheduleFixture(t)

	_, err := svc.GetSchedule(context.Background(), ScheduleWaterHeater, []string{"monday"})
	if !errors.Is(err, ErrScheduleNotSupported) {
		t.Fatalf("error = %v, want ErrScheduleNotSupported", err)
	}
}

func TestSetSchedule(t *testing.T) {
	svc, heating := scheduleFixture(t)

	err := svc.SetSchedule(context.Background(), SetScheduleRequest{
		Type:     ScheduleHeating,
		Weekdays: []string{"monday", "friday"},
		Preset:   schedule.PresetDay,
		Start:    "08:00:00",
		End:      "10:00:00",
	})
	if err != nil {
		t.Fatalf("SetSchedule: %v", err)
	}

	for _, weekday := range []string{"monday", "friday"} {
		day := heating.days[weekday]
		for slot := 16; slot < 20; slot++ {
			if !day.Slots[slot] {
				t.Errorf("%s slot %d not set", weekday, slot)
			}
		}
		if day.Slots[15] || day.Slots[20] {
			t.Errorf("%s interval bounds leaked", weekday)
		}
	}
	if heating.days["tuesday"].Slots[16] {
		t.Error("unrequested weekday modified")
	}
	if heating.commits != 1 {
		t.Errorf("commits = %d, want 1", heating.commits)
	}
}

func TestSetScheduleInvalidTime(t *testing.T) {
	svc, heating := scheduleFixture(t)

	err := svc.SetSchedule(context.Background(), SetScheduleRequest{
		Type:     ScheduleHeating,
		Weekdays: []string{"monday"},
		Preset:   schedule.PresetDay,
		Start:    "half past eight",
		End:      "10:00:00",
	})
	if !errors.Is(err, schedule.ErrInvalidTimeRange) {
		t.Fatalf("error = %v, want ErrInvalidTimeRange", err)
	}
	if heating.commits != 0 {
		t.Error("commit ran despite validation failure")
	}
}

func TestSetScheduleUnknownWeekday(t *testing.T) {
	svc, heating := scheduleFixture(t)

	err := svc.SetSchedule(context.Background(), SetScheduleRequest{
		Type:     ScheduleHeating,
		Weekdays: []string{"someday"},
		Preset:   schedule.PresetDay,
		Start:    "08:00:00",
		End:      "10:00:00",
	})
	if !errors.Is(err, ecomax.ErrDayNotFound) {
		t.Fatalf("error = %v, want ErrDayNotFound", err)
	}
	if heating.commits != 0 {
		t.Error("commit ran despite bad weekday")
	}
}
