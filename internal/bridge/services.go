package bridge

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/emberlink/ecomax-bridge/internal/ecomax"
	"github.com/emberlink/ecomax-bridge/internal/schedule"
)

// Device type labels in parameter results.
const (
	deviceTypeMain  = "ecomax"
	deviceTypeMixer = "mixer"
)

// Schedule types the controller may expose.
const (
	ScheduleHeating     = "heating"
	ScheduleWaterHeater = "water_heater"
)

// ParameterResult is one device's answer inside a get-parameter call.
type ParameterResult struct {
	Name     string  `json:"name"`
	Value    float64 `json:"value"`
	MinValue float64 `json:"min_value"`
	MaxValue float64 `json:"max_value"`

	// DeviceType is "ecomax" for the controller, "mixer" for a
	// sub-device.
	DeviceType string `json:"device_type"`

	// DeviceUID is the owning controller's serial number.
	DeviceUID string `json:"device_uid"`

	// DeviceIndex is the one-based mixer position, 0 for the
	// controller itself.
	DeviceIndex int `json:"device_index"`
}

// SetScheduleRequest describes one set-schedule call. Start and End
// use "HH:MM:SS" wall-clock form; both defaulting to "00:00:00" spans
// the whole day.
type SetScheduleRequest struct {
	Type     string   `json:"type"`
	Weekdays []string `json:"weekdays"`
	Preset   string   `json:"preset"`
	Start    string   `json:"start"`
	End      string   `json:"end"`
}

// Services implements the four callable operations the host exposes
// for this bridge.
type Services struct {
	coordinator *Coordinator
	logger      Logger
}

// NewServices creates the service layer over a coordinator.
func NewServices(c *Coordinator, logger Logger) *Services {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Services{coordinator: c, logger: logger}
}

// resolveTargets maps selectors onto their unique target devices. An
// empty selector list addresses the main controller.
func (s *Services) resolveTargets(ctx context.Context, selectors []string) ([]ecomax.ParameterAccessor, error) {
	if len(selectors) == 0 {
		dev, err := s.coordinator.Device()
		if err != nil {
			return nil, err
		}
		return []ecomax.ParameterAccessor{dev}, nil
	}

	seen := make(map[ecomax.ParameterAccessor]struct{}, len(selectors))
	targets := make([]ecomax.ParameterAccessor, 0, len(selectors))
	for _, selector := range selectors {
		target, err := s.coordinator.ResolveDevice(ctx, selector)
		if err != nil {
			return nil, err
		}
		if _, ok := seen[target]; ok {
			continue
		}
		seen[target] = struct{}{}
		targets = append(targets, target)
	}
	return targets, nil
}

// GetParameter reads one named parameter from every resolved target
// device concurrently. Devices where the name is absent or the read
// times out are logged and excluded; the call fails only when no
// device produced a result.
func (s *Services) GetParameter(ctx context.Context, name string, selectors []string) ([]ParameterResult, error) {
	targets, err := s.resolveTargets(ctx, selectors)
	if err != nil {
		return nil, err
	}

	uid := s.coordinator.UID()

	var (
		mu      sync.Mutex
		results []ParameterResult
		wg      sync.WaitGroup
	)
	for _, target := range targets {
		wg.Add(1)
		go func(target ecomax.ParameterAccessor) {
			defer wg.Done()

			callCtx, cancel := context.WithTimeout(ctx, valueTimeout)
			defer cancel()

			param, err := target.Parameter(callCtx, name)
			if err != nil {
				s.logger.Warn("parameter read failed",
					"name", name, "error", err)
				return
			}

			result := ParameterResult{
				Name:       name,
				Value:      param.Value,
				MinValue:   param.Min,
				MaxValue:   param.Max,
				DeviceType: deviceTypeMain,
				DeviceUID:  uid,
			}
			if sub, ok := target.(ecomax.SubDevice); ok {
				result.DeviceType = deviceTypeMixer
				result.DeviceIndex = sub.Index() + 1
			}

			mu.Lock()
			results = append(results, result)
			mu.Unlock()
		}(target)
	}
	wg.Wait()

	if len(results) == 0 {
		return nil, fmt.Errorf("%w: get parameter %q", ErrAllDevicesFailed, name)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].DeviceIndex < results[j].DeviceIndex
	})
	return results, nil
}

// SetParameter writes one named parameter on every resolved target
// device concurrently. Per-device failures are logged and skipped;
// the call fails only when no device accepted the write.
func (s *Services) SetParameter(ctx context.Context, name string, value float64, selectors []string) error {
	targets, err := s.resolveTargets(ctx, selectors)
	if err != nil {
		return err
	}

	var (
		succeeded int
		mu        sync.Mutex
		wg        sync.WaitGroup
	)
	for _, target := range targets {
		wg.Add(1)
		go func(target ecomax.ParameterAccessor) {
			defer wg.Done()

			callCtx, cancel := context.WithTimeout(ctx, valueTimeout)
			defer cancel()

			ok, err := target.SetParameter(callCtx, name, value)
			if err != nil {
				s.logger.Warn("parameter write failed",
					"name", name, "value", value, "error", err)
				return
			}
			if ok {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}(target)
	}
	wg.Wait()

	if succeeded == 0 {
		return fmt.Errorf("%w: set parameter %q", ErrAllDevicesFailed, name)
	}
	return nil
}

// GetSchedule renders the requested weekdays of one schedule type as
// time-of-day preset maps.
func (s *Services) GetSchedule(ctx context.Context, scheduleType string, weekdays []string) (map[string]map[string]string, error) {
	sched, err := s.deviceSchedule(ctx, scheduleType)
	if err != nil {
		return nil, err
	}

	out := make(map[string]map[string]string, len(weekdays))
	for _, weekday := range weekdays {
		day, err := sched.Day(weekday)
		if err != nil {
			return nil, fmt.Errorf("%s schedule: %w", scheduleType, err)
		}
		out[weekday] = schedule.Decode(day)
	}
	return out, nil
}

// SetSchedule applies one preset interval to the requested weekdays
// and commits the edit to the device. Interval validation happens
// before any slot is touched, so a bad time range changes nothing.
func (s *Services) SetSchedule(ctx context.Context, req SetScheduleRequest) error {
	sched, err := s.deviceSchedule(ctx, req.Type)
	if err != nil {
		return err
	}

	start := trimSeconds(req.Start)
	end := trimSeconds(req.End)

	for _, weekday := range req.Weekdays {
		day, err := sched.Day(weekday)
		if err != nil {
			return fmt.Errorf("%s schedule: %w", req.Type, err)
		}
		if err := schedule.ApplyInterval(day, req.Preset, start, end); err != nil {
			return fmt.Errorf("%s schedule: %w", req.Type, err)
		}
	}

	commitCtx, cancel := context.WithTimeout(ctx, valueTimeout)
	defer cancel()

	if err := sched.Commit(commitCtx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %w", ecomax.ErrDeviceUnresponsive, err)
		}
		return fmt.Errorf("committing %s schedule: %w", req.Type, err)
	}
	return nil
}

// deviceSchedule reads the schedule collection and picks one type.
func (s *Services) deviceSchedule(ctx context.Context, scheduleType string) (ecomax.Schedule, error) {
	dev, err := s.coordinator.Device()
	if err != nil {
		return nil, err
	}

	readCtx, cancel := context.WithTimeout(ctx, valueTimeout)
	defer cancel()

	schedules, err := dev.Schedules(readCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %w", ecomax.ErrDeviceUnresponsive, err)
		}
		return nil, fmt.Errorf("reading schedules: %w", err)
	}

	sched, ok := schedules[scheduleType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrScheduleNotSupported, scheduleType)
	}
	return sched, nil
}

// trimSeconds reduces "HH:MM:SS" to "HH:MM"; shorter values pass
// through for the codec to validate.
func trimSeconds(s string) string {
	if len(s) == 8 && s[5] == ':' {
		return s[:5]
	}
	return s
}
