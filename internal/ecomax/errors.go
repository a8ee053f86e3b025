package ecomax

import "errors"

// Sentinel errors implementations must return so callers can
// distinguish failure modes with errors.Is().
var (
	// ErrValueNotFound is returned by Get when the named top-level
	// value does not exist on the device. Distinct from a timeout,
	// which surfaces as the context error.
	ErrValueNotFound = errors.New("ecomax: value not found")

	// ErrParameterNotFound is returned by Parameter/SetParameter when
	// the named parameter is absent on the target device.
	ErrParameterNotFound = errors.New("ecomax: parameter not found")

	// ErrDayNotFound is returned by Schedule.Day for a name that is
	// not one of the seven weekdays.
	ErrDayNotFound = errors.New("ecomax: schedule day not found")

	// ErrNotConnected is returned for device access before Open or
	// after Close.
	ErrNotConnected = errors.New("ecomax: connection not open")

	// ErrDeviceUnresponsive is what callers wrap a device-call timeout
	// into before reporting it upward. The layer that owns the timeout
	// translates context.DeadlineExceeded into this.
	ErrDeviceUnresponsive = errors.New("ecomax: device unresponsive")
)
