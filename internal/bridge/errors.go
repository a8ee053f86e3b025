package bridge

import "errors"

// Domain errors for the bridge package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, bridge.ErrNotReady) {
//	    // retry setup later
//	}
var (
	// ErrNotReady is returned for device access before Setup has
	// completed, and wraps setup failures caused by an unresponsive
	// controller so the host can retry.
	ErrNotReady = errors.New("bridge: device not ready")

	// ErrAllDevicesFailed is returned when a parameter operation
	// produced no usable result on any resolved target device.
	ErrAllDevicesFailed = errors.New("bridge: operation failed on all target devices")

	// ErrScheduleNotSupported is returned when the requested schedule
	// type is absent on the device.
	ErrScheduleNotSupported = errors.New("bridge: schedule type not supported by device")

	// ErrDeviceResolution is returned when a registry lookup for an
	// event's device fails; the event batch is dropped.
	ErrDeviceResolution = errors.New("bridge: registry device not resolved")
)
