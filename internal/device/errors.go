package device

import "errors"

// Domain errors for the device package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, device.ErrNotFound) {
//	    // identifier not registered yet
//	}
var (
	// ErrNotFound is returned when no device matches the identifier.
	ErrNotFound = errors.New("device: not found")

	// ErrUIDConflict is returned when registering a device whose UID
	// is already held by a different registry entry.
	ErrUIDConflict = errors.New("device: uid already registered")
)
