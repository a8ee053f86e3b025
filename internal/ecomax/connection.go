package ecomax

import "context"

// Connection is a single session to one physical controller, reached
// over a serial port or a TCP socket. The bridge holds exactly one and
// lists only the operations it actually uses; the protocol library's
// wider surface stays hidden behind this interface.
type Connection interface {
	// Open establishes the session. It must be called once before any
	// device access.
	Open(ctx context.Context) error

	// Close tears the session down. Implementations must tolerate a
	// second call as a no-op.
	Close() error

	// Device returns a handle for a named addressable unit, waiting
	// until the unit has been seen on the wire or ctx expires.
	// DeviceMain is the controller itself.
	Device(ctx context.Context, name string) (Device, error)

	// Host describes the endpoint ("/dev/ttyUSB0", "boiler.local:8899")
	// for logging and diagnostics.
	Host() string
}

// Device is the main controller unit: a read-only snapshot of named
// values plus parameter, schedule and change-subscription access.
type Device interface {
	ParameterAccessor

	// WaitFor blocks until the named value becomes available or ctx
	// expires. Used to force the "loaded" signal before traversal.
	WaitFor(ctx context.Context, name string) error

	// Get reads one named top-level value. Returns ErrValueNotFound
	// for unknown names and the context error on timeout.
	Get(ctx context.Context, name string) (any, error)

	// Snapshot returns a read-only copy of every addressable value
	// currently known for the device.
	Snapshot(ctx context.Context) (map[string]any, error)

	// Mixers returns the mixer sub-devices keyed by index, or an
	// empty map when none are installed.
	Mixers(ctx context.Context) (map[int]SubDevice, error)

	// Product reads the controller's identity block.
	Product(ctx context.Context) (ProductInfo, error)

	// Schedules returns the weekly schedules keyed by schedule type
	// ("heating", "water_heater").
	Schedules(ctx context.Context) (map[string]Schedule, error)

	// SubscribeChange registers fn for edge-triggered notifications of
	// the named value: fn fires only when the value actually changes.
	// The returned cancel func removes the subscription and is safe to
	// call more than once.
	SubscribeChange(name string, fn func(value any)) (cancel func())
}

// SubDevice is an indexed sub-unit of the controller (a mixer circuit).
type SubDevice interface {
	ParameterAccessor

	// Index is the zero-based position of the sub-device.
	Index() int

	// Snapshot returns a read-only copy of the sub-device's values.
	Snapshot(ctx context.Context) (map[string]any, error)
}

// ParameterAccessor is the parameter surface shared by the main unit
// and its sub-devices.
type ParameterAccessor interface {
	// Parameter reads a named parameter with its range. Returns
	// ErrParameterNotFound when the name is absent on this device,
	// distinct from a context timeout.
	Parameter(ctx context.Context, name string) (Parameter, error)

	// SetParameter writes a named parameter. The boolean reports
	// whether the controller confirmed the write.
	SetParameter(ctx context.Context, name string, value float64) (bool, error)
}
