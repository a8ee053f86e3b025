package capability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/emberlink/ecomax-bridge/internal/ecomax"
)

// DefaultTimeout bounds one full discovery traversal, including the
// wait for the device's loaded signal.
const DefaultTimeout = 60 * time.Second

// Logger defines the logging interface used by the Discoverer.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Discoverer walks a live device once and produces its capability Set.
type Discoverer struct {
	// Timeout bounds the whole traversal. Zero means DefaultTimeout.
	Timeout time.Duration

	// Logger receives discovery progress. Nil means no logging.
	Logger Logger
}

// Discover reads the device snapshot and derives the capability set:
// every top-level value name becomes a base token, every mixer
// attribute becomes a "mixer_{index}_{attribute}" token, and the
// presence of a water heater temperature reading adds the synthetic
// water_heater token.
//
// A timeout anywhere in the traversal returns ErrDeviceUnresponsive
// and no set at all; a partial result is never returned.
func (d *Discoverer) Discover(ctx context.Context, dev ecomax.Device) (*Set, error) {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	logger := d.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := dev.WaitFor(ctx, ecomax.ValueLoaded); err != nil {
		return nil, wrapTimeout("waiting for device load", err)
	}

	snapshot, err := dev.Snapshot(ctx)
	if err != nil {
		return nil, wrapTimeout("reading device snapshot", err)
	}

	set := New()
	for name := range snapshot {
		set.AddValue(name)
	}

	mixers, err := dev.Mixers(ctx)
	if err != nil && !errors.Is(err, ecomax.ErrValueNotFound) {
		return nil, wrapTimeout("reading mixer collection", err)
	}
	for index, mixer := range mixers {
		attrs, err := mixer.Snapshot(ctx)
		if err != nil {
			return nil, wrapTimeout(fmt.Sprintf("reading mixer %d", index), err)
		}
		for attr := range attrs {
			set.AddMixerAttribute(index, attr)
		}
	}

	if set.Has(ecomax.ValueWaterHeaterTemp) {
		set.AddValue(TokenWaterHeater)
	}

	logger.Info("capability discovery complete",
		"tokens", set.Len(),
		"mixers", len(set.mixers),
		"water_heater", set.HasWaterHeater())

	return set, nil
}

// wrapTimeout maps a deadline expiry onto ErrDeviceUnresponsive while
// leaving other failures intact.
func wrapTimeout(stage string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", stage, ecomax.ErrDeviceUnresponsive)
	}
	return fmt.Errorf("%s: %w", stage, err)
}
