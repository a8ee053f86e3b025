package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/emberlink/ecomax-bridge/internal/device"
)

// SensorRecorder persists sensor readings for time-series queries.
// This is typically implemented by an InfluxDB writer.
type SensorRecorder interface {
	WriteSensorMetric(device string, name string, value float64)
}

// TelemetryForwarder mirrors the controller's numeric sensor values
// onto retained state topics. Which values exist varies by model and
// firmware, so the set is taken from the live device at Start: every
// snapshot entry that currently holds a number gets a subscription.
// Non-numeric values (flags, lists, nested structures) are skipped.
type TelemetryForwarder struct {
	coordinator *Coordinator
	lookup      device.Lookup
	publisher   EventPublisher
	recorder    SensorRecorder
	logger      Logger

	cancels  []func()
	stopOnce sync.Once
}

// TelemetryForwarderConfig holds the collaborators for a
// TelemetryForwarder.
type TelemetryForwarderConfig struct {
	// Coordinator provides the device session and connection identity.
	// Required.
	Coordinator *Coordinator

	// Lookup resolves the controller's registry entry per reading.
	// Required.
	Lookup device.Lookup

	// Publisher delivers retained state messages. Required.
	Publisher EventPublisher

	// Recorder persists readings for history. Optional.
	Recorder SensorRecorder

	// Logger receives progress and errors. Optional.
	Logger Logger
}

// NewTelemetryForwarder creates a telemetry forwarder. Call Start after
// the coordinator's Setup has completed.
func NewTelemetryForwarder(cfg TelemetryForwarderConfig) *TelemetryForwarder {
	logger := cfg.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	return &TelemetryForwarder{
		coordinator: cfg.Coordinator,
		lookup:      cfg.Lookup,
		publisher:   cfg.Publisher,
		recorder:    cfg.Recorder,
		logger:      logger,
	}
}

// Start snapshots the controller and subscribes to every value that
// currently reads as a number.
func (f *TelemetryForwarder) Start() error {
	dev, err := f.coordinator.Device()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), valueTimeout)
	defer cancel()

	snapshot, err := dev.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("reading sensor snapshot: %w", err)
	}

	for name, value := range snapshot {
		if _, ok := asNumber(value); !ok {
			continue
		}
		f.cancels = append(f.cancels, dev.SubscribeChange(name, f.onReading(name)))
	}

	f.logger.Info("telemetry forwarder subscribed", "values", len(f.cancels))
	return nil
}

// Stop cancels all subscriptions. Safe to call more than once.
func (f *TelemetryForwarder) Stop() {
	f.stopOnce.Do(func() {
		for _, cancel := range f.cancels {
			cancel()
		}
		f.logger.Info("telemetry forwarder stopped")
	})
}

// onReading builds the change handler for one value name.
func (f *TelemetryForwarder) onReading(name string) func(any) {
	return func(value any) {
		reading, ok := asNumber(value)
		if !ok {
			return
		}

		// A controller not registered yet drops the reading; values
		// change continuously, so the next change catches up.
		info, err := f.lookup.GetByUID(f.coordinator.UID())
		if err != nil {
			f.logger.Warn("dropping sensor reading",
				"name", name,
				"error", fmt.Errorf("%w: %w", ErrDeviceResolution, err))
			return
		}

		payload, err := json.Marshal(StateMessage{
			Value:     reading,
			Timestamp: time.Now().UTC(),
		})
		if err != nil {
			f.logger.Error("encoding sensor reading", "name", name, "error", err)
			return
		}

		if err := f.publisher.Publish(StateTopic(info.ID, name), payload, 1, true); err != nil {
			f.logger.Error("publishing sensor reading", "name", name, "error", err)
		}

		if f.recorder != nil {
			f.recorder.WriteSensorMetric(info.ID, name, reading)
		}
	}
}

// asNumber reports whether a raw device value is a sensor reading.
func asNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
