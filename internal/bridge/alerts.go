package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/emberlink/ecomax-bridge/internal/device"
	"github.com/emberlink/ecomax-bridge/internal/ecomax"
)

// EventPublisher is the interface for publishing event messages.
// This is typically implemented by an MQTT client.
type EventPublisher interface {
	// Publish sends a message to a topic with the specified QoS and
	// retention.
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// AlertRecorder persists emitted alert events for history queries.
// This is typically implemented by an InfluxDB writer.
type AlertRecorder interface {
	RecordAlert(ctx context.Context, event AlertEventMessage) error
}

// AlertBridge forwards controller alerts onto the event bus. It
// subscribes once to the controller's pending-alerts flag; the
// subscription is edge-triggered, so a batch of events is emitted only
// when the flag actually flips, and the concrete alert list is
// re-derived from the device on each change.
type AlertBridge struct {
	coordinator *Coordinator
	lookup      device.Lookup
	publisher   EventPublisher
	recorder    AlertRecorder
	logger      Logger

	cancel   func()
	stopOnce sync.Once
}

// AlertBridgeConfig holds the collaborators for an AlertBridge.
type AlertBridgeConfig struct {
	// Coordinator provides the device session and connection identity.
	// Required.
	Coordinator *Coordinator

	// Lookup resolves the controller's registry entry per batch.
	// Required.
	Lookup device.Lookup

	// Publisher delivers events to the bus. Required.
	Publisher EventPublisher

	// Recorder persists events for history. Optional.
	Recorder AlertRecorder

	// Logger receives progress and errors. Optional.
	Logger Logger
}

// NewAlertBridge creates an alert bridge. Call Start after the
// coordinator's Setup has completed.
func NewAlertBridge(cfg AlertBridgeConfig) *AlertBridge {
	logger := cfg.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	return &AlertBridge{
		coordinator: cfg.Coordinator,
		lookup:      cfg.Lookup,
		publisher:   cfg.Publisher,
		recorder:    cfg.Recorder,
		logger:      logger,
	}
}

// Start subscribes to the controller's alert state.
func (b *AlertBridge) Start() error {
	dev, err := b.coordinator.Device()
	if err != nil {
		return err
	}

	b.cancel = dev.SubscribeChange(ecomax.ValuePendingAlerts, b.onAlertChange)
	b.logger.Info("alert bridge subscribed", "topic", AlertTopic())
	return nil
}

// Stop cancels the subscription. Safe to call more than once.
func (b *AlertBridge) Stop() {
	b.stopOnce.Do(func() {
		if b.cancel != nil {
			b.cancel()
		}
		b.logger.Info("alert bridge stopped")
	})
}

// onAlertChange handles one flip of the pending-alerts flag.
func (b *AlertBridge) onAlertChange(_ any) {
	ctx, cancel := context.WithTimeout(context.Background(), valueTimeout)
	defer cancel()

	alerts, err := b.currentAlerts(ctx)
	if err != nil {
		b.logger.Error("reading alert list", "error", err)
		return
	}
	if len(alerts) == 0 {
		return
	}

	// The whole batch shares one registry resolution; a controller
	// not registered yet drops the batch, the next change retries.
	info, err := b.lookup.GetByUID(b.coordinator.UID())
	if err != nil {
		b.logger.Warn("dropping alert batch",
			"uid", b.coordinator.UID(),
			"alerts", len(alerts),
			"error", fmt.Errorf("%w: %w", ErrDeviceResolution, err))
		return
	}

	name := b.coordinator.Name()
	for _, alert := range alerts {
		event := AlertEventMessage{
			ID:        uuid.New().String(),
			Name:      name,
			DeviceID:  info.ID,
			Code:      alert.Code,
			From:      FormatAlertTime(alert.From),
			Timestamp: time.Now().UTC(),
		}
		if alert.To != nil {
			event.To = FormatAlertTime(*alert.To)
		}
		b.emit(ctx, event)
	}
}

// currentAlerts re-derives the alert list from the device.
func (b *AlertBridge) currentAlerts(ctx context.Context) ([]ecomax.Alert, error) {
	dev, err := b.coordinator.Device()
	if err != nil {
		return nil, err
	}

	value, err := dev.Get(ctx, ecomax.ValueAlerts)
	if err != nil {
		if errors.Is(err, ecomax.ErrValueNotFound) {
			return nil, nil
		}
		return nil, err
	}

	alerts, ok := value.([]ecomax.Alert)
	if !ok {
		return nil, fmt.Errorf("unexpected alert list type %T", value)
	}
	return alerts, nil
}

func (b *AlertBridge) emit(ctx context.Context, event AlertEventMessage) {
	payload, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("encoding alert event", "error", err)
		return
	}

	if err := b.publisher.Publish(AlertTopic(), payload, 1, false); err != nil {
		b.logger.Error("publishing alert event",
			"code", event.Code, "error", err)
	}

	if b.recorder != nil {
		if err := b.recorder.RecordAlert(ctx, event); err != nil {
			b.logger.Warn("recording alert event",
				"code", event.Code, "error", err)
		}
	}
}
