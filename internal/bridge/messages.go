package bridge

import (
	"fmt"
	"time"
)

// MQTT message types for communication between the bridge and the
// rest of the ecosystem.

const (
	// TopicPrefix is the base topic for all bridge messages.
	TopicPrefix = "ecomax"

	// alertTimeFormat is the fixed wall-clock layout for alert
	// interval bounds.
	alertTimeFormat = "2006-01-02 15:04:05"
)

// AlertTopic returns the MQTT topic alert events are published under.
// Example: ecomax/event/alert
func AlertTopic() string {
	return fmt.Sprintf("%s/event/alert", TopicPrefix)
}

// StateTopic returns the retained MQTT topic a sensor reading is
// published under. Example: ecomax/state/ecomax-boiler/heating_temp
func StateTopic(deviceID, name string) string {
	return fmt.Sprintf("%s/state/%s/%s", TopicPrefix, deviceID, name)
}

// HealthTopic returns the MQTT topic for health status.
// Example: ecomax/health/bridge
func HealthTopic() string {
	return fmt.Sprintf("%s/health/bridge", TopicPrefix)
}

// StatusTopic returns the MQTT topic for lifecycle announcements.
// Example: ecomax/system/status
func StatusTopic() string {
	return fmt.Sprintf("%s/system/status", TopicPrefix)
}

// AlertEventMessage is one controller fault published to the event
// topic. One alert-state change produces one message per alert in the
// re-derived list.
type AlertEventMessage struct {
	// ID uniquely identifies this event.
	ID string `json:"id"`

	// Name is the human-readable title of the owning connection.
	Name string `json:"name"`

	// DeviceID is the registry identifier of the controller.
	DeviceID string `json:"device_id"`

	// Code is the controller fault code.
	Code int `json:"code"`

	// From is the alert start in "YYYY-MM-DD HH:MM:SS" form.
	From string `json:"from"`

	// To is the alert end in the same form, present only once the
	// alert has concluded.
	To string `json:"to,omitempty"`

	// Timestamp is when the event was emitted (UTC).
	Timestamp time.Time `json:"timestamp"`
}

// StateMessage is one sensor reading published retained on a state
// topic. Consumers joining late receive the last reading immediately.
type StateMessage struct {
	// Value is the numeric sensor reading.
	Value float64 `json:"value"`

	// Timestamp is when the reading was observed (UTC).
	Timestamp time.Time `json:"timestamp"`
}

// FormatAlertTime renders an alert interval bound in the fixed event
// layout.
func FormatAlertTime(t time.Time) string {
	return t.Format(alertTimeFormat)
}

// HealthStatus represents the operational status of the bridge.
type HealthStatus string

const (
	// HealthHealthy indicates the bridge is operating normally.
	HealthHealthy HealthStatus = "healthy"

	// HealthDegraded indicates the bridge is operating with issues.
	HealthDegraded HealthStatus = "degraded"

	// HealthOffline indicates the bridge is not connected (from LWT).
	HealthOffline HealthStatus = "offline"

	// HealthStarting indicates the bridge is starting up.
	HealthStarting HealthStatus = "starting"

	// HealthStopping indicates the bridge is shutting down.
	HealthStopping HealthStatus = "stopping"
)

// HealthMessage reports bridge health.
// Topic: ecomax/health/bridge
// QoS: 1, Retained: Yes
type HealthMessage struct {
	// Bridge is the bridge identifier.
	Bridge string `json:"bridge"`

	// Timestamp is when the health status was generated (UTC).
	Timestamp time.Time `json:"timestamp"`

	// Status indicates the current operational status.
	Status HealthStatus `json:"status"`

	// Version is the bridge software version.
	Version string `json:"version"`

	// UptimeSeconds is how long the bridge has been running.
	UptimeSeconds int64 `json:"uptime_seconds"`

	// Connection describes the controller session.
	Connection *ConnectionStatus `json:"connection,omitempty"`

	// DevicesManaged is the controller plus its registered
	// sub-devices.
	DevicesManaged int `json:"devices_managed"`

	// Reason explains the status (especially for offline/degraded).
	Reason string `json:"reason,omitempty"`
}

// ConnectionStatus describes the controller session state.
type ConnectionStatus struct {
	// Status is "connected" or "disconnected".
	Status string `json:"status"`

	// Address is the serial port or network endpoint.
	Address string `json:"address"`
}

// NewLWTMessage creates the Last Will and Testament payload the
// broker publishes if the bridge disconnects unexpectedly.
func NewLWTMessage(bridgeID string) HealthMessage {
	return HealthMessage{
		Bridge:    bridgeID,
		Timestamp: time.Now().UTC(),
		Status:    HealthOffline,
		Reason:    "unexpected_disconnect",
	}
}
