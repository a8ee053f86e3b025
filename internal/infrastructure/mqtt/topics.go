package mqtt

import "fmt"

// Topic prefixes for the bridge MQTT namespace.
//
// All topics use the flat scheme: ecomax/{category}/{device_or_kind}
const (
	// TopicPrefix is the base for all bridge topics.
	TopicPrefix = "ecomax"

	// TopicPrefixSystem is the base for system topics.
	TopicPrefixSystem = "ecomax/system"
)

// Topics provides builders for the bridge MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	stateTopic := topics.State("ecomax", "heating_target_temp")
//	// Returns: "ecomax/state/ecomax/heating_target_temp"
type Topics struct{}

// State returns the topic for parameter and sensor state updates.
//
// Example: ecomax/state/ecomax/heating_target_temp
func (Topics) State(device, name string) string {
	return fmt.Sprintf("%s/state/%s/%s", TopicPrefix, device, name)
}

// EventAlert returns the topic controller alert events are published under.
//
// Example: ecomax/event/alert
func (Topics) EventAlert() string {
	return fmt.Sprintf("%s/event/alert", TopicPrefix)
}

// Health returns the topic for bridge health status.
//
// Example: ecomax/health/bridge
func (Topics) Health() string {
	return fmt.Sprintf("%s/health/bridge", TopicPrefix)
}

// SystemStatus returns the lifecycle announcement topic.
//
// Example: ecomax/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// AllStates returns a pattern matching all state updates.
//
// Pattern: ecomax/state/+/+
func (Topics) AllStates() string {
	return fmt.Sprintf("%s/state/+/+", TopicPrefix)
}

// AllEvents returns a pattern matching all event topics.
//
// Pattern: ecomax/event/+
func (Topics) AllEvents() string {
	return fmt.Sprintf("%s/event/+", TopicPrefix)
}

// AllTopics returns a pattern matching the entire bridge namespace.
// Use with caution - this receives ALL traffic.
//
// Pattern: ecomax/#
func (Topics) AllTopics() string {
	return "ecomax/#"
}
