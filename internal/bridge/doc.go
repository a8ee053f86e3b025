// Package bridge connects one ecoMAX boiler controller to the host
// automation platform.
//
// The Coordinator owns the single device session and the persisted
// config record: it opens the connection, migrates the record when its
// schema is behind, freezes the discovered capability set, and hands
// out typed accessors that read from the record so they work while
// disconnected.
//
// Services implements the four callable operations (get/set parameter,
// get/set schedule), fanning parameter calls out across the resolved
// target devices with independent timeouts. AlertBridge turns the
// controller's alert state changes into events on the MQTT bus,
// TelemetryForwarder mirrors numeric sensor values onto retained state
// topics, and HealthReporter publishes periodic bridge health the same
// way the rest of the ecosystem expects it.
package bridge
