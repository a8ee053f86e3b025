package influxdb

import (
	"context"
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/emberlink/ecomax-bridge/internal/bridge"
)

// WriteSensorMetric writes a single controller measurement to InfluxDB.
//
// This is the primary method for recording boiler telemetry data.
// The write is non-blocking; data is batched and sent asynchronously.
//
// Parameters:
//   - device: Device identifier (e.g., "ecomax", "ecomax-mixer-1")
//   - name: The value name (e.g., "heating_temp", "water_heater_temp")
//   - value: The numeric value to record
//
// Example:
//
//	client.WriteSensorMetric("ecomax", "heating_temp", 64.5)
//	client.WriteSensorMetric("ecomax-mixer-1", "mixer_temp", 38.0)
func (c *Client) WriteSensorMetric(device string, name string, value float64) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"sensor_metrics",
		map[string]string{
			"device": device,
			"name":   name,
		},
		map[string]interface{}{
			"value": value,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// RecordAlert persists a controller alert event for history queries.
//
// It implements the alert recorder expected by the alert bridge. The
// write is non-blocking; an error is returned only when the client is
// not connected so the caller can log the dropped event.
func (c *Client) RecordAlert(_ context.Context, event bridge.AlertEventMessage) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	fields := map[string]interface{}{
		"event_id": event.ID,
		"name":     event.Name,
		"from":     event.From,
	}
	if event.To != "" {
		fields["to"] = event.To
	}

	point := write.NewPoint(
		"alert_events",
		map[string]string{
			"device_id": event.DeviceID,
			"code":      strconv.Itoa(event.Code),
		},
		fields,
		event.Timestamp,
	)

	c.writeAPI.WritePoint(point)
	return nil
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
//
// Example:
//
//	client.WritePoint("bridge_stats",
//	    map[string]string{"bridge": "ecomax"},
//	    map[string]interface{}{"uptime_seconds": 3600.0})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// WritePointWithTime writes a custom point with a specific timestamp.
//
// Use this when the timestamp is not "now" (e.g., delayed data).
//
// Parameters:
//   - measurement: The measurement name
//   - tags: Key-value pairs for indexing
//   - fields: Key-value pairs for the data
//   - timestamp: The exact time for this data point
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
