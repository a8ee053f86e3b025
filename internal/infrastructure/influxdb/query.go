package influxdb

import (
	"context"
	"fmt"
	"strconv"
	"time"
)

// AlertHistoryEntry is one recorded alert event returned from history queries.
type AlertHistoryEntry struct {
	EventID  string    `json:"event_id"`
	DeviceID string    `json:"device_id"`
	Code     int       `json:"code"`
	From     string    `json:"from"`
	To       string    `json:"to,omitempty"`
	Time     time.Time `json:"time"`
}

// QueryRecentAlerts returns alert events recorded within the lookback window,
// newest first.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - deviceID: Registry identifier of the controller, or "" for all devices
//   - lookback: How far back to search (e.g., 24h)
//
// Returns:
//   - []AlertHistoryEntry: Matching events, newest first
//   - error: If the client is disconnected or the query fails
func (c *Client) QueryRecentAlerts(ctx context.Context, deviceID string, lookback time.Duration) ([]AlertHistoryEntry, error) {
	if !c.IsConnected() {
		return nil, ErrNotConnected
	}
	if lookback <= 0 {
		return nil, fmt.Errorf("influxdb: lookback must be positive")
	}

	filter := ""
	if deviceID != "" {
		filter = fmt.Sprintf(`  |> filter(fn: (r) => r.device_id == %q)
`, deviceID)
	}

	flux := fmt.Sprintf(`from(bucket: %q)
  |> range(start: -%s)
  |> filter(fn: (r) => r._measurement == "alert_events")
%s  |> pivot(rowKey: ["_time"], columnKey: ["_field"], valueColumn: "_value")
  |> sort(columns: ["_time"], desc: true)`,
		c.cfg.Bucket, formatFluxDuration(lookback), filter)

	queryAPI := c.client.QueryAPI(c.cfg.Org)
	result, err := queryAPI.Query(ctx, flux)
	if err != nil {
		return nil, fmt.Errorf("influxdb: alert history query: %w", err)
	}
	defer result.Close()

	var entries []AlertHistoryEntry
	for result.Next() {
		record := result.Record()
		entry := AlertHistoryEntry{
			Time: record.Time(),
		}
		if v, ok := record.ValueByKey("device_id").(string); ok {
			entry.DeviceID = v
		}
		if v, ok := record.ValueByKey("code").(string); ok {
			entry.Code, _ = strconv.Atoi(v)
		}
		if v, ok := record.ValueByKey("event_id").(string); ok {
			entry.EventID = v
		}
		if v, ok := record.ValueByKey("from").(string); ok {
			entry.From = v
		}
		if v, ok := record.ValueByKey("to").(string); ok {
			entry.To = v
		}
		entries = append(entries, entry)
	}
	if result.Err() != nil {
		return nil, fmt.Errorf("influxdb: reading alert history: %w", result.Err())
	}

	return entries, nil
}

// formatFluxDuration renders a duration in the form Flux accepts (whole seconds).
func formatFluxDuration(d time.Duration) string {
	return fmt.Sprintf("%ds", int64(d.Seconds()))
}
