// Package influxdb stores the bridge's time-series history.
//
// Two kinds of data land here: sensor telemetry from the boiler and
// its mixer circuits, and alert events forwarded off the controller.
// The alert history API endpoint reads the second set back with Flux.
//
// The package wraps influxdb-client-go v2. Writes go through the
// non-blocking batched write API, so recording a point never stalls
// the device session; batch failures surface through the SetOnError
// callback. Batch size and flush interval come from the influxdb
// section of config.yaml.
//
// The whole integration is optional. When disabled in config, Connect
// returns ErrDisabled and the bridge runs without history; the API
// then answers history queries with 503.
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteSensorMetric("ecomax", "heating_temp", 64.5)
package influxdb
