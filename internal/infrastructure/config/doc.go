// Package config loads and validates the bridge's YAML configuration.
//
// Load reads config.yaml, applies environment-variable overrides for
// secrets, fills defaults and validates the result, so the rest of the
// bridge never sees a half-formed config. It runs once at startup:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return err
//	}
//
// The connection section picks how the boiler is reached (serial, tcp
// or the built-in simulator); mqtt, influxdb, api and logging sections
// configure the respective infrastructure packages.
//
// Passwords and tokens belong in environment variables, not in the
// file. Keep the file itself at 0600.
package config
