// Package logging is the bridge's structured logging layer, a thin
// wrapper over log/slog.
//
// Every record carries the service name and build version so log
// aggregators can tell bridge instances apart. Format, level and
// destination come from the logging section of config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Components take a child logger via With so their records are
// labelled at the source:
//
//	mqttLog := log.With("component", "mqtt")
//	mqttLog.Info("connected", "broker", cfg.Broker.Host)
//
// Default returns a bootstrap logger for use before config is loaded,
// for example when reporting that config loading itself failed.
package logging
