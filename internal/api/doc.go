// Package api implements the HTTP REST API and WebSocket server for the
// ecoMAX bridge.
//
// This package provides:
//   - REST endpoints for parameters, schedules, config entries, and devices
//   - WebSocket hub for real-time alert event broadcasts
//   - Middleware stack (request ID, logging, recovery, CORS)
//   - TLS support for production deployments
//
// # Architecture
//
// The API server sits between user interfaces and the connection
// coordinator. Parameter and schedule operations go straight to the
// service layer; alert events arrive over MQTT and are relayed to
// WebSocket clients subscribed to the "alert.event" channel.
//
// # Usage
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
package api
