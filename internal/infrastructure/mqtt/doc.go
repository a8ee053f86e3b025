// Package mqtt connects the bridge to the MQTT broker.
//
// The broker is how the rest of the home-automation setup sees the
// boiler: alert events, health heartbeats and lifecycle announcements
// all flow through it, so consumers never touch the econet link
// directly.
//
// The client wraps paho.mqtt.golang with the behaviour the bridge
// needs:
//
//   - subscriptions are tracked and replayed after a reconnect
//   - a Last Will on ecomax/system/status marks unclean deaths, and
//     Close publishes a graceful counterpart
//   - handler panics are recovered and logged, never fatal
//   - publish and subscribe calls are bounded by timeouts
//
// Topic names come from the Topics helpers so the namespace stays
// consistent:
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.Subscribe(mqtt.Topics{}.EventAlert(), 1,
//	    func(topic string, payload []byte) error {
//	        return handleAlert(payload)
//	    })
//
// TLS and username auth are driven by config; anonymous plaintext is
// for local development only.
package mqtt
