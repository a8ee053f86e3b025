// Package device is the registry of addressable units the bridge
// exposes to the host platform: the controller itself and its mixer
// sub-devices.
//
// The registry is injected into consumers as the Lookup interface
// rather than reached as process-global state, so the alert bridge and
// the API resolve identifiers through the same seam tests can fake.
package device
