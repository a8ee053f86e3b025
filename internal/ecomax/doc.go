// Package ecomax defines the contract between the bridge and the
// device-communication library that speaks the ecoMAX serial/TCP
// protocol.
//
// The bridge never touches the wire format. Everything it needs from a
// controller is expressed as the narrow interfaces in this package:
// session lifecycle (Connection), named value and parameter access
// (Device, SubDevice) and the weekly schedule model (Schedule,
// ScheduleDay). A concrete implementation is supplied by the protocol
// library at wiring time; tests supply in-memory fakes.
//
// # Timeouts
//
// Every blocking operation takes a context. The caller owns the
// deadline: short for single value reads, long for whole-device
// traversal. Implementations must return the context error when the
// deadline expires so callers can distinguish an unresponsive
// controller (context.DeadlineExceeded) from a missing name
// (ErrValueNotFound, ErrParameterNotFound).
package ecomax
