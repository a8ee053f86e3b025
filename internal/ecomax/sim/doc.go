// Package sim provides an in-process simulated ecoMAX controller.
//
// The simulator implements the full ecomax contract (Connection, Device,
// SubDevice, Schedule) over in-memory state: a snapshot of named values,
// editable parameters with ranges, mixer sub-devices, weekly schedules
// and an optional alert generator. It exists so the bridge can be run,
// demonstrated and exercised end to end without boiler hardware; select
// it with connection kind "sim".
//
// Value changes are edge-triggered the same way the hardware session
// library behaves: SubscribeChange callbacks fire only when a value
// actually changes, never on rewrites of the same value.
package sim
