// Package entry persists per-controller configuration records and
// evolves their schema across versions.
//
// A Record is the durable identity of one configured controller:
// connection parameters plus the product details and capability set
// captured from the device at setup. Records are stored as JSON
// documents so that historical shapes load losslessly and version
// upgrades are explicit.
//
// The Migrator walks a record from its persisted version to
// CurrentVersion one transition at a time. Transitions that need the
// live device receive it through the ecomax interfaces; a record is
// only written back after the full walk succeeds, so a mid-walk
// failure leaves the stored document untouched.
package entry
