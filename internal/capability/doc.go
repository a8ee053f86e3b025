// Package capability discovers which optional subsystems a controller
// installation actually has and models the result as a typed set.
//
// Discovery walks the live device snapshot once, at setup or on an
// explicit refresh, and the resulting set is frozen into the persisted
// config record. Nothing else in the bridge infers capabilities from
// live data: presence checks always go through a Set loaded from the
// record, so they never block on the wire.
package capability
