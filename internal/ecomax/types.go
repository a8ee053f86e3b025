package ecomax

import "time"

// Names of well-known top-level device values. The controller exposes
// its state as a flat mapping of named values; these are the ones the
// bridge reads directly.
const (
	// ValueLoaded resolves once the device has answered its initial
	// frame exchange and the value snapshot is populated.
	ValueLoaded = "loaded"

	// ValueSensors is the mapping of live sensor readings.
	ValueSensors = "sensors"

	// ValueParameters is the mapping of editable controller parameters.
	ValueParameters = "ecomax_parameters"

	// ValueMixers is the collection of mixer sub-devices, keyed by index.
	ValueMixers = "mixers"

	// ValueWaterHeaterTemp is present only when an indirect water
	// heater is connected.
	ValueWaterHeaterTemp = "water_heater_temp"

	// ValueControl is the parameter that turns the controller on/off.
	ValueControl = "ecomax_control"

	// ValueSchedules is the mapping of weekly schedules by type.
	ValueSchedules = "schedules"

	// ValueAlerts is the current alert list.
	ValueAlerts = "alerts"

	// ValuePendingAlerts is the boolean "has active alerts" flag the
	// alert bridge edge-triggers on.
	ValuePendingAlerts = "pending_alerts"
)

// DeviceMain is the name of the main controller unit on a connection.
const DeviceMain = "ecomax"

// ProductType identifies the controller family.
type ProductType int

// Controller families reported in the product frame.
const (
	ProductTypeEcomaxP ProductType = 0 // pellet/solid fuel series
	ProductTypeEcomaxI ProductType = 1 // installation series
)

// ProductInfo is the identity block read from the controller's product
// frame. It is captured into the persisted config record at setup and
// during migrations; runtime accessors never re-read it from the wire.
type ProductInfo struct {
	Type     ProductType
	ID       int
	UID      string
	Model    string
	Software string
}

// Parameter is a single editable controller value with its permitted
// range.
type Parameter struct {
	Name  string
	Value float64
	Min   float64
	Max   float64
}

// Alert is one controller fault interval. To is nil while the alert is
// still ongoing.
type Alert struct {
	Code int
	From time.Time
	To   *time.Time
}

// Weekdays lists the seven schedule day names in wire order.
var Weekdays = []string{
	"monday", "tuesday", "wednesday", "thursday",
	"friday", "saturday", "sunday",
}

// IsWeekday reports whether name is one of the seven schedule day names.
func IsWeekday(name string) bool {
	for _, d := range Weekdays {
		if d == name {
			return true
		}
	}
	return false
}
