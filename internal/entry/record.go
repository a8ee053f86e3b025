package entry

import (
	"fmt"
	"regexp"

	"github.com/emberlink/ecomax-bridge/internal/ecomax"
)

// CurrentVersion is the record schema version new records are created
// at and migrations walk towards.
const CurrentVersion = 7

// Connection kinds for ConnectionConfig.Kind.
const (
	ConnectionSerial = "serial"
	ConnectionTCP    = "tcp"
)

// ConnectionConfig holds the transport parameters for reaching one
// controller.
type ConnectionConfig struct {
	// Kind selects the transport, ConnectionSerial or ConnectionTCP.
	Kind string `json:"kind"`

	// Device is the serial port path, e.g. "/dev/ttyUSB0". Serial only.
	Device string `json:"device,omitempty"`

	// Baudrate for the serial port. Serial only.
	Baudrate int `json:"baudrate,omitempty"`

	// Host and Port address an RS-485 network gateway. TCP only.
	Host string `json:"host,omitempty"`
	Port int    `json:"port,omitempty"`
}

// Endpoint renders the connection target for logs and health payloads.
func (c ConnectionConfig) Endpoint() string {
	if c.Kind == ConnectionTCP {
		return fmt.Sprintf("%s:%d", c.Host, c.Port)
	}
	return c.Device
}

// Record is the persisted configuration for one controller instance.
// Product fields are captured once from the device and read from here
// afterwards, so accessors work while disconnected.
type Record struct {
	ID         string           `json:"id"`
	Title      string           `json:"title"`
	Connection ConnectionConfig `json:"connection"`

	Model       string             `json:"model,omitempty"`
	ProductType ecomax.ProductType `json:"product_type"`
	ProductID   int                `json:"product_id,omitempty"`
	UID         string             `json:"uid,omitempty"`
	Software    string             `json:"software,omitempty"`

	// Capabilities is the flattened token form of the discovered
	// capability set; see the capability package for its structure.
	Capabilities []string `json:"capabilities,omitempty"`

	// Version is the record schema version, 1..CurrentVersion. It only
	// ever moves forward.
	Version int `json:"version"`
}

// Clone returns a deep copy. Migrations mutate the copy and the caller
// swaps it in only after the whole walk succeeds.
func (r *Record) Clone() *Record {
	out := *r
	if r.Capabilities != nil {
		out.Capabilities = make([]string, len(r.Capabilities))
		copy(out.Capabilities, r.Capabilities)
	}
	return &out
}

// modelNamePattern splits a model name into a letter family token, a
// number of three or more digits and a trailing suffix.
var modelNamePattern = regexp.MustCompile(`(?i)^([a-z]+)\s*(\d{3,})(.*)$`)

// FormatModelName normalizes a controller model string: the family
// token "EM" becomes "ecoMAX" and the number is re-joined with a
// single space, so "EM350P2-ZF" becomes "ecoMAX 350P2-ZF". Strings
// that do not match the family-number-suffix shape are returned
// unchanged.
func FormatModelName(name string) string {
	m := modelNamePattern.FindStringSubmatch(name)
	if m == nil {
		return name
	}
	family, number, suffix := m[1], m[2], m[3]
	if family == "EM" {
		family = "ecoMAX"
	}
	return fmt.Sprintf("%s %s%s", family, number, suffix)
}
