package entry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/emberlink/ecomax-bridge/internal/capability"
	"github.com/emberlink/ecomax-bridge/internal/ecomax"
)

// defaultValueTimeout bounds a single product-frame read inside a
// transition. Capability rediscovery carries its own longer bound.
const defaultValueTimeout = 3 * time.Second

// Logger defines the logging interface used by the Migrator.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// transition is one step of the version walk. apply mutates the
// working copy only; dev is nil for record-only transitions.
type transition struct {
	to     int
	device bool
	apply  func(ctx context.Context, m *Migrator, rec *Record, dev ecomax.Device) error
}

// Migrator walks config records from their persisted version to
// CurrentVersion.
type Migrator struct {
	// ValueTimeout bounds each single value read. Zero means 3s.
	ValueTimeout time.Duration

	// Discoverer runs capability rediscovery during the 4/5 to 6
	// transition. Nil gets a default one.
	Discoverer *capability.Discoverer

	// Logger receives migration progress. Nil means no logging.
	Logger Logger

	transitions map[int]transition
}

// NewMigrator builds a Migrator with the full transition table and
// verifies at construction that every version below CurrentVersion has
// a forward path. A table gap is a programming error surfaced at
// startup rather than on the first affected record.
func NewMigrator() (*Migrator, error) {
	m := &Migrator{
		transitions: map[int]transition{
			1: {to: 3, device: true, apply: readProductType},
			2: {to: 3, device: true, apply: readProductType},
			3: {to: 4, apply: reformatModel},
			4: {to: 6, device: true, apply: rediscoverCapabilities},
			5: {to: 6, device: true, apply: rediscoverCapabilities},
			6: {to: 7, device: true, apply: readProductID},
		},
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// validate checks the transition table covers every version in
// [1, CurrentVersion) and that every step moves strictly forward onto
// a version that itself has a path to CurrentVersion.
func (m *Migrator) validate() error {
	for from := 1; from < CurrentVersion; from++ {
		t, ok := m.transitions[from]
		if !ok {
			return fmt.Errorf("no transition from version %d", from)
		}
		if t.to <= from {
			return fmt.Errorf("transition %d -> %d does not move forward", from, t.to)
		}
		if t.to > CurrentVersion {
			return fmt.Errorf("transition %d -> %d overshoots version %d", from, t.to, CurrentVersion)
		}
	}
	return nil
}

// NeedsMigration reports whether rec requires a walk before use.
func (m *Migrator) NeedsMigration(rec *Record) bool {
	return rec.Version < CurrentVersion
}

// Run migrates rec to CurrentVersion and returns the migrated copy.
// The input record is never mutated. On any failure the error wraps
// ErrMigrationIncomplete (and ErrUnsupportedVersion for a version with
// no registered transition) and the returned record is nil; the caller
// keeps its stored document as-is.
//
// dev may be nil only when every pending transition is record-only;
// a device transition with a nil dev fails the run.
func (m *Migrator) Run(ctx context.Context, rec *Record, dev ecomax.Device) (*Record, error) {
	logger := m.Logger
	if logger == nil {
		logger = noopLogger{}
	}

	work := rec.Clone()
	for work.Version < CurrentVersion {
		t, ok := m.transitions[work.Version]
		if !ok {
			return nil, fmt.Errorf("%w: version %d (%w)",
				ErrMigrationIncomplete, work.Version, ErrUnsupportedVersion)
		}

		if t.device && dev == nil {
			return nil, fmt.Errorf("%w: version %d needs a live device",
				ErrMigrationIncomplete, work.Version)
		}

		logger.Info("migrating config record",
			"record", work.ID,
			"from", work.Version,
			"to", t.to)

		if err := t.apply(ctx, m, work, dev); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				err = fmt.Errorf("%w: %w", ecomax.ErrDeviceUnresponsive, err)
			}
			return nil, fmt.Errorf("%w: version %d -> %d: %w",
				ErrMigrationIncomplete, work.Version, t.to, err)
		}

		work.Version = t.to
	}

	return work, nil
}

func (m *Migrator) valueTimeout() time.Duration {
	if m.ValueTimeout > 0 {
		return m.ValueTimeout
	}
	return defaultValueTimeout
}

func readProductType(ctx context.Context, m *Migrator, rec *Record, dev ecomax.Device) error {
	ctx, cancel := context.WithTimeout(ctx, m.valueTimeout())
	defer cancel()

	product, err := dev.Product(ctx)
	if err != nil {
		return fmt.Errorf("reading product type: %w", err)
	}
	rec.ProductType = product.Type
	return nil
}

func reformatModel(_ context.Context, _ *Migrator, rec *Record, _ ecomax.Device) error {
	rec.Model = FormatModelName(rec.Model)
	return nil
}

// rediscoverCapabilities drops whatever capability tokens the record
// carried, legacy shapes included, and stores a freshly discovered
// set. A record already missing the field migrates the same way.
func rediscoverCapabilities(ctx context.Context, m *Migrator, rec *Record, dev ecomax.Device) error {
	d := m.Discoverer
	if d == nil {
		d = &capability.Discoverer{}
	}

	set, err := d.Discover(ctx, dev)
	if err != nil {
		return fmt.Errorf("rediscovering capabilities: %w", err)
	}
	rec.Capabilities = set.Strings()
	return nil
}

func readProductID(ctx context.Context, m *Migrator, rec *Record, dev ecomax.Device) error {
	ctx, cancel := context.WithTimeout(ctx, m.valueTimeout())
	defer cancel()

	product, err := dev.Product(ctx)
	if err != nil {
		return fmt.Errorf("reading product id: %w", err)
	}
	rec.ProductID = product.ID
	return nil
}
