package bridge

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/emberlink/ecomax-bridge/internal/capability"
	"github.com/emberlink/ecomax-bridge/internal/device"
	"github.com/emberlink/ecomax-bridge/internal/ecomax"
	"github.com/emberlink/ecomax-bridge/internal/entry"
)

// Bridge operation constants.
const (
	// valueTimeout bounds a single value or parameter exchange.
	valueTimeout = 3 * time.Second

	// setupTimeout bounds connection setup and whole-device discovery.
	setupTimeout = 60 * time.Second

	// mixerMarker inside a device selector addresses a mixer
	// sub-device, "{uid}-mixer-{index}".
	mixerMarker = "-mixer-"

	// manufacturer for registry entries.
	manufacturer = "Plum"
)

// Logger defines the logging interface used by the bridge package.
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

// Coordinator owns the single session to one controller together with
// its persisted config record.
//
// Identity accessors (Model, UID, Software, Capabilities) read from
// the record, never from the wire, so they stay available while the
// controller is unreachable. The record itself is only rewritten by
// Setup and RefreshCapabilities, both of which run to completion
// before the coordinator serves concurrent callers.
type Coordinator struct {
	conn       ecomax.Connection
	repo       entry.Repository
	migrator   *entry.Migrator
	discoverer *capability.Discoverer
	registry   *device.Registry
	logger     Logger

	mu     sync.RWMutex
	record *entry.Record
	caps   *capability.Set
	dev    ecomax.Device

	closeOnce sync.Once
	closeErr  error
}

// CoordinatorConfig holds the collaborators for a Coordinator.
type CoordinatorConfig struct {
	// Connection is the device session handle. Required.
	Connection ecomax.Connection

	// Record is the persisted configuration for this controller. Required.
	Record *entry.Record

	// Repository persists record changes. Optional; without it record
	// updates stay in memory.
	Repository entry.Repository

	// Migrator upgrades outdated records during Setup. Optional.
	Migrator *entry.Migrator

	// Discoverer runs capability discovery. Optional; a default one
	// is used when nil.
	Discoverer *capability.Discoverer

	// Registry receives the controller and its sub-devices as host
	// registry entries. Optional.
	Registry *device.Registry

	// Logger receives progress and errors. Optional.
	Logger Logger
}

// NewCoordinator creates a coordinator around an unopened connection.
// Call Setup before using device operations.
func NewCoordinator(cfg CoordinatorConfig) *Coordinator {
	logger := cfg.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	discoverer := cfg.Discoverer
	if discoverer == nil {
		discoverer = &capability.Discoverer{}
	}

	return &Coordinator{
		conn:       cfg.Connection,
		repo:       cfg.Repository,
		migrator:   cfg.Migrator,
		discoverer: discoverer,
		registry:   cfg.Registry,
		logger:     logger,
		record:     cfg.Record.Clone(),
		caps:       capability.FromStrings(cfg.Record.Capabilities),
	}
}

// Setup opens the session, waits for the controller to come up,
// migrates the record if its schema is behind, captures product
// identity and capabilities on first contact, and registers the
// controller and its mixers with the host registry.
//
// An unresponsive controller surfaces as ErrNotReady so the host can
// retry setup later. Migration failures pass through unchanged and
// leave the stored record untouched.
func (c *Coordinator) Setup(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, setupTimeout)
	defer cancel()

	if err := c.conn.Open(ctx); err != nil {
		return notReady("opening connection", err)
	}

	dev, err := c.conn.Device(ctx, ecomax.DeviceMain)
	if err != nil {
		return notReady("waiting for controller", err)
	}

	for _, name := range []string{ecomax.ValueLoaded, ecomax.ValueSensors, ecomax.ValueParameters} {
		if err := dev.WaitFor(ctx, name); err != nil {
			return notReady(fmt.Sprintf("waiting for %s", name), err)
		}
	}

	c.mu.Lock()
	c.dev = dev
	rec := c.record.Clone()
	c.mu.Unlock()

	if c.migrator != nil && c.migrator.NeedsMigration(rec) {
		migrated, err := c.migrator.Run(ctx, rec, dev)
		if err != nil {
			return fmt.Errorf("migrating record %s: %w", rec.ID, err)
		}
		rec = migrated
		if err := c.persist(ctx, rec); err != nil {
			return err
		}
	}

	if rec.UID == "" || len(rec.Capabilities) == 0 {
		if err := c.captureIdentity(ctx, rec, dev); err != nil {
			return err
		}
		if err := c.persist(ctx, rec); err != nil {
			return err
		}
	}

	c.mu.Lock()
	c.record = rec
	c.caps = capability.FromStrings(rec.Capabilities)
	c.mu.Unlock()

	c.registerDevices()

	c.logger.Info("controller session ready",
		"host", c.conn.Host(),
		"model", rec.Model,
		"uid", rec.UID)
	return nil
}

// captureIdentity fills product fields and the capability set on a
// record that has never seen the device.
func (c *Coordinator) captureIdentity(ctx context.Context, rec *entry.Record, dev ecomax.Device) error {
	productCtx, cancel := context.WithTimeout(ctx, valueTimeout)
	product, err := dev.Product(productCtx)
	cancel()
	if err != nil {
		return notReady("reading product info", err)
	}

	rec.Model = entry.FormatModelName(product.Model)
	rec.ProductType = product.Type
	rec.ProductID = product.ID
	rec.UID = product.UID
	rec.Software = product.Software

	set, err := c.discoverer.Discover(ctx, dev)
	if err != nil {
		return fmt.Errorf("discovering capabilities: %w", err)
	}
	rec.Capabilities = set.Strings()
	return nil
}

// RefreshCapabilities re-runs discovery against the live device and
// persists the new set.
func (c *Coordinator) RefreshCapabilities(ctx context.Context) error {
	dev, err := c.Device()
	if err != nil {
		return err
	}

	set, err := c.discoverer.Discover(ctx, dev)
	if err != nil {
		return fmt.Errorf("refreshing capabilities: %w", err)
	}

	c.mu.Lock()
	rec := c.record.Clone()
	rec.Capabilities = set.Strings()
	c.record = rec
	c.caps = set
	c.mu.Unlock()

	if err := c.persist(ctx, rec); err != nil {
		return err
	}

	c.registerDevices()
	c.logger.Info("capability set refreshed", "tokens", set.Len())
	return nil
}

func (c *Coordinator) persist(ctx context.Context, rec *entry.Record) error {
	if c.repo == nil {
		return nil
	}

	err := c.repo.Update(ctx, rec)
	if errors.Is(err, entry.ErrRecordNotFound) {
		err = c.repo.Create(ctx, rec)
	}
	if err != nil {
		return fmt.Errorf("persisting record %s: %w", rec.ID, err)
	}
	return nil
}

// registerDevices publishes the controller and its mixer sub-devices
// into the host device registry.
func (c *Coordinator) registerDevices() {
	if c.registry == nil {
		return
	}

	c.mu.RLock()
	rec := c.record
	caps := c.caps
	c.mu.RUnlock()

	parent := &device.Info{
		UID:          rec.UID,
		Name:         rec.Title,
		Model:        rec.Model,
		Manufacturer: manufacturer,
		Software:     rec.Software,
	}
	if existing, err := c.registry.GetByUID(rec.UID); err == nil {
		parent.ID = existing.ID
	}
	if err := c.registry.Register(parent); err != nil {
		c.logger.Error("registering controller", "uid", rec.UID, "error", err)
		return
	}

	for _, index := range caps.MixerIndices() {
		uid := fmt.Sprintf("%s%s%d", rec.UID, mixerMarker, index)
		info := &device.Info{
			UID:          uid,
			ParentID:     parent.ID,
			Name:         fmt.Sprintf("%s mixer %d", rec.Title, index+1),
			Manufacturer: manufacturer,
		}
		if existing, err := c.registry.GetByUID(uid); err == nil {
			info.ID = existing.ID
		}
		if err := c.registry.Register(info); err != nil {
			c.logger.Error("registering mixer", "uid", uid, "error", err)
		}
	}
}

// Device returns the controller handle, or ErrNotReady before Setup
// has completed.
func (c *Coordinator) Device() (ecomax.Device, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.dev == nil {
		return nil, ErrNotReady
	}
	return c.dev, nil
}

// ResolveDevice maps a selector onto the device it addresses. A
// selector carrying the mixer marker and a known index resolves to
// that mixer; everything else, unknown mixer indices included, falls
// back to the main controller.
func (c *Coordinator) ResolveDevice(ctx context.Context, selector string) (ecomax.ParameterAccessor, error) {
	dev, err := c.Device()
	if err != nil {
		return nil, err
	}

	pos := strings.LastIndex(selector, mixerMarker)
	if pos < 0 {
		return dev, nil
	}

	index, err := strconv.Atoi(selector[pos+len(mixerMarker):])
	if err != nil {
		return dev, nil
	}

	mixerCtx, cancel := context.WithTimeout(ctx, valueTimeout)
	defer cancel()

	mixers, err := dev.Mixers(mixerCtx)
	if err != nil {
		c.logger.Warn("mixer lookup failed, using main controller",
			"selector", selector, "error", err)
		return dev, nil
	}
	if mixer, ok := mixers[index]; ok {
		return mixer, nil
	}

	c.logger.Warn("mixer index not present, using main controller",
		"selector", selector, "index", index)
	return dev, nil
}

// Name returns the connection's human-readable title.
func (c *Coordinator) Name() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.record.Title
}

// Model returns the formatted product model from the record.
func (c *Coordinator) Model() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.record.Model
}

// UID returns the controller serial number from the record.
func (c *Coordinator) UID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.record.UID
}

// Software returns the controller firmware version from the record.
func (c *Coordinator) Software() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.record.Software
}

// ProductType returns the controller family from the record.
func (c *Coordinator) ProductType() ecomax.ProductType {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.record.ProductType
}

// ProductID returns the numeric product id from the record.
func (c *Coordinator) ProductID() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.record.ProductID
}

// Capabilities returns the frozen capability set from the record.
func (c *Coordinator) Capabilities() *capability.Set {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.caps
}

// Record returns a copy of the current config record.
func (c *Coordinator) Record() *entry.Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.record.Clone()
}

// Host returns the connection endpoint.
func (c *Coordinator) Host() string {
	return c.conn.Host()
}

// Ready reports whether Setup has completed.
func (c *Coordinator) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dev != nil
}

// Close tears the session down. Safe to call more than once; later
// calls return the first result.
func (c *Coordinator) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.dev = nil
		c.mu.Unlock()

		c.closeErr = c.conn.Close()
		c.logger.Info("controller session closed", "host", c.conn.Host())
	})
	return c.closeErr
}

// notReady wraps a setup failure so the host treats it as retryable.
func notReady(stage string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %w", ecomax.ErrDeviceUnresponsive, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrNotReady, stage, err)
}
