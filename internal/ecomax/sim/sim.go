package sim

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"time"

	"github.com/emberlink/ecomax-bridge/internal/ecomax"
)

// Default identity for a simulated controller.
const (
	defaultUID      = "SIM0000000001"
	defaultModel    = "EM350P2"
	defaultSoftware = "6.10.32.K1"
	defaultProdID   = 51
)

// defaultAlertCode is the fault code the alert generator raises.
const defaultAlertCode = 26

// Config describes the simulated installation.
type Config struct {
	// UID, Model, Software and ProductID override the default identity.
	UID       string
	Model     string
	Software  string
	ProductID int

	// ProductType of the simulated family. Defaults to ProductTypeEcomaxP.
	ProductType ecomax.ProductType

	// Mixers is the number of installed mixer circuits.
	Mixers int

	// WaterHeater installs an indirect water heater, adding the
	// water_heater_temp reading and its target parameter.
	WaterHeater bool

	// AlertInterval makes the simulator raise and then resolve a fault
	// on this period. Zero disables the generator.
	AlertInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.UID == "" {
		c.UID = defaultUID
	}
	if c.Model == "" {
		c.Model = defaultModel
	}
	if c.Software == "" {
		c.Software = defaultSoftware
	}
	if c.ProductID == 0 {
		c.ProductID = defaultProdID
	}
	return c
}

// Connection is a simulated controller session.
type Connection struct {
	cfg Config
	dev *simDevice

	mu   sync.Mutex
	open bool

	stop      chan struct{}
	closeOnce sync.Once
}

// New builds an unopened simulated connection.
func New(cfg Config) *Connection {
	cfg = cfg.withDefaults()
	return &Connection{
		cfg:  cfg,
		dev:  newDevice(cfg),
		stop: make(chan struct{}),
	}
}

// Open marks the session up and starts the alert generator when one is
// configured.
func (c *Connection) Open(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.open {
		return nil
	}
	c.open = true

	if c.cfg.AlertInterval > 0 {
		go c.alertLoop()
	}
	return nil
}

// Close stops the simulator. Later calls are no-ops.
func (c *Connection) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.open = false
		c.mu.Unlock()
		close(c.stop)
	})
	return nil
}

// Device returns the simulated main unit.
func (c *Connection) Device(_ context.Context, name string) (ecomax.Device, error) {
	c.mu.Lock()
	open := c.open
	c.mu.Unlock()

	if !open {
		return nil, fmt.Errorf("sim connection not open")
	}
	if name != ecomax.DeviceMain {
		return nil, fmt.Errorf("unknown device %q", name)
	}
	return c.dev, nil
}

// Host identifies the simulated endpoint.
func (c *Connection) Host() string {
	return "sim://" + c.cfg.UID
}

// RaiseAlert starts a fault with the given code.
func (c *Connection) RaiseAlert(code int) {
	c.dev.raiseAlert(code)
}

// ResolveAlerts concludes every open fault.
func (c *Connection) ResolveAlerts() {
	c.dev.resolveAlerts()
}

// alertLoop alternates between raising and resolving a fault until the
// connection closes.
func (c *Connection) alertLoop() {
	ticker := time.NewTicker(c.cfg.AlertInterval)
	defer ticker.Stop()

	raised := false
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			if raised {
				c.dev.resolveAlerts()
			} else {
				c.dev.raiseAlert(defaultAlertCode)
			}
			raised = !raised
		}
	}
}

// simDevice is the simulated main controller unit.
type simDevice struct {
	cfg Config

	mu        sync.Mutex
	values    map[string]any
	params    map[string]ecomax.Parameter
	mixers    map[int]ecomax.SubDevice
	schedules map[string]ecomax.Schedule
	subs      map[string][]*subscription
}

type subscription struct {
	fn func(value any)
}

func newDevice(cfg Config) *simDevice {
	d := &simDevice{
		cfg:       cfg,
		values:    make(map[string]any),
		params:    make(map[string]ecomax.Parameter),
		mixers:    make(map[int]ecomax.SubDevice),
		schedules: make(map[string]ecomax.Schedule),
		subs:      make(map[string][]*subscription),
	}

	d.params["heating_target_temp"] = ecomax.Parameter{Name: "heating_target_temp", Value: 60, Min: 30, Max: 80}
	d.params["min_heating_target_temp"] = ecomax.Parameter{Name: "min_heating_target_temp", Value: 30, Min: 20, Max: 50}
	d.params[ecomax.ValueControl] = ecomax.Parameter{Name: ecomax.ValueControl, Value: 1, Min: 0, Max: 1}

	d.values[ecomax.ValueLoaded] = true
	d.values["heating_temp"] = 58.5
	d.values["heating_target"] = 60.0
	d.values["outside_temp"] = 8.4
	d.values["exhaust_temp"] = 121.3
	d.values["fuel_level"] = 72.0
	d.values["fuel_consumption"] = 1.8
	d.values["boiler_power"] = 12.5
	d.values[ecomax.ValueSensors] = true
	d.values[ecomax.ValueControl] = 1.0
	d.values[ecomax.ValueAlerts] = []ecomax.Alert{}
	d.values[ecomax.ValuePendingAlerts] = false

	if cfg.WaterHeater {
		d.values[ecomax.ValueWaterHeaterTemp] = 46.2
		d.params["water_heater_target_temp"] = ecomax.Parameter{Name: "water_heater_target_temp", Value: 50, Min: 40, Max: 70}
	}

	for i := 0; i < cfg.Mixers; i++ {
		d.mixers[i] = newMixer(i)
	}
	if cfg.Mixers > 0 {
		d.values[ecomax.ValueMixers] = cfg.Mixers
	}

	d.schedules["heating"] = newWeekSchedule()
	if cfg.WaterHeater {
		d.schedules["water_heater"] = newWeekSchedule()
	}
	d.values[ecomax.ValueSchedules] = len(d.schedules)

	d.refreshParameterValue()
	return d
}

// refreshParameterValue mirrors the parameter map into the snapshot so
// discovery sees the ecomax_parameters value. Caller holds no lock.
func (d *simDevice) refreshParameterValue() {
	flat := make(map[string]float64, len(d.params))
	for name, p := range d.params {
		flat[name] = p.Value
	}
	d.values[ecomax.ValueParameters] = flat
}

func (d *simDevice) WaitFor(ctx context.Context, name string) error {
	d.mu.Lock()
	_, ok := d.values[name]
	d.mu.Unlock()
	if ok {
		return nil
	}

	// The value never appears on its own in the simulator; wait for a
	// write or the deadline.
	ch := make(chan struct{}, 1)
	cancel := d.SubscribeChange(name, func(any) {
		select {
		case ch <- struct{}{}:
		default:
		}
	})
	defer cancel()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *simDevice) Get(_ context.Context, name string) (any, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	v, ok := d.values[name]
	if !ok {
		return nil, ecomax.ErrValueNotFound
	}
	return v, nil
}

func (d *simDevice) Snapshot(_ context.Context) (map[string]any, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make(map[string]any, len(d.values))
	for name, v := range d.values {
		out[name] = v
	}
	return out, nil
}

func (d *simDevice) Mixers(_ context.Context) (map[int]ecomax.SubDevice, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make(map[int]ecomax.SubDevice, len(d.mixers))
	for i, m := range d.mixers {
		out[i] = m
	}
	return out, nil
}

func (d *simDevice) Product(_ context.Context) (ecomax.ProductInfo, error) {
	return ecomax.ProductInfo{
		Type:     d.cfg.ProductType,
		ID:       d.cfg.ProductID,
		UID:      d.cfg.UID,
		Model:    d.cfg.Model,
		Software: d.cfg.Software,
	}, nil
}

func (d *simDevice) Schedules(_ context.Context) (map[string]ecomax.Schedule, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make(map[string]ecomax.Schedule, len(d.schedules))
	for name, s := range d.schedules {
		out[name] = s
	}
	return out, nil
}

func (d *simDevice) SubscribeChange(name string, fn func(value any)) (cancel func()) {
	sub := &subscription{fn: fn}

	d.mu.Lock()
	d.subs[name] = append(d.subs[name], sub)
	d.mu.Unlock()

	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		subs := d.subs[name]
		for i, s := range subs {
			if s == sub {
				d.subs[name] = append(subs[:i], subs[i+1:]...)
				return
			}
		}
	}
}

func (d *simDevice) Parameter(_ context.Context, name string) (ecomax.Parameter, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.params[name]
	if !ok {
		return ecomax.Parameter{}, ecomax.ErrParameterNotFound
	}
	return p, nil
}

func (d *simDevice) SetParameter(_ context.Context, name string, value float64) (bool, error) {
	d.mu.Lock()

	p, ok := d.params[name]
	if !ok {
		d.mu.Unlock()
		return false, ecomax.ErrParameterNotFound
	}
	if value < p.Min || value > p.Max {
		// The controller refuses out-of-range writes without erroring
		d.mu.Unlock()
		return false, nil
	}

	p.Value = value
	d.params[name] = p
	d.refreshParameterValue()
	d.mu.Unlock()

	d.setValue(name, value)
	return true, nil
}

// setValue writes a snapshot value and fires change subscribers when it
// actually changed.
func (d *simDevice) setValue(name string, value any) {
	d.mu.Lock()
	prev, existed := d.values[name]
	d.values[name] = value
	changed := !existed || !reflect.DeepEqual(prev, value)

	var fns []func(any)
	if changed {
		for _, sub := range d.subs[name] {
			fns = append(fns, sub.fn)
		}
	}
	d.mu.Unlock()

	for _, fn := range fns {
		fn(value)
	}
}

// raiseAlert opens a fault and flips the pending flag.
func (d *simDevice) raiseAlert(code int) {
	d.mu.Lock()
	alerts, _ := d.values[ecomax.ValueAlerts].([]ecomax.Alert)
	alerts = append(alerts, ecomax.Alert{Code: code, From: time.Now().UTC()})
	d.values[ecomax.ValueAlerts] = alerts
	d.mu.Unlock()

	d.setValue(ecomax.ValuePendingAlerts, true)
}

// resolveAlerts concludes every open fault and clears the pending flag.
func (d *simDevice) resolveAlerts() {
	now := time.Now().UTC()

	d.mu.Lock()
	alerts, _ := d.values[ecomax.ValueAlerts].([]ecomax.Alert)
	resolved := make([]ecomax.Alert, len(alerts))
	for i, alert := range alerts {
		if alert.To == nil {
			to := now
			alert.To = &to
		}
		resolved[i] = alert
	}
	d.values[ecomax.ValueAlerts] = resolved
	d.mu.Unlock()

	d.setValue(ecomax.ValuePendingAlerts, false)
}

// simMixer is one simulated mixer circuit.
type simMixer struct {
	index int

	mu     sync.Mutex
	values map[string]any
	params map[string]ecomax.Parameter
}

func newMixer(index int) *simMixer {
	return &simMixer{
		index: index,
		values: map[string]any{
			"current_temp": 38.5,
			"target_temp":  40.0,
			"pump":         true,
		},
		params: map[string]ecomax.Parameter{
			"mixer_target_temp": {Name: "mixer_target_temp", Value: 40, Min: 20, Max: 60},
		},
	}
}

func (m *simMixer) Index() int { return m.index }

func (m *simMixer) Snapshot(_ context.Context) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]any, len(m.values))
	for name, v := range m.values {
		out[name] = v
	}
	return out, nil
}

func (m *simMixer) Parameter(_ context.Context, name string) (ecomax.Parameter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.params[name]
	if !ok {
		return ecomax.Parameter{}, ecomax.ErrParameterNotFound
	}
	return p, nil
}

func (m *simMixer) SetParameter(_ context.Context, name string, value float64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.params[name]
	if !ok {
		return false, ecomax.ErrParameterNotFound
	}
	if value < p.Min || value > p.Max {
		return false, nil
	}
	p.Value = value
	m.params[name] = p
	m.values["target_temp"] = value
	return true, nil
}

// weekSchedule is an in-memory weekly program with a plausible default:
// day preset 06:00..22:00, night otherwise, every day.
type weekSchedule struct {
	mu      sync.Mutex
	days    map[string]*ecomax.ScheduleDay
	commits int
}

func newWeekSchedule() *weekSchedule {
	days := make(map[string]*ecomax.ScheduleDay, len(ecomax.Weekdays))
	for _, weekday := range ecomax.Weekdays {
		day := &ecomax.ScheduleDay{}
		for slot := 12; slot < 44; slot++ { // 06:00 .. 22:00
			day.Slots[slot] = true
		}
		days[weekday] = day
	}
	return &weekSchedule{days: days}
}

func (s *weekSchedule) Day(weekday string) (*ecomax.ScheduleDay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	day, ok := s.days[weekday]
	if !ok {
		return nil, ecomax.ErrDayNotFound
	}
	return day, nil
}

func (s *weekSchedule) Commit(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commits++
	return nil
}
