package api

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/emberlink/ecomax-bridge/internal/audit"
	"github.com/emberlink/ecomax-bridge/internal/bridge"
	"github.com/emberlink/ecomax-bridge/internal/device"
	"github.com/emberlink/ecomax-bridge/internal/ecomax"
	"github.com/emberlink/ecomax-bridge/internal/entry"
	"github.com/emberlink/ecomax-bridge/internal/infrastructure/config"
	"github.com/emberlink/ecomax-bridge/internal/infrastructure/influxdb"
	"github.com/emberlink/ecomax-bridge/internal/infrastructure/logging"
)

// testEnv bundles the collaborators behind a test server so individual
// tests can seed data or flip failure modes.
type testEnv struct {
	repo        *entry.SQLiteRepository
	audit       *audit.SQLiteRepository
	registry    *device.Registry
	device      *fakeDevice
	history     *fakeHistory
	record      *entry.Record
	coordinator *bridge.Coordinator
}

// testServer creates a Server over a fake controller connection with a
// completed setup, an in-memory record repository and a fake alert
// history.
func testServer(t *testing.T) (*Server, *testEnv) {
	t.Helper()

	repo, auditRepo := setupTestRepo(t)
	registry := device.NewRegistry()
	dev := testDevice()
	conn := &fakeConnection{device: dev}

	rec := &entry.Record{
		ID:    "rec-1",
		Title: "Boiler",
		Connection: entry.ConnectionConfig{
			Kind: entry.ConnectionTCP,
			Host: "boiler.local",
			Port: 8899,
		},
		Model:    "EM350P2",
		UID:      "TEST123456",
		Software: "6.10.32",
		Capabilities: []string{
			"ecomax_control",
			"schedules",
			"mixer_1_mixer_target_temp",
		},
		Version: entry.CurrentVersion,
	}

	log := logging.New(config.LoggingConfig{Level: "error", Format: "text", Output: "stdout"}, "test")

	coordinator := bridge.NewCoordinator(bridge.CoordinatorConfig{
		Connection: conn,
		Record:     rec,
		Repository: repo,
		Registry:   registry,
		Logger:     log,
	})
	if err := coordinator.Setup(context.Background()); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	t.Cleanup(func() { coordinator.Close() }) //nolint:errcheck // Test cleanup

	history := &fakeHistory{}

	srv, err := New(Deps{
		Config: config.APIConfig{
			Host: "127.0.0.1",
			Port: 0,
			Timeouts: config.APITimeoutConfig{
				Read:  5,
				Write: 5,
				Idle:  5,
			},
		},
		WS: config.WebSocketConfig{
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		Logger:      log,
		Coordinator: coordinator,
		Services:    bridge.NewServices(coordinator, log),
		Entries:     repo,
		Registry:    registry,
		History:     history,
		Audit:       auditRepo,
		MQTT:        nil,
		Version:     "test",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	// Initialise hub for tests
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	srv.hub = NewHub(srv.wsCfg, log)
	go srv.hub.Run(ctx)

	return srv, &testEnv{
		repo:        repo,
		audit:       auditRepo,
		registry:    registry,
		device:      dev,
		history:     history,
		record:      rec,
		coordinator: coordinator,
	}
}

// setupTestRepo creates an in-memory database with the bridge schema
// and returns the record and audit repositories backed by it.
func setupTestRepo(t *testing.T) (*entry.SQLiteRepository, *audit.SQLiteRepository) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}

	schema := `
		CREATE TABLE config_entries (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			version INTEGER NOT NULL,
			data TEXT NOT NULL,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		) STRICT;
		CREATE TABLE control_audit (
			id TEXT PRIMARY KEY,
			action TEXT NOT NULL,
			target TEXT NOT NULL,
			target_id TEXT,
			source TEXT NOT NULL,
			details TEXT,
			created_at TEXT NOT NULL
		) STRICT;`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("creating schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close() //nolint:errcheck // Test cleanup
	})
	return entry.NewSQLiteRepository(db), audit.NewSQLiteRepository(db)
}

// testDevice builds a fake controller with one readable parameter, a
// heating schedule and one mixer at index 1.
func testDevice() *fakeDevice {
	days := make(map[string]*ecomax.ScheduleDay, len(ecomax.Weekdays))
	for _, weekday := range ecomax.Weekdays {
		days[weekday] = &ecomax.ScheduleDay{}
	}

	return &fakeDevice{
		product: ecomax.ProductInfo{
			Type:     ecomax.ProductTypeEcomaxP,
			ID:       51,
			UID:      "TEST123456",
			Model:    "EM350P2",
			Software: "6.10.32",
		},
		snapshot: map[string]any{
			ecomax.ValueLoaded: true,
		},
		params: map[string]ecomax.Parameter{
			"heating_target_temp": {Name: "heating_target_temp", Value: 60, Min: 30, Max: 80},
		},
		mixers: map[int]ecomax.SubDevice{
			1: &fakeMixer{
				index: 1,
				params: map[string]ecomax.Parameter{
					"mixer_target_temp": {Name: "mixer_target_temp", Value: 40, Min: 20, Max: 60},
				},
			},
		},
		schedules: map[string]ecomax.Schedule{
			bridge.ScheduleHeating: &fakeSchedule{days: days},
		},
	}
}

// fakeConnection implements ecomax.Connection around one fakeDevice.
type fakeConnection struct {
	device *fakeDevice
}

func (c *fakeConnection) Open(context.Context) error { return nil }
func (c *fakeConnection) Close() error               { return nil }
func (c *fakeConnection) Host() string               { return "boiler.local:8899" }

func (c *fakeConnection) Device(context.Context, string) (ecomax.Device, error) {
	return c.device, nil
}

// fakeDevice implements ecomax.Device with canned data.
type fakeDevice struct {
	mu        sync.Mutex
	product   ecomax.ProductInfo
	snapshot  map[string]any
	params    map[string]ecomax.Parameter
	setCalls  map[string]float64
	mixers    map[int]ecomax.SubDevice
	schedules map[string]ecomax.Schedule
}

func (d *fakeDevice) WaitFor(context.Context, string) error { return nil }

func (d *fakeDevice) Get(_ context.Context, name string) (any, error) {
	v, ok := d.snapshot[name]
	if !ok {
		return nil, ecomax.ErrValueNotFound
	}
	return v, nil
}

func (d *fakeDevice) Snapshot(context.Context) (map[string]any, error) {
	return d.snapshot, nil
}

func (d *fakeDevice) Mixers(context.Context) (map[int]ecomax.SubDevice, error) {
	return d.mixers, nil
}

func (d *fakeDevice) Product(context.Context) (ecomax.ProductInfo, error) {
	return d.product, nil
}

func (d *fakeDevice) Schedules(context.Context) (map[string]ecomax.Schedule, error) {
	return d.schedules, nil
}

func (d *fakeDevice) SubscribeChange(string, func(any)) func() {
	return func() {}
}

func (d *fakeDevice) Parameter(_ context.Context, name string) (ecomax.Parameter, error) {
	p, ok := d.params[name]
	if !ok {
		return ecomax.Parameter{}, ecomax.ErrParameterNotFound
	}
	return p, nil
}

func (d *fakeDevice) SetParameter(_ context.Context, name string, value float64) (bool, error) {
	if _, ok := d.params[name]; !ok {
		return false, ecomax.ErrParameterNotFound
	}
	d.mu.Lock()
	if d.setCalls == nil {
		d.setCalls = make(map[string]float64)
	}
	d.setCalls[name] = value
	d.mu.Unlock()
	return true, nil
}

func (d *fakeDevice) setCall(name string) (float64, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.setCalls[name]
	return v, ok
}

// fakeMixer implements ecomax.SubDevice.
type fakeMixer struct {
	index  int
	params map[string]ecomax.Parameter

	mu       sync.Mutex
	setCalls map[string]float64
}

func (m *fakeMixer) Index() int { return m.index }

func (m *fakeMixer) Snapshot(context.Context) (map[string]any, error) {
	return map[string]any{}, nil
}

func (m *fakeMixer) Parameter(_ context.Context, name string) (ecomax.Parameter, error) {
	p, ok := m.params[name]
	if !ok {
		return ecomax.Parameter{}, ecomax.ErrParameterNotFound
	}
	return p, nil
}

func (m *fakeMixer) SetParameter(_ context.Context, name string, value float64) (bool, error) {
	if _, ok := m.params[name]; !ok {
		return false, ecomax.ErrParameterNotFound
	}
	m.mu.Lock()
	if m.setCalls == nil {
		m.setCalls = make(map[string]float64)
	}
	m.setCalls[name] = value
	m.mu.Unlock()
	return true, nil
}

// fakeSchedule implements ecomax.Schedule over in-memory days.
type fakeSchedule struct {
	days    map[string]*ecomax.ScheduleDay
	commits int
}

func (s *fakeSchedule) Day(weekday string) (*ecomax.ScheduleDay, error) {
	day, ok := s.days[weekday]
	if !ok {
		return nil, ecomax.ErrDayNotFound
	}
	return day, nil
}

func (s *fakeSchedule) Commit(context.Context) error {
	s.commits++
	return nil
}

// fakeHistory implements AlertHistory with canned entries.
type fakeHistory struct {
	entries      []influxdb.AlertHistoryEntry
	err          error
	lastDeviceID string
	lastLookback time.Duration
}

func (h *fakeHistory) QueryRecentAlerts(_ context.Context, deviceID string, lookback time.Duration) ([]influxdb.AlertHistoryEntry, error) {
	h.lastDeviceID = deviceID
	h.lastLookback = lookback
	if h.err != nil {
		return nil, h.err
	}
	return h.entries, nil
}
