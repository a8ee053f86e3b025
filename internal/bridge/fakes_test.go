package bridge

import (
	"context"
	"database/sql"
	"sync"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/emberlink/ecomax-bridge/internal/ecomax"
	"github.com/emberlink/ecomax-bridge/internal/entry"
)

// setupTestRepo creates an in-memory record repository.
func setupTestRepo(t *testing.T) *entry.SQLiteRepository {
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
		) STRICT;`
	if _, err := db.Exec(schema); err != nil {
		t.Fatalf("creating schema: %v", err)
	}

	t.Cleanup(func() {
		db.Close() //nolint:errcheck // Test cleanup
	})
	return entry.NewSQLiteRepository(db)
}

// fakeConnection implements ecomax.Connection around one fakeDevice.
type fakeConnection struct {
	device     *fakeDevice
	host       string
	openErr    error
	openCalls  int
	closeCalls int
}

func (c *fakeConnection) Open(ctx context.Context) error {
	c.openCalls++
	return c.openErr
}

func (c *fakeConnection) Close() error {
	c.closeCalls++
	return nil
}

func (c *fakeConnection) Device(ctx context.Context, name string) (ecomax.Device, error) {
	return c.device, nil
}

func (c *fakeConnection) Host() string {
	if c.host == "" {
		return "boiler.local:8899"
	}
	return c.host
}

// fakeDevice implements ecomax.Device with canned data.
type fakeDevice struct {
	mu         sync.Mutex
	product    ecomax.ProductInfo
	snapshot   map[string]any
	params     map[string]ecomax.Parameter
	setCalls   map[string]float64
	setRefused bool
	mixers     map[int]ecomax.SubDevice
	schedules  map[string]ecomax.Schedule
	waitErr    error

	subs map[string][]func(any)
}

func (d *fakeDevice) WaitFor(ctx context.Context, name string) error {
	return d.waitErr
}

func (d *fakeDevice) Get(ctx context.Context, name string) (any, error) {
	v, ok := d.snapshot[name]
	if !ok {
		return nil, ecomax.ErrValueNotFound
	}
	return v, nil
}

func (d *fakeDevice) Snapshot(ctx context.Context) (map[string]any, error) {
	return d.snapshot, nil
}

func (d *fakeDevice) Mixers(ctx context.Context) (map[int]ecomax.SubDevice, error) {
	if d.mixers == nil {
		return nil, ecomax.ErrValueNotFound
	}
	return d.mixers, nil
}

func (d *fakeDevice) Product(ctx context.Context) (ecomax.ProductInfo, error) {
	return d.product, nil
}

func (d *fakeDevice) Schedules(ctx context.Context) (map[string]ecomax.Schedule, error) {
	if d.schedules == nil {
		return nil, ecomax.ErrValueNotFound
	}
	return d.schedules, nil
}

func (d *fakeDevice) SubscribeChange(name string, fn func(any)) func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.subs == nil {
		d.subs = make(map[string][]func(any))
	}
	d.subs[name] = append(d.subs[name], fn)
	return func() {
		d.mu.Lock()
		defer d.mu.Unlock()
		d.subs[name] = nil
	}
}

// fire invokes the subscribers registered for a value name.
func (d *fakeDevice) fire(name string, value any) {
	d.mu.Lock()
	subs := append(([]func(any))(nil), d.subs[name]...)
	d.mu.Unlock()
	for _, fn := range subs {
		fn(value)
	}
}

func (d *fakeDevice) Parameter(ctx context.Context, name string) (ecomax.Parameter, error) {
	p, ok := d.params[name]
	if !ok {
		return ecomax.Parameter{}, ecomax.ErrParameterNotFound
	}
	return p, nil
}

func (d *fakeDevice) SetParameter(ctx context.Context, name string, value float64) (bool, error) {
	if _, ok := d.params[name]; !ok {
		return false, ecomax.ErrParameterNotFound
	}
	if d.setRefused {
		return false, nil
	}
	d.mu.Lock()
	if d.setCalls == nil {
		d.setCalls = make(map[string]float64)
	}
	d.setCalls[name] = value
	d.mu.Unlock()
	return true, nil
}

// fakeMixer implements ecomax.SubDevice.
type fakeMixer struct {
	index  int
	attrs  map[string]any
	params map[string]ecomax.Parameter

	mu       sync.Mutex
	setCalls map[string]float64
}

func (m *fakeMixer) Index() int { return m.index }

func (m *fakeMixer) Snapshot(ctx context.Context) (map[string]any, error) {
	return m.attrs, nil
}

func (m *fakeMixer) Parameter(ctx context.Context, name string) (ecomax.Parameter, error) {
	p, ok := m.params[name]
	if !ok {
		return ecomax.Parameter{}, ecomax.ErrParameterNotFound
	}
	return p, nil
}

func (m *fakeMixer) SetParameter(ctx context.Context, name string, value float64) (bool, error) {
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

func (s *fakeSchedule) Commit(ctx context.Context) error {
	s.commits++
	return nil
}

// fakePublisher captures published MQTT messages.
type fakePublisher struct {
	mu        sync.Mutex
	messages  []publishedMessage
	connected bool
}

type publishedMessage struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

func (p *fakePublisher) Publish(topic string, payload []byte, qos byte, retained bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, publishedMessage{topic, payload, qos, retained})
	return nil
}

func (p *fakePublisher) IsConnected() bool { return p.connected }

func (p *fakePublisher) published() []publishedMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publishedMessage(nil), p.messages...)
}
