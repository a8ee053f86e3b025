// ecoMAX Bridge - Plum boiler controller adapter
//
// This is the main entry point for the ecoMAX bridge. The bridge owns a
// single session to one ecoMAX boiler controller, discovers its optional
// subsystems (mixers, water heater, control switch), keeps the persisted
// configuration record migrated across schema versions, and exposes the
// controller to the rest of the ecosystem over MQTT (alert events, health)
// and HTTP (parameters, schedules, WebSocket event stream).
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/emberlink/ecomax-bridge/migrations"

	"github.com/emberlink/ecomax-bridge/internal/api"
	"github.com/emberlink/ecomax-bridge/internal/audit"
	"github.com/emberlink/ecomax-bridge/internal/bridge"
	"github.com/emberlink/ecomax-bridge/internal/capability"
	"github.com/emberlink/ecomax-bridge/internal/device"
	"github.com/emberlink/ecomax-bridge/internal/ecomax"
	"github.com/emberlink/ecomax-bridge/internal/ecomax/sim"
	"github.com/emberlink/ecomax-bridge/internal/entry"
	"github.com/emberlink/ecomax-bridge/internal/infrastructure/config"
	"github.com/emberlink/ecomax-bridge/internal/infrastructure/database"
	"github.com/emberlink/ecomax-bridge/internal/infrastructure/influxdb"
	"github.com/emberlink/ecomax-bridge/internal/infrastructure/logging"
	"github.com/emberlink/ecomax-bridge/internal/infrastructure/mqtt"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// setupRetryInterval is how often an unresponsive controller session is
// retried after a failed setup.
const setupRetryInterval = 30 * time.Second

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on clean shutdown, or error describing failure
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting ecoMAX bridge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Open database
	db, err := database.Open(database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	// Run migrations
	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Load or create the controller's config record
	repo := entry.NewSQLiteRepository(db.DB)
	rec, err := loadRecord(ctx, repo, cfg)
	if err != nil {
		return fmt.Errorf("loading config record: %w", err)
	}
	log.Info("config record loaded",
		"id", rec.ID,
		"version", rec.Version,
		"endpoint", rec.Connection.Endpoint(),
	)

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log)
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
	)

	// Connect to InfluxDB (optional, backs the alert history)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Build the controller session
	conn, err := buildConnection(cfg.Connection)
	if err != nil {
		return err
	}

	registry := device.NewRegistry()

	migrator, err := entry.NewMigrator()
	if err != nil {
		return fmt.Errorf("building record migrator: %w", err)
	}

	coordinator := bridge.NewCoordinator(bridge.CoordinatorConfig{
		Connection: conn,
		Record:     rec,
		Repository: repo,
		Migrator:   migrator,
		Discoverer: &capability.Discoverer{Logger: log},
		Registry:   registry,
		Logger:     log,
	})
	defer func() {
		if closeErr := coordinator.Close(); closeErr != nil {
			log.Error("error closing controller session", "error", closeErr)
		}
	}()

	services := bridge.NewServices(coordinator, log)

	// Typed-nil guard: a nil *influxdb.Client must not become a
	// non-nil interface value downstream.
	var recorder bridge.AlertRecorder
	var sensors bridge.SensorRecorder
	var history api.AlertHistory
	if influxClient != nil {
		recorder = influxClient
		sensors = influxClient
		history = influxClient
	}

	alertBridge := bridge.NewAlertBridge(bridge.AlertBridgeConfig{
		Coordinator: coordinator,
		Lookup:      registry,
		Publisher:   mqttClient,
		Recorder:    recorder,
		Logger:      log,
	})
	defer alertBridge.Stop()

	telemetry := bridge.NewTelemetryForwarder(bridge.TelemetryForwarderConfig{
		Coordinator: coordinator,
		Lookup:      registry,
		Publisher:   mqttClient,
		Recorder:    sensors,
		Logger:      log,
	})
	defer telemetry.Stop()

	health := bridge.NewHealthReporter(bridge.HealthReporterConfig{
		BridgeID:    cfg.Bridge.ID,
		Version:     version,
		Interval:    cfg.GetHealthInterval(),
		Publisher:   mqttClient,
		Coordinator: coordinator,
		Logger:      log,
	})
	if err := health.PublishStarting(); err != nil {
		log.Warn("publishing starting status", "error", err)
	}
	health.Start(ctx)
	defer health.Stop()

	// Bring the controller session up. An unresponsive controller is
	// retried in the background; everything else is fatal.
	if err := startSession(ctx, coordinator, alertBridge, telemetry, health, registry, log); err != nil {
		if !errors.Is(err, bridge.ErrNotReady) {
			return fmt.Errorf("controller session: %w", err)
		}
		log.Warn("controller unreachable, retrying in background",
			"endpoint", conn.Host(),
			"interval", setupRetryInterval,
			"error", err,
		)
		go retrySession(ctx, coordinator, alertBridge, telemetry, health, registry, log)
	}

	// Start the HTTP API
	apiServer, err := api.New(api.Deps{
		Config:      cfg.API,
		WS:          cfg.WebSocket,
		Logger:      log,
		Coordinator: coordinator,
		Services:    services,
		Entries:     repo,
		Registry:    registry,
		History:     history,
		Audit:       audit.NewSQLiteRepository(db.DB),
		MQTT:        mqttClient,
		Version:     version,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}
	if err := apiServer.Start(ctx); err != nil {
		return fmt.Errorf("starting API server: %w", err)
	}
	defer func() {
		if closeErr := apiServer.Close(); closeErr != nil {
			log.Error("error closing API server", "error", closeErr)
		}
	}()
	log.Info("API server started", "address", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port))

	// Verify infrastructure connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	// Deferred Close() calls run in reverse order:
	// API server, health reporter, telemetry forwarder, alert bridge,
	// controller session, InfluxDB (if enabled), MQTT, database.

	log.Info("ecoMAX bridge stopped")
	return nil
}

// loadRecord fetches the bridge's config record, creating a fresh one
// on first run. The transport parameters always follow the config file,
// so a record created against one endpoint can be pointed at another.
func loadRecord(ctx context.Context, repo entry.Repository, cfg *config.Config) (*entry.Record, error) {
	connection := entry.ConnectionConfig{
		Kind:     cfg.Connection.Kind,
		Device:   cfg.Connection.Device,
		Baudrate: cfg.Connection.Baudrate,
		Host:     cfg.Connection.Host,
		Port:     cfg.Connection.Port,
	}

	rec, err := repo.GetByID(ctx, cfg.Bridge.ID)
	if errors.Is(err, entry.ErrRecordNotFound) {
		rec = &entry.Record{
			ID:         cfg.Bridge.ID,
			Title:      bridgeTitle(cfg),
			Connection: connection,
			Version:    entry.CurrentVersion,
		}
		if createErr := repo.Create(ctx, rec); createErr != nil {
			return nil, createErr
		}
		return rec, nil
	}
	if err != nil {
		return nil, err
	}

	rec.Connection = connection
	return rec, nil
}

// bridgeTitle picks the human-readable connection title.
func bridgeTitle(cfg *config.Config) string {
	if cfg.Bridge.Title != "" {
		return cfg.Bridge.Title
	}
	return cfg.Bridge.ID
}

// buildConnection constructs the controller session for the configured
// transport. Serial and TCP sessions come from the econet device
// library, which is not bundled with this build; the simulator covers
// development and end-to-end testing without hardware.
func buildConnection(cfg config.ConnectionConfig) (ecomax.Connection, error) {
	switch cfg.Kind {
	case config.ConnectionSim:
		return sim.New(sim.Config{Mixers: 1, WaterHeater: true}), nil
	case config.ConnectionSerial, config.ConnectionTCP:
		return nil, fmt.Errorf(
			"connection kind %q requires the econet session library, which is not part of this build; use %q for development",
			cfg.Kind, config.ConnectionSim)
	default:
		return nil, fmt.Errorf("unknown connection kind %q", cfg.Kind)
	}
}

// startSession runs coordinator setup and, on success, starts the alert
// bridge and telemetry forwarder and refreshes the health reporter's
// device count.
func startSession(ctx context.Context, coordinator *bridge.Coordinator, alerts *bridge.AlertBridge, telemetry *bridge.TelemetryForwarder, health *bridge.HealthReporter, registry *device.Registry, log *logging.Logger) error {
	if err := coordinator.Setup(ctx); err != nil {
		return err
	}

	if err := alerts.Start(); err != nil {
		return fmt.Errorf("starting alert bridge: %w", err)
	}
	if err := telemetry.Start(); err != nil {
		return fmt.Errorf("starting telemetry forwarder: %w", err)
	}

	health.SetDeviceCount(len(registry.List()))

	log.Info("controller session established",
		"model", coordinator.Model(),
		"uid", coordinator.UID(),
		"capabilities", coordinator.Capabilities().Len(),
	)
	return nil
}

// retrySession keeps attempting controller setup until it succeeds or
// the bridge shuts down.
func retrySession(ctx context.Context, coordinator *bridge.Coordinator, alerts *bridge.AlertBridge, telemetry *bridge.TelemetryForwarder, health *bridge.HealthReporter, registry *device.Registry, log *logging.Logger) {
	ticker := time.NewTicker(setupRetryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := startSession(ctx, coordinator, alerts, telemetry, health, registry, log)
			if err == nil {
				return
			}
			if !errors.Is(err, bridge.ErrNotReady) {
				log.Error("controller session setup failed", "error", err)
				return
			}
			log.Warn("controller still unreachable", "error", err)
		}
	}
}

// getConfigPath returns the configuration file path.
// Uses ECOMAX_BRIDGE_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("ECOMAX_BRIDGE_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// healthCheck verifies all infrastructure connections are healthy.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//   - db: Database connection to check
//   - mqttClient: MQTT client to check
//   - influxClient: InfluxDB client to check (may be nil if disabled)
//
// Returns:
//   - error: First health check failure, or nil if all healthy
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database: %w", err)
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}
