// Gatelink Core - WiFi to MQTT relay gateway
//
// This is the main entry point for the Gatelink Core application.
// Gatelink brings a network interface up through a staged bootstrap
// sequence, connects to a fixed MQTT broker endpoint, and relays
// messages from an inbound topic to an outbound topic through a
// configurable staging strategy.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/gatelink/gatelink-core/migrations"

	"github.com/gatelink/gatelink-core/internal/bootstrap"
	"github.com/gatelink/gatelink-core/internal/infrastructure/config"
	"github.com/gatelink/gatelink-core/internal/infrastructure/database"
	"github.com/gatelink/gatelink-core/internal/infrastructure/influxdb"
	"github.com/gatelink/gatelink-core/internal/infrastructure/logging"
	"github.com/gatelink/gatelink-core/internal/infrastructure/mqtt"
	"github.com/gatelink/gatelink-core/internal/radio"
	"github.com/gatelink/gatelink-core/internal/relay"
	"github.com/gatelink/gatelink-core/internal/staging"
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
// Returning an error allows main to handle exit codes consistently.
//
// Fatal bootstrap stage errors surface here as bootstrap.StageError values;
// run is the single place that turns them into process exit. Stages never
// terminate the process themselves.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting Gatelink Core",
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

	// Bring the network up through the staged bootstrap sequence
	driver := radio.NewHostDriver(cfg.Network.Interface)
	record, timings, err := runBootstrap(ctx, cfg, driver, log)
	if err != nil {
		if bootstrap.IsFatal(err) {
			return fmt.Errorf("network bootstrap halted: %w", err)
		}
		return fmt.Errorf("network bootstrap: %w", err)
	}
	log.Info("network ready",
		"ip", record.IP.String(),
		"gateway", record.Gateway.String(),
	)

	// Probe broker reachability before handing the endpoint to MQTT.
	// The dial exercises the same four-octets-plus-port endpoint the
	// session will use, so an unreachable broker fails fast here.
	endpoint, err := cfg.MQTT.Broker.Endpoint()
	if err != nil {
		return fmt.Errorf("broker endpoint: %w", err)
	}
	if err := driver.ConnectTCP(endpoint); err != nil {
		return fmt.Errorf("broker unreachable at %s: %w", endpoint, err)
	}
	log.Info("broker reachable", "endpoint", endpoint.String())

	// Build the staging strategy
	strategy, db, err := buildStrategy(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("building staging strategy: %w", err)
	}
	if db != nil {
		defer func() {
			log.Info("closing staging database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing staging database", "error", closeErr)
			}
		}()
	}

	mode, err := relay.ParseOutputMode(cfg.Relay.Mode)
	if err != nil {
		return fmt.Errorf("relay mode: %w", err)
	}

	// Create the relay. The session does not exist yet; the relay is
	// bound to it after Connect, before any subscription is created.
	rel := relay.New(relay.Config{
		InboundTopic:  cfg.Relay.InboundTopic,
		OutboundTopic: cfg.Relay.OutboundTopic,
		QoS:           byte(cfg.MQTT.QoS), //nolint:gosec // validated 0-2
		Mode:          mode,
	}, strategy)
	rel.SetLogger(log)

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
	log.Info("MQTT connected",
		"endpoint", endpoint.String(),
		"client_id", mqttClient.ClientID(),
	)

	// Set up MQTT logging callbacks. The logger also covers the handler
	// panic-recovery and handler-error paths inside the session.
	mqttClient.SetLogger(log)
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT reconnected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})

	// Connect to InfluxDB (optional)
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
		log.Info("InfluxDB connected",
			"url", cfg.InfluxDB.URL,
			"org", cfg.InfluxDB.Org,
			"bucket", cfg.InfluxDB.Bucket,
		)

		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})

		// Record how long each bootstrap stage took. The sink connects
		// after bootstrap, so the stage completion times are backdated.
		for _, st := range timings {
			influxClient.WriteBootstrapStage(st.Stage, st.Duration, st.Attempts, st.CompletedAt)
		}

		rel.SetRecorder(&relayRecorderAdapter{client: influxClient})
	} else {
		log.Info("InfluxDB disabled")
	}

	// Bind the relay to the live session, then subscribe. Binding first
	// guarantees a message can never reach the handler before the relay
	// has a session to publish with.
	rel.Bind(mqttClient)
	if err := mqttClient.Subscribe(cfg.Relay.InboundTopic, byte(cfg.MQTT.QoS), rel.HandleMessage); err != nil { //nolint:gosec // validated 0-2
		return fmt.Errorf("subscribing to inbound topic: %w", err)
	}
	log.Info("relay active",
		"inbound", cfg.Relay.InboundTopic,
		"outbound", cfg.Relay.OutboundTopic,
		"strategy", cfg.Relay.Strategy,
		"mode", cfg.Relay.Mode,
		"subscriptions", mqttClient.SubscriptionCount(),
	)

	// Verify all connections are healthy
	if err := healthCheck(ctx, db, mqttClient, influxClient, cfg.Relay.InboundTopic); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	log.Info("all health checks passed")

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up",
		"relayed", rel.Relayed(),
		"failed", rel.Failed(),
	)

	// Stop inbound delivery before the session announces offline.
	if err := mqttClient.Unsubscribe(cfg.Relay.InboundTopic); err != nil {
		log.Warn("unsubscribe failed", "topic", cfg.Relay.InboundTopic, "error", err)
	}

	// Deferred Close() calls will run in reverse order:
	// 1. InfluxDB (if enabled)
	// 2. MQTT
	// 3. Staging database (if store strategy)

	log.Info("Gatelink Core stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses GATELINK_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("GATELINK_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// runBootstrap drives the network bring-up state machine to completion.
// The returned stage timings feed the telemetry sink once it is connected.
func runBootstrap(ctx context.Context, cfg *config.Config, driver radio.Driver, log *logging.Logger) (radio.AddressRecord, []bootstrap.StageTiming, error) {
	creds, err := cfg.Network.Credentials()
	if err != nil {
		return radio.AddressRecord{}, nil, fmt.Errorf("network credentials: %w", err)
	}

	boot := bootstrap.New(driver, bootstrap.Config{
		Credentials:       creds,
		PollInterval:      cfg.Bootstrap.GetPollInterval(),
		DHCPTimeout:       cfg.Bootstrap.GetDHCPTimeout(),
		AddressTimeout:    cfg.Bootstrap.GetAddressTimeout(),
		AssociateAttempts: cfg.Bootstrap.AssociateAttempts,
	})
	boot.SetLogger(log)

	rec, err := boot.Run(ctx)
	if err != nil {
		return radio.AddressRecord{}, nil, err
	}
	return rec, boot.Timings(), nil
}

// buildStrategy constructs the staging strategy named in config.
//
// The store strategy opens the staging database and runs migrations;
// the returned *database.DB is non-nil in that case and owned by the
// caller's defer chain. The heap strategy returns a nil database.
func buildStrategy(ctx context.Context, cfg *config.Config, log *logging.Logger) (relay.Strategy, *database.DB, error) {
	switch cfg.Relay.Strategy {
	case config.StrategyHeap:
		return relay.NewHeapStrategy(cfg.Relay.MaxPayload), nil, nil

	case config.StrategyStore:
		db, err := database.Open(ctx, database.Config{
			Path:        cfg.Staging.Path,
			WALMode:     cfg.Staging.WALMode,
			BusyTimeout: cfg.Staging.BusyTimeout,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("opening staging database: %w", err)
		}
		if migrateErr := db.Migrate(ctx); migrateErr != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("running migrations: %w", migrateErr)
		}
		log.Info("staging database ready", "path", cfg.Staging.Path)

		store := staging.NewSQLiteStore(db, cfg.Staging.Capacity)
		return relay.NewStoreStrategy(store), db, nil

	default:
		return nil, nil, fmt.Errorf("unknown relay strategy %q", cfg.Relay.Strategy)
	}
}

// healthCheck verifies all infrastructure connections are healthy and that
// the relay's inbound subscription is registered with the session.
//
// db and influxClient may be nil when the store strategy or telemetry
// is not in use.
func healthCheck(ctx context.Context, db *database.DB, mqttClient *mqtt.Client, influxClient *influxdb.Client, inboundTopic string) error {
	if db != nil {
		if err := db.HealthCheck(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	if !mqttClient.HasSubscription(inboundTopic) {
		return fmt.Errorf("mqtt: inbound subscription %q not registered", inboundTopic)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}

// relayRecorderAdapter adapts the InfluxDB client to the relay's Recorder
// interface so the relay package stays free of telemetry imports.
type relayRecorderAdapter struct {
	client *influxdb.Client
}

// RecordRelay implements relay.Recorder.
func (a *relayRecorderAdapter) RecordRelay(strategy string, bytes int, duration time.Duration, success bool) {
	a.client.WriteRelayMetric(strategy, bytes, duration, success)
}
