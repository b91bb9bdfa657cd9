// MQTT Connector - identity-scoped secure messaging client
//
// This is the main entry point for the connector daemon. It establishes a
// mutually-authenticated TLS session to an MQTT broker, derives the client
// identity from the certificate's common name, and keeps every topic the
// process touches inside the "{identity}/" namespace. Connection lifecycle
// events are logged and, when enabled, recorded to a SQLite session journal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/ubyte-source/go-mqtt-client/migrations"

	"github.com/ubyte-source/go-mqtt-client/internal/connector"
	"github.com/ubyte-source/go-mqtt-client/internal/identity"
	"github.com/ubyte-source/go-mqtt-client/internal/infrastructure/config"
	"github.com/ubyte-source/go-mqtt-client/internal/infrastructure/database"
	"github.com/ubyte-source/go-mqtt-client/internal/infrastructure/logging"
	"github.com/ubyte-source/go-mqtt-client/internal/journal"
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
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting mqtt connector",
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

	// Load client credentials and derive the identity
	store := identity.NewStore()
	if err := store.Load(cfg.Identity.RootCA, cfg.Identity.Certificate, cfg.Identity.PrivateKey); err != nil {
		return fmt.Errorf("loading credentials: %w", err)
	}
	log.Info("credentials loaded", "identity", store.Identity())

	// Build the connector
	conn := connector.New(store)
	conn.SetLogger(log)
	if err := conn.SetHost(cfg.Broker.Host); err != nil {
		return fmt.Errorf("setting broker host: %w", err)
	}
	if err := conn.SetPort(cfg.Broker.Port); err != nil {
		return fmt.Errorf("setting broker port: %w", err)
	}
	if err := conn.SetScheme(cfg.Broker.Scheme); err != nil {
		return fmt.Errorf("setting broker scheme: %w", err)
	}
	conn.SetKeepAlive(cfg.GetKeepAlive())

	brokerURL := conn.Params().BrokerURL()

	// Open the session journal (optional)
	var recorder *journal.Recorder
	if cfg.Journal.Enabled {
		db, err := database.Open(database.Config{
			Path:        cfg.Journal.Path,
			WALMode:     cfg.Journal.WALMode,
			BusyTimeout: cfg.Journal.BusyTimeout,
		})
		if err != nil {
			return fmt.Errorf("opening journal database: %w", err)
		}
		defer func() {
			log.Info("closing journal database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing journal database", "error", closeErr)
			}
		}()

		if migrateErr := db.Migrate(ctx); migrateErr != nil {
			return fmt.Errorf("running journal migrations: %w", migrateErr)
		}
		log.Info("journal ready", "path", db.Path())

		repo := journal.NewSQLiteRepository(db.DB)
		recorder = journal.NewRecorder(repo, log, brokerURL, store.Identity())
	} else {
		log.Info("journal disabled")
	}

	// Wire lifecycle observers: every event is logged, and journalled when
	// the journal is enabled
	conn.OnConnect(func() {
		log.Info("broker connected", "broker", brokerURL, "identity", conn.Identity())
		if recorder != nil {
			recorder.Connected()
		}
	})
	conn.OnReconnect(func() {
		log.Warn("reconnecting to broker", "broker", brokerURL)
		if recorder != nil {
			recorder.Reconnecting()
		}
	})
	conn.OnConnectionLost(func(err error) {
		log.Warn("broker connection lost", "error", err)
		if recorder != nil {
			recorder.ConnectionLost(err)
		}
	})
	conn.OnError(func(err error) {
		log.Error("transport error", "error", err)
		if recorder != nil {
			recorder.Error(err)
		}
	})
	conn.OnMessage(func(topic string, payload []byte) error {
		log.Info("message received", "topic", topic, "bytes", len(payload))
		return nil
	})

	// Initiate the connection; establishment and retries are asynchronous
	// and surface through the observers above
	if err := conn.Connect(); err != nil {
		return fmt.Errorf("connecting to broker: %w", err)
	}
	log.Info("connection initiated",
		"broker", brokerURL,
		"identity", conn.Identity(),
		"qos", cfg.QoS,
	)

	log.Info("initialisation complete, waiting for shutdown signal")

	// Wait for shutdown signal
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")

	if err := conn.Close(); err != nil {
		log.Error("error closing connection", "error", err)
	}
	if recorder != nil {
		recorder.Disconnected()
	}

	log.Info("mqtt connector stopped")
	return nil
}

// getConfigPath returns the configuration file path.
// Uses MQTTLINK_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("MQTTLINK_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
