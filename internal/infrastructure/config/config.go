package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the connector.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Identity IdentityConfig `yaml:"identity"`
	Broker   BrokerConfig   `yaml:"broker"`
	QoS      int            `yaml:"qos"`
	Journal  JournalConfig  `yaml:"journal"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// IdentityConfig contains the filesystem paths of the credential bundle.
// All three artifacts are PEM-encoded.
type IdentityConfig struct {
	RootCA      string `yaml:"root_ca"`
	Certificate string `yaml:"certificate"`
	PrivateKey  string `yaml:"private_key"`
}

// BrokerConfig contains broker connection settings.
type BrokerConfig struct {
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	Scheme string `yaml:"scheme"`

	// KeepAlive is the MQTT keepalive interval in seconds.
	KeepAlive int `yaml:"keep_alive"`
}

// JournalConfig contains session journal settings.
type JournalConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: MQTTLINK_SECTION_KEY
// For example: MQTTLINK_BROKER_HOST, MQTTLINK_IDENTITY_CERTIFICATE
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	// Start with defaults
	cfg := Default()

	// Read and parse YAML file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	applyEnvOverrides(cfg)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config with the connector's default values.
//
// The broker defaults match the secure-by-default posture: TLS transport
// (mqtts) on port 8883. The host is a placeholder that deployments are
// expected to override.
func Default() *Config {
	return &Config{
		Identity: IdentityConfig{
			RootCA:      "./certs/ca.pem",
			Certificate: "./certs/client.pem",
			PrivateKey:  "./certs/client.key",
		},
		Broker: BrokerConfig{
			Host:      "localhost",
			Port:      8883,
			Scheme:    "mqtts",
			KeepAlive: 60,
		},
		QoS: 1,
		Journal: JournalConfig{
			Enabled:     true,
			Path:        "./data/journal.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: MQTTLINK_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Identity
	if v := os.Getenv("MQTTLINK_IDENTITY_ROOT_CA"); v != "" {
		cfg.Identity.RootCA = v
	}
	if v := os.Getenv("MQTTLINK_IDENTITY_CERTIFICATE"); v != "" {
		cfg.Identity.Certificate = v
	}
	if v := os.Getenv("MQTTLINK_IDENTITY_PRIVATE_KEY"); v != "" {
		cfg.Identity.PrivateKey = v
	}

	// Broker
	if v := os.Getenv("MQTTLINK_BROKER_HOST"); v != "" {
		cfg.Broker.Host = v
	}
	if v := os.Getenv("MQTTLINK_BROKER_SCHEME"); v != "" {
		cfg.Broker.Scheme = v
	}

	// Journal
	if v := os.Getenv("MQTTLINK_JOURNAL_PATH"); v != "" {
		cfg.Journal.Path = v
	}
}

// Validate checks the configuration for errors.
//
// Connection parameters (port, scheme) are validated again by the connector's
// fail-fast setters; validating here as well surfaces configuration mistakes
// at startup with all problems listed at once.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Identity validation - all three paths are required together
	if c.Identity.RootCA == "" {
		errs = append(errs, "identity.root_ca is required")
	}
	if c.Identity.Certificate == "" {
		errs = append(errs, "identity.certificate is required")
	}
	if c.Identity.PrivateKey == "" {
		errs = append(errs, "identity.private_key is required")
	}

	// Broker validation
	if c.Broker.Host == "" {
		errs = append(errs, "broker.host is required")
	}
	if c.Broker.Port < 1 || c.Broker.Port > 65535 {
		errs = append(errs, "broker.port must be between 1 and 65535")
	}
	switch c.Broker.Scheme {
	case "mqtt", "mqtts", "ws", "wss":
	default:
		errs = append(errs, "broker.scheme must be one of: mqtt, mqtts, ws, wss")
	}

	// QoS validation
	if c.QoS < 0 || c.QoS > 2 {
		errs = append(errs, "qos must be 0, 1, or 2")
	}

	// Journal validation
	if c.Journal.Enabled && c.Journal.Path == "" {
		errs = append(errs, "journal.path is required when journal.enabled is true")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetKeepAlive returns the broker keepalive interval as a Duration.
func (c *Config) GetKeepAlive() time.Duration {
	return time.Duration(c.Broker.KeepAlive) * time.Second
}
