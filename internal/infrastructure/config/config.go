package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gatelink/gatelink-core/internal/radio"
	"github.com/gatelink/gatelink-core/internal/relay"
)

// Config is the root configuration structure for Gatelink Core.
// All configuration is loaded from YAML and can be overridden by
// environment variables.
type Config struct {
	Gateway   GatewayConfig   `yaml:"gateway"`
	Network   NetworkConfig   `yaml:"network"`
	Bootstrap BootstrapConfig `yaml:"bootstrap"`
	MQTT      MQTTConfig      `yaml:"mqtt"`
	Relay     RelayConfig     `yaml:"relay"`
	Staging   StagingConfig   `yaml:"staging"`
	InfluxDB  InfluxDBConfig  `yaml:"influxdb"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// GatewayConfig contains gateway identity information.
type GatewayConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// NetworkConfig contains the WiFi credentials and interface selection.
type NetworkConfig struct {
	SSID       string `yaml:"ssid"`
	Passphrase string `yaml:"passphrase"`
	Security   string `yaml:"security"`
	Interface  string `yaml:"interface"`
}

// Credentials converts the network section into radio credentials.
func (c NetworkConfig) Credentials() (radio.Credentials, error) {
	mode, err := radio.ParseSecurityMode(c.Security)
	if err != nil {
		return radio.Credentials{}, err
	}
	return radio.Credentials{
		SSID:       c.SSID,
		Passphrase: c.Passphrase,
		Security:   mode,
	}, nil
}

// BootstrapConfig contains polling and deadline settings for network
// bring-up. Intervals are in milliseconds, timeouts in seconds.
type BootstrapConfig struct {
	PollIntervalMs    int `yaml:"poll_interval_ms"`
	DHCPTimeout       int `yaml:"dhcp_timeout"`
	AddressTimeout    int `yaml:"address_timeout"`
	AssociateAttempts int `yaml:"associate_attempts"`
}

// GetPollInterval returns the bootstrap poll interval as a Duration.
func (c BootstrapConfig) GetPollInterval() time.Duration {
	return time.Duration(c.PollIntervalMs) * time.Millisecond
}

// GetDHCPTimeout returns the DHCP wait deadline as a Duration.
func (c BootstrapConfig) GetDHCPTimeout() time.Duration {
	return time.Duration(c.DHCPTimeout) * time.Second
}

// GetAddressTimeout returns the address-record wait deadline as a Duration.
func (c BootstrapConfig) GetAddressTimeout() time.Duration {
	return time.Duration(c.AddressTimeout) * time.Second
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
// Address is a dotted-quad IPv4 address: the broker endpoint is four
// octets plus a port, fixed for the life of the process.
type MQTTBrokerConfig struct {
	Address  string `yaml:"address"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// Endpoint converts the broker section into a radio.Endpoint.
func (c MQTTBrokerConfig) Endpoint() (radio.Endpoint, error) {
	octets, err := radio.ParseOctets(c.Address)
	if err != nil {
		return radio.Endpoint{}, err
	}
	return radio.Endpoint{Address: octets, Port: c.Port}, nil
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings (seconds).
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// RelayConfig contains message relay settings.
type RelayConfig struct {
	// Strategy selects the staging strategy: "heap" or "store".
	Strategy string `yaml:"strategy"`

	// InboundTopic is the subscription topic.
	InboundTopic string `yaml:"inbound_topic"`

	// OutboundTopic is where payloads are republished.
	OutboundTopic string `yaml:"outbound_topic"`

	// Mode selects the relay output: "publish", "echo", or "both".
	Mode string `yaml:"mode"`

	// MaxPayload is the heap strategy's payload ceiling in bytes.
	MaxPayload int `yaml:"max_payload"`
}

// Relay strategy names accepted in RelayConfig.Strategy.
const (
	StrategyHeap  = "heap"
	StrategyStore = "store"
)

// StagingConfig contains the durable staging store settings
// (store strategy only).
type StagingConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
	Capacity    int64  `yaml:"capacity"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment
// variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: GATELINK_SECTION_KEY
// For example: GATELINK_NETWORK_SSID, GATELINK_MQTT_ADDRESS
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Gateway: GatewayConfig{
			ID:   "gateway-001",
			Name: "Gatelink",
		},
		Network: NetworkConfig{
			Security: "wpa2",
		},
		Bootstrap: BootstrapConfig{
			PollIntervalMs:    100,
			DHCPTimeout:       60,
			AddressTimeout:    30,
			AssociateAttempts: 1,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Address: "127.0.0.1",
				Port:    1883,
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		Relay: RelayConfig{
			Strategy:      StrategyHeap,
			InboundTopic:  "gatelink/relay/in",
			OutboundTopic: "gatelink/relay/out",
			Mode:          string(relay.ModePublish),
			MaxPayload:    1 << 20,
		},
		Staging: StagingConfig{
			Path:        "./data/gatelink.db",
			WALMode:     true,
			BusyTimeout: 5,
			Capacity:    256 * 1024,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the
// configuration. Environment variables follow the pattern:
// GATELINK_SECTION_KEY.
func applyEnvOverrides(cfg *Config) {
	// Network
	if v := os.Getenv("GATELINK_NETWORK_SSID"); v != "" {
		cfg.Network.SSID = v
	}
	if v := os.Getenv("GATELINK_NETWORK_PASSPHRASE"); v != "" {
		cfg.Network.Passphrase = v
	}

	// MQTT
	if v := os.Getenv("GATELINK_MQTT_ADDRESS"); v != "" {
		cfg.MQTT.Broker.Address = v
	}
	if v := os.Getenv("GATELINK_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("GATELINK_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Staging
	if v := os.Getenv("GATELINK_STAGING_PATH"); v != "" {
		cfg.Staging.Path = v
	}

	// InfluxDB
	if v := os.Getenv("GATELINK_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Gateway.ID == "" {
		errs = append(errs, "gateway.id is required")
	}

	if c.Network.SSID == "" {
		errs = append(errs, "network.ssid is required")
	}
	if _, err := radio.ParseSecurityMode(c.Network.Security); err != nil {
		errs = append(errs, fmt.Sprintf("network.security: %v", err))
	}

	if _, err := radio.ParseOctets(c.MQTT.Broker.Address); err != nil {
		errs = append(errs, fmt.Sprintf("mqtt.broker.address: %v", err))
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	switch c.Relay.Strategy {
	case StrategyHeap, StrategyStore:
	default:
		errs = append(errs, fmt.Sprintf("relay.strategy must be %q or %q", StrategyHeap, StrategyStore))
	}
	if c.Relay.InboundTopic == "" {
		errs = append(errs, "relay.inbound_topic is required")
	}
	if c.Relay.OutboundTopic == "" {
		errs = append(errs, "relay.outbound_topic is required")
	}
	if c.Relay.InboundTopic != "" && c.Relay.InboundTopic == c.Relay.OutboundTopic {
		// Relaying a topic onto itself loops indefinitely through the broker.
		errs = append(errs, "relay.inbound_topic and relay.outbound_topic must differ")
	}
	if _, err := relay.ParseOutputMode(c.Relay.Mode); err != nil {
		errs = append(errs, fmt.Sprintf("relay.mode: %v", err))
	}

	if c.Relay.Strategy == StrategyStore && c.Staging.Path == "" {
		errs = append(errs, "staging.path is required when relay.strategy is store")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}
