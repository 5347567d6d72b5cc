package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for printhive-core.
// All configuration is loaded from YAML and can be overridden by
// environment variables.
type Config struct {
	Database Database      `yaml:"database"`
	Bus      Bus           `yaml:"bus"`
	Router   RouterCfg     `yaml:"router"`
	API      API           `yaml:"api"`
	WS       WebSocket     `yaml:"websocket"`
	MQTT     MQTT          `yaml:"mqtt"`
	InfluxDB InfluxDB      `yaml:"influxdb"`
	Logging  LoggingConfig `yaml:"logging"`
	Security Security      `yaml:"security"`
	Update   Update        `yaml:"update"`
}

// Database contains SQLite settings.
type Database struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// Bus contains event-queue settings.
type Bus struct {
	// Capacity bounds each queue. Zero selects the built-in default.
	Capacity int `yaml:"capacity"`

	// OverflowPolicy is "block", "drop_oldest", or "reject".
	OverflowPolicy string `yaml:"overflow_policy"`
}

// RouterCfg contains router behaviour settings.
type RouterCfg struct {
	// ViolationPolicy is "drop" (log the offending event and continue)
	// or "terminate" (stop the router, letting the host restart).
	ViolationPolicy string `yaml:"violation_policy"`
}

// API contains HTTP API server settings.
type API struct {
	Host     string      `yaml:"host"`
	Port     int         `yaml:"port"`
	Timeouts APITimeouts `yaml:"timeouts"`
}

// APITimeouts contains HTTP timeout settings, in seconds.
type APITimeouts struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// WebSocket contains WebSocket server settings.
type WebSocket struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
}

// MQTT contains MQTT broker connection settings for the integration
// publisher. Disabled by default.
type MQTT struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	QoS      int    `yaml:"qos"`
}

// InfluxDB contains telemetry sink settings. Disabled by default.
type InfluxDB struct {
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

// Security contains security settings.
type Security struct {
	JWT JWT `yaml:"jwt"`
}

// JWT contains access-token settings.
type JWT struct {
	Secret   string `yaml:"secret"`
	TokenTTL int    `yaml:"token_ttl"` // hours
}

// Update contains client update check settings.
type Update struct {
	Enabled     bool   `yaml:"enabled"`
	ManifestURL string `yaml:"manifest_url"`
}

// Load reads configuration from a YAML file and applies environment
// variable overrides.
//
// Loading order:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern PRINTHIVE_SECTION_KEY,
// for example PRINTHIVE_DATABASE_PATH or PRINTHIVE_API_PORT.
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
		Database: Database{
			Path:        "./data/printhive.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Bus: Bus{
			Capacity:       1024,
			OverflowPolicy: "block",
		},
		Router: RouterCfg{
			ViolationPolicy: "drop",
		},
		API: API{
			Host: "0.0.0.0",
			Port: 8085,
			Timeouts: APITimeouts{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WS: WebSocket{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		MQTT: MQTT{
			Host:     "localhost",
			Port:     1883,
			ClientID: "printhive-core",
			QoS:      1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Security: Security{
			JWT: JWT{
				TokenTTL: 24 * 7,
			},
		},
	}
}

// applyEnvOverrides applies PRINTHIVE_* environment variable overrides.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PRINTHIVE_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("PRINTHIVE_API_HOST"); v != "" {
		cfg.API.Host = v
	}
	if v := os.Getenv("PRINTHIVE_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.API.Port = port
		}
	}
	if v := os.Getenv("PRINTHIVE_MQTT_HOST"); v != "" {
		cfg.MQTT.Host = v
	}
	if v := os.Getenv("PRINTHIVE_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Username = v
	}
	if v := os.Getenv("PRINTHIVE_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Password = v
	}
	if v := os.Getenv("PRINTHIVE_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// JWT secret: always override in production.
	if v := os.Getenv("PRINTHIVE_JWT_SECRET"); v != "" {
		cfg.Security.JWT.Secret = v
	}
}

// Validate checks the configuration for errors and security issues.
func (c *Config) Validate() error {
	var errs []string

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.API.Port < 1 || c.API.Port > 65535 {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	switch c.Bus.OverflowPolicy {
	case "block", "drop_oldest", "reject":
	default:
		errs = append(errs, "bus.overflow_policy must be block, drop_oldest, or reject")
	}

	switch c.Router.ViolationPolicy {
	case "drop", "terminate":
	default:
		errs = append(errs, "router.violation_policy must be drop or terminate")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	// A weak signing secret would let a remote client forge tokens for a
	// machine with heaters attached.
	const minJWTSecretLength = 32
	if c.Security.JWT.Secret == "" {
		errs = append(errs, "security.jwt.secret is required (set PRINTHIVE_JWT_SECRET environment variable)")
	} else if len(c.Security.JWT.Secret) < minJWTSecretLength {
		errs = append(errs, "security.jwt.secret must be at least 32 characters")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// GetReadTimeout returns the API read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the API write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the API idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.API.Timeouts.Idle) * time.Second
}

// GetTokenTTL returns the auth token lifetime as a Duration.
func (c *Config) GetTokenTTL() time.Duration {
	return time.Duration(c.Security.JWT.TokenTTL) * time.Hour
}
