package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for homesim.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Site       SiteConfig       `yaml:"site"`
	Simulation SimulationConfig `yaml:"simulation"`
	Database   DatabaseConfig   `yaml:"database"`
	MQTT       MQTTConfig       `yaml:"mqtt"`
	API        APIConfig        `yaml:"api"`
	WebSocket  WebSocketConfig  `yaml:"websocket"`
	InfluxDB   InfluxDBConfig   `yaml:"influxdb"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// SiteConfig contains site-specific information.
type SiteConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
	// Timezone is an IANA zone name; the simulated clock runs in it.
	// Empty or "Local" uses the host zone.
	Timezone string `yaml:"timezone"`
}

// SimulationConfig controls the tick loop and the initial device set.
type SimulationConfig struct {
	// Mode is "interactive" or "realtime".
	Mode string `yaml:"mode"`

	// MaxDevices bounds the registry. Zero or less means unbounded.
	MaxDevices int `yaml:"max_devices"`

	// InitialTemperature is the ambient temperature in °C before any input.
	InitialTemperature int `yaml:"initial_temperature"`

	// StartTime is the simulated start (RFC3339). Empty means now.
	StartTime string `yaml:"start_time"`

	// Step is how far simulated time moves per tick.
	Step time.Duration `yaml:"step"`

	// StepDelay pauses between interactive iterations.
	StepDelay time.Duration `yaml:"step_delay"`

	// TickInterval is the wall-clock period between realtime ticks.
	TickInterval time.Duration `yaml:"tick_interval"`

	// ClockFace selects what clock devices display: "wall" or "simulated".
	ClockFace string `yaml:"clock_face"`

	// ClearScreen clears the terminal before each frame.
	ClearScreen bool `yaml:"clear_screen"`

	// Devices is the initial device set, added in order.
	Devices []DeviceConfig `yaml:"devices"`
}

// DeviceConfig declares one device to create at startup.
type DeviceConfig struct {
	Kind string `yaml:"kind"`
	Name string `yaml:"name"`
}

// Clock face values.
const (
	ClockFaceWall      = "wall"
	ClockFaceSimulated = "simulated"
)

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Enabled   bool                `yaml:"enabled"`
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
}

// APIConfig contains HTTP API server settings.
type APIConfig struct {
	Enabled  bool             `yaml:"enabled"`
	Host     string           `yaml:"host"`
	Port     int              `yaml:"port"`
	Timeouts APITimeoutConfig `yaml:"timeouts"`
	CORS     CORSConfig       `yaml:"cors"`
}

// APITimeoutConfig contains HTTP timeout settings in seconds.
type APITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// CORSConfig contains Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// WebSocketConfig contains WebSocket server settings.
type WebSocketConfig struct {
	Path           string `yaml:"path"`
	MaxMessageSize int    `yaml:"max_message_size"`
	PingInterval   int    `yaml:"ping_interval"`
	PongTimeout    int    `yaml:"pong_timeout"`
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

// MetricsConfig contains Prometheus exposition settings.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Path      string `yaml:"path"`
	Namespace string `yaml:"namespace"`
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
//  2. YAML file values (override defaults), skipped when path is empty
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: HOMESIM_SECTION_KEY
// For example: HOMESIM_DATABASE_PATH, HOMESIM_SIMULATION_MODE
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaultConfig()
}

// DefaultDevices is the device set created when the config names none.
func DefaultDevices() []DeviceConfig {
	return []DeviceConfig{
		{Kind: "light", Name: "Garage Light"},
		{Kind: "air_conditioner", Name: "Living Room AC"},
		{Kind: "tv", Name: "Bedroom TV"},
		{Kind: "clock", Name: "Wall Clock"},
		{Kind: "fan", Name: "Living Room Fan"},
		{Kind: "oven", Name: "Kitchen Oven"},
		{Kind: "washing_machine", Name: "Laundry Washing Machine"},
	}
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			ID:       "home-001",
			Name:     "homesim",
			Timezone: "Local",
		},
		Simulation: SimulationConfig{
			Mode:               "interactive",
			MaxDevices:         10,
			InitialTemperature: 25,
			Step:               10 * time.Second,
			StepDelay:          time.Second,
			TickInterval:       10 * time.Second,
			ClockFace:          ClockFaceWall,
			ClearScreen:        true,
			Devices:            DefaultDevices(),
		},
		Database: DatabaseConfig{
			Path:        "./data/homesim.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "homesim",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
			},
		},
		API: APIConfig{
			Host: "127.0.0.1",
			Port: 8080,
			Timeouts: APITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		WebSocket: WebSocketConfig{
			Path:           "/ws",
			MaxMessageSize: 8192,
			PingInterval:   30,
			PongTimeout:    10,
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Metrics: MetricsConfig{
			Path:      "/metrics",
			Namespace: "homesim",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stderr",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
func applyEnvOverrides(cfg *Config) error {
	// Simulation
	if v := os.Getenv("HOMESIM_SIMULATION_MODE"); v != "" {
		cfg.Simulation.Mode = v
	}
	if v := os.Getenv("HOMESIM_SIMULATION_START_TIME"); v != "" {
		cfg.Simulation.StartTime = v
	}
	if v := os.Getenv("HOMESIM_SIMULATION_INITIAL_TEMPERATURE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HOMESIM_SIMULATION_INITIAL_TEMPERATURE: %w", err)
		}
		cfg.Simulation.InitialTemperature = n
	}
	if v := os.Getenv("HOMESIM_SIMULATION_MAX_DEVICES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HOMESIM_SIMULATION_MAX_DEVICES: %w", err)
		}
		cfg.Simulation.MaxDevices = n
	}

	// Database
	if v := os.Getenv("HOMESIM_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// MQTT
	if v := os.Getenv("HOMESIM_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("HOMESIM_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("HOMESIM_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// API
	if v := os.Getenv("HOMESIM_API_HOST"); v != "" {
		cfg.API.Host = v
	}

	// InfluxDB
	if v := os.Getenv("HOMESIM_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Logging
	if v := os.Getenv("HOMESIM_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	return nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.Site.ID == "" {
		errs = append(errs, "site.id is required")
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Sprintf("site.timezone %q is not a known zone", c.Site.Timezone))
	}

	switch c.Simulation.Mode {
	case "interactive", "realtime":
	default:
		errs = append(errs, "simulation.mode must be interactive or realtime")
	}
	if c.Simulation.Step <= 0 {
		errs = append(errs, "simulation.step must be positive")
	}
	if c.Simulation.StepDelay < 0 {
		errs = append(errs, "simulation.step_delay must not be negative")
	}
	if c.Simulation.Mode == "realtime" && c.Simulation.TickInterval < time.Second {
		errs = append(errs, "simulation.tick_interval must be at least 1s in realtime mode")
	}
	if c.Simulation.StartTime != "" {
		if _, err := time.Parse(time.RFC3339, c.Simulation.StartTime); err != nil {
			errs = append(errs, "simulation.start_time must be RFC3339")
		}
	}
	switch c.Simulation.ClockFace {
	case ClockFaceWall, ClockFaceSimulated:
	default:
		errs = append(errs, "simulation.clock_face must be wall or simulated")
	}
	if c.Simulation.MaxDevices > 0 && len(c.Simulation.Devices) > c.Simulation.MaxDevices {
		errs = append(errs, fmt.Sprintf("simulation.devices lists %d devices but max_devices is %d",
			len(c.Simulation.Devices), c.Simulation.MaxDevices))
	}

	if c.Database.Enabled && c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}

	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		errs = append(errs, "api.port must be between 1 and 65535")
	}

	// /metrics is served by the API server; there is no separate listener.
	if c.Metrics.Enabled && !c.API.Enabled {
		errs = append(errs, "metrics.enabled requires api.enabled")
	}

	if c.InfluxDB.Enabled && c.InfluxDB.URL == "" {
		errs = append(errs, "influxdb.url is required when influxdb is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// Location resolves site.timezone.
func (c *Config) Location() (*time.Location, error) {
	switch c.Site.Timezone {
	case "", "Local":
		return time.Local, nil
	}
	return time.LoadLocation(c.Site.Timezone)
}

// StartAt returns the configured simulated start time, or now when unset,
// expressed in the site's timezone.
func (c *Config) StartAt(now time.Time) time.Time {
	loc, err := c.Location()
	if err != nil {
		loc = time.Local
	}
	if c.Simulation.StartTime == "" {
		return now.In(loc)
	}
	t, err := time.Parse(time.RFC3339, c.Simulation.StartTime)
	if err != nil {
		return now.In(loc)
	}
	return t.In(loc)
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
