package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
site:
  id: "test-home"
simulation:
  mode: realtime
  max_devices: 3
  initial_temperature: 41
  start_time: "2026-03-01T07:59:50Z"
  step: 5s
  tick_interval: 2s
  clock_face: simulated
  devices:
    - kind: light
      name: Porch
    - kind: ac
      name: Study AC
database:
  enabled: true
  path: "/tmp/test.db"
mqtt:
  broker:
    host: "broker.local"
    port: 1883
  qos: 1
api:
  enabled: true
  port: 9090
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Site.ID != "test-home" {
		t.Errorf("Site.ID = %q, want %q", cfg.Site.ID, "test-home")
	}
	if cfg.Simulation.Mode != "realtime" {
		t.Errorf("Simulation.Mode = %q, want realtime", cfg.Simulation.Mode)
	}
	if cfg.Simulation.Step != 5*time.Second {
		t.Errorf("Simulation.Step = %v, want 5s", cfg.Simulation.Step)
	}
	if len(cfg.Simulation.Devices) != 2 || cfg.Simulation.Devices[1].Name != "Study AC" {
		t.Errorf("Simulation.Devices = %+v", cfg.Simulation.Devices)
	}
	if cfg.MQTT.Broker.Host != "broker.local" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "broker.local")
	}
	// Unset fields keep defaults.
	if cfg.Simulation.StepDelay != time.Second {
		t.Errorf("Simulation.StepDelay = %v, want default 1s", cfg.Simulation.StepDelay)
	}
	want := time.Date(2026, 3, 1, 7, 59, 50, 0, time.UTC)
	if got := cfg.StartAt(time.Now()); !got.Equal(want) {
		t.Errorf("StartAt() = %v, want %v", got, want)
	}
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Simulation.MaxDevices != 10 {
		t.Errorf("MaxDevices = %d, want 10", cfg.Simulation.MaxDevices)
	}
	if cfg.Simulation.InitialTemperature != 25 {
		t.Errorf("InitialTemperature = %d, want 25", cfg.Simulation.InitialTemperature)
	}
	if len(cfg.Simulation.Devices) != 7 {
		t.Errorf("len(Devices) = %d, want 7", len(cfg.Simulation.Devices))
	}
	now := time.Now()
	if !cfg.StartAt(now).Equal(now) {
		t.Error("StartAt() should fall back to now")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HOMESIM_SIMULATION_MODE", "realtime")
	t.Setenv("HOMESIM_SIMULATION_INITIAL_TEMPERATURE", "-4")
	t.Setenv("HOMESIM_DATABASE_PATH", "/var/lib/homesim/h.db")
	t.Setenv("HOMESIM_MQTT_HOST", "mqtt.example")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Simulation.Mode != "realtime" {
		t.Errorf("Mode = %q, want realtime", cfg.Simulation.Mode)
	}
	if cfg.Simulation.InitialTemperature != -4 {
		t.Errorf("InitialTemperature = %d, want -4", cfg.Simulation.InitialTemperature)
	}
	if cfg.Database.Path != "/var/lib/homesim/h.db" {
		t.Errorf("Database.Path = %q", cfg.Database.Path)
	}
	if cfg.MQTT.Broker.Host != "mqtt.example" {
		t.Errorf("MQTT.Broker.Host = %q", cfg.MQTT.Broker.Host)
	}
}

func TestLoad_EnvOverrideNotANumber(t *testing.T) {
	t.Setenv("HOMESIM_SIMULATION_MAX_DEVICES", "many")

	if _, err := Load(""); err == nil {
		t.Error("Load() expected error for non-numeric override, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{name: "missing site id", mutate: func(c *Config) { c.Site.ID = "" }, wantErr: "site.id"},
		{name: "unknown mode", mutate: func(c *Config) { c.Simulation.Mode = "batch" }, wantErr: "simulation.mode"},
		{name: "zero step", mutate: func(c *Config) { c.Simulation.Step = 0 }, wantErr: "simulation.step"},
		{name: "negative delay", mutate: func(c *Config) { c.Simulation.StepDelay = -time.Second }, wantErr: "step_delay"},
		{
			name: "sub-second realtime interval",
			mutate: func(c *Config) {
				c.Simulation.Mode = "realtime"
				c.Simulation.TickInterval = 500 * time.Millisecond
			},
			wantErr: "tick_interval",
		},
		{name: "bad start time", mutate: func(c *Config) { c.Simulation.StartTime = "yesterday" }, wantErr: "start_time"},
		{name: "bad clock face", mutate: func(c *Config) { c.Simulation.ClockFace = "sundial" }, wantErr: "clock_face"},
		{name: "too many devices", mutate: func(c *Config) { c.Simulation.MaxDevices = 2 }, wantErr: "max_devices"},
		{name: "unbounded registry", mutate: func(c *Config) { c.Simulation.MaxDevices = 0 }},
		{
			name:    "enabled database without path",
			mutate:  func(c *Config) { c.Database.Enabled = true; c.Database.Path = "" },
			wantErr: "database.path",
		},
		{name: "qos out of range", mutate: func(c *Config) { c.MQTT.QoS = 3 }, wantErr: "mqtt.qos"},
		{
			name:    "enabled api with bad port",
			mutate:  func(c *Config) { c.API.Enabled = true; c.API.Port = 0 },
			wantErr: "api.port",
		},
		{name: "disabled api ignores port", mutate: func(c *Config) { c.API.Port = 0 }},
		{name: "influx without url", mutate: func(c *Config) { c.InfluxDB.Enabled = true }, wantErr: "influxdb.url"},
		{name: "metrics without api", mutate: func(c *Config) { c.Metrics.Enabled = true }, wantErr: "requires api.enabled"},
		{
			name:   "metrics with api",
			mutate: func(c *Config) { c.Metrics.Enabled = true; c.API.Enabled = true },
		},
		{name: "unknown timezone", mutate: func(c *Config) { c.Site.Timezone = "Mars/Olympus" }, wantErr: "site.timezone"},
		{name: "utc timezone", mutate: func(c *Config) { c.Site.Timezone = "UTC" }},
		{name: "empty timezone is local", mutate: func(c *Config) { c.Site.Timezone = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_StartAt_SiteTimezone(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Skipf("zoneinfo unavailable: %v", err)
	}

	cfg := Default()
	cfg.Site.Timezone = "Asia/Tokyo"
	cfg.Simulation.StartTime = "2026-03-01T07:59:50Z"

	got := cfg.StartAt(time.Now())
	if got.Location().String() != loc.String() {
		t.Errorf("StartAt() location = %v, want %v", got.Location(), loc)
	}
	if got.Hour() != 16 || got.Minute() != 59 {
		t.Errorf("StartAt() = %v, want 16:59 local", got)
	}

	cfg.Simulation.StartTime = ""
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	if got := cfg.StartAt(now); got.Hour() != 9 || !got.Equal(now) {
		t.Errorf("StartAt(now) = %v, want same instant at 09:00 local", got)
	}
}

func TestConfig_Location_Local(t *testing.T) {
	for _, tz := range []string{"", "Local"} {
		cfg := Default()
		cfg.Site.Timezone = tz
		loc, err := cfg.Location()
		if err != nil || loc != time.Local {
			t.Errorf("Location(%q) = %v, %v; want time.Local", tz, loc, err)
		}
	}
}

func TestConfig_Timeouts(t *testing.T) {
	cfg := Default()
	if cfg.GetReadTimeout() != 30*time.Second {
		t.Errorf("GetReadTimeout() = %v, want 30s", cfg.GetReadTimeout())
	}
	if cfg.GetWriteTimeout() != 30*time.Second {
		t.Errorf("GetWriteTimeout() = %v, want 30s", cfg.GetWriteTimeout())
	}
	if cfg.GetIdleTimeout() != 60*time.Second {
		t.Errorf("GetIdleTimeout() = %v, want 60s", cfg.GetIdleTimeout())
	}
}
