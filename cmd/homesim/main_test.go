package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/homesim/internal/device"
	"github.com/nerrad567/homesim/internal/infrastructure/config"
	"github.com/nerrad567/homesim/internal/simulation"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand(strings.NewReader(stdin), &out)
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&out)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	err := cmd.ExecuteContext(ctx)
	return out.String(), err
}

func TestRoot_InvalidConfigPath(t *testing.T) {
	if _, err := execute(t, "", "--config", "/nonexistent/path/config.yaml"); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestRoot_InvalidModeFlag(t *testing.T) {
	_, err := execute(t, "", "--mode", "batch")
	if err == nil || !strings.Contains(err.Error(), "simulation.mode") {
		t.Errorf("error = %v, want simulation.mode validation failure", err)
	}
}

func TestRoot_InteractiveRunRecordsHistory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "homesim.db")
	path := writeConfig(t, `
simulation:
  mode: interactive
  start_time: "2026-03-01T07:59:55Z"
  step_delay: 0s
  clear_screen: false
database:
  enabled: true
  path: "`+dbPath+`"
  wal_mode: true
  busy_timeout: 5
logging:
  output: discard
`)

	out, err := execute(t, "\n45\nquit\n", "--config", path, "--temperature", "30")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, want := range []string{
		"Current time: 2026-03-01 07:59:55",
		"Current temperature: 30°C",
		"Current temperature: 45°C",
		"Washing Machine Laundry Washing Machine is on.",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}

	hist, err := execute(t, "", "history", "--config", path, "-n", "5")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(hist), "\n")
	if len(lines) != 2 {
		t.Fatalf("history lines = %d, want 2:\n%s", len(lines), hist)
	}
	if !strings.Contains(lines[0], "2026-03-01 08:00:05") || !strings.Contains(lines[0], "45°C") {
		t.Errorf("newest tick line = %q", lines[0])
	}
}

func TestHistory_RequiresDatabase(t *testing.T) {
	path := writeConfig(t, "logging:\n  output: discard\n")
	if _, err := execute(t, "", "history", "--config", path); err == nil {
		t.Error("history without a database should fail")
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "", "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "homesim dev") {
		t.Errorf("output = %q", out)
	}
}

func TestBuildRegistry(t *testing.T) {
	clock := simulation.NewClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), time.Second)

	tests := []struct {
		name    string
		cfg     config.SimulationConfig
		want    int
		wantErr error
	}{
		{
			name: "defaults when empty",
			cfg:  config.SimulationConfig{MaxDevices: 10},
			want: len(config.DefaultDevices()),
		},
		{
			name:    "unknown kind",
			cfg:     config.SimulationConfig{Devices: []config.DeviceConfig{{Kind: "toaster", Name: "Toaster"}}},
			wantErr: device.ErrInvalidKind,
		},
		{
			name: "capacity",
			cfg: config.SimulationConfig{MaxDevices: 1, Devices: []config.DeviceConfig{
				{Kind: "fan", Name: "Fan 1"},
				{Kind: "fan", Name: "Fan 2"},
			}},
			wantErr: device.ErrCapacityExceeded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, err := buildRegistry(tt.cfg, clock)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("buildRegistry: %v", err)
			}
			if reg.Count() != tt.want {
				t.Errorf("Count() = %d, want %d", reg.Count(), tt.want)
			}
		})
	}
}

func TestBuildRegistry_SimulatedClockFace(t *testing.T) {
	clock := simulation.NewClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), time.Second)
	reg, err := buildRegistry(config.SimulationConfig{
		ClockFace: config.ClockFaceSimulated,
		Devices:   []config.DeviceConfig{{Kind: "clock", Name: "Wall Clock"}},
	}, clock)
	if err != nil {
		t.Fatalf("buildRegistry: %v", err)
	}
	if got := reg.StatusReport()[0].RenderedTime; got != "2026-03-01 12:00:00" {
		t.Errorf("RenderedTime = %q", got)
	}
}
