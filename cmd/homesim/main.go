// homesim - Home Automation Simulator
//
// homesim drives a registry of household appliances through a simulated
// day. Every tick the rule engine turns lights on at night, follows the
// ambient temperature with the air conditioners, and starts scheduled
// appliances. Results are printed to the console and optionally fanned out
// to SQLite tick history, MQTT, InfluxDB, Prometheus and WebSocket clients.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	_ "github.com/nerrad567/homesim/migrations"

	"github.com/nerrad567/homesim/internal/api"
	"github.com/nerrad567/homesim/internal/automation"
	"github.com/nerrad567/homesim/internal/device"
	"github.com/nerrad567/homesim/internal/infrastructure/config"
	"github.com/nerrad567/homesim/internal/infrastructure/database"
	"github.com/nerrad567/homesim/internal/infrastructure/influxdb"
	"github.com/nerrad567/homesim/internal/infrastructure/logging"
	"github.com/nerrad567/homesim/internal/infrastructure/metrics"
	"github.com/nerrad567/homesim/internal/infrastructure/mqtt"
	"github.com/nerrad567/homesim/internal/simulation"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// configEnv names the environment variable holding the config path.
const configEnv = "HOMESIM_CONFIG"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCommand(os.Stdin, os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// flags holds command-line overrides applied on top of the loaded config.
type flags struct {
	configPath  string
	mode        string
	temperature int
	start       string
	clockFace   string
	limit       int
}

func newRootCommand(stdin io.Reader, stdout io.Writer) *cobra.Command {
	f := &flags{}

	cmd := &cobra.Command{
		Use:           "homesim",
		Short:         "homesim: a rule-driven home automation simulator",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, stdin, stdout)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&f.configPath, "config", "c", os.Getenv(configEnv), "path to config.yaml (defaults only when empty)")

	fs := cmd.Flags()
	fs.StringVar(&f.mode, "mode", "", "simulation mode: interactive or realtime")
	fs.IntVar(&f.temperature, "temperature", 0, "initial ambient temperature in °C")
	fs.StringVar(&f.start, "start", "", "simulated start time (RFC3339)")
	fs.StringVar(&f.clockFace, "clock-face", "", "what clock devices show: wall or simulated")

	cmd.AddCommand(newHistoryCommand(f, stdout))
	cmd.AddCommand(newVersionCommand(stdout))
	return cmd
}

func newHistoryCommand(f *flags, stdout io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "print recorded ticks, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			return printHistory(cmd.Context(), cfg, f.limit, stdout)
		},
	}
	cmd.Flags().IntVarP(&f.limit, "limit", "n", 20, "number of ticks to show")
	return cmd
}

func newVersionCommand(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "print build information",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Fprintf(stdout, "homesim %s (commit %s, built %s)\n", version, commit, date)
		},
	}
}

// loadConfig loads the file named by --config and applies explicitly set flags.
func loadConfig(cmd *cobra.Command, f *flags) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	fs := cmd.Flags()
	if fs.Changed("mode") {
		cfg.Simulation.Mode = f.mode
	}
	if fs.Changed("temperature") {
		cfg.Simulation.InitialTemperature = f.temperature
	}
	if fs.Changed("start") {
		cfg.Simulation.StartTime = f.start
	}
	if fs.Changed("clock-face") {
		cfg.Simulation.ClockFace = f.clockFace
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// run wires the simulator from cfg and blocks until the driver returns.
func run(ctx context.Context, cfg *config.Config, stdin io.Reader, stdout io.Writer) error {
	log := logging.New(cfg.Logging, version)
	log.Info("starting homesim",
		"version", version,
		"commit", commit,
		"build_date", date,
		"mode", cfg.Simulation.Mode,
		"site_id", cfg.Site.ID,
		"site", cfg.Site.Name,
		"timezone", cfg.Site.Timezone,
	)

	clock := simulation.NewClock(cfg.StartAt(time.Now()), cfg.Simulation.Step)

	registry, err := buildRegistry(cfg.Simulation, clock)
	if err != nil {
		return err
	}
	registry.SetLogger(log)
	log.Info("device registry initialised", "devices", registry.Count(), "capacity", registry.Capacity())

	engine := automation.NewEngine(log)

	driver := simulation.NewDriver(engine, registry, clock, stdin, stdout, simulation.Options{
		Mode:               cfg.Simulation.Mode,
		InitialTemperature: cfg.Simulation.InitialTemperature,
		StepDelay:          cfg.Simulation.StepDelay,
		TickInterval:       cfg.Simulation.TickInterval,
		ClearScreen:        cfg.Simulation.ClearScreen,
	})
	driver.SetLogger(log)

	// Tick history (optional)
	var history automation.Repository
	if cfg.Database.Enabled {
		db, dbErr := openDatabase(ctx, cfg.Database)
		if dbErr != nil {
			return dbErr
		}
		defer func() {
			log.Info("closing database")
			if closeErr := db.Close(); closeErr != nil {
				log.Error("error closing database", "error", closeErr)
			}
		}()
		log.Info("database connected", "path", cfg.Database.Path)

		history = automation.NewSQLiteRepository(db.DB)
		driver.AddObserver(simulation.NewHistoryObserver(history))
	}

	// MQTT (optional)
	if cfg.MQTT.Enabled {
		mqttClient, mqttErr := mqtt.Connect(cfg.MQTT)
		if mqttErr != nil {
			return fmt.Errorf("connecting to MQTT: %w", mqttErr)
		}
		mqttClient.SetLogger(log)
		defer func() {
			log.Info("disconnecting from MQTT")
			if closeErr := mqttClient.Close(); closeErr != nil {
				log.Error("error closing MQTT", "error", closeErr)
			}
		}()
		log.Info("MQTT connected",
			"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
			"client_id", cfg.MQTT.Broker.ClientID,
		)
		driver.AddObserver(simulation.NewMQTTObserver(mqttClient))
	}

	// InfluxDB (optional)
	influxClient, err := influxdb.Connect(ctx, cfg.InfluxDB)
	switch {
	case errors.Is(err, influxdb.ErrDisabled):
		log.Info("InfluxDB disabled")
	case err != nil:
		return fmt.Errorf("connecting to InfluxDB: %w", err)
	default:
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetOnError(func(err error) {
			log.Error("InfluxDB write error", "error", err)
		})
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "org", cfg.InfluxDB.Org, "bucket", cfg.InfluxDB.Bucket)
		driver.AddObserver(simulation.NewTelemetryObserver(influxClient))
	}

	// Prometheus (optional)
	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.New(cfg.Metrics.Namespace)
		driver.AddObserver(simulation.NewMetricsObserver(collector))
	}

	// HTTP API + WebSocket (optional)
	if cfg.API.Enabled {
		hub := api.NewHub(cfg.WebSocket, registry, log)
		hubCtx, stopHub := context.WithCancel(ctx)
		defer stopHub()
		go hub.Run(hubCtx)

		deps := api.Deps{
			Config:     cfg.API,
			WS:         cfg.WebSocket,
			Logger:     log,
			Registry:   registry,
			Simulation: driver,
			History:    history,
			Hub:        hub,
			Version:    version,
		}
		if collector != nil {
			deps.Metrics = collector.Handler()
			deps.MetricsPath = cfg.Metrics.Path
		}

		server, apiErr := api.New(deps)
		if apiErr != nil {
			return fmt.Errorf("creating API server: %w", apiErr)
		}
		if startErr := server.Start(ctx); startErr != nil {
			return fmt.Errorf("starting API server: %w", startErr)
		}
		defer func() {
			if closeErr := server.Close(); closeErr != nil {
				log.Error("error closing API server", "error", closeErr)
			}
		}()
		driver.AddObserver(simulation.NewHubObserver(hub))
	}

	if err := driver.Run(ctx); err != nil {
		return fmt.Errorf("running simulation: %w", err)
	}

	log.Info("homesim stopped", "ticks", driver.Ticks())
	return nil
}

// buildRegistry creates the registry and adds the configured devices in order.
func buildRegistry(cfg config.SimulationConfig, clock *simulation.Clock) (*device.Registry, error) {
	registry := device.NewRegistry(cfg.MaxDevices)
	if cfg.ClockFace == config.ClockFaceSimulated {
		registry.SetClockFace(clock.Face())
	} else {
		registry.SetClockFace(clock.WallFace())
	}

	devices := cfg.Devices
	if len(devices) == 0 {
		devices = config.DefaultDevices()
	}
	for i, d := range devices {
		kind, err := device.ParseKind(d.Kind)
		if err != nil {
			return nil, fmt.Errorf("simulation.devices[%d]: %w", i, err)
		}
		if _, err := registry.Add(kind, d.Name); err != nil {
			return nil, fmt.Errorf("simulation.devices[%d]: %w", i, err)
		}
	}
	return registry, nil
}

// openDatabase opens SQLite and applies pending migrations.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*database.DB, error) {
	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Path,
		WALMode:     cfg.WALMode,
		BusyTimeout: cfg.BusyTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return db, nil
}

// printHistory writes the most recent ticks as one line each.
func printHistory(ctx context.Context, cfg *config.Config, limit int, w io.Writer) error {
	if !cfg.Database.Enabled {
		return fmt.Errorf("tick history requires database.enabled")
	}

	db, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	repo := automation.NewSQLiteRepository(db.DB)
	ticks, err := repo.ListTicks(ctx, limit)
	if err != nil {
		return fmt.Errorf("listing ticks: %w", err)
	}

	for _, t := range ticks {
		fmt.Fprintf(w, "%s  %s  %3d°C  %d/%d on  %s\n",
			t.CreatedAt.Format(time.RFC3339), t.SimTime, t.Temperature, t.DevicesOn, t.DevicesTotal, t.ID)
	}
	return nil
}
