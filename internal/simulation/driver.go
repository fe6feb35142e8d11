package simulation

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nerrad567/homesim/internal/automation"
	"github.com/nerrad567/homesim/internal/device"
)

// Run modes.
const (
	ModeInteractive = "interactive"
	ModeRealtime    = "realtime"
)

// Prompts shown in interactive mode.
const (
	promptTime        = "Enter new time (HH MM SS) or 'quit' to exit: "
	promptTemperature = "Enter new temperature or 'skip' to continue: "
)

// ErrInvalidMode is returned by Run for an unknown mode.
var ErrInvalidMode = errors.New("simulation: invalid mode")

// Logger defines the logging interface used by the driver.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Options configures a Driver.
type Options struct {
	// Mode is ModeInteractive or ModeRealtime.
	Mode string
	// InitialTemperature is the ambient temperature (°C) before any input.
	InitialTemperature int
	// StepDelay pauses between interactive iterations.
	StepDelay time.Duration
	// TickInterval is the wall-clock period between realtime ticks.
	TickInterval time.Duration
	// ClearScreen clears the terminal before each frame.
	ClearScreen bool
}

// Driver owns the tick loop: it supplies time and temperature to the engine,
// renders the result, and fans it out to observers.
type Driver struct {
	engine    *automation.Engine
	registry  *device.Registry
	clock     *Clock
	console   *Console
	in        io.Reader
	opts      Options
	observers []Observer
	logger    Logger

	// stepMu serialises whole ticks, observers included. mu guards the
	// fields below and is never held across observer calls.
	stepMu      sync.Mutex
	mu          sync.Mutex
	temperature int
	ticks       int
}

// NewDriver creates a driver reading answers from in and rendering to out.
func NewDriver(engine *automation.Engine, registry *device.Registry, clock *Clock, in io.Reader, out io.Writer, opts Options) *Driver {
	return &Driver{
		engine:      engine,
		registry:    registry,
		clock:       clock,
		console:     NewConsole(out, opts.ClearScreen),
		in:          in,
		opts:        opts,
		logger:      noopLogger{},
		temperature: opts.InitialTemperature,
	}
}

// SetLogger sets the logger for the driver.
func (d *Driver) SetLogger(logger Logger) {
	d.logger = logger
}

// AddObserver registers an observer. Observers run in registration order.
func (d *Driver) AddObserver(o Observer) {
	d.observers = append(d.observers, o)
}

// Temperature returns the current ambient temperature.
func (d *Driver) Temperature() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.temperature
}

// SetTemperature replaces the ambient temperature used by the next tick.
func (d *Driver) SetTemperature(t int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.temperature = t
}

// Ticks returns the number of ticks run so far.
func (d *Driver) Ticks() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ticks
}

// Status is a point-in-time view of the driver.
type Status struct {
	Mode        string    `json:"mode"`
	Ticks       int       `json:"ticks"`
	Temperature int       `json:"temperature"`
	SimTime     time.Time `json:"sim_time"`
	Step        string    `json:"step"`
}

// Status returns the current mode, tick count, temperature and the
// simulated time the next tick will run at.
func (d *Driver) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()

	mode := d.opts.Mode
	if mode == "" {
		mode = ModeInteractive
	}
	return Status{
		Mode:        mode,
		Ticks:       d.ticks,
		Temperature: d.temperature,
		SimTime:     d.clock.Now(),
		Step:        d.clock.Step().String(),
	}
}

// Run dispatches to the configured mode and blocks until it ends.
func (d *Driver) Run(ctx context.Context) error {
	switch d.opts.Mode {
	case ModeInteractive, "":
		return d.RunInteractive(ctx)
	case ModeRealtime:
		return d.RunRealtime(ctx)
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMode, d.opts.Mode)
	}
}

// Step runs one tick: evaluate rules, render the frame and advance the
// clock, then notify observers.
func (d *Driver) Step(ctx context.Context) automation.TickReport {
	d.stepMu.Lock()
	defer d.stepMu.Unlock()

	report, now := d.tick()

	ev := TickEvent{Report: report, SimTime: now}
	for _, o := range d.observers {
		if err := o.Observe(ctx, ev); err != nil {
			d.logger.Warn("tick observer failed", "observer", o.Name(), "tick_id", report.ID, "error", err)
		}
	}
	return report
}

// tick is the part of Step that Status must not observe half done.
func (d *Driver) tick() (automation.TickReport, time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.clock.Now()
	report := d.engine.Tick(automation.FromTime(now), d.temperature, d.registry)
	d.ticks++

	if err := d.console.Render(Frame{
		Now:         now,
		Temperature: d.temperature,
		Devices:     report.Devices,
		Next:        d.clock.Next(),
	}); err != nil {
		d.logger.Warn("rendering frame failed", "error", err)
	}

	d.clock.Advance()
	return report, now
}

// RunInteractive loops tick → prompts until "quit", end of input or
// context cancellation.
func (d *Driver) RunInteractive(ctx context.Context) error {
	lines := readLines(ctx, d.in)

	for {
		if ctx.Err() != nil {
			return nil
		}
		d.Step(ctx)

		line, ok := d.ask(ctx, lines, promptTime)
		if !ok {
			return nil
		}
		tc, err := ParseTimeLine(line)
		if err != nil {
			d.logger.Warn("ignoring time input", "input", line, "error", err)
		}
		if tc.Quit {
			d.logger.Info("quit requested", "ticks", d.Ticks())
			return nil
		}
		if tc.Override != nil {
			d.clock.Override(*tc.Override)
			d.logger.Debug("clock overridden", "time", tc.Override.String())
		}

		line, ok = d.ask(ctx, lines, promptTemperature)
		if !ok {
			return nil
		}
		temp, err := ParseTemperatureLine(line)
		if err != nil {
			d.logger.Warn("ignoring temperature input", "input", line, "error", err)
		}
		if temp.Value != nil {
			d.SetTemperature(*temp.Value)
		}

		if err := sleep(ctx, d.opts.StepDelay); err != nil {
			return nil
		}
	}
}

// RunRealtime ticks on a cron schedule every TickInterval of wall time until
// the context is cancelled. No input is read.
func (d *Driver) RunRealtime(ctx context.Context) error {
	interval := d.opts.TickInterval
	if interval <= 0 {
		interval = d.clock.Step()
	}

	c := cron.New(
		cron.WithSeconds(),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := c.AddFunc("@every "+interval.String(), func() { d.Step(ctx) }); err != nil {
		return fmt.Errorf("scheduling ticks: %w", err)
	}

	d.logger.Info("realtime simulation started", "interval", interval)
	d.Step(ctx)
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	d.logger.Info("realtime simulation stopped", "ticks", d.Ticks())
	return nil
}

// ask shows a prompt and waits for the next input line.
// It reports false at end of input or on cancellation.
func (d *Driver) ask(ctx context.Context, lines <-chan string, prompt string) (string, bool) {
	if err := d.console.Prompt(prompt); err != nil {
		d.logger.Warn("writing prompt failed", "error", err)
	}
	select {
	case <-ctx.Done():
		return "", false
	case line, ok := <-lines:
		return line, ok
	}
}

// readLines scans r on its own goroutine so a blocked read never holds up
// cancellation. The channel closes at end of input.
func readLines(ctx context.Context, r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
