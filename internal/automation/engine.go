package automation

import (
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/homesim/internal/device"
)

// Logger defines the logging interface used by the engine.
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

// Engine applies an ordered rule list to a registry once per tick.
//
// The engine holds no device state of its own. Everything it needs arrives
// as Tick arguments, and everything it changes lives in the registry.
type Engine struct {
	rules  []Rule
	logger Logger
	now    func() time.Time
}

// NewEngine creates an engine with the built-in rules.
func NewEngine(logger Logger) *Engine {
	return NewEngineWithRules(DefaultRules(), logger)
}

// NewEngineWithRules creates an engine evaluating rules in the given order.
func NewEngineWithRules(rules []Rule, logger Logger) *Engine {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Engine{
		rules:  rules,
		logger: logger,
		now:    time.Now,
	}
}

// RuleNames returns the rule names in evaluation order.
func (e *Engine) RuleNames() []string {
	names := make([]string, len(e.rules))
	for i, r := range e.rules {
		names[i] = r.Name
	}
	return names
}

// Tick evaluates every rule against reg at the given time and temperature.
//
// The whole pass, including the closing status snapshot, runs under one
// registry write lock. Rules that match no device are silent no-ops, and
// Tick never fails.
func (e *Engine) Tick(at TimeOfDay, temperature int, reg *device.Registry) TickReport {
	report := TickReport{
		ID:          uuid.New().String(),
		At:          at,
		Temperature: temperature,
		Rules:       make([]RuleResult, 0, len(e.rules)),
		StartedAt:   e.now().UTC(),
	}

	start := time.Now()
	reg.Update(func(tx *device.Tx) {
		for _, rule := range e.rules {
			touched := rule.Apply(at, temperature, tx)
			report.Rules = append(report.Rules, RuleResult{Rule: rule.Name, Touched: touched})
		}
		report.Devices = tx.StatusReport()
	})
	report.Duration = time.Since(start)

	e.logger.Debug("tick applied",
		"tick_id", report.ID,
		"at", at.String(),
		"temperature", temperature,
		"devices_on", report.PoweredOn(),
		"duration", report.Duration,
	)
	return report
}
