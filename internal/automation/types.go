package automation

import (
	"fmt"
	"time"

	"github.com/nerrad567/homesim/internal/device"
)

// TimeOfDay is the simulated wall-clock time a tick is evaluated at.
type TimeOfDay struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
	Second int `json:"second"`
}

// FromTime extracts the time of day from t.
func FromTime(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}
}

// Validate checks that every field is within the range of a 24h clock.
func (t TimeOfDay) Validate() error {
	switch {
	case t.Hour < 0 || t.Hour > 23:
		return fmt.Errorf("%w: hour %d", ErrInvalidTimeOfDay, t.Hour)
	case t.Minute < 0 || t.Minute > 59:
		return fmt.Errorf("%w: minute %d", ErrInvalidTimeOfDay, t.Minute)
	case t.Second < 0 || t.Second > 59:
		return fmt.Errorf("%w: second %d", ErrInvalidTimeOfDay, t.Second)
	}
	return nil
}

// String formats the time as HH:MM:SS.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// Rule names, in evaluation order.
const (
	RuleNightLights   = "night_lights"
	RuleTemperatureAC = "temperature_ac"
	RuleSchedule      = "schedule"
)

// RuleResult records how many devices a rule wrote during one tick.
type RuleResult struct {
	Rule    string `json:"rule"`
	Touched int    `json:"touched"`
}

// TickReport describes one completed tick.
type TickReport struct {
	ID          string                `json:"id"`
	At          TimeOfDay             `json:"at"`
	Temperature int                   `json:"temperature"`
	Rules       []RuleResult          `json:"rules"`
	Devices     []device.StatusRecord `json:"devices"`
	StartedAt   time.Time             `json:"started_at"`
	Duration    time.Duration         `json:"duration"`
}

// PoweredOn counts the devices that were on when the tick finished.
func (r TickReport) PoweredOn() int {
	n := 0
	for _, d := range r.Devices {
		if d.Power {
			n++
		}
	}
	return n
}

// Touched returns the touch count recorded for the named rule.
func (r TickReport) Touched(rule string) int {
	for _, rr := range r.Rules {
		if rr.Rule == rule {
			return rr.Touched
		}
	}
	return 0
}
