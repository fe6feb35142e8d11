package simulation

import (
	"sync"
	"time"

	"github.com/nerrad567/homesim/internal/automation"
	"github.com/nerrad567/homesim/internal/device"
)

// DefaultStep is how far the simulated clock moves after each tick.
const DefaultStep = 10 * time.Second

// Clock is the simulated wall time. It only moves when the driver advances
// or overrides it.
type Clock struct {
	mu   sync.RWMutex
	now  time.Time
	step time.Duration
	// ticked is the reading before the latest Advance; zero until then.
	ticked time.Time
}

// NewClock creates a clock reading start and advancing by step.
// A non-positive step falls back to DefaultStep.
func NewClock(start time.Time, step time.Duration) *Clock {
	if step <= 0 {
		step = DefaultStep
	}
	return &Clock{now: start, step: step}
}

// Now returns the current simulated time.
func (c *Clock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// Step returns the advance interval.
func (c *Clock) Step() time.Duration {
	return c.step
}

// TimeOfDay returns the hour, minute and second rules are evaluated at.
func (c *Clock) TimeOfDay() automation.TimeOfDay {
	return automation.FromTime(c.Now())
}

// Next returns the time the clock will read after the next Advance.
func (c *Clock) Next() time.Time {
	return c.Now().Add(c.step)
}

// Advance moves the clock forward one step and returns the new time.
func (c *Clock) Advance() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ticked = c.now
	c.now = c.now.Add(c.step)
	return c.now
}

// Override sets the time of day on the date of the last tick, or of the
// current reading before any tick. A tick at 23:59:55 followed by an
// override to 08:00:05 stays on the same day.
func (c *Clock) Override(at automation.TimeOfDay) {
	c.mu.Lock()
	defer c.mu.Unlock()
	base := c.now
	if !c.ticked.IsZero() {
		base = c.ticked
	}
	y, m, d := base.Date()
	c.now = time.Date(y, m, d, at.Hour, at.Minute, at.Second, 0, base.Location())
}

// Face renders the simulated time for clock devices.
func (c *Clock) Face() device.ClockFace {
	return func() string {
		return c.Now().Format(device.TimeLayout)
	}
}

// WallFace renders host time in the clock's location.
func (c *Clock) WallFace() device.ClockFace {
	return func() string {
		return time.Now().In(c.Now().Location()).Format(device.TimeLayout)
	}
}
