package automation

import "github.com/nerrad567/homesim/internal/device"

// Rule is one step of the tick pipeline. Apply mutates devices through tx
// and returns the number of devices it wrote.
type Rule struct {
	Name  string
	Apply func(at TimeOfDay, temperature int, tx *device.Tx) int
}

// Thresholds used by the built-in rules.
const (
	nightStartHour = 19
	nightEndHour   = 6

	// acForceOnAbove is the temperature (°C) above which the AC runs regardless of schedule.
	acForceOnAbove = 40

	// scheduleWindowSeconds is how long a daily slot stays open. A slot fires
	// on any tick whose second falls inside it, so a 10s step hits it exactly once.
	scheduleWindowSeconds = 10
)

// scheduleSlot turns devices of a kind on at a fixed hour.
type scheduleSlot struct {
	kind device.Kind
	hour int
}

var scheduleSlots = []scheduleSlot{
	{kind: device.KindWashingMachine, hour: 8},
	{kind: device.KindOven, hour: 7},
	{kind: device.KindAirConditioner, hour: 12},
}

// DefaultRules returns the built-in rules in evaluation order.
// Later rules override earlier ones for the same device.
func DefaultRules() []Rule {
	return []Rule{
		{Name: RuleNightLights, Apply: applyNightLights},
		{Name: RuleTemperatureAC, Apply: applyTemperatureAC},
		{Name: RuleSchedule, Apply: applySchedule},
	}
}

func isNight(at TimeOfDay) bool {
	return at.Hour >= nightStartHour || at.Hour < nightEndHour
}

func applyNightLights(at TimeOfDay, _ int, tx *device.Tx) int {
	night := isNight(at)
	n := 0
	tx.ForEachOfKind(device.KindLight, func(d *device.Device) {
		if night {
			d.TurnOn()
		} else {
			d.TurnOff()
		}
		n++
	})
	return n
}

func applyTemperatureAC(_ TimeOfDay, temperature int, tx *device.Tx) int {
	n := 0
	tx.ForEachOfKind(device.KindAirConditioner, func(d *device.Device) {
		_ = d.ApplySetting(temperature) //nolint:errcheck // air conditioners always carry a setting
		if temperature > acForceOnAbove {
			d.TurnOn()
		} else {
			d.TurnOff()
		}
		n++
	})
	return n
}

func inSlot(at TimeOfDay, hour int) bool {
	return at.Hour == hour && at.Minute == 0 && at.Second < scheduleWindowSeconds
}

// applySchedule is a single pass in registry order. Fans and lights are always
// on; slotted kinds turn on inside their window and are left alone otherwise.
func applySchedule(at TimeOfDay, _ int, tx *device.Tx) int {
	n := 0
	tx.ForEach(func(d *device.Device) {
		switch d.Kind() {
		case device.KindFan, device.KindLight:
			d.TurnOn()
			n++
		default:
			for _, slot := range scheduleSlots {
				if d.Kind() == slot.kind && inSlot(at, slot.hour) {
					d.TurnOn()
					n++
				}
			}
		}
	})
	return n
}
