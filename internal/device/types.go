package device

import (
	"fmt"
	"strings"
	"time"
)

// Kind identifies the category of an appliance. The set is closed: every
// value a Device can carry is listed in AllKinds.
type Kind string

// Kind constants.
const (
	KindLight          Kind = "light"
	KindAirConditioner Kind = "air_conditioner"
	KindTV             Kind = "tv"
	KindClock          Kind = "clock"
	KindFan            Kind = "fan"
	KindOven           Kind = "oven"
	KindWashingMachine Kind = "washing_machine"
)

// AllKinds returns all valid kind values in display order.
func AllKinds() []Kind {
	return []Kind{
		KindLight, KindAirConditioner, KindTV, KindClock,
		KindFan, KindOven, KindWashingMachine,
	}
}

// traits is the per-kind dispatch row. A zero settingName means the kind
// has no setting.
type traits struct {
	label          string
	settingName    string
	settingUnit    string
	defaultSetting int
	showsTime      bool
}

var kindTraits = map[Kind]traits{
	KindLight:          {label: "Light", settingName: "brightness", defaultSetting: 50},
	KindAirConditioner: {label: "AC", settingName: "temperature", settingUnit: "°C", defaultSetting: 25},
	KindTV:             {label: "TV", settingName: "volume", defaultSetting: 50},
	KindClock:          {label: "Clock", showsTime: true},
	KindFan:            {label: "Fan"},
	KindOven:           {label: "Oven"},
	KindWashingMachine: {label: "Washing Machine"},
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	_, ok := kindTraits[k]
	return ok
}

// Label returns the display prefix used in status lines ("Light", "AC", ...).
func (k Kind) Label() string {
	return kindTraits[k].label
}

// SupportsSetting reports whether devices of this kind store a setting.
func (k Kind) SupportsSetting() bool {
	return kindTraits[k].settingName != ""
}

// SettingName returns what the setting means for this kind, or "".
func (k Kind) SettingName() string {
	return kindTraits[k].settingName
}

// SettingUnit returns the display unit of the setting, or "".
func (k Kind) SettingUnit() string {
	return kindTraits[k].settingUnit
}

// DefaultSetting returns the setting a new device of this kind starts with.
func (k Kind) DefaultSetting() int {
	return kindTraits[k].defaultSetting
}

// ShowsTime reports whether the status of this kind carries a rendered time.
func (k Kind) ShowsTime() bool {
	return kindTraits[k].showsTime
}

// kindAliases maps accepted spellings onto canonical kinds.
var kindAliases = map[string]Kind{
	"ac":               KindAirConditioner,
	"aircon":           KindAirConditioner,
	"air_conditioning": KindAirConditioner,
	"bulb":             KindLight,
	"television":       KindTV,
	"washer":           KindWashingMachine,
}

// ParseKind converts a user-supplied kind name into a Kind.
// Matching is case-insensitive and treats spaces and hyphens as underscores,
// so "Washing Machine", "washing-machine" and "washing_machine" are equal.
func ParseKind(s string) (Kind, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)

	if k := Kind(norm); k.Valid() {
		return k, nil
	}
	if k, ok := kindAliases[norm]; ok {
		return k, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
}

// StatusRecord is the observable state of one device at a point in time.
type StatusRecord struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Kind  Kind   `json:"kind"`
	Power bool   `json:"power"`

	// Setting and SettingName are only present for kinds with a setting.
	Setting     *int   `json:"setting,omitempty"`
	SettingName string `json:"setting_name,omitempty"`

	// RenderedTime is only present for clocks.
	RenderedTime string `json:"rendered_time,omitempty"`
}

// ClockFace renders the current time for clock devices.
type ClockFace func() string

// TimeLayout is the layout clocks and the console use for timestamps.
const TimeLayout = "2006-01-02 15:04:05"

// WallClock renders the host's local time.
func WallClock() string {
	return time.Now().Format(TimeLayout)
}
