package device

// Device is one simulated appliance.
//
// Name and kind are fixed at creation. Power and setting are mutated by the
// rule engine through the Registry; a Device is never shared outside the
// Registry's lock.
type Device struct {
	id      string
	name    string
	kind    Kind
	power   bool
	setting int
}

func newDevice(id, name string, kind Kind) *Device {
	return &Device{
		id:      id,
		name:    name,
		kind:    kind,
		setting: kind.DefaultSetting(),
	}
}

// ID returns the identifier assigned by the registry.
func (d *Device) ID() string { return d.id }

// Name returns the device name.
func (d *Device) Name() string { return d.name }

// Kind returns the immutable kind tag.
func (d *Device) Kind() Kind { return d.kind }

// IsOn reports the power state.
func (d *Device) IsOn() bool { return d.power }

// Setting returns the stored setting and whether the kind has one.
func (d *Device) Setting() (int, bool) {
	if !d.kind.SupportsSetting() {
		return 0, false
	}
	return d.setting, true
}

// TurnOn switches the device on. Turning on a device that is already on is a no-op.
func (d *Device) TurnOn() { d.power = true }

// TurnOff switches the device off.
func (d *Device) TurnOff() { d.power = false }

// ApplySetting stores value as the kind-specific setting.
// Kinds without a setting are left untouched and ErrSettingNotSupported is returned.
func (d *Device) ApplySetting(value int) error {
	if !d.kind.SupportsSetting() {
		return ErrSettingNotSupported
	}
	d.setting = value
	return nil
}

// Status builds the device's status record. face is consulted only for clocks
// and may be nil, in which case the host wall clock is used.
func (d *Device) Status(face ClockFace) StatusRecord {
	rec := StatusRecord{
		ID:    d.id,
		Name:  d.name,
		Kind:  d.kind,
		Power: d.power,
	}

	switch {
	case d.kind.SupportsSetting():
		v := d.setting
		rec.Setting = &v
		rec.SettingName = d.kind.SettingName()
	case d.kind.ShowsTime():
		if face == nil {
			face = WallClock
		}
		rec.RenderedTime = face()
	}

	return rec
}
