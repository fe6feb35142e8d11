package automation

import (
	"testing"

	"github.com/nerrad567/homesim/internal/device"
)

// scenarioRegistry builds the four-device registry used by the scenario tests.
func scenarioRegistry(t *testing.T) *device.Registry {
	t.Helper()
	reg := device.NewRegistry(10)
	for _, d := range []struct {
		kind device.Kind
		name string
	}{
		{device.KindLight, "L1"},
		{device.KindAirConditioner, "A1"},
		{device.KindFan, "F1"},
		{device.KindWashingMachine, "WM1"},
	} {
		if _, err := reg.Add(d.kind, d.name); err != nil {
			t.Fatalf("Add(%s) error = %v", d.name, err)
		}
	}
	return reg
}

func statusByName(t *testing.T, reg *device.Registry, name string) device.StatusRecord {
	t.Helper()
	for _, rec := range reg.StatusReport() {
		if rec.Name == name {
			return rec
		}
	}
	t.Fatalf("device %q not in registry", name)
	return device.StatusRecord{}
}

func settingOf(t *testing.T, rec device.StatusRecord) int {
	t.Helper()
	if rec.Setting == nil {
		t.Fatalf("%s has no setting", rec.Name)
	}
	return *rec.Setting
}

func TestEngine_Tick_Scenarios(t *testing.T) {
	tests := []struct {
		name        string
		at          TimeOfDay
		temperature int
		wantPower   map[string]bool
		wantACSet   int
	}{
		{
			name:        "hot morning before laundry slot",
			at:          TimeOfDay{Hour: 7, Minute: 59, Second: 59},
			temperature: 45,
			wantPower:   map[string]bool{"L1": true, "A1": true, "F1": true, "WM1": false},
			wantACSet:   45,
		},
		{
			name:        "cool morning inside laundry slot",
			at:          TimeOfDay{Hour: 8, Minute: 0, Second: 5},
			temperature: 20,
			wantPower:   map[string]bool{"L1": true, "A1": false, "F1": true, "WM1": true},
			wantACSet:   20,
		},
		{
			name:        "noon slot forces ac on when cold",
			at:          TimeOfDay{Hour: 12, Minute: 0, Second: 0},
			temperature: 10,
			wantPower:   map[string]bool{"L1": true, "A1": true, "F1": true, "WM1": false},
			wantACSet:   10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := scenarioRegistry(t)
			NewEngine(nil).Tick(tt.at, tt.temperature, reg)

			for name, want := range tt.wantPower {
				if got := statusByName(t, reg, name).Power; got != want {
					t.Errorf("%s power = %v, want %v", name, got, want)
				}
			}
			if got := settingOf(t, statusByName(t, reg, "A1")); got != tt.wantACSet {
				t.Errorf("A1 setting = %d, want %d", got, tt.wantACSet)
			}
		})
	}
}

func TestEngine_Tick_Invariants(t *testing.T) {
	reg := device.NewRegistry(0)
	for _, k := range device.AllKinds() {
		if _, err := reg.Add(k, string(k)); err != nil {
			t.Fatalf("Add(%s) error = %v", k, err)
		}
		if _, err := reg.Add(k, string(k)+"-2"); err != nil {
			t.Fatalf("Add(%s) error = %v", k, err)
		}
	}
	engine := NewEngine(nil)
	temps := []int{-5, 0, 25, 40, 41, 60}

	for h := 0; h < 24; h++ {
		for _, m := range []int{0, 1, 30, 59} {
			for _, s := range []int{0, 9, 10, 59} {
				at := TimeOfDay{Hour: h, Minute: m, Second: s}
				temp := temps[(h+m+s)%len(temps)]
				report := engine.Tick(at, temp, reg)

				noonSlot := h == 12 && m == 0 && s < 10
				for _, rec := range report.Devices {
					switch rec.Kind {
					case device.KindLight, device.KindFan:
						if !rec.Power {
							t.Fatalf("%s off at %s", rec.Name, at)
						}
					case device.KindAirConditioner:
						if got := settingOf(t, rec); got != temp {
							t.Fatalf("%s setting = %d at %s, want %d", rec.Name, got, at, temp)
						}
						if want := noonSlot || temp > 40; rec.Power != want {
							t.Fatalf("%s power = %v at %s temp %d, want %v", rec.Name, rec.Power, at, temp, want)
						}
					}
				}
			}
		}
	}
}

func TestEngine_Tick_SlotsNeverTurnOff(t *testing.T) {
	reg := device.NewRegistry(10)
	mustAddKind(t, reg, device.KindOven, "Oven")
	mustAddKind(t, reg, device.KindWashingMachine, "Washer")
	engine := NewEngine(nil)

	engine.Tick(TimeOfDay{Hour: 6, Minute: 59, Second: 50}, 25, reg)
	if statusByName(t, reg, "Oven").Power {
		t.Fatal("oven on before its slot")
	}

	engine.Tick(TimeOfDay{Hour: 7, Minute: 0, Second: 0}, 25, reg)
	if !statusByName(t, reg, "Oven").Power {
		t.Fatal("oven off inside its slot")
	}

	// Later ticks leave it on.
	engine.Tick(TimeOfDay{Hour: 7, Minute: 0, Second: 10}, 25, reg)
	engine.Tick(TimeOfDay{Hour: 23, Minute: 0, Second: 0}, 25, reg)
	if !statusByName(t, reg, "Oven").Power {
		t.Error("oven turned off outside its slot")
	}
	if statusByName(t, reg, "Washer").Power {
		t.Error("washer turned on outside its slot")
	}
}

func TestEngine_Tick_SlotBoundaries(t *testing.T) {
	tests := []struct {
		at   TimeOfDay
		want bool
	}{
		{TimeOfDay{Hour: 8, Minute: 0, Second: 0}, true},
		{TimeOfDay{Hour: 8, Minute: 0, Second: 9}, true},
		{TimeOfDay{Hour: 8, Minute: 0, Second: 10}, false},
		{TimeOfDay{Hour: 8, Minute: 1, Second: 0}, false},
		{TimeOfDay{Hour: 20, Minute: 0, Second: 0}, false},
	}

	for _, tt := range tests {
		t.Run(tt.at.String(), func(t *testing.T) {
			reg := device.NewRegistry(10)
			mustAddKind(t, reg, device.KindWashingMachine, "WM")
			NewEngine(nil).Tick(tt.at, 20, reg)
			if got := statusByName(t, reg, "WM").Power; got != tt.want {
				t.Errorf("power = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEngine_Tick_TVAndClockUntouched(t *testing.T) {
	reg := device.NewRegistry(10)
	mustAddKind(t, reg, device.KindTV, "TV")
	mustAddKind(t, reg, device.KindClock, "Clock")
	reg.SetSettingForKind(device.KindTV, 17)

	report := NewEngine(nil).Tick(TimeOfDay{Hour: 12}, 50, reg)

	tv := statusByName(t, reg, "TV")
	if tv.Power || settingOf(t, tv) != 17 {
		t.Errorf("TV = %+v, want off with volume 17", tv)
	}
	if statusByName(t, reg, "Clock").Power {
		t.Error("clock turned on")
	}
	if report.PoweredOn() != 0 {
		t.Errorf("PoweredOn() = %d, want 0", report.PoweredOn())
	}
}

func TestEngine_Tick_EmptyRegistry(t *testing.T) {
	report := NewEngine(nil).Tick(TimeOfDay{Hour: 3}, 30, device.NewRegistry(10))

	if len(report.Devices) != 0 {
		t.Errorf("len(Devices) = %d, want 0", len(report.Devices))
	}
	if len(report.Rules) != 3 {
		t.Fatalf("len(Rules) = %d, want 3", len(report.Rules))
	}
	for _, rr := range report.Rules {
		if rr.Touched != 0 {
			t.Errorf("rule %s touched %d devices in empty registry", rr.Rule, rr.Touched)
		}
	}
}

func TestEngine_Tick_Report(t *testing.T) {
	reg := scenarioRegistry(t)
	at := TimeOfDay{Hour: 8, Minute: 0, Second: 0}
	report := NewEngine(nil).Tick(at, 30, reg)

	if report.ID == "" {
		t.Error("report ID empty")
	}
	if report.At != at || report.Temperature != 30 {
		t.Errorf("report = %+v", report)
	}
	if got := report.Touched(RuleNightLights); got != 1 {
		t.Errorf("night_lights touched %d, want 1", got)
	}
	if got := report.Touched(RuleTemperatureAC); got != 1 {
		t.Errorf("temperature_ac touched %d, want 1", got)
	}
	// Light, fan and washer.
	if got := report.Touched(RuleSchedule); got != 3 {
		t.Errorf("schedule touched %d, want 3", got)
	}
	if report.StartedAt.IsZero() {
		t.Error("StartedAt not set")
	}
}

func TestEngine_RuleOrder(t *testing.T) {
	got := NewEngine(nil).RuleNames()
	want := []string{RuleNightLights, RuleTemperatureAC, RuleSchedule}
	if len(got) != len(want) {
		t.Fatalf("RuleNames() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("RuleNames()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestEngine_CustomRules(t *testing.T) {
	reg := device.NewRegistry(10)
	mustAddKind(t, reg, device.KindTV, "TV")

	tvOn := Rule{Name: "tv_on", Apply: func(_ TimeOfDay, _ int, tx *device.Tx) int {
		n := 0
		tx.ForEachOfKind(device.KindTV, func(d *device.Device) { d.TurnOn(); n++ })
		return n
	}}
	report := NewEngineWithRules([]Rule{tvOn}, nil).Tick(TimeOfDay{}, 0, reg)

	if !statusByName(t, reg, "TV").Power {
		t.Error("custom rule did not run")
	}
	if report.Touched("tv_on") != 1 {
		t.Errorf("Touched(tv_on) = %d, want 1", report.Touched("tv_on"))
	}
}

func TestTimeOfDay_Validate(t *testing.T) {
	tests := []struct {
		at      TimeOfDay
		wantErr bool
	}{
		{TimeOfDay{0, 0, 0}, false},
		{TimeOfDay{23, 59, 59}, false},
		{TimeOfDay{24, 0, 0}, true},
		{TimeOfDay{-1, 0, 0}, true},
		{TimeOfDay{12, 60, 0}, true},
		{TimeOfDay{12, 0, 60}, true},
	}
	for _, tt := range tests {
		err := tt.at.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%+v.Validate() error = %v, wantErr %v", tt.at, err, tt.wantErr)
		}
	}
}

func mustAddKind(t *testing.T, reg *device.Registry, kind device.Kind, name string) {
	t.Helper()
	if _, err := reg.Add(kind, name); err != nil {
		t.Fatalf("Add(%s) error = %v", name, err)
	}
}
