package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/nerrad567/homesim/internal/automation"
	"github.com/nerrad567/homesim/internal/device"
)

func testReport() automation.TickReport {
	return automation.TickReport{
		ID:          "tick-1",
		Temperature: 42,
		Rules: []automation.RuleResult{
			{Rule: automation.RuleNightLights, Touched: 2},
			{Rule: automation.RuleTemperatureAC, Touched: 1},
			{Rule: automation.RuleSchedule, Touched: 3},
		},
		Devices: []device.StatusRecord{
			{ID: "a", Kind: device.KindLight, Power: true},
			{ID: "b", Kind: device.KindLight, Power: true},
			{ID: "c", Kind: device.KindAirConditioner, Power: true},
			{ID: "d", Kind: device.KindTV},
		},
		Duration: 50 * time.Microsecond,
	}
}

func TestCollector_ObserveTick(t *testing.T) {
	c := New("")
	c.ObserveTick(testReport())
	c.ObserveTick(testReport())

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"ticks", testutil.ToFloat64(c.ticks), 2},
		{"devices on", testutil.ToFloat64(c.devicesOn), 3},
		{"devices", testutil.ToFloat64(c.devicesTotal), 4},
		{"temperature", testutil.ToFloat64(c.temperature), 42},
		{"lights on", testutil.ToFloat64(c.poweredBy.WithLabelValues("light")), 2},
		{"tvs on", testutil.ToFloat64(c.poweredBy.WithLabelValues("tv")), 0},
		{"ovens on", testutil.ToFloat64(c.poweredBy.WithLabelValues("oven")), 0},
		{"schedule touches", testutil.ToFloat64(c.ruleTouches.WithLabelValues(automation.RuleSchedule)), 6},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestCollector_PerKindGaugeResets(t *testing.T) {
	c := New("test")
	c.ObserveTick(testReport())

	off := testReport()
	for i := range off.Devices {
		off.Devices[i].Power = false
	}
	c.ObserveTick(off)

	if got := testutil.ToFloat64(c.poweredBy.WithLabelValues("light")); got != 0 {
		t.Errorf("lights on = %v after all devices turned off, want 0", got)
	}
}

func TestCollector_Handler(t *testing.T) {
	c := New("homesim")
	c.ObserveTick(testReport())

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"homesim_ticks_total 1",
		`homesim_devices_on_by_kind{kind="air_conditioner"} 1`,
		"homesim_tick_duration_seconds_count 1",
		"go_goroutines",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}

func TestNew_IndependentRegistries(t *testing.T) {
	a, b := New("homesim"), New("homesim")
	a.ObserveTick(testReport())

	if got := testutil.ToFloat64(b.ticks); got != 0 {
		t.Errorf("second collector ticks = %v, want 0", got)
	}
}
