package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nerrad567/homesim/internal/automation"
	"github.com/nerrad567/homesim/internal/device"
)

// DefaultNamespace prefixes every metric name when none is configured.
const DefaultNamespace = "homesim"

// Collector exposes simulation progress as Prometheus metrics.
//
// Each Collector owns its registry so tests and multiple instances never
// collide on the global default registerer.
type Collector struct {
	registry *prometheus.Registry

	ticks        prometheus.Counter
	ruleTouches  *prometheus.CounterVec
	devicesOn    prometheus.Gauge
	devicesTotal prometheus.Gauge
	poweredBy    *prometheus.GaugeVec
	temperature  prometheus.Gauge
	tickDuration prometheus.Histogram
}

// New creates a Collector registering its metrics under namespace.
func New(namespace string) *Collector {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	c := &Collector{
		registry: prometheus.NewRegistry(),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Number of simulation ticks evaluated.",
		}),
		ruleTouches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rule_touches_total",
			Help:      "Devices changed or confirmed by each rule.",
		}, []string{"rule"}),
		devicesOn: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "devices_on",
			Help:      "Devices powered on after the last tick.",
		}),
		devicesTotal: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "devices",
			Help:      "Devices in the registry at the last tick.",
		}),
		poweredBy: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "devices_on_by_kind",
			Help:      "Powered-on devices per kind after the last tick.",
		}, []string{"kind"}),
		temperature: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ambient_temperature_celsius",
			Help:      "Ambient temperature fed into the last tick.",
		}),
		tickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "tick_duration_seconds",
			Help:      "Wall time spent evaluating rules for one tick.",
			Buckets:   []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05},
		}),
	}

	c.registry.MustRegister(
		c.ticks,
		c.ruleTouches,
		c.devicesOn,
		c.devicesTotal,
		c.poweredBy,
		c.temperature,
		c.tickDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return c
}

// ObserveTick records one completed tick.
func (c *Collector) ObserveTick(report automation.TickReport) {
	c.ticks.Inc()
	for _, r := range report.Rules {
		c.ruleTouches.WithLabelValues(r.Rule).Add(float64(r.Touched))
	}

	perKind := make(map[device.Kind]int, len(device.AllKinds()))
	for _, k := range device.AllKinds() {
		perKind[k] = 0
	}
	for _, rec := range report.Devices {
		if rec.Power {
			perKind[rec.Kind]++
		}
	}
	for k, n := range perKind {
		c.poweredBy.WithLabelValues(string(k)).Set(float64(n))
	}

	c.devicesOn.Set(float64(report.PoweredOn()))
	c.devicesTotal.Set(float64(len(report.Devices)))
	c.temperature.Set(float64(report.Temperature))
	c.tickDuration.Observe(report.Duration.Seconds())
}

// Registry returns the registry backing this collector.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collector's metrics in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
