// Package metrics exposes simulation progress to Prometheus.
//
// A Collector is fed one automation.TickReport per tick and serves tick
// counts, powered-on devices per kind, ambient temperature, rule activity,
// and rule evaluation latency on its own registry.
package metrics
