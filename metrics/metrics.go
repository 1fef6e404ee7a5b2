// SPDX-License-Identifier: MIT
//
// Package metrics exports topology engine activity and state to Prometheus.
//
// Observer implements topology.Observer and counts operations; Collector
// samples topology.Stats at scrape time. Both register on a caller-supplied
// registry so several engines (or tests) never collide on the default one.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/katalvlaran/netmanager/topology"
)

const namespace = "netmanager"

// Outcome label values.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
)

// Observer records one sample set per completed engine operation.
type Observer struct {
	operations *prometheus.CounterVec
	affected   *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

var _ topology.Observer = (*Observer)(nil)

// NewObserver creates an Observer and registers its metrics on reg.
// It panics if registration fails, like prometheus.MustRegister.
func NewObserver(reg prometheus.Registerer) *Observer {
	o := &Observer{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "operations_total",
				Help:      "Topology operations completed, by operation and outcome.",
			},
			[]string{"op", "outcome"},
		),
		affected: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "affected_devices_total",
				Help:      "Devices reported as affected by successful operations.",
			},
			[]string{"op"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "operation_duration_seconds",
				Help:      "Wall time of topology operations, lock wait included.",
				Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
			},
			[]string{"op"},
		),
	}
	reg.MustRegister(o.operations, o.affected, o.duration)

	return o
}

// ObserveOperation implements topology.Observer.
func (o *Observer) ObserveOperation(op string, affected int, elapsed time.Duration, err error) {
	o.duration.WithLabelValues(op).Observe(elapsed.Seconds())
	if err != nil {
		o.operations.WithLabelValues(op, OutcomeRejected).Inc()
		return
	}
	o.operations.WithLabelValues(op, OutcomeOK).Inc()
	o.affected.WithLabelValues(op).Add(float64(affected))
}

// StatsSource is anything that can report topology counts; *topology.Topology does.
type StatsSource interface {
	Stats() topology.Stats
}

// Collector exposes a StatsSource as gauges, sampled on every scrape.
type Collector struct {
	source StatsSource

	devices     *prometheus.Desc
	deviceTypes *prometheus.Desc
	edges       *prometheus.Desc
	generators  *prometheus.Desc
	conducting  *prometheus.Desc
	energized   *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector returns a Collector over source. Register it with reg.MustRegister.
func NewCollector(source StatsSource) *Collector {
	desc := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "topology", name), help, nil, nil)
	}

	return &Collector{
		source:      source,
		devices:     desc("devices", "Devices in the topology."),
		deviceTypes: desc("device_types", "Registered device types."),
		edges:       desc("edges", "Undirected adjacencies."),
		generators:  desc("generators", "Devices whose type is a generator."),
		conducting:  desc("conducting_devices", "Devices whose switch position conducts."),
		energized:   desc("energized_devices", "Devices currently energized."),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.devices
	ch <- c.deviceTypes
	ch <- c.edges
	ch <- c.generators
	ch <- c.conducting
	ch <- c.energized
}

// Collect implements prometheus.Collector. One Stats call per scrape, so all
// gauges come from the same snapshot.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.source.Stats()
	gauge := func(d *prometheus.Desc, v int) {
		ch <- prometheus.MustNewConstMetric(d, prometheus.GaugeValue, float64(v))
	}
	gauge(c.devices, s.Devices)
	gauge(c.deviceTypes, s.DeviceTypes)
	gauge(c.edges, s.Edges)
	gauge(c.generators, s.Generators)
	gauge(c.conducting, s.Conducting)
	gauge(c.energized, s.Energized)
}
