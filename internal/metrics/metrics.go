// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package metrics exposes poll cycle statistics to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/relabs-tech/pressure_node/internal/env"
	"github.com/relabs-tech/pressure_node/internal/poller"
)

// Metrics holds the collectors for all pollers of a node.
type Metrics struct {
	reg *prometheus.Registry

	cycles        *prometheus.CounterVec
	pressure      *prometheus.GaugeVec
	temperature   *prometheus.GaugeVec
	outOfRange    *prometheus.CounterVec
	cycleDuration *prometheus.HistogramVec
}

// New creates and registers the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		cycles: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ams5935_poll_cycles_total",
				Help: "Poll cycles by result.",
			},
			[]string{"sensor", "result"},
		),
		pressure: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ams5935_pressure_pascals",
				Help: "Last good pressure reading.",
			},
			[]string{"sensor"},
		),
		temperature: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ams5935_temperature_celsius",
				Help: "Last good temperature reading.",
			},
			[]string{"sensor"},
		),
		outOfRange: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ams5935_out_of_range_total",
				Help: "Readings clamped to the model's pressure range.",
			},
			[]string{"sensor"},
		),
		cycleDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ams5935_cycle_duration_seconds",
				Help:    "Time spent in one poll cycle, including conversion waits.",
				Buckets: []float64{.005, .01, .02, .05, .1, .25, .5, 1},
			},
			[]string{"sensor"},
		),
	}
	m.reg.MustRegister(m.cycles, m.pressure, m.temperature, m.outOfRange, m.cycleDuration)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Attach records every cycle of c.
func (m *Metrics) Attach(c *poller.Component) {
	id := c.ID()
	c.OnCycle(func(d time.Duration, err error) {
		m.Cycle(id, d, err)
	})
	c.OnSample(func(s env.Sample) {
		m.Sample(s)
	})
}

// Cycle counts one cycle and its duration.
func (m *Metrics) Cycle(id string, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.cycles.WithLabelValues(id, result).Inc()
	m.cycleDuration.WithLabelValues(id).Observe(d.Seconds())
}

// Sample updates the value gauges.
func (m *Metrics) Sample(s env.Sample) {
	m.pressure.WithLabelValues(s.Source).Set(s.Pressure)
	m.temperature.WithLabelValues(s.Source).Set(s.Temperature)
	if s.OutOfRange {
		m.outOfRange.WithLabelValues(s.Source).Inc()
	}
}
