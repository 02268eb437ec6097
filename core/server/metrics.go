/*
SPDX-License-Identifier: Apache-2.0

Copyright 2024 The Tablero Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the grid host's Prometheus collectors.
type Metrics struct {
	Registry *prometheus.Registry

	renders        *prometheus.CounterVec
	renderFailures *prometheus.CounterVec
	actions        *prometheus.CounterVec
	diagnostics    *prometheus.CounterVec
	phases         *prometheus.HistogramVec
}

// NewMetrics creates the collectors on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		renders: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tablero",
			Name:      "grid_renders_total",
			Help:      "Grid renders by screen and presentation state.",
		}, []string{"screen", "state"}),
		renderFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tablero",
			Name:      "grid_render_failures_total",
			Help:      "Grid renders that failed in a cell or toolbar renderer, or in the template.",
		}, []string{"screen"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tablero",
			Name:      "grid_action_events_total",
			Help:      "Row action events by action and outcome.",
		}, []string{"screen", "action", "outcome"}),
		diagnostics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tablero",
			Name:      "grid_diagnostics_total",
			Help:      "Configuration diagnostics by code.",
		}, []string{"screen", "code"}),
		phases: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tablero",
			Name:      "grid_phase_duration_seconds",
			Help:      "Time spent in each phase of a grid request.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"phase"}),
	}
	m.Registry.MustRegister(m.renders, m.renderFailures, m.actions, m.diagnostics, m.phases)
	return m
}

// TimingCollector records the duration of request phases.
type TimingCollector struct {
	m     *Metrics
	start time.Time
}

// NewTimingCollector creates a new timing collector.
func (m *Metrics) NewTimingCollector() *TimingCollector {
	return &TimingCollector{m: m, start: time.Now()}
}

// Record observes one phase.
func (tc *TimingCollector) Record(phase string, since time.Time) {
	tc.m.phases.WithLabelValues(phase).Observe(time.Since(since).Seconds())
}

// Total observes the whole request.
func (tc *TimingCollector) Total() {
	tc.Record("total", tc.start)
}
