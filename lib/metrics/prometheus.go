// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"fmt"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "powerlaunch"

// PrometheusRecorder implements Recorder with Prometheus collectors.
type PrometheusRecorder struct {
	power          prom.Gauge
	powerSamples   prom.Counter
	powerErrors    prom.Counter
	progress       prom.Gauge
	alerts         prom.Counter
	actionsFired   prom.Counter
	stabilization  prom.Histogram
	lastSampleTime prom.Gauge
}

var _ Recorder = (*PrometheusRecorder)(nil)

// NewPrometheusRecorder creates the collectors and registers them on
// registry. A nil registry gets a fresh private one. Registering twice
// on the same registry fails.
func NewPrometheusRecorder(registry *prom.Registry) (*PrometheusRecorder, error) {
	if registry == nil {
		registry = prom.NewRegistry()
	}
	recorder := &PrometheusRecorder{
		power: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "power_watts",
			Help:      "Most recent node power sample",
		}),
		powerSamples: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "power_samples_total",
			Help:      "Power samples taken by the daemon",
		}),
		powerErrors: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "power_read_errors_total",
			Help:      "Power reads that failed",
		}),
		progress: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "workload_progress_percent",
			Help:      "Completion percentage reported by the workload",
		}),
		alerts: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "power_alerts_total",
			Help:      "Power samples above the alert threshold",
		}),
		actionsFired: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "hint_actions_fired_total",
			Help:      "Hint actions applied to the node",
		}),
		stabilization: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stabilization_duration_seconds",
			Help:      "Time spent waiting for node power to settle",
			Buckets:   prom.ExponentialBuckets(0.5, 2, 10),
		}),
		lastSampleTime: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "last_power_sample_timestamp_seconds",
			Help:      "Unix time of the most recent power sample",
		}),
	}
	err := registerAll(registry,
		recorder.power,
		recorder.powerSamples,
		recorder.powerErrors,
		recorder.progress,
		recorder.alerts,
		recorder.actionsFired,
		recorder.stabilization,
		recorder.lastSampleTime,
	)
	if err != nil {
		return nil, err
	}
	return recorder, nil
}

func registerAll(registry *prom.Registry, collectors ...prom.Collector) error {
	for _, collector := range collectors {
		if err := registry.Register(collector); err != nil {
			return fmt.Errorf("registering metrics: %w", err)
		}
	}
	return nil
}

func (p *PrometheusRecorder) ObservePower(watts int) {
	p.power.Set(float64(watts))
	p.powerSamples.Inc()
	p.lastSampleTime.SetToCurrentTime()
}

func (p *PrometheusRecorder) IncPowerReadError() { p.powerErrors.Inc() }

func (p *PrometheusRecorder) SetProgress(percent float64) { p.progress.Set(percent) }

func (p *PrometheusRecorder) IncAlert() { p.alerts.Inc() }

func (p *PrometheusRecorder) IncActionFired() { p.actionsFired.Inc() }

func (p *PrometheusRecorder) ObserveStabilization(d time.Duration) {
	p.stabilization.Observe(d.Seconds())
}
