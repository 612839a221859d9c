// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package powerlog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/bureau-foundation/powerlaunch/lib/clock"
	"github.com/bureau-foundation/powerlaunch/lib/cluster"
	"github.com/bureau-foundation/powerlaunch/lib/gauge"
	"github.com/bureau-foundation/powerlaunch/lib/metrics"
)

const (
	// DefaultThreshold is the alert threshold in watts.
	DefaultThreshold = 1450

	// DefaultInitialInterval is the sampling interval before the
	// workload reports any progress.
	DefaultInitialInterval = 10 * time.Second

	// RetryInterval is the shortest wait after a failed power read,
	// even when the active interval is zero.
	RetryInterval = 100 * time.Millisecond
)

// Config controls sampling. A zero Threshold or InitialInterval takes
// the package default. ActiveInterval, the interval once progress has
// been reported, is used as given; zero means no wait between samples.
type Config struct {
	Node            int
	Threshold       int
	InitialInterval time.Duration
	ActiveInterval  time.Duration
}

func (c Config) withDefaults() Config {
	if c.Threshold <= 0 {
		c.Threshold = DefaultThreshold
	}
	if c.InitialInterval <= 0 {
		c.InitialInterval = DefaultInitialInterval
	}
	if c.ActiveInterval < 0 {
		c.ActiveInterval = 0
	}
	return c
}

// Daemon is the power sampling loop. Create one with NewDaemon and
// call Run once on its own goroutine.
type Daemon struct {
	driver   cluster.Driver
	gauges   *gauge.Gauges
	clock    clock.Clock
	logger   *slog.Logger
	config   Config
	notifier Notifier
	recorder metrics.Recorder
	log      io.Writer
	trace    *TraceWriter

	alerts       atomic.Uint64
	logFailed    bool
	readFailures int
}

// DaemonOption configures a Daemon.
type DaemonOption func(*Daemon)

// WithNotifier sets where alerts go. Without one, alerts are only
// logged and counted.
func WithNotifier(notifier Notifier) DaemonOption {
	return func(d *Daemon) { d.notifier = notifier }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(recorder metrics.Recorder) DaemonOption {
	return func(d *Daemon) { d.recorder = recorder }
}

// WithPowerLog sets the writer that receives one
// "<progress>% <power>" line per sample once progress is non-zero.
// The caller owns and closes it.
func WithPowerLog(w io.Writer) DaemonOption {
	return func(d *Daemon) { d.log = w }
}

// WithTrace records every successful sample to trace. The caller
// closes it after Run returns.
func WithTrace(trace *TraceWriter) DaemonOption {
	return func(d *Daemon) { d.trace = trace }
}

// NewDaemon returns a Daemon reading power from driver and publishing
// it to gauges.
func NewDaemon(driver cluster.Driver, gauges *gauge.Gauges, clk clock.Clock, logger *slog.Logger, config Config, options ...DaemonOption) *Daemon {
	daemon := &Daemon{
		driver:   driver,
		gauges:   gauges,
		clock:    clk,
		logger:   logger,
		config:   config.withDefaults(),
		notifier: NotifierFunc(func(Alert) {}),
		recorder: metrics.NoopRecorder{},
	}
	for _, option := range options {
		option(daemon)
	}
	return daemon
}

// Alerts returns how many alerts have been raised so far.
func (d *Daemon) Alerts() uint64 { return d.alerts.Load() }

// Run samples until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) {
	interval := d.config.InitialInterval
	d.logger.Info("power daemon started",
		"node", d.config.Node,
		"threshold", d.config.Threshold,
		"interval", interval)
	defer d.logger.Info("power daemon stopped",
		"samples", d.gauges.Samples(),
		"alerts", d.alerts.Load())

	for {
		if ctx.Err() != nil {
			return
		}

		active, ok := d.sample(ctx)
		if active && interval != d.config.ActiveInterval {
			interval = d.config.ActiveInterval
			d.logger.Info("workload reported progress, sampling faster", "interval", interval)
		}

		wait := interval
		if !ok {
			wait = max(wait, RetryInterval)
		}
		if wait > 0 {
			select {
			case <-d.clock.After(wait):
			case <-ctx.Done():
				return
			}
		}
	}
}

// sample runs one iteration. It reports whether the workload has
// reported progress and whether the power read succeeded. Only the
// first of a run of read failures is logged; every one is counted.
func (d *Daemon) sample(ctx context.Context) (active, ok bool) {
	power, err := d.driver.ReadPower(ctx, d.config.Node)
	if err != nil {
		if ctx.Err() == nil {
			if d.readFailures == 0 {
				d.logger.Warn("power read failed, retrying quietly until it recovers",
					"node", d.config.Node,
					"error", err)
			}
			d.readFailures++
			d.recorder.IncPowerReadError()
		}
		return d.gauges.Progress() > 0, false
	}
	if d.readFailures > 0 {
		d.logger.Info("power reads recovered", "node", d.config.Node, "failed_reads", d.readFailures)
		d.readFailures = 0
	}

	d.gauges.SetPower(power)
	d.recorder.ObservePower(power)
	progress := d.gauges.Progress()
	d.recorder.SetProgress(progress)

	active = progress > 0
	if active && d.log != nil {
		d.appendLog(progress, power)
	}

	now := d.clock.Now()
	overThreshold := power > d.config.Threshold
	if overThreshold {
		alert := Alert{Power: power, Progress: progress, Threshold: d.config.Threshold, At: now}
		d.alerts.Add(1)
		d.recorder.IncAlert()
		d.logger.Warn("power over threshold", "power", power, "threshold", d.config.Threshold, "progress", progress)
		d.notifier.Notify(alert)
	}

	if d.trace != nil {
		err := d.trace.Write(Sample{At: now.UnixMilli(), Power: power, Progress: progress, Alert: overThreshold})
		if err != nil {
			d.logger.Error("power trace write failed, trace disabled", "error", err)
			d.trace = nil
		}
	}
	return active, true
}

func (d *Daemon) appendLog(progress float64, power int) {
	if _, err := fmt.Fprintf(d.log, "%.2f%% %d\n", progress, power); err != nil {
		if !d.logFailed {
			d.logger.Error("power log write failed", "error", err)
			d.logFailed = true
		}
		return
	}
	d.logFailed = false
}
