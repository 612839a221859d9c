// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/bureau-foundation/powerlaunch/lib/clock"
	"github.com/bureau-foundation/powerlaunch/lib/cluster"
	"github.com/bureau-foundation/powerlaunch/lib/config"
	"github.com/bureau-foundation/powerlaunch/lib/gauge"
	"github.com/bureau-foundation/powerlaunch/lib/metrics"
	"github.com/bureau-foundation/powerlaunch/lib/powerlog"
)

// powerMonitor runs the power daemon for the duration of a workload
// together with the goroutine that receives its alerts.
type powerMonitor struct {
	daemon  *powerlog.Daemon
	queue   *powerlog.ChannelNotifier
	signal  *powerlog.SignalNotifier
	logFile *os.File
	trace   *powerlog.TraceWriter
	logger  *slog.Logger

	cancel context.CancelFunc
	done   sync.WaitGroup
}

type monitorOptions struct {
	logPath      string
	signalParent int
	executable   string
	fingerprint  string
}

// startPowerMonitor opens the power log (and the trace, if configured)
// and starts the daemon.
func startPowerMonitor(ctx context.Context, driver cluster.Driver, gauges *gauge.Gauges, recorder metrics.Recorder, clk clock.Clock, logger *slog.Logger, section config.PowerLogConfig, node int, options monitorOptions) (*powerMonitor, error) {
	logFile, err := os.Create(options.logPath)
	if err != nil {
		return nil, fmt.Errorf("creating power log: %w", err)
	}
	monitor := &powerMonitor{
		logFile: logFile,
		queue:   powerlog.NewChannelNotifier(section.AlertQueue),
		logger:  logger,
	}

	notifiers := powerlog.MultiNotifier{monitor.queue}
	if options.signalParent > 0 {
		monitor.signal = powerlog.NewSignalNotifier(options.signalParent)
		notifiers = append(notifiers, monitor.signal)
	}
	daemonOptions := []powerlog.DaemonOption{
		powerlog.WithNotifier(notifiers),
		powerlog.WithRecorder(recorder),
		powerlog.WithPowerLog(logFile),
	}

	if section.Trace != "" {
		trace, err := powerlog.CreateTrace(section.Trace, powerlog.TraceHeader{
			Executable:  options.executable,
			Fingerprint: options.fingerprint,
			StartedAt:   clk.Now().UnixMilli(),
			Threshold:   section.Threshold,
			Node:        node,
		})
		if err != nil {
			logFile.Close()
			return nil, err
		}
		monitor.trace = trace
		daemonOptions = append(daemonOptions, powerlog.WithTrace(trace))
	}

	monitor.daemon = powerlog.NewDaemon(driver, gauges, clk, logger, powerlog.Config{
		Node:            node,
		Threshold:       section.Threshold,
		InitialInterval: section.InitialInterval.Std(),
		ActiveInterval:  section.ActiveInterval.Std(),
	}, daemonOptions...)

	daemonContext, cancel := context.WithCancel(ctx)
	monitor.cancel = cancel
	monitor.done.Add(2)
	go func() {
		defer monitor.done.Done()
		monitor.daemon.Run(daemonContext)
	}()
	go func() {
		defer monitor.done.Done()
		monitor.receiveAlerts(daemonContext, gauges)
	}()
	return monitor, nil
}

// receiveAlerts reports each queued alert against the gauges as they
// stand when it is received.
func (m *powerMonitor) receiveAlerts(ctx context.Context, gauges *gauge.Gauges) {
	report := func(alert powerlog.Alert) {
		power, _ := gauges.Power()
		m.logger.Info("power alert",
			"alert", alert.String(),
			"progress_now", gauges.Progress(),
			"power_now", power)
	}
	for {
		select {
		case alert := <-m.queue.Alerts():
			report(alert)
		case <-ctx.Done():
			for {
				select {
				case alert := <-m.queue.Alerts():
					report(alert)
				default:
					return
				}
			}
		}
	}
}

// stop ends sampling, waits for both goroutines, and closes the files.
func (m *powerMonitor) stop() error {
	m.cancel()
	m.done.Wait()

	var errs []error
	if m.trace != nil {
		errs = append(errs, m.trace.Close())
	}
	errs = append(errs, m.logFile.Close())

	attributes := []any{"alerts", m.daemon.Alerts(), "dropped", m.queue.Dropped()}
	if m.signal != nil {
		attributes = append(attributes, "signal_failures", m.signal.Failed())
	}
	m.logger.Info("power monitoring finished", attributes...)
	return errors.Join(errs...)
}
