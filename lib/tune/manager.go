// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tune

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bureau-foundation/powerlaunch/lib/clock"
	"github.com/bureau-foundation/powerlaunch/lib/cluster"
)

// DefaultDwell is held after a delta that carries no Time.
const DefaultDwell = time.Millisecond

// Manager tracks the node's current configuration and applies deltas
// to it through a cluster.Driver.
type Manager struct {
	driver  cluster.Driver
	clock   clock.Clock
	logger  *slog.Logger
	current State
}

// NewManager returns a Manager whose recorded configuration starts as
// initial. initial only needs to be complete if Reset will be used.
func NewManager(driver cluster.Driver, initial State, clk clock.Clock, logger *slog.Logger) *Manager {
	return &Manager{
		driver:  driver,
		clock:   clk,
		logger:  logger,
		current: initial,
	}
}

// Current returns the recorded configuration.
func (m *Manager) Current() State {
	return m.current
}

// ApplyDelta issues one command per present control field of delta,
// in CPU, GPU, fan order, recording each field whose command
// succeeded. Failed commands are logged and do not stop the remaining
// fields. It then holds for the delta's dwell (DefaultDwell when
// absent).
//
// The returned error joins every HardwareCommandError, or is the
// context error if ctx ends during the dwell.
func (m *Manager) ApplyDelta(ctx context.Context, delta State) error {
	var errs []error

	if value, ok := delta.CPUFreq(); ok {
		if err := m.issue(ctx, cluster.SetCPUFreq(value)); err != nil {
			errs = append(errs, err)
		} else {
			m.current = m.current.WithCPUFreq(value)
		}
	}
	if value, ok := delta.GPUFreq(); ok {
		if err := m.issue(ctx, cluster.SetGPUFreq(value)); err != nil {
			errs = append(errs, err)
		} else {
			m.current = m.current.WithGPUFreq(value)
		}
	}
	if value, ok := delta.FanSpeed(); ok {
		if err := m.issue(ctx, cluster.SetFanSpeed(value)); err != nil {
			errs = append(errs, err)
		} else {
			m.current = m.current.WithFanSpeed(value)
		}
	}

	dwell, ok := delta.Dwell()
	if !ok {
		dwell = DefaultDwell
	}
	if err := m.hold(ctx, dwell); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Reset reapplies the recorded CPU, GPU, and fan values. It returns an
// *IncompleteStateError without issuing any command when one of them
// was never recorded. Individual command failures are logged, joined,
// and do not stop the remaining fields.
func (m *Manager) Reset(ctx context.Context) error {
	if missing := m.current.Missing(); len(missing) > 0 {
		return &IncompleteStateError{Missing: missing}
	}
	cpu, _ := m.current.CPUFreq()
	gpu, _ := m.current.GPUFreq()
	fan, _ := m.current.FanSpeed()
	m.logger.Info("resetting to recorded configuration", "state", m.current.String())
	return errors.Join(
		m.issue(ctx, cluster.SetCPUFreq(cpu)),
		m.issue(ctx, cluster.SetGPUFreq(gpu)),
		m.issue(ctx, cluster.SetFanSpeed(fan)),
	)
}

// SetFanSpeed drives the fan to percent without recording it, so a
// later Reset restores the recorded fan speed. Used for the pre-run
// heat purge.
func (m *Manager) SetFanSpeed(ctx context.Context, percent int) error {
	return m.issue(ctx, cluster.SetFanSpeed(percent))
}

// ResetDefaults returns the fan, GPU, and CPU to their driver
// defaults, best effort. The recorded configuration is left alone.
func (m *Manager) ResetDefaults(ctx context.Context) error {
	var errs []error
	for _, target := range []cluster.Target{cluster.Fan, cluster.GPU, cluster.CPU} {
		if err := m.issue(ctx, cluster.ResetTarget(target)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// issue applies a single command, logging the outcome. A failure is
// returned as a *HardwareCommandError.
func (m *Manager) issue(ctx context.Context, command cluster.Command) error {
	m.logger.Info("state switch", "command", command.String())
	if err := m.driver.Apply(ctx, command); err != nil {
		m.logger.Error("hardware command failed", "command", command.String(), "error", err)
		return &HardwareCommandError{Command: command, Err: err}
	}
	return nil
}

func (m *Manager) hold(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	select {
	case <-m.clock.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
