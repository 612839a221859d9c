// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package gauge holds the numeric state shared between the launcher's
// control goroutine and its power daemon.
//
// There are two gauges, each with exactly one writer:
//
//   - progress: the workload's most recent completion percentage,
//     written by hint.Executor, read by powerlog.Daemon to decide
//     whether to log and how fast to sample.
//   - power: the most recent power sample in watts, written by the
//     daemon, read by anyone (alert handlers, status logging).
//
// Both are lock-free atomics. A single *Gauges is created per run and
// passed to both sides; there are no package-level globals.
package gauge

import (
	"math"
	"sync/atomic"
)

// Gauges is the shared progress/power state of one run. The zero
// value is ready to use: progress 0.0, power unset.
type Gauges struct {
	progressBits atomic.Uint64
	power        atomic.Int64
	powerSet     atomic.Bool
	samples      atomic.Uint64
}

// SetProgress records the workload's completion percentage. The value
// is rounded to two decimal places, matching the marker precision.
func (g *Gauges) SetProgress(percent float64) {
	rounded := math.Round(percent*100) / 100
	g.progressBits.Store(math.Float64bits(rounded))
}

// Progress returns the last recorded completion percentage, or 0.
func (g *Gauges) Progress() float64 {
	return math.Float64frombits(g.progressBits.Load())
}

// SetPower records a power sample in watts.
func (g *Gauges) SetPower(watts int) {
	g.power.Store(int64(watts))
	g.powerSet.Store(true)
	g.samples.Add(1)
}

// Power returns the last sample and whether any sample was recorded.
func (g *Gauges) Power() (int, bool) {
	if !g.powerSet.Load() {
		return 0, false
	}
	return int(g.power.Load()), true
}

// Samples returns how many power samples have been recorded.
func (g *Gauges) Samples() uint64 {
	return g.samples.Load()
}
