// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package metrics records launcher observations for monitoring.
//
// Components take a [Recorder] and never check whether metrics are
// enabled: when they are not, the launcher passes a [NoopRecorder].
// The Prometheus implementation registers its collectors on a
// caller-supplied registry, and [WriteTextfile] dumps that registry in
// the text exposition format for the node_exporter textfile collector.
// The launcher runs as a batch job, so nothing is served over HTTP.
package metrics

import "time"

// Recorder receives observations from the launcher. Implementations
// must be safe for concurrent use: the power daemon and the control
// goroutine record at the same time.
type Recorder interface {
	// ObservePower records one power sample in watts.
	ObservePower(watts int)
	// IncPowerReadError counts a failed power read.
	IncPowerReadError()
	// SetProgress records the workload's completion percentage.
	SetProgress(percent float64)
	// IncAlert counts one over-threshold power sample.
	IncAlert()
	// IncActionFired counts one hint action applied to the node.
	IncActionFired()
	// ObserveStabilization records how long the stability wait took.
	ObserveStabilization(d time.Duration)
}

// NoopRecorder discards everything.
type NoopRecorder struct{}

func (NoopRecorder) ObservePower(int)                   {}
func (NoopRecorder) IncPowerReadError()                 {}
func (NoopRecorder) SetProgress(float64)                {}
func (NoopRecorder) IncAlert()                          {}
func (NoopRecorder) IncActionFired()                    {}
func (NoopRecorder) ObserveStabilization(time.Duration) {}

var _ Recorder = NoopRecorder{}
