// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package powerlog

import (
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"
)

// Alert describes one over-threshold power sample. Receivers that want
// fresher numbers can read the shared gauges.
type Alert struct {
	Power     int
	Progress  float64
	Threshold int
	At        time.Time
}

func (a Alert) String() string {
	return fmt.Sprintf("power %dW over threshold %dW at %.2f%% progress", a.Power, a.Threshold, a.Progress)
}

// Notifier delivers alerts out of band. Notify is called on the
// daemon's goroutine and must return without blocking.
type Notifier interface {
	Notify(Alert)
}

// NotifierFunc adapts a function to Notifier. The function must not
// block.
type NotifierFunc func(Alert)

func (f NotifierFunc) Notify(alert Alert) { f(alert) }

// MultiNotifier fans an alert out to every notifier in order.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(alert Alert) {
	for _, notifier := range m {
		notifier.Notify(alert)
	}
}

// ChannelNotifier queues alerts on a buffered channel. When the buffer
// is full the alert is dropped and counted rather than blocking the
// daemon.
type ChannelNotifier struct {
	alerts  chan Alert
	dropped atomic.Uint64
}

// NewChannelNotifier returns a ChannelNotifier with room for capacity
// undelivered alerts. Capacity below 1 is raised to 1.
func NewChannelNotifier(capacity int) *ChannelNotifier {
	return &ChannelNotifier{alerts: make(chan Alert, max(capacity, 1))}
}

func (c *ChannelNotifier) Notify(alert Alert) {
	select {
	case c.alerts <- alert:
	default:
		c.dropped.Add(1)
	}
}

// Alerts returns the receive side of the queue. It is never closed.
func (c *ChannelNotifier) Alerts() <-chan Alert { return c.alerts }

// Dropped returns how many alerts were discarded because the queue was
// full.
func (c *ChannelNotifier) Dropped() uint64 { return c.dropped.Load() }

// SignalNotifier sends a signal to a process for every alert.
type SignalNotifier struct {
	pid    int
	signal unix.Signal
	failed atomic.Uint64
}

// NewSignalNotifier returns a SignalNotifier that sends SIGUSR1 to pid.
func NewSignalNotifier(pid int) *SignalNotifier {
	return &SignalNotifier{pid: pid, signal: unix.SIGUSR1}
}

func (s *SignalNotifier) Notify(Alert) {
	if err := unix.Kill(s.pid, s.signal); err != nil {
		s.failed.Add(1)
	}
}

// Failed returns how many signals could not be delivered.
func (s *SignalNotifier) Failed() uint64 { return s.failed.Load() }
