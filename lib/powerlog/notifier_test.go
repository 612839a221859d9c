// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package powerlog

import (
	"os"
	"os/signal"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/bureau-foundation/powerlaunch/lib/testutil"
)

func TestChannelNotifierDropsWhenFull(t *testing.T) {
	notifier := NewChannelNotifier(2)
	for power := range 5 {
		notifier.Notify(Alert{Power: 1500 + power})
	}
	if notifier.Dropped() != 3 {
		t.Errorf("dropped = %d, want 3", notifier.Dropped())
	}
	first := testutil.RequireReceive(t, notifier.Alerts(), time.Second, "first alert")
	second := testutil.RequireReceive(t, notifier.Alerts(), time.Second, "second alert")
	if first.Power != 1500 || second.Power != 1501 {
		t.Errorf("queued alerts = %d, %d, want the oldest two", first.Power, second.Power)
	}
}

func TestMultiNotifier(t *testing.T) {
	var calls []string
	multi := MultiNotifier{
		NotifierFunc(func(Alert) { calls = append(calls, "first") }),
		NotifierFunc(func(Alert) { calls = append(calls, "second") }),
	}
	multi.Notify(Alert{Power: 2000})
	if len(calls) != 2 || calls[0] != "first" || calls[1] != "second" {
		t.Errorf("calls = %v", calls)
	}
}

func TestSignalNotifier(t *testing.T) {
	received := make(chan os.Signal, 1)
	signal.Notify(received, unix.SIGUSR1)
	defer signal.Stop(received)

	notifier := NewSignalNotifier(os.Getpid())
	notifier.Notify(Alert{Power: 1500})

	got := testutil.RequireReceive(t, received, 5*time.Second, "SIGUSR1")
	if got != unix.SIGUSR1 {
		t.Errorf("signal = %v, want SIGUSR1", got)
	}
	if notifier.Failed() != 0 {
		t.Errorf("failed = %d", notifier.Failed())
	}
}

func TestSignalNotifierCountsFailures(t *testing.T) {
	// PID 2^22+1 is above the kernel's pid_max ceiling.
	notifier := NewSignalNotifier(1<<22 + 1)
	notifier.Notify(Alert{})
	if notifier.Failed() != 1 {
		t.Errorf("failed = %d, want 1", notifier.Failed())
	}
}

func TestAlertString(t *testing.T) {
	alert := Alert{Power: 1500, Threshold: 1450, Progress: 80.22}
	if got, want := alert.String(), "power 1500W over threshold 1450W at 80.22% progress"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
