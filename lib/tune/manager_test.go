// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tune

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/bureau-foundation/powerlaunch/lib/clock"
	"github.com/bureau-foundation/powerlaunch/lib/cluster"
	"github.com/bureau-foundation/powerlaunch/lib/cluster/clustertest"
	"github.com/bureau-foundation/powerlaunch/lib/testutil"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fullState() State {
	return State{}.WithCPUFreq(2000).WithGPUFreq(765).WithFanSpeed(40)
}

func TestApplyDeltaSingleField(t *testing.T) {
	driver := clustertest.New()
	fakeClock := clock.Fake(epoch)
	manager := NewManager(driver, fullState(), fakeClock, discardLogger())

	done := make(chan error, 1)
	go func() {
		done <- manager.ApplyDelta(context.Background(), State{}.WithGPUFreq(585).WithDwell(5*time.Millisecond))
	}()

	fakeClock.WaitForTimers(1)
	commands := driver.Commands()
	if len(commands) != 1 || commands[0] != cluster.SetGPUFreq(585) {
		t.Fatalf("commands = %v, want [SETFREQ GPU 585]", commands)
	}

	fakeClock.Advance(4 * time.Millisecond)
	testutil.RequireNoReceive(t, done, 10*time.Millisecond, "ApplyDelta returned before the dwell elapsed")

	fakeClock.Advance(time.Millisecond)
	if err := testutil.RequireReceive(t, done, 5*time.Second, "ApplyDelta after dwell"); err != nil {
		t.Fatalf("ApplyDelta: %v", err)
	}

	want := fullState().WithGPUFreq(585)
	if got := manager.Current(); got != want {
		t.Errorf("Current() = %v, want %v", got, want)
	}
}

func TestApplyDeltaDefaultDwell(t *testing.T) {
	fakeClock := clock.Fake(epoch)
	manager := NewManager(clustertest.New(), State{}, fakeClock, discardLogger())

	done := make(chan error, 1)
	go func() { done <- manager.ApplyDelta(context.Background(), State{}.WithFanSpeed(30)) }()

	fakeClock.WaitForTimers(1)
	fakeClock.Advance(DefaultDwell)
	if err := testutil.RequireReceive(t, done, 5*time.Second, "ApplyDelta with default dwell"); err != nil {
		t.Fatalf("ApplyDelta: %v", err)
	}
}

func TestApplyDeltaBestEffort(t *testing.T) {
	driver := clustertest.New()
	driver.FailTarget(cluster.CPU, errors.New("permission denied"))
	manager := NewManager(driver, fullState(), clock.Fake(epoch), discardLogger())

	delta := State{}.WithCPUFreq(1200).WithGPUFreq(600).WithFanSpeed(80).WithDwell(0)
	err := manager.ApplyDelta(context.Background(), delta)

	var commandError *HardwareCommandError
	if !errors.As(err, &commandError) || commandError.Command != cluster.SetCPUFreq(1200) {
		t.Fatalf("ApplyDelta error = %v, want HardwareCommandError for the CPU", err)
	}
	if got := len(driver.Commands()); got != 3 {
		t.Errorf("issued %d commands, want all 3 despite the CPU failure", got)
	}

	want := fullState().WithGPUFreq(600).WithFanSpeed(80)
	if got := manager.Current(); got != want {
		t.Errorf("Current() = %v, want %v (CPU unchanged)", got, want)
	}
}

func TestApplyDeltaEmpty(t *testing.T) {
	driver := clustertest.New()
	manager := NewManager(driver, fullState(), clock.Fake(epoch), discardLogger())
	if err := manager.ApplyDelta(context.Background(), State{}.WithDwell(0)); err != nil {
		t.Fatalf("ApplyDelta: %v", err)
	}
	if len(driver.Commands()) != 0 {
		t.Errorf("empty delta issued %v", driver.Commands())
	}
}

func TestApplyDeltaCancelledDuringDwell(t *testing.T) {
	fakeClock := clock.Fake(epoch)
	manager := NewManager(clustertest.New(), State{}, fakeClock, discardLogger())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- manager.ApplyDelta(ctx, State{}.WithGPUFreq(500).WithDwell(time.Hour)) }()
	fakeClock.WaitForTimers(1)
	cancel()

	err := testutil.RequireReceive(t, done, 5*time.Second, "ApplyDelta after cancel")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("ApplyDelta error = %v, want context.Canceled", err)
	}
	if gpu, _ := manager.Current().GPUFreq(); gpu != 500 {
		t.Errorf("GPU was applied before the dwell; recorded %d, want 500", gpu)
	}
}

func TestResetIncomplete(t *testing.T) {
	driver := clustertest.New()
	manager := NewManager(driver, State{}.WithFanSpeed(50), clock.Fake(epoch), discardLogger())

	err := manager.Reset(context.Background())
	var incomplete *IncompleteStateError
	if !errors.As(err, &incomplete) {
		t.Fatalf("Reset error = %v, want *IncompleteStateError", err)
	}
	if len(incomplete.Missing) != 2 {
		t.Errorf("Missing = %v, want CPU and GPU", incomplete.Missing)
	}
	if len(driver.Commands()) != 0 {
		t.Errorf("Reset issued %v, want no commands", driver.Commands())
	}
}

func TestResetReappliesRecorded(t *testing.T) {
	driver := clustertest.New()
	manager := NewManager(driver, fullState(), clock.Fake(epoch), discardLogger())
	if err := manager.SetFanSpeed(context.Background(), 100); err != nil {
		t.Fatalf("SetFanSpeed: %v", err)
	}
	if err := manager.Reset(context.Background()); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	want := []cluster.Command{
		cluster.SetFanSpeed(100),
		cluster.SetCPUFreq(2000),
		cluster.SetGPUFreq(765),
		cluster.SetFanSpeed(40),
	}
	got := driver.Commands()
	if len(got) != len(want) {
		t.Fatalf("commands = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("command %d = %v, want %v", i, got[i], want[i])
		}
	}
	if manager.Current() != fullState() {
		t.Errorf("SetFanSpeed changed the recorded state: %v", manager.Current())
	}
}

func TestResetDefaults(t *testing.T) {
	driver := clustertest.New()
	driver.FailTarget(cluster.GPU, errors.New("no overdrive"))
	manager := NewManager(driver, State{}, clock.Fake(epoch), discardLogger())

	if err := manager.ResetDefaults(context.Background()); err == nil {
		t.Fatal("ResetDefaults should report the GPU failure")
	}
	got := driver.Commands()
	want := []cluster.Command{
		cluster.ResetTarget(cluster.Fan),
		cluster.ResetTarget(cluster.GPU),
		cluster.ResetTarget(cluster.CPU),
	}
	if len(got) != len(want) {
		t.Fatalf("commands = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("command %d = %v, want %v", i, got[i], want[i])
		}
	}
}
