// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package powerlog

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bureau-foundation/powerlaunch/lib/clock"
	"github.com/bureau-foundation/powerlaunch/lib/cluster/clustertest"
	"github.com/bureau-foundation/powerlaunch/lib/gauge"
	"github.com/bureau-foundation/powerlaunch/lib/metrics"
	"github.com/bureau-foundation/powerlaunch/lib/testutil"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type countingRecorder struct {
	metrics.NoopRecorder
	samples    atomic.Int64
	readErrors atomic.Int64
	alerts     atomic.Int64
}

func (c *countingRecorder) ObservePower(int)   { c.samples.Add(1) }
func (c *countingRecorder) IncPowerReadError() { c.readErrors.Add(1) }
func (c *countingRecorder) IncAlert()          { c.alerts.Add(1) }

// stepper drives a daemon on a fake clock one iteration at a time.
type stepper struct {
	clock  *clock.FakeClock
	cancel context.CancelFunc
	done   chan struct{}
}

func startDaemon(t *testing.T, daemon *Daemon, fakeClock *clock.FakeClock) *stepper {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	s := &stepper{clock: fakeClock, cancel: cancel, done: make(chan struct{})}
	go func() {
		daemon.Run(ctx)
		close(s.done)
	}()
	t.Cleanup(s.stop)
	return s
}

// iterations waits for the daemon to finish its current sample, then
// advances the clock by interval, n times in total.
func (s *stepper) iterations(n int, interval time.Duration) {
	for range n {
		s.clock.WaitForTimers(1)
		s.clock.Advance(interval)
	}
	s.clock.WaitForTimers(1)
}

func (s *stepper) stop() {
	s.cancel()
	<-s.done
}

func TestDaemonAlerts(t *testing.T) {
	tests := []struct {
		name   string
		power  []int
		alerts int
	}{
		{"below threshold", []int{1000, 1200, 1450}, 0},
		{"single spike", []int{1000, 1500, 1000}, 1},
		{"sustained", []int{1500, 1600, 1451}, 3},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			driver := clustertest.New(test.power...)
			fakeClock := clock.Fake(epoch)
			notifier := NewChannelNotifier(16)
			recorder := &countingRecorder{}
			daemon := NewDaemon(driver, &gauge.Gauges{}, fakeClock, discardLogger(), Config{},
				WithNotifier(notifier), WithRecorder(recorder))

			stepper := startDaemon(t, daemon, fakeClock)
			stepper.iterations(len(test.power)-1, DefaultInitialInterval)
			stepper.stop()

			if got := len(notifier.Alerts()); got != test.alerts {
				t.Errorf("alerts queued = %d, want %d", got, test.alerts)
			}
			if got := daemon.Alerts(); got != uint64(test.alerts) {
				t.Errorf("Alerts() = %d, want %d", got, test.alerts)
			}
			if got := recorder.alerts.Load(); got != int64(test.alerts) {
				t.Errorf("recorded alerts = %d, want %d", got, test.alerts)
			}
			if got := recorder.samples.Load(); got != int64(len(test.power)) {
				t.Errorf("recorded samples = %d, want %d", got, len(test.power))
			}
		})
	}
}

func TestDaemonAlertPayload(t *testing.T) {
	driver := clustertest.New(1700)
	fakeClock := clock.Fake(epoch)
	gauges := &gauge.Gauges{}
	gauges.SetProgress(12.5)
	notifier := NewChannelNotifier(1)
	daemon := NewDaemon(driver, gauges, fakeClock, discardLogger(), Config{Threshold: 1600, ActiveInterval: time.Second},
		WithNotifier(notifier))

	stepper := startDaemon(t, daemon, fakeClock)
	stepper.iterations(0, 0)
	stepper.stop()

	alert := testutil.RequireReceive(t, notifier.Alerts(), time.Second, "alert")
	if alert.Power != 1700 || alert.Progress != 12.5 || alert.Threshold != 1600 || !alert.At.Equal(epoch) {
		t.Errorf("alert = %+v", alert)
	}
}

func TestDaemonPublishesPower(t *testing.T) {
	driver := clustertest.New(900, 950)
	fakeClock := clock.Fake(epoch)
	gauges := &gauge.Gauges{}
	daemon := NewDaemon(driver, gauges, fakeClock, discardLogger(), Config{})

	stepper := startDaemon(t, daemon, fakeClock)
	stepper.iterations(0, 0)
	if power, ok := gauges.Power(); !ok || power != 900 {
		t.Errorf("power after first sample = %d, %v", power, ok)
	}
	stepper.iterations(1, DefaultInitialInterval)
	if power, _ := gauges.Power(); power != 950 {
		t.Errorf("power after second sample = %d, want 950", power)
	}
}

func TestDaemonLogsOnlyAfterProgress(t *testing.T) {
	driver := clustertest.New(1000, 1010, 1020, 1030)
	fakeClock := clock.Fake(epoch)
	gauges := &gauge.Gauges{}
	var powerLog bytes.Buffer
	daemon := NewDaemon(driver, gauges, fakeClock, discardLogger(),
		Config{ActiveInterval: time.Second}, WithPowerLog(&powerLog))

	stepper := startDaemon(t, daemon, fakeClock)
	stepper.iterations(1, DefaultInitialInterval)
	if powerLog.Len() != 0 {
		t.Fatalf("logged before any progress: %q", powerLog.String())
	}

	gauges.SetProgress(12.22)
	stepper.iterations(1, DefaultInitialInterval)
	// The interval is now ActiveInterval: one second is enough.
	gauges.SetProgress(55.5)
	stepper.iterations(1, time.Second)
	stepper.stop()

	want := "12.22% 1020\n55.50% 1030\n"
	if got := powerLog.String(); got != want {
		t.Errorf("power log = %q, want %q", got, want)
	}
}

func TestDaemonZeroActiveIntervalSamplesContinuously(t *testing.T) {
	driver := clustertest.New(1000)
	gauges := &gauge.Gauges{}
	gauges.SetProgress(99.99)
	daemon := NewDaemon(driver, gauges, clock.Real(), discardLogger(), Config{InitialInterval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		daemon.Run(ctx)
		close(done)
	}()
	deadline := time.Now().Add(5 * time.Second)
	for driver.Reads() < 50 {
		if time.Now().After(deadline) {
			t.Fatalf("only %d reads with a zero active interval", driver.Reads())
		}
		time.Sleep(time.Millisecond)
	}
	cancel()
	testutil.RequireClosed(t, done, 5*time.Second, "daemon stop")
}

func TestDaemonStopsDuringWait(t *testing.T) {
	driver := clustertest.New(1000)
	daemon := NewDaemon(driver, &gauge.Gauges{}, clock.Real(), discardLogger(), Config{InitialInterval: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		daemon.Run(ctx)
		close(done)
	}()
	for driver.Reads() == 0 {
		time.Sleep(time.Millisecond)
	}
	cancel()
	testutil.RequireClosed(t, done, 5*time.Second, "daemon must not wait out the interval")
	if driver.Reads() != 1 {
		t.Errorf("reads = %d, want 1", driver.Reads())
	}
}

func TestDaemonReadErrors(t *testing.T) {
	driver := clustertest.New()
	driver.PowerError = errors.New("sensor unavailable")
	fakeClock := clock.Fake(epoch)
	gauges := &gauge.Gauges{}
	recorder := &countingRecorder{}
	daemon := NewDaemon(driver, gauges, fakeClock, discardLogger(), Config{}, WithRecorder(recorder))

	stepper := startDaemon(t, daemon, fakeClock)
	stepper.iterations(2, DefaultInitialInterval)
	stepper.stop()

	if _, ok := gauges.Power(); ok {
		t.Error("power gauge set despite read errors")
	}
	if got := recorder.readErrors.Load(); got != 3 {
		t.Errorf("read errors = %d, want 3", got)
	}
}

func TestDaemonBacksOffOnReadErrors(t *testing.T) {
	driver := clustertest.New(1000)
	driver.SetPowerError(errors.New("sensor unavailable"))
	fakeClock := clock.Fake(epoch)
	gauges := &gauge.Gauges{}
	gauges.SetProgress(50)
	recorder := &countingRecorder{}
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	daemon := NewDaemon(driver, gauges, fakeClock, logger, Config{}, WithRecorder(recorder))

	// The active interval is zero, so only the retry wait paces the
	// failing reads.
	stepper := startDaemon(t, daemon, fakeClock)
	stepper.iterations(3, RetryInterval)
	if reads := driver.Reads(); reads != 4 {
		t.Fatalf("reads = %d after three retry intervals, want 4", reads)
	}

	driver.SetPowerError(nil)
	fakeClock.Advance(RetryInterval)
	deadline := time.Now().Add(5 * time.Second)
	for driver.Reads() < 6 {
		if time.Now().After(deadline) {
			t.Fatalf("only %d reads after the sensor recovered", driver.Reads())
		}
		time.Sleep(time.Millisecond)
	}
	stepper.stop()

	if got := recorder.readErrors.Load(); got != 4 {
		t.Errorf("read errors = %d, want 4", got)
	}
	output := logs.String()
	if count := strings.Count(output, "power read failed"); count != 1 {
		t.Errorf("read failure logged %d times, want once:\n%s", count, output)
	}
	if !strings.Contains(output, "failed_reads=4") {
		t.Errorf("recovery line missing the failure count:\n%s", output)
	}
	if power, ok := gauges.Power(); !ok || power != 1000 {
		t.Errorf("power after recovery = %d, %v", power, ok)
	}
}

func TestDaemonTrace(t *testing.T) {
	driver := clustertest.New(1400, 1500)
	fakeClock := clock.Fake(epoch)
	var buffer bytes.Buffer
	trace, err := NewTraceWriter(&buffer, TraceHeader{Executable: "/opt/hpl/xhpl", Threshold: DefaultThreshold})
	if err != nil {
		t.Fatalf("NewTraceWriter: %v", err)
	}
	daemon := NewDaemon(driver, &gauge.Gauges{}, fakeClock, discardLogger(), Config{}, WithTrace(trace))

	stepper := startDaemon(t, daemon, fakeClock)
	stepper.iterations(1, DefaultInitialInterval)
	stepper.stop()
	if err := trace.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	header, samples, err := ReadTrace(&buffer)
	if err != nil {
		t.Fatalf("ReadTrace: %v", err)
	}
	if header.Executable != "/opt/hpl/xhpl" || header.Version != TraceVersion {
		t.Errorf("header = %+v", header)
	}
	want := []Sample{
		{At: epoch.UnixMilli(), Power: 1400},
		{At: epoch.Add(DefaultInitialInterval).UnixMilli(), Power: 1500, Alert: true},
	}
	if len(samples) != len(want) {
		t.Fatalf("samples = %+v, want %+v", samples, want)
	}
	for index := range want {
		if samples[index] != want[index] {
			t.Errorf("sample %d = %+v, want %+v", index, samples[index], want[index])
		}
	}
}
