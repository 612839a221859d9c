// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package gauge

import (
	"sync"
	"testing"
)

func TestZeroValue(t *testing.T) {
	var gauges Gauges
	if got := gauges.Progress(); got != 0 {
		t.Errorf("Progress() = %v, want 0", got)
	}
	if _, ok := gauges.Power(); ok {
		t.Error("Power() reported a value before any sample")
	}
}

func TestProgressRounding(t *testing.T) {
	var gauges Gauges
	gauges.SetProgress(80.22)
	if got := gauges.Progress(); got != 80.22 {
		t.Errorf("Progress() = %v, want 80.22", got)
	}
	gauges.SetProgress(12.3456)
	if got := gauges.Progress(); got != 12.35 {
		t.Errorf("Progress() = %v, want 12.35", got)
	}
}

func TestPower(t *testing.T) {
	var gauges Gauges
	gauges.SetPower(1450)
	gauges.SetPower(1500)
	if watts, ok := gauges.Power(); !ok || watts != 1500 {
		t.Errorf("Power() = %d, %v, want 1500, true", watts, ok)
	}
	if gauges.Samples() != 2 {
		t.Errorf("Samples() = %d, want 2", gauges.Samples())
	}
}

// TestConcurrentAccess exercises one writer per gauge with concurrent
// readers; run under -race.
func TestConcurrentAccess(t *testing.T) {
	var gauges Gauges
	var group sync.WaitGroup
	group.Add(3)
	go func() {
		defer group.Done()
		for i := 0; i < 1000; i++ {
			gauges.SetProgress(float64(i) / 10)
		}
	}()
	go func() {
		defer group.Done()
		for i := 0; i < 1000; i++ {
			gauges.SetPower(1000 + i)
		}
	}()
	go func() {
		defer group.Done()
		for i := 0; i < 1000; i++ {
			_ = gauges.Progress()
			_, _ = gauges.Power()
		}
	}()
	group.Wait()

	if got := gauges.Progress(); got != 99.9 {
		t.Errorf("final Progress() = %v, want 99.9", got)
	}
	if watts, _ := gauges.Power(); watts != 1999 {
		t.Errorf("final Power() = %d, want 1999", watts)
	}
}
