// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package prepare

import "testing"

// naiveSpread computes max-min over the last size samples directly.
func naiveSpread(samples []int, size int) (int, int) {
	start := max(len(samples)-size, 0)
	high, low := samples[start], samples[start]
	for _, sample := range samples[start:] {
		high = max(high, sample)
		low = min(low, sample)
	}
	return high, low
}

func TestWindowStableAtTenthSample(t *testing.T) {
	samples := []int{100, 105, 98, 102, 99, 101, 97, 103, 100, 102}
	window := NewWindow(10, 30)
	for index, sample := range samples {
		stable := window.Push(sample)
		if index < 9 && stable {
			t.Fatalf("stable after %d samples, window not yet full", index+1)
		}
		if index == 9 && !stable {
			t.Fatalf("not stable at the 10th sample: max %d min %d", window.Max(), window.Min())
		}
	}
	if window.Max() != 105 || window.Min() != 97 || window.Spread() != 8 {
		t.Errorf("max/min/spread = %d/%d/%d, want 105/97/8", window.Max(), window.Min(), window.Spread())
	}
}

func TestWindowExtremumSlidesOut(t *testing.T) {
	// A spike at the start keeps the window unstable until it slides
	// out, which forces a rescan of the max.
	window := NewWindow(3, 10)
	steps := []struct {
		sample   int
		max, min int
		stable   bool
	}{
		{500, 500, 500, false},
		{100, 500, 100, false},
		{105, 500, 100, false},
		{102, 105, 100, true},
		{90, 105, 90, false},
		{95, 102, 90, false},
		{96, 96, 90, true},
		{80, 96, 80, false},
	}
	for index, step := range steps {
		stable := window.Push(step.sample)
		if window.Max() != step.max || window.Min() != step.min || stable != step.stable {
			t.Errorf("after sample %d (%d): max %d min %d stable %v, want %d %d %v",
				index, step.sample, window.Max(), window.Min(), stable, step.max, step.min, step.stable)
		}
	}
}

func TestWindowMatchesNaiveScan(t *testing.T) {
	samples := []int{
		300, 310, 290, 305, 500, 120, 121, 119, 125, 118,
		118, 118, 400, 401, 399, 402, 250, 249, 251, 250,
		250, 0, 1000, 7, 7, 7, 7, 7, 7, 7, 8, 6,
	}
	for _, size := range []int{1, 2, 3, 5, 10} {
		window := NewWindow(size, 5)
		for index, sample := range samples {
			window.Push(sample)
			high, low := naiveSpread(samples[:index+1], size)
			if window.Max() != high || window.Min() != low {
				t.Fatalf("size %d after %d samples: max %d min %d, want %d %d",
					size, index+1, window.Max(), window.Min(), high, low)
			}
		}
	}
}

func TestWindowSizeOne(t *testing.T) {
	window := NewWindow(0, 0)
	if !window.Push(42) {
		t.Error("a single-sample window is stable as soon as it holds a sample")
	}
}
