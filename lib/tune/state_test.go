// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tune

import (
	"slices"
	"testing"
	"time"
)

func TestStateEquality(t *testing.T) {
	first := State{}.WithGPUFreq(765).WithDwell(5 * time.Millisecond)
	second := State{}.WithDwell(5 * time.Millisecond).WithGPUFreq(765)
	if first != second || !first.Equal(second) {
		t.Errorf("%v != %v", first, second)
	}
	if first == first.WithCPUFreq(1000) {
		t.Error("adding a field should change equality")
	}
	if (State{}) == (State{}).WithFanSpeed(0) {
		t.Error("a present zero must differ from an absent field")
	}
}

func TestStateWithDoesNotMutate(t *testing.T) {
	base := State{}.WithCPUFreq(1000)
	_ = base.WithGPUFreq(500)
	if _, ok := base.GPUFreq(); ok {
		t.Error("WithGPUFreq mutated the receiver")
	}
}

func TestStateCompleteAndMissing(t *testing.T) {
	tests := []struct {
		name    string
		state   State
		missing []string
	}{
		{"empty", State{}, []string{KeyCPUFreq, KeyGPUFreq, KeyFanSpeed}},
		{"fan only", State{}.WithFanSpeed(50), []string{KeyCPUFreq, KeyGPUFreq}},
		{"dwell does not count", State{}.WithCPUFreq(1).WithGPUFreq(2).WithDwell(time.Second), []string{KeyFanSpeed}},
		{"complete", State{}.WithCPUFreq(1000).WithGPUFreq(390).WithFanSpeed(40), nil},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := test.state.Missing(); !slices.Equal(got, test.missing) {
				t.Errorf("Missing() = %v, want %v", got, test.missing)
			}
			if got, want := test.state.Complete(), test.missing == nil; got != want {
				t.Errorf("Complete() = %v, want %v", got, want)
			}
		})
	}
}

func TestStateString(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{State{}.WithGPUFreq(765), "State{GPU_Freq: 765MHz,}"},
		{
			State{}.WithCPUFreq(1000).WithGPUFreq(390).WithFanSpeed(40).WithDwell(5 * time.Millisecond),
			"State{CPU_Freq: 1000MHz,GPU_Freq: 390MHz,Fan_Speed: 40%,Lasting_time: 5ms,}",
		},
		{State{}, "State{}"},
	}
	for _, test := range tests {
		if got := test.state.String(); got != test.want {
			t.Errorf("String() = %q, want %q", got, test.want)
		}
	}
}
