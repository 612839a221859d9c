// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tune

import (
	"fmt"
	"strings"
	"time"
)

// field is a presence bit for one State field.
type field uint8

const (
	fieldCPU field = 1 << iota
	fieldGPU
	fieldFan
	fieldDwell
)

// State is a hardware configuration snapshot. The zero value has every
// field absent. States are values: the With methods return modified
// copies, and two States are equal (==) exactly when the same fields
// are present with the same values.
type State struct {
	present  field
	cpuFreq  int
	gpuFreq  int
	fanSpeed int
	dwell    time.Duration
}

// WithCPUFreq returns a copy of s with the CPU clock set to mhz.
func (s State) WithCPUFreq(mhz int) State {
	s.cpuFreq = mhz
	s.present |= fieldCPU
	return s
}

// WithGPUFreq returns a copy of s with the GPU clock set to mhz.
func (s State) WithGPUFreq(mhz int) State {
	s.gpuFreq = mhz
	s.present |= fieldGPU
	return s
}

// WithFanSpeed returns a copy of s with the fan set to percent.
func (s State) WithFanSpeed(percent int) State {
	s.fanSpeed = percent
	s.present |= fieldFan
	return s
}

// WithDwell returns a copy of s holding for d after application.
func (s State) WithDwell(d time.Duration) State {
	s.dwell = d
	s.present |= fieldDwell
	return s
}

// CPUFreq returns the CPU clock in MHz and whether it is present.
func (s State) CPUFreq() (int, bool) { return s.cpuFreq, s.present&fieldCPU != 0 }

// GPUFreq returns the GPU clock in MHz and whether it is present.
func (s State) GPUFreq() (int, bool) { return s.gpuFreq, s.present&fieldGPU != 0 }

// FanSpeed returns the fan duty cycle and whether it is present.
func (s State) FanSpeed() (int, bool) { return s.fanSpeed, s.present&fieldFan != 0 }

// Dwell returns the hold time and whether it is present.
func (s State) Dwell() (time.Duration, bool) { return s.dwell, s.present&fieldDwell != 0 }

// Equal reports whether s and other have the same fields present with
// the same values. It is equivalent to ==.
func (s State) Equal(other State) bool { return s == other }

// Complete reports whether the CPU, GPU, and fan fields are all
// present, which is required for a full reset.
func (s State) Complete() bool {
	return len(s.Missing()) == 0
}

// Missing lists the control fields that are absent, in CPU, GPU, fan
// order, using their configuration key names.
func (s State) Missing() []string {
	var missing []string
	if s.present&fieldCPU == 0 {
		missing = append(missing, KeyCPUFreq)
	}
	if s.present&fieldGPU == 0 {
		missing = append(missing, KeyGPUFreq)
	}
	if s.present&fieldFan == 0 {
		missing = append(missing, KeyFanSpeed)
	}
	return missing
}

// String renders the present fields, for example
// "State{GPU_Freq: 585MHz,Lasting_time: 5ms,}".
func (s State) String() string {
	var builder strings.Builder
	builder.WriteString("State{")
	if value, ok := s.CPUFreq(); ok {
		fmt.Fprintf(&builder, "CPU_Freq: %dMHz,", value)
	}
	if value, ok := s.GPUFreq(); ok {
		fmt.Fprintf(&builder, "GPU_Freq: %dMHz,", value)
	}
	if value, ok := s.FanSpeed(); ok {
		fmt.Fprintf(&builder, "Fan_Speed: %d%%,", value)
	}
	if value, ok := s.Dwell(); ok {
		fmt.Fprintf(&builder, "Lasting_time: %v,", value)
	}
	builder.WriteString("}")
	return builder.String()
}
