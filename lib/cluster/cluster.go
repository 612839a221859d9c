// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cluster

import (
	"context"
	"fmt"
)

// Driver is the hardware capability the launcher controls.
type Driver interface {
	// Apply issues one hardware command. It returns an error when the
	// command could not be carried out; there are no retries.
	Apply(ctx context.Context, command Command) error

	// ReadPower returns the instantaneous power draw of node in whole
	// watts.
	ReadPower(ctx context.Context, node int) (int, error)
}

// Target is the tunable component a Command addresses.
type Target int

const (
	// CPU is the processor clock, in MHz.
	CPU Target = iota
	// GPU is the graphics clock, in MHz.
	GPU
	// Fan is the fan duty cycle, in percent.
	Fan
)

// String returns the directive name of the target.
func (t Target) String() string {
	switch t {
	case CPU:
		return "CPU"
	case GPU:
		return "GPU"
	case Fan:
		return "FAN"
	default:
		return fmt.Sprintf("Target(%d)", int(t))
	}
}

// Op is the operation a Command performs.
type Op int

const (
	// Set drives the target to Command.Value.
	Set Op = iota
	// Reset returns the target to its driver default. Value is
	// ignored.
	Reset
)

// Command is a single structured hardware directive.
type Command struct {
	Op     Op
	Target Target
	Value  int
}

// SetCPUFreq returns a command setting the CPU clock to mhz.
func SetCPUFreq(mhz int) Command { return Command{Op: Set, Target: CPU, Value: mhz} }

// SetGPUFreq returns a command setting the GPU clock to mhz.
func SetGPUFreq(mhz int) Command { return Command{Op: Set, Target: GPU, Value: mhz} }

// SetFanSpeed returns a command setting the fan duty cycle to percent.
func SetFanSpeed(percent int) Command { return Command{Op: Set, Target: Fan, Value: percent} }

// ResetTarget returns a command restoring target to its default.
func ResetTarget(target Target) Command { return Command{Op: Reset, Target: target} }

// Validate reports whether the command is in range: frequencies must
// be positive, fan speed must be within 0-100.
func (c Command) Validate() error {
	switch c.Target {
	case CPU, GPU, Fan:
	default:
		return fmt.Errorf("unknown target %d", int(c.Target))
	}
	switch c.Op {
	case Reset:
		return nil
	case Set:
	default:
		return fmt.Errorf("unknown op %d", int(c.Op))
	}
	if c.Target == Fan {
		if c.Value < 0 || c.Value > 100 {
			return fmt.Errorf("fan speed %d%% out of range 0-100", c.Value)
		}
		return nil
	}
	if c.Value <= 0 {
		return fmt.Errorf("%s frequency %dMHz must be positive", c.Target, c.Value)
	}
	return nil
}

// String renders the command in the directive form used in logs:
// "SETFREQ CPU 2000", "SETSPEED FAN 40", "RESET GPU".
func (c Command) String() string {
	if c.Op == Reset {
		return "RESET " + c.Target.String()
	}
	if c.Target == Fan {
		return fmt.Sprintf("SETSPEED FAN %d", c.Value)
	}
	return fmt.Sprintf("SETFREQ %s %d", c.Target, c.Value)
}
