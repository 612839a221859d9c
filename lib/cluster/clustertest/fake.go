// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clustertest provides a scripted in-memory cluster.Driver for
// tests.
package clustertest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bureau-foundation/powerlaunch/lib/cluster"
)

// Fake records every command it is asked to apply and replays a
// scripted sequence of power readings. It is safe for concurrent use.
//
// Power readings are served from the script in order. Once the script
// is exhausted the last value repeats, or, if Cycle is set, the
// script starts over. With no script, ReadPower returns 0.
type Fake struct {
	mu       sync.Mutex
	commands []cluster.Command
	failures map[cluster.Target]error
	power    []int
	position int
	reads    int

	// Cycle replays the power script from the beginning once it is
	// exhausted.
	Cycle bool

	// PowerError, when set, is returned by every ReadPower call.
	PowerError error
}

// New returns a Fake that serves the given power readings.
func New(power ...int) *Fake {
	return &Fake{power: power, failures: make(map[cluster.Target]error)}
}

// SetPowerError sets PowerError while other goroutines may be reading
// power.
func (f *Fake) SetPowerError(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.PowerError = err
}

// FailTarget makes every Set or Reset addressed to target fail with
// err. Pass a nil err to clear the failure.
func (f *Fake) FailTarget(target cluster.Target, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		delete(f.failures, target)
		return
	}
	f.failures[target] = err
}

// Apply records command. Commands that fail validation or address a
// failing target are recorded too, then rejected.
func (f *Fake) Apply(ctx context.Context, command cluster.Command) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commands = append(f.commands, command)
	if err := command.Validate(); err != nil {
		return err
	}
	if err := f.failures[command.Target]; err != nil {
		return fmt.Errorf("%s: %w", command, err)
	}
	return nil
}

// ReadPower returns the next scripted reading. Only node 0 exists.
func (f *Fake) ReadPower(ctx context.Context, node int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reads++
	if f.PowerError != nil {
		return 0, f.PowerError
	}
	if node != 0 {
		return 0, errors.New("clustertest: only node 0 exists")
	}
	if len(f.power) == 0 {
		return 0, nil
	}
	if f.position >= len(f.power) {
		if !f.Cycle {
			return f.power[len(f.power)-1], nil
		}
		f.position = 0
	}
	value := f.power[f.position]
	f.position++
	return value, nil
}

// Commands returns a copy of every command applied so far.
func (f *Fake) Commands() []cluster.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]cluster.Command(nil), f.commands...)
}

// Reads returns how many times ReadPower has been called.
func (f *Fake) Reads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}
