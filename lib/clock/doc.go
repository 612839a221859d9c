// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides the time source used by every powerlaunch
// component that waits: dwell periods after a state delta, the fan
// purge before stability measurement, the stability detector's poll
// interval, and the power daemon's sampling interval.
//
// Production code takes a [Clock] and is handed [Real]. Tests hand in
// a [FakeClock] and drive it with [FakeClock.Advance]:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	go manager.ApplyDelta(ctx, delta) // sleeps the delta's dwell
//	c.WaitForTimers(1)                // dwell sleep registered
//	c.Advance(5 * time.Millisecond)   // dwell ends
//
// [FakeClock.WaitForTimers] removes the race between a goroutine
// registering a wait and the test advancing time.
package clock
