// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package prepare conditions a node before a workload is launched.
//
// Conditioning happens in two steps. [Preparer.FiercelyBlowing] runs
// the fan at full speed for a short time to purge residual heat, then
// restores the recorded configuration through [tune.Manager.Reset].
// [Preparer.WaitForStability] then samples power until the most recent
// samples lie inside a narrow band.
//
// The band test uses a [Window]: a fixed-size trailing window that
// tracks the positions of its maximum and minimum incrementally. A new
// extremum is recorded in O(1). A full rescan of the window, which is
// O(size), happens only when the tracked maximum or minimum slides out.
//
// With the default configuration the wait polls without delay and has
// no deadline: a power signal that never settles keeps
// WaitForStability running until its context is cancelled. Both the
// poll interval and a timeout can be configured.
package prepare
