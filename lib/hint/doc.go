// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package hint is the launcher's hint-driven transition engine.
//
// An [Action] pairs a [Hint] (a regular expression or literal
// substring) with an ordered list of tune.State deltas. An [Executor]
// starts the workload, reads its stdout line by line, and for each
// line:
//
//  1. extracts a progress marker ("Prog= 80.22%") into the shared
//     gauge.Gauges, see [ExtractProgress];
//  2. tests only the action at the cursor; on a match applies every
//     delta of that action in order through tune.Manager and advances
//     the cursor;
//  3. logs the raw line.
//
// The cursor only moves forward, so actions fire at most once and
// strictly in the order they are declared: the engine is a state
// machine "waiting for action i" that moves to "waiting for action
// i+1" on a match and stops testing once i reaches the end of the
// list. A hint that never appears leaves the remaining actions
// untriggered; the run still completes normally.
//
// Strategies are parsed from JSON with [ParseActions]. Malformed input
// is reported as a *tune.ConfigError.
package hint
