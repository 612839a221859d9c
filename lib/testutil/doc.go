// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for powerlaunch
// packages.
//
// [RequireReceive], [RequireClosed], and [RequireNoReceive] wrap the
// select-with-timeout pattern so that tests do not call time.After
// directly. These are the only places in the test suite where real
// wall-clock timeouts appear; everything else drives a clock.FakeClock.
//
// [WriteScript] writes an executable shell script into the test's
// temporary directory. Executor tests use it as a stand-in workload
// that prints hint and progress markers.
//
// All helpers call t.Fatalf on failure rather than returning errors.
package testutil
