// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package process holds the entrypoint helpers for powerlaunch
// binaries: reporting a fatal error before or instead of the
// structured logger, and mapping errors that carry an exit code (a
// workload that exited non-zero) onto the launcher's own exit status.
package process
