// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package hint

import "fmt"

// SpawnError reports that the workload could not be started. It is
// fatal and never retried.
type SpawnError struct {
	Executable string
	Err        error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("starting %s: %v", e.Executable, e.Err)
}

func (e *SpawnError) Unwrap() error { return e.Err }

// StreamReadError reports an I/O failure reading the workload's
// output. Hint processing stops; the workload is not killed.
type StreamReadError struct {
	Err error
}

func (e *StreamReadError) Error() string {
	return fmt.Sprintf("reading workload output: %v", e.Err)
}

func (e *StreamReadError) Unwrap() error { return e.Err }

// ExitError reports that the workload exited with a non-zero status.
// ExitCode lets the launcher propagate the workload's status as its
// own.
type ExitError struct {
	Executable string
	Code       int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("%s exited with status %d", e.Executable, e.Code)
}

// ExitCode returns the workload's exit status.
func (e *ExitError) ExitCode() int { return e.Code }
