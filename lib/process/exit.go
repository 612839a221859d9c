// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// exitCoder is implemented by errors that dictate the process exit
// status, such as hint.ExitError for a workload that failed.
type exitCoder interface {
	ExitCode() int
}

// ExitCode returns the exit status main should use for err: 0 for
// nil, the carried code when err (or anything it wraps) implements
// ExitCode() int with a positive value, and 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var coder exitCoder
	if errors.As(err, &coder) && coder.ExitCode() > 0 {
		return coder.ExitCode()
	}
	return 1
}

// Report writes "error: err" to w.
func Report(w io.Writer, err error) {
	fmt.Fprintf(w, "error: %v\n", err)
}

// Fatal writes "error: err" to stderr and exits with ExitCode(err).
// Use it in main() for errors from run(), where the structured logger
// may not be initialized.
func Fatal(err error) {
	Report(os.Stderr, err)
	os.Exit(ExitCode(err))
}
