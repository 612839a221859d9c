// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package tune

import (
	"fmt"
	"strings"

	"github.com/bureau-foundation/powerlaunch/lib/cluster"
)

// ConfigError reports a malformed state or action definition. It is
// fatal: the run is aborted before anything is launched.
type ConfigError struct {
	// Reason describes what is wrong, including the offending key or
	// index where known.
	Reason string
	// Err is the underlying decode error, if any.
	Err error
}

func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid configuration: %s: %v", e.Reason, e.Err)
	}
	return "invalid configuration: " + e.Reason
}

func (e *ConfigError) Unwrap() error { return e.Err }

// IncompleteStateError is returned by Manager.Reset when the recorded
// configuration lacks one of the control fields. No command is issued.
type IncompleteStateError struct {
	Missing []string
}

func (e *IncompleteStateError) Error() string {
	return "cannot reset an incomplete configuration: missing " + strings.Join(e.Missing, ", ")
}

// HardwareCommandError reports one failed hardware command. The
// surrounding delta continues with its remaining fields.
type HardwareCommandError struct {
	Command cluster.Command
	Err     error
}

func (e *HardwareCommandError) Error() string {
	return fmt.Sprintf("hardware command %s: %v", e.Command, e.Err)
}

func (e *HardwareCommandError) Unwrap() error { return e.Err }
