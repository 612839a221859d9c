// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package process

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
)

type codedError struct{ code int }

func (e *codedError) Error() string { return fmt.Sprintf("exit %d", e.code) }
func (e *codedError) ExitCode() int { return e.code }

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"plain error", errors.New("boom"), 1},
		{"coded error", &codedError{code: 3}, 3},
		{"wrapped coded error", fmt.Errorf("running workload: %w", &codedError{code: 42}), 42},
		{"non-positive code", &codedError{code: -1}, 1},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := ExitCode(test.err); got != test.want {
				t.Errorf("ExitCode(%v) = %d, want %d", test.err, got, test.want)
			}
		})
	}
}

func TestReport(t *testing.T) {
	var buffer bytes.Buffer
	Report(&buffer, errors.New("no such file"))
	if got := buffer.String(); got != "error: no such file\n" {
		t.Errorf("Report wrote %q", got)
	}
}
