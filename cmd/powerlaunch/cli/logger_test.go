// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLoggerNonTerminalIsJSON(t *testing.T) {
	var buffer bytes.Buffer
	logger, closeLog, err := NewLogger(LoggerOptions{Stderr: &buffer})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	defer closeLog()

	logger.Info("hint matched", "index", 2)
	logger.Debug("workload line", "line", "hidden")

	lines := strings.Split(strings.TrimSpace(buffer.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d log lines, want 1 (debug suppressed):\n%s", len(lines), buffer.String())
	}
	var record map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &record); err != nil {
		t.Fatalf("log line is not JSON: %v\n%s", err, lines[0])
	}
	if record["msg"] != "hint matched" || record["index"] != float64(2) {
		t.Errorf("record = %v", record)
	}
}

func TestNewLoggerDebug(t *testing.T) {
	var buffer bytes.Buffer
	logger, closeLog, err := NewLogger(LoggerOptions{Debug: true, Stderr: &buffer})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}
	defer closeLog()

	logger.Debug("workload line", "line", "Prog= 10.00%")
	if !strings.Contains(buffer.String(), "Prog= 10.00%") {
		t.Errorf("debug record missing: %q", buffer.String())
	}
}

func TestNewLoggerFile(t *testing.T) {
	var buffer bytes.Buffer
	path := filepath.Join(t.TempDir(), "debug.log")
	logger, closeLog, err := NewLogger(LoggerOptions{File: path, Stderr: &buffer})
	if err != nil {
		t.Fatalf("NewLogger: %v", err)
	}

	logger.With("application", "hpl.jsonc").Warn("power over threshold", "power", 1500)
	if err := closeLog(); err != nil {
		t.Fatalf("closing log: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	for _, output := range []string{string(data), buffer.String()} {
		if !strings.Contains(output, `"application":"hpl.jsonc"`) || !strings.Contains(output, `"power":1500`) {
			t.Errorf("log output missing attributes: %q", output)
		}
	}
}

func TestNewLoggerFileUnwritable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "debug.log")
	if _, _, err := NewLogger(LoggerOptions{File: path, Stderr: &bytes.Buffer{}}); err == nil {
		t.Fatal("NewLogger succeeded with an unwritable log file")
	}
}
