// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package runstate records that a launcher has changed a node's
// hardware settings, so an interrupted run can be detected and the
// node put back to its defaults.
//
// The launcher writes a [Record] when it starts tuning hardware,
// rewrites it as the run moves between phases, and calls [Clear] after
// the end-of-run reset. If the launcher is killed in between, the
// record stays behind. [Check] tells a live run apart from an
// abandoned one by probing the recorded PID; `powerlaunch run` resets
// the hardware of an abandoned run before starting a new one, and
// `powerlaunch status` reports the record.
//
// Records are JSON, written atomically: temporary file, fsync, rename,
// fsync of the parent directory. Readers never see a partial record.
package runstate

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"
)

// Phase is the stage a run had reached when its record was written.
type Phase string

const (
	PhasePreparing Phase = "preparing"
	PhaseRunning   Phase = "running"
	PhaseResetting Phase = "resetting"
)

// Record describes a run that holds the node's hardware.
type Record struct {
	PID         int       `json:"pid"`
	Phase       Phase     `json:"phase"`
	Application string    `json:"application,omitempty"`
	Executable  string    `json:"executable,omitempty"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	State       string    `json:"state,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Status classifies a record found by Check.
type Status int

const (
	// Absent means no record exists: the node is at its defaults.
	Absent Status = iota
	// Active means the recorded process is still alive.
	Active
	// Abandoned means the recorded process is gone without having
	// cleared its record.
	Abandoned
)

func (s Status) String() string {
	switch s {
	case Absent:
		return "absent"
	case Active:
		return "active"
	case Abandoned:
		return "abandoned"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// Write atomically replaces the record at path, creating the parent
// directory if needed. The file is mode 0644 so unprivileged users
// can run `powerlaunch status`.
func Write(path string, record Record) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling run record: %w", err)
	}
	data = append(data, '\n')

	directory := filepath.Dir(path)
	if err := os.MkdirAll(directory, 0o755); err != nil {
		return fmt.Errorf("creating run record directory: %w", err)
	}

	temporaryPath := path + ".tmp"
	file, err := os.OpenFile(temporaryPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("creating temporary run record: %w", err)
	}
	if _, err := file.Write(data); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("writing temporary run record: %w", err)
	}
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(temporaryPath)
		return fmt.Errorf("syncing temporary run record: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("closing temporary run record: %w", err)
	}
	if err := os.Rename(temporaryPath, path); err != nil {
		os.Remove(temporaryPath)
		return fmt.Errorf("renaming run record into place: %w", err)
	}

	if parent, err := os.Open(directory); err == nil {
		parent.Sync()
		parent.Close()
	}
	return nil
}

// Read parses the record at path. A missing file yields an error
// wrapping os.ErrNotExist.
func Read(path string) (Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Record{}, err
	}
	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return Record{}, fmt.Errorf("parsing run record %s: %w", path, err)
	}
	return record, nil
}

// Check reads the record at path and classifies it. A missing file is
// Absent with a nil error; unreadable or corrupt files return the
// error so the caller can tell "no record" from "broken record".
func Check(path string) (Record, Status, error) {
	record, err := Read(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Record{}, Absent, nil
		}
		return Record{}, Absent, err
	}
	if processAlive(record.PID) {
		return record, Active, nil
	}
	return record, Abandoned, nil
}

// processAlive probes pid with signal 0. EPERM means the process
// exists under another user.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := unix.Kill(pid, 0)
	return err == nil || errors.Is(err, unix.EPERM)
}

// Clear removes the record at path. It is idempotent.
func Clear(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing run record: %w", err)
	}
	return nil
}
