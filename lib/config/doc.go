// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the launcher's YAML configuration.
//
// The file is named either by the --config flag (via [LoadFile]) or
// the POWERLAUNCH_CONFIG environment variable (via [Load]); [Resolve]
// applies that precedence. There is no search path and no ~/.config
// discovery. When neither is set the launcher runs on [Default], which
// auto-discovers the local node's devices.
//
// The file has five sections:
//
//   - cluster: which driver to use and which devices it manages
//   - prepare: heat purge duration and stability test parameters
//   - power_log: power daemon sampling, alert threshold, log and trace
//     files
//   - metrics: the node_exporter textfile to write at the end of a run
//   - paths: run record directory and debug log file
//
// Durations are written as Go duration strings ("10s", "250ms").
// After loading, ${VAR} and ${VAR:-default} patterns in path fields
// are expanded from the environment; ${POWERLAUNCH_STATE} refers to
// paths.state. No other environment variables override config values.
//
// Unknown keys are rejected so a misspelled setting fails loudly
// instead of silently keeping its default.
package config
