// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Powerlaunch is a power-aware launcher for long-running HPC
// workloads.
//
// It brings the node to a stable power baseline, starts the workload,
// and retunes CPU clock, GPU clock, and fan speed when the workload
// prints the hint markers listed in its application file. A
// background daemon samples node power for the whole run and raises
// an alert for every sample above the configured threshold.
//
// Subcommands:
//
//	run      prepare the node, launch a workload, tune it on its hints
//	prepare  purge heat and wait for stable power only
//	reset    return CPU, GPU, and fan to their defaults
//	check    validate and print the config and an application file
//	status   report the run record, optionally with one power reading
//	trace    print a power trace recorded by run
//	version  print version information
package main
