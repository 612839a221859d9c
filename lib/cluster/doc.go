// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cluster defines the hardware driver boundary for powerlaunch.
//
// A [Driver] applies structured [Command] values (set the CPU or GPU
// clock, set the fan duty cycle, or return a component to its driver
// default) and reads instantaneous power for a node. Everything above
// this package (tune.Manager, prepare.Preparer, powerlog.Daemon) talks
// to hardware only through a Driver.
//
// Implementations must be safe for concurrent use: the control
// goroutine issues commands through tune.Manager while the power
// daemon reads power on its own goroutine.
//
// Subpackages:
//
//   - cluster/sysfs: a local-node driver over Linux cpufreq, amdgpu
//     overdrive, and hwmon files, with an AMDGPU_INFO_SENSOR ioctl
//     fallback for power.
//   - cluster/clustertest: a scripted in-memory driver for tests.
package cluster
