// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package powerlog samples node power while a workload runs.
//
// A [Daemon] runs on its own goroutine for the lifetime of the
// workload. Each iteration reads power from the cluster driver,
// publishes it to the shared [gauge.Gauges], and, once the workload
// has reported progress, appends a "<progress>% <power>" line to the
// power log and drops to the active sampling interval (zero by
// default, which samples as fast as the driver answers).
//
// Alerts are level-triggered: every sample above the threshold raises
// one [Alert], so a sustained overload produces one alert per
// iteration. Alerts are delivered through a [Notifier], whose Notify
// must never block the sampling loop. [ChannelNotifier] drops alerts
// when its buffer is full and counts the drops; [SignalNotifier] sends
// SIGUSR1 to a process, the classic way to wake a supervisor.
//
// The daemon stops when its context is cancelled. Cancellation is
// observed before each read and during the wait between samples, so
// shutdown takes at most one in-flight hardware read.
//
// Optionally every sample is also written to a [TraceWriter]: a
// zstd-compressed stream of CBOR records headed by a [TraceHeader]
// that carries the workload's BLAKE3 fingerprint.
package powerlog
