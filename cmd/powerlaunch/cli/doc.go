// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the small command framework behind the powerlaunch
// binary: a tree of [Command] values with pflag flag sets, help
// output, typo suggestions for unknown commands and flags, and the
// launcher's log handler setup.
package cli
