// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package tune models a node's tunable hardware configuration and
// applies changes to it.
//
// A [State] is an immutable snapshot with four optional fields: CPU
// clock, GPU clock, fan duty cycle, and a dwell time to hold after the
// state is applied. An absent field means "leave unchanged", which
// lets the same type describe both a full configuration (all three
// control fields present, see [State.Complete]) and a delta applied
// mid-run.
//
// A [Manager] owns the authoritative record of what the node is
// currently set to. [Manager.ApplyDelta] issues one hardware command
// per present field and records each field only when its command
// succeeded; a failed command is logged and the remaining fields are
// still attempted. [Manager.Reset] reapplies the recorded
// configuration and refuses, with an [IncompleteStateError], to issue
// a partial reset.
//
// A Manager is owned by the launcher's control goroutine and is not
// safe for concurrent use.
package tune
