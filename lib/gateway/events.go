// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"github.com/warden-foundation/warden/lib/ref"
	"github.com/warden-foundation/warden/lib/tick"
)

// NotificationKind identifies an observable gateway event.
type NotificationKind string

const (
	// NoteKillSwitchDisengaged records that a kill-switch window was
	// opened. Carries no identity.
	NoteKillSwitchDisengaged NotificationKind = "kill-switch-disengaged"

	// NoteBalanceWithdrawn records a full-balance withdrawal forwarded
	// to the delegate. Identity is the recipient.
	NoteBalanceWithdrawn NotificationKind = "balance-withdrawn"

	// NoteDelegateSet records a delegate link change. Identity is the
	// new delegate reference, possibly null.
	NoteDelegateSet NotificationKind = "delegate-set"

	// NoteSuperAdminSet records a super-admin replacement. Identity is
	// the new super-admin.
	NoteSuperAdminSet NotificationKind = "super-admin-set"

	// NoteAdminSet records an admin replacement. Identity is the new
	// admin.
	NoteAdminSet NotificationKind = "admin-set"

	// NoteValueReceived records an unconditional deposit into custody.
	// From and Amount identify the transfer.
	NoteValueReceived NotificationKind = "value-received"
)

// Notification is one observable gateway event. Notifications are
// append-only: the gateway emits them through its Recorder as part of
// the operation's atomic effect, after all preconditions have passed.
type Notification struct {
	// Kind identifies the event.
	Kind NotificationKind `cbor:"kind"`

	// At is the tick at which the operation executed.
	At tick.Tick `cbor:"at"`

	// Identity carries the kind-specific subject: the new role holder
	// for role changes, the new delegate for delegate changes, the
	// recipient for withdrawals. Unused (null) for
	// kill-switch-disengaged.
	Identity ref.Identity `cbor:"identity,omitempty"`

	// From is the sender of a value-received deposit.
	From ref.Identity `cbor:"from,omitempty"`

	// Amount is the value of a value-received deposit.
	Amount uint64 `cbor:"amount,omitempty"`
}

// Recorder receives notifications. Implementations must not fail:
// recording happens after the operation's preconditions have passed,
// and the gateway does not roll back on recorder misbehavior.
type Recorder interface {
	Record(note Notification)
}

// nopRecorder discards notifications. Used when the gateway is
// constructed without a journal sink.
type nopRecorder struct{}

func (nopRecorder) Record(Notification) {}
