// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import "github.com/warden-foundation/warden/lib/tick"

// DisengageWindow is the exact length of a kill-switch window in
// ticks. Disengaging at tick T opens the window for ticks T through
// T+39 inclusive; at T+40 the switch is engaged again.
const DisengageWindow tick.Tick = 40

// killSwitch is the temporal gate. Default state is engaged: every
// gated operation is rejected until the super-admin explicitly
// disengages. A window is single-use — the first successful gated
// operation consumes it regardless of remaining ticks.
type killSwitch struct {
	// armed is true while a disengage window has been opened and not
	// yet consumed. The window may still have lapsed; isDisengaged
	// checks expiry as well.
	armed bool

	// expiry is the first tick at which the window is no longer
	// valid. Meaningful only while armed.
	expiry tick.Tick
}

// disengage opens (or re-opens) a window of exactly DisengageWindow
// ticks starting at now. Calling while a window is already open
// resets the expiry — the super-admin may extend a partially elapsed
// window.
func (k *killSwitch) disengage(now tick.Tick) {
	k.armed = true
	k.expiry = now + DisengageWindow
}

// isDisengaged reports whether a window is open at the given tick.
func (k *killSwitch) isDisengaged(now tick.Tick) bool {
	return k.armed && now < k.expiry
}

// consume resets the switch to engaged. Called only after a gated
// operation has succeeded, as part of the same atomic effect.
func (k *killSwitch) consume() {
	k.armed = false
	k.expiry = 0
}
