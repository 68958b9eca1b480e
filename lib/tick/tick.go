// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package tick

// Tick is one abstract clock unit. Ticks increase monotonically and
// never wrap in practice (a uint64 at one tick per nanosecond lasts
// centuries).
type Tick uint64

// Source yields the current tick. Implementations must be monotonic:
// successive Now calls never go backwards.
type Source interface {
	// Now returns the current tick.
	Now() Tick
}
