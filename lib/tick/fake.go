// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package tick

import "sync"

// Fake is a deterministic Source for testing. The tick stands still
// until Advance or Set is called.
//
// Fake is safe for concurrent use by multiple goroutines.
type Fake struct {
	mu      sync.Mutex
	current Tick
}

// NewFake returns a Fake source positioned at the given tick.
func NewFake(initial Tick) *Fake {
	return &Fake{current: initial}
}

// Now returns the current fake tick.
func (f *Fake) Now() Tick {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

// Advance moves the source forward by n ticks.
func (f *Fake) Advance(n uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.current += Tick(n)
}

// Set positions the source at an absolute tick. Panics if t is before
// the current tick — a Source must never go backwards.
func (f *Fake) Set(t Tick) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t < f.current {
		panic("tick: Fake.Set would move the source backwards")
	}
	f.current = t
}
