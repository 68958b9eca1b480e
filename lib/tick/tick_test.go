// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package tick

import (
	"testing"
	"time"
)

func TestFakeAdvance(t *testing.T) {
	fake := NewFake(100)
	if got := fake.Now(); got != 100 {
		t.Fatalf("Now() = %d, want 100", got)
	}
	fake.Advance(39)
	if got := fake.Now(); got != 139 {
		t.Errorf("after Advance(39): Now() = %d, want 139", got)
	}
	fake.Advance(0)
	if got := fake.Now(); got != 139 {
		t.Errorf("after Advance(0): Now() = %d, want 139", got)
	}
}

func TestFakeSet(t *testing.T) {
	fake := NewFake(0)
	fake.Set(500)
	if got := fake.Now(); got != 500 {
		t.Errorf("Now() = %d, want 500", got)
	}

	defer func() {
		if r := recover(); r == nil {
			t.Error("Set backwards should panic")
		}
	}()
	fake.Set(499)
}

func TestRealMonotonic(t *testing.T) {
	source := NewReal(time.Millisecond)
	previous := source.Now()
	for i := 0; i < 100; i++ {
		current := source.Now()
		if current < previous {
			t.Fatalf("Now() went backwards: %d after %d", current, previous)
		}
		previous = current
	}
}

func TestRealStartsAtZero(t *testing.T) {
	// A generous interval keeps the first tick at zero even on a
	// heavily loaded test machine.
	source := NewReal(time.Hour)
	if got := source.Now(); got != 0 {
		t.Errorf("Now() = %d immediately after construction, want 0", got)
	}
}
