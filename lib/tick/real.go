// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package tick

import "time"

// Real derives ticks from elapsed wall-clock time: tick N covers the
// half-open interval [epoch + N*interval, epoch + (N+1)*interval).
// The epoch is fixed at construction, so a Real source is monotonic
// as long as the process's monotonic clock is (time.Since uses the
// monotonic reading).
type Real struct {
	epoch    time.Time
	interval time.Duration
}

// NewReal creates a tick source that starts at tick zero and advances
// every interval. Panics if interval is not positive.
func NewReal(interval time.Duration) *Real {
	if interval <= 0 {
		panic("tick: non-positive interval for NewReal")
	}
	return &Real{
		epoch:    time.Now(),
		interval: interval,
	}
}

// Now returns the number of whole intervals elapsed since the epoch.
func (r *Real) Now() Tick {
	return Tick(time.Since(r.epoch) / r.interval)
}
