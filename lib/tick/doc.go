// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

// Package tick abstracts the gateway's notion of time. The kill-switch
// window is measured in ticks — abstract clock units — rather than
// wall-clock durations, so its boundary behavior is exact and
// deterministically testable.
//
// Production code injects a Real source, which derives the current
// tick from elapsed wall-clock time at a configured tick interval.
// Tests inject a Fake source and advance it explicitly. Code that
// needs the current tick accepts a Source (or is a method on a struct
// with a Source field) instead of reading time directly.
package tick
