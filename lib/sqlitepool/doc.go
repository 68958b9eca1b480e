// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool provides the gateway's SQLite connection pool.
//
// The notification journal persists through this package. It wraps
// zombiezen.com/go/sqlite with production defaults: WAL journal mode,
// NORMAL synchronous for process-crash durability without
// fsync-per-commit overhead, and a busy timeout to handle write
// contention gracefully.
//
// The pool is built on zombiezen's sqlitex.Pool, which manages a
// fixed-size set of connections. Callers [Pool.Take] a connection,
// perform work, and [Pool.Put] it back. Connections are NOT safe for
// concurrent use — each goroutine must hold its own connection for
// the duration of its work.
//
// This package is intentionally thin: it applies standard pragmas and
// exposes the underlying zombiezen types directly. Callers write SQL,
// use sqlitex.Execute for cached statements, and manage transactions
// themselves. The goal is a shared foundation (one dependency, one
// set of pragmas, one pool pattern) without an abstraction layer that
// fights SQLite's strengths.
package sqlitepool
