// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides binary entrypoint helpers for Warden
// binaries. These functions centralize the raw stderr I/O that exists
// before the structured logger is initialized: fatal error reporting
// and process exit after an unrecoverable error in main().
package process
