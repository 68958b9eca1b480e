// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

// Warden-gateway is the administrative gateway daemon. It fronts an
// owned subsystem (the delegate) with a two-tier role store, a
// tick-bounded kill switch, custody of deposited value, and a generic
// relay for operations it has no static knowledge of.
//
// The daemon serves a CBOR request-response protocol on a Unix
// socket. Named operations carry their parameters in the request's
// "payload" field and are dispatched to typed handlers; anything else
// is forwarded verbatim to the delegate, subject to the caller's role
// and the optional relay policy. Callers authenticate with Ed25519
// tokens minted by the warden CLI from the daemon's signing key.
//
// Every state transition emits a notification into a hash-chained
// journal, optionally persisted to SQLite.
package main
