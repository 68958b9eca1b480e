// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

// Package gateway implements the administrative gateway core: the
// role store, the kill switch, the delegate link, custody, and the
// operation router.
//
// A Gateway fronts one owned subsystem (the delegate) and mediates
// every operation on it. Sensitive operations are named, require the
// super-admin role, and — for the ones that can irreversibly reassign
// control — a freshly opened kill-switch window. Everything else
// reaches the delegate through the generic relay: the raw request is
// forwarded verbatim under baseline admin authorization, so the
// delegate's capability set can grow without redeploying the gateway.
//
// Operations are serialized: a single exclusive lock is held for the
// full duration of each operation, including any forwarded delegate
// call. Every operation is atomic — authorization, validation, gate,
// or forwarded failure leaves all gateway state exactly as it was,
// and in particular never consumes an open kill-switch window.
package gateway
