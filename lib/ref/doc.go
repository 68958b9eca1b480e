// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

// Package ref defines Identity, the opaque actor reference used for
// every authorization decision in Warden: the super-admin, the admin,
// the delegate target, deposit senders, and withdrawal recipients are
// all identities.
//
// An Identity is either null (the distinguished "unset" sentinel) or a
// validated reference string such as "operator/alice" or
// "service/billing". The zero value is the null sentinel, so struct
// fields holding identities start out unset without any initialization
// ceremony.
//
// Identities are constructed through New (or parsed from the wire via
// UnmarshalText) and are immutable afterwards. The backing string is
// unexported so a non-null Identity can only exist if it passed
// validation.
package ref
