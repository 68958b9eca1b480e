// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

// Package token implements Ed25519-signed bearer tokens for
// authenticating callers to the gateway over its shared Unix socket.
//
// Connections arrive from multiple callers on the same listener with
// no inherent way to distinguish them. A token binds a caller identity
// to a signature from the gateway operator's signing key; the daemon
// verifies tokens cryptographically on every request and evaluates
// roles against the authenticated subject, never against anything the
// request body claims.
//
// # Wire format
//
// A token is raw bytes: CBOR-encoded payload followed by a 64-byte
// Ed25519 signature over the payload bytes.
//
//	[CBOR payload bytes] [64-byte Ed25519 signature]
//
// The split point is always len(token) - 64. No header, no length
// prefix, no base64 — the algorithm is fixed and the signature size
// is constant.
//
// # Lifecycle
//
//   - The operator mints tokens with the warden CLI, one per caller
//   - Callers present the token bytes on every request
//   - The daemon rejects expired tokens unconditionally
//   - The Audience field pins a token to one gateway instance
//
// This package depends on crypto/ed25519 for signing, lib/codec for
// CBOR encoding, and standard library packages only.
package token
