// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

// Package sealed provides age encryption and decryption for the
// gateway's token-signing key at rest. It wraps filippo.io/age for
// the specific operations the gateway needs: generate x25519
// keypairs, encrypt to multiple recipients, and decrypt with a
// private key.
//
// Ciphertext is base64-encoded for storage in plain files. Callers
// pass plaintext []byte to [Encrypt] and receive a base64 string;
// [Decrypt] accepts a base64 string and returns plaintext. Private
// keys and decrypted plaintext are returned as [secret.Buffer] values
// backed by mmap memory outside the Go heap (locked against swap,
// excluded from core dumps, zeroed on Close).
//
// Used by the warden CLI (seal the Ed25519 signing key to the
// operator's age key) and the daemon (unseal it at startup).
//
// Depends on lib/secret for secure memory allocation.
package sealed
