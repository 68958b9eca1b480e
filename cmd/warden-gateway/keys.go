// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"crypto/ed25519"
	"fmt"
	"log/slog"
	"os"

	"github.com/warden-foundation/warden/lib/sealed"
	"github.com/warden-foundation/warden/lib/secret"
	"github.com/warden-foundation/warden/lib/token"
)

// loadSigningPublicKey returns the public half of the token-signing
// keypair, which is all the daemon needs: it verifies caller tokens,
// it never mints them.
//
// With no sealed key configured, the plaintext keypair in stateDir is
// used, generated on first boot. With --sealed-signing-key, the
// Ed25519 private key lives age-encrypted on disk and is unsealed at
// startup with the operator's age identity; the plaintext spends its
// life in mlocked memory and is zeroed once the public key is
// derived.
func loadSigningPublicKey(logger *slog.Logger, stateDir, sealedPath, ageIdentityPath string) (ed25519.PublicKey, error) {
	if sealedPath == "" {
		public, _, generated, err := token.LoadOrGenerateKeypair(stateDir)
		if err != nil {
			return nil, fmt.Errorf("loading token-signing keypair: %w", err)
		}
		if generated {
			logger.Info("generated token-signing keypair", "state_dir", stateDir)
		}
		return public, nil
	}

	if ageIdentityPath == "" {
		return nil, fmt.Errorf("--sealed-signing-key requires --age-identity")
	}

	ciphertext, err := os.ReadFile(sealedPath)
	if err != nil {
		return nil, fmt.Errorf("reading sealed signing key: %w", err)
	}

	identity, err := secret.ReadFromPath(ageIdentityPath)
	if err != nil {
		return nil, fmt.Errorf("reading age identity: %w", err)
	}
	defer identity.Close()

	plaintext, err := sealed.Decrypt(string(bytes.TrimSpace(ciphertext)), identity)
	if err != nil {
		return nil, fmt.Errorf("unsealing signing key: %w", err)
	}
	defer plaintext.Close()

	if plaintext.Len() != ed25519.PrivateKeySize {
		return nil, fmt.Errorf("sealed signing key: got %d bytes, want %d", plaintext.Len(), ed25519.PrivateKeySize)
	}

	private := make([]byte, ed25519.PrivateKeySize)
	copy(private, plaintext.Bytes())
	defer secret.Zero(private)

	public := ed25519.PrivateKey(private).Public().(ed25519.PublicKey)
	return append(ed25519.PublicKey(nil), public...), nil
}
