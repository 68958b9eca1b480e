// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package sealed

import (
	"strings"
	"testing"

	"github.com/warden-foundation/warden/lib/secret"
)

func testKeypair(t *testing.T) *Keypair {
	t.Helper()
	keypair, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}
	t.Cleanup(func() { keypair.Close() })
	return keypair
}

func TestGenerateKeypair(t *testing.T) {
	keypair := testKeypair(t)

	if !strings.HasPrefix(keypair.PublicKey, "age1") {
		t.Errorf("public key %q does not have age1 prefix", keypair.PublicKey)
	}
	if !strings.HasPrefix(keypair.PrivateKey.String(), "AGE-SECRET-KEY-1") {
		t.Error("private key does not have AGE-SECRET-KEY-1 prefix")
	}

	other := testKeypair(t)
	if keypair.PublicKey == other.PublicKey {
		t.Error("two generated keypairs share a public key")
	}
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	keypair := testKeypair(t)
	plaintext := []byte("ed25519 signing key material")

	ciphertext, err := Encrypt(plaintext, []string{keypair.PublicKey})
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	decrypted, err := Decrypt(ciphertext, keypair.PrivateKey)
	if err != nil {
		t.Fatalf("Decrypt: %v", err)
	}
	defer decrypted.Close()

	if got := decrypted.String(); got != string(plaintext) {
		t.Errorf("Decrypt = %q, want %q", got, plaintext)
	}
}

func TestEncryptMultipleRecipients(t *testing.T) {
	operator := testKeypair(t)
	escrow := testKeypair(t)

	ciphertext, err := Encrypt([]byte("shared"), []string{operator.PublicKey, escrow.PublicKey})
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	for name, keypair := range map[string]*Keypair{"operator": operator, "escrow": escrow} {
		decrypted, err := Decrypt(ciphertext, keypair.PrivateKey)
		if err != nil {
			t.Fatalf("Decrypt with %s key: %v", name, err)
		}
		if got := decrypted.String(); got != "shared" {
			t.Errorf("Decrypt with %s key = %q, want shared", name, got)
		}
		decrypted.Close()
	}
}

func TestDecryptWrongKey(t *testing.T) {
	keypair := testKeypair(t)
	stranger := testKeypair(t)

	ciphertext, err := Encrypt([]byte("secret"), []string{keypair.PublicKey})
	if err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	if _, err := Decrypt(ciphertext, stranger.PrivateKey); err == nil {
		t.Fatal("Decrypt with the wrong key succeeded")
	}
}

func TestEncryptNoRecipients(t *testing.T) {
	if _, err := Encrypt([]byte("secret"), nil); err == nil {
		t.Fatal("Encrypt with no recipients succeeded")
	}
}

func TestEncryptInvalidRecipient(t *testing.T) {
	if _, err := Encrypt([]byte("secret"), []string{"not-a-key"}); err == nil {
		t.Fatal("Encrypt with an invalid recipient succeeded")
	}
}

func TestDecryptInvalidInputs(t *testing.T) {
	keypair := testKeypair(t)

	if _, err := Decrypt("!!not base64!!", keypair.PrivateKey); err == nil {
		t.Error("Decrypt of invalid base64 succeeded")
	}

	// Valid base64, garbage ciphertext.
	if _, err := Decrypt("Z2FyYmFnZQ==", keypair.PrivateKey); err == nil {
		t.Error("Decrypt of corrupted ciphertext succeeded")
	}

	notAKey, err := secret.NewFromBytes([]byte("not an age key"))
	if err != nil {
		t.Fatalf("NewFromBytes: %v", err)
	}
	defer notAKey.Close()
	if _, err := Decrypt("Z2FyYmFnZQ==", notAKey); err == nil {
		t.Error("Decrypt with an invalid private key succeeded")
	}
}

func TestParseKeys(t *testing.T) {
	keypair := testKeypair(t)

	if err := ParsePublicKey(keypair.PublicKey); err != nil {
		t.Errorf("ParsePublicKey(valid): %v", err)
	}
	if err := ParsePublicKey("not-a-valid-key"); err == nil {
		t.Error("ParsePublicKey(invalid) should return an error")
	}

	if err := ParsePrivateKey(keypair.PrivateKey); err != nil {
		t.Errorf("ParsePrivateKey(valid): %v", err)
	}
	notAKey, err := secret.NewFromBytes([]byte("junk"))
	if err != nil {
		t.Fatalf("NewFromBytes: %v", err)
	}
	defer notAKey.Close()
	if err := ParsePrivateKey(notAKey); err == nil {
		t.Error("ParsePrivateKey(invalid) should return an error")
	}
}
