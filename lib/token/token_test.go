// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package token

import (
	"crypto/ed25519"
	"errors"
	"testing"
	"time"

	"github.com/warden-foundation/warden/lib/ref"
)

func testKeypair(t *testing.T) (ed25519.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	public, private, err := GenerateKeypair()
	if err != nil {
		t.Fatalf("GenerateKeypair: %v", err)
	}
	return public, private
}

func testToken(now time.Time) *Token {
	return &Token{
		Subject:   ref.MustNew("operator/alice"),
		Audience:  "warden/main",
		ID:        "a1b2c3d4e5f6",
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(5 * time.Minute).Unix(),
	}
}

func TestMintAndVerify(t *testing.T) {
	public, private := testKeypair(t)
	now := time.Now()

	tokenBytes, err := Mint(private, testToken(now))
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}
	if len(tokenBytes) <= signatureSize {
		t.Fatalf("token too short: %d bytes", len(tokenBytes))
	}

	verified, err := Verify(public, tokenBytes)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got, want := verified.Subject, ref.MustNew("operator/alice"); got != want {
		t.Errorf("Subject = %q, want %q", got, want)
	}
	if verified.Audience != "warden/main" {
		t.Errorf("Audience = %q, want warden/main", verified.Audience)
	}
	if verified.ID != "a1b2c3d4e5f6" {
		t.Errorf("ID = %q, want a1b2c3d4e5f6", verified.ID)
	}
}

func TestVerifyTamperedPayload(t *testing.T) {
	public, private := testKeypair(t)

	tokenBytes, err := Mint(private, testToken(time.Now()))
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	// Flip a bit in the payload; only the signature stays intact.
	tokenBytes[3] ^= 0x01

	if _, err := Verify(public, tokenBytes); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("Verify of tampered token: error = %v, want ErrInvalidSignature", err)
	}
}

func TestVerifyWrongKey(t *testing.T) {
	_, private := testKeypair(t)
	otherPublic, _ := testKeypair(t)

	tokenBytes, err := Mint(private, testToken(time.Now()))
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	if _, err := Verify(otherPublic, tokenBytes); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("Verify with wrong key: error = %v, want ErrInvalidSignature", err)
	}
}

func TestVerifyExpired(t *testing.T) {
	public, private := testKeypair(t)
	now := time.Now()

	tokenBytes, err := Mint(private, testToken(now))
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	later := now.Add(10 * time.Minute)
	if _, err := VerifyAt(public, tokenBytes, later); !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("VerifyAt past expiry: error = %v, want ErrTokenExpired", err)
	}
}

func TestVerifyTooShort(t *testing.T) {
	public, _ := testKeypair(t)
	if _, err := Verify(public, make([]byte, signatureSize)); !errors.Is(err, ErrTokenTooShort) {
		t.Fatalf("Verify of 64 bytes: error = %v, want ErrTokenTooShort", err)
	}
}

func TestVerifyForGateway(t *testing.T) {
	public, private := testKeypair(t)

	tokenBytes, err := Mint(private, testToken(time.Now()))
	if err != nil {
		t.Fatalf("Mint: %v", err)
	}

	if _, err := VerifyForGateway(public, tokenBytes, "warden/main"); err != nil {
		t.Fatalf("VerifyForGateway: %v", err)
	}
	_, err = VerifyForGateway(public, tokenBytes, "warden/staging")
	if !errors.Is(err, ErrAudienceMismatch) {
		t.Fatalf("VerifyForGateway with wrong audience: error = %v, want ErrAudienceMismatch", err)
	}
}

func TestKeypairRoundTrip(t *testing.T) {
	dir := t.TempDir()

	public, private, generated, err := LoadOrGenerateKeypair(dir)
	if err != nil {
		t.Fatalf("LoadOrGenerateKeypair: %v", err)
	}
	if !generated {
		t.Fatal("first call did not generate a keypair")
	}

	public2, private2, generated, err := LoadOrGenerateKeypair(dir)
	if err != nil {
		t.Fatalf("second LoadOrGenerateKeypair: %v", err)
	}
	if generated {
		t.Fatal("second call regenerated the keypair")
	}
	if !public.Equal(public2) || !private.Equal(private2) {
		t.Fatal("loaded keypair differs from the generated one")
	}
}
