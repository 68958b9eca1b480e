// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package token

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/warden-foundation/warden/lib/codec"
	"github.com/warden-foundation/warden/lib/ref"
)

// signatureSize is the fixed size of an Ed25519 signature.
const signatureSize = ed25519.SignatureSize // 64 bytes

// Token is the CBOR-encoded payload of a caller token. The subject
// identity it carries is what the gateway evaluates roles against; a
// valid signature proves the bearer was issued that identity by the
// holder of the signing key.
type Token struct {
	// Subject is the caller identity the gateway authorizes
	// against. Never empty in a minted token.
	Subject ref.Identity `cbor:"1,keyasint"`

	// Audience is the gateway instance this token is scoped to. A
	// token minted for one gateway cannot be replayed against
	// another.
	Audience string `cbor:"2,keyasint"`

	// ID is a unique token identifier (hex string), for audit
	// correlation in the journal.
	ID string `cbor:"3,keyasint"`

	// IssuedAt is a Unix timestamp (seconds) of when the token was
	// minted.
	IssuedAt int64 `cbor:"4,keyasint"`

	// ExpiresAt is a Unix timestamp (seconds) after which the token
	// is no longer valid.
	ExpiresAt int64 `cbor:"5,keyasint"`
}

// Errors returned by Verify and related functions.
var (
	ErrTokenTooShort    = errors.New("token: too short for signature")
	ErrInvalidSignature = errors.New("token: invalid Ed25519 signature")
	ErrTokenExpired     = errors.New("token: expired")
	ErrAudienceMismatch = errors.New("token: audience does not match")
)

// Mint signs a Token and returns the raw wire-format bytes:
// CBOR-encoded payload followed by the 64-byte Ed25519 signature.
func Mint(privateKey ed25519.PrivateKey, tok *Token) ([]byte, error) {
	payload, err := codec.Marshal(tok)
	if err != nil {
		return nil, fmt.Errorf("token: encoding payload: %w", err)
	}

	signature := ed25519.Sign(privateKey, payload)

	result := make([]byte, len(payload)+signatureSize)
	copy(result, payload)
	copy(result[len(payload):], signature)

	return result, nil
}

// Verify splits the raw token bytes, verifies the Ed25519 signature,
// CBOR-decodes the payload, and checks expiry. Returns the decoded
// Token on success.
func Verify(publicKey ed25519.PublicKey, tokenBytes []byte) (*Token, error) {
	return VerifyAt(publicKey, tokenBytes, time.Now())
}

// VerifyAt is like Verify but accepts an explicit time for expiry
// checks. This supports deterministic testing.
func VerifyAt(publicKey ed25519.PublicKey, tokenBytes []byte, now time.Time) (*Token, error) {
	if len(tokenBytes) <= signatureSize {
		return nil, ErrTokenTooShort
	}

	splitPoint := len(tokenBytes) - signatureSize
	payload := tokenBytes[:splitPoint]
	signature := tokenBytes[splitPoint:]

	if !ed25519.Verify(publicKey, payload, signature) {
		return nil, ErrInvalidSignature
	}

	var tok Token
	if err := codec.Unmarshal(payload, &tok); err != nil {
		return nil, fmt.Errorf("token: decoding payload: %w", err)
	}

	if now.Unix() >= tok.ExpiresAt {
		return nil, ErrTokenExpired
	}

	return &tok, nil
}

// VerifyForGateway combines Verify with an audience check. This is
// the standard verification path for the daemon: verify signature,
// check expiry, and confirm the token is scoped to this gateway.
func VerifyForGateway(publicKey ed25519.PublicKey, tokenBytes []byte, expectedAudience string) (*Token, error) {
	return VerifyForGatewayAt(publicKey, tokenBytes, expectedAudience, time.Now())
}

// VerifyForGatewayAt is like VerifyForGateway but accepts an explicit time.
func VerifyForGatewayAt(publicKey ed25519.PublicKey, tokenBytes []byte, expectedAudience string, now time.Time) (*Token, error) {
	tok, err := VerifyAt(publicKey, tokenBytes, now)
	if err != nil {
		return nil, err
	}

	if tok.Audience != expectedAudience {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrAudienceMismatch, tok.Audience, expectedAudience)
	}

	return tok, nil
}
