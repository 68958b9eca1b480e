// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import "fmt"

// maxIdentityLength bounds reference strings. Generous for
// hierarchical names while keeping journal rows and wire payloads
// small.
const maxIdentityLength = 255

// Identity is an opaque reference to an actor. The zero value is the
// null sentinel, meaning "unset". Non-null identities are validated at
// construction and immutable afterwards.
type Identity struct {
	value string
}

// Null is the distinguished unset identity. Renouncing a role stores
// Null; operations that require a real identity reject it.
var Null = Identity{}

// New constructs a validated Identity from a reference string. The
// empty string is rejected — use Null for the unset sentinel.
func New(value string) (Identity, error) {
	if value == "" {
		return Identity{}, fmt.Errorf("invalid identity: empty string (use the null sentinel for unset)")
	}
	if err := validateReference(value); err != nil {
		return Identity{}, fmt.Errorf("invalid identity %q: %w", value, err)
	}
	return Identity{value: value}, nil
}

// MustNew constructs an Identity and panics on validation failure.
// For tests and compile-time-constant references only.
func MustNew(value string) Identity {
	identity, err := New(value)
	if err != nil {
		panic(err)
	}
	return identity
}

// IsNull reports whether this is the null sentinel.
func (id Identity) IsNull() bool { return id.value == "" }

// String returns the reference string, or "" for the null sentinel.
func (id Identity) String() string { return id.value }

// MarshalText serializes the identity for CBOR/JSON wire formats. The
// null sentinel serializes as the empty string.
func (id Identity) MarshalText() ([]byte, error) {
	return []byte(id.value), nil
}

// UnmarshalText parses an identity from the wire. The empty string
// deserializes to the null sentinel — operations that forbid null
// must check IsNull themselves, because null is a legitimate wire
// value for renunciations and for setDelegate.
func (id *Identity) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		*id = Null
		return nil
	}
	parsed, err := New(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// validateReference enforces the reference grammar: lowercase
// alphanumerics plus "-", "_", ".", with "/" separating non-empty
// hierarchical segments.
func validateReference(value string) error {
	if len(value) > maxIdentityLength {
		return fmt.Errorf("length %d exceeds maximum %d", len(value), maxIdentityLength)
	}
	segmentLength := 0
	for i := 0; i < len(value); i++ {
		c := value[i]
		switch {
		case c == '/':
			if segmentLength == 0 {
				return fmt.Errorf("empty segment at position %d", i)
			}
			segmentLength = 0
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_', c == '.':
			segmentLength++
		default:
			return fmt.Errorf("invalid character %q at position %d", c, i)
		}
	}
	if segmentLength == 0 {
		return fmt.Errorf("trailing separator")
	}
	return nil
}
