// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tidwall/jsonc"

	"github.com/warden-foundation/warden/lib/opmatch"
)

// RelayPolicy lists the operation patterns the relay path admits.
// Patterns use the glob syntax of lib/opmatch. An empty Allow list
// denies every unrecognized operation.
//
// Policy files are authored as JSONC: JSON extended with // line
// comments, /* block comments */, and trailing commas.
type RelayPolicy struct {
	// Allow is the list of admitted operation patterns.
	Allow []string `json:"allow"`
}

// ParseRelayPolicy strips JSONC comments and trailing commas from
// data, then unmarshals the result into a RelayPolicy.
func ParseRelayPolicy(data []byte) (*RelayPolicy, error) {
	stripped := jsonc.ToJSON(data)

	var policy RelayPolicy
	if err := json.Unmarshal(stripped, &policy); err != nil {
		return nil, fmt.Errorf("parsing relay policy: %w", err)
	}
	return &policy, nil
}

// ReadRelayPolicy reads a JSONC relay policy file from disk.
func ReadRelayPolicy(path string) (*RelayPolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	policy, err := ParseRelayPolicy(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return policy, nil
}

// Admits reports whether the policy allows the given operation
// identifier. A nil policy admits everything - no policy file
// configured means the relay is open.
func (p *RelayPolicy) Admits(op string) bool {
	if p == nil {
		return true
	}
	return opmatch.MatchAny(p.Allow, op)
}
