// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides YAML configuration loading for Warden
// components.
//
// Configuration is loaded from a single file named by either the
// WARDEN_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks, no ~/.config discovery,
// and no automatic file search. This keeps configuration
// deterministic and auditable with no hidden overrides.
//
// Variable expansion is performed on path fields after loading:
// ${HOME}, ${WARDEN_STATE}, and ${VAR:-default} patterns are
// expanded. No other environment variables override config values.
//
// The package also parses the relay admission policy ([RelayPolicy]),
// a JSONC file listing glob patterns for operations the gateway will
// forward to its delegate.
//
// Key exports:
//
//   - [Config] -- master struct with Gateway, Roles, Delegate, Journal
//   - [Default] -- returns a Config with development defaults
//   - [Load] and [LoadFile] -- the two entry points for loading
//   - [ReadRelayPolicy] -- load and parse the relay admission policy
package config
