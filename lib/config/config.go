// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for the warden
// gateway and CLI.
//
// Configuration is loaded from a single YAML file specified by:
//   - WARDEN_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery. This ensures
// deterministic, auditable configuration with no hidden overrides.
// The only expansion performed is ${HOME} and similar path variables
// for portability.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Config is the master configuration for the warden gateway.
type Config struct {
	// Gateway configures the daemon's socket and identity.
	Gateway GatewayConfig `yaml:"gateway"`

	// Roles sets the initial role holders. The super-admin is
	// required; the admin tier may start vacant.
	Roles RolesConfig `yaml:"roles"`

	// Delegate configures the link to the owned subsystem.
	Delegate DelegateConfig `yaml:"delegate"`

	// Journal configures notification persistence.
	Journal JournalConfig `yaml:"journal"`

	// Relay configures forwarding of unrecognized operations.
	Relay RelayConfig `yaml:"relay"`

	// Tick configures the gateway's time source.
	Tick TickConfig `yaml:"tick"`
}

// GatewayConfig configures the daemon's socket and identity.
type GatewayConfig struct {
	// SocketPath is the Unix socket the daemon listens on.
	// Default: /run/warden/gateway.sock
	SocketPath string `yaml:"socket_path"`

	// Audience is the token scope for this gateway instance. Tokens
	// minted for a different audience are rejected. Required.
	Audience string `yaml:"audience"`

	// StateDir holds the token-signing keypair and other runtime
	// state. Default: ${HOME}/.local/state/warden
	StateDir string `yaml:"state_dir"`
}

// RolesConfig sets the initial role holders.
type RolesConfig struct {
	// SuperAdmin is the initial super-admin identity. Required and
	// non-null: a gateway with no super-admin can never open a
	// kill-switch window.
	SuperAdmin string `yaml:"super_admin"`

	// Admin is the initial admin identity. Empty means the tier
	// starts vacant.
	Admin string `yaml:"admin"`
}

// DelegateConfig configures the link to the owned subsystem.
type DelegateConfig struct {
	// Ref is the delegate's identity as initially recorded by the
	// gateway. Empty means no delegate is linked at startup.
	Ref string `yaml:"ref"`

	// SocketPath is the delegate's Unix socket, where forwarded
	// operations are sent.
	SocketPath string `yaml:"socket_path"`
}

// JournalConfig configures notification persistence.
type JournalConfig struct {
	// Path is the SQLite database file for the journal. Empty means
	// the journal is kept in memory only.
	Path string `yaml:"path"`

	// QueueSize bounds the journal's write queue. Default: 256.
	QueueSize int `yaml:"queue_size"`
}

// RelayConfig configures forwarding of unrecognized operations.
type RelayConfig struct {
	// PolicyFile is a JSONC file listing the operation patterns the
	// relay admits. Empty means every unrecognized operation is
	// forwarded (subject to the caller's role).
	PolicyFile string `yaml:"policy_file"`
}

// TickConfig configures the gateway's time source.
type TickConfig struct {
	// Interval is the tick duration, as a Go duration string.
	// Default: 1s.
	Interval string `yaml:"interval"`
}

// Default returns the default configuration. These defaults are used
// as a base before loading the config file. They exist primarily to
// ensure all fields have sensible zero-values, not as a fallback -
// the config file is required.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Gateway: GatewayConfig{
			SocketPath: "/run/warden/gateway.sock",
			StateDir:   filepath.Join(homeDir, ".local", "state", "warden"),
		},
		Journal: JournalConfig{
			QueueSize: 256,
		},
		Tick: TickConfig{
			Interval: "1s",
		},
	}
}

// Load loads configuration from the WARDEN_CONFIG environment
// variable.
//
// This is the only way to load configuration without an explicit
// path. There are no fallbacks or defaults - if WARDEN_CONFIG is not
// set, this fails.
func Load() (*Config, error) {
	configPath := os.Getenv("WARDEN_CONFIG")
	if configPath == "" {
		return nil, fmt.Errorf("WARDEN_CONFIG environment variable not set; " +
			"set it to the path of your warden.yaml config file, or use --config flag")
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from a specific file path.
//
// The config file is the single source of truth. Environment
// variables do not override config values. The only expansion
// performed is ${HOME} and similar path variables for portability.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	cfg.expandVariables()
	return cfg, nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in
// paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"WARDEN_STATE": c.Gateway.StateDir,
		"HOME":         os.Getenv("HOME"),
	}

	c.Gateway.StateDir = expandVars(c.Gateway.StateDir, vars)
	vars["WARDEN_STATE"] = c.Gateway.StateDir // Update for dependent paths.

	c.Gateway.SocketPath = expandVars(c.Gateway.SocketPath, vars)
	c.Delegate.SocketPath = expandVars(c.Delegate.SocketPath, vars)
	c.Journal.Path = expandVars(c.Journal.Path, vars)
	c.Relay.PolicyFile = expandVars(c.Relay.PolicyFile, vars)
}

// expandVars expands ${VAR} and ${VAR:-default} patterns.
var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Gateway.SocketPath == "" {
		errs = append(errs, fmt.Errorf("gateway.socket_path is required"))
	}
	if c.Gateway.Audience == "" {
		errs = append(errs, fmt.Errorf("gateway.audience is required"))
	}
	if c.Roles.SuperAdmin == "" {
		errs = append(errs, fmt.Errorf("roles.super_admin is required"))
	}
	if c.Delegate.Ref != "" && c.Delegate.SocketPath == "" {
		errs = append(errs, fmt.Errorf("delegate.socket_path is required when delegate.ref is set"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// EnsurePaths creates the state directory if it doesn't exist.
func (c *Config) EnsurePaths() error {
	if c.Gateway.StateDir == "" {
		return nil
	}
	if err := os.MkdirAll(c.Gateway.StateDir, 0700); err != nil {
		return fmt.Errorf("creating %s: %w", c.Gateway.StateDir, err)
	}
	return nil
}
