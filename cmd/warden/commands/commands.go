// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the complete warden CLI command tree.
package commands

import (
	"context"
	"fmt"

	"github.com/warden-foundation/warden/cmd/warden/cli"
	"github.com/warden-foundation/warden/lib/version"
)

// Root builds and returns the complete warden CLI command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name: "warden",
		Description: `Warden: administrative gateway for an owned subsystem.

Hold the super-admin and admin roles, open kill-switch windows for
sensitive transitions, forward operations to the delegate, and manage
deposited value in custody.`,
		Subcommands: []*cli.Command{
			statusCommand(),
			infoCommand(),
			adminCommand(),
			delegateCommand(),
			custodyCommand(),
			callCommand(),
			keyCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(_ context.Context, args []string) error {
					fmt.Printf("warden %s\n", version.Full())
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Check the gateway is up",
				Command:     "warden status",
			},
			{
				Description: "Mint a caller token for an operator",
				Command:     "warden key mint --subject operator/alice --audience warden/prod --out alice.token",
			},
			{
				Description: "Open a kill-switch window",
				Command:     "warden admin disengage --token alice.token",
			},
			{
				Description: "Forward an operation the gateway has no handler for",
				Command:     "warden call inventory/recount --token alice.token",
			},
		},
	}
}
