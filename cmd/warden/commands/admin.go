// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/warden-foundation/warden/cmd/warden/cli"
)

// adminCommand groups the role and kill-switch operations.
func adminCommand() *cli.Command {
	return &cli.Command{
		Name:    "admin",
		Summary: "Role assignments and the kill switch",
		Subcommands: []*cli.Command{
			identityOpCommand("set-super-admin", "set-super-admin",
				"Hand the super-admin role to another identity",
				"Requires super-admin and an open kill-switch window; the window is consumed."),
			bareOpCommand("renounce-super-admin", "renounce-super-admin",
				"Renounce the super-admin role, locking the tier forever",
				"Requires super-admin and an open kill-switch window; the window is consumed."),
			identityOpCommand("set-admin", "set-admin",
				"Appoint or replace the admin",
				"Requires super-admin. Not gated."),
			bareOpCommand("renounce-admin", "renounce-admin",
				"Vacate the admin tier",
				"The admin may renounce itself; the super-admin may evict. Not gated."),
			identityOpCommand("set-delegate", "set-delegate",
				"Point the gateway at a different delegate",
				"Requires super-admin. Not gated; the identity is recorded unvalidated."),
			bareOpCommand("disengage", "disengage-kill-switch",
				"Open a kill-switch window",
				"Requires super-admin. The window admits exactly one gated operation and closes after 40 ticks."),
		},
	}
}

// identityOpCommand builds a command for an operation taking a single
// identity argument.
func identityOpCommand(name, op, summary, description string) *cli.Command {
	var conn connection

	return &cli.Command{
		Name:        name,
		Summary:     summary,
		Description: description,
		Usage:       fmt.Sprintf("warden admin %s <identity> [flags]", name),
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
			conn.register(flagSet)
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one identity argument")
			}
			client, err := conn.client()
			if err != nil {
				return err
			}
			return invoke(ctx, client, op, map[string]any{"identity": args[0]}, 0, nil)
		},
	}
}

// bareOpCommand builds a command for an operation taking no
// parameters.
func bareOpCommand(name, op, summary, description string) *cli.Command {
	var conn connection

	return &cli.Command{
		Name:        name,
		Summary:     summary,
		Description: description,
		Usage:       fmt.Sprintf("warden admin %s [flags]", name),
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
			conn.register(flagSet)
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 0 {
				return fmt.Errorf("unexpected arguments: %v", args)
			}
			client, err := conn.client()
			if err != nil {
				return err
			}
			return invoke(ctx, client, op, nil, 0, nil)
		},
	}
}
