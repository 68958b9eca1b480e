// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/warden-foundation/warden/cmd/warden/cli"
)

// delegateCommand groups the forwarded ownership operations.
func delegateCommand() *cli.Command {
	return &cli.Command{
		Name:    "delegate",
		Summary: "Forwarded ownership operations on the delegate",
		Subcommands: []*cli.Command{
			transferOwnershipCommand(),
			relinquishOwnershipCommand(),
			withdrawCommand(),
		},
	}
}

func transferOwnershipCommand() *cli.Command {
	var conn connection

	return &cli.Command{
		Name:        "transfer-ownership",
		Summary:     "Reassign the delegate's ownership to a new owner",
		Description: "Requires super-admin and an open kill-switch window; the window is consumed only if the delegate accepts.",
		Usage:       "warden delegate transfer-ownership <new-owner> [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("transfer-ownership", pflag.ContinueOnError)
			conn.register(flagSet)
			return flagSet
		},
		Examples: []cli.Example{
			{
				Description: "Hand the subsystem to a successor gateway",
				Command:     "warden delegate transfer-ownership service/warden-next --token alice.token",
			},
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one new-owner argument")
			}
			client, err := conn.client()
			if err != nil {
				return err
			}
			return invoke(ctx, client, "transfer-delegate-ownership", map[string]any{"new_owner": args[0]}, 0, nil)
		},
	}
}

func relinquishOwnershipCommand() *cli.Command {
	var conn connection

	return &cli.Command{
		Name:        "relinquish-ownership",
		Summary:     "Ask the delegate to abandon its ownership",
		Description: "Requires super-admin and an open kill-switch window; the window is consumed only if the delegate accepts.",
		Usage:       "warden delegate relinquish-ownership [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("relinquish-ownership", pflag.ContinueOnError)
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
			return invoke(ctx, client, "relinquish-delegate-ownership", nil, 0, nil)
		},
	}
}

func withdrawCommand() *cli.Command {
	var conn connection
	var recipient string
	var toCaller bool

	return &cli.Command{
		Name:        "withdraw",
		Summary:     "Pay the delegate's full balance out",
		Description: "Requires super-admin. Not gated. Pays to --recipient, or to the caller with --to-caller.",
		Usage:       "warden delegate withdraw [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("withdraw", pflag.ContinueOnError)
			conn.register(flagSet)
			flagSet.StringVar(&recipient, "recipient", "", "identity to receive the delegate's balance")
			flagSet.BoolVar(&toCaller, "to-caller", false, "pay to the calling identity")
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			client, err := conn.client()
			if err != nil {
				return err
			}
			if toCaller {
				if recipient != "" {
					return fmt.Errorf("--recipient and --to-caller are mutually exclusive")
				}
				return invoke(ctx, client, "withdraw-from-delegate-to-caller", nil, 0, nil)
			}
			if recipient == "" {
				return fmt.Errorf("either --recipient or --to-caller is required")
			}
			return invoke(ctx, client, "withdraw-from-delegate", map[string]any{"recipient": recipient}, 0, nil)
		},
	}
}
