// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/warden-foundation/warden/cmd/warden/cli"
)

// custodyCommand groups operations on value the gateway holds itself.
func custodyCommand() *cli.Command {
	return &cli.Command{
		Name:    "custody",
		Summary: "Value held by the gateway itself",
		Subcommands: []*cli.Command{
			depositCommand(),
			withdrawAllCommand(),
		},
	}
}

func depositCommand() *cli.Command {
	var conn connection
	var amount uint64

	return &cli.Command{
		Name:        "deposit",
		Summary:     "Deposit value into the gateway's custody",
		Description: "Open to any authenticated identity. The amount is attached as the request's value.",
		Usage:       "warden custody deposit --amount <n> [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("deposit", pflag.ContinueOnError)
			conn.register(flagSet)
			flagSet.Uint64Var(&amount, "amount", 0, "units of value to deposit")
			return flagSet
		},
		Examples: []cli.Example{
			{
				Description: "Deposit 100 units",
				Command:     "warden custody deposit --amount 100 --token carol.token",
			},
		},
		Run: func(ctx context.Context, args []string) error {
			if amount == 0 {
				return fmt.Errorf("--amount must be positive")
			}
			client, err := conn.client()
			if err != nil {
				return err
			}
			return invoke(ctx, client, "deposit", nil, amount, nil)
		},
	}
}

func withdrawAllCommand() *cli.Command {
	var conn connection
	var recipient string

	return &cli.Command{
		Name:        "withdraw-all",
		Summary:     "Pay the full custody balance to a recipient",
		Description: "Requires super-admin. Not gated. The balance is settled through the delegate's credit channel.",
		Usage:       "warden custody withdraw-all --recipient <identity> [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("withdraw-all", pflag.ContinueOnError)
			conn.register(flagSet)
			flagSet.StringVar(&recipient, "recipient", "", "identity to receive the custody balance")
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			if recipient == "" {
				return fmt.Errorf("--recipient is required")
			}
			client, err := conn.client()
			if err != nil {
				return err
			}
			return invoke(ctx, client, "custody-withdraw-all", map[string]any{"recipient": recipient}, 0, nil)
		},
	}
}
