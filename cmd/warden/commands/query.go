// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/warden-foundation/warden/cmd/warden/cli"
	"github.com/warden-foundation/warden/lib/ref"
	"github.com/warden-foundation/warden/lib/tick"
)

type statusResult struct {
	UptimeSeconds float64   `cbor:"uptime_seconds" json:"uptime_seconds"`
	Tick          tick.Tick `cbor:"tick" json:"tick"`
	Disengaged    bool      `cbor:"disengaged" json:"disengaged"`
}

func statusCommand() *cli.Command {
	var conn connection
	var asJSON, quiet bool

	return &cli.Command{
		Name:    "status",
		Summary: "Check gateway liveness",
		Usage:   "warden status [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("status", pflag.ContinueOnError)
			conn.register(flagSet)
			flagSet.BoolVar(&asJSON, "json", false, "output as JSON")
			flagSet.BoolVar(&quiet, "quiet", false, "no output, exit 0 if reachable and 1 otherwise")
			return flagSet
		},
		Examples: []cli.Example{
			{
				Description: "Liveness probe for scripts",
				Command:     "warden status --quiet && echo up",
			},
		},
		Run: func(ctx context.Context, args []string) error {
			var status statusResult
			err := conn.bareClient().Call(ctx, "status", nil, &status)
			if quiet {
				if err != nil {
					return &cli.ExitError{Code: 1}
				}
				return nil
			}
			if err != nil {
				return err
			}
			if asJSON {
				return cli.WriteJSON(status)
			}
			fmt.Printf("uptime:     %.0fs\n", status.UptimeSeconds)
			fmt.Printf("tick:       %d\n", status.Tick)
			fmt.Printf("disengaged: %v\n", status.Disengaged)
			return nil
		},
	}
}

type infoResult struct {
	SuperAdmin     ref.Identity `cbor:"super_admin" json:"super_admin"`
	Admin          ref.Identity `cbor:"admin" json:"admin"`
	Delegate       ref.Identity `cbor:"delegate" json:"delegate"`
	Tick           tick.Tick    `cbor:"tick" json:"tick"`
	Disengaged     bool         `cbor:"disengaged" json:"disengaged"`
	CustodyBalance uint64       `cbor:"custody_balance" json:"custody_balance"`
	JournalLength  int          `cbor:"journal_length" json:"journal_length"`
	JournalHead    string       `cbor:"journal_head" json:"journal_head"`
}

func infoCommand() *cli.Command {
	var conn connection
	var asJSON bool

	return &cli.Command{
		Name:    "info",
		Summary: "Show role holders, kill-switch state, and custody balance",
		Usage:   "warden info [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("info", pflag.ContinueOnError)
			conn.register(flagSet)
			flagSet.BoolVar(&asJSON, "json", false, "output as JSON")
			return flagSet
		},
		Run: func(ctx context.Context, args []string) error {
			client, err := conn.client()
			if err != nil {
				return err
			}
			var info infoResult
			if err := client.Call(ctx, "info", nil, &info); err != nil {
				return err
			}
			if asJSON {
				return cli.WriteJSON(info)
			}
			fmt.Printf("super-admin:     %s\n", orVacant(info.SuperAdmin))
			fmt.Printf("admin:           %s\n", orVacant(info.Admin))
			fmt.Printf("delegate:        %s\n", orVacant(info.Delegate))
			fmt.Printf("tick:            %d\n", info.Tick)
			fmt.Printf("disengaged:      %v\n", info.Disengaged)
			fmt.Printf("custody balance: %d\n", info.CustodyBalance)
			fmt.Printf("journal:         %d entries, head %s\n", info.JournalLength, info.JournalHead)
			return nil
		},
	}
}

func orVacant(id ref.Identity) string {
	if id.IsNull() {
		return "(vacant)"
	}
	return id.String()
}
