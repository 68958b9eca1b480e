// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/warden-foundation/warden/cmd/warden/cli"
	"github.com/warden-foundation/warden/lib/codec"
)

// callCommand is the relay path: forward an operation the gateway has
// no static knowledge of to the delegate, verbatim.
func callCommand() *cli.Command {
	var conn connection
	var payloadJSON string
	var value uint64

	return &cli.Command{
		Name:        "call",
		Summary:     "Forward an arbitrary operation to the delegate",
		Description: "Requires admin or super-admin. The payload is given as JSON and forwarded to the delegate as CBOR, untouched by the gateway; the delegate's response is printed as JSON.",
		Usage:       "warden call <operation> [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("call", pflag.ContinueOnError)
			conn.register(flagSet)
			flagSet.StringVar(&payloadJSON, "payload", "", "operation parameters as a JSON object")
			flagSet.Uint64Var(&value, "value", 0, "value to attach to the forwarded call")
			return flagSet
		},
		Examples: []cli.Example{
			{
				Description: "Forward a parameterless operation",
				Command:     "warden call inventory/recount --token bob.token",
			},
			{
				Description: "Forward an operation with parameters and attached value",
				Command:     `warden call inventory/restock --payload '{"widget": "w-17", "count": 3}' --value 40 --token bob.token`,
			},
		},
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one operation argument")
			}
			op := args[0]

			var params map[string]any
			if payloadJSON != "" {
				if err := json.Unmarshal([]byte(payloadJSON), &params); err != nil {
					return fmt.Errorf("parsing --payload: %w", err)
				}
			}

			client, err := conn.client()
			if err != nil {
				return err
			}

			fields := make(map[string]any, 2)
			if value != 0 {
				fields["value"] = value
			}
			if params != nil {
				payload, err := codec.Marshal(params)
				if err != nil {
					return fmt.Errorf("encoding payload: %w", err)
				}
				fields["payload"] = codec.RawMessage(payload)
			}

			data, err := client.CallRaw(ctx, op, fields)
			if err != nil {
				return err
			}
			if len(data) == 0 {
				return nil
			}

			var response any
			if err := codec.Unmarshal(data, &response); err != nil {
				return fmt.Errorf("decoding delegate response: %w", err)
			}
			return cli.WriteJSON(response)
		},
	}
}
