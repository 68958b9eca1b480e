// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/warden-foundation/warden/lib/codec"
	"github.com/warden-foundation/warden/lib/config"
	"github.com/warden-foundation/warden/lib/service"
)

// connection carries the two flags every gateway-talking command
// shares: the gateway socket and the caller token file.
type connection struct {
	socketPath string
	tokenPath  string
}

// register adds the shared flags to a command's flag set.
func (c *connection) register(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&c.socketPath, "socket", config.Default().Gateway.SocketPath, "gateway socket path")
	flagSet.StringVar(&c.tokenPath, "token", "", "caller token file minted by 'warden key mint'")
}

// client returns an authenticated client. Fails when no token file
// was given.
func (c *connection) client() (*service.Client, error) {
	if c.tokenPath == "" {
		return nil, fmt.Errorf("--token is required")
	}
	return service.NewClient(c.socketPath, c.tokenPath)
}

// bareClient returns an unauthenticated client for actions that take
// no token (status).
func (c *connection) bareClient() *service.Client {
	return service.NewClientFromToken(c.socketPath, nil)
}

// invoke sends one gateway operation: params (if any) are encoded as
// the verbatim CBOR payload, value rides alongside. The response data
// is decoded into result when it is non-nil.
func invoke(ctx context.Context, client *service.Client, op string, params map[string]any, value uint64, result any) error {
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
	return client.Call(ctx, op, fields, result)
}
