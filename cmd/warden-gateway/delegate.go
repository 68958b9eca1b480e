// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/warden-foundation/warden/lib/codec"
	"github.com/warden-foundation/warden/lib/gateway"
	"github.com/warden-foundation/warden/lib/ref"
	"github.com/warden-foundation/warden/lib/service"
)

// delegateClient implements the gateway's Delegate interface over the
// delegate's Unix socket. A rejection by the delegate (the socket
// answered ok=false) becomes *gateway.ForwardedError so the gateway
// propagates the delegate's message verbatim; transport failures (the
// delegate is unreachable) stay plain errors.
type delegateClient struct {
	client *service.Client
}

func newDelegateClient(socketPath string) *delegateClient {
	return &delegateClient{
		client: service.NewClientFromToken(socketPath, nil),
	}
}

func (d *delegateClient) RelinquishOwnership(ctx context.Context) error {
	_, err := d.call(ctx, "relinquish-ownership", nil)
	return err
}

func (d *delegateClient) TransferOwnership(ctx context.Context, newOwner ref.Identity) error {
	_, err := d.call(ctx, "transfer-ownership", map[string]any{
		"new_owner": newOwner,
	})
	return err
}

func (d *delegateClient) Withdraw(ctx context.Context, recipient ref.Identity) error {
	_, err := d.call(ctx, "withdraw", map[string]any{
		"recipient": recipient,
	})
	return err
}

// Call forwards a relayed operation. The caller's payload bytes ride
// in the "payload" field untouched; the delegate's response data
// comes back untouched.
func (d *delegateClient) Call(ctx context.Context, op string, payload []byte, value uint64) ([]byte, error) {
	fields := map[string]any{
		"value": value,
	}
	if len(payload) > 0 {
		fields["payload"] = codec.RawMessage(payload)
	}
	return d.call(ctx, op, fields)
}

// Credit is the settlement channel for custody withdrawals: it asks
// the delegate to credit amount to the recipient's balance.
func (d *delegateClient) Credit(ctx context.Context, recipient ref.Identity, amount uint64) error {
	_, err := d.call(ctx, "credit", map[string]any{
		"identity": recipient,
		"amount":   amount,
	})
	return err
}

func (d *delegateClient) call(ctx context.Context, op string, fields map[string]any) ([]byte, error) {
	data, err := d.client.CallRaw(ctx, op, fields)
	if err != nil {
		var callErr *service.CallError
		if errors.As(err, &callErr) {
			return nil, &gateway.ForwardedError{Op: op, Message: callErr.Message}
		}
		return nil, fmt.Errorf("delegate transport: %w", err)
	}
	return []byte(data), nil
}
