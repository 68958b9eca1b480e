// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"

	"github.com/warden-foundation/warden/lib/ref"
)

// Delegate is the capability surface the gateway requires from the
// owned subsystem. The gateway depends on exactly three named
// capabilities plus tolerance of arbitrary additional operations
// reachable only through Call.
//
// Implementations report a delegate-side rejection as *ForwardedError
// so the gateway can propagate it to the caller unchanged. Transport
// failures (the delegate is unreachable) are plain errors.
type Delegate interface {
	// RelinquishOwnership asks the delegate to abandon its ownership.
	RelinquishOwnership(ctx context.Context) error

	// TransferOwnership asks the delegate to reassign its ownership
	// to newOwner.
	TransferOwnership(ctx context.Context, newOwner ref.Identity) error

	// Withdraw asks the delegate to pay its full balance to recipient.
	Withdraw(ctx context.Context, recipient ref.Identity) error

	// Call forwards an operation the gateway has no static knowledge
	// of: the identifier, payload bytes, and attached value travel
	// verbatim, and the delegate's response bytes come back verbatim.
	Call(ctx context.Context, op string, payload []byte, value uint64) ([]byte, error)
}

// TransferFunc is the settlement channel for custody withdrawals: it
// moves amount units of value held by the gateway itself to the
// recipient. A non-nil error aborts the withdrawal with the custody
// balance untouched.
type TransferFunc func(ctx context.Context, recipient ref.Identity, amount uint64) error
