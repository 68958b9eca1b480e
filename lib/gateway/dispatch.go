// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"
	"fmt"

	"github.com/warden-foundation/warden/lib/codec"
	"github.com/warden-foundation/warden/lib/ref"
)

// Operation identifiers for the named dispatch table. Any identifier
// not listed here takes the generic relay path.
const (
	OpSetSuperAdmin                = "set-super-admin"
	OpRenounceSuperAdmin           = "renounce-super-admin"
	OpSetAdmin                     = "set-admin"
	OpRenounceAdmin                = "renounce-admin"
	OpSetDelegate                  = "set-delegate"
	OpDisengageKillSwitch          = "disengage-kill-switch"
	OpTransferDelegateOwnership    = "transfer-delegate-ownership"
	OpRelinquishDelegateOwnership  = "relinquish-delegate-ownership"
	OpWithdrawFromDelegate         = "withdraw-from-delegate"
	OpWithdrawFromDelegateToCaller = "withdraw-from-delegate-to-caller"
	OpCustodyWithdrawAll           = "custody-withdraw-all"
	OpDeposit                      = "deposit"
)

// identityPayload carries the single identity parameter of the role
// and delegate setters.
type identityPayload struct {
	Identity ref.Identity `cbor:"identity"`
}

// transferOwnershipPayload carries the new owner for a forwarded
// ownership transfer.
type transferOwnershipPayload struct {
	NewOwner ref.Identity `cbor:"new_owner"`
}

// withdrawPayload carries the recipient of a withdrawal.
type withdrawPayload struct {
	Recipient ref.Identity `cbor:"recipient"`
}

// namedOp is one entry in the dispatch table: a strongly-typed
// handler that decodes its own payload and invokes the corresponding
// gateway operation.
type namedOp struct {
	// acceptsValue marks the operations that take attached value.
	// Everything else rejects value-carrying requests before any
	// other check.
	acceptsValue bool

	run func(ctx context.Context, g *Gateway, caller ref.Identity, payload []byte, value uint64) error
}

// namedOps maps known operation identifiers to their handlers.
// Identifiers absent from this table are forwarded verbatim to the
// delegate under baseline admin authorization.
var namedOps = map[string]namedOp{
	OpSetSuperAdmin: {run: func(_ context.Context, g *Gateway, caller ref.Identity, payload []byte, _ uint64) error {
		params, err := decodePayload[identityPayload](OpSetSuperAdmin, payload)
		if err != nil {
			return err
		}
		return g.setSuperAdminLocked(caller, params.Identity)
	}},
	OpRenounceSuperAdmin: {run: func(_ context.Context, g *Gateway, caller ref.Identity, _ []byte, _ uint64) error {
		return g.renounceSuperAdminLocked(caller)
	}},
	OpSetAdmin: {run: func(_ context.Context, g *Gateway, caller ref.Identity, payload []byte, _ uint64) error {
		params, err := decodePayload[identityPayload](OpSetAdmin, payload)
		if err != nil {
			return err
		}
		return g.setAdminLocked(caller, params.Identity)
	}},
	OpRenounceAdmin: {run: func(_ context.Context, g *Gateway, caller ref.Identity, _ []byte, _ uint64) error {
		return g.renounceAdminLocked(caller)
	}},
	OpSetDelegate: {run: func(_ context.Context, g *Gateway, caller ref.Identity, payload []byte, _ uint64) error {
		params, err := decodePayload[identityPayload](OpSetDelegate, payload)
		if err != nil {
			return err
		}
		return g.setDelegateLocked(caller, params.Identity)
	}},
	OpDisengageKillSwitch: {run: func(_ context.Context, g *Gateway, caller ref.Identity, _ []byte, _ uint64) error {
		return g.disengageLocked(caller)
	}},
	OpTransferDelegateOwnership: {run: func(ctx context.Context, g *Gateway, caller ref.Identity, payload []byte, _ uint64) error {
		params, err := decodePayload[transferOwnershipPayload](OpTransferDelegateOwnership, payload)
		if err != nil {
			return err
		}
		return g.transferDelegateOwnershipLocked(ctx, caller, params.NewOwner)
	}},
	OpRelinquishDelegateOwnership: {run: func(ctx context.Context, g *Gateway, caller ref.Identity, _ []byte, _ uint64) error {
		return g.relinquishDelegateOwnershipLocked(ctx, caller)
	}},
	OpWithdrawFromDelegate: {run: func(ctx context.Context, g *Gateway, caller ref.Identity, payload []byte, _ uint64) error {
		params, err := decodePayload[withdrawPayload](OpWithdrawFromDelegate, payload)
		if err != nil {
			return err
		}
		return g.withdrawFromDelegateLocked(ctx, caller, params.Recipient)
	}},
	OpWithdrawFromDelegateToCaller: {run: func(ctx context.Context, g *Gateway, caller ref.Identity, _ []byte, _ uint64) error {
		return g.withdrawFromDelegateLocked(ctx, caller, caller)
	}},
	OpCustodyWithdrawAll: {run: func(ctx context.Context, g *Gateway, caller ref.Identity, payload []byte, _ uint64) error {
		params, err := decodePayload[withdrawPayload](OpCustodyWithdrawAll, payload)
		if err != nil {
			return err
		}
		return g.custodyWithdrawAllLocked(ctx, caller, params.Recipient)
	}},
	OpDeposit: {acceptsValue: true, run: func(_ context.Context, g *Gateway, caller ref.Identity, _ []byte, value uint64) error {
		g.depositLocked(caller, value)
		return nil
	}},
}

// IsNamedOp reports whether the identifier has a strongly-typed
// handler in the dispatch table. Useful for callers (the relay policy
// in the daemon) that must never shadow a named operation.
func IsNamedOp(op string) bool {
	_, ok := namedOps[op]
	return ok
}

// Dispatch routes one operation request. Named operations decode
// their payload and run their typed handler; unrecognized identifiers
// are forwarded verbatim — identical payload, identical attached
// value — to the delegate under admin-or-super-admin authorization.
//
// The returned bytes are the delegate's verbatim response for relayed
// operations and nil for named operations. The gateway's single lock
// is held for the whole dispatch, forwarded call included.
func (g *Gateway) Dispatch(ctx context.Context, caller ref.Identity, op string, payload []byte, value uint64) ([]byte, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if named, ok := namedOps[op]; ok {
		if value != 0 && !named.acceptsValue {
			return nil, fmt.Errorf("%w: %q", ErrValueNotAccepted, op)
		}
		return nil, named.run(ctx, g, caller, payload, value)
	}

	// Generic relay. Authorization is evaluated before any delegate
	// interaction; a delegate failure aborts the whole invocation
	// with no gateway state touched.
	if err := g.requireAdminLocked(caller); err != nil {
		return nil, err
	}
	return g.delegate.Call(ctx, op, payload, value)
}

// decodePayload decodes a named operation's CBOR parameters. A nil or
// empty payload decodes to the zero value, so parameter validation
// (null checks) stays in one place: the operation itself.
func decodePayload[T any](op string, payload []byte) (T, error) {
	var params T
	if len(payload) == 0 {
		return params, nil
	}
	if err := codec.Unmarshal(payload, &params); err != nil {
		return params, fmt.Errorf("%s: decoding payload: %w", op, err)
	}
	return params, nil
}
