// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/warden-foundation/warden/lib/codec"
)

func mustMarshal(t *testing.T, v any) []byte {
	t.Helper()
	data, err := codec.Marshal(v)
	if err != nil {
		t.Fatalf("codec.Marshal: %v", err)
	}
	return data
}

func TestDispatchNamedOperations(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// disengage-kill-switch then set-super-admin, both through the
	// router, mirror the direct-call path exactly.
	if _, err := f.gateway.Dispatch(ctx, alice, OpDisengageKillSwitch, nil, 0); err != nil {
		t.Fatalf("Dispatch(disengage-kill-switch): %v", err)
	}
	payload := mustMarshal(t, identityPayload{Identity: carol})
	resp, err := f.gateway.Dispatch(ctx, alice, OpSetSuperAdmin, payload, 0)
	if err != nil {
		t.Fatalf("Dispatch(set-super-admin): %v", err)
	}
	if resp != nil {
		t.Errorf("named operation returned %d response bytes, want none", len(resp))
	}
	if got := f.gateway.SuperAdmin(); got != carol {
		t.Errorf("SuperAdmin() = %q, want %q", got, carol)
	}
}

func TestDispatchEmptyPayloadMeansNull(t *testing.T) {
	f := newFixture(t)
	f.disengage(t)

	// A missing payload decodes to the null identity and trips the
	// operation's own validation, not a decode error.
	_, err := f.gateway.Dispatch(context.Background(), alice, OpSetSuperAdmin, nil, 0)
	if !errors.Is(err, ErrNullIdentity) {
		t.Fatalf("Dispatch(set-super-admin, nil payload): error = %v, want ErrNullIdentity", err)
	}
}

func TestDispatchRejectsValueOnNamedOps(t *testing.T) {
	f := newFixture(t)
	f.disengage(t)

	payload := mustMarshal(t, identityPayload{Identity: carol})
	_, err := f.gateway.Dispatch(context.Background(), alice, OpSetSuperAdmin, payload, 25)
	if !errors.Is(err, ErrValueNotAccepted) {
		t.Fatalf("value-carrying set-super-admin: error = %v, want ErrValueNotAccepted", err)
	}
	// Rejected before authorization or the gate: state untouched,
	// window intact.
	if got := f.gateway.SuperAdmin(); got != alice {
		t.Errorf("SuperAdmin() = %q, want unchanged %q", got, alice)
	}
	if !f.gateway.IsDisengaged() {
		t.Error("value rejection consumed the kill-switch window")
	}
}

func TestDispatchDeposit(t *testing.T) {
	f := newFixture(t)
	// Deposit is the one named operation that takes value, from any
	// caller, no token tier required.
	if _, err := f.gateway.Dispatch(context.Background(), mallory, OpDeposit, nil, 40); err != nil {
		t.Fatalf("Dispatch(deposit): %v", err)
	}
	if got := f.gateway.Balance(); got != 40 {
		t.Errorf("Balance() = %d, want 40", got)
	}
}

func TestDispatchRelay(t *testing.T) {
	f := newFixture(t)
	f.delegate.response = mustMarshal(t, map[string]any{"granted": true})

	payload := mustMarshal(t, map[string]any{"resource": "ledger/main"})
	resp, err := f.gateway.Dispatch(context.Background(), bob, "grant-access", payload, 3)
	if err != nil {
		t.Fatalf("Dispatch(relay): %v", err)
	}
	if !bytes.Equal(resp, f.delegate.response) {
		t.Errorf("relay response = %x, want the delegate's bytes verbatim", resp)
	}
	if len(f.delegate.calls) != 1 {
		t.Fatalf("delegate saw %d calls, want 1", len(f.delegate.calls))
	}
	call := f.delegate.calls[0]
	if call.op != "grant-access" || !bytes.Equal(call.payload, payload) || call.value != 3 {
		t.Errorf("forwarded call = %+v, want identical op, payload, and value", call)
	}
}

func TestDispatchRelayAuthorization(t *testing.T) {
	f := newFixture(t)

	// Super-admin qualifies for the relay baseline too.
	if _, err := f.gateway.Dispatch(context.Background(), alice, "grant-access", nil, 0); err != nil {
		t.Fatalf("relay as super-admin: %v", err)
	}

	// An outsider is rejected before the delegate sees anything.
	before := len(f.delegate.calls)
	_, err := f.gateway.Dispatch(context.Background(), carol, "grant-access", nil, 0)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("relay as outsider: error = %v, want ErrUnauthorized", err)
	}
	if len(f.delegate.calls) != before {
		t.Error("unauthorized relay reached the delegate")
	}
}

func TestDispatchRelayDelegateFailure(t *testing.T) {
	f := newFixture(t)
	f.delegate.failWith = &ForwardedError{Op: "grant-access", Message: "unknown resource"}

	_, err := f.gateway.Dispatch(context.Background(), bob, "grant-access", nil, 0)
	var forwarded *ForwardedError
	if !errors.As(err, &forwarded) {
		t.Fatalf("error = %v, want ForwardedError", err)
	}
	if forwarded.Message != "unknown resource" {
		t.Errorf("forwarded message = %q, want the delegate's verbatim", forwarded.Message)
	}
}

func TestDispatchMalformedPayload(t *testing.T) {
	f := newFixture(t)
	f.disengage(t)

	// Truncated CBOR map header.
	_, err := f.gateway.Dispatch(context.Background(), alice, OpSetSuperAdmin, []byte{0xa1, 0x68}, 0)
	if err == nil {
		t.Fatal("Dispatch accepted a malformed payload")
	}
	if got := f.gateway.SuperAdmin(); got != alice {
		t.Errorf("SuperAdmin() = %q after malformed payload, want unchanged %q", got, alice)
	}
}

func TestIsNamedOp(t *testing.T) {
	for _, op := range []string{
		OpSetSuperAdmin, OpRenounceSuperAdmin, OpSetAdmin, OpRenounceAdmin,
		OpSetDelegate, OpDisengageKillSwitch, OpTransferDelegateOwnership,
		OpRelinquishDelegateOwnership, OpWithdrawFromDelegate,
		OpWithdrawFromDelegateToCaller, OpCustodyWithdrawAll, OpDeposit,
	} {
		if !IsNamedOp(op) {
			t.Errorf("IsNamedOp(%q) = false, want true", op)
		}
	}
	if IsNamedOp("grant-access") {
		t.Error(`IsNamedOp("grant-access") = true, want false`)
	}
}
