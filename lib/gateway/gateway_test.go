// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"
	"errors"
	"testing"

	"github.com/warden-foundation/warden/lib/ref"
	"github.com/warden-foundation/warden/lib/tick"
)

var (
	alice   = ref.MustNew("operator/alice")
	bob     = ref.MustNew("operator/bob")
	carol   = ref.MustNew("operator/carol")
	mallory = ref.MustNew("operator/mallory")
	vault   = ref.MustNew("service/vault")
)

// fakeDelegate records forwarded calls and can be primed to fail.
type fakeDelegate struct {
	owner        ref.Identity
	relinquished bool
	withdrawals  []ref.Identity
	calls        []forwardedCall
	failWith     error
	response     []byte
}

type forwardedCall struct {
	op      string
	payload []byte
	value   uint64
}

func (d *fakeDelegate) RelinquishOwnership(context.Context) error {
	if d.failWith != nil {
		return d.failWith
	}
	d.relinquished = true
	d.owner = ref.Null
	return nil
}

func (d *fakeDelegate) TransferOwnership(_ context.Context, newOwner ref.Identity) error {
	if d.failWith != nil {
		return d.failWith
	}
	d.owner = newOwner
	return nil
}

func (d *fakeDelegate) Withdraw(_ context.Context, recipient ref.Identity) error {
	if d.failWith != nil {
		return d.failWith
	}
	d.withdrawals = append(d.withdrawals, recipient)
	return nil
}

func (d *fakeDelegate) Call(_ context.Context, op string, payload []byte, value uint64) ([]byte, error) {
	if d.failWith != nil {
		return nil, d.failWith
	}
	d.calls = append(d.calls, forwardedCall{op: op, payload: payload, value: value})
	return d.response, nil
}

// memoryRecorder collects notifications in order.
type memoryRecorder struct {
	notes []Notification
}

func (r *memoryRecorder) Record(note Notification) {
	r.notes = append(r.notes, note)
}

// fixture bundles a gateway with its collaborators for tests.
type fixture struct {
	gateway  *Gateway
	delegate *fakeDelegate
	ticks    *tick.Fake
	recorder *memoryRecorder

	// transfers records settlement-channel payouts.
	transfers []transferRecord
	// transferErr primes the settlement channel to fail.
	transferErr error
}

type transferRecord struct {
	recipient ref.Identity
	amount    uint64
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		delegate: &fakeDelegate{owner: vault},
		ticks:    tick.NewFake(0),
		recorder: &memoryRecorder{},
	}
	gw, err := New(Config{
		SuperAdmin:  alice,
		Admin:       bob,
		DelegateRef: vault,
		Delegate:    f.delegate,
		Ticks:       f.ticks,
		Recorder:    f.recorder,
		Transfer: func(_ context.Context, recipient ref.Identity, amount uint64) error {
			if f.transferErr != nil {
				return f.transferErr
			}
			f.transfers = append(f.transfers, transferRecord{recipient: recipient, amount: amount})
			return nil
		},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	f.gateway = gw
	return f
}

// disengage opens a window as the super-admin and fails the test on
// error.
func (f *fixture) disengage(t *testing.T) {
	t.Helper()
	if err := f.gateway.Disengage(alice); err != nil {
		t.Fatalf("Disengage: %v", err)
	}
}

func TestNewRejectsNullSuperAdmin(t *testing.T) {
	_, err := New(Config{
		SuperAdmin: ref.Null,
		Delegate:   &fakeDelegate{},
		Ticks:      tick.NewFake(0),
	})
	if err == nil {
		t.Fatal("New accepted a null initial super-admin")
	}
}

func TestHasRole(t *testing.T) {
	f := newFixture(t)
	cases := []struct {
		identity ref.Identity
		want     Role
	}{
		{alice, RoleSuperAdmin},
		{bob, RoleAdmin},
		{carol, RoleNone},
		{ref.Null, RoleNone},
	}
	for _, c := range cases {
		if got := f.gateway.HasRole(c.identity); got != c.want {
			t.Errorf("HasRole(%q) = %v, want %v", c.identity, got, c.want)
		}
	}
}

func TestNullNeverHoldsRenouncedRole(t *testing.T) {
	f := newFixture(t)
	if err := f.gateway.RenounceAdmin(bob); err != nil {
		t.Fatalf("RenounceAdmin: %v", err)
	}
	// The stored admin is now null; the null sentinel must still not
	// hold the admin role.
	if got := f.gateway.HasRole(ref.Null); got != RoleNone {
		t.Errorf("HasRole(null) after renounce = %v, want none", got)
	}
}

func TestSetSuperAdmin(t *testing.T) {
	f := newFixture(t)
	f.disengage(t)

	if err := f.gateway.SetSuperAdmin(alice, carol); err != nil {
		t.Fatalf("SetSuperAdmin: %v", err)
	}
	if got := f.gateway.SuperAdmin(); got != carol {
		t.Errorf("SuperAdmin() = %q, want %q", got, carol)
	}
	// The window was consumed.
	if f.gateway.IsDisengaged() {
		t.Error("kill switch still disengaged after a successful gated operation")
	}
	// The old super-admin no longer holds the role.
	if got := f.gateway.HasRole(alice); got != RoleNone {
		t.Errorf("HasRole(old super-admin) = %v, want none", got)
	}
}

func TestSetSuperAdminUnauthorized(t *testing.T) {
	f := newFixture(t)
	f.disengage(t)

	for _, caller := range []ref.Identity{bob, carol, ref.Null} {
		err := f.gateway.SetSuperAdmin(caller, mallory)
		if !errors.Is(err, ErrUnauthorized) {
			t.Errorf("SetSuperAdmin as %q: error = %v, want ErrUnauthorized", caller, err)
		}
	}
	if got := f.gateway.SuperAdmin(); got != alice {
		t.Errorf("SuperAdmin() = %q after failed attempts, want %q", got, alice)
	}
	// Failed attempts must not consume the window.
	if !f.gateway.IsDisengaged() {
		t.Error("failed unauthorized attempts consumed the kill-switch window")
	}
}

func TestSetSuperAdminNull(t *testing.T) {
	f := newFixture(t)
	f.disengage(t)

	err := f.gateway.SetSuperAdmin(alice, ref.Null)
	if !errors.Is(err, ErrNullIdentity) {
		t.Fatalf("SetSuperAdmin(null): error = %v, want ErrNullIdentity", err)
	}
	if got := f.gateway.SuperAdmin(); got != alice {
		t.Errorf("SuperAdmin() = %q, want unchanged %q", got, alice)
	}
	// The validation failure happened inside an open window; the
	// window must survive.
	if !f.gateway.IsDisengaged() {
		t.Error("validation failure consumed the kill-switch window")
	}
}

func TestSetSuperAdminGated(t *testing.T) {
	f := newFixture(t)
	err := f.gateway.SetSuperAdmin(alice, carol)
	if !errors.Is(err, ErrGateEngaged) {
		t.Fatalf("SetSuperAdmin without a window: error = %v, want ErrGateEngaged", err)
	}
	if got := f.gateway.SuperAdmin(); got != alice {
		t.Errorf("SuperAdmin() = %q, want unchanged %q", got, alice)
	}
}

func TestRenounceSuperAdmin(t *testing.T) {
	f := newFixture(t)
	f.disengage(t)

	if err := f.gateway.RenounceSuperAdmin(alice); err != nil {
		t.Fatalf("RenounceSuperAdmin: %v", err)
	}
	if got := f.gateway.SuperAdmin(); !got.IsNull() {
		t.Errorf("SuperAdmin() = %q after renunciation, want null", got)
	}
	// The tier is permanently locked: nobody can disengage anymore.
	if err := f.gateway.Disengage(alice); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("Disengage after renunciation: error = %v, want ErrUnauthorized", err)
	}
}

func TestRenounceSuperAdminGated(t *testing.T) {
	f := newFixture(t)
	if err := f.gateway.RenounceSuperAdmin(alice); !errors.Is(err, ErrGateEngaged) {
		t.Fatalf("RenounceSuperAdmin without a window: error = %v, want ErrGateEngaged", err)
	}
	if got := f.gateway.SuperAdmin(); got != alice {
		t.Errorf("SuperAdmin() = %q, want unchanged %q", got, alice)
	}
}

func TestSetAdminUngated(t *testing.T) {
	f := newFixture(t)
	// No disengage: setAdmin is not kill-switch gated.
	if err := f.gateway.SetAdmin(alice, carol); err != nil {
		t.Fatalf("SetAdmin: %v", err)
	}
	if got := f.gateway.Admin(); got != carol {
		t.Errorf("Admin() = %q, want %q", got, carol)
	}
}

func TestSetAdminRejections(t *testing.T) {
	f := newFixture(t)
	// The admin cannot appoint a successor.
	if err := f.gateway.SetAdmin(bob, carol); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("SetAdmin as admin: error = %v, want ErrUnauthorized", err)
	}
	if err := f.gateway.SetAdmin(alice, ref.Null); !errors.Is(err, ErrNullIdentity) {
		t.Errorf("SetAdmin(null): error = %v, want ErrNullIdentity", err)
	}
	if got := f.gateway.Admin(); got != bob {
		t.Errorf("Admin() = %q, want unchanged %q", got, bob)
	}
}

func TestRenounceAdmin(t *testing.T) {
	// Self-service renunciation by the admin.
	f := newFixture(t)
	if err := f.gateway.RenounceAdmin(bob); err != nil {
		t.Fatalf("RenounceAdmin as admin: %v", err)
	}
	if got := f.gateway.Admin(); !got.IsNull() {
		t.Errorf("Admin() = %q, want null", got)
	}

	// Removal by the super-admin.
	f = newFixture(t)
	if err := f.gateway.RenounceAdmin(alice); err != nil {
		t.Fatalf("RenounceAdmin as super-admin: %v", err)
	}
	if got := f.gateway.Admin(); !got.IsNull() {
		t.Errorf("Admin() = %q, want null", got)
	}

	// Nobody else.
	f = newFixture(t)
	if err := f.gateway.RenounceAdmin(carol); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("RenounceAdmin as outsider: error = %v, want ErrUnauthorized", err)
	}
}

func TestKillSwitchWindowBoundary(t *testing.T) {
	f := newFixture(t)
	f.ticks.Set(100)
	f.disengage(t)

	// Open for ticks 100..139 inclusive.
	for _, at := range []tick.Tick{100, 101, 120, 139} {
		f.ticks.Set(at)
		if !f.gateway.IsDisengaged() {
			t.Errorf("IsDisengaged() at tick %d = false, want true", at)
		}
	}
	// Engaged again at exactly 140 and beyond.
	for _, at := range []tick.Tick{140, 141, 1000} {
		f.ticks.Set(at)
		if f.gateway.IsDisengaged() {
			t.Errorf("IsDisengaged() at tick %d = true, want false", at)
		}
	}
}

func TestDisengageResetsWindow(t *testing.T) {
	f := newFixture(t)
	f.ticks.Set(100)
	f.disengage(t)

	// Re-disengage mid-window extends the expiry.
	f.ticks.Set(130)
	f.disengage(t)
	f.ticks.Set(165)
	if !f.gateway.IsDisengaged() {
		t.Error("IsDisengaged() at tick 165 = false, want true after re-disengage at 130")
	}
	f.ticks.Set(170)
	if f.gateway.IsDisengaged() {
		t.Error("IsDisengaged() at tick 170 = true, want false")
	}
}

func TestDisengageRequiresSuperAdmin(t *testing.T) {
	f := newFixture(t)
	for _, caller := range []ref.Identity{bob, carol} {
		if err := f.gateway.Disengage(caller); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("Disengage as %q: error = %v, want ErrUnauthorized", caller, err)
		}
	}
	if f.gateway.IsDisengaged() {
		t.Error("unauthorized disengage opened a window")
	}
}

func TestWindowIsSingleUse(t *testing.T) {
	f := newFixture(t)
	f.ticks.Set(100)
	f.disengage(t)

	ctx := context.Background()
	if err := f.gateway.TransferDelegateOwnership(ctx, alice, carol); err != nil {
		t.Fatalf("TransferDelegateOwnership: %v", err)
	}
	if f.delegate.owner != carol {
		t.Errorf("delegate owner = %q, want %q", f.delegate.owner, carol)
	}

	// Still numerically inside the 40-tick window, but consumed.
	f.ticks.Set(110)
	err := f.gateway.RelinquishDelegateOwnership(ctx, alice)
	if !errors.Is(err, ErrGateEngaged) {
		t.Fatalf("second gated operation: error = %v, want ErrGateEngaged", err)
	}
	if f.delegate.relinquished {
		t.Error("relinquish reached the delegate despite the consumed window")
	}
}

func TestForwardedFailureDoesNotConsumeWindow(t *testing.T) {
	f := newFixture(t)
	f.disengage(t)
	f.delegate.failWith = &ForwardedError{Op: "transfer-ownership", Message: "owner is immutable"}

	err := f.gateway.TransferDelegateOwnership(context.Background(), alice, carol)
	var forwarded *ForwardedError
	if !errors.As(err, &forwarded) {
		t.Fatalf("error = %v, want the delegate's ForwardedError propagated unchanged", err)
	}
	if forwarded.Message != "owner is immutable" {
		t.Errorf("forwarded message = %q, reinterpreted", forwarded.Message)
	}
	// The delegate failed after the gate check; the window survives.
	if !f.gateway.IsDisengaged() {
		t.Error("forwarded failure consumed the kill-switch window")
	}
	if f.delegate.owner != vault {
		t.Errorf("delegate owner = %q, want unchanged %q", f.delegate.owner, vault)
	}
}

func TestSetDelegatePermissive(t *testing.T) {
	f := newFixture(t)
	// No kill-switch window open, null identity: both allowed.
	if err := f.gateway.SetDelegate(alice, ref.Null); err != nil {
		t.Fatalf("SetDelegate(null): %v", err)
	}
	if got := f.gateway.DelegateRef(); !got.IsNull() {
		t.Errorf("DelegateRef() = %q, want null", got)
	}

	other := ref.MustNew("service/other")
	if err := f.gateway.SetDelegate(alice, other); err != nil {
		t.Fatalf("SetDelegate: %v", err)
	}
	if got := f.gateway.DelegateRef(); got != other {
		t.Errorf("DelegateRef() = %q, want %q", got, other)
	}

	// Still super-admin only.
	if err := f.gateway.SetDelegate(bob, vault); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("SetDelegate as admin: error = %v, want ErrUnauthorized", err)
	}
}

func TestWithdrawFromDelegateUngated(t *testing.T) {
	f := newFixture(t)
	// No window open; withdrawal does not require one.
	if err := f.gateway.WithdrawFromDelegate(context.Background(), alice, carol); err != nil {
		t.Fatalf("WithdrawFromDelegate: %v", err)
	}
	if len(f.delegate.withdrawals) != 1 || f.delegate.withdrawals[0] != carol {
		t.Errorf("delegate withdrawals = %v, want [%q]", f.delegate.withdrawals, carol)
	}
}

func TestWithdrawFromDelegateChecks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	if err := f.gateway.WithdrawFromDelegate(ctx, bob, carol); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("withdraw as admin: error = %v, want ErrUnauthorized", err)
	}
	if err := f.gateway.WithdrawFromDelegate(ctx, alice, ref.Null); !errors.Is(err, ErrNullIdentity) {
		t.Errorf("withdraw to null: error = %v, want ErrNullIdentity", err)
	}
	if len(f.delegate.withdrawals) != 0 {
		t.Errorf("delegate saw %d withdrawals from failed attempts", len(f.delegate.withdrawals))
	}
}

func TestWithdrawFromDelegateToCaller(t *testing.T) {
	f := newFixture(t)
	if err := f.gateway.WithdrawFromDelegateToCaller(context.Background(), alice); err != nil {
		t.Fatalf("WithdrawFromDelegateToCaller: %v", err)
	}
	if len(f.delegate.withdrawals) != 1 || f.delegate.withdrawals[0] != alice {
		t.Errorf("delegate withdrawals = %v, want [%q]", f.delegate.withdrawals, alice)
	}

	// Authorization is inherited, not weaker: the admin is rejected.
	err := f.gateway.WithdrawFromDelegateToCaller(context.Background(), bob)
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("withdraw-to-caller as admin: error = %v, want ErrUnauthorized", err)
	}
}

func TestEndToEndGatedSequence(t *testing.T) {
	// spec scenario: disengage at tick 100, transfer succeeds and
	// consumes the window, immediate relinquish fails.
	f := newFixture(t)
	ctx := context.Background()
	f.ticks.Set(100)
	f.disengage(t)

	if err := f.gateway.TransferDelegateOwnership(ctx, alice, carol); err != nil {
		t.Fatalf("TransferDelegateOwnership: %v", err)
	}
	if f.delegate.owner != carol {
		t.Errorf("delegate owner = %q, want %q", f.delegate.owner, carol)
	}
	if f.gateway.IsDisengaged() {
		t.Error("switch not back to engaged after the transfer")
	}

	err := f.gateway.RelinquishDelegateOwnership(ctx, alice)
	if !errors.Is(err, ErrGateEngaged) {
		t.Fatalf("immediate relinquish: error = %v, want ErrGateEngaged", err)
	}
	if f.delegate.relinquished {
		t.Error("relinquish reached the delegate")
	}
}

func TestCustodyDepositAndWithdrawAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Deposits are unconditional, from anyone.
	f.gateway.Deposit(mallory, 70)
	f.gateway.Deposit(carol, 30)
	if got := f.gateway.Balance(); got != 100 {
		t.Fatalf("Balance() = %d, want 100", got)
	}

	// Non-super-admin withdrawal fails and leaves the balance.
	if err := f.gateway.CustodyWithdrawAll(ctx, bob, carol); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("withdraw-all as admin: error = %v, want ErrUnauthorized", err)
	}
	if got := f.gateway.Balance(); got != 100 {
		t.Errorf("Balance() = %d after failed attempt, want 100", got)
	}

	// Super-admin withdrawal pays out exactly the held balance.
	if err := f.gateway.CustodyWithdrawAll(ctx, alice, carol); err != nil {
		t.Fatalf("CustodyWithdrawAll: %v", err)
	}
	if len(f.transfers) != 1 {
		t.Fatalf("settlement channel saw %d transfers, want 1", len(f.transfers))
	}
	if f.transfers[0].recipient != carol || f.transfers[0].amount != 100 {
		t.Errorf("transfer = %+v, want 100 to %q", f.transfers[0], carol)
	}
	if got := f.gateway.Balance(); got != 0 {
		t.Errorf("Balance() = %d after withdrawal, want 0", got)
	}
}

func TestCustodyWithdrawAllTransferFailure(t *testing.T) {
	f := newFixture(t)
	f.gateway.Deposit(carol, 55)
	f.transferErr = errors.New("settlement channel unavailable")

	err := f.gateway.CustodyWithdrawAll(context.Background(), alice, carol)
	if err == nil {
		t.Fatal("CustodyWithdrawAll succeeded despite transfer failure")
	}
	if got := f.gateway.Balance(); got != 55 {
		t.Errorf("Balance() = %d after aborted withdrawal, want 55", got)
	}
}

func TestCustodyWithdrawAllNullRecipient(t *testing.T) {
	f := newFixture(t)
	f.gateway.Deposit(carol, 5)
	err := f.gateway.CustodyWithdrawAll(context.Background(), alice, ref.Null)
	if !errors.Is(err, ErrNullIdentity) {
		t.Fatalf("withdraw-all to null: error = %v, want ErrNullIdentity", err)
	}
}

func TestNotifications(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.ticks.Set(7)

	f.gateway.Deposit(carol, 9)
	f.disengage(t)
	if err := f.gateway.SetAdmin(alice, carol); err != nil {
		t.Fatalf("SetAdmin: %v", err)
	}
	if err := f.gateway.SetDelegate(alice, ref.Null); err != nil {
		t.Fatalf("SetDelegate: %v", err)
	}
	if err := f.gateway.WithdrawFromDelegate(ctx, alice, carol); err != nil {
		t.Fatalf("WithdrawFromDelegate: %v", err)
	}
	if err := f.gateway.SetSuperAdmin(alice, bob); err != nil {
		t.Fatalf("SetSuperAdmin: %v", err)
	}

	want := []Notification{
		{Kind: NoteValueReceived, At: 7, From: carol, Amount: 9},
		{Kind: NoteKillSwitchDisengaged, At: 7},
		{Kind: NoteAdminSet, At: 7, Identity: carol},
		{Kind: NoteDelegateSet, At: 7, Identity: ref.Null},
		{Kind: NoteBalanceWithdrawn, At: 7, Identity: carol},
		{Kind: NoteSuperAdminSet, At: 7, Identity: bob},
	}
	if len(f.recorder.notes) != len(want) {
		t.Fatalf("recorded %d notifications, want %d: %+v", len(f.recorder.notes), len(want), f.recorder.notes)
	}
	for i, note := range f.recorder.notes {
		if note != want[i] {
			t.Errorf("notification[%d] = %+v, want %+v", i, note, want[i])
		}
	}
}
