// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"
	"fmt"
	"sync"

	"github.com/warden-foundation/warden/lib/ref"
	"github.com/warden-foundation/warden/lib/tick"
)

// Config holds the parameters for constructing a Gateway. SuperAdmin,
// Delegate, and Ticks are required.
type Config struct {
	// SuperAdmin is the initial super-admin identity. Must be
	// non-null — a gateway that starts without a super-admin can
	// never be administered.
	SuperAdmin ref.Identity

	// Admin is the initial admin identity. May be null; the
	// super-admin can appoint one later.
	Admin ref.Identity

	// DelegateRef is the identity of the owned subsystem the gateway
	// acts on behalf of. May be null, as with SetDelegate.
	DelegateRef ref.Identity

	// Delegate is the call surface to the owned subsystem.
	Delegate Delegate

	// Ticks drives the kill-switch window.
	Ticks tick.Source

	// Recorder receives observable notifications. Nil means discard.
	Recorder Recorder

	// Transfer is the settlement channel for custody withdrawals.
	// Nil disables custody-withdraw-all (it fails as a forwarded
	// transport error).
	Transfer TransferFunc
}

// Gateway is the owned state object: role store, kill switch,
// delegate link, and custody balance, mutated only through its
// operations. A single mutex serializes operations end to end,
// including forwarded delegate calls, giving every operation
// all-or-nothing semantics with no internal suspension points.
type Gateway struct {
	mu sync.Mutex

	superAdmin  ref.Identity
	admin       ref.Identity
	delegateRef ref.Identity
	gate        killSwitch
	balance     uint64

	delegate Delegate
	ticks    tick.Source
	recorder Recorder
	transfer TransferFunc
}

// New constructs a Gateway from the given configuration.
func New(cfg Config) (*Gateway, error) {
	if cfg.SuperAdmin.IsNull() {
		return nil, fmt.Errorf("gateway: initial super-admin must not be null")
	}
	if cfg.Delegate == nil {
		return nil, fmt.Errorf("gateway: delegate call surface is required")
	}
	if cfg.Ticks == nil {
		return nil, fmt.Errorf("gateway: tick source is required")
	}
	recorder := cfg.Recorder
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Gateway{
		superAdmin:  cfg.SuperAdmin,
		admin:       cfg.Admin,
		delegateRef: cfg.DelegateRef,
		delegate:    cfg.Delegate,
		ticks:       cfg.Ticks,
		recorder:    recorder,
		transfer:    cfg.Transfer,
	}, nil
}

// authError builds the standard authorization failure.
func authError(caller ref.Identity, required string) error {
	return fmt.Errorf("%w: %q is not %s", ErrUnauthorized, caller, required)
}

// consumeGateLocked checks that a kill-switch window is open and
// returns the consume action to run once the operation has otherwise
// succeeded. Split this way so a later failure in the same operation
// leaves the window open.
func (g *Gateway) consumeGateLocked() (func(), error) {
	if !g.gate.isDisengaged(g.ticks.Now()) {
		return nil, fmt.Errorf("%w: operation requires a freshly disengaged kill switch", ErrGateEngaged)
	}
	return g.gate.consume, nil
}

// recordLocked emits a notification stamped with the current tick.
func (g *Gateway) recordLocked(note Notification) {
	note.At = g.ticks.Now()
	g.recorder.Record(note)
}

// --- Role operations ---

// SetSuperAdmin replaces the super-admin. Caller must be the current
// super-admin, the new identity must be non-null, and the kill switch
// must be freshly disengaged; the window is consumed on success.
func (g *Gateway) SetSuperAdmin(caller, newSuperAdmin ref.Identity) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.setSuperAdminLocked(caller, newSuperAdmin)
}

func (g *Gateway) setSuperAdminLocked(caller, newSuperAdmin ref.Identity) error {
	if err := g.requireSuperAdminLocked(caller); err != nil {
		return err
	}
	if newSuperAdmin.IsNull() {
		return fmt.Errorf("%w: new super-admin", ErrNullIdentity)
	}
	consume, err := g.consumeGateLocked()
	if err != nil {
		return err
	}
	consume()
	g.superAdmin = newSuperAdmin
	g.recordLocked(Notification{Kind: NoteSuperAdminSet, Identity: newSuperAdmin})
	return nil
}

// RenounceSuperAdmin sets the super-admin to the null sentinel,
// permanently locking the super-admin tier. Caller must be the
// current super-admin; requires and consumes a kill-switch window.
func (g *Gateway) RenounceSuperAdmin(caller ref.Identity) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.renounceSuperAdminLocked(caller)
}

func (g *Gateway) renounceSuperAdminLocked(caller ref.Identity) error {
	if err := g.requireSuperAdminLocked(caller); err != nil {
		return err
	}
	consume, err := g.consumeGateLocked()
	if err != nil {
		return err
	}
	consume()
	g.superAdmin = ref.Null
	return nil
}

// SetAdmin replaces the admin. Caller must be the super-admin and the
// new identity non-null. Not kill-switch gated.
func (g *Gateway) SetAdmin(caller, newAdmin ref.Identity) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.setAdminLocked(caller, newAdmin)
}

func (g *Gateway) setAdminLocked(caller, newAdmin ref.Identity) error {
	if err := g.requireSuperAdminLocked(caller); err != nil {
		return err
	}
	if newAdmin.IsNull() {
		return fmt.Errorf("%w: new admin", ErrNullIdentity)
	}
	g.admin = newAdmin
	g.recordLocked(Notification{Kind: NoteAdminSet, Identity: newAdmin})
	return nil
}

// RenounceAdmin sets the admin to the null sentinel. Broader than the
// setter: the admin may renounce itself, and the super-admin may
// remove the admin. Not kill-switch gated.
func (g *Gateway) RenounceAdmin(caller ref.Identity) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.renounceAdminLocked(caller)
}

func (g *Gateway) renounceAdminLocked(caller ref.Identity) error {
	if err := g.requireAdminLocked(caller); err != nil {
		return err
	}
	g.admin = ref.Null
	return nil
}

// --- Kill switch ---

// Disengage opens a kill-switch window of exactly DisengageWindow
// ticks from the current tick. Caller must be the super-admin. May be
// called while a window is already open to reset its expiry.
func (g *Gateway) Disengage(caller ref.Identity) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.disengageLocked(caller)
}

func (g *Gateway) disengageLocked(caller ref.Identity) error {
	if err := g.requireSuperAdminLocked(caller); err != nil {
		return err
	}
	g.gate.disengage(g.ticks.Now())
	g.recordLocked(Notification{Kind: NoteKillSwitchDisengaged})
	return nil
}

// --- Delegate link and named forwarded operations ---

// SetDelegate repoints the gateway at a new owned subsystem
// reference. Caller must be the super-admin. No null check and no
// kill-switch gate: repointing at the null identity is a valid way to
// sever the link.
func (g *Gateway) SetDelegate(caller, newDelegate ref.Identity) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.setDelegateLocked(caller, newDelegate)
}

func (g *Gateway) setDelegateLocked(caller, newDelegate ref.Identity) error {
	if err := g.requireSuperAdminLocked(caller); err != nil {
		return err
	}
	g.delegateRef = newDelegate
	g.recordLocked(Notification{Kind: NoteDelegateSet, Identity: newDelegate})
	return nil
}

// RelinquishDelegateOwnership forwards an ownership relinquishment to
// the delegate. Super-admin only; requires and consumes a kill-switch
// window. The window is consumed only if the delegate call succeeds.
func (g *Gateway) RelinquishDelegateOwnership(ctx context.Context, caller ref.Identity) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.relinquishDelegateOwnershipLocked(ctx, caller)
}

func (g *Gateway) relinquishDelegateOwnershipLocked(ctx context.Context, caller ref.Identity) error {
	if err := g.requireSuperAdminLocked(caller); err != nil {
		return err
	}
	consume, err := g.consumeGateLocked()
	if err != nil {
		return err
	}
	if err := g.delegate.RelinquishOwnership(ctx); err != nil {
		return err
	}
	consume()
	return nil
}

// TransferDelegateOwnership forwards an ownership transfer to the
// delegate. Super-admin only; requires and consumes a kill-switch
// window. The new owner is passed through unvalidated — ownership
// rules are the delegate's own business logic.
func (g *Gateway) TransferDelegateOwnership(ctx context.Context, caller, newOwner ref.Identity) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.transferDelegateOwnershipLocked(ctx, caller, newOwner)
}

func (g *Gateway) transferDelegateOwnershipLocked(ctx context.Context, caller, newOwner ref.Identity) error {
	if err := g.requireSuperAdminLocked(caller); err != nil {
		return err
	}
	consume, err := g.consumeGateLocked()
	if err != nil {
		return err
	}
	if err := g.delegate.TransferOwnership(ctx, newOwner); err != nil {
		return err
	}
	consume()
	return nil
}

// WithdrawFromDelegate forwards a full-balance withdrawal to the
// delegate. Super-admin only; recipient must be non-null. Not
// kill-switch gated, unlike the ownership operations.
func (g *Gateway) WithdrawFromDelegate(ctx context.Context, caller, recipient ref.Identity) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.withdrawFromDelegateLocked(ctx, caller, recipient)
}

func (g *Gateway) withdrawFromDelegateLocked(ctx context.Context, caller, recipient ref.Identity) error {
	if err := g.requireSuperAdminLocked(caller); err != nil {
		return err
	}
	if recipient.IsNull() {
		return fmt.Errorf("%w: withdrawal recipient", ErrNullIdentity)
	}
	if err := g.delegate.Withdraw(ctx, recipient); err != nil {
		return err
	}
	g.recordLocked(Notification{Kind: NoteBalanceWithdrawn, Identity: recipient})
	return nil
}

// WithdrawFromDelegateToCaller is the convenience wrapper: a
// withdrawal with the caller as recipient. Authorization is inherited
// from WithdrawFromDelegate, not independently weaker.
func (g *Gateway) WithdrawFromDelegateToCaller(ctx context.Context, caller ref.Identity) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.withdrawFromDelegateLocked(ctx, caller, caller)
}

// --- Custody ---

// Deposit accepts incoming value unconditionally — no authorization,
// no gate — and records the transfer observably.
func (g *Gateway) Deposit(from ref.Identity, amount uint64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.depositLocked(from, amount)
}

func (g *Gateway) depositLocked(from ref.Identity, amount uint64) {
	g.balance += amount
	g.recordLocked(Notification{Kind: NoteValueReceived, From: from, Amount: amount})
}

// CustodyWithdrawAll transfers the gateway's entire held balance to
// the recipient over the settlement channel. Super-admin only;
// recipient must be non-null. Aborts — balance untouched — if the
// transfer fails. Does not touch the kill switch.
func (g *Gateway) CustodyWithdrawAll(ctx context.Context, caller, recipient ref.Identity) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.custodyWithdrawAllLocked(ctx, caller, recipient)
}

func (g *Gateway) custodyWithdrawAllLocked(ctx context.Context, caller, recipient ref.Identity) error {
	if err := g.requireSuperAdminLocked(caller); err != nil {
		return err
	}
	if recipient.IsNull() {
		return fmt.Errorf("%w: custody withdrawal recipient", ErrNullIdentity)
	}
	if g.transfer == nil {
		return fmt.Errorf("gateway: no settlement channel configured")
	}
	if err := g.transfer(ctx, recipient, g.balance); err != nil {
		return fmt.Errorf("custody withdrawal transfer: %w", err)
	}
	g.balance = 0
	return nil
}

// --- Queries ---

// HasRole derives the identity's role by comparison against the
// stored super-admin and admin.
func (g *Gateway) HasRole(identity ref.Identity) Role {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.hasRoleLocked(identity)
}

// SuperAdmin returns the current super-admin (null after
// renunciation).
func (g *Gateway) SuperAdmin() ref.Identity {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.superAdmin
}

// Admin returns the current admin (null when unset or renounced).
func (g *Gateway) Admin() ref.Identity {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.admin
}

// DelegateRef returns the current delegate reference.
func (g *Gateway) DelegateRef() ref.Identity {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.delegateRef
}

// IsDisengaged reports whether a kill-switch window is open at the
// current tick.
func (g *Gateway) IsDisengaged() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.gate.isDisengaged(g.ticks.Now())
}

// Balance returns the value held in custody by the gateway itself,
// distinct from the delegate's own balance.
func (g *Gateway) Balance() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.balance
}
