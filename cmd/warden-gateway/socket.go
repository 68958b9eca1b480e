// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/warden-foundation/warden/lib/codec"
	"github.com/warden-foundation/warden/lib/config"
	"github.com/warden-foundation/warden/lib/gateway"
	"github.com/warden-foundation/warden/lib/journal"
	"github.com/warden-foundation/warden/lib/ref"
	"github.com/warden-foundation/warden/lib/service"
	"github.com/warden-foundation/warden/lib/tick"
	"github.com/warden-foundation/warden/lib/token"
)

// gatewayService binds the gateway state object to the socket
// protocol. Handlers are thin: they pull payload and value out of the
// request envelope and hand the rest to the gateway's dispatch table.
type gatewayService struct {
	gateway   *gateway.Gateway
	journal   *journal.Journal
	ticks     tick.Source
	policy    *config.RelayPolicy
	logger    *slog.Logger
	startedAt time.Time
}

// requestEnvelope is the operation-bearing part of every request:
// parameters as verbatim CBOR in "payload", attached value in
// "value". The server has already routed on "action" and verified
// "token".
type requestEnvelope struct {
	Payload codec.RawMessage `cbor:"payload"`
	Value   uint64           `cbor:"value"`
}

// registerActions registers the full socket surface: one handler per
// named operation, the authenticated fallback for the relay, and the
// status/info queries.
//
// The "status" action is unauthenticated (pure liveness check). All
// other actions require a valid caller token; role checks happen
// inside the gateway, never here.
func (gs *gatewayService) registerActions(server *service.SocketServer) {
	server.Handle("status", gs.handleStatus)
	server.HandleAuth("info", gs.handleInfo)

	for _, op := range []string{
		gateway.OpSetSuperAdmin,
		gateway.OpRenounceSuperAdmin,
		gateway.OpSetAdmin,
		gateway.OpRenounceAdmin,
		gateway.OpSetDelegate,
		gateway.OpDisengageKillSwitch,
		gateway.OpTransferDelegateOwnership,
		gateway.OpRelinquishDelegateOwnership,
		gateway.OpWithdrawFromDelegate,
		gateway.OpWithdrawFromDelegateToCaller,
		gateway.OpCustodyWithdrawAll,
		gateway.OpDeposit,
	} {
		server.HandleAuth(op, gs.namedHandler(op))
	}

	server.HandleAuthFallback(gs.handleRelay)
}

// namedHandler builds the HandleAuth adapter for one named operation.
func (gs *gatewayService) namedHandler(op string) service.AuthFunc {
	return func(ctx context.Context, tok *token.Token, raw []byte) (any, error) {
		var envelope requestEnvelope
		if err := codec.Unmarshal(raw, &envelope); err != nil {
			return nil, fmt.Errorf("decoding request: %w", err)
		}
		_, err := gs.gateway.Dispatch(ctx, tok.Subject, op, envelope.Payload, envelope.Value)
		return nil, err
	}
}

// handleRelay forwards an operation the gateway has no static
// knowledge of. The relay policy is consulted first: a pattern file,
// when configured, limits which identifiers leave the gateway at all.
// Role authorization happens inside Dispatch.
func (gs *gatewayService) handleRelay(ctx context.Context, tok *token.Token, action string, raw []byte) (any, error) {
	if !gs.policy.Admits(action) {
		gs.logger.Debug("relay denied by policy", "operation", action, "caller", tok.Subject)
		return nil, fmt.Errorf("relay policy does not admit operation %q", action)
	}
	gs.logger.Debug("relaying operation", "operation", action, "caller", tok.Subject)

	var envelope requestEnvelope
	if err := codec.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}

	response, err := gs.gateway.Dispatch(ctx, tok.Subject, action, envelope.Payload, envelope.Value)
	if err != nil {
		return nil, err
	}
	if len(response) == 0 {
		return nil, nil
	}
	return codec.RawMessage(response), nil
}

// statusResponse is the unauthenticated liveness response. It reveals
// nothing about role holders or balances.
type statusResponse struct {
	UptimeSeconds float64   `cbor:"uptime_seconds"`
	Tick          tick.Tick `cbor:"tick"`
	Disengaged    bool      `cbor:"disengaged"`
}

func (gs *gatewayService) handleStatus(ctx context.Context, raw []byte) (any, error) {
	return statusResponse{
		UptimeSeconds: time.Since(gs.startedAt).Seconds(),
		Tick:          gs.ticks.Now(),
		Disengaged:    gs.gateway.IsDisengaged(),
	}, nil
}

// infoResponse answers the authenticated diagnostic query: role
// holders, delegate link, kill-switch state, custody balance, and the
// journal's position.
type infoResponse struct {
	SuperAdmin     ref.Identity `cbor:"super_admin"`
	Admin          ref.Identity `cbor:"admin"`
	Delegate       ref.Identity `cbor:"delegate"`
	Tick           tick.Tick    `cbor:"tick"`
	Disengaged     bool         `cbor:"disengaged"`
	CustodyBalance uint64       `cbor:"custody_balance"`
	JournalLength  int          `cbor:"journal_length"`
	JournalHead    string       `cbor:"journal_head"`
}

// handleInfo requires a valid token but no role: any authenticated
// identity may inspect the gateway it is subject to.
func (gs *gatewayService) handleInfo(ctx context.Context, tok *token.Token, raw []byte) (any, error) {
	return infoResponse{
		SuperAdmin:     gs.gateway.SuperAdmin(),
		Admin:          gs.gateway.Admin(),
		Delegate:       gs.gateway.DelegateRef(),
		Tick:           gs.ticks.Now(),
		Disengaged:     gs.gateway.IsDisengaged(),
		CustodyBalance: gs.gateway.Balance(),
		JournalLength:  gs.journal.Len(),
		JournalHead:    gs.journal.Head().String(),
	}, nil
}
