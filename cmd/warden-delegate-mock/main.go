// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

// Warden-delegate-mock is a stand-in for the owned subsystem in
// integration tests and local development. It serves the delegate
// side of the gateway's socket protocol: the three named ownership
// capabilities, the credit settlement channel for custody
// withdrawals, and a pair of query actions reachable only through
// the gateway's relay path.
//
// The mock trusts its caller. The gateway daemon is the only intended
// client, and the gateway's own socket is the authenticated surface.
//
// The binary exposes seven actions:
//   - status: owner, held funds, and call counts
//   - relinquish-ownership: clear the owner
//   - transfer-ownership: reassign the owner to new_owner
//   - withdraw: pay the mock's full held funds to recipient
//   - credit: add amount to an identity's balance
//   - query-owner: current owner (relay-only in production topologies)
//   - query-balance: an identity's credited balance
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/warden-foundation/warden/lib/codec"
	"github.com/warden-foundation/warden/lib/process"
	"github.com/warden-foundation/warden/lib/ref"
	"github.com/warden-foundation/warden/lib/service"
	"github.com/warden-foundation/warden/lib/version"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var (
		showVersion bool
		socketPath  string
		owner       string
		funds       uint64
	)
	flag.BoolVar(&showVersion, "version", false, "print version information and exit")
	flag.StringVar(&socketPath, "socket", "", "unix socket path to listen on (required)")
	flag.StringVar(&owner, "owner", "", "initial owner identity (required)")
	flag.Uint64Var(&funds, "funds", 0, "initial held funds, paid out by withdraw")
	flag.Parse()

	if showVersion {
		fmt.Printf("warden-delegate-mock %s\n", version.Info())
		return nil
	}
	if socketPath == "" {
		return fmt.Errorf("--socket is required")
	}
	ownerRef, err := ref.New(owner)
	if err != nil {
		return fmt.Errorf("--owner: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	mock := &delegateMock{
		owner:    ownerRef,
		funds:    funds,
		balances: make(map[ref.Identity]uint64),
	}

	socketServer := service.NewSocketServer(socketPath, logger, nil)
	socketServer.Handle("status", mock.handleStatus)
	socketServer.Handle("relinquish-ownership", mock.handleRelinquish)
	socketServer.Handle("transfer-ownership", mock.handleTransfer)
	socketServer.Handle("withdraw", mock.handleWithdraw)
	socketServer.Handle("credit", mock.handleCredit)
	socketServer.Handle("query-owner", mock.handleQueryOwner)
	socketServer.Handle("query-balance", mock.handleQueryBalance)

	logger.Info("delegate mock running",
		"socket", socketPath,
		"owner", ownerRef,
		"funds", funds,
	)

	return socketServer.Serve(ctx)
}

// delegateMock holds the mock's ownership and balance state. All
// mutation happens under mu; handlers run on per-connection
// goroutines.
type delegateMock struct {
	mu       sync.Mutex
	owner    ref.Identity
	funds    uint64
	balances map[ref.Identity]uint64
	calls    uint64
}

type transferRequest struct {
	NewOwner ref.Identity `cbor:"new_owner"`
}

type withdrawRequest struct {
	Recipient ref.Identity `cbor:"recipient"`
}

type creditRequest struct {
	Identity ref.Identity `cbor:"identity"`
	Amount   uint64       `cbor:"amount"`
}

// relayedBalanceRequest is the shape of a balance query arriving
// through the gateway's relay: the caller's parameters ride in the
// "payload" field, forwarded verbatim.
type relayedBalanceRequest struct {
	Payload struct {
		Identity ref.Identity `cbor:"identity"`
	} `cbor:"payload"`
}

type statusResponse struct {
	Owner ref.Identity `cbor:"owner"`
	Funds uint64       `cbor:"funds"`
	Calls uint64       `cbor:"calls"`
}

func (m *delegateMock) handleStatus(ctx context.Context, raw []byte) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return statusResponse{Owner: m.owner, Funds: m.funds, Calls: m.calls}, nil
}

func (m *delegateMock) handleRelinquish(ctx context.Context, raw []byte) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.owner.IsNull() {
		return nil, fmt.Errorf("ownership already relinquished")
	}
	m.owner = ref.Null
	return nil, nil
}

func (m *delegateMock) handleTransfer(ctx context.Context, raw []byte) (any, error) {
	var req transferRequest
	if err := codec.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	if req.NewOwner.IsNull() {
		return nil, fmt.Errorf("new_owner must not be null")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.owner = req.NewOwner
	return nil, nil
}

func (m *delegateMock) handleWithdraw(ctx context.Context, raw []byte) (any, error) {
	var req withdrawRequest
	if err := codec.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	if req.Recipient.IsNull() {
		return nil, fmt.Errorf("recipient must not be null")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.balances[req.Recipient] += m.funds
	m.funds = 0
	return nil, nil
}

func (m *delegateMock) handleCredit(ctx context.Context, raw []byte) (any, error) {
	var req creditRequest
	if err := codec.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	if req.Identity.IsNull() {
		return nil, fmt.Errorf("identity must not be null")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.balances[req.Identity] += req.Amount
	return nil, nil
}

func (m *delegateMock) handleQueryOwner(ctx context.Context, raw []byte) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return map[string]any{"owner": m.owner}, nil
}

func (m *delegateMock) handleQueryBalance(ctx context.Context, raw []byte) (any, error) {
	var req relayedBalanceRequest
	if err := codec.Unmarshal(raw, &req); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return map[string]any{"balance": m.balances[req.Payload.Identity]}, nil
}
