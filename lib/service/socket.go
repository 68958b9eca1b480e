// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/warden-foundation/warden/lib/codec"
	"github.com/warden-foundation/warden/lib/token"
)

// ActionFunc processes a socket request for a specific action. The
// raw parameter is the full CBOR request (including the "action"
// field). The handler decodes action-specific fields from this raw
// message.
//
// Return a value to include in the success response, or an error for
// a failure response. If the returned value is nil, the response
// contains only {ok: true}. If non-nil, the value is marshaled as
// CBOR and placed in the response's "data" field.
type ActionFunc func(ctx context.Context, raw []byte) (any, error)

// AuthFunc is an ActionFunc that additionally receives the verified
// caller token. The server has already checked the signature, expiry,
// and audience before invoking it; the handler trusts tok.Subject.
type AuthFunc func(ctx context.Context, tok *token.Token, raw []byte) (any, error)

// AuthFallbackFunc handles authenticated requests whose action has no
// registered handler. It receives the action name in addition to the
// verified token and raw request, since unlike an AuthFunc it serves
// many actions.
type AuthFallbackFunc func(ctx context.Context, tok *token.Token, action string, raw []byte) (any, error)

// AuthConfig supplies what the server needs to verify caller tokens.
type AuthConfig struct {
	// PublicKey verifies token signatures.
	PublicKey []byte

	// Audience is this gateway's token scope. Tokens minted for a
	// different audience are rejected.
	Audience string

	// Now overrides the expiry clock. Nil means time.Now; set it
	// only in tests.
	Now func() time.Time
}

// Response is the wire-format envelope for all socket protocol
// responses. Handlers return a result value (or nil) and an error;
// the server wraps these into a Response before encoding.
type Response struct {
	OK    bool             `cbor:"ok"`
	Error string           `cbor:"error,omitempty"`
	Data  codec.RawMessage `cbor:"data,omitempty"`
}

// SocketServer serves a CBOR request-response protocol on a Unix
// socket. Each connection handles exactly one request-response cycle:
// the client writes a CBOR value, the server processes it and writes
// a CBOR response, then the connection closes.
//
// Actions are registered with Handle or HandleAuth before calling
// Serve. Unknown actions receive an error response unless a fallback
// is registered with HandleAuthFallback.
type SocketServer struct {
	socketPath string
	handlers   map[string]ActionFunc
	fallback   func(ctx context.Context, action string, raw []byte) (any, error)
	logger     *slog.Logger
	auth       *AuthConfig

	// activeConnections tracks in-flight request handlers for
	// graceful shutdown. Serve waits for all active connections to
	// complete before returning.
	activeConnections sync.WaitGroup
}

// NewSocketServer creates a server that will listen on socketPath.
// auth may be nil for servers that expose only unauthenticated
// actions; HandleAuth panics on such a server.
func NewSocketServer(socketPath string, logger *slog.Logger, auth *AuthConfig) *SocketServer {
	return &SocketServer{
		socketPath: socketPath,
		handlers:   make(map[string]ActionFunc),
		logger:     logger,
		auth:       auth,
	}
}

// Handle registers an unauthenticated handler for the given action
// name. Panics if called after Serve has started or if the action is
// already registered.
func (s *SocketServer) Handle(action string, handler ActionFunc) {
	if _, exists := s.handlers[action]; exists {
		panic(fmt.Sprintf("service.SocketServer: duplicate handler for action %q", action))
	}
	s.handlers[action] = handler
}

// HandleAuth registers a handler that requires a valid caller token.
// The server extracts the request's "token" field, verifies it
// against the AuthConfig, and rejects the request before the handler
// runs if verification fails.
func (s *SocketServer) HandleAuth(action string, handler AuthFunc) {
	if s.auth == nil {
		panic(fmt.Sprintf("service.SocketServer: HandleAuth(%q) on a server with no AuthConfig", action))
	}
	s.Handle(action, func(ctx context.Context, raw []byte) (any, error) {
		tok, err := s.verifyToken(raw)
		if err != nil {
			return nil, err
		}
		return handler(ctx, tok, raw)
	})
}

// HandleAuthFallback registers an authenticated handler for every
// action with no registered handler. Without a fallback, unknown
// actions receive an error response. Panics if the server has no
// AuthConfig or a fallback is already registered.
func (s *SocketServer) HandleAuthFallback(handler AuthFallbackFunc) {
	if s.auth == nil {
		panic("service.SocketServer: HandleAuthFallback on a server with no AuthConfig")
	}
	if s.fallback != nil {
		panic("service.SocketServer: duplicate fallback handler")
	}
	s.fallback = func(ctx context.Context, action string, raw []byte) (any, error) {
		tok, err := s.verifyToken(raw)
		if err != nil {
			return nil, err
		}
		return handler(ctx, tok, action, raw)
	}
}

// verifyToken extracts and verifies the "token" field of a request.
func (s *SocketServer) verifyToken(raw []byte) (*token.Token, error) {
	var header struct {
		Token []byte `cbor:"token"`
	}
	if err := codec.Unmarshal(raw, &header); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}
	if len(header.Token) == 0 {
		return nil, errors.New("missing required field: token")
	}
	now := time.Now
	if s.auth.Now != nil {
		now = s.auth.Now
	}
	return token.VerifyForGatewayAt(s.auth.PublicKey, header.Token, s.auth.Audience, now())
}

// Serve starts accepting connections on the Unix socket and
// dispatches requests to registered action handlers. Blocks until ctx
// is cancelled, then stops accepting new connections and waits for
// active handlers to complete.
//
// Any existing socket file at the configured path is removed before
// listening. The socket file is removed on return.
func (s *SocketServer) Serve(ctx context.Context) error {
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale socket %s: %w", s.socketPath, err)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.socketPath, err)
	}
	defer func() {
		listener.Close()
		os.Remove(s.socketPath)
	}()

	// Unblock Accept when the context is cancelled.
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	s.logger.Info("socket server listening", "path", s.socketPath)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			if errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}

		s.activeConnections.Add(1)
		go func() {
			defer s.activeConnections.Done()
			s.handleConnection(ctx, conn)
		}()
	}

	s.activeConnections.Wait()
	return nil
}

// readTimeout is how long we wait for the client to send its request.
// A well-behaved client sends the request immediately after
// connecting.
const readTimeout = 30 * time.Second

// writeTimeout is how long we wait for the response to be written.
const writeTimeout = 10 * time.Second

// maxRequestSize is the maximum size of a single CBOR request. 1 MB
// is generous for any gateway operation; relay payloads are opaque
// but bounded by the same cap.
const maxRequestSize = 1024 * 1024

// handleConnection processes one request-response cycle.
func (s *SocketServer) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(readTimeout))

	// Decode one CBOR value from the connection. CBOR is self-
	// delimiting so no framing protocol is needed. LimitReader
	// prevents a malicious client from exhausting memory.
	var raw codec.RawMessage
	if err := codec.NewDecoder(io.LimitReader(conn, maxRequestSize)).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			// Client connected but sent nothing.
			return
		}
		s.writeError(conn, fmt.Sprintf("invalid request: %v", err))
		return
	}

	// Extract the action field for routing.
	var header struct {
		Action string `cbor:"action"`
	}
	if err := codec.Unmarshal(raw, &header); err != nil {
		s.writeError(conn, fmt.Sprintf("invalid request: %v", err))
		return
	}
	if header.Action == "" {
		s.writeError(conn, "missing required field: action")
		return
	}

	handler, exists := s.handlers[header.Action]
	if !exists {
		if s.fallback == nil {
			s.writeError(conn, fmt.Sprintf("unknown action %q", header.Action))
			return
		}
		handler = func(ctx context.Context, raw []byte) (any, error) {
			return s.fallback(ctx, header.Action, raw)
		}
	}

	result, err := handler(ctx, []byte(raw))
	if err != nil {
		s.logger.Debug("action failed",
			"action", header.Action,
			"error", err,
		)
		s.writeError(conn, err.Error())
		return
	}

	s.writeSuccess(conn, result)
}

// writeError sends a failure response: {ok: false, error: "..."}.
// Write failures are logged at debug level — the connection is
// closing regardless, and the caller has already received the error.
func (s *SocketServer) writeError(conn net.Conn, message string) {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := codec.NewEncoder(conn).Encode(Response{
		OK:    false,
		Error: message,
	}); err != nil {
		s.logger.Debug("failed to write error response", "error", err)
	}
}

// writeSuccess sends a success response. If result is nil, the
// response is {ok: true}. If non-nil, the value is marshaled as CBOR
// and placed in the "data" field: {ok: true, data: <cbor>}.
func (s *SocketServer) writeSuccess(conn net.Conn, result any) {
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))

	response := Response{OK: true}

	if result != nil {
		data, err := codec.Marshal(result)
		if err != nil {
			s.writeError(conn, fmt.Sprintf("internal: marshaling response: %v", err))
			return
		}
		response.Data = data
	}

	if err := codec.NewEncoder(conn).Encode(response); err != nil {
		s.logger.Debug("failed to write success response", "error", err)
	}
}
