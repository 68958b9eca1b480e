// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

// Package service implements the gateway's Unix socket protocol: a
// CBOR request-response exchange, one request per connection.
//
// A request is a single CBOR map with a required "action" field, an
// optional "token" field carrying raw minted token bytes, and
// handler-specific fields. The response envelope is [Response]:
// {ok, error, data}.
//
// [SocketServer] dispatches requests by action name. Handlers come in
// two flavors: Handle registers an open action (status, deposit);
// HandleAuth registers one that requires a verified caller token and
// receives the decoded token alongside the raw request. Token
// verification (signature, expiry, audience) happens in the server
// before the handler runs, so handlers authorize against
// token.Subject without re-checking the cryptography.
//
// [Client] is the matching caller side, used by the CLI and by the
// daemon's delegate link. CallRaw passes response bytes through
// undecoded, which the relay path relies on.
package service
