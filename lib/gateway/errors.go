// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"errors"
	"fmt"
)

// Errors returned by gateway operations. All are precondition
// failures evaluated before any state mutation; callers classify
// with errors.Is.
var (
	// ErrUnauthorized means the caller does not hold the role the
	// operation requires (super-admin only, or admin-or-super-admin
	// for renounce-admin and the generic relay).
	ErrUnauthorized = errors.New("gateway: caller lacks the required role")

	// ErrNullIdentity means a supplied identity was the null sentinel
	// where the operation forbids it.
	ErrNullIdentity = errors.New("gateway: identity is the null sentinel")

	// ErrGateEngaged means a kill-switch-gated operation was attempted
	// while no window is open.
	ErrGateEngaged = errors.New("gateway: kill switch is engaged")

	// ErrValueNotAccepted means a value-carrying request targeted an
	// operation that does not accept attached value. Only deposits
	// and relayed operations carry value.
	ErrValueNotAccepted = errors.New("gateway: operation does not accept attached value")
)

// ForwardedError is a failure reported by the delegate in response to
// a forwarded call. The gateway propagates it to the caller unchanged
// — never reinterpreted, never swallowed.
type ForwardedError struct {
	// Op is the operation identifier that was forwarded.
	Op string

	// Message is the delegate's own error message, verbatim.
	Message string
}

func (e *ForwardedError) Error() string {
	return fmt.Sprintf("delegate rejected %q: %s", e.Op, e.Message)
}
