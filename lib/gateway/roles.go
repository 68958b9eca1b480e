// Copyright 2026 The Warden Authors
// SPDX-License-Identifier: Apache-2.0

package gateway

import "github.com/warden-foundation/warden/lib/ref"

// Role is the outcome of a role query. There is no stored role enum
// and no inheritance: membership is a pure comparison against the two
// stored identities, computed fresh on every check.
type Role int

const (
	// RoleNone means the identity matches neither stored identity.
	RoleNone Role = iota

	// RoleAdmin means the identity matches the stored admin.
	RoleAdmin

	// RoleSuperAdmin means the identity matches the stored super-admin.
	RoleSuperAdmin
)

// String returns "none", "admin", or "super-admin".
func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleSuperAdmin:
		return "super-admin"
	default:
		return "none"
	}
}

// hasRoleLocked derives the caller's role by comparison. The null
// sentinel never holds a role, even when a stored identity is null
// after a renunciation — otherwise an anonymous caller would inherit
// a renounced role.
func (g *Gateway) hasRoleLocked(identity ref.Identity) Role {
	if identity.IsNull() {
		return RoleNone
	}
	if identity == g.superAdmin {
		return RoleSuperAdmin
	}
	if identity == g.admin {
		return RoleAdmin
	}
	return RoleNone
}

// requireSuperAdminLocked rejects callers that are not the current
// super-admin.
func (g *Gateway) requireSuperAdminLocked(caller ref.Identity) error {
	if g.hasRoleLocked(caller) != RoleSuperAdmin {
		return authError(caller, "super-admin")
	}
	return nil
}

// requireAdminLocked rejects callers that are neither the admin nor
// the super-admin. This is the baseline tier for the generic relay
// and for admin renunciation.
func (g *Gateway) requireAdminLocked(caller ref.Identity) error {
	role := g.hasRoleLocked(caller)
	if role != RoleAdmin && role != RoleSuperAdmin {
		return authError(caller, "admin or super-admin")
	}
	return nil
}
