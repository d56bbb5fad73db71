// Copyright (C) 2025-2026, Eiger Oy. All rights reserved.
// See the file LICENSE for licensing terms.

// Package rolemanagement implements per-resource role bitsets. Roles are
// stored in a PDA keyed by (resource, user), so an authority's standing
// on one resource can never be used against another: every check
// re-derives the PDA from the resource at hand instead of trusting a
// caller-supplied account.
package rolemanagement

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"

	"github.com/eigerco/axelar-amplifier-solana-sub000/discriminator"
	"github.com/eigerco/axelar-amplifier-solana-sub000/runtime"
)

// Roles is a bitset of capabilities on one resource.
type Roles uint8

const (
	RoleMinter Roles = 1 << iota
	RoleOperator
	RoleFlowLimiter
)

var (
	ErrMissingRole     = errors.New("authority is missing a required role")
	ErrNoProposal      = errors.New("no matching role proposal")
	ErrProposerRevoked = errors.New("proposer no longer holds the proposed roles")
)

var (
	userRolesDiscriminator = discriminator.Account("UserRoles")
	proposalDiscriminator  = discriminator.Account("RoleProposal")
)

const (
	userRolesSeed = "user-roles"
	proposalSeed  = "role-proposal"
)

// Contains reports whether r includes every role in other.
func (r Roles) Contains(other Roles) bool {
	return r&other == other
}

func (r Roles) String() string {
	if r == 0 {
		return "none"
	}
	var parts []string
	if r.Contains(RoleMinter) {
		parts = append(parts, "minter")
	}
	if r.Contains(RoleOperator) {
		parts = append(parts, "operator")
	}
	if r.Contains(RoleFlowLimiter) {
		parts = append(parts, "flow-limiter")
	}
	return strings.Join(parts, "|")
}

// UserRoles is the (resource, user)-keyed role account.
type UserRoles struct {
	Roles Roles
	Bump  uint8
}

// RoleProposal holds a proposed role handover until accepted.
type RoleProposal struct {
	Roles Roles
	Bump  uint8
}

// UserRolesAddress derives the role PDA of user on resource under the
// given program.
func UserRolesAddress(program, resource, user solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress(
		[][]byte{[]byte(userRolesSeed), resource[:], user[:]},
		program,
	)
}

// ProposalAddress derives the role-proposal PDA for a (resource, from,
// to) handover.
func ProposalAddress(program, resource, from, to solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress(
		[][]byte{[]byte(proposalSeed), resource[:], from[:], to[:]},
		program,
	)
}

// Holder returns the roles user holds on resource. A missing role
// account means no roles.
func Holder(ctx *runtime.Context, program, resource, user solana.PublicKey) (Roles, error) {
	pda, _, err := UserRolesAddress(program, resource, user)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	if !ctx.Exists(pda) {
		return 0, nil
	}
	var state UserRoles
	if err := ctx.ReadState(program, pda, userRolesDiscriminator, &state); err != nil {
		return 0, err
	}
	return state.Roles, nil
}

// RequireRole fails unless authority signed and holds every role in
// required on resource. The authority's role PDA is re-derived here, not
// accepted from the caller.
func RequireRole(ctx *runtime.Context, program, resource, authority solana.PublicKey, required Roles) error {
	if err := ctx.RequireSigner(authority); err != nil {
		return err
	}
	held, err := Holder(ctx, program, resource, authority)
	if err != nil {
		return err
	}
	if !held.Contains(required) {
		return fmt.Errorf("%w: %s holds %s, needs %s", ErrMissingRole, authority, held, required)
	}
	return nil
}

// Grant adds roles to user on resource without an authority check. It is
// the primitive used during resource initialization; instruction-level
// grants go through Add.
func Grant(ctx *runtime.Context, program, payer, resource, user solana.PublicKey, roles Roles) error {
	pda, bump, err := UserRolesAddress(program, resource, user)
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	state := UserRoles{Bump: bump}
	if ctx.Exists(pda) {
		if err := ctx.ReadState(program, pda, userRolesDiscriminator, &state); err != nil {
			return err
		}
	} else {
		if _, _, err := ctx.InitPDA([][]byte{[]byte(userRolesSeed), resource[:], user[:]}, discriminator.Length+2, payer); err != nil {
			return err
		}
	}
	state.Roles |= roles
	return ctx.WriteState(program, pda, userRolesDiscriminator, &state)
}

// Revoke removes roles from user on resource without an authority check.
// The role account is closed once its last role is removed, refunding
// rent to the payer.
func Revoke(ctx *runtime.Context, program, payer, resource, user solana.PublicKey, roles Roles) error {
	pda, _, err := UserRolesAddress(program, resource, user)
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	if !ctx.Exists(pda) {
		return fmt.Errorf("%w: %s has no roles on %s", ErrMissingRole, user, resource)
	}
	var state UserRoles
	if err := ctx.ReadState(program, pda, userRolesDiscriminator, &state); err != nil {
		return err
	}
	state.Roles &^= roles
	if state.Roles == 0 {
		return ctx.Close(pda, payer)
	}
	return ctx.WriteState(program, pda, userRolesDiscriminator, &state)
}

// Add grants roles to user, authorized by an authority holding
// requiredAuthorityRoles on the same resource.
func Add(ctx *runtime.Context, program, payer, resource, authority, user solana.PublicKey, roles, requiredAuthorityRoles Roles) error {
	if err := RequireRole(ctx, program, resource, authority, requiredAuthorityRoles); err != nil {
		return err
	}
	return Grant(ctx, program, payer, resource, user, roles)
}

// Remove revokes roles from user, authorized by an authority holding
// requiredAuthorityRoles on the same resource.
func Remove(ctx *runtime.Context, program, payer, resource, authority, user solana.PublicKey, roles, requiredAuthorityRoles Roles) error {
	if err := RequireRole(ctx, program, resource, authority, requiredAuthorityRoles); err != nil {
		return err
	}
	return Revoke(ctx, program, payer, resource, user, roles)
}

// Propose records a pending handover of roles from the signer to another
// user.
func Propose(ctx *runtime.Context, program, payer, resource, from, to solana.PublicKey, roles Roles) error {
	if err := RequireRole(ctx, program, resource, from, roles); err != nil {
		return err
	}
	pda, bump, err := ProposalAddress(program, resource, from, to)
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	if ctx.Exists(pda) {
		return fmt.Errorf("%w: proposal %s", runtime.ErrAlreadyInitialized, pda)
	}
	if _, _, err := ctx.InitPDA([][]byte{[]byte(proposalSeed), resource[:], from[:], to[:]}, discriminator.Length+2, payer); err != nil {
		return err
	}
	return ctx.WriteState(program, pda, proposalDiscriminator, &RoleProposal{Roles: roles, Bump: bump})
}

// Accept consumes a matching proposal, atomically moving the proposed
// roles from proposer to acceptor. Fails if the proposer no longer holds
// them.
func Accept(ctx *runtime.Context, program, payer, resource, from, to solana.PublicKey, roles Roles) error {
	if err := ctx.RequireSigner(to); err != nil {
		return err
	}
	pda, _, err := ProposalAddress(program, resource, from, to)
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	if !ctx.Exists(pda) {
		return fmt.Errorf("%w: from %s to %s", ErrNoProposal, from, to)
	}
	var proposal RoleProposal
	if err := ctx.ReadState(program, pda, proposalDiscriminator, &proposal); err != nil {
		return err
	}
	if !proposal.Roles.Contains(roles) || !roles.Contains(proposal.Roles) {
		return fmt.Errorf("%w: proposed %s, accepting %s", ErrNoProposal, proposal.Roles, roles)
	}

	held, err := Holder(ctx, program, resource, from)
	if err != nil {
		return err
	}
	if !held.Contains(roles) {
		return fmt.Errorf("%w: %s", ErrProposerRevoked, from)
	}

	if err := ctx.Close(pda, from); err != nil {
		return err
	}
	if err := Grant(ctx, program, payer, resource, to, roles); err != nil {
		return err
	}
	return Revoke(ctx, program, from, resource, from, roles)
}

// Transfer moves roles from the signer to another user in one step.
func Transfer(ctx *runtime.Context, program, payer, resource, from, to solana.PublicKey, roles Roles) error {
	if err := RequireRole(ctx, program, resource, from, roles); err != nil {
		return err
	}
	if err := Grant(ctx, program, payer, resource, to, roles); err != nil {
		return err
	}
	return Revoke(ctx, program, from, resource, from, roles)
}
