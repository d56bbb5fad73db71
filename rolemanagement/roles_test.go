// Copyright (C) 2025-2026, Eiger Oy. All rights reserved.
// See the file LICENSE for licensing terms.

package rolemanagement_test

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/eigerco/axelar-amplifier-solana-sub000/rolemanagement"
	"github.com/eigerco/axelar-amplifier-solana-sub000/runtime"
)

// rolesHarness is a minimal host program so role helpers get a real
// program context and PDA namespace.
type rolesHarness struct {
	rt       *runtime.Runtime
	id       solana.PublicKey
	payer    solana.PublicKey
	resource solana.PublicKey
	fn       func(*runtime.Context) error
}

func (h *rolesHarness) ID() solana.PublicKey { return h.id }

func (h *rolesHarness) Execute(ctx *runtime.Context, ix runtime.Instruction) error {
	return h.fn(ctx)
}

func newRolesHarness(t *testing.T) *rolesHarness {
	t.Helper()
	h := &rolesHarness{
		rt:       runtime.New(nil),
		id:       runtime.ProgramID("roles_harness"),
		payer:    solana.PublicKeyFromBytes([]byte("payer-wallet-payer-wallet-payer!")),
		resource: solana.PublicKeyFromBytes([]byte("resource-account-resource-accou!")),
	}
	require.NoError(t, h.rt.Register(h))
	h.rt.FundWallet(h.payer, 100_000_000_000)
	return h
}

func (h *rolesHarness) run(fn func(*runtime.Context) error, signers ...solana.PublicKey) error {
	h.fn = fn
	return h.rt.Invoke(runtime.Instruction{ProgramID: h.id}, append(signers, h.payer)...)
}

func (h *rolesHarness) holder(t *testing.T, user solana.PublicKey) rolemanagement.Roles {
	t.Helper()
	var held rolemanagement.Roles
	require.NoError(t, h.run(func(ctx *runtime.Context) error {
		var err error
		held, err = rolemanagement.Holder(ctx, h.id, h.resource, user)
		return err
	}))
	return held
}

func TestGrantAndRequireRole(t *testing.T) {
	h := newRolesHarness(t)
	operator := solana.PublicKeyFromBytes([]byte("operator-wallet-operator-wallet!"))

	// No role account yet means no roles, not an error.
	require.Equal(t, rolemanagement.Roles(0), h.holder(t, operator))

	require.NoError(t, h.run(func(ctx *runtime.Context) error {
		return rolemanagement.Grant(ctx, h.id, h.payer, h.resource, operator, rolemanagement.RoleOperator)
	}))
	require.Equal(t, rolemanagement.RoleOperator, h.holder(t, operator))

	// A second grant accumulates bits in the same account.
	require.NoError(t, h.run(func(ctx *runtime.Context) error {
		return rolemanagement.Grant(ctx, h.id, h.payer, h.resource, operator, rolemanagement.RoleFlowLimiter)
	}))
	require.Equal(t, rolemanagement.RoleOperator|rolemanagement.RoleFlowLimiter, h.holder(t, operator))

	// RequireRole needs both the role bits and the signature.
	require.NoError(t, h.run(func(ctx *runtime.Context) error {
		return rolemanagement.RequireRole(ctx, h.id, h.resource, operator, rolemanagement.RoleOperator)
	}, operator))
	err := h.run(func(ctx *runtime.Context) error {
		return rolemanagement.RequireRole(ctx, h.id, h.resource, operator, rolemanagement.RoleOperator)
	})
	require.ErrorIs(t, err, runtime.ErrMissingSignature)
	err = h.run(func(ctx *runtime.Context) error {
		return rolemanagement.RequireRole(ctx, h.id, h.resource, operator, rolemanagement.RoleMinter)
	}, operator)
	require.ErrorIs(t, err, rolemanagement.ErrMissingRole)
}

func TestRolesScopedPerResource(t *testing.T) {
	h := newRolesHarness(t)
	operator := solana.PublicKeyFromBytes([]byte("operator-wallet-operator-wallet!"))
	other := solana.PublicKeyFromBytes([]byte("other-resource-other-resource-o!"))

	require.NoError(t, h.run(func(ctx *runtime.Context) error {
		return rolemanagement.Grant(ctx, h.id, h.payer, h.resource, operator, rolemanagement.RoleOperator)
	}))

	// Standing on one resource carries nothing on another.
	err := h.run(func(ctx *runtime.Context) error {
		return rolemanagement.RequireRole(ctx, h.id, other, operator, rolemanagement.RoleOperator)
	}, operator)
	require.ErrorIs(t, err, rolemanagement.ErrMissingRole)
}

func TestAddRequiresAuthorityRole(t *testing.T) {
	h := newRolesHarness(t)
	admin := solana.PublicKeyFromBytes([]byte("admin-wallet-admin-wallet-admin!"))
	minter := solana.PublicKeyFromBytes([]byte("minter-wallet-minter-wallet-min!"))

	require.NoError(t, h.run(func(ctx *runtime.Context) error {
		return rolemanagement.Grant(ctx, h.id, h.payer, h.resource, admin, rolemanagement.RoleOperator)
	}))

	// The grantee cannot authorize its own grant.
	err := h.run(func(ctx *runtime.Context) error {
		return rolemanagement.Add(ctx, h.id, h.payer, h.resource, minter, minter, rolemanagement.RoleMinter, rolemanagement.RoleOperator)
	}, minter)
	require.ErrorIs(t, err, rolemanagement.ErrMissingRole)

	require.NoError(t, h.run(func(ctx *runtime.Context) error {
		return rolemanagement.Add(ctx, h.id, h.payer, h.resource, admin, minter, rolemanagement.RoleMinter, rolemanagement.RoleOperator)
	}, admin))
	require.Equal(t, rolemanagement.RoleMinter, h.holder(t, minter))

	require.NoError(t, h.run(func(ctx *runtime.Context) error {
		return rolemanagement.Remove(ctx, h.id, h.payer, h.resource, admin, minter, rolemanagement.RoleMinter, rolemanagement.RoleOperator)
	}, admin))
	require.Equal(t, rolemanagement.Roles(0), h.holder(t, minter))
}

func TestRevokeClosesEmptyAccount(t *testing.T) {
	h := newRolesHarness(t)
	user := solana.PublicKeyFromBytes([]byte("user-wallet-user-wallet-user-wa!"))

	require.NoError(t, h.run(func(ctx *runtime.Context) error {
		return rolemanagement.Grant(ctx, h.id, h.payer, h.resource, user, rolemanagement.RoleMinter|rolemanagement.RoleFlowLimiter)
	}))

	pda, _, err := rolemanagement.UserRolesAddress(h.id, h.resource, user)
	require.NoError(t, err)

	// Partial revoke keeps the account.
	require.NoError(t, h.run(func(ctx *runtime.Context) error {
		return rolemanagement.Revoke(ctx, h.id, h.payer, h.resource, user, rolemanagement.RoleMinter)
	}))
	require.NotNil(t, h.rt.Account(pda))
	require.Equal(t, rolemanagement.RoleFlowLimiter, h.holder(t, user))

	// Removing the last role closes the PDA and refunds rent.
	before := h.rt.Account(h.payer).Lamports
	require.NoError(t, h.run(func(ctx *runtime.Context) error {
		return rolemanagement.Revoke(ctx, h.id, h.payer, h.resource, user, rolemanagement.RoleFlowLimiter)
	}))
	require.Nil(t, h.rt.Account(pda))
	require.Greater(t, h.rt.Account(h.payer).Lamports, before)

	// Revoking from a user with no account fails.
	err = h.run(func(ctx *runtime.Context) error {
		return rolemanagement.Revoke(ctx, h.id, h.payer, h.resource, user, rolemanagement.RoleMinter)
	})
	require.ErrorIs(t, err, rolemanagement.ErrMissingRole)
}

func TestTransferMovesRoles(t *testing.T) {
	h := newRolesHarness(t)
	from := solana.PublicKeyFromBytes([]byte("from-wallet-from-wallet-from-wa!"))
	to := solana.PublicKeyFromBytes([]byte("to-wallet-to-wallet-to-wallet-t!"))

	require.NoError(t, h.run(func(ctx *runtime.Context) error {
		return rolemanagement.Grant(ctx, h.id, h.payer, h.resource, from, rolemanagement.RoleOperator)
	}))

	require.NoError(t, h.run(func(ctx *runtime.Context) error {
		return rolemanagement.Transfer(ctx, h.id, h.payer, h.resource, from, to, rolemanagement.RoleOperator)
	}, from))
	require.Equal(t, rolemanagement.Roles(0), h.holder(t, from))
	require.Equal(t, rolemanagement.RoleOperator, h.holder(t, to))

	// Only the current holder may transfer.
	err := h.run(func(ctx *runtime.Context) error {
		return rolemanagement.Transfer(ctx, h.id, h.payer, h.resource, from, to, rolemanagement.RoleOperator)
	}, from)
	require.ErrorIs(t, err, rolemanagement.ErrMissingRole)
}

func TestProposeAcceptHandshake(t *testing.T) {
	h := newRolesHarness(t)
	from := solana.PublicKeyFromBytes([]byte("from-wallet-from-wallet-from-wa!"))
	to := solana.PublicKeyFromBytes([]byte("to-wallet-to-wallet-to-wallet-t!"))

	require.NoError(t, h.run(func(ctx *runtime.Context) error {
		return rolemanagement.Grant(ctx, h.id, h.payer, h.resource, from, rolemanagement.RoleOperator)
	}))

	// Accept before any proposal exists.
	err := h.run(func(ctx *runtime.Context) error {
		return rolemanagement.Accept(ctx, h.id, h.payer, h.resource, from, to, rolemanagement.RoleOperator)
	}, to)
	require.ErrorIs(t, err, rolemanagement.ErrNoProposal)

	require.NoError(t, h.run(func(ctx *runtime.Context) error {
		return rolemanagement.Propose(ctx, h.id, h.payer, h.resource, from, to, rolemanagement.RoleOperator)
	}, from))

	// Accepting a different role set does not match the proposal.
	err = h.run(func(ctx *runtime.Context) error {
		return rolemanagement.Accept(ctx, h.id, h.payer, h.resource, from, to, rolemanagement.RoleMinter)
	}, to)
	require.ErrorIs(t, err, rolemanagement.ErrNoProposal)

	// The acceptor must sign.
	err = h.run(func(ctx *runtime.Context) error {
		return rolemanagement.Accept(ctx, h.id, h.payer, h.resource, from, to, rolemanagement.RoleOperator)
	})
	require.ErrorIs(t, err, runtime.ErrMissingSignature)

	require.NoError(t, h.run(func(ctx *runtime.Context) error {
		return rolemanagement.Accept(ctx, h.id, h.payer, h.resource, from, to, rolemanagement.RoleOperator)
	}, to))
	require.Equal(t, rolemanagement.Roles(0), h.holder(t, from))
	require.Equal(t, rolemanagement.RoleOperator, h.holder(t, to))
}

func TestAcceptFailsWhenProposerRevoked(t *testing.T) {
	h := newRolesHarness(t)
	from := solana.PublicKeyFromBytes([]byte("from-wallet-from-wallet-from-wa!"))
	to := solana.PublicKeyFromBytes([]byte("to-wallet-to-wallet-to-wallet-t!"))

	require.NoError(t, h.run(func(ctx *runtime.Context) error {
		return rolemanagement.Grant(ctx, h.id, h.payer, h.resource, from, rolemanagement.RoleOperator)
	}))
	require.NoError(t, h.run(func(ctx *runtime.Context) error {
		return rolemanagement.Propose(ctx, h.id, h.payer, h.resource, from, to, rolemanagement.RoleOperator)
	}, from))

	// The proposer loses the role between propose and accept.
	require.NoError(t, h.run(func(ctx *runtime.Context) error {
		return rolemanagement.Revoke(ctx, h.id, h.payer, h.resource, from, rolemanagement.RoleOperator)
	}))

	err := h.run(func(ctx *runtime.Context) error {
		return rolemanagement.Accept(ctx, h.id, h.payer, h.resource, from, to, rolemanagement.RoleOperator)
	}, to)
	require.ErrorIs(t, err, rolemanagement.ErrProposerRevoked)
}

func TestRolesString(t *testing.T) {
	require.Equal(t, "none", rolemanagement.Roles(0).String())
	require.Equal(t, "minter", rolemanagement.RoleMinter.String())
	require.Equal(t, "minter|operator|flow-limiter",
		(rolemanagement.RoleMinter | rolemanagement.RoleOperator | rolemanagement.RoleFlowLimiter).String())
}
