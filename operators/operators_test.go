// Copyright (C) 2025-2026, Eiger Oy. All rights reserved.
// See the file LICENSE for licensing terms.

package operators_test

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/eigerco/axelar-amplifier-solana-sub000/operators"
	"github.com/eigerco/axelar-amplifier-solana-sub000/runtime"
)

type testEnv struct {
	rt    *runtime.Runtime
	payer solana.PublicKey
	owner solana.PublicKey
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		rt:    runtime.New(nil),
		payer: solana.PublicKeyFromBytes([]byte("payer-wallet-payer-wallet-payer!")),
		owner: solana.PublicKeyFromBytes([]byte("owner-wallet-owner-wallet-owner!")),
	}
	require.NoError(t, env.rt.Register(operators.New()))
	env.rt.FundWallet(env.payer, 10_000_000_000)

	env.invoke(t, "initialize", &operators.InitializeParams{
		Payer: env.payer,
		Owner: env.owner,
	}, env.payer)
	return env
}

func (env *testEnv) invoke(t *testing.T, method string, params interface{}, signers ...solana.PublicKey) {
	t.Helper()
	require.NoError(t, env.tryInvoke(t, method, params, signers...))
}

func (env *testEnv) tryInvoke(t *testing.T, method string, params interface{}, signers ...solana.PublicKey) error {
	t.Helper()
	ix, err := operators.NewInstruction(method, params)
	require.NoError(t, err)
	return env.rt.Invoke(ix, signers...)
}

// isOperator checks registry membership from inside a program context,
// the way dependent programs do.
func (env *testEnv) isOperator(t *testing.T, pk solana.PublicKey) bool {
	t.Helper()
	pda, _, err := operators.OperatorAddress(pk)
	require.NoError(t, err)
	return env.rt.Account(pda) != nil
}

func TestInitializeOnce(t *testing.T) {
	env := newTestEnv(t)
	err := env.tryInvoke(t, "initialize", &operators.InitializeParams{
		Payer: env.payer,
		Owner: env.owner,
	}, env.payer)
	require.ErrorIs(t, err, runtime.ErrAlreadyInitialized)
}

func TestAddAndRemoveOperator(t *testing.T) {
	env := newTestEnv(t)
	operator := solana.PublicKeyFromBytes([]byte("operator-wallet-operator-wallet!"))

	require.False(t, env.isOperator(t, operator))
	env.invoke(t, "add_operator", &operators.OperatorParams{
		Payer:    env.payer,
		Owner:    env.owner,
		Operator: operator,
	}, env.payer, env.owner)
	require.True(t, env.isOperator(t, operator))

	// Adding again is a no-op.
	env.invoke(t, "add_operator", &operators.OperatorParams{
		Payer:    env.payer,
		Owner:    env.owner,
		Operator: operator,
	}, env.payer, env.owner)
	require.True(t, env.isOperator(t, operator))

	env.invoke(t, "remove_operator", &operators.OperatorParams{
		Payer:    env.payer,
		Owner:    env.owner,
		Operator: operator,
	}, env.payer, env.owner)
	require.False(t, env.isOperator(t, operator))

	// Removing an unknown operator fails.
	err := env.tryInvoke(t, "remove_operator", &operators.OperatorParams{
		Payer:    env.payer,
		Owner:    env.owner,
		Operator: operator,
	}, env.payer, env.owner)
	require.ErrorIs(t, err, operators.ErrNotOperator)
}

func TestOnlyOwnerCurates(t *testing.T) {
	env := newTestEnv(t)
	intruder := solana.PublicKeyFromBytes([]byte("intruder-wallet-intruder-wallet!"))
	operator := solana.PublicKeyFromBytes([]byte("operator-wallet-operator-wallet!"))

	// A non-owner cannot add, even when signing.
	err := env.tryInvoke(t, "add_operator", &operators.OperatorParams{
		Payer:    env.payer,
		Owner:    intruder,
		Operator: operator,
	}, env.payer, intruder)
	require.ErrorIs(t, err, operators.ErrNotOwner)

	// The real owner must actually sign.
	err = env.tryInvoke(t, "add_operator", &operators.OperatorParams{
		Payer:    env.payer,
		Owner:    env.owner,
		Operator: operator,
	}, env.payer)
	require.ErrorIs(t, err, runtime.ErrMissingSignature)
}

func TestOwnershipHandshake(t *testing.T) {
	env := newTestEnv(t)
	next := solana.PublicKeyFromBytes([]byte("next-owner-wallet-next-owner-wa!"))
	stranger := solana.PublicKeyFromBytes([]byte("stranger-wallet-stranger-walle!!"))

	// Accepting before a proposal exists fails.
	err := env.tryInvoke(t, "accept_ownership", &operators.OwnershipParams{
		Owner: env.owner,
		To:    next,
	}, next)
	require.ErrorIs(t, err, operators.ErrNoPendingOwner)

	env.invoke(t, "propose_ownership", &operators.OwnershipParams{
		Owner: env.owner,
		To:    next,
	}, env.owner)

	// Only the proposed key may accept.
	err = env.tryInvoke(t, "accept_ownership", &operators.OwnershipParams{
		Owner: env.owner,
		To:    stranger,
	}, stranger)
	require.ErrorIs(t, err, operators.ErrNoPendingOwner)

	env.invoke(t, "accept_ownership", &operators.OwnershipParams{
		Owner: env.owner,
		To:    next,
	}, next)

	// The old owner has lost its standing.
	operator := solana.PublicKeyFromBytes([]byte("operator-wallet-operator-wallet!"))
	err = env.tryInvoke(t, "add_operator", &operators.OperatorParams{
		Payer:    env.payer,
		Owner:    env.owner,
		Operator: operator,
	}, env.payer, env.owner)
	require.ErrorIs(t, err, operators.ErrNotOwner)

	env.invoke(t, "add_operator", &operators.OperatorParams{
		Payer:    env.payer,
		Owner:    next,
		Operator: operator,
	}, env.payer, next)
	require.True(t, env.isOperator(t, operator))
}

func TestTransferOperatorship(t *testing.T) {
	env := newTestEnv(t)
	operator := solana.PublicKeyFromBytes([]byte("operator-wallet-operator-wallet!"))
	successor := solana.PublicKeyFromBytes([]byte("successor-operator-successor-op!"))
	env.rt.FundWallet(operator, 10_000_000_000)

	env.invoke(t, "add_operator", &operators.OperatorParams{
		Payer:    env.payer,
		Owner:    env.owner,
		Operator: operator,
	}, env.payer, env.owner)

	// A non-operator cannot hand over a registration.
	err := env.tryInvoke(t, "transfer_operatorship", &operators.TransferOperatorshipParams{
		Payer: env.payer,
		From:  successor,
		To:    operator,
	}, env.payer, successor)
	require.ErrorIs(t, err, operators.ErrNotOperator)

	// The departing operator must sign.
	err = env.tryInvoke(t, "transfer_operatorship", &operators.TransferOperatorshipParams{
		Payer: env.payer,
		From:  operator,
		To:    successor,
	}, env.payer)
	require.ErrorIs(t, err, runtime.ErrMissingSignature)

	env.invoke(t, "transfer_operatorship", &operators.TransferOperatorshipParams{
		Payer: env.payer,
		From:  operator,
		To:    successor,
	}, env.payer, operator)
	require.False(t, env.isOperator(t, operator))
	require.True(t, env.isOperator(t, successor))
}

func TestTransferOwnershipIsDirect(t *testing.T) {
	env := newTestEnv(t)
	next := solana.PublicKeyFromBytes([]byte("next-owner-wallet-next-owner-wa!"))
	pending := solana.PublicKeyFromBytes([]byte("pending-wallet-pending-wallet-p!"))

	// A direct transfer also clears any pending proposal.
	env.invoke(t, "propose_ownership", &operators.OwnershipParams{
		Owner: env.owner,
		To:    pending,
	}, env.owner)
	env.invoke(t, "transfer_ownership", &operators.OwnershipParams{
		Owner: env.owner,
		To:    next,
	}, env.owner)

	err := env.tryInvoke(t, "accept_ownership", &operators.OwnershipParams{
		Owner: next,
		To:    pending,
	}, pending)
	require.ErrorIs(t, err, operators.ErrNoPendingOwner)

	operator := solana.PublicKeyFromBytes([]byte("operator-wallet-operator-wallet!"))
	env.invoke(t, "add_operator", &operators.OperatorParams{
		Payer:    env.payer,
		Owner:    next,
		Operator: operator,
	}, env.payer, next)
	require.True(t, env.isOperator(t, operator))
}
