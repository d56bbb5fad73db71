// Copyright (C) 2025-2026, Eiger Oy. All rights reserved.
// See the file LICENSE for licensing terms.

package runtime_test

import (
	"errors"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/eigerco/axelar-amplifier-solana-sub000/discriminator"
	"github.com/eigerco/axelar-amplifier-solana-sub000/runtime"
)

// scriptProgram runs an arbitrary closure per invocation, letting tests
// exercise the context API from inside a program.
type scriptProgram struct {
	id solana.PublicKey
	fn func(*runtime.Context, runtime.Instruction) error
}

func (p *scriptProgram) ID() solana.PublicKey { return p.id }

func (p *scriptProgram) Execute(ctx *runtime.Context, ix runtime.Instruction) error {
	return p.fn(ctx, ix)
}

func newScript(t *testing.T, rt *runtime.Runtime, name string) *scriptProgram {
	t.Helper()
	p := &scriptProgram{id: runtime.ProgramID(name)}
	require.NoError(t, rt.Register(p))
	return p
}

var errScripted = errors.New("scripted failure")

func TestProgramIDIsDeterministic(t *testing.T) {
	require.Equal(t, runtime.ProgramID("gateway"), runtime.ProgramID("gateway"))
	require.NotEqual(t, runtime.ProgramID("gateway"), runtime.ProgramID("its"))
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	rt := runtime.New(nil)
	newScript(t, rt, "prog")
	err := rt.Register(&scriptProgram{id: runtime.ProgramID("prog")})
	require.ErrorIs(t, err, runtime.ErrAlreadyInitialized)
}

func TestInvokeUnknownProgram(t *testing.T) {
	rt := runtime.New(nil)
	err := rt.Invoke(runtime.Instruction{ProgramID: runtime.ProgramID("ghost")})
	require.ErrorIs(t, err, runtime.ErrUnknownProgram)
}

func TestTransactionRollsBackOnFailure(t *testing.T) {
	rt := runtime.New(nil)
	payer := solana.PublicKeyFromBytes([]byte("payer-wallet-payer-wallet-payer!"))
	rt.FundWallet(payer, 10_000_000_000)

	stateDisc := discriminator.Account("Slot")
	var pda solana.PublicKey
	prog := newScript(t, rt, "stateful")
	prog.fn = func(ctx *runtime.Context, ix runtime.Instruction) error {
		var err error
		pda, _, err = ctx.InitPDA([][]byte{[]byte("slot")}, discriminator.Length+8, payer)
		if err != nil {
			return err
		}
		if err := ctx.WriteState(prog.id, pda, stateDisc, &struct{ N uint64 }{42}); err != nil {
			return err
		}
		bump, err := findBump(prog.id, [][]byte{[]byte("auth")})
		if err != nil {
			return err
		}
		return ctx.EmitEvent([][]byte{[]byte("auth"), {bump}}, discriminator.Event("Wrote"), &struct{}{})
	}
	failing := newScript(t, rt, "failing")
	failing.fn = func(ctx *runtime.Context, ix runtime.Instruction) error {
		return errScripted
	}

	err := rt.Execute(runtime.Transaction{
		Instructions: []runtime.Instruction{
			{ProgramID: prog.id},
			{ProgramID: failing.id},
		},
		Signers: []solana.PublicKey{payer},
	})
	require.ErrorIs(t, err, errScripted)

	// Nothing committed: no account, no event, payer balance intact.
	require.Nil(t, rt.Account(pda))
	require.Empty(t, rt.Events())
	require.Equal(t, uint64(10_000_000_000), rt.Account(payer).Lamports)

	// The same instruction alone commits.
	require.NoError(t, rt.Invoke(runtime.Instruction{ProgramID: prog.id}, payer))
	acct := rt.Account(pda)
	require.NotNil(t, acct)
	require.Equal(t, prog.id, acct.Owner)
	require.Len(t, rt.Events(), 1)
}

func TestInitPDAChargesRentAndRejectsReinit(t *testing.T) {
	rt := runtime.New(nil)
	payer := solana.PublicKeyFromBytes([]byte("payer-wallet-payer-wallet-payer!"))
	rt.FundWallet(payer, 10_000_000_000)

	space := 64
	var pda solana.PublicKey
	prog := newScript(t, rt, "rent")
	prog.fn = func(ctx *runtime.Context, ix runtime.Instruction) error {
		var err error
		pda, _, err = ctx.InitPDA([][]byte{[]byte("vault")}, space, payer)
		return err
	}

	require.NoError(t, rt.Invoke(runtime.Instruction{ProgramID: prog.id}, payer))
	rent := runtime.RentExemptMinimum(space)
	require.Equal(t, rent, rt.Account(pda).Lamports)
	require.Equal(t, uint64(10_000_000_000)-rent, rt.Account(payer).Lamports)

	err := rt.Invoke(runtime.Instruction{ProgramID: prog.id}, payer)
	require.ErrorIs(t, err, runtime.ErrAlreadyInitialized)
}

func TestCreateRequiresPayerSignature(t *testing.T) {
	rt := runtime.New(nil)
	payer := solana.PublicKeyFromBytes([]byte("payer-wallet-payer-wallet-payer!"))
	rt.FundWallet(payer, 10_000_000_000)

	prog := newScript(t, rt, "unsigned")
	prog.fn = func(ctx *runtime.Context, ix runtime.Instruction) error {
		_, _, err := ctx.InitPDA([][]byte{[]byte("x")}, 8, payer)
		return err
	}

	// Payer not in the transaction signer list.
	err := rt.Invoke(runtime.Instruction{ProgramID: prog.id})
	require.ErrorIs(t, err, runtime.ErrMissingSignature)
}

func TestStateDiscriminatorIsChecked(t *testing.T) {
	rt := runtime.New(nil)
	payer := solana.PublicKeyFromBytes([]byte("payer-wallet-payer-wallet-payer!"))
	rt.FundWallet(payer, 10_000_000_000)

	good := discriminator.Account("TypeA")
	wrong := discriminator.Account("TypeB")
	prog := newScript(t, rt, "typed")
	prog.fn = func(ctx *runtime.Context, ix runtime.Instruction) error {
		pda, _, err := ctx.InitPDA([][]byte{[]byte("typed")}, discriminator.Length+8, payer)
		if err != nil {
			return err
		}
		if err := ctx.WriteState(ctx.ProgramID(), pda, good, &struct{ N uint64 }{7}); err != nil {
			return err
		}
		var out struct{ N uint64 }
		if err := ctx.ReadState(ctx.ProgramID(), pda, wrong, &out); err == nil {
			return errors.New("read with wrong discriminator should fail")
		}
		return ctx.ReadState(ctx.ProgramID(), pda, good, &out)
	}
	require.NoError(t, rt.Invoke(runtime.Instruction{ProgramID: prog.id}, payer))
}

func TestTransferLamports(t *testing.T) {
	rt := runtime.New(nil)
	alice := solana.PublicKeyFromBytes([]byte("alice-wallet-alice-wallet-alice!"))
	bob := solana.PublicKeyFromBytes([]byte("bob-wallet-bob-wallet-bob-wallet"))
	rt.FundWallet(alice, 1_000_000)

	prog := newScript(t, rt, "mover")
	prog.fn = func(ctx *runtime.Context, ix runtime.Instruction) error {
		return ctx.TransferLamports(alice, bob, 400_000)
	}

	// Debit from a wallet requires the wallet's signature.
	err := rt.Invoke(runtime.Instruction{ProgramID: prog.id})
	require.ErrorIs(t, err, runtime.ErrMissingSignature)

	require.NoError(t, rt.Invoke(runtime.Instruction{ProgramID: prog.id}, alice))
	require.Equal(t, uint64(600_000), rt.Account(alice).Lamports)
	require.Equal(t, uint64(400_000), rt.Account(bob).Lamports)

	overdraw := newScript(t, rt, "overdraw")
	overdraw.fn = func(ctx *runtime.Context, ix runtime.Instruction) error {
		return ctx.TransferLamports(alice, bob, 10_000_000)
	}
	err = rt.Invoke(runtime.Instruction{ProgramID: overdraw.id}, alice)
	require.ErrorIs(t, err, runtime.ErrInsufficientFunds)
}

func TestInvokeSignedPropagatesPDASigner(t *testing.T) {
	rt := runtime.New(nil)

	caller := newScript(t, rt, "caller")
	callee := newScript(t, rt, "callee")

	authority, _, err := solana.FindProgramAddress([][]byte{[]byte("authority")}, caller.id)
	require.NoError(t, err)
	bumpSeed, err := findBump(caller.id, [][]byte{[]byte("authority")})
	require.NoError(t, err)

	callee.fn = func(ctx *runtime.Context, ix runtime.Instruction) error {
		return ctx.RequireSigner(authority)
	}

	caller.fn = func(ctx *runtime.Context, ix runtime.Instruction) error {
		inner := runtime.Instruction{ProgramID: callee.id}
		if len(ix.Data) > 0 {
			return ctx.InvokeSigned(inner, [][]byte{[]byte("authority"), {bumpSeed}})
		}
		return ctx.InvokeSigned(inner)
	}

	// Without seeds the callee sees no authority signature.
	err = rt.Invoke(runtime.Instruction{ProgramID: caller.id})
	require.ErrorIs(t, err, runtime.ErrMissingSignature)

	require.NoError(t, rt.Invoke(runtime.Instruction{ProgramID: caller.id, Data: []byte{1}}))
}

func TestInvokeSignedForwardsOnlyDeclaredTxSigners(t *testing.T) {
	rt := runtime.New(nil)
	wallet := solana.PublicKeyFromBytes([]byte("wallet-wallet-wallet-wallet-wal!"))

	caller := newScript(t, rt, "forwarder")
	callee := newScript(t, rt, "checker")
	callee.fn = func(ctx *runtime.Context, ix runtime.Instruction) error {
		return ctx.RequireSigner(wallet)
	}

	caller.fn = func(ctx *runtime.Context, ix runtime.Instruction) error {
		inner := runtime.Instruction{ProgramID: callee.id}
		if len(ix.Data) > 0 {
			inner.Accounts = []*solana.AccountMeta{{PublicKey: wallet, IsSigner: true}}
		}
		return ctx.InvokeSigned(inner)
	}

	// The wallet signed the transaction, but without a signer meta the
	// signature does not carry into the callee.
	err := rt.Invoke(runtime.Instruction{ProgramID: caller.id}, wallet)
	require.ErrorIs(t, err, runtime.ErrMissingSignature)

	require.NoError(t, rt.Invoke(runtime.Instruction{ProgramID: caller.id, Data: []byte{1}}, wallet))
}

func TestInvokeDepthIsBounded(t *testing.T) {
	rt := runtime.New(nil)
	prog := newScript(t, rt, "recursive")
	prog.fn = func(ctx *runtime.Context, ix runtime.Instruction) error {
		return ctx.InvokeSigned(runtime.Instruction{ProgramID: prog.id})
	}
	err := rt.Invoke(runtime.Instruction{ProgramID: prog.id})
	require.ErrorIs(t, err, runtime.ErrCallDepthExceeded)
}

func TestCloseRefundsRent(t *testing.T) {
	rt := runtime.New(nil)
	payer := solana.PublicKeyFromBytes([]byte("payer-wallet-payer-wallet-payer!"))
	receiver := solana.PublicKeyFromBytes([]byte("receiver-wallet-receiver-wallet!"))
	rt.FundWallet(payer, 10_000_000_000)

	var pda solana.PublicKey
	prog := newScript(t, rt, "closer")
	prog.fn = func(ctx *runtime.Context, ix runtime.Instruction) error {
		if len(ix.Data) > 0 {
			return ctx.Close(pda, receiver)
		}
		var err error
		pda, _, err = ctx.InitPDA([][]byte{[]byte("temp")}, 16, payer)
		return err
	}

	require.NoError(t, rt.Invoke(runtime.Instruction{ProgramID: prog.id}, payer))
	rent := rt.Account(pda).Lamports

	require.NoError(t, rt.Invoke(runtime.Instruction{ProgramID: prog.id, Data: []byte{1}}, payer))
	require.Nil(t, rt.Account(pda))
	require.Equal(t, rent, rt.Account(receiver).Lamports)
}

func TestEventsAreOrderedAndDecodable(t *testing.T) {
	rt := runtime.New(nil)
	disc := discriminator.Event("Ping")

	prog := newScript(t, rt, "emitter")
	prog.fn = func(ctx *runtime.Context, ix runtime.Instruction) error {
		bump, err := findBump(ctx.ProgramID(), [][]byte{[]byte("__event_authority")})
		if err != nil {
			return err
		}
		return ctx.EmitEvent([][]byte{[]byte("__event_authority"), {bump}}, disc, &struct{ N uint64 }{uint64(len(ix.Data))})
	}

	require.NoError(t, rt.Invoke(runtime.Instruction{ProgramID: prog.id, Data: []byte{1}}))
	require.NoError(t, rt.Invoke(runtime.Instruction{ProgramID: prog.id, Data: []byte{1, 2}}))

	events := rt.EventsFor(prog.id)
	require.Len(t, events, 2)
	for i, ev := range events {
		require.Equal(t, disc, ev.Discriminator)
		var body struct{ N uint64 }
		require.NoError(t, bin.UnmarshalBorsh(&body, ev.Data))
		require.Equal(t, uint64(i+1), body.N)
	}
}

func TestClock(t *testing.T) {
	rt := runtime.New(nil)
	rt.SetClock(1_700_000_000)
	rt.AdvanceClock(3600)
	require.Equal(t, int64(1_700_003_600), rt.Clock())
}

// findBump returns the bump byte FindProgramAddress settled on.
func findBump(program solana.PublicKey, seeds [][]byte) (uint8, error) {
	_, bump, err := solana.FindProgramAddress(seeds, program)
	return bump, err
}
