// Copyright (C) 2025-2026, Eiger Oy. All rights reserved.
// See the file LICENSE for licensing terms.

package relayer_test

import (
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	axelar "github.com/eigerco/axelar-amplifier-solana-sub000"
	"github.com/eigerco/axelar-amplifier-solana-sub000/gateway"
	"github.com/eigerco/axelar-amplifier-solana-sub000/relayer"
	"github.com/eigerco/axelar-amplifier-solana-sub000/runtime"
)

var testDomainSeparator = [32]byte{0x52, 0x4c, 0x59, 0x52}

type harness struct {
	rt       *runtime.Runtime
	payer    solana.PublicKey
	operator solana.PublicKey
	pool     *relayer.SignerPool
	set      *axelar.VerifierSet
	r        *relayer.Relayer
}

// echoProgram validates every message it receives against the gateway,
// standing in for a real destination contract.
type echoProgram struct{ id solana.PublicKey }

func (p *echoProgram) ID() solana.PublicKey { return p.id }

func (p *echoProgram) Execute(ctx *runtime.Context, ix runtime.Instruction) error {
	var msg axelar.Message
	if err := bin.UnmarshalBorsh(&msg, ix.Data); err != nil {
		return err
	}
	return gateway.ValidateViaCPI(ctx, msg)
}

func newHarness(t *testing.T, members int, threshold uint64) *harness {
	t.Helper()

	h := &harness{
		rt:       runtime.New(nil),
		payer:    solana.PublicKeyFromBytes([]byte("payer-wallet-payer-wallet-payer!")),
		operator: solana.PublicKeyFromBytes([]byte("operator-wallet-operator-wallet!")),
	}
	require.NoError(t, h.rt.Register(gateway.New()))
	h.rt.FundWallet(h.payer, 100_000_000_000)
	h.rt.SetClock(1_700_000_000)

	signers := make([]relayer.Signer, members)
	for i := range signers {
		s, err := relayer.NewLocalSigner()
		require.NoError(t, err)
		signers[i] = s
	}
	h.pool = relayer.NewSignerPool(signers...)

	set, err := h.pool.VerifierSet(1, threshold)
	require.NoError(t, err)
	h.set = set
	setHash, err := set.Hash(testDomainSeparator)
	require.NoError(t, err)

	ix, err := gateway.NewInstruction("initialize_config", &gateway.InitializeConfigParams{
		Payer:                   h.payer,
		Operator:                h.operator,
		DomainSeparator:         testDomainSeparator,
		InitialVerifierSetHash:  setHash,
		PreviousSignerRetention: 4,
		MinimumRotationDelay:    3600,
	})
	require.NoError(t, err)
	require.NoError(t, h.rt.Invoke(ix, h.payer))

	h.r, err = relayer.New(relayer.Config{
		Runtime:         h.rt,
		Pool:            h.pool,
		Set:             set,
		DomainSeparator: testDomainSeparator,
		Payer:           h.payer,
	})
	require.NoError(t, err)
	return h
}

func testMessage(id string, dest solana.PublicKey) axelar.Message {
	return axelar.Message{
		CCID:               axelar.CrossChainID{Chain: "ethereum", ID: id},
		SourceAddress:      "0x4f4495243837681061c4743b74b3eedf548d56a5",
		DestinationChain:   "solana",
		DestinationAddress: dest.String(),
		PayloadHash:        axelar.Keccak256([]byte("payload-" + id)),
	}
}

func TestApproveAndDeliver(t *testing.T) {
	h := newHarness(t, 3, 2)

	echo := &echoProgram{id: runtime.ProgramID("echo_destination")}
	require.NoError(t, h.rt.Register(echo))

	msg := testMessage("0xtx-1", echo.id)
	data, err := bin.MarshalBorsh(&msg)
	require.NoError(t, err)

	err = h.r.Deliver(msg, runtime.Instruction{ProgramID: echo.id, Data: data})
	require.NoError(t, err)
}

func TestApproveBatch(t *testing.T) {
	h := newHarness(t, 3, 3)

	dest := solana.PublicKeyFromBytes([]byte("some-destination-program-account"))
	msgs := []axelar.Message{
		testMessage("0xtx-a", dest),
		testMessage("0xtx-b", dest),
		testMessage("0xtx-c", dest),
	}
	require.NoError(t, h.r.Approve(msgs...))
}

func TestApproveFailsBelowQuorum(t *testing.T) {
	h := newHarness(t, 3, 3)

	// A relayer holding only one of the three keys cannot reach quorum.
	var one relayer.Signer
	for _, ws := range h.set.Signers {
		s, err := h.pool.For(ws.PubKey)
		require.NoError(t, err)
		one = s
		break
	}
	short, err := relayer.New(relayer.Config{
		Runtime:         h.rt,
		Pool:            relayer.NewSignerPool(one),
		Set:             h.set,
		DomainSeparator: testDomainSeparator,
		Payer:           h.payer,
	})
	require.NoError(t, err)

	dest := solana.PublicKeyFromBytes([]byte("some-destination-program-account"))
	err = short.Approve(testMessage("0xtx-short", dest))
	require.Error(t, err)
	require.Contains(t, err.Error(), "below threshold")
}

func TestRotateAndApproveUnderNewSet(t *testing.T) {
	h := newHarness(t, 2, 2)

	next, err := relayer.NewLocalSigner()
	require.NoError(t, err)
	nextPool := relayer.NewSignerPool(next)
	nextSet, err := nextPool.VerifierSet(2, 1)
	require.NoError(t, err)
	nextHash, err := nextSet.Hash(testDomainSeparator)
	require.NoError(t, err)

	// The operator signature bypasses the minimum rotation delay.
	require.NoError(t, h.r.RotateTo(nextSet, nextPool, h.operator))
	require.Equal(t, nextHash, h.r.SetHash())

	// The new set approves messages on its own.
	dest := solana.PublicKeyFromBytes([]byte("some-destination-program-account"))
	require.NoError(t, h.r.Approve(testMessage("0xtx-after-rotation", dest)))
}
