// Copyright (C) 2025-2026, Eiger Oy. All rights reserved.
// See the file LICENSE for licensing terms.

package memo_test

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	axelar "github.com/eigerco/axelar-amplifier-solana-sub000"
	"github.com/eigerco/axelar-amplifier-solana-sub000/discriminator"
	"github.com/eigerco/axelar-amplifier-solana-sub000/example/memo"
	"github.com/eigerco/axelar-amplifier-solana-sub000/gateway"
	"github.com/eigerco/axelar-amplifier-solana-sub000/its"
	"github.com/eigerco/axelar-amplifier-solana-sub000/runtime"
)

var testDomainSeparator = [32]byte{0x6d, 0x65, 0x6d, 0x6f}

type testEnv struct {
	rt      *runtime.Runtime
	payer   solana.PublicKey
	priv    ed25519.PrivateKey
	set     *axelar.VerifierSet
	setHash [32]byte
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		rt:    runtime.New(nil),
		payer: solana.PublicKeyFromBytes([]byte("payer-wallet-payer-wallet-payer!")),
	}
	require.NoError(t, env.rt.Register(gateway.New()))
	require.NoError(t, env.rt.Register(memo.New()))
	env.rt.FundWallet(env.payer, 100_000_000_000)
	env.rt.SetClock(1_700_000_000)

	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	env.priv = priv
	env.set, err = axelar.NewVerifierSet(1, []axelar.WeightedSigner{
		{PubKey: solana.PublicKeyFromBytes(pub), Weight: 1},
	}, 1)
	require.NoError(t, err)
	env.setHash, err = env.set.Hash(testDomainSeparator)
	require.NoError(t, err)

	ix, err := gateway.NewInstruction("initialize_config", &gateway.InitializeConfigParams{
		Payer:                   env.payer,
		Operator:                env.payer,
		DomainSeparator:         testDomainSeparator,
		InitialVerifierSetHash:  env.setHash,
		PreviousSignerRetention: 4,
		MinimumRotationDelay:    3600,
	})
	require.NoError(t, err)
	require.NoError(t, env.rt.Invoke(ix, env.payer))

	initIx, err := memo.NewInstruction("initialize", &memo.InitializeParams{Payer: env.payer})
	require.NoError(t, err)
	require.NoError(t, env.rt.Invoke(initIx, env.payer))
	return env
}

// deliver approves msg on the gateway and hands it to the memo program.
func (e *testEnv) deliver(t *testing.T, msg axelar.Message, payload []byte) error {
	t.Helper()

	root, proven, err := axelar.MerkleiseMessages(testDomainSeparator, []axelar.Message{msg})
	require.NoError(t, err)

	ix, err := gateway.NewInstruction("initialize_payload_verification_session", &gateway.InitializeSessionParams{
		Payer:                  e.payer,
		PayloadMerkleRoot:      root,
		SigningVerifierSetHash: e.setHash,
	})
	require.NoError(t, err)
	require.NoError(t, e.rt.Invoke(ix, e.payer))

	_, provenSigners, err := e.set.MerkleiseSigners(testDomainSeparator)
	require.NoError(t, err)
	ix, err = gateway.NewInstruction("verify_signature", &gateway.VerifySignatureParams{
		PayloadMerkleRoot: root,
		Signer:            provenSigners[0],
		Signature:         solana.SignatureFromBytes(ed25519.Sign(e.priv, root[:])),
	})
	require.NoError(t, err)
	require.NoError(t, e.rt.Invoke(ix, e.payer))

	ix, err = gateway.NewInstruction("approve_message", &gateway.ApproveMessageParams{
		Payer:             e.payer,
		PayloadMerkleRoot: root,
		Message:           proven[0],
	})
	require.NoError(t, err)
	require.NoError(t, e.rt.Invoke(ix, e.payer))

	execIx, err := memo.NewInstruction("execute", &memo.ExecuteParams{
		Payer:   e.payer,
		Message: msg,
		Payload: payload,
	})
	require.NoError(t, err)
	return e.rt.Invoke(execIx, e.payer)
}

func memoMessage(id string, payload []byte) axelar.Message {
	return axelar.Message{
		CCID:               axelar.CrossChainID{Chain: "ethereum", ID: id},
		SourceAddress:      "0x4f4495243837681061c4743b74b3eedf548d56a5",
		DestinationChain:   "solana",
		DestinationAddress: memo.ID.String(),
		PayloadHash:        axelar.Keccak256(payload),
	}
}

func (e *testEnv) counter(t *testing.T) memo.Counter {
	t.Helper()
	pda, _, err := memo.CounterAddress()
	require.NoError(t, err)
	acct := e.rt.Account(pda)
	require.NotNil(t, acct)
	var c memo.Counter
	require.NoError(t, bin.UnmarshalBorsh(&c, acct.Data[discriminator.Length:]))
	return c
}

func TestExecuteRecordsMemo(t *testing.T) {
	env := newTestEnv(t)

	payload := []byte("hello from ethereum")
	require.NoError(t, env.deliver(t, memoMessage("0xmemo-1", payload), payload))

	c := env.counter(t)
	require.Equal(t, uint64(1), c.Messages)
	require.Equal(t, uint64(0), c.Transfers)

	events := env.rt.EventsFor(memo.ID)
	require.Len(t, events, 1)
	require.Equal(t, memo.EventMemoReceived, events[0].Discriminator)
	var ev memo.MemoReceivedEvent
	require.NoError(t, bin.UnmarshalBorsh(&ev, events[0].Data))
	require.Equal(t, "hello from ethereum", ev.Memo)
	require.Equal(t, "ethereum", ev.SourceChain)
	require.False(t, ev.WithTokens)
}

func TestExecuteFromCommittedBuffer(t *testing.T) {
	env := newTestEnv(t)

	payload := []byte("a memo too large to inline, staged in a payload buffer")
	msg := memoMessage("0xmemo-buf", payload)
	commandID := msg.CommandID()

	// Stage the payload in two chunks and freeze it.
	ix, err := gateway.NewInstruction("initialize_message_payload", &gateway.InitPayloadParams{
		Payer:      env.payer,
		CommandID:  commandID,
		BufferSize: uint32(len(payload)),
	})
	require.NoError(t, err)
	require.NoError(t, env.rt.Invoke(ix, env.payer))
	half := len(payload) / 2
	ix, err = gateway.NewInstruction("write_message_payload", &gateway.WritePayloadParams{
		Payer:     env.payer,
		CommandID: commandID,
		Offset:    0,
		Bytes:     payload[:half],
	})
	require.NoError(t, err)
	require.NoError(t, env.rt.Invoke(ix, env.payer))
	ix, err = gateway.NewInstruction("write_message_payload", &gateway.WritePayloadParams{
		Payer:     env.payer,
		CommandID: commandID,
		Offset:    uint32(half),
		Bytes:     payload[half:],
	})
	require.NoError(t, err)
	require.NoError(t, env.rt.Invoke(ix, env.payer))

	// Before commit the buffer cannot be consumed.
	require.Error(t, env.deliver(t, msg, nil))
	require.Equal(t, uint64(0), env.counter(t).Messages)

	ix, err = gateway.NewInstruction("commit_message_payload", &gateway.CommitPayloadParams{
		Payer:     env.payer,
		CommandID: commandID,
	})
	require.NoError(t, err)
	require.NoError(t, env.rt.Invoke(ix, env.payer))

	// An empty inline payload sources the memo from the buffer.
	execIx, err := memo.NewInstruction("execute", &memo.ExecuteParams{
		Payer:   env.payer,
		Message: msg,
		Payload: nil,
	})
	require.NoError(t, err)
	require.NoError(t, env.rt.Invoke(execIx, env.payer))

	require.Equal(t, uint64(1), env.counter(t).Messages)
	events := env.rt.EventsFor(memo.ID)
	require.Len(t, events, 1)
	var ev memo.MemoReceivedEvent
	require.NoError(t, bin.UnmarshalBorsh(&ev, events[0].Data))
	require.Equal(t, string(payload), ev.Memo)
}

func TestExecuteRejectsMismatchedPayload(t *testing.T) {
	env := newTestEnv(t)

	payload := []byte("the approved text")
	msg := memoMessage("0xmemo-2", payload)
	err := env.deliver(t, msg, []byte("something else"))
	require.Error(t, err)

	require.Equal(t, uint64(0), env.counter(t).Messages)
}

func TestExecuteRejectsUnapprovedMessage(t *testing.T) {
	env := newTestEnv(t)

	payload := []byte("never approved")
	execIx, err := memo.NewInstruction("execute", &memo.ExecuteParams{
		Payer:   env.payer,
		Message: memoMessage("0xmemo-3", payload),
		Payload: payload,
	})
	require.NoError(t, err)
	require.Error(t, env.rt.Invoke(execIx, env.payer))
}

func TestExecuteWithTokenRequiresServiceSignature(t *testing.T) {
	env := newTestEnv(t)

	ix, err := memo.NewInstruction(its.ExecuteWithTokenMethod, &its.ExecuteWithTokenParams{
		SourceChain: "ethereum",
		Amount:      100,
		Data:        []byte("tokens attached"),
	})
	require.NoError(t, err)
	err = env.rt.Invoke(ix, env.payer)
	require.ErrorIs(t, err, runtime.ErrMissingSignature)
}
