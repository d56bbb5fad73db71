// Copyright (C) 2025-2026, Eiger Oy. All rights reserved.
// See the file LICENSE for licensing terms.

package axelar_test

import (
	"crypto/ed25519"
	"crypto/rand"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	axelar "github.com/eigerco/axelar-amplifier-solana-sub000"
)

var testDomainSeparator = [32]byte{0xaa, 0xbb}

func newKeypair(t *testing.T) (solana.PublicKey, ed25519.PrivateKey) {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	return solana.PublicKeyFromBytes(pub), priv
}

func testMessage(id string) axelar.Message {
	return axelar.Message{
		CCID:               axelar.CrossChainID{Chain: "ethereum", ID: id},
		SourceAddress:      "0x4f4495243837681061c4743b74b3eedf548d56a5",
		DestinationChain:   "solana",
		DestinationAddress: solana.PublicKeyFromBytes([]byte("destination-program-destination!")).String(),
		PayloadHash:        axelar.Keccak256([]byte("payload-" + id)),
	}
}

func TestNewVerifierSetValidation(t *testing.T) {
	pk1, _ := newKeypair(t)
	pk2, _ := newKeypair(t)

	_, err := axelar.NewVerifierSet(1, nil, 1)
	require.ErrorIs(t, err, axelar.ErrInvalidVerifierSet)

	_, err = axelar.NewVerifierSet(1, []axelar.WeightedSigner{{PubKey: pk1, Weight: 1}}, 0)
	require.ErrorIs(t, err, axelar.ErrInvalidVerifierSet)

	_, err = axelar.NewVerifierSet(1, []axelar.WeightedSigner{{PubKey: pk1, Weight: 0}}, 1)
	require.ErrorIs(t, err, axelar.ErrInvalidVerifierSet)

	_, err = axelar.NewVerifierSet(1, []axelar.WeightedSigner{
		{PubKey: pk1, Weight: 1},
		{PubKey: pk1, Weight: 2},
	}, 1)
	require.ErrorIs(t, err, axelar.ErrInvalidVerifierSet)

	// Threshold above total weight.
	_, err = axelar.NewVerifierSet(1, []axelar.WeightedSigner{
		{PubKey: pk1, Weight: 1},
		{PubKey: pk2, Weight: 1},
	}, 3)
	require.ErrorIs(t, err, axelar.ErrInvalidVerifierSet)
}

func TestVerifierSetHashIsOrderInsensitive(t *testing.T) {
	pk1, _ := newKeypair(t)
	pk2, _ := newKeypair(t)
	pk3, _ := newKeypair(t)

	a, err := axelar.NewVerifierSet(7, []axelar.WeightedSigner{
		{PubKey: pk1, Weight: 1},
		{PubKey: pk2, Weight: 2},
		{PubKey: pk3, Weight: 3},
	}, 4)
	require.NoError(t, err)
	b, err := axelar.NewVerifierSet(7, []axelar.WeightedSigner{
		{PubKey: pk3, Weight: 3},
		{PubKey: pk1, Weight: 1},
		{PubKey: pk2, Weight: 2},
	}, 4)
	require.NoError(t, err)

	hashA, err := a.Hash(testDomainSeparator)
	require.NoError(t, err)
	hashB, err := b.Hash(testDomainSeparator)
	require.NoError(t, err)
	require.Equal(t, hashA, hashB)

	// A different nonce produces a different identity.
	c, err := axelar.NewVerifierSet(8, a.Signers, 4)
	require.NoError(t, err)
	hashC, err := c.Hash(testDomainSeparator)
	require.NoError(t, err)
	require.NotEqual(t, hashA, hashC)

	// So does a different domain separator.
	other := [32]byte{0x01}
	hashD, err := a.Hash(other)
	require.NoError(t, err)
	require.NotEqual(t, hashA, hashD)
}

func TestMerkleiseSignersProofs(t *testing.T) {
	pk1, _ := newKeypair(t)
	pk2, _ := newKeypair(t)
	set, err := axelar.NewVerifierSet(1, []axelar.WeightedSigner{
		{PubKey: pk1, Weight: 5},
		{PubKey: pk2, Weight: 5},
	}, 10)
	require.NoError(t, err)

	root, proven, err := set.MerkleiseSigners(testDomainSeparator)
	require.NoError(t, err)
	require.Len(t, proven, 2)

	hash, err := set.Hash(testDomainSeparator)
	require.NoError(t, err)
	require.Equal(t, hash, root)

	for i := range proven {
		require.NoError(t, proven[i].VerifyInclusion(root))
		require.Equal(t, set.Threshold, proven[i].Leaf.Threshold)
	}

	// A tampered leaf no longer proves.
	bad := proven[0]
	bad.Leaf.Weight = 100
	require.ErrorIs(t, bad.VerifyInclusion(root), axelar.ErrInvalidProof)
}

func TestVerifySignature(t *testing.T) {
	pk, priv := newKeypair(t)
	root := axelar.Keccak256([]byte("payload root"))

	sig := solana.SignatureFromBytes(ed25519.Sign(priv, root[:]))
	require.NoError(t, axelar.VerifySignature(pk, sig, root))

	other := axelar.Keccak256([]byte("another root"))
	require.ErrorIs(t, axelar.VerifySignature(pk, sig, other), axelar.ErrBadSignature)
}

func TestMerkleiseMessages(t *testing.T) {
	msgs := []axelar.Message{testMessage("0x1"), testMessage("0x2"), testMessage("0x3")}

	root, proven, err := axelar.MerkleiseMessages(testDomainSeparator, msgs)
	require.NoError(t, err)
	require.Len(t, proven, 3)
	for i := range proven {
		require.NoError(t, proven[i].VerifyInclusion(root))
		require.Equal(t, msgs[i], proven[i].Leaf.Message)
	}

	// A message proof does not verify under a different root.
	otherRoot, _, err := axelar.MerkleiseMessages(testDomainSeparator, msgs[:2])
	require.NoError(t, err)
	require.ErrorIs(t, proven[0].VerifyInclusion(otherRoot), axelar.ErrInvalidProof)

	_, _, err = axelar.MerkleiseMessages(testDomainSeparator, nil)
	require.ErrorIs(t, err, axelar.ErrInvalidMessage)

	tooMany := make([]axelar.Message, axelar.MaxBatchSize+1)
	for i := range tooMany {
		tooMany[i] = testMessage("0xbatch")
	}
	_, _, err = axelar.MerkleiseMessages(testDomainSeparator, tooMany)
	require.ErrorIs(t, err, axelar.ErrBatchTooLarge)
}

func TestMessageVerify(t *testing.T) {
	msg := testMessage("0xok")
	require.NoError(t, msg.Verify())

	bad := msg
	bad.CCID.Chain = ""
	require.ErrorIs(t, bad.Verify(), axelar.ErrInvalidMessage)

	bad = msg
	bad.CCID.ID = ""
	require.ErrorIs(t, bad.Verify(), axelar.ErrInvalidMessage)

	bad = msg
	bad.DestinationAddress = ""
	require.ErrorIs(t, bad.Verify(), axelar.ErrInvalidMessage)
}

func TestCommandID(t *testing.T) {
	msg := testMessage("0xcmd")
	require.Equal(t, axelar.CommandID("ethereum", "0xcmd"), msg.CommandID())
	require.NotEqual(t, axelar.CommandID("ethereum", "0xcmd"), axelar.CommandID("polygon", "0xcmd"))
	// The separator prevents (chain, id) boundary ambiguity.
	require.NotEqual(t, axelar.CommandID("eth", "ereum-0x1"), axelar.CommandID("ethereum", "0x1"))
}

func TestBits(t *testing.T) {
	b := axelar.NewBits()
	require.Equal(t, 0, b.Len())
	require.False(t, b.Contains(0))

	b.Add(0)
	b.Add(9)
	b.Add(9)
	require.True(t, b.Contains(0))
	require.True(t, b.Contains(9))
	require.False(t, b.Contains(5))
	require.Equal(t, 2, b.Len())

	other := axelar.NewBits()
	other.Add(9)
	other.Add(0)
	other.Add(100)
	require.False(t, b.Equal(other))

	same := axelar.NewBits()
	same.Add(0)
	same.Add(9)
	require.True(t, b.Equal(same))
}

func TestCheckedArithmetic(t *testing.T) {
	sum, err := axelar.AddUint64(1, 2)
	require.NoError(t, err)
	require.Equal(t, uint64(3), sum)

	_, err = axelar.AddUint64(^uint64(0), 1)
	require.ErrorIs(t, err, axelar.ErrArithmeticOverflow)

	diff, err := axelar.SubUint64(5, 3)
	require.NoError(t, err)
	require.Equal(t, uint64(2), diff)

	_, err = axelar.SubUint64(3, 5)
	require.ErrorIs(t, err, axelar.ErrArithmeticOverflow)
}
