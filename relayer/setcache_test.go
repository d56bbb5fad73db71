// Copyright (C) 2025-2026, Eiger Oy. All rights reserved.
// See the file LICENSE for licensing terms.

package relayer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	axelar "github.com/eigerco/axelar-amplifier-solana-sub000"
)

func testSet(t *testing.T) (*axelar.VerifierSet, [32]byte) {
	t.Helper()
	s, err := NewLocalSigner()
	require.NoError(t, err)
	set, err := NewSignerPool(s).VerifierSet(1, 1)
	require.NoError(t, err)
	hash, err := set.Hash([32]byte{})
	require.NoError(t, err)
	return set, hash
}

func TestSetCacheFetchesOnce(t *testing.T) {
	set, hash := testSet(t)
	cache := newSetCache(time.Minute)

	var fetches int
	fetch := func() (*axelar.VerifierSet, []axelar.MerkleisedSigner, error) {
		fetches++
		_, proven, err := set.MerkleiseSigners([32]byte{})
		return set, proven, err
	}

	for i := 0; i < 3; i++ {
		got, proven, err := cache.get(hash, fetch)
		require.NoError(t, err)
		require.Equal(t, set, got)
		require.Len(t, proven, 1)
	}
	require.Equal(t, 1, fetches)
}

func TestSetCacheInvalidate(t *testing.T) {
	set, hash := testSet(t)
	cache := newSetCache(time.Minute)

	var fetches int
	fetch := func() (*axelar.VerifierSet, []axelar.MerkleisedSigner, error) {
		fetches++
		_, proven, err := set.MerkleiseSigners([32]byte{})
		return set, proven, err
	}

	_, _, err := cache.get(hash, fetch)
	require.NoError(t, err)
	cache.invalidate(hash)
	_, _, err = cache.get(hash, fetch)
	require.NoError(t, err)
	require.Equal(t, 2, fetches)
}

func TestLocalSignerFromSeedIsDeterministic(t *testing.T) {
	seed := make([]byte, 32)
	seed[0] = 7

	a, err := LocalSignerFromSeed(seed)
	require.NoError(t, err)
	b, err := LocalSignerFromSeed(seed)
	require.NoError(t, err)
	require.Equal(t, a.PublicKey(), b.PublicKey())

	root := axelar.Keccak256([]byte("root"))
	require.NoError(t, axelar.VerifySignature(a.PublicKey(), a.Sign(root), root))

	_, err = LocalSignerFromSeed(seed[:16])
	require.Error(t, err)
}

func TestSignerPoolFor(t *testing.T) {
	a, err := NewLocalSigner()
	require.NoError(t, err)
	pool := NewSignerPool(a)

	got, err := pool.For(a.PublicKey())
	require.NoError(t, err)
	require.Equal(t, a.PublicKey(), got.PublicKey())

	b, err := NewLocalSigner()
	require.NoError(t, err)
	_, err = pool.For(b.PublicKey())
	require.Error(t, err)

	pool.Add(b)
	_, err = pool.For(b.PublicKey())
	require.NoError(t, err)
}
