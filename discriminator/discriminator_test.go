// Copyright (C) 2025-2026, Eiger Oy. All rights reserved.
// See the file LICENSE for licensing terms.

package discriminator_test

import (
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/eigerco/axelar-amplifier-solana-sub000/discriminator"
)

func TestDomainsAreSeparated(t *testing.T) {
	// The same name under different domains yields different tags.
	g := discriminator.Global("initialize")
	a := discriminator.Account("initialize")
	e := discriminator.Event("initialize")
	require.NotEqual(t, g, a)
	require.NotEqual(t, g, e)
	require.NotEqual(t, a, e)

	// Tags are stable: the first 8 bytes of the domain-tagged hash.
	sum := sha256.Sum256([]byte("global:initialize"))
	var want discriminator.Discriminator
	copy(want[:], sum[:discriminator.Length])
	require.Equal(t, want, g)
}

func TestPrependSplitRoundTrip(t *testing.T) {
	d := discriminator.Global("approve_message")
	body := []byte("instruction body")

	data := d.Prepend(body)
	require.Len(t, data, discriminator.Length+len(body))

	rest, err := discriminator.Split(d, data)
	require.NoError(t, err)
	require.Equal(t, body, rest)

	_, err = discriminator.Split(discriminator.Global("rotate_signers"), data)
	require.ErrorIs(t, err, discriminator.ErrMismatch)

	_, err = discriminator.Split(d, data[:4])
	require.ErrorIs(t, err, discriminator.ErrMismatch)
}

func TestPeek(t *testing.T) {
	d := discriminator.Event("MessageApproved")
	got, err := discriminator.Peek(d.Prepend(nil))
	require.NoError(t, err)
	require.Equal(t, d, got)

	_, err = discriminator.Peek([]byte{1, 2, 3})
	require.ErrorIs(t, err, discriminator.ErrMismatch)
}
