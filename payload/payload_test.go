// Copyright (C) 2025-2026, Eiger Oy. All rights reserved.
// See the file LICENSE for licensing terms.

package payload_test

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	axelar "github.com/eigerco/axelar-amplifier-solana-sub000"
	"github.com/eigerco/axelar-amplifier-solana-sub000/payload"
)

func sampleTransfer() *payload.InterchainTransfer {
	return &payload.InterchainTransfer{
		TokenID:            axelar.Keccak256([]byte("token")),
		SourceAddress:      []byte{0x01, 0x02},
		DestinationAddress: []byte{0x03, 0x04, 0x05},
		Amount:             uint256.NewInt(123_456),
		Data:               []byte("attached"),
	}
}

func TestDecodeDispatchesBySelector(t *testing.T) {
	transfer := sampleTransfer()
	data, err := payload.Encode(transfer)
	require.NoError(t, err)

	decoded, err := payload.Decode(data)
	require.NoError(t, err)
	got, ok := decoded.(*payload.InterchainTransfer)
	require.True(t, ok)
	require.Equal(t, transfer.TokenID, got.TokenID)
	require.Equal(t, transfer.DestinationAddress, got.DestinationAddress)
	require.Equal(t, uint64(123_456), got.Amount.Uint64())
	require.Equal(t, transfer.Data, got.Data)

	deploy := &payload.DeployInterchainToken{
		TokenID:  axelar.Keccak256([]byte("token")),
		Name:     "Example",
		Symbol:   "EXM",
		Decimals: 9,
	}
	data, err = payload.Encode(deploy)
	require.NoError(t, err)
	decoded, err = payload.Decode(data)
	require.NoError(t, err)
	gotDeploy, ok := decoded.(*payload.DeployInterchainToken)
	require.True(t, ok)
	require.Equal(t, deploy.Name, gotDeploy.Name)
	require.Equal(t, deploy.Decimals, gotDeploy.Decimals)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := payload.Decode([]byte{0x01, 0x02})
	require.ErrorIs(t, err, payload.ErrInvalidPayload)

	// A valid ABI head with an unknown selector.
	unknown := make([]byte, 32)
	unknown[31] = 0xfe
	_, err = payload.Decode(unknown)
	require.ErrorIs(t, err, payload.ErrUnknownSelector)
}

func TestHubEnvelopeRoundTrip(t *testing.T) {
	transfer := sampleTransfer()
	wire, err := payload.WrapSendToHub("ethereum", transfer)
	require.NoError(t, err)

	outer, err := payload.Decode(wire)
	require.NoError(t, err)
	envelope, ok := outer.(*payload.SendToHub)
	require.True(t, ok)
	require.Equal(t, "ethereum", envelope.DestinationChain)

	inner, err := payload.Decode(envelope.Payload)
	require.NoError(t, err)
	require.Equal(t, payload.TypeInterchainTransfer, inner.Selector())
}

func TestWrapRejectsNestedEnvelopes(t *testing.T) {
	transfer := sampleTransfer()
	innerBytes, err := payload.Encode(transfer)
	require.NoError(t, err)

	_, err = payload.WrapSendToHub("ethereum", &payload.SendToHub{
		DestinationChain: "polygon",
		Payload:          innerBytes,
	})
	require.ErrorIs(t, err, payload.ErrUnsupportedNesting)
}

func TestUnwrapReceiveFromHub(t *testing.T) {
	transfer := sampleTransfer()
	innerBytes, err := payload.Encode(transfer)
	require.NoError(t, err)

	wire, err := payload.Encode(&payload.ReceiveFromHub{
		SourceChain: "polygon",
		Payload:     innerBytes,
	})
	require.NoError(t, err)

	source, inner, err := payload.UnwrapReceiveFromHub(wire)
	require.NoError(t, err)
	require.Equal(t, "polygon", source)
	require.Equal(t, payload.TypeInterchainTransfer, inner.Selector())

	// A bare payload is not hub-wrapped.
	_, _, err = payload.UnwrapReceiveFromHub(innerBytes)
	require.ErrorIs(t, err, payload.ErrNotWrappedForHub)

	// An envelope inside an envelope is rejected.
	doubled, err := payload.Encode(&payload.ReceiveFromHub{
		SourceChain: "polygon",
		Payload:     wire,
	})
	require.NoError(t, err)
	_, _, err = payload.UnwrapReceiveFromHub(doubled)
	require.ErrorIs(t, err, payload.ErrUnsupportedNesting)
}

func TestLinkTokenCarriesManagerType(t *testing.T) {
	link := &payload.LinkToken{
		TokenID:                 axelar.Keccak256([]byte("linked")),
		TokenManagerType:        uint256.NewInt(2),
		SourceTokenAddress:      make([]byte, 32),
		DestinationTokenAddress: make([]byte, 20),
		LinkParams:              nil,
	}
	data, err := payload.Encode(link)
	require.NoError(t, err)

	decoded, err := payload.Decode(data)
	require.NoError(t, err)
	got, ok := decoded.(*payload.LinkToken)
	require.True(t, ok)
	require.Equal(t, uint64(2), got.TokenManagerType.Uint64())
	require.Len(t, got.SourceTokenAddress, 32)
	require.Len(t, got.DestinationTokenAddress, 20)
}
