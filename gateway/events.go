// Copyright (C) 2025-2026, Eiger Oy. All rights reserved.
// See the file LICENSE for licensing terms.

package gateway

import (
	"github.com/gagliardetto/solana-go"

	"github.com/eigerco/axelar-amplifier-solana-sub000/discriminator"
	"github.com/eigerco/axelar-amplifier-solana-sub000/runtime"
)

// Event discriminators.
var (
	EventMessageApproved         = discriminator.Event("MessageApproved")
	EventMessageExecuted         = discriminator.Event("MessageExecuted")
	EventCallContract            = discriminator.Event("CallContract")
	EventVerifierSetRotated      = discriminator.Event("VerifierSetRotated")
	EventOperatorshipTransferred = discriminator.Event("OperatorshipTransferred")
)

// MessageApprovedEvent is emitted once per message at approval.
type MessageApprovedEvent struct {
	CommandID          [32]byte
	SourceChain        string
	MessageID          string
	SourceAddress      string
	DestinationChain   string
	DestinationAddress string
	PayloadHash        [32]byte
}

// MessageExecutedEvent is emitted when the destination program validates
// the message.
type MessageExecutedEvent struct {
	CommandID   [32]byte
	SourceChain string
	MessageID   string
}

// CallContractEvent is the outbound GMP record picked up by relayers.
type CallContractEvent struct {
	Sender                     solana.PublicKey
	DestinationChain           string
	DestinationContractAddress string
	PayloadHash                [32]byte
	Payload                    []byte
}

// VerifierSetRotatedEvent is emitted when a new verifier set takes over.
type VerifierSetRotatedEvent struct {
	Epoch           uint64
	VerifierSetHash [32]byte
}

// OperatorshipTransferredEvent records an operator handover.
type OperatorshipTransferredEvent struct {
	Previous solana.PublicKey
	New      solana.PublicKey
}

func (g *Gateway) emit(ctx *runtime.Context, disc discriminator.Discriminator, v interface{}) error {
	seeds, err := eventAuthoritySeeds()
	if err != nil {
		return err
	}
	return ctx.EmitEvent(seeds, disc, v)
}
