// Copyright (C) 2025-2026, Eiger Oy. All rights reserved.
// See the file LICENSE for licensing terms.

package gasservice

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/eigerco/axelar-amplifier-solana-sub000/discriminator"
	"github.com/eigerco/axelar-amplifier-solana-sub000/runtime"
)

const eventAuthoritySeed = "__event_authority"

// Event discriminators.
var (
	EventNativeGasPaid       = discriminator.Event("NativeGasPaidForContractCall")
	EventNativeGasAdded      = discriminator.Event("NativeGasAdded")
	EventNativeFeesCollected = discriminator.Event("NativeFeesCollected")
	EventNativeGasRefunded   = discriminator.Event("NativeGasRefunded")
	EventSPLGasPaid          = discriminator.Event("SplGasPaidForContractCall")
	EventSPLGasAdded         = discriminator.Event("SplGasAdded")
	EventSPLFeesCollected    = discriminator.Event("SplFeesCollected")
	EventSPLGasRefunded      = discriminator.Event("SplGasRefunded")

	EventOperatorshipTransferred = discriminator.Event("OperatorshipTransferred")
)

// NativeGasPaidEvent ties a lamport payment to an outbound message.
type NativeGasPaidEvent struct {
	Payer              solana.PublicKey
	DestinationChain   string
	DestinationAddress string
	PayloadHash        [32]byte
	RefundAddress      solana.PublicKey
	Params             []byte
	Amount             uint64
}

// NativeGasAddedEvent records a post-hoc lamport top-up.
type NativeGasAddedEvent struct {
	TxHash        [64]byte
	LogIndex      uint64
	RefundAddress solana.PublicKey
	Amount        uint64
}

// NativeFeesCollectedEvent records an operator drain.
type NativeFeesCollectedEvent struct {
	Receiver solana.PublicKey
	Amount   uint64
}

// NativeGasRefundedEvent records an operator refund.
type NativeGasRefundedEvent struct {
	TxHash        [64]byte
	LogIndex      uint64
	RefundAddress solana.PublicKey
	Amount        uint64
}

// SPLGasPaidEvent ties a token payment to an outbound message.
type SPLGasPaidEvent struct {
	Payer              solana.PublicKey
	Mint               solana.PublicKey
	DestinationChain   string
	DestinationAddress string
	PayloadHash        [32]byte
	RefundAddress      solana.PublicKey
	Params             []byte
	Amount             uint64
}

// SPLGasAddedEvent records a post-hoc token top-up.
type SPLGasAddedEvent struct {
	Mint          solana.PublicKey
	TxHash        [64]byte
	LogIndex      uint64
	RefundAddress solana.PublicKey
	Amount        uint64
}

// SPLFeesCollectedEvent records an operator token drain.
type SPLFeesCollectedEvent struct {
	Mint     solana.PublicKey
	Receiver solana.PublicKey
	Amount   uint64
}

// OperatorshipTransferredEvent records an operator handover.
type OperatorshipTransferredEvent struct {
	Previous solana.PublicKey
	New      solana.PublicKey
}

// SPLGasRefundedEvent records an operator token refund.
type SPLGasRefundedEvent struct {
	Mint          solana.PublicKey
	TxHash        [64]byte
	LogIndex      uint64
	RefundAddress solana.PublicKey
	Amount        uint64
}

func (s *GasService) emit(ctx *runtime.Context, disc discriminator.Discriminator, v interface{}) error {
	_, bump, err := solana.FindProgramAddress([][]byte{[]byte(eventAuthoritySeed)}, ID)
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	return ctx.EmitEvent([][]byte{[]byte(eventAuthoritySeed), {bump}}, disc, v)
}
