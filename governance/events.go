// Copyright (C) 2025-2026, Eiger Oy. All rights reserved.
// See the file LICENSE for licensing terms.

package governance

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/eigerco/axelar-amplifier-solana-sub000/discriminator"
	"github.com/eigerco/axelar-amplifier-solana-sub000/runtime"
)

// Event discriminators.
var (
	EventProposalScheduled         = discriminator.Event("ProposalScheduled")
	EventProposalCancelled         = discriminator.Event("ProposalCancelled")
	EventOperatorProposalApproved  = discriminator.Event("OperatorProposalApproved")
	EventOperatorApprovalCancelled = discriminator.Event("OperatorProposalCancelled")
	EventProposalExecuted          = discriminator.Event("ProposalExecuted")
	EventOperatorProposalExecuted  = discriminator.Event("OperatorProposalExecuted")
	EventOperatorshipTransferred   = discriminator.Event("OperatorshipTransferred")
)

// ProposalScheduledEvent records a time-lock schedule.
type ProposalScheduledEvent struct {
	Hash        [32]byte
	Target      solana.PublicKey
	CallData    []byte
	NativeValue uint64
	Eta         uint64
}

// ProposalCancelledEvent records a schedule cancellation.
type ProposalCancelledEvent struct {
	Hash   [32]byte
	Target solana.PublicKey
	Eta    uint64
}

// OperatorProposalApprovedEvent records an operator-execution approval.
type OperatorProposalApprovedEvent struct {
	Hash   [32]byte
	Target solana.PublicKey
}

// OperatorApprovalCancelledEvent records the approval being withdrawn.
type OperatorApprovalCancelledEvent struct {
	Hash   [32]byte
	Target solana.PublicKey
}

// ProposalExecutedEvent records a proposal execution, by ETA or by the
// operator.
type ProposalExecutedEvent struct {
	Hash        [32]byte
	Target      solana.PublicKey
	NativeValue uint64
}

// OperatorshipTransferredEvent records an operator handover.
type OperatorshipTransferredEvent struct {
	Previous solana.PublicKey
	New      solana.PublicKey
}

func (g *Governance) emit(ctx *runtime.Context, disc discriminator.Discriminator, v interface{}) error {
	_, bump, err := solana.FindProgramAddress([][]byte{[]byte(eventAuthoritySeed)}, ID)
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	return ctx.EmitEvent([][]byte{[]byte(eventAuthoritySeed), {bump}}, disc, v)
}
