// Copyright (C) 2025-2026, Eiger Oy. All rights reserved.
// See the file LICENSE for licensing terms.

package gateway

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	axelar "github.com/eigerco/axelar-amplifier-solana-sub000"
	"github.com/eigerco/axelar-amplifier-solana-sub000/runtime"
)

func (g *Gateway) callContract(ctx *runtime.Context, p *CallContractParams) error {
	if p.DestinationChain == "" || p.DestinationContractAddress == "" {
		return fmt.Errorf("%w: empty destination", runtime.ErrInvalidArgument)
	}

	// A wallet signs for itself. A program proves authorship through its
	// call-contract signing PDA, asserted via invoke_signed.
	if !ctx.IsSigner(p.SenderProgram) {
		signingPDA, err := solana.CreateProgramAddress(
			[][]byte{[]byte(callContractSeed), {p.SenderBump}},
			p.SenderProgram,
		)
		if err != nil {
			return fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
		}
		if err := ctx.RequireSigner(signingPDA); err != nil {
			return fmt.Errorf("call contract sender: %w", err)
		}
	}

	return g.emit(ctx, EventCallContract, &CallContractEvent{
		Sender:                     p.SenderProgram,
		DestinationChain:           p.DestinationChain,
		DestinationContractAddress: p.DestinationContractAddress,
		PayloadHash:                axelar.Keccak256(p.Payload),
		Payload:                    p.Payload,
	})
}
