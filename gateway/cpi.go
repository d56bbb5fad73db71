// Copyright (C) 2025-2026, Eiger Oy. All rights reserved.
// See the file LICENSE for licensing terms.

package gateway

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	axelar "github.com/eigerco/axelar-amplifier-solana-sub000"
	"github.com/eigerco/axelar-amplifier-solana-sub000/runtime"
)

// ValidateViaCPI is called from a destination program's context to prove
// possession of an approved message. It signs the gateway's
// validate_message with the program's per-message signing PDA.
func ValidateViaCPI(ctx *runtime.Context, msg axelar.Message) error {
	commandID := msg.CommandID()
	_, bump, err := solana.FindProgramAddress([][]byte{commandID[:]}, ctx.ProgramID())
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	ix, err := NewInstruction("validate_message", &ValidateMessageParams{Message: msg})
	if err != nil {
		return err
	}
	return ctx.InvokeSigned(ix, [][]byte{commandID[:], {bump}})
}

// CallContractViaCPI is called from a program's context to emit an
// outbound GMP call attributed to that program.
func CallContractViaCPI(ctx *runtime.Context, destinationChain, destinationContractAddress string, payload []byte) error {
	_, bump, err := CallContractSigningPDA(ctx.ProgramID())
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	ix, err := NewInstruction("call_contract", &CallContractParams{
		SenderProgram:              ctx.ProgramID(),
		SenderBump:                 bump,
		DestinationChain:           destinationChain,
		DestinationContractAddress: destinationContractAddress,
		Payload:                    payload,
	})
	if err != nil {
		return err
	}
	return ctx.InvokeSigned(ix, [][]byte{[]byte(callContractSeed), {bump}})
}
