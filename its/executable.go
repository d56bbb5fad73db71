// Copyright (C) 2025-2026, Eiger Oy. All rights reserved.
// See the file LICENSE for licensing terms.

package its

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/eigerco/axelar-amplifier-solana-sub000/discriminator"
	"github.com/eigerco/axelar-amplifier-solana-sub000/runtime"
)

// ExecuteWithTokenMethod is the instruction name a destination program
// handles to receive tokens with attached data.
const ExecuteWithTokenMethod = "execute_with_interchain_token"

// ExecuteWithTokenParams is the context handed to a destination program
// after its tokens have been credited: the originating message identity,
// the local token, the net amount received, and the caller's data.
type ExecuteWithTokenParams struct {
	CommandID     [32]byte
	SourceChain   string
	SourceAddress []byte
	TokenID       [32]byte
	Mint          solana.PublicKey
	Amount        uint64
	Data          []byte
}

// executeWithToken hands control to the destination program, signed by
// the ITS root PDA so the callee can trust the token context.
func (s *Service) executeWithToken(ctx *runtime.Context, destination solana.PublicKey, p *ExecuteWithTokenParams) error {
	body, err := bin.MarshalBorsh(p)
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrInvalidInstructionData, err)
	}
	rootPDA, bump, err := RootAddress()
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	ix := runtime.Instruction{
		ProgramID: destination,
		Data:      discriminator.Global(ExecuteWithTokenMethod).Prepend(body),
		Accounts:  []*solana.AccountMeta{{PublicKey: rootPDA, IsSigner: true}},
	}
	return ctx.InvokeSigned(ix, [][]byte{[]byte(rootSeed), {bump}})
}

// RequireItsSigner lets a destination program verify that an
// execute_with_interchain_token call genuinely came from the service.
func RequireItsSigner(ctx *runtime.Context) error {
	rootPDA, _, err := RootAddress()
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	return ctx.RequireSigner(rootPDA)
}
