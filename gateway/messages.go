// Copyright (C) 2025-2026, Eiger Oy. All rights reserved.
// See the file LICENSE for licensing terms.

package gateway

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	axelar "github.com/eigerco/axelar-amplifier-solana-sub000"
	"github.com/eigerco/axelar-amplifier-solana-sub000/discriminator"
	"github.com/eigerco/axelar-amplifier-solana-sub000/runtime"
)

const incomingSpace = discriminator.Length + 1 + 1 + 1 + 32 + 32

func (g *Gateway) approveMessage(ctx *runtime.Context, p *ApproveMessageParams) error {
	if err := ctx.RequireSigner(p.Payer); err != nil {
		return err
	}
	cfg, _, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	sessionPDA, _, err := SessionAddress(p.PayloadMerkleRoot)
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	var session SignatureVerificationSession
	if err := ctx.ReadState(ID, sessionPDA, sessionDiscriminator, &session); err != nil {
		return fmt.Errorf("%w: %v", ErrSessionNotInitialized, err)
	}
	if !session.Valid {
		return ErrSessionNotValid
	}

	leaf := &p.Message.Leaf
	if leaf.DomainSeparator != cfg.DomainSeparator {
		return fmt.Errorf("%w: wrong domain separator", axelar.ErrInvalidMessage)
	}
	if err := p.Message.VerifyInclusion(p.PayloadMerkleRoot); err != nil {
		return err
	}
	msg := &leaf.Message
	if err := msg.Verify(); err != nil {
		return err
	}

	commandID := msg.CommandID()
	incomingPDA, bump, err := IncomingMessageAddress(commandID)
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	if ctx.Exists(incomingPDA) {
		return fmt.Errorf("%w: message %x already approved", runtime.ErrAlreadyInitialized, commandID)
	}

	destProgram, err := DestinationProgram(msg.DestinationAddress)
	if err != nil {
		return err
	}
	_, signingBump, err := SigningPDA(destProgram, commandID)
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	msgHash, err := msg.Hash()
	if err != nil {
		return err
	}

	if _, _, err := ctx.InitPDA([][]byte{[]byte(incomingSeed), commandID[:]}, incomingSpace, p.Payer); err != nil {
		return err
	}
	if err := ctx.WriteState(ID, incomingPDA, incomingDiscriminator, &IncomingMessage{
		Bump:           bump,
		SigningPDABump: signingBump,
		Status:         StatusApproved,
		MessageHash:    msgHash,
		PayloadHash:    msg.PayloadHash,
	}); err != nil {
		return err
	}
	return g.emit(ctx, EventMessageApproved, &MessageApprovedEvent{
		CommandID:          commandID,
		SourceChain:        msg.CCID.Chain,
		MessageID:          msg.CCID.ID,
		SourceAddress:      msg.SourceAddress,
		DestinationChain:   msg.DestinationChain,
		DestinationAddress: msg.DestinationAddress,
		PayloadHash:        msg.PayloadHash,
	})
}

func (g *Gateway) validateMessage(ctx *runtime.Context, p *ValidateMessageParams) error {
	msg := &p.Message
	commandID := msg.CommandID()
	incomingPDA, _, err := IncomingMessageAddress(commandID)
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	var incoming IncomingMessage
	if err := ctx.ReadState(ID, incomingPDA, incomingDiscriminator, &incoming); err != nil {
		return err
	}

	msgHash, err := msg.Hash()
	if err != nil {
		return err
	}
	if msgHash != incoming.MessageHash {
		return fmt.Errorf("%w: message does not match approval", axelar.ErrInvalidMessage)
	}

	// Only the destination program can validate: it has to sign with its
	// per-message PDA through invoke_signed, which no other program can
	// derive to the same address.
	destProgram, err := DestinationProgram(msg.DestinationAddress)
	if err != nil {
		return err
	}
	signingPDA, err := solana.CreateProgramAddress(
		[][]byte{commandID[:], {incoming.SigningPDABump}},
		destProgram,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	if err := ctx.RequireSigner(signingPDA); err != nil {
		return err
	}

	if incoming.Status != StatusApproved {
		return fmt.Errorf("%w: message %x", ErrAlreadyExecuted, commandID)
	}
	incoming.Status = StatusExecuted
	if err := ctx.WriteState(ID, incomingPDA, incomingDiscriminator, &incoming); err != nil {
		return err
	}
	return g.emit(ctx, EventMessageExecuted, &MessageExecutedEvent{
		CommandID:   commandID,
		SourceChain: msg.CCID.Chain,
		MessageID:   msg.CCID.ID,
	})
}
