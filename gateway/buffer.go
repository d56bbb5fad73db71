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

// maxPayloadBufferSize bounds a staging buffer to what a destination
// program can reasonably consume in one execution.
const maxPayloadBufferSize = 10 * 1024 * 1024

func (g *Gateway) loadBuffer(ctx *runtime.Context, payer solana.PublicKey, commandID [32]byte) (*MessagePayload, solana.PublicKey, error) {
	pda, _, err := PayloadBufferAddress(payer, commandID)
	if err != nil {
		return nil, solana.PublicKey{}, fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	var buf MessagePayload
	if err := ctx.ReadState(ID, pda, bufferDiscriminator, &buf); err != nil {
		return nil, solana.PublicKey{}, err
	}
	return &buf, pda, nil
}

func (g *Gateway) initPayloadBuffer(ctx *runtime.Context, p *InitPayloadParams) error {
	if err := ctx.RequireSigner(p.Payer); err != nil {
		return err
	}
	if p.BufferSize == 0 || p.BufferSize > maxPayloadBufferSize {
		return fmt.Errorf("%w: buffer size %d", runtime.ErrInvalidArgument, p.BufferSize)
	}

	pda, bump, err := PayloadBufferAddress(p.Payer, p.CommandID)
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	space := discriminator.Length + 1 + 1 + 32 + 4 + int(p.BufferSize)
	if _, _, err := ctx.InitPDA(
		[][]byte{[]byte(payloadBufferSeed), p.Payer[:], p.CommandID[:]},
		space,
		p.Payer,
	); err != nil {
		return err
	}
	return ctx.WriteState(ID, pda, bufferDiscriminator, &MessagePayload{
		Bump: bump,
		Data: make([]byte, p.BufferSize),
	})
}

func (g *Gateway) writePayloadBuffer(ctx *runtime.Context, p *WritePayloadParams) error {
	if err := ctx.RequireSigner(p.Payer); err != nil {
		return err
	}
	buf, pda, err := g.loadBuffer(ctx, p.Payer, p.CommandID)
	if err != nil {
		return err
	}
	if buf.Committed {
		return fmt.Errorf("%w: %s", ErrBufferCommitted, pda)
	}
	end := int(p.Offset) + len(p.Bytes)
	if end > len(buf.Data) {
		return fmt.Errorf("%w: write [%d, %d) exceeds buffer of %d bytes",
			runtime.ErrInvalidArgument, p.Offset, end, len(buf.Data))
	}
	copy(buf.Data[p.Offset:], p.Bytes)
	return ctx.WriteState(ID, pda, bufferDiscriminator, buf)
}

func (g *Gateway) commitPayloadBuffer(ctx *runtime.Context, p *CommitPayloadParams) error {
	if err := ctx.RequireSigner(p.Payer); err != nil {
		return err
	}
	buf, pda, err := g.loadBuffer(ctx, p.Payer, p.CommandID)
	if err != nil {
		return err
	}
	if buf.Committed {
		return fmt.Errorf("%w: %s", ErrBufferCommitted, pda)
	}
	buf.PayloadHash = axelar.Keccak256(buf.Data)
	buf.Committed = true
	return ctx.WriteState(ID, pda, bufferDiscriminator, buf)
}

func (g *Gateway) closePayloadBuffer(ctx *runtime.Context, p *ClosePayloadParams) error {
	if err := ctx.RequireSigner(p.Payer); err != nil {
		return err
	}
	_, pda, err := g.loadBuffer(ctx, p.Payer, p.CommandID)
	if err != nil {
		return err
	}
	return ctx.Close(pda, p.Payer)
}

// CommittedPayload returns the payload staged by payer for a command id,
// failing unless the buffer hash has been frozen. Destination programs
// use it to source large payloads by reference.
func CommittedPayload(ctx *runtime.Context, payer solana.PublicKey, commandID [32]byte) ([]byte, [32]byte, error) {
	pda, _, err := PayloadBufferAddress(payer, commandID)
	if err != nil {
		return nil, [32]byte{}, fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	var buf MessagePayload
	if err := ctx.ReadState(ID, pda, bufferDiscriminator, &buf); err != nil {
		return nil, [32]byte{}, err
	}
	if !buf.Committed {
		return nil, [32]byte{}, fmt.Errorf("%w: %s", ErrBufferNotCommitted, pda)
	}
	return buf.Data, buf.PayloadHash, nil
}
