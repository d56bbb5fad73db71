// Copyright (C) 2025-2026, Eiger Oy. All rights reserved.
// See the file LICENSE for licensing terms.

// Package memo is a minimal destination program: it receives GMP
// messages and interchain token transfers, records the memo text, and
// counts what it has seen. It shows the two integration points a real
// destination contract implements, message validation against the
// gateway and the token-executable entry point.
package memo

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	axelar "github.com/eigerco/axelar-amplifier-solana-sub000"
	"github.com/eigerco/axelar-amplifier-solana-sub000/discriminator"
	"github.com/eigerco/axelar-amplifier-solana-sub000/gateway"
	"github.com/eigerco/axelar-amplifier-solana-sub000/its"
	"github.com/eigerco/axelar-amplifier-solana-sub000/runtime"
)

// ID is the memo program address.
var ID = runtime.ProgramID("axelar_solana_memo")

const (
	counterSeed        = "memo-counter"
	eventAuthoritySeed = "__event_authority"
)

var (
	ixInitialize       = discriminator.Global("initialize")
	ixExecute          = discriminator.Global("execute")
	ixExecuteWithToken = discriminator.Global(its.ExecuteWithTokenMethod)

	counterDiscriminator = discriminator.Account("Counter")

	EventMemoReceived = discriminator.Event("MemoReceived")
)

// Counter tracks how many memos this program has processed.
type Counter struct {
	Messages  uint64
	Transfers uint64
	Bump      uint8
}

// InitializeParams creates the counter PDA.
type InitializeParams struct {
	Payer solana.PublicKey
}

// ExecuteParams delivers a gateway-approved message whose payload is the
// memo text.
type ExecuteParams struct {
	Payer   solana.PublicKey
	Message axelar.Message
	Payload []byte
}

// MemoReceivedEvent records one processed memo.
type MemoReceivedEvent struct {
	SourceChain string
	Memo        string
	WithTokens  bool
	Amount      uint64
}

// CounterAddress derives the counter PDA.
func CounterAddress() (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{[]byte(counterSeed)}, ID)
}

// Program is the memo program object.
type Program struct{}

// New returns the memo program.
func New() *Program {
	return &Program{}
}

// ID returns the program address.
func (p *Program) ID() solana.PublicKey {
	return ID
}

// NewInstruction builds a memo instruction.
func NewInstruction(method string, params interface{}) (runtime.Instruction, error) {
	body, err := bin.MarshalBorsh(params)
	if err != nil {
		return runtime.Instruction{}, fmt.Errorf("%w: %v", runtime.ErrInvalidInstructionData, err)
	}
	return runtime.Instruction{
		ProgramID: ID,
		Data:      discriminator.Global(method).Prepend(body),
	}, nil
}

// Execute decodes the instruction discriminator and dispatches.
func (p *Program) Execute(ctx *runtime.Context, ix runtime.Instruction) error {
	disc, err := discriminator.Peek(ix.Data)
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrInvalidInstructionData, err)
	}
	body := ix.Data[discriminator.Length:]

	switch disc {
	case ixInitialize:
		var params InitializeParams
		if err := bin.UnmarshalBorsh(&params, body); err != nil {
			return fmt.Errorf("%w: %v", runtime.ErrInvalidInstructionData, err)
		}
		return p.initialize(ctx, &params)
	case ixExecute:
		var params ExecuteParams
		if err := bin.UnmarshalBorsh(&params, body); err != nil {
			return fmt.Errorf("%w: %v", runtime.ErrInvalidInstructionData, err)
		}
		return p.execute(ctx, &params)
	case ixExecuteWithToken:
		var params its.ExecuteWithTokenParams
		if err := bin.UnmarshalBorsh(&params, body); err != nil {
			return fmt.Errorf("%w: %v", runtime.ErrInvalidInstructionData, err)
		}
		return p.executeWithToken(ctx, &params)
	default:
		return fmt.Errorf("%w: unknown memo instruction %x", runtime.ErrInvalidInstructionData, disc)
	}
}

func (p *Program) initialize(ctx *runtime.Context, params *InitializeParams) error {
	if err := ctx.RequireSigner(params.Payer); err != nil {
		return err
	}
	counter := Counter{}
	space := discriminator.Length + 8 + 8 + 1
	pda, bump, err := ctx.InitPDA([][]byte{[]byte(counterSeed)}, space, params.Payer)
	if err != nil {
		return err
	}
	counter.Bump = bump
	return ctx.WriteState(ID, pda, counterDiscriminator, &counter)
}

// execute validates an inbound GMP message against the gateway and
// records its payload as the memo text. An empty inline payload means
// the text was staged in a gateway payload buffer: the payer writes and
// commits it ahead of delivery and we read it back by command id.
func (p *Program) execute(ctx *runtime.Context, params *ExecuteParams) error {
	if err := ctx.RequireSigner(params.Payer); err != nil {
		return err
	}
	if err := gateway.ValidateViaCPI(ctx, params.Message); err != nil {
		return err
	}
	data := params.Payload
	if len(data) == 0 {
		staged, _, err := gateway.CommittedPayload(ctx, params.Payer, params.Message.CommandID())
		if err != nil {
			return err
		}
		data = staged
	}
	if axelar.Keccak256(data) != params.Message.PayloadHash {
		return fmt.Errorf("%w: memo payload does not match approved hash", runtime.ErrInvalidInstructionData)
	}

	counter, pda, err := p.loadCounter(ctx)
	if err != nil {
		return err
	}
	counter.Messages++
	if err := ctx.WriteState(ID, pda, counterDiscriminator, counter); err != nil {
		return err
	}

	memo := string(data)
	ctx.Logger().Info("memo received",
		zap.String("source_chain", params.Message.CCID.Chain),
		zap.String("memo", memo))
	return p.emit(ctx, &MemoReceivedEvent{
		SourceChain: params.Message.CCID.Chain,
		Memo:        memo,
	})
}

// executeWithToken is the entry point the token service invokes after
// crediting tokens. The service's root PDA signature is the only proof
// of the attached token context.
func (p *Program) executeWithToken(ctx *runtime.Context, params *its.ExecuteWithTokenParams) error {
	if err := its.RequireItsSigner(ctx); err != nil {
		return err
	}

	counter, pda, err := p.loadCounter(ctx)
	if err != nil {
		return err
	}
	counter.Transfers++
	if err := ctx.WriteState(ID, pda, counterDiscriminator, counter); err != nil {
		return err
	}

	memo := string(params.Data)
	ctx.Logger().Info("memo received with tokens",
		zap.String("source_chain", params.SourceChain),
		zap.String("memo", memo),
		zap.Uint64("amount", params.Amount))
	return p.emit(ctx, &MemoReceivedEvent{
		SourceChain: params.SourceChain,
		Memo:        memo,
		WithTokens:  true,
		Amount:      params.Amount,
	})
}

func (p *Program) loadCounter(ctx *runtime.Context) (*Counter, solana.PublicKey, error) {
	pda, _, err := CounterAddress()
	if err != nil {
		return nil, solana.PublicKey{}, fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	var counter Counter
	if err := ctx.ReadState(ID, pda, counterDiscriminator, &counter); err != nil {
		return nil, solana.PublicKey{}, err
	}
	return &counter, pda, nil
}

func (p *Program) emit(ctx *runtime.Context, v interface{}) error {
	_, bump, err := solana.FindProgramAddress([][]byte{[]byte(eventAuthoritySeed)}, ID)
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	return ctx.EmitEvent([][]byte{[]byte(eventAuthoritySeed), {bump}}, EventMemoReceived, v)
}
