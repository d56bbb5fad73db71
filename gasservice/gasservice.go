// Copyright (C) 2025-2026, Eiger Oy. All rights reserved.
// See the file LICENSE for licensing terms.

// Package gasservice implements the per-message fee vault: payers attach
// native or fungible-token gas to outbound messages, operators collect
// accrued fees and issue refunds. The vault is one treasury PDA holding
// lamports and acting as the authority over per-mint associated token
// accounts. Operator standing is delegated to the operator registry.
package gasservice

import (
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/eigerco/axelar-amplifier-solana-sub000/discriminator"
	"github.com/eigerco/axelar-amplifier-solana-sub000/operators"
	"github.com/eigerco/axelar-amplifier-solana-sub000/runtime"
	"github.com/eigerco/axelar-amplifier-solana-sub000/runtime/token"
)

// ID is the gas service program address.
var ID = runtime.ProgramID("axelar_solana_gas_service")

var (
	ErrZeroAmount = errors.New("gas amount must be non-zero")
)

const treasurySeed = "gas-service-treasury"

// Treasury is the root vault account. It is intentionally
// empty-discriminated for a stable v1 layout.
type Treasury struct {
	Bump uint8
}

// Instruction discriminators.
var (
	ixInitialize    = discriminator.Global("initialize")
	ixPayNative     = discriminator.Global("pay_native_for_contract_call")
	ixAddNativeGas  = discriminator.Global("add_native_gas")
	ixCollectNative = discriminator.Global("collect_native_fees")
	ixRefundNative  = discriminator.Global("refund_native_fees")
	ixPaySPL        = discriminator.Global("pay_spl_for_contract_call")
	ixAddSPLGas     = discriminator.Global("add_spl_gas")
	ixCollectSPL    = discriminator.Global("collect_spl_fees")
	ixRefundSPL     = discriminator.Global("refund_spl_fees")
	ixTransferOp    = discriminator.Global("transfer_operatorship")
)

// InitializeParams creates the treasury PDA.
type InitializeParams struct {
	Payer solana.PublicKey
}

// PayNativeParams attaches lamport gas to an outbound contract call.
type PayNativeParams struct {
	Payer              solana.PublicKey
	DestinationChain   string
	DestinationAddress string
	PayloadHash        [32]byte
	RefundAddress      solana.PublicKey
	Params             []byte
	Amount             uint64
}

// AddNativeGasParams tops up gas for an already-sent message, identified
// by its transaction signature and event index.
type AddNativeGasParams struct {
	Payer         solana.PublicKey
	TxHash        [64]byte
	LogIndex      uint64
	Amount        uint64
	RefundAddress solana.PublicKey
}

// CollectNativeParams drains accrued lamport fees to a receiver.
type CollectNativeParams struct {
	Operator solana.PublicKey
	Receiver solana.PublicKey
	Amount   uint64
}

// RefundNativeParams refunds lamport gas for a specific message.
type RefundNativeParams struct {
	Operator      solana.PublicKey
	TxHash        [64]byte
	LogIndex      uint64
	RefundAddress solana.PublicKey
	Amount        uint64
}

// PaySPLParams is PayNativeParams over a fungible-token mint.
type PaySPLParams struct {
	Payer              solana.PublicKey
	Mint               solana.PublicKey
	DestinationChain   string
	DestinationAddress string
	PayloadHash        [32]byte
	RefundAddress      solana.PublicKey
	Params             []byte
	Amount             uint64
}

// AddSPLGasParams is AddNativeGasParams over a fungible-token mint.
type AddSPLGasParams struct {
	Payer         solana.PublicKey
	Mint          solana.PublicKey
	TxHash        [64]byte
	LogIndex      uint64
	Amount        uint64
	RefundAddress solana.PublicKey
}

// CollectSPLParams drains accrued token fees to a receiver wallet.
type CollectSPLParams struct {
	Operator solana.PublicKey
	Mint     solana.PublicKey
	Receiver solana.PublicKey
	Amount   uint64
}

// RefundSPLParams refunds token gas for a specific message.
type RefundSPLParams struct {
	Operator      solana.PublicKey
	Mint          solana.PublicKey
	TxHash        [64]byte
	LogIndex      uint64
	RefundAddress solana.PublicKey
	Amount        uint64
}

// TransferOperatorshipParams hands the caller's operator standing to a
// new key through the operator registry.
type TransferOperatorshipParams struct {
	Payer solana.PublicKey
	From  solana.PublicKey
	To    solana.PublicKey
}

// TreasuryAddress derives the vault PDA.
func TreasuryAddress() (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{[]byte(treasurySeed)}, ID)
}

// GasService is the program object registered with the runtime.
type GasService struct{}

// New returns the gas service program.
func New() *GasService {
	return &GasService{}
}

// ID returns the program address.
func (s *GasService) ID() solana.PublicKey {
	return ID
}

// NewInstruction builds a gas service instruction.
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

// Execute dispatches one instruction.
func (s *GasService) Execute(ctx *runtime.Context, ix runtime.Instruction) error {
	disc, err := discriminator.Peek(ix.Data)
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrInvalidInstructionData, err)
	}
	body := ix.Data[discriminator.Length:]

	decode := func(p interface{}) error {
		if err := bin.UnmarshalBorsh(p, body); err != nil {
			return fmt.Errorf("%w: %v", runtime.ErrInvalidInstructionData, err)
		}
		return nil
	}

	switch disc {
	case ixInitialize:
		var p InitializeParams
		if err := decode(&p); err != nil {
			return err
		}
		return s.initialize(ctx, &p)
	case ixPayNative:
		var p PayNativeParams
		if err := decode(&p); err != nil {
			return err
		}
		return s.payNative(ctx, &p)
	case ixAddNativeGas:
		var p AddNativeGasParams
		if err := decode(&p); err != nil {
			return err
		}
		return s.addNativeGas(ctx, &p)
	case ixCollectNative:
		var p CollectNativeParams
		if err := decode(&p); err != nil {
			return err
		}
		return s.collectNative(ctx, &p)
	case ixRefundNative:
		var p RefundNativeParams
		if err := decode(&p); err != nil {
			return err
		}
		return s.refundNative(ctx, &p)
	case ixPaySPL:
		var p PaySPLParams
		if err := decode(&p); err != nil {
			return err
		}
		return s.paySPL(ctx, &p)
	case ixAddSPLGas:
		var p AddSPLGasParams
		if err := decode(&p); err != nil {
			return err
		}
		return s.addSPLGas(ctx, &p)
	case ixCollectSPL:
		var p CollectSPLParams
		if err := decode(&p); err != nil {
			return err
		}
		return s.collectSPL(ctx, &p)
	case ixRefundSPL:
		var p RefundSPLParams
		if err := decode(&p); err != nil {
			return err
		}
		return s.refundSPL(ctx, &p)
	case ixTransferOp:
		var p TransferOperatorshipParams
		if err := decode(&p); err != nil {
			return err
		}
		return s.transferOperatorship(ctx, &p)
	default:
		return fmt.Errorf("%w: unknown gas service instruction %x", runtime.ErrInvalidInstructionData, disc)
	}
}

func (s *GasService) initialize(ctx *runtime.Context, p *InitializeParams) error {
	if err := ctx.RequireSigner(p.Payer); err != nil {
		return err
	}
	pda, bump, err := TreasuryAddress()
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	if _, _, err := ctx.InitPDA([][]byte{[]byte(treasurySeed)}, 1, p.Payer); err != nil {
		return err
	}
	return ctx.WriteRawState(ID, pda, &Treasury{Bump: bump})
}

func (s *GasService) treasury(ctx *runtime.Context) (solana.PublicKey, uint8, error) {
	pda, _, err := TreasuryAddress()
	if err != nil {
		return solana.PublicKey{}, 0, fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	var t Treasury
	if err := ctx.ReadRawState(ID, pda, &t); err != nil {
		return solana.PublicKey{}, 0, err
	}
	return pda, t.Bump, nil
}

// signAsTreasury asserts the treasury PDA's signature for token debits.
func (s *GasService) signAsTreasury(ctx *runtime.Context, bump uint8) error {
	_, err := ctx.SignWithSeeds([][]byte{[]byte(treasurySeed), {bump}})
	return err
}

func (s *GasService) payNative(ctx *runtime.Context, p *PayNativeParams) error {
	if p.Amount == 0 {
		return ErrZeroAmount
	}
	if err := ctx.RequireSigner(p.Payer); err != nil {
		return err
	}
	treasury, _, err := s.treasury(ctx)
	if err != nil {
		return err
	}
	if err := ctx.TransferLamports(p.Payer, treasury, p.Amount); err != nil {
		return err
	}
	return s.emit(ctx, EventNativeGasPaid, &NativeGasPaidEvent{
		Payer:              p.Payer,
		DestinationChain:   p.DestinationChain,
		DestinationAddress: p.DestinationAddress,
		PayloadHash:        p.PayloadHash,
		RefundAddress:      p.RefundAddress,
		Params:             p.Params,
		Amount:             p.Amount,
	})
}

func (s *GasService) addNativeGas(ctx *runtime.Context, p *AddNativeGasParams) error {
	if p.Amount == 0 {
		return ErrZeroAmount
	}
	if err := ctx.RequireSigner(p.Payer); err != nil {
		return err
	}
	treasury, _, err := s.treasury(ctx)
	if err != nil {
		return err
	}
	if err := ctx.TransferLamports(p.Payer, treasury, p.Amount); err != nil {
		return err
	}
	return s.emit(ctx, EventNativeGasAdded, &NativeGasAddedEvent{
		TxHash:        p.TxHash,
		LogIndex:      p.LogIndex,
		RefundAddress: p.RefundAddress,
		Amount:        p.Amount,
	})
}

func (s *GasService) collectNative(ctx *runtime.Context, p *CollectNativeParams) error {
	if err := operators.RequireOperator(ctx, p.Operator); err != nil {
		return err
	}
	treasury, _, err := s.treasury(ctx)
	if err != nil {
		return err
	}
	if err := ctx.TransferLamports(treasury, p.Receiver, p.Amount); err != nil {
		return err
	}
	return s.emit(ctx, EventNativeFeesCollected, &NativeFeesCollectedEvent{
		Receiver: p.Receiver,
		Amount:   p.Amount,
	})
}

func (s *GasService) refundNative(ctx *runtime.Context, p *RefundNativeParams) error {
	if err := operators.RequireOperator(ctx, p.Operator); err != nil {
		return err
	}
	treasury, _, err := s.treasury(ctx)
	if err != nil {
		return err
	}
	if err := ctx.TransferLamports(treasury, p.RefundAddress, p.Amount); err != nil {
		return err
	}
	return s.emit(ctx, EventNativeGasRefunded, &NativeGasRefundedEvent{
		TxHash:        p.TxHash,
		LogIndex:      p.LogIndex,
		RefundAddress: p.RefundAddress,
		Amount:        p.Amount,
	})
}

// transferOperatorship delegates to the operator registry, which checks
// the departing operator's signature and registration. The payer and
// departing operator signatures are forwarded over the CPI boundary.
func (s *GasService) transferOperatorship(ctx *runtime.Context, p *TransferOperatorshipParams) error {
	ix, err := operators.NewInstruction("transfer_operatorship", &operators.TransferOperatorshipParams{
		Payer: p.Payer,
		From:  p.From,
		To:    p.To,
	})
	if err != nil {
		return err
	}
	ix.Accounts = []*solana.AccountMeta{
		{PublicKey: p.Payer, IsSigner: true, IsWritable: true},
		{PublicKey: p.From, IsSigner: true},
	}
	if err := ctx.InvokeSigned(ix); err != nil {
		return err
	}
	return s.emit(ctx, EventOperatorshipTransferred, &OperatorshipTransferredEvent{
		Previous: p.From,
		New:      p.To,
	})
}

// treasuryATA resolves (creating if needed) the treasury's associated
// token account for a mint.
func (s *GasService) treasuryATA(ctx *runtime.Context, payer, mint solana.PublicKey) (solana.PublicKey, solana.PublicKey, uint8, error) {
	treasury, bump, err := s.treasury(ctx)
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, 0, err
	}
	ata, err := token.GetOrCreateAssociated(ctx, payer, treasury, mint)
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, 0, err
	}
	return treasury, ata, bump, nil
}

func (s *GasService) paySPL(ctx *runtime.Context, p *PaySPLParams) error {
	if p.Amount == 0 {
		return ErrZeroAmount
	}
	if err := ctx.RequireSigner(p.Payer); err != nil {
		return err
	}
	_, ata, _, err := s.treasuryATA(ctx, p.Payer, p.Mint)
	if err != nil {
		return err
	}
	mintState, _, err := token.GetMint(ctx, p.Mint)
	if err != nil {
		return err
	}
	source, err := token.GetOrCreateAssociated(ctx, p.Payer, p.Payer, p.Mint)
	if err != nil {
		return err
	}
	if err := token.TransferChecked(ctx, source, ata, p.Mint, p.Payer, p.Amount, mintState.Decimals); err != nil {
		return err
	}
	return s.emit(ctx, EventSPLGasPaid, &SPLGasPaidEvent{
		Payer:              p.Payer,
		Mint:               p.Mint,
		DestinationChain:   p.DestinationChain,
		DestinationAddress: p.DestinationAddress,
		PayloadHash:        p.PayloadHash,
		RefundAddress:      p.RefundAddress,
		Params:             p.Params,
		Amount:             p.Amount,
	})
}

func (s *GasService) addSPLGas(ctx *runtime.Context, p *AddSPLGasParams) error {
	if p.Amount == 0 {
		return ErrZeroAmount
	}
	if err := ctx.RequireSigner(p.Payer); err != nil {
		return err
	}
	_, ata, _, err := s.treasuryATA(ctx, p.Payer, p.Mint)
	if err != nil {
		return err
	}
	mintState, _, err := token.GetMint(ctx, p.Mint)
	if err != nil {
		return err
	}
	source, err := token.GetOrCreateAssociated(ctx, p.Payer, p.Payer, p.Mint)
	if err != nil {
		return err
	}
	if err := token.TransferChecked(ctx, source, ata, p.Mint, p.Payer, p.Amount, mintState.Decimals); err != nil {
		return err
	}
	return s.emit(ctx, EventSPLGasAdded, &SPLGasAddedEvent{
		Mint:          p.Mint,
		TxHash:        p.TxHash,
		LogIndex:      p.LogIndex,
		RefundAddress: p.RefundAddress,
		Amount:        p.Amount,
	})
}

func (s *GasService) collectSPL(ctx *runtime.Context, p *CollectSPLParams) error {
	if err := operators.RequireOperator(ctx, p.Operator); err != nil {
		return err
	}
	treasury, ata, bump, err := s.treasuryATA(ctx, p.Operator, p.Mint)
	if err != nil {
		return err
	}
	mintState, _, err := token.GetMint(ctx, p.Mint)
	if err != nil {
		return err
	}
	dest, err := token.GetOrCreateAssociated(ctx, p.Operator, p.Receiver, p.Mint)
	if err != nil {
		return err
	}
	if err := s.signAsTreasury(ctx, bump); err != nil {
		return err
	}
	if err := token.TransferChecked(ctx, ata, dest, p.Mint, treasury, p.Amount, mintState.Decimals); err != nil {
		return err
	}
	return s.emit(ctx, EventSPLFeesCollected, &SPLFeesCollectedEvent{
		Mint:     p.Mint,
		Receiver: p.Receiver,
		Amount:   p.Amount,
	})
}

func (s *GasService) refundSPL(ctx *runtime.Context, p *RefundSPLParams) error {
	if err := operators.RequireOperator(ctx, p.Operator); err != nil {
		return err
	}
	treasury, ata, bump, err := s.treasuryATA(ctx, p.Operator, p.Mint)
	if err != nil {
		return err
	}
	mintState, _, err := token.GetMint(ctx, p.Mint)
	if err != nil {
		return err
	}
	dest, err := token.GetOrCreateAssociated(ctx, p.Operator, p.RefundAddress, p.Mint)
	if err != nil {
		return err
	}
	if err := s.signAsTreasury(ctx, bump); err != nil {
		return err
	}
	if err := token.TransferChecked(ctx, ata, dest, p.Mint, treasury, p.Amount, mintState.Decimals); err != nil {
		return err
	}
	return s.emit(ctx, EventSPLGasRefunded, &SPLGasRefundedEvent{
		Mint:          p.Mint,
		TxHash:        p.TxHash,
		LogIndex:      p.LogIndex,
		RefundAddress: p.RefundAddress,
		Amount:        p.Amount,
	})
}
