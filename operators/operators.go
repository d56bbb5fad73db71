// Copyright (C) 2025-2026, Eiger Oy. All rights reserved.
// See the file LICENSE for licensing terms.

// Package operators is the shared operator registry: a single owner
// curates a set of operator accounts, and other programs check operator
// standing by reading the registry's PDAs. Ownership moves through a
// propose/accept handshake so it can never land on a key that cannot
// sign.
package operators

import (
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/eigerco/axelar-amplifier-solana-sub000/discriminator"
	"github.com/eigerco/axelar-amplifier-solana-sub000/runtime"
)

// ID is the operator registry program address.
var ID = runtime.ProgramID("axelar_solana_operators")

var (
	ErrNotOwner       = errors.New("not the registry owner")
	ErrNotOperator    = errors.New("not a registered operator")
	ErrNoPendingOwner = errors.New("no pending ownership proposal")
)

const (
	registrySeed = "operators-registry"
	operatorSeed = "operator"
)

var (
	registryDiscriminator = discriminator.Account("OperatorRegistry")
	operatorDiscriminator = discriminator.Account("OperatorAccount")
)

// Registry is the root account holding the owner and any pending
// ownership handover.
type Registry struct {
	Owner        solana.PublicKey
	PendingOwner *solana.PublicKey `bin:"optional"`
	Bump         uint8
}

// OperatorAccount marks its PDA's keyed operator as registered.
type OperatorAccount struct {
	Bump uint8
}

// Instruction discriminators.
var (
	ixInitialize       = discriminator.Global("initialize")
	ixAddOperator      = discriminator.Global("add_operator")
	ixRemoveOperator   = discriminator.Global("remove_operator")
	ixTransferOperator = discriminator.Global("transfer_operatorship")
	ixTransferOwner    = discriminator.Global("transfer_ownership")
	ixProposeOwner     = discriminator.Global("propose_ownership")
	ixAcceptOwner      = discriminator.Global("accept_ownership")
)

// InitializeParams creates the registry.
type InitializeParams struct {
	Payer solana.PublicKey
	Owner solana.PublicKey
}

// OperatorParams names the operator being added or removed.
type OperatorParams struct {
	Payer    solana.PublicKey
	Owner    solana.PublicKey
	Operator solana.PublicKey
}

// OwnershipParams names the counterparty of an ownership change.
type OwnershipParams struct {
	Owner solana.PublicKey
	To    solana.PublicKey
}

// TransferOperatorshipParams moves one operator registration to a new
// key, authorized by the departing operator rather than the owner.
type TransferOperatorshipParams struct {
	Payer solana.PublicKey
	From  solana.PublicKey
	To    solana.PublicKey
}

// RegistryAddress derives the root registry PDA.
func RegistryAddress() (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{[]byte(registrySeed)}, ID)
}

// OperatorAddress derives the membership PDA of an operator key.
func OperatorAddress(operator solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{[]byte(operatorSeed), operator[:]}, ID)
}

// IsOperator reports whether pk is a registered operator. Programs that
// delegate their operator checks to the registry call this with their
// own context.
func IsOperator(ctx *runtime.Context, pk solana.PublicKey) bool {
	pda, _, err := OperatorAddress(pk)
	if err != nil {
		return false
	}
	return ctx.Exists(pda)
}

// RequireOperator fails unless pk signed and is a registered operator.
func RequireOperator(ctx *runtime.Context, pk solana.PublicKey) error {
	if err := ctx.RequireSigner(pk); err != nil {
		return err
	}
	if !IsOperator(ctx, pk) {
		return fmt.Errorf("%w: %s", ErrNotOperator, pk)
	}
	return nil
}

// Operators is the registry program.
type Operators struct{}

// New returns the registry program.
func New() *Operators {
	return &Operators{}
}

// ID returns the program address.
func (o *Operators) ID() solana.PublicKey {
	return ID
}

// NewInstruction builds a registry instruction.
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

// Execute dispatches one registry instruction.
func (o *Operators) Execute(ctx *runtime.Context, ix runtime.Instruction) error {
	disc, err := discriminator.Peek(ix.Data)
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrInvalidInstructionData, err)
	}
	body := ix.Data[discriminator.Length:]

	switch disc {
	case ixInitialize:
		var p InitializeParams
		if err := bin.UnmarshalBorsh(&p, body); err != nil {
			return fmt.Errorf("%w: %v", runtime.ErrInvalidInstructionData, err)
		}
		return o.initialize(ctx, &p)
	case ixAddOperator:
		var p OperatorParams
		if err := bin.UnmarshalBorsh(&p, body); err != nil {
			return fmt.Errorf("%w: %v", runtime.ErrInvalidInstructionData, err)
		}
		return o.addOperator(ctx, &p)
	case ixRemoveOperator:
		var p OperatorParams
		if err := bin.UnmarshalBorsh(&p, body); err != nil {
			return fmt.Errorf("%w: %v", runtime.ErrInvalidInstructionData, err)
		}
		return o.removeOperator(ctx, &p)
	case ixTransferOperator:
		var p TransferOperatorshipParams
		if err := bin.UnmarshalBorsh(&p, body); err != nil {
			return fmt.Errorf("%w: %v", runtime.ErrInvalidInstructionData, err)
		}
		return o.transferOperatorship(ctx, &p)
	case ixTransferOwner:
		var p OwnershipParams
		if err := bin.UnmarshalBorsh(&p, body); err != nil {
			return fmt.Errorf("%w: %v", runtime.ErrInvalidInstructionData, err)
		}
		return o.transferOwnership(ctx, &p)
	case ixProposeOwner:
		var p OwnershipParams
		if err := bin.UnmarshalBorsh(&p, body); err != nil {
			return fmt.Errorf("%w: %v", runtime.ErrInvalidInstructionData, err)
		}
		return o.proposeOwnership(ctx, &p)
	case ixAcceptOwner:
		var p OwnershipParams
		if err := bin.UnmarshalBorsh(&p, body); err != nil {
			return fmt.Errorf("%w: %v", runtime.ErrInvalidInstructionData, err)
		}
		return o.acceptOwnership(ctx, &p)
	default:
		return fmt.Errorf("%w: unknown registry instruction %x", runtime.ErrInvalidInstructionData, disc)
	}
}

func (o *Operators) loadRegistry(ctx *runtime.Context) (*Registry, solana.PublicKey, error) {
	pda, _, err := RegistryAddress()
	if err != nil {
		return nil, solana.PublicKey{}, fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	var reg Registry
	if err := ctx.ReadState(ID, pda, registryDiscriminator, &reg); err != nil {
		return nil, solana.PublicKey{}, err
	}
	return &reg, pda, nil
}

func (o *Operators) requireOwner(ctx *runtime.Context, claimed solana.PublicKey) (*Registry, solana.PublicKey, error) {
	reg, pda, err := o.loadRegistry(ctx)
	if err != nil {
		return nil, solana.PublicKey{}, err
	}
	if !reg.Owner.Equals(claimed) {
		return nil, solana.PublicKey{}, fmt.Errorf("%w: %s", ErrNotOwner, claimed)
	}
	if err := ctx.RequireSigner(claimed); err != nil {
		return nil, solana.PublicKey{}, err
	}
	return reg, pda, nil
}

func (o *Operators) initialize(ctx *runtime.Context, p *InitializeParams) error {
	if err := ctx.RequireSigner(p.Payer); err != nil {
		return err
	}
	pda, bump, err := RegistryAddress()
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	if _, _, err := ctx.InitPDA([][]byte{[]byte(registrySeed)}, discriminator.Length+32+33+1, p.Payer); err != nil {
		return err
	}
	return ctx.WriteState(ID, pda, registryDiscriminator, &Registry{Owner: p.Owner, Bump: bump})
}

func (o *Operators) addOperator(ctx *runtime.Context, p *OperatorParams) error {
	if _, _, err := o.requireOwner(ctx, p.Owner); err != nil {
		return err
	}
	pda, bump, err := OperatorAddress(p.Operator)
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	if ctx.Exists(pda) {
		return nil // already registered
	}
	if _, _, err := ctx.InitPDA([][]byte{[]byte(operatorSeed), p.Operator[:]}, discriminator.Length+1, p.Payer); err != nil {
		return err
	}
	return ctx.WriteState(ID, pda, operatorDiscriminator, &OperatorAccount{Bump: bump})
}

func (o *Operators) removeOperator(ctx *runtime.Context, p *OperatorParams) error {
	if _, _, err := o.requireOwner(ctx, p.Owner); err != nil {
		return err
	}
	pda, _, err := OperatorAddress(p.Operator)
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	if !ctx.Exists(pda) {
		return fmt.Errorf("%w: %s", ErrNotOperator, p.Operator)
	}
	return ctx.Close(pda, p.Payer)
}

func (o *Operators) transferOperatorship(ctx *runtime.Context, p *TransferOperatorshipParams) error {
	if err := RequireOperator(ctx, p.From); err != nil {
		return err
	}
	fromPDA, _, err := OperatorAddress(p.From)
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	if err := ctx.Close(fromPDA, p.From); err != nil {
		return err
	}
	toPDA, bump, err := OperatorAddress(p.To)
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	if ctx.Exists(toPDA) {
		return nil // successor already registered
	}
	if _, _, err := ctx.InitPDA([][]byte{[]byte(operatorSeed), p.To[:]}, discriminator.Length+1, p.Payer); err != nil {
		return err
	}
	return ctx.WriteState(ID, toPDA, operatorDiscriminator, &OperatorAccount{Bump: bump})
}

func (o *Operators) transferOwnership(ctx *runtime.Context, p *OwnershipParams) error {
	reg, pda, err := o.requireOwner(ctx, p.Owner)
	if err != nil {
		return err
	}
	reg.Owner = p.To
	reg.PendingOwner = nil
	return ctx.WriteState(ID, pda, registryDiscriminator, reg)
}

func (o *Operators) proposeOwnership(ctx *runtime.Context, p *OwnershipParams) error {
	reg, pda, err := o.requireOwner(ctx, p.Owner)
	if err != nil {
		return err
	}
	to := p.To
	reg.PendingOwner = &to
	return ctx.WriteState(ID, pda, registryDiscriminator, reg)
}

func (o *Operators) acceptOwnership(ctx *runtime.Context, p *OwnershipParams) error {
	reg, pda, err := o.loadRegistry(ctx)
	if err != nil {
		return err
	}
	if reg.PendingOwner == nil || !reg.PendingOwner.Equals(p.To) {
		return fmt.Errorf("%w: for %s", ErrNoPendingOwner, p.To)
	}
	if err := ctx.RequireSigner(p.To); err != nil {
		return err
	}
	reg.Owner = p.To
	reg.PendingOwner = nil
	return ctx.WriteState(ID, pda, registryDiscriminator, reg)
}
