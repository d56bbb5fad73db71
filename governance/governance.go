// Copyright (C) 2025-2026, Eiger Oy. All rights reserved.
// See the file LICENSE for licensing terms.

// Package governance implements the time-locked proposal engine. The
// hub's governance contract schedules, cancels, and approves proposals
// through GMP messages; anyone may execute a proposal once its ETA has
// passed, and the operator may execute approved proposals early. The
// executed call is an invoke_signed into the target program with the
// governance config PDA as signer, so targets can gate privileged
// instructions on that signature.
package governance

import (
	"encoding/binary"
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	axelar "github.com/eigerco/axelar-amplifier-solana-sub000"
	"github.com/eigerco/axelar-amplifier-solana-sub000/discriminator"
	"github.com/eigerco/axelar-amplifier-solana-sub000/gateway"
	"github.com/eigerco/axelar-amplifier-solana-sub000/runtime"
)

// ID is the governance program address.
var ID = runtime.ProgramID("axelar_solana_governance")

var (
	ErrNotGovernanceOrigin = errors.New("message is not from the governance origin")
	ErrUnknownCommand      = errors.New("unknown governance command")
	ErrEtaTooEarly         = errors.New("proposal eta is below the minimum delay")
	ErrEtaNotReached       = errors.New("proposal eta has not been reached")
	ErrAlreadyScheduled    = errors.New("proposal already scheduled")
	ErrNotScheduled        = errors.New("proposal is not scheduled")
	ErrNotApproved         = errors.New("proposal is not operator approved")
	ErrNotOperator         = errors.New("not the governance operator")
)

// Governance command tags, the first byte of the GMP payload.
const (
	CommandScheduleTimeLockProposal uint8 = iota
	CommandCancelTimeLockProposal
	CommandApproveOperatorProposal
	CommandCancelOperatorApproval
)

const (
	configSeed         = "governance-config"
	proposalSeed       = "proposal"
	operatorMarkerSeed = "operator-proposal"
	eventAuthoritySeed = "__event_authority"
)

var (
	configDiscriminator   = discriminator.Account("GovernanceConfig")
	proposalDiscriminator = discriminator.Account("ExecutableProposal")
	markerDiscriminator   = discriminator.Account("OperatorManagedProposal")
)

// Instruction discriminators.
var (
	ixInitializeConfig   = discriminator.Global("initialize_config")
	ixUpdateConfig       = discriminator.Global("update_config")
	ixTransferOperator   = discriminator.Global("transfer_operatorship")
	ixProcessGMP         = discriminator.Global("process_gmp")
	ixExecuteProposal    = discriminator.Global("execute_proposal")
	ixExecuteOperatorTag = discriminator.Global("execute_operator_proposal")
	ixWithdrawTokens     = discriminator.Global("withdraw_tokens")
)

// Config is the governance root account. The chain and address hashes
// pin the single hub origin allowed to issue commands.
type Config struct {
	Operator        solana.PublicKey
	ChainHash       [32]byte
	AddressHash     [32]byte
	MinimumEtaDelay uint64
	Bump            uint8
}

// ExecutableProposal stores the earliest execution time of a scheduled
// proposal, keyed by the proposal hash.
type ExecutableProposal struct {
	Eta  uint64
	Bump uint8
}

// OperatorManagedProposal marks a proposal as executable by the operator
// regardless of its ETA.
type OperatorManagedProposal struct {
	Bump uint8
}

// InitializeConfigParams creates the governance root.
type InitializeConfigParams struct {
	Payer           solana.PublicKey
	Operator        solana.PublicKey
	ChainHash       [32]byte
	AddressHash     [32]byte
	MinimumEtaDelay uint64
}

// UpdateConfigParams replaces the origin hashes and minimum delay. The
// operator and bump survive updates.
type UpdateConfigParams struct {
	Operator        solana.PublicKey
	ChainHash       [32]byte
	AddressHash     [32]byte
	MinimumEtaDelay uint64
}

// TransferOperatorshipParams moves the governance operator key.
type TransferOperatorshipParams struct {
	Current solana.PublicKey
	New     solana.PublicKey
}

// ProcessGMPParams delivers a gateway-approved governance command.
type ProcessGMPParams struct {
	Payer   solana.PublicKey
	Message axelar.Message
	Payload []byte
}

// ExecuteProposalParams executes a matured proposal. The triple must
// re-hash to the scheduled proposal.
type ExecuteProposalParams struct {
	Payer       solana.PublicKey
	Target      solana.PublicKey
	CallData    []byte
	NativeValue uint64
}

// WithdrawTokensParams drains lamports from the config PDA. Only the
// config PDA itself may sign this, so it is reachable solely through an
// executed proposal targeting this program.
type WithdrawTokensParams struct {
	Receiver solana.PublicKey
	Amount   uint64
}

// ConfigAddress derives the governance config PDA.
func ConfigAddress() (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{[]byte(configSeed)}, ID)
}

// ProposalHash identifies a proposal by its execution triple.
func ProposalHash(target solana.PublicKey, callData []byte, nativeValue uint64) [32]byte {
	var value [8]byte
	binary.LittleEndian.PutUint64(value[:], nativeValue)
	return axelar.Keccak256(target[:], callData, value[:])
}

// ProposalAddress derives the executable-proposal PDA of a proposal hash.
func ProposalAddress(hash [32]byte) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{[]byte(proposalSeed), hash[:]}, ID)
}

// OperatorMarkerAddress derives the operator-approval marker PDA of a
// proposal hash.
func OperatorMarkerAddress(hash [32]byte) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{[]byte(operatorMarkerSeed), hash[:]}, ID)
}

// Governance is the program object registered with the runtime.
type Governance struct{}

// New returns the governance program.
func New() *Governance {
	return &Governance{}
}

// ID returns the program address.
func (g *Governance) ID() solana.PublicKey {
	return ID
}

// NewInstruction builds a governance instruction.
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
func (g *Governance) Execute(ctx *runtime.Context, ix runtime.Instruction) error {
	disc, err := discriminator.Peek(ix.Data)
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrInvalidInstructionData, err)
	}
	body := ix.Data[discriminator.Length:]
	decode := func(v interface{}) error {
		if err := bin.UnmarshalBorsh(v, body); err != nil {
			return fmt.Errorf("%w: %v", runtime.ErrInvalidInstructionData, err)
		}
		return nil
	}

	switch disc {
	case ixInitializeConfig:
		var p InitializeConfigParams
		if err := decode(&p); err != nil {
			return err
		}
		return g.initializeConfig(ctx, &p)
	case ixUpdateConfig:
		var p UpdateConfigParams
		if err := decode(&p); err != nil {
			return err
		}
		return g.updateConfig(ctx, &p)
	case ixTransferOperator:
		var p TransferOperatorshipParams
		if err := decode(&p); err != nil {
			return err
		}
		return g.transferOperatorship(ctx, &p)
	case ixProcessGMP:
		var p ProcessGMPParams
		if err := decode(&p); err != nil {
			return err
		}
		return g.processGMP(ctx, &p)
	case ixExecuteProposal:
		var p ExecuteProposalParams
		if err := decode(&p); err != nil {
			return err
		}
		return g.executeProposal(ctx, &p, false)
	case ixExecuteOperatorTag:
		var p ExecuteProposalParams
		if err := decode(&p); err != nil {
			return err
		}
		return g.executeProposal(ctx, &p, true)
	case ixWithdrawTokens:
		var p WithdrawTokensParams
		if err := decode(&p); err != nil {
			return err
		}
		return g.withdrawTokens(ctx, &p)
	default:
		return fmt.Errorf("%w: unknown governance instruction %x", runtime.ErrInvalidInstructionData, disc)
	}
}

func (g *Governance) loadConfig(ctx *runtime.Context) (*Config, solana.PublicKey, error) {
	pda, _, err := ConfigAddress()
	if err != nil {
		return nil, solana.PublicKey{}, fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	var cfg Config
	if err := ctx.ReadState(ID, pda, configDiscriminator, &cfg); err != nil {
		return nil, solana.PublicKey{}, err
	}
	return &cfg, pda, nil
}

func (g *Governance) initializeConfig(ctx *runtime.Context, p *InitializeConfigParams) error {
	if err := ctx.RequireSigner(p.Payer); err != nil {
		return err
	}
	cfg := Config{
		Operator:        p.Operator,
		ChainHash:       p.ChainHash,
		AddressHash:     p.AddressHash,
		MinimumEtaDelay: p.MinimumEtaDelay,
	}
	body, err := bin.MarshalBorsh(&cfg)
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrInvalidAccountData, err)
	}
	pda, bump, err := ctx.InitPDA([][]byte{[]byte(configSeed)}, discriminator.Length+len(body), p.Payer)
	if err != nil {
		return err
	}
	cfg.Bump = bump
	return ctx.WriteState(ID, pda, configDiscriminator, &cfg)
}

func (g *Governance) updateConfig(ctx *runtime.Context, p *UpdateConfigParams) error {
	cfg, pda, err := g.loadConfig(ctx)
	if err != nil {
		return err
	}
	if err := ctx.RequireSigner(cfg.Operator); err != nil {
		return err
	}
	// Operator and bump are immutable through updates; operator changes
	// go through transfer_operatorship.
	cfg.ChainHash = p.ChainHash
	cfg.AddressHash = p.AddressHash
	cfg.MinimumEtaDelay = p.MinimumEtaDelay
	return ctx.WriteState(ID, pda, configDiscriminator, cfg)
}

func (g *Governance) transferOperatorship(ctx *runtime.Context, p *TransferOperatorshipParams) error {
	cfg, pda, err := g.loadConfig(ctx)
	if err != nil {
		return err
	}
	if !p.Current.Equals(cfg.Operator) {
		return fmt.Errorf("%w: %s", ErrNotOperator, p.Current)
	}
	authority := ctx.UpgradeAuthority()
	if !ctx.IsSigner(cfg.Operator) && (authority.IsZero() || !ctx.IsSigner(authority)) {
		return fmt.Errorf("%w: neither operator nor upgrade authority signed", ErrNotOperator)
	}
	cfg.Operator = p.New
	if err := ctx.WriteState(ID, pda, configDiscriminator, cfg); err != nil {
		return err
	}
	return g.emit(ctx, EventOperatorshipTransferred, &OperatorshipTransferredEvent{
		Previous: p.Current,
		New:      p.New,
	})
}

// processGMP authenticates an inbound command against the configured
// origin and applies it to the proposal state machine.
func (g *Governance) processGMP(ctx *runtime.Context, p *ProcessGMPParams) error {
	if err := ctx.RequireSigner(p.Payer); err != nil {
		return err
	}
	cfg, _, err := g.loadConfig(ctx)
	if err != nil {
		return err
	}
	if err := gateway.ValidateViaCPI(ctx, p.Message); err != nil {
		return err
	}
	if axelar.Keccak256(p.Payload) != p.Message.PayloadHash {
		return fmt.Errorf("%w: payload does not match approved hash", runtime.ErrInvalidArgument)
	}
	if axelar.Keccak256([]byte(p.Message.CCID.Chain)) != cfg.ChainHash ||
		axelar.Keccak256([]byte(p.Message.SourceAddress)) != cfg.AddressHash {
		return fmt.Errorf("%w: %s %s", ErrNotGovernanceOrigin, p.Message.CCID.Chain, p.Message.SourceAddress)
	}

	cmd, err := DecodeCommand(p.Payload)
	if err != nil {
		return err
	}
	hash := ProposalHash(cmd.Target, cmd.CallData, cmd.NativeValue)
	switch cmd.Tag {
	case CommandScheduleTimeLockProposal:
		return g.schedule(ctx, cfg, p.Payer, hash, cmd)
	case CommandCancelTimeLockProposal:
		return g.cancelSchedule(ctx, p.Payer, hash, cmd)
	case CommandApproveOperatorProposal:
		return g.approveOperator(ctx, p.Payer, hash, cmd)
	case CommandCancelOperatorApproval:
		return g.cancelOperatorApproval(ctx, p.Payer, hash, cmd)
	default:
		return fmt.Errorf("%w: tag %d", ErrUnknownCommand, cmd.Tag)
	}
}

func (g *Governance) schedule(ctx *runtime.Context, cfg *Config, payer solana.PublicKey, hash [32]byte, cmd *Command) error {
	minEta := uint64(ctx.Clock()) + cfg.MinimumEtaDelay
	if cmd.Eta < minEta {
		return fmt.Errorf("%w: eta %d, earliest %d", ErrEtaTooEarly, cmd.Eta, minEta)
	}
	pda, bump, err := ProposalAddress(hash)
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	if ctx.Exists(pda) {
		return fmt.Errorf("%w: %x", ErrAlreadyScheduled, hash)
	}
	if _, _, err := ctx.InitPDA(
		[][]byte{[]byte(proposalSeed), hash[:]},
		discriminator.Length+9,
		payer,
	); err != nil {
		return err
	}
	if err := ctx.WriteState(ID, pda, proposalDiscriminator, &ExecutableProposal{Eta: cmd.Eta, Bump: bump}); err != nil {
		return err
	}
	return g.emit(ctx, EventProposalScheduled, &ProposalScheduledEvent{
		Hash:        hash,
		Target:      cmd.Target,
		CallData:    cmd.CallData,
		NativeValue: cmd.NativeValue,
		Eta:         cmd.Eta,
	})
}

func (g *Governance) cancelSchedule(ctx *runtime.Context, payer solana.PublicKey, hash [32]byte, cmd *Command) error {
	pda, _, err := ProposalAddress(hash)
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	if !ctx.Exists(pda) {
		return fmt.Errorf("%w: %x", ErrNotScheduled, hash)
	}
	if err := ctx.Close(pda, payer); err != nil {
		return err
	}
	return g.emit(ctx, EventProposalCancelled, &ProposalCancelledEvent{
		Hash:   hash,
		Target: cmd.Target,
		Eta:    cmd.Eta,
	})
}

func (g *Governance) approveOperator(ctx *runtime.Context, payer solana.PublicKey, hash [32]byte, cmd *Command) error {
	pda, bump, err := OperatorMarkerAddress(hash)
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	if ctx.Exists(pda) {
		return fmt.Errorf("%w: approval %x", runtime.ErrAlreadyInitialized, hash)
	}
	if _, _, err := ctx.InitPDA(
		[][]byte{[]byte(operatorMarkerSeed), hash[:]},
		discriminator.Length+1,
		payer,
	); err != nil {
		return err
	}
	if err := ctx.WriteState(ID, pda, markerDiscriminator, &OperatorManagedProposal{Bump: bump}); err != nil {
		return err
	}
	return g.emit(ctx, EventOperatorProposalApproved, &OperatorProposalApprovedEvent{
		Hash:   hash,
		Target: cmd.Target,
	})
}

func (g *Governance) cancelOperatorApproval(ctx *runtime.Context, payer solana.PublicKey, hash [32]byte, cmd *Command) error {
	pda, _, err := OperatorMarkerAddress(hash)
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	if !ctx.Exists(pda) {
		return fmt.Errorf("%w: %x", ErrNotApproved, hash)
	}
	if err := ctx.Close(pda, payer); err != nil {
		return err
	}
	return g.emit(ctx, EventOperatorApprovalCancelled, &OperatorApprovalCancelledEvent{
		Hash:   hash,
		Target: cmd.Target,
	})
}

// executeProposal runs a matured (or operator-approved) proposal: an
// invoke_signed into the target with the config PDA as signer, plus the
// native value from the config PDA's lamports.
func (g *Governance) executeProposal(ctx *runtime.Context, p *ExecuteProposalParams, asOperator bool) error {
	if err := ctx.RequireSigner(p.Payer); err != nil {
		return err
	}
	cfg, configPDA, err := g.loadConfig(ctx)
	if err != nil {
		return err
	}
	hash := ProposalHash(p.Target, p.CallData, p.NativeValue)
	proposalPDA, _, err := ProposalAddress(hash)
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	if !ctx.Exists(proposalPDA) {
		return fmt.Errorf("%w: %x", ErrNotScheduled, hash)
	}
	var proposal ExecutableProposal
	if err := ctx.ReadState(ID, proposalPDA, proposalDiscriminator, &proposal); err != nil {
		return err
	}

	markerPDA, _, err := OperatorMarkerAddress(hash)
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	if asOperator {
		if err := ctx.RequireSigner(cfg.Operator); err != nil {
			return fmt.Errorf("%w: %v", ErrNotOperator, err)
		}
		if !ctx.Exists(markerPDA) {
			return fmt.Errorf("%w: %x", ErrNotApproved, hash)
		}
	} else if uint64(ctx.Clock()) < proposal.Eta {
		return fmt.Errorf("%w: now %d, eta %d", ErrEtaNotReached, ctx.Clock(), proposal.Eta)
	}

	if p.NativeValue > 0 {
		if err := ctx.TransferLamports(configPDA, p.Target, p.NativeValue); err != nil {
			return err
		}
	}
	if err := ctx.InvokeSigned(runtime.Instruction{
		ProgramID: p.Target,
		Data:      p.CallData,
		Accounts:  []*solana.AccountMeta{{PublicKey: configPDA, IsSigner: true}},
	}, [][]byte{[]byte(configSeed), {cfg.Bump}}); err != nil {
		return err
	}

	if err := ctx.Close(proposalPDA, p.Payer); err != nil {
		return err
	}
	if ctx.Exists(markerPDA) {
		if err := ctx.Close(markerPDA, p.Payer); err != nil {
			return err
		}
	}
	disc := EventProposalExecuted
	if asOperator {
		disc = EventOperatorProposalExecuted
	}
	return g.emit(ctx, disc, &ProposalExecutedEvent{
		Hash:        hash,
		Target:      p.Target,
		NativeValue: p.NativeValue,
	})
}

// withdrawTokens drains lamports from the config PDA. The config PDA
// itself must sign, which only happens inside an executed proposal
// targeting this program.
func (g *Governance) withdrawTokens(ctx *runtime.Context, p *WithdrawTokensParams) error {
	_, configPDA, err := g.loadConfig(ctx)
	if err != nil {
		return err
	}
	if err := ctx.RequireSigner(configPDA); err != nil {
		return err
	}
	return ctx.TransferLamports(configPDA, p.Receiver, p.Amount)
}
