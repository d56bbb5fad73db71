// Copyright (C) 2025-2026, Eiger Oy. All rights reserved.
// See the file LICENSE for licensing terms.

package its

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	axelar "github.com/eigerco/axelar-amplifier-solana-sub000"
	"github.com/eigerco/axelar-amplifier-solana-sub000/discriminator"
	"github.com/eigerco/axelar-amplifier-solana-sub000/runtime"
)

// Instruction discriminators.
var (
	ixInitialize          = discriminator.Global("initialize")
	ixSetPauseStatus      = discriminator.Global("set_pause_status")
	ixSetTrustedChain     = discriminator.Global("set_trusted_chain")
	ixRemoveTrustedChain  = discriminator.Global("remove_trusted_chain")
	ixApproveDeploy       = discriminator.Global("approve_deploy_remote_interchain_token")
	ixRevokeDeploy        = discriminator.Global("revoke_deploy_remote_interchain_token")
	ixRegisterCanonical   = discriminator.Global("register_canonical_interchain_token")
	ixDeployRemoteCanon   = discriminator.Global("deploy_remote_canonical_interchain_token")
	ixDeployToken         = discriminator.Global("deploy_interchain_token")
	ixDeployRemote        = discriminator.Global("deploy_remote_interchain_token")
	ixDeployRemoteMinter  = discriminator.Global("deploy_remote_interchain_token_with_minter")
	ixRegisterMetadata    = discriminator.Global("register_token_metadata")
	ixRegisterCustom      = discriminator.Global("register_custom_token")
	ixLinkToken           = discriminator.Global("link_token")
	ixInterchainTransfer  = discriminator.Global("interchain_transfer")
	ixCallContractToken   = discriminator.Global("call_contract_with_interchain_token")
	ixSetFlowLimit        = discriminator.Global("set_flow_limit")
	ixSetTMFlowLimit      = discriminator.Global("set_token_manager_flow_limit")
	ixAddTMFlowLimiter    = discriminator.Global("add_token_manager_flow_limiter")
	ixRemoveTMFlowLimiter = discriminator.Global("remove_token_manager_flow_limiter")
	ixTransferOperator    = discriminator.Global("transfer_operatorship")
	ixProposeOperator     = discriminator.Global("propose_operatorship")
	ixAcceptOperator      = discriminator.Global("accept_operatorship")
	ixTransferTMOperator  = discriminator.Global("transfer_token_manager_operatorship")
	ixProposeTMOperator   = discriminator.Global("propose_token_manager_operatorship")
	ixAcceptTMOperator    = discriminator.Global("accept_token_manager_operatorship")
	ixHandoverMint        = discriminator.Global("handover_mint_authority")
	ixMintToken           = discriminator.Global("mint_interchain_token")
	ixTransferMintership  = discriminator.Global("transfer_interchain_token_mintership")
	ixProposeMintership   = discriminator.Global("propose_interchain_token_mintership")
	ixAcceptMintership    = discriminator.Global("accept_interchain_token_mintership")
	ixExecute             = discriminator.Global("execute")
)

// InitializeParams creates the ITS root.
type InitializeParams struct {
	Payer      solana.PublicKey
	Operator   solana.PublicKey
	ChainName  string
	HubAddress string
}

// SetPauseStatusParams toggles inbound processing.
type SetPauseStatusParams struct {
	Authority solana.PublicKey
	Paused    bool
}

// TrustedChainParams adds or removes a transfer counterparty.
type TrustedChainParams struct {
	Payer     solana.PublicKey
	Authority solana.PublicKey
	ChainName string
}

// ApproveDeployParams records a minter's consent for one remote deploy.
type ApproveDeployParams struct {
	Payer            solana.PublicKey
	Minter           solana.PublicKey
	Deployer         solana.PublicKey
	Salt             [32]byte
	DestinationChain string
}

// RegisterCanonicalParams registers an existing mint under its canonical
// token id.
type RegisterCanonicalParams struct {
	Payer solana.PublicKey
	Mint  solana.PublicKey
}

// DeployRemoteCanonicalParams replays a canonical registration to
// another chain.
type DeployRemoteCanonicalParams struct {
	Payer            solana.PublicKey
	Mint             solana.PublicKey
	DestinationChain string
	GasValue         uint64
}

// DeployTokenParams creates a new ITS-native token and its manager.
type DeployTokenParams struct {
	Payer         solana.PublicKey
	Salt          [32]byte
	Name          string
	Symbol        string
	Decimals      uint8
	InitialSupply uint64
	Minter        *solana.PublicKey `bin:"optional"`
}

// DeployRemoteParams replays a token deployment to another chain.
type DeployRemoteParams struct {
	Payer            solana.PublicKey
	Salt             [32]byte
	DestinationChain string
	GasValue         uint64
}

// DeployRemoteWithMinterParams is DeployRemoteParams plus a destination
// minter, consuming the minter's recorded approval.
type DeployRemoteWithMinterParams struct {
	Payer             solana.PublicKey
	Salt              [32]byte
	Minter            solana.PublicKey
	DestinationChain  string
	DestinationMinter []byte
	GasValue          uint64
}

// RegisterMetadataParams reports a mint's decimals to the hub.
type RegisterMetadataParams struct {
	Payer    solana.PublicKey
	Mint     solana.PublicKey
	GasValue uint64
}

// RegisterCustomParams places an existing mint under a custom manager.
type RegisterCustomParams struct {
	Payer    solana.PublicKey
	Salt     [32]byte
	Mint     solana.PublicKey
	Type     TokenManagerType
	Operator *solana.PublicKey `bin:"optional"`
}

// LinkTokenParams links a registered custom token to a remote chain.
type LinkTokenParams struct {
	Payer                   solana.PublicKey
	Salt                    [32]byte
	DestinationChain        string
	DestinationTokenAddress []byte
	Type                    TokenManagerType
	LinkParams              []byte
	GasValue                uint64
}

// TransferParams moves tokens to another chain.
type TransferParams struct {
	Sender             solana.PublicKey
	TokenID            [32]byte
	DestinationChain   string
	DestinationAddress []byte
	Amount             uint64
	GasValue           uint64
}

// TransferWithDataParams is TransferParams plus an executable payload
// for the destination contract.
type TransferWithDataParams struct {
	Sender             solana.PublicKey
	TokenID            [32]byte
	DestinationChain   string
	DestinationAddress []byte
	Amount             uint64
	Data               []byte
	GasValue           uint64
}

// FlowLimitParams sets a manager's flow limit.
type FlowLimitParams struct {
	Authority solana.PublicKey
	TokenID   [32]byte
	FlowLimit uint64
}

// FlowLimiterParams grants or revokes the flow-limiter role on a
// manager.
type FlowLimiterParams struct {
	Payer       solana.PublicKey
	Authority   solana.PublicKey
	TokenID     [32]byte
	FlowLimiter solana.PublicKey
}

// OperatorshipParams moves the operator role on the ITS root.
type OperatorshipParams struct {
	Payer solana.PublicKey
	From  solana.PublicKey
	To    solana.PublicKey
}

// TMRoleParams moves a role on one token manager.
type TMRoleParams struct {
	Payer   solana.PublicKey
	TokenID [32]byte
	From    solana.PublicKey
	To      solana.PublicKey
}

// HandoverMintParams transfers an existing mint's authority to the
// token manager.
type HandoverMintParams struct {
	Payer     solana.PublicKey
	TokenID   [32]byte
	Authority solana.PublicKey
}

// MintParams mints ITS-managed tokens locally, by a MINTER role holder.
type MintParams struct {
	Minter      solana.PublicKey
	TokenID     [32]byte
	Destination solana.PublicKey
	Amount      uint64
}

// ExecuteParams delivers a gateway-approved inbound GMP message.
type ExecuteParams struct {
	Payer   solana.PublicKey
	Message axelar.Message
	Payload []byte
}

// Service is the program object registered with the runtime.
type Service struct{}

// New returns the interchain token service program.
func New() *Service {
	return &Service{}
}

// ID returns the program address.
func (s *Service) ID() solana.PublicKey {
	return ID
}

// NewInstruction builds an ITS instruction.
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
func (s *Service) Execute(ctx *runtime.Context, ix runtime.Instruction) error {
	disc, err := discriminator.Peek(ix.Data)
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrInvalidInstructionData, err)
	}
	body := ix.Data[discriminator.Length:]

	switch disc {
	case ixInitialize:
		var p InitializeParams
		return decodeAndRun(body, &p, func() error { return s.initialize(ctx, &p) })
	case ixSetPauseStatus:
		var p SetPauseStatusParams
		return decodeAndRun(body, &p, func() error { return s.setPauseStatus(ctx, &p) })
	case ixSetTrustedChain:
		var p TrustedChainParams
		return decodeAndRun(body, &p, func() error { return s.setTrustedChain(ctx, &p) })
	case ixRemoveTrustedChain:
		var p TrustedChainParams
		return decodeAndRun(body, &p, func() error { return s.removeTrustedChain(ctx, &p) })
	case ixApproveDeploy:
		var p ApproveDeployParams
		return decodeAndRun(body, &p, func() error { return s.approveDeployRemote(ctx, &p) })
	case ixRevokeDeploy:
		var p ApproveDeployParams
		return decodeAndRun(body, &p, func() error { return s.revokeDeployRemote(ctx, &p) })
	case ixRegisterCanonical:
		var p RegisterCanonicalParams
		return decodeAndRun(body, &p, func() error { return s.registerCanonical(ctx, &p) })
	case ixDeployRemoteCanon:
		var p DeployRemoteCanonicalParams
		return decodeAndRun(body, &p, func() error { return s.deployRemoteCanonical(ctx, &p) })
	case ixDeployToken:
		var p DeployTokenParams
		return decodeAndRun(body, &p, func() error { return s.deployInterchainToken(ctx, &p) })
	case ixDeployRemote:
		var p DeployRemoteParams
		return decodeAndRun(body, &p, func() error { return s.deployRemote(ctx, &p) })
	case ixDeployRemoteMinter:
		var p DeployRemoteWithMinterParams
		return decodeAndRun(body, &p, func() error { return s.deployRemoteWithMinter(ctx, &p) })
	case ixRegisterMetadata:
		var p RegisterMetadataParams
		return decodeAndRun(body, &p, func() error { return s.registerTokenMetadata(ctx, &p) })
	case ixRegisterCustom:
		var p RegisterCustomParams
		return decodeAndRun(body, &p, func() error { return s.registerCustomToken(ctx, &p) })
	case ixLinkToken:
		var p LinkTokenParams
		return decodeAndRun(body, &p, func() error { return s.linkToken(ctx, &p) })
	case ixInterchainTransfer:
		var p TransferParams
		return decodeAndRun(body, &p, func() error { return s.interchainTransfer(ctx, &p, nil) })
	case ixCallContractToken:
		var p TransferWithDataParams
		return decodeAndRun(body, &p, func() error {
			base := TransferParams{
				Sender:             p.Sender,
				TokenID:            p.TokenID,
				DestinationChain:   p.DestinationChain,
				DestinationAddress: p.DestinationAddress,
				Amount:             p.Amount,
				GasValue:           p.GasValue,
			}
			return s.interchainTransfer(ctx, &base, p.Data)
		})
	case ixSetFlowLimit:
		var p FlowLimitParams
		return decodeAndRun(body, &p, func() error { return s.setFlowLimit(ctx, &p) })
	case ixSetTMFlowLimit:
		var p FlowLimitParams
		return decodeAndRun(body, &p, func() error { return s.setTokenManagerFlowLimit(ctx, &p) })
	case ixAddTMFlowLimiter:
		var p FlowLimiterParams
		return decodeAndRun(body, &p, func() error { return s.addFlowLimiter(ctx, &p) })
	case ixRemoveTMFlowLimiter:
		var p FlowLimiterParams
		return decodeAndRun(body, &p, func() error { return s.removeFlowLimiter(ctx, &p) })
	case ixTransferOperator:
		var p OperatorshipParams
		return decodeAndRun(body, &p, func() error { return s.transferOperatorship(ctx, &p) })
	case ixProposeOperator:
		var p OperatorshipParams
		return decodeAndRun(body, &p, func() error { return s.proposeOperatorship(ctx, &p) })
	case ixAcceptOperator:
		var p OperatorshipParams
		return decodeAndRun(body, &p, func() error { return s.acceptOperatorship(ctx, &p) })
	case ixTransferTMOperator:
		var p TMRoleParams
		return decodeAndRun(body, &p, func() error { return s.transferTMOperatorship(ctx, &p) })
	case ixProposeTMOperator:
		var p TMRoleParams
		return decodeAndRun(body, &p, func() error { return s.proposeTMOperatorship(ctx, &p) })
	case ixAcceptTMOperator:
		var p TMRoleParams
		return decodeAndRun(body, &p, func() error { return s.acceptTMOperatorship(ctx, &p) })
	case ixHandoverMint:
		var p HandoverMintParams
		return decodeAndRun(body, &p, func() error { return s.handoverMintAuthority(ctx, &p) })
	case ixMintToken:
		var p MintParams
		return decodeAndRun(body, &p, func() error { return s.mintInterchainToken(ctx, &p) })
	case ixTransferMintership:
		var p TMRoleParams
		return decodeAndRun(body, &p, func() error { return s.transferMintership(ctx, &p) })
	case ixProposeMintership:
		var p TMRoleParams
		return decodeAndRun(body, &p, func() error { return s.proposeMintership(ctx, &p) })
	case ixAcceptMintership:
		var p TMRoleParams
		return decodeAndRun(body, &p, func() error { return s.acceptMintership(ctx, &p) })
	case ixExecute:
		var p ExecuteParams
		return decodeAndRun(body, &p, func() error { return s.execute(ctx, &p) })
	default:
		return fmt.Errorf("%w: unknown its instruction %x", runtime.ErrInvalidInstructionData, disc)
	}
}

func decodeAndRun(body []byte, params interface{}, run func() error) error {
	if err := bin.UnmarshalBorsh(params, body); err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrInvalidInstructionData, err)
	}
	return run()
}

// loadConfig reads the ITS root, optionally rejecting when paused.
func (s *Service) loadConfig(ctx *runtime.Context, rejectPaused bool) (*Config, solana.PublicKey, error) {
	rootPDA, _, err := RootAddress()
	if err != nil {
		return nil, solana.PublicKey{}, fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	var cfg Config
	if err := ctx.ReadState(ID, rootPDA, rootDiscriminator, &cfg); err != nil {
		return nil, solana.PublicKey{}, err
	}
	if rejectPaused && cfg.Paused {
		return nil, solana.PublicKey{}, ErrPaused
	}
	return &cfg, rootPDA, nil
}

func (s *Service) loadManager(ctx *runtime.Context, tokenID [32]byte) (*TokenManager, solana.PublicKey, error) {
	pda, _, err := TokenManagerAddress(tokenID)
	if err != nil {
		return nil, solana.PublicKey{}, fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	var tm TokenManager
	if err := ctx.ReadState(ID, pda, tokenManagerDiscriminator, &tm); err != nil {
		return nil, solana.PublicKey{}, err
	}
	return &tm, pda, nil
}

func (s *Service) writeManager(ctx *runtime.Context, pda solana.PublicKey, tm *TokenManager) error {
	return ctx.WriteState(ID, pda, tokenManagerDiscriminator, tm)
}

// signAsManager asserts the token manager PDA's signature for mint and
// vault operations.
func (s *Service) signAsManager(ctx *runtime.Context, tm *TokenManager) (solana.PublicKey, error) {
	return ctx.SignWithSeeds([][]byte{[]byte(tokenManagerSeed), tm.TokenID[:], {tm.Bump}})
}

func (s *Service) isTrustedChain(ctx *runtime.Context, chain string) bool {
	pda, _, err := TrustedChainAddress(chain)
	if err != nil {
		return false
	}
	return ctx.Exists(pda)
}
