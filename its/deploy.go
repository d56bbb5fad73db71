// Copyright (C) 2025-2026, Eiger Oy. All rights reserved.
// See the file LICENSE for licensing terms.

package its

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/eigerco/axelar-amplifier-solana-sub000/discriminator"
	"github.com/eigerco/axelar-amplifier-solana-sub000/payload"
	"github.com/eigerco/axelar-amplifier-solana-sub000/rolemanagement"
	"github.com/eigerco/axelar-amplifier-solana-sub000/runtime"
	"github.com/eigerco/axelar-amplifier-solana-sub000/runtime/token"
)

// managerSpec carries everything createManager needs to materialize a
// token manager.
type managerSpec struct {
	TokenID  [32]byte
	Type     TokenManagerType
	Mint     solana.PublicKey
	Name     string
	Symbol   string
	Operator solana.PublicKey
	Minter   *solana.PublicKey
}

// createManager materializes the (token id -> manager) binding: checks
// mint compatibility, creates the vault, grants the deployment roles.
// Deployment is at-most-once per token id.
func (s *Service) createManager(ctx *runtime.Context, payer solana.PublicKey, spec *managerSpec) (*TokenManager, solana.PublicKey, error) {
	managerPDA, bump, err := TokenManagerAddress(spec.TokenID)
	if err != nil {
		return nil, solana.PublicKey{}, fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	if ctx.Exists(managerPDA) {
		return nil, solana.PublicKey{}, fmt.Errorf("%w: %x", ErrAlreadyDeployed, spec.TokenID)
	}

	mintState, _, err := token.GetMint(ctx, spec.Mint)
	if err != nil {
		return nil, solana.PublicKey{}, err
	}
	switch spec.Type {
	case LockUnlock:
		if mintState.TransferFee != nil {
			return nil, solana.PublicKey{}, fmt.Errorf("%w: %s carries a transfer fee", ErrIncompatibleMint, LockUnlock)
		}
	case LockUnlockFee:
		if mintState.TransferFee == nil {
			return nil, solana.PublicKey{}, fmt.Errorf("%w: %s requires a transfer fee", ErrIncompatibleMint, LockUnlockFee)
		}
	}

	tm := &TokenManager{
		Type:     spec.Type,
		TokenID:  spec.TokenID,
		Mint:     spec.Mint,
		Name:     spec.Name,
		Symbol:   spec.Symbol,
		Decimals: mintState.Decimals,
		Bump:     bump,
	}

	space, err := bin.MarshalBorsh(tm)
	if err != nil {
		return nil, solana.PublicKey{}, fmt.Errorf("%w: %v", runtime.ErrInvalidAccountData, err)
	}
	if _, _, err := ctx.InitPDA(
		[][]byte{[]byte(tokenManagerSeed), spec.TokenID[:]},
		discriminator.Length+len(space),
		payer,
	); err != nil {
		return nil, solana.PublicKey{}, err
	}

	// Vault ATA owned by the manager PDA; lock types custody deposits
	// here, mintable types keep it as the managed token's home account.
	vault, err := token.GetOrCreateAssociated(ctx, payer, managerPDA, spec.Mint)
	if err != nil {
		return nil, solana.PublicKey{}, err
	}
	tm.Vault = vault
	if err := s.writeManager(ctx, managerPDA, tm); err != nil {
		return nil, solana.PublicKey{}, err
	}

	deployRoles := rolemanagement.RoleOperator | rolemanagement.RoleFlowLimiter
	if err := rolemanagement.Grant(ctx, ID, payer, managerPDA, spec.Operator, deployRoles); err != nil {
		return nil, solana.PublicKey{}, err
	}
	if spec.Minter != nil {
		if err := rolemanagement.Grant(ctx, ID, payer, managerPDA, *spec.Minter, rolemanagement.RoleMinter); err != nil {
			return nil, solana.PublicKey{}, err
		}
	}

	if err := s.emit(ctx, EventTokenManagerDeployed, &TokenManagerDeployedEvent{
		TokenID: spec.TokenID,
		Type:    spec.Type,
		Mint:    spec.Mint,
		Vault:   vault,
	}); err != nil {
		return nil, solana.PublicKey{}, err
	}
	return tm, managerPDA, nil
}

func (s *Service) registerCanonical(ctx *runtime.Context, p *RegisterCanonicalParams) error {
	if err := ctx.RequireSigner(p.Payer); err != nil {
		return err
	}
	if _, _, err := s.loadConfig(ctx, true); err != nil {
		return err
	}
	mintState, _, err := token.GetMint(ctx, p.Mint)
	if err != nil {
		return err
	}
	managerType := LockUnlock
	if mintState.TransferFee != nil {
		managerType = LockUnlockFee
	}
	_, _, err = s.createManager(ctx, p.Payer, &managerSpec{
		TokenID:  CanonicalTokenID(p.Mint),
		Type:     managerType,
		Mint:     p.Mint,
		Operator: p.Payer,
	})
	return err
}

func (s *Service) deployInterchainToken(ctx *runtime.Context, p *DeployTokenParams) error {
	if err := ctx.RequireSigner(p.Payer); err != nil {
		return err
	}
	if _, _, err := s.loadConfig(ctx, true); err != nil {
		return err
	}

	tokenID := InterchainTokenID(p.Payer, p.Salt)
	mintPDA, _, err := InterchainMintAddress(tokenID)
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	if ctx.Exists(mintPDA) {
		return fmt.Errorf("%w: %x", ErrAlreadyDeployed, tokenID)
	}
	managerPDA, _, err := TokenManagerAddress(tokenID)
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}

	// The mint is born with the manager PDA as its authority.
	if err := token.CreateMint(ctx, p.Payer, mintPDA, p.Decimals, managerPDA, nil); err != nil {
		return err
	}
	tm, _, err := s.createManager(ctx, p.Payer, &managerSpec{
		TokenID:  tokenID,
		Type:     NativeInterchainToken,
		Mint:     mintPDA,
		Name:     p.Name,
		Symbol:   p.Symbol,
		Operator: p.Payer,
		Minter:   p.Minter,
	})
	if err != nil {
		return err
	}

	if p.InitialSupply > 0 {
		dest, err := token.GetOrCreateAssociated(ctx, p.Payer, p.Payer, mintPDA)
		if err != nil {
			return err
		}
		manager, err := s.signAsManager(ctx, tm)
		if err != nil {
			return err
		}
		if err := token.MintTo(ctx, mintPDA, dest, manager, p.InitialSupply); err != nil {
			return err
		}
	}

	minter := solana.PublicKey{}
	if p.Minter != nil {
		minter = *p.Minter
	}
	return s.emit(ctx, EventInterchainTokenDeployed, &InterchainTokenDeployedEvent{
		TokenID:  tokenID,
		Mint:     mintPDA,
		Name:     p.Name,
		Symbol:   p.Symbol,
		Decimals: p.Decimals,
		Minter:   minter,
	})
}

func (s *Service) registerCustomToken(ctx *runtime.Context, p *RegisterCustomParams) error {
	if err := ctx.RequireSigner(p.Payer); err != nil {
		return err
	}
	if _, _, err := s.loadConfig(ctx, true); err != nil {
		return err
	}
	if p.Type == NativeInterchainToken {
		return fmt.Errorf("%w: custom tokens cannot be %s", runtime.ErrInvalidArgument, NativeInterchainToken)
	}
	operator := p.Payer
	if p.Operator != nil {
		operator = *p.Operator
	}
	_, _, err := s.createManager(ctx, p.Payer, &managerSpec{
		TokenID:  LinkedTokenID(p.Payer, p.Salt),
		Type:     p.Type,
		Mint:     p.Mint,
		Operator: operator,
	})
	return err
}

func (s *Service) linkToken(ctx *runtime.Context, p *LinkTokenParams) error {
	if err := ctx.RequireSigner(p.Payer); err != nil {
		return err
	}
	cfg, _, err := s.loadConfig(ctx, true)
	if err != nil {
		return err
	}
	tokenID := LinkedTokenID(p.Payer, p.Salt)
	tm, _, err := s.loadManager(ctx, tokenID)
	if err != nil {
		return err
	}
	return s.sendToHub(ctx, cfg, p.Payer, p.DestinationChain, &payload.LinkToken{
		TokenID:                 tokenID,
		TokenManagerType:        managerTypeWire(p.Type),
		SourceTokenAddress:      tm.Mint[:],
		DestinationTokenAddress: p.DestinationTokenAddress,
		LinkParams:              p.LinkParams,
	}, p.GasValue)
}

func (s *Service) deployRemoteCanonical(ctx *runtime.Context, p *DeployRemoteCanonicalParams) error {
	if err := ctx.RequireSigner(p.Payer); err != nil {
		return err
	}
	cfg, _, err := s.loadConfig(ctx, true)
	if err != nil {
		return err
	}
	tokenID := CanonicalTokenID(p.Mint)
	tm, _, err := s.loadManager(ctx, tokenID)
	if err != nil {
		return err
	}
	return s.sendToHub(ctx, cfg, p.Payer, p.DestinationChain, &payload.DeployInterchainToken{
		TokenID:  tokenID,
		Name:     tm.Name,
		Symbol:   tm.Symbol,
		Decimals: tm.Decimals,
	}, p.GasValue)
}

func (s *Service) deployRemote(ctx *runtime.Context, p *DeployRemoteParams) error {
	if err := ctx.RequireSigner(p.Payer); err != nil {
		return err
	}
	cfg, _, err := s.loadConfig(ctx, true)
	if err != nil {
		return err
	}
	tokenID := InterchainTokenID(p.Payer, p.Salt)
	tm, _, err := s.loadManager(ctx, tokenID)
	if err != nil {
		return err
	}
	return s.sendToHub(ctx, cfg, p.Payer, p.DestinationChain, &payload.DeployInterchainToken{
		TokenID:  tokenID,
		Name:     tm.Name,
		Symbol:   tm.Symbol,
		Decimals: tm.Decimals,
	}, p.GasValue)
}

func (s *Service) deployRemoteWithMinter(ctx *runtime.Context, p *DeployRemoteWithMinterParams) error {
	if err := ctx.RequireSigner(p.Payer); err != nil {
		return err
	}
	cfg, _, err := s.loadConfig(ctx, true)
	if err != nil {
		return err
	}
	tokenID := InterchainTokenID(p.Payer, p.Salt)
	tm, managerPDA, err := s.loadManager(ctx, tokenID)
	if err != nil {
		return err
	}
	if err := rolemanagement.RequireRole(ctx, ID, managerPDA, p.Minter, rolemanagement.RoleMinter); err != nil {
		return err
	}

	// Consume the minter's one-shot approval for this destination.
	approvalPDA, _, err := ApprovalAddress(p.Minter, tokenID, p.DestinationChain)
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	if !ctx.Exists(approvalPDA) {
		return fmt.Errorf("%w: minter %s for %s", ErrNoDeployApproval, p.Minter, p.DestinationChain)
	}
	if err := ctx.Close(approvalPDA, p.Minter); err != nil {
		return err
	}

	return s.sendToHub(ctx, cfg, p.Payer, p.DestinationChain, &payload.DeployInterchainToken{
		TokenID:  tokenID,
		Name:     tm.Name,
		Symbol:   tm.Symbol,
		Decimals: tm.Decimals,
		Minter:   p.DestinationMinter,
	}, p.GasValue)
}

func (s *Service) approveDeployRemote(ctx *runtime.Context, p *ApproveDeployParams) error {
	if err := ctx.RequireSigner(p.Minter); err != nil {
		return err
	}
	tokenID := InterchainTokenID(p.Deployer, p.Salt)
	_, managerPDA, err := s.loadManager(ctx, tokenID)
	if err != nil {
		return err
	}
	if err := rolemanagement.RequireRole(ctx, ID, managerPDA, p.Minter, rolemanagement.RoleMinter); err != nil {
		return err
	}

	pda, bump, err := ApprovalAddress(p.Minter, tokenID, p.DestinationChain)
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	if ctx.Exists(pda) {
		return fmt.Errorf("%w: approval %s", runtime.ErrAlreadyInitialized, pda)
	}
	if _, _, err := ctx.InitPDA(
		[][]byte{[]byte(approvalSeed), p.Minter[:], tokenID[:], []byte(p.DestinationChain)},
		discriminator.Length+1,
		p.Payer,
	); err != nil {
		return err
	}
	if err := ctx.WriteState(ID, pda, approvalDiscriminator, &DeploymentApproval{Bump: bump}); err != nil {
		return err
	}
	return s.emit(ctx, EventDeployApproved, &DeployApprovedEvent{
		Minter:           p.Minter,
		TokenID:          tokenID,
		DestinationChain: p.DestinationChain,
	})
}

func (s *Service) revokeDeployRemote(ctx *runtime.Context, p *ApproveDeployParams) error {
	if err := ctx.RequireSigner(p.Minter); err != nil {
		return err
	}
	tokenID := InterchainTokenID(p.Deployer, p.Salt)
	pda, _, err := ApprovalAddress(p.Minter, tokenID, p.DestinationChain)
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	if !ctx.Exists(pda) {
		return fmt.Errorf("%w: minter %s for %s", ErrNoDeployApproval, p.Minter, p.DestinationChain)
	}
	if err := ctx.Close(pda, p.Minter); err != nil {
		return err
	}
	return s.emit(ctx, EventDeployApprovalRevoked, &DeployApprovalRevokedEvent{
		Minter:           p.Minter,
		TokenID:          tokenID,
		DestinationChain: p.DestinationChain,
	})
}

func (s *Service) registerTokenMetadata(ctx *runtime.Context, p *RegisterMetadataParams) error {
	if err := ctx.RequireSigner(p.Payer); err != nil {
		return err
	}
	cfg, _, err := s.loadConfig(ctx, true)
	if err != nil {
		return err
	}
	mintState, _, err := token.GetMint(ctx, p.Mint)
	if err != nil {
		return err
	}

	// Metadata reports address the hub itself, no destination envelope.
	wire, err := payload.Encode(&payload.RegisterTokenMetadata{
		TokenAddress: p.Mint[:],
		Decimals:     mintState.Decimals,
	})
	if err != nil {
		return err
	}
	if err := s.callGateway(ctx, cfg, p.Payer, wire, p.GasValue); err != nil {
		return err
	}
	return s.emit(ctx, EventTokenMetadataRegistered, &TokenMetadataRegisteredEvent{
		Mint:     p.Mint,
		Decimals: mintState.Decimals,
	})
}

func (s *Service) handoverMintAuthority(ctx *runtime.Context, p *HandoverMintParams) error {
	if err := ctx.RequireSigner(p.Authority); err != nil {
		return err
	}
	tm, managerPDA, err := s.loadManager(ctx, p.TokenID)
	if err != nil {
		return err
	}
	if !tm.Type.IsMintable() {
		return fmt.Errorf("%w: %s does not take the mint authority", ErrIncompatibleMint, tm.Type)
	}
	manager := managerPDA
	if err := token.SetMintAuthority(ctx, tm.Mint, p.Authority, &manager); err != nil {
		return err
	}
	// The former authority keeps minting rights, now routed through the
	// manager.
	return rolemanagement.Grant(ctx, ID, p.Payer, managerPDA, p.Authority, rolemanagement.RoleMinter)
}
