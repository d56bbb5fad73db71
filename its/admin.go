// Copyright (C) 2025-2026, Eiger Oy. All rights reserved.
// See the file LICENSE for licensing terms.

package its

import (
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	"github.com/eigerco/axelar-amplifier-solana-sub000/discriminator"
	"github.com/eigerco/axelar-amplifier-solana-sub000/rolemanagement"
	"github.com/eigerco/axelar-amplifier-solana-sub000/runtime"
	"github.com/eigerco/axelar-amplifier-solana-sub000/runtime/token"
)

func (s *Service) initialize(ctx *runtime.Context, p *InitializeParams) error {
	if err := ctx.RequireSigner(p.Payer); err != nil {
		return err
	}
	if p.ChainName == "" || p.HubAddress == "" {
		return fmt.Errorf("%w: chain name and hub address are required", runtime.ErrInvalidArgument)
	}

	cfg := Config{
		ChainName:  p.ChainName,
		HubAddress: p.HubAddress,
	}
	body, err := bin.MarshalBorsh(&cfg)
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrInvalidAccountData, err)
	}
	rootPDA, bump, err := ctx.InitPDA([][]byte{[]byte(rootSeed)}, discriminator.Length+len(body), p.Payer)
	if err != nil {
		return err
	}
	cfg.Bump = bump
	if err := ctx.WriteState(ID, rootPDA, rootDiscriminator, &cfg); err != nil {
		return err
	}
	return rolemanagement.Grant(ctx, ID, p.Payer, rootPDA, p.Operator, rolemanagement.RoleOperator)
}

// requireRootAuthority passes for the root operator and for the
// program's upgrade authority.
func (s *Service) requireRootAuthority(ctx *runtime.Context, rootPDA, authority solana.PublicKey) error {
	if err := ctx.RequireSigner(authority); err != nil {
		return err
	}
	if authority.Equals(ctx.UpgradeAuthority()) && !authority.IsZero() {
		return nil
	}
	held, err := rolemanagement.Holder(ctx, ID, rootPDA, authority)
	if err != nil {
		return err
	}
	if !held.Contains(rolemanagement.RoleOperator) {
		return fmt.Errorf("%w: %s on the service root", rolemanagement.ErrMissingRole, authority)
	}
	return nil
}

func (s *Service) setPauseStatus(ctx *runtime.Context, p *SetPauseStatusParams) error {
	cfg, rootPDA, err := s.loadConfig(ctx, false)
	if err != nil {
		return err
	}
	if err := s.requireRootAuthority(ctx, rootPDA, p.Authority); err != nil {
		return err
	}
	cfg.Paused = p.Paused
	if err := ctx.WriteState(ID, rootPDA, rootDiscriminator, cfg); err != nil {
		return err
	}
	return s.emit(ctx, EventPauseStatusSet, &PauseStatusSetEvent{Paused: p.Paused})
}

func (s *Service) setTrustedChain(ctx *runtime.Context, p *TrustedChainParams) error {
	_, rootPDA, err := s.loadConfig(ctx, false)
	if err != nil {
		return err
	}
	if err := s.requireRootAuthority(ctx, rootPDA, p.Authority); err != nil {
		return err
	}
	if p.ChainName == "" || p.ChainName == ItsHubChainName {
		return fmt.Errorf("%w: chain name %q", runtime.ErrInvalidArgument, p.ChainName)
	}
	pda, bump, err := TrustedChainAddress(p.ChainName)
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	if ctx.Exists(pda) {
		return fmt.Errorf("%w: trusted chain %s", runtime.ErrAlreadyInitialized, p.ChainName)
	}
	if _, _, err := ctx.InitPDA(
		[][]byte{[]byte(trustedChainSeed), []byte(p.ChainName)},
		discriminator.Length+1,
		p.Payer,
	); err != nil {
		return err
	}
	if err := ctx.WriteState(ID, pda, trustedChainDiscriminator, &TrustedChain{Bump: bump}); err != nil {
		return err
	}
	return s.emit(ctx, EventTrustedChainSet, &TrustedChainSetEvent{ChainName: p.ChainName})
}

func (s *Service) removeTrustedChain(ctx *runtime.Context, p *TrustedChainParams) error {
	_, rootPDA, err := s.loadConfig(ctx, false)
	if err != nil {
		return err
	}
	if err := s.requireRootAuthority(ctx, rootPDA, p.Authority); err != nil {
		return err
	}
	pda, _, err := TrustedChainAddress(p.ChainName)
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	if !ctx.Exists(pda) {
		return fmt.Errorf("%w: %s", ErrUntrustedChain, p.ChainName)
	}
	if err := ctx.Close(pda, p.Payer); err != nil {
		return err
	}
	return s.emit(ctx, EventTrustedChainRemoved, &TrustedChainRemovedEvent{ChainName: p.ChainName})
}

// setFlowLimit is the root operator's override on any manager.
func (s *Service) setFlowLimit(ctx *runtime.Context, p *FlowLimitParams) error {
	_, rootPDA, err := s.loadConfig(ctx, false)
	if err != nil {
		return err
	}
	if err := s.requireRootAuthority(ctx, rootPDA, p.Authority); err != nil {
		return err
	}
	return s.applyFlowLimit(ctx, p.TokenID, p.FlowLimit)
}

// setTokenManagerFlowLimit is the per-manager path, gated on the
// flow-limiter role of that manager.
func (s *Service) setTokenManagerFlowLimit(ctx *runtime.Context, p *FlowLimitParams) error {
	managerPDA, _, err := TokenManagerAddress(p.TokenID)
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	if err := rolemanagement.RequireRole(ctx, ID, managerPDA, p.Authority, rolemanagement.RoleFlowLimiter); err != nil {
		return err
	}
	return s.applyFlowLimit(ctx, p.TokenID, p.FlowLimit)
}

func (s *Service) applyFlowLimit(ctx *runtime.Context, tokenID [32]byte, limit uint64) error {
	tm, managerPDA, err := s.loadManager(ctx, tokenID)
	if err != nil {
		return err
	}
	tm.Flow.FlowLimit = limit
	if err := s.writeManager(ctx, managerPDA, tm); err != nil {
		return err
	}
	return s.emit(ctx, EventFlowLimitSet, &FlowLimitSetEvent{TokenID: tokenID, FlowLimit: limit})
}

func (s *Service) addFlowLimiter(ctx *runtime.Context, p *FlowLimiterParams) error {
	managerPDA, _, err := TokenManagerAddress(p.TokenID)
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	return rolemanagement.Add(ctx, ID, p.Payer, managerPDA, p.Authority, p.FlowLimiter,
		rolemanagement.RoleFlowLimiter, rolemanagement.RoleOperator)
}

func (s *Service) removeFlowLimiter(ctx *runtime.Context, p *FlowLimiterParams) error {
	managerPDA, _, err := TokenManagerAddress(p.TokenID)
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	return rolemanagement.Remove(ctx, ID, p.Payer, managerPDA, p.Authority, p.FlowLimiter,
		rolemanagement.RoleFlowLimiter, rolemanagement.RoleOperator)
}

func (s *Service) transferOperatorship(ctx *runtime.Context, p *OperatorshipParams) error {
	_, rootPDA, err := s.loadConfig(ctx, false)
	if err != nil {
		return err
	}
	return rolemanagement.Transfer(ctx, ID, p.Payer, rootPDA, p.From, p.To, rolemanagement.RoleOperator)
}

func (s *Service) proposeOperatorship(ctx *runtime.Context, p *OperatorshipParams) error {
	_, rootPDA, err := s.loadConfig(ctx, false)
	if err != nil {
		return err
	}
	return rolemanagement.Propose(ctx, ID, p.Payer, rootPDA, p.From, p.To, rolemanagement.RoleOperator)
}

func (s *Service) acceptOperatorship(ctx *runtime.Context, p *OperatorshipParams) error {
	_, rootPDA, err := s.loadConfig(ctx, false)
	if err != nil {
		return err
	}
	return rolemanagement.Accept(ctx, ID, p.Payer, rootPDA, p.From, p.To, rolemanagement.RoleOperator)
}

func (s *Service) transferTMOperatorship(ctx *runtime.Context, p *TMRoleParams) error {
	_, managerPDA, err := s.loadManager(ctx, p.TokenID)
	if err != nil {
		return err
	}
	return rolemanagement.Transfer(ctx, ID, p.Payer, managerPDA, p.From, p.To, rolemanagement.RoleOperator)
}

func (s *Service) proposeTMOperatorship(ctx *runtime.Context, p *TMRoleParams) error {
	_, managerPDA, err := s.loadManager(ctx, p.TokenID)
	if err != nil {
		return err
	}
	return rolemanagement.Propose(ctx, ID, p.Payer, managerPDA, p.From, p.To, rolemanagement.RoleOperator)
}

func (s *Service) acceptTMOperatorship(ctx *runtime.Context, p *TMRoleParams) error {
	_, managerPDA, err := s.loadManager(ctx, p.TokenID)
	if err != nil {
		return err
	}
	return rolemanagement.Accept(ctx, ID, p.Payer, managerPDA, p.From, p.To, rolemanagement.RoleOperator)
}

// mintInterchainToken mints locally through the manager, by a holder of
// the minter role on that manager.
func (s *Service) mintInterchainToken(ctx *runtime.Context, p *MintParams) error {
	tm, managerPDA, err := s.loadManager(ctx, p.TokenID)
	if err != nil {
		return err
	}
	if !tm.Type.IsMintable() {
		return fmt.Errorf("%w: %s does not hold the mint authority", ErrIncompatibleMint, tm.Type)
	}
	if err := rolemanagement.RequireRole(ctx, ID, managerPDA, p.Minter, rolemanagement.RoleMinter); err != nil {
		return err
	}
	manager, err := s.signAsManager(ctx, tm)
	if err != nil {
		return err
	}
	return token.MintTo(ctx, tm.Mint, p.Destination, manager, p.Amount)
}

func (s *Service) transferMintership(ctx *runtime.Context, p *TMRoleParams) error {
	_, managerPDA, err := s.loadManager(ctx, p.TokenID)
	if err != nil {
		return err
	}
	return rolemanagement.Transfer(ctx, ID, p.Payer, managerPDA, p.From, p.To, rolemanagement.RoleMinter)
}

func (s *Service) proposeMintership(ctx *runtime.Context, p *TMRoleParams) error {
	_, managerPDA, err := s.loadManager(ctx, p.TokenID)
	if err != nil {
		return err
	}
	return rolemanagement.Propose(ctx, ID, p.Payer, managerPDA, p.From, p.To, rolemanagement.RoleMinter)
}

func (s *Service) acceptMintership(ctx *runtime.Context, p *TMRoleParams) error {
	_, managerPDA, err := s.loadManager(ctx, p.TokenID)
	if err != nil {
		return err
	}
	return rolemanagement.Accept(ctx, ID, p.Payer, managerPDA, p.From, p.To, rolemanagement.RoleMinter)
}
