// Copyright (C) 2025-2026, Eiger Oy. All rights reserved.
// See the file LICENSE for licensing terms.

package its

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	"github.com/eigerco/axelar-amplifier-solana-sub000/discriminator"
	"github.com/eigerco/axelar-amplifier-solana-sub000/runtime"
)

// Event discriminators.
var (
	EventInterchainTokenDeployed    = discriminator.Event("InterchainTokenDeployed")
	EventTokenManagerDeployed       = discriminator.Event("TokenManagerDeployed")
	EventInterchainTransfer         = discriminator.Event("InterchainTransfer")
	EventInterchainTransferReceived = discriminator.Event("InterchainTransferReceived")
	EventTokenMetadataRegistered    = discriminator.Event("TokenMetadataRegistered")
	EventFlowLimitSet               = discriminator.Event("FlowLimitSet")
	EventTrustedChainSet            = discriminator.Event("TrustedChainSet")
	EventTrustedChainRemoved        = discriminator.Event("TrustedChainRemoved")
	EventPauseStatusSet             = discriminator.Event("PauseStatusSet")
	EventDeployApproved             = discriminator.Event("DeployRemoteInterchainTokenApproved")
	EventDeployApprovalRevoked      = discriminator.Event("RevokedDeployRemoteInterchainTokenApproval")
)

// InterchainTokenDeployedEvent records a local token deployment.
type InterchainTokenDeployedEvent struct {
	TokenID  [32]byte
	Mint     solana.PublicKey
	Name     string
	Symbol   string
	Decimals uint8
	Minter   solana.PublicKey
}

// TokenManagerDeployedEvent records a manager creation.
type TokenManagerDeployedEvent struct {
	TokenID [32]byte
	Type    TokenManagerType
	Mint    solana.PublicKey
	Vault   solana.PublicKey
}

// InterchainTransferEvent records an outbound transfer, with the net
// on-wire amount.
type InterchainTransferEvent struct {
	TokenID            [32]byte
	Source             solana.PublicKey
	DestinationChain   string
	DestinationAddress []byte
	Amount             uint64
	DataHash           [32]byte
}

// InterchainTransferReceivedEvent records an inbound delivery, with the
// net amount credited.
type InterchainTransferReceivedEvent struct {
	CommandID   [32]byte
	TokenID     [32]byte
	SourceChain string
	Destination solana.PublicKey
	Amount      uint64
	DataHash    [32]byte
}

// TokenMetadataRegisteredEvent records a metadata report to the hub.
type TokenMetadataRegisteredEvent struct {
	Mint     solana.PublicKey
	Decimals uint8
}

// FlowLimitSetEvent records a flow limit change.
type FlowLimitSetEvent struct {
	TokenID   [32]byte
	FlowLimit uint64
}

// TrustedChainSetEvent records a trusted-chain addition.
type TrustedChainSetEvent struct {
	ChainName string
}

// TrustedChainRemovedEvent records a trusted-chain removal.
type TrustedChainRemovedEvent struct {
	ChainName string
}

// PauseStatusSetEvent records a pause toggle.
type PauseStatusSetEvent struct {
	Paused bool
}

// DeployApprovedEvent records a minter's one-shot remote-deploy consent.
type DeployApprovedEvent struct {
	Minter           solana.PublicKey
	TokenID          [32]byte
	DestinationChain string
}

// DeployApprovalRevokedEvent records the consent being withdrawn.
type DeployApprovalRevokedEvent struct {
	Minter           solana.PublicKey
	TokenID          [32]byte
	DestinationChain string
}

func (s *Service) emit(ctx *runtime.Context, disc discriminator.Discriminator, v interface{}) error {
	_, bump, err := solana.FindProgramAddress([][]byte{[]byte(eventAuthoritySeed)}, ID)
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	return ctx.EmitEvent([][]byte{[]byte(eventAuthoritySeed), {bump}}, disc, v)
}
