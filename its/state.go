// Copyright (C) 2025-2026, Eiger Oy. All rights reserved.
// See the file LICENSE for licensing terms.

// Package its implements the Interchain Token Service: a registry of
// token managers keyed by token id, materializing cross-chain transfers
// as local mint/burn or lock/unlock operations and emitting outbound
// transfer messages through the gateway. All hub traffic is wrapped in
// SendToHub/ReceiveFromHub envelopes addressed to the ITS hub.
package its

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	axelar "github.com/eigerco/axelar-amplifier-solana-sub000"
	"github.com/eigerco/axelar-amplifier-solana-sub000/discriminator"
	"github.com/eigerco/axelar-amplifier-solana-sub000/runtime"
)

// ID is the interchain token service program address.
var ID = runtime.ProgramID("axelar_solana_its")

var (
	ErrPaused             = errors.New("interchain token service is paused")
	ErrUntrustedChain     = errors.New("chain is not trusted")
	ErrAlreadyDeployed    = errors.New("token id already deployed")
	ErrIncompatibleMint   = errors.New("mint incompatible with manager type")
	ErrFlowLimitExceeded  = errors.New("flow limit exceeded")
	ErrNotHubOrigin       = errors.New("message is not from the configured hub")
	ErrInvalidPayloadHash = errors.New("payload does not match approved hash")
	ErrNoDeployApproval   = errors.New("missing deployment approval")
	ErrInvalidDestination = errors.New("invalid destination account")
)

// PDA seed prefixes.
const (
	rootSeed           = "its-root"
	tokenManagerSeed   = "token-manager"
	interchainMintSeed = "interchain-token"
	trustedChainSeed   = "trusted-chain"
	approvalSeed       = "deploy-approval"
	eventAuthoritySeed = "__event_authority"
)

var (
	rootDiscriminator         = discriminator.Account("InterchainTokenService")
	tokenManagerDiscriminator = discriminator.Account("TokenManager")
	trustedChainDiscriminator = discriminator.Account("TrustedChain")
	approvalDiscriminator     = discriminator.Account("DeploymentApproval")
)

// ItsHubChainName is the hub's chain identifier; every outbound message
// is routed there and every inbound message must originate there.
const ItsHubChainName = "axelar"

// Config is the ITS root account.
type Config struct {
	ChainName  string
	HubAddress string
	Paused     bool
	Bump       uint8
}

// TokenManagerType is the custody model of a managed token.
type TokenManagerType uint8

const (
	NativeInterchainToken TokenManagerType = iota
	MintBurnFrom
	LockUnlock
	LockUnlockFee
	MintBurn
)

// IsMintable reports whether the manager holds the mint authority and
// settles transfers by minting and burning.
func (t TokenManagerType) IsMintable() bool {
	switch t {
	case NativeInterchainToken, MintBurn, MintBurnFrom:
		return true
	default:
		return false
	}
}

func (t TokenManagerType) String() string {
	switch t {
	case NativeInterchainToken:
		return "native-interchain-token"
	case MintBurnFrom:
		return "mint-burn-from"
	case LockUnlock:
		return "lock-unlock"
	case LockUnlockFee:
		return "lock-unlock-fee"
	case MintBurn:
		return "mint-burn"
	default:
		return fmt.Sprintf("token-manager-type(%d)", uint8(t))
	}
}

// FlowSlot is a token manager's per-epoch transfer accounting window.
type FlowSlot struct {
	Epoch     uint64
	FlowIn    uint64
	FlowOut   uint64
	FlowLimit uint64
}

// TokenManager binds one token id to its local mint and custody rules.
// Name and symbol are registry metadata carried for remote deploys; they
// are empty for canonically registered pre-existing mints.
type TokenManager struct {
	Type     TokenManagerType
	TokenID  [32]byte
	Mint     solana.PublicKey
	Vault    solana.PublicKey
	Name     string
	Symbol   string
	Decimals uint8
	Flow     FlowSlot
	Bump     uint8
}

// TrustedChain marks its PDA's keyed chain name as a valid transfer
// counterparty.
type TrustedChain struct {
	Bump uint8
}

// DeploymentApproval is a one-shot permission for a remote deploy with a
// destination minter.
type DeploymentApproval struct {
	Bump uint8
}

// RootAddress derives the ITS root config PDA.
func RootAddress() (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{[]byte(rootSeed)}, ID)
}

// TokenManagerAddress derives the token manager PDA of a token id.
func TokenManagerAddress(tokenID [32]byte) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{[]byte(tokenManagerSeed), tokenID[:]}, ID)
}

// InterchainMintAddress derives the mint PDA of an ITS-created token.
func InterchainMintAddress(tokenID [32]byte) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{[]byte(interchainMintSeed), tokenID[:]}, ID)
}

// TrustedChainAddress derives the trusted-chain PDA of a chain name.
func TrustedChainAddress(chain string) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{[]byte(trustedChainSeed), []byte(chain)}, ID)
}

// ApprovalAddress derives the deploy-approval PDA of (minter, token id,
// destination chain).
func ApprovalAddress(minter solana.PublicKey, tokenID [32]byte, destinationChain string) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress(
		[][]byte{[]byte(approvalSeed), minter[:], tokenID[:], []byte(destinationChain)},
		ID,
	)
}

// Token id derivation salts. The final id is always
// keccak("interchain-token-id", salt_variant).
func canonicalSalt(mint solana.PublicKey) [32]byte {
	return axelar.Keccak256([]byte("canonical-token-salt"), mint[:])
}

func interchainSalt(deployer solana.PublicKey, salt [32]byte) [32]byte {
	return axelar.Keccak256([]byte("interchain-token-salt"), deployer[:], salt[:])
}

func customSalt(deployer solana.PublicKey, salt [32]byte) [32]byte {
	return axelar.Keccak256([]byte("custom-token-salt"), deployer[:], salt[:])
}

func tokenIDFromSalt(salt [32]byte) [32]byte {
	return axelar.Keccak256([]byte("interchain-token-id"), salt[:])
}

// CanonicalTokenID derives the token id of a canonically registered mint.
func CanonicalTokenID(mint solana.PublicKey) [32]byte {
	return tokenIDFromSalt(canonicalSalt(mint))
}

// InterchainTokenID derives the token id of an ITS-deployed token.
func InterchainTokenID(deployer solana.PublicKey, salt [32]byte) [32]byte {
	return tokenIDFromSalt(interchainSalt(deployer, salt))
}

// LinkedTokenID derives the token id of a custom linked token.
func LinkedTokenID(deployer solana.PublicKey, salt [32]byte) [32]byte {
	return tokenIDFromSalt(customSalt(deployer, salt))
}
