// Copyright (C) 2025-2026, Eiger Oy. All rights reserved.
// See the file LICENSE for licensing terms.

// Package gateway implements the trust root of the stack: it verifies
// weighted-multisig attestations over payload Merkle roots, records
// approved cross-chain messages, and exposes the validation primitive
// destination programs call to prove a message reached them intact.
package gateway

import (
	"errors"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"

	axelar "github.com/eigerco/axelar-amplifier-solana-sub000"
	"github.com/eigerco/axelar-amplifier-solana-sub000/discriminator"
	"github.com/eigerco/axelar-amplifier-solana-sub000/runtime"
)

// ID is the gateway program address.
var ID = runtime.ProgramID("axelar_solana_gateway")

var (
	ErrSessionNotInitialized = errors.New("verification session not initialized")
	ErrSessionNotValid       = errors.New("verification session has not reached quorum")
	ErrInvalidVerifierSet    = errors.New("verifier set is not valid for signing")
	ErrVerifierSetTooOld     = errors.New("verifier set epoch outside retention window")
	ErrAlreadyExecuted       = errors.New("message already executed")
	ErrNotOperator           = errors.New("not the gateway operator")
	ErrRotationTooEarly      = errors.New("minimum rotation delay not met")
	ErrBufferCommitted       = errors.New("payload buffer already committed")
	ErrBufferNotCommitted    = errors.New("payload buffer not committed")
)

// Instruction discriminators.
var (
	ixInitializeConfig  = discriminator.Global("initialize_config")
	ixInitializeSession = discriminator.Global("initialize_payload_verification_session")
	ixVerifySignature   = discriminator.Global("verify_signature")
	ixApproveMessage    = discriminator.Global("approve_message")
	ixValidateMessage   = discriminator.Global("validate_message")
	ixRotateSigners     = discriminator.Global("rotate_signers")
	ixCallContract      = discriminator.Global("call_contract")
	ixInitPayload       = discriminator.Global("initialize_message_payload")
	ixWritePayload      = discriminator.Global("write_message_payload")
	ixCommitPayload     = discriminator.Global("commit_message_payload")
	ixClosePayload      = discriminator.Global("close_message_payload")
	ixTransferOperator  = discriminator.Global("transfer_operatorship")
)

// InitializeConfigParams seeds the gateway with its genesis verifier set.
type InitializeConfigParams struct {
	Payer                   solana.PublicKey
	Operator                solana.PublicKey
	DomainSeparator         [32]byte
	InitialVerifierSetHash  [32]byte
	PreviousSignerRetention uint64
	MinimumRotationDelay    int64
}

// InitializeSessionParams opens a signature-verification session bound
// to one historically valid verifier set.
type InitializeSessionParams struct {
	Payer                  solana.PublicKey
	PayloadMerkleRoot      [32]byte
	SigningVerifierSetHash [32]byte
}

// VerifySignatureParams submits one verifier's signature to a session.
type VerifySignatureParams struct {
	PayloadMerkleRoot [32]byte
	Signer            axelar.MerkleisedSigner
	Signature         solana.Signature
}

// ApproveMessageParams records one message proven under a valid session.
type ApproveMessageParams struct {
	Payer             solana.PublicKey
	PayloadMerkleRoot [32]byte
	Message           axelar.MerkleisedMessage
}

// ValidateMessageParams is submitted by destination programs via CPI.
type ValidateMessageParams struct {
	Message axelar.Message
}

// RotateSignersParams installs a new verifier set proven under a valid
// session over the new set's hash.
type RotateSignersParams struct {
	Payer              solana.PublicKey
	NewVerifierSetHash [32]byte
}

// CallContractParams emits an outbound GMP call event.
type CallContractParams struct {
	SenderProgram              solana.PublicKey
	SenderBump                 uint8
	DestinationChain           string
	DestinationContractAddress string
	Payload                    []byte
}

// InitPayloadParams stages a buffer for a large message payload.
type InitPayloadParams struct {
	Payer      solana.PublicKey
	CommandID  [32]byte
	BufferSize uint32
}

// WritePayloadParams appends a chunk at an offset.
type WritePayloadParams struct {
	Payer     solana.PublicKey
	CommandID [32]byte
	Offset    uint32
	Bytes     []byte
}

// CommitPayloadParams freezes the buffer hash.
type CommitPayloadParams struct {
	Payer     solana.PublicKey
	CommandID [32]byte
}

// ClosePayloadParams reclaims the buffer rent.
type ClosePayloadParams struct {
	Payer     solana.PublicKey
	CommandID [32]byte
}

// TransferOperatorshipParams hands the operator key over.
type TransferOperatorshipParams struct {
	Current solana.PublicKey
	New     solana.PublicKey
}

// Gateway is the program object registered with the runtime.
type Gateway struct{}

// New returns the gateway program.
func New() *Gateway {
	return &Gateway{}
}

// ID returns the program address.
func (g *Gateway) ID() solana.PublicKey {
	return ID
}

// Execute decodes the instruction discriminator and dispatches.
func (g *Gateway) Execute(ctx *runtime.Context, ix runtime.Instruction) error {
	disc, err := discriminator.Peek(ix.Data)
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrInvalidInstructionData, err)
	}
	body := ix.Data[discriminator.Length:]

	switch disc {
	case ixInitializeConfig:
		var p InitializeConfigParams
		return decodeAndRun(body, &p, func() error { return g.initializeConfig(ctx, &p) })
	case ixInitializeSession:
		var p InitializeSessionParams
		return decodeAndRun(body, &p, func() error { return g.initializeSession(ctx, &p) })
	case ixVerifySignature:
		var p VerifySignatureParams
		return decodeAndRun(body, &p, func() error { return g.verifySignature(ctx, &p) })
	case ixApproveMessage:
		var p ApproveMessageParams
		return decodeAndRun(body, &p, func() error { return g.approveMessage(ctx, &p) })
	case ixValidateMessage:
		var p ValidateMessageParams
		return decodeAndRun(body, &p, func() error { return g.validateMessage(ctx, &p) })
	case ixRotateSigners:
		var p RotateSignersParams
		return decodeAndRun(body, &p, func() error { return g.rotateSigners(ctx, &p) })
	case ixCallContract:
		var p CallContractParams
		return decodeAndRun(body, &p, func() error { return g.callContract(ctx, &p) })
	case ixInitPayload:
		var p InitPayloadParams
		return decodeAndRun(body, &p, func() error { return g.initPayloadBuffer(ctx, &p) })
	case ixWritePayload:
		var p WritePayloadParams
		return decodeAndRun(body, &p, func() error { return g.writePayloadBuffer(ctx, &p) })
	case ixCommitPayload:
		var p CommitPayloadParams
		return decodeAndRun(body, &p, func() error { return g.commitPayloadBuffer(ctx, &p) })
	case ixClosePayload:
		var p ClosePayloadParams
		return decodeAndRun(body, &p, func() error { return g.closePayloadBuffer(ctx, &p) })
	case ixTransferOperator:
		var p TransferOperatorshipParams
		return decodeAndRun(body, &p, func() error { return g.transferOperatorship(ctx, &p) })
	default:
		return fmt.Errorf("%w: unknown gateway instruction %x", runtime.ErrInvalidInstructionData, disc)
	}
}

func decodeAndRun(body []byte, params interface{}, run func() error) error {
	if err := bin.UnmarshalBorsh(params, body); err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrInvalidInstructionData, err)
	}
	return run()
}

// Encode builds discriminator-prefixed instruction data.
func Encode(disc discriminator.Discriminator, params interface{}) ([]byte, error) {
	body, err := bin.MarshalBorsh(params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", runtime.ErrInvalidInstructionData, err)
	}
	return disc.Prepend(body), nil
}

// NewInstruction builds a gateway instruction from a method name and its
// params struct.
func NewInstruction(method string, params interface{}, accounts ...*solana.AccountMeta) (runtime.Instruction, error) {
	data, err := Encode(discriminator.Global(method), params)
	if err != nil {
		return runtime.Instruction{}, err
	}
	return runtime.Instruction{ProgramID: ID, Accounts: accounts, Data: data}, nil
}

func loadConfig(ctx *runtime.Context) (*Config, solana.PublicKey, error) {
	configPDA, _, err := ConfigAddress()
	if err != nil {
		return nil, solana.PublicKey{}, fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	var cfg Config
	if err := ctx.ReadRawState(ID, configPDA, &cfg); err != nil {
		return nil, solana.PublicKey{}, err
	}
	return &cfg, configPDA, nil
}

func eventAuthoritySeeds() ([][]byte, error) {
	_, bump, err := solana.FindProgramAddress([][]byte{[]byte(eventAuthoritySeed)}, ID)
	if err != nil {
		return nil, err
	}
	return [][]byte{[]byte(eventAuthoritySeed), {bump}}, nil
}
