// Copyright (C) 2025-2026, Eiger Oy. All rights reserved.
// See the file LICENSE for licensing terms.

package gateway

import (
	"fmt"

	"github.com/gagliardetto/solana-go"

	axelar "github.com/eigerco/axelar-amplifier-solana-sub000"
	"github.com/eigerco/axelar-amplifier-solana-sub000/discriminator"
)

// PDA seed prefixes.
const (
	configSeed         = "config"
	trackerSeed        = "ver-set-tracker"
	sessionSeed        = "gtw-sig-verif"
	incomingSeed       = "incoming message"
	payloadBufferSeed  = "msg-payload"
	callContractSeed   = "call-contract-signing"
	eventAuthoritySeed = "__event_authority"
)

var (
	trackerDiscriminator  = discriminator.Account("VerifierSetTracker")
	sessionDiscriminator  = discriminator.Account("SignatureVerificationSession")
	incomingDiscriminator = discriminator.Account("IncomingMessage")
	bufferDiscriminator   = discriminator.Account("MessagePayload")
)

// Config is the gateway's root account. It is intentionally
// empty-discriminated for a stable v1 layout.
type Config struct {
	DomainSeparator         [32]byte
	Operator                solana.PublicKey
	CurrentEpoch            uint64
	PreviousSignerRetention uint64
	MinimumRotationDelay    int64
	LastRotationTimestamp   int64
	Bump                    uint8
}

// VerifierSetTracker records one historically valid verifier set.
type VerifierSetTracker struct {
	Hash  [32]byte
	Epoch uint64
	Bump  uint8
}

// SignatureVerificationSession accumulates weighted signatures over one
// payload Merkle root.
type SignatureVerificationSession struct {
	Bump                   uint8
	SigningVerifierSetHash [32]byte
	AccumulatedWeight      uint64
	Threshold              uint64
	SignerBitset           axelar.Bits
	Valid                  bool
}

// MessageStatus is the lifecycle of an approved message.
type MessageStatus uint8

const (
	StatusApproved MessageStatus = iota + 1
	StatusExecuted
)

// IncomingMessage is the per-message account created at approval and
// consumed (transitioned, never destroyed) at validation.
type IncomingMessage struct {
	Bump           uint8
	SigningPDABump uint8
	Status         MessageStatus
	MessageHash    [32]byte
	PayloadHash    [32]byte
}

// MessagePayload is a relayer-owned staging buffer for large payloads,
// committed (hash frozen) before approval and closed after execution.
type MessagePayload struct {
	Bump        uint8
	Committed   bool
	PayloadHash [32]byte
	Data        []byte
}

// ConfigAddress derives the gateway root config PDA.
func ConfigAddress() (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{[]byte(configSeed)}, ID)
}

// TrackerAddress derives the tracker PDA of a verifier-set hash.
func TrackerAddress(setHash [32]byte) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{[]byte(trackerSeed), setHash[:]}, ID)
}

// SessionAddress derives the verification-session PDA of a payload root.
func SessionAddress(payloadRoot [32]byte) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{[]byte(sessionSeed), payloadRoot[:]}, ID)
}

// IncomingMessageAddress derives the incoming-message PDA of a command id.
func IncomingMessageAddress(commandID [32]byte) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{[]byte(incomingSeed), commandID[:]}, ID)
}

// PayloadBufferAddress derives a relayer's staging buffer PDA.
func PayloadBufferAddress(payer solana.PublicKey, commandID [32]byte) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{[]byte(payloadBufferSeed), payer[:], commandID[:]}, ID)
}

// SigningPDA derives the destination program's per-message signing PDA.
// Possession of this PDA's signature proves the destination program is
// the message's intended recipient.
func SigningPDA(destinationProgram solana.PublicKey, commandID [32]byte) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{commandID[:]}, destinationProgram)
}

// CallContractSigningPDA derives the signing PDA a program uses to bind
// outbound call_contract events to itself.
func CallContractSigningPDA(callerProgram solana.PublicKey) (solana.PublicKey, uint8, error) {
	return solana.FindProgramAddress([][]byte{[]byte(callContractSeed)}, callerProgram)
}

// DestinationProgram parses a message's destination address as a program
// id on this chain.
func DestinationProgram(destinationAddress string) (solana.PublicKey, error) {
	pk, err := solana.PublicKeyFromBase58(destinationAddress)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: destination address %q: %v", axelar.ErrInvalidMessage, destinationAddress, err)
	}
	return pk, nil
}
