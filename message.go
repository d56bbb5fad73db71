// Copyright (C) 2025-2026, Eiger Oy. All rights reserved.
// See the file LICENSE for licensing terms.

// Package axelar defines the core message and verifier-set model shared by
// the on-chain programs: GMP messages routed through the gateway, command
// identities, weighted verifier sets, and the Merkle leaves that commit
// batches of either to a single 32-byte payload root.
package axelar

import (
	"errors"
	"fmt"

	"github.com/cometbft/cometbft/crypto/merkle"
	bin "github.com/gagliardetto/binary"
)

// Leaf domains separate the two payload kinds that can be committed to a
// payload Merkle root. A batch of messages can never be replayed as a
// verifier-set rotation, and vice versa.
const (
	LeafDomainMessage     uint8 = 0
	LeafDomainVerifierSet uint8 = 1
)

// MaxBatchSize bounds the number of leaves under one payload root.
const MaxBatchSize = 256

var (
	ErrInvalidMessage = errors.New("invalid message")
	ErrBatchTooLarge  = errors.New("message batch too large")
	ErrInvalidProof   = errors.New("invalid merkle proof")
)

// CrossChainID identifies a message on its source chain.
type CrossChainID struct {
	Chain string
	ID    string
}

// Message is a GMP message delivered to this chain through the gateway.
type Message struct {
	CCID               CrossChainID
	SourceAddress      string
	DestinationChain   string
	DestinationAddress string
	PayloadHash        [32]byte
}

// CommandID returns the per-message identity used to key incoming-message
// accounts and destination signing PDAs.
func (m *Message) CommandID() [32]byte {
	return CommandID(m.CCID.Chain, m.CCID.ID)
}

// CommandID hashes a (source chain, source message id) pair into the
// 32-byte command identity.
func CommandID(sourceChain, messageID string) [32]byte {
	return Keccak256([]byte(sourceChain), []byte("-"), []byte(messageID))
}

// Hash returns the hash of the canonical serialization of the message.
func (m *Message) Hash() ([32]byte, error) {
	b, err := bin.MarshalBorsh(m)
	if err != nil {
		return [32]byte{}, fmt.Errorf("failed to marshal message: %w", err)
	}
	return Keccak256(b), nil
}

// Verify checks the message is well formed.
func (m *Message) Verify() error {
	switch {
	case m.CCID.Chain == "":
		return fmt.Errorf("%w: empty source chain", ErrInvalidMessage)
	case m.CCID.ID == "":
		return fmt.Errorf("%w: empty source message id", ErrInvalidMessage)
	case m.DestinationAddress == "":
		return fmt.Errorf("%w: empty destination address", ErrInvalidMessage)
	}
	return nil
}

// MessageLeaf is a single message positioned inside a payload Merkle root.
type MessageLeaf struct {
	LeafDomain      uint8
	Position        uint16
	SetSize         uint16
	DomainSeparator [32]byte
	Message         Message
}

// Bytes returns the leaf preimage hashed into the payload Merkle tree.
func (l *MessageLeaf) Bytes() ([]byte, error) {
	if l.LeafDomain != LeafDomainMessage {
		return nil, fmt.Errorf("%w: leaf domain %d is not a message leaf", ErrInvalidMessage, l.LeafDomain)
	}
	b, err := bin.MarshalBorsh(l)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message leaf: %w", err)
	}
	return b, nil
}

// MerkleisedMessage carries a message leaf together with its inclusion
// proof under a payload Merkle root.
type MerkleisedMessage struct {
	Leaf  MessageLeaf
	Proof *merkle.Proof
}

// VerifyInclusion checks that the leaf is included under root at the
// position the leaf declares.
func (m *MerkleisedMessage) VerifyInclusion(root [32]byte) error {
	if m.Proof == nil {
		return fmt.Errorf("%w: missing proof", ErrInvalidProof)
	}
	if m.Proof.Index != int64(m.Leaf.Position) || m.Proof.Total != int64(m.Leaf.SetSize) {
		return fmt.Errorf("%w: leaf position %d/%d does not match proof %d/%d",
			ErrInvalidProof, m.Leaf.Position, m.Leaf.SetSize, m.Proof.Index, m.Proof.Total)
	}
	leaf, err := m.Leaf.Bytes()
	if err != nil {
		return err
	}
	if err := m.Proof.Verify(root[:], leaf); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}
	return nil
}

// MerkleiseMessages builds the payload Merkle root over a batch of
// messages and returns each message with its inclusion proof.
func MerkleiseMessages(domainSeparator [32]byte, msgs []Message) ([32]byte, []MerkleisedMessage, error) {
	if len(msgs) == 0 {
		return [32]byte{}, nil, fmt.Errorf("%w: empty batch", ErrInvalidMessage)
	}
	if len(msgs) > MaxBatchSize {
		return [32]byte{}, nil, fmt.Errorf("%w: %d messages", ErrBatchTooLarge, len(msgs))
	}

	leaves := make([]MessageLeaf, len(msgs))
	preimages := make([][]byte, len(msgs))
	for i, msg := range msgs {
		if err := msg.Verify(); err != nil {
			return [32]byte{}, nil, err
		}
		leaves[i] = MessageLeaf{
			LeafDomain:      LeafDomainMessage,
			Position:        uint16(i), //nolint:gosec // bounded by MaxBatchSize
			SetSize:         uint16(len(msgs)),
			DomainSeparator: domainSeparator,
			Message:         msg,
		}
		b, err := leaves[i].Bytes()
		if err != nil {
			return [32]byte{}, nil, err
		}
		preimages[i] = b
	}

	rootBytes, proofs := merkle.ProofsFromByteSlices(preimages)
	var root [32]byte
	copy(root[:], rootBytes)

	out := make([]MerkleisedMessage, len(msgs))
	for i := range leaves {
		out[i] = MerkleisedMessage{Leaf: leaves[i], Proof: proofs[i]}
	}
	return root, out, nil
}
