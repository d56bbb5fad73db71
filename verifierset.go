// Copyright (C) 2025-2026, Eiger Oy. All rights reserved.
// See the file LICENSE for licensing terms.

package axelar

import (
	"bytes"
	"crypto/ed25519"
	"errors"
	"fmt"
	"sort"

	"github.com/cometbft/cometbft/crypto/merkle"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
)

var (
	ErrInvalidVerifierSet = errors.New("invalid verifier set")
	ErrNotInSet           = errors.New("signer not in verifier set")
	ErrBadSignature       = errors.New("bad signature")
)

// WeightedSigner is a single member of a verifier set.
type WeightedSigner struct {
	PubKey solana.PublicKey
	Weight uint64
}

// Less orders signers canonically by public key bytes.
func (s *WeightedSigner) Less(other *WeightedSigner) bool {
	return bytes.Compare(s.PubKey[:], other.PubKey[:]) < 0
}

// VerifierSet is a weighted multisig attesting payload Merkle roots.
// Signers are kept in canonical order.
type VerifierSet struct {
	Nonce     uint64
	Signers   []WeightedSigner
	Threshold uint64
}

// NewVerifierSet validates and canonicalizes a verifier set.
func NewVerifierSet(nonce uint64, signers []WeightedSigner, threshold uint64) (*VerifierSet, error) {
	if len(signers) == 0 {
		return nil, fmt.Errorf("%w: empty signer set", ErrInvalidVerifierSet)
	}
	if len(signers) > MaxBatchSize {
		return nil, fmt.Errorf("%w: %d signers", ErrInvalidVerifierSet, len(signers))
	}
	if threshold == 0 {
		return nil, fmt.Errorf("%w: zero threshold", ErrInvalidVerifierSet)
	}

	seen := make(map[solana.PublicKey]bool, len(signers))
	var totalWeight uint64
	for _, s := range signers {
		if s.Weight == 0 {
			return nil, fmt.Errorf("%w: signer %s has zero weight", ErrInvalidVerifierSet, s.PubKey)
		}
		if seen[s.PubKey] {
			return nil, fmt.Errorf("%w: duplicate signer %s", ErrInvalidVerifierSet, s.PubKey)
		}
		seen[s.PubKey] = true

		newWeight, err := AddUint64(totalWeight, s.Weight)
		if err != nil {
			return nil, fmt.Errorf("%w: total weight overflow", ErrInvalidVerifierSet)
		}
		totalWeight = newWeight
	}
	if threshold > totalWeight {
		return nil, fmt.Errorf("%w: threshold %d exceeds total weight %d", ErrInvalidVerifierSet, threshold, totalWeight)
	}

	sorted := make([]WeightedSigner, len(signers))
	copy(sorted, signers)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Less(&sorted[j])
	})

	return &VerifierSet{
		Nonce:     nonce,
		Signers:   sorted,
		Threshold: threshold,
	}, nil
}

// TotalWeight returns the sum of all signer weights.
func (vs *VerifierSet) TotalWeight() uint64 {
	var total uint64
	for _, s := range vs.Signers {
		total += s.Weight
	}
	return total
}

// SignerLeaf is a single verifier positioned inside the set's Merkle tree.
// Every leaf carries the set's nonce and threshold so a session can learn
// the quorum from any proven member.
type SignerLeaf struct {
	LeafDomain      uint8
	Position        uint16
	SetSize         uint16
	DomainSeparator [32]byte
	Nonce           uint64
	Threshold       uint64
	PubKey          solana.PublicKey
	Weight          uint64
}

// Bytes returns the leaf preimage hashed into the verifier-set tree.
func (l *SignerLeaf) Bytes() ([]byte, error) {
	if l.LeafDomain != LeafDomainVerifierSet {
		return nil, fmt.Errorf("%w: leaf domain %d is not a signer leaf", ErrInvalidVerifierSet, l.LeafDomain)
	}
	b, err := bin.MarshalBorsh(l)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal signer leaf: %w", err)
	}
	return b, nil
}

// MerkleisedSigner carries a signer leaf with its membership proof.
type MerkleisedSigner struct {
	Leaf  SignerLeaf
	Proof *merkle.Proof
}

// VerifyInclusion checks that the signer leaf is a member of the verifier
// set committed to by setHash.
func (s *MerkleisedSigner) VerifyInclusion(setHash [32]byte) error {
	if s.Proof == nil {
		return fmt.Errorf("%w: missing proof", ErrInvalidProof)
	}
	if s.Proof.Index != int64(s.Leaf.Position) || s.Proof.Total != int64(s.Leaf.SetSize) {
		return fmt.Errorf("%w: signer position %d/%d does not match proof %d/%d",
			ErrInvalidProof, s.Leaf.Position, s.Leaf.SetSize, s.Proof.Index, s.Proof.Total)
	}
	leaf, err := s.Leaf.Bytes()
	if err != nil {
		return err
	}
	if err := s.Proof.Verify(setHash[:], leaf); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}
	return nil
}

// leaves returns the signer leaf preimages in canonical order.
func (vs *VerifierSet) leaves(domainSeparator [32]byte) ([]SignerLeaf, [][]byte, error) {
	leaves := make([]SignerLeaf, len(vs.Signers))
	preimages := make([][]byte, len(vs.Signers))
	for i, s := range vs.Signers {
		leaves[i] = SignerLeaf{
			LeafDomain:      LeafDomainVerifierSet,
			Position:        uint16(i), //nolint:gosec // bounded by MaxBatchSize
			SetSize:         uint16(len(vs.Signers)),
			DomainSeparator: domainSeparator,
			Nonce:           vs.Nonce,
			Threshold:       vs.Threshold,
			PubKey:          s.PubKey,
			Weight:          s.Weight,
		}
		b, err := leaves[i].Bytes()
		if err != nil {
			return nil, nil, err
		}
		preimages[i] = b
	}
	return leaves, preimages, nil
}

// Hash returns the Merkle root over the set's signer leaves. The hash is
// both the verifier-set identity tracked by the gateway and the payload
// root signed during rotation.
func (vs *VerifierSet) Hash(domainSeparator [32]byte) ([32]byte, error) {
	_, preimages, err := vs.leaves(domainSeparator)
	if err != nil {
		return [32]byte{}, err
	}
	var root [32]byte
	copy(root[:], merkle.HashFromByteSlices(preimages))
	return root, nil
}

// MerkleiseSigners returns every signer with its membership proof under
// the set's hash.
func (vs *VerifierSet) MerkleiseSigners(domainSeparator [32]byte) ([32]byte, []MerkleisedSigner, error) {
	leaves, preimages, err := vs.leaves(domainSeparator)
	if err != nil {
		return [32]byte{}, nil, err
	}
	rootBytes, proofs := merkle.ProofsFromByteSlices(preimages)
	var root [32]byte
	copy(root[:], rootBytes)

	out := make([]MerkleisedSigner, len(leaves))
	for i := range leaves {
		out[i] = MerkleisedSigner{Leaf: leaves[i], Proof: proofs[i]}
	}
	return root, out, nil
}

// VerifySignature checks an ed25519 signature by pubKey over the 32-byte
// payload Merkle root.
func VerifySignature(pubKey solana.PublicKey, signature solana.Signature, payloadRoot [32]byte) error {
	if !ed25519.Verify(ed25519.PublicKey(pubKey[:]), payloadRoot[:], signature[:]) {
		return fmt.Errorf("%w: signer %s", ErrBadSignature, pubKey)
	}
	return nil
}
