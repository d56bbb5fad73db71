// Copyright (C) 2025-2026, Eiger Oy. All rights reserved.
// See the file LICENSE for licensing terms.

package relayer

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"

	axelar "github.com/eigerco/axelar-amplifier-solana-sub000"
)

// Signer produces verifier signatures over payload Merkle roots.
type Signer interface {
	// Sign signs a 32-byte payload root.
	Sign(root [32]byte) solana.Signature

	// PublicKey returns the verifier public key.
	PublicKey() solana.PublicKey
}

// LocalSigner signs roots with an in-memory ed25519 key.
type LocalSigner struct {
	priv ed25519.PrivateKey
	pub  solana.PublicKey
}

// NewLocalSigner generates a fresh verifier keypair.
func NewLocalSigner() (*LocalSigner, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &LocalSigner{priv: priv, pub: solana.PublicKeyFromBytes(pub)}, nil
}

// LocalSignerFromSeed derives a verifier keypair from a 32-byte seed.
func LocalSignerFromSeed(seed []byte) (*LocalSigner, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("verifier seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	priv := ed25519.NewKeyFromSeed(seed)
	pub := priv.Public().(ed25519.PublicKey)
	return &LocalSigner{priv: priv, pub: solana.PublicKeyFromBytes(pub)}, nil
}

// Sign signs a payload root.
func (s *LocalSigner) Sign(root [32]byte) solana.Signature {
	return solana.SignatureFromBytes(ed25519.Sign(s.priv, root[:]))
}

// PublicKey returns the verifier public key.
func (s *LocalSigner) PublicKey() solana.PublicKey {
	return s.pub
}

// SignerPool maps a verifier set's members to their signers.
type SignerPool struct {
	signers map[solana.PublicKey]Signer
}

// NewSignerPool builds a pool from signers.
func NewSignerPool(signers ...Signer) *SignerPool {
	pool := &SignerPool{signers: make(map[solana.PublicKey]Signer, len(signers))}
	for _, s := range signers {
		pool.signers[s.PublicKey()] = s
	}
	return pool
}

// Add registers one more signer.
func (p *SignerPool) Add(s Signer) {
	p.signers[s.PublicKey()] = s
}

// For returns the signer backing a verifier public key.
func (p *SignerPool) For(pub solana.PublicKey) (Signer, error) {
	s, ok := p.signers[pub]
	if !ok {
		return nil, fmt.Errorf("no signer for verifier %s", pub)
	}
	return s, nil
}

// VerifierSet builds the weighted set backed by this pool, all members
// at equal weight with the given threshold.
func (p *SignerPool) VerifierSet(nonce uint64, threshold uint64) (*axelar.VerifierSet, error) {
	if len(p.signers) == 0 {
		return nil, errors.New("signer pool is empty")
	}
	weighted := make([]axelar.WeightedSigner, 0, len(p.signers))
	for pub := range p.signers {
		weighted = append(weighted, axelar.WeightedSigner{PubKey: pub, Weight: 1})
	}
	return axelar.NewVerifierSet(nonce, weighted, threshold)
}
