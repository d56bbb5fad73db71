// Copyright (C) 2025-2026, Eiger Oy. All rights reserved.
// See the file LICENSE for licensing terms.

package gateway

import (
	"fmt"

	"go.uber.org/zap"

	axelar "github.com/eigerco/axelar-amplifier-solana-sub000"
	"github.com/eigerco/axelar-amplifier-solana-sub000/runtime"
)

func (g *Gateway) initializeSession(ctx *runtime.Context, p *InitializeSessionParams) error {
	if err := ctx.RequireSigner(p.Payer); err != nil {
		return err
	}
	cfg, _, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	// The signing set must be one the gateway has seen, and must be
	// recent enough: a set rotated out more than PreviousSignerRetention
	// epochs ago can no longer open sessions.
	trackerPDA, _, err := TrackerAddress(p.SigningVerifierSetHash)
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	var tracker VerifierSetTracker
	if err := ctx.ReadState(ID, trackerPDA, trackerDiscriminator, &tracker); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidVerifierSet, err)
	}
	if cfg.CurrentEpoch-tracker.Epoch > cfg.PreviousSignerRetention {
		return fmt.Errorf("%w: set epoch %d, current epoch %d, retention %d",
			ErrVerifierSetTooOld, tracker.Epoch, cfg.CurrentEpoch, cfg.PreviousSignerRetention)
	}

	sessionPDA, bump, err := SessionAddress(p.PayloadMerkleRoot)
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	if _, _, err := ctx.InitPDA(
		[][]byte{[]byte(sessionSeed), p.PayloadMerkleRoot[:]},
		sessionSpace+axelar.MaxBatchSize/8,
		p.Payer,
	); err != nil {
		return err
	}
	return ctx.WriteState(ID, sessionPDA, sessionDiscriminator, &SignatureVerificationSession{
		Bump:                   bump,
		SigningVerifierSetHash: p.SigningVerifierSetHash,
		SignerBitset:           axelar.NewBits(),
	})
}

func (g *Gateway) verifySignature(ctx *runtime.Context, p *VerifySignatureParams) error {
	cfg, _, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	sessionPDA, _, err := SessionAddress(p.PayloadMerkleRoot)
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	var session SignatureVerificationSession
	if err := ctx.ReadState(ID, sessionPDA, sessionDiscriminator, &session); err != nil {
		return fmt.Errorf("%w: %v", ErrSessionNotInitialized, err)
	}

	leaf := &p.Signer.Leaf
	if leaf.DomainSeparator != cfg.DomainSeparator {
		return fmt.Errorf("%w: wrong domain separator", axelar.ErrNotInSet)
	}
	if err := p.Signer.VerifyInclusion(session.SigningVerifierSetHash); err != nil {
		return fmt.Errorf("%w: %v", axelar.ErrNotInSet, err)
	}
	if err := axelar.VerifySignature(leaf.PubKey, p.Signature, p.PayloadMerkleRoot); err != nil {
		return err
	}

	// Every leaf of the set carries the quorum, so the session learns it
	// from the first proven signature and pins it thereafter.
	if session.Threshold == 0 {
		session.Threshold = leaf.Threshold
	} else if session.Threshold != leaf.Threshold {
		return fmt.Errorf("%w: leaf threshold %d does not match session threshold %d",
			axelar.ErrNotInSet, leaf.Threshold, session.Threshold)
	}

	// Duplicate submissions for a slot are accepted but counted once.
	slot := int(leaf.Position)
	if !session.SignerBitset.Contains(slot) {
		session.SignerBitset.Add(slot)
		weight, err := axelar.AddUint64(session.AccumulatedWeight, leaf.Weight)
		if err != nil {
			return fmt.Errorf("%w: accumulated weight overflow", axelar.ErrInvalidVerifierSet)
		}
		session.AccumulatedWeight = weight
		if session.AccumulatedWeight >= session.Threshold {
			session.Valid = true
		}
	}

	if err := ctx.WriteState(ID, sessionPDA, sessionDiscriminator, &session); err != nil {
		return err
	}
	ctx.Logger().Debug("signature verified",
		zapHash("payload_root", p.PayloadMerkleRoot),
		zap.Uint16("slot", leaf.Position),
		zap.Uint64("accumulated_weight", session.AccumulatedWeight),
		zap.Uint64("threshold", session.Threshold),
		zap.Bool("valid", session.Valid))
	return nil
}
