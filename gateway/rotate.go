// Copyright (C) 2025-2026, Eiger Oy. All rights reserved.
// See the file LICENSE for licensing terms.

package gateway

import (
	"fmt"

	"go.uber.org/zap"

	axelar "github.com/eigerco/axelar-amplifier-solana-sub000"
	"github.com/eigerco/axelar-amplifier-solana-sub000/runtime"
)

// rotationDomain tags the payload root verifiers sign for a rotation,
// so a message-batch merkle root can never double as a rotation
// commitment.
const rotationDomain = "rotate-signers"

// RotationDigest is the payload root a quorum signs to authorize the
// handover to newVerifierSetHash.
func RotationDigest(newVerifierSetHash [32]byte) [32]byte {
	return axelar.Keccak256([]byte(rotationDomain), newVerifierSetHash[:])
}

func (g *Gateway) rotateSigners(ctx *runtime.Context, p *RotateSignersParams) error {
	if err := ctx.RequireSigner(p.Payer); err != nil {
		return err
	}
	cfg, configPDA, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	// The session must be over the domain-tagged rotation digest of the
	// new set hash, not the hash itself. A root verifiers signed for a
	// message batch cannot be the keccak image of any attacker-chosen
	// set hash, so approval sessions are useless here.
	sessionPDA, _, err := SessionAddress(RotationDigest(p.NewVerifierSetHash))
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	var session SignatureVerificationSession
	if err := ctx.ReadState(ID, sessionPDA, sessionDiscriminator, &session); err != nil {
		return fmt.Errorf("%w: %v", ErrSessionNotInitialized, err)
	}
	if !session.Valid {
		return ErrSessionNotValid
	}

	// Rotations accept only the latest set's signatures. Older sets keep
	// approving messages within retention but may never rotate.
	trackerPDA, _, err := TrackerAddress(session.SigningVerifierSetHash)
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	var signingTracker VerifierSetTracker
	if err := ctx.ReadState(ID, trackerPDA, trackerDiscriminator, &signingTracker); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidVerifierSet, err)
	}
	if signingTracker.Epoch != cfg.CurrentEpoch {
		return fmt.Errorf("%w: rotation signed by epoch %d set, current epoch is %d",
			ErrInvalidVerifierSet, signingTracker.Epoch, cfg.CurrentEpoch)
	}

	// The operator may push an emergency rotation through before the
	// minimum delay has elapsed.
	elapsed := ctx.Clock() - cfg.LastRotationTimestamp
	if elapsed < cfg.MinimumRotationDelay && !ctx.IsSigner(cfg.Operator) {
		return fmt.Errorf("%w: %ds of %ds elapsed", ErrRotationTooEarly, elapsed, cfg.MinimumRotationDelay)
	}

	newEpoch, err := axelar.AddUint64(cfg.CurrentEpoch, 1)
	if err != nil {
		return fmt.Errorf("%w: epoch overflow", runtime.ErrInvalidArgument)
	}
	if err := g.trackVerifierSet(ctx, p.Payer, p.NewVerifierSetHash, newEpoch); err != nil {
		return err
	}
	cfg.CurrentEpoch = newEpoch
	cfg.LastRotationTimestamp = ctx.Clock()
	if err := ctx.WriteRawState(ID, configPDA, cfg); err != nil {
		return err
	}

	ctx.Logger().Info("verifier set rotated",
		zap.Uint64("epoch", newEpoch),
		zapHash("verifier_set", p.NewVerifierSetHash))
	return g.emit(ctx, EventVerifierSetRotated, &VerifierSetRotatedEvent{
		Epoch:           newEpoch,
		VerifierSetHash: p.NewVerifierSetHash,
	})
}
