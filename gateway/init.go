// Copyright (C) 2025-2026, Eiger Oy. All rights reserved.
// See the file LICENSE for licensing terms.

package gateway

import (
	"encoding/hex"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/eigerco/axelar-amplifier-solana-sub000/discriminator"
	"github.com/eigerco/axelar-amplifier-solana-sub000/runtime"
)

func zapHash(key string, h [32]byte) zap.Field {
	return zap.String(key, hex.EncodeToString(h[:]))
}

// Account space reservations. Sessions carry a growing signer bitset, so
// they are over-allocated for the maximum batch size.
const (
	configSpace  = 32 + 32 + 8 + 8 + 8 + 8 + 1
	trackerSpace = discriminator.Length + 32 + 8 + 1
	sessionSpace = discriminator.Length + 1 + 32 + 8 + 8 + 4 + 32 + 1
)

func (g *Gateway) initializeConfig(ctx *runtime.Context, p *InitializeConfigParams) error {
	if err := ctx.RequireSigner(p.Payer); err != nil {
		return err
	}
	if p.PreviousSignerRetention == 0 {
		return fmt.Errorf("%w: zero signer retention", runtime.ErrInvalidArgument)
	}

	configPDA, bump, err := ConfigAddress()
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	if _, _, err := ctx.InitPDA([][]byte{[]byte(configSeed)}, configSpace, p.Payer); err != nil {
		return err
	}
	cfg := Config{
		DomainSeparator:         p.DomainSeparator,
		Operator:                p.Operator,
		CurrentEpoch:            1,
		PreviousSignerRetention: p.PreviousSignerRetention,
		MinimumRotationDelay:    p.MinimumRotationDelay,
		LastRotationTimestamp:   ctx.Clock(),
		Bump:                    bump,
	}
	if err := ctx.WriteRawState(ID, configPDA, &cfg); err != nil {
		return err
	}

	if err := g.trackVerifierSet(ctx, p.Payer, p.InitialVerifierSetHash, 1); err != nil {
		return err
	}
	ctx.Logger().Info("gateway initialized",
		zapHash("initial_verifier_set", p.InitialVerifierSetHash))
	return nil
}

// trackVerifierSet creates the tracker PDA binding a verifier-set hash to
// the epoch it became active at.
func (g *Gateway) trackVerifierSet(ctx *runtime.Context, payer solana.PublicKey, setHash [32]byte, epoch uint64) error {
	trackerPDA, bump, err := TrackerAddress(setHash)
	if err != nil {
		return fmt.Errorf("%w: %v", runtime.ErrDerivedPDAMismatch, err)
	}
	if ctx.Exists(trackerPDA) {
		return fmt.Errorf("%w: verifier set already tracked", runtime.ErrAlreadyInitialized)
	}
	if _, _, err := ctx.InitPDA([][]byte{[]byte(trackerSeed), setHash[:]}, trackerSpace, payer); err != nil {
		return err
	}
	return ctx.WriteState(ID, trackerPDA, trackerDiscriminator, &VerifierSetTracker{
		Hash:  setHash,
		Epoch: epoch,
		Bump:  bump,
	})
}

func (g *Gateway) transferOperatorship(ctx *runtime.Context, p *TransferOperatorshipParams) error {
	cfg, configPDA, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	// Either the sitting operator or the program upgrade authority may
	// hand operatorship over.
	authorized := false
	if p.Current.Equals(cfg.Operator) && ctx.IsSigner(p.Current) {
		authorized = true
	}
	if auth := ctx.UpgradeAuthority(); !auth.IsZero() && ctx.IsSigner(auth) {
		authorized = true
	}
	if !authorized {
		return fmt.Errorf("%w: operatorship transfer requires the operator or upgrade authority", ErrNotOperator)
	}

	previous := cfg.Operator
	cfg.Operator = p.New
	if err := ctx.WriteRawState(ID, configPDA, cfg); err != nil {
		return err
	}
	return g.emit(ctx, EventOperatorshipTransferred, &OperatorshipTransferredEvent{
		Previous: previous,
		New:      p.New,
	})
}
