// Copyright (C) 2025-2026, Eiger Oy. All rights reserved.
// See the file LICENSE for licensing terms.

// Package relayer is a local delivery harness for the on-chain core: it
// plays the role of the off-chain Amplifier relayer against an
// in-process runtime. It builds payload Merkle roots, collects verifier
// signatures from a configured signer pool, drives verification
// sessions to quorum, approves messages, and hands them to their
// destination programs. It exists for tests and demos; it speaks no
// network protocol.
package relayer

import (
	"fmt"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	axelar "github.com/eigerco/axelar-amplifier-solana-sub000"
	"github.com/eigerco/axelar-amplifier-solana-sub000/gateway"
	"github.com/eigerco/axelar-amplifier-solana-sub000/runtime"
)

// defaultSetCacheTTL keeps proven signer lists warm well past a typical
// test or demo run.
const defaultSetCacheTTL = 10 * time.Minute

// Relayer drives gateway approvals on a local runtime.
type Relayer struct {
	rt              *runtime.Runtime
	log             *zap.Logger
	metrics         *Metrics
	pool            *SignerPool
	set             *axelar.VerifierSet
	setHash         [32]byte
	domainSeparator [32]byte
	payer           solana.PublicKey
	cache           *setCache
}

// Config assembles a Relayer.
type Config struct {
	Runtime         *runtime.Runtime
	Logger          *zap.Logger
	Registerer      prometheus.Registerer
	Pool            *SignerPool
	Set             *axelar.VerifierSet
	DomainSeparator [32]byte
	Payer           solana.PublicKey
	SetCacheTTL     time.Duration
}

// New builds a relayer over an already-initialized gateway.
func New(cfg Config) (*Relayer, error) {
	if cfg.Runtime == nil {
		return nil, fmt.Errorf("runtime is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Registerer == nil {
		cfg.Registerer = prometheus.NewRegistry()
	}
	if cfg.SetCacheTTL == 0 {
		cfg.SetCacheTTL = defaultSetCacheTTL
	}
	setHash, err := cfg.Set.Hash(cfg.DomainSeparator)
	if err != nil {
		return nil, err
	}
	return &Relayer{
		rt:              cfg.Runtime,
		log:             cfg.Logger.Named("relayer"),
		metrics:         NewMetrics(cfg.Registerer),
		pool:            cfg.Pool,
		set:             cfg.Set,
		setHash:         setHash,
		domainSeparator: cfg.DomainSeparator,
		payer:           cfg.Payer,
		cache:           newSetCache(cfg.SetCacheTTL),
	}, nil
}

// SetHash returns the hash of the signing verifier set.
func (r *Relayer) SetHash() [32]byte {
	return r.setHash
}

// ApproveRoot opens a verification session for root and submits
// signatures from the pool until quorum.
func (r *Relayer) ApproveRoot(root [32]byte) error {
	ix, err := gateway.NewInstruction("initialize_payload_verification_session", &gateway.InitializeSessionParams{
		Payer:                  r.payer,
		PayloadMerkleRoot:      root,
		SigningVerifierSetHash: r.setHash,
	})
	if err != nil {
		return err
	}
	if err := r.rt.Invoke(ix, r.payer); err != nil {
		return fmt.Errorf("open session: %w", err)
	}

	set, proven, err := r.cache.get(r.setHash, func() (*axelar.VerifierSet, []axelar.MerkleisedSigner, error) {
		_, p, err := r.set.MerkleiseSigners(r.domainSeparator)
		return r.set, p, err
	})
	if err != nil {
		return err
	}

	var weight uint64
	var submitted int
	for _, ps := range proven {
		signer, err := r.pool.For(ps.Leaf.PubKey)
		if err != nil {
			r.log.Debug("verifier not in pool, skipping",
				zap.Stringer("verifier", ps.Leaf.PubKey))
			continue
		}
		ix, err := gateway.NewInstruction("verify_signature", &gateway.VerifySignatureParams{
			PayloadMerkleRoot: root,
			Signer:            ps,
			Signature:         signer.Sign(root),
		})
		if err != nil {
			return err
		}
		if err := r.rt.Invoke(ix, r.payer); err != nil {
			return fmt.Errorf("submit signature: %w", err)
		}
		r.metrics.submittedSignatureCount.Inc()
		submitted++
		weight += ps.Leaf.Weight
		if weight >= set.Threshold {
			r.metrics.sessionQuorumLatencySigs.Set(float64(submitted))
			return nil
		}
	}
	return fmt.Errorf("pool weight %d below threshold %d", weight, set.Threshold)
}

// Approve batches msgs under one payload root, drives the session to
// quorum, and approves every message on the gateway.
func (r *Relayer) Approve(msgs ...axelar.Message) error {
	root, proven, err := axelar.MerkleiseMessages(r.domainSeparator, msgs)
	if err != nil {
		return err
	}
	if err := r.ApproveRoot(root); err != nil {
		for _, msg := range msgs {
			r.metrics.failedDeliveryCount.WithLabelValues(msg.CCID.Chain, "session").Inc()
		}
		return err
	}
	for i, pm := range proven {
		ix, err := gateway.NewInstruction("approve_message", &gateway.ApproveMessageParams{
			Payer:             r.payer,
			PayloadMerkleRoot: root,
			Message:           pm,
		})
		if err != nil {
			return err
		}
		if err := r.rt.Invoke(ix, r.payer); err != nil {
			r.metrics.failedDeliveryCount.WithLabelValues(msgs[i].CCID.Chain, "approve").Inc()
			return fmt.Errorf("approve message %s: %w", msgs[i].CCID.ID, err)
		}
		r.metrics.approvedMessageCount.WithLabelValues(msgs[i].CCID.Chain).Inc()
		r.log.Info("message approved",
			zap.String("source_chain", msgs[i].CCID.Chain),
			zap.String("message_id", msgs[i].CCID.ID))
	}
	return nil
}

// Deliver approves msg and then invokes the destination instruction
// that consumes it. The instruction is built by the caller since each
// destination program has its own execute surface.
func (r *Relayer) Deliver(msg axelar.Message, destination runtime.Instruction) error {
	if err := r.Approve(msg); err != nil {
		return err
	}
	if err := r.rt.Invoke(destination, r.payer); err != nil {
		r.metrics.failedDeliveryCount.WithLabelValues(msg.CCID.Chain, "execute").Inc()
		return fmt.Errorf("execute on destination: %w", err)
	}
	return nil
}

// RotateTo signs the rotation digest of the next verifier set with the
// current set and rotates the gateway to it. The relayer then signs
// with the new set. Extra signers are forwarded to the rotation
// instruction; pass the gateway operator to bypass the minimum rotation
// delay.
func (r *Relayer) RotateTo(next *axelar.VerifierSet, pool *SignerPool, extraSigners ...solana.PublicKey) error {
	nextHash, err := next.Hash(r.domainSeparator)
	if err != nil {
		return err
	}
	if err := r.ApproveRoot(gateway.RotationDigest(nextHash)); err != nil {
		return err
	}
	ix, err := gateway.NewInstruction("rotate_signers", &gateway.RotateSignersParams{
		Payer:              r.payer,
		NewVerifierSetHash: nextHash,
	})
	if err != nil {
		return err
	}
	if err := r.rt.Invoke(ix, append([]solana.PublicKey{r.payer}, extraSigners...)...); err != nil {
		return fmt.Errorf("rotate signers: %w", err)
	}

	r.cache.invalidate(r.setHash)
	r.set = next
	r.setHash = nextHash
	if pool != nil {
		r.pool = pool
	}
	r.metrics.rotationCount.Inc()
	r.log.Info("verifier set rotated", zap.String("set_hash", fmt.Sprintf("%x", nextHash[:8])))
	return nil
}
