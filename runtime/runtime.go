// Copyright (C) 2025-2026, Eiger Oy. All rights reserved.
// See the file LICENSE for licensing terms.

// Package runtime models the host chain the on-chain programs execute
// against: program-derived accounts with rent, borsh-encoded state behind
// 8-byte discriminators, cross-program invocations with signer seeds, a
// settable clock, and an ordered structured-event log.
//
// The runtime is transactional: a transaction either commits all of its
// state changes or none of them, mirroring the host chain's atomicity.
package runtime

import (
	"crypto/sha256"
	"fmt"
	"sync"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/eigerco/axelar-amplifier-solana-sub000/discriminator"
)

// maxInvokeDepth bounds cross-program call nesting, as the host does.
const maxInvokeDepth = 4

// ProgramID derives a deterministic program address from a name. The
// in-process runtime has no deployed binaries to address, so program
// identities are fixed by name instead of by keypair.
func ProgramID(name string) solana.PublicKey {
	sum := sha256.Sum256([]byte("program:" + name))
	return solana.PublicKeyFromBytes(sum[:])
}

// Program is an on-chain program registered with the runtime.
type Program interface {
	// ID returns the program's address.
	ID() solana.PublicKey

	// Execute runs one instruction in the given context.
	Execute(ctx *Context, ix Instruction) error
}

// Instruction is one program invocation: the target program, the account
// metas declaring signer/writable intent, and the discriminator-prefixed
// borsh data.
type Instruction struct {
	ProgramID solana.PublicKey
	Accounts  []*solana.AccountMeta
	Data      []byte
}

// Transaction is an atomically executed instruction list with its
// declared signers.
type Transaction struct {
	Instructions []Instruction
	Signers      []solana.PublicKey
}

// Event is a structured record emitted by a program through its event
// authority PDA.
type Event struct {
	Program       solana.PublicKey
	Discriminator discriminator.Discriminator
	Data          []byte
}

// Runtime is the in-process host chain.
type Runtime struct {
	mu          sync.Mutex
	ledger      *Ledger
	programs    map[solana.PublicKey]Program
	upgradeAuth map[solana.PublicKey]solana.PublicKey
	clock       int64
	log         *zap.Logger
	events      []Event
}

// New creates a runtime with an empty ledger.
func New(logger *zap.Logger) *Runtime {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runtime{
		ledger:      NewLedger(),
		programs:    make(map[solana.PublicKey]Program),
		upgradeAuth: make(map[solana.PublicKey]solana.PublicKey),
		log:         logger,
	}
}

// SetUpgradeAuthority records the upgrade authority of a deployed
// program, as the loader would.
func (r *Runtime) SetUpgradeAuthority(program, authority solana.PublicKey) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.upgradeAuth[program] = authority
}

// Register adds a program to the dispatch table.
func (r *Runtime) Register(p Program) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := p.ID()
	if _, ok := r.programs[id]; ok {
		return fmt.Errorf("%w: program %s already registered", ErrAlreadyInitialized, id)
	}
	r.programs[id] = p
	return nil
}

// SetClock sets the chain clock, in unix seconds.
func (r *Runtime) SetClock(unix int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clock = unix
}

// AdvanceClock moves the chain clock forward by d seconds.
func (r *Runtime) AdvanceClock(d int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clock += d
}

// Clock returns the chain clock, in unix seconds.
func (r *Runtime) Clock() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clock
}

// FundWallet creates or tops up a system-owned wallet account.
func (r *Runtime) FundWallet(pk solana.PublicKey, lamports uint64) {
	acct := r.ledger.Get(pk)
	if acct == nil {
		acct = &Account{Owner: solana.SystemProgramID}
		r.ledger.Put(pk, acct)
	}
	acct.Lamports += lamports
}

// Account returns a copy of the account for inspection, or nil.
func (r *Runtime) Account(pk solana.PublicKey) *Account {
	acct := r.ledger.Get(pk)
	if acct == nil {
		return nil
	}
	return acct.Clone()
}

// Events returns the emitted event log.
func (r *Runtime) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// EventsFor returns the events emitted by one program.
func (r *Runtime) EventsFor(program solana.PublicKey) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, ev := range r.events {
		if ev.Program.Equals(program) {
			out = append(out, ev)
		}
	}
	return out
}

// Execute runs a transaction atomically. On any instruction failure the
// ledger and the event log are restored to their pre-transaction state.
func (r *Runtime) Execute(tx Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	snap := r.ledger.Snapshot()
	eventMark := len(r.events)

	for i, ix := range tx.Instructions {
		if err := r.dispatch(ix, tx.Signers); err != nil {
			r.ledger.Restore(snap)
			r.events = r.events[:eventMark]
			return fmt.Errorf("instruction %d: %w", i, err)
		}
	}
	return nil
}

// Invoke runs a single instruction as its own transaction.
func (r *Runtime) Invoke(ix Instruction, signers ...solana.PublicKey) error {
	return r.Execute(Transaction{
		Instructions: []Instruction{ix},
		Signers:      signers,
	})
}

func (r *Runtime) dispatch(ix Instruction, signers []solana.PublicKey) error {
	prog, ok := r.programs[ix.ProgramID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProgram, ix.ProgramID)
	}

	signerSet := make(map[solana.PublicKey]struct{}, len(signers))
	for _, s := range signers {
		signerSet[s] = struct{}{}
	}
	for _, meta := range ix.Accounts {
		if meta.IsSigner {
			signerSet[meta.PublicKey] = struct{}{}
		}
	}

	ctx := &Context{
		rt:      r,
		program: ix.ProgramID,
		signers: signerSet,
		depth:   0,
	}
	return prog.Execute(ctx, ix)
}
