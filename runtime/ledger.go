// Copyright (C) 2025-2026, Eiger Oy. All rights reserved.
// See the file LICENSE for licensing terms.

package runtime

import (
	"sync"

	"github.com/gagliardetto/solana-go"
)

// Ledger is the in-memory account store backing the runtime. A
// transaction observes a consistent snapshot: the runtime snapshots the
// ledger before the first instruction and restores it if any instruction
// fails.
type Ledger struct {
	mu       sync.RWMutex
	accounts map[solana.PublicKey]*Account
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		accounts: make(map[solana.PublicKey]*Account),
	}
}

// Get returns the live account for pk, or nil if absent.
func (l *Ledger) Get(pk solana.PublicKey) *Account {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.accounts[pk]
}

// Put inserts or replaces the account for pk.
func (l *Ledger) Put(pk solana.PublicKey, acct *Account) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.accounts[pk] = acct
}

// Delete removes the account for pk.
func (l *Ledger) Delete(pk solana.PublicKey) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.accounts, pk)
}

// Snapshot deep-copies the full account map.
func (l *Ledger) Snapshot() map[solana.PublicKey]*Account {
	l.mu.RLock()
	defer l.mu.RUnlock()
	snap := make(map[solana.PublicKey]*Account, len(l.accounts))
	for pk, acct := range l.accounts {
		snap[pk] = acct.Clone()
	}
	return snap
}

// Restore replaces the account map with a previously taken snapshot.
func (l *Ledger) Restore(snap map[solana.PublicKey]*Account) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.accounts = snap
}
