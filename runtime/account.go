// Copyright (C) 2025-2026, Eiger Oy. All rights reserved.
// See the file LICENSE for licensing terms.

package runtime

import (
	"github.com/gagliardetto/solana-go"
)

// Rent parameters of the host chain. Accounts must be funded to the
// exemption minimum at creation time.
const (
	accountStorageOverhead = 128
	lamportsPerByteYear    = 3480
	rentExemptionYears     = 2
)

// RentExemptMinimum returns the lamports an account of the given data
// length must hold to be rent exempt.
func RentExemptMinimum(dataLen int) uint64 {
	return uint64(dataLen+accountStorageOverhead) * lamportsPerByteYear * rentExemptionYears //nolint:gosec // dataLen is bounded
}

// Account is a single host-chain account: a lamport balance plus a byte
// payload owned by a program.
type Account struct {
	Lamports   uint64
	Owner      solana.PublicKey
	Data       []byte
	Executable bool
}

// Clone deep-copies the account.
func (a *Account) Clone() *Account {
	data := make([]byte, len(a.Data))
	copy(data, a.Data)
	return &Account{
		Lamports:   a.Lamports,
		Owner:      a.Owner,
		Data:       data,
		Executable: a.Executable,
	}
}

// IsSystemOwned reports whether the account is a plain wallet.
func (a *Account) IsSystemOwned() bool {
	return a.Owner.IsZero() || a.Owner.Equals(solana.SystemProgramID)
}
