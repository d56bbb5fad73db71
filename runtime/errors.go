// Copyright (C) 2025-2026, Eiger Oy. All rights reserved.
// See the file LICENSE for licensing terms.

package runtime

import "errors"

var (
	ErrNotInitialized         = errors.New("account not initialized")
	ErrAlreadyInitialized     = errors.New("account already initialized")
	ErrIncorrectOwner         = errors.New("incorrect account owner")
	ErrIncorrectProgramID     = errors.New("incorrect program id")
	ErrMissingSignature       = errors.New("missing required signature")
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrUnknownProgram         = errors.New("unknown program")
	ErrInvalidInstructionData = errors.New("invalid instruction data")
	ErrInvalidArgument        = errors.New("invalid argument")
	ErrInvalidAccountData     = errors.New("invalid account data")
	ErrDerivedPDAMismatch     = errors.New("derived pda mismatch")
	ErrCallDepthExceeded      = errors.New("cross-program call depth exceeded")
)
