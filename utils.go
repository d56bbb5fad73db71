// Copyright (C) 2025-2026, Eiger Oy. All rights reserved.
// See the file LICENSE for licensing terms.

package axelar

import (
	"errors"
	"math"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// ErrArithmeticOverflow is returned when a checked arithmetic operation
// would wrap.
var ErrArithmeticOverflow = errors.New("arithmetic overflow")

// Keccak256 hashes the concatenation of the inputs.
func Keccak256(data ...[]byte) [32]byte {
	var out [32]byte
	copy(out[:], crypto.Keccak256(data...))
	return out
}

// AddUint64 adds two uint64 values, failing on overflow.
func AddUint64(a, b uint64) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, ErrArithmeticOverflow
	}
	return a + b, nil
}

// SubUint64 subtracts b from a, failing on underflow.
func SubUint64(a, b uint64) (uint64, error) {
	if b > a {
		return 0, ErrArithmeticOverflow
	}
	return a - b, nil
}

// U64FromUint256 narrows a wire uint256 amount to the local u64
// representation, failing if the value does not fit.
func U64FromUint256(v *uint256.Int) (uint64, error) {
	if v == nil {
		return 0, nil
	}
	if !v.IsUint64() {
		return 0, ErrArithmeticOverflow
	}
	return v.Uint64(), nil
}
