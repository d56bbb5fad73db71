// Copyright (C) 2025-2026, Eiger Oy. All rights reserved.
// See the file LICENSE for licensing terms.

package axelar

import (
	"fmt"
	"math/bits"
)

// Bits tracks which verifier slots have already contributed a signature
// to a verification session. The backing slice grows on demand and is
// borsh-serialized as part of the session account.
type Bits []byte

// NewBits creates an empty bit set.
func NewBits() Bits {
	return make(Bits, 0)
}

// Add sets the bit at index i, growing the slice if needed.
func (b *Bits) Add(i int) {
	if i < 0 {
		return
	}
	byteIndex := i / 8
	bitIndex := i % 8

	for len(*b) <= byteIndex {
		*b = append(*b, 0)
	}

	(*b)[byteIndex] |= 1 << uint(bitIndex) //nolint:gosec // bitIndex is always 0-7
}

// Contains returns true if the bit at index i is set.
func (b Bits) Contains(i int) bool {
	if i < 0 {
		return false
	}
	byteIndex := i / 8
	if byteIndex >= len(b) {
		return false
	}
	bitIndex := i % 8
	return (b[byteIndex] & (1 << uint(bitIndex))) != 0 //nolint:gosec // bitIndex is always 0-7
}

// Len returns the number of set bits.
func (b Bits) Len() int {
	count := 0
	for _, byte := range b {
		count += bits.OnesCount8(byte)
	}
	return count
}

// Equal returns true if two bit sets contain the same indices.
func (b Bits) Equal(other Bits) bool {
	b = b.trim()
	other = other.trim()
	if len(b) != len(other) {
		return false
	}
	for i := range b {
		if b[i] != other[i] {
			return false
		}
	}
	return true
}

// trim removes trailing zero bytes.
func (b Bits) trim() Bits {
	i := len(b) - 1
	for i >= 0 && b[i] == 0 {
		i--
	}
	return b[:i+1]
}

// String returns the set indices, for logs.
func (b Bits) String() string {
	if len(b) == 0 {
		return "{}"
	}
	indices := make([]int, 0, b.Len())
	for i := 0; i < len(b)*8; i++ {
		if b.Contains(i) {
			indices = append(indices, i)
		}
	}
	return fmt.Sprintf("%v", indices)
}
