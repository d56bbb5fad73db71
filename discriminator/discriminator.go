// Copyright (C) 2025-2026, Eiger Oy. All rights reserved.
// See the file LICENSE for licensing terms.

// Package discriminator computes the fixed 8-byte tags that prefix
// instruction data, persisted account state, and emitted events. The tag
// is the first 8 bytes of a domain-tagged SHA-256 hash, so it survives
// program upgrades as long as the name does.
package discriminator

import (
	"crypto/sha256"
	"errors"
	"fmt"
)

// Length is the size of a discriminator in bytes.
const Length = 8

// ErrMismatch is returned when data does not start with the expected tag.
var ErrMismatch = errors.New("discriminator mismatch")

// Discriminator is a fixed 8-byte tag.
type Discriminator [Length]byte

func fromTag(domain, name string) Discriminator {
	sum := sha256.Sum256([]byte(domain + ":" + name))
	var d Discriminator
	copy(d[:], sum[:Length])
	return d
}

// Global returns the instruction discriminator for a method name.
func Global(method string) Discriminator {
	return fromTag("global", method)
}

// Account returns the account discriminator for a state type name.
func Account(typeName string) Discriminator {
	return fromTag("account", typeName)
}

// Event returns the event discriminator for an event type name.
func Event(name string) Discriminator {
	return fromTag("event", name)
}

// Prepend returns the tag followed by payload.
func (d Discriminator) Prepend(payload []byte) []byte {
	out := make([]byte, 0, Length+len(payload))
	out = append(out, d[:]...)
	return append(out, payload...)
}

// Split checks that data starts with d and returns the remainder.
func Split(d Discriminator, data []byte) ([]byte, error) {
	if len(data) < Length {
		return nil, fmt.Errorf("%w: data shorter than %d bytes", ErrMismatch, Length)
	}
	var got Discriminator
	copy(got[:], data[:Length])
	if got != d {
		return nil, fmt.Errorf("%w: got %x, want %x", ErrMismatch, got, d)
	}
	return data[Length:], nil
}

// Peek returns the leading tag of data without validating it.
func Peek(data []byte) (Discriminator, error) {
	if len(data) < Length {
		return Discriminator{}, fmt.Errorf("%w: data shorter than %d bytes", ErrMismatch, Length)
	}
	var d Discriminator
	copy(d[:], data[:Length])
	return d, nil
}
