// Copyright (C) 2025-2026, Eiger Oy. All rights reserved.
// See the file LICENSE for licensing terms.

package governance

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/gagliardetto/solana-go"
	"github.com/holiman/uint256"

	axelar "github.com/eigerco/axelar-amplifier-solana-sub000"
	"github.com/eigerco/axelar-amplifier-solana-sub000/runtime"
)

// Command is one decoded governance GMP payload: a single-byte tag
// followed by the ABI-encoded execution triple and ETA.
type Command struct {
	Tag         uint8
	Target      solana.PublicKey
	CallData    []byte
	NativeValue uint64
	Eta         uint64
}

var commandArgs = abi.Arguments{
	{Type: mustABIType("bytes32")},
	{Type: mustABIType("bytes")},
	{Type: mustABIType("uint256")},
	{Type: mustABIType("uint256")},
}

func mustABIType(t string) abi.Type {
	ty, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return ty
}

// EncodeCommand serializes a governance command to its GMP wire form.
func EncodeCommand(cmd *Command) ([]byte, error) {
	var target [32]byte
	copy(target[:], cmd.Target[:])
	body, err := commandArgs.Pack(
		target,
		cmd.CallData,
		new(big.Int).SetUint64(cmd.NativeValue),
		new(big.Int).SetUint64(cmd.Eta),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", runtime.ErrInvalidInstructionData, err)
	}
	return append([]byte{cmd.Tag}, body...), nil
}

// DecodeCommand parses a governance GMP payload.
func DecodeCommand(data []byte) (*Command, error) {
	if len(data) < 1 {
		return nil, fmt.Errorf("%w: empty payload", ErrUnknownCommand)
	}
	vals, err := commandArgs.Unpack(data[1:])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", runtime.ErrInvalidInstructionData, err)
	}
	nativeValue, err := wireU64(vals[2].(*big.Int))
	if err != nil {
		return nil, err
	}
	eta, err := wireU64(vals[3].(*big.Int))
	if err != nil {
		return nil, err
	}
	target := vals[0].([32]byte)
	return &Command{
		Tag:         data[0],
		Target:      solana.PublicKeyFromBytes(target[:]),
		CallData:    vals[1].([]byte),
		NativeValue: nativeValue,
		Eta:         eta,
	}, nil
}

func wireU64(v *big.Int) (uint64, error) {
	u, overflow := uint256.FromBig(v)
	if overflow {
		return 0, fmt.Errorf("%w: value exceeds uint256", runtime.ErrInvalidArgument)
	}
	return axelar.U64FromUint256(u)
}
