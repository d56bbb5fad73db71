// Copyright (C) 2025-2026, Eiger Oy. All rights reserved.
// See the file LICENSE for licensing terms.

// Package payload implements the ABI wire format spoken between the hub
// and the on-chain programs. Every payload is ABI-encoded with a 32-byte
// selector in the leading slot.
package payload

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/holiman/uint256"
)

// Payload selectors, one per GMP variant. Selector 2 was retired by the
// hub before this chain integrated and is intentionally absent.
const (
	TypeInterchainTransfer    uint64 = 0
	TypeDeployInterchainToken uint64 = 1
	TypeSendToHub             uint64 = 3
	TypeReceiveFromHub        uint64 = 4
	TypeLinkToken             uint64 = 5
	TypeRegisterTokenMetadata uint64 = 6
)

var (
	ErrInvalidPayload     = errors.New("invalid payload")
	ErrUnknownSelector    = errors.New("unknown payload selector")
	ErrUnsupportedNesting = errors.New("unsupported hub payload nesting")
	ErrNotWrappedForHub   = errors.New("payload is not hub-wrapped")
)

// Payload is one GMP wire variant.
type Payload interface {
	// Selector returns the variant's leading uint256 slot value.
	Selector() uint64
}

// InterchainTransfer moves amount of the token identified by TokenID.
type InterchainTransfer struct {
	TokenID            [32]byte
	SourceAddress      []byte
	DestinationAddress []byte
	Amount             *uint256.Int
	Data               []byte
}

func (*InterchainTransfer) Selector() uint64 { return TypeInterchainTransfer }

// DeployInterchainToken instructs the destination to create a token and
// its manager.
type DeployInterchainToken struct {
	TokenID  [32]byte
	Name     string
	Symbol   string
	Decimals uint8
	Minter   []byte
}

func (*DeployInterchainToken) Selector() uint64 { return TypeDeployInterchainToken }

// SendToHub wraps an outbound payload with its final destination chain.
type SendToHub struct {
	DestinationChain string
	Payload          []byte
}

func (*SendToHub) Selector() uint64 { return TypeSendToHub }

// ReceiveFromHub wraps an inbound payload with its original source chain.
type ReceiveFromHub struct {
	SourceChain string
	Payload     []byte
}

func (*ReceiveFromHub) Selector() uint64 { return TypeReceiveFromHub }

// LinkToken connects an existing token on both chains under one token id.
type LinkToken struct {
	TokenID                 [32]byte
	TokenManagerType        *uint256.Int
	SourceTokenAddress      []byte
	DestinationTokenAddress []byte
	LinkParams              []byte
}

func (*LinkToken) Selector() uint64 { return TypeLinkToken }

// RegisterTokenMetadata reports a local token's address and decimals to
// the hub.
type RegisterTokenMetadata struct {
	TokenAddress []byte
	Decimals     uint8
}

func (*RegisterTokenMetadata) Selector() uint64 { return TypeRegisterTokenMetadata }

var (
	typeUint256 = mustABIType("uint256")
	typeBytes32 = mustABIType("bytes32")
	typeBytes   = mustABIType("bytes")
	typeString  = mustABIType("string")
	typeUint8   = mustABIType("uint8")

	interchainTransferArgs = abi.Arguments{
		{Type: typeUint256}, {Type: typeBytes32}, {Type: typeBytes},
		{Type: typeBytes}, {Type: typeUint256}, {Type: typeBytes},
	}
	deployInterchainTokenArgs = abi.Arguments{
		{Type: typeUint256}, {Type: typeBytes32}, {Type: typeString},
		{Type: typeString}, {Type: typeUint8}, {Type: typeBytes},
	}
	hubWrapArgs = abi.Arguments{
		{Type: typeUint256}, {Type: typeString}, {Type: typeBytes},
	}
	linkTokenArgs = abi.Arguments{
		{Type: typeUint256}, {Type: typeBytes32}, {Type: typeUint256},
		{Type: typeBytes}, {Type: typeBytes}, {Type: typeBytes},
	}
	registerTokenMetadataArgs = abi.Arguments{
		{Type: typeUint256}, {Type: typeBytes}, {Type: typeUint8},
	}
)

func mustABIType(t string) abi.Type {
	ty, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err)
	}
	return ty
}

// Encode serializes a payload to its ABI wire form.
func Encode(p Payload) ([]byte, error) {
	selector := new(big.Int).SetUint64(p.Selector())
	switch v := p.(type) {
	case *InterchainTransfer:
		return interchainTransferArgs.Pack(
			selector, v.TokenID, v.SourceAddress, v.DestinationAddress,
			bigAmount(v.Amount), v.Data,
		)
	case *DeployInterchainToken:
		return deployInterchainTokenArgs.Pack(
			selector, v.TokenID, v.Name, v.Symbol, v.Decimals, v.Minter,
		)
	case *SendToHub:
		return hubWrapArgs.Pack(selector, v.DestinationChain, v.Payload)
	case *ReceiveFromHub:
		return hubWrapArgs.Pack(selector, v.SourceChain, v.Payload)
	case *LinkToken:
		return linkTokenArgs.Pack(
			selector, v.TokenID, bigAmount(v.TokenManagerType),
			v.SourceTokenAddress, v.DestinationTokenAddress, v.LinkParams,
		)
	case *RegisterTokenMetadata:
		return registerTokenMetadataArgs.Pack(selector, v.TokenAddress, v.Decimals)
	default:
		return nil, fmt.Errorf("%w: %T", ErrInvalidPayload, p)
	}
}

// Decode parses the ABI wire form into its payload variant.
func Decode(data []byte) (Payload, error) {
	if len(data) < 32 {
		return nil, fmt.Errorf("%w: %d bytes", ErrInvalidPayload, len(data))
	}
	selector := new(big.Int).SetBytes(data[:32])
	if !selector.IsUint64() {
		return nil, fmt.Errorf("%w: selector out of range", ErrUnknownSelector)
	}

	switch selector.Uint64() {
	case TypeInterchainTransfer:
		vals, err := interchainTransferArgs.Unpack(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		amount, err := wireAmount(vals[4].(*big.Int))
		if err != nil {
			return nil, err
		}
		return &InterchainTransfer{
			TokenID:            vals[1].([32]byte),
			SourceAddress:      vals[2].([]byte),
			DestinationAddress: vals[3].([]byte),
			Amount:             amount,
			Data:               vals[5].([]byte),
		}, nil
	case TypeDeployInterchainToken:
		vals, err := deployInterchainTokenArgs.Unpack(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		return &DeployInterchainToken{
			TokenID:  vals[1].([32]byte),
			Name:     vals[2].(string),
			Symbol:   vals[3].(string),
			Decimals: vals[4].(uint8),
			Minter:   vals[5].([]byte),
		}, nil
	case TypeSendToHub:
		vals, err := hubWrapArgs.Unpack(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		return &SendToHub{
			DestinationChain: vals[1].(string),
			Payload:          vals[2].([]byte),
		}, nil
	case TypeReceiveFromHub:
		vals, err := hubWrapArgs.Unpack(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		return &ReceiveFromHub{
			SourceChain: vals[1].(string),
			Payload:     vals[2].([]byte),
		}, nil
	case TypeLinkToken:
		vals, err := linkTokenArgs.Unpack(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		managerType, err := wireAmount(vals[2].(*big.Int))
		if err != nil {
			return nil, err
		}
		return &LinkToken{
			TokenID:                 vals[1].([32]byte),
			TokenManagerType:        managerType,
			SourceTokenAddress:      vals[3].([]byte),
			DestinationTokenAddress: vals[4].([]byte),
			LinkParams:              vals[5].([]byte),
		}, nil
	case TypeRegisterTokenMetadata:
		vals, err := registerTokenMetadataArgs.Unpack(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
		}
		return &RegisterTokenMetadata{
			TokenAddress: vals[1].([]byte),
			Decimals:     vals[2].(uint8),
		}, nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownSelector, selector.Uint64())
	}
}

func bigAmount(v *uint256.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v.ToBig()
}

func wireAmount(v *big.Int) (*uint256.Int, error) {
	out, overflow := uint256.FromBig(v)
	if overflow {
		return nil, fmt.Errorf("%w: amount exceeds uint256", ErrInvalidPayload)
	}
	return out, nil
}
