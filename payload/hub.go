// Copyright (C) 2025-2026, Eiger Oy. All rights reserved.
// See the file LICENSE for licensing terms.

package payload

import "fmt"

// WrapSendToHub wraps an outbound ITS payload for routing through the
// hub to its final destination chain.
func WrapSendToHub(destinationChain string, inner Payload) ([]byte, error) {
	switch inner.Selector() {
	case TypeSendToHub, TypeReceiveFromHub:
		return nil, fmt.Errorf("%w: cannot wrap a hub envelope", ErrUnsupportedNesting)
	}
	innerBytes, err := Encode(inner)
	if err != nil {
		return nil, err
	}
	return Encode(&SendToHub{
		DestinationChain: destinationChain,
		Payload:          innerBytes,
	})
}

// UnwrapReceiveFromHub unwraps exactly one hub envelope from an inbound
// payload, returning the original source chain and the inner payload.
// Recursive nesting is rejected.
func UnwrapReceiveFromHub(data []byte) (string, Payload, error) {
	outer, err := Decode(data)
	if err != nil {
		return "", nil, err
	}
	envelope, ok := outer.(*ReceiveFromHub)
	if !ok {
		return "", nil, fmt.Errorf("%w: selector %d", ErrNotWrappedForHub, outer.Selector())
	}

	inner, err := Decode(envelope.Payload)
	if err != nil {
		return "", nil, err
	}
	switch inner.Selector() {
	case TypeSendToHub, TypeReceiveFromHub:
		return "", nil, fmt.Errorf("%w: selector %d inside envelope", ErrUnsupportedNesting, inner.Selector())
	}
	return envelope.SourceChain, inner, nil
}
