// Copyright (C) 2025-2026, Eiger Oy. All rights reserved.
// See the file LICENSE for licensing terms.

package its

import (
	"fmt"

	axelar "github.com/eigerco/axelar-amplifier-solana-sub000"
)

// flowEpochSeconds is the width of one flow accounting window.
const flowEpochSeconds = 6 * 60 * 60

// FlowDirection is the side of a transfer being tracked.
type FlowDirection uint8

const (
	FlowIn FlowDirection = iota
	FlowOut
)

func (d FlowDirection) String() string {
	if d == FlowIn {
		return "in"
	}
	return "out"
}

// flowEpoch buckets a unix timestamp into its accounting window.
func flowEpoch(unix int64) uint64 {
	if unix < 0 {
		return 0
	}
	return uint64(unix) / flowEpochSeconds
}

// track records amount against the slot's counter for direction at the
// given time. A zero flow limit disables tracking. Counters reset when
// the window rolls over. After the increment the updated counter may not
// exceed the opposite counter by more than the limit.
func (s *FlowSlot) track(now int64, direction FlowDirection, amount uint64) error {
	if s.FlowLimit == 0 {
		return nil
	}
	if amount > s.FlowLimit {
		return fmt.Errorf("%w: transfer of %d against limit %d", ErrFlowLimitExceeded, amount, s.FlowLimit)
	}

	epoch := flowEpoch(now)
	if s.Epoch != epoch {
		s.Epoch = epoch
		s.FlowIn = 0
		s.FlowOut = 0
	}

	counter, other := &s.FlowIn, s.FlowOut
	if direction == FlowOut {
		counter, other = &s.FlowOut, s.FlowIn
	}
	updated, err := axelar.AddUint64(*counter, amount)
	if err != nil {
		return fmt.Errorf("%w: flow counter overflow", ErrFlowLimitExceeded)
	}
	max, err := axelar.AddUint64(other, s.FlowLimit)
	if err != nil {
		// the opposite counter already saturates the window
		*counter = updated
		return nil
	}
	if updated > max {
		return fmt.Errorf("%w: flow %s %d exceeds %d + limit %d",
			ErrFlowLimitExceeded, direction, updated, other, s.FlowLimit)
	}
	*counter = updated
	return nil
}
