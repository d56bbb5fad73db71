// Copyright (C) 2025-2026, Eiger Oy. All rights reserved.
// See the file LICENSE for licensing terms.

package relayer

import (
	"encoding/hex"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	axelar "github.com/eigerco/axelar-amplifier-solana-sub000"
)

type provenSet struct {
	set     *axelar.VerifierSet
	proven  []axelar.MerkleisedSigner
	fetched time.Time
}

// setCache holds merkleised verifier sets keyed by set hash, with a TTL
// and single-flight fetches. Building the inclusion proofs is the
// expensive step of every delivery, and the same signing set serves many
// payload roots before it rotates.
type setCache struct {
	ttl     time.Duration
	lock    sync.RWMutex
	data    map[[32]byte]provenSet
	sfGroup singleflight.Group
}

func newSetCache(ttl time.Duration) *setCache {
	return &setCache{
		ttl:  ttl,
		data: make(map[[32]byte]provenSet),
	}
}

// get returns the proven signer list of setHash, building it with fetch
// when absent or stale. Concurrent builds of the same set coalesce.
func (c *setCache) get(setHash [32]byte, fetch func() (*axelar.VerifierSet, []axelar.MerkleisedSigner, error)) (*axelar.VerifierSet, []axelar.MerkleisedSigner, error) {
	c.lock.RLock()
	item, ok := c.data[setHash]
	c.lock.RUnlock()
	if ok && time.Since(item.fetched) < c.ttl {
		return item.set, item.proven, nil
	}

	v, err, _ := c.sfGroup.Do(hex.EncodeToString(setHash[:]), func() (interface{}, error) {
		set, proven, err := fetch()
		if err != nil {
			return nil, err
		}
		entry := provenSet{set: set, proven: proven, fetched: time.Now()}
		c.lock.Lock()
		c.data[setHash] = entry
		c.lock.Unlock()
		return entry, nil
	})
	if err != nil {
		return nil, nil, err
	}
	entry := v.(provenSet)
	return entry.set, entry.proven, nil
}

// invalidate drops a set, typically after a rotation retires it.
func (c *setCache) invalidate(setHash [32]byte) {
	c.lock.Lock()
	delete(c.data, setHash)
	c.lock.Unlock()
}
