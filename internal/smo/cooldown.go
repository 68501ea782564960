package smo

import (
	"github.com/cespare/xxhash/v2"
	"github.com/elastic/go-freelru"

	"bwtree/internal/base"
)

// Cooldown throttles repeated structure-modification attempts: after an
// Insert or Delete, the tree consults it before starting a consolidation,
// split or merge on the node it just mutated, so several writers that push
// the same node over a threshold within one epoch make one attempt between
// them instead of all colliding on the same CAS. Skipping an attempt does
// not change correctness — the next mutation of that node in a later epoch
// tries again. Read-side helping (posting an unposted split separator or
// finishing a stalled merge) does not consult the cooldown.
//
// Backed by github.com/elastic/go-freelru rather than a hand-rolled
// container/list-plus-map LRU.
type Cooldown struct {
	lru *freelru.SyncedLRU[base.NodeID, uint64]
}

// hashNodeID feeds go-freelru's generic hash callback with xxhash.
func hashNodeID(id base.NodeID) uint32 {
	return uint32(xxhash.Sum64(nodeIDBytes(id)))
}

func nodeIDBytes(id base.NodeID) []byte {
	var b [8]byte
	v := uint64(id)
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
	return b[:]
}

// NewCooldown creates a cooldown cache holding up to capacity recently
// attempted node IDs.
func NewCooldown(capacity uint32) *Cooldown {
	lru, err := freelru.NewSynced[base.NodeID, uint64](capacity, hashNodeID)
	if err != nil {
		// Only returned for a zero capacity; the tree passes its configured
		// cooldown capacity (4096 unless WithCooldownCapacity overrides it).
		// Fall back to a minimal cache rather than panic.
		lru, _ = freelru.NewSynced[base.NodeID, uint64](16, hashNodeID)
	}
	return &Cooldown{lru: lru}
}

// ShouldHelp reports whether a helper should attempt to complete the SMO
// outstanding on id during epoch e, and records the attempt either way.
func (c *Cooldown) ShouldHelp(id base.NodeID, epoch uint64) bool {
	last, ok := c.lru.Get(id)
	c.lru.Add(id, epoch)
	if !ok {
		return true
	}
	return last != epoch
}
