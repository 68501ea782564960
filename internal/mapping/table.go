// Package mapping implements the Bw-tree's mapping table: the single shared
// mutable structure translating stable node IDs to the physical head of a
// virtual node. Every other datum in the tree is immutable after
// publication; all concurrent mutation funnels through CAS on a table slot.
package mapping

import (
	"sync/atomic"

	"bwtree/internal/base"
)

// ErrExhausted is returned by Allocate once every slot has been claimed.
// It is a structural contract violation per the design's error taxonomy:
// callers configure MappingTableSlots as a hard cap on live node count and
// exhausting it is not a retryable condition.
type ErrExhausted struct{}

func (ErrExhausted) Error() string { return "mapping: table exhausted" }

// Table is a fixed-size array of atomic pointers from NodeID to the current
// physical head (a delta chain head or a lone base node) of that virtual
// node. IDs are allocated from a monotonically increasing counter and are
// never recycled by this minimal table: table slots are a lifetime
// live-node cap, not a churn pool.
type Table struct {
	slots    []atomic.Pointer[base.Head]
	nextSlot atomic.Uint64
}

// New allocates a table with room for exactly slotCount live nodes.
func New(slotCount int) *Table {
	return &Table{
		slots: make([]atomic.Pointer[base.Head], slotCount),
	}
}

// Allocate claims the next free slot via an atomic fetch-and-add and
// installs head into it, returning the freshly minted ID.
func (t *Table) Allocate(head base.Head) (base.NodeID, error) {
	slot := t.nextSlot.Add(1) - 1
	if slot >= uint64(len(t.slots)) {
		return base.InvalidNodeID, ErrExhausted{}
	}
	id := base.NodeID(slot)
	t.slots[id].Store(&head)
	return id, nil
}

// Read atomically loads the current physical head for id. Never fails: a
// live id always has a non-nil head once Allocate has returned.
func (t *Table) Read(id base.NodeID) base.Head {
	p := t.slots[id].Load()
	if p == nil {
		return nil
	}
	return *p
}

// CAS attempts to replace the slot's head from old to new, returning the
// success bit. Callers retry their whole operation on failure; the mapping
// table never blocks a retry.
func (t *Table) CAS(id base.NodeID, old, new base.Head) bool {
	oldPtr := t.slots[id].Load()
	if oldPtr == nil || *oldPtr != old {
		return false
	}
	return t.slots[id].CompareAndSwap(oldPtr, &new)
}

// Abandon drops the slot for id without publishing it to any reader. Used
// when a freshly allocated sibling ID loses the split race that would have
// been its only path to visibility: nothing can be reading it yet, so a
// direct store (not a CAS) is safe.
func (t *Table) Abandon(id base.NodeID) {
	t.slots[id].Store(nil)
}

// Reset clears every slot and rewinds the allocation counter. Not safe under
// concurrency; intended for tests only.
func (t *Table) Reset() {
	for i := range t.slots {
		t.slots[i].Store(nil)
	}
	t.nextSlot.Store(0)
}

// Cap returns the fixed slot count the table was constructed with.
func (t *Table) Cap() int { return len(t.slots) }
