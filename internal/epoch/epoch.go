// Package epoch implements the reclamation collaborator the core consumes
// through a two-call interface: Enter/Exit. It generalizes a fixed-size
// reader-slot tracker from "reader transaction" to "any active operation"
// since both Bw-tree readers and writers need protection against a
// concurrent CAS freeing a record they are still walking.
package epoch

import (
	"errors"
	"math"
	"sync"
	"sync/atomic"
)

// ErrTooManySlots is returned by Enter when every guard slot is occupied.
var ErrTooManySlots = errors.New("epoch: too many concurrent operations (increase slot count)")

// reclaimInterval is how many Exit calls accumulate before Exit opportunistically
// runs Reclaim itself, so pending garbage never grows unbounded even though
// nothing else in the tree calls Reclaim directly.
const reclaimInterval = 64

// Guard is the token an operation holds between Enter and Exit.
type Guard struct {
	slot  int
	epoch uint64
}

// Manager tracks the current epoch, the set of operations currently active
// within some epoch, and per-epoch garbage awaiting reclamation. A record
// retired during epoch E is only freed once every operation that entered at
// or before E has exited.
type Manager struct {
	slots       []atomic.Uint64 // slots[i] holds the epoch a live operation entered under, 0 = empty
	activeCount atomic.Int32
	minEpoch    atomic.Uint64

	current atomic.Uint64 // monotonically bumped global epoch counter
	exits   atomic.Uint64 // total Exit calls, drives the opportunistic Reclaim cadence

	mu      sync.Mutex
	pending map[uint64][]any // epoch -> garbage retired during that epoch
}

// NewManager creates a manager with a fixed bound on concurrent operations.
func NewManager(maxConcurrent int) *Manager {
	m := &Manager{
		slots:   make([]atomic.Uint64, maxConcurrent),
		pending: make(map[uint64][]any),
	}
	m.minEpoch.Store(math.MaxUint64)
	m.current.Store(1)
	return m
}

// Enter registers the calling operation as active in the current epoch and
// returns a guard that must be passed to Exit exactly once.
func (m *Manager) Enter() (Guard, error) {
	e := m.current.Load()
	for i := range m.slots {
		if m.slots[i].CompareAndSwap(0, e) {
			m.activeCount.Add(1)
			for {
				cur := m.minEpoch.Load()
				if e >= cur {
					break
				}
				if m.minEpoch.CompareAndSwap(cur, e) {
					break
				}
			}
			return Guard{slot: i, epoch: e}, nil
		}
	}
	return Guard{}, ErrTooManySlots
}

// Exit releases g's slot and appends garbage to the epoch it entered under.
// garbage is retained until Reclaim determines no active operation could
// still be observing it. Every reclaimInterval-th Exit opportunistically
// runs Reclaim itself, so pending never grows without bound even in a
// build that never calls Reclaim directly.
func (m *Manager) Exit(g Guard, garbage []any) {
	if len(garbage) > 0 {
		m.mu.Lock()
		m.pending[g.epoch] = append(m.pending[g.epoch], garbage...)
		m.mu.Unlock()
	}

	m.slots[g.slot].Store(0)
	if m.activeCount.Add(-1) == 0 {
		m.minEpoch.Store(math.MaxUint64)
	} else if g.epoch == m.minEpoch.Load() {
		m.rescanMin()
	}

	if m.exits.Add(1)%reclaimInterval == 0 {
		m.Reclaim(nil)
	}
}

func (m *Manager) rescanMin() {
	min := uint64(math.MaxUint64)
	for i := range m.slots {
		if e := m.slots[i].Load(); e != 0 && e < min {
			min = e
		}
	}
	m.minEpoch.Store(min)
}

// Advance bumps the global epoch. Callers typically advance opportunistically
// after a burst of retirements so garbage from the previous epoch becomes
// eligible for Reclaim once all its readers have exited.
func (m *Manager) Advance() {
	m.current.Add(1)
}

// Reclaim frees (drops references to) all garbage retired in epochs strictly
// older than the current minimum active epoch. It returns the number of
// objects reclaimed; the caller supplies free purely for observability since
// Go's GC does the actual reclamation once references are dropped.
func (m *Manager) Reclaim(free func(obj any)) int {
	floor := m.minEpoch.Load()

	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for e, garbage := range m.pending {
		if e >= floor {
			continue
		}
		for _, obj := range garbage {
			if free != nil {
				free(obj)
			}
			n++
		}
		delete(m.pending, e)
	}
	return n
}

// Current returns the epoch new operations would enter under. Diagnostic
// and cooldown-keying use only; it is not itself a guard against reclamation.
func (m *Manager) Current() uint64 {
	return m.current.Load()
}

// PendingCount reports the total garbage objects awaiting reclamation,
// across all epochs. Diagnostic only.
func (m *Manager) PendingCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, g := range m.pending {
		n += len(g)
	}
	return n
}
