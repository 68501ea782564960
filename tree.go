// Package bwtree implements a latch-free, in-memory ordered index over
// []byte keys and arbitrary values: a mapping table of stable node IDs
// backing physical delta chains, mutated entirely through CAS, with
// structure-modification (split, merge) and consolidation run inline by
// whichever operation notices the need rather than by a background thread.
package bwtree

import (
	"bytes"
	"iter"
	"sync/atomic"

	"bwtree/internal/base"
	"bwtree/internal/epoch"
	"bwtree/internal/mapping"
	"bwtree/internal/smo"
	"bwtree/internal/traverse"
)

// Comparator is the host-supplied total order on keys.
type Comparator = base.Comparator

// EqualFunc is the host-supplied value equality predicate Delete uses to
// confirm the value being removed matches what is stored.
type EqualFunc = base.EqualFunc

// Bound is one endpoint of a Scan range: a concrete key or an infinity.
type Bound = base.BoundKey

// NegInf is the Bound below every possible key.
func NegInf() Bound { return base.NegInf() }

// PosInf is the Bound above every possible key.
func PosInf() Bound { return base.PosInf() }

// FiniteBound wraps a concrete key as a Bound.
func FiniteBound(key []byte) Bound { return base.Finite(key) }

// BytesEqual is a convenience EqualFunc for values already known to be
// []byte, using bytes.Equal.
func BytesEqual(a, b any) bool {
	ab, aok := a.([]byte)
	bb, bok := b.([]byte)
	if aok && bok {
		return bytes.Equal(ab, bb)
	}
	return a == b
}

// Tree is the public handle onto one Bw-tree index. The zero value is not
// usable; construct with New.
type Tree struct {
	table    *mapping.Table
	epoch    *epoch.Manager
	cooldown *smo.Cooldown
	cmp      Comparator
	eq       EqualFunc
	cfg      Config
	root     atomic.Uint64
	size     atomic.Int64
}

// New constructs an empty Tree. cmp orders keys; eq confirms values on
// Delete. Both are mandatory collaborators, matching spec's decision to
// keep keys/values un-generic (plain []byte / any) with behavior supplied
// by the host rather than a type constraint.
func New(cmp Comparator, eq EqualFunc, opts ...Option) *Tree {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	t := &Tree{
		table:    mapping.New(cfg.mappingTableSlots),
		epoch:    epoch.NewManager(cfg.maxConcurrentOps),
		cooldown: smo.NewCooldown(cfg.cooldownCapacity),
		cmp:      cmp,
		eq:       eq,
		cfg:      cfg,
	}

	rootBase := base.NewLeafBase(base.NegInf(), base.PosInf(), nil, nil)
	rootID, err := t.table.Allocate(rootBase)
	if err != nil {
		panic(&ContractViolation{Op: "New", Msg: "mapping table has no room for a root node"})
	}
	t.root.Store(uint64(rootID))
	return t
}

// pathEntry is one hop of a root-to-leaf descent, as observed at read time.
// A concurrent SMO can make any entry stale before the caller acts on it;
// every mutation detects this through a failed CAS and retries the whole
// descent rather than patching the path in place.
type pathEntry struct {
	id   base.NodeID
	head base.Head
}

// descend walks from the root to the leaf virtual node that would contain
// key, returning the path in root-to-leaf order. If it discovers a removed
// inner virtual node mid-walk, it helps complete the stalled merge (per
// spec's left-sibling lookup protocol, §4.2.1 step 5) and continues onto the
// surviving left sibling in place, rather than abandoning the whole descent.
// If it discovers a split whose separator the parent has not yet caught up
// on, it posts the separator itself (§4.4 step 4's help discipline) before
// continuing onto the sibling.
func (t *Tree) descend(key []byte) []pathEntry {
	path := make([]pathEntry, 0, 8)
	id := base.NodeID(t.root.Load())
	for {
		head := t.table.Read(id)
		if head == nil {
			t.cfg.logger.Error("descend read nil head", "node_id", id)
			panic(&ContractViolation{Op: "descend", Msg: "mapping table slot has no head"})
		}
		path = append(path, pathEntry{id: id, head: head})
		if head.Kind().IsLeaf() {
			return path
		}

		nav := traverse.Navigate(t.cmp, head, key)
		switch nav.Status {
		case traverse.Resolved:
			id = nav.Child
		case traverse.NavRedirectSibling:
			t.helpSplitSeparator(path, len(path)-1, nav.SplitKey, nav.Sibling)
			id = nav.Sibling
		case traverse.NavRedirectRemoved:
			if len(path) < 2 {
				panic(&ContractViolation{Op: "descend", Msg: "root virtual node observed removed"})
			}
			victim := path[len(path)-1]
			parent := path[len(path)-2]
			path = path[:len(path)-1]
			sibling, ok := t.helpRemovedNode(parent, victim.id)
			if !ok {
				path = path[:0]
				id = base.NodeID(t.root.Load())
				continue
			}
			id = sibling
		}
	}
}

// childIndex returns the position of child within flat's children, or -1 if
// child is not (or no longer) among them.
func childIndex(flat traverse.ConsolidateResult, child base.NodeID) int {
	for i, c := range flat.Children {
		if c == child {
			return i
		}
	}
	return -1
}

// helpSplitSeparator checks whether the virtual node at path[idx] has a
// split delta whose separator the parent has not yet posted, and, if so,
// posts it. This is the read-side half of the split protocol required by
// spec §4.4 step 4: "a reader encountering a V whose chain has a split delta
// but whose parent lacks the corresponding separator must help." Without
// it, a split installed by one operation but never posted upward (the
// writer died, lost a race, or simply hasn't gotten to it yet) leaves the
// sibling reachable only by redirect, forever, since nothing else ever
// revisits an already-mutated node to finish its own SMO.
//
// idx == 0 means the split node is the current root; there is no parent to
// post into, so this installs a fresh root instead, exactly as trySplit
// does for a root-level split it just performed itself.
func (t *Tree) helpSplitSeparator(path []pathEntry, idx int, splitKey []byte, siblingID base.NodeID) {
	childID := path[idx].id
	if idx == 0 {
		t.installNewRoot(childID, splitKey, siblingID)
		return
	}

	parentID := path[idx-1].id
	if !t.postSeparatorWithRetry(parentID, childID, splitKey, siblingID) {
		t.cfg.logger.Warn("help-complete split separator post lost race", "parent_id", parentID, "child_id", childID)
	}
}

// postSeparatorWithRetry attempts smo.PostSeparator against a freshly
// re-read parent chain, retrying a bounded number of times instead of
// giving up on the first lost CAS race. It reports success without CASing
// anything if the parent already reflects the separator, since a concurrent
// read-side helper may have posted it first.
func (t *Tree) postSeparatorWithRetry(parentID, childID base.NodeID, splitKey []byte, siblingID base.NodeID) bool {
	const maxAttempts = 3
	for attempt := 0; attempt < maxAttempts; attempt++ {
		parentHead := t.table.Read(parentID)
		flat := traverse.Consolidate(t.cmp, parentHead)
		if flat.Removed || flat.Leaf {
			return false
		}
		if childIndex(flat, siblingID) >= 0 {
			return true
		}
		if smo.PostSeparator(t.table, t.cmp, parentID, parentHead, childID, splitKey, siblingID) {
			return true
		}
	}
	return false
}

// helpRemovedNode locates the left sibling that has absorbed victim's
// content and helps complete whichever step of the two-step merge protocol
// is outstanding, per spec §4.4's "read-side helping is the sole liveness
// mechanism," which names both partial states explicitly: "Remove without
// matching Merge, or Merge without InnerDelete." If the left sibling's chain
// doesn't yet carry the Merge delta absorbing victim (the first case), this
// re-runs InstallMergeOnLeft from victim's own captured pre-removal content
// before ever touching the parent — retiring the separator first would
// otherwise point the parent at a sibling that never actually absorbed
// victim's keys, losing them permanently. Returns the sibling to continue
// the operation on; ok is false if parent no longer references victim at
// all (a concurrent helper beat this one to it) or parent itself is
// mid-SMO, in which case the caller should restart its own descent.
func (t *Tree) helpRemovedNode(parent pathEntry, victim base.NodeID) (base.NodeID, bool) {
	parentHead := t.table.Read(parent.id)
	flat := traverse.Consolidate(t.cmp, parentHead)
	if flat.Removed || flat.Leaf {
		return base.NodeID(0), false
	}

	idx := childIndex(flat, victim)
	if idx <= 0 {
		return base.NodeID(0), false
	}
	leftID := flat.Children[idx-1]

	removeHead := t.table.Read(victim)
	removeDelta, isRemoved := removeHead.(base.Delta)
	if !isRemoved {
		return base.NodeID(0), false
	}

	leftHead := t.table.Read(leftID)
	if !leftAlreadyAbsorbed(leftHead, victim) {
		if _, ok := smo.InstallMergeOnLeft(t.table, leftID, leftHead, victim, removeDelta); !ok {
			t.cfg.logger.Warn("help-complete merge absorb lost race", "left_id", leftID, "victim_id", victim)
			return base.NodeID(0), false
		}
	}

	if !smo.PostMergeDeletion(t.table, t.cmp, parent.id, parentHead, leftID, victim) {
		t.cfg.logger.Warn("help-complete merge separator retire lost race", "parent_id", parent.id, "victim_id", victim)
	}
	return leftID, true
}

// leftAlreadyAbsorbed reports whether leftHead's chain already carries the
// Merge delta absorbing victim, so helpRemovedNode doesn't re-run
// InstallMergeOnLeft (and double-absorb its content) when the merge's
// second step already succeeded.
func leftAlreadyAbsorbed(leftHead base.Head, victim base.NodeID) bool {
	for h := leftHead; h != nil; {
		switch r := h.(type) {
		case *base.LeafMerge:
			if r.SiblingID == victim {
				return true
			}
		case *base.InnerMerge:
			if r.SiblingID == victim {
				return true
			}
		}
		d, ok := h.(base.Delta)
		if !ok {
			return false
		}
		h = d.Next()
	}
	return false
}

// resolveLeaf descends to the leaf virtual node that would contain key and
// runs a point lookup against it, helping complete any in-progress split or
// merge it runs into along the way (both mid-descent per descend, and at the
// leaf itself). It re-descends from the root only when the help cannot be
// completed from the current path (the removed leaf has no parent on the
// path, or helpRemovedNode reports failure). It returns the root-to-leaf path with its last entry rewritten to whichever
// virtual node actually answered the lookup, so callers can hand the path
// straight to afterInsert/afterDelete.
func (t *Tree) resolveLeaf(key []byte) ([]pathEntry, base.NodeID, base.Head, traverse.LookupResult) {
	path := t.descend(key)
	for {
		leaf := path[len(path)-1]
		res := traverse.PointLookup(t.cmp, leaf.head, key)

		switch res.Status {
		case traverse.RedirectSibling:
			t.helpSplitSeparator(path, len(path)-1, res.SplitKey, res.Sibling)
			path[len(path)-1] = pathEntry{id: res.Sibling, head: t.table.Read(res.Sibling)}
		case traverse.RedirectRemoved:
			if len(path) < 2 {
				path = t.descend(key)
				continue
			}
			parent := path[len(path)-2]
			sibling, ok := t.helpRemovedNode(parent, leaf.id)
			if !ok {
				path = t.descend(key)
				continue
			}
			path[len(path)-1] = pathEntry{id: sibling, head: t.table.Read(sibling)}
		default:
			return path, leaf.id, leaf.head, res
		}
	}
}

// Insert adds (key, value) to the tree. It returns ErrKeyExists if key is
// already present; this index enforces unique keys.
func (t *Tree) Insert(key []byte, value any) error {
	guard, err := t.epoch.Enter()
	if err != nil {
		return err
	}
	var garbage []any
	defer func() { t.epoch.Exit(guard, garbage) }()

	for {
		path, id, head, res := t.resolveLeaf(key)
		if res.Status == traverse.Present {
			return ErrKeyExists
		}

		delta := base.NewLeafInsert(head, head.LowKey(), head.HighKey(), key, value)
		if !t.table.CAS(id, head, delta) {
			continue
		}
		t.size.Add(1)
		t.afterInsert(path, id, delta, &garbage)
		return nil
	}
}

// Delete removes (key, value) from the tree. value must equal (per the
// Tree's EqualFunc) the value currently stored under key, guarding against
// removing an entry a concurrent writer has already replaced.
func (t *Tree) Delete(key []byte, value any) error {
	guard, err := t.epoch.Enter()
	if err != nil {
		return err
	}
	var garbage []any
	defer func() { t.epoch.Exit(guard, garbage) }()

	for {
		path, id, head, res := t.resolveLeaf(key)
		if res.Status == traverse.Absent {
			return ErrKeyNotFound
		}
		if !t.eq(res.Value, value) {
			return ErrValueMismatch
		}

		delta := base.NewLeafDelete(head, head.LowKey(), head.HighKey(), key, value)
		if !t.table.CAS(id, head, delta) {
			continue
		}
		t.size.Add(-1)
		t.afterDelete(path, id, delta, &garbage)
		return nil
	}
}

// Lookup returns the value stored under key, if any.
func (t *Tree) Lookup(key []byte) (any, bool) {
	guard, err := t.epoch.Enter()
	if err != nil {
		return nil, false
	}
	defer t.epoch.Exit(guard, nil)

	_, _, _, res := t.resolveLeaf(key)
	if res.Status == traverse.Present {
		return res.Value, true
	}
	return nil, false
}

// Size reports the number of entries currently in the tree. It is tracked
// with a single atomic counter rather than derived from a walk, so it is
// exact with respect to completed Insert/Delete calls but may race a
// mutation still in flight.
func (t *Tree) Size() int { return int(t.size.Load()) }

// Scan iterates (key, value) pairs with key in [lo, hi) in ascending order.
// Each leaf is consolidated into an independent snapshot as the scan
// reaches it, so no single leaf's view is ever internally stale, but the
// scan as a whole gives no cross-leaf total-order guarantee against
// concurrent writers, matching spec's documented range-scan semantics.
func (t *Tree) Scan(lo, hi Bound) iter.Seq2[[]byte, any] {
	return func(yield func([]byte, any) bool) {
		guard, err := t.epoch.Enter()
		if err != nil {
			return
		}
		defer t.epoch.Exit(guard, nil)

		cur := lo
		for {
			if !cur.IsInf() && !hi.GreaterThanKey(t.cmp, cur.Key) {
				return
			}

			var probeKey []byte
			if !cur.IsInf() {
				probeKey = cur.Key
			}

			_, _, head, _ := t.resolveLeaf(probeKey)

			for _, p := range traverse.LeafRange(t.cmp, head, cur, hi) {
				if !yield(p.Key, p.Value) {
					return
				}
			}

			next := head.HighKey()
			if next.IsInf() {
				return
			}
			cur = next
		}
	}
}

// afterInsert runs the post-mutation housekeeping an insert can trigger:
// consolidating a chain that has grown too tall, then splitting a virtual
// node that has grown past its size threshold.
func (t *Tree) afterInsert(path []pathEntry, id base.NodeID, head base.Head, garbage *[]any) {
	head = t.maybeConsolidate(id, head, garbage)
	if head.Size() <= t.cfg.splitThreshold {
		return
	}
	t.trySplit(path, id, head, garbage)
}

// afterDelete runs the post-mutation housekeeping a delete can trigger:
// consolidating a chain that has grown too tall, then merging a virtual node
// that has shrunk past its threshold into a left sibling.
func (t *Tree) afterDelete(path []pathEntry, id base.NodeID, head base.Head, garbage *[]any) {
	head = t.maybeConsolidate(id, head, garbage)
	if len(path) < 2 {
		return // the root never merges away
	}
	if head.Size() >= t.cfg.mergeThreshold {
		return
	}
	t.tryMerge(path, id, head, garbage)
}

// maybeConsolidate runs the consolidation protocol on id when its chain
// height has crossed the configured threshold, independent of and prior to
// any split/merge check. It returns the head the caller should use for the
// remainder of its post-mutation logic: the fresh base node on success, or
// the original head unchanged if consolidation wasn't due or lost a race.
func (t *Tree) maybeConsolidate(id base.NodeID, head base.Head, garbage *[]any) base.Head {
	if head.Height() <= uint16(t.cfg.consolidateThreshold) {
		return head
	}
	if !t.cooldown.ShouldHelp(id, t.epochNow()) {
		return head
	}
	if !smo.AttemptConsolidate(t.table, t.cmp, id, head) {
		return head
	}
	*garbage = append(*garbage, head)
	t.cfg.logger.Info("consolidate", "node_id", id)
	t.epoch.Advance()
	return t.table.Read(id)
}

// trySplit runs the split protocol for id and, on success, either posts a
// separator into id's parent or, if id was the root, installs a fresh root
// above both halves. If posting the separator leaves the parent itself
// oversized, the same protocol continues one level up the path, so one
// mutation can cascade splits all the way to a fresh root in a single call
// rather than waiting for a later operation to notice each level in turn.
// Posting the separator retries against a fresh parent read rather than
// giving up after one CAS; if it still can't land, the split itself is
// never lost (id's chain already carries it), and the next reader to
// traverse through it completes the posting itself via helpSplitSeparator.
func (t *Tree) trySplit(path []pathEntry, id base.NodeID, head base.Head, garbage *[]any) {
	level := len(path) - 1

	for {
		if !t.cooldown.ShouldHelp(id, t.epochNow()) {
			return
		}

		outcome, ok := smo.AttemptSplit(t.table, t.cmp, id, head)
		if !ok {
			return
		}
		*garbage = append(*garbage, outcome.OldHead)
		t.cfg.logger.Info("split", "node_id", id, "sibling_id", outcome.SiblingID)
		t.epoch.Advance()

		if level == 0 {
			t.installNewRoot(id, outcome.SplitKey, outcome.SiblingID)
			return
		}

		parent := path[level-1]
		if !t.postSeparatorWithRetry(parent.id, id, outcome.SplitKey, outcome.SiblingID) {
			t.cfg.logger.Warn("split separator post lost race, deferring to read-side help", "parent_id", parent.id)
			return
		}

		newParentHead := t.table.Read(parent.id)
		if newParentHead.Size() <= t.cfg.splitThreshold {
			return
		}

		id, head, level = parent.id, newParentHead, level-1
	}
}

// installNewRoot replaces the root with a fresh two-child inner node
// covering both halves of a just-split root. If another thread has already
// grown the root past oldRoot, this thread's candidate root is abandoned;
// nothing could have observed it yet.
func (t *Tree) installNewRoot(oldRoot base.NodeID, splitKey []byte, siblingID base.NodeID) {
	newRoot := base.NewInnerBase(base.NegInf(), base.PosInf(), [][]byte{nil, splitKey}, []base.NodeID{oldRoot, siblingID})
	newRootID, err := t.table.Allocate(newRoot)
	if err != nil {
		t.cfg.logger.Warn("mapping table exhausted while growing root")
		return
	}
	if !t.root.CompareAndSwap(uint64(oldRoot), uint64(newRootID)) {
		t.table.Abandon(newRootID)
	}
}

// tryMerge runs the merge protocol for id: remove id, fold its captured
// content into its left sibling, then retire id's separator from the
// parent. If the remove step fails, id is left undersized but otherwise
// intact and the next operation to notice retries from scratch. If a later
// step fails, id stays removed and the next operation that reaches it
// completes the outstanding steps through helpRemovedNode.
func (t *Tree) tryMerge(path []pathEntry, id base.NodeID, head base.Head, garbage *[]any) {
	if !t.cooldown.ShouldHelp(id, t.epochNow()) {
		return
	}

	parent := path[len(path)-2]
	parentHead := t.table.Read(parent.id)
	flat := traverse.Consolidate(t.cmp, parentHead)
	if flat.Removed || flat.Leaf {
		return
	}

	idx := childIndex(flat, id)
	if idx <= 0 {
		// id is the leftmost child (or the parent has already moved on);
		// this minimal merge protocol only merges into a left sibling.
		return
	}
	leftID := flat.Children[idx-1]
	leftHead := t.table.Read(leftID)

	removeDelta, ok := smo.InstallRemove(t.table, id, head)
	if !ok {
		return
	}

	_, ok = smo.InstallMergeOnLeft(t.table, leftID, leftHead, id, removeDelta)
	if !ok {
		return
	}
	*garbage = append(*garbage, head, leftHead)
	t.cfg.logger.Info("merge", "victim_id", id, "left_id", leftID)
	t.epoch.Advance()

	if !smo.PostMergeDeletion(t.table, t.cmp, parent.id, t.table.Read(parent.id), leftID, id) {
		t.cfg.logger.Warn("merge separator retire lost race, deferring to next helper", "parent_id", parent.id)
	}
}

// epochNow reports the current global epoch, used only as the Cooldown's
// throttling key.
func (t *Tree) epochNow() uint64 {
	return t.epoch.Current()
}
