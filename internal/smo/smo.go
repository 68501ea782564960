// Package smo installs and helps-complete the two structure-modification
// protocols the tree exercises when a virtual node outgrows or empties its
// budget: split and merge (merge composed from a remove step followed by an
// absorb step). Every function here does exactly one CAS and reports success
// or failure; retry and help-discipline sequencing live in the tree package,
// separating "attempt one state transition" from "the loop that drives it
// to completion".
package smo

import (
	"bwtree/internal/base"
	"bwtree/internal/mapping"
	"bwtree/internal/traverse"
)

// SplitOutcome carries what the caller needs to make a freshly split
// sibling reachable: either by posting a separator into an existing parent,
// or, if id had no parent, by installing a new root above both halves.
type SplitOutcome struct {
	SiblingID base.NodeID
	SplitKey  []byte
	OldHead   base.Head // the pre-split chain, safe to reclaim after the caller's epoch guard exits
	NewHead   base.Head // the InnerSplit/LeafSplit delta now visible at id
}

// AttemptSplit splits the virtual node currently at id. The coordinator
// never assumes head is already a bare base node: it always consolidates
// first, so a delta installed after the last consolidation is never lost to
// a stale split. The freshly consolidated base node is what actually gets
// partitioned, and the whole old chain is retired in a single CAS alongside
// publishing the new sibling.
//
// On failure nothing was published: the sibling slot is abandoned rather
// than left dangling, and both halves are ordinary garbage collectible
// immediately since no reader could ever have observed them.
func AttemptSplit(table *mapping.Table, cmp base.Comparator, id base.NodeID, head base.Head) (SplitOutcome, bool) {
	flat := traverse.Consolidate(cmp, head)
	if flat.Removed || len(flat.Keys) < 2 {
		return SplitOutcome{}, false
	}

	freshBase := flat.ToBaseNode()
	splitKey := freshBase.SplitKey()
	upper := freshBase.Split()

	siblingID, err := table.Allocate(upper)
	if err != nil {
		return SplitOutcome{}, false
	}

	var splitDelta base.Head
	if freshBase.IsLeaf() {
		splitDelta = base.NewLeafSplit(freshBase, freshBase.LowKey(), splitKey, siblingID)
	} else {
		splitDelta = base.NewInnerSplit(freshBase, freshBase.LowKey(), splitKey, siblingID)
	}

	if !table.CAS(id, head, splitDelta) {
		table.Abandon(siblingID)
		return SplitOutcome{}, false
	}

	return SplitOutcome{SiblingID: siblingID, SplitKey: splitKey, OldHead: head, NewHead: splitDelta}, true
}

// AttemptConsolidate flattens the delta chain currently at id into a fresh
// base node and CASes it into place, retiring the whole chain in one shot.
// It is independent of split and merge: a virtual node can accumulate a tall
// chain from many inserts/deletes long before its size crosses either
// threshold, and a tall chain makes every subsequent traversal do more work
// walking records that mostly cancel out. Concurrent failure is silently
// abandoned; the next operation to notice the height retries.
func AttemptConsolidate(table *mapping.Table, cmp base.Comparator, id base.NodeID, head base.Head) bool {
	flat := traverse.Consolidate(cmp, head)
	if flat.Removed {
		return false
	}
	fresh := flat.ToBaseNode()
	return table.CAS(id, head, fresh)
}

// PostSeparator installs an InnerInsert delta on parentID's current chain so
// a sibling AttemptSplit just produced becomes reachable from above.
// childID is the already-split child as parent's consolidated content still
// names it; splitKey and siblingID come straight from the matching
// SplitOutcome. NextKey/NextChild are derived from whichever separator
// already followed childID, so navigation's upper bound on the new sibling
// is exactly the range childID used to cover past splitKey.
func PostSeparator(table *mapping.Table, cmp base.Comparator, parentID base.NodeID, parentHead base.Head, childID base.NodeID, splitKey []byte, siblingID base.NodeID) bool {
	flat := traverse.Consolidate(cmp, parentHead)
	if flat.Removed || flat.Leaf {
		return false
	}

	idx := indexOfChild(flat.Children, childID)
	if idx < 0 {
		return false
	}

	nextKey := flat.High
	nextChild := base.InvalidNodeID
	if idx+1 < len(flat.Children) {
		nextKey = base.Finite(flat.Keys[idx+1])
		nextChild = flat.Children[idx+1]
	}

	delta := base.NewInnerInsert(parentHead, flat.Low, flat.High, splitKey, siblingID, nextKey, nextChild)
	return table.CAS(parentID, parentHead, delta)
}

// InstallRemove marks the virtual node at id as logically gone, the first
// step of the two-step merge protocol. The delta's own Next() retains head,
// so any later helper reconstructing the merge sees exactly the content the
// original remover captured, without a separate payload field for it.
func InstallRemove(table *mapping.Table, id base.NodeID, head base.Head) (base.Head, bool) {
	var removeDelta base.Head
	if head.Kind().IsLeaf() {
		removeDelta = base.NewLeafRemove(head, id)
	} else {
		removeDelta = base.NewInnerRemove(head, id)
	}
	ok := table.CAS(id, head, removeDelta)
	return removeDelta, ok
}

// InstallMergeOnLeft absorbs victimID's captured content into leftID, the
// second step of the merge protocol. removeDelta must be the value
// InstallRemove returned (or read back from the table) for victimID; its
// Next() is the pre-removal content being folded in, so this step is
// re-runnable by any helper holding the same removeDelta, not only the
// thread that installed it.
func InstallMergeOnLeft(table *mapping.Table, leftID base.NodeID, leftHead base.Head, victimID base.NodeID, removeDelta base.Head) (base.Head, bool) {
	victim, ok := removeDelta.(base.Delta)
	if !ok {
		return nil, false
	}
	victimContent := victim.Next()

	boundary := leftHead.HighKey()
	if boundary.IsInf() {
		// leftID has no right neighbour to absorb; the caller picked the
		// wrong left anchor for this victim.
		return nil, false
	}

	var mergeDelta base.Head
	if leftHead.Kind().IsLeaf() {
		mergeDelta = base.NewLeafMerge(leftHead, leftHead.LowKey(), victimContent.HighKey(), boundary.Key, victimID, victimContent)
	} else {
		mergeDelta = base.NewInnerMerge(leftHead, leftHead.LowKey(), victimContent.HighKey(), boundary.Key, victimID, victimContent)
	}

	installed := table.CAS(leftID, leftHead, mergeDelta)
	return mergeDelta, installed
}

// PostMergeDeletion installs an InnerDelete delta on the parent once
// leftID's merge delta has absorbed victimID, retiring victimID's separator
// so the parent now resolves victimID's old range to leftID directly.
func PostMergeDeletion(table *mapping.Table, cmp base.Comparator, parentID base.NodeID, parentHead base.Head, leftID, victimID base.NodeID) bool {
	flat := traverse.Consolidate(cmp, parentHead)
	if flat.Removed || flat.Leaf {
		return false
	}

	victimIdx := indexOfChild(flat.Children, victimID)
	if victimIdx < 0 {
		return false
	}

	mergedKey := flat.Keys[victimIdx]

	nextKey := flat.High
	nextChild := base.InvalidNodeID
	if victimIdx+1 < len(flat.Children) {
		nextKey = base.Finite(flat.Keys[victimIdx+1])
		nextChild = flat.Children[victimIdx+1]
	}

	prevKey := flat.Low
	if victimIdx-1 >= 0 {
		prevKey = base.Finite(flat.Keys[victimIdx-1])
	}

	delta := base.NewInnerDelete(parentHead, flat.Low, flat.High, mergedKey, victimID, nextKey, nextChild, prevKey, leftID)
	return table.CAS(parentID, parentHead, delta)
}

func indexOfChild(children []base.NodeID, target base.NodeID) int {
	for i, c := range children {
		if c == target {
			return i
		}
	}
	return -1
}
