package traverse

import "bwtree/internal/base"

// LookupStatus classifies the outcome of PointLookup.
type LookupStatus int

const (
	Absent LookupStatus = iota
	Present
	// RedirectSibling means the key logically lives in a sibling reached by
	// a split delta; the caller re-descends from Sibling.
	RedirectSibling
	// RedirectRemoved means the virtual node has been marked removed; the
	// caller must follow the left-sibling help protocol (see
	// Tree.helpRemovedNode in the root package) rather than trust this
	// chain further.
	RedirectRemoved
)

// LookupResult is the result of a single-node point lookup.
type LookupResult struct {
	Status  LookupStatus
	Value   any
	Sibling base.NodeID
	// SplitKey is set alongside RedirectSibling: the key the parent's
	// separator to Sibling must carry, so a caller helping complete an
	// unposted split can call smo.PostSeparator without re-reading the
	// delta chain.
	SplitKey []byte
}

// PointLookup implements the point-lookup traverser (spec §4.2.1): decide
// membership and, if present, value, for key within one virtual node's
// current [low, high) range.
func PointLookup(cmp base.Comparator, head base.Head, key []byte) LookupResult {
	var result LookupResult

	Walk(head, func(rec base.Head) (Outcome, base.Head) {
		switch r := rec.(type) {
		case *base.LeafInsert:
			if cmp(r.Key, key) == 0 {
				result = LookupResult{Status: Present, Value: r.Value}
				return Stop, nil
			}
		case *base.LeafDelete:
			if cmp(r.Key, key) == 0 {
				result = LookupResult{Status: Absent}
				return Stop, nil
			}
		case *base.LeafSplit:
			if cmp(r.SplitKey, key) <= 0 {
				result = LookupResult{Status: RedirectSibling, Sibling: r.SiblingID, SplitKey: r.SplitKey}
				return Stop, nil
			}
		case *base.LeafMerge:
			if cmp(key, r.MergeKey) >= 0 {
				return FollowMerge, r.SiblingHead
			}
		case *base.LeafRemove:
			result = LookupResult{Status: RedirectRemoved}
			return Stop, nil
		case *base.BaseNode:
			idx := r.PointSearch(cmp, key)
			if idx >= 0 {
				result = LookupResult{Status: Present, Value: r.ValueAt(idx)}
			} else {
				result = LookupResult{Status: Absent}
			}
			return Stop, nil
		}
		return Continue, nil
	})

	return result
}
