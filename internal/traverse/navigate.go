package traverse

import "bwtree/internal/base"

// NavigateStatus classifies the outcome of Navigate.
type NavigateStatus int

const (
	Resolved NavigateStatus = iota
	NavRedirectSibling
	NavRedirectRemoved
)

// NavigateResult is the result of resolving a search key to a child ID
// within one inner virtual node.
type NavigateResult struct {
	Status  NavigateStatus
	Child   base.NodeID
	Sibling base.NodeID
	// SplitKey is set alongside NavRedirectSibling, mirroring
	// LookupResult.SplitKey.
	SplitKey []byte
}

// Navigate implements the inner-node navigation traverser (spec §4.2.2):
// resolves key to the child whose subtree contains it, using lower-bound
// semantics — the entry with the largest separator key <= key.
func Navigate(cmp base.Comparator, head base.Head, key []byte) NavigateResult {
	var result NavigateResult

	Walk(head, func(rec base.Head) (Outcome, base.Head) {
		switch r := rec.(type) {
		case *base.InnerInsert:
			if cmp(r.SplitKey, key) <= 0 && r.NextKey.GreaterThanKey(cmp, key) {
				result = NavigateResult{Status: Resolved, Child: r.NewChild}
				return Stop, nil
			}
		case *base.InnerDelete:
			// The separator at MergedKey is gone; its span through NextKey
			// now belongs to the surviving left neighbour, PrevChild.
			if cmp(r.MergedKey, key) <= 0 && r.NextKey.GreaterThanKey(cmp, key) {
				result = NavigateResult{Status: Resolved, Child: r.PrevChild}
				return Stop, nil
			}
		case *base.InnerSplit:
			if cmp(r.SplitKey, key) <= 0 {
				result = NavigateResult{Status: NavRedirectSibling, Sibling: r.SiblingID, SplitKey: r.SplitKey}
				return Stop, nil
			}
		case *base.InnerMerge:
			if cmp(key, r.MergeKey) >= 0 {
				return FollowMerge, r.SiblingHead
			}
		case *base.InnerRemove:
			result = NavigateResult{Status: NavRedirectRemoved}
			return Stop, nil
		case *base.BaseNode:
			idx := r.Search(cmp, key)
			if idx < 0 {
				idx = 0
			}
			result = NavigateResult{Status: Resolved, Child: r.ChildAt(idx)}
			return Stop, nil
		}
		return Continue, nil
	})

	return result
}
