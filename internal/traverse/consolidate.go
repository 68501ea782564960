package traverse

import (
	"sort"

	"bwtree/internal/base"
)

// ConsolidateResult is the flattened logical content of one virtual node,
// ready to back a fresh base node.
type ConsolidateResult struct {
	Leaf     bool
	Low      base.BoundKey
	High     base.BoundKey
	Keys     [][]byte
	Values   []any         // populated when Leaf
	Children []base.NodeID // populated when !Leaf
	// Removed is true if the walk encountered a Remove delta: the virtual
	// node is gone and consolidating it further is meaningless. Callers
	// should abandon the consolidation attempt.
	Removed bool
}

type entryState struct {
	present bool
	deleted bool
	value   any
	child   base.NodeID
}

// Consolidate walks the entire chain once, honoring LIFO precedence (the
// topmost record for a given key wins), and returns the content a fresh
// base node would need to represent the same virtual node.
//
// Merge-delta policy: only the sibling head captured at merge time is folded in
// (include-captured-only). A merged sibling's own mapping table slot is
// never re-read, since its ID is retired via a Remove delta once the merge
// completes and cannot accept further updates.
//
// The merge-delta walk uses an explicit stack rather than recursion, so an
// adversarial chain of many merges cannot grow the native call stack.
func Consolidate(cmp base.Comparator, head base.Head) ConsolidateResult {
	low := head.LowKey()
	high := head.HighKey()
	leaf := head.Kind().IsLeaf()
	removed := false

	order := make([][]byte, 0, head.Size())
	states := make(map[string]*entryState, head.Size())

	touch := func(key []byte) *entryState {
		k := string(key)
		st, ok := states[k]
		if !ok {
			st = &entryState{}
			states[k] = st
			order = append(order, key)
		}
		return st
	}

	stack := []base.Head{head}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for cur != nil {
			switch r := cur.(type) {
			case *base.LeafInsert:
				st := touch(r.Key)
				if !st.present && !st.deleted {
					st.present = true
					st.value = r.Value
				}
			case *base.LeafDelete:
				st := touch(r.Key)
				if !st.present && !st.deleted {
					st.deleted = true
				}
			case *base.InnerInsert:
				st := touch(r.SplitKey)
				if !st.present && !st.deleted {
					st.present = true
					st.child = r.NewChild
				}
			case *base.InnerDelete:
				st := touch(r.MergedKey)
				if !st.present && !st.deleted {
					st.deleted = true
				}
			case *base.LeafSplit, *base.InnerSplit:
				// No content change here: the [low, high) filter applied
				// below already excludes anything the split narrowed away.
			case *base.LeafMerge:
				stack = append(stack, r.SiblingHead)
			case *base.InnerMerge:
				stack = append(stack, r.SiblingHead)
			case *base.LeafRemove, *base.InnerRemove:
				removed = true
				cur = nil
				continue
			case *base.BaseNode:
				for i := 0; i < r.Len(); i++ {
					if r.IsLeaf() {
						st := touch(r.KeyAt(i))
						if !st.present && !st.deleted {
							st.present = true
							st.value = r.ValueAt(i)
						}
					} else {
						st := touch(r.KeyAt(i))
						if !st.present && !st.deleted {
							st.present = true
							st.child = r.ChildAt(i)
						}
					}
				}
				cur = nil
				continue
			}

			if d, ok := cur.(base.Delta); ok {
				cur = d.Next()
			} else {
				cur = nil
			}
		}
	}

	sort.Slice(order, func(i, j int) bool { return cmp(order[i], order[j]) < 0 })

	result := ConsolidateResult{Leaf: leaf, Low: low, High: high, Removed: removed}
	for _, k := range order {
		st := states[string(k)]
		if st.deleted || !st.present {
			continue
		}
		if !base.KeyInRange(cmp, low, high, k) {
			continue
		}
		result.Keys = append(result.Keys, k)
		if leaf {
			result.Values = append(result.Values, st.value)
		} else {
			result.Children = append(result.Children, st.child)
		}
	}
	return result
}

// ToBaseNode converts a non-removed ConsolidateResult into a fresh base
// node, matching the entries and bounds the walk observed.
func (r ConsolidateResult) ToBaseNode() *base.BaseNode {
	if r.Leaf {
		return base.NewLeafBase(r.Low, r.High, r.Keys, r.Values)
	}
	return base.NewInnerBase(r.Low, r.High, r.Keys, r.Children)
}
