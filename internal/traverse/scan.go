package traverse

import "bwtree/internal/base"

// Pair is one (key, value) result emitted by a range scan.
type Pair struct {
	Key   []byte
	Value any
}

// LeafRange virtually consolidates one leaf (without installing the result)
// and emits the (key, value) pairs with key in [lo, hi), in ascending
// order. This is the per-leaf snapshot spec §4.3 describes: a range scan
// crossing leaf boundaries stitches together independent LeafRange calls,
// one per leaf, in the tree package, so no single-leaf snapshot is ever
// stale with respect to itself even though the overall scan gives no
// cross-leaf total-order guarantee.
func LeafRange(cmp base.Comparator, head base.Head, lo, hi base.BoundKey) []Pair {
	flat := Consolidate(cmp, head)
	if flat.Removed || !flat.Leaf {
		return nil
	}

	out := make([]Pair, 0, len(flat.Keys))
	for i, k := range flat.Keys {
		if !lo.LessEqualKey(cmp, k) {
			continue
		}
		if !hi.GreaterThanKey(cmp, k) {
			continue
		}
		out = append(out, Pair{Key: k, Value: flat.Values[i]})
	}
	return out
}
