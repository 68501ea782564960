package base

import "sort"

// BaseNode is the immutable terminal record of every delta chain. Storage is
// two parallel slices allocated once at construction time and never mutated
// in place; readers only ever see KeyAt/ValueAt/ChildAt, never a raw pointer
// into the backing arrays, satisfying the flexible-array-member redesign
// with a plain Go slice instead.
//
// For a leaf node, keys[i]/values[i] form the i-th (key, value) pair. For an
// inner node, keys[i]/children[i] form the i-th separator: keys[i] is the
// separator key and children[i] is the child subtree holding
// [keys[i], keys[i+1]). The first separator's key always equals LowKey.
type BaseNode struct {
	header
	leaf     bool
	keys     [][]byte
	values   []any
	children []NodeID
}

// NewLeafBase constructs an immutable leaf base node from an already-sorted,
// unique-keyed slice of entries.
func NewLeafBase(low, high BoundKey, keys [][]byte, values []any) *BaseNode {
	if len(keys) != len(values) {
		panic("base: leaf key/value length mismatch")
	}
	return &BaseNode{
		header: header{kind: LeafBaseKind, height: 0, size: uint32(len(keys)), low: low, high: high},
		leaf:   true,
		keys:   keys,
		values: values,
	}
}

// NewInnerBase constructs an immutable inner base node from an already-sorted
// slice of separators.
func NewInnerBase(low, high BoundKey, keys [][]byte, children []NodeID) *BaseNode {
	if len(keys) != len(children) {
		panic("base: inner separator/child length mismatch")
	}
	return &BaseNode{
		header:   header{kind: InnerBaseKind, height: 0, size: uint32(len(keys)), low: low, high: high},
		leaf:     false,
		keys:     keys,
		children: children,
	}
}

// IsLeaf reports whether this base node backs a leaf virtual node.
func (b *BaseNode) IsLeaf() bool { return b.leaf }

// Len returns the number of entries.
func (b *BaseNode) Len() int { return len(b.keys) }

// KeyAt returns the key (leaf) or separator key (inner) at index.
func (b *BaseNode) KeyAt(i int) []byte { return b.keys[i] }

// ValueAt returns the value at index. Leaf nodes only.
func (b *BaseNode) ValueAt(i int) any { return b.values[i] }

// ChildAt returns the child ID at index. Inner nodes only.
func (b *BaseNode) ChildAt(i int) NodeID { return b.children[i] }

// Search returns the index of the lower-bound entry for key: the largest
// index i such that KeyAt(i) <= key. Returns -1 if key is smaller than every
// entry (which should not happen for a key already known to be in-range).
func (b *BaseNode) Search(cmp Comparator, key []byte) int {
	n := len(b.keys)
	i := sort.Search(n, func(i int) bool {
		return cmp(b.keys[i], key) > 0
	})
	return i - 1
}

// PointSearch returns the exact index of key, or -1 if absent.
func (b *BaseNode) PointSearch(cmp Comparator, key []byte) int {
	n := len(b.keys)
	i := sort.Search(n, func(i int) bool {
		return cmp(b.keys[i], key) >= 0
	})
	if i < n && cmp(b.keys[i], key) == 0 {
		return i
	}
	return -1
}

// Split partitions the node at its middle element and returns a fresh base
// node holding the upper half. The receiver's own slices are left
// untouched; the caller is responsible for narrowing the receiver's high
// key via a split delta rather than mutating it in place. The chosen split
// key is the middle element's key, which becomes the new node's low key.
func (b *BaseNode) Split() *BaseNode {
	n := len(b.keys)
	if n < 2 {
		panic("base: cannot split a node with fewer than 2 entries")
	}
	pivot := n / 2

	upperKeys := make([][]byte, n-pivot)
	copy(upperKeys, b.keys[pivot:])

	splitKey := upperKeys[0]

	if b.leaf {
		upperValues := make([]any, n-pivot)
		copy(upperValues, b.values[pivot:])
		return NewLeafBase(Finite(splitKey), b.high, upperKeys, upperValues)
	}

	upperChildren := make([]NodeID, n-pivot)
	copy(upperChildren, b.children[pivot:])
	return NewInnerBase(Finite(splitKey), b.high, upperKeys, upperChildren)
}

// SplitKey returns the key that Split would use to partition the node,
// without performing the split. Used by the SMO coordinator to post the
// InnerInsert delta with the same key the base node split on.
func (b *BaseNode) SplitKey() []byte {
	n := len(b.keys)
	if n < 2 {
		panic("base: cannot compute split key for a node with fewer than 2 entries")
	}
	return b.keys[n/2]
}
