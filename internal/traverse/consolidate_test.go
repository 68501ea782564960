package traverse

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bwtree/internal/base"
)

func TestConsolidateFlattensInsertsAndDeletes(t *testing.T) {
	t.Parallel()

	leaf := base.NewLeafBase(base.NegInf(), base.PosInf(), [][]byte{[]byte("a"), []byte("b")}, []any{1, 2})
	d1 := base.NewLeafDelete(leaf, leaf.LowKey(), leaf.HighKey(), []byte("a"), 1)
	d2 := base.NewLeafInsert(d1, d1.LowKey(), d1.HighKey(), []byte("c"), 3)

	flat := Consolidate(bytes.Compare, d2)
	require.False(t, flat.Removed)
	assert.Equal(t, [][]byte{[]byte("b"), []byte("c")}, flat.Keys)
	assert.Equal(t, []any{2, 3}, flat.Values)
}

func TestConsolidateLIFOPrecedence(t *testing.T) {
	t.Parallel()

	leaf := base.NewLeafBase(base.NegInf(), base.PosInf(), [][]byte{[]byte("a")}, []any{"base"})
	d1 := base.NewLeafInsert(leaf, leaf.LowKey(), leaf.HighKey(), []byte("a"), "newer")

	flat := Consolidate(bytes.Compare, d1)
	require.Len(t, flat.Keys, 1)
	assert.Equal(t, "newer", flat.Values[0], "the topmost record touching a key wins even though it's a re-insert of an unchanged key")
}

func TestConsolidateExcludesEntriesOutsideNarrowedRange(t *testing.T) {
	t.Parallel()

	leaf := base.NewLeafBase(base.NegInf(), base.PosInf(), [][]byte{[]byte("a"), []byte("z")}, []any{1, 2})
	split := base.NewLeafSplit(leaf, base.NegInf(), []byte("m"), 99)

	flat := Consolidate(bytes.Compare, split)
	assert.Equal(t, [][]byte{[]byte("a")}, flat.Keys, "split narrows the high key so 'z' falls out of range")
}

func TestConsolidateFoldsInCapturedMergeSibling(t *testing.T) {
	t.Parallel()

	sibling := base.NewLeafBase(base.Finite([]byte("m")), base.PosInf(), [][]byte{[]byte("m")}, []any{"sib"})
	left := base.NewLeafBase(base.NegInf(), base.Finite([]byte("m")), [][]byte{[]byte("a")}, []any{"left"})
	merge := base.NewLeafMerge(left, left.LowKey(), sibling.HighKey(), []byte("m"), 7, sibling)

	flat := Consolidate(bytes.Compare, merge)
	assert.Equal(t, [][]byte{[]byte("a"), []byte("m")}, flat.Keys)
	assert.Equal(t, []any{"left", "sib"}, flat.Values)
}

func TestConsolidateStopsAtRemove(t *testing.T) {
	t.Parallel()

	leaf := base.NewLeafBase(base.NegInf(), base.PosInf(), [][]byte{[]byte("a")}, []any{1})
	remove := base.NewLeafRemove(leaf, 1)

	flat := Consolidate(bytes.Compare, remove)
	assert.True(t, flat.Removed)
}

func TestConsolidateToBaseNodeRoundTrips(t *testing.T) {
	t.Parallel()

	leaf := base.NewLeafBase(base.NegInf(), base.PosInf(), [][]byte{[]byte("a")}, []any{1})
	d := base.NewLeafInsert(leaf, leaf.LowKey(), leaf.HighKey(), []byte("b"), 2)

	flat := Consolidate(bytes.Compare, d)
	fresh := flat.ToBaseNode()

	assert.True(t, fresh.IsLeaf())
	assert.Equal(t, 2, fresh.Len())
}
