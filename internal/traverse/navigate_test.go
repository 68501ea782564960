package traverse

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"bwtree/internal/base"
)

func TestNavigateBaseNodeLowerBound(t *testing.T) {
	t.Parallel()

	inner := base.NewInnerBase(base.NegInf(), base.PosInf(), [][]byte{nil, []byte("m")}, []base.NodeID{1, 2})

	res := Navigate(bytes.Compare, inner, []byte("a"))
	assert.Equal(t, Resolved, res.Status)
	assert.Equal(t, base.NodeID(1), res.Child)

	res = Navigate(bytes.Compare, inner, []byte("z"))
	assert.Equal(t, Resolved, res.Status)
	assert.Equal(t, base.NodeID(2), res.Child)
}

func TestNavigateInnerInsertBoundedByNextKey(t *testing.T) {
	t.Parallel()

	inner := base.NewInnerBase(base.NegInf(), base.PosInf(), [][]byte{nil, []byte("z")}, []base.NodeID{1, 3})
	d := base.NewInnerInsert(inner, inner.LowKey(), inner.HighKey(), []byte("m"), 2, base.Finite([]byte("z")), 3)

	res := Navigate(bytes.Compare, d, []byte("m"))
	assert.Equal(t, Resolved, res.Status)
	assert.Equal(t, base.NodeID(2), res.Child, "key at the split boundary must resolve to the new child")

	res = Navigate(bytes.Compare, d, []byte("q"))
	assert.Equal(t, Resolved, res.Status)
	assert.Equal(t, base.NodeID(2), res.Child)

	res = Navigate(bytes.Compare, d, []byte("z"))
	assert.Equal(t, Resolved, res.Status)
	assert.Equal(t, base.NodeID(3), res.Child, "at NextKey itself, ownership has passed to the base entry")
}

func TestNavigateInnerInsertRightmostHasNoUpperBound(t *testing.T) {
	t.Parallel()

	inner := base.NewInnerBase(base.NegInf(), base.PosInf(), [][]byte{nil}, []base.NodeID{1})
	d := base.NewInnerInsert(inner, inner.LowKey(), inner.HighKey(), []byte("m"), 2, base.PosInf(), base.InvalidNodeID)

	res := Navigate(bytes.Compare, d, []byte("zzz"))
	assert.Equal(t, Resolved, res.Status)
	assert.Equal(t, base.NodeID(2), res.Child)
}

func TestNavigateInnerDeleteRedirectsToPrevChild(t *testing.T) {
	t.Parallel()

	inner := base.NewInnerBase(base.NegInf(), base.PosInf(), [][]byte{nil, []byte("z")}, []base.NodeID{10, 20})
	d := base.NewInnerDelete(inner, inner.LowKey(), inner.HighKey(), []byte("m"), 99, base.Finite([]byte("z")), 20, base.NegInf(), 10)

	res := Navigate(bytes.Compare, d, []byte("q"))
	assert.Equal(t, Resolved, res.Status)
	assert.Equal(t, base.NodeID(10), res.Child)
}

func TestNavigateInnerSplitRedirectsSibling(t *testing.T) {
	t.Parallel()

	inner := base.NewInnerBase(base.NegInf(), base.PosInf(), [][]byte{nil, []byte("z")}, []base.NodeID{1, 2})
	split := base.NewInnerSplit(inner, base.NegInf(), []byte("m"), 55)

	res := Navigate(bytes.Compare, split, []byte("m"))
	assert.Equal(t, NavRedirectSibling, res.Status)
	assert.Equal(t, base.NodeID(55), res.Sibling)
}

func TestNavigateInnerRemoveRedirects(t *testing.T) {
	t.Parallel()

	inner := base.NewInnerBase(base.NegInf(), base.PosInf(), nil, nil)
	remove := base.NewInnerRemove(inner, 1)

	res := Navigate(bytes.Compare, remove, []byte("a"))
	assert.Equal(t, NavRedirectRemoved, res.Status)
}
