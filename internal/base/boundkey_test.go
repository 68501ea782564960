package base

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBoundKeyInfinities(t *testing.T) {
	t.Parallel()

	assert.True(t, NegInf().IsInf())
	assert.True(t, PosInf().IsInf())
	assert.False(t, Finite([]byte("m")).IsInf())
}

func TestBoundKeyLessEqualKey(t *testing.T) {
	t.Parallel()

	assert.True(t, NegInf().LessEqualKey(bytes.Compare, []byte("anything")))
	assert.True(t, Finite([]byte("b")).LessEqualKey(bytes.Compare, []byte("b")))
	assert.True(t, Finite([]byte("b")).LessEqualKey(bytes.Compare, []byte("c")))
	assert.False(t, Finite([]byte("b")).LessEqualKey(bytes.Compare, []byte("a")))
}

func TestBoundKeyGreaterThanKey(t *testing.T) {
	t.Parallel()

	assert.True(t, PosInf().GreaterThanKey(bytes.Compare, []byte("anything")))
	assert.True(t, Finite([]byte("m")).GreaterThanKey(bytes.Compare, []byte("a")))
	assert.False(t, Finite([]byte("m")).GreaterThanKey(bytes.Compare, []byte("m")))
	assert.False(t, Finite([]byte("m")).GreaterThanKey(bytes.Compare, []byte("z")))
}

func TestKeyInRange(t *testing.T) {
	t.Parallel()

	low := Finite([]byte("d"))
	high := Finite([]byte("m"))

	assert.False(t, KeyInRange(bytes.Compare, low, high, []byte("a")))
	assert.True(t, KeyInRange(bytes.Compare, low, high, []byte("d")))
	assert.True(t, KeyInRange(bytes.Compare, low, high, []byte("h")))
	assert.False(t, KeyInRange(bytes.Compare, low, high, []byte("m")))
	assert.False(t, KeyInRange(bytes.Compare, low, high, []byte("z")))

	assert.True(t, KeyInRange(bytes.Compare, NegInf(), PosInf(), []byte("z")))
}
