package codeheap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuilderEmitAndAt(t *testing.T) {
	b := NewBuilder(0)
	i0 := b.Emit(10)
	i1 := b.Emit(20)
	assert.Equal(t, 0, i0)
	assert.Equal(t, 1, i1)
	assert.Equal(t, uint32(10), b.At(0))
	assert.Equal(t, uint32(20), b.At(1))
	assert.Equal(t, 2, b.Len())
}

func TestBuilderPatchOverwrites(t *testing.T) {
	b := NewBuilder(0)
	idx := b.Emit(1)
	b.Patch(idx, 99)
	assert.Equal(t, uint32(99), b.At(idx))
}

func TestBuilderSpansMultiplePages(t *testing.T) {
	b := NewBuilder(2)
	for i := 0; i < 5; i++ {
		b.Emit(uint32(i))
	}
	assert.Equal(t, 5, b.Len())
	for i := 0; i < 5; i++ {
		assert.Equal(t, uint32(i), b.At(i))
	}
}

func TestBuilderFinishProducesIndependentBlock(t *testing.T) {
	b := NewBuilder(0)
	b.Emit(1)
	b.Emit(2)
	block := b.Finish("src")

	assert.Equal(t, []uint32{1, 2}, block.Words())
	assert.Equal(t, "src", block.Source())
	assert.Equal(t, int32(1), block.Refs())

	b.Emit(3)
	assert.Equal(t, []uint32{1, 2}, block.Words(), "finished block does not alias the builder's storage")
}

func TestBlockRefUnref(t *testing.T) {
	b := NewBuilder(0).Finish("")
	assert.Equal(t, int32(1), b.Refs())

	b.Ref()
	assert.Equal(t, int32(2), b.Refs())

	b.Unref()
	assert.Equal(t, int32(1), b.Refs())
	assert.NotNil(t, b.Words())

	b.Unref()
	assert.Equal(t, int32(0), b.Refs())
	assert.Nil(t, b.Words(), "words are released once refcount reaches zero")
}

func TestBlockNilReceiverIsSafe(t *testing.T) {
	var b *Block
	assert.Nil(t, b.Words())
	assert.Equal(t, "", b.Source())
	assert.Equal(t, int32(0), b.Refs())
	assert.NotPanics(t, func() { b.Ref() })
	assert.NotPanics(t, func() { b.Unref() })
}

func TestHeapEmptyReturnsTaggedSentinel(t *testing.T) {
	h := NewHeap([4]uint32{100, 200, 300, 400})

	b0 := h.Empty(0)
	assert.Equal(t, []uint32{100}, b0.Words())
	assert.True(t, h.IsEmpty(b0))

	b2 := h.Empty(2)
	assert.Equal(t, []uint32{300}, b2.Words())
}

func TestHeapEmptyOutOfRangeFallsBackToZero(t *testing.T) {
	h := NewHeap([4]uint32{100, 200, 300, 400})
	b := h.Empty(9)
	assert.Equal(t, []uint32{100}, b.Words())
}

func TestHeapIsEmptyFalseForOrdinaryBlock(t *testing.T) {
	h := NewHeap([4]uint32{100, 200, 300, 400})
	other := NewBuilder(0).Finish("")
	assert.False(t, h.IsEmpty(other))
}
