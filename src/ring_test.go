package cqtscope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func Test_Ring_overwriteNeverBlocks(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		capacity := rapid.IntRange(1, 16).Draw(t, "capacity")
		writes := rapid.IntRange(0, 64).Draw(t, "writes")

		cells := make([]int, capacity)
		ring := NewRing(cells)

		for i := 0; i < writes; i++ {
			*ring.CurrentWriteCell() = i
			ring.AdvanceWrite()
		}

		assert.LessOrEqual(t, ring.Len(), capacity)
		if writes >= capacity {
			assert.Equal(t, capacity, ring.Len(), "ring should be full once writes >= capacity")
		} else {
			assert.Equal(t, writes, ring.Len())
		}
	})
}

func Test_Ring_At_outOfRangePanics(t *testing.T) {
	ring := NewRing(make([]int, 4))
	assert.Panics(t, func() {
		ring.At(4)
	})
	assert.Panics(t, func() {
		ring.At(-1)
	})
}

func Test_Ring_AdvanceRead_emptyReturnsFalse(t *testing.T) {
	ring := NewRing(make([]int, 4))
	assert.False(t, ring.AdvanceRead())

	ring.AdvanceWrite()
	assert.True(t, ring.AdvanceRead())
	assert.False(t, ring.AdvanceRead())
}

func Test_Ring_Reset(t *testing.T) {
	ring := NewRing(make([]int, 4))
	ring.AdvanceWrite()
	ring.AdvanceWrite()
	ring.Reset()

	assert.Equal(t, 0, ring.Len())
	assert.Equal(t, 0, ring.WriteIndex())
	assert.Equal(t, 0, ring.ReadIndex())
}
