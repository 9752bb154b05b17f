package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkCacheTransitions(t *testing.T) {
	c := NewChunkCache[uint64, string]()

	v, st := c.Get(1)
	assert.Equal(t, "", v)
	assert.Equal(t, StateAbsent, st)

	c.MarkFresh(1)
	assert.Equal(t, StateAbsent, c.State(1), "absent keys stay absent")

	c.Put(1, "chunk")
	assert.Equal(t, StateDirty, c.State(1))

	c.MarkFresh(1)
	v, st = c.Get(1)
	assert.Equal(t, "chunk", v)
	assert.Equal(t, StateFresh, st)

	c.MarkDirty(1)
	assert.Equal(t, StateDirty, c.State(1))

	removed, ok := c.Delete(1)
	require.True(t, ok)
	assert.Equal(t, "chunk", removed)
	assert.Equal(t, StateAbsent, c.State(1))

	_, ok = c.Delete(1)
	assert.False(t, ok)
}

func TestChunkCacheDirtyAll(t *testing.T) {
	c := NewChunkCache[uint64, int]()
	for k := uint64(1); k <= 3; k++ {
		c.Put(k, int(k))
		c.MarkFresh(k)
	}
	c.DirtyAll()
	for k := uint64(1); k <= 3; k++ {
		assert.Equal(t, StateDirty, c.State(k))
	}
	assert.Equal(t, 3, c.Len())
	assert.Equal(t, []uint64{1, 2, 3}, SortedKeys(c, func(a, b uint64) bool { return a < b }))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "absent", StateAbsent.String())
	assert.Equal(t, "dirty", StateDirty.String())
	assert.Equal(t, "fresh", StateFresh.String())
	assert.Equal(t, "unknown", State(9).String())
}
