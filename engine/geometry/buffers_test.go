package geometry

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-mesh/engine/cache"
	"github.com/Carmen-Shannon/oxy-mesh/engine/device"
	"github.com/Carmen-Shannon/oxy-mesh/engine/device/devicetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferChunkBuildsOnce(t *testing.T) {
	g := newQuad()
	dev := devicetest.New()

	chunk, err := g.BufferChunk(dev)
	require.NoError(t, err)
	require.Len(t, chunk.AttributeBuffers, 3)
	assert.Equal(t, AttributePosition, chunk.AttributeBuffers[0].Name)
	assert.Equal(t, AttributeTexcoord0, chunk.AttributeBuffers[1].Name)
	assert.Equal(t, AttributeNormal, chunk.AttributeBuffers[2].Name)
	assert.Equal(t, "POSITION", chunk.AttributeBuffers[0].Semantic)
	require.NotNil(t, chunk.IndexBuffer)
	assert.Equal(t, 6, chunk.IndexBuffer.Count)
	assert.Equal(t, cache.StateFresh, g.ChunkState(dev.ID()))
	assert.Equal(t, 4, dev.Count(devicetest.OpCreate))
	assert.Equal(t, 4, dev.Count(devicetest.OpData))

	again, err := g.BufferChunk(dev)
	require.NoError(t, err)
	assert.Same(t, chunk, again)
	assert.Equal(t, 4, dev.Count(devicetest.OpCreate))
	assert.Equal(t, 4, dev.Count(devicetest.OpData), "a fresh chunk is not re-uploaded")
}

func TestBufferChunkUploadsBytes(t *testing.T) {
	g := newQuad()
	dev := devicetest.New()

	chunk, err := g.BufferChunk(dev)
	require.NoError(t, err)
	assert.Len(t, dev.Data(chunk.AttributeBuffer(AttributePosition).Buffer), 12*4)
	assert.Len(t, dev.Data(chunk.AttributeBuffer(AttributeTexcoord0).Buffer), 8*4)
	assert.Len(t, dev.Data(chunk.IndexBuffer.Buffer), 6*4)
	assert.Nil(t, chunk.AttributeBuffer(AttributeColor))

	for _, c := range dev.Calls {
		if c.Op == devicetest.OpData {
			assert.Equal(t, device.HintStatic, c.Hint)
		}
	}

	dev.Reset()
	g.SetHint(device.HintDynamic)
	_, err = g.BufferChunk(dev)
	require.NoError(t, err)
	require.Equal(t, 4, dev.Count(devicetest.OpData))
	for _, c := range dev.Calls {
		if c.Op == devicetest.OpData {
			assert.Equal(t, device.HintDynamic, c.Hint)
		}
	}
}

func TestDirtyForcesFullRebuild(t *testing.T) {
	g := newQuad()
	dev := devicetest.New()

	chunk, err := g.BufferChunk(dev)
	require.NoError(t, err)
	handles := chunk.Handles()

	g.Dirty()
	assert.Equal(t, cache.StateDirty, g.ChunkState(dev.ID()))

	dev.Reset()
	chunk, err = g.BufferChunk(dev)
	require.NoError(t, err)
	assert.Equal(t, 0, dev.Count(devicetest.OpCreate), "handles are reused by attribute name")
	assert.Equal(t, 4, dev.Count(devicetest.OpData))
	assert.Equal(t, handles, chunk.Handles())
	assert.Equal(t, cache.StateFresh, g.ChunkState(dev.ID()))
}

func TestDirtyInvalidatesEveryContext(t *testing.T) {
	g := newQuad()
	a, b := devicetest.New(), devicetest.New()

	_, err := g.BufferChunk(a)
	require.NoError(t, err)
	_, err = g.BufferChunk(b)
	require.NoError(t, err)
	assert.Equal(t, []device.ContextID{a.ID(), b.ID()}, g.Contexts())

	g.Dirty()
	assert.Equal(t, cache.StateDirty, g.ChunkState(a.ID()))
	assert.Equal(t, cache.StateDirty, g.ChunkState(b.ID()))

	_, err = g.BufferChunk(a)
	require.NoError(t, err)
	assert.Equal(t, cache.StateFresh, g.ChunkState(a.ID()))
	assert.Equal(t, cache.StateDirty, g.ChunkState(b.ID()))
}

func TestRebuildDeletesStaleBuffers(t *testing.T) {
	g := newQuad()
	dev := devicetest.New()

	chunk, err := g.BufferChunk(dev)
	require.NoError(t, err)
	normal := chunk.AttributeBuffer(AttributeNormal).Buffer
	index := chunk.IndexBuffer.Buffer

	require.NoError(t, g.SetAttribute(AttributeNormal, nil))
	chunk, err = g.BufferChunk(dev)
	require.NoError(t, err)
	assert.Nil(t, chunk.AttributeBuffer(AttributeNormal))
	assert.False(t, dev.IsLive(normal))
	assert.Len(t, chunk.AttributeBuffers, 2)

	g.SetUseFace(false)
	chunk, err = g.BufferChunk(dev)
	require.NoError(t, err)
	assert.Nil(t, chunk.IndexBuffer)
	assert.False(t, dev.IsLive(index))
	assert.Equal(t, 2, dev.Live())
}

func TestBufferChunkFailureLeavesContextDirty(t *testing.T) {
	g := newQuad()
	dev := devicetest.New()
	dev.FailUploadAfter(2)

	chunk, err := g.BufferChunk(dev)
	require.Error(t, err)
	assert.Nil(t, chunk)
	assert.ErrorIs(t, err, ErrDeviceResource)
	assert.ErrorIs(t, err, devicetest.ErrInjected)

	var de *DeviceResourceError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "normal", de.Attribute)
	assert.Equal(t, dev.ID(), de.Context)
	assert.Equal(t, cache.StateDirty, g.ChunkState(dev.ID()))
	assert.Equal(t, 3, dev.Live())

	dev.FailUploadAfter(-1)
	chunk, err = g.BufferChunk(dev)
	require.NoError(t, err)
	assert.Equal(t, cache.StateFresh, g.ChunkState(dev.ID()))
	assert.Equal(t, 4, dev.Live(), "handles from the failed attempt are reused, not leaked")
	assert.Len(t, chunk.Handles(), 4)

	g.Dispose(dev)
	assert.Equal(t, 0, dev.Live())
}

func TestBufferChunkCreateFailureIsDisposable(t *testing.T) {
	g := newQuad()
	dev := devicetest.New()
	dev.FailCreateAfter(1)

	_, err := g.BufferChunk(dev)
	require.ErrorIs(t, err, ErrDeviceResource)
	assert.Equal(t, 1, dev.Live())

	g.Dispose(dev)
	assert.Equal(t, 0, dev.Live())
	assert.Equal(t, cache.StateAbsent, g.ChunkState(dev.ID()))
}

func TestBufferChunkRejectsBadFaces(t *testing.T) {
	g := newQuad(WithFaces([]uint32{0, 1, 9}))
	dev := devicetest.New()

	_, err := g.BufferChunk(dev)
	assert.ErrorIs(t, err, ErrPrecondition)
	assert.Equal(t, 0, dev.Live())
}

func TestDisposeThenReallocate(t *testing.T) {
	g := newQuad()
	dev := devicetest.New()

	chunk, err := g.BufferChunk(dev)
	require.NoError(t, err)
	before := chunk.Handles()

	g.Dispose(dev)
	assert.Equal(t, 0, dev.Live())
	assert.Equal(t, cache.StateAbsent, g.ChunkState(dev.ID()))
	assert.Empty(t, g.Contexts())

	g.Dispose(dev)
	assert.Equal(t, 4, dev.Count(devicetest.OpDelete), "second dispose is a no-op")

	chunk, err = g.BufferChunk(dev)
	require.NoError(t, err)
	for _, h := range chunk.Handles() {
		assert.NotContains(t, before, h)
	}
	assert.Equal(t, 4, dev.Live())
}
