package geometry

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-mesh/common"
	"github.com/Carmen-Shannon/oxy-mesh/engine/device/devicetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertToDynamic(t *testing.T) {
	g := newQuad()
	require.NoError(t, g.UpdateBoundingBox())

	d, err := g.ConvertToDynamic(nil)
	require.NoError(t, err)
	assert.Equal(t, [][3]uint32{{0, 1, 2}, {0, 2, 3}}, d.Faces)
	assert.Equal(t, 4, d.VertexCount())
	require.Len(t, d.Attributes, 3)

	uv := d.Attributes[AttributeTexcoord0]
	require.NotNil(t, uv)
	assert.Equal(t, 2, uv.Size)
	assert.Equal(t, "TEXCOORD_0", uv.Semantic)
	assert.Equal(t, Float32, uv.Type)
	assert.Equal(t, []float32{1, 1}, uv.Value[2])

	g.Attribute(AttributeTexcoord0).Value[4] = 7
	assert.Equal(t, []float32{1, 1}, uv.Value[2], "values are copied")

	require.NotNil(t, d.BoundingBox)
	assert.NotSame(t, g.BoundingBox(), d.BoundingBox)
	assert.Equal(t, *g.BoundingBox(), *d.BoundingBox)
}

func TestConvertToDynamicAppends(t *testing.T) {
	g := newQuad()
	require.NoError(t, g.UpdateBoundingBox())
	d, err := g.ConvertToDynamic(nil)
	require.NoError(t, err)

	require.NoError(t, g.ApplyTransform(common.Translation(0, 0, 2)))
	same, err := g.ConvertToDynamic(d)
	require.NoError(t, err)
	assert.Same(t, d, same)

	assert.Equal(t, [3]uint32{4, 5, 6}, d.Faces[2])
	assert.Equal(t, 8, d.VertexCount())
	assert.Equal(t, [3]float32{1, 1, 2}, d.BoundingBox.Max)
	assert.Equal(t, [3]float32{0, 0, 0}, d.BoundingBox.Min)
}

func TestConvertToDynamicNonIndexed(t *testing.T) {
	g := NewStaticGeometry(WithAttribute(AttributePosition, make([]float32, 18)), WithLogger(quietLogger()))
	d, err := g.ConvertToDynamic(nil)
	require.NoError(t, err)
	assert.Equal(t, [][3]uint32{{0, 1, 2}, {3, 4, 5}}, d.Faces)
	assert.Nil(t, d.BoundingBox)
}

func TestConvertToDynamicRejectsMismatchedTarget(t *testing.T) {
	g := newQuad()
	target := NewDynamicGeometry()
	target.Attributes[AttributeTexcoord0] = &DynamicAttribute{Type: Float32, Size: 3}

	_, err := g.ConvertToDynamic(target)
	assert.ErrorIs(t, err, ErrPrecondition)
	assert.Empty(t, target.Faces)
	assert.Len(t, target.Attributes, 1)
}

func TestConvertToDynamicIgnoresDeviceState(t *testing.T) {
	g := newQuad()
	dev := devicetest.New()
	_, err := g.BufferChunk(dev)
	require.NoError(t, err)
	dev.Reset()

	_, err = g.ConvertToDynamic(nil)
	require.NoError(t, err)
	assert.Empty(t, dev.Calls)
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, g.Faces())
}
