package geometry

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-mesh/common"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// quadOptions builds a unit quad in the XY plane split into two triangles sharing vertices 0 and 2.
func quadOptions() []StaticGeometryBuilderOption {
	return []StaticGeometryBuilderOption{
		WithLabel("quad"),
		WithAttribute(AttributePosition, []float32{
			0, 0, 0,
			1, 0, 0,
			1, 1, 0,
			0, 1, 0,
		}),
		WithAttribute(AttributeNormal, []float32{
			0, 0, 1,
			0, 0, 1,
			0, 0, 1,
			0, 0, 1,
		}),
		WithAttribute(AttributeTexcoord0, []float32{
			0, 0,
			1, 0,
			1, 1,
			0, 1,
		}),
		WithFaces([]uint32{0, 1, 2, 0, 2, 3}),
		WithLogger(quietLogger()),
	}
}

func quietLogger() logrus.FieldLogger {
	logger, _ := test.NewNullLogger()
	return logger
}

func newQuad(extra ...StaticGeometryBuilderOption) StaticGeometry {
	return NewStaticGeometry(append(quadOptions(), extra...)...)
}

func TestNewStaticGeometryDefaults(t *testing.T) {
	g := NewStaticGeometry()
	assert.True(t, g.UseFace())
	assert.False(t, g.IsIndexed())
	assert.Equal(t, 0, g.VertexCount())
	assert.Nil(t, g.BoundingBox())
	assert.Empty(t, g.Contexts())
	for _, name := range AttributeNames() {
		attr := g.Attribute(name)
		require.NotNil(t, attr)
		assert.Equal(t, name, attr.Name)
		assert.Equal(t, name.Size(), attr.Size)
		assert.Equal(t, Float32, attr.Type)
		assert.Nil(t, attr.Value)
	}
	assert.Nil(t, g.Attribute(attributeCount))
}

func TestEnabledAttributesSchemaOrder(t *testing.T) {
	g := NewStaticGeometry(
		WithAttribute(AttributeNormal, make([]float32, 9)),
		WithAttribute(AttributeColor, make([]float32, 8)),
		WithAttribute(AttributeTexcoord0, make([]float32, 6)),
		WithAttribute(AttributePosition, make([]float32, 9)),
		WithLogger(quietLogger()),
	)

	enabled, err := g.EnabledAttributes()
	require.NoError(t, err)
	names := make([]AttributeName, len(enabled))
	for i, a := range enabled {
		names[i] = a.Name
	}
	assert.Equal(t, []AttributeName{AttributePosition, AttributeTexcoord0, AttributeNormal}, names, "color has the wrong length for 3 vertices")

	again, err := g.EnabledAttributes()
	require.NoError(t, err)
	assert.Same(t, enabled[0], again[0])

	require.NoError(t, g.SetAttribute(AttributeColor, make([]float32, 12)))
	enabled, err = g.EnabledAttributes()
	require.NoError(t, err)
	require.Len(t, enabled, 4)
	assert.Equal(t, AttributeColor, enabled[3].Name)
}

func TestEnabledAttributesRequiresPosition(t *testing.T) {
	g := NewStaticGeometry(WithAttribute(AttributeNormal, make([]float32, 9)), WithLogger(quietLogger()))

	_, err := g.EnabledAttributes()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrPrecondition))

	var pe *PreconditionError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "enabled attributes", pe.Op)

	require.NoError(t, g.SetAttribute(AttributePosition, make([]float32, 7)))
	_, err = g.EnabledAttributes()
	assert.ErrorIs(t, err, ErrPrecondition)
}

func TestSetAttributeRejectsUnknownChannel(t *testing.T) {
	g := NewStaticGeometry(WithLogger(quietLogger()))
	assert.Error(t, g.SetAttribute(AttributeName(42), []float32{1}))
}

func TestIsIndexed(t *testing.T) {
	g := newQuad()
	assert.True(t, g.IsIndexed())
	assert.Equal(t, 2, g.FaceCount())

	g.SetUseFace(false)
	assert.False(t, g.IsIndexed())
	assert.True(t, g.IsUniqueVertex())

	g.SetUseFace(true)
	g.SetFaces(nil)
	assert.False(t, g.IsIndexed())
}

func TestUpdateBoundingBox(t *testing.T) {
	g := newQuad()
	require.NoError(t, g.UpdateBoundingBox())
	require.NotNil(t, g.BoundingBox())
	assert.Equal(t, common.BoundingBox{Min: [3]float32{0, 0, 0}, Max: [3]float32{1, 1, 0}}, *g.BoundingBox())

	empty := NewStaticGeometry(WithLogger(quietLogger()))
	assert.ErrorIs(t, empty.UpdateBoundingBox(), ErrPrecondition)
}

func TestAttributeNameParsing(t *testing.T) {
	for _, name := range AttributeNames() {
		parsed, err := ParseAttributeName(name.String())
		require.NoError(t, err)
		assert.Equal(t, name, parsed)
	}

	parsed, err := ParseAttributeName("TEXCOORD_1")
	require.NoError(t, err)
	assert.Equal(t, AttributeTexcoord1, parsed)

	_, err = ParseAttributeName("uv2")
	assert.Error(t, err)
	assert.Equal(t, "", AttributeBarycentric.Semantic())
	assert.Equal(t, 4, AttributeTangent.Size())
}
