package geometry

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-mesh/engine/cache"
	"github.com/Carmen-Shannon/oxy-mesh/engine/device/devicetest"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func triangle(uvs []float32, extra ...StaticGeometryBuilderOption) StaticGeometry {
	opts := []StaticGeometryBuilderOption{
		WithAttribute(AttributePosition, []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}),
		WithAttribute(AttributeNormal, []float32{0, 0, 1, 0, 0, 1, 0, 0, 1}),
		WithAttribute(AttributeTexcoord0, uvs),
		WithFaces([]uint32{0, 1, 2}),
		WithLogger(quietLogger()),
	}
	return NewStaticGeometry(append(opts, extra...)...)
}

func assertFinite(t *testing.T, values []float32) {
	t.Helper()
	for i, v := range values {
		assert.False(t, math32.IsNaN(v) || math32.IsInf(v, 0), "component %d is %v", i, v)
	}
}

func TestGenerateTangentsSingleTriangle(t *testing.T) {
	g := triangle([]float32{0, 0, 1, 0, 0, 1})

	require.NoError(t, g.GenerateTangents())
	tangents := g.Attribute(AttributeTangent).Value
	require.Len(t, tangents, 12)
	for v := 0; v < 3; v++ {
		assert.InDeltaSlice(t, []float32{1, 0, 0, 1}, tangents[v*4:v*4+4], 1e-6)
	}
}

func TestGenerateTangentsMirroredUV(t *testing.T) {
	g := triangle([]float32{0, 0, -1, 0, 0, 1})

	require.NoError(t, g.GenerateTangents())
	tangents := g.Attribute(AttributeTangent).Value
	assert.InDeltaSlice(t, []float32{-1, 0, 0, -1}, tangents[0:4], 1e-6)
}

func TestGenerateTangentsQuad(t *testing.T) {
	g := newQuad()

	require.NoError(t, g.GenerateTangents())
	tangents := g.Attribute(AttributeTangent).Value
	require.Len(t, tangents, 16)
	for v := 0; v < 4; v++ {
		assert.InDeltaSlice(t, []float32{1, 0, 0, 1}, tangents[v*4:v*4+4], 1e-5)
	}
}

func TestGenerateTangentsDegenerateSkip(t *testing.T) {
	g := triangle([]float32{0.5, 0.5, 0.5, 0.5, 0.5, 0.5})

	err := g.GenerateTangents()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDegenerateGeometry)

	var de *DegenerateGeometryError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, []int{0}, de.Triangles)
	assert.Equal(t, TangentPolicySkip, de.Policy)

	tangents := g.Attribute(AttributeTangent).Value
	require.Len(t, tangents, 12)
	assertFinite(t, tangents)
	for v := 0; v < 3; v++ {
		tan := vec3{tangents[v*4], tangents[v*4+1], tangents[v*4+2]}
		assert.InDelta(t, 1, math32.Sqrt(tan.dot(tan)), 1e-6)
		assert.InDelta(t, 0, tan.dot(vec3{0, 0, 1}), 1e-6)
		assert.Equal(t, float32(1), tangents[v*4+3])
	}
}

func TestGenerateTangentsDegenerateBasis(t *testing.T) {
	g := triangle([]float32{0, 0, 0, 0, 0, 0}, WithTangentPolicy(TangentPolicyBasis))

	err := g.GenerateTangents()
	assert.ErrorIs(t, err, ErrDegenerateGeometry)

	tangents := g.Attribute(AttributeTangent).Value
	assertFinite(t, tangents)
	assert.InDeltaSlice(t, []float32{1, 0, 0, 1}, tangents[0:4], 1e-6)
}

func TestGenerateTangentsPreconditions(t *testing.T) {
	noNormals := NewStaticGeometry(
		WithAttribute(AttributePosition, []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}),
		WithAttribute(AttributeTexcoord0, []float32{0, 0, 1, 0, 0, 1}),
		WithFaces([]uint32{0, 1, 2}),
		WithLogger(quietLogger()),
	)
	assert.ErrorIs(t, noNormals.GenerateTangents(), ErrPrecondition)
	assert.Nil(t, noNormals.Attribute(AttributeTangent).Value)

	unindexed := triangle([]float32{0, 0, 1, 0, 0, 1}, WithUseFace(false))
	assert.ErrorIs(t, unindexed.GenerateTangents(), ErrPrecondition)

	badFaces := triangle([]float32{0, 0, 1, 0, 0, 1}, WithFaces([]uint32{0, 1, 3}))
	assert.ErrorIs(t, badFaces.GenerateTangents(), ErrPrecondition)
	assert.Nil(t, badFaces.Attribute(AttributeTangent).Value)
}

func TestGenerateTangentsRejectsAliasedOutput(t *testing.T) {
	tests := []struct {
		name      string
		positions func(backing []float32) []float32
		tangents  func(backing []float32) []float32
		aliased   bool
	}{
		{
			name:      "tangents after positions",
			positions: func(b []float32) []float32 { return b[0:9] },
			tangents:  func(b []float32) []float32 { return b[9:21] },
			aliased:   true,
		},
		{
			name:      "tangents capped over positions",
			positions: func(b []float32) []float32 { return b[0:9] },
			tangents:  func(b []float32) []float32 { return b[0:12:12] },
			aliased:   true,
		},
		{
			name:      "positions capped inside tangents",
			positions: func(b []float32) []float32 { return b[4:13:13] },
			tangents:  func(b []float32) []float32 { return b[0:12] },
			aliased:   true,
		},
		{
			name:      "adjacent capped views",
			positions: func(b []float32) []float32 { return b[0:9:9] },
			tangents:  func(b []float32) []float32 { return b[9:21] },
			aliased:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backing := make([]float32, 32)
			tangents := tt.tangents(backing)
			positions := tt.positions(backing)
			copy(positions, []float32{0, 0, 0, 1, 0, 0, 0, 1, 0})

			g := triangle([]float32{0, 0, 1, 0, 0, 1},
				WithAttribute(AttributePosition, positions),
				WithAttribute(AttributeTangent, tangents),
			)
			err := g.GenerateTangents()
			if tt.aliased {
				assert.ErrorIs(t, err, ErrPrecondition)
				return
			}
			require.NoError(t, err)
			assert.InDeltaSlice(t, []float32{1, 0, 0}, g.Attribute(AttributeTangent).Value[:3], 1e-6)
		})
	}
}

func TestGenerateTangentsMarksDirty(t *testing.T) {
	g := newQuad()
	dev := devicetest.New()
	_, err := g.BufferChunk(dev)
	require.NoError(t, err)

	require.NoError(t, g.GenerateTangents())
	assert.Equal(t, cache.StateDirty, g.ChunkState(dev.ID()))

	chunk, err := g.BufferChunk(dev)
	require.NoError(t, err)
	assert.NotNil(t, chunk.AttributeBuffer(AttributeTangent))
}

func TestParseTangentPolicy(t *testing.T) {
	p, err := ParseTangentPolicy("")
	require.NoError(t, err)
	assert.Equal(t, TangentPolicySkip, p)

	p, err = ParseTangentPolicy("Basis")
	require.NoError(t, err)
	assert.Equal(t, TangentPolicyBasis, p)
	assert.Equal(t, "basis", p.String())

	_, err = ParseTangentPolicy("nan")
	assert.Error(t, err)
}
