package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertCornerMarkers(t *testing.T, values []float32, vertexOf func(slot int) int, slots int) {
	t.Helper()
	for slot := 0; slot < slots; slot++ {
		v := vertexOf(slot)
		want := []float32{0, 0, 0}
		want[slot%3] = 1
		assert.Equal(t, want, values[v*3:v*3+3], "slot %d", slot)
	}
}

func TestGenerateBarycentricIndexed(t *testing.T) {
	g := newQuad()

	require.NoError(t, g.GenerateBarycentric())
	assert.True(t, g.IsUniqueVertex())

	faces := g.Faces()
	values := g.Attribute(AttributeBarycentric).Value
	require.Len(t, values, len(faces)*3)
	assertCornerMarkers(t, values, func(slot int) int { return int(faces[slot]) }, len(faces))

	enabled, err := g.EnabledAttributes()
	require.NoError(t, err)
	assert.Equal(t, AttributeBarycentric, enabled[len(enabled)-1].Name)
}

func TestGenerateBarycentricRepeated(t *testing.T) {
	g := newQuad()
	require.NoError(t, g.GenerateBarycentric())
	first := append([]float32(nil), g.Attribute(AttributeBarycentric).Value...)

	require.NoError(t, g.GenerateBarycentric())
	assert.Equal(t, first, g.Attribute(AttributeBarycentric).Value)
}

func TestGenerateBarycentricNonIndexed(t *testing.T) {
	g := NewStaticGeometry(
		WithAttribute(AttributePosition, make([]float32, 18)),
		WithLogger(quietLogger()),
	)

	require.NoError(t, g.GenerateBarycentric())
	values := g.Attribute(AttributeBarycentric).Value
	require.Len(t, values, 18)
	assertCornerMarkers(t, values, func(slot int) int { return slot }, 6)
}

func TestGenerateBarycentricPreconditions(t *testing.T) {
	g := NewStaticGeometry(WithAttribute(AttributePosition, make([]float32, 12)), WithLogger(quietLogger()))
	assert.ErrorIs(t, g.GenerateBarycentric(), ErrPrecondition)
	assert.Nil(t, g.Attribute(AttributeBarycentric).Value)

	empty := NewStaticGeometry(WithLogger(quietLogger()))
	assert.ErrorIs(t, empty.GenerateBarycentric(), ErrPrecondition)
}
