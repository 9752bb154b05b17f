package loader

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/Carmen-Shannon/oxy-mesh/engine/device"
	"github.com/Carmen-Shannon/oxy-mesh/engine/device/devicetest"
	"github.com/Carmen-Shannon/oxy-mesh/engine/geometry"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLoader(options ...LoaderBuilderOption) (Loader, *test.Hook) {
	logger, hook := test.NewNullLogger()
	geomLogger, _ := test.NewNullLogger()
	opts := []LoaderBuilderOption{
		WithLogger(logger),
		WithGeometryOptions(geometry.WithLogger(geomLogger)),
	}
	return NewLoader(BackendTypeGLTF, append(opts, options...)...), hook
}

func TestLoadReaderBuildsGeometry(t *testing.T) {
	l, hook := newTestLoader()

	meshes, err := l.LoadReader("quad", bytes.NewReader(quadFixture().embedded("square")), false)
	require.NoError(t, err)
	require.Len(t, meshes, 1)

	g := meshes[0]
	assert.Equal(t, "square", g.Label())
	assert.Equal(t, 4, g.VertexCount())
	assert.True(t, g.IsIndexed())
	assert.Equal(t, []uint32{0, 1, 2, 0, 2, 3}, g.Faces())
	assert.Equal(t, []float32{0, 0, 1, 0, 1, 1, 0, 1}, g.Attribute(geometry.AttributeTexcoord0).Value)

	normals := g.Attribute(geometry.AttributeNormal).Value
	require.Len(t, normals, 12)
	for v := 0; v < 4; v++ {
		assert.InDeltaSlice(t, []float32{0, 0, 1}, normals[v*3:v*3+3], 1e-6, "vertex %d", v)
	}

	box := g.BoundingBox()
	require.NotNil(t, box)
	assert.Equal(t, [3]float32{-1, -1, 0}, box.Min)
	assert.Equal(t, [3]float32{1, 1, 0}, box.Max)

	assert.Same(t, g, l.Get("quad")[0])
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.InfoLevel, hook.LastEntry().Level)
	assert.Equal(t, 1, hook.LastEntry().Data["meshes"])
}

func TestLoadReaderConvertsChannels(t *testing.T) {
	f := newFixture()
	pos := f.accessor([]float32{0, 0, 0, 1, 0, 0, 0, 1, 0}, gltfComponentTypeFloat, gltfAccessorTypeVec3, 3, false)
	color := f.accessor([]uint8{255, 0, 0, 0, 255, 0, 0, 0, 255}, gltfComponentTypeUnsignedByte, gltfAccessorTypeVec3, 3, true)
	weights := f.accessor([]float32{
		0.5, 0.25, 0.25, 0,
		1, 0, 0, 0,
		0.5, 0.5, 0, 0,
	}, gltfComponentTypeFloat, gltfAccessorTypeVec4, 3, false)
	joints := f.accessor([]uint8{1, 2, 3, 4, 0, 0, 0, 0, 5, 6, 0, 0}, gltfComponentTypeUnsignedByte, gltfAccessorTypeVec4, 3, false)
	normal := f.accessor([]float32{0, 0, 1, 0, 0, 1, 0, 0, 1}, gltfComponentTypeFloat, gltfAccessorTypeVec3, 3, false)
	f.primitive(map[string]int{
		"POSITION":  pos,
		"COLOR_0":   color,
		"WEIGHTS_0": weights,
		"JOINTS_0":  joints,
		"NORMAL":    normal,
		"_CUSTOM":   pos,
	}, nil)

	l, _ := newTestLoader()
	meshes, err := l.LoadReader("tri", bytes.NewReader(f.glb("")), true)
	require.NoError(t, err)
	require.Len(t, meshes, 1)

	g := meshes[0]
	assert.Equal(t, "mesh_0", g.Label())
	assert.False(t, g.IsIndexed())
	assert.Nil(t, g.Faces())
	assert.Equal(t, []float32{1, 0, 0, 1, 0, 1, 0, 1, 0, 0, 1, 1}, g.Attribute(geometry.AttributeColor).Value)
	assert.Equal(t, []float32{0.5, 0.25, 0.25, 1, 0, 0, 0.5, 0.5, 0}, g.Attribute(geometry.AttributeWeight).Value)
	assert.Equal(t, []float32{1, 2, 3, 4, 0, 0, 0, 0, 5, 6, 0, 0}, g.Attribute(geometry.AttributeJoint).Value)
	assert.Equal(t, []float32{0, 0, 1, 0, 0, 1, 0, 0, 1}, g.Attribute(geometry.AttributeNormal).Value)
	assert.Nil(t, g.Attribute(geometry.AttributeTangent).Value)
}

func TestLoadReaderMultiplePrimitives(t *testing.T) {
	f := quadFixture()
	f.primitive(map[string]int{"POSITION": 0}, nil)
	f.accessors[0]["count"] = 3

	l, _ := newTestLoader()
	meshes, err := l.LoadReader("two", bytes.NewReader(f.embedded("pair")), false)
	require.Error(t, err, "the first primitive no longer has four positions")
	assert.Nil(t, meshes)

	f = quadFixture()
	pos := f.accessor([]float32{0, 0, 0, 1, 0, 0, 0, 1, 0}, gltfComponentTypeFloat, gltfAccessorTypeVec3, 3, false)
	f.primitive(map[string]int{"POSITION": pos}, nil)
	meshes, err = l.LoadReader("two", bytes.NewReader(f.embedded("pair")), false)
	require.NoError(t, err)
	require.Len(t, meshes, 2)
	assert.Equal(t, "pair", meshes[0].Label())
	assert.Equal(t, "pair_prim1", meshes[1].Label())
	assert.Equal(t, 3, meshes[1].VertexCount())
}

func TestLoadReaderRejectsBadPrimitives(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *gltfFixture)
	}{
		{
			name: "missing position",
			mutate: func(f *gltfFixture) {
				delete(f.primitives[0]["attributes"].(map[string]int), "POSITION")
			},
		},
		{
			name: "lines topology",
			mutate: func(f *gltfFixture) {
				f.primitives[0]["mode"] = 1
			},
		},
		{
			name: "index out of range",
			mutate: func(f *gltfFixture) {
				f.primitives[0]["indices"] = f.accessor([]uint32{0, 1, 9}, gltfComponentTypeUnsignedInt, gltfAccessorTypeScalar, 3, false)
			},
		},
		{
			name: "partial triangle",
			mutate: func(f *gltfFixture) {
				f.primitives[0]["indices"] = f.accessor([]uint8{0, 1, 2, 3}, gltfComponentTypeUnsignedByte, gltfAccessorTypeScalar, 4, false)
			},
		},
		{
			name: "wrong component count",
			mutate: func(f *gltfFixture) {
				f.primitives[0]["attributes"].(map[string]int)["NORMAL"] = 1
			},
		},
		{
			name: "negative count",
			mutate: func(f *gltfFixture) {
				f.accessors[0]["count"] = -1
			},
		},
		{
			name: "negative accessor offset",
			mutate: func(f *gltfFixture) {
				f.accessors[1]["byteOffset"] = -8
			},
		},
		{
			name: "negative view offset",
			mutate: func(f *gltfFixture) {
				f.views[0]["byteOffset"] = -40
			},
		},
		{
			name: "negative stride",
			mutate: func(f *gltfFixture) {
				f.views[1]["byteStride"] = -8
			},
		},
		{
			name: "huge view offset",
			mutate: func(f *gltfFixture) {
				f.views[0]["byteOffset"] = 1 << 62
			},
		},
		{
			name: "huge stride",
			mutate: func(f *gltfFixture) {
				f.views[0]["byteStride"] = 1 << 61
			},
		},
		{
			name: "huge count",
			mutate: func(f *gltfFixture) {
				f.accessors[2]["count"] = 1 << 40
			},
		},
		{
			name: "short attribute",
			mutate: func(f *gltfFixture) {
				f.primitives[0]["attributes"].(map[string]int)["TEXCOORD_1"] = f.accessor([]float32{0, 0}, gltfComponentTypeFloat, gltfAccessorTypeVec2, 1, false)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := quadFixture()
			tt.mutate(f)

			l, _ := newTestLoader()
			meshes, err := l.LoadReader("bad", bytes.NewReader(f.embedded("bad")), false)
			assert.Error(t, err)
			assert.Nil(t, meshes)
			assert.Nil(t, l.Get("bad"))
		})
	}
}

func TestLoadFromFileCaches(t *testing.T) {
	dir := t.TempDir()
	f := quadFixture()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "quad.bin"), f.bin.Bytes(), 0o644))
	path := filepath.Join(dir, "quad.gltf")
	require.NoError(t, os.WriteFile(path, f.document("quad", "quad.bin"), 0o644))

	l, _ := newTestLoader(WithGeometryOptions(geometry.WithHint(device.HintDynamic)))
	first, err := l.Load(path)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, device.HintDynamic, first[0].Hint())

	second, err := l.Load(path)
	require.NoError(t, err)
	assert.Same(t, first[0], second[0])
	assert.Len(t, l.Meshes(), 1)

	glbPath := filepath.Join(dir, "quad.glb")
	require.NoError(t, os.WriteFile(glbPath, quadFixture().glb("quad"), 0o644))
	fromGLB, err := l.Load(glbPath)
	require.NoError(t, err)
	assert.Equal(t, first[0].Faces(), fromGLB[0].Faces())
	assert.Len(t, l.Meshes(), 2)
}

func TestLoadRejectsUnknownFormat(t *testing.T) {
	l, _ := newTestLoader()
	_, err := l.Load("model.obj")
	assert.ErrorContains(t, err, "unsupported model format")

	_, err = l.Load(filepath.Join(t.TempDir(), "missing.gltf"))
	assert.Error(t, err)
}

func TestEvictDisposesBuffers(t *testing.T) {
	l, _ := newTestLoader()
	meshes, err := l.LoadReader("quad", bytes.NewReader(quadFixture().embedded("quad")), false)
	require.NoError(t, err)

	dev := devicetest.New()
	_, err = meshes[0].BufferChunk(dev)
	require.NoError(t, err)
	require.Positive(t, dev.Live())

	assert.True(t, l.Evict("quad", dev))
	assert.Zero(t, dev.Live())
	assert.Nil(t, l.Get("quad"))
	assert.False(t, l.Evict("quad", dev))
}

func TestWithMeshesPrepopulates(t *testing.T) {
	g := geometry.NewStaticGeometry(geometry.WithLabel("seed"))
	l, _ := newTestLoader(WithMeshes("seed", []geometry.StaticGeometry{g}))

	meshes, err := l.LoadReader("seed", bytes.NewReader(nil), false)
	require.NoError(t, err)
	assert.Same(t, g, meshes[0])
}
