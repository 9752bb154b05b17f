package geometry

import (
	"github.com/Carmen-Shannon/oxy-mesh/common"
	"github.com/Carmen-Shannon/oxy-mesh/engine/cache"
	"github.com/Carmen-Shannon/oxy-mesh/engine/device"

	"github.com/sirupsen/logrus"
)

// StaticGeometryBuilderOption is a functional option for configuring a StaticGeometry via NewStaticGeometry.
type StaticGeometryBuilderOption func(*staticGeometry)

// WithLabel is an option builder that sets the debug label of the mesh.
//
// Parameters:
//   - label: the mesh label
//
// Returns:
//   - StaticGeometryBuilderOption: a function that applies the label option to a mesh
func WithLabel(label string) StaticGeometryBuilderOption {
	return func(g *staticGeometry) {
		g.label = label
	}
}

// WithAttribute is an option builder that populates one channel. Invalid names are ignored.
//
// Parameters:
//   - name: the channel
//   - value: flat component data
//
// Returns:
//   - StaticGeometryBuilderOption: a function that applies the attribute option to a mesh
func WithAttribute(name AttributeName, value []float32) StaticGeometryBuilderOption {
	return func(g *staticGeometry) {
		if name.Valid() {
			g.attributes[name].Value = value
		}
	}
}

// WithFaces is an option builder that sets the triangle index array.
//
// Parameters:
//   - faces: three vertex indices per triangle
//
// Returns:
//   - StaticGeometryBuilderOption: a function that applies the faces option to a mesh
func WithFaces(faces []uint32) StaticGeometryBuilderOption {
	return func(g *staticGeometry) {
		g.faces = faces
	}
}

// WithUseFace is an option builder that sets whether the index array is used.
//
// Parameters:
//   - use: false to draw the mesh as a plain triangle list
//
// Returns:
//   - StaticGeometryBuilderOption: a function that applies the use-face option to a mesh
func WithUseFace(use bool) StaticGeometryBuilderOption {
	return func(g *staticGeometry) {
		g.useFace = use
	}
}

// WithHint is an option builder that sets the usage hint passed to the device on upload.
//
// Parameters:
//   - hint: the usage hint
//
// Returns:
//   - StaticGeometryBuilderOption: a function that applies the hint option to a mesh
func WithHint(hint device.UsageHint) StaticGeometryBuilderOption {
	return func(g *staticGeometry) {
		g.hint = hint
	}
}

// WithBoundingBox is an option builder that sets the tracked bounding box.
//
// Parameters:
//   - box: the bounding box, owned by the mesh afterwards
//
// Returns:
//   - StaticGeometryBuilderOption: a function that applies the bounding box option to a mesh
func WithBoundingBox(box *common.BoundingBox) StaticGeometryBuilderOption {
	return func(g *staticGeometry) {
		g.boundingBox = box
	}
}

// WithTangentPolicy is an option builder that selects how GenerateTangents treats triangles
// with zero texture-space area.
//
// Parameters:
//   - policy: the degenerate-triangle policy
//
// Returns:
//   - StaticGeometryBuilderOption: a function that applies the policy option to a mesh
func WithTangentPolicy(policy TangentPolicy) StaticGeometryBuilderOption {
	return func(g *staticGeometry) {
		g.tangentPolicy = policy
	}
}

// WithChunkCache is an option builder that injects the per-context chunk state machine.
//
// Parameters:
//   - c: the chunk cache
//
// Returns:
//   - StaticGeometryBuilderOption: a function that applies the cache option to a mesh
func WithChunkCache(c cache.ChunkCache[device.ContextID, *BufferChunk]) StaticGeometryBuilderOption {
	return func(g *staticGeometry) {
		g.chunks = c
	}
}

// WithLogger is an option builder that sets the logger used for rebuild and dispose events.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - StaticGeometryBuilderOption: a function that applies the logger option to a mesh
func WithLogger(logger logrus.FieldLogger) StaticGeometryBuilderOption {
	return func(g *staticGeometry) {
		g.logger = logger
	}
}
