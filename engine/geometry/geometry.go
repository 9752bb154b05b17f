// Package geometry implements immutable ("static") triangle meshes whose attribute and index
// arrays are uploaded to one or more device contexts and kept consistent through Dirty.
//
// Every operation that rewrites attribute or index arrays calls Dirty itself. Callers that
// mutate the arrays returned by Attribute or Faces directly must call Dirty afterwards.
// A StaticGeometry is not safe for concurrent use.
package geometry

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-mesh/common"
	"github.com/Carmen-Shannon/oxy-mesh/engine/cache"
	"github.com/Carmen-Shannon/oxy-mesh/engine/device"
	"github.com/Carmen-Shannon/oxy-mesh/engine/logging"

	"github.com/sirupsen/logrus"
)

// staticGeometry is the implementation of the StaticGeometry interface.
type staticGeometry struct {
	label string

	attributes  [attributeCount]Attribute
	faces       []uint32
	useFace     bool
	hint        device.UsageHint
	boundingBox *common.BoundingBox

	tangentPolicy TangentPolicy

	// enabled memoizes EnabledAttributes until the next Dirty.
	enabled      []*Attribute
	enabledValid bool

	// chunks holds one BufferChunk per device context.
	chunks cache.ChunkCache[device.ContextID, *BufferChunk]

	logger logrus.FieldLogger
}

// StaticGeometry defines the interface for a GPU-resident triangle mesh.
// It owns a fixed set of per-vertex attribute arrays plus an optional index array, builds
// per-context device buffers on demand, and runs the mesh-processing algorithms that must
// operate on the raw arrays before upload.
type StaticGeometry interface {
	// Label returns the debug label of the mesh.
	//
	// Returns:
	//   - string: the label
	Label() string

	// Dirty invalidates the enabled-attribute memo and the buffer chunk of every context.
	Dirty()

	// Attribute returns the live attribute record for name, or nil if name is invalid.
	// Writes through the returned pointer must be followed by Dirty.
	//
	// Parameters:
	//   - name: the channel
	//
	// Returns:
	//   - *Attribute: the attribute record
	Attribute(name AttributeName) *Attribute

	// SetAttribute replaces the value array of a channel and marks the mesh dirty.
	// A nil value unpopulates the channel.
	//
	// Parameters:
	//   - name: the channel
	//   - value: flat component data, VertexCount * name.Size() long
	//
	// Returns:
	//   - error: error if name is not a schema channel
	SetAttribute(name AttributeName, value []float32) error

	// Faces returns the triangle index array (three indices per triangle).
	//
	// Returns:
	//   - []uint32: the index array, possibly nil
	Faces() []uint32

	// SetFaces replaces the index array and marks the mesh dirty.
	//
	// Parameters:
	//   - faces: the new index array
	SetFaces(faces []uint32)

	// UseFace reports whether the index array is used when it is non-empty.
	//
	// Returns:
	//   - bool: the flag
	UseFace() bool

	// SetUseFace sets whether the index array is used and marks the mesh dirty.
	//
	// Parameters:
	//   - use: the new flag
	SetUseFace(use bool)

	// IsIndexed reports whether the mesh draws through its index array: UseFace is set and
	// Faces is non-empty.
	//
	// Returns:
	//   - bool: true if the mesh is indexed
	IsIndexed() bool

	// Hint returns the usage hint passed to the device on upload.
	//
	// Returns:
	//   - device.UsageHint: the hint
	Hint() device.UsageHint

	// SetHint changes the usage hint and marks the mesh dirty so every context re-uploads.
	//
	// Parameters:
	//   - hint: the new hint
	SetHint(hint device.UsageHint)

	// BoundingBox returns the mesh bounding box, or nil if none is tracked.
	//
	// Returns:
	//   - *common.BoundingBox: the box or nil
	BoundingBox() *common.BoundingBox

	// SetBoundingBox replaces the tracked bounding box (nil stops tracking).
	//
	// Parameters:
	//   - box: the new box
	SetBoundingBox(box *common.BoundingBox)

	// UpdateBoundingBox recomputes the bounding box from the position array.
	//
	// Returns:
	//   - error: a *PreconditionError if positions are absent
	UpdateBoundingBox() error

	// VertexCount returns len(position) / 3, or 0 when positions are absent.
	//
	// Returns:
	//   - int: the vertex count
	VertexCount() int

	// FaceCount returns the number of triangles in the index array.
	//
	// Returns:
	//   - int: len(Faces()) / 3
	FaceCount() int

	// EnabledAttributes returns, in schema order, every attribute whose value holds exactly
	// VertexCount * Size components. The result is memoized until Dirty.
	//
	// Returns:
	//   - []*Attribute: the enabled attributes
	//   - error: a *PreconditionError if positions are absent or malformed
	EnabledAttributes() ([]*Attribute, error)

	// BufferChunk returns the device buffers holding this mesh for dev's context, rebuilding
	// them first when the context is absent or dirty. A failed rebuild leaves the context
	// dirty so the next call retries the whole rebuild.
	//
	// Parameters:
	//   - dev: the device context
	//
	// Returns:
	//   - *BufferChunk: the current buffers for the context
	//   - error: a *PreconditionError or *DeviceResourceError
	BufferChunk(dev device.Device) (*BufferChunk, error)

	// Dispose deletes every device buffer owned by dev's chunk and forgets the context.
	// Calling it for a context without a chunk is a no-op.
	//
	// Parameters:
	//   - dev: the device context being torn down
	Dispose(dev device.Device)

	// Contexts returns the ids of contexts currently holding a chunk, in ascending order.
	//
	// Returns:
	//   - []device.ContextID: the context ids
	Contexts() []device.ContextID

	// ChunkState returns the freshness of the chunk held for a context.
	//
	// Parameters:
	//   - id: the context id
	//
	// Returns:
	//   - cache.State: absent, dirty or fresh
	ChunkState(id device.ContextID) cache.State

	// GenerateTangents computes per-vertex tangents from positions, normals and texcoord0 on
	// an indexed mesh. Reads position, normal, texcoord0; writes tangent only.
	//
	// Returns:
	//   - error: a *PreconditionError (nothing written) or, after a complete write, a
	//     *DegenerateGeometryError listing zero-UV-area triangles
	GenerateTangents() error

	// IsUniqueVertex reports whether every face slot already refers to its own vertex:
	// true for non-indexed meshes, otherwise VertexCount == len(Faces).
	//
	// Returns:
	//   - bool: true if unique
	IsUniqueVertex() bool

	// GenerateUniqueVertex splits shared vertices so no two face slots reference the same
	// vertex. A no-op on non-indexed or already-unique meshes.
	//
	// Returns:
	//   - error: a *PreconditionError if positions are absent or faces are malformed
	GenerateUniqueVertex() error

	// GenerateBarycentric ensures vertex uniqueness, then fills the barycentric channel with
	// one-hot triangle corner markers.
	//
	// Returns:
	//   - error: a *PreconditionError if the mesh cannot be made unique
	GenerateBarycentric() error

	// ApplyTransform transforms positions by m and normals/tangents (xyz) by the
	// inverse-transpose of m's upper 3x3, and transforms the bounding box if present.
	// Directions are not renormalized.
	//
	// Parameters:
	//   - m: a column-major 4x4 affine matrix
	//
	// Returns:
	//   - error: a *PreconditionError if m is singular or positions are absent
	ApplyTransform(m []float32) error

	// ConvertToDynamic appends this mesh to a per-triangle / per-vertex list representation.
	// Device state is never copied.
	//
	// Parameters:
	//   - target: the representation to append to, or nil to allocate one
	//
	// Returns:
	//   - *DynamicGeometry: the populated target
	//   - error: a *PreconditionError on missing positions or mismatched target layouts
	ConvertToDynamic(target *DynamicGeometry) (*DynamicGeometry, error)
}

var _ StaticGeometry = &staticGeometry{}

// NewStaticGeometry creates a new StaticGeometry with the specified options applied.
// The mesh starts with every channel unpopulated, UseFace set, and a static usage hint.
//
// Parameters:
//   - options: a variadic list of StaticGeometryBuilderOption functions
//
// Returns:
//   - StaticGeometry: the new mesh
func NewStaticGeometry(options ...StaticGeometryBuilderOption) StaticGeometry {
	g := &staticGeometry{
		useFace: true,
		hint:    device.HintStatic,
	}
	for i := range g.attributes {
		g.attributes[i] = newAttribute(AttributeName(i))
	}
	for _, opt := range options {
		opt(g)
	}
	if g.chunks == nil {
		g.chunks = cache.NewChunkCache[device.ContextID, *BufferChunk]()
	}
	if g.logger == nil {
		g.logger = logging.Component("geometry")
	}
	if g.label != "" {
		g.logger = g.logger.WithField("mesh", g.label)
	}
	return g
}

func (g *staticGeometry) Label() string {
	return g.label
}

func (g *staticGeometry) Dirty() {
	g.enabled = nil
	g.enabledValid = false
	g.chunks.DirtyAll()
}

func (g *staticGeometry) Attribute(name AttributeName) *Attribute {
	if !name.Valid() {
		return nil
	}
	return &g.attributes[name]
}

func (g *staticGeometry) SetAttribute(name AttributeName, value []float32) error {
	if !name.Valid() {
		return fmt.Errorf("set attribute: %s is not a schema channel", name)
	}
	g.attributes[name].Value = value
	g.Dirty()
	return nil
}

func (g *staticGeometry) Faces() []uint32 {
	return g.faces
}

func (g *staticGeometry) SetFaces(faces []uint32) {
	g.faces = faces
	g.Dirty()
}

func (g *staticGeometry) UseFace() bool {
	return g.useFace
}

func (g *staticGeometry) SetUseFace(use bool) {
	g.useFace = use
	g.Dirty()
}

func (g *staticGeometry) IsIndexed() bool {
	return g.useFace && len(g.faces) > 0
}

func (g *staticGeometry) Hint() device.UsageHint {
	return g.hint
}

func (g *staticGeometry) SetHint(hint device.UsageHint) {
	g.hint = hint
	g.Dirty()
}

func (g *staticGeometry) BoundingBox() *common.BoundingBox {
	return g.boundingBox
}

func (g *staticGeometry) SetBoundingBox(box *common.BoundingBox) {
	g.boundingBox = box
}

func (g *staticGeometry) UpdateBoundingBox() error {
	positions := g.attributes[AttributePosition].Value
	if positions == nil {
		return preconditionf("update bounding box", "position attribute is required")
	}
	box := common.BoundingBoxFromPositions(positions)
	g.boundingBox = &box
	return nil
}

func (g *staticGeometry) VertexCount() int {
	return len(g.attributes[AttributePosition].Value) / 3
}

func (g *staticGeometry) FaceCount() int {
	return len(g.faces) / 3
}

func (g *staticGeometry) EnabledAttributes() ([]*Attribute, error) {
	if g.enabledValid {
		return g.enabled, nil
	}

	positions := g.attributes[AttributePosition].Value
	if positions == nil {
		return nil, preconditionf("enabled attributes", "position attribute is required to derive the vertex count")
	}
	if len(positions)%3 != 0 {
		return nil, preconditionf("enabled attributes", "position length %d is not a multiple of 3", len(positions))
	}

	vertexCount := len(positions) / 3
	enabled := make([]*Attribute, 0, attributeCount)
	for i := range g.attributes {
		if g.attributes[i].matches(vertexCount) {
			enabled = append(enabled, &g.attributes[i])
		}
	}

	g.enabled = enabled
	g.enabledValid = true
	return enabled, nil
}

// checkFaces validates that the index array describes whole triangles over vertexCount vertices.
func (g *staticGeometry) checkFaces(op string, vertexCount int) error {
	if len(g.faces)%3 != 0 {
		return preconditionf(op, "face array length %d is not a multiple of 3", len(g.faces))
	}
	for i, v := range g.faces {
		if int(v) >= vertexCount {
			return preconditionf(op, "face slot %d references vertex %d of %d", i, v, vertexCount)
		}
	}
	return nil
}
