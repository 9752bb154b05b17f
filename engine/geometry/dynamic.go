package geometry

import (
	"github.com/Carmen-Shannon/oxy-mesh/common"
)

// DynamicAttribute is one channel of a DynamicGeometry, stored as one slice per vertex.
type DynamicAttribute struct {
	Type     ComponentType
	Size     int
	Semantic string
	Value    [][]float32
}

// DynamicGeometry is an editable mesh held as per-triangle index triples and per-vertex
// attribute slices. It has no device state.
type DynamicGeometry struct {
	Faces       [][3]uint32
	Attributes  map[AttributeName]*DynamicAttribute
	BoundingBox *common.BoundingBox
}

// NewDynamicGeometry returns an empty DynamicGeometry.
func NewDynamicGeometry() *DynamicGeometry {
	return &DynamicGeometry{Attributes: make(map[AttributeName]*DynamicAttribute)}
}

// VertexCount returns the number of vertices in the position channel.
func (d *DynamicGeometry) VertexCount() int {
	if pos, ok := d.Attributes[AttributePosition]; ok {
		return len(pos.Value)
	}
	return 0
}

// ConvertToDynamic appends the triangles and enabled attributes of the mesh to target. Face
// indices are offset by the vertices target already holds. A non-indexed mesh contributes
// consecutive vertex triples as faces.
func (g *staticGeometry) ConvertToDynamic(target *DynamicGeometry) (*DynamicGeometry, error) {
	const op = "convert to dynamic"

	enabled, err := g.EnabledAttributes()
	if err != nil {
		return nil, err
	}
	vertexCount := g.VertexCount()
	if g.IsIndexed() {
		if err := g.checkFaces(op, vertexCount); err != nil {
			return nil, err
		}
	}

	if target == nil {
		target = NewDynamicGeometry()
	}
	if target.Attributes == nil {
		target.Attributes = make(map[AttributeName]*DynamicAttribute)
	}
	for _, attr := range enabled {
		if existing, ok := target.Attributes[attr.Name]; ok && existing.Size != attr.Size {
			return nil, preconditionf(op, "target %s has %d components, mesh has %d", attr.Name, existing.Size, attr.Size)
		}
	}

	offset := uint32(target.VertexCount())
	if g.IsIndexed() {
		for i := 0; i+2 < len(g.faces); i += 3 {
			target.Faces = append(target.Faces, [3]uint32{g.faces[i] + offset, g.faces[i+1] + offset, g.faces[i+2] + offset})
		}
	} else {
		for v := uint32(0); int(v)+2 < vertexCount; v += 3 {
			target.Faces = append(target.Faces, [3]uint32{v + offset, v + 1 + offset, v + 2 + offset})
		}
	}

	for _, attr := range enabled {
		dst, ok := target.Attributes[attr.Name]
		if !ok {
			dst = &DynamicAttribute{Type: attr.Type, Size: attr.Size, Semantic: attr.Semantic}
			target.Attributes[attr.Name] = dst
		}
		for v := 0; v < vertexCount; v++ {
			dst.Value = append(dst.Value, append([]float32(nil), attr.Value[v*attr.Size:(v+1)*attr.Size]...))
		}
	}

	if g.boundingBox != nil {
		if target.BoundingBox == nil {
			target.BoundingBox = g.boundingBox.Clone()
		} else {
			target.BoundingBox.Extend(*g.boundingBox)
		}
	}
	return target, nil
}
