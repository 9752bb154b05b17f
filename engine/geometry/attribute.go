package geometry

import (
	"fmt"
	"strings"
)

// AttributeName is one of the fixed per-vertex channels a StaticGeometry can hold.
type AttributeName int

const (
	// AttributePosition is the object-space vertex position (xyz).
	AttributePosition AttributeName = iota
	// AttributeTexcoord0 is the primary texture coordinate set (uv).
	AttributeTexcoord0
	// AttributeTexcoord1 is the secondary texture coordinate set (uv).
	AttributeTexcoord1
	// AttributeNormal is the vertex normal (xyz).
	AttributeNormal
	// AttributeTangent is the tangent direction (xyz) plus bitangent handedness (w = ±1).
	AttributeTangent
	// AttributeColor is the per-vertex RGBA color.
	AttributeColor
	// AttributeWeight holds three skin weights; the fourth is 1 - x - y - z.
	AttributeWeight
	// AttributeJoint holds up to four skin joint indices.
	AttributeJoint
	// AttributeBarycentric holds the one-hot triangle corner marker used for wireframe overlays.
	AttributeBarycentric

	attributeCount
)

// ComponentType is the scalar storage type of an attribute's components.
type ComponentType int

const (
	// Float32 components are IEEE-754 single precision floats.
	Float32 ComponentType = iota
)

// String returns the device-facing type name.
func (c ComponentType) String() string {
	if c == Float32 {
		return "float"
	}
	return fmt.Sprintf("type(%d)", int(c))
}

// attributeSpec is the declared layout of one channel.
type attributeSpec struct {
	name     string
	size     int
	semantic string
}

var schema = [attributeCount]attributeSpec{
	AttributePosition:    {"position", 3, "POSITION"},
	AttributeTexcoord0:   {"texcoord0", 2, "TEXCOORD_0"},
	AttributeTexcoord1:   {"texcoord1", 2, "TEXCOORD_1"},
	AttributeNormal:      {"normal", 3, "NORMAL"},
	AttributeTangent:     {"tangent", 4, "TANGENT"},
	AttributeColor:       {"color", 4, "COLOR"},
	AttributeWeight:      {"weight", 3, "WEIGHT"},
	AttributeJoint:       {"joint", 4, "JOINT"},
	AttributeBarycentric: {"barycentric", 3, ""},
}

// Valid reports whether n names a channel in the schema.
func (n AttributeName) Valid() bool {
	return n >= 0 && n < attributeCount
}

// String returns the channel name, e.g. "texcoord0".
func (n AttributeName) String() string {
	if !n.Valid() {
		return fmt.Sprintf("attribute(%d)", int(n))
	}
	return schema[n].name
}

// Size returns the number of components per vertex for the channel, or 0 if n is invalid.
func (n AttributeName) Size() int {
	if !n.Valid() {
		return 0
	}
	return schema[n].size
}

// Semantic returns the device binding name for the channel, which may be empty.
func (n AttributeName) Semantic() string {
	if !n.Valid() {
		return ""
	}
	return schema[n].semantic
}

// AttributeNames returns every channel in schema order.
func AttributeNames() []AttributeName {
	names := make([]AttributeName, attributeCount)
	for i := range names {
		names[i] = AttributeName(i)
	}
	return names
}

// ParseAttributeName resolves a channel by name (case-insensitive) or semantic.
//
// Parameters:
//   - s: the channel name or semantic, e.g. "normal" or "TEXCOORD_0"
//
// Returns:
//   - AttributeName: the channel
//   - error: error if no channel matches
func ParseAttributeName(s string) (AttributeName, error) {
	for i, entry := range schema {
		if strings.EqualFold(s, entry.name) || (entry.semantic != "" && strings.EqualFold(s, entry.semantic)) {
			return AttributeName(i), nil
		}
	}
	return 0, fmt.Errorf("unknown attribute %q", s)
}

// Attribute is one per-vertex data channel. Value is a flat array of VertexCount * Size
// components, or nil when the channel is unpopulated.
type Attribute struct {
	Name     AttributeName
	Type     ComponentType
	Size     int
	Semantic string
	Value    []float32
}

// newAttribute returns the empty attribute declared by the schema for name.
func newAttribute(name AttributeName) Attribute {
	return Attribute{
		Name:     name,
		Type:     Float32,
		Size:     name.Size(),
		Semantic: name.Semantic(),
	}
}

// matches reports whether the attribute is populated for exactly vertexCount vertices.
func (a *Attribute) matches(vertexCount int) bool {
	return a.Value != nil && len(a.Value) == vertexCount*a.Size
}
