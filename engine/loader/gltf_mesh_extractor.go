package loader

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-mesh/engine/geometry"

	"github.com/chewxy/math32"
)

// gltfSemantics maps the glTF attribute semantics the importer understands to schema channels.
var gltfSemantics = map[string]geometry.AttributeName{
	"POSITION":   geometry.AttributePosition,
	"NORMAL":     geometry.AttributeNormal,
	"TANGENT":    geometry.AttributeTangent,
	"TEXCOORD_0": geometry.AttributeTexcoord0,
	"TEXCOORD_1": geometry.AttributeTexcoord1,
	"COLOR_0":    geometry.AttributeColor,
	"WEIGHTS_0":  geometry.AttributeWeight,
	"JOINTS_0":   geometry.AttributeJoint,
}

// gltfMeshExtractorImpl is the implementation of the gltfMeshExtractor interface.
type gltfMeshExtractorImpl struct {
	parser gltfParser
}

// gltfMeshExtractor converts the primitives of a parsed glTF document into importedMesh values.
type gltfMeshExtractor interface {
	// ExtractMesh extracts one importedMesh per triangle primitive of a mesh.
	//
	// Parameters:
	//   - meshIndex: the index of the mesh to extract
	//
	// Returns:
	//   - []importedMesh: one entry per primitive
	//   - error: error if extraction fails
	ExtractMesh(meshIndex int) ([]importedMesh, error)

	// ExtractAllMeshes extracts every mesh in document order, flattened to one entry per primitive.
	//
	// Returns:
	//   - []importedMesh: all primitives
	//   - error: error if extraction fails
	ExtractAllMeshes() ([]importedMesh, error)
}

var _ gltfMeshExtractor = &gltfMeshExtractorImpl{}

// newGLTFMeshExtractor creates a new mesh extractor for a parsed document.
//
// Parameters:
//   - parser: the parser containing a loaded document
//
// Returns:
//   - gltfMeshExtractor: the mesh extractor
func newGLTFMeshExtractor(parser gltfParser) gltfMeshExtractor {
	return &gltfMeshExtractorImpl{parser: parser}
}

func (e *gltfMeshExtractorImpl) ExtractMesh(meshIndex int) ([]importedMesh, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, errNoDocument
	}
	if meshIndex < 0 || meshIndex >= len(doc.Meshes) {
		return nil, fmt.Errorf("mesh index %d out of range", meshIndex)
	}

	mesh := &doc.Meshes[meshIndex]
	base := mesh.Name
	if base == "" {
		base = fmt.Sprintf("mesh_%d", meshIndex)
	}

	result := make([]importedMesh, 0, len(mesh.Primitives))
	for primIdx := range mesh.Primitives {
		name := base
		if primIdx > 0 {
			name = fmt.Sprintf("%s_prim%d", base, primIdx)
		}
		imported, err := e.extractPrimitive(&mesh.Primitives[primIdx], name)
		if err != nil {
			return nil, fmt.Errorf("mesh %d primitive %d: %w", meshIndex, primIdx, err)
		}
		result = append(result, imported)
	}
	return result, nil
}

func (e *gltfMeshExtractorImpl) ExtractAllMeshes() ([]importedMesh, error) {
	doc := e.parser.Document()
	if doc == nil {
		return nil, errNoDocument
	}

	var all []importedMesh
	for i := range doc.Meshes {
		meshes, err := e.ExtractMesh(i)
		if err != nil {
			return nil, err
		}
		all = append(all, meshes...)
	}
	return all, nil
}

// extractPrimitive reads every known attribute and the index list of one primitive.
func (e *gltfMeshExtractorImpl) extractPrimitive(prim *gltfPrimitive, name string) (importedMesh, error) {
	out := importedMesh{name: name, attributes: make(map[geometry.AttributeName][]float32)}

	if prim.Mode != nil && *prim.Mode != gltfPrimitiveModeTriangles {
		return out, fmt.Errorf("unsupported primitive mode: %d (only triangles supported)", *prim.Mode)
	}

	posAccessor, ok := prim.Attributes["POSITION"]
	if !ok {
		return out, fmt.Errorf("primitive has no POSITION attribute")
	}
	positions, err := e.readChannel(posAccessor, geometry.AttributePosition)
	if err != nil {
		return out, fmt.Errorf("POSITION: %w", err)
	}
	vertexCount := len(positions) / 3
	out.attributes[geometry.AttributePosition] = positions

	for semantic, accessor := range prim.Attributes {
		channel, known := gltfSemantics[semantic]
		if !known || channel == geometry.AttributePosition {
			continue
		}
		values, err := e.readChannel(accessor, channel)
		if err != nil {
			return out, fmt.Errorf("%s: %w", semantic, err)
		}
		if len(values) != vertexCount*channel.Size() {
			return out, fmt.Errorf("%s has %d elements, want %d", semantic, len(values)/channel.Size(), vertexCount)
		}
		out.attributes[channel] = values
	}

	if prim.Indices != nil {
		faces, err := e.parser.ReadIndices(*prim.Indices)
		if err != nil {
			return out, fmt.Errorf("indices: %w", err)
		}
		for _, f := range faces {
			if int(f) >= vertexCount {
				return out, fmt.Errorf("index %d out of range for %d vertices", f, vertexCount)
			}
		}
		out.faces = faces
	}

	triangleCorners := len(out.faces)
	if out.faces == nil {
		triangleCorners = vertexCount
	}
	if triangleCorners%3 != 0 {
		return out, fmt.Errorf("%d corners do not form whole triangles", triangleCorners)
	}

	if _, ok := out.attributes[geometry.AttributeNormal]; !ok && vertexCount > 0 {
		out.attributes[geometry.AttributeNormal] = generateNormals(positions, out.faces)
	}
	return out, nil
}

// readChannel decodes an accessor and reshapes it to the channel's component count.
// VEC3 colors gain an opaque alpha; VEC4 weights drop the fourth weight, which the
// schema derives as 1 - x - y - z.
func (e *gltfMeshExtractorImpl) readChannel(accessor int, channel geometry.AttributeName) ([]float32, error) {
	values, components, err := e.parser.ReadFloats(accessor)
	if err != nil {
		return nil, err
	}

	want := channel.Size()
	switch {
	case components == want:
		return values, nil
	case channel == geometry.AttributeColor && components == 3:
		return reshape(values, 3, 4, 1), nil
	case channel == geometry.AttributeWeight && components == 4:
		return reshape(values, 4, 3, 0), nil
	default:
		return nil, fmt.Errorf("accessor has %d components, want %d", components, want)
	}
}

// reshape copies elements of size from into elements of size to, truncating extra
// components or padding missing ones with fill.
func reshape(values []float32, from, to int, fill float32) []float32 {
	count := len(values) / from
	out := make([]float32, count*to)
	for i := 0; i < count; i++ {
		for c := 0; c < to; c++ {
			if c < from {
				out[i*to+c] = values[i*from+c]
			} else {
				out[i*to+c] = fill
			}
		}
	}
	return out
}

// generateNormals computes smooth vertex normals when a primitive carries no NORMAL
// attribute. Face normals are accumulated unnormalized so larger triangles weigh more.
// Vertices touched by no triangle, or whose accumulated normal vanishes, get +Y.
//
// Parameters:
//   - positions: flat xyz positions
//   - faces: triangle indices, or nil for consecutive triples
//
// Returns:
//   - []float32: flat xyz normals, one per vertex
func generateNormals(positions []float32, faces []uint32) []float32 {
	n := len(positions) / 3
	accum := make([]float32, n*3)

	corner := func(i int) int {
		if faces == nil {
			return i
		}
		return int(faces[i])
	}
	corners := n
	if faces != nil {
		corners = len(faces)
	}

	for t := 0; t+2 < corners; t += 3 {
		i0, i1, i2 := corner(t), corner(t+1), corner(t+2)

		e1 := [3]float32{
			positions[i1*3] - positions[i0*3],
			positions[i1*3+1] - positions[i0*3+1],
			positions[i1*3+2] - positions[i0*3+2],
		}
		e2 := [3]float32{
			positions[i2*3] - positions[i0*3],
			positions[i2*3+1] - positions[i0*3+1],
			positions[i2*3+2] - positions[i0*3+2],
		}
		face := [3]float32{
			e1[1]*e2[2] - e1[2]*e2[1],
			e1[2]*e2[0] - e1[0]*e2[2],
			e1[0]*e2[1] - e1[1]*e2[0],
		}

		for _, v := range [3]int{i0, i1, i2} {
			accum[v*3] += face[0]
			accum[v*3+1] += face[1]
			accum[v*3+2] += face[2]
		}
	}

	for v := 0; v < n; v++ {
		x, y, z := accum[v*3], accum[v*3+1], accum[v*3+2]
		length := math32.Sqrt(x*x + y*y + z*z)
		if length < 1e-6 {
			accum[v*3], accum[v*3+1], accum[v*3+2] = 0, 1, 0
			continue
		}
		accum[v*3], accum[v*3+1], accum[v*3+2] = x/length, y/length, z/length
	}
	return accum
}
