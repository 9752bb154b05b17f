// Package shapes builds ready-to-upload StaticGeometry meshes: a few analytic primitives and
// marching-cubes tessellations of signed distance fields.
//
// Every mesh is indexed and carries position, normal and texcoord0 plus a bounding box.
// Extra geometry options (label, hint, logger) are applied after the shape's own data.
package shapes

import (
	"errors"
	"fmt"
	"math"

	"github.com/Carmen-Shannon/oxy-mesh/common"
	"github.com/Carmen-Shannon/oxy-mesh/engine/geometry"

	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// ErrEmptyMesh is returned when a signed distance field tessellates to no triangles.
var ErrEmptyMesh = errors.New("shape produced no triangles")

// build assembles the mesh and its bounding box from flat arrays.
func build(positions, normals, uvs []float32, faces []uint32, options []geometry.StaticGeometryBuilderOption) geometry.StaticGeometry {
	box := common.BoundingBoxFromPositions(positions)
	opts := []geometry.StaticGeometryBuilderOption{
		geometry.WithAttribute(geometry.AttributePosition, positions),
		geometry.WithAttribute(geometry.AttributeNormal, normals),
		geometry.WithAttribute(geometry.AttributeTexcoord0, uvs),
		geometry.WithFaces(faces),
		geometry.WithBoundingBox(&box),
	}
	return geometry.NewStaticGeometry(append(opts, options...)...)
}

// Quad creates a w × h rectangle in the XY plane centered on the origin and facing +Z.
//
// Parameters:
//   - w: width along X
//   - h: height along Y
//   - options: extra geometry options
//
// Returns:
//   - geometry.StaticGeometry: a 4-vertex, 2-triangle mesh
func Quad(w, h float32, options ...geometry.StaticGeometryBuilderOption) geometry.StaticGeometry {
	hw, hh := w/2, h/2
	positions := []float32{
		-hw, -hh, 0,
		hw, -hh, 0,
		hw, hh, 0,
		-hw, hh, 0,
	}
	normals := []float32{
		0, 0, 1,
		0, 0, 1,
		0, 0, 1,
		0, 0, 1,
	}
	uvs := []float32{
		0, 0,
		1, 0,
		1, 1,
		0, 1,
	}
	return build(positions, normals, uvs, []uint32{0, 1, 2, 0, 2, 3}, options)
}

// cubeFaces lists, per face, the outward normal and the two in-plane axes spanning it (u, v)
// such that u × v == normal.
var cubeFaces = [6][3][3]float32{
	{{1, 0, 0}, {0, 0, -1}, {0, 1, 0}},
	{{-1, 0, 0}, {0, 0, 1}, {0, 1, 0}},
	{{0, 1, 0}, {1, 0, 0}, {0, 0, -1}},
	{{0, -1, 0}, {1, 0, 0}, {0, 0, 1}},
	{{0, 0, 1}, {1, 0, 0}, {0, 1, 0}},
	{{0, 0, -1}, {-1, 0, 0}, {0, 1, 0}},
}

// Cube creates an axis-aligned cube centered on the origin. Each face has its own four
// vertices so normals and texture coordinates are not shared across edges.
//
// Parameters:
//   - size: the edge length
//   - options: extra geometry options
//
// Returns:
//   - geometry.StaticGeometry: a 24-vertex, 12-triangle mesh
func Cube(size float32, options ...geometry.StaticGeometryBuilderOption) geometry.StaticGeometry {
	half := size / 2
	positions := make([]float32, 0, 24*3)
	normals := make([]float32, 0, 24*3)
	uvs := make([]float32, 0, 24*2)
	faces := make([]uint32, 0, 36)

	corners := [4][2]float32{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}}
	for f, face := range cubeFaces {
		n, u, v := face[0], face[1], face[2]
		for _, c := range corners {
			for axis := 0; axis < 3; axis++ {
				positions = append(positions, (n[axis]+c[0]*u[axis]+c[1]*v[axis])*half)
			}
			normals = append(normals, n[0], n[1], n[2])
			uvs = append(uvs, (c[0]+1)/2, (c[1]+1)/2)
		}
		base := uint32(f * 4)
		faces = append(faces, base, base+1, base+2, base, base+2, base+3)
	}
	return build(positions, normals, uvs, faces, options)
}

// Sphere creates a UV sphere centered on the origin. The seam column is duplicated so
// texture coordinates wrap cleanly.
//
// Parameters:
//   - radius: the sphere radius
//   - rings: latitude subdivisions (at least 2)
//   - segments: longitude subdivisions (at least 3)
//   - options: extra geometry options
//
// Returns:
//   - geometry.StaticGeometry: the sphere mesh
//   - error: error if rings or segments are too small
func Sphere(radius float32, rings, segments int, options ...geometry.StaticGeometryBuilderOption) (geometry.StaticGeometry, error) {
	if rings < 2 || segments < 3 {
		return nil, fmt.Errorf("sphere needs at least 2 rings and 3 segments, got %d and %d", rings, segments)
	}

	vertexCount := (rings + 1) * (segments + 1)
	positions := make([]float32, 0, vertexCount*3)
	normals := make([]float32, 0, vertexCount*3)
	uvs := make([]float32, 0, vertexCount*2)

	for r := 0; r <= rings; r++ {
		phi := math.Pi * float64(r) / float64(rings)
		for s := 0; s <= segments; s++ {
			theta := 2 * math.Pi * float64(s) / float64(segments)
			x := float32(math.Sin(phi) * math.Cos(theta))
			y := float32(math.Cos(phi))
			z := float32(-math.Sin(phi) * math.Sin(theta))

			positions = append(positions, x*radius, y*radius, z*radius)
			normals = append(normals, x, y, z)
			uvs = append(uvs, float32(s)/float32(segments), 1-float32(r)/float32(rings))
		}
	}

	faces := make([]uint32, 0, rings*segments*6)
	stride := uint32(segments + 1)
	for r := 0; r < rings; r++ {
		for s := 0; s < segments; s++ {
			a := uint32(r)*stride + uint32(s)
			b := a + stride
			// The pole rows collapse to a point; skip their zero-area triangle.
			if r != 0 {
				faces = append(faces, a, b, a+1)
			}
			if r != rings-1 {
				faces = append(faces, a+1, b, b+1)
			}
		}
	}
	return build(positions, normals, uvs, faces, options), nil
}

// FromSDF tessellates s with uniform marching cubes. Every triangle gets its own three
// vertices carrying the face normal. Texture coordinates are a box projection along each
// triangle's dominant normal axis, normalized to the field's bounding box.
//
// Parameters:
//   - s: the signed distance field
//   - cells: marching cubes cells along the longest bounding box axis
//   - options: extra geometry options
//
// Returns:
//   - geometry.StaticGeometry: the tessellated mesh
//   - error: ErrEmptyMesh if the field produced no triangles
func FromSDF(s sdf.SDF3, cells int, options ...geometry.StaticGeometryBuilderOption) (geometry.StaticGeometry, error) {
	if cells <= 0 {
		return nil, fmt.Errorf("marching cubes needs a positive cell count, got %d", cells)
	}

	renderer := render.NewMarchingCubesUniform(cells)
	triangles := render.ToTriangles(s, renderer)
	if len(triangles) == 0 {
		return nil, ErrEmptyMesh
	}

	bb := s.BoundingBox()
	lo := [3]float64{bb.Min.X, bb.Min.Y, bb.Min.Z}
	size := [3]float64{bb.Max.X - bb.Min.X, bb.Max.Y - bb.Min.Y, bb.Max.Z - bb.Min.Z}
	for i := range size {
		if size[i] == 0 {
			size[i] = 1
		}
	}

	vertexCount := len(triangles) * 3
	positions := make([]float32, 0, vertexCount*3)
	normals := make([]float32, 0, vertexCount*3)
	uvs := make([]float32, 0, vertexCount*2)
	faces := make([]uint32, 0, vertexCount)

	for i, tri := range triangles {
		n := tri.Normal()
		u, v := projectionAxes(n)

		for j := 0; j < 3; j++ {
			p := [3]float64{tri[j].X, tri[j].Y, tri[j].Z}
			positions = append(positions, float32(p[0]), float32(p[1]), float32(p[2]))
			normals = append(normals, float32(n.X), float32(n.Y), float32(n.Z))
			uvs = append(uvs,
				float32((p[u]-lo[u])/size[u]),
				float32((p[v]-lo[v])/size[v]),
			)
			faces = append(faces, uint32(i*3+j))
		}
	}
	return build(positions, normals, uvs, faces, options), nil
}

// projectionAxes returns the two axes orthogonal to the dominant component of n.
func projectionAxes(n v3.Vec) (int, int) {
	ax, ay, az := math.Abs(n.X), math.Abs(n.Y), math.Abs(n.Z)
	switch {
	case ax >= ay && ax >= az:
		return 2, 1
	case ay >= az:
		return 0, 2
	default:
		return 0, 1
	}
}

// Box tessellates a box centered on the origin with optionally rounded edges.
//
// Parameters:
//   - x, y, z: the box dimensions
//   - round: the edge rounding radius
//   - cells: marching cubes resolution
//   - options: extra geometry options
//
// Returns:
//   - geometry.StaticGeometry: the tessellated mesh
//   - error: error if the dimensions are invalid or nothing was produced
func Box(x, y, z, round float64, cells int, options ...geometry.StaticGeometryBuilderOption) (geometry.StaticGeometry, error) {
	s, err := sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, round)
	if err != nil {
		return nil, fmt.Errorf("box: %w", err)
	}
	return FromSDF(s, cells, options...)
}

// Cylinder tessellates a Z-aligned cylinder centered on the origin.
//
// Parameters:
//   - height: the cylinder height
//   - radius: the cylinder radius
//   - round: the edge rounding radius
//   - cells: marching cubes resolution
//   - options: extra geometry options
//
// Returns:
//   - geometry.StaticGeometry: the tessellated mesh
//   - error: error if the dimensions are invalid or nothing was produced
func Cylinder(height, radius, round float64, cells int, options ...geometry.StaticGeometryBuilderOption) (geometry.StaticGeometry, error) {
	s, err := sdf.Cylinder3D(height, radius, round)
	if err != nil {
		return nil, fmt.Errorf("cylinder: %w", err)
	}
	return FromSDF(s, cells, options...)
}
