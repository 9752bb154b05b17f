package geometry

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/chewxy/math32"
)

// TangentPolicy selects what GenerateTangents does with a triangle whose texture mapping has
// zero area, where the texture-space basis is undefined.
type TangentPolicy int

const (
	// TangentPolicySkip drops the triangle's contribution to its vertices.
	TangentPolicySkip TangentPolicy = iota
	// TangentPolicyBasis contributes the triangle's own geometric basis: the normalized first
	// edge as tangent and face normal × tangent as bitangent.
	TangentPolicyBasis
)

func (p TangentPolicy) String() string {
	switch p {
	case TangentPolicySkip:
		return "skip"
	case TangentPolicyBasis:
		return "basis"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParseTangentPolicy parses "skip" or "basis". The empty string yields TangentPolicySkip.
func ParseTangentPolicy(s string) (TangentPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "skip":
		return TangentPolicySkip, nil
	case "basis":
		return TangentPolicyBasis, nil
	default:
		return 0, fmt.Errorf("unknown tangent policy %q", s)
	}
}

type vec3 [3]float32

func (a vec3) sub(b vec3) vec3 {
	return vec3{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func (a vec3) add(b vec3) vec3 {
	return vec3{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

func (a vec3) scale(s float32) vec3 {
	return vec3{a[0] * s, a[1] * s, a[2] * s}
}

func (a vec3) dot(b vec3) float32 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func (a vec3) cross(b vec3) vec3 {
	return vec3{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// normalize returns a unit vector and true, or the zero vector and false for a (near) zero input.
func (a vec3) normalize() (vec3, bool) {
	l := math32.Sqrt(a.dot(a))
	if l < 1e-12 || math32.IsNaN(l) || math32.IsInf(l, 0) {
		return vec3{}, false
	}
	return a.scale(1 / l), true
}

func vec3At(values []float32, i int) vec3 {
	return vec3{values[i*3], values[i*3+1], values[i*3+2]}
}

// orthogonalTo returns a unit vector perpendicular to n, choosing the axis n is least aligned with.
func orthogonalTo(n vec3) vec3 {
	ax, ay, az := math32.Abs(n[0]), math32.Abs(n[1]), math32.Abs(n[2])
	axis := vec3{0, 0, 1}
	switch {
	case ax <= ay && ax <= az:
		axis = vec3{1, 0, 0}
	case ay <= az:
		axis = vec3{0, 1, 0}
	}
	t, ok := n.cross(axis).normalize()
	if !ok {
		return vec3{1, 0, 0}
	}
	return t
}

// sharesBacking reports whether the capacity ranges of a and b overlap in memory.
func sharesBacking(a, b []float32) bool {
	if cap(a) == 0 || cap(b) == 0 {
		return false
	}
	aLo, aHi := span(a)
	bLo, bHi := span(b)
	return aLo < bHi && bLo < aHi
}

// span returns the half-open address range of s up to its capacity.
func span(s []float32) (uintptr, uintptr) {
	lo := uintptr(unsafe.Pointer(unsafe.SliceData(s)))
	return lo, lo + uintptr(cap(s))*unsafe.Sizeof(float32(0))
}

func (g *staticGeometry) GenerateTangents() error {
	const op = "generate tangents"

	positions := g.attributes[AttributePosition].Value
	normals := g.attributes[AttributeNormal].Value
	uvs := g.attributes[AttributeTexcoord0].Value
	if positions == nil || len(positions)%3 != 0 {
		return preconditionf(op, "position attribute is required")
	}
	vertexCount := len(positions) / 3
	if !g.attributes[AttributeNormal].matches(vertexCount) {
		return preconditionf(op, "normal attribute is required for %d vertices", vertexCount)
	}
	if !g.attributes[AttributeTexcoord0].matches(vertexCount) {
		return preconditionf(op, "texcoord0 attribute is required for %d vertices", vertexCount)
	}
	if !g.IsIndexed() {
		return preconditionf(op, "mesh is not indexed")
	}
	if err := g.checkFaces(op, vertexCount); err != nil {
		return err
	}

	tangents := g.attributes[AttributeTangent].Value
	if len(tangents) != vertexCount*4 {
		tangents = make([]float32, vertexCount*4)
	} else {
		for _, in := range [][]float32{positions, normals, uvs} {
			if sharesBacking(tangents, in) {
				return preconditionf(op, "tangent array shares storage with an input attribute")
			}
		}
	}

	tan1 := make([]vec3, vertexCount)
	tan2 := make([]vec3, vertexCount)
	var degenerate []int

	for tri := 0; tri < len(g.faces)/3; tri++ {
		i1, i2, i3 := int(g.faces[tri*3]), int(g.faces[tri*3+1]), int(g.faces[tri*3+2])
		v1, v2, v3 := vec3At(positions, i1), vec3At(positions, i2), vec3At(positions, i3)

		e1 := v2.sub(v1)
		e2 := v3.sub(v1)

		s1 := uvs[i2*2] - uvs[i1*2]
		s2 := uvs[i3*2] - uvs[i1*2]
		t1 := uvs[i2*2+1] - uvs[i1*2+1]
		t2 := uvs[i3*2+1] - uvs[i1*2+1]

		var sdir, tdir vec3
		det := s1*t2 - s2*t1
		r := 1 / det
		if det == 0 || math32.IsInf(r, 0) || math32.IsNaN(r) {
			degenerate = append(degenerate, tri)
			if g.tangentPolicy != TangentPolicyBasis {
				continue
			}
			t, ok := e1.normalize()
			if !ok {
				continue
			}
			fn, ok := e1.cross(e2).normalize()
			if !ok {
				continue
			}
			sdir, tdir = t, fn.cross(t)
		} else {
			sdir = e1.scale(t2).sub(e2.scale(t1)).scale(r)
			tdir = e2.scale(s1).sub(e1.scale(s2)).scale(r)
		}

		for _, i := range [3]int{i1, i2, i3} {
			tan1[i] = tan1[i].add(sdir)
			tan2[i] = tan2[i].add(tdir)
		}
	}

	for i := 0; i < vertexCount; i++ {
		n := vec3At(normals, i)
		t := tan1[i]

		// Gram-Schmidt orthogonalize
		ortho, ok := t.sub(n.scale(n.dot(t))).normalize()
		w := float32(1)
		if !ok {
			ortho = orthogonalTo(n)
		} else if n.cross(t).dot(tan2[i]) < 0 {
			w = -1
		}

		tangents[i*4] = ortho[0]
		tangents[i*4+1] = ortho[1]
		tangents[i*4+2] = ortho[2]
		tangents[i*4+3] = w
	}

	g.attributes[AttributeTangent].Value = tangents
	g.Dirty()

	if len(degenerate) > 0 {
		g.logger.WithField("triangles", len(degenerate)).Debug("[Geometry] tangent generation hit degenerate texture mapping")
		return &DegenerateGeometryError{Op: op, Triangles: degenerate, Policy: g.tangentPolicy}
	}
	return nil
}
