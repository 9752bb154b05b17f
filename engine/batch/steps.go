package batch

import (
	"github.com/Carmen-Shannon/oxy-mesh/engine/geometry"
)

// Step is one named operation applied to a mesh by Run.
type Step struct {
	Name  string
	Apply func(geometry.StaticGeometry) error
}

// GenerateTangents returns a step that calls StaticGeometry.GenerateTangents.
func GenerateTangents() Step {
	return Step{Name: "generate tangents", Apply: geometry.StaticGeometry.GenerateTangents}
}

// GenerateUniqueVertex returns a step that calls StaticGeometry.GenerateUniqueVertex.
func GenerateUniqueVertex() Step {
	return Step{Name: "generate unique vertex", Apply: geometry.StaticGeometry.GenerateUniqueVertex}
}

// GenerateBarycentric returns a step that calls StaticGeometry.GenerateBarycentric.
func GenerateBarycentric() Step {
	return Step{Name: "generate barycentric", Apply: geometry.StaticGeometry.GenerateBarycentric}
}

// UpdateBoundingBox returns a step that calls StaticGeometry.UpdateBoundingBox.
func UpdateBoundingBox() Step {
	return Step{Name: "update bounding box", Apply: geometry.StaticGeometry.UpdateBoundingBox}
}

// ApplyTransform returns a step that applies a copy of m to each mesh.
func ApplyTransform(m []float32) Step {
	matrix := append([]float32(nil), m...)
	return Step{
		Name: "apply transform",
		Apply: func(g geometry.StaticGeometry) error {
			return g.ApplyTransform(matrix)
		},
	}
}
