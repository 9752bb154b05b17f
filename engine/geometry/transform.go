package geometry

import (
	"github.com/Carmen-Shannon/oxy-mesh/common"
)

func (g *staticGeometry) ApplyTransform(m []float32) error {
	const op = "apply transform"

	if len(m) != 16 {
		return preconditionf(op, "matrix has %d elements, want 16", len(m))
	}
	positions := g.attributes[AttributePosition].Value
	if positions == nil || len(positions)%3 != 0 {
		return preconditionf(op, "position attribute is required")
	}
	normalMatrix := make([]float32, 16)
	if !common.NormalMatrix(normalMatrix, m) {
		return preconditionf(op, "matrix is singular")
	}

	for i := 0; i+2 < len(positions); i += 3 {
		p := common.TransformPoint(m, [3]float32{positions[i], positions[i+1], positions[i+2]})
		copy(positions[i:i+3], p[:])
	}

	vertexCount := len(positions) / 3
	if normal := &g.attributes[AttributeNormal]; normal.matches(vertexCount) {
		transformDirections(normalMatrix, normal.Value, 3)
	}
	if tangent := &g.attributes[AttributeTangent]; tangent.matches(vertexCount) {
		transformDirections(normalMatrix, tangent.Value, 4)
	}

	if g.boundingBox != nil {
		g.boundingBox.ApplyTransform(m)
	}

	g.Dirty()
	return nil
}

// transformDirections transforms the xyz of every stride-sized element of values by the upper
// 3x3 of m. Components past xyz are left as they are.
func transformDirections(m, values []float32, stride int) {
	for i := 0; i+stride <= len(values); i += stride {
		d := common.TransformDirection(m, [3]float32{values[i], values[i+1], values[i+2]})
		copy(values[i:i+3], d[:])
	}
}
