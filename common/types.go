// package common contains common types that are used throughout this module. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import "math"

// BoundingBox is an axis-aligned box described by its minimum and maximum corners.
type BoundingBox struct {
	// Min is the minimum corner.
	Min [3]float32
	// Max is the maximum corner.
	Max [3]float32
}

// BoundingBoxFromPositions computes the box enclosing a flat xyz position array.
// An empty array yields a zero box.
//
// Parameters:
//   - positions: flat position data, 3 floats per vertex
//
// Returns:
//   - BoundingBox: the enclosing box
func BoundingBoxFromPositions(positions []float32) BoundingBox {
	if len(positions) < 3 {
		return BoundingBox{}
	}

	b := BoundingBox{
		Min: [3]float32{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32},
		Max: [3]float32{-math.MaxFloat32, -math.MaxFloat32, -math.MaxFloat32},
	}
	for i := 0; i+2 < len(positions); i += 3 {
		for j := 0; j < 3; j++ {
			v := positions[i+j]
			if v < b.Min[j] {
				b.Min[j] = v
			}
			if v > b.Max[j] {
				b.Max[j] = v
			}
		}
	}
	return b
}

// Corners returns the eight corners of the box.
func (b BoundingBox) Corners() [8][3]float32 {
	var c [8][3]float32
	for i := range c {
		for axis := 0; axis < 3; axis++ {
			if i&(1<<axis) != 0 {
				c[i][axis] = b.Max[axis]
			} else {
				c[i][axis] = b.Min[axis]
			}
		}
	}
	return c
}

// ApplyTransform replaces the box with the axis-aligned box enclosing its eight
// corners transformed by m.
//
// Parameters:
//   - m: a column-major affine matrix (16 elements)
func (b *BoundingBox) ApplyTransform(m []float32) {
	corners := b.Corners()
	first := TransformPoint(m, corners[0])
	b.Min, b.Max = first, first
	for _, c := range corners[1:] {
		p := TransformPoint(m, c)
		for axis := 0; axis < 3; axis++ {
			b.Min[axis] = min(b.Min[axis], p[axis])
			b.Max[axis] = max(b.Max[axis], p[axis])
		}
	}
}

// Clone returns a copy of the box, or nil for a nil box.
func (b *BoundingBox) Clone() *BoundingBox {
	if b == nil {
		return nil
	}
	c := *b
	return &c
}

// Extend grows the box to also enclose other.
func (b *BoundingBox) Extend(other BoundingBox) {
	for axis := 0; axis < 3; axis++ {
		b.Min[axis] = min(b.Min[axis], other.Min[axis])
		b.Max[axis] = max(b.Max[axis], other.Max[axis])
	}
}
