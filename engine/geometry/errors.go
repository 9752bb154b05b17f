package geometry

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-mesh/engine/device"
)

var (
	// ErrPrecondition matches every *PreconditionError.
	ErrPrecondition = errors.New("precondition failed")
	// ErrDegenerateGeometry matches every *DegenerateGeometryError.
	ErrDegenerateGeometry = errors.New("degenerate geometry")
	// ErrDeviceResource matches every *DeviceResourceError.
	ErrDeviceResource = errors.New("device resource failure")
)

// PreconditionError reports that an operation was called on a mesh missing data it requires.
// The mesh is left unmodified.
type PreconditionError struct {
	Op     string
	Reason string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

func (e *PreconditionError) Unwrap() error {
	return ErrPrecondition
}

func preconditionf(op, format string, args ...any) error {
	return &PreconditionError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

// DegenerateGeometryError reports triangles whose texture mapping has zero area. It is
// recoverable: the operation completed and wrote finite values under Policy.
type DegenerateGeometryError struct {
	Op        string
	Triangles []int
	Policy    TangentPolicy
}

func (e *DegenerateGeometryError) Error() string {
	return fmt.Sprintf("%s: %d triangle(s) with zero texture-space area (policy %s)", e.Op, len(e.Triangles), e.Policy)
}

func (e *DegenerateGeometryError) Unwrap() error {
	return ErrDegenerateGeometry
}

// DeviceResourceError wraps a driver failure raised while building a context's buffers.
type DeviceResourceError struct {
	Op        string
	Context   device.ContextID
	Attribute string
	Err       error
}

func (e *DeviceResourceError) Error() string {
	if e.Attribute != "" {
		return fmt.Sprintf("%s (context %d, %s): %v", e.Op, e.Context, e.Attribute, e.Err)
	}
	return fmt.Sprintf("%s (context %d): %v", e.Op, e.Context, e.Err)
}

func (e *DeviceResourceError) Unwrap() []error {
	return []error{ErrDeviceResource, e.Err}
}
