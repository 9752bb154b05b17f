// Package device defines the rendering-device collaborator that owns GPU buffers, and a
// WebGPU-backed implementation of it.
package device

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
)

// ContextID identifies one rendering-device context. IDs are process-unique and stable for
// the lifetime of the context, so they are safe to use as cache keys.
type ContextID uint64

// BufferHandle is an opaque, device-issued name for a GPU buffer. The zero handle is never
// issued.
type BufferHandle uint32

// BufferTarget selects the binding point a buffer is bound to.
type BufferTarget int

const (
	// TargetVertexAttribute binds per-vertex attribute data.
	TargetVertexAttribute BufferTarget = iota
	// TargetIndex binds triangle index data.
	TargetIndex
)

// String returns a readable name for the target.
func (t BufferTarget) String() string {
	switch t {
	case TargetVertexAttribute:
		return "vertex"
	case TargetIndex:
		return "index"
	default:
		return fmt.Sprintf("target(%d)", int(t))
	}
}

// UsageHint tells the device how often a buffer's contents are expected to change.
type UsageHint int

const (
	// HintStatic marks data written once and drawn many times.
	HintStatic UsageHint = iota
	// HintDynamic marks data rewritten frequently.
	HintDynamic
)

// String returns the config-file spelling of the hint.
func (h UsageHint) String() string {
	switch h {
	case HintStatic:
		return "static"
	case HintDynamic:
		return "dynamic"
	default:
		return fmt.Sprintf("hint(%d)", int(h))
	}
}

// ParseUsageHint parses "static" or "dynamic" (case-insensitive).
//
// Parameters:
//   - s: the hint name
//
// Returns:
//   - UsageHint: the parsed hint
//   - error: error if the name is unknown
func ParseUsageHint(s string) (UsageHint, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "static", "":
		return HintStatic, nil
	case "dynamic":
		return HintDynamic, nil
	default:
		return HintStatic, fmt.Errorf("unknown usage hint %q", s)
	}
}

var (
	// ErrUnknownBuffer is returned when a handle was never issued by the device or was deleted.
	ErrUnknownBuffer = errors.New("unknown buffer handle")
	// ErrNoBoundBuffer is returned by BufferData when nothing is bound to the target.
	ErrNoBoundBuffer = errors.New("no buffer bound to target")
	// ErrDeviceReleased is returned by any call made after the device was released.
	ErrDeviceReleased = errors.New("device released")
)

var lastContextID atomic.Uint64

// NextContextID returns a new process-unique context identifier.
//
// Returns:
//   - ContextID: an identifier never returned before in this process
func NextContextID() ContextID {
	return ContextID(lastContextID.Add(1))
}

// Device is the rendering-device driver collaborator. Implementations upload synchronously
// from the caller's point of view and never block on GPU completion.
//
// Usage pattern (GL-style bind-then-upload):
//  1. CreateBuffer issues a handle
//  2. BindBuffer makes the handle current for a target
//  3. BufferData uploads bytes to whatever is bound to that target
//  4. DeleteBuffer releases the handle
type Device interface {
	// ID returns the context identifier used as the chunk cache key.
	//
	// Returns:
	//   - ContextID: the process-unique context id
	ID() ContextID

	// CreateBuffer issues a new buffer handle.
	//
	// Returns:
	//   - BufferHandle: the new handle
	//   - error: error if the device cannot allocate
	CreateBuffer() (BufferHandle, error)

	// BindBuffer makes handle the current buffer for target.
	//
	// Parameters:
	//   - target: the binding point
	//   - handle: a handle issued by CreateBuffer
	//
	// Returns:
	//   - error: ErrUnknownBuffer if the handle is not live
	BindBuffer(target BufferTarget, handle BufferHandle) error

	// BufferData replaces the contents of the buffer bound to target.
	//
	// Parameters:
	//   - target: the binding point
	//   - data: the bytes to upload
	//   - hint: the expected update frequency
	//
	// Returns:
	//   - error: error if nothing is bound or the upload fails
	BufferData(target BufferTarget, data []byte, hint UsageHint) error

	// DeleteBuffer releases the handle and its device memory. Unknown handles are ignored.
	//
	// Parameters:
	//   - handle: the handle to release
	DeleteBuffer(handle BufferHandle)
}
