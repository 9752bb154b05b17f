// Package devicetest provides an in-memory device.Device for tests. It records every call,
// keeps uploaded bytes per handle, and can be told to fail specific operations.
package devicetest

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-mesh/engine/device"
)

// ErrInjected is the cause wrapped by failures triggered through FailCreateAfter / FailUploadAfter.
var ErrInjected = errors.New("injected device failure")

// Op names a recorded device call.
type Op string

const (
	OpCreate Op = "create"
	OpBind   Op = "bind"
	OpData   Op = "data"
	OpDelete Op = "delete"
)

// Call is one recorded device call.
type Call struct {
	Op     Op
	Target device.BufferTarget
	Handle device.BufferHandle
	Bytes  int
	Hint   device.UsageHint
}

// Device is a recording device.Device. The zero value is not usable; call New.
type Device struct {
	id    device.ContextID
	next  device.BufferHandle
	live  map[device.BufferHandle][]byte
	bound map[device.BufferTarget]device.BufferHandle

	// Calls holds every call in order.
	Calls []Call

	createBudget int
	uploadBudget int
}

var _ device.Device = &Device{}

// New creates an empty recording device with a fresh context id.
func New() *Device {
	return &Device{
		id:           device.NextContextID(),
		live:         make(map[device.BufferHandle][]byte),
		bound:        make(map[device.BufferTarget]device.BufferHandle),
		createBudget: -1,
		uploadBudget: -1,
	}
}

// FailCreateAfter makes CreateBuffer fail once n more calls have succeeded. Negative n disables.
func (d *Device) FailCreateAfter(n int) {
	d.createBudget = n
}

// FailUploadAfter makes BufferData fail once n more calls have succeeded. Negative n disables.
func (d *Device) FailUploadAfter(n int) {
	d.uploadBudget = n
}

func (d *Device) ID() device.ContextID {
	return d.id
}

func (d *Device) CreateBuffer() (device.BufferHandle, error) {
	if d.createBudget == 0 {
		return 0, fmt.Errorf("create buffer: %w", ErrInjected)
	}
	if d.createBudget > 0 {
		d.createBudget--
	}
	d.next++
	d.live[d.next] = nil
	d.Calls = append(d.Calls, Call{Op: OpCreate, Handle: d.next})
	return d.next, nil
}

func (d *Device) BindBuffer(target device.BufferTarget, handle device.BufferHandle) error {
	if _, ok := d.live[handle]; !ok {
		return fmt.Errorf("bind %s buffer %d: %w", target, handle, device.ErrUnknownBuffer)
	}
	d.bound[target] = handle
	d.Calls = append(d.Calls, Call{Op: OpBind, Target: target, Handle: handle})
	return nil
}

func (d *Device) BufferData(target device.BufferTarget, data []byte, hint device.UsageHint) error {
	handle, ok := d.bound[target]
	if !ok {
		return fmt.Errorf("upload %s data: %w", target, device.ErrNoBoundBuffer)
	}
	if d.uploadBudget == 0 {
		return fmt.Errorf("upload %s buffer %d: %w", target, handle, ErrInjected)
	}
	if d.uploadBudget > 0 {
		d.uploadBudget--
	}
	d.live[handle] = append([]byte(nil), data...)
	d.Calls = append(d.Calls, Call{Op: OpData, Target: target, Handle: handle, Bytes: len(data), Hint: hint})
	return nil
}

func (d *Device) DeleteBuffer(handle device.BufferHandle) {
	if _, ok := d.live[handle]; !ok {
		return
	}
	delete(d.live, handle)
	for target, h := range d.bound {
		if h == handle {
			delete(d.bound, target)
		}
	}
	d.Calls = append(d.Calls, Call{Op: OpDelete, Handle: handle})
}

// Live returns the number of handles that have been created and not deleted.
func (d *Device) Live() int {
	return len(d.live)
}

// IsLive reports whether handle has been created and not deleted.
func (d *Device) IsLive(handle device.BufferHandle) bool {
	_, ok := d.live[handle]
	return ok
}

// Data returns the bytes last uploaded to handle.
func (d *Device) Data(handle device.BufferHandle) []byte {
	return d.live[handle]
}

// Count returns how many calls of op were recorded.
func (d *Device) Count(op Op) int {
	n := 0
	for _, c := range d.Calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Reset forgets recorded calls but keeps live buffers.
func (d *Device) Reset() {
	d.Calls = nil
}
