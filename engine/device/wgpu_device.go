package device

import (
	"fmt"
	"runtime"
	"sync"

	"github.com/Carmen-Shannon/oxy-mesh/common"
	"github.com/cogentcore/webgpu/wgpu"
)

// SurfaceSource supplies a platform surface descriptor, typically from a window. A device
// created with a surface source requests an adapter compatible with that surface.
type SurfaceSource interface {
	// SurfaceDescriptor returns the platform-specific surface descriptor, or nil if unavailable.
	//
	// Returns:
	//   - *wgpu.SurfaceDescriptor: the descriptor or nil
	SurfaceDescriptor() *wgpu.SurfaceDescriptor
}

// WGPUDevice is a Device backed by a WebGPU device and queue.
type WGPUDevice interface {
	Device

	// Label returns the debug label used for buffers created by this device.
	//
	// Returns:
	//   - string: the debug label
	Label() string

	// BufferCount returns the number of live buffer handles.
	//
	// Returns:
	//   - int: the live handle count
	BufferCount() int

	// BufferSize returns the byte size of the GPU buffer backing handle, or 0 if it has not
	// been uploaded yet.
	//
	// Parameters:
	//   - handle: the handle to inspect
	//
	// Returns:
	//   - uint64: the backing size in bytes
	BufferSize(handle BufferHandle) uint64

	// WGPU returns the underlying WebGPU device.
	//
	// Returns:
	//   - *wgpu.Device: the device
	WGPU() *wgpu.Device

	// Release releases every live buffer and, when the device was created here rather than
	// wrapped, the device, adapter, surface and instance. Further calls fail with
	// ErrDeviceReleased.
	Release()
}

// wgpuBuffer is the device-side state behind one BufferHandle. The backing GPU buffer is
// created on first upload since WebGPU buffers are sized at creation.
type wgpuBuffer struct {
	buf    *wgpu.Buffer
	size   uint64
	target BufferTarget
}

// wgpuDevice is the implementation of WGPUDevice.
type wgpuDevice struct {
	mu *sync.Mutex

	id    ContextID
	label string

	forceFallbackAdapter bool
	surfaceSource        SurfaceSource

	// The following fields are GPU objects. Only those created by this device are released
	// by Release; a wrapped device is left to its owner.
	instance   *wgpu.Instance
	surface    *wgpu.Surface
	adapter    *wgpu.Adapter
	device     *wgpu.Device
	queue      *wgpu.Queue
	ownsDevice bool

	nextHandle BufferHandle
	buffers    map[BufferHandle]*wgpuBuffer
	bound      map[BufferTarget]BufferHandle
	released   bool
}

var _ WGPUDevice = &wgpuDevice{}

// NewWGPUDevice creates a WebGPU-backed device context with the provided options applied.
// Without WithWGPUDevice, a new instance, adapter and device are requested; the adapter is
// made compatible with the surface from WithSurfaceSource when one is given.
//
// Parameters:
//   - options: a variadic list of WGPUDeviceBuilderOption functions
//
// Returns:
//   - WGPUDevice: the new device context
//   - error: error if adapter or device acquisition fails
func NewWGPUDevice(options ...WGPUDeviceBuilderOption) (WGPUDevice, error) {
	d := &wgpuDevice{
		mu:      &sync.Mutex{},
		id:      NextContextID(),
		buffers: make(map[BufferHandle]*wgpuBuffer),
		bound:   make(map[BufferTarget]BufferHandle),
	}
	for _, opt := range options {
		opt(d)
	}
	d.label = common.Coalesce(d.label, fmt.Sprintf("Mesh Context %d", d.id))

	if d.device != nil {
		d.queue = d.device.GetQueue()
		return d, nil
	}

	// WebGPU objects are tied to the creating OS thread on some platforms.
	runtime.LockOSThread()

	d.instance = wgpu.CreateInstance(nil)
	if d.surfaceSource != nil {
		if desc := d.surfaceSource.SurfaceDescriptor(); desc != nil {
			d.surface = d.instance.CreateSurface(desc)
		}
	}

	adapter, err := d.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: d.forceFallbackAdapter,
		CompatibleSurface:    d.surface,
	})
	if err != nil {
		return nil, d.abandon(fmt.Errorf("failed to request adapter: %w", err))
	}
	d.adapter = adapter

	dev, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: d.label,
	})
	if err != nil {
		return nil, d.abandon(fmt.Errorf("failed to request device: %w", err))
	}
	d.device = dev
	d.queue = dev.GetQueue()
	d.ownsDevice = true

	return d, nil
}

func (d *wgpuDevice) ID() ContextID {
	return d.id
}

func (d *wgpuDevice) Label() string {
	return d.label
}

func (d *wgpuDevice) WGPU() *wgpu.Device {
	return d.device
}

func (d *wgpuDevice) BufferCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.buffers)
}

func (d *wgpuDevice) BufferSize(handle BufferHandle) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if b, ok := d.buffers[handle]; ok {
		return b.size
	}
	return 0
}

func (d *wgpuDevice) CreateBuffer() (BufferHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.released {
		return 0, ErrDeviceReleased
	}
	d.nextHandle++
	d.buffers[d.nextHandle] = &wgpuBuffer{}
	return d.nextHandle, nil
}

func (d *wgpuDevice) BindBuffer(target BufferTarget, handle BufferHandle) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.released {
		return ErrDeviceReleased
	}
	if _, ok := d.buffers[handle]; !ok {
		return fmt.Errorf("bind %s buffer %d: %w", target, handle, ErrUnknownBuffer)
	}
	d.bound[target] = handle
	return nil
}

func (d *wgpuDevice) BufferData(target BufferTarget, data []byte, hint UsageHint) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.released {
		return ErrDeviceReleased
	}
	handle, ok := d.bound[target]
	if !ok {
		return fmt.Errorf("upload %s data: %w", target, ErrNoBoundBuffer)
	}
	b, ok := d.buffers[handle]
	if !ok {
		return fmt.Errorf("upload %s buffer %d: %w", target, handle, ErrUnknownBuffer)
	}

	// WebGPU copies must be 4-byte aligned.
	size := alignTo4(uint64(len(data)))
	if size == 0 {
		size = 4
	}

	// Static buffers are resized exactly; dynamic buffers keep any larger capacity.
	reuse := b.buf != nil && b.target == target &&
		(b.size == size || (hint == HintDynamic && b.size > size))
	if !reuse {
		if b.buf != nil {
			b.buf.Release()
			b.buf = nil
		}
		buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
			Label:            fmt.Sprintf("%s %s Buffer %d", d.label, target, handle),
			Size:             size,
			Usage:            usageFor(target) | wgpu.BufferUsageCopyDst,
			MappedAtCreation: false,
		})
		if err != nil {
			return fmt.Errorf("failed to create %s buffer %d: %w", target, handle, err)
		}
		b.buf, b.size, b.target = buf, size, target
	}

	if len(data) == 0 {
		return nil
	}
	if uint64(len(data)) != size {
		padded := make([]byte, size)
		copy(padded, data)
		data = padded
	}
	d.queue.WriteBuffer(b.buf, 0, data)
	return nil
}

func (d *wgpuDevice) DeleteBuffer(handle BufferHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()

	b, ok := d.buffers[handle]
	if !ok {
		return
	}
	if b.buf != nil {
		b.buf.Release()
	}
	delete(d.buffers, handle)
	for target, h := range d.bound {
		if h == handle {
			delete(d.bound, target)
		}
	}
}

func (d *wgpuDevice) Release() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.released {
		return
	}
	for h, b := range d.buffers {
		if b.buf != nil {
			b.buf.Release()
		}
		delete(d.buffers, h)
	}
	clear(d.bound)
	d.releaseOwned()
	d.released = true
}

// abandon undoes a failed NewWGPUDevice: it releases what was created and unlocks the OS
// thread locked for it. It returns err unchanged.
func (d *wgpuDevice) abandon(err error) error {
	d.releaseOwned()
	runtime.UnlockOSThread()
	return err
}

// releaseOwned releases the WebGPU objects created by NewWGPUDevice, in reverse order.
func (d *wgpuDevice) releaseOwned() {
	if d.ownsDevice && d.device != nil {
		d.queue.Release()
		d.device.Release()
	}
	d.queue, d.device = nil, nil
	if d.adapter != nil {
		d.adapter.Release()
		d.adapter = nil
	}
	if d.surface != nil {
		d.surface.Release()
		d.surface = nil
	}
	if d.instance != nil {
		d.instance.Release()
		d.instance = nil
	}
}

func usageFor(target BufferTarget) wgpu.BufferUsage {
	if target == TargetIndex {
		return wgpu.BufferUsageIndex
	}
	return wgpu.BufferUsageVertex
}

func alignTo4(n uint64) uint64 {
	return (n + 3) &^ 3
}
