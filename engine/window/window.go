// Package window opens a GLFW window that serves as the presentation surface for a WebGPU
// device context. It is only needed when meshes are previewed on screen; headless uploads
// never create one.
package window

import (
	"runtime"

	"github.com/Carmen-Shannon/oxy-mesh/engine/device"
	"github.com/Carmen-Shannon/oxy-mesh/engine/logging"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/sirupsen/logrus"
)

// Window is a native window that can hand a surface descriptor to a device context.
type Window interface {
	device.SurfaceSource

	// SetUpdateCallback sets the function called each message loop iteration.
	//
	// Parameters:
	//   - callback: function to call (or nil to disable)
	SetUpdateCallback(callback func())

	// SetResizeCallback sets the function called when the framebuffer is resized.
	//
	// Parameters:
	//   - callback: function receiving new width and height in pixels
	SetResizeCallback(callback func(width, height int))

	// SetKeyDownCallback sets the callback for key press events. Escape always closes the window.
	//
	// Parameters:
	//   - callback: function receiving the GLFW key code
	SetKeyDownCallback(callback func(keyCode uint32))

	// PollEvents processes pending window events without blocking.
	//
	// Returns:
	//   - bool: true while the window is still open
	PollEvents() bool

	// ProcessMessages runs the message loop until the window closes, calling the update
	// callback each iteration.
	ProcessMessages()

	// IsRunning reports whether the window is still open.
	//
	// Returns:
	//   - bool: true if the window is open
	IsRunning() bool

	// Close destroys the window and terminates GLFW.
	//
	// Returns:
	//   - error: ErrNotInitialized if the window was already closed
	Close() error

	// Width returns the framebuffer width in pixels.
	Width() int

	// Height returns the framebuffer height in pixels.
	Height() int
}

// previewWindow is the implementation of the Window interface.
type previewWindow struct {
	title     string
	width     int
	height    int
	visible   bool
	resizable bool

	// internalWindow holds the GLFW state once the window is open.
	internalWindow *glfwWindow

	onUpdate  func()
	onResize  func(width, height int)
	onKeyDown func(keyCode uint32)

	logger logrus.FieldLogger
}

var _ Window = &previewWindow{}

// NewWindow creates and opens a new Window with the specified options.
//
// Parameters:
//   - options: functional options to configure the window
//
// Returns:
//   - Window: the open window
//   - error: error if GLFW cannot be initialized or the window cannot be created
func NewWindow(options ...WindowBuilderOption) (Window, error) {
	w := &previewWindow{
		title:     "oxy-mesh",
		width:     1280,
		height:    720,
		visible:   true,
		resizable: true,
	}
	for _, opt := range options {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logging.Component("window")
	}
	if err := openGLFWWindow(w); err != nil {
		return nil, err
	}
	w.logger.WithFields(logrus.Fields{
		"title":  w.title,
		"width":  w.width,
		"height": w.height,
	}).Debug("[Window] opened")
	return w, nil
}

func (w *previewWindow) SetUpdateCallback(callback func()) {
	w.onUpdate = callback
}

func (w *previewWindow) SetResizeCallback(callback func(width, height int)) {
	w.onResize = callback
}

func (w *previewWindow) SetKeyDownCallback(callback func(keyCode uint32)) {
	w.onKeyDown = callback
}

func (w *previewWindow) SurfaceDescriptor() *wgpu.SurfaceDescriptor {
	return glfwSurfaceDescriptor(w)
}

func (w *previewWindow) PollEvents() bool {
	return glfwPollEvents(w)
}

func (w *previewWindow) ProcessMessages() {
	for w.PollEvents() {
		if w.onUpdate != nil {
			w.onUpdate()
		}
		runtime.Gosched()
	}
}

func (w *previewWindow) IsRunning() bool {
	return glfwIsRunning(w)
}

func (w *previewWindow) Close() error {
	if err := closeGLFWWindow(w); err != nil {
		return err
	}
	w.logger.Debug("[Window] closed")
	return nil
}

func (w *previewWindow) Width() int {
	return w.width
}

func (w *previewWindow) Height() int {
	return w.height
}
