package window

import (
	"github.com/sirupsen/logrus"
)

// WindowBuilderOption is a functional option for configuring a Window via NewWindow.
type WindowBuilderOption func(w *previewWindow)

// WithTitle sets the window title displayed in the title bar.
//
// Parameters:
//   - title: the window title text
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithTitle(title string) WindowBuilderOption {
	return func(w *previewWindow) {
		w.title = title
	}
}

// WithSize sets the requested client area size.
//
// Parameters:
//   - width: width in screen coordinates
//   - height: height in screen coordinates
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithSize(width, height int) WindowBuilderOption {
	return func(w *previewWindow) {
		if width > 0 {
			w.width = width
		}
		if height > 0 {
			w.height = height
		}
	}
}

// WithVisible sets whether the window is shown. A hidden window still provides a surface.
//
// Parameters:
//   - visible: false to create the window hidden
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithVisible(visible bool) WindowBuilderOption {
	return func(w *previewWindow) {
		w.visible = visible
	}
}

// WithResizable sets whether the user can resize the window.
//
// Parameters:
//   - resizable: false for a fixed-size window
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithResizable(resizable bool) WindowBuilderOption {
	return func(w *previewWindow) {
		w.resizable = resizable
	}
}

// WithLogger sets the logger for window lifecycle events.
//
// Parameters:
//   - logger: the logger
//
// Returns:
//   - WindowBuilderOption: option function to apply
func WithLogger(logger logrus.FieldLogger) WindowBuilderOption {
	return func(w *previewWindow) {
		w.logger = logger
	}
}
