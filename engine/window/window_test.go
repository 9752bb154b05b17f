package window

import (
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
)

func TestBuilderOptions(t *testing.T) {
	logger, _ := test.NewNullLogger()
	w := &previewWindow{width: 1280, height: 720, visible: true, resizable: true}
	for _, opt := range []WindowBuilderOption{
		WithTitle("preview"),
		WithSize(640, 0),
		WithVisible(false),
		WithResizable(false),
		WithLogger(logger),
	} {
		opt(w)
	}

	assert.Equal(t, "preview", w.title)
	assert.Equal(t, 640, w.Width())
	assert.Equal(t, 720, w.Height(), "non-positive sizes keep the default")
	assert.False(t, w.visible)
	assert.False(t, w.resizable)
	assert.Same(t, logger, w.logger)
}

func TestUnopenedWindow(t *testing.T) {
	w := &previewWindow{}
	assert.Nil(t, w.SurfaceDescriptor())
	assert.False(t, w.IsRunning())
	assert.False(t, w.PollEvents())
	assert.ErrorIs(t, w.Close(), ErrNotInitialized)

	w.ProcessMessages()
}

func TestGLFWBool(t *testing.T) {
	assert.Equal(t, 1, glfwBool(true))
	assert.Equal(t, 0, glfwBool(false))
}
