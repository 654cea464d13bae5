package window

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/cogentcore/webgpu/wgpuglfw"
	"github.com/go-gl/glfw/v3.3/glfw"
)

// ErrNotOpen is returned when closing a window that was never opened or is already closed.
var ErrNotOpen = errors.New("window is not open")

// glfwWindow is the open GLFW window backing an engineWindow.
type glfwWindow struct {
	window *glfw.Window
}

// newPlatformWindow opens a GLFW window without a client API, since the surface is driven by
// WebGPU. The calling goroutine stays locked to its OS thread for the lifetime of the window.
func newPlatformWindow(w *engineWindow) error {
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("failed to initialize GLFW: %w", err)
	}
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)

	win, err := glfw.CreateWindow(w.width, w.height, w.title, nil, nil)
	if err != nil {
		glfw.Terminate()
		return fmt.Errorf("failed to create GLFW window: %w", err)
	}
	win.SetSizeLimits(w.minWidth, w.minHeight, w.maxWidth, w.maxHeight)

	// Escape closes the preview.
	win.SetKeyCallback(func(win *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if key == glfw.KeyEscape && action == glfw.Press {
			win.SetShouldClose(true)
		}
	})
	win.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		w.resized(width, height)
	})

	w.internalWindow = &glfwWindow{window: win}
	// The framebuffer is larger than the requested size on high-DPI displays.
	w.width, w.height = win.GetFramebufferSize()
	return nil
}

func platformGetSurfaceDescriptor(w *engineWindow) *wgpu.SurfaceDescriptor {
	if w.internalWindow == nil {
		return nil
	}
	return wgpuglfw.GetSurfaceDescriptor(w.internalWindow.window)
}

func platformIsRunningCheck(w *engineWindow) bool {
	return w.internalWindow != nil && !w.internalWindow.window.ShouldClose()
}

// platformCloseWindow destroys the window and terminates GLFW.
//
// Parameters:
//   - w: the engineWindow to close
//
// Returns:
//   - error: ErrNotOpen if there is no open window
func platformCloseWindow(w *engineWindow) error {
	if w.internalWindow == nil {
		return ErrNotOpen
	}
	w.internalWindow.window.Destroy()
	glfw.Terminate()
	w.internalWindow = nil
	return nil
}

// platformProcessMessages polls pending events without blocking and reports whether the
// window is still open.
func platformProcessMessages(w *engineWindow) bool {
	glfw.PollEvents()
	return platformIsRunningCheck(w)
}
